package models

import "gorm.io/gorm"

// ChatHistory is one user-message/bot-response pair. Blank user
// messages are never persisted. The most-recent-N window feeds the AI
// responder's conversation context; the full table doubles as the
// semantic-search corpus.
type ChatHistory struct {
	gorm.Model

	UserID    string `json:"user_id"`
	ChatbotID string `json:"chatbot_id" gorm:"index:idx_history_contact"`
	Phone     string `json:"phone" gorm:"index:idx_history_contact"` // normalized, no channel suffix
	Message   string `json:"message"`
	Response  string `json:"response"`
}
