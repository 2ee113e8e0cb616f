package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Chatbot is one tenant-owned bot instance bound to a WhatsApp channel
// endpoint. Resolved once per inbound message (cached) to scope every
// other lookup.
type Chatbot struct {
	gorm.Model

	ChatbotID  string `json:"chatbot_id" gorm:"uniqueIndex"`
	UserID     string `json:"user_id" gorm:"index"`
	Name       string `json:"name"`
	ChannelRef string `json:"channel_ref" gorm:"uniqueIndex"` // receiving WhatsApp number
	Active     bool   `json:"active"`
}

func (c *Chatbot) BeforeCreate(tx *gorm.DB) error {
	if c.ChatbotID == "" {
		c.ChatbotID = uuid.NewString()
	}
	return nil
}
