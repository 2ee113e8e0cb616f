package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Prompt kinds. A chatbot needs one active behavior prompt before the
// AI responder will answer at all; knowledge prompts are concatenated
// as additional system context.
const (
	PromptKindBehavior  = "behavior"
	PromptKindKnowledge = "knowledge"
)

type Prompt struct {
	gorm.Model

	PromptID  string `json:"prompt_id" gorm:"uniqueIndex"`
	ChatbotID string `json:"chatbot_id" gorm:"index"`
	Kind      string `json:"kind" gorm:"index"`
	Content   string `json:"content"`
	Active    bool   `json:"active"`
}

func (p *Prompt) BeforeCreate(tx *gorm.DB) error {
	if p.PromptID == "" {
		p.PromptID = uuid.NewString()
	}
	return nil
}
