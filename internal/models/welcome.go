package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Welcome is the at-most-one active greeting definition per chatbot.
type Welcome struct {
	gorm.Model

	WelcomeID string `json:"welcome_id" gorm:"uniqueIndex"`
	ChatbotID string `json:"chatbot_id" gorm:"index"`
	Message   string `json:"message"`
	MediaURL  string `json:"media_url"`
	Active    bool   `json:"active"`
}

func (w *Welcome) BeforeCreate(tx *gorm.DB) error {
	if w.WelcomeID == "" {
		w.WelcomeID = uuid.NewString()
	}
	return nil
}

// WelcomeTracking records that a contact received a greeting. While an
// unexpired row exists the greeting is not resent; a cache entry
// mirrors the row to skip the storage round trip within the window.
type WelcomeTracking struct {
	gorm.Model

	WelcomeID string    `json:"welcome_id" gorm:"index:idx_welcome_contact"`
	UserID    string    `json:"user_id"`
	Phone     string    `json:"phone" gorm:"index:idx_welcome_contact"`
	ExpiresAt time.Time `json:"expires_at" gorm:"index"`
}
