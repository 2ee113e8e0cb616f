package models

import "gorm.io/gorm"

// BlacklistEntry blocks one contact on one chatbot. Phone numbers are
// normalized with the configured country-code rule before comparison.
type BlacklistEntry struct {
	gorm.Model

	ChatbotID string `json:"chatbot_id" gorm:"index:idx_blacklist_contact,unique"`
	Phone     string `json:"phone" gorm:"index:idx_blacklist_contact,unique"`
	Active    bool   `json:"active"`
}
