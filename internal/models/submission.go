package models

import (
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FormSubmission is one completed data-collection form: the captured
// answers merged with the contact's phone number.
type FormSubmission struct {
	gorm.Model

	SubmissionID string `json:"submission_id" gorm:"uniqueIndex"`
	ChatbotID    string `json:"chatbot_id" gorm:"index"`
	UserID       string `json:"user_id"`
	Phone        string `json:"phone" gorm:"index"`
	Answers      string `json:"answers"` // JSON object, field name -> captured value
}

func (s *FormSubmission) BeforeCreate(tx *gorm.DB) error {
	if s.SubmissionID == "" {
		s.SubmissionID = uuid.NewString()
	}
	return nil
}

func (s *FormSubmission) AnswerMap() map[string]string {
	if s.Answers == "" {
		return map[string]string{}
	}
	answers := map[string]string{}
	_ = json.Unmarshal([]byte(s.Answers), &answers)
	return answers
}

func (s *FormSubmission) SetAnswers(answers map[string]string) {
	encoded, _ := json.Marshal(answers)
	s.Answers = string(encoded)
}
