package services

import (
	"encoding/json"
	"log"
	"time"

	"github.com/tecnochat/tenolatina-sub000/internal/apperrors"
	"github.com/tecnochat/tenolatina-sub000/internal/cache"
	"github.com/tecnochat/tenolatina-sub000/internal/config"
	"github.com/tecnochat/tenolatina-sub000/internal/conversation"
	"github.com/tecnochat/tenolatina-sub000/internal/models"
	"github.com/tecnochat/tenolatina-sub000/internal/storage"
	"github.com/tecnochat/tenolatina-sub000/internal/utils"
)

// DataFlowService runs the data-collection forms: trigger detection,
// field-by-field capture through the conversation state machine, and
// submission persistence.
type DataFlowService struct {
	store     storage.Store
	cache     cache.Cache
	sender    Sender
	sessions  *conversation.Manager
	history   *HistoryService
	lookupTTL time.Duration
}

func NewDataFlowService(store storage.Store, c cache.Cache, sender Sender, sessions *conversation.Manager, history *HistoryService, lookupTTL time.Duration) *DataFlowService {
	return &DataFlowService{
		store:     store,
		cache:     c,
		sender:    sender,
		sessions:  sessions,
		history:   history,
		lookupTTL: lookupTTL,
	}
}

// InProgress reports whether this contact is mid-form. While true, the
// router hands every message to Capture and skips all other stages.
func (s *DataFlowService) InProgress(chatbotID, phone string) bool {
	return s.sessions.Get(chatbotID, phone) != nil
}

// TryStart begins the form when the normalized message equals one of
// its trigger words. Returns whether the form started.
func (s *DataFlowService) TryStart(chatbot *models.Chatbot, phone, normalized string) bool {
	if normalized == "" {
		return false
	}
	formConfig := s.activeForm(chatbot.ChatbotID)
	if formConfig == nil {
		return false
	}

	triggered := false
	for _, word := range formConfig.TriggerWordList() {
		if utils.Normalize(word) == normalized {
			triggered = true
			break
		}
	}
	if !triggered {
		return false
	}

	fields := formConfig.FieldList()
	if len(fields) == 0 {
		log.Printf("form for chatbot %s triggered but has no fields", chatbot.ChatbotID)
		return false
	}

	messages := formConfig.MessageSet()
	state := conversation.NewState(fields, messages)
	s.sessions.Put(chatbot.ChatbotID, phone, state)

	s.send(phone, messages.Welcome)
	s.promptField(phone, state.CurrentField())
	return true
}

// Capture feeds one message into the contact's in-progress form.
func (s *DataFlowService) Capture(chatbot *models.Chatbot, phone, body string) {
	state := s.sessions.Get(chatbot.ChatbotID, phone)
	if state == nil {
		return
	}

	switch state.Apply(body, config.CancelKeyword, models.ValidateFieldValue) {
	case conversation.StepCancelled:
		s.sessions.Clear(chatbot.ChatbotID, phone)
		s.send(phone, state.Messages.Cancel)

	case conversation.StepRejected:
		s.sessions.Touch(chatbot.ChatbotID, phone)
		s.send(phone, state.Messages.Invalid)
		s.promptField(phone, state.CurrentField())

	case conversation.StepAdvanced:
		s.sessions.Touch(chatbot.ChatbotID, phone)
		s.promptField(phone, state.CurrentField())

	case conversation.StepCompleted:
		submission := &models.FormSubmission{
			ChatbotID: chatbot.ChatbotID,
			UserID:    chatbot.UserID,
			Phone:     phone,
		}
		submission.SetAnswers(state.MergedAnswers(phone))
		if _, err := s.store.SaveFormSubmission(submission); err != nil {
			// State stays so the contact can resend the last answer.
			log.Printf("form submission save failed for %s: %v", phone, err)
			s.sessions.Touch(chatbot.ChatbotID, phone)
			s.send(phone, apperrors.UserMessage(err))
			return
		}
		s.sessions.Clear(chatbot.ChatbotID, phone)
		summary := state.Messages.Success + "\n\n" + state.Summary()
		s.history.Append(chatbot.ChatbotID, chatbot.UserID, phone, body, summary)
		s.send(phone, summary)
	}
}

func (s *DataFlowService) promptField(phone string, field models.FormField) {
	s.send(phone, "📝 "+field.Label+":")
}

func (s *DataFlowService) send(phone, body string) {
	if body == "" {
		return
	}
	if err := s.sender.SendText(phone, body); err != nil {
		log.Printf("form message send failed for %s: %v", phone, err)
	}
}

func (s *DataFlowService) activeForm(chatbotID string) *models.FormConfig {
	scope := formScope(chatbotID)
	if raw, ok := s.cache.Get(scope, "config"); ok {
		if raw == cacheNone {
			return nil
		}
		var formConfig models.FormConfig
		if err := json.Unmarshal([]byte(raw), &formConfig); err == nil {
			return &formConfig
		}
	}

	formConfig, err := s.store.GetFormConfig(chatbotID)
	if err != nil {
		log.Printf("form config lookup failed for chatbot %s: %v", chatbotID, err)
		return nil
	}
	if formConfig == nil || !formConfig.Active {
		s.cache.Set(scope, "config", cacheNone, s.lookupTTL)
		return nil
	}
	if encoded, err := json.Marshal(formConfig); err == nil {
		s.cache.Set(scope, "config", string(encoded), s.lookupTTL)
	}
	return formConfig
}

// Invalidate drops the cached form config for a chatbot.
func (s *DataFlowService) Invalidate(chatbotID string) {
	s.cache.ClearScope(formScope(chatbotID))
}
