package services

import (
	"encoding/json"
	"log"
	"time"

	"github.com/tecnochat/tenolatina-sub000/internal/cache"
	"github.com/tecnochat/tenolatina-sub000/internal/config"
	"github.com/tecnochat/tenolatina-sub000/internal/models"
	"github.com/tecnochat/tenolatina-sub000/internal/storage"
)

// WelcomeService greets a contact at most once per tracking window.
// Every failure path is fail-open: a broken greeting must never block
// the rest of the pipeline, and a duplicate greeting beats silence.
type WelcomeService struct {
	store      storage.Store
	cache      cache.Cache
	sender     Sender
	lookupTTL  time.Duration
	welcomeTTL time.Duration
}

func NewWelcomeService(store storage.Store, c cache.Cache, sender Sender, lookupTTL, welcomeTTL time.Duration) *WelcomeService {
	return &WelcomeService{
		store:      store,
		cache:      c,
		sender:     sender,
		lookupTTL:  lookupTTL,
		welcomeTTL: welcomeTTL,
	}
}

// Greet sends the chatbot's active greeting unless this contact was
// already greeted within the window. Returns whether a greeting was
// sent. The router continues the pipeline regardless.
func (s *WelcomeService) Greet(chatbot *models.Chatbot, phone string) bool {
	welcome := s.activeWelcome(chatbot.ChatbotID)
	if welcome == nil {
		return false
	}

	// A cached mark short-circuits the storage round trip.
	if _, greeted := s.cache.Get(welcomeSentScope(chatbot.ChatbotID), phone); greeted {
		return false
	}

	shouldSend, err := s.store.TrackWelcomeSent(welcome.WelcomeID, chatbot.UserID, phone, s.welcomeTTL)
	if err != nil {
		if !config.WelcomeTrackingFailOpen {
			return false
		}
		log.Printf("welcome tracking failed for %s, greeting anyway: %v", phone, err)
		shouldSend = true
	}
	if !shouldSend {
		// Write through so the next message in the window stays cheap.
		s.cache.Set(welcomeSentScope(chatbot.ChatbotID), phone, "1", s.welcomeTTL)
		return false
	}

	s.deliver(welcome, phone)
	if err == nil {
		s.cache.Set(welcomeSentScope(chatbot.ChatbotID), phone, "1", s.welcomeTTL)
	}
	return true
}

// deliver sends the greeting, falling back to plain text when the
// media send fails.
func (s *WelcomeService) deliver(welcome *models.Welcome, phone string) {
	if welcome.MediaURL != "" {
		if models.IsAudioURL(welcome.MediaURL) {
			if err := s.sender.SendVoiceNote(phone, welcome.MediaURL); err == nil {
				if welcome.Message != "" {
					if err := s.sender.SendText(phone, welcome.Message); err != nil {
						log.Printf("welcome text after voice note failed for %s: %v", phone, err)
					}
				}
				return
			}
		} else {
			if err := s.sender.SendMedia(phone, welcome.MediaURL, welcome.Message); err == nil {
				return
			}
		}
		log.Printf("welcome media send failed for %s, falling back to text", phone)
	}
	if welcome.Message == "" {
		return
	}
	if err := s.sender.SendText(phone, welcome.Message); err != nil {
		log.Printf("welcome text send failed for %s: %v", phone, err)
	}
}

// activeWelcome resolves the greeting through the lookup cache. A
// chatbot with no greeting is cached too, as a negative entry.
func (s *WelcomeService) activeWelcome(chatbotID string) *models.Welcome {
	scope := welcomeScope(chatbotID)
	if raw, ok := s.cache.Get(scope, "active"); ok {
		if raw == cacheNone {
			return nil
		}
		var welcome models.Welcome
		if err := json.Unmarshal([]byte(raw), &welcome); err == nil {
			return &welcome
		}
	}

	welcome, err := s.store.GetActiveWelcome(chatbotID)
	if err != nil {
		log.Printf("welcome lookup failed for chatbot %s: %v", chatbotID, err)
		return nil
	}
	if welcome == nil {
		s.cache.Set(scope, "active", cacheNone, s.lookupTTL)
		return nil
	}
	if encoded, err := json.Marshal(welcome); err == nil {
		s.cache.Set(scope, "active", string(encoded), s.lookupTTL)
	}
	return welcome
}

// Invalidate drops the cached greeting and all sent-marks for a
// chatbot. The admin API calls this on any welcome mutation.
func (s *WelcomeService) Invalidate(chatbotID string) {
	s.cache.ClearScope(welcomeScope(chatbotID))
	s.cache.ClearScope(welcomeSentScope(chatbotID))
}
