package services

import (
	"encoding/json"
	"log"
	"time"

	"github.com/tecnochat/tenolatina-sub000/internal/cache"
	"github.com/tecnochat/tenolatina-sub000/internal/models"
	"github.com/tecnochat/tenolatina-sub000/internal/storage"
	"github.com/tecnochat/tenolatina-sub000/internal/utils"
)

// FlowService answers messages that exactly match a configured keyword.
// Keywords and the incoming text are both normalized before comparison,
// so matching is accent- and case-insensitive but never partial.
type FlowService struct {
	store     storage.Store
	cache     cache.Cache
	sender    Sender
	history   *HistoryService
	lookupTTL time.Duration
}

func NewFlowService(store storage.Store, c cache.Cache, sender Sender, history *HistoryService, lookupTTL time.Duration) *FlowService {
	return &FlowService{
		store:     store,
		cache:     c,
		sender:    sender,
		history:   history,
		lookupTTL: lookupTTL,
	}
}

// Match returns the first active flow whose keyword set contains the
// normalized message, in position order. Nil when nothing matches.
func (s *FlowService) Match(chatbotID, normalized string) *models.Flow {
	if normalized == "" {
		return nil
	}
	for _, flow := range s.activeFlows(chatbotID) {
		for _, keyword := range flow.KeywordList() {
			if utils.Normalize(keyword) == normalized {
				return flow
			}
		}
	}
	return nil
}

// Respond delivers a matched flow's response and records the exchange.
// A matched flow always terminates the pipeline, even when it has
// nothing to send; a keyword the tenant pointed at an empty response
// is a deliberate silence, not a fall-through to the AI.
func (s *FlowService) Respond(chatbot *models.Chatbot, phone, message string, flow *models.Flow) {
	if flow.Response == "" && flow.MediaURL == "" {
		log.Printf("flow %s matched with empty response, nothing to send", flow.FlowID)
		return
	}

	s.history.Append(chatbot.ChatbotID, chatbot.UserID, phone, message, flow.Response)

	if flow.HasAudioMedia() {
		// Voice note first, text (if any) as a separate message.
		if err := s.sender.SendVoiceNote(phone, flow.MediaURL); err != nil {
			log.Printf("flow %s voice note send failed for %s: %v", flow.FlowID, phone, err)
		}
		if flow.Response != "" {
			if err := s.sender.SendText(phone, flow.Response); err != nil {
				log.Printf("flow %s text send failed for %s: %v", flow.FlowID, phone, err)
			}
		}
		return
	}
	if flow.MediaURL != "" {
		if err := s.sender.SendMedia(phone, flow.MediaURL, flow.Response); err != nil {
			log.Printf("flow %s media send failed for %s, falling back to text: %v", flow.FlowID, phone, err)
			if flow.Response != "" {
				if err := s.sender.SendText(phone, flow.Response); err != nil {
					log.Printf("flow %s fallback text send failed for %s: %v", flow.FlowID, phone, err)
				}
			}
		}
		return
	}
	if err := s.sender.SendText(phone, flow.Response); err != nil {
		log.Printf("flow %s text send failed for %s: %v", flow.FlowID, phone, err)
	}
}

func (s *FlowService) activeFlows(chatbotID string) []*models.Flow {
	scope := flowsScope(chatbotID)
	if raw, ok := s.cache.Get(scope, "all"); ok {
		var flows []*models.Flow
		if err := json.Unmarshal([]byte(raw), &flows); err == nil {
			return flows
		}
	}

	flows, err := s.store.GetActiveFlows(chatbotID)
	if err != nil {
		log.Printf("flow lookup failed for chatbot %s: %v", chatbotID, err)
		return nil
	}
	if encoded, err := json.Marshal(flows); err == nil {
		s.cache.Set(scope, "all", string(encoded), s.lookupTTL)
	}
	return flows
}

// Invalidate drops the cached flow list for a chatbot. Called by the
// admin API on any flow mutation.
func (s *FlowService) Invalidate(chatbotID string) {
	s.cache.ClearScope(flowsScope(chatbotID))
}
