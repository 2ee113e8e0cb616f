package services

import (
	"context"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/tecnochat/tenolatina-sub000/internal/ai"
	"github.com/tecnochat/tenolatina-sub000/internal/cache"
	"github.com/tecnochat/tenolatina-sub000/internal/config"
	"github.com/tecnochat/tenolatina-sub000/internal/models"
	"github.com/tecnochat/tenolatina-sub000/internal/retry"
	"github.com/tecnochat/tenolatina-sub000/internal/speech"
	"github.com/tecnochat/tenolatina-sub000/internal/storage"
	"github.com/tecnochat/tenolatina-sub000/internal/utils"
)

const aiApology = "Lo siento, en este momento no puedo responderte. Intenta de nuevo en unos minutos. 🙏"

// voiceNoteRetention is how long a synthesized voice note stays on disk
// so the carrier can fetch it before cleanup.
const voiceNoteRetention = 5 * time.Minute

// AIChatService is the last pipeline stage: it answers messages nothing
// else claimed, using the tenant's configured prompts. A chatbot with
// no behavior prompt stays silent rather than improvising.
type AIChatService struct {
	store       storage.Store
	cache       cache.Cache
	sender      Sender
	completer   ai.Completer
	synthesizer speech.Synthesizer
	history     *HistoryService

	lookupTTL     time.Duration
	responseTTL   time.Duration
	publicBaseURL string
	retryAttempts int
	retryDelay    time.Duration
}

func NewAIChatService(store storage.Store, c cache.Cache, sender Sender, completer ai.Completer, synthesizer speech.Synthesizer, history *HistoryService, lookupTTL, responseTTL time.Duration, publicBaseURL string) *AIChatService {
	return &AIChatService{
		store:         store,
		cache:         c,
		sender:        sender,
		completer:     completer,
		synthesizer:   synthesizer,
		history:       history,
		lookupTTL:     lookupTTL,
		responseTTL:   responseTTL,
		publicBaseURL: publicBaseURL,
		retryAttempts: config.RetryAttempts,
		retryDelay:    time.Duration(config.RetryDelayMs) * time.Millisecond,
	}
}

// Respond generates and delivers an AI answer. asVoice requests a
// spoken reply, used when the inbound message was a voice note.
func (s *AIChatService) Respond(ctx context.Context, chatbot *models.Chatbot, phone, message string, asVoice bool) {
	if s.completer == nil {
		log.Printf("AI responder disabled, dropping message from %s", phone)
		return
	}

	behavior := s.behaviorPrompt(chatbot.ChatbotID)
	if behavior == "" {
		if config.AIDeclineWhenUnconfigured {
			log.Printf("chatbot %s has no behavior prompt, declining AI response", chatbot.ChatbotID)
			return
		}
	}

	normalized := utils.Normalize(message)
	scope := aiScope(chatbot.ChatbotID)
	key := aiCacheKey(normalized)

	if cached, ok := s.cache.Get(scope, key); ok {
		s.history.Append(chatbot.ChatbotID, chatbot.UserID, phone, message, cached)
		s.deliver(phone, cached, asVoice)
		return
	}

	system := s.buildSystemPrompt(ctx, chatbot.ChatbotID, phone, behavior, message)
	turns := s.history.Recent(chatbot.ChatbotID, phone)

	response, err := retry.Do(s.retryAttempts, s.retryDelay, func() (string, error) {
		return s.completer.Complete(ctx, system, turns, message)
	}, func(attempt int, err error) {
		log.Printf("AI completion attempt %d failed for %s: %v", attempt, phone, err)
	})
	if err != nil {
		log.Printf("AI completion exhausted retries for %s: %v", phone, err)
		if sendErr := s.sender.SendText(phone, aiApology); sendErr != nil {
			log.Printf("AI apology send failed for %s: %v", phone, sendErr)
		}
		return
	}

	s.cache.Set(scope, key, response, s.responseTTL)
	s.history.Append(chatbot.ChatbotID, chatbot.UserID, phone, message, response)
	s.deliver(phone, response, asVoice)
}

// deliver sends the text reply, then, for audio-originated messages,
// a spoken rendition as well. The text is already out when synthesis
// runs, so a synthesis failure costs only the voice note.
func (s *AIChatService) deliver(phone, response string, asVoice bool) {
	if err := s.sender.SendText(phone, response); err != nil {
		log.Printf("AI response send failed for %s: %v", phone, err)
	}
	if asVoice && s.synthesizer != nil {
		s.deliverVoice(phone, response)
	}
}

func (s *AIChatService) deliverVoice(phone, response string) {
	path, err := s.synthesizer.Synthesize(context.Background(), response)
	if err != nil {
		log.Printf("speech synthesis failed for %s: %v", phone, err)
		return
	}
	mediaURL := strings.TrimRight(s.publicBaseURL, "/") + "/media/" + filepath.Base(path)
	if err := s.sender.SendVoiceNote(phone, mediaURL); err != nil {
		log.Printf("voice note send failed for %s: %v", phone, err)
		utils.RemoveFileLater(path, 0)
		return
	}
	utils.RemoveFileLater(path, voiceNoteRetention)
}

// buildSystemPrompt assembles the behavior prompt, the knowledge
// prompts and any semantically similar past exchanges into one system
// message.
func (s *AIChatService) buildSystemPrompt(ctx context.Context, chatbotID, phone, behavior, message string) string {
	var b strings.Builder
	b.WriteString(behavior)

	knowledge, err := s.store.GetKnowledgePrompts(chatbotID)
	if err != nil {
		log.Printf("knowledge prompt lookup failed for chatbot %s: %v", chatbotID, err)
	}
	for _, prompt := range knowledge {
		b.WriteString("\n\n")
		b.WriteString(prompt.Content)
	}

	if excerpts := s.history.SearchSimilar(ctx, chatbotID, phone, message, 3); len(excerpts) > 0 {
		b.WriteString("\n\nConversaciones anteriores relevantes:\n")
		b.WriteString(strings.Join(excerpts, "\n---\n"))
	}
	return b.String()
}

func (s *AIChatService) behaviorPrompt(chatbotID string) string {
	scope := promptScope(chatbotID)
	if cached, ok := s.cache.Get(scope, "behavior"); ok {
		if cached == cacheNone {
			return ""
		}
		return cached
	}

	prompt, err := s.store.GetBehaviorPrompt(chatbotID)
	if err != nil {
		log.Printf("behavior prompt lookup failed for chatbot %s: %v", chatbotID, err)
		return ""
	}
	if prompt == nil {
		s.cache.Set(scope, "behavior", cacheNone, s.lookupTTL)
		return ""
	}
	s.cache.Set(scope, "behavior", prompt.Content, s.lookupTTL)
	return prompt.Content
}

// Invalidate drops the cached prompts and responses for a chatbot.
// Called on any prompt mutation; stale answers must not outlive a
// prompt edit.
func (s *AIChatService) Invalidate(chatbotID string) {
	s.cache.ClearScope(promptScope(chatbotID))
	s.cache.ClearScope(aiScope(chatbotID))
}
