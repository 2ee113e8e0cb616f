package services

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/tecnochat/tenolatina-sub000/internal/apperrors"
	"github.com/tecnochat/tenolatina-sub000/internal/cache"
	"github.com/tecnochat/tenolatina-sub000/internal/config"
	"github.com/tecnochat/tenolatina-sub000/internal/models"
	"github.com/tecnochat/tenolatina-sub000/internal/retry"
	"github.com/tecnochat/tenolatina-sub000/internal/speech"
	"github.com/tecnochat/tenolatina-sub000/internal/storage"
	"github.com/tecnochat/tenolatina-sub000/internal/utils"
)

// InboundMessage is one webhook delivery after transport parsing.
type InboundMessage struct {
	MessageSID string
	ChannelRef string // the business number the contact wrote to
	From       string // raw contact identifier from the carrier
	Body       string
	MediaURL   string
	MediaType  string
}

// HasAudio reports whether the inbound media is a voice note.
func (m InboundMessage) HasAudio() bool {
	return m.MediaURL != "" && strings.HasPrefix(m.MediaType, "audio/")
}

// Router drives one message through the pipeline in strict order:
// chatbot resolution, blacklist, welcome, in-progress form capture,
// keyword flows, form triggers, transcription, AI fallback. The first
// terminal stage wins; later stages never see the message.
type Router struct {
	store       storage.Store
	cache       cache.Cache
	blacklist   *BlacklistService
	welcome     *WelcomeService
	flows       *FlowService
	forms       *DataFlowService
	aichat      *AIChatService
	downloader  speech.Downloader
	transcriber speech.Transcriber
	sender      Sender

	countryCode   string
	lookupTTL     time.Duration
	retryAttempts int
	retryDelay    time.Duration
}

func NewRouter(store storage.Store, c cache.Cache, blacklist *BlacklistService, welcome *WelcomeService, flows *FlowService, forms *DataFlowService, aichat *AIChatService, downloader speech.Downloader, transcriber speech.Transcriber, sender Sender, countryCode string, lookupTTL time.Duration) *Router {
	return &Router{
		store:         store,
		cache:         c,
		blacklist:     blacklist,
		welcome:       welcome,
		flows:         flows,
		forms:         forms,
		aichat:        aichat,
		downloader:    downloader,
		transcriber:   transcriber,
		sender:        sender,
		countryCode:   countryCode,
		lookupTTL:     lookupTTL,
		retryAttempts: config.RetryAttempts,
		retryDelay:    time.Duration(config.RetryDelayMs) * time.Millisecond,
	}
}

// Handle processes one already-deduplicated inbound message.
func (r *Router) Handle(ctx context.Context, msg InboundMessage) {
	chatbot := r.resolveChatbot(msg.ChannelRef)
	if chatbot == nil {
		log.Printf("no active chatbot for channel %s, dropping message", msg.ChannelRef)
		return
	}

	phone := utils.NormalizePhone(msg.From, r.countryCode)
	if phone == "" {
		log.Printf("unparseable sender %q, dropping message", msg.From)
		return
	}

	if r.blacklist.IsBlocked(chatbot.ChatbotID, phone) {
		log.Printf("blocked contact %s for chatbot %s", phone, chatbot.ChatbotID)
		return
	}

	r.welcome.Greet(chatbot, phone)

	// Mid-form, every message is a capture step.
	if r.forms.InProgress(chatbot.ChatbotID, phone) {
		r.forms.Capture(chatbot, phone, msg.Body)
		return
	}

	normalized := utils.Normalize(msg.Body)

	if flow := r.flows.Match(chatbot.ChatbotID, normalized); flow != nil {
		r.flows.Respond(chatbot, phone, msg.Body, flow)
		return
	}

	if r.forms.TryStart(chatbot, phone, normalized) {
		return
	}

	text := msg.Body
	asVoice := false
	if msg.HasAudio() {
		transcript, ok := r.transcribe(ctx, phone, msg.MediaURL)
		if !ok {
			return
		}
		text = transcript
		asVoice = true
	}
	if strings.TrimSpace(text) == "" {
		return
	}

	r.aichat.Respond(ctx, chatbot, phone, text, asVoice)
}

// transcribe downloads a voice note and turns it into text. On failure
// the contact gets a friendly message and the pipeline stops.
func (r *Router) transcribe(ctx context.Context, phone, mediaURL string) (string, bool) {
	if r.downloader == nil || r.transcriber == nil {
		log.Printf("voice note from %s but transcription not configured", phone)
		return "", false
	}

	path, err := r.downloader.Download(ctx, mediaURL)
	if err != nil {
		log.Printf("media download failed for %s: %v", phone, err)
		r.sendFriendly(phone, err)
		return "", false
	}
	defer utils.RemoveFileLater(path, 0)

	transcript, err := r.transcriber.Transcribe(ctx, path)
	if err != nil {
		log.Printf("transcription failed for %s: %v", phone, err)
		r.sendFriendly(phone, err)
		return "", false
	}
	return transcript, true
}

func (r *Router) sendFriendly(phone string, err error) {
	if sendErr := r.sender.SendText(phone, apperrors.UserMessage(err)); sendErr != nil {
		log.Printf("error message send failed for %s: %v", phone, sendErr)
	}
}

// resolveChatbot maps the business number to its active chatbot,
// through the lookup cache and with retries against transient storage
// errors.
func (r *Router) resolveChatbot(channelRef string) *models.Chatbot {
	if raw, ok := r.cache.Get(chatbotScope(), channelRef); ok {
		if raw == cacheNone {
			return nil
		}
		var chatbot models.Chatbot
		if err := json.Unmarshal([]byte(raw), &chatbot); err == nil {
			return &chatbot
		}
	}

	chatbot, err := retry.Do(r.retryAttempts, r.retryDelay, func() (*models.Chatbot, error) {
		return r.store.GetActiveChatbotForChannel(channelRef)
	}, func(attempt int, err error) {
		log.Printf("chatbot resolution attempt %d failed for %s: %v", attempt, channelRef, err)
	})
	if err != nil {
		log.Printf("chatbot resolution exhausted retries for %s: %v", channelRef, err)
		return nil
	}
	if chatbot == nil {
		r.cache.Set(chatbotScope(), channelRef, cacheNone, r.lookupTTL)
		return nil
	}
	if encoded, err := json.Marshal(chatbot); err == nil {
		r.cache.Set(chatbotScope(), channelRef, string(encoded), r.lookupTTL)
	}
	return chatbot
}

// InvalidateChatbot drops resolution cache entries. Chatbot edits and
// deletions call this with the chatbot's channel.
func (r *Router) InvalidateChatbot(channelRef string) {
	r.cache.Delete(chatbotScope(), channelRef)
}
