package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tecnochat/tenolatina-sub000/internal/ai"
	"github.com/tecnochat/tenolatina-sub000/internal/cache"
	"github.com/tecnochat/tenolatina-sub000/internal/conversation"
	"github.com/tecnochat/tenolatina-sub000/internal/models"
	"github.com/tecnochat/tenolatina-sub000/internal/storage"
)

const (
	testChannel = "whatsapp:+14155550100"
	testPhone   = "573001112233"
)

type sentMessage struct {
	Kind     string // "text", "media", "voice"
	To       string
	Body     string
	MediaURL string
}

// fakeSender records sends instead of hitting Twilio.
type fakeSender struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (f *fakeSender) SendText(to, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{Kind: "text", To: to, Body: body})
	return nil
}

func (f *fakeSender) SendMedia(to, mediaURL, caption string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{Kind: "media", To: to, Body: caption, MediaURL: mediaURL})
	return nil
}

func (f *fakeSender) SendVoiceNote(to, mediaURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{Kind: "voice", To: to, MediaURL: mediaURL})
	return nil
}

func (f *fakeSender) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentMessage, len(f.sent))
	copy(out, f.sent)
	return out
}

func (f *fakeSender) texts() []string {
	var out []string
	for _, m := range f.messages() {
		if m.Kind == "text" {
			out = append(out, m.Body)
		}
	}
	return out
}

func (f *fakeSender) reset() {
	f.mu.Lock()
	f.sent = nil
	f.mu.Unlock()
}

// fakeCompleter returns a canned reply and records what it was asked.
type fakeCompleter struct {
	mu      sync.Mutex
	reply   string
	err     error
	calls   int
	system  string
	history []ai.Turn
	user    string
}

func (f *fakeCompleter) Complete(_ context.Context, system string, history []ai.Turn, user string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.system = system
	f.history = history
	f.user = user
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

// fakeSynthesizer hands back a fixed local path instead of calling the
// TTS API.
type fakeSynthesizer struct {
	path string
	err  error
}

func (f *fakeSynthesizer) Synthesize(_ context.Context, text string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.path, nil
}

// failingStore errors on the methods the retry paths exercise.
type failingStore struct {
	storage.Store
}

var errStoreDown = errors.New("store down")

func (f *failingStore) IsBlacklisted(chatbotID, phone string) (bool, error) {
	return false, errStoreDown
}

func (f *failingStore) GetActiveChatbotForChannel(channelRef string) (*models.Chatbot, error) {
	return nil, errStoreDown
}

func (f *failingStore) TrackWelcomeSent(welcomeID, userID, phone string, window time.Duration) (bool, error) {
	return false, errStoreDown
}

func (f *failingStore) GetActiveWelcome(chatbotID string) (*models.Welcome, error) {
	return nil, errStoreDown
}

func (f *failingStore) SaveFormSubmission(submission *models.FormSubmission) (*models.FormSubmission, error) {
	return nil, errStoreDown
}

// env wires the full service stack over in-memory backends.
type env struct {
	store     *storage.MemoryStore
	cache     *cache.MemoryCache
	sender    *fakeSender
	completer *fakeCompleter
	sessions  *conversation.Manager

	blacklist *BlacklistService
	welcome   *WelcomeService
	history   *HistoryService
	flows     *FlowService
	forms     *DataFlowService
	aichat    *AIChatService
	router    *Router

	chatbot *models.Chatbot
}

func newEnv(t *testing.T) *env {
	t.Helper()

	e := &env{
		store:     storage.NewMemoryStore(),
		cache:     cache.NewMemoryCache(),
		sender:    &fakeSender{},
		completer: &fakeCompleter{reply: "respuesta generada"},
		sessions:  conversation.NewManager(30 * time.Minute),
	}
	t.Cleanup(e.sessions.Stop)

	chatbot, err := e.store.CreateChatbot(&models.Chatbot{
		UserID:     "user-1",
		Name:       "Soporte",
		ChannelRef: testChannel,
		Active:     true,
	})
	require.NoError(t, err)
	e.chatbot = chatbot

	lookupTTL := 5 * time.Minute

	e.blacklist = NewBlacklistService(e.store)
	e.blacklist.retryDelay = time.Millisecond
	e.welcome = NewWelcomeService(e.store, e.cache, e.sender, lookupTTL, 24*time.Hour)
	e.history = NewHistoryService(e.store, 10, "")
	e.flows = NewFlowService(e.store, e.cache, e.sender, e.history, lookupTTL)
	e.forms = NewDataFlowService(e.store, e.cache, e.sender, e.sessions, e.history, lookupTTL)
	e.aichat = NewAIChatService(e.store, e.cache, e.sender, e.completer, nil, e.history, lookupTTL, 5*time.Minute, "https://bots.example.com")
	e.aichat.retryDelay = time.Millisecond
	e.router = NewRouter(e.store, e.cache, e.blacklist, e.welcome, e.flows, e.forms, e.aichat, nil, nil, e.sender, "57", lookupTTL)
	e.router.retryDelay = time.Millisecond

	return e
}

func (e *env) inbound(body string) InboundMessage {
	return InboundMessage{
		MessageSID: "SM" + body,
		ChannelRef: testChannel,
		From:       "whatsapp:+" + testPhone,
		Body:       body,
	}
}

func (e *env) addFlow(t *testing.T, keywords []string, response, mediaURL string, position int) *models.Flow {
	t.Helper()
	flow := &models.Flow{
		ChatbotID: e.chatbot.ChatbotID,
		Response:  response,
		MediaURL:  mediaURL,
		Position:  position,
		Active:    true,
	}
	flow.SetKeywords(keywords)
	created, err := e.store.CreateFlow(flow)
	require.NoError(t, err)
	e.flows.Invalidate(e.chatbot.ChatbotID)
	return created
}

func (e *env) addForm(t *testing.T, triggers []string, fields []models.FormField) {
	t.Helper()
	formConfig := &models.FormConfig{
		ChatbotID: e.chatbot.ChatbotID,
		Active:    true,
	}
	formConfig.SetTriggerWords(triggers)
	formConfig.SetFields(fields)
	_, err := e.store.SaveFormConfig(formConfig)
	require.NoError(t, err)
	e.forms.Invalidate(e.chatbot.ChatbotID)
}

func (e *env) addBehaviorPrompt(t *testing.T, content string) {
	t.Helper()
	_, err := e.store.CreatePrompt(&models.Prompt{
		ChatbotID: e.chatbot.ChatbotID,
		Kind:      models.PromptKindBehavior,
		Content:   content,
		Active:    true,
	})
	require.NoError(t, err)
	e.aichat.Invalidate(e.chatbot.ChatbotID)
}
