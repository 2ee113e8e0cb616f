package storage

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tecnochat/tenolatina-sub000/internal/apperrors"
	"github.com/tecnochat/tenolatina-sub000/internal/models"
)

// MemoryStore keeps everything in maps. Used by the test suites and
// when USE_MEMORY_STORE=true for local runs; not for production.
type MemoryStore struct {
	mu sync.RWMutex

	chatbots    map[string]*models.Chatbot // by ChatbotID
	flows       map[string]*models.Flow    // by FlowID
	welcomes    map[string]*models.Welcome // by WelcomeID
	tracking    []*models.WelcomeTracking
	blacklist   map[string]*models.BlacklistEntry // by chatbotID|phone
	prompts     map[string]*models.Prompt         // by PromptID
	formConfigs map[string]*models.FormConfig     // by ChatbotID
	submissions []*models.FormSubmission
	history     []*models.ChatHistory

	nextID uint
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		chatbots:    make(map[string]*models.Chatbot),
		flows:       make(map[string]*models.Flow),
		welcomes:    make(map[string]*models.Welcome),
		blacklist:   make(map[string]*models.BlacklistEntry),
		prompts:     make(map[string]*models.Prompt),
		formConfigs: make(map[string]*models.FormConfig),
	}
}

func (m *MemoryStore) stamp() (uint, time.Time) {
	m.nextID++
	return m.nextID, time.Now()
}

func blacklistKey(chatbotID, phone string) string {
	return chatbotID + "|" + phone
}

// Chatbot operations

func (m *MemoryStore) CreateChatbot(chatbot *models.Chatbot) (*models.Chatbot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if chatbot.ChatbotID == "" {
		chatbot.ChatbotID = uuid.NewString()
	}
	chatbot.ID, chatbot.CreatedAt = m.stamp()
	chatbot.UpdatedAt = chatbot.CreatedAt
	m.chatbots[chatbot.ChatbotID] = chatbot
	return chatbot, nil
}

func (m *MemoryStore) GetChatbot(chatbotID string) (*models.Chatbot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	chatbot, ok := m.chatbots[chatbotID]
	if !ok {
		return nil, fmt.Errorf("get chatbot: %w", apperrors.ErrNotFound)
	}
	return chatbot, nil
}

func (m *MemoryStore) GetActiveChatbotForChannel(channelRef string) (*models.Chatbot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, chatbot := range m.chatbots {
		if chatbot.ChannelRef == channelRef && chatbot.Active {
			return chatbot, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) ListChatbots(userID string) ([]*models.Chatbot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var chatbots []*models.Chatbot
	for _, chatbot := range m.chatbots {
		if userID == "" || chatbot.UserID == userID {
			chatbots = append(chatbots, chatbot)
		}
	}
	sort.Slice(chatbots, func(i, j int) bool { return chatbots[i].ID < chatbots[j].ID })
	return chatbots, nil
}

func (m *MemoryStore) UpdateChatbot(chatbot *models.Chatbot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.chatbots[chatbot.ChatbotID]; !ok {
		return fmt.Errorf("update chatbot: %w", apperrors.ErrNotFound)
	}
	chatbot.UpdatedAt = time.Now()
	m.chatbots[chatbot.ChatbotID] = chatbot
	return nil
}

func (m *MemoryStore) DeleteChatbot(chatbotID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.chatbots[chatbotID]; !ok {
		return fmt.Errorf("delete chatbot: %w", apperrors.ErrNotFound)
	}
	delete(m.chatbots, chatbotID)
	return nil
}

// Flow operations

func (m *MemoryStore) CreateFlow(flow *models.Flow) (*models.Flow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if flow.FlowID == "" {
		flow.FlowID = uuid.NewString()
	}
	flow.ID, flow.CreatedAt = m.stamp()
	flow.UpdatedAt = flow.CreatedAt
	m.flows[flow.FlowID] = flow
	return flow, nil
}

func (m *MemoryStore) GetFlow(flowID string) (*models.Flow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	flow, ok := m.flows[flowID]
	if !ok {
		return nil, fmt.Errorf("get flow: %w", apperrors.ErrNotFound)
	}
	return flow, nil
}

func (m *MemoryStore) GetActiveFlows(chatbotID string) ([]*models.Flow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var flows []*models.Flow
	for _, flow := range m.flows {
		if flow.ChatbotID == chatbotID && flow.Active {
			flows = append(flows, flow)
		}
	}
	sort.Slice(flows, func(i, j int) bool {
		if flows[i].Position != flows[j].Position {
			return flows[i].Position < flows[j].Position
		}
		return flows[i].ID < flows[j].ID
	})
	return flows, nil
}

func (m *MemoryStore) UpdateFlow(flow *models.Flow) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.flows[flow.FlowID]; !ok {
		return fmt.Errorf("update flow: %w", apperrors.ErrNotFound)
	}
	flow.UpdatedAt = time.Now()
	m.flows[flow.FlowID] = flow
	return nil
}

func (m *MemoryStore) DeleteFlow(flowID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.flows[flowID]; !ok {
		return fmt.Errorf("delete flow: %w", apperrors.ErrNotFound)
	}
	delete(m.flows, flowID)
	return nil
}

// Welcome operations

func (m *MemoryStore) CreateWelcome(welcome *models.Welcome) (*models.Welcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if welcome.WelcomeID == "" {
		welcome.WelcomeID = uuid.NewString()
	}
	if welcome.Active {
		for _, other := range m.welcomes {
			if other.ChatbotID == welcome.ChatbotID {
				other.Active = false
			}
		}
	}
	welcome.ID, welcome.CreatedAt = m.stamp()
	welcome.UpdatedAt = welcome.CreatedAt
	m.welcomes[welcome.WelcomeID] = welcome
	return welcome, nil
}

func (m *MemoryStore) GetActiveWelcome(chatbotID string) (*models.Welcome, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, welcome := range m.welcomes {
		if welcome.ChatbotID == chatbotID && welcome.Active {
			return welcome, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) UpdateWelcome(welcome *models.Welcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.welcomes[welcome.WelcomeID]; !ok {
		return fmt.Errorf("update welcome: %w", apperrors.ErrNotFound)
	}
	welcome.UpdatedAt = time.Now()
	m.welcomes[welcome.WelcomeID] = welcome
	return nil
}

func (m *MemoryStore) DeleteWelcome(welcomeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.welcomes[welcomeID]; !ok {
		return fmt.Errorf("delete welcome: %w", apperrors.ErrNotFound)
	}
	delete(m.welcomes, welcomeID)
	return nil
}

func (m *MemoryStore) TrackWelcomeSent(welcomeID, userID, phone string, window time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for _, row := range m.tracking {
		if row.WelcomeID == welcomeID && row.Phone == phone && row.ExpiresAt.After(now) {
			return false, nil
		}
	}

	row := &models.WelcomeTracking{
		WelcomeID: welcomeID,
		UserID:    userID,
		Phone:     phone,
		ExpiresAt: now.Add(window),
	}
	row.ID, row.CreatedAt = m.stamp()
	m.tracking = append(m.tracking, row)
	return true, nil
}

func (m *MemoryStore) DeleteExpiredWelcomeTracking() (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	kept := m.tracking[:0]
	var removed int64
	for _, row := range m.tracking {
		if row.ExpiresAt.After(now) {
			kept = append(kept, row)
		} else {
			removed++
		}
	}
	m.tracking = kept
	return removed, nil
}

// Blacklist operations

func (m *MemoryStore) AddBlacklistEntry(entry *models.BlacklistEntry) (*models.BlacklistEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := blacklistKey(entry.ChatbotID, entry.Phone)
	if _, exists := m.blacklist[key]; exists {
		return nil, fmt.Errorf("add blacklist entry: contact already blocked")
	}
	entry.ID, entry.CreatedAt = m.stamp()
	entry.UpdatedAt = entry.CreatedAt
	m.blacklist[key] = entry
	return entry, nil
}

func (m *MemoryStore) RemoveBlacklistEntry(chatbotID, phone string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := blacklistKey(chatbotID, phone)
	if _, ok := m.blacklist[key]; !ok {
		return fmt.Errorf("remove blacklist entry: %w", apperrors.ErrNotFound)
	}
	delete(m.blacklist, key)
	return nil
}

func (m *MemoryStore) IsBlacklisted(chatbotID, phone string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.blacklist[blacklistKey(chatbotID, phone)]
	return ok && entry.Active, nil
}

func (m *MemoryStore) ListBlacklist(chatbotID string) ([]*models.BlacklistEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var entries []*models.BlacklistEntry
	for _, entry := range m.blacklist {
		if entry.ChatbotID == chatbotID {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}

// Prompt operations

func (m *MemoryStore) CreatePrompt(prompt *models.Prompt) (*models.Prompt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prompt.PromptID == "" {
		prompt.PromptID = uuid.NewString()
	}
	if prompt.Kind == models.PromptKindBehavior && prompt.Active {
		for _, other := range m.prompts {
			if other.ChatbotID == prompt.ChatbotID && other.Kind == models.PromptKindBehavior {
				other.Active = false
			}
		}
	}
	prompt.ID, prompt.CreatedAt = m.stamp()
	prompt.UpdatedAt = prompt.CreatedAt
	m.prompts[prompt.PromptID] = prompt
	return prompt, nil
}

func (m *MemoryStore) GetBehaviorPrompt(chatbotID string) (*models.Prompt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, prompt := range m.prompts {
		if prompt.ChatbotID == chatbotID && prompt.Kind == models.PromptKindBehavior && prompt.Active {
			return prompt, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) GetKnowledgePrompts(chatbotID string) ([]*models.Prompt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var prompts []*models.Prompt
	for _, prompt := range m.prompts {
		if prompt.ChatbotID == chatbotID && prompt.Kind == models.PromptKindKnowledge && prompt.Active {
			prompts = append(prompts, prompt)
		}
	}
	sort.Slice(prompts, func(i, j int) bool { return prompts[i].ID < prompts[j].ID })
	return prompts, nil
}

func (m *MemoryStore) UpdatePrompt(prompt *models.Prompt) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.prompts[prompt.PromptID]; !ok {
		return fmt.Errorf("update prompt: %w", apperrors.ErrNotFound)
	}
	prompt.UpdatedAt = time.Now()
	m.prompts[prompt.PromptID] = prompt
	return nil
}

func (m *MemoryStore) DeletePrompt(promptID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.prompts[promptID]; !ok {
		return fmt.Errorf("delete prompt: %w", apperrors.ErrNotFound)
	}
	delete(m.prompts, promptID)
	return nil
}

// Data-collection form operations

func (m *MemoryStore) SaveFormConfig(config *models.FormConfig) (*models.FormConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.formConfigs[config.ChatbotID]; ok {
		config.ID = existing.ID
		config.CreatedAt = existing.CreatedAt
		config.UpdatedAt = time.Now()
	} else {
		config.ID, config.CreatedAt = m.stamp()
		config.UpdatedAt = config.CreatedAt
	}
	m.formConfigs[config.ChatbotID] = config
	return config, nil
}

func (m *MemoryStore) GetFormConfig(chatbotID string) (*models.FormConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	config, ok := m.formConfigs[chatbotID]
	if !ok || !config.Active {
		return nil, nil
	}
	return config, nil
}

func (m *MemoryStore) SaveFormSubmission(submission *models.FormSubmission) (*models.FormSubmission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if submission.SubmissionID == "" {
		submission.SubmissionID = uuid.NewString()
	}
	submission.ID, submission.CreatedAt = m.stamp()
	submission.UpdatedAt = submission.CreatedAt
	m.submissions = append(m.submissions, submission)
	return submission, nil
}

func (m *MemoryStore) ListFormSubmissions(chatbotID string) ([]*models.FormSubmission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var submissions []*models.FormSubmission
	for i := len(m.submissions) - 1; i >= 0; i-- {
		if m.submissions[i].ChatbotID == chatbotID {
			submissions = append(submissions, m.submissions[i])
		}
	}
	return submissions, nil
}

// Chat history operations

func (m *MemoryStore) AppendChatHistory(entry *models.ChatHistory) (*models.ChatHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry.ID, entry.CreatedAt = m.stamp()
	m.history = append(m.history, entry)
	return entry, nil
}

func (m *MemoryStore) GetRecentChatHistory(chatbotID, phone string, limit int) ([]*models.ChatHistory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []*models.ChatHistory
	for _, entry := range m.history {
		if entry.ChatbotID == chatbotID && entry.Phone == phone {
			matched = append(matched, entry)
		}
	}
	if limit > 0 && len(matched) > limit {
		matched = matched[len(matched)-limit:]
	}
	return matched, nil
}
