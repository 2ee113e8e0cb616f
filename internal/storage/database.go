package storage

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tecnochat/tenolatina-sub000/internal/apperrors"
	"github.com/tecnochat/tenolatina-sub000/internal/models"
)

// DatabaseStore implements Store on top of gorm.
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a database-backed store
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

func wrapDBError(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", op, apperrors.ErrNotFound)
	}
	return fmt.Errorf("%s: %w: %v", op, apperrors.ErrDatabase, err)
}

// Chatbot operations

func (s *DatabaseStore) CreateChatbot(chatbot *models.Chatbot) (*models.Chatbot, error) {
	if err := s.db.Create(chatbot).Error; err != nil {
		return nil, wrapDBError("create chatbot", err)
	}
	return chatbot, nil
}

func (s *DatabaseStore) GetChatbot(chatbotID string) (*models.Chatbot, error) {
	var chatbot models.Chatbot
	if err := s.db.Where("chatbot_id = ?", chatbotID).First(&chatbot).Error; err != nil {
		return nil, wrapDBError("get chatbot", err)
	}
	return &chatbot, nil
}

func (s *DatabaseStore) GetActiveChatbotForChannel(channelRef string) (*models.Chatbot, error) {
	var chatbot models.Chatbot
	err := s.db.Where("channel_ref = ? AND active = ?", channelRef, true).First(&chatbot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // no bot on this channel is not an error
	}
	if err != nil {
		return nil, wrapDBError("get chatbot for channel", err)
	}
	return &chatbot, nil
}

func (s *DatabaseStore) ListChatbots(userID string) ([]*models.Chatbot, error) {
	var chatbots []*models.Chatbot
	query := s.db.Order("created_at ASC")
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	if err := query.Find(&chatbots).Error; err != nil {
		return nil, wrapDBError("list chatbots", err)
	}
	return chatbots, nil
}

func (s *DatabaseStore) UpdateChatbot(chatbot *models.Chatbot) error {
	if err := s.db.Save(chatbot).Error; err != nil {
		return wrapDBError("update chatbot", err)
	}
	return nil
}

func (s *DatabaseStore) DeleteChatbot(chatbotID string) error {
	result := s.db.Where("chatbot_id = ?", chatbotID).Delete(&models.Chatbot{})
	if result.Error != nil {
		return wrapDBError("delete chatbot", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("delete chatbot: %w", apperrors.ErrNotFound)
	}
	return nil
}

// Flow operations

func (s *DatabaseStore) CreateFlow(flow *models.Flow) (*models.Flow, error) {
	if err := s.db.Create(flow).Error; err != nil {
		return nil, wrapDBError("create flow", err)
	}
	return flow, nil
}

func (s *DatabaseStore) GetFlow(flowID string) (*models.Flow, error) {
	var flow models.Flow
	if err := s.db.Where("flow_id = ?", flowID).First(&flow).Error; err != nil {
		return nil, wrapDBError("get flow", err)
	}
	return &flow, nil
}

func (s *DatabaseStore) GetActiveFlows(chatbotID string) ([]*models.Flow, error) {
	var flows []*models.Flow
	err := s.db.
		Where("chatbot_id = ? AND active = ?", chatbotID, true).
		Order("position ASC, id ASC").
		Find(&flows).Error
	if err != nil {
		return nil, wrapDBError("get active flows", err)
	}
	return flows, nil
}

func (s *DatabaseStore) UpdateFlow(flow *models.Flow) error {
	if err := s.db.Save(flow).Error; err != nil {
		return wrapDBError("update flow", err)
	}
	return nil
}

func (s *DatabaseStore) DeleteFlow(flowID string) error {
	result := s.db.Where("flow_id = ?", flowID).Delete(&models.Flow{})
	if result.Error != nil {
		return wrapDBError("delete flow", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("delete flow: %w", apperrors.ErrNotFound)
	}
	return nil
}

// Welcome operations

func (s *DatabaseStore) CreateWelcome(welcome *models.Welcome) (*models.Welcome, error) {
	// At most one active greeting per chatbot: deactivate any other.
	if welcome.Active {
		err := s.db.Model(&models.Welcome{}).
			Where("chatbot_id = ?", welcome.ChatbotID).
			Update("active", false).Error
		if err != nil {
			return nil, wrapDBError("create welcome", err)
		}
	}
	if err := s.db.Create(welcome).Error; err != nil {
		return nil, wrapDBError("create welcome", err)
	}
	return welcome, nil
}

func (s *DatabaseStore) GetActiveWelcome(chatbotID string) (*models.Welcome, error) {
	var welcome models.Welcome
	err := s.db.Where("chatbot_id = ? AND active = ?", chatbotID, true).First(&welcome).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapDBError("get active welcome", err)
	}
	return &welcome, nil
}

func (s *DatabaseStore) UpdateWelcome(welcome *models.Welcome) error {
	if err := s.db.Save(welcome).Error; err != nil {
		return wrapDBError("update welcome", err)
	}
	return nil
}

func (s *DatabaseStore) DeleteWelcome(welcomeID string) error {
	result := s.db.Where("welcome_id = ?", welcomeID).Delete(&models.Welcome{})
	if result.Error != nil {
		return wrapDBError("delete welcome", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("delete welcome: %w", apperrors.ErrNotFound)
	}
	return nil
}

func (s *DatabaseStore) TrackWelcomeSent(welcomeID, userID, phone string, window time.Duration) (bool, error) {
	shouldSend := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.WelcomeTracking
		err := tx.Where("welcome_id = ? AND phone = ? AND expires_at > ?",
			welcomeID, phone, time.Now()).First(&existing).Error
		if err == nil {
			return nil // unexpired row: skip the send
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		tracking := models.WelcomeTracking{
			WelcomeID: welcomeID,
			UserID:    userID,
			Phone:     phone,
			ExpiresAt: time.Now().Add(window),
		}
		if err := tx.Create(&tracking).Error; err != nil {
			return err
		}
		shouldSend = true
		return nil
	})
	if err != nil {
		return false, wrapDBError("track welcome sent", err)
	}
	return shouldSend, nil
}

func (s *DatabaseStore) DeleteExpiredWelcomeTracking() (int64, error) {
	result := s.db.Where("expires_at <= ?", time.Now()).Delete(&models.WelcomeTracking{})
	if result.Error != nil {
		return 0, wrapDBError("delete expired welcome tracking", result.Error)
	}
	return result.RowsAffected, nil
}

// Blacklist operations

func (s *DatabaseStore) AddBlacklistEntry(entry *models.BlacklistEntry) (*models.BlacklistEntry, error) {
	if err := s.db.Create(entry).Error; err != nil {
		return nil, wrapDBError("add blacklist entry", err)
	}
	return entry, nil
}

func (s *DatabaseStore) RemoveBlacklistEntry(chatbotID, phone string) error {
	result := s.db.Where("chatbot_id = ? AND phone = ?", chatbotID, phone).
		Delete(&models.BlacklistEntry{})
	if result.Error != nil {
		return wrapDBError("remove blacklist entry", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("remove blacklist entry: %w", apperrors.ErrNotFound)
	}
	return nil
}

func (s *DatabaseStore) IsBlacklisted(chatbotID, phone string) (bool, error) {
	var count int64
	err := s.db.Model(&models.BlacklistEntry{}).
		Where("chatbot_id = ? AND phone = ? AND active = ?", chatbotID, phone, true).
		Count(&count).Error
	if err != nil {
		return false, wrapDBError("blacklist lookup", err)
	}
	return count > 0, nil
}

func (s *DatabaseStore) ListBlacklist(chatbotID string) ([]*models.BlacklistEntry, error) {
	var entries []*models.BlacklistEntry
	err := s.db.Where("chatbot_id = ?", chatbotID).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, wrapDBError("list blacklist", err)
	}
	return entries, nil
}

// Prompt operations

func (s *DatabaseStore) CreatePrompt(prompt *models.Prompt) (*models.Prompt, error) {
	// A chatbot has one active behavior prompt at a time.
	if prompt.Kind == models.PromptKindBehavior && prompt.Active {
		err := s.db.Model(&models.Prompt{}).
			Where("chatbot_id = ? AND kind = ?", prompt.ChatbotID, models.PromptKindBehavior).
			Update("active", false).Error
		if err != nil {
			return nil, wrapDBError("create prompt", err)
		}
	}
	if err := s.db.Create(prompt).Error; err != nil {
		return nil, wrapDBError("create prompt", err)
	}
	return prompt, nil
}

func (s *DatabaseStore) GetBehaviorPrompt(chatbotID string) (*models.Prompt, error) {
	var prompt models.Prompt
	err := s.db.Where("chatbot_id = ? AND kind = ? AND active = ?",
		chatbotID, models.PromptKindBehavior, true).First(&prompt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapDBError("get behavior prompt", err)
	}
	return &prompt, nil
}

func (s *DatabaseStore) GetKnowledgePrompts(chatbotID string) ([]*models.Prompt, error) {
	var prompts []*models.Prompt
	err := s.db.Where("chatbot_id = ? AND kind = ? AND active = ?",
		chatbotID, models.PromptKindKnowledge, true).
		Order("created_at ASC").
		Find(&prompts).Error
	if err != nil {
		return nil, wrapDBError("get knowledge prompts", err)
	}
	return prompts, nil
}

func (s *DatabaseStore) UpdatePrompt(prompt *models.Prompt) error {
	if err := s.db.Save(prompt).Error; err != nil {
		return wrapDBError("update prompt", err)
	}
	return nil
}

func (s *DatabaseStore) DeletePrompt(promptID string) error {
	result := s.db.Where("prompt_id = ?", promptID).Delete(&models.Prompt{})
	if result.Error != nil {
		return wrapDBError("delete prompt", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("delete prompt: %w", apperrors.ErrNotFound)
	}
	return nil
}

// Data-collection form operations

func (s *DatabaseStore) SaveFormConfig(config *models.FormConfig) (*models.FormConfig, error) {
	var existing models.FormConfig
	err := s.db.Where("chatbot_id = ?", config.ChatbotID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := s.db.Create(config).Error; err != nil {
			return nil, wrapDBError("save form config", err)
		}
		return config, nil
	}
	if err != nil {
		return nil, wrapDBError("save form config", err)
	}

	config.ID = existing.ID
	config.CreatedAt = existing.CreatedAt
	if err := s.db.Save(config).Error; err != nil {
		return nil, wrapDBError("save form config", err)
	}
	return config, nil
}

func (s *DatabaseStore) GetFormConfig(chatbotID string) (*models.FormConfig, error) {
	var config models.FormConfig
	err := s.db.Where("chatbot_id = ? AND active = ?", chatbotID, true).First(&config).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapDBError("get form config", err)
	}
	return &config, nil
}

func (s *DatabaseStore) SaveFormSubmission(submission *models.FormSubmission) (*models.FormSubmission, error) {
	if err := s.db.Create(submission).Error; err != nil {
		return nil, wrapDBError("save form submission", err)
	}
	return submission, nil
}

func (s *DatabaseStore) ListFormSubmissions(chatbotID string) ([]*models.FormSubmission, error) {
	var submissions []*models.FormSubmission
	err := s.db.Where("chatbot_id = ?", chatbotID).
		Order("created_at DESC").
		Find(&submissions).Error
	if err != nil {
		return nil, wrapDBError("list form submissions", err)
	}
	return submissions, nil
}

// Chat history operations

func (s *DatabaseStore) AppendChatHistory(entry *models.ChatHistory) (*models.ChatHistory, error) {
	if err := s.db.Create(entry).Error; err != nil {
		return nil, wrapDBError("append chat history", err)
	}
	return entry, nil
}

func (s *DatabaseStore) GetRecentChatHistory(chatbotID, phone string, limit int) ([]*models.ChatHistory, error) {
	var entries []*models.ChatHistory
	err := s.db.Where("chatbot_id = ? AND phone = ?", chatbotID, phone).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, wrapDBError("get recent chat history", err)
	}

	// Callers want chronological order; the query fetches newest-first
	// to apply the limit.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}
