package storage

import (
	"time"

	"github.com/tecnochat/tenolatina-sub000/internal/models"
)

// Store defines the storage surface the routing engine and the admin
// API require. Two implementations exist: the gorm/PostgreSQL store
// used in production and an in-memory store for tests and local runs.
type Store interface {
	// Chatbot operations
	CreateChatbot(chatbot *models.Chatbot) (*models.Chatbot, error)
	GetChatbot(chatbotID string) (*models.Chatbot, error)
	GetActiveChatbotForChannel(channelRef string) (*models.Chatbot, error)
	ListChatbots(userID string) ([]*models.Chatbot, error)
	UpdateChatbot(chatbot *models.Chatbot) error
	DeleteChatbot(chatbotID string) error

	// Flow operations
	CreateFlow(flow *models.Flow) (*models.Flow, error)
	GetFlow(flowID string) (*models.Flow, error)
	GetActiveFlows(chatbotID string) ([]*models.Flow, error)
	UpdateFlow(flow *models.Flow) error
	DeleteFlow(flowID string) error

	// Welcome operations
	CreateWelcome(welcome *models.Welcome) (*models.Welcome, error)
	GetActiveWelcome(chatbotID string) (*models.Welcome, error)
	UpdateWelcome(welcome *models.Welcome) error
	DeleteWelcome(welcomeID string) error

	// TrackWelcomeSent atomically checks for an unexpired tracking row
	// and inserts one when absent. Returns true when this call should
	// trigger a send.
	TrackWelcomeSent(welcomeID, userID, phone string, window time.Duration) (bool, error)
	DeleteExpiredWelcomeTracking() (int64, error)

	// Blacklist operations
	AddBlacklistEntry(entry *models.BlacklistEntry) (*models.BlacklistEntry, error)
	RemoveBlacklistEntry(chatbotID, phone string) error
	IsBlacklisted(chatbotID, phone string) (bool, error)
	ListBlacklist(chatbotID string) ([]*models.BlacklistEntry, error)

	// Prompt operations
	CreatePrompt(prompt *models.Prompt) (*models.Prompt, error)
	GetBehaviorPrompt(chatbotID string) (*models.Prompt, error)
	GetKnowledgePrompts(chatbotID string) ([]*models.Prompt, error)
	UpdatePrompt(prompt *models.Prompt) error
	DeletePrompt(promptID string) error

	// Data-collection form operations
	SaveFormConfig(config *models.FormConfig) (*models.FormConfig, error)
	GetFormConfig(chatbotID string) (*models.FormConfig, error)
	SaveFormSubmission(submission *models.FormSubmission) (*models.FormSubmission, error)
	ListFormSubmissions(chatbotID string) ([]*models.FormSubmission, error)

	// Chat history operations
	AppendChatHistory(entry *models.ChatHistory) (*models.ChatHistory, error)
	GetRecentChatHistory(chatbotID, phone string, limit int) ([]*models.ChatHistory, error)
}
