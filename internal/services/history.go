package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/philippgille/chromem-go"

	"github.com/tecnochat/tenolatina-sub000/internal/ai"
	"github.com/tecnochat/tenolatina-sub000/internal/models"
	"github.com/tecnochat/tenolatina-sub000/internal/storage"
)

// HistoryService persists chat exchanges and exposes them two ways:
// the recent-N window that feeds the AI responder's context, and an
// embedded vector index for semantic recall across the whole
// conversation. The vector index is optional; without an embedding key
// the service degrades to the recency window alone.
type HistoryService struct {
	store storage.Store
	limit int

	mu          sync.Mutex
	vectors     *chromem.DB
	embedder    chromem.EmbeddingFunc
	collections map[string]*chromem.Collection
}

func NewHistoryService(store storage.Store, limit int, openAIKey string) *HistoryService {
	h := &HistoryService{
		store:       store,
		limit:       limit,
		collections: make(map[string]*chromem.Collection),
	}
	if openAIKey != "" {
		h.vectors = chromem.NewDB()
		h.embedder = chromem.NewEmbeddingFuncOpenAI(openAIKey, chromem.EmbeddingModelOpenAI3Small)
	}
	return h
}

// Append records one exchange. Blank user messages are dropped so a
// media-only inbound never pollutes the AI context.
func (h *HistoryService) Append(chatbotID, userID, phone, message, response string) {
	if strings.TrimSpace(message) == "" {
		return
	}
	entry := &models.ChatHistory{
		UserID:    userID,
		ChatbotID: chatbotID,
		Phone:     phone,
		Message:   message,
		Response:  response,
	}
	if _, err := h.store.AppendChatHistory(entry); err != nil {
		log.Printf("history append failed for %s: %v", phone, err)
		return
	}
	h.index(chatbotID, phone, message, response)
}

// Recent returns the last exchanges as alternating turns, oldest
// first, ready to feed the completion request.
func (h *HistoryService) Recent(chatbotID, phone string) []ai.Turn {
	entries, err := h.store.GetRecentChatHistory(chatbotID, phone, h.limit)
	if err != nil {
		log.Printf("history lookup failed for %s: %v", phone, err)
		return nil
	}
	turns := make([]ai.Turn, 0, len(entries)*2)
	for _, entry := range entries {
		turns = append(turns, ai.Turn{Role: ai.RoleUser, Content: entry.Message})
		if entry.Response != "" {
			turns = append(turns, ai.Turn{Role: ai.RoleAssistant, Content: entry.Response})
		}
	}
	return turns
}

// SearchSimilar retrieves the most semantically similar past exchanges
// for this contact, for injection as extra system context. Returns nil
// when the vector index is disabled or empty.
func (h *HistoryService) SearchSimilar(ctx context.Context, chatbotID, phone, query string, n int) []string {
	collection := h.collection(chatbotID)
	if collection == nil {
		return nil
	}
	if count := collection.Count(); count < n {
		n = count
	}
	if n == 0 {
		return nil
	}
	results, err := collection.Query(ctx, query, n, map[string]string{"phone": phone}, nil)
	if err != nil {
		log.Printf("semantic history search failed for %s: %v", phone, err)
		return nil
	}
	excerpts := make([]string, 0, len(results))
	for _, result := range results {
		excerpts = append(excerpts, result.Content)
	}
	return excerpts
}

func (h *HistoryService) index(chatbotID, phone, message, response string) {
	collection := h.collection(chatbotID)
	if collection == nil {
		return
	}
	doc := chromem.Document{
		ID:       uuid.NewString(),
		Content:  fmt.Sprintf("Usuario: %s\nAsistente: %s", message, response),
		Metadata: map[string]string{"phone": phone},
	}
	// Embedding calls the OpenAI API; keep it off the send path.
	go func() {
		if err := collection.AddDocument(context.Background(), doc); err != nil {
			log.Printf("history embedding failed for %s: %v", phone, err)
		}
	}()
}

func (h *HistoryService) collection(chatbotID string) *chromem.Collection {
	if h.vectors == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.collections[chatbotID]; ok {
		return c
	}
	c, err := h.vectors.GetOrCreateCollection("history-"+chatbotID, nil, h.embedder)
	if err != nil {
		log.Printf("history collection init failed for chatbot %s: %v", chatbotID, err)
		return nil
	}
	h.collections[chatbotID] = c
	return c
}
