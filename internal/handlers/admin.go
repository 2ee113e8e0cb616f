package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/tecnochat/tenolatina-sub000/internal/apperrors"
	"github.com/tecnochat/tenolatina-sub000/internal/models"
	"github.com/tecnochat/tenolatina-sub000/internal/services"
	"github.com/tecnochat/tenolatina-sub000/internal/storage"
)

// AdminHandler exposes the tenant configuration API. Every mutation
// invalidates the matching lookup-cache scope so the router never
// serves stale config past the TTL contract.
type AdminHandler struct {
	store   storage.Store
	router  *services.Router
	flows   *services.FlowService
	welcome *services.WelcomeService
	forms   *services.DataFlowService
	aichat  *services.AIChatService
	history *services.HistoryService
}

func NewAdminHandler(store storage.Store, router *services.Router, flows *services.FlowService, welcome *services.WelcomeService, forms *services.DataFlowService, aichat *services.AIChatService, history *services.HistoryService) *AdminHandler {
	return &AdminHandler{
		store:   store,
		router:  router,
		flows:   flows,
		welcome: welcome,
		forms:   forms,
		aichat:  aichat,
		history: history,
	}
}

func (h *AdminHandler) respondError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	if errors.Is(err, apperrors.ErrNotFound) {
		status = fiber.StatusNotFound
	} else if errors.Is(err, apperrors.ErrValidation) {
		status = fiber.StatusBadRequest
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// ===== Chatbots =====

type chatbotRequest struct {
	UserID     string `json:"user_id"`
	Name       string `json:"name"`
	ChannelRef string `json:"channel_ref"`
	Active     *bool  `json:"active"`
}

func (h *AdminHandler) CreateChatbot(c *fiber.Ctx) error {
	var req chatbotRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if req.Name == "" || req.ChannelRef == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name and channel_ref are required"})
	}

	chatbot := &models.Chatbot{
		UserID:     req.UserID,
		Name:       req.Name,
		ChannelRef: req.ChannelRef,
		Active:     true,
	}
	if req.Active != nil {
		chatbot.Active = *req.Active
	}
	created, err := h.store.CreateChatbot(chatbot)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *AdminHandler) GetChatbot(c *fiber.Ctx) error {
	chatbot, err := h.store.GetChatbot(c.Params("id"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(chatbot)
}

func (h *AdminHandler) ListChatbots(c *fiber.Ctx) error {
	chatbots, err := h.store.ListChatbots(c.Query("user_id"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(chatbots)
}

func (h *AdminHandler) UpdateChatbot(c *fiber.Ctx) error {
	chatbot, err := h.store.GetChatbot(c.Params("id"))
	if err != nil {
		return h.respondError(c, err)
	}

	var req chatbotRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	oldChannel := chatbot.ChannelRef
	if req.Name != "" {
		chatbot.Name = req.Name
	}
	if req.ChannelRef != "" {
		chatbot.ChannelRef = req.ChannelRef
	}
	if req.Active != nil {
		chatbot.Active = *req.Active
	}
	if err := h.store.UpdateChatbot(chatbot); err != nil {
		return h.respondError(c, err)
	}
	h.router.InvalidateChatbot(oldChannel)
	h.router.InvalidateChatbot(chatbot.ChannelRef)
	return c.JSON(chatbot)
}

func (h *AdminHandler) DeleteChatbot(c *fiber.Ctx) error {
	chatbot, err := h.store.GetChatbot(c.Params("id"))
	if err != nil {
		return h.respondError(c, err)
	}
	if err := h.store.DeleteChatbot(chatbot.ChatbotID); err != nil {
		return h.respondError(c, err)
	}
	h.router.InvalidateChatbot(chatbot.ChannelRef)
	h.flows.Invalidate(chatbot.ChatbotID)
	h.welcome.Invalidate(chatbot.ChatbotID)
	h.forms.Invalidate(chatbot.ChatbotID)
	h.aichat.Invalidate(chatbot.ChatbotID)
	return c.SendStatus(fiber.StatusNoContent)
}

// ===== Flows =====

type flowRequest struct {
	ChatbotID string   `json:"chatbot_id"`
	Keywords  []string `json:"keywords"`
	Response  string   `json:"response"`
	MediaURL  string   `json:"media_url"`
	Position  int      `json:"position"`
	Active    *bool    `json:"active"`
}

func (h *AdminHandler) CreateFlow(c *fiber.Ctx) error {
	var req flowRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if req.ChatbotID == "" || len(req.Keywords) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "chatbot_id and keywords are required"})
	}

	flow := &models.Flow{
		ChatbotID: req.ChatbotID,
		Response:  req.Response,
		MediaURL:  req.MediaURL,
		Position:  req.Position,
		Active:    true,
	}
	if req.Active != nil {
		flow.Active = *req.Active
	}
	flow.SetKeywords(req.Keywords)

	created, err := h.store.CreateFlow(flow)
	if err != nil {
		return h.respondError(c, err)
	}
	h.flows.Invalidate(req.ChatbotID)
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *AdminHandler) ListFlows(c *fiber.Ctx) error {
	flows, err := h.store.GetActiveFlows(c.Params("chatbotID"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(flows)
}

func (h *AdminHandler) UpdateFlow(c *fiber.Ctx) error {
	flow, err := h.store.GetFlow(c.Params("id"))
	if err != nil {
		return h.respondError(c, err)
	}

	var req flowRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if len(req.Keywords) > 0 {
		flow.SetKeywords(req.Keywords)
	}
	if req.Response != "" {
		flow.Response = req.Response
	}
	flow.MediaURL = req.MediaURL
	flow.Position = req.Position
	if req.Active != nil {
		flow.Active = *req.Active
	}
	if err := h.store.UpdateFlow(flow); err != nil {
		return h.respondError(c, err)
	}
	h.flows.Invalidate(flow.ChatbotID)
	return c.JSON(flow)
}

func (h *AdminHandler) DeleteFlow(c *fiber.Ctx) error {
	flow, err := h.store.GetFlow(c.Params("id"))
	if err != nil {
		return h.respondError(c, err)
	}
	if err := h.store.DeleteFlow(flow.FlowID); err != nil {
		return h.respondError(c, err)
	}
	h.flows.Invalidate(flow.ChatbotID)
	return c.SendStatus(fiber.StatusNoContent)
}

// ===== Welcomes =====

type welcomeRequest struct {
	ChatbotID string `json:"chatbot_id"`
	Message   string `json:"message"`
	MediaURL  string `json:"media_url"`
}

func (h *AdminHandler) CreateWelcome(c *fiber.Ctx) error {
	var req welcomeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if req.ChatbotID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "chatbot_id is required"})
	}

	created, err := h.store.CreateWelcome(&models.Welcome{
		ChatbotID: req.ChatbotID,
		Message:   req.Message,
		MediaURL:  req.MediaURL,
		Active:    true,
	})
	if err != nil {
		return h.respondError(c, err)
	}
	h.welcome.Invalidate(req.ChatbotID)
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *AdminHandler) GetWelcome(c *fiber.Ctx) error {
	welcome, err := h.store.GetActiveWelcome(c.Params("chatbotID"))
	if err != nil {
		return h.respondError(c, err)
	}
	if welcome == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no active welcome"})
	}
	return c.JSON(welcome)
}

// ===== Blacklist =====

type blacklistRequest struct {
	ChatbotID string `json:"chatbot_id"`
	Phone     string `json:"phone"`
}

func (h *AdminHandler) AddToBlacklist(c *fiber.Ctx) error {
	var req blacklistRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if req.ChatbotID == "" || req.Phone == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "chatbot_id and phone are required"})
	}

	entry, err := h.store.AddBlacklistEntry(&models.BlacklistEntry{
		ChatbotID: req.ChatbotID,
		Phone:     req.Phone,
		Active:    true,
	})
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

func (h *AdminHandler) RemoveFromBlacklist(c *fiber.Ctx) error {
	if err := h.store.RemoveBlacklistEntry(c.Params("chatbotID"), c.Params("phone")); err != nil {
		return h.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AdminHandler) ListBlacklist(c *fiber.Ctx) error {
	entries, err := h.store.ListBlacklist(c.Params("chatbotID"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(entries)
}

// ===== Prompts =====

type promptRequest struct {
	ChatbotID string `json:"chatbot_id"`
	Kind      string `json:"kind"`
	Content   string `json:"content"`
}

func (h *AdminHandler) CreatePrompt(c *fiber.Ctx) error {
	var req promptRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if req.ChatbotID == "" || req.Content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "chatbot_id and content are required"})
	}
	if req.Kind != models.PromptKindBehavior && req.Kind != models.PromptKindKnowledge {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "kind must be behavior or knowledge"})
	}

	created, err := h.store.CreatePrompt(&models.Prompt{
		ChatbotID: req.ChatbotID,
		Kind:      req.Kind,
		Content:   req.Content,
		Active:    true,
	})
	if err != nil {
		return h.respondError(c, err)
	}
	h.aichat.Invalidate(req.ChatbotID)
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *AdminHandler) DeletePrompt(c *fiber.Ctx) error {
	if err := h.store.DeletePrompt(c.Params("id")); err != nil {
		return h.respondError(c, err)
	}
	h.aichat.Invalidate(c.Query("chatbot_id"))
	return c.SendStatus(fiber.StatusNoContent)
}

// ===== Data-collection forms =====

type formConfigRequest struct {
	ChatbotID    string               `json:"chatbot_id"`
	TriggerWords []string             `json:"trigger_words"`
	Fields       []models.FormField   `json:"fields"`
	Messages     *models.FormMessages `json:"messages"`
	Active       *bool                `json:"active"`
}

func (h *AdminHandler) SaveFormConfig(c *fiber.Ctx) error {
	var req formConfigRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if req.ChatbotID == "" || len(req.TriggerWords) == 0 || len(req.Fields) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "chatbot_id, trigger_words and fields are required"})
	}

	formConfig := &models.FormConfig{
		ChatbotID: req.ChatbotID,
		Active:    true,
	}
	if req.Active != nil {
		formConfig.Active = *req.Active
	}
	formConfig.SetTriggerWords(req.TriggerWords)
	formConfig.SetFields(req.Fields)
	if req.Messages != nil {
		formConfig.SetMessages(*req.Messages)
	}

	saved, err := h.store.SaveFormConfig(formConfig)
	if err != nil {
		return h.respondError(c, err)
	}
	h.forms.Invalidate(req.ChatbotID)
	return c.JSON(saved)
}

func (h *AdminHandler) ListFormSubmissions(c *fiber.Ctx) error {
	submissions, err := h.store.ListFormSubmissions(c.Params("chatbotID"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(submissions)
}

// ===== Chat history =====

func (h *AdminHandler) GetChatHistory(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	entries, err := h.store.GetRecentChatHistory(c.Params("chatbotID"), c.Params("phone"), limit)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(entries)
}

// SearchChatHistory runs a semantic search over a contact's past
// exchanges. Without an embedding backend it returns no matches.
func (h *AdminHandler) SearchChatHistory(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "q is required"})
	}
	limit := c.QueryInt("limit", 5)
	results := h.history.SearchSimilar(c.Context(), c.Params("chatbotID"), c.Params("phone"), query, limit)
	if results == nil {
		results = []string{}
	}
	return c.JSON(fiber.Map{"results": results})
}
