package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tecnochat/tenolatina-sub000/internal/config"
	"github.com/tecnochat/tenolatina-sub000/internal/handlers"
	"github.com/tecnochat/tenolatina-sub000/internal/middleware"
)

// Setup wires all HTTP routes: the Twilio webhook, the admin API and
// the static media directory serving synthesized voice notes.
func Setup(app *fiber.App, cfg *config.Config, whatsapp *handlers.WhatsAppHandler, admin *handlers.AdminHandler, health *handlers.HealthHandler) {
	app.Get("/health", health.Check)
	app.Get("/ready", health.Ready)

	app.Static("/media", cfg.MediaDir)

	webhooks := app.Group("/webhook")
	if cfg.TwilioAuthToken != "" {
		webhooks.Post("/whatsapp", middleware.ValidateTwilioSignature(cfg.TwilioAuthToken), whatsapp.HandleWebhook)
	} else {
		// Local development without credentials; never run this way in
		// production.
		webhooks.Post("/whatsapp", whatsapp.HandleWebhook)
	}

	api := app.Group("/admin", middleware.RequireAPIKey(cfg.AdminAPIKey))

	chatbots := api.Group("/chatbots")
	chatbots.Post("/", admin.CreateChatbot)
	chatbots.Get("/", admin.ListChatbots)
	chatbots.Get("/:id", admin.GetChatbot)
	chatbots.Put("/:id", admin.UpdateChatbot)
	chatbots.Delete("/:id", admin.DeleteChatbot)

	flows := api.Group("/flows")
	flows.Post("/", admin.CreateFlow)
	flows.Get("/chatbot/:chatbotID", admin.ListFlows)
	flows.Put("/:id", admin.UpdateFlow)
	flows.Delete("/:id", admin.DeleteFlow)

	welcomes := api.Group("/welcomes")
	welcomes.Post("/", admin.CreateWelcome)
	welcomes.Get("/chatbot/:chatbotID", admin.GetWelcome)

	blacklist := api.Group("/blacklist")
	blacklist.Post("/", admin.AddToBlacklist)
	blacklist.Get("/chatbot/:chatbotID", admin.ListBlacklist)
	blacklist.Delete("/chatbot/:chatbotID/:phone", admin.RemoveFromBlacklist)

	prompts := api.Group("/prompts")
	prompts.Post("/", admin.CreatePrompt)
	prompts.Delete("/:id", admin.DeletePrompt)

	forms := api.Group("/forms")
	forms.Put("/", admin.SaveFormConfig)
	forms.Get("/chatbot/:chatbotID/submissions", admin.ListFormSubmissions)

	api.Get("/history/chatbot/:chatbotID/:phone", admin.GetChatHistory)
	api.Get("/history/chatbot/:chatbotID/:phone/search", admin.SearchChatHistory)
}
