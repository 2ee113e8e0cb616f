package handlers

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/tecnochat/tenolatina-sub000/internal/services"
)

// TwilioWebhookPayload is the form body Twilio posts for an inbound
// WhatsApp message. Status callbacks reuse the shape with an empty
// Body and From.
type TwilioWebhookPayload struct {
	MessageSid       string `form:"MessageSid"`
	From             string `form:"From"`
	To               string `form:"To"`
	Body             string `form:"Body"`
	NumMedia         string `form:"NumMedia"`
	MediaURL         string `form:"MediaUrl0"`
	MediaContentType string `form:"MediaContentType0"`
}

// WhatsAppHandler receives webhook posts, filters them at the
// transport boundary and hands surviving messages to the router.
type WhatsAppHandler struct {
	router     *services.Router
	deduper    *services.Deduper
	dispatcher *services.Dispatcher
}

func NewWhatsAppHandler(router *services.Router, deduper *services.Deduper) *WhatsAppHandler {
	return &WhatsAppHandler{
		router:     router,
		deduper:    deduper,
		dispatcher: services.NewDispatcher(),
	}
}

// HandleWebhook processes one incoming WhatsApp webhook. Twilio gets an
// immediate 200; routing happens off the request goroutine so a slow
// AI call never triggers a carrier retry.
func (h *WhatsAppHandler) HandleWebhook(c *fiber.Ctx) error {
	var payload TwilioWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		log.Printf("Error parsing webhook: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid webhook payload",
		})
	}

	// Status updates carry no sender.
	if payload.From == "" {
		return c.SendStatus(fiber.StatusOK)
	}

	log.Printf("📱 WhatsApp message from %s: %q", payload.From, payload.Body)

	msg := services.InboundMessage{
		MessageSID: payload.MessageSid,
		ChannelRef: payload.To,
		From:       payload.From,
		Body:       payload.Body,
		MediaURL:   payload.MediaURL,
		MediaType:  payload.MediaContentType,
	}

	contactKey := msg.ChannelRef + "|" + msg.From
	if !h.deduper.Allow(msg.MessageSID, contactKey, msg.Body) {
		return c.SendStatus(fiber.StatusOK)
	}

	// Serialized per contact: a slow pipeline stage must not let a
	// later message from the same contact overtake this one.
	h.dispatcher.Enqueue(contactKey, func() {
		h.router.Handle(context.Background(), msg)
	})

	return c.SendStatus(fiber.StatusOK)
}
