package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tecnochat/tenolatina-sub000/internal/models"
)

func TestRouterUnknownChannelDropsMessage(t *testing.T) {
	e := newEnv(t)
	msg := e.inbound("hola")
	msg.ChannelRef = "whatsapp:+19999999999"

	e.router.Handle(context.Background(), msg)

	assert.Empty(t, e.sender.messages())
}

func TestRouterInactiveChatbotDropsMessage(t *testing.T) {
	e := newEnv(t)
	e.chatbot.Active = false
	require.NoError(t, e.store.UpdateChatbot(e.chatbot))

	e.router.Handle(context.Background(), e.inbound("hola"))

	assert.Empty(t, e.sender.messages())
}

func TestRouterBlockedContactGetsNothing(t *testing.T) {
	e := newEnv(t)
	e.addWelcome(t, "Bienvenido.", "")
	e.addFlow(t, []string{"hola"}, "¡Hola!", "", 0)
	_, err := e.store.AddBlacklistEntry(&models.BlacklistEntry{
		ChatbotID: e.chatbot.ChatbotID,
		Phone:     testPhone,
		Active:    true,
	})
	require.NoError(t, err)

	e.router.Handle(context.Background(), e.inbound("hola"))

	assert.Empty(t, e.sender.messages(), "blocked contact gets no welcome and no flow response")
}

func TestRouterWelcomeThenFlowResponse(t *testing.T) {
	e := newEnv(t)
	e.addWelcome(t, "¡Bienvenido!", "")
	e.addFlow(t, []string{"hola"}, "¿En qué te ayudo?", "", 0)

	e.router.Handle(context.Background(), e.inbound("HOLA"))

	texts := e.sender.texts()
	require.Len(t, texts, 2)
	assert.Equal(t, "¡Bienvenido!", texts[0], "greeting goes out before the flow response")
	assert.Equal(t, "¿En qué te ayudo?", texts[1])
}

func TestRouterFlowBeatsFormTriggerAndAI(t *testing.T) {
	e := newEnv(t)
	e.addBehaviorPrompt(t, "Eres un asistente.")
	e.addFlow(t, []string{"registro"}, "Usa nuestra web para registrarte.", "", 0)
	e.addForm(t, []string{"registro"}, registrationFields())

	e.router.Handle(context.Background(), e.inbound("registro"))

	texts := e.sender.texts()
	require.Len(t, texts, 1)
	assert.Equal(t, "Usa nuestra web para registrarte.", texts[0])
	assert.False(t, e.forms.InProgress(e.chatbot.ChatbotID, testPhone), "flow match wins over the form trigger")
	assert.Zero(t, e.completer.calls)
}

func TestRouterFormCaptureBypassesFlows(t *testing.T) {
	e := newEnv(t)
	e.addForm(t, []string{"registro"}, registrationFields())
	e.addFlow(t, []string{"hola"}, "¡Hola!", "", 0)

	e.router.Handle(context.Background(), e.inbound("registro"))
	require.True(t, e.forms.InProgress(e.chatbot.ChatbotID, testPhone))
	e.sender.reset()

	// Mid-form, a message that would match a flow is treated as the
	// field answer instead.
	e.router.Handle(context.Background(), e.inbound("hola"))

	require.True(t, e.forms.InProgress(e.chatbot.ChatbotID, testPhone))
	for _, text := range e.sender.texts() {
		assert.NotEqual(t, "¡Hola!", text)
	}
}

func TestRouterFallsThroughToAI(t *testing.T) {
	e := newEnv(t)
	e.addBehaviorPrompt(t, "Eres un asistente.")
	e.addFlow(t, []string{"hola"}, "¡Hola!", "", 0)

	e.router.Handle(context.Background(), e.inbound("¿tienen envíos a Medellín?"))

	texts := e.sender.texts()
	require.Len(t, texts, 1)
	assert.Equal(t, "respuesta generada", texts[0])
	assert.Equal(t, 1, e.completer.calls)
}

func TestRouterEmptyBodyWithoutMediaIsIgnored(t *testing.T) {
	e := newEnv(t)
	e.addBehaviorPrompt(t, "Eres un asistente.")

	e.router.Handle(context.Background(), e.inbound(""))

	assert.Zero(t, e.completer.calls)
	assert.Empty(t, e.sender.messages())
}

func TestRouterNormalizesSenderPhone(t *testing.T) {
	e := newEnv(t)
	e.addForm(t, []string{"registro"}, registrationFields())

	msg := e.inbound("registro")
	msg.From = "whatsapp:+57 300 111-2233"
	e.router.Handle(context.Background(), msg)

	assert.True(t, e.forms.InProgress(e.chatbot.ChatbotID, testPhone))
}

func TestRouterResolutionCacheInvalidation(t *testing.T) {
	e := newEnv(t)
	e.addFlow(t, []string{"hola"}, "¡Hola!", "", 0)

	e.router.Handle(context.Background(), e.inbound("hola"))
	require.Len(t, e.sender.texts(), 1)

	// Deactivate behind the cache: still served until invalidated.
	e.chatbot.Active = false
	require.NoError(t, e.store.UpdateChatbot(e.chatbot))
	e.sender.reset()

	e.router.Handle(context.Background(), e.inbound("hola"))
	assert.Len(t, e.sender.texts(), 1, "cached resolution still routes")

	e.router.InvalidateChatbot(testChannel)
	e.sender.reset()
	e.router.Handle(context.Background(), e.inbound("hola"))
	assert.Empty(t, e.sender.messages())
}
