package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tecnochat/tenolatina-sub000/internal/models"
	"github.com/tecnochat/tenolatina-sub000/internal/utils"
)

func TestFlowMatchIsExactAfterNormalization(t *testing.T) {
	e := newEnv(t)
	e.addFlow(t, []string{"menú", "carta"}, "Aquí está nuestro menú.", "", 0)

	assert.NotNil(t, e.flows.Match(e.chatbot.ChatbotID, utils.Normalize("MENU")))
	assert.NotNil(t, e.flows.Match(e.chatbot.ChatbotID, utils.Normalize("  menú  ")))
	assert.NotNil(t, e.flows.Match(e.chatbot.ChatbotID, utils.Normalize("carta")))
	assert.Nil(t, e.flows.Match(e.chatbot.ChatbotID, utils.Normalize("quiero el menu")), "no substring matching")
	assert.Nil(t, e.flows.Match(e.chatbot.ChatbotID, ""))
}

func TestFlowMatchFirstByPosition(t *testing.T) {
	e := newEnv(t)
	second := e.addFlow(t, []string{"promo"}, "Promo B", "", 2)
	first := e.addFlow(t, []string{"promo"}, "Promo A", "", 1)
	_ = second

	matched := e.flows.Match(e.chatbot.ChatbotID, "promo")
	require.NotNil(t, matched)
	assert.Equal(t, first.FlowID, matched.FlowID)
}

func TestFlowRespondTextAndHistory(t *testing.T) {
	e := newEnv(t)
	flow := e.addFlow(t, []string{"horario"}, "Abrimos de 8 a 18.", "", 0)

	e.flows.Respond(e.chatbot, testPhone, "Horario", flow)

	texts := e.sender.texts()
	require.Len(t, texts, 1)
	assert.Equal(t, "Abrimos de 8 a 18.", texts[0])

	entries, err := e.store.GetRecentChatHistory(e.chatbot.ChatbotID, testPhone, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Horario", entries[0].Message)
	assert.Equal(t, "Abrimos de 8 a 18.", entries[0].Response)
}

func TestFlowRespondAudioFirstThenText(t *testing.T) {
	e := newEnv(t)
	flow := e.addFlow(t, []string{"saludo"}, "Ese fue nuestro saludo.", "https://cdn.example.com/saludo.ogg", 0)

	e.flows.Respond(e.chatbot, testPhone, "saludo", flow)

	msgs := e.sender.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "voice", msgs[0].Kind)
	assert.Equal(t, "https://cdn.example.com/saludo.ogg", msgs[0].MediaURL)
	assert.Equal(t, "text", msgs[1].Kind)
}

func TestFlowRespondMediaWithCaption(t *testing.T) {
	e := newEnv(t)
	flow := e.addFlow(t, []string{"catalogo"}, "Nuestro catálogo.", "https://cdn.example.com/catalogo.pdf", 0)

	e.flows.Respond(e.chatbot, testPhone, "catalogo", flow)

	msgs := e.sender.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "media", msgs[0].Kind)
	assert.Equal(t, "Nuestro catálogo.", msgs[0].Body)
}

func TestFlowRespondEmptyResponseSendsNothing(t *testing.T) {
	e := newEnv(t)
	flow := e.addFlow(t, []string{"silencio"}, "", "", 0)

	e.flows.Respond(e.chatbot, testPhone, "silencio", flow)

	assert.Empty(t, e.sender.messages())
}

func TestFlowCacheServesUntilInvalidated(t *testing.T) {
	e := newEnv(t)
	e.addFlow(t, []string{"hola"}, "¡Hola!", "", 0)
	require.NotNil(t, e.flows.Match(e.chatbot.ChatbotID, "hola"))

	// A flow created behind the cache's back is invisible until the
	// scope is cleared.
	flow := &models.Flow{ChatbotID: e.chatbot.ChatbotID, Response: "Nuevo flujo", Active: true}
	flow.SetKeywords([]string{"nuevo"})
	_, err := e.store.CreateFlow(flow)
	require.NoError(t, err)

	assert.Nil(t, e.flows.Match(e.chatbot.ChatbotID, "nuevo"))
	e.flows.Invalidate(e.chatbot.ChatbotID)
	assert.NotNil(t, e.flows.Match(e.chatbot.ChatbotID, "nuevo"))
}
