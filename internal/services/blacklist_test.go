package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tecnochat/tenolatina-sub000/internal/models"
)

func TestBlacklistBlocksListedContact(t *testing.T) {
	e := newEnv(t)
	_, err := e.store.AddBlacklistEntry(&models.BlacklistEntry{
		ChatbotID: e.chatbot.ChatbotID,
		Phone:     testPhone,
		Active:    true,
	})
	require.NoError(t, err)

	assert.True(t, e.blacklist.IsBlocked(e.chatbot.ChatbotID, testPhone))
	assert.False(t, e.blacklist.IsBlocked(e.chatbot.ChatbotID, "573009998877"))
	assert.False(t, e.blacklist.IsBlocked("other-bot", testPhone), "blacklist is chatbot-scoped")
}

func TestBlacklistFailsOpenOnStorageError(t *testing.T) {
	s := NewBlacklistService(&failingStore{})
	s.retryDelay = time.Millisecond

	assert.False(t, s.IsBlocked("bot", testPhone))
}
