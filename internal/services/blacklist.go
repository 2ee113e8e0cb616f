package services

import (
	"log"
	"time"

	"github.com/tecnochat/tenolatina-sub000/internal/config"
	"github.com/tecnochat/tenolatina-sub000/internal/retry"
	"github.com/tecnochat/tenolatina-sub000/internal/storage"
)

// BlacklistService gates inbound messages against per-chatbot blocked
// numbers. Lookups are retried; a lookup that still fails lets the
// message through rather than dropping legitimate traffic.
type BlacklistService struct {
	store      storage.Store
	attempts   int
	retryDelay time.Duration
}

func NewBlacklistService(store storage.Store) *BlacklistService {
	return &BlacklistService{
		store:      store,
		attempts:   config.RetryAttempts,
		retryDelay: time.Duration(config.RetryDelayMs) * time.Millisecond,
	}
}

// IsBlocked reports whether the contact is blacklisted for this
// chatbot. Phone must already be normalized.
func (s *BlacklistService) IsBlocked(chatbotID, phone string) bool {
	blocked, err := retry.Do(s.attempts, s.retryDelay, func() (bool, error) {
		return s.store.IsBlacklisted(chatbotID, phone)
	}, func(attempt int, err error) {
		log.Printf("blacklist check attempt %d failed for %s: %v", attempt, phone, err)
	})
	if err != nil {
		if config.BlacklistFailOpen {
			log.Printf("blacklist check exhausted retries for %s, letting message through: %v", phone, err)
			return false
		}
		return true
	}
	return blocked
}
