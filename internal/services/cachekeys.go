package services

import (
	"crypto/sha256"
	"encoding/hex"
)

// Cache scopes. Lookup caches are scoped per chatbot so an admin edit
// invalidates exactly one tenant's entries.
const (
	cacheNone = "__none__" // negative-lookup sentinel
)

func chatbotScope() string              { return "chatbot" }
func flowsScope(chatbotID string) string { return "flows:" + chatbotID }
func welcomeScope(chatbotID string) string {
	return "welcome:" + chatbotID
}
func welcomeSentScope(chatbotID string) string {
	return "welcome_sent:" + chatbotID
}
func promptScope(chatbotID string) string { return "prompt:" + chatbotID }
func formScope(chatbotID string) string   { return "form:" + chatbotID }
func aiScope(chatbotID string) string     { return "ai:" + chatbotID }

// aiCacheKey hashes the normalized question so equivalent phrasings
// ("Hola", "hóla  ") share one cached answer.
func aiCacheKey(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
