package conversation

import (
	"log"
	"sync"
	"time"
)

type entry struct {
	state      *State
	lastActive time.Time
}

// Manager keeps the per-contact conversation state, keyed by chatbot
// and phone. Different contacts are served concurrently; the map is
// the only shared structure, so a single mutex suffices. Idle entries
// expire after a TTL so an abandoned form does not trap the contact
// forever.
type Manager struct {
	mu      sync.RWMutex
	entries map[string]*entry
	idleTTL time.Duration
	stop    chan struct{}
}

// NewManager creates a session manager and starts its cleanup loop.
func NewManager(idleTTL time.Duration) *Manager {
	m := &Manager{
		entries: make(map[string]*entry),
		idleTTL: idleTTL,
		stop:    make(chan struct{}),
	}
	go m.cleanupLoop()
	return m
}

func sessionKey(chatbotID, phone string) string {
	return chatbotID + "|" + phone
}

// Get returns the in-progress state for a contact, or nil when Idle.
func (m *Manager) Get(chatbotID, phone string) *State {
	key := sessionKey(chatbotID, phone)

	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil
	}
	if time.Since(e.lastActive) > m.idleTTL {
		m.Clear(chatbotID, phone)
		return nil
	}
	return e.state
}

// Put stores (or refreshes) the state for a contact.
func (m *Manager) Put(chatbotID, phone string, state *State) {
	m.mu.Lock()
	m.entries[sessionKey(chatbotID, phone)] = &entry{
		state:      state,
		lastActive: time.Now(),
	}
	m.mu.Unlock()
}

// Touch refreshes the idle timer after a capture step.
func (m *Manager) Touch(chatbotID, phone string) {
	m.mu.Lock()
	if e, ok := m.entries[sessionKey(chatbotID, phone)]; ok {
		e.lastActive = time.Now()
	}
	m.mu.Unlock()
}

// Clear returns the contact to Idle.
func (m *Manager) Clear(chatbotID, phone string) {
	m.mu.Lock()
	delete(m.entries, sessionKey(chatbotID, phone))
	m.mu.Unlock()
}

// ActiveCount reports how many forms are in progress, for the health
// endpoint.
func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Stop halts the cleanup loop.
func (m *Manager) Stop() {
	close(m.stop)
}

func (m *Manager) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.mu.Lock()
			removed := 0
			for key, e := range m.entries {
				if time.Since(e.lastActive) > m.idleTTL {
					delete(m.entries, key)
					removed++
				}
			}
			m.mu.Unlock()
			if removed > 0 {
				log.Printf("conversation: cleaned up %d idle sessions", removed)
			}
		}
	}
}
