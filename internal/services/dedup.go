package services

import (
	"log"
	"sync"
	"time"
)

// Deduper guards the transport boundary against carrier redeliveries
// and floods. Three checks, all in memory and per process:
//
//   - a message SID seen within the dedup TTL is a redelivery
//   - an identical body from the same contact within the TTL is a
//     double tap
//   - a fixed-window counter caps messages per contact per window
//
// The rate check is a plain reset counter, not a token bucket: N per
// window, counter resets at the window edge.
type Deduper struct {
	mu        sync.Mutex
	seenSIDs  map[string]time.Time // SID -> expiry
	lastBody  map[string]bodyMark  // contact -> last body
	windows   map[string]*window   // contact -> current window
	dedupTTL  time.Duration
	windowLen time.Duration
	limit     int
	stop      chan struct{}
}

type bodyMark struct {
	body   string
	expiry time.Time
}

type window struct {
	start time.Time
	count int
}

func NewDeduper(dedupTTL, windowLen time.Duration, limit int) *Deduper {
	d := &Deduper{
		seenSIDs:  make(map[string]time.Time),
		lastBody:  make(map[string]bodyMark),
		windows:   make(map[string]*window),
		dedupTTL:  dedupTTL,
		windowLen: windowLen,
		limit:     limit,
		stop:      make(chan struct{}),
	}
	go d.cleanupLoop()
	return d
}

// Allow reports whether the message should enter the pipeline.
// contactKey scopes the body and rate checks, typically
// chatbotChannel+"|"+phone.
func (d *Deduper) Allow(messageSID, contactKey, body string) bool {
	now := time.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	if messageSID != "" {
		if expiry, ok := d.seenSIDs[messageSID]; ok && now.Before(expiry) {
			log.Printf("dropping redelivered message %s", messageSID)
			return false
		}
		d.seenSIDs[messageSID] = now.Add(d.dedupTTL)
	}

	if body != "" {
		if mark, ok := d.lastBody[contactKey]; ok && now.Before(mark.expiry) && mark.body == body {
			log.Printf("dropping repeated message from %s", contactKey)
			return false
		}
		d.lastBody[contactKey] = bodyMark{body: body, expiry: now.Add(d.dedupTTL)}
	}

	w, ok := d.windows[contactKey]
	if !ok || now.Sub(w.start) >= d.windowLen {
		w = &window{start: now}
		d.windows[contactKey] = w
	}
	w.count++
	if w.count > d.limit {
		log.Printf("rate limit exceeded for %s (%d in window)", contactKey, w.count)
		return false
	}
	return true
}

// Stop halts the cleanup loop.
func (d *Deduper) Stop() {
	close(d.stop)
}

func (d *Deduper) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-d.stop:
			return
		case now := <-ticker.C:
			d.mu.Lock()
			for sid, expiry := range d.seenSIDs {
				if now.After(expiry) {
					delete(d.seenSIDs, sid)
				}
			}
			for key, mark := range d.lastBody {
				if now.After(mark.expiry) {
					delete(d.lastBody, key)
				}
			}
			for key, w := range d.windows {
				if now.Sub(w.start) >= d.windowLen {
					delete(d.windows, key)
				}
			}
			d.mu.Unlock()
		}
	}
}
