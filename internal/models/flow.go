package models

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Flow is a static keyword-to-response rule. Matching is exact equality
// after normalization; there is no substring matching. Position makes
// the evaluation order explicit instead of leaning on storage return
// order when two flows share a keyword.
type Flow struct {
	gorm.Model

	FlowID    string `json:"flow_id" gorm:"uniqueIndex"`
	ChatbotID string `json:"chatbot_id" gorm:"index"`
	Keywords  string `json:"keywords"` // JSON array of trigger words
	Response  string `json:"response"`
	MediaURL  string `json:"media_url"`
	Position  int    `json:"position" gorm:"default:0"`
	Active    bool   `json:"active"`
}

func (f *Flow) BeforeCreate(tx *gorm.DB) error {
	if f.FlowID == "" {
		f.FlowID = uuid.NewString()
	}
	return nil
}

// KeywordList decodes the stored keyword array. A malformed column
// yields no keywords rather than an error; the flow simply never
// matches.
func (f *Flow) KeywordList() []string {
	if f.Keywords == "" {
		return nil
	}
	var keywords []string
	if err := json.Unmarshal([]byte(f.Keywords), &keywords); err != nil {
		return nil
	}
	return keywords
}

// SetKeywords encodes the keyword list into the stored column.
func (f *Flow) SetKeywords(keywords []string) {
	encoded, _ := json.Marshal(keywords)
	f.Keywords = string(encoded)
}

// audio extensions recognized for the voice-note delivery path.
var audioExtensions = []string{".mp3", ".ogg", ".oga", ".opus", ".wav", ".m4a", ".aac"}

// HasAudioMedia reports whether the flow's media reference points at an
// audio file, which changes delivery: audio goes first, text follows as
// a separate message.
func (f *Flow) HasAudioMedia() bool {
	return IsAudioURL(f.MediaURL)
}

// IsAudioURL reports whether a media URL ends in a known audio
// extension, ignoring query strings.
func IsAudioURL(url string) bool {
	if url == "" {
		return false
	}
	if q := strings.IndexByte(url, '?'); q >= 0 {
		url = url[:q]
	}
	lowered := strings.ToLower(url)
	for _, ext := range audioExtensions {
		if strings.HasSuffix(lowered, ext) {
			return true
		}
	}
	return false
}
