// Package conversation holds the data-collection state machine. A
// contact is either Idle (no state stored) or Collecting; while
// Collecting, every other router stage is bypassed and input goes
// straight to the capture step.
//
// Transitions are pure: Apply touches no storage and sends nothing, so
// the machine is testable on its own. The services layer turns the
// returned StepResult into prompts, persistence and sends.
package conversation

import (
	"strings"

	"github.com/tecnochat/tenolatina-sub000/internal/models"
)

// State is the Collecting half of the session sum type; Idle is the
// absence of a State in the Manager. The field list and message
// templates are snapshotted at form start so a mid-form admin edit
// cannot corrupt the cursor.
type State struct {
	Fields   []models.FormField
	Messages models.FormMessages
	Cursor   int
	Answers  map[string]string
}

// NewState starts a form at the first field with no answers.
func NewState(fields []models.FormField, messages models.FormMessages) *State {
	return &State{
		Fields:   fields,
		Messages: messages,
		Cursor:   0,
		Answers:  make(map[string]string),
	}
}

// CurrentField returns the field awaiting an answer.
func (s *State) CurrentField() models.FormField {
	return s.Fields[s.Cursor]
}

// StepResult describes what one capture step did.
type StepResult int

const (
	// StepRejected: input failed validation; the cursor did not move
	// and the same field must be re-prompted.
	StepRejected StepResult = iota
	// StepAdvanced: answer recorded, a later field is now pending.
	StepAdvanced
	// StepCompleted: the last field was answered; the caller persists
	// the answers and clears the state.
	StepCompleted
	// StepCancelled: the cancel keyword ended the form; nothing is
	// persisted.
	StepCancelled
)

// Validator checks a raw input against a field validation type.
type Validator func(value, fieldType string) bool

// Apply feeds one message into the machine. Cancellation wins over
// validation regardless of which field is pending. Name-type fields
// only need non-blank input; everything else goes through the
// validator. Returns the result; the state itself is mutated only on
// StepAdvanced (cursor and answers).
func (s *State) Apply(input, cancelKeyword string, validate Validator) StepResult {
	trimmed := strings.TrimSpace(input)

	if strings.EqualFold(trimmed, cancelKeyword) {
		return StepCancelled
	}

	field := s.CurrentField()
	valid := trimmed != ""
	if valid && field.Type != models.FieldTypeName {
		valid = validate(trimmed, field.Type)
	}
	if !valid {
		return StepRejected
	}

	s.Answers[field.Name] = trimmed
	if s.Cursor < len(s.Fields)-1 {
		s.Cursor++
		return StepAdvanced
	}
	return StepCompleted
}

// MergedAnswers returns the captured answers plus the contact's phone
// number, aliasing the first name-type answer to the canonical
// "nombre_completo" key when present.
func (s *State) MergedAnswers(phone string) map[string]string {
	merged := make(map[string]string, len(s.Answers)+2)
	for name, value := range s.Answers {
		merged[name] = value
	}
	merged["telefono"] = phone

	for _, field := range s.Fields {
		if field.Type == models.FieldTypeName {
			if value, ok := s.Answers[field.Name]; ok {
				merged["nombre_completo"] = value
			}
			break
		}
	}
	return merged
}

// Summary renders label -> captured value for every answered field, in
// field order, one line each.
func (s *State) Summary() string {
	var b strings.Builder
	for _, field := range s.Fields {
		value, ok := s.Answers[field.Name]
		if !ok {
			continue
		}
		b.WriteString(field.Label)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
