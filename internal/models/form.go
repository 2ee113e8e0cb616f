package models

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

// Form field validation types.
const (
	FieldTypeText   = "text"
	FieldTypeName   = "name"
	FieldTypeNumber = "number"
	FieldTypeEmail  = "email"
	FieldTypePhone  = "phone"
)

// FormField is one ordered field of a data-collection form. Fields are
// processed strictly in ascending Order; the form cannot skip or
// reorder them.
type FormField struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
	Order    int    `json:"order"`
}

// FormMessages is the template set a form uses for its prompts and
// terminal messages.
type FormMessages struct {
	Welcome string `json:"welcome"`
	Success string `json:"success"`
	Cancel  string `json:"cancel"`
	Invalid string `json:"invalid"`
}

// FormConfig is the per-chatbot data-collection definition: the words
// that trigger the form, the ordered field list and the message
// templates. Fields and messages are stored as JSON columns, the same
// way the conversation context is persisted.
type FormConfig struct {
	gorm.Model

	ChatbotID    string `json:"chatbot_id" gorm:"uniqueIndex"`
	TriggerWords string `json:"trigger_words"` // JSON array
	Fields       string `json:"fields"`        // JSON array of FormField
	Messages     string `json:"messages"`      // JSON FormMessages
	Active       bool   `json:"active"`
}

func (f *FormConfig) TriggerWordList() []string {
	if f.TriggerWords == "" {
		return nil
	}
	var words []string
	if err := json.Unmarshal([]byte(f.TriggerWords), &words); err != nil {
		return nil
	}
	return words
}

func (f *FormConfig) SetTriggerWords(words []string) {
	encoded, _ := json.Marshal(words)
	f.TriggerWords = string(encoded)
}

// FieldList decodes the field definitions sorted by ascending Order.
func (f *FormConfig) FieldList() []FormField {
	if f.Fields == "" {
		return nil
	}
	var fields []FormField
	if err := json.Unmarshal([]byte(f.Fields), &fields); err != nil {
		return nil
	}
	for i := 1; i < len(fields); i++ {
		for j := i; j > 0 && fields[j].Order < fields[j-1].Order; j-- {
			fields[j], fields[j-1] = fields[j-1], fields[j]
		}
	}
	return fields
}

func (f *FormConfig) SetFields(fields []FormField) {
	encoded, _ := json.Marshal(fields)
	f.Fields = string(encoded)
}

// MessageSet decodes the message templates, filling defaults for any
// the tenant left blank.
func (f *FormConfig) MessageSet() FormMessages {
	var messages FormMessages
	if f.Messages != "" {
		_ = json.Unmarshal([]byte(f.Messages), &messages)
	}
	if messages.Welcome == "" {
		messages.Welcome = "¡Perfecto! Vamos a registrar tus datos."
	}
	if messages.Success == "" {
		messages.Success = "✅ ¡Registro completado! Estos son tus datos:"
	}
	if messages.Cancel == "" {
		messages.Cancel = "Registro cancelado. Escríbeme cuando quieras retomarlo."
	}
	if messages.Invalid == "" {
		messages.Invalid = "Ese dato no parece válido."
	}
	return messages
}

func (f *FormConfig) SetMessages(messages FormMessages) {
	encoded, _ := json.Marshal(messages)
	f.Messages = string(encoded)
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateFieldValue checks raw input against a field validation type.
// Name and free-text fields only require non-blank input; the rest
// have format checks.
func ValidateFieldValue(value, fieldType string) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return false
	}

	switch fieldType {
	case FieldTypeNumber:
		_, err := strconv.ParseFloat(strings.ReplaceAll(trimmed, ",", "."), 64)
		return err == nil
	case FieldTypeEmail:
		return emailPattern.MatchString(trimmed)
	case FieldTypePhone:
		digits := 0
		for _, r := range trimmed {
			switch {
			case r >= '0' && r <= '9':
				digits++
			case r == '+' || r == ' ' || r == '-' || r == '(' || r == ')':
			default:
				return false
			}
		}
		return digits >= 7 && digits <= 15
	default:
		// name / text / unknown types: non-blank is enough
		return true
	}
}
