package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateFieldValue(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		fieldType string
		want      bool
	}{
		{"name non-empty", "Ana María", FieldTypeName, true},
		{"name blank", "   ", FieldTypeName, false},
		{"text non-empty", "cualquier cosa", FieldTypeText, true},
		{"number integer", "42", FieldTypeNumber, true},
		{"number decimal comma", "3,5", FieldTypeNumber, true},
		{"number garbage", "treinta", FieldTypeNumber, false},
		{"email ok", "ana@example.com", FieldTypeEmail, true},
		{"email missing domain", "ana@", FieldTypeEmail, false},
		{"email spaces", "ana maria@example.com", FieldTypeEmail, false},
		{"phone ok", "+57 300 111 2233", FieldTypePhone, true},
		{"phone short", "12345", FieldTypePhone, false},
		{"phone letters", "300ABC2233", FieldTypePhone, false},
		{"unknown type non-empty", "x", "mystery", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateFieldValue(tt.value, tt.fieldType))
		})
	}
}

func TestFormConfigFieldListSortsByOrder(t *testing.T) {
	cfg := &FormConfig{}
	cfg.SetFields([]FormField{
		{Name: "email", Label: "Correo", Type: FieldTypeEmail, Order: 2},
		{Name: "nombre", Label: "Nombre", Type: FieldTypeName, Order: 1},
		{Name: "edad", Label: "Edad", Type: FieldTypeNumber, Order: 3},
	})

	fields := cfg.FieldList()
	assert.Equal(t, []string{"nombre", "email", "edad"},
		[]string{fields[0].Name, fields[1].Name, fields[2].Name})
}

func TestFormConfigMessageDefaults(t *testing.T) {
	cfg := &FormConfig{}
	messages := cfg.MessageSet()

	assert.NotEmpty(t, messages.Welcome)
	assert.NotEmpty(t, messages.Success)
	assert.NotEmpty(t, messages.Cancel)
	assert.NotEmpty(t, messages.Invalid)

	cfg.SetMessages(FormMessages{Cancel: "Hasta luego"})
	assert.Equal(t, "Hasta luego", cfg.MessageSet().Cancel)
	assert.NotEmpty(t, cfg.MessageSet().Success)
}

func TestIsAudioURL(t *testing.T) {
	assert.True(t, IsAudioURL("https://cdn.example.com/voice.mp3"))
	assert.True(t, IsAudioURL("https://cdn.example.com/voice.OGG?sig=abc"))
	assert.False(t, IsAudioURL("https://cdn.example.com/photo.png"))
	assert.False(t, IsAudioURL(""))
}

func TestFlowKeywordRoundTrip(t *testing.T) {
	f := &Flow{}
	f.SetKeywords([]string{"precio", "costo"})
	assert.Equal(t, []string{"precio", "costo"}, f.KeywordList())

	f.Keywords = "not json"
	assert.Nil(t, f.KeywordList())
}
