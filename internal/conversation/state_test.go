package conversation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tecnochat/tenolatina-sub000/internal/models"
)

const cancelWord = "cancelar"

func testFields() []models.FormField {
	return []models.FormField{
		{Name: "nombre", Label: "Nombre", Type: models.FieldTypeName, Order: 1},
		{Name: "email", Label: "Correo", Type: models.FieldTypeEmail, Order: 2},
		{Name: "edad", Label: "Edad", Type: models.FieldTypeNumber, Order: 3},
	}
}

func TestApplyWalksAllFieldsInOrder(t *testing.T) {
	s := NewState(testFields(), models.FormMessages{})

	assert.Equal(t, "nombre", s.CurrentField().Name)
	assert.Equal(t, StepAdvanced, s.Apply("Ana María", cancelWord, models.ValidateFieldValue))

	assert.Equal(t, "email", s.CurrentField().Name)
	assert.Equal(t, StepAdvanced, s.Apply("ana@example.com", cancelWord, models.ValidateFieldValue))

	assert.Equal(t, "edad", s.CurrentField().Name)
	assert.Equal(t, StepCompleted, s.Apply("31", cancelWord, models.ValidateFieldValue))

	assert.Equal(t, map[string]string{
		"nombre": "Ana María",
		"email":  "ana@example.com",
		"edad":   "31",
	}, s.Answers)
}

func TestApplyInvalidInputDoesNotAdvance(t *testing.T) {
	s := NewState(testFields(), models.FormMessages{})
	require.Equal(t, StepAdvanced, s.Apply("Ana", cancelWord, models.ValidateFieldValue))

	// Bad email re-prompts the same field.
	assert.Equal(t, StepRejected, s.Apply("not-an-email", cancelWord, models.ValidateFieldValue))
	assert.Equal(t, 1, s.Cursor)
	assert.Equal(t, "email", s.CurrentField().Name)
	assert.NotContains(t, s.Answers, "email")

	// A valid retry then advances.
	assert.Equal(t, StepAdvanced, s.Apply("ana@example.com", cancelWord, models.ValidateFieldValue))
	assert.Equal(t, 2, s.Cursor)
}

func TestApplyNameFieldSkipsFormatValidation(t *testing.T) {
	s := NewState(testFields(), models.FormMessages{})

	assert.Equal(t, StepRejected, s.Apply("   ", cancelWord, models.ValidateFieldValue))
	assert.Equal(t, StepAdvanced, s.Apply("José 123 !?", cancelWord, models.ValidateFieldValue))
}

func TestApplyCancelAtAnyIndex(t *testing.T) {
	for answered := 0; answered < 3; answered++ {
		s := NewState(testFields(), models.FormMessages{})
		valid := []string{"Ana", "ana@example.com", "31"}
		for i := 0; i < answered; i++ {
			s.Apply(valid[i], cancelWord, models.ValidateFieldValue)
		}

		assert.Equal(t, StepCancelled, s.Apply("  CANCELAR ", cancelWord, models.ValidateFieldValue),
			"cancel with %d fields answered", answered)
	}
}

func TestMergedAnswersIncludesPhoneAndFullNameAlias(t *testing.T) {
	s := NewState(testFields(), models.FormMessages{})
	s.Apply("Ana María", cancelWord, models.ValidateFieldValue)
	s.Apply("ana@example.com", cancelWord, models.ValidateFieldValue)
	s.Apply("31", cancelWord, models.ValidateFieldValue)

	merged := s.MergedAnswers("573001112233")
	assert.Equal(t, "573001112233", merged["telefono"])
	assert.Equal(t, "Ana María", merged["nombre_completo"])
	assert.Equal(t, "Ana María", merged["nombre"])
	assert.Len(t, merged, 5)
}

func TestMergedAnswersWithoutNameField(t *testing.T) {
	fields := []models.FormField{
		{Name: "empresa", Label: "Empresa", Type: models.FieldTypeText, Order: 1},
	}
	s := NewState(fields, models.FormMessages{})
	s.Apply("Acme", cancelWord, models.ValidateFieldValue)

	merged := s.MergedAnswers("573001112233")
	assert.NotContains(t, merged, "nombre_completo")
	assert.Len(t, merged, 2)
}

func TestSummaryFollowsFieldOrder(t *testing.T) {
	s := NewState(testFields(), models.FormMessages{})
	s.Apply("Ana", cancelWord, models.ValidateFieldValue)
	s.Apply("ana@example.com", cancelWord, models.ValidateFieldValue)
	s.Apply("31", cancelWord, models.ValidateFieldValue)

	assert.Equal(t, "Nombre: Ana\nCorreo: ana@example.com\nEdad: 31", s.Summary())
}

func TestManagerIdleAndCollecting(t *testing.T) {
	m := NewManager(time.Minute)
	defer m.Stop()

	assert.Nil(t, m.Get("bot1", "573001112233"))

	state := NewState(testFields(), models.FormMessages{})
	m.Put("bot1", "573001112233", state)

	assert.Same(t, state, m.Get("bot1", "573001112233"))
	assert.Nil(t, m.Get("bot1", "573009998877"), "other contacts stay idle")
	assert.Nil(t, m.Get("bot2", "573001112233"), "state is chatbot-scoped")
	assert.Equal(t, 1, m.ActiveCount())

	m.Clear("bot1", "573001112233")
	assert.Nil(t, m.Get("bot1", "573001112233"))
}

func TestManagerExpiresIdleState(t *testing.T) {
	m := NewManager(20 * time.Millisecond)
	defer m.Stop()

	m.Put("bot1", "573001112233", NewState(testFields(), models.FormMessages{}))
	time.Sleep(30 * time.Millisecond)

	assert.Nil(t, m.Get("bot1", "573001112233"))
}
