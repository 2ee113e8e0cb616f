package middleware

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProtectedApp(handler fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Post("/webhook/whatsapp", handler, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestTwilioSignatureAccepted(t *testing.T) {
	const authToken = "secret-token"
	app := newProtectedApp(ValidateTwilioSignature(authToken))

	form := url.Values{}
	form.Set("From", "whatsapp:+573001112233")
	form.Set("Body", "hola")

	params := map[string]string{
		"From": "whatsapp:+573001112233",
		"Body": "hola",
	}
	signature := calculateTwilioSignature(authToken, "http://example.com/webhook/whatsapp", params)

	req := httptest.NewRequest("POST", "http://example.com/webhook/whatsapp", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Twilio-Signature", signature)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestTwilioSignatureRejected(t *testing.T) {
	app := newProtectedApp(ValidateTwilioSignature("secret-token"))

	form := url.Values{}
	form.Set("Body", "hola")

	req := httptest.NewRequest("POST", "http://example.com/webhook/whatsapp", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Twilio-Signature", "bogus")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestTwilioSignatureMissing(t *testing.T) {
	app := newProtectedApp(ValidateTwilioSignature("secret-token"))

	req := httptest.NewRequest("POST", "http://example.com/webhook/whatsapp", nil)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRequireAPIKey(t *testing.T) {
	app := fiber.New()
	app.Get("/admin/chatbots", RequireAPIKey("admin-key"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("GET", "/admin/chatbots", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, "missing key")

	req = httptest.NewRequest("GET", "/admin/chatbots", nil)
	req.Header.Set("X-API-Key", "wrong")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, "wrong key")

	req = httptest.NewRequest("GET", "/admin/chatbots", nil)
	req.Header.Set("X-API-Key", "admin-key")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
