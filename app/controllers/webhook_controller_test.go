package controllers

import (
	"encoding/base64"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/RecurFox/internal/pkg/env"
)

func newWebhookTestApp() *fiber.App {
	app := fiber.New()
	app.Post("/webhooks/recurly", HandleRecurlyWebhook)
	return app
}

func basicAuth(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func TestWebhookMissingCredentials(t *testing.T) {
	env.Env = map[string]string{"RECURLY_WEBHOOK_AUTH": "hook:secret"}
	t.Cleanup(func() { env.Env = nil })

	app := newWebhookTestApp()
	req := httptest.NewRequest(fiber.MethodPost, "/webhooks/recurly", strings.NewReader("<x/>"))

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderWWWAuthenticate))
}

func TestWebhookWrongCredentials(t *testing.T) {
	env.Env = map[string]string{"RECURLY_WEBHOOK_AUTH": "hook:secret"}
	t.Cleanup(func() { env.Env = nil })

	app := newWebhookTestApp()
	req := httptest.NewRequest(fiber.MethodPost, "/webhooks/recurly", strings.NewReader("<x/>"))
	req.Header.Set(fiber.HeaderAuthorization, basicAuth("hook", "wrong"))

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestWebhookMalformedAuthorizationHeader(t *testing.T) {
	env.Env = map[string]string{"RECURLY_WEBHOOK_AUTH": "hook:secret"}
	t.Cleanup(func() { env.Env = nil })

	app := newWebhookTestApp()
	req := httptest.NewRequest(fiber.MethodPost, "/webhooks/recurly", strings.NewReader("<x/>"))
	req.Header.Set(fiber.HeaderAuthorization, "Basic not-base64!!!")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestWebhookEmptyPayload(t *testing.T) {
	// No auth configured: the check is disabled and the empty body is the
	// first failure.
	env.Env = map[string]string{}
	t.Cleanup(func() { env.Env = nil })

	app := newWebhookTestApp()
	req := httptest.NewRequest(fiber.MethodPost, "/webhooks/recurly", strings.NewReader("   "))

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
