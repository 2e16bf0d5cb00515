package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"nexar-backend/internal/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

// AsUser puts p's session summary in Locals, as the session middleware does for a logged-in request.
func AsUser(p *domain.Profile) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user", SessionUser(p))
		return c.Next()
	}
}

// DoJSON sends body as JSON and decodes the JSON response into a map (nil for non-JSON bodies).
func DoJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]interface{}
	_ = json.Unmarshal(raw, &out)
	return resp, out
}

// ErrorDetails returns error.details of an error envelope.
func ErrorDetails(out map[string]interface{}) map[string]interface{} {
	e, _ := out["error"].(map[string]interface{})
	d, _ := e["details"].(map[string]interface{})
	return d
}

// ErrorMessage returns error.message of an error envelope.
func ErrorMessage(out map[string]interface{}) string {
	e, _ := out["error"].(map[string]interface{})
	m, _ := e["message"].(string)
	return m
}
