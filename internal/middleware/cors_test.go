package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func corsApp() *fiber.App {
	app := fiber.New()
	app.Use(CORS(CORSConfig{AllowedSuffixes: []string{".nexar.ro"}, DevPassword: "letmein"}))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })
	return app
}

func TestCORS(t *testing.T) {
	cases := []struct {
		name   string
		origin string
		devPw  string
		method string
		want   int
	}{
		{"no origin", "", "", "GET", 200},
		{"allowed suffix", "https://www.nexar.ro", "", "GET", 200},
		{"preflight", "https://admin.nexar.ro", "", "OPTIONS", 204},
		{"foreign origin", "https://evil.example", "", "GET", 403},
		{"dev password", "https://evil.example", "letmein", "GET", 200},
		{"localhost not enabled", "http://localhost:5173", "", "GET", 403},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			if tc.devPw != "" {
				req.Header.Set(devPasswordHeader, tc.devPw)
			}
			resp, err := corsApp().Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.want, resp.StatusCode)
			if tc.want < 400 && tc.origin != "" {
				assert.Equal(t, tc.origin, resp.Header.Get("Access-Control-Allow-Origin"))
			}
		})
	}
}
