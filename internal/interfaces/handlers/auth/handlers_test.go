package auth

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	authsvc "nexar-backend/internal/application/auth"
	"nexar-backend/internal/middleware"
	"nexar-backend/internal/pkg/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type authApp struct {
	app    *fiber.App
	mr     *miniredis.Miniredis
	mailer *testutil.RecordingSender
}

func setupAuthApp(t *testing.T) *authApp {
	db := testutil.NewDB(t)
	mr, rdb := testutil.NewRedis(t)
	mailer := &testutil.RecordingSender{}
	h := &Handlers{
		Service: &authsvc.Service{
			DB:         db,
			Rdb:        rdb,
			Tokens:     &authsvc.TokenIssuer{Secret: []byte("test-secret"), TTL: time.Hour, Rdb: rdb},
			Mailer:     mailer,
			AppBaseURL: "https://nexar.ro",
			HashCost:   bcrypt.MinCost,
		},
		Rdb: rdb,
	}
	app := fiber.New()
	app.Use(middleware.SessionStore(rdb))
	app.Post("/auth/signup", h.Signup)
	app.Post("/auth/confirm/resend", h.ResendConfirmation)
	app.Post("/auth/confirm", h.Confirm)
	app.Post("/auth/login", h.Login)
	app.Get("/auth/me", h.Me)
	app.Delete("/auth/logout", h.Logout)
	app.Post("/auth/password-reset/request", h.RequestPasswordReset)
	app.Get("/auth/password-reset/verify", h.VerifyResetToken)
	app.Post("/auth/password-reset", h.ResetPassword)
	return &authApp{app: app, mr: mr, mailer: mailer}
}

func (a *authApp) do(t *testing.T, method, path string, body interface{}, cookie string) (*http.Response, map[string]interface{}) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: cookie})
	}
	resp, err := a.app.Test(req)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	_ = json.Unmarshal(raw, &out)
	return resp, out
}

func sessionCookie(resp *http.Response) string {
	for _, c := range resp.Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c.Value
		}
	}
	return ""
}

func tokenOf(t *testing.T, link string) string {
	u, err := url.Parse(link)
	require.NoError(t, err)
	return u.Query().Get("token")
}

func errorOf(out map[string]interface{}) map[string]interface{} {
	e, _ := out["error"].(map[string]interface{})
	return e
}

func signupBody(email string) fiber.Map {
	return fiber.Map{"name": "Ion Popescu", "email": email, "password": "Parola123", "seller_type": "individual"}
}

func TestSignupConfirmMeLogout(t *testing.T) {
	a := setupAuthApp(t)

	resp, _ := a.do(t, "POST", "/auth/signup", signupBody("ion@example.ro"), "")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, out := a.do(t, "POST", "/auth/login", fiber.Map{"email": "ion@example.ro", "password": "Parola123"}, "")
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, authsvc.ErrEmailNotConfirmed.Error(), errorOf(out)["message"])

	token := tokenOf(t, a.mailer.Last().Link)
	resp, out = a.do(t, "POST", "/auth/confirm", fiber.Map{"token": token}, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	user := out["data"].(map[string]interface{})["user"].(map[string]interface{})
	assert.Equal(t, "Ion Popescu", user["name"])
	assert.Equal(t, true, user["is_logged_in"])

	sid := sessionCookie(resp)
	require.NotEmpty(t, sid)
	assert.True(t, a.mr.Exists(middleware.SessionRedisPrefix+sid))

	resp, out = a.do(t, "GET", "/auth/me", nil, sid)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "ion@example.ro", out["data"].(map[string]interface{})["user"].(map[string]interface{})["email"])

	resp, _ = a.do(t, "DELETE", "/auth/logout", nil, sid)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.False(t, a.mr.Exists(middleware.SessionRedisPrefix+sid))

	resp, _ = a.do(t, "GET", "/auth/me", nil, sid)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestConfirm_InvalidTokenOffersLinks(t *testing.T) {
	a := setupAuthApp(t)

	for _, body := range []interface{}{fiber.Map{}, fiber.Map{"token": "garbage"}} {
		resp, out := a.do(t, "POST", "/auth/confirm", body, "")
		require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		e := errorOf(out)
		assert.Equal(t, "Confirmation link has expired or is invalid", e["message"])
		links := e["details"].(map[string]interface{})["links"].(map[string]interface{})
		assert.Equal(t, "/auth", links["login"])
		assert.Equal(t, "/", links["home"])
	}
}

func TestConfirm_TokenIsSingleUse(t *testing.T) {
	a := setupAuthApp(t)
	a.do(t, "POST", "/auth/signup", signupBody("ion@example.ro"), "")
	token := tokenOf(t, a.mailer.Last().Link)

	resp, _ := a.do(t, "POST", "/auth/confirm", fiber.Map{"token": token}, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp, _ = a.do(t, "POST", "/auth/confirm", fiber.Map{"token": token}, "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSignup_ValidationAndDuplicate(t *testing.T) {
	a := setupAuthApp(t)

	resp, out := a.do(t, "POST", "/auth/signup", fiber.Map{"name": "Ion", "email": "ion@example.ro", "password": "parola"}, "")
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	details := errorOf(out)["details"].(map[string]interface{})
	assert.Equal(t, "Password must be at least 8 characters long", details["password"])

	resp, _ = a.do(t, "POST", "/auth/signup", signupBody("ion@example.ro"), "")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	resp, _ = a.do(t, "POST", "/auth/signup", signupBody("ION@example.ro"), "")
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestLogin_WrongPassword(t *testing.T) {
	a := setupAuthApp(t)
	resp, out := a.do(t, "POST", "/auth/login", fiber.Map{"email": "nobody@example.ro", "password": "x"}, "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid email or password", errorOf(out)["message"])

	resp, _ = a.do(t, "POST", "/auth/login", fiber.Map{"email": "", "password": ""}, "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestPasswordResetFlow(t *testing.T) {
	a := setupAuthApp(t)
	a.do(t, "POST", "/auth/signup", signupBody("ion@example.ro"), "")
	resp, _ := a.do(t, "POST", "/auth/confirm", fiber.Map{"token": tokenOf(t, a.mailer.Last().Link)}, "")
	oldSession := sessionCookie(resp)
	require.NotEmpty(t, oldSession)

	resp, _ = a.do(t, "POST", "/auth/password-reset/request", fiber.Map{"email": "unknown@example.ro"}, "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = a.do(t, "POST", "/auth/password-reset/request", fiber.Map{"email": "ion@example.ro"}, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	sent := a.mailer.Last()
	require.Equal(t, "password_reset", sent.Kind)
	token := tokenOf(t, sent.Link)

	resp, _ = a.do(t, "GET", "/auth/password-reset/verify?token="+url.QueryEscape(token), nil, "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, out := a.do(t, "POST", "/auth/password-reset", fiber.Map{"token": token, "password": "NouaParola1", "confirm_password": "Alta1234"}, "")
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Passwords do not match", errorOf(out)["details"].(map[string]interface{})["confirm_password"])

	resp, out = a.do(t, "POST", "/auth/password-reset", fiber.Map{"token": token, "password": "nouaparola1", "confirm_password": "nouaparola1"}, "")
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Password must contain at least one uppercase letter", errorOf(out)["details"].(map[string]interface{})["password"])

	resp, out = a.do(t, "POST", "/auth/password-reset", fiber.Map{"token": token, "password": "NouaParola1", "confirm_password": "NouaParola1"}, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "/auth", out["data"].(map[string]interface{})["redirect"])
	assert.False(t, a.mr.Exists(middleware.SessionRedisPrefix+oldSession))

	resp, _ = a.do(t, "GET", "/auth/password-reset/verify?token="+url.QueryEscape(token), nil, "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = a.do(t, "POST", "/auth/login", fiber.Map{"email": "ion@example.ro", "password": "NouaParola1"}, "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
