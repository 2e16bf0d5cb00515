package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSessionApp(t *testing.T) (*fiber.App, *redis.Client) {
	mr := miniredis.RunT(t)
	handler, rdb, err := Session(SessionConfig{RedisURL: "redis://" + mr.Addr()})
	require.NoError(t, err)

	app := fiber.New()
	app.Use(handler)
	app.Post("/login", func(c *fiber.Ctx) error {
		sid := RegenerateSessionID(c)
		SetSessionUser(c, SessionUser{UserID: "u-1", ProfileID: "p-1", Name: "Ion", Email: "ion@nexar.ro", SellerType: "dealer"})
		require.NoError(t, TrackUserSession(c.UserContext(), rdb, "u-1", sid))
		cookie := SessionCookieConfig(SessionConfig{})
		cookie.Value = sid
		c.Cookie(&cookie)
		return c.SendStatus(204)
	})
	app.Get("/me", RequireAuth(), func(c *fiber.Ctx) error {
		return c.JSON(CurrentUser(c))
	})
	app.Delete("/logout", func(c *fiber.Ctx) error {
		DestroySession(c, rdb)
		return c.SendStatus(204)
	})
	return app, rdb
}

func TestSession_LoginPersistsUser(t *testing.T) {
	app, rdb := setupSessionApp(t)

	resp, err := app.Test(httptest.NewRequest("POST", "/login", nil))
	require.NoError(t, err)
	require.Len(t, resp.Cookies(), 1)
	sid := resp.Cookies()[0].Value
	assert.Equal(t, SessionCookieName, resp.Cookies()[0].Name)

	members, err := rdb.SMembers(context.Background(), UserSessionsRedisPrefix+"u-1").Result()
	require.NoError(t, err)
	assert.Equal(t, []string{sid}, members)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Cookie", SessionCookieName+"="+sid)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var u SessionUser
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&u))
	assert.Equal(t, "p-1", u.ProfileID)
	assert.Equal(t, "dealer", u.SellerType)
}

func TestSession_UnknownCookieIsAnonymous(t *testing.T) {
	app, rdb := setupSessionApp(t)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Cookie", SessionCookieName+"=forged")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)

	n, _ := rdb.Exists(context.Background(), SessionRedisPrefix+"forged").Result()
	assert.Equal(t, int64(0), n)
}

func TestSession_LogoutRemovesSession(t *testing.T) {
	app, rdb := setupSessionApp(t)

	resp, err := app.Test(httptest.NewRequest("POST", "/login", nil))
	require.NoError(t, err)
	sid := resp.Cookies()[0].Value

	req := httptest.NewRequest("DELETE", "/logout", nil)
	req.Header.Set("Cookie", SessionCookieName+"="+sid)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 204, resp.StatusCode)

	ctx := context.Background()
	n, _ := rdb.Exists(ctx, SessionRedisPrefix+sid).Result()
	assert.Equal(t, int64(0), n)
	members, _ := rdb.SMembers(ctx, UserSessionsRedisPrefix+"u-1").Result()
	assert.Empty(t, members)

	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Cookie", SessionCookieName+"="+sid)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestSession_ActiveSessionStaysIndexed(t *testing.T) {
	mr := miniredis.RunT(t)
	handler, rdb, err := Session(SessionConfig{RedisURL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	app := fiber.New()
	app.Use(handler)
	app.Post("/login", func(c *fiber.Ctx) error {
		sid := RegenerateSessionID(c)
		SetSessionUser(c, SessionUser{UserID: "u-1", ProfileID: "p-1"})
		require.NoError(t, TrackUserSession(c.UserContext(), rdb, "u-1", sid))
		return c.SendString(sid)
	})
	app.Get("/me", RequireAuth(), func(c *fiber.Ctx) error {
		return c.SendStatus(200)
	})

	resp, err := app.Test(httptest.NewRequest("POST", "/login", nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	sid := string(body)

	mr.FastForward(23 * time.Hour)
	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Cookie", SessionCookieName+"="+sid)
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	mr.FastForward(2 * time.Hour)
	ctx := context.Background()
	members, err := rdb.SMembers(ctx, UserSessionsRedisPrefix+"u-1").Result()
	require.NoError(t, err)
	assert.Equal(t, []string{sid}, members)
	n, _ := rdb.Exists(ctx, SessionRedisPrefix+sid).Result()
	assert.Equal(t, int64(1), n)
}
