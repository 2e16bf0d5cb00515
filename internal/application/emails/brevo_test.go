package emails

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrevoClient_SendConfirmation(t *testing.T) {
	var got BrevoSendRequest
	var apiKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey = r.Header.Get("api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := &BrevoClient{APIKey: "key", APIURL: srv.URL}
	err := c.SendConfirmation(context.Background(), "ion@nexar.ro", "Ion <b>", "https://nexar.ro/auth/confirm?token=abc&x=1")
	require.NoError(t, err)

	assert.Equal(t, "key", apiKey)
	assert.Equal(t, "noreply@nexar.ro", got.Sender.Email)
	require.Len(t, got.To, 1)
	assert.Equal(t, "ion@nexar.ro", got.To[0].Email)
	assert.Contains(t, got.HTMLContent, "Ion &lt;b&gt;")
	assert.Contains(t, got.HTMLContent, "token=abc&amp;x=1")
}

func TestBrevoClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := &BrevoClient{APIKey: "key", APIURL: srv.URL}
	err := c.SendPasswordReset(context.Background(), "ion@nexar.ro", "", "https://nexar.ro/reset")
	assert.Error(t, err)
}

func TestBrevoClient_NoAPIKeyIsNoop(t *testing.T) {
	c := &BrevoClient{APIURL: "http://127.0.0.1:1"}
	assert.NoError(t, c.SendAccountSuspended(context.Background(), "ion@nexar.ro", "Ion"))
}
