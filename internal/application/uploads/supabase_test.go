package uploads

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClient_CreateSignedUploadURL_RelativeURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/storage/v1/object/upload/sign/listing-images/listings/p-1/a.jpg", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"url":"/object/upload/sign/listing-images/listings/p-1/a.jpg?token=abc"}`))
	}))
	defer srv.Close()

	c := &HTTPClient{BaseURL: srv.URL, SecretKey: "secret"}
	u, err := c.CreateSignedUploadURL(context.Background(), "listing-images", "listings/p-1/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/storage/v1/object/upload/sign/listing-images/listings/p-1/a.jpg?token=abc", u)
}

func TestHTTPClient_CreateSignedUploadURL_AnonKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"Invalid Compact JWS"}`))
	}))
	defer srv.Close()

	c := &HTTPClient{BaseURL: srv.URL, SecretKey: "anon"}
	_, err := c.CreateSignedUploadURL(context.Background(), "listing-images", "a.jpg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "service_role")
}

func TestHTTPClient_DeleteObject_MissingIsNotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"statusCode":"404","error":"not_found","message":"Object not found"}`))
	}))
	defer srv.Close()

	c := &HTTPClient{BaseURL: srv.URL, SecretKey: "secret"}
	assert.NoError(t, c.DeleteObject(context.Background(), "listing-images", "gone.jpg"))
}

func TestHTTPClient_RequiresConfig(t *testing.T) {
	c := &HTTPClient{}
	_, err := c.CreateSignedUploadURL(context.Background(), "b", "p")
	assert.Error(t, err)
}
