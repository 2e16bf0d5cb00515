package uploads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPClient is an ObjectStore backed by the Supabase Storage HTTP API.
type HTTPClient struct {
	BaseURL   string
	SecretKey string
	Client    *http.Client
}

type supabaseSignedUploadResponse struct {
	SignedURL      string `json:"signedUrl"`
	SignedURLSnake string `json:"signed_url"`
	URL            string `json:"url"` // relative path returned by upload/sign API
}

func (c *HTTPClient) do(ctx context.Context, method, url string, body io.Reader) (*http.Response, []byte, error) {
	if c.BaseURL == "" {
		return nil, nil, fmt.Errorf("supabase: SUPABASE_URL is not set")
	}
	if c.SecretKey == "" {
		return nil, nil, fmt.Errorf("supabase: SUPABASE_SECRET_KEY is not set")
	}
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 10 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, nil, err
	}
	// supabase-js sends the key both as apikey and as bearer token
	req.Header.Set("apikey", c.SecretKey)
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("supabase request: %w", err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	return resp, respBody, nil
}

func (c *HTTPClient) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}

func (c *HTTPClient) CreateSignedUploadURL(ctx context.Context, bucket, path string) (string, error) {
	url := fmt.Sprintf("%s/storage/v1/object/upload/sign/%s/%s", c.base(), bucket, path)
	bodyBytes, _ := json.Marshal(map[string]interface{}{
		"expiresIn": 3600,
		"upsert":    false,
	})

	resp, respBody, err := c.do(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyStr := string(respBody)
		if (resp.StatusCode == 400 || resp.StatusCode == 403) &&
			(strings.Contains(bodyStr, "Invalid Compact JWS") || strings.Contains(bodyStr, "Unauthorized")) {
			return "", fmt.Errorf("supabase storage requires the service_role key, not the anon key (body: %s)", bodyStr)
		}
		return "", fmt.Errorf("supabase error: status %d body: %s", resp.StatusCode, bodyStr)
	}

	var data supabaseSignedUploadResponse
	if err := json.Unmarshal(respBody, &data); err != nil {
		return "", fmt.Errorf("supabase response decode: %w", err)
	}
	switch {
	case data.SignedURL != "":
		return data.SignedURL, nil
	case data.SignedURLSnake != "":
		return data.SignedURLSnake, nil
	case data.URL != "":
		u := data.URL
		if !strings.HasPrefix(u, "/") {
			u = "/" + u
		}
		// relative URLs are rooted at the storage API, e.g. /object/upload/sign/...
		if !strings.HasPrefix(u, "/storage/v1") {
			u = "/storage/v1" + u
		}
		return c.base() + u, nil
	}
	return "", fmt.Errorf("supabase returned no signed URL, body: %s", string(respBody))
}

// DeleteObject removes one object. A missing object is not an error.
func (c *HTTPClient) DeleteObject(ctx context.Context, bucket, path string) error {
	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.base(), bucket, path)
	resp, respBody, err := c.do(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	// storage answers 400 {"error":"not_found"} for unknown keys
	if resp.StatusCode == http.StatusBadRequest && strings.Contains(strings.ToLower(string(respBody)), "not_found") {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("supabase delete: status %d body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// SupabasePublicBase is the public URL prefix for objects in bucket.
func SupabasePublicBase(supabaseURL, bucket string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s", strings.TrimRight(supabaseURL, "/"), bucket)
}
