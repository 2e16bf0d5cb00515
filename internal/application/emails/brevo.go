package emails

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const brevoAPI = "https://api.brevo.com/v3/smtp/email"

// BrevoSendRequest matches Brevo API v3 send transactional email body.
type BrevoSendRequest struct {
	Sender      BrevoSender   `json:"sender"`
	To          []BrevoTo     `json:"to"`
	Subject     string        `json:"subject"`
	HTMLContent string        `json:"htmlContent"`
	ReplyTo     *BrevoReplyTo `json:"replyTo,omitempty"`
}

type BrevoSender struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type BrevoTo struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type BrevoReplyTo struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Sender delivers the account emails. Implemented by BrevoClient (inline) and by the task
// dispatcher (queued).
type Sender interface {
	SendConfirmation(ctx context.Context, toEmail, name, link string) error
	SendPasswordReset(ctx context.Context, toEmail, name, link string) error
	SendAccountSuspended(ctx context.Context, toEmail, name string) error
}

// BrevoClient sends emails via the Brevo (Sendinblue) API. With no APIKey every send is a no-op.
type BrevoClient struct {
	APIKey   string
	MailFrom string
	APIURL   string
	Client   *http.Client
}

func (c *BrevoClient) from() string {
	if c.MailFrom != "" {
		return c.MailFrom
	}
	return "noreply@nexar.ro"
}

func (c *BrevoClient) endpoint() string {
	if c.APIURL != "" {
		return c.APIURL
	}
	return brevoAPI
}

func (c *BrevoClient) send(ctx context.Context, toEmail, name, subject, html string) error {
	if c.APIKey == "" {
		return nil
	}
	body := BrevoSendRequest{
		Sender:      BrevoSender{Email: c.from(), Name: "Nexar"},
		To:          []BrevoTo{{Email: toEmail, Name: name}},
		Subject:     subject,
		HTMLContent: html,
		ReplyTo:     &BrevoReplyTo{Email: supportEmail, Name: "Nexar Suport"},
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(bodyBytes))
	if err != nil {
		return err
	}
	req.Header.Set("api-key", c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("brevo request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("brevo send failed: status %d", resp.StatusCode)
	}
	return nil
}

// SendConfirmation sends the signup confirmation link.
func (c *BrevoClient) SendConfirmation(ctx context.Context, toEmail, name, link string) error {
	return c.send(ctx, toEmail, name, "Confirmă-ți contul Nexar", EmailLayout(confirmationContent(name, link)))
}

// SendPasswordReset sends the single-use recovery link.
func (c *BrevoClient) SendPasswordReset(ctx context.Context, toEmail, name, link string) error {
	return c.send(ctx, toEmail, name, "Resetează parola contului Nexar", EmailLayout(passwordResetContent(name, link)))
}

// SendAccountSuspended notifies a user that an admin suspended the account.
func (c *BrevoClient) SendAccountSuspended(ctx context.Context, toEmail, name string) error {
	return c.send(ctx, toEmail, name, "Contul tău Nexar a fost suspendat", EmailLayout(accountSuspendedContent(name)))
}
