package testutil

import (
	"context"
	"sync"
)

// SentEmail is one message captured by RecordingSender.
type SentEmail struct {
	Kind string
	To   string
	Name string
	Link string
}

// RecordingSender captures account emails instead of sending them.
type RecordingSender struct {
	mu   sync.Mutex
	Sent []SentEmail
	Err  error
}

func (r *RecordingSender) record(e SentEmail) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Sent = append(r.Sent, e)
	return r.Err
}

func (r *RecordingSender) SendConfirmation(ctx context.Context, toEmail, name, link string) error {
	return r.record(SentEmail{Kind: "confirmation", To: toEmail, Name: name, Link: link})
}

func (r *RecordingSender) SendPasswordReset(ctx context.Context, toEmail, name, link string) error {
	return r.record(SentEmail{Kind: "password_reset", To: toEmail, Name: name, Link: link})
}

func (r *RecordingSender) SendAccountSuspended(ctx context.Context, toEmail, name string) error {
	return r.record(SentEmail{Kind: "account_suspended", To: toEmail, Name: name})
}

// Last returns the most recent email, or an empty value.
func (r *RecordingSender) Last() SentEmail {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Sent) == 0 {
		return SentEmail{}
	}
	return r.Sent[len(r.Sent)-1]
}

// RecordingCleaner captures image cleanup requests.
type RecordingCleaner struct {
	mu     sync.Mutex
	URLs   []string
	Owners []string
	Err    error
}

func (r *RecordingCleaner) CleanupImages(ctx context.Context, ownerID string, urls []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.URLs = append(r.URLs, urls...)
	r.Owners = append(r.Owners, ownerID)
	return r.Err
}
