// Package tasks defines the background jobs run by the asynq worker and the dispatcher the API
// uses to enqueue them.
package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"nexar-backend/internal/application/emails"
	"nexar-backend/internal/application/uploads"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
)

const (
	TypeEmailDelivery = "email:deliver"
	TypeImageCleanup  = "listing:images:cleanup"
)

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
)

// Email kinds carried by TypeEmailDelivery.
const (
	EmailConfirmation     = "confirmation"
	EmailPasswordReset    = "password_reset"
	EmailAccountSuspended = "account_suspended"
)

type EmailTaskPayload struct {
	Kind string `json:"kind"`
	To   string `json:"to"`
	Name string `json:"name,omitempty"`
	Link string `json:"link,omitempty"`
}

type ImageCleanupPayload struct {
	OwnerID string   `json:"owner_id"`
	URLs    []string `json:"urls"`
}

// Enqueuer is the part of *asynq.Client the dispatcher needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Dispatcher enqueues work instead of doing it inline. It satisfies emails.Sender and
// uploads.ImageCleaner so services do not know whether a queue is configured.
type Dispatcher struct {
	Client Enqueuer
}

var (
	_ emails.Sender        = (*Dispatcher)(nil)
	_ uploads.ImageCleaner = (*Dispatcher)(nil)
)

func (d *Dispatcher) enqueueEmail(ctx context.Context, p EmailTaskPayload) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	info, err := d.Client.EnqueueContext(ctx, asynq.NewTask(TypeEmailDelivery, b),
		asynq.Queue(QueueCritical), asynq.MaxRetry(5), asynq.Timeout(30*time.Second))
	if err != nil {
		return fmt.Errorf("enqueue %s email: %w", p.Kind, err)
	}
	log.Debug().Str("task_id", info.ID).Str("kind", p.Kind).Msg("tasks: email enqueued")
	return nil
}

func (d *Dispatcher) SendConfirmation(ctx context.Context, toEmail, name, link string) error {
	return d.enqueueEmail(ctx, EmailTaskPayload{Kind: EmailConfirmation, To: toEmail, Name: name, Link: link})
}

func (d *Dispatcher) SendPasswordReset(ctx context.Context, toEmail, name, link string) error {
	return d.enqueueEmail(ctx, EmailTaskPayload{Kind: EmailPasswordReset, To: toEmail, Name: name, Link: link})
}

func (d *Dispatcher) SendAccountSuspended(ctx context.Context, toEmail, name string) error {
	return d.enqueueEmail(ctx, EmailTaskPayload{Kind: EmailAccountSuspended, To: toEmail, Name: name})
}

// CleanupImages enqueues deletion of ownerID's image URLs. An empty list enqueues nothing.
func (d *Dispatcher) CleanupImages(ctx context.Context, ownerID string, urls []string) error {
	if len(urls) == 0 {
		return nil
	}
	b, err := json.Marshal(ImageCleanupPayload{OwnerID: ownerID, URLs: urls})
	if err != nil {
		return err
	}
	if _, err := d.Client.EnqueueContext(ctx, asynq.NewTask(TypeImageCleanup, b),
		asynq.Queue(QueueDefault), asynq.MaxRetry(10)); err != nil {
		return fmt.Errorf("enqueue image cleanup: %w", err)
	}
	return nil
}

// TaskProcessor holds the dependencies of the task handlers.
type TaskProcessor struct {
	Sender  emails.Sender
	Cleaner uploads.ImageCleaner
}

// HandleEmailDeliveryTask sends one email. Malformed payloads are not retried.
func (p *TaskProcessor) HandleEmailDeliveryTask(ctx context.Context, t *asynq.Task) error {
	var payload EmailTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal email payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.To == "" {
		return fmt.Errorf("email payload has no recipient: %w", asynq.SkipRetry)
	}

	var err error
	switch payload.Kind {
	case EmailConfirmation:
		err = p.Sender.SendConfirmation(ctx, payload.To, payload.Name, payload.Link)
	case EmailPasswordReset:
		err = p.Sender.SendPasswordReset(ctx, payload.To, payload.Name, payload.Link)
	case EmailAccountSuspended:
		err = p.Sender.SendAccountSuspended(ctx, payload.To, payload.Name)
	default:
		return fmt.Errorf("unknown email kind %q: %w", payload.Kind, asynq.SkipRetry)
	}
	if err != nil {
		return fmt.Errorf("send %s email: %w", payload.Kind, err)
	}
	log.Info().Str("kind", payload.Kind).Str("to", payload.To).Msg("tasks: email delivered")
	return nil
}

// HandleImageCleanupTask deletes listing images. Repeating it is harmless.
func (p *TaskProcessor) HandleImageCleanupTask(ctx context.Context, t *asynq.Task) error {
	var payload ImageCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal image cleanup payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.OwnerID == "" {
		return fmt.Errorf("image cleanup payload has no owner: %w", asynq.SkipRetry)
	}
	if err := p.Cleaner.CleanupImages(ctx, payload.OwnerID, payload.URLs); err != nil {
		return fmt.Errorf("image cleanup: %w", err)
	}
	log.Info().Str("owner_id", payload.OwnerID).Int("count", len(payload.URLs)).Msg("tasks: listing images cleaned up")
	return nil
}

// NewServeMux registers every task handler.
func NewServeMux(p *TaskProcessor) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeEmailDelivery, p.HandleEmailDeliveryTask)
	mux.HandleFunc(TypeImageCleanup, p.HandleImageCleanupTask)
	return mux
}

// NewServer builds the worker server. Call Run(NewServeMux(p)) to process tasks.
func NewServer(redisOpt asynq.RedisConnOpt, concurrency int) *asynq.Server {
	return asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			QueueCritical: 6,
			QueueDefault:  3,
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			log.Error().Err(err).Str("type", task.Type()).Msg("tasks: task failed")
		}),
	})
}
