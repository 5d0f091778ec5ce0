package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/passage-app/passage/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data, asynq.MaxRetry(5)), nil
}

// WelcomeEmail builds the message sent after a successful registration.
func WelcomeEmail(name, email string) SendEmailPayload {
	greeting := strings.TrimSpace(name)
	if greeting == "" {
		greeting = "there"
	}
	return SendEmailPayload{
		To:      email,
		Subject: "Welcome to Passage",
		Body: fmt.Sprintf("Hi %s,\n\nYour Passage account for %s is ready. "+
			"Log in any time to reach your dashboard.\n\nThe Passage team\n", greeting, email),
	}
}

// Mailer delivers a single email.
type Mailer interface {
	Send(ctx context.Context, msg SendEmailPayload) error
}

// EmailHandler processes TaskTypeSendEmail tasks.
type EmailHandler struct {
	mailer  Mailer
	metrics *jobmetrics.Metrics
	logger  *slog.Logger
}

// NewEmailHandler constructs an EmailHandler.
func NewEmailHandler(mailer Mailer, metrics *jobmetrics.Metrics, logger *slog.Logger) *EmailHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EmailHandler{mailer: mailer, metrics: metrics, logger: logger}
}

// ProcessTask implements asynq.Handler. Payloads that cannot be decoded or
// lack a recipient are dropped without retry.
func (h *EmailHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	tracker := h.metrics.Track(TaskTypeSendEmail)
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.logger.Warn("discard malformed email task", slog.Any("error", err))
		return tracker.End(fmt.Errorf("jobs: decode email payload: %v: %w", err, asynq.SkipRetry))
	}
	if strings.TrimSpace(payload.To) == "" {
		h.logger.Warn("discard email task without recipient")
		return tracker.End(fmt.Errorf("jobs: email without recipient: %w", asynq.SkipRetry))
	}
	if err := h.mailer.Send(ctx, payload); err != nil {
		h.logger.Error("send email", slog.String("to", payload.To), slog.Any("error", err))
		return tracker.End(fmt.Errorf("jobs: send email: %w", err))
	}
	h.logger.Info("email sent", slog.String("to", payload.To), slog.String("subject", payload.Subject))
	return tracker.End(nil)
}
