package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	jobmetrics "github.com/passage-app/passage/internal/jobs"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeMailer struct {
	sent []SendEmailPayload
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, msg SendEmailPayload) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func TestEmailHandler(t *testing.T) {
	welcome, err := NewSendEmailTask(WelcomeEmail("Ada", "ada@example.com"))
	require.NoError(t, err)
	noRecipient, err := NewSendEmailTask(SendEmailPayload{Subject: "hi"})
	require.NoError(t, err)

	tests := []struct {
		name      string
		task      *asynq.Task
		mailerErr error
		wantSent  int
		skipRetry bool
		wantErr   bool
		status    string
	}{
		{name: "delivers", task: welcome, wantSent: 1, status: "success"},
		{name: "malformed payload", task: asynq.NewTask(TaskTypeSendEmail, []byte("{")), skipRetry: true, wantErr: true, status: "failure"},
		{name: "missing recipient", task: noRecipient, skipRetry: true, wantErr: true, status: "failure"},
		{name: "relay down retries", task: welcome, mailerErr: errors.New("connection refused"), wantErr: true, status: "failure"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := prometheus.NewRegistry()
			metrics := jobmetrics.NewMetrics(reg)
			mailer := &fakeMailer{err: tt.mailerErr}
			h := NewEmailHandler(mailer, metrics, nil)

			err := h.ProcessTask(context.Background(), tt.task)

			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.skipRetry, errors.Is(err, asynq.SkipRetry))
			assert.Len(t, mailer.sent, tt.wantSent)
			count, err := testutil.GatherAndCount(reg, "passage_jobs_total")
			require.NoError(t, err)
			assert.Equal(t, 1, count)
			assert.Equal(t, tt.status, runStatus(t, reg))
		})
	}
}

func runStatus(t *testing.T, reg *prometheus.Registry) string {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != "passage_jobs_total" {
			continue
		}
		for _, label := range family.GetMetric()[0].GetLabel() {
			if label.GetName() == "status" {
				return label.GetValue()
			}
		}
	}
	return ""
}

func TestWelcomeEmail(t *testing.T) {
	msg := WelcomeEmail("  ", "ada@example.com")
	assert.Equal(t, "ada@example.com", msg.To)
	assert.Equal(t, "Welcome to Passage", msg.Subject)
	assert.Contains(t, msg.Body, "Hi there,")
	assert.Contains(t, msg.Body, "ada@example.com")
}

func TestSMTPMailer(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	m := NewSMTPMailer("mail.local", 1025, "no-reply@passage.local")
	m.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	require.NoError(t, m.Send(context.Background(), SendEmailPayload{To: "ada@example.com", Subject: "Hello", Body: "line one\nline two"}))

	assert.Equal(t, "mail.local:1025", gotAddr)
	assert.Equal(t, "no-reply@passage.local", gotFrom)
	assert.Equal(t, []string{"ada@example.com"}, gotTo)
	raw := string(gotMsg)
	assert.Contains(t, raw, "Subject: Hello\r\n")
	assert.Contains(t, raw, "Date: Fri, 02 Jan 2026 03:04:05 +0000\r\n")
	assert.True(t, strings.HasSuffix(raw, "\r\n\r\nline one\r\nline two"))
}

func TestSMTPMailerRejectsHeaderInjection(t *testing.T) {
	m := NewSMTPMailer("mail.local", 1025, "no-reply@passage.local")
	m.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("send must not be called")
		return nil
	}
	err := m.Send(context.Background(), SendEmailPayload{To: "ada@example.com\r\nBcc: eve@example.com", Subject: "x"})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Send(ctx, SendEmailPayload{To: "ada@example.com"}), context.Canceled)
}

type fakeEnqueuer struct {
	tasks  []*asynq.Task
	err    error
	closed bool
}

func (f *fakeEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{Type: task.Type(), Queue: QueueDefault}, nil
}

func (f *fakeEnqueuer) Close() error {
	f.closed = true
	return nil
}

func TestClientNotifyRegistered(t *testing.T) {
	fake := &fakeEnqueuer{}
	client := &Client{client: fake}

	require.NoError(t, client.NotifyRegistered(context.Background(), "Ada", "ada@example.com"))

	require.Len(t, fake.tasks, 1)
	assert.Equal(t, TaskTypeSendEmail, fake.tasks[0].Type())
	var payload SendEmailPayload
	require.NoError(t, json.Unmarshal(fake.tasks[0].Payload(), &payload))
	assert.Equal(t, "ada@example.com", payload.To)

	fake.err = errors.New("redis down")
	err := client.NotifyRegistered(context.Background(), "Ada", "ada@example.com")
	assert.ErrorContains(t, err, "redis down")

	require.NoError(t, client.Close())
	assert.True(t, fake.closed)
}

type fakeInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (f fakeInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	return f.info, f.err
}

func TestJobsHealth(t *testing.T) {
	tests := []struct {
		name      string
		inspector queueInspector
		wantCode  int
		wantBody  string
	}{
		{name: "no inspector", wantCode: http.StatusOK, wantBody: `"pending":0`},
		{name: "queue stats", inspector: fakeInspector{info: &asynq.QueueInfo{Queue: QueueDefault, Pending: 3, Active: 1}}, wantCode: http.StatusOK, wantBody: `"pending":3`},
		{name: "queue never used", inspector: fakeInspector{err: asynq.ErrQueueNotFound}, wantCode: http.StatusOK, wantBody: `"pending":0`},
		{name: "redis down", inspector: fakeInspector{err: errors.New("dial tcp")}, wantCode: http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(nil, nil)
			h.inspector = tt.inspector
			r := chi.NewRouter()
			r.Route("/jobs", h.MountRoutes)

			res := httptest.NewRecorder()
			r.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))

			assert.Equal(t, tt.wantCode, res.Code)
			if tt.wantBody != "" {
				assert.Contains(t, res.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestNewWorkerRequiresHandlers(t *testing.T) {
	_, err := NewWorker(WorkerConfig{})
	assert.Error(t, err)
}
