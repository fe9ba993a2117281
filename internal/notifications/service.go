package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"curator/internal/config"
	"curator/internal/report"
)

const userAgent = "curator/0.1.0"

// maxListed caps the unresolved ids quoted in a message.
const maxListed = 5

// Service defines the notification surface exposed to commands.
type Service interface {
	NotifyRunCompleted(ctx context.Context, run report.Run) error
	NotifyRunFailed(ctx context.Context, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg config.Notify) Service {
	topic := strings.TrimSpace(cfg.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:   topic,
		client:     &http.Client{Timeout: timeout},
		onlyIssues: cfg.OnlyIssues,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint   string
	client     *http.Client
	onlyIssues bool
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, run report.Run) error {
	remaining := run.Remaining()
	if remaining == 0 && n.onlyIssues {
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Applied %d, unresolved %d, remaining issues %d", len(run.Applied), len(run.Unresolved), remaining)
	if run.Deferred > 0 {
		fmt.Fprintf(&b, ", deferred %d", run.Deferred)
	}
	if len(run.Unresolved) > 0 {
		ids := make([]string, 0, maxListed)
		for _, u := range run.Unresolved[:min(len(run.Unresolved), maxListed)] {
			ids = append(ids, u.ID)
		}
		b.WriteString("\nUnresolved: ")
		b.WriteString(strings.Join(ids, ", "))
		if extra := len(run.Unresolved) - maxListed; extra > 0 {
			fmt.Fprintf(&b, " (+%d more)", extra)
		}
	}

	data := payload{
		title:   "curator - Catalog Clean",
		message: b.String(),
		tags:    []string{"curator", "reconcile", "completed"},
	}
	if remaining > 0 {
		data.title = "curator - Issues Remain"
		data.tags = []string{"curator", "reconcile", "warning"}
		data.priority = "high"
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunFailed(ctx context.Context, err error) error {
	message := "unknown"
	if err != nil {
		message = strings.TrimSpace(err.Error())
	}
	data := payload{
		title:    "curator - Run Failed",
		message:  "Reconciliation failed: " + message,
		tags:     []string{"curator", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "curator - Test",
		message:  "Notification system test",
		tags:     []string{"curator", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Enabled reports whether svc delivers anything.
func Enabled(svc Service) bool {
	_, noop := svc.(noopService)
	return !noop
}

type noopService struct{}

func (noopService) NotifyRunCompleted(context.Context, report.Run) error { return nil }
func (noopService) NotifyRunFailed(context.Context, error) error         { return nil }
func (noopService) TestNotification(context.Context) error              { return nil }
