package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"echocheck/internal/config"
)

const userAgent = "EchoCheck-Go/0.1.0"

// Event identifies a workflow occurrence worth pushing to the operator.
type Event string

const (
	// EventUploadQueued fires when a new upload lands in the queue.
	EventUploadQueued Event = "upload_queued"
	// EventAnalysisCompleted fires when an item reaches completed status.
	EventAnalysisCompleted Event = "analysis_completed"
	// EventManipulationDetected fires when the verdict is LIKELY_MANIPULATED.
	EventManipulationDetected Event = "manipulation_detected"
	// EventReviewRequired fires when an item is routed to manual review.
	EventReviewRequired Event = "review_required"
	// EventQueueStarted fires when the manager begins draining a non-empty queue.
	EventQueueStarted Event = "queue_started"
	// EventQueueCompleted fires when the queue drains back to idle.
	EventQueueCompleted Event = "queue_completed"
	// EventError fires when a stage fails.
	EventError Event = "error"
	// EventTest exercises the notification path end to end.
	EventTest Event = "test"
)

// Payload carries event-specific details keyed by well-known field names.
type Payload map[string]any

// Service is the notification surface exposed to workflow components.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		settings: cfg.Notifications,
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	settings config.Notifications
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if !n.enabled(event) {
		return nil
	}
	msg, ok := render(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) enabled(event Event) bool {
	switch event {
	case EventAnalysisCompleted:
		return n.settings.Completion
	case EventManipulationDetected, EventReviewRequired:
		return n.settings.Manipulation
	case EventError:
		return n.settings.Errors
	case EventQueueStarted, EventQueueCompleted:
		return n.settings.Queue
	default:
		return true
	}
}

func render(event Event, payload Payload) (message, bool) {
	switch event {
	case EventUploadQueued:
		title := payloadString(payload, "title")
		return message{
			title: "Echo-Check - Upload Queued",
			body:  fmt.Sprintf("Queued for analysis: %s", title),
			tags:  []string{"echocheck", "upload", "queued"},
		}, true
	case EventAnalysisCompleted:
		title := payloadString(payload, "title")
		verdict := payloadString(payload, "verdict")
		score := payloadFloat(payload, "score")
		return message{
			title: "Echo-Check - Analysis Complete",
			body:  fmt.Sprintf("Analysis complete: %s\nTruth score %.1f%%, verdict %s", title, score, verdict),
			tags:  []string{"echocheck", "analysis", "completed"},
		}, true
	case EventManipulationDetected:
		title := payloadString(payload, "title")
		score := payloadFloat(payload, "score")
		return message{
			title:    "Echo-Check - Manipulation Detected",
			body:     fmt.Sprintf("Likely manipulated media: %s (truth score %.1f%%)", title, score),
			tags:     []string{"echocheck", "manipulation", "alert"},
			priority: "high",
		}, true
	case EventReviewRequired:
		title := payloadString(payload, "title")
		reason := payloadString(payload, "reason")
		body := fmt.Sprintf("Manual review required: %s", title)
		if reason != "" {
			body = fmt.Sprintf("%s\nReason: %s", body, reason)
		}
		return message{
			title: "Echo-Check - Review Required",
			body:  body,
			tags:  []string{"echocheck", "review"},
		}, true
	case EventQueueStarted:
		count := payloadInt(payload, "count")
		return message{
			title: "Echo-Check - Queue Started",
			body:  fmt.Sprintf("Started processing queue with %d items", count),
			tags:  []string{"echocheck", "queue", "started"},
		}, true
	case EventQueueCompleted:
		return renderQueueCompleted(payload), true
	case EventError:
		return renderError(payload), true
	case EventTest:
		return message{
			title:    "Echo-Check - Test",
			body:     "Notification system test",
			tags:     []string{"echocheck", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func renderQueueCompleted(payload Payload) message {
	processed := payloadInt(payload, "processed")
	failed := payloadInt(payload, "failed")
	duration, _ := payload["duration"].(time.Duration)
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	durationText := duration.String()
	if duration == 0 {
		durationText = "0s"
	}

	if failed == 0 {
		return message{
			title: "Echo-Check - Queue Complete",
			body:  fmt.Sprintf("Queue processing complete: %d items processed in %s", processed, durationText),
			tags:  []string{"echocheck", "queue", "completed"},
		}
	}
	return message{
		title: "Echo-Check - Queue Complete (with errors)",
		body:  fmt.Sprintf("Queue processing complete: %d succeeded, %d failed in %s", processed, failed, durationText),
		tags:  []string{"echocheck", "queue", "completed"},
	}
}

func renderError(payload Payload) message {
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel := payloadString(payload, "context"); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	switch value := payload["error"].(type) {
	case error:
		builder.WriteString(strings.TrimSpace(value.Error()))
	case string:
		builder.WriteString(strings.TrimSpace(value))
	default:
		builder.WriteString("unknown")
	}
	return message{
		title:    "Echo-Check - Error",
		body:     builder.String(),
		tags:     []string{"echocheck", "error", "alert"},
		priority: "high",
	}
}

func payloadString(payload Payload, key string) string {
	value, _ := payload[key].(string)
	return strings.TrimSpace(value)
}

func payloadInt(payload Payload, key string) int {
	switch value := payload[key].(type) {
	case int:
		return value
	case int64:
		return int(value)
	default:
		return 0
	}
}

func payloadFloat(payload Payload, key string) float64 {
	value, _ := payload[key].(float64)
	return value
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" && msg.priority != "default" {
		req.Header.Set("Priority", msg.priority)
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

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
