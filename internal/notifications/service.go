package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"packline/internal/config"
)

const userAgent = "packline/1.0"

// Event enumerates alert types.
type Event string

const (
	EventCloseReverted   Event = "close_reverted"
	EventPieceLabelError Event = "piece_label_error"
	EventDiscrepancy     Event = "close_discrepancy"
	EventTest            Event = "test"
)

// Payload carries event-specific values. Keys used:
// station, batch, box, piece, error, computed, final, delta.
type Payload map[string]any

// Service publishes alerts.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds an ntfy-backed service, or a no-op when no topic is set.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint:      topic,
		station:       cfg.Station.Name,
		client:        &http.Client{Timeout: timeout},
		printFailures: cfg.Notifications.PrintFailures,
		discrepancies: cfg.Notifications.Discrepancies,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint      string
	station       string
	client        *http.Client
	printFailures bool
	discrepancies bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, data Payload) error {
	if n == nil {
		return nil
	}
	msg, ok := n.format(event, data)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) format(event Event, data Payload) (payload, bool) {
	station := n.station
	if value := text(data, "station"); value != "" {
		station = value
	}
	prefix := "Packline"
	if station != "" {
		prefix = "Packline " + station
	}

	switch event {
	case EventCloseReverted:
		if !n.printFailures {
			return payload{}, false
		}
		return payload{
			title:    prefix + " - Box Reverted",
			message:  fmt.Sprintf("Master label failed for box %s of batch %s; box is OPEN again: %s", text(data, "box"), text(data, "batch"), text(data, "error")),
			tags:     []string{"packline", "printer", "warning"},
			priority: "high",
		}, true
	case EventPieceLabelError:
		if !n.printFailures {
			return payload{}, false
		}
		return payload{
			title:   prefix + " - Piece Label Failed",
			message: fmt.Sprintf("Piece %s in box %s of batch %s was saved but its label did not print: %s", text(data, "piece"), text(data, "box"), text(data, "batch"), text(data, "error")),
			tags:    []string{"packline", "printer"},
		}, true
	case EventDiscrepancy:
		if !n.discrepancies {
			return payload{}, false
		}
		return payload{
			title:   prefix + " - Weight Discrepancy",
			message: fmt.Sprintf("Box %s of batch %s closed at %s kg; pieces sum %s kg (delta %s kg)", text(data, "box"), text(data, "batch"), text(data, "final"), text(data, "computed"), text(data, "delta")),
			tags:    []string{"packline", "scale", "discrepancy"},
		}, true
	case EventTest:
		return payload{
			title:    prefix + " - Test",
			message:  "Notification system test",
			tags:     []string{"packline", "test"},
			priority: "low",
		}, true
	default:
		return payload{}, false
	}
}

func text(data Payload, key string) string {
	if data == nil {
		return ""
	}
	value, ok := data[key]
	if !ok || value == nil {
		return ""
	}
	if err, ok := value.(error); ok {
		return strings.TrimSpace(err.Error())
	}
	return strings.TrimSpace(fmt.Sprint(value))
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n.client == nil {
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

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
