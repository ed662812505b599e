// Package notify presents user-facing notifications through pluggable
// backends.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sadopc/focuskit/internal/events"
	"github.com/sadopc/focuskit/internal/logger"
)

type Notification struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Log writes notifications to the focuskit log.
type Log struct{}

func (Log) Notify(_ context.Context, n Notification) error {
	logger.Info("notification", "id", n.ID, "title", n.Title, "message", n.Message)
	return nil
}

// Broadcaster is satisfied by *events.Hub.
type Broadcaster interface {
	Broadcast(command string, payload any)
}

// Event pushes notifications to connected views as "notification" events so
// the foreground can present them.
type Event struct {
	Hub Broadcaster
}

func (e Event) Notify(_ context.Context, n Notification) error {
	if e.Hub == nil {
		return errors.New("no event hub")
	}
	e.Hub.Broadcast(events.Notification, n)
	return nil
}

// Webhook POSTs the notification as JSON to URL.
type Webhook struct {
	URL    string
	Client *http.Client
}

func NewWebhook(url string) *Webhook {
	return &Webhook{URL: url, Client: &http.Client{Timeout: 5 * time.Second}}
}

func (w *Webhook) Notify(ctx context.Context, n Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	client := w.Client
	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
	return fmt.Errorf("webhook returned status %d: %s", res.StatusCode, string(msg))
}

// Multi delivers to every backend. Failures are logged and joined; one
// failing backend never stops the others.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, backend := range m {
		if backend == nil {
			continue
		}
		if err := backend.Notify(ctx, n); err != nil {
			logger.Warn("notification backend failed", "id", n.ID, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
