package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/eventra-app/admin-service/internal/events"
)

// WebhookSender delivers an event to an external endpoint.
type WebhookSender interface {
	Send(ctx context.Context, url string, event events.Event) error
}

// FiberWebhookSender posts events as JSON with the fiber HTTP client.
type FiberWebhookSender struct {
	timeout time.Duration
}

// NewFiberWebhookSender creates a sender bounded by timeout.
func NewFiberWebhookSender(timeout time.Duration) *FiberWebhookSender {
	return &FiberWebhookSender{timeout: timeout}
}

func (w *FiberWebhookSender) Send(ctx context.Context, url string, event events.Event) error {
	timeout := w.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return context.DeadlineExceeded
	}

	agent := fiber.Post(url).
		JSON(event).
		Set("X-Event-Type", string(event.Type)).
		Set("X-Event-ID", event.ID).
		Timeout(timeout)

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	if code < fiber.StatusOK || code >= fiber.StatusMultipleChoices {
		if len(body) > 256 {
			body = body[:256]
		}
		return fmt.Errorf("webhook responded %d: %s", code, body)
	}
	return nil
}
