// Package notify delivers order-status messages to a customer's messaging
// handle. Delivery is best-effort and at-least-once: there is no retry
// queue and no delivery confirmation. The system of record for order state
// never depends on it.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Method identifies which transport delivered (or recorded) a message.
type Method string

const (
	MethodWhatsApp Method = "whatsapp_api"
	MethodWebhook  Method = "webhook"
	MethodLog      Method = "log"
)

// Transport is one outbound delivery mechanism.
type Transport interface {
	Method() Method
	Send(ctx context.Context, handle, text string) error
}

// Dispatcher tries its transports in priority order and stops at the first
// success. The log transport is always appended last so Send never fails
// outright.
type Dispatcher struct {
	transports []Transport
}

// NewDispatcher builds a dispatcher from the configured transports, in
// priority order, with the log-only fallback appended.
func NewDispatcher(transports ...Transport) *Dispatcher {
	return &Dispatcher{transports: append(transports, logTransport{})}
}

// Send delivers text to the messaging handle, returning the method that
// succeeded. Callers must treat this as fire-and-forget.
func (d *Dispatcher) Send(ctx context.Context, handle, text string) (Method, error) {
	var lastErr error
	for _, t := range d.transports {
		if err := t.Send(ctx, handle, text); err != nil {
			slog.WarnContext(ctx, "notification transport failed",
				"method", string(t.Method()), "error", err)
			lastErr = err
			continue
		}
		return t.Method(), nil
	}
	// Unreachable in practice: the log transport never fails.
	return "", lastErr
}

// WhatsAppTransport posts messages through a WhatsApp Business Cloud API
// credential pair (access token + phone number id).
type WhatsAppTransport struct {
	baseURL       string
	token         string
	phoneNumberID string
	client        *http.Client
}

// NewWhatsAppTransport builds the business-API transport. baseURL is
// overridable for tests; pass "" for the production endpoint.
func NewWhatsAppTransport(baseURL, token, phoneNumberID string) *WhatsAppTransport {
	if baseURL == "" {
		baseURL = "https://graph.facebook.com/v19.0"
	}
	return &WhatsAppTransport{
		baseURL:       baseURL,
		token:         token,
		phoneNumberID: phoneNumberID,
		client:        &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *WhatsAppTransport) Method() Method { return MethodWhatsApp }

func (t *WhatsAppTransport) Send(ctx context.Context, handle, text string) error {
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                handle,
		"type":              "text",
		"text":              map[string]string{"body": text},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("whatsapp: encode payload: %w", err)
	}

	u := fmt.Sprintf("%s/%s/messages", t.baseURL, t.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("whatsapp: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.token)

	res, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp: %w", err)
	}
	defer res.Body.Close()
	io.Copy(io.Discard, res.Body)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("whatsapp: unexpected status %d", res.StatusCode)
	}
	return nil
}

// WebhookTransport posts {handle, message} JSON to a generic outbound URL.
type WebhookTransport struct {
	url    string
	client *http.Client
}

// NewWebhookTransport builds the generic webhook transport.
func NewWebhookTransport(url string) *WebhookTransport {
	return &WebhookTransport{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *WebhookTransport) Method() Method { return MethodWebhook }

func (t *WebhookTransport) Send(ctx context.Context, handle, text string) error {
	body, err := json.Marshal(map[string]string{
		"handle":  handle,
		"message": text,
	})
	if err != nil {
		return fmt.Errorf("webhook: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: %w", err)
	}
	defer res.Body.Close()
	io.Copy(io.Discard, res.Body)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("webhook: unexpected status %d", res.StatusCode)
	}
	return nil
}

// logTransport records the message instead of delivering it. It always
// reports success, which makes the subsystem functional with no outbound
// channel configured.
type logTransport struct{}

func (logTransport) Method() Method { return MethodLog }

func (logTransport) Send(ctx context.Context, handle, text string) error {
	slog.InfoContext(ctx, "customer notification (log only)", "handle", handle, "message", text)
	return nil
}
