package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// =============================================================================
// WebhookNotifier
// =============================================================================

// WebhookNotifier sends notifications to a generic HTTP webhook. When a
// signing secret is set, each request carries an HS256 JWT in the
// Authorization header so receivers can verify the sender.
type WebhookNotifier struct {
	URL      string
	Headers  map[string]string
	Client   *http.Client
	secret   []byte
	issuer   string
	tokenTTL time.Duration
}

// WebhookOption configures WebhookNotifier.
type WebhookOption func(*WebhookNotifier)

// WithWebhookHeaders sets extra request headers.
func WithWebhookHeaders(headers map[string]string) WebhookOption {
	return func(n *WebhookNotifier) { n.Headers = headers }
}

// WithWebhookSecret enables JWT signing of outgoing requests.
func WithWebhookSecret(secret string) WebhookOption {
	return func(n *WebhookNotifier) { n.secret = []byte(secret) }
}

// WithWebhookIssuer sets the JWT issuer claim. Defaults to "orion".
func WithWebhookIssuer(issuer string) WebhookOption {
	return func(n *WebhookNotifier) { n.issuer = issuer }
}

// NewWebhookNotifier creates a webhook notifier.
func NewWebhookNotifier(url string, opts ...WebhookOption) *WebhookNotifier {
	n := &WebhookNotifier{
		URL:      url,
		Client:   &http.Client{Timeout: 10 * time.Second},
		issuer:   "orion",
		tokenTTL: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Notify implements Notifier.
func (n *WebhookNotifier) Notify(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range n.Headers {
		req.Header.Set(k, v)
	}

	if len(n.secret) > 0 {
		token, err := n.signToken(event)
		if err != nil {
			return fmt.Errorf("sign webhook token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := n.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}

	return nil
}

func (n *WebhookNotifier) signToken(event Event) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":   n.issuer,
		"iat":   now.Unix(),
		"exp":   now.Add(n.tokenTTL).Unix(),
		"event": string(event.Type),
		"run":   event.RunID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(n.secret)
}
