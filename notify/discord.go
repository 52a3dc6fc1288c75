package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// =============================================================================
// DiscordNotifier
// =============================================================================

// DiscordNotifier sends notifications to a Discord webhook.
type DiscordNotifier struct {
	WebhookURL string
	Username   string
	Client     *http.Client
}

// NewDiscordNotifier creates a Discord webhook notifier.
func NewDiscordNotifier(webhookURL string, opts ...DiscordOption) *DiscordNotifier {
	n := &DiscordNotifier{
		WebhookURL: webhookURL,
		Username:   "orion",
		Client:     &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// DiscordOption configures DiscordNotifier.
type DiscordOption func(*DiscordNotifier)

// WithDiscordUsername sets the bot username.
func WithDiscordUsername(username string) DiscordOption {
	return func(n *DiscordNotifier) { n.Username = username }
}

// Discord embed colors per severity.
const (
	discordGreen  = 0x2ECC71
	discordYellow = 0xF1C40F
	discordRed    = 0xE74C3C
)

// Notify implements Notifier.
func (n *DiscordNotifier) Notify(ctx context.Context, event Event) error {
	payload := discordPayload{
		Username: n.Username,
		Embeds: []discordEmbed{
			{
				Title:       string(event.Type),
				Description: event.Message,
				Color:       n.colorForSeverity(event.Severity),
				Footer: &discordFooter{
					Text: fmt.Sprintf("Graph: %s | Run: %s", event.Graph, event.RunID),
				},
				Fields: n.fieldsFromMetadata(event.Metadata),
			},
		},
	}
	if !event.Timestamp.IsZero() {
		payload.Embeds[0].Timestamp = event.Timestamp.Format(time.RFC3339)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send discord message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("discord returned %d", resp.StatusCode)
	}

	return nil
}

func (n *DiscordNotifier) colorForSeverity(severity string) int {
	switch severity {
	case SeverityError, SeverityCritical:
		return discordRed
	case SeverityWarning:
		return discordYellow
	default:
		return discordGreen
	}
}

func (n *DiscordNotifier) fieldsFromMetadata(metadata map[string]any) []discordField {
	if len(metadata) == 0 {
		return nil
	}

	var fields []discordField
	for k, v := range metadata {
		fields = append(fields, discordField{
			Name:   k,
			Value:  fmt.Sprintf("%v", v),
			Inline: true,
		})
	}
	return fields
}

// Discord webhook payload types
type discordPayload struct {
	Username string         `json:"username,omitempty"`
	Content  string         `json:"content,omitempty"`
	Embeds   []discordEmbed `json:"embeds,omitempty"`
}

type discordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Color       int            `json:"color,omitempty"`
	Timestamp   string         `json:"timestamp,omitempty"`
	Footer      *discordFooter `json:"footer,omitempty"`
	Fields      []discordField `json:"fields,omitempty"`
}

type discordFooter struct {
	Text string `json:"text"`
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}
