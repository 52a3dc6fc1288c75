// Package notify provides notification services for workflow events.
//
// Core types:
//   - Notifier: Interface for sending notifications
//   - Event: Notification event with type, message, and metadata
//   - EventType: Type of event (started, succeeded, failed, etc.)
//
// Implementations:
//   - SlackNotifier: Sends notifications to Slack webhooks
//   - DiscordNotifier: Sends notifications to Discord webhooks
//   - WebhookNotifier: Sends notifications to generic webhooks, optionally
//     signed with an HS256 JWT
//   - LogNotifier: Logs notifications (for testing/debugging)
//   - MultiNotifier: Combines multiple notifiers
//   - NopNotifier: No-op notifier (for testing)
//
// Example usage:
//
//	notifier := notify.NewSlackNotifier(webhookURL,
//	    notify.WithSlackChannel("#dev-alerts"),
//	    notify.WithSlackUsername("orion-bot"),
//	)
//	err := notifier.Notify(ctx, notify.RunStarted("run-123", "task-to-pr"))
package notify
