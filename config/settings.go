package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/randalmurphal/orion/auth"
)

// Configuration keys.
const (
	KeyWorkDir        = "workdir"
	KeyBaseDir        = "base_dir"
	KeyBaseBranch     = "base_branch"
	KeyModel          = "model"
	KeyEnableTesting  = "enable_testing"
	KeyStrictTesting  = "strict_testing"
	KeyCreateEnv      = "create_env"
	KeyCommitChanges  = "commit_changes"
	KeyCreatePR       = "create_pr"
	KeyDraftPR        = "draft_pr"
	KeyTestCommand    = "test_command"
	KeyLintCommand    = "lint_command"
	KeyMaxParallel    = "max_parallel"
	KeyMaxAttempts    = "max_attempts"
	KeyRetryDelay     = "retry_delay"
	KeyWebhookURL     = "webhook_url"
	KeyWebhookSecret  = "webhook_secret"
	KeySlackWebhook   = "slack_webhook"
	KeyDiscordWebhook = "discord_webhook"
	KeyNoColor        = "no_color"
)

// Defaults returns the built-in default values.
func Defaults() map[string]string {
	return map[string]string{
		KeyWorkDir:       ".",
		KeyBaseDir:       ".orion",
		KeyBaseBranch:    "main",
		KeyEnableTesting: "true",
		KeyStrictTesting: "false",
		KeyCreateEnv:     "false",
		KeyCommitChanges: "true",
		KeyCreatePR:      "true",
		KeyDraftPR:       "false",
		KeyMaxParallel:   "4",
		KeyMaxAttempts:   "3",
		KeyRetryDelay:    "2s",
	}
}

// ValidKeys lists every key accepted in config files.
func ValidKeys() []string {
	return []string{
		KeyWorkDir, KeyBaseDir, KeyBaseBranch, KeyModel,
		KeyEnableTesting, KeyStrictTesting, KeyCreateEnv,
		KeyCommitChanges, KeyCreatePR, KeyDraftPR,
		KeyTestCommand, KeyLintCommand,
		KeyMaxParallel, KeyMaxAttempts, KeyRetryDelay,
		KeyWebhookURL, KeyWebhookSecret, KeySlackWebhook, KeyDiscordWebhook,
		KeyNoColor,
	}
}

// Settings is the typed view of a resolved configuration.
type Settings struct {
	WorkDir    string
	BaseDir    string
	BaseBranch string
	Model      string

	EnableTesting bool
	StrictTesting bool
	CreateEnv     bool
	CommitChanges bool
	CreatePR      bool
	DraftPR       bool

	// TestCommand and LintCommand override the harness defaults when set.
	TestCommand string
	LintCommand string

	MaxParallel int
	MaxAttempts int
	RetryDelay  time.Duration

	WebhookURL     string
	WebhookSecret  string
	SlackWebhook   string
	DiscordWebhook string

	NoColor bool
}

// LoadSettings resolves configuration from all sources and returns the
// typed settings. Unparseable values produce warnings on the resolver
// and fall back to defaults.
func LoadSettings() *Settings {
	r := NewResolver()
	return SettingsFrom(r, r.Resolve())
}

// SettingsFrom builds Settings from an already-resolved configuration.
// The resolver collects warnings for values that fail to parse.
func SettingsFrom(r *Resolver, cfg *Resolved) *Settings {
	s := &Settings{
		WorkDir:        cfg.Get(KeyWorkDir),
		BaseDir:        cfg.Get(KeyBaseDir),
		BaseBranch:     cfg.Get(KeyBaseBranch),
		Model:          cfg.Get(KeyModel),
		TestCommand:    cfg.Get(KeyTestCommand),
		LintCommand:    cfg.Get(KeyLintCommand),
		WebhookURL:     cfg.Get(KeyWebhookURL),
		WebhookSecret:  cfg.Get(KeyWebhookSecret),
		SlackWebhook:   cfg.Get(KeySlackWebhook),
		DiscordWebhook: cfg.Get(KeyDiscordWebhook),
	}

	s.EnableTesting = parseBool(r, cfg, KeyEnableTesting)
	s.StrictTesting = parseBool(r, cfg, KeyStrictTesting)
	s.CreateEnv = parseBool(r, cfg, KeyCreateEnv)
	s.CommitChanges = parseBool(r, cfg, KeyCommitChanges)
	s.CreatePR = parseBool(r, cfg, KeyCreatePR)
	s.DraftPR = parseBool(r, cfg, KeyDraftPR)
	s.NoColor = parseBool(r, cfg, KeyNoColor)

	s.MaxParallel = parseInt(r, cfg, KeyMaxParallel)
	s.MaxAttempts = parseInt(r, cfg, KeyMaxAttempts)
	s.RetryDelay = parseDuration(r, cfg, KeyRetryDelay)

	return s
}

// LogValue renders settings for structured logging with the webhook
// secret reduced to a fingerprint.
func (s *Settings) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("workdir", s.WorkDir),
		slog.String("base_dir", s.BaseDir),
		slog.String("base_branch", s.BaseBranch),
		slog.Bool("enable_testing", s.EnableTesting),
		slog.Bool("strict_testing", s.StrictTesting),
		slog.Bool("create_env", s.CreateEnv),
		slog.Bool("commit_changes", s.CommitChanges),
		slog.Bool("create_pr", s.CreatePR),
		slog.Int("max_parallel", s.MaxParallel),
		slog.Int("max_attempts", s.MaxAttempts),
		slog.Duration("retry_delay", s.RetryDelay),
	}
	if s.Model != "" {
		attrs = append(attrs, slog.String("model", s.Model))
	}
	if s.WebhookSecret != "" {
		attrs = append(attrs, slog.String("webhook_secret", auth.Fingerprint(s.WebhookSecret)))
	}
	return slog.GroupValue(attrs...)
}

func parseBool(r *Resolver, cfg *Resolved, key string) bool {
	raw := cfg.Get(key)
	if raw == "" {
		return false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		r.warn(fmt.Sprintf("invalid value for %s: %q (expected true/false)", key, raw))
		v, _ = strconv.ParseBool(Defaults()[key])
	}
	return v
}

func parseInt(r *Resolver, cfg *Resolved, key string) int {
	raw := cfg.Get(key)
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		r.warn(fmt.Sprintf("invalid value for %s: %q (expected integer)", key, raw))
		v, _ = strconv.Atoi(Defaults()[key])
	}
	return v
}

func parseDuration(r *Resolver, cfg *Resolved, key string) time.Duration {
	raw := cfg.Get(key)
	if raw == "" {
		return 0
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		r.warn(fmt.Sprintf("invalid value for %s: %q (expected duration like 2s)", key, raw))
		v, _ = time.ParseDuration(Defaults()[key])
	}
	return v
}
