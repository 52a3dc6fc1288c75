package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/randalmurphal/orion/task"
)

// Generator wraps the claude CLI binary for structured LLM invocation.
type Generator struct {
	binaryPath string        // Path to claude binary
	model      string        // Default model (empty = use claude default)
	timeout    time.Duration // Default timeout
	maxTurns   int           // Default max conversation turns
}

// Config configures the Generator.
type Config struct {
	BinaryPath string        // Path to claude binary (default: "claude")
	Model      string        // Default model (empty = use claude default)
	Timeout    time.Duration // Default timeout (default: 5m)
	MaxTurns   int           // Default max turns (default: 10)
}

// New creates a new Generator.
// Returns ErrNotFound if the claude binary is not installed.
func New(cfg Config) (*Generator, error) {
	binaryPath := cfg.BinaryPath
	if binaryPath == "" {
		binaryPath = "claude"
	}

	if _, err := exec.LookPath(binaryPath); err != nil {
		return nil, ErrNotFound
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Minute
	}

	maxTurns := cfg.MaxTurns
	if maxTurns == 0 {
		maxTurns = 10
	}

	return &Generator{
		binaryPath: binaryPath,
		model:      cfg.Model,
		timeout:    timeout,
		maxTurns:   maxTurns,
	}, nil
}

// Result contains the output from a generation run.
type Result struct {
	Output    string        // Final output text
	TokensIn  int           // Input tokens consumed
	TokensOut int           // Output tokens generated
	Cost      float64       // Cost in USD
	SessionID string        // Session ID (for multi-turn conversations)
	Duration  time.Duration // Execution time
	ExitCode  int           // Process exit code
}

// runConfig holds configuration for a single run.
type runConfig struct {
	systemPrompt    string
	contextFiles    []string
	contextContent  string // Pre-built context content
	workDir         string
	maxTurns        int
	timeout         time.Duration
	model           string
	allowedTools    []string
	disallowedTools []string
	sessionID       string // Resume session
}

// RunOption configures a Run invocation.
type RunOption func(*runConfig)

// WithSystemPrompt sets the system prompt.
func WithSystemPrompt(prompt string) RunOption {
	return func(cfg *runConfig) {
		cfg.systemPrompt = prompt
	}
}

// WithContext adds context files to be read and included.
// Supports glob patterns.
func WithContext(files ...string) RunOption {
	return func(cfg *runConfig) {
		cfg.contextFiles = append(cfg.contextFiles, files...)
	}
}

// WithContextContent sets pre-built context content.
// Use this when you've already built the context with ContextBuilder.
func WithContextContent(content string) RunOption {
	return func(cfg *runConfig) {
		cfg.contextContent = content
	}
}

// WithWorkDir sets the working directory for the CLI.
func WithWorkDir(dir string) RunOption {
	return func(cfg *runConfig) {
		cfg.workDir = dir
	}
}

// WithMaxTurns limits the number of conversation turns.
func WithMaxTurns(n int) RunOption {
	return func(cfg *runConfig) {
		cfg.maxTurns = n
	}
}

// WithTimeout sets the timeout for this run.
func WithTimeout(d time.Duration) RunOption {
	return func(cfg *runConfig) {
		cfg.timeout = d
	}
}

// WithModel specifies the model to use for this run.
func WithModel(model string) RunOption {
	return func(cfg *runConfig) {
		cfg.model = model
	}
}

// ForTask selects the model by task type using the standard tier mapping.
func ForTask(t task.Type) RunOption {
	return func(cfg *runConfig) {
		cfg.model = string(task.SelectModel(t))
	}
}

// WithAllowedTools specifies which tools the CLI can use.
func WithAllowedTools(tools ...string) RunOption {
	return func(cfg *runConfig) {
		cfg.allowedTools = append(cfg.allowedTools, tools...)
	}
}

// WithDisallowedTools specifies which tools the CLI cannot use.
func WithDisallowedTools(tools ...string) RunOption {
	return func(cfg *runConfig) {
		cfg.disallowedTools = append(cfg.disallowedTools, tools...)
	}
}

// WithSession resumes a previous session for multi-turn conversations.
func WithSession(sessionID string) RunOption {
	return func(cfg *runConfig) {
		cfg.sessionID = sessionID
	}
}

// Run executes the CLI with the given prompt and options.
func (g *Generator) Run(ctx context.Context, prompt string, opts ...RunOption) (*Result, error) {
	cfg := &runConfig{
		timeout:  g.timeout,
		maxTurns: g.maxTurns,
		model:    g.model,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	// Build context if files specified
	if len(cfg.contextFiles) > 0 && cfg.contextContent == "" {
		workDir := cfg.workDir
		if workDir == "" {
			workDir = "."
		}
		builder := NewContextBuilder(workDir)
		for _, pattern := range cfg.contextFiles {
			if strings.ContainsAny(pattern, "*?[") {
				if err := builder.AddGlob(pattern); err != nil {
					return nil, fmt.Errorf("add context glob %s: %w", pattern, err)
				}
			} else {
				if err := builder.AddFile(pattern); err != nil {
					return nil, fmt.Errorf("add context file %s: %w", pattern, err)
				}
			}
		}
		content, err := builder.Build()
		if err != nil {
			return nil, fmt.Errorf("build context: %w", err)
		}
		cfg.contextContent = content
	}

	fullPrompt := prompt
	if cfg.contextContent != "" {
		fullPrompt = prompt + "\n\n## Context Files\n\n" + cfg.contextContent
	}

	args := g.buildArgs(cfg, fullPrompt)

	ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, g.binaryPath, args...)
	if cfg.workDir != "" {
		cmd.Dir = cfg.workDir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: after %v", ErrTimeout, cfg.timeout)
		}
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ctx.Err()
		}
		stderrStr := strings.TrimSpace(stderr.String())
		if stderrStr != "" {
			return nil, fmt.Errorf("%w: %s", ErrFailed, stderrStr)
		}
		return nil, fmt.Errorf("%w: %v", ErrFailed, err)
	}

	result, err := parseOutput(stdout.Bytes())
	if err != nil {
		// Fallback to raw output
		result = &Result{
			Output: strings.TrimSpace(stdout.String()),
		}
	}

	result.Duration = duration
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	return result, nil
}

// buildArgs constructs command line arguments for the claude CLI.
func (g *Generator) buildArgs(cfg *runConfig, prompt string) []string {
	args := []string{"--print", "--output-format", "json"}

	if cfg.model != "" {
		args = append(args, "--model", cfg.model)
	}
	if cfg.systemPrompt != "" {
		args = append(args, "--system-prompt", cfg.systemPrompt)
	}
	if cfg.maxTurns > 0 {
		args = append(args, "--max-turns", fmt.Sprintf("%d", cfg.maxTurns))
	}
	if cfg.sessionID != "" {
		args = append(args, "--resume", cfg.sessionID)
	}
	for _, tool := range cfg.allowedTools {
		args = append(args, "--allowedTools", tool)
	}
	for _, tool := range cfg.disallowedTools {
		args = append(args, "--disallowedTools", tool)
	}

	args = append(args, "-p", prompt)

	return args
}

// jsonOutput represents the JSON output from the claude CLI.
type jsonOutput struct {
	Result       string  `json:"result"`
	TokensIn     int     `json:"tokens_in"`
	TokensOut    int     `json:"tokens_out"`
	TotalTokens  int     `json:"total_tokens"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	Cost         float64 `json:"cost"`
	CostUSD      float64 `json:"cost_usd"`
	SessionID    string  `json:"session_id"`
}

// parseOutput parses the JSON output from the claude CLI.
func parseOutput(data []byte) (*Result, error) {
	data = bytes.TrimSpace(data)

	// The JSON object may be mixed with other content
	var output jsonOutput
	if err := json.Unmarshal(data, &output); err != nil {
		start := bytes.Index(data, []byte("{"))
		end := bytes.LastIndex(data, []byte("}"))
		if start >= 0 && end > start {
			if err := json.Unmarshal(data[start:end+1], &output); err != nil {
				return nil, fmt.Errorf("parse json output: %w", err)
			}
		} else {
			return nil, fmt.Errorf("no json found in output")
		}
	}

	// Field names vary between CLI versions
	tokensIn := output.TokensIn
	if tokensIn == 0 {
		tokensIn = output.InputTokens
	}
	tokensOut := output.TokensOut
	if tokensOut == 0 {
		tokensOut = output.OutputTokens
	}

	cost := output.Cost
	if cost == 0 {
		cost = output.CostUSD
	}

	return &Result{
		Output:    output.Result,
		TokensIn:  tokensIn,
		TokensOut: tokensOut,
		Cost:      cost,
		SessionID: output.SessionID,
	}, nil
}

// BinaryPath returns the path to the claude binary.
func (g *Generator) BinaryPath() string {
	return g.binaryPath
}

// DefaultModel returns the default model.
func (g *Generator) DefaultModel() string {
	return g.model
}

// DefaultTimeout returns the default timeout.
func (g *Generator) DefaultTimeout() time.Duration {
	return g.timeout
}

// DefaultMaxTurns returns the default max turns.
func (g *Generator) DefaultMaxTurns() int {
	return g.maxTurns
}
