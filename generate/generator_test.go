package generate

import (
	"strings"
	"testing"
	"time"
)

func TestNew_NotFound(t *testing.T) {
	_, err := New(Config{
		BinaryPath: "/nonexistent/binary",
	})
	if err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestBuildArgs(t *testing.T) {
	gen := &Generator{
		binaryPath: "claude",
		timeout:    5 * time.Minute,
		maxTurns:   10,
	}

	tests := []struct {
		name string
		cfg  runConfig
		want []string
	}{
		{
			name: "minimal",
			cfg:  runConfig{},
			want: []string{"--print", "--output-format", "json", "-p", "prompt"},
		},
		{
			name: "with model",
			cfg:  runConfig{model: "claude-3-haiku"},
			want: []string{"--model", "claude-3-haiku"},
		},
		{
			name: "with system prompt",
			cfg:  runConfig{systemPrompt: "be terse"},
			want: []string{"--system-prompt", "be terse"},
		},
		{
			name: "with max turns",
			cfg:  runConfig{maxTurns: 5},
			want: []string{"--max-turns", "5"},
		},
		{
			name: "with session",
			cfg:  runConfig{sessionID: "sess-1"},
			want: []string{"--resume", "sess-1"},
		},
		{
			name: "with tools",
			cfg:  runConfig{allowedTools: []string{"Read"}, disallowedTools: []string{"Bash"}},
			want: []string{"--allowedTools", "Read", "--disallowedTools", "Bash"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := gen.buildArgs(&tt.cfg, "prompt")
			joined := strings.Join(args, " ")
			wantJoined := strings.Join(tt.want, " ")
			if !strings.Contains(joined, wantJoined) {
				t.Errorf("args = %v, want to contain %v", args, tt.want)
			}
		})
	}
}

func TestParseOutput(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantOutput string
		wantIn     int
		wantOut    int
		wantCost   float64
		wantErr    bool
	}{
		{
			name:       "standard fields",
			input:      `{"result":"done","tokens_in":100,"tokens_out":50,"cost":0.05,"session_id":"s1"}`,
			wantOutput: "done",
			wantIn:     100,
			wantOut:    50,
			wantCost:   0.05,
		},
		{
			name:       "alternate field names",
			input:      `{"result":"ok","input_tokens":10,"output_tokens":5,"cost_usd":0.01}`,
			wantOutput: "ok",
			wantIn:     10,
			wantOut:    5,
			wantCost:   0.01,
		},
		{
			name:       "json embedded in noise",
			input:      "some log line\n{\"result\":\"embedded\"}\ntrailing",
			wantOutput: "embedded",
		},
		{
			name:    "no json",
			input:   "plain text output",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseOutput([]byte(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseOutput: %v", err)
			}
			if result.Output != tt.wantOutput {
				t.Errorf("Output = %q, want %q", result.Output, tt.wantOutput)
			}
			if result.TokensIn != tt.wantIn {
				t.Errorf("TokensIn = %d, want %d", result.TokensIn, tt.wantIn)
			}
			if result.TokensOut != tt.wantOut {
				t.Errorf("TokensOut = %d, want %d", result.TokensOut, tt.wantOut)
			}
			if result.Cost != tt.wantCost {
				t.Errorf("Cost = %v, want %v", result.Cost, tt.wantCost)
			}
		})
	}
}

func TestRunOptions(t *testing.T) {
	cfg := &runConfig{}

	opts := []RunOption{
		WithSystemPrompt("system"),
		WithContext("*.go"),
		WithWorkDir("/tmp"),
		WithMaxTurns(3),
		WithTimeout(time.Minute),
		WithModel("claude-3-haiku"),
		WithAllowedTools("Read", "Write"),
		WithSession("sess-42"),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.systemPrompt != "system" {
		t.Errorf("systemPrompt = %q", cfg.systemPrompt)
	}
	if len(cfg.contextFiles) != 1 || cfg.contextFiles[0] != "*.go" {
		t.Errorf("contextFiles = %v", cfg.contextFiles)
	}
	if cfg.workDir != "/tmp" {
		t.Errorf("workDir = %q", cfg.workDir)
	}
	if cfg.maxTurns != 3 {
		t.Errorf("maxTurns = %d", cfg.maxTurns)
	}
	if cfg.timeout != time.Minute {
		t.Errorf("timeout = %v", cfg.timeout)
	}
	if cfg.model != "claude-3-haiku" {
		t.Errorf("model = %q", cfg.model)
	}
	if len(cfg.allowedTools) != 2 {
		t.Errorf("allowedTools = %v", cfg.allowedTools)
	}
	if cfg.sessionID != "sess-42" {
		t.Errorf("sessionID = %q", cfg.sessionID)
	}
}
