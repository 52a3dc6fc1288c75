package gitops

import (
	"strings"
	"testing"
)

func TestCommitMessageString(t *testing.T) {
	msg := NewCommitMessage(CommitTypeFeat, "add retry backoff").
		WithScope("flow").
		WithTaskRef("TASK-42")

	got := msg.String()

	if !strings.HasPrefix(got, "feat(flow): add retry backoff") {
		t.Errorf("subject line wrong: %q", got)
	}
	if !strings.Contains(got, "Refs: TASK-42") {
		t.Errorf("missing task ref: %q", got)
	}
	if !strings.Contains(got, "Generated-By: orion") {
		t.Errorf("missing generated-by footer: %q", got)
	}
}

func TestCommitMessageBreaking(t *testing.T) {
	msg := NewCommitMessage(CommitTypeRefactor, "rename state keys").WithBreaking()

	got := msg.String()
	if !strings.HasPrefix(got, "refactor!: rename state keys") {
		t.Errorf("subject line wrong: %q", got)
	}
	if !strings.Contains(got, "BREAKING CHANGE") {
		t.Errorf("missing breaking change note: %q", got)
	}
}

func TestCommitMessageWithoutGeneratedBy(t *testing.T) {
	msg := NewCommitMessage(CommitTypeFix, "handle nil view").WithoutGeneratedBy()

	if strings.Contains(msg.String(), "Generated-By") {
		t.Errorf("generated-by footer should be absent: %q", msg.String())
	}
}

func TestCommitMessageValidate(t *testing.T) {
	tests := []struct {
		name    string
		msg     CommitMessage
		wantErr bool
	}{
		{"valid", CommitMessage{Type: CommitTypeFeat, Subject: "ok"}, false},
		{"missing type", CommitMessage{Subject: "ok"}, true},
		{"missing subject", CommitMessage{Type: CommitTypeFix}, true},
		{"subject too long", CommitMessage{Type: CommitTypeFix, Subject: strings.Repeat("x", 101)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWrapText(t *testing.T) {
	text := strings.Repeat("word ", 30)
	wrapped := wrapText(strings.TrimSpace(text), 20)

	for i, line := range strings.Split(wrapped, "\n") {
		if len(line) > 20 {
			t.Errorf("line %d too long (%d): %q", i, len(line), line)
		}
	}
}
