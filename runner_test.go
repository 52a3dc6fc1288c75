package orion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/randalmurphal/orion/artifact"
	"github.com/randalmurphal/orion/checkpoint"
	"github.com/randalmurphal/orion/flow"
	"github.com/randalmurphal/orion/notify"
	"github.com/randalmurphal/orion/runlog"
	"github.com/randalmurphal/orion/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func singleNodeGraph() *flow.Graph {
	g := flow.NewGraph("demo")
	g.AddNode(flow.Node{ID: "work", Capability: "work", WriteSet: []string{"done"}})
	g.SetEntry("work")
	return g
}

func TestNewRunID(t *testing.T) {
	id := NewRunID("task-to-pr")

	prefix := time.Now().Format("2006-01-02") + "-task-to-pr-"
	if !strings.HasPrefix(id, prefix) {
		t.Errorf("run id = %q, want prefix %q", id, prefix)
	}
	if got := len(id) - len(prefix); got != 8 {
		t.Errorf("random suffix length = %d, want 8", got)
	}

	if NewRunID("task-to-pr") == id {
		t.Error("consecutive run ids should differ")
	}
}

func TestRunner_Run(t *testing.T) {
	var calls atomic.Int32
	reg := flow.NewRegistry()
	reg.RegisterFunc("work", func(_ context.Context, view flow.View) flow.Outcome {
		calls.Add(1)
		if view.GetString(FieldRunID) == "" {
			return flow.Fatal(errors.New("run_id not seeded"))
		}
		return flow.Succeed(flow.Patch{"done": true})
	})

	r := NewRunner(reg,
		WithCheckpoints(checkpoint.NewMemoryStore()),
		WithLogger(quietLogger()),
	)

	result, err := r.Run(context.Background(), singleNodeGraph(), flow.State{FieldTask: "t"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Status != flow.Succeeded {
		t.Errorf("status = %v, want succeeded", result.Status)
	}
	if calls.Load() != 1 {
		t.Errorf("step invoked %d times, want 1", calls.Load())
	}
	if result.State[FieldRunID] != result.RunID {
		t.Errorf("state run_id = %v, want %v", result.State[FieldRunID], result.RunID)
	}
	if result.State[FieldGraph] != "demo" {
		t.Errorf("state graph = %v, want demo", result.State[FieldGraph])
	}
	if result.State["done"] != true {
		t.Error("patch not merged into final state")
	}
}

func TestRunner_StartValidates(t *testing.T) {
	reg := flow.NewRegistry() // "work" not registered
	r := NewRunner(reg, WithLogger(quietLogger()))

	if _, err := r.Start(context.Background(), singleNodeGraph(), nil); !flow.IsValidation(err) {
		t.Errorf("Start() error = %v, want validation error", err)
	}
}

func TestRunner_StatusAndWait(t *testing.T) {
	reg := flow.NewRegistry()
	release := make(chan struct{})
	reg.RegisterFunc("work", func(_ context.Context, _ flow.View) flow.Outcome {
		<-release
		return flow.Succeed(flow.Patch{"done": true})
	})

	r := NewRunner(reg,
		WithCheckpoints(checkpoint.NewMemoryStore()),
		WithLogger(quietLogger()),
	)
	runID, err := r.Start(context.Background(), singleNodeGraph(), nil)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	st, err := r.Status(runID)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if !st.Active {
		t.Error("run should be active before release")
	}

	close(release)
	result, err := r.Wait(runID)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if result.Status != flow.Succeeded {
		t.Errorf("status = %v, want succeeded", result.Status)
	}

	st, err = r.Status(runID)
	if err != nil {
		t.Fatalf("Status() after completion error = %v", err)
	}
	if st.Active {
		t.Error("run should not be active after Wait")
	}
	if st.Status != flow.Succeeded {
		t.Errorf("terminal status = %v, want succeeded", st.Status)
	}
	if len(st.Completed) != 1 || st.Completed[0] != "work" {
		t.Errorf("completed = %v, want [work]", st.Completed)
	}
	if len(st.Frontier) != 0 {
		t.Errorf("frontier = %v, want empty", st.Frontier)
	}
}

func TestRunner_Cancel(t *testing.T) {
	reg := flow.NewRegistry()
	started := make(chan struct{})
	reg.RegisterFunc("work", func(ctx context.Context, _ flow.View) flow.Outcome {
		close(started)
		<-ctx.Done()
		return flow.Transient(ctx.Err())
	})

	r := NewRunner(reg, WithLogger(quietLogger()))
	runID, err := r.Start(context.Background(), singleNodeGraph(), nil)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	<-started

	if err := r.Cancel(runID); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if _, err := r.Wait(runID); !errors.Is(err, flow.ErrRunCancelled) {
		t.Errorf("Wait() error = %v, want ErrRunCancelled", err)
	}
}

func TestRunner_Resume(t *testing.T) {
	var calls atomic.Int32
	reg := flow.NewRegistry()
	reg.RegisterFunc("work", func(_ context.Context, _ flow.View) flow.Outcome {
		calls.Add(1)
		return flow.Succeed(flow.Patch{"done": true})
	})

	store := checkpoint.NewMemoryStore()
	r := NewRunner(reg, WithCheckpoints(store), WithLogger(quietLogger()))
	g := singleNodeGraph()

	result, err := r.Run(context.Background(), g, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if err := r.Resume(context.Background(), g, result.RunID); err != nil {
		t.Fatalf("Resume() error = %v", err)
	}
	resumed, err := r.Wait(result.RunID)
	if err != nil {
		t.Fatalf("Wait() after resume error = %v", err)
	}
	if resumed.Status != flow.Succeeded {
		t.Errorf("resumed status = %v, want succeeded", resumed.Status)
	}
	if calls.Load() != 1 {
		t.Errorf("step invoked %d times, want 1 (completed nodes replay)", calls.Load())
	}
}

func TestRunner_ResumeWhileActive(t *testing.T) {
	reg := flow.NewRegistry()
	started := make(chan struct{})
	release := make(chan struct{})
	reg.RegisterFunc("work", func(_ context.Context, _ flow.View) flow.Outcome {
		close(started)
		<-release
		return flow.Succeed(flow.Patch{"done": true})
	})

	store := checkpoint.NewMemoryStore()
	r := NewRunner(reg, WithCheckpoints(store), WithLogger(quietLogger()))
	g := singleNodeGraph()

	runID, err := r.Start(context.Background(), g, nil)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	<-started

	if err := r.Resume(context.Background(), g, runID); !errors.Is(err, ErrRunActive) {
		t.Errorf("Resume() of active run error = %v, want ErrRunActive", err)
	}

	close(release)
	if _, err := r.Wait(runID); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
}

func TestRunner_ResumeUnknownRunLeavesNoHandle(t *testing.T) {
	r := NewRunner(flow.NewRegistry(),
		WithCheckpoints(checkpoint.NewMemoryStore()),
		WithLogger(quietLogger()),
	)

	if err := r.Resume(context.Background(), singleNodeGraph(), "ghost"); !errors.Is(err, flow.ErrNoCheckpoint) {
		t.Fatalf("Resume() error = %v, want ErrNoCheckpoint", err)
	}
	// The failed resume must not leave a reserved handle behind.
	if _, err := r.Status("ghost"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Status() error = %v, want ErrRunNotFound", err)
	}
}

func TestRunner_ResumeRequiresStore(t *testing.T) {
	r := NewRunner(flow.NewRegistry(), WithLogger(quietLogger()))
	if err := r.Resume(context.Background(), singleNodeGraph(), "x"); !errors.Is(err, flow.ErrStoreRequired) {
		t.Errorf("Resume() error = %v, want ErrStoreRequired", err)
	}
}

func TestRunner_UnknownRun(t *testing.T) {
	r := NewRunner(flow.NewRegistry(), WithLogger(quietLogger()))

	if _, err := r.Wait("nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Wait() error = %v, want ErrRunNotFound", err)
	}
	if err := r.Cancel("nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Cancel() error = %v, want ErrRunNotFound", err)
	}
	if _, err := r.Status("nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Status() error = %v, want ErrRunNotFound", err)
	}
}

func TestRunner_RetriesTransient(t *testing.T) {
	reg := flow.NewRegistry()
	reg.RegisterFunc("work", testutil.FlakyStep(2, flow.Patch{"done": true}))

	g := flow.NewGraph("demo")
	g.AddNode(flow.Node{
		ID: "work", Capability: "work",
		WriteSet: []string{"done"},
		Retry:    &flow.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond},
	})
	g.SetEntry("work")

	r := NewRunner(reg, WithLogger(quietLogger()))
	result, err := r.Run(context.Background(), g, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Status != flow.Succeeded {
		t.Fatalf("status = %v, want succeeded after retries", result.Status)
	}
	if got := result.Log[0].Outcome.Attempts; got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestRunner_RetentionSweepAfterRun(t *testing.T) {
	baseDir := t.TempDir()

	// A run well past the delete threshold, as the journal would leave it.
	oldDir := filepath.Join(baseDir, "runs", "2026-01-15-stale-aaaa1111")
	if err := os.MkdirAll(oldDir, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	endedAt := time.Now().AddDate(0, 0, -60).Format(time.RFC3339)
	meta := fmt.Sprintf(`{"status":"succeeded","endedAt":%q}`, endedAt)
	if err := os.WriteFile(filepath.Join(oldDir, "meta.json"), []byte(meta), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	journal, err := runlog.NewFileStore(runlog.StoreConfig{BaseDir: baseDir})
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}

	reg := flow.NewRegistry()
	reg.RegisterFunc("work", func(_ context.Context, _ flow.View) flow.Outcome {
		return flow.Succeed(flow.Patch{"done": true})
	})

	r := NewRunner(reg,
		WithJournal(journal),
		WithRetention(artifact.NewRetention(baseDir, artifact.Policy{
			ArchiveAfterDays: 7,
			DeleteAfterDays:  30,
			ArchiveKeepDays:  90,
			KeepFailed:       true,
		})),
		WithLogger(quietLogger()),
	)
	result, err := r.Run(context.Background(), singleNodeGraph(), nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if _, err := os.Stat(oldDir); !os.IsNotExist(err) {
		t.Errorf("stale run dir still present after sweep, stat error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(baseDir, "runs", result.RunID)); err != nil {
		t.Errorf("fresh run dir should survive the sweep: %v", err)
	}
}

func TestRunner_JournalAndNotifications(t *testing.T) {
	reg := flow.NewRegistry()
	reg.RegisterFunc("work", func(_ context.Context, _ flow.View) flow.Outcome {
		return flow.Succeed(flow.Patch{"done": true})
	})

	journal, err := runlog.NewFileStore(runlog.StoreConfig{BaseDir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	rec := &recordingNotifier{}

	r := NewRunner(reg,
		WithJournal(journal),
		WithNotifier(rec),
		WithLogger(quietLogger()),
	)
	result, err := r.Run(context.Background(), singleNodeGraph(), nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	meta, err := journal.LoadMeta(result.RunID)
	if err != nil {
		t.Fatalf("LoadMeta() error = %v", err)
	}
	if meta.Status != runlog.RunStatusSucceeded {
		t.Errorf("journal status = %v, want succeeded", meta.Status)
	}
	if meta.EventCount != 1 {
		t.Errorf("journal events = %d, want 1", meta.EventCount)
	}

	if len(rec.events) != 2 {
		t.Fatalf("notifications = %d, want started+finished", len(rec.events))
	}
	if rec.events[0].Type != notify.EventRunStarted {
		t.Errorf("first event = %v, want run_started", rec.events[0].Type)
	}
	if rec.events[1].Type != notify.EventRunSucceeded {
		t.Errorf("second event = %v, want run_succeeded", rec.events[1].Type)
	}
}
