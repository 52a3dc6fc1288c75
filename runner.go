package orion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/randalmurphal/orion/artifact"
	"github.com/randalmurphal/orion/flow"
	"github.com/randalmurphal/orion/notify"
	"github.com/randalmurphal/orion/runlog"
)

const runIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewRunID generates a run identifier: date prefix for easy directory
// scanning, graph name for readability, random tail for uniqueness.
func NewRunID(graph string) string {
	return fmt.Sprintf("%s-%s-%s",
		time.Now().Format("2006-01-02"),
		graph,
		gonanoid.MustGenerate(runIDAlphabet, 8))
}

// Runner drives workflow runs: it assigns run ids, executes graphs
// asynchronously, journals outcomes, emits run-level notifications, and
// answers status queries from the latest checkpoint. Concurrent runs are
// independent; a Runner is safe for concurrent use.
type Runner struct {
	reg       *flow.Registry
	exec      *flow.Executor
	store     flow.CheckpointStore
	journal   runlog.Store
	notifier  notify.Notifier
	retention *artifact.Retention
	logger    *slog.Logger
	workers   int

	mu   sync.Mutex
	runs map[string]*run
}

type run struct {
	graph  *flow.Graph
	cancel context.CancelFunc
	done   chan struct{}

	// Set before done is closed, read-only after.
	result *flow.Result
	err    error
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithCheckpoints sets the checkpoint store. Required for Resume and for
// Status of runs this Runner did not start.
func WithCheckpoints(store flow.CheckpointStore) RunnerOption {
	return func(r *Runner) { r.store = store }
}

// WithJournal records every run in the given journal store.
func WithJournal(store runlog.Store) RunnerOption {
	return func(r *Runner) { r.journal = store }
}

// WithNotifier emits run started/finished/canceled events.
func WithNotifier(n notify.Notifier) RunnerOption {
	return func(r *Runner) { r.notifier = n }
}

// WithRetention sweeps old run directories after each run reaches a
// terminal state, applying the retention policy to the journal's base
// directory.
func WithRetention(ret *artifact.Retention) RunnerOption {
	return func(r *Runner) { r.retention = ret }
}

// WithWorkers bounds concurrent node execution per run.
func WithWorkers(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner creates a runner resolving step capabilities through reg.
func NewRunner(reg *flow.Registry, opts ...RunnerOption) *Runner {
	r := &Runner{
		reg:      reg,
		notifier: notify.NopNotifier{},
		logger:   slog.Default(),
		workers:  flow.DefaultWorkers,
		runs:     make(map[string]*run),
	}
	for _, opt := range opts {
		opt(r)
	}
	execOpts := []flow.Option{
		flow.WithWorkers(r.workers),
		flow.WithLogger(r.logger),
	}
	if r.store != nil {
		execOpts = append(execOpts, flow.WithStore(r.store))
	}
	r.exec = flow.NewExecutor(reg, execOpts...)
	return r
}

// Start validates the graph, assigns a run id, and executes the run in
// the background. The run id and graph name are seeded into the initial
// state so steps can reference them.
func (r *Runner) Start(ctx context.Context, g *flow.Graph, initial flow.State) (string, error) {
	if err := g.Validate(r.reg); err != nil {
		return "", err
	}
	runID := NewRunID(g.Name())

	state := initial.Clone()
	if state == nil {
		state = flow.State{}
	}
	state[FieldRunID] = runID
	state[FieldGraph] = g.Name()

	if r.journal != nil {
		if err := r.journal.StartRun(runID, runlog.RunMetadata{Graph: g.Name(), Input: state}); err != nil {
			r.logger.Warn("journal start failed", "run_id", runID, "error", err)
		}
	}
	r.notify(ctx, notify.RunStarted(runID, g.Name()))

	r.begin(ctx, g, runID, func(runCtx context.Context) (*flow.Result, error) {
		return r.exec.Run(runCtx, g, state, runID)
	})
	return runID, nil
}

// Run executes the graph synchronously and returns its result.
func (r *Runner) Run(ctx context.Context, g *flow.Graph, initial flow.State) (*flow.Result, error) {
	runID, err := r.Start(ctx, g, initial)
	if err != nil {
		return nil, err
	}
	return r.Wait(runID)
}

// Resume continues a checkpointed run in the background. The graph must
// be the one the run was started with; the checkpoint guards the name.
func (r *Runner) Resume(ctx context.Context, g *flow.Graph, runID string) error {
	if r.store == nil {
		return flow.ErrStoreRequired
	}

	// Reserve the handle under one lock so two concurrent resumes of the
	// same run cannot both pass the active check.
	runCtx, cancel := context.WithCancel(ctx)
	h := &run{graph: g, cancel: cancel, done: make(chan struct{})}
	r.mu.Lock()
	if prev, ok := r.runs[runID]; ok {
		select {
		case <-prev.done:
		default:
			r.mu.Unlock()
			cancel()
			return fmt.Errorf("resume %s: %w", runID, ErrRunActive)
		}
	}
	r.runs[runID] = h
	r.mu.Unlock()

	cp, err := r.store.Latest(runID)
	if err != nil {
		r.release(runID, h)
		cancel()
		return err
	}

	if r.journal != nil {
		if err := r.journal.StartRun(runID, runlog.RunMetadata{Graph: g.Name()}); err != nil {
			r.logger.Warn("journal restart failed", "run_id", runID, "error", err)
		}
	}
	r.notify(ctx, notify.RunResumed(runID, g.Name(), cp.Seq))

	r.launch(runCtx, runID, h, func(runCtx context.Context) (*flow.Result, error) {
		return r.exec.Resume(runCtx, g, runID)
	})
	return nil
}

// begin registers the run handle and launches the driver goroutine.
func (r *Runner) begin(ctx context.Context, g *flow.Graph, runID string, drive func(context.Context) (*flow.Result, error)) {
	runCtx, cancel := context.WithCancel(ctx)
	h := &run{graph: g, cancel: cancel, done: make(chan struct{})}

	r.mu.Lock()
	r.runs[runID] = h
	r.mu.Unlock()

	r.launch(runCtx, runID, h, drive)
}

// launch starts the driver goroutine for an already-registered handle.
func (r *Runner) launch(runCtx context.Context, runID string, h *run, drive func(context.Context) (*flow.Result, error)) {
	go func() {
		defer h.cancel()
		result, err := drive(runCtx)
		h.result, h.err = result, err
		r.finish(runID, h.graph.Name(), result, err)
		close(h.done)
	}()
}

// release drops a reserved handle for a run that never started.
func (r *Runner) release(runID string, h *run) {
	r.mu.Lock()
	if r.runs[runID] == h {
		delete(r.runs, runID)
	}
	r.mu.Unlock()
}

// finish journals and announces a completed run.
func (r *Runner) finish(runID, graph string, result *flow.Result, err error) {
	ctx := context.Background()

	switch {
	case result != nil && err == nil:
		r.endJournal(runID, result, runlog.StatusFromFlow(result.Status))
		r.notify(ctx, notify.RunFinished(result))
	case errors.Is(err, flow.ErrRunCancelled):
		r.endJournal(runID, result, runlog.RunStatusCanceled)
		r.notify(ctx, notify.RunCanceled(runID, graph))
	default:
		r.endJournal(runID, result, runlog.RunStatusFailed)
		r.logger.Error("run failed", "run_id", runID, "graph", graph, "error", err)
	}

	r.sweep()
}

// sweep applies the retention policy once a run has settled.
func (r *Runner) sweep() {
	if r.retention == nil {
		return
	}
	report, err := r.retention.Sweep()
	if err != nil {
		r.logger.Warn("retention sweep failed", "error", err)
		return
	}
	for _, msg := range report.Errors {
		r.logger.Warn("retention sweep", "error", msg)
	}
	if n := len(report.Archived) + len(report.Deleted); n > 0 {
		r.logger.Info("retention sweep",
			"archived", len(report.Archived),
			"deleted", len(report.Deleted),
			"freed_bytes", report.Freed)
	}
}

func (r *Runner) endJournal(runID string, result *flow.Result, status runlog.RunStatus) {
	if r.journal == nil {
		return
	}
	if result != nil {
		for _, rec := range result.Log {
			if err := r.journal.RecordEvent(runID, runlog.EventFromNode(rec)); err != nil {
				r.logger.Warn("journal event failed", "run_id", runID, "error", err)
				break
			}
		}
	}
	if err := r.journal.EndRun(runID, status); err != nil {
		r.logger.Warn("journal end failed", "run_id", runID, "error", err)
	}
}

func (r *Runner) notify(ctx context.Context, event notify.Event) {
	if err := r.notifier.Notify(ctx, event); err != nil {
		r.logger.Warn("notification failed", "run_id", event.RunID, "type", event.Type, "error", err)
	}
}

// Wait blocks until the run completes and returns its result.
func (r *Runner) Wait(runID string) (*flow.Result, error) {
	r.mu.Lock()
	h, ok := r.runs[runID]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("wait %s: %w", runID, ErrRunNotFound)
	}
	<-h.done
	return h.result, h.err
}

// Cancel requests cancellation of an active run. Waiting for the result
// afterward reports the partial run as failed with ErrRunCancelled.
func (r *Runner) Cancel(runID string) error {
	r.mu.Lock()
	h, ok := r.runs[runID]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("cancel %s: %w", runID, ErrRunNotFound)
	}
	h.cancel()
	return nil
}

// RunStatus describes a run's progress: whether it is still executing in
// this process, and what the latest checkpoint says about it.
type RunStatus struct {
	RunID     string
	Graph     string
	Active    bool
	Status    flow.Status // terminal status; empty while active
	Completed []string    // nodes with a committed outcome
	Frontier  []string    // nodes ready to execute next, when known
	Seq       int64       // latest checkpoint sequence
	UpdatedAt time.Time   // latest checkpoint time
}

// Status reports run progress. For runs started by this Runner the
// frontier comes from the in-memory graph; for foreign runs only the
// checkpoint contents are available.
func (r *Runner) Status(runID string) (*RunStatus, error) {
	r.mu.Lock()
	h, ok := r.runs[runID]
	r.mu.Unlock()

	st := &RunStatus{RunID: runID}
	if ok {
		st.Graph = h.graph.Name()
		select {
		case <-h.done:
			if h.result != nil {
				st.Status = h.result.Status
			}
		default:
			st.Active = true
		}
	}

	if r.store != nil {
		cp, err := r.store.Latest(runID)
		switch {
		case err == nil:
			st.Graph = cp.Graph
			st.Seq = cp.Seq
			st.UpdatedAt = cp.CreatedAt
			st.Completed = cp.Completed()
			if ok {
				st.Frontier = flow.Frontier(h.graph, cp)
			}
		case !errors.Is(err, flow.ErrNoCheckpoint):
			return nil, err
		}
	}

	if !ok && st.Seq == 0 {
		return nil, fmt.Errorf("status %s: %w", runID, ErrRunNotFound)
	}
	return st, nil
}
