package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"
)

// DefaultWorkers is the default size of the executor's worker pool.
const DefaultWorkers = 4

// Executor walks a workflow graph: it dispatches ready frontier nodes to a
// bounded worker pool, wraps each invocation with the node's retry policy,
// merges returned patches into the canonical state, routes on outcomes,
// and persists a checkpoint after every committed node.
//
// An Executor is safe for concurrent use; each run keeps its own state and
// shares nothing with other runs.
type Executor struct {
	reg     *Registry
	store   CheckpointStore
	workers int
	logger  *slog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithStore sets the checkpoint store. Without a store the run is not
// resumable; Resume requires one.
func WithStore(store CheckpointStore) Option {
	return func(e *Executor) { e.store = store }
}

// WithWorkers bounds the number of concurrently executing nodes.
func WithWorkers(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithLogger sets the structured logger for engine events.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExecutor creates an executor resolving capabilities through reg.
func NewExecutor(reg *Registry, opts ...Option) *Executor {
	e := &Executor{
		reg:     reg,
		workers: DefaultWorkers,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run validates the graph and executes it from its entry set with the
// given initial state. Node failures are folded into the Result's status
// and log; a non-nil error means the engine itself could not proceed
// (validation, checkpoint persistence, cancellation).
func (e *Executor) Run(ctx context.Context, g *Graph, initial State, runID string) (*Result, error) {
	if err := g.Validate(e.reg); err != nil {
		return nil, err
	}
	c := e.newCoord(ctx, g, runID)
	c.state = initial.Clone()
	return c.loop()
}

// Resume continues a run from its latest checkpoint. Completed nodes are
// never re-invoked: their recorded patches and routing are replayed, and
// only nodes without a committed outcome are dispatched. Mid-fan-out
// crashes re-dispatch exactly the siblings still missing an outcome.
func (e *Executor) Resume(ctx context.Context, g *Graph, runID string) (*Result, error) {
	if e.store == nil {
		return nil, ErrStoreRequired
	}
	if err := g.Validate(e.reg); err != nil {
		return nil, err
	}
	cp, err := e.store.Latest(runID)
	if err != nil {
		return nil, err
	}
	if cp.Graph != g.Name() {
		return nil, fmt.Errorf("run %s was checkpointed for graph %q, not %q", runID, cp.Graph, g.Name())
	}

	c := e.newCoord(ctx, g, runID)
	c.state = cp.State.Clone()
	c.seq = cp.Seq
	for _, rec := range cp.Nodes {
		c.replay(rec)
	}
	return c.loop()
}

type edgeStatus int

const (
	edgePending edgeStatus = iota
	edgeFired
	edgeDead
)

type nodeResult struct {
	nodeID string
	out    Outcome
}

// coord holds the bookkeeping for one run. All fields are owned by the
// coordinator goroutine; workers communicate only through the results
// channel, so the canonical state is never mutated concurrently.
type coord struct {
	ex    *Executor
	g     *Graph
	runID string

	ctx    context.Context
	parent context.Context
	cancel context.CancelFunc

	state     State
	seq       int64
	edgeState []edgeStatus
	records   []NodeRecord
	done      map[string]bool
	dead      map[string]bool
	running   map[string]bool

	slots chan struct{}
	out   chan nodeResult

	aborted   bool  // fatal with no fallback: discard late sibling outcomes
	recovered bool  // a fatal was routed through a fallback edge
	engineErr error // checkpoint or routing failure
}

func (e *Executor) newCoord(parent context.Context, g *Graph, runID string) *coord {
	ctx, cancel := context.WithCancel(parent)
	return &coord{
		ex:        e,
		g:         g,
		runID:     runID,
		ctx:       ctx,
		parent:    parent,
		cancel:    cancel,
		edgeState: make([]edgeStatus, len(g.edges)),
		done:      make(map[string]bool),
		dead:      make(map[string]bool),
		running:   make(map[string]bool),
		slots:     make(chan struct{}, e.workers),
		out:       make(chan nodeResult),
	}
}

// replay folds a checkpointed node record back into the bookkeeping
// without re-invoking the node. Routing decisions come from the record,
// not from re-evaluating predicates.
func (c *coord) replay(rec NodeRecord) {
	c.records = append(c.records, rec)
	c.done[rec.NodeID] = true
	if rec.Outcome.Class == FatalFailure && len(rec.Next) > 0 {
		c.recovered = true
	}
	fired, deadIdx := resolveEdges(c.g, rec.NodeID, rec.Next)
	for _, i := range fired {
		c.edgeState[i] = edgeFired
	}
	for _, i := range deadIdx {
		c.edgeState[i] = edgeDead
	}
	c.propagateDead()
}

// loop is the coordinator: dispatch the ready frontier, block for the next
// outcome, commit it, repeat until the frontier drains or the run aborts.
func (c *coord) loop() (*Result, error) {
	defer c.cancel()

	log := c.ex.logger.With("run_id", c.runID, "graph", c.g.Name())
	log.Info("run started", "entries", c.g.Entries(), "resumed_nodes", len(c.records))

	// A checkpointed terminal fatal stays terminal on resume.
	for _, rec := range c.records {
		if rec.Outcome.Class == FatalFailure && len(rec.Next) == 0 {
			log.Info("run already failed at checkpoint", "node_id", rec.NodeID)
			return c.result(Failed), nil
		}
	}

	c.dispatchReady()

	for len(c.running) > 0 {
		res := <-c.out
		delete(c.running, res.nodeID)

		if c.parent.Err() != nil && !c.aborted {
			// External cancellation: stop committing, drain workers.
			c.aborted = true
			c.cancel()
		}

		if c.aborted {
			// First fatal wins: outcomes arriving after the abort are
			// discarded, not committed.
			log.Debug("discarding outcome after abort", "node_id", res.nodeID)
			continue
		}

		c.commit(res, log)
		if c.aborted || c.engineErr != nil {
			c.cancel()
			continue
		}
		c.dispatchReady()
	}

	if c.engineErr != nil {
		return nil, c.engineErr
	}
	if err := context.Cause(c.parent); err != nil {
		log.Info("run cancelled", "cause", err)
		return c.result(Failed), fmt.Errorf("%w: %w", ErrRunCancelled, err)
	}

	status := Succeeded
	switch {
	case c.aborted:
		status = Failed
	case c.recovered:
		status = PartiallySucceeded
	}
	res := c.result(status)
	log.Info("run finished", "status", status, "nodes", len(res.Log))
	return res, nil
}

// commit merges the node's patch, records its outcome, routes, and saves a
// checkpoint. Runs on the coordinator goroutine only.
func (c *coord) commit(res nodeResult, log *slog.Logger) {
	node, _ := c.g.Node(res.nodeID)
	out := res.out

	if out.OK() {
		if err := c.checkWriteSet(node, out.Patch); err != nil {
			out = Fatal(err)
			out.Attempts = res.out.Attempts
		} else {
			c.state.merge(out.Patch)
		}
	}

	view := c.state.view()
	next, routeErr := route(c.g, node, view, out)
	if routeErr != nil {
		c.engineErr = routeErr
		return
	}

	rec := NodeRecord{NodeID: node.ID, Outcome: out, Next: next, Finished: time.Now()}
	c.records = append(c.records, rec)
	c.done[node.ID] = true

	log.Info("node committed",
		"node_id", node.ID,
		"class", out.Class,
		"attempts", out.Attempts,
		"duration", out.Duration,
		"next", next,
	)

	fired, deadIdx := resolveEdges(c.g, node.ID, next)
	for _, i := range fired {
		c.edgeState[i] = edgeFired
	}
	for _, i := range deadIdx {
		c.edgeState[i] = edgeDead
	}
	c.propagateDead()

	switch {
	case out.Class == FatalFailure && len(next) == 0:
		log.Error("node failed fatally with no fallback", "node_id", node.ID, "cause", out.Cause)
		c.aborted = true
	case out.Class == FatalFailure:
		log.Warn("node failed fatally, taking fallback", "node_id", node.ID, "next", next)
		c.recovered = true
	}

	if err := c.saveCheckpoint(); err != nil {
		c.engineErr = fmt.Errorf("save checkpoint for run %s: %w", c.runID, err)
	}
}

// checkWriteSet rejects patches that stray outside the node's declared
// fields. Validation already guarantees declared sets are disjoint; this
// guards against an executor writing fields it never declared.
func (c *coord) checkWriteSet(node *Node, patch Patch) error {
	if len(patch) == 0 {
		return nil
	}
	declared := make(map[string]bool, len(node.WriteSet))
	for _, f := range node.WriteSet {
		declared[f] = true
	}
	for k := range patch {
		if !declared[k] {
			return &NodeError{NodeID: node.ID, Err: fmt.Errorf("patch writes undeclared field %q", k)}
		}
	}
	return nil
}

func (c *coord) saveCheckpoint() error {
	if c.ex.store == nil {
		return nil
	}
	c.seq++
	recs := make([]NodeRecord, len(c.records))
	copy(recs, c.records)
	return c.ex.store.Save(&Checkpoint{
		RunID:     c.runID,
		Graph:     c.g.Name(),
		Seq:       c.seq,
		State:     c.state.Clone(),
		Nodes:     recs,
		CreatedAt: time.Now(),
	})
}

// dispatchReady starts every node whose dependencies are satisfied: entry
// nodes with nothing inbound, and nodes with no pending incoming edges and
// at least one fired edge.
func (c *coord) dispatchReady() {
	for _, id := range c.g.Nodes() {
		if c.done[id] || c.dead[id] || c.running[id] {
			continue
		}
		if !c.ready(id) {
			continue
		}
		c.dispatch(id)
	}
}

func (c *coord) ready(id string) bool {
	in := c.g.edgesTo(id)
	if len(in) == 0 {
		return c.isEntry(id)
	}
	fired := false
	for _, i := range in {
		switch c.edgeState[i] {
		case edgePending:
			return false
		case edgeFired:
			fired = true
		}
	}
	return fired
}

func (c *coord) isEntry(id string) bool {
	for _, e := range c.g.Entries() {
		if e == id {
			return true
		}
	}
	return false
}

// propagateDead marks nodes whose every incoming edge is dead, and kills
// their outgoing edges in turn, so downstream joins are released instead
// of waiting forever on an untaken branch.
func (c *coord) propagateDead() {
	for changed := true; changed; {
		changed = false
		for _, id := range c.g.Nodes() {
			if c.done[id] || c.dead[id] {
				continue
			}
			in := c.g.edgesTo(id)
			if len(in) == 0 {
				continue
			}
			allDead := true
			for _, i := range in {
				if c.edgeState[i] != edgeDead {
					allDead = false
					break
				}
			}
			if !allDead {
				continue
			}
			c.dead[id] = true
			for _, i := range c.g.edgesFrom(id) {
				c.edgeState[i] = edgeDead
			}
			changed = true
		}
	}
}

// dispatch captures the node's input view on the coordinator goroutine —
// retries reuse this exact view, never a failed attempt's patch — and
// hands the invocation to a worker.
func (c *coord) dispatch(id string) {
	node, _ := c.g.Node(id)
	view := c.state.view()
	c.running[id] = true
	go func() {
		c.out <- nodeResult{nodeID: id, out: c.invoke(node, view)}
	}()
}

// invoke runs the retry-controller loop for one node. A worker slot is
// held only during an attempt, not across backoff waits, so a sleeping
// retry never starves other frontier nodes.
func (c *coord) invoke(node *Node, view View) Outcome {
	policy := node.Retry
	if policy == nil {
		policy = NoRetry()
	}

	log := c.ex.logger.With("run_id", c.runID, "node_id", node.ID)

	var out Outcome
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := policy.backoff(attempt)
			log.Debug("backing off before retry", "attempt", attempt, "delay", delay)
			if !sleep(c.ctx, delay) {
				return c.cancelledOutcome(attempt - 1)
			}
		}

		select {
		case c.slots <- struct{}{}:
		case <-c.ctx.Done():
			return c.cancelledOutcome(attempt - 1)
		}
		out = c.attempt(node, view, attempt, policy)
		<-c.slots

		out.Attempts = attempt
		if !policy.retryable(out) {
			break
		}
		log.Debug("attempt failed", "attempt", attempt, "class", out.Class, "cause", out.Cause)
	}

	// Exhausted retries (or a policy-fatal resource failure) become a
	// fatal outcome retaining the last cause.
	if out.Class != Success && out.Class != FatalFailure {
		out = Outcome{
			Class:    FatalFailure,
			Message:  fmt.Sprintf("gave up after %d attempts", out.Attempts),
			Cause:    out.Cause,
			Err:      out.Err,
			Attempts: out.Attempts,
			Duration: out.Duration,
		}
	}
	return out
}

// attempt performs a single invocation with timeout and panic recovery.
func (c *coord) attempt(node *Node, view View, attempt int, policy *RetryPolicy) (out Outcome) {
	ctx := c.ctx
	cancel := context.CancelFunc(func() {})
	if node.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, node.Timeout)
	}
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			perr := &PanicError{NodeID: node.ID, Value: r, Stack: debug.Stack()}
			c.ex.logger.Error("step panicked", "run_id", c.runID, "node_id", node.ID, "panic", r)
			out = Fatal(perr)
			out.Duration = time.Since(start)
		}
	}()

	step, err := c.ex.reg.Resolve(node.Capability)
	if err != nil {
		return Fatal(&NodeError{NodeID: node.ID, Err: err})
	}

	out = step.Execute(ctx, view)
	out.Duration = time.Since(start)

	// A blown wall-clock limit surfaces like any executor failure,
	// transient or fatal per the node's policy.
	if !out.OK() && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		timeoutErr := fmt.Errorf("node %s exceeded %v limit (attempt %d)", node.ID, node.Timeout, attempt)
		if policy.FatalOnTimeout {
			timed := Fatal(timeoutErr)
			timed.Duration = out.Duration
			return timed
		}
		timed := Transient(timeoutErr)
		timed.Duration = out.Duration
		return timed
	}
	return out
}

func (c *coord) cancelledOutcome(attempts int) Outcome {
	err := context.Cause(c.ctx)
	if err == nil {
		err = c.ctx.Err()
	}
	out := Fatal(fmt.Errorf("dispatch cancelled: %w", err))
	out.Attempts = attempts
	return out
}

func (c *coord) result(status Status) *Result {
	recs := make([]NodeRecord, len(c.records))
	copy(recs, c.records)
	return &Result{
		RunID:  c.runID,
		Graph:  c.g.Name(),
		Status: status,
		State:  c.state.Clone(),
		Log:    recs,
	}
}

// Frontier returns the node ids currently eligible for dispatch given the
// committed records in a checkpoint. Used by the run-control status
// surface; it never mutates anything.
func Frontier(g *Graph, cp *Checkpoint) []string {
	c := &coord{
		g:         g,
		edgeState: make([]edgeStatus, len(g.edges)),
		done:      make(map[string]bool),
		dead:      make(map[string]bool),
		running:   make(map[string]bool),
	}
	if cp != nil {
		for _, rec := range cp.Nodes {
			c.replay(rec)
		}
	}
	var frontier []string
	for _, id := range g.Nodes() {
		if c.done[id] || c.dead[id] {
			continue
		}
		if c.ready(id) {
			frontier = append(frontier, id)
		}
	}
	return frontier
}
