package runlog

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/randalmurphal/orion/flow"
)

// Journal errors
var (
	ErrRunNotFound      = errors.New("run not found")
	ErrRunAlreadyExists = errors.New("run already exists")
	ErrRunNotStarted    = errors.New("run not started")
	ErrRunAlreadyEnded  = errors.New("run already ended")
)

// RunStatus indicates the status of a run
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusPartial   RunStatus = "partial"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCanceled  RunStatus = "canceled"
)

// StatusFromFlow maps a terminal workflow status to a journal status.
func StatusFromFlow(s flow.Status) RunStatus {
	switch s {
	case flow.Succeeded:
		return RunStatusSucceeded
	case flow.PartiallySucceeded:
		return RunStatusPartial
	default:
		return RunStatusFailed
	}
}

// Record represents a complete run journal
type Record struct {
	RunID  string  `json:"runId"`
	Meta   Meta    `json:"meta"`
	Events []Event `json:"events"`
}

// Meta contains run metadata
type Meta struct {
	RunID       string         `json:"runId,omitempty"`
	Graph       string         `json:"graph"`
	Input       map[string]any `json:"input,omitempty"`
	StartedAt   time.Time      `json:"startedAt"`
	EndedAt     time.Time      `json:"endedAt,omitempty"`
	Status      RunStatus      `json:"status"`
	EventCount  int            `json:"eventCount"`
	FailedSteps int            `json:"failedSteps"`
	Retries     int            `json:"retries"`
	Error       string         `json:"error,omitempty"`
}

// Event represents one node execution in a run
type Event struct {
	Seq        int       `json:"seq"`
	Node       string    `json:"node"`
	Class      string    `json:"class"` // success, transient, fatal, resource
	Attempts   int       `json:"attempts,omitempty"`
	Message    string    `json:"message,omitempty"`
	Cause      string    `json:"cause,omitempty"`
	Next       []string  `json:"next,omitempty"`
	DurationMs int64     `json:"durationMs,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// EventFromNode converts an executor node record into a journal event.
func EventFromNode(rec flow.NodeRecord) Event {
	return Event{
		Node:       rec.NodeID,
		Class:      string(rec.Outcome.Class),
		Attempts:   rec.Outcome.Attempts,
		Message:    rec.Outcome.Message,
		Cause:      rec.Outcome.Cause,
		Next:       rec.Next,
		DurationMs: rec.Outcome.Duration.Milliseconds(),
		Timestamp:  rec.Finished,
	}
}

// RunMetadata is input for starting a new run
type RunMetadata struct {
	Graph string
	Input map[string]any
}

// NewRecord creates a new run journal
func NewRecord(runID, graph string) *Record {
	return &Record{
		RunID: runID,
		Meta: Meta{
			RunID:     runID,
			Graph:     graph,
			StartedAt: time.Now(),
			Status:    RunStatusRunning,
		},
		Events: make([]Event, 0),
	}
}

// AddEvent appends an event to the journal and updates counts
func (r *Record) AddEvent(e Event) *Event {
	e.Seq = len(r.Events) + 1
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	if e.Class == string(flow.FatalFailure) {
		r.Meta.FailedSteps++
	}
	if e.Attempts > 1 {
		r.Meta.Retries += e.Attempts - 1
	}

	r.Events = append(r.Events, e)
	r.Meta.EventCount = len(r.Events)
	return &r.Events[len(r.Events)-1]
}

// AddResult folds a terminal run result into the journal: every node
// record becomes an event and the status is carried over.
func (r *Record) AddResult(result *flow.Result) {
	for _, rec := range result.Log {
		r.AddEvent(EventFromNode(rec))
	}
	r.Meta.Status = StatusFromFlow(result.Status)
	r.Meta.EndedAt = time.Now()
}

// Complete marks the journal as succeeded
func (r *Record) Complete() {
	r.Meta.Status = RunStatusSucceeded
	r.Meta.EndedAt = time.Now()
}

// Fail marks the journal as failed
func (r *Record) Fail(err error) {
	r.Meta.Status = RunStatusFailed
	r.Meta.EndedAt = time.Now()
	if err != nil {
		r.Meta.Error = err.Error()
	}
}

// Cancel marks the journal as canceled
func (r *Record) Cancel() {
	r.Meta.Status = RunStatusCanceled
	r.Meta.EndedAt = time.Now()
}

// Duration returns the run duration
func (r *Record) Duration() time.Duration {
	if r.Meta.EndedAt.IsZero() {
		return time.Since(r.Meta.StartedAt)
	}
	return r.Meta.EndedAt.Sub(r.Meta.StartedAt)
}

// IsActive returns true if the run is still in progress
func (r *Record) IsActive() bool {
	return r.Meta.Status == RunStatusRunning
}

// LastEvent returns the last event or nil
func (r *Record) LastEvent() *Event {
	if len(r.Events) == 0 {
		return nil
	}
	return &r.Events[len(r.Events)-1]
}

// EventsForNode returns all events recorded for the node
func (r *Record) EventsForNode(node string) []Event {
	var result []Event
	for _, e := range r.Events {
		if e.Node == node {
			result = append(result, e)
		}
	}
	return result
}

// Failures returns the events that ended in fatal failure
func (r *Record) Failures() []Event {
	var result []Event
	for _, e := range r.Events {
		if e.Class == string(flow.FatalFailure) {
			result = append(result, e)
		}
	}
	return result
}

// compressionThreshold is the size above which journals are compressed
const compressionThreshold = 100 * 1024 // 100KB

// Save writes the journal to disk
func (r *Record) Save(baseDir string) error {
	runDir := filepath.Join(baseDir, "runs", r.RunID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}

	// Compress if large
	if len(data) > compressionThreshold {
		return r.saveCompressed(runDir, data)
	}

	// Remove compressed version if it exists
	os.Remove(filepath.Join(runDir, "journal.json.gz"))

	return os.WriteFile(filepath.Join(runDir, "journal.json"), data, 0644)
}

func (r *Record) saveCompressed(runDir string, data []byte) error {
	// Remove uncompressed version if it exists
	os.Remove(filepath.Join(runDir, "journal.json"))

	f, err := os.Create(filepath.Join(runDir, "journal.json.gz"))
	if err != nil {
		return err
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	defer gz.Close()

	_, err = gz.Write(data)
	return err
}

// Load reads a journal from disk
func Load(baseDir, runID string) (*Record, error) {
	runDir := filepath.Join(baseDir, "runs", runID)

	// Try compressed first
	data, err := loadCompressed(filepath.Join(runDir, "journal.json.gz"))
	if err != nil {
		// Try uncompressed
		data, err = os.ReadFile(filepath.Join(runDir, "journal.json"))
		if err != nil {
			if os.IsNotExist(err) {
				return nil, ErrRunNotFound
			}
			return nil, err
		}
	}

	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}

	return &r, nil
}

func loadCompressed(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer gz.Close()

	return io.ReadAll(gz)
}

// Store is the interface for run journal operations
type Store interface {
	// Lifecycle
	StartRun(runID string, metadata RunMetadata) error
	RecordEvent(runID string, e Event) error
	EndRun(runID string, status RunStatus) error

	// Retrieval
	Load(runID string) (*Record, error)
	LoadMeta(runID string) (*Meta, error)
	List(filter ListFilter) ([]Meta, error)

	// Maintenance
	Delete(runID string) error
}

// ListFilter filters journal listing
type ListFilter struct {
	Graph  string
	Status RunStatus
	After  time.Time
	Before time.Time
	Limit  int
}
