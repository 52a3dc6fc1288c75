package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/randalmurphal/orion/flow"
)

// FileStore persists each checkpoint as a JSON file under
// baseDir/runs/<run id>/cp-<seq>.json. Files are written atomically via a
// temp file and rename, so a crash mid-save never leaves a torn latest.
type FileStore struct {
	baseDir string
	mu      sync.Mutex
}

// NewFileStore creates a file-backed store rooted at baseDir.
func NewFileStore(baseDir string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Join(baseDir, "runs"), 0755); err != nil {
		return nil, err
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) runDir(runID string) string {
	return filepath.Join(s.baseDir, "runs", runID)
}

func checkpointFile(seq int64) string {
	return fmt.Sprintf("cp-%012d.json", seq)
}

// Save implements flow.CheckpointStore.
func (s *FileStore) Save(cp *flow.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seqs, err := s.sequences(cp.RunID)
	if err != nil {
		return err
	}
	if len(seqs) > 0 && cp.Seq <= seqs[len(seqs)-1] {
		return fmt.Errorf("%w: run %s already at seq %d, got %d",
			ErrSequenceConflict, cp.RunID, seqs[len(seqs)-1], cp.Seq)
	}

	dir := s.runDir(cp.RunID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".cp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(dir, checkpointFile(cp.Seq)))
}

// Latest implements flow.CheckpointStore.
func (s *FileStore) Latest(runID string) (*flow.Checkpoint, error) {
	seqs, err := s.sequences(runID)
	if err != nil {
		return nil, err
	}
	if len(seqs) == 0 {
		return nil, fmt.Errorf("run %s: %w", runID, flow.ErrNoCheckpoint)
	}
	return s.load(runID, seqs[len(seqs)-1])
}

// List implements flow.CheckpointStore.
func (s *FileStore) List(runID string) ([]*flow.Checkpoint, error) {
	seqs, err := s.sequences(runID)
	if err != nil {
		return nil, err
	}
	out := make([]*flow.Checkpoint, 0, len(seqs))
	for _, seq := range seqs {
		cp, err := s.load(runID, seq)
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	return out, nil
}

// Prune removes all but the newest keep checkpoint files for the run.
func (s *FileStore) Prune(runID string, keep int) error {
	if keep < 1 {
		keep = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	seqs, err := s.sequences(runID)
	if err != nil {
		return err
	}
	if len(seqs) <= keep {
		return nil
	}
	for _, seq := range seqs[:len(seqs)-keep] {
		if err := os.Remove(filepath.Join(s.runDir(runID), checkpointFile(seq))); err != nil {
			return err
		}
	}
	return nil
}

// Runs returns the run ids with at least one checkpoint on disk.
func (s *FileStore) Runs() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.baseDir, "runs"))
	if err != nil {
		return nil, err
	}
	var runs []string
	for _, e := range entries {
		if e.IsDir() {
			runs = append(runs, e.Name())
		}
	}
	sort.Strings(runs)
	return runs, nil
}

func (s *FileStore) load(runID string, seq int64) (*flow.Checkpoint, error) {
	data, err := os.ReadFile(filepath.Join(s.runDir(runID), checkpointFile(seq)))
	if err != nil {
		return nil, err
	}
	cp, err := decodeCheckpoint(data)
	if err != nil {
		return nil, fmt.Errorf("decode checkpoint %s/%d: %w", runID, seq, err)
	}
	return cp, nil
}

// sequences returns the checkpoint sequence numbers on disk for the run,
// ascending. A missing run directory is an empty run, not an error.
func (s *FileStore) sequences(runID string) ([]int64, error) {
	entries, err := os.ReadDir(s.runDir(runID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var seqs []int64
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "cp-") || !strings.HasSuffix(name, ".json") {
			continue
		}
		seq, err := strconv.ParseInt(strings.TrimSuffix(strings.TrimPrefix(name, "cp-"), ".json"), 10, 64)
		if err != nil {
			continue
		}
		seqs = append(seqs, seq)
	}
	sort.Slice(seqs, func(i, j int) bool { return seqs[i] < seqs[j] })
	return seqs, nil
}
