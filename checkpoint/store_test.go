package checkpoint

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/randalmurphal/orion/flow"
)

// store is the common surface the three backends share.
type store interface {
	flow.CheckpointStore
	Prune(runID string, keep int) error
}

func stores(t *testing.T) map[string]store {
	t.Helper()
	fileStore, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	sqliteStore, err := NewSQLiteStore(filepath.Join(t.TempDir(), "checkpoints.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { sqliteStore.Close() })

	return map[string]store{
		"memory": NewMemoryStore(),
		"file":   fileStore,
		"sqlite": sqliteStore,
	}
}

func testCheckpoint(runID string, seq int64) *flow.Checkpoint {
	return &flow.Checkpoint{
		RunID: runID,
		Graph: "task-to-pr",
		Seq:   seq,
		State: flow.State{"repo.path": "/tmp/work", "seq": float64(seq)},
		Nodes: []flow.NodeRecord{
			{NodeID: "clone", Outcome: flow.Succeed(flow.Patch{"repo.path": "/tmp/work"}), Next: []string{"generate"}},
		},
		CreatedAt: time.Now().UTC(),
	}
}

func TestStores_SaveAndLatest(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for seq := int64(1); seq <= 3; seq++ {
				if err := s.Save(testCheckpoint("run-1", seq)); err != nil {
					t.Fatalf("Save(seq %d): %v", seq, err)
				}
			}

			latest, err := s.Latest("run-1")
			if err != nil {
				t.Fatalf("Latest: %v", err)
			}
			if latest.Seq != 3 {
				t.Errorf("Latest.Seq = %d, want 3", latest.Seq)
			}
			if latest.State["repo.path"] != "/tmp/work" {
				t.Errorf("Latest.State = %v", latest.State)
			}
			if got := latest.Completed(); !reflect.DeepEqual(got, []string{"clone"}) {
				t.Errorf("Completed = %v", got)
			}
		})
	}
}

func TestStores_SequenceConflict(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Save(testCheckpoint("run-1", 5)); err != nil {
				t.Fatal(err)
			}
			err := s.Save(testCheckpoint("run-1", 5))
			if !errors.Is(err, ErrSequenceConflict) {
				t.Errorf("duplicate seq: err = %v, want ErrSequenceConflict", err)
			}
			err = s.Save(testCheckpoint("run-1", 4))
			if !errors.Is(err, ErrSequenceConflict) {
				t.Errorf("lower seq: err = %v, want ErrSequenceConflict", err)
			}
			// Other runs are independent.
			if err := s.Save(testCheckpoint("run-2", 1)); err != nil {
				t.Errorf("independent run: %v", err)
			}
		})
	}
}

func TestStores_LatestMissingRun(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Latest("ghost"); !errors.Is(err, flow.ErrNoCheckpoint) {
				t.Errorf("Latest(ghost) = %v, want ErrNoCheckpoint", err)
			}
		})
	}
}

func TestStores_ListOrdered(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for _, seq := range []int64{1, 2, 3, 4} {
				if err := s.Save(testCheckpoint("run-1", seq)); err != nil {
					t.Fatal(err)
				}
			}
			cps, err := s.List("run-1")
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(cps) != 4 {
				t.Fatalf("List returned %d, want 4", len(cps))
			}
			for i, cp := range cps {
				if cp.Seq != int64(i+1) {
					t.Errorf("List[%d].Seq = %d, want ascending", i, cp.Seq)
				}
			}
		})
	}
}

func TestStores_PruneKeepsLatest(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for seq := int64(1); seq <= 5; seq++ {
				if err := s.Save(testCheckpoint("run-1", seq)); err != nil {
					t.Fatal(err)
				}
			}
			if err := s.Prune("run-1", 2); err != nil {
				t.Fatalf("Prune: %v", err)
			}
			cps, _ := s.List("run-1")
			if len(cps) != 2 {
				t.Fatalf("after prune: %d checkpoints, want 2", len(cps))
			}
			if cps[0].Seq != 4 || cps[1].Seq != 5 {
				t.Errorf("retained seqs = %d, %d, want 4, 5", cps[0].Seq, cps[1].Seq)
			}

			// keep < 1 still retains the latest.
			if err := s.Prune("run-1", 0); err != nil {
				t.Fatalf("Prune(0): %v", err)
			}
			latest, err := s.Latest("run-1")
			if err != nil || latest.Seq != 5 {
				t.Errorf("latest after aggressive prune = %v, %v", latest, err)
			}
		})
	}
}

func TestStores_NumbersSurviveReload(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			cp := testCheckpoint("run-1", 1)
			cp.State["tests_run"] = 42
			cp.State["cost_usd"] = 0.25
			cp.State["issues"] = []any{3, "lint"}
			cp.Nodes[0].Outcome.Patch = flow.Patch{"tests_run": 42}
			if err := s.Save(cp); err != nil {
				t.Fatal(err)
			}

			got, err := s.Latest("run-1")
			if err != nil {
				t.Fatal(err)
			}
			switch v := got.State["tests_run"].(type) {
			case int, int64:
			default:
				t.Errorf("tests_run reloaded as %T (%v), want integer", v, v)
			}
			if v, ok := got.State["cost_usd"].(float64); !ok || v != 0.25 {
				t.Errorf("cost_usd reloaded as %T (%v), want float64 0.25", got.State["cost_usd"], got.State["cost_usd"])
			}
			if list, ok := got.State["issues"].([]any); ok {
				switch list[0].(type) {
				case int, int64:
				default:
					t.Errorf("nested number reloaded as %T, want integer", list[0])
				}
			}
			switch v := got.Nodes[0].Outcome.Patch["tests_run"].(type) {
			case int, int64:
			default:
				t.Errorf("patch number reloaded as %T (%v), want integer", v, v)
			}
		})
	}
}

func TestMemoryStore_SnapshotsAreIsolated(t *testing.T) {
	s := NewMemoryStore()
	cp := testCheckpoint("run-1", 1)
	if err := s.Save(cp); err != nil {
		t.Fatal(err)
	}
	cp.State["repo.path"] = "mutated-after-save"

	got, err := s.Latest("run-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.State["repo.path"] != "/tmp/work" {
		t.Error("stored checkpoint shares state with caller")
	}
	got.State["repo.path"] = "mutated-after-load"

	again, _ := s.Latest("run-1")
	if again.State["repo.path"] != "/tmp/work" {
		t.Error("loaded checkpoint shares state with store")
	}
}

func TestFileStore_RunsListing(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, run := range []string{"run-b", "run-a"} {
		if err := s.Save(testCheckpoint(run, 1)); err != nil {
			t.Fatal(err)
		}
	}
	runs, err := s.Runs()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(runs, []string{"run-a", "run-b"}) {
		t.Errorf("Runs = %v, want sorted run ids", runs)
	}
}
