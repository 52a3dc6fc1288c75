package runlog

import (
	"errors"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(StoreConfig{BaseDir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}
	return store
}

func TestFileStoreLifecycle(t *testing.T) {
	store := newTestStore(t)

	if err := store.StartRun("run-1", RunMetadata{Graph: "task-to-pr"}); err != nil {
		t.Fatalf("StartRun() error: %v", err)
	}
	if err := store.RecordEvent("run-1", Event{Node: "clone", Class: "success"}); err != nil {
		t.Fatalf("RecordEvent() error: %v", err)
	}
	if err := store.EndRun("run-1", RunStatusSucceeded); err != nil {
		t.Fatalf("EndRun() error: %v", err)
	}

	record, err := store.Load("run-1")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if record.Meta.Status != RunStatusSucceeded || len(record.Events) != 1 {
		t.Errorf("record = %+v", record)
	}
}

func TestFileStoreStartRun_Duplicate(t *testing.T) {
	store := newTestStore(t)

	if err := store.StartRun("run-1", RunMetadata{Graph: "g"}); err != nil {
		t.Fatal(err)
	}
	if err := store.StartRun("run-1", RunMetadata{Graph: "g"}); !errors.Is(err, ErrRunAlreadyExists) {
		t.Errorf("error = %v, want ErrRunAlreadyExists", err)
	}
}

func TestFileStoreRecordEvent_NotStarted(t *testing.T) {
	store := newTestStore(t)

	err := store.RecordEvent("missing", Event{Node: "clone"})
	if !errors.Is(err, ErrRunNotStarted) {
		t.Errorf("error = %v, want ErrRunNotStarted", err)
	}
}

func TestFileStoreEndRunWithError(t *testing.T) {
	store := newTestStore(t)

	if err := store.StartRun("run-1", RunMetadata{Graph: "g"}); err != nil {
		t.Fatal(err)
	}
	if err := store.EndRunWithError("run-1", errors.New("checkpoint write failed")); err != nil {
		t.Fatal(err)
	}

	meta, err := store.LoadMeta("run-1")
	if err != nil {
		t.Fatalf("LoadMeta() error: %v", err)
	}
	if meta.Status != RunStatusFailed || meta.Error != "checkpoint write failed" {
		t.Errorf("meta = %+v", meta)
	}
}

func TestFileStoreLoadActive(t *testing.T) {
	store := newTestStore(t)

	if err := store.StartRun("run-1", RunMetadata{Graph: "g"}); err != nil {
		t.Fatal(err)
	}
	if err := store.RecordEvent("run-1", Event{Node: "clone", Class: "success"}); err != nil {
		t.Fatal(err)
	}

	// Active runs load as a copy; mutating it must not affect the store.
	record, err := store.Load("run-1")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	record.Events[0].Node = "mutated"

	again, err := store.Load("run-1")
	if err != nil {
		t.Fatal(err)
	}
	if again.Events[0].Node != "clone" {
		t.Errorf("store copy was mutated: %+v", again.Events[0])
	}

	active := store.ListActive()
	if len(active) != 1 || active[0] != "run-1" {
		t.Errorf("ListActive() = %v", active)
	}
}

func TestFileStoreList(t *testing.T) {
	store := newTestStore(t)

	for _, run := range []struct {
		id     string
		graph  string
		status RunStatus
	}{
		{"run-a", "task-to-pr", RunStatusSucceeded},
		{"run-b", "task-to-pr", RunStatusFailed},
		{"run-c", "nightly", RunStatusSucceeded},
	} {
		if err := store.StartRun(run.id, RunMetadata{Graph: run.graph}); err != nil {
			t.Fatal(err)
		}
		if err := store.EndRun(run.id, run.status); err != nil {
			t.Fatal(err)
		}
	}

	t.Run("by graph", func(t *testing.T) {
		metas, err := store.List(ListFilter{Graph: "task-to-pr"})
		if err != nil {
			t.Fatal(err)
		}
		if len(metas) != 2 {
			t.Errorf("metas = %v", metas)
		}
	})

	t.Run("by status", func(t *testing.T) {
		metas, err := store.List(ListFilter{Status: RunStatusFailed})
		if err != nil {
			t.Fatal(err)
		}
		if len(metas) != 1 || metas[0].RunID != "run-b" {
			t.Errorf("metas = %v", metas)
		}
	})

	t.Run("limit", func(t *testing.T) {
		metas, err := store.List(ListFilter{Limit: 1})
		if err != nil {
			t.Fatal(err)
		}
		if len(metas) != 1 {
			t.Errorf("metas = %v", metas)
		}
	})

	t.Run("before filter excludes all", func(t *testing.T) {
		metas, err := store.List(ListFilter{Before: time.Now().Add(-time.Hour)})
		if err != nil {
			t.Fatal(err)
		}
		if len(metas) != 0 {
			t.Errorf("metas = %v", metas)
		}
	})
}

func TestFileStoreDelete(t *testing.T) {
	store := newTestStore(t)

	if err := store.StartRun("run-1", RunMetadata{Graph: "g"}); err != nil {
		t.Fatal(err)
	}
	if err := store.EndRun("run-1", RunStatusSucceeded); err != nil {
		t.Fatal(err)
	}

	if err := store.Delete("run-1"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := store.LoadMeta("run-1"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("error = %v, want ErrRunNotFound", err)
	}
}

func TestSearcherFindByStatus(t *testing.T) {
	store := newTestStore(t)

	if err := store.StartRun("run-ok", RunMetadata{Graph: "g"}); err != nil {
		t.Fatal(err)
	}
	if err := store.EndRun("run-ok", RunStatusSucceeded); err != nil {
		t.Fatal(err)
	}
	if err := store.StartRun("run-bad", RunMetadata{Graph: "g"}); err != nil {
		t.Fatal(err)
	}
	if err := store.EndRunWithError("run-bad", errors.New("boom")); err != nil {
		t.Fatal(err)
	}

	searcher := NewSearcher(store.BaseDir())
	metas, err := searcher.FindByStatus(RunStatusFailed)
	if err != nil {
		t.Fatal(err)
	}
	if len(metas) != 1 || metas[0].RunID != "run-bad" {
		t.Errorf("metas = %v", metas)
	}
}

func TestSearcherRunStats(t *testing.T) {
	store := newTestStore(t)

	if err := store.StartRun("run-1", RunMetadata{Graph: "g"}); err != nil {
		t.Fatal(err)
	}
	if err := store.RecordEvent("run-1", Event{Node: "a", Class: "success", Attempts: 3}); err != nil {
		t.Fatal(err)
	}
	if err := store.EndRun("run-1", RunStatusSucceeded); err != nil {
		t.Fatal(err)
	}

	stats, err := NewSearcher(store.BaseDir()).RunStats(ListFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalRuns != 1 || stats.SucceededRuns != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.TotalRetries != 2 {
		t.Errorf("TotalRetries = %d, want 2", stats.TotalRetries)
	}
}
