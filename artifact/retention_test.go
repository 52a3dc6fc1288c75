package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// seedRun creates a run directory with a meta.json the way the journal
// store writes it, plus a little content so the run has a size.
func seedRun(t *testing.T, baseDir, runID, status string, endedAt time.Time) {
	t.Helper()

	runDir := filepath.Join(baseDir, "runs", runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	meta := fmt.Sprintf(`{"runId":%q,"status":%q,"endedAt":%q}`,
		runID, status, endedAt.Format(time.RFC3339))
	if err := os.WriteFile(filepath.Join(runDir, "meta.json"), []byte(meta), 0o644); err != nil {
		t.Fatalf("write meta: %v", err)
	}
	if err := os.WriteFile(filepath.Join(runDir, "prompt.md"), []byte("# Task\n\nDo the thing."), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
}

func daysAgo(n int) time.Time {
	return time.Now().AddDate(0, 0, -n)
}

func hasRun(baseDir, runID string) bool {
	_, err := os.Stat(filepath.Join(baseDir, "runs", runID))
	return err == nil
}

func hasArchive(baseDir, runID string) bool {
	_, err := os.Stat(filepath.Join(baseDir, "archive", monthOf(runID), runID+".tar.gz"))
	return err == nil
}

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	if p.ArchiveAfterDays != 7 {
		t.Errorf("ArchiveAfterDays = %d, want 7", p.ArchiveAfterDays)
	}
	if p.DeleteAfterDays != 30 {
		t.Errorf("DeleteAfterDays = %d, want 30", p.DeleteAfterDays)
	}
	if p.ArchiveKeepDays != 90 {
		t.Errorf("ArchiveKeepDays = %d, want 90", p.ArchiveKeepDays)
	}
	if !p.KeepFailed {
		t.Error("KeepFailed should default to true")
	}
	if p.MinRuns != 100 {
		t.Errorf("MinRuns = %d, want 100", p.MinRuns)
	}
}

func TestRetention_Sweep(t *testing.T) {
	t.Run("empty base dir", func(t *testing.T) {
		rt := NewRetention(t.TempDir(), DefaultPolicy())
		report, err := rt.Sweep()
		if err != nil {
			t.Fatalf("Sweep: %v", err)
		}
		if len(report.Archived)+len(report.Deleted) != 0 {
			t.Errorf("report = %+v, want nothing touched", report)
		}
	})

	t.Run("deletes past retention", func(t *testing.T) {
		dir := t.TempDir()
		seedRun(t, dir, "2025-01-01-build-aaaa", "succeeded", daysAgo(40))
		seedRun(t, dir, "2025-08-20-build-bbbb", "succeeded", daysAgo(1))

		rt := NewRetention(dir, Policy{ArchiveAfterDays: 7, DeleteAfterDays: 30})
		report, err := rt.Sweep()
		if err != nil {
			t.Fatalf("Sweep: %v", err)
		}

		if len(report.Deleted) != 1 || report.Deleted[0] != "2025-01-01-build-aaaa" {
			t.Errorf("Deleted = %v", report.Deleted)
		}
		if hasRun(dir, "2025-01-01-build-aaaa") {
			t.Error("old run directory should be gone")
		}
		if !hasRun(dir, "2025-08-20-build-bbbb") {
			t.Error("recent run should survive")
		}
		if report.Freed == 0 {
			t.Error("Freed should count the deleted bytes")
		}
	})

	t.Run("archives between thresholds", func(t *testing.T) {
		dir := t.TempDir()
		seedRun(t, dir, "2025-08-10-build-cccc", "succeeded", daysAgo(10))

		rt := NewRetention(dir, Policy{ArchiveAfterDays: 7, DeleteAfterDays: 30})
		report, err := rt.Sweep()
		if err != nil {
			t.Fatalf("Sweep: %v", err)
		}

		if len(report.Archived) != 1 {
			t.Fatalf("Archived = %v, want one run", report.Archived)
		}
		if hasRun(dir, "2025-08-10-build-cccc") {
			t.Error("archived run directory should be gone")
		}
		if !hasArchive(dir, "2025-08-10-build-cccc") {
			t.Error("tarball should exist in the month bucket")
		}
	})

	t.Run("keeps running and failed runs", func(t *testing.T) {
		dir := t.TempDir()
		seedRun(t, dir, "2025-01-01-build-run1", "running", daysAgo(40))
		seedRun(t, dir, "2025-01-02-build-fail", "failed", daysAgo(40))

		rt := NewRetention(dir, Policy{ArchiveAfterDays: 7, DeleteAfterDays: 30, KeepFailed: true})
		report, err := rt.Sweep()
		if err != nil {
			t.Fatalf("Sweep: %v", err)
		}

		if len(report.Kept) != 2 {
			t.Errorf("Kept = %v, want both runs", report.Kept)
		}
		if !hasRun(dir, "2025-01-01-build-run1") || !hasRun(dir, "2025-01-02-build-fail") {
			t.Error("running and failed runs must survive the sweep")
		}
	})

	t.Run("honors MinRuns", func(t *testing.T) {
		dir := t.TempDir()
		for i := 0; i < 3; i++ {
			seedRun(t, dir, fmt.Sprintf("2025-01-0%d-build-old%d", i+1, i), "succeeded", daysAgo(40))
		}

		rt := NewRetention(dir, Policy{ArchiveAfterDays: 7, DeleteAfterDays: 30, MinRuns: 2})
		report, err := rt.Sweep()
		if err != nil {
			t.Fatalf("Sweep: %v", err)
		}

		if len(report.Deleted) != 1 {
			t.Errorf("Deleted = %v, want exactly one (MinRuns=2 of 3)", report.Deleted)
		}
		if len(report.Kept) != 2 {
			t.Errorf("Kept = %v, want two", report.Kept)
		}
	})

	t.Run("expires old archives", func(t *testing.T) {
		dir := t.TempDir()
		seedRun(t, dir, "2025-03-01-build-dddd", "succeeded", daysAgo(10))
		rt := NewRetention(dir, Policy{ArchiveAfterDays: 7, DeleteAfterDays: 365, ArchiveKeepDays: 90})
		if _, err := rt.Sweep(); err != nil {
			t.Fatalf("first Sweep: %v", err)
		}
		path := filepath.Join(dir, "archive", "2025-03", "2025-03-01-build-dddd.tar.gz")
		old := time.Now().AddDate(0, 0, -120)
		if err := os.Chtimes(path, old, old); err != nil {
			t.Fatalf("Chtimes: %v", err)
		}

		report, err := rt.Sweep()
		if err != nil {
			t.Fatalf("second Sweep: %v", err)
		}
		if len(report.Deleted) != 1 || report.Deleted[0] != "2025-03-01-build-dddd" {
			t.Errorf("Deleted = %v, want the expired archive", report.Deleted)
		}
		if hasArchive(dir, "2025-03-01-build-dddd") {
			t.Error("expired archive should be removed")
		}
	})

	t.Run("unreadable meta is reported not fatal", func(t *testing.T) {
		dir := t.TempDir()
		runDir := filepath.Join(dir, "runs", "broken")
		if err := os.MkdirAll(runDir, 0o755); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
		seedRun(t, dir, "2025-08-28-build-eeee", "succeeded", daysAgo(1))

		rt := NewRetention(dir, DefaultPolicy())
		report, err := rt.Sweep()
		if err != nil {
			t.Fatalf("Sweep: %v", err)
		}
		if len(report.Errors) != 1 {
			t.Errorf("Errors = %v, want one for the broken run", report.Errors)
		}
	})
}

func TestRetention_ArchiveRestore(t *testing.T) {
	dir := t.TempDir()
	runID := "2025-08-10-build-ffff"
	seedRun(t, dir, runID, "succeeded", daysAgo(10))
	want, err := os.ReadFile(filepath.Join(dir, "runs", runID, "prompt.md"))
	if err != nil {
		t.Fatalf("read seeded artifact: %v", err)
	}

	rt := NewRetention(dir, Policy{ArchiveAfterDays: 7, DeleteAfterDays: 30})
	if _, err := rt.Sweep(); err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if hasRun(dir, runID) {
		t.Fatal("run should be archived away")
	}

	if err := rt.Restore(runID); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dir, "runs", runID, "prompt.md"))
	if err != nil {
		t.Fatalf("read restored artifact: %v", err)
	}
	if string(got) != string(want) {
		t.Errorf("restored content = %q, want %q", got, want)
	}
	if !hasArchive(dir, runID) {
		t.Error("archive should survive a restore")
	}

	t.Run("already restored", func(t *testing.T) {
		if err := rt.Restore(runID); err == nil {
			t.Error("expected error when run dir already exists")
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		if err := rt.Restore("2025-08-10-build-nope"); err == nil {
			t.Error("expected error for missing archive")
		}
	})
}

func TestMonthOf(t *testing.T) {
	if got := monthOf("2025-08-10-build-ffff"); got != "2025-08" {
		t.Errorf("monthOf = %q, want 2025-08", got)
	}
	if got := monthOf("x"); got == "" {
		t.Error("short ids should fall back to the current month")
	}
}
