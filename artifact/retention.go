package artifact

import (
	"archive/tar"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Policy controls how long finished run directories are kept on disk.
// Ages are measured from the run's journaled end time.
type Policy struct {
	ArchiveAfterDays int  // compress runs older than this into archive/
	DeleteAfterDays  int  // remove runs older than this outright
	ArchiveKeepDays  int  // remove archives older than this
	KeepFailed       bool // never archive or delete failed runs
	MinRuns          int  // always keep at least this many runs
}

// DefaultPolicy keeps a month of runs, archives after a week, and
// holds archives for ninety days.
func DefaultPolicy() Policy {
	return Policy{
		ArchiveAfterDays: 7,
		DeleteAfterDays:  30,
		ArchiveKeepDays:  90,
		KeepFailed:       true,
		MinRuns:          100,
	}
}

// Retention applies a Policy to the run directories under a base dir.
// The layout matches the journal store: live runs in <base>/runs/<id>,
// archives in <base>/archive/<YYYY-MM>/<id>.tar.gz.
type Retention struct {
	baseDir string
	policy  Policy
}

// NewRetention creates a Retention rooted at baseDir.
func NewRetention(baseDir string, p Policy) *Retention {
	return &Retention{baseDir: baseDir, policy: p}
}

// SweepReport summarizes one sweep.
type SweepReport struct {
	Archived []string // run ids compressed into the archive
	Deleted  []string // run ids and archives removed
	Kept     []string // run ids retained
	Freed    int64    // bytes reclaimed, archive savings estimated
	Errors   []string // per-run failures; the sweep continues past them
}

// sweptRun is the per-run view Sweep ranks runs by.
type sweptRun struct {
	id      string
	status  string
	endedAt time.Time
	size    int64
}

// Sweep applies the policy once: old runs are archived, ancient runs
// and expired archives deleted. Running runs, and failed runs under
// KeepFailed, are never touched.
func (rt *Retention) Sweep() (*SweepReport, error) {
	report := &SweepReport{}
	now := time.Now()

	runs, err := rt.scanRuns(report)
	if err != nil {
		return nil, err
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].endedAt.Before(runs[j].endedAt)
	})

	archiveBefore := now.AddDate(0, 0, -rt.policy.ArchiveAfterDays)
	deleteBefore := now.AddDate(0, 0, -rt.policy.DeleteAfterDays)

	removed := 0
	for _, run := range runs {
		switch {
		case run.status == "running",
			rt.policy.KeepFailed && run.status == "failed",
			len(runs)-removed <= rt.policy.MinRuns:
			report.Kept = append(report.Kept, run.id)
			continue
		}

		switch {
		case run.endedAt.Before(deleteBefore):
			if err := os.RemoveAll(rt.runDir(run.id)); err != nil {
				report.Errors = append(report.Errors, fmt.Sprintf("delete %s: %v", run.id, err))
				continue
			}
			report.Deleted = append(report.Deleted, run.id)
			report.Freed += run.size
			removed++
		case run.endedAt.Before(archiveBefore):
			if err := rt.archive(run.id); err != nil {
				report.Errors = append(report.Errors, fmt.Sprintf("archive %s: %v", run.id, err))
				continue
			}
			report.Archived = append(report.Archived, run.id)
			report.Freed += run.size / 2
			removed++
		default:
			report.Kept = append(report.Kept, run.id)
		}
	}

	rt.expireArchives(report, now.AddDate(0, 0, -rt.policy.ArchiveKeepDays))
	return report, nil
}

func (rt *Retention) scanRuns(report *SweepReport) ([]sweptRun, error) {
	entries, err := os.ReadDir(filepath.Join(rt.baseDir, "runs"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var runs []sweptRun
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id := entry.Name()
		dir := rt.runDir(id)

		var meta struct {
			Status  string    `json:"status"`
			EndedAt time.Time `json:"endedAt"`
		}
		data, err := os.ReadFile(filepath.Join(dir, "meta.json"))
		if err == nil {
			err = json.Unmarshal(data, &meta)
		}
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("scan %s: %v", id, err))
			continue
		}

		runs = append(runs, sweptRun{
			id:      id,
			status:  meta.Status,
			endedAt: meta.EndedAt,
			size:    dirSize(dir),
		})
	}
	return runs, nil
}

// archive compresses a run directory into the month bucket derived
// from its date-prefixed id, then removes the original.
func (rt *Retention) archive(runID string) error {
	bucket := filepath.Join(rt.baseDir, "archive", monthOf(runID))
	if err := os.MkdirAll(bucket, 0o755); err != nil {
		return err
	}
	path := filepath.Join(bucket, runID+".tar.gz")

	if err := writeTarball(path, rt.runDir(runID), runID); err != nil {
		os.Remove(path)
		return err
	}
	return os.RemoveAll(rt.runDir(runID))
}

// Restore unpacks an archived run back into the runs directory. The
// archive itself is kept.
func (rt *Retention) Restore(runID string) error {
	path := rt.findArchive(runID)
	if path == "" {
		return fmt.Errorf("archive not found: %s", runID)
	}
	if _, err := os.Stat(rt.runDir(runID)); err == nil {
		return fmt.Errorf("run already exists: %s", runID)
	}
	return extractTarball(path, filepath.Join(rt.baseDir, "runs"))
}

func (rt *Retention) expireArchives(report *SweepReport, before time.Time) {
	root := filepath.Join(rt.baseDir, "archive")
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(d.Name(), ".tar.gz") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.ModTime().Before(before) {
			id := strings.TrimSuffix(d.Name(), ".tar.gz")
			if err := os.Remove(path); err != nil {
				report.Errors = append(report.Errors, fmt.Sprintf("expire %s: %v", id, err))
				return nil
			}
			report.Deleted = append(report.Deleted, id)
			report.Freed += info.Size()
		}
		return nil
	})
}

func (rt *Retention) runDir(runID string) string {
	return filepath.Join(rt.baseDir, "runs", runID)
}

func (rt *Retention) findArchive(runID string) string {
	// The month bucket is derived from the id; fall back to a scan for
	// ids without a date prefix.
	direct := filepath.Join(rt.baseDir, "archive", monthOf(runID), runID+".tar.gz")
	if _, err := os.Stat(direct); err == nil {
		return direct
	}

	var found string
	filepath.WalkDir(filepath.Join(rt.baseDir, "archive"), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.Name() == runID+".tar.gz" {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	return found
}

// monthOf extracts the YYYY-MM bucket from a date-prefixed run id.
func monthOf(runID string) string {
	if len(runID) >= 7 {
		return runID[:7]
	}
	return time.Now().Format("2006-01")
}

func writeTarball(path, dir, prefix string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	gz := gzip.NewWriter(f)
	defer gz.Close()
	tw := tar.NewWriter(gz)
	defer tw.Close()

	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		header.Name = filepath.Join(prefix, rel)
		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		src, err := os.Open(p)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(tw, src)
		return err
	})
	if err != nil {
		return err
	}

	if err := tw.Close(); err != nil {
		return err
	}
	if err := gz.Close(); err != nil {
		return err
	}
	return f.Close()
}

func extractTarball(path, destDir string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	cleanDest := filepath.Clean(destDir)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		target := filepath.Join(destDir, header.Name)
		if !strings.HasPrefix(filepath.Clean(target), cleanDest+string(os.PathSeparator)) {
			return fmt.Errorf("archive entry escapes destination: %s", header.Name)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(header.Mode))
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return err
			}
		}
	}
}

func dirSize(path string) int64 {
	var size int64
	filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			size += info.Size()
		}
		return nil
	})
	return size
}
