package runlog

import (
	"bufio"
	"encoding/json"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Searcher provides search capabilities over run journals
type Searcher struct {
	baseDir string
}

// NewSearcher creates a searcher
func NewSearcher(baseDir string) *Searcher {
	return &Searcher{baseDir: baseDir}
}

// SearchOptions configures content search
type SearchOptions struct {
	CaseSensitive bool
	MaxResults    int
}

// SearchResult represents a search match
type SearchResult struct {
	RunID     string `json:"runId"`
	Content   string `json:"content"`
	MatchLine int    `json:"matchLine,omitempty"`
}

// SearchContent searches journal content using ripgrep or grep
func (s *Searcher) SearchContent(query string, opts SearchOptions) ([]SearchResult, error) {
	runsDir := filepath.Join(s.baseDir, "runs")

	// Try ripgrep first
	if _, err := exec.LookPath("rg"); err == nil {
		return s.searchWithRipgrep(runsDir, query, opts)
	}

	// Fall back to grep
	return s.searchWithGrep(runsDir, query, opts)
}

func (s *Searcher) searchWithRipgrep(runsDir, query string, opts SearchOptions) ([]SearchResult, error) {
	args := []string{
		"--json",
		"-g", "journal.json",
		"-g", "journal.json.gz",
	}

	if !opts.CaseSensitive {
		args = append(args, "-i")
	}

	if opts.MaxResults > 0 {
		args = append(args, "-m", strconv.Itoa(opts.MaxResults))
	}

	args = append(args, query, runsDir)

	cmd := exec.Command("rg", args...)
	output, err := cmd.Output()
	if err != nil {
		// rg returns exit code 1 for no matches
		if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
			return nil, nil
		}
		return nil, err
	}

	return s.parseRipgrepOutput(output)
}

func (s *Searcher) parseRipgrepOutput(output []byte) ([]SearchResult, error) {
	var results []SearchResult

	scanner := bufio.NewScanner(strings.NewReader(string(output)))
	for scanner.Scan() {
		var msg struct {
			Type string `json:"type"`
			Data struct {
				Path struct {
					Text string `json:"text"`
				} `json:"path"`
				Lines struct {
					Text string `json:"text"`
				} `json:"lines"`
				LineNumber int `json:"line_number"`
			} `json:"data"`
		}

		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			slog.Debug("skipping malformed ripgrep output",
				slog.String("error", err.Error()))
			continue
		}

		if msg.Type != "match" {
			continue
		}

		runID := extractRunID(msg.Data.Path.Text)
		if runID == "" {
			continue
		}

		results = append(results, SearchResult{
			RunID:     runID,
			Content:   strings.TrimSpace(msg.Data.Lines.Text),
			MatchLine: msg.Data.LineNumber,
		})
	}

	return results, nil
}

func (s *Searcher) searchWithGrep(runsDir, query string, opts SearchOptions) ([]SearchResult, error) {
	args := []string{"-r", "-l"}
	if !opts.CaseSensitive {
		args = append(args, "-i")
	}
	args = append(args, query, runsDir)

	cmd := exec.Command("grep", args...)
	output, err := cmd.Output()
	if err != nil {
		// grep returns 1 for no matches
		if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
			return nil, nil
		}
		return nil, err
	}

	var results []SearchResult
	seen := make(map[string]bool)

	for _, line := range strings.Split(string(output), "\n") {
		if line == "" {
			continue
		}

		runID := extractRunID(line)
		if runID == "" || seen[runID] {
			continue
		}
		seen[runID] = true

		results = append(results, SearchResult{
			RunID: runID,
		})

		if opts.MaxResults > 0 && len(results) >= opts.MaxResults {
			break
		}
	}

	return results, nil
}

// FindByGraph returns journals for a workflow graph
func (s *Searcher) FindByGraph(graph string) ([]Meta, error) {
	return s.findByMeta(func(m *Meta) bool {
		return m.Graph == graph
	})
}

// FindByStatus returns journals with status
func (s *Searcher) FindByStatus(status RunStatus) ([]Meta, error) {
	return s.findByMeta(func(m *Meta) bool {
		return m.Status == status
	})
}

// FindByDateRange returns journals in date range
func (s *Searcher) FindByDateRange(start, end time.Time) ([]Meta, error) {
	return s.findByMeta(func(m *Meta) bool {
		return m.StartedAt.After(start) && m.StartedAt.Before(end)
	})
}

// FindFailedNodes returns journals where the node failed fatally
func (s *Searcher) FindFailedNodes(node string) ([]Meta, error) {
	metas, err := s.findByMeta(func(m *Meta) bool {
		return m.FailedSteps > 0
	})
	if err != nil {
		return nil, err
	}

	var results []Meta
	for _, meta := range metas {
		record, err := Load(s.baseDir, meta.RunID)
		if err != nil {
			continue
		}
		for _, e := range record.Failures() {
			if e.Node == node {
				results = append(results, meta)
				break
			}
		}
	}
	return results, nil
}

func (s *Searcher) findByMeta(predicate func(*Meta) bool) ([]Meta, error) {
	runsDir := filepath.Join(s.baseDir, "runs")
	entries, err := os.ReadDir(runsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var results []Meta

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		metaPath := filepath.Join(runsDir, entry.Name(), "meta.json")
		data, err := os.ReadFile(metaPath)
		if err != nil {
			slog.Debug("skipping journal with unreadable metadata",
				slog.String("path", metaPath),
				slog.String("error", err.Error()))
			continue
		}

		var meta Meta
		if err := json.Unmarshal(data, &meta); err != nil {
			slog.Debug("skipping journal with malformed metadata",
				slog.String("path", metaPath),
				slog.String("error", err.Error()))
			continue
		}

		if predicate(&meta) {
			results = append(results, meta)
		}
	}

	return results, nil
}

// RunStats returns statistics for matching runs
func (s *Searcher) RunStats(filter ListFilter) (*Statistics, error) {
	store, err := NewFileStore(StoreConfig{BaseDir: s.baseDir})
	if err != nil {
		return nil, err
	}

	runs, err := store.List(filter)
	if err != nil {
		return nil, err
	}

	stats := &Statistics{}
	for _, run := range runs {
		stats.TotalRuns++
		stats.TotalEvents += run.EventCount
		stats.TotalRetries += run.Retries

		switch run.Status {
		case RunStatusSucceeded:
			stats.SucceededRuns++
		case RunStatusPartial:
			stats.PartialRuns++
		case RunStatusFailed:
			stats.FailedRuns++
		case RunStatusCanceled:
			stats.CanceledRuns++
		case RunStatusRunning:
			stats.ActiveRuns++
		}
	}

	if stats.TotalRuns > 0 {
		stats.AvgEvents = stats.TotalEvents / stats.TotalRuns
	}

	return stats, nil
}

// Statistics holds aggregated run statistics
type Statistics struct {
	TotalRuns     int
	SucceededRuns int
	PartialRuns   int
	FailedRuns    int
	CanceledRuns  int
	ActiveRuns    int
	TotalEvents   int
	TotalRetries  int
	AvgEvents     int
}

func extractRunID(path string) string {
	parts := strings.Split(path, string(filepath.Separator))
	for i, p := range parts {
		if p == "runs" && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return ""
}
