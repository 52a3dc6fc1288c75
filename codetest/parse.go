package codetest

import (
	"strconv"
	"strings"
)

// ParseTestOutput parses `go test` style output into a TestOutput.
func ParseTestOutput(output string, passed bool) *TestOutput {
	result := &TestOutput{
		Passed: passed,
	}

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "ok "):
			result.PassedTests++
			result.TotalTests++
		case strings.HasPrefix(line, "FAIL"):
			result.FailedTests++
			result.TotalTests++
		case strings.HasPrefix(line, "--- FAIL:"):
			parts := strings.Fields(line)
			if len(parts) >= 3 {
				result.Failures = append(result.Failures, TestFailure{
					Name:   parts[2],
					Output: output,
				})
			}
		case strings.HasPrefix(line, "--- SKIP:"):
			result.SkippedTests++
		}
	}

	return result
}

// ParseLintOutput parses "file:line:col: message" style linter output.
// Lines that do not match the pattern are ignored.
func ParseLintOutput(output string, passed bool) *LintOutput {
	result := &LintOutput{
		Passed: passed,
	}

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if issue, ok := parseLintLine(line); ok {
			result.Issues = append(result.Issues, issue)
		}
	}

	if len(result.Issues) > 0 {
		result.Passed = false
	}
	return result
}

// parseLintLine parses one "path/file.go:12:8: message" line.
func parseLintLine(line string) (LintIssue, bool) {
	parts := strings.SplitN(line, ":", 4)
	if len(parts) < 3 {
		return LintIssue{}, false
	}

	lineNo, err := strconv.Atoi(parts[1])
	if err != nil {
		return LintIssue{}, false
	}

	issue := LintIssue{File: parts[0], Line: lineNo}
	if len(parts) == 4 {
		if col, err := strconv.Atoi(parts[2]); err == nil {
			issue.Column = col
			issue.Message = strings.TrimSpace(parts[3])
		} else {
			issue.Message = strings.TrimSpace(parts[2] + ":" + parts[3])
		}
	} else {
		issue.Message = strings.TrimSpace(parts[2])
	}

	if issue.Message == "" {
		return LintIssue{}, false
	}
	return issue, true
}

func firstWord(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// shellQuote single-quotes a path for use in a sh -c command line.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
