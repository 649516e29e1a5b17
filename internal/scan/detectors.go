package scan

import (
	"fmt"
	"regexp"
	"strings"
)

// AsyncWithoutTryCatch flags files declaring async functions with no
// exception-handling construct anywhere in the file. One issue per file.
type AsyncWithoutTryCatch struct{}

var (
	asyncFnRe = regexp.MustCompile(`\basync\s+(?:function\b|\w+\s*\(|\([^)]*\)\s*=>)`)

	// tryRe and catchRe match the keywords only, not identifiers like
	// "country" or "dispatcher"
	tryRe   = regexp.MustCompile(`\btry\b`)
	catchRe = regexp.MustCompile(`\bcatch\b`)
)

func (d *AsyncWithoutTryCatch) Name() string { return "async-without-try-catch" }

func (d *AsyncWithoutTryCatch) Detect(file FileInfo) []CodeIssue {
	if !asyncFnRe.MatchString(file.Content) {
		return nil
	}
	if tryRe.MatchString(file.Content) && catchRe.MatchString(file.Content) {
		return nil
	}
	line := lineOfMatch(file.Content, asyncFnRe)
	return []CodeIssue{{
		ID:              IssueID(file.Path, IssueErrorHandling, line),
		Type:            IssueErrorHandling,
		Severity:        SeverityHigh,
		FilePath:        file.Path,
		LineNumber:      line,
		Title:           "Async function without error handling",
		Description:     "File declares async functions but contains no try/catch construct",
		Suggestion:      "Wrap awaited calls in try/catch or attach a rejection handler",
		AutoFixable:     false,
		EstimatedEffort: "15m",
		TechnicalDebt:   15,
	}}
}

// UntypedEscapes flags files leaning on the dynamic escape hatch annotation
// more than Threshold times.
type UntypedEscapes struct {
	Threshold int
}

var anyAnnotationRe = regexp.MustCompile(`:\s*any\b`)

func (d *UntypedEscapes) Name() string { return "untyped-escapes" }

func (d *UntypedEscapes) Detect(file FileInfo) []CodeIssue {
	threshold := d.Threshold
	if threshold <= 0 {
		threshold = 3
	}
	matches := anyAnnotationRe.FindAllStringIndex(file.Content, -1)
	if len(matches) <= threshold {
		return nil
	}
	line := lineOfOffset(file.Content, matches[0][0])
	return []CodeIssue{{
		ID:              IssueID(file.Path, IssueTypeSafety, line),
		Type:            IssueTypeSafety,
		Severity:        SeverityMedium,
		FilePath:        file.Path,
		LineNumber:      line,
		Title:           fmt.Sprintf("Excessive use of 'any' (%d occurrences)", len(matches)),
		Description:     "Untyped escape hatches defeat static checking across the file",
		Suggestion:      "Replace 'any' with concrete types or 'unknown' plus narrowing",
		AutoFixable:     false,
		EstimatedEffort: "30m",
		TechnicalDebt:   30,
	}}
}

// LongFunctions flags function bodies whose brace-balanced span exceeds
// MaxLines lines.
type LongFunctions struct {
	MaxLines int
}

func (d *LongFunctions) Name() string { return "long-functions" }

func (d *LongFunctions) Detect(file FileInfo) []CodeIssue {
	maxLines := d.MaxLines
	if maxLines <= 0 {
		maxLines = 50
	}

	var issues []CodeIssue
	for _, fn := range FindFunctions(file.Path, file.Content) {
		if fn.Lines <= maxLines {
			continue
		}
		name := fn.Name
		if name == "" {
			name = "anonymous function"
		}
		issues = append(issues, CodeIssue{
			ID:         IssueID(file.Path, IssueComplexity, fn.StartLine),
			Type:       IssueComplexity,
			Severity:   SeverityMedium,
			FilePath:   file.Path,
			LineNumber: fn.StartLine,
			LineRange: &LineRange{
				Start: fn.StartLine,
				End:   fn.StartLine + fn.Lines - 1,
			},
			Title:           fmt.Sprintf("Function %s spans %d lines", name, fn.Lines),
			Description:     fmt.Sprintf("Function bodies over %d lines are hard to follow and test", maxLines),
			Suggestion:      "Extract cohesive sections into named helper functions",
			AutoFixable:     false,
			EstimatedEffort: "1h",
			TechnicalDebt:   60,
		})
	}
	return issues
}

// TodoMarkers flags unresolved TODO and FIXME markers, one issue per marker.
type TodoMarkers struct{}

var todoRe = regexp.MustCompile(`(?i)\b(TODO|FIXME)\b`)

func (d *TodoMarkers) Name() string { return "todo-markers" }

func (d *TodoMarkers) Detect(file FileInfo) []CodeIssue {
	var issues []CodeIssue
	for i, line := range strings.Split(file.Content, "\n") {
		m := todoRe.FindString(line)
		if m == "" {
			continue
		}
		issues = append(issues, CodeIssue{
			ID:              IssueID(file.Path, IssueMaintainability, i+1),
			Type:            IssueMaintainability,
			Severity:        SeverityLow,
			FilePath:        file.Path,
			LineNumber:      i + 1,
			Title:           fmt.Sprintf("Unresolved %s marker", strings.ToUpper(m)),
			Description:     strings.TrimSpace(line),
			Suggestion:      "Resolve the marker or file a tracked ticket and remove it",
			AutoFixable:     false,
			EstimatedEffort: "30m",
			TechnicalDebt:   30,
		})
	}
	return issues
}

// ConsoleLogging flags direct console-style logging, one issue per call site.
type ConsoleLogging struct{}

var consoleRe = regexp.MustCompile(`\bconsole\.(log|warn|error|info|debug)\s*\(`)

func (d *ConsoleLogging) Name() string { return "console-logging" }

func (d *ConsoleLogging) Detect(file FileInfo) []CodeIssue {
	var issues []CodeIssue
	for i, line := range strings.Split(file.Content, "\n") {
		if !consoleRe.MatchString(line) {
			continue
		}
		issues = append(issues, CodeIssue{
			ID:              IssueID(file.Path, IssueMaintainability, i+1),
			Type:            IssueMaintainability,
			Severity:        SeverityLow,
			FilePath:        file.Path,
			LineNumber:      i + 1,
			Title:           "Direct console logging",
			Description:     "Console calls bypass the structured logger",
			Suggestion:      "Use the injected logger so output is leveled and machine-readable",
			AutoFixable:     true,
			EstimatedEffort: "5m",
			TechnicalDebt:   5,
		})
	}
	return issues
}

// HardcodedURLs flags hard-coded absolute URLs outside test files.
type HardcodedURLs struct{}

var urlRe = regexp.MustCompile(`https?://[^\s"'` + "`" + `)]+`)

func (d *HardcodedURLs) Name() string { return "hardcoded-urls" }

func (d *HardcodedURLs) Detect(file FileInfo) []CodeIssue {
	if file.IsTest {
		return nil
	}
	var issues []CodeIssue
	for i, line := range strings.Split(file.Content, "\n") {
		url := urlRe.FindString(line)
		if url == "" {
			continue
		}
		issues = append(issues, CodeIssue{
			ID:              IssueID(file.Path, IssueSecurity, i+1),
			Type:            IssueSecurity,
			Severity:        SeverityMedium,
			FilePath:        file.Path,
			LineNumber:      i + 1,
			Title:           "Hard-coded absolute URL",
			Description:     fmt.Sprintf("URL %q is baked into the source", url),
			Suggestion:      "Move the URL into configuration or an environment variable",
			AutoFixable:     false,
			EstimatedEffort: "20m",
			TechnicalDebt:   20,
		})
	}
	return issues
}

func lineOfMatch(content string, re *regexp.Regexp) int {
	loc := re.FindStringIndex(content)
	if loc == nil {
		return 0
	}
	return lineOfOffset(content, loc[0])
}

func lineOfOffset(content string, offset int) int {
	return strings.Count(content[:offset], "\n") + 1
}
