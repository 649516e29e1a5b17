package scan

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Severity classifies how urgent an issue is
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// severityRank orders severities from most to least urgent
var severityRank = map[Severity]int{
	SeverityCritical: 0,
	SeverityHigh:     1,
	SeverityMedium:   2,
	SeverityLow:      3,
	SeverityInfo:     4,
}

// Rank returns the sort rank of a severity (critical first)
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return len(severityRank)
}

// IssueType classifies what kind of problem an issue describes
type IssueType string

const (
	IssueComplexity      IssueType = "complexity"
	IssueDuplication     IssueType = "duplication"
	IssueErrorHandling   IssueType = "error-handling"
	IssuePerformance     IssueType = "performance"
	IssueSecurity        IssueType = "security"
	IssueMaintainability IssueType = "maintainability"
	IssueTypeSafety      IssueType = "type-safety"
)

// LineRange is an inclusive span of lines within a file
type LineRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// CodeIssue is one detected problem in one file. Issues are immutable once
// created; downstream stages consume them but never modify them.
type CodeIssue struct {
	ID              string     `json:"id"`
	Type            IssueType  `json:"type"`
	Severity        Severity   `json:"severity"`
	FilePath        string     `json:"filePath"`
	LineNumber      int        `json:"lineNumber,omitempty"`
	LineRange       *LineRange `json:"lineRange,omitempty"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Suggestion      string     `json:"suggestion,omitempty"`
	AutoFixable     bool       `json:"autoFixable"`
	EstimatedEffort string     `json:"estimatedEffort,omitempty"`

	// TechnicalDebt is the remediation cost in minutes, summable across issues
	TechnicalDebt int `json:"technicalDebt"`
}

// IssueID builds a stable issue id from file path, issue type, and location.
// The same finding at the same spot hashes to the same id on every run.
func IssueID(filePath string, issueType IssueType, line int) string {
	return fmt.Sprintf("issue-%016x", xxhash.Sum64String(fmt.Sprintf("%s|%s|%d", filePath, issueType, line)))
}

// FunctionSpan locates one function body found by brace tracking
type FunctionSpan struct {
	Name       string `json:"name,omitempty"`
	FilePath   string `json:"filePath"`
	StartLine  int    `json:"startLine"`
	Lines      int    `json:"lines"`
	Complexity int    `json:"complexity"`
}

// FileScan is the result of scanning one source file
type FileScan struct {
	Path        string         `json:"path"`
	Lines       int            `json:"lines"`
	Complexity  int            `json:"complexity"`
	Fingerprint uint64         `json:"fingerprint"`
	Issues      []CodeIssue    `json:"issues"`
	Functions   []FunctionSpan `json:"functions,omitempty"`
	IsTest      bool           `json:"isTest"`

	// HasDoc reports whether the file carries any doc-block comment
	HasDoc bool `json:"hasDoc"`
}

// DirScan aggregates the file scans of one directory subtree
type DirScan struct {
	Dir   string     `json:"dir"`
	Files []FileScan `json:"files"`

	// TestFileCount counts test files seen during the walk, including ones
	// skipped by the IncludeTests option. Feeds the coverage proxy.
	TestFileCount int `json:"testFileCount"`
}

// AllIssues returns every issue across all scanned files, in file order
func (d *DirScan) AllIssues() []CodeIssue {
	var issues []CodeIssue
	for _, f := range d.Files {
		issues = append(issues, f.Issues...)
	}
	return issues
}

// DuplicateGroups returns fingerprint groups with more than one file
func (d *DirScan) DuplicateGroups() [][]FileScan {
	byPrint := make(map[uint64][]FileScan)
	order := make([]uint64, 0)
	for _, f := range d.Files {
		if _, seen := byPrint[f.Fingerprint]; !seen {
			order = append(order, f.Fingerprint)
		}
		byPrint[f.Fingerprint] = append(byPrint[f.Fingerprint], f)
	}

	var groups [][]FileScan
	for _, fp := range order {
		if files := byPrint[fp]; len(files) > 1 {
			groups = append(groups, files)
		}
	}
	return groups
}

// DuplicationPercent computes file-granularity duplication: the share of files
// participating in any duplicate group, out of all scanned files.
func (d *DirScan) DuplicationPercent() float64 {
	if len(d.Files) == 0 {
		return 0
	}
	duplicated := 0
	for _, g := range d.DuplicateGroups() {
		duplicated += len(g)
	}
	return float64(duplicated) / float64(len(d.Files)) * 100
}
