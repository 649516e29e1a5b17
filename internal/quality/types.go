package quality

import (
	"time"

	"tde/internal/scan"
)

// Named sub-metrics of a quality score
const (
	MetricComplexity      = "complexity"
	MetricMaintainability = "maintainability"
	MetricDuplication     = "duplication"
	MetricTestCoverage    = "test-coverage"
	MetricDocumentation   = "documentation"
	MetricErrorHandling   = "error-handling"
	MetricTypeSafety      = "type-safety"
)

// AllMetrics lists the sub-metrics in aggregation order
var AllMetrics = []string{
	MetricComplexity,
	MetricMaintainability,
	MetricDuplication,
	MetricTestCoverage,
	MetricDocumentation,
	MetricErrorHandling,
	MetricTypeSafety,
}

// metricWeights is the fixed weighting of sub-metrics into the overall score
var metricWeights = map[string]float64{
	MetricComplexity:      0.20,
	MetricMaintainability: 0.25,
	MetricDuplication:     0.15,
	MetricTestCoverage:    0.15,
	MetricDocumentation:   0.10,
	MetricErrorHandling:   0.10,
	MetricTypeSafety:      0.05,
}

// Level classifies an overall score
type Level string

const (
	LevelExcellent Level = "excellent"
	LevelGood      Level = "good"
	LevelFair      Level = "fair"
	LevelPoor      Level = "poor"
	LevelCritical  Level = "critical"
)

// LevelOf maps a 0-100 score to its level
func LevelOf(score float64) Level {
	switch {
	case score >= 90:
		return LevelExcellent
	case score >= 75:
		return LevelGood
	case score >= 60:
		return LevelFair
	case score >= 40:
		return LevelPoor
	default:
		return LevelCritical
	}
}

// Score is a 0-100 quality score with its named sub-metrics. Scores are
// recomputed from scratch on every analysis run, never patched in place.
type Score struct {
	Overall   float64            `json:"overall"`
	Metrics   map[string]float64 `json:"metrics"`
	Level     Level              `json:"level"`
	Timestamp time.Time          `json:"timestamp"`
}

// ComplexityStats summarizes per-function complexity for a scope
type ComplexityStats struct {
	Average float64 `json:"average"`
	Max     int     `json:"max"`

	// HighComplexityFunctions locates functions above the reporting threshold
	HighComplexityFunctions []scan.FunctionSpan `json:"highComplexityFunctions"`
}

// ModuleReport is the analysis result for one module
type ModuleReport struct {
	Module             string             `json:"module"`
	Score              Score              `json:"score"`
	Issues             []scan.CodeIssue   `json:"issues"`
	FileCount          int                `json:"fileCount"`
	LineCount          int                `json:"lineCount"`
	Complexity         ComplexityStats    `json:"complexity"`
	DuplicationPercent float64            `json:"duplicationPercent"`
	DuplicateClusters  []DuplicateCluster `json:"duplicateClusters"`

	// AverageFileComplexity is the mean whole-file complexity, used by the
	// refactoring planner's extract-method heuristic
	AverageFileComplexity float64 `json:"averageFileComplexity"`
}

// DuplicateCluster groups files sharing one content fingerprint
type DuplicateCluster struct {
	Files []string `json:"files"`

	// Lines is the size of one member file; members are near-identical
	Lines int `json:"lines"`
}

// Summary is the project-level roll-up
type Summary struct {
	TotalIssues          int                   `json:"totalIssues"`
	IssuesBySeverity     map[scan.Severity]int `json:"issuesBySeverity"`
	TechnicalDebtMinutes int                   `json:"technicalDebtMinutes"`
	DuplicationPercent   float64               `json:"duplicationPercent"`
}

// ProjectReport is the analysis result for the whole project
type ProjectReport struct {
	Score   Score          `json:"score"`
	Modules []ModuleReport `json:"modules"`
	Summary Summary        `json:"summary"`
}

// Metrics is the compact dashboard view of a project analysis
type Metrics struct {
	ModuleCount          int                   `json:"moduleCount"`
	FileCount            int                   `json:"fileCount"`
	LineCount            int                   `json:"lineCount"`
	IssueCount           int                   `json:"issueCount"`
	IssuesBySeverity     map[scan.Severity]int `json:"issuesBySeverity"`
	TechnicalDebtMinutes int                   `json:"technicalDebtMinutes"`
	AverageComplexity    float64               `json:"averageComplexity"`
	OverallScore         float64               `json:"overallScore"`
	Level                Level                 `json:"level"`
}
