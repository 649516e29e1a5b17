package quality

import (
	"time"

	"tde/internal/scan"
)

// Sub-scores start from 100 and lose points per finding; every sub-score is
// floored at 0 before weighting. The formulas are deliberately simple penalty
// schedules, not calibrated statistics: run-over-run reproducibility matters
// more here than metric sophistication.

// scoreInputs carries everything the sub-metric formulas need
type scoreInputs struct {
	issuesByType       map[scan.IssueType]int
	avgFileComplexity  float64
	duplicationPercent float64
	fileCount          int
	testFileCount      int
	docFileCount       int
}

func gatherInputs(result *scan.DirScan) scoreInputs {
	in := scoreInputs{
		issuesByType:       make(map[scan.IssueType]int),
		duplicationPercent: result.DuplicationPercent(),
		fileCount:          len(result.Files),
		testFileCount:      result.TestFileCount,
	}

	totalComplexity := 0
	for _, f := range result.Files {
		totalComplexity += f.Complexity
		if f.HasDoc {
			in.docFileCount++
		}
		for _, issue := range f.Issues {
			in.issuesByType[issue.Type]++
		}
	}
	if in.fileCount > 0 {
		in.avgFileComplexity = float64(totalComplexity) / float64(in.fileCount)
	}
	return in
}

func (in scoreInputs) complexityScore() float64 {
	return clamp(100 - 2*in.avgFileComplexity - 5*float64(in.issuesByType[scan.IssueComplexity]))
}

func (in scoreInputs) maintainabilityScore() float64 {
	return clamp(100 - 5*float64(in.issuesByType[scan.IssueMaintainability]) - in.avgFileComplexity)
}

func (in scoreInputs) duplicationScore() float64 {
	return clamp(100 - in.duplicationPercent - 10*float64(in.issuesByType[scan.IssueDuplication]))
}

// testCoverageScore is a proxy: the ratio of test files to source files.
// One test file per source file scores 100.
func (in scoreInputs) testCoverageScore() float64 {
	if in.fileCount == 0 {
		return 0
	}
	return clamp(float64(in.testFileCount) / float64(in.fileCount) * 100)
}

// documentationScore is a proxy: the share of files carrying doc comments.
func (in scoreInputs) documentationScore() float64 {
	if in.fileCount == 0 {
		return 0
	}
	return clamp(float64(in.docFileCount) / float64(in.fileCount) * 100)
}

func (in scoreInputs) errorHandlingScore() float64 {
	return clamp(100 - 10*float64(in.issuesByType[scan.IssueErrorHandling]))
}

func (in scoreInputs) typeSafetyScore() float64 {
	return clamp(100 - 10*float64(in.issuesByType[scan.IssueTypeSafety]))
}

// ComputeScore derives a module score from a directory scan
func ComputeScore(result *scan.DirScan, now time.Time) Score {
	in := gatherInputs(result)

	metrics := map[string]float64{
		MetricComplexity:      in.complexityScore(),
		MetricMaintainability: in.maintainabilityScore(),
		MetricDuplication:     in.duplicationScore(),
		MetricTestCoverage:    in.testCoverageScore(),
		MetricDocumentation:   in.documentationScore(),
		MetricErrorHandling:   in.errorHandlingScore(),
		MetricTypeSafety:      in.typeSafetyScore(),
	}

	overall := 0.0
	for name, weight := range metricWeights {
		overall += metrics[name] * weight
	}
	overall = clamp(overall)

	return Score{
		Overall:   overall,
		Metrics:   metrics,
		Level:     LevelOf(overall),
		Timestamp: now,
	}
}

// ZeroScore is the score of an empty or unknown module
func ZeroScore(now time.Time) Score {
	metrics := make(map[string]float64, len(AllMetrics))
	for _, name := range AllMetrics {
		metrics[name] = 0
	}
	return Score{
		Overall:   0,
		Metrics:   metrics,
		Level:     LevelOf(0),
		Timestamp: now,
	}
}

// AverageScores computes the project score as the arithmetic mean of module
// overall scores and of each sub-metric across modules. This is intentionally
// an average of averages, not a recomputation from the pooled issue list:
// dashboards compare it run over run and depend on the exact semantic.
func AverageScores(moduleScores []Score, now time.Time) Score {
	if len(moduleScores) == 0 {
		return ZeroScore(now)
	}

	metrics := make(map[string]float64, len(AllMetrics))
	overall := 0.0
	for _, s := range moduleScores {
		overall += s.Overall
		for _, name := range AllMetrics {
			metrics[name] += s.Metrics[name]
		}
	}

	n := float64(len(moduleScores))
	overall /= n
	for _, name := range AllMetrics {
		metrics[name] /= n
	}

	return Score{
		Overall:   overall,
		Metrics:   metrics,
		Level:     LevelOf(overall),
		Timestamp: now,
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
