package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"tde/internal/deps"
	"tde/internal/errors"
	"tde/internal/quality"
	"tde/internal/refactor"
)

// topOpportunityCount bounds the dashboard's opportunity list
const topOpportunityCount = 10

// Dashboard is the composed read view: project quality, the highest-ranked
// opportunities, the apply history summary, and the dependency summary.
// Assembled fresh per call from the pipelines' own snapshots.
type Dashboard struct {
	ProjectScore     quality.Score          `json:"projectScore" yaml:"projectScore"`
	Summary          quality.Summary        `json:"summary" yaml:"summary"`
	ModuleCount      int                    `json:"moduleCount" yaml:"moduleCount"`
	TopOpportunities []refactor.Opportunity `json:"topOpportunities" yaml:"topOpportunities"`
	RefactoringStats refactor.Stats         `json:"refactoringStats" yaml:"refactoringStats"`
	Dependencies     deps.ReportSummary     `json:"dependencies" yaml:"dependencies"`
	GeneratedAt      time.Time              `json:"generatedAt" yaml:"generatedAt"`
}

// Dashboard composes the full read view in one pass. The pipelines run
// sequentially; a dependency-probe failure degrades that section but the
// quality and refactoring sections still render.
func (e *Engine) Dashboard(ctx context.Context) (*Dashboard, error) {
	project, err := e.analyzer.AnalyzeProject(ctx, quality.Options{})
	if err != nil {
		return nil, err
	}

	opportunities, err := e.planner.Identify(ctx, "")
	if err != nil {
		return nil, err
	}
	if len(opportunities) > topOpportunityCount {
		opportunities = opportunities[:topOpportunityCount]
	}

	stats, err := e.applier.Stats()
	if err != nil {
		return nil, err
	}

	depReport, err := e.auditor.Analyze(ctx)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		ProjectScore:     project.Score,
		Summary:          project.Summary,
		ModuleCount:      len(project.Modules),
		TopOpportunities: opportunities,
		RefactoringStats: stats,
		Dependencies:     depReport.Summary,
		GeneratedAt:      time.Now(),
	}, nil
}

// ExportFormat selects the report serialization
type ExportFormat string

const (
	FormatJSON ExportFormat = "json"
	FormatYAML ExportFormat = "yaml"
)

// Export serializes any report value to w in the requested format
func Export(w io.Writer, v interface{}, format ExportFormat) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			enc.Close()
			return err
		}
		return enc.Close()
	default:
		return errors.New(errors.InvalidInput, fmt.Sprintf("unknown export format %q", format))
	}
}
