// Package refactor turns quality findings into prioritized refactoring
// opportunities, assembles executable plans, and applies individual
// opportunities under the guarded-mutation protocol.
package refactor

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"tde/internal/logging"
	"tde/internal/quality"
	"tde/internal/scan"
)

// complexityOpportunityThreshold is the average file complexity above which a
// module gets a synthetic extract-method opportunity
const complexityOpportunityThreshold = 20

// largeDuplicateLines marks a duplicate cluster as high priority when each
// member spans at least this many lines
const largeDuplicateLines = 50

// standardBenefits is the fixed benefit template for issue-derived opportunities
var standardBenefits = []string{
	"Improves code quality",
	"Reduces technical debt",
	"Enhances maintainability",
}

// issueOpportunityTypes maps an issue type to the refactoring that addresses it
var issueOpportunityTypes = map[scan.IssueType]OpportunityType{
	scan.IssueComplexity:      ExtractMethod,
	scan.IssueDuplication:     RemoveDuplication,
	scan.IssueErrorHandling:   ImproveErrorHandling,
	scan.IssueTypeSafety:      AddTypeAnnotations,
	scan.IssueMaintainability: OptimizeImports,
	scan.IssueSecurity:        ReplaceMagicNumbers,
	scan.IssuePerformance:     SimplifyConditional,
}

// severityPriorities maps issue severity to opportunity priority
var severityPriorities = map[scan.Severity]Priority{
	scan.SeverityCritical: PriorityCritical,
	scan.SeverityHigh:     PriorityHigh,
	scan.SeverityMedium:   PriorityMedium,
	scan.SeverityLow:      PriorityLow,
	scan.SeverityInfo:     PriorityLow,
}

// Planner derives opportunities from analysis reports
type Planner struct {
	analyzer *quality.Analyzer
	logger   *logging.Logger
}

// NewPlanner creates a planner over the given analyzer
func NewPlanner(analyzer *quality.Analyzer, logger *logging.Logger) *Planner {
	return &Planner{analyzer: analyzer, logger: logger}
}

// Identify regenerates the opportunity list. moduleName narrows the run to
// one module; empty means the whole project. Output is stably sorted by
// priority rank with discovery order preserved within each rank.
func (p *Planner) Identify(ctx context.Context, moduleName string) ([]Opportunity, error) {
	var reports []quality.ModuleReport

	if moduleName != "" {
		report, err := p.analyzer.AnalyzeModule(ctx, moduleName, quality.Options{})
		if err != nil {
			return nil, err
		}
		reports = []quality.ModuleReport{*report}
	} else {
		project, err := p.analyzer.AnalyzeProject(ctx, quality.Options{})
		if err != nil {
			return nil, err
		}
		reports = project.Modules
	}

	opportunities := make([]Opportunity, 0)
	for _, report := range reports {
		opportunities = append(opportunities, p.fromIssues(report)...)
		if opp := p.fromModuleComplexity(report); opp != nil {
			opportunities = append(opportunities, *opp)
		}
		opportunities = append(opportunities, p.fromDuplicateClusters(report)...)
	}

	sort.SliceStable(opportunities, func(i, j int) bool {
		return opportunities[i].Priority.Rank() < opportunities[j].Priority.Rank()
	})

	p.logger.Debug("Identified refactoring opportunities", map[string]interface{}{
		"module": moduleName,
		"count":  len(opportunities),
	})
	return opportunities, nil
}

// fromIssues lifts every auto-fixable issue 1:1 into an opportunity
func (p *Planner) fromIssues(report quality.ModuleReport) []Opportunity {
	var opportunities []Opportunity
	for _, issue := range report.Issues {
		if !issue.AutoFixable {
			continue
		}
		oppType, ok := issueOpportunityTypes[issue.Type]
		if !ok {
			continue
		}
		opportunities = append(opportunities, Opportunity{
			ID:              OpportunityID("issue|" + issue.ID),
			Type:            oppType,
			Priority:        severityPriorities[issue.Severity],
			Title:           issue.Title,
			Description:     issue.Description,
			Module:          report.Module,
			AffectedFiles:   []string{issue.FilePath},
			Benefits:        standardBenefits,
			EstimatedEffort: issue.EstimatedEffort,
			RiskLevel:       RiskLow,
			AutoApplicable:  true,
			SourceIssueID:   issue.ID,
		})
	}
	return opportunities
}

// fromModuleComplexity synthesizes an extract-method opportunity for modules
// whose average file complexity exceeds the threshold
func (p *Planner) fromModuleComplexity(report quality.ModuleReport) *Opportunity {
	if report.AverageFileComplexity <= complexityOpportunityThreshold {
		return nil
	}

	files := make([]string, 0, len(report.Complexity.HighComplexityFunctions))
	seen := map[string]bool{}
	for _, fn := range report.Complexity.HighComplexityFunctions {
		if !seen[fn.FilePath] {
			seen[fn.FilePath] = true
			files = append(files, fn.FilePath)
		}
	}

	return &Opportunity{
		ID:       OpportunityID("module-complexity|" + report.Module),
		Type:     ExtractMethod,
		Priority: PriorityHigh,
		Title:    fmt.Sprintf("Reduce complexity in module %s", report.Module),
		Description: fmt.Sprintf("Average file complexity is %.1f, above the threshold of %d",
			report.AverageFileComplexity, complexityOpportunityThreshold),
		Module:          report.Module,
		AffectedFiles:   files,
		Benefits:        []string{"Lowers cognitive load", "Makes hot paths testable in isolation"},
		EstimatedEffort: "4h",
		RiskLevel:       RiskMedium,
		AutoApplicable:  false,
	}
}

// fromDuplicateClusters yields one remove-duplication opportunity per cluster
func (p *Planner) fromDuplicateClusters(report quality.ModuleReport) []Opportunity {
	var opportunities []Opportunity
	for _, cluster := range report.DuplicateClusters {
		priority := PriorityMedium
		if cluster.Lines >= largeDuplicateLines {
			priority = PriorityHigh
		}
		opportunities = append(opportunities, Opportunity{
			ID:       OpportunityID("duplication|" + strings.Join(cluster.Files, ",")),
			Type:     RemoveDuplication,
			Priority: priority,
			Title:    fmt.Sprintf("Deduplicate %d identical files", len(cluster.Files)),
			Description: fmt.Sprintf("Files share one normalized fingerprint across %d lines: %s",
				cluster.Lines, strings.Join(cluster.Files, ", ")),
			Module:          report.Module,
			AffectedFiles:   cluster.Files,
			Benefits:        []string{"Single point of change", "Smaller surface for drift bugs"},
			EstimatedEffort: "1h",
			RiskLevel:       RiskLow,
			AutoApplicable:  true,
			Suggestion: &Suggestion{
				Before: "N copies of the same logic",
				After:  "One canonical file re-exported by the others",
			},
		})
	}
	return opportunities
}

// CreatePlan bundles the critical/high subset of opportunities into a plan.
// An empty input yields an empty plan, not an error.
func (p *Planner) CreatePlan(name string, opportunities []Opportunity) *Plan {
	selected := make([]Opportunity, 0)
	for _, opp := range opportunities {
		if opp.Priority == PriorityCritical || opp.Priority == PriorityHigh {
			selected = append(selected, opp)
		}
	}

	plan := &Plan{
		ID:                   uuid.NewString(),
		Name:                 name,
		CreatedAt:            time.Now(),
		Opportunities:        selected,
		EstimatedTotalEffort: formatEffort(len(selected) * 2),
		ExpectedImpact:       expectedImpact(len(selected)),
		Risks:                planRisks(selected),
	}
	return plan
}

// formatEffort renders hours, switching to days above a working day
func formatEffort(hours int) string {
	if hours <= 8 {
		return fmt.Sprintf("%d hours", hours)
	}
	days := float64(hours) / 8
	return fmt.Sprintf("%.1f days", days)
}

// expectedImpact is sub-linear on purpose: large batches must not imply
// unbounded payoff
func expectedImpact(count int) Impact {
	return Impact{
		QualityScoreDelta:    capped(float64(count)*2, 20),
		ComplexityReduction:  capped(float64(count)*1.5, 15),
		MaintainabilityDelta: capped(float64(count)*3, 25),
	}
}

func capped(v, cap float64) float64 {
	if v > cap {
		return cap
	}
	return v
}

// planRisks accumulates risk statements; the list is never empty
func planRisks(selected []Opportunity) []string {
	var risks []string

	highRisk := 0
	affectedFiles := 0
	manual := 0
	for _, opp := range selected {
		if opp.RiskLevel == RiskHigh {
			highRisk++
		}
		affectedFiles += len(opp.AffectedFiles)
		if !opp.AutoApplicable {
			manual++
		}
	}

	if highRisk > 0 {
		risks = append(risks, fmt.Sprintf("%d high-risk opportunities require careful review", highRisk))
	}
	if affectedFiles > 20 {
		risks = append(risks, fmt.Sprintf("Plan touches %d files; apply in small batches", affectedFiles))
	}
	if manual > 0 {
		risks = append(risks, fmt.Sprintf("%d opportunities need manual confirmation before applying", manual))
	}

	if len(risks) == 0 {
		risks = append(risks, "Low risk: all selected refactorings are automated and reversible")
	}
	return risks
}
