package refactor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tde/internal/config"
	"tde/internal/logging"
	"tde/internal/quality"
	"tde/internal/scan"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func newTestPlanner(t *testing.T, root string) *Planner {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.ProjectRoot = root
	scanner := scan.NewScanner(root, scan.DefaultDetectors(scan.DefaultTuning()), logging.Nop())
	analyzer := quality.NewAnalyzerWithScanner(cfg, scanner, logging.Nop())
	return NewPlanner(analyzer, logging.Nop())
}

// complexContent builds a file whose complexity is far above the module threshold
func complexContent() string {
	var b strings.Builder
	b.WriteString("function decide(x) {\n")
	for i := 0; i < 25; i++ {
		b.WriteString("  if (x) { x--; }\n")
	}
	b.WriteString("  return x;\n}\n")
	return b.String()
}

func duplicatePair() (string, string) {
	a := "function add(a, b) {\n  const total = a + b;\n  return total;\n}\n"
	b := "function sum(x, y) {\n  const result = x + y;\n  return result;\n}\n"
	return a, b
}

func TestIdentifySortedByPriority(t *testing.T) {
	root := t.TempDir()
	dupA, dupB := duplicatePair()
	writeFile(t, root, "api/complex.ts", complexContent()) // high (synthetic extract-method)
	writeFile(t, root, "api/log.ts", "console.log('x');\n") // low (console issue)
	writeFile(t, root, "api/a.ts", dupA)                    // medium (small duplicate cluster)
	writeFile(t, root, "api/b.ts", dupB)

	opportunities, err := newTestPlanner(t, root).Identify(context.Background(), "api")
	if err != nil {
		t.Fatalf("Identify() error = %v", err)
	}
	if len(opportunities) == 0 {
		t.Fatal("no opportunities identified")
	}

	for i := 1; i < len(opportunities); i++ {
		if opportunities[i-1].Priority.Rank() > opportunities[i].Priority.Rank() {
			t.Errorf("opportunities out of order at %d: %s before %s",
				i, opportunities[i-1].Priority, opportunities[i].Priority)
		}
	}
}

func TestIdentifyLiftsAutoFixableIssues(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "api/log.ts", "console.log('one');\nconsole.log('two');\n")

	opportunities, err := newTestPlanner(t, root).Identify(context.Background(), "api")
	if err != nil {
		t.Fatal(err)
	}

	lifted := 0
	for _, opp := range opportunities {
		if opp.SourceIssueID != "" {
			lifted++
			if !opp.AutoApplicable {
				t.Error("issue-derived opportunity should be auto-applicable")
			}
			if len(opp.Benefits) != 3 {
				t.Errorf("benefits = %v, want the fixed 3-entry template", opp.Benefits)
			}
		}
	}
	if lifted != 2 {
		t.Errorf("lifted %d issue opportunities, want 2 (one per console.log)", lifted)
	}
}

func TestIdentifySynthesizesModuleComplexityOpportunity(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "api/complex.ts", complexContent())

	opportunities, err := newTestPlanner(t, root).Identify(context.Background(), "api")
	if err != nil {
		t.Fatal(err)
	}

	var found *Opportunity
	for i := range opportunities {
		if opportunities[i].Type == ExtractMethod && opportunities[i].SourceIssueID == "" {
			found = &opportunities[i]
			break
		}
	}
	if found == nil {
		t.Fatal("no synthetic extract-method opportunity for a high-complexity module")
	}
	if found.Priority != PriorityHigh {
		t.Errorf("priority = %q, want high", found.Priority)
	}
	if found.AutoApplicable {
		t.Error("synthetic complexity opportunity must not be auto-applicable")
	}
	if found.RiskLevel != RiskMedium {
		t.Errorf("riskLevel = %q, want medium", found.RiskLevel)
	}
}

func TestIdentifyDuplicateClusterOpportunity(t *testing.T) {
	root := t.TempDir()
	dupA, dupB := duplicatePair()
	writeFile(t, root, "api/a.ts", dupA)
	writeFile(t, root, "api/b.ts", dupB)

	opportunities, err := newTestPlanner(t, root).Identify(context.Background(), "api")
	if err != nil {
		t.Fatal(err)
	}

	var found *Opportunity
	for i := range opportunities {
		if opportunities[i].Type == RemoveDuplication {
			found = &opportunities[i]
			break
		}
	}
	if found == nil {
		t.Fatal("no remove-duplication opportunity for a duplicate pair")
	}
	if len(found.AffectedFiles) != 2 {
		t.Errorf("affectedFiles = %v", found.AffectedFiles)
	}
	if !found.AutoApplicable || found.RiskLevel != RiskLow {
		t.Errorf("opportunity = %+v, want auto-applicable low risk", found)
	}
	// Small files stay medium priority
	if found.Priority != PriorityMedium {
		t.Errorf("priority = %q, want medium for a small duplicate", found.Priority)
	}
}

func TestIdentifyStableIDs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "api/log.ts", "console.log('x');\n")

	planner := newTestPlanner(t, root)
	first, err := planner.Identify(context.Background(), "api")
	if err != nil {
		t.Fatal(err)
	}
	second, err := planner.Identify(context.Background(), "api")
	if err != nil {
		t.Fatal(err)
	}

	if len(first) != len(second) {
		t.Fatalf("regeneration changed count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("opportunity %d id changed across regenerations: %q vs %q", i, first[i].ID, second[i].ID)
		}
	}
}

func TestCreatePlanSelectsCriticalAndHigh(t *testing.T) {
	opportunities := []Opportunity{
		{ID: "1", Priority: PriorityCritical},
		{ID: "2", Priority: PriorityHigh},
		{ID: "3", Priority: PriorityMedium},
		{ID: "4", Priority: PriorityLow},
	}

	plan := newTestPlanner(t, t.TempDir()).CreatePlan("sprint", opportunities)
	if len(plan.Opportunities) != 2 {
		t.Fatalf("selected %d opportunities, want 2", len(plan.Opportunities))
	}
	if plan.EstimatedTotalEffort != "4 hours" {
		t.Errorf("effort = %q, want 4 hours", plan.EstimatedTotalEffort)
	}
}

func TestCreatePlanEffortSwitchesToDays(t *testing.T) {
	opportunities := make([]Opportunity, 6)
	for i := range opportunities {
		opportunities[i] = Opportunity{Priority: PriorityHigh}
	}

	plan := newTestPlanner(t, t.TempDir()).CreatePlan("big", opportunities)
	// 6 × 2h = 12h > 8h → days
	if plan.EstimatedTotalEffort != "1.5 days" {
		t.Errorf("effort = %q, want 1.5 days", plan.EstimatedTotalEffort)
	}
}

func TestCreatePlanImpactIsCapped(t *testing.T) {
	opportunities := make([]Opportunity, 50)
	for i := range opportunities {
		opportunities[i] = Opportunity{Priority: PriorityCritical}
	}

	plan := newTestPlanner(t, t.TempDir()).CreatePlan("huge", opportunities)
	impact := plan.ExpectedImpact
	if impact.QualityScoreDelta != 20 || impact.ComplexityReduction != 15 || impact.MaintainabilityDelta != 25 {
		t.Errorf("impact = %+v, want caps 20/15/25", impact)
	}
}

func TestCreatePlanRisksNeverEmpty(t *testing.T) {
	planner := newTestPlanner(t, t.TempDir())

	tests := []struct {
		name          string
		opportunities []Opportunity
	}{
		{"empty input", nil},
		{"benign opportunities", []Opportunity{
			{Priority: PriorityHigh, RiskLevel: RiskLow, AutoApplicable: true},
		}},
		{"high risk", []Opportunity{
			{Priority: PriorityCritical, RiskLevel: RiskHigh, AutoApplicable: true},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := planner.CreatePlan("p", tt.opportunities)
			if len(plan.Risks) == 0 {
				t.Error("plan risks must never be empty")
			}
		})
	}
}

func TestCreatePlanEmptyInputYieldsEmptyPlan(t *testing.T) {
	plan := newTestPlanner(t, t.TempDir()).CreatePlan("empty", nil)
	if len(plan.Opportunities) != 0 {
		t.Errorf("opportunities = %v", plan.Opportunities)
	}
	if plan.EstimatedTotalEffort != "0 hours" {
		t.Errorf("effort = %q", plan.EstimatedTotalEffort)
	}
}
