package deps

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"tde/internal/config"
	"tde/internal/logging"
	"tde/internal/toolrun"
)

// testConfig gives every probe its own command head so the fake runner can
// answer them independently
func testConfig(root string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.ProjectRoot = root
	cfg.Deps.AuditCommand = []string{"audit-tool"}
	cfg.Deps.OutdatedCommand = []string{"outdated-tool"}
	cfg.Deps.UnusedCommand = []string{"unused-tool"}
	cfg.Deps.InstallCommand = []string{"install-tool"}
	cfg.Deps.TestCommand = []string{"test-tool"}
	return cfg
}

func writeManifest(t *testing.T, root, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(root, "package.json"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

const sampleManifest = `{
  "name": "app",
  "version": "1.0.0",
  "dependencies": {"express": "4.17.1", "lodash": "4.17.20"},
  "devDependencies": {"jest": "29.0.0"}
}`

const sampleAudit = `{
  "vulnerabilities": {
    "lodash": {
      "name": "lodash",
      "severity": "high",
      "range": "<4.17.21",
      "via": [{"title": "Prototype Pollution", "url": "https://example.com/advisory/1", "range": "<4.17.21"}],
      "fixAvailable": {"name": "lodash", "version": "4.17.21"}
    }
  }
}`

const sampleOutdated = `{
  "express": {"current": "4.17.1", "wanted": "4.18.2", "latest": "5.0.0"},
  "lodash": {"current": "4.17.20", "wanted": "4.17.21", "latest": "4.17.21"}
}`

const sampleUnused = `{"dependencies": ["lodash"], "devDependencies": []}`

func fullFake() *toolrun.FakeRunner {
	return &toolrun.FakeRunner{
		Results: map[string][]byte{
			"audit-tool":    []byte(sampleAudit),
			"outdated-tool": []byte(sampleOutdated),
			"unused-tool":   []byte(sampleUnused),
		},
	}
}

func TestAnalyzeMergesAllProbes(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, sampleManifest)

	auditor := NewAuditor(testConfig(root), fullFake(), logging.Nop())
	report, err := auditor.Analyze(context.Background())
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if report.Summary.TotalDependencies != 3 {
		t.Errorf("totalDependencies = %d, want 3", report.Summary.TotalDependencies)
	}
	if report.Summary.VulnerabilityCount != 1 || report.Summary.OutdatedCount != 2 || report.Summary.UnusedCount != 1 {
		t.Errorf("summary = %+v", report.Summary)
	}

	// Outdated probe folded back into the declared list
	byName := map[string]Dependency{}
	for _, dep := range report.Dependencies {
		byName[dep.Name] = dep
	}
	if express := byName["express"]; express.Status != StatusMajorUpdate || express.LatestVersion != "5.0.0" {
		t.Errorf("express = %+v, want major-update to 5.0.0", express)
	}
	if lodash := byName["lodash"]; lodash.Status != StatusMinorUpdate {
		t.Errorf("lodash = %+v, want minor-update", lodash)
	}
	if jest := byName["jest"]; jest.Status != StatusUpToDate || jest.Type != TypeDev {
		t.Errorf("jest = %+v, want up-to-date dev dependency", jest)
	}
}

func TestAnalyzeDegradesFailedProbes(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, sampleManifest)

	runner := &toolrun.FakeRunner{
		Results: map[string][]byte{
			"audit-tool": []byte("not json"),
		},
		Errors: map[string]error{
			"outdated-tool": fmt.Errorf("exit status 7"),
			"unused-tool":   fmt.Errorf("command not found"),
		},
	}

	auditor := NewAuditor(testConfig(root), runner, logging.Nop())
	report, err := auditor.Analyze(context.Background())
	if err != nil {
		t.Fatalf("Analyze() error = %v, failed probes must degrade instead", err)
	}

	if len(report.Vulnerabilities) != 0 || len(report.Outdated) != 0 || len(report.Unused) != 0 {
		t.Errorf("failed probes should yield empty sections: %+v", report.Summary)
	}
	// The manifest probe still succeeded
	if report.Summary.TotalDependencies != 3 {
		t.Errorf("totalDependencies = %d, want 3", report.Summary.TotalDependencies)
	}
}

func TestAnalyzeMissingManifest(t *testing.T) {
	root := t.TempDir()

	auditor := NewAuditor(testConfig(root), &toolrun.FakeRunner{}, logging.Nop())
	report, err := auditor.Analyze(context.Background())
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(report.Dependencies) != 0 {
		t.Errorf("dependencies = %v, want empty without a manifest", report.Dependencies)
	}
}

func TestCheckVulnerabilitiesParsesAdvisory(t *testing.T) {
	root := t.TempDir()
	auditor := NewAuditor(testConfig(root), fullFake(), logging.Nop())

	vulns := auditor.CheckVulnerabilities(context.Background())
	if len(vulns) != 1 {
		t.Fatalf("vulnerabilities = %d, want 1", len(vulns))
	}

	vuln := vulns[0]
	if vuln.Package != "lodash" || vuln.Severity != VulnHigh {
		t.Errorf("vulnerability = %+v", vuln)
	}
	if vuln.Title != "Prototype Pollution" {
		t.Errorf("title = %q", vuln.Title)
	}
	if vuln.PatchedVersion != "4.17.21" {
		t.Errorf("patchedVersion = %q", vuln.PatchedVersion)
	}
	if len(vuln.References) != 1 {
		t.Errorf("references = %v", vuln.References)
	}
}

func TestCheckOutdatedParsesDespiteExitError(t *testing.T) {
	root := t.TempDir()
	runner := &toolrun.FakeRunner{
		Results: map[string][]byte{"outdated-tool": []byte(sampleOutdated)},
		// The outdated probe exits non-zero whenever anything is outdated
		Errors: map[string]error{"outdated-tool": fmt.Errorf("exit status 1")},
	}
	auditor := NewAuditor(testConfig(root), runner, logging.Nop())

	outdated := auditor.CheckOutdated(context.Background())
	if len(outdated) != 2 {
		t.Fatalf("outdated = %d, want 2", len(outdated))
	}
	if outdated[0].Package != "express" || outdated[0].LatestVersion != "5.0.0" {
		t.Errorf("first entry = %+v", outdated[0])
	}
}

func TestRecommendVulnerabilityFirst(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, sampleManifest)
	auditor := NewAuditor(testConfig(root), fullFake(), logging.Nop())

	report, err := auditor.Analyze(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	recommendations := auditor.Recommend(report)

	if len(recommendations) != 2 {
		t.Fatalf("recommendations = %d, want 2 (lodash vuln covers its outdated entry)", len(recommendations))
	}

	vulnRec := recommendations[0]
	if vulnRec.Package != "lodash" {
		t.Fatalf("first recommendation = %+v, want the vulnerability fix", vulnRec)
	}
	if vulnRec.Priority != PriorityCritical || vulnRec.ChangeClass != ChangePatch || !vulnRec.AutoPatchable {
		t.Errorf("vulnerability recommendation = %+v, want critical auto-patchable patch", vulnRec)
	}
	if vulnRec.RecommendedVersion != "4.17.21" {
		t.Errorf("recommendedVersion = %q", vulnRec.RecommendedVersion)
	}

	outdatedRec := recommendations[1]
	if outdatedRec.Package != "express" {
		t.Fatalf("second recommendation = %+v, want the outdated entry", outdatedRec)
	}
	if outdatedRec.ChangeClass != ChangeMajor || outdatedRec.Priority != PriorityMedium {
		t.Errorf("major update = %+v, want medium priority", outdatedRec)
	}
	if outdatedRec.AutoPatchable || !outdatedRec.BreakingChanges {
		t.Errorf("major update must not be auto-patchable: %+v", outdatedRec)
	}
}

func TestRecommendLowSeverityVulnIgnored(t *testing.T) {
	report := &DependencyReport{
		Vulnerabilities: []Vulnerability{
			{Package: "a", Severity: VulnModerate, PatchedVersion: "1.0.1"},
			{Package: "b", Severity: VulnLow, PatchedVersion: "2.0.1"},
		},
	}
	auditor := NewAuditor(testConfig(t.TempDir()), &toolrun.FakeRunner{}, logging.Nop())

	if recs := auditor.Recommend(report); len(recs) != 0 {
		t.Errorf("recommendations = %+v, want none for moderate/low vulnerabilities", recs)
	}
}

func TestFullAnalysis(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, sampleManifest)
	auditor := NewAuditor(testConfig(root), fullFake(), logging.Nop())

	analysis, err := auditor.FullAnalysis(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if analysis.Report.Summary.TotalDependencies != 3 {
		t.Errorf("report summary = %+v", analysis.Report.Summary)
	}
	if len(analysis.Recommendations) != 2 {
		t.Errorf("recommendations = %d, want 2", len(analysis.Recommendations))
	}
}
