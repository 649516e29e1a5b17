package deps

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"tde/internal/config"
	"tde/internal/logging"
	"tde/internal/toolrun"
)

// Auditor merges four independent probes into one dependency report:
// manifest enumeration, the vulnerability audit, the outdated-package
// check, and the unused-dependency heuristic. A failed probe degrades to
// an empty section; it never aborts the sibling probes.
type Auditor struct {
	cfg    *config.Config
	runner toolrun.Runner
	logger *logging.Logger
}

// NewAuditor creates an auditor over the configured project root
func NewAuditor(cfg *config.Config, runner toolrun.Runner, logger *logging.Logger) *Auditor {
	return &Auditor{cfg: cfg, runner: runner, logger: logger}
}

func (a *Auditor) manifestPath() string {
	return filepath.Join(a.cfg.ProjectRoot, a.cfg.Deps.ManifestPath)
}

// Analyze runs all four probes and merges them
func (a *Auditor) Analyze(ctx context.Context) (*DependencyReport, error) {
	report := &DependencyReport{
		Dependencies:    []Dependency{},
		Vulnerabilities: []Vulnerability{},
		Outdated:        []OutdatedPackage{},
		Unused:          []string{},
		GeneratedAt:     time.Now(),
	}

	manifest, err := ReadManifest(a.manifestPath())
	if err != nil {
		a.logger.Warn("Manifest probe failed", map[string]interface{}{"error": err.Error()})
	} else {
		report.Dependencies = manifest.Declared()
	}

	report.Vulnerabilities = a.CheckVulnerabilities(ctx)
	report.Outdated = a.CheckOutdated(ctx)
	report.Unused = a.CheckUnused(ctx)

	// Fold the outdated probe back into the declared list so every
	// dependency carries its staleness classification
	latest := make(map[string]string, len(report.Outdated))
	for _, out := range report.Outdated {
		latest[out.Package] = out.LatestVersion
	}
	for i := range report.Dependencies {
		dep := &report.Dependencies[i]
		dep.LatestVersion = latest[dep.Name]
		dep.Status = Classify(dep.CurrentVersion, dep.LatestVersion)
	}

	report.Summary = ReportSummary{
		TotalDependencies:  len(report.Dependencies),
		VulnerabilityCount: len(report.Vulnerabilities),
		OutdatedCount:      len(report.Outdated),
		UnusedCount:        len(report.Unused),
	}
	return report, nil
}

// auditEntry mirrors the audit tool's per-package JSON. The "via" and
// "fixAvailable" fields are polymorphic in the wire format, so they are
// decoded leniently.
type auditEntry struct {
	Name         string            `json:"name"`
	Severity     string            `json:"severity"`
	Range        string            `json:"range"`
	Via          []json.RawMessage `json:"via"`
	FixAvailable json.RawMessage   `json:"fixAvailable"`
}

type auditVia struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Range string `json:"range"`
}

type auditFix struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// CheckVulnerabilities runs the audit probe. Failures degrade to an
// empty list.
func (a *Auditor) CheckVulnerabilities(ctx context.Context) []Vulnerability {
	out, err := a.runner.Run(ctx, a.cfg.ProjectRoot, a.cfg.Deps.AuditCommand)
	if len(out) == 0 && err != nil {
		a.logger.Warn("Vulnerability probe failed", map[string]interface{}{"error": err.Error()})
		return []Vulnerability{}
	}

	var payload struct {
		Vulnerabilities map[string]auditEntry `json:"vulnerabilities"`
	}
	if err := json.Unmarshal(out, &payload); err != nil {
		a.logger.Warn("Vulnerability probe output unparseable", map[string]interface{}{"error": err.Error()})
		return []Vulnerability{}
	}

	names := make([]string, 0, len(payload.Vulnerabilities))
	for name := range payload.Vulnerabilities {
		names = append(names, name)
	}
	sort.Strings(names)

	vulns := make([]Vulnerability, 0, len(names))
	for _, name := range names {
		entry := payload.Vulnerabilities[name]
		vuln := Vulnerability{
			ID:           fmt.Sprintf("vuln-%s", name),
			Package:      name,
			Severity:     VulnSeverity(entry.Severity),
			VersionRange: entry.Range,
		}

		// First advisory object wins; plain-string via entries are
		// transitive pointers, not advisories
		for _, raw := range entry.Via {
			var advisory auditVia
			if err := json.Unmarshal(raw, &advisory); err == nil && advisory.Title != "" {
				vuln.Title = advisory.Title
				if advisory.URL != "" {
					vuln.References = append(vuln.References, advisory.URL)
				}
				if vuln.VersionRange == "" {
					vuln.VersionRange = advisory.Range
				}
				break
			}
		}

		var fix auditFix
		if err := json.Unmarshal(entry.FixAvailable, &fix); err == nil && fix.Version != "" {
			vuln.PatchedVersion = fix.Version
		}

		vulns = append(vulns, vuln)
	}
	return vulns
}

// outdatedEntry mirrors the outdated probe's per-package JSON
type outdatedEntry struct {
	Current string `json:"current"`
	Wanted  string `json:"wanted"`
	Latest  string `json:"latest"`
}

// CheckOutdated runs the outdated-package probe. The tool exits non-zero
// whenever anything is outdated, so the output is parsed regardless of
// the exit status. Failures degrade to an empty list.
func (a *Auditor) CheckOutdated(ctx context.Context) []OutdatedPackage {
	out, err := a.runner.Run(ctx, a.cfg.ProjectRoot, a.cfg.Deps.OutdatedCommand)
	if len(out) == 0 {
		if err != nil {
			a.logger.Warn("Outdated probe failed", map[string]interface{}{"error": err.Error()})
		}
		return []OutdatedPackage{}
	}

	var payload map[string]outdatedEntry
	if err := json.Unmarshal(out, &payload); err != nil {
		a.logger.Warn("Outdated probe output unparseable", map[string]interface{}{"error": err.Error()})
		return []OutdatedPackage{}
	}

	names := make([]string, 0, len(payload))
	for name := range payload {
		names = append(names, name)
	}
	sort.Strings(names)

	outdated := make([]OutdatedPackage, 0, len(names))
	for _, name := range names {
		entry := payload[name]
		outdated = append(outdated, OutdatedPackage{
			Package:        name,
			CurrentVersion: entry.Current,
			WantedVersion:  entry.Wanted,
			LatestVersion:  entry.Latest,
		})
	}
	return outdated
}

// CheckUnused runs the unused-dependency heuristic. Failures degrade to
// an empty list.
func (a *Auditor) CheckUnused(ctx context.Context) []string {
	out, err := a.runner.Run(ctx, a.cfg.ProjectRoot, a.cfg.Deps.UnusedCommand)
	if len(out) == 0 {
		if err != nil {
			a.logger.Warn("Unused probe failed", map[string]interface{}{"error": err.Error()})
		}
		return []string{}
	}

	var payload struct {
		Dependencies    []string `json:"dependencies"`
		DevDependencies []string `json:"devDependencies"`
	}
	if err := json.Unmarshal(out, &payload); err != nil {
		a.logger.Warn("Unused probe output unparseable", map[string]interface{}{"error": err.Error()})
		return []string{}
	}

	unused := make([]string, 0, len(payload.Dependencies)+len(payload.DevDependencies))
	unused = append(unused, payload.Dependencies...)
	unused = append(unused, payload.DevDependencies...)
	sort.Strings(unused)
	return unused
}

// Recommend derives update recommendations from a report, vulnerability
// findings first: a critical or high vulnerability with a patched version
// yields a critical patch recommendation marked auto-patchable. Outdated
// packages follow at medium priority for major jumps and low for the rest;
// major jumps are never auto-patchable.
func (a *Auditor) Recommend(report *DependencyReport) []UpdateRecommendation {
	recommendations := make([]UpdateRecommendation, 0)
	covered := map[string]bool{}

	current := make(map[string]string, len(report.Dependencies))
	for _, dep := range report.Dependencies {
		current[dep.Name] = dep.CurrentVersion
	}

	for _, vuln := range report.Vulnerabilities {
		if vuln.Severity != VulnCritical && vuln.Severity != VulnHigh {
			continue
		}
		if vuln.PatchedVersion == "" || covered[vuln.Package] {
			continue
		}
		covered[vuln.Package] = true
		recommendations = append(recommendations, UpdateRecommendation{
			Package:            vuln.Package,
			CurrentVersion:     current[vuln.Package],
			RecommendedVersion: vuln.PatchedVersion,
			ChangeClass:        ChangePatch,
			Priority:           PriorityCritical,
			Reason:             fmt.Sprintf("Fixes %s severity vulnerability: %s", vuln.Severity, vuln.Title),
			BreakingChanges:    false,
			AutoPatchable:      true,
		})
	}

	for _, out := range report.Outdated {
		if covered[out.Package] {
			continue
		}
		covered[out.Package] = true

		class := ChangeClassOf(out.CurrentVersion, out.LatestVersion)
		priority := PriorityLow
		if class == ChangeMajor {
			priority = PriorityMedium
		}
		recommendations = append(recommendations, UpdateRecommendation{
			Package:            out.Package,
			CurrentVersion:     out.CurrentVersion,
			RecommendedVersion: out.LatestVersion,
			ChangeClass:        class,
			Priority:           priority,
			Reason:             fmt.Sprintf("Newer version available: %s -> %s", out.CurrentVersion, out.LatestVersion),
			BreakingChanges:    class == ChangeMajor,
			AutoPatchable:      class != ChangeMajor,
		})
	}

	return recommendations
}

// FullAnalysis runs the audit and derives recommendations in one pass
func (a *Auditor) FullAnalysis(ctx context.Context) (*DependencyAnalysis, error) {
	report, err := a.Analyze(ctx)
	if err != nil {
		return nil, err
	}
	return &DependencyAnalysis{
		Report:          *report,
		Recommendations: a.Recommend(report),
	}, nil
}
