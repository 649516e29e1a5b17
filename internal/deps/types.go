// Package deps audits the project's third-party dependency graph for
// vulnerabilities, staleness, and unused packages, and applies updates
// under the guarded-mutation protocol.
package deps

import "time"

// DependencyType records where in the manifest a dependency is declared
type DependencyType string

const (
	TypeDirect DependencyType = "direct"
	TypeDev    DependencyType = "dev"
	TypePeer   DependencyType = "peer"
)

// DependencyStatus is the coarse three-bucket staleness classification
type DependencyStatus string

const (
	StatusUpToDate    DependencyStatus = "up-to-date"
	StatusMinorUpdate DependencyStatus = "minor-update"
	StatusMajorUpdate DependencyStatus = "major-update"
)

// Dependency is one declared package with its staleness classification
type Dependency struct {
	Name           string           `json:"name"`
	CurrentVersion string           `json:"currentVersion"`
	LatestVersion  string           `json:"latestVersion"`
	Type           DependencyType   `json:"type"`
	Status         DependencyStatus `json:"status"`
}

// VulnSeverity follows the audit tool's scale
type VulnSeverity string

const (
	VulnCritical VulnSeverity = "critical"
	VulnHigh     VulnSeverity = "high"
	VulnModerate VulnSeverity = "moderate"
	VulnLow      VulnSeverity = "low"
	VulnInfo     VulnSeverity = "info"
)

// Vulnerability is one finding from the audit probe
type Vulnerability struct {
	ID             string       `json:"id"`
	Package        string       `json:"package"`
	Severity       VulnSeverity `json:"severity"`
	Title          string       `json:"title"`
	VersionRange   string       `json:"versionRange"`
	PatchedVersion string       `json:"patchedVersion,omitempty"`
	References     []string     `json:"references,omitempty"`
}

// ChangeClass buckets a version jump
type ChangeClass string

const (
	ChangePatch ChangeClass = "patch"
	ChangeMinor ChangeClass = "minor"
	ChangeMajor ChangeClass = "major"
)

// Priority orders update recommendations
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// UpdateRecommendation proposes one package update
type UpdateRecommendation struct {
	Package            string      `json:"package"`
	CurrentVersion     string      `json:"currentVersion"`
	RecommendedVersion string      `json:"recommendedVersion"`
	ChangeClass        ChangeClass `json:"changeClass"`
	Priority           Priority    `json:"priority"`
	Reason             string      `json:"reason"`
	BreakingChanges    bool        `json:"breakingChanges"`
	AutoPatchable      bool        `json:"autoPatchable"`
}

// UpdateStatus is the terminal state of one applied update
type UpdateStatus string

const (
	UpdateCompleted UpdateStatus = "completed"
	UpdateFailed    UpdateStatus = "failed"
)

// DependencyUpdate records the outcome of applying one recommendation.
// Kept separate from refactoring results: updates roll back by restoring
// the manifest, refactorings by restoring source files.
type DependencyUpdate struct {
	Package     string       `json:"package"`
	FromVersion string       `json:"fromVersion"`
	ToVersion   string       `json:"toVersion"`
	Status      UpdateStatus `json:"status"`
	Error       string       `json:"error,omitempty"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// OutdatedPackage is one entry from the outdated-package probe
type OutdatedPackage struct {
	Package        string `json:"package"`
	CurrentVersion string `json:"currentVersion"`
	WantedVersion  string `json:"wantedVersion"`
	LatestVersion  string `json:"latestVersion"`
}

// ReportSummary rolls the probe results up into counts
type ReportSummary struct {
	TotalDependencies  int `json:"totalDependencies"`
	VulnerabilityCount int `json:"vulnerabilityCount"`
	OutdatedCount      int `json:"outdatedCount"`
	UnusedCount        int `json:"unusedCount"`
}

// DependencyReport merges the four audit probes. Recomputed per call;
// nothing is cached between audits.
type DependencyReport struct {
	Dependencies    []Dependency      `json:"dependencies"`
	Vulnerabilities []Vulnerability   `json:"vulnerabilities"`
	Outdated        []OutdatedPackage `json:"outdated"`
	Unused          []string          `json:"unused"`
	Summary         ReportSummary     `json:"summary"`
	GeneratedAt     time.Time         `json:"generatedAt"`
}

// DependencyAnalysis is the full-analysis view: the merged report plus
// the derived recommendations
type DependencyAnalysis struct {
	Report          DependencyReport       `json:"report"`
	Recommendations []UpdateRecommendation `json:"recommendations"`
}

// Strategy selects which recommendations an update run may apply
type Strategy string

const (
	StrategyConservative Strategy = "conservative"
	StrategyModerate     Strategy = "moderate"
	StrategyAggressive   Strategy = "aggressive"
	StrategyManual       Strategy = "manual"
)

// Valid reports whether s is a known strategy
func (s Strategy) Valid() bool {
	switch s {
	case StrategyConservative, StrategyModerate, StrategyAggressive, StrategyManual:
		return true
	}
	return false
}

// UpdateOptions controls one update run
type UpdateOptions struct {
	Strategy Strategy `json:"strategy"`

	// Packages restricts the run to an explicit allow-list; empty means all
	Packages []string `json:"packages,omitempty"`

	CreateBackup bool `json:"createBackup"`
	RunTests     bool `json:"runTests"`

	// ContinueOnFailure keeps processing after a failed install instead of
	// stopping at the first failure
	ContinueOnFailure bool `json:"continueOnFailure"`
}
