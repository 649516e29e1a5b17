package refactor

import (
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
)

// OpportunityType is the closed set of refactoring kinds. Dispatch over the
// set is exhaustive by construction: adding a type means extending both this
// list and the applier's switch, and Valid keeps unknown strings out at the
// boundary.
type OpportunityType string

const (
	ExtractMethod          OpportunityType = "extract-method"
	ExtractClass           OpportunityType = "extract-class"
	RemoveDuplication      OpportunityType = "remove-duplication"
	SimplifyConditional    OpportunityType = "simplify-conditional"
	ImproveErrorHandling   OpportunityType = "improve-error-handling"
	AddTypeAnnotations     OpportunityType = "add-type-annotations"
	OptimizeImports        OpportunityType = "optimize-imports"
	ConsolidateConditional OpportunityType = "consolidate-conditional"
	ReplaceMagicNumbers    OpportunityType = "replace-magic-numbers"
)

// AllOpportunityTypes lists every valid opportunity type
var AllOpportunityTypes = []OpportunityType{
	ExtractMethod,
	ExtractClass,
	RemoveDuplication,
	SimplifyConditional,
	ImproveErrorHandling,
	AddTypeAnnotations,
	OptimizeImports,
	ConsolidateConditional,
	ReplaceMagicNumbers,
}

// Valid reports whether t is a known opportunity type
func (t OpportunityType) Valid() bool {
	for _, known := range AllOpportunityTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Priority orders opportunities for planning
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

var priorityRank = map[Priority]int{
	PriorityCritical: 0,
	PriorityHigh:     1,
	PriorityMedium:   2,
	PriorityLow:      3,
}

// Rank returns the sort rank (critical first)
func (p Priority) Rank() int {
	if r, ok := priorityRank[p]; ok {
		return r
	}
	return len(priorityRank)
}

// RiskLevel estimates how likely an applied refactoring is to break behavior
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Suggestion carries an optional before/after sketch
type Suggestion struct {
	Before string `json:"before,omitempty"`
	After  string `json:"after,omitempty"`
}

// Opportunity is a candidate, not-yet-applied refactoring. Opportunities are
// regenerated fresh on every planning call; the ID is a stable function of
// the underlying finding so a chosen opportunity can be re-located later.
type Opportunity struct {
	ID              string          `json:"id"`
	Type            OpportunityType `json:"type"`
	Priority        Priority        `json:"priority"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Module          string          `json:"module,omitempty"`
	AffectedFiles   []string        `json:"affectedFiles,omitempty"`
	Benefits        []string        `json:"benefits"`
	EstimatedEffort string          `json:"estimatedEffort,omitempty"`
	RiskLevel       RiskLevel       `json:"riskLevel"`
	AutoApplicable  bool            `json:"autoApplicable"`
	Suggestion      *Suggestion     `json:"suggestion,omitempty"`

	// SourceIssueID links back to the issue this was lifted from, when any
	SourceIssueID string `json:"sourceIssueId,omitempty"`
}

// OpportunityID derives a stable opportunity id from its source key
func OpportunityID(key string) string {
	return fmt.Sprintf("opp-%016x", xxhash.Sum64String(key))
}

// Impact is the expected effect of executing a plan. Each delta is capped and
// deliberately sub-linear in opportunity count.
type Impact struct {
	QualityScoreDelta    float64 `json:"qualityScoreDelta"`
	ComplexityReduction  float64 `json:"complexityReduction"`
	MaintainabilityDelta float64 `json:"maintainabilityDelta"`
}

// Plan is a named, timestamped bundle of critical/high opportunities
type Plan struct {
	ID                   string        `json:"id"`
	Name                 string        `json:"name"`
	CreatedAt            time.Time     `json:"createdAt"`
	Opportunities        []Opportunity `json:"opportunities"`
	EstimatedTotalEffort string        `json:"estimatedTotalEffort"`
	ExpectedImpact       Impact        `json:"expectedImpact"`

	// Risks is never empty; a plan with no risk condition still states one
	Risks []string `json:"risks"`
}

// Status is the lifecycle of one apply attempt.
// suggested → in-progress → {completed | failed | rejected}
type Status string

const (
	StatusSuggested  Status = "suggested"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusRejected   Status = "rejected"
)

// Terminal reports whether the status ends the lifecycle
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusRejected
}

// Result is the outcome of applying one opportunity. Results are appended to
// the history store and never overwritten.
type Result struct {
	OpportunityID     string          `json:"opportunityId"`
	Type              OpportunityType `json:"type"`
	Status            Status          `json:"status"`
	FilesModified     []string        `json:"filesModified"`
	LinesChanged      int             `json:"linesChanged"`
	RollbackAvailable bool            `json:"rollbackAvailable"`
	BackupID          string          `json:"backupId,omitempty"`
	Error             string          `json:"error,omitempty"`
	AppliedAt         time.Time       `json:"appliedAt"`
}

// ApplyRequest names an opportunity and how to apply it
type ApplyRequest struct {
	OpportunityID string `json:"opportunityId"`

	// Module narrows re-identification to one module; empty means project-wide
	Module string `json:"module,omitempty"`

	// CreateBackup snapshots affected files before mutating
	CreateBackup bool `json:"createBackup"`

	// RunTests verifies the mutation with the test suite; a failing run
	// forces the result to failed and rolls back
	RunTests bool `json:"runTests"`

	// Override confirms applying an opportunity that is not auto-applicable
	Override bool `json:"override"`
}

// Stats summarizes the apply history
type Stats struct {
	Total             int                     `json:"total"`
	Completed         int                     `json:"completed"`
	Failed            int                     `json:"failed"`
	Rejected          int                     `json:"rejected"`
	ByType            map[OpportunityType]int `json:"byType"`
	TotalLinesChanged int                     `json:"totalLinesChanged"`
}
