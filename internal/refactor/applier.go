package refactor

import (
	"context"
	"fmt"
	"time"

	"tde/internal/errors"
	"tde/internal/guard"
	"tde/internal/logging"
	"tde/internal/toolrun"
)

// Applier executes one opportunity at a time under the guarded-mutation
// protocol. Failures surface as failed results, not Go errors; the only
// errors returned are infrastructure faults (history store unreachable).
type Applier struct {
	root    string
	planner *Planner
	backups *guard.Store
	history History
	runner  toolrun.Runner
	testCmd []string
	logger  *logging.Logger
}

// NewApplier wires an applier. testCmd may be empty when the project has no
// test suite; RunTests requests are then rejected as invalid input.
func NewApplier(root string, planner *Planner, backups *guard.Store, history History,
	runner toolrun.Runner, testCmd []string, logger *logging.Logger) *Applier {
	return &Applier{
		root:    root,
		planner: planner,
		backups: backups,
		history: history,
		runner:  runner,
		testCmd: testCmd,
		logger:  logger,
	}
}

// Apply re-locates the requested opportunity, applies its transformation
// under guard, and appends the outcome to history. The returned result is
// recorded even when the apply fails.
func (a *Applier) Apply(ctx context.Context, req ApplyRequest) (*Result, error) {
	result := &Result{
		OpportunityID: req.OpportunityID,
		Status:        StatusSuggested,
		FilesModified: []string{},
		AppliedAt:     time.Now(),
	}

	opp, found, err := a.locate(ctx, req)
	if err != nil {
		return nil, err
	}
	if !found {
		result.Status = StatusFailed
		result.Error = errors.New(errors.OpportunityNotFound,
			fmt.Sprintf("opportunity %s not found; opportunities are regenerated per run", req.OpportunityID)).Error()
		return a.record(result)
	}
	result.Type = opp.Type

	if !opp.AutoApplicable && !req.Override {
		result.Status = StatusRejected
		result.Error = errors.New(errors.NotAutoApplicable,
			"opportunity requires manual confirmation; pass the override flag to apply anyway").Error()
		return a.record(result)
	}

	result.Status = StatusInProgress
	a.logger.Info("Applying refactoring", map[string]interface{}{
		"opportunityId": opp.ID,
		"type":          string(opp.Type),
		"files":         len(opp.AffectedFiles),
	})

	var transform *transformResult
	mutation := guard.Mutation{
		Mutate: func() error {
			tr, err := a.dispatch(opp)
			if err != nil {
				return err
			}
			transform = tr
			return nil
		},
	}

	if req.CreateBackup {
		mutation.Snapshot = func() (func() error, error) {
			backup, err := a.backups.Snapshot(a.root, opp.AffectedFiles)
			if err != nil {
				return nil, err
			}
			// Rollback is available from this point on, whatever happens next
			result.RollbackAvailable = true
			result.BackupID = backup.ID
			return backup.Restore, nil
		}
	}

	if req.RunTests {
		if len(a.testCmd) == 0 {
			result.Status = StatusFailed
			result.Error = errors.New(errors.InvalidInput, "no test command configured").Error()
			return a.record(result)
		}
		mutation.Verify = func() error {
			if out, err := a.runner.Run(ctx, a.root, a.testCmd); err != nil {
				return errors.Wrap(errors.TestsFailed,
					fmt.Sprintf("tests failed after refactoring: %s", truncate(string(out), 400)), err)
			}
			return nil
		}
	}

	if _, err := guard.Run(mutation, a.logger); err != nil {
		result.Status = StatusFailed
		result.Error = err.Error()
		return a.record(result)
	}

	result.Status = StatusCompleted
	if transform != nil {
		result.FilesModified = transform.filesModified
		result.LinesChanged = transform.linesChanged
	}
	return a.record(result)
}

// locate re-identifies opportunities and finds the requested one by id
func (a *Applier) locate(ctx context.Context, req ApplyRequest) (Opportunity, bool, error) {
	opportunities, err := a.planner.Identify(ctx, req.Module)
	if err != nil {
		return Opportunity{}, false, err
	}
	for _, opp := range opportunities {
		if opp.ID == req.OpportunityID {
			return opp, true, nil
		}
	}
	return Opportunity{}, false, nil
}

// dispatch routes the opportunity to its transformation. The switch covers
// the full closed type set: three kinds have concrete transformations, the
// rest fail as unsupported, and an invalid tag is rejected up front.
func (a *Applier) dispatch(opp Opportunity) (*transformResult, error) {
	if !opp.Type.Valid() {
		return nil, errors.New(errors.InvalidInput, fmt.Sprintf("unknown opportunity type %q", opp.Type))
	}

	switch opp.Type {
	case OptimizeImports:
		return transformOptimizeImports(a.root, opp.AffectedFiles)
	case RemoveDuplication:
		return transformRemoveDuplication(a.root, opp.AffectedFiles)
	case ReplaceMagicNumbers:
		return transformReplaceMagicNumbers(a.root, opp.AffectedFiles)
	case ExtractMethod, ExtractClass, SimplifyConditional, ImproveErrorHandling,
		AddTypeAnnotations, ConsolidateConditional:
		return nil, errors.New(errors.UnsupportedRefactoring,
			fmt.Sprintf("refactoring type %q is not yet implemented", opp.Type))
	}
	// Unreachable: Valid() admitted the tag and the switch is exhaustive
	return nil, errors.New(errors.InternalError, fmt.Sprintf("unhandled opportunity type %q", opp.Type))
}

// record appends the result to history and returns it
func (a *Applier) record(result *Result) (*Result, error) {
	if err := a.history.Append(*result); err != nil {
		return nil, fmt.Errorf("record refactoring result: %w", err)
	}
	return result, nil
}

// History returns the full apply history
func (a *Applier) History() ([]Result, error) {
	return a.history.List()
}

// Stats summarizes the apply history
func (a *Applier) Stats() (Stats, error) {
	results, err := a.history.List()
	if err != nil {
		return Stats{}, err
	}
	return StatsOf(results), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
