// Package guard implements the snapshot → mutate → verify → rollback-on-failure
// protocol shared by the refactoring applier and the dependency updater. The
// two callers differ only in what they snapshot (source files vs. the package
// manifest) and how they verify (test suite vs. install results), so the
// protocol lives here once.
package guard

import (
	"fmt"

	"tde/internal/errors"
	"tde/internal/logging"
)

// Mutation describes one guarded operation. Snapshot may be nil when the
// caller declined a backup; Verify may be nil when no verification was
// requested.
type Mutation struct {
	// Snapshot captures current state and returns a restore function
	Snapshot func() (restore func() error, err error)

	// Mutate performs the state change
	Mutate func() error

	// Verify checks the mutated state; a non-nil error triggers rollback
	Verify func() error
}

// Outcome reports what the protocol did
type Outcome struct {
	// SnapshotTaken is true once a snapshot succeeded; it stays true even
	// when the operation later fails, since the rollback path exists
	SnapshotTaken bool

	// RolledBack is true when the restore function ran successfully
	RolledBack bool
}

// Run executes the protocol. The returned error is nil only when mutate and
// verify both succeeded. A failed rollback is surfaced as an UNSAFE_STATE
// error wrapping the original failure: the tree is then left without its
// safety net and the caller must say so.
func Run(m Mutation, logger *logging.Logger) (Outcome, error) {
	var outcome Outcome
	var restore func() error

	if m.Snapshot != nil {
		r, err := m.Snapshot()
		if err != nil {
			return outcome, fmt.Errorf("snapshot: %w", err)
		}
		restore = r
		outcome.SnapshotTaken = true
	}

	rollback := func(cause error) (Outcome, error) {
		if restore == nil {
			return outcome, cause
		}
		if err := restore(); err != nil {
			logger.Error("Rollback failed, repository left without its safety net", map[string]interface{}{
				"cause":    cause.Error(),
				"rollback": err.Error(),
			})
			return outcome, errors.Wrap(errors.UnsafeState,
				fmt.Sprintf("rollback failed after: %v", cause), err)
		}
		outcome.RolledBack = true
		return outcome, cause
	}

	if err := m.Mutate(); err != nil {
		return rollback(err)
	}

	if m.Verify != nil {
		if err := m.Verify(); err != nil {
			return rollback(err)
		}
	}

	return outcome, nil
}
