package deps

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tde/internal/config"
	"tde/internal/errors"
	"tde/internal/guard"
	"tde/internal/logging"
	"tde/internal/toolrun"
)

// lockFiles are snapshotted alongside the manifest when present; installs
// rewrite them and a manifest-only rollback would leave them inconsistent
var lockFiles = []string{"package-lock.json", "npm-shrinkwrap.json", "yarn.lock"}

// FilterByStrategy selects the recommendations a strategy may apply.
// Manual always yields an empty list: nothing is applied automatically.
func FilterByStrategy(recommendations []UpdateRecommendation, strategy Strategy) []UpdateRecommendation {
	selected := make([]UpdateRecommendation, 0, len(recommendations))
	for _, rec := range recommendations {
		switch strategy {
		case StrategyConservative:
			if rec.ChangeClass == ChangePatch || rec.Priority == PriorityCritical {
				selected = append(selected, rec)
			}
		case StrategyModerate:
			if rec.ChangeClass != ChangeMajor {
				selected = append(selected, rec)
			}
		case StrategyAggressive:
			selected = append(selected, rec)
		case StrategyManual:
			// nothing
		}
	}
	return selected
}

// Updater applies dependency updates under the same guarded-mutation
// protocol as the refactoring applier, with the manifest and lockfile as
// the snapshot surface.
type Updater struct {
	cfg     *config.Config
	auditor *Auditor
	backups *guard.Store
	runner  toolrun.Runner
	logger  *logging.Logger
}

// NewUpdater wires an updater sharing the auditor's probes
func NewUpdater(cfg *config.Config, auditor *Auditor, backups *guard.Store,
	runner toolrun.Runner, logger *logging.Logger) *Updater {
	return &Updater{cfg: cfg, auditor: auditor, backups: backups, runner: runner, logger: logger}
}

// Update runs a full analysis, filters the recommendations by strategy and
// allow-list, and installs the survivors one package at a time. A failed
// install stops the run unless ContinueOnFailure is set. When RunTests is
// set and the suite fails after the batch, every completed update is
// retroactively marked failed and the manifest is restored from backup.
func (u *Updater) Update(ctx context.Context, opts UpdateOptions) ([]DependencyUpdate, error) {
	if !opts.Strategy.Valid() {
		return nil, errors.New(errors.InvalidInput, fmt.Sprintf("unknown update strategy %q", opts.Strategy))
	}

	analysis, err := u.auditor.FullAnalysis(ctx)
	if err != nil {
		return nil, err
	}

	selected := FilterByStrategy(analysis.Recommendations, opts.Strategy)
	if len(opts.Packages) > 0 {
		allowed := make(map[string]bool, len(opts.Packages))
		for _, name := range opts.Packages {
			allowed[name] = true
		}
		kept := selected[:0]
		for _, rec := range selected {
			if allowed[rec.Package] {
				kept = append(kept, rec)
			}
		}
		selected = kept
	}

	updates := make([]DependencyUpdate, 0, len(selected))
	if len(selected) == 0 {
		return updates, nil
	}

	u.logger.Info("Applying dependency updates", map[string]interface{}{
		"strategy": string(opts.Strategy),
		"count":    len(selected),
	})

	mutation := guard.Mutation{
		Mutate: func() error {
			for _, rec := range selected {
				update := DependencyUpdate{
					Package:     rec.Package,
					FromVersion: rec.CurrentVersion,
					ToVersion:   rec.RecommendedVersion,
					Status:      UpdateCompleted,
					UpdatedAt:   time.Now(),
				}

				argv := append(append([]string{}, u.cfg.Deps.InstallCommand...),
					fmt.Sprintf("%s@%s", rec.Package, rec.RecommendedVersion))
				if out, err := u.runner.Run(ctx, u.cfg.ProjectRoot, argv); err != nil {
					update.Status = UpdateFailed
					update.Error = fmt.Sprintf("install failed: %v: %s", err, truncate(string(out), 200))
					updates = append(updates, update)
					if !opts.ContinueOnFailure {
						break
					}
					continue
				}
				updates = append(updates, update)
			}
			// Per-package failures are recorded in the results, not raised:
			// they must not trigger a batch rollback on their own
			return nil
		},
	}

	if opts.CreateBackup {
		mutation.Snapshot = func() (func() error, error) {
			backup, err := u.backups.Snapshot(u.cfg.ProjectRoot, u.snapshotPaths())
			if err != nil {
				return nil, err
			}
			return backup.Restore, nil
		}
	}

	if opts.RunTests {
		if len(u.cfg.Deps.TestCommand) == 0 {
			return nil, errors.New(errors.InvalidInput, "no test command configured")
		}
		mutation.Verify = func() error {
			if anyCompleted(updates) {
				if out, err := u.runner.Run(ctx, u.cfg.ProjectRoot, u.cfg.Deps.TestCommand); err != nil {
					return errors.Wrap(errors.TestsFailed,
						fmt.Sprintf("tests failed after update: %s", truncate(string(out), 400)), err)
				}
			}
			return nil
		}
	}

	if _, err := guard.Run(mutation, u.logger); err != nil {
		if errors.CodeOf(err) == errors.TestsFailed {
			// Batch-level rollback: the manifest was restored, so every
			// completed install in this run is void
			for i := range updates {
				if updates[i].Status == UpdateCompleted {
					updates[i].Status = UpdateFailed
					updates[i].Error = "tests failed after update"
				}
			}
			return updates, nil
		}
		return updates, err
	}

	return updates, nil
}

// snapshotPaths lists the manifest plus any lockfile present
func (u *Updater) snapshotPaths() []string {
	paths := []string{u.cfg.Deps.ManifestPath}
	for _, lock := range lockFiles {
		if _, err := os.Stat(filepath.Join(u.cfg.ProjectRoot, lock)); err == nil {
			paths = append(paths, lock)
		}
	}
	return paths
}

func anyCompleted(updates []DependencyUpdate) bool {
	for _, update := range updates {
		if update.Status == UpdateCompleted {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
