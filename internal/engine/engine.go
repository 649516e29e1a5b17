// Package engine is the facade over the three pipelines: quality analysis,
// refactoring, and dependency auditing. The HTTP boundary and the CLI both
// talk to the engine; neither constructs the pipelines directly.
package engine

import (
	"context"
	"time"

	"tde/internal/config"
	"tde/internal/deps"
	"tde/internal/guard"
	"tde/internal/logging"
	"tde/internal/quality"
	"tde/internal/refactor"
	"tde/internal/toolrun"
)

// Engine owns the wired pipelines. Construct one per project root.
type Engine struct {
	cfg      *config.Config
	logger   *logging.Logger
	analyzer *quality.Analyzer
	planner  *refactor.Planner
	applier  *refactor.Applier
	auditor  *deps.Auditor
	updater  *deps.Updater
	history  refactor.History
}

// New wires an engine from configuration. The refactoring history is
// persisted under the project's state directory so it survives restarts.
func New(cfg *config.Config, logger *logging.Logger) (*Engine, error) {
	analyzer, err := quality.NewAnalyzer(cfg, logger)
	if err != nil {
		return nil, err
	}

	history, err := refactor.OpenHistory(cfg.HistoryPath(), logger)
	if err != nil {
		return nil, err
	}

	runner := &toolrun.ExecRunner{Timeout: time.Duration(cfg.Deps.ToolTimeoutMs) * time.Millisecond}
	return newEngine(cfg, logger, analyzer, history, runner), nil
}

// NewWithDeps wires an engine from explicit collaborators; tests inject an
// in-memory history and a fake runner here.
func NewWithDeps(cfg *config.Config, logger *logging.Logger, analyzer *quality.Analyzer,
	history refactor.History, runner toolrun.Runner) *Engine {
	return newEngine(cfg, logger, analyzer, history, runner)
}

func newEngine(cfg *config.Config, logger *logging.Logger, analyzer *quality.Analyzer,
	history refactor.History, runner toolrun.Runner) *Engine {
	backups := guard.NewStore(cfg.BackupPath())
	planner := refactor.NewPlanner(analyzer, logger)
	auditor := deps.NewAuditor(cfg, runner, logger)

	return &Engine{
		cfg:      cfg,
		logger:   logger,
		analyzer: analyzer,
		planner:  planner,
		applier: refactor.NewApplier(cfg.ProjectRoot, planner, backups, history,
			runner, cfg.Refactor.TestCommand, logger),
		auditor: auditor,
		updater: deps.NewUpdater(cfg, auditor, backups, runner, logger),
		history: history,
	}
}

// Close releases the history store
func (e *Engine) Close() error {
	return e.history.Close()
}

// ProjectRoot returns the configured project root
func (e *Engine) ProjectRoot() string {
	return e.cfg.ProjectRoot
}

// AnalyzeModule scores one module
func (e *Engine) AnalyzeModule(ctx context.Context, moduleName string, opts quality.Options) (*quality.ModuleReport, error) {
	return e.analyzer.AnalyzeModule(ctx, moduleName, opts)
}

// AnalyzeProject scores the whole project
func (e *Engine) AnalyzeProject(ctx context.Context, opts quality.Options) (*quality.ProjectReport, error) {
	return e.analyzer.AnalyzeProject(ctx, opts)
}

// Metrics returns the flattened project metrics
func (e *Engine) Metrics(ctx context.Context, opts quality.Options) (*quality.Metrics, error) {
	return e.analyzer.Metrics(ctx, opts)
}

// Opportunities regenerates the refactoring opportunity list
func (e *Engine) Opportunities(ctx context.Context, moduleName string) ([]refactor.Opportunity, error) {
	return e.planner.Identify(ctx, moduleName)
}

// CreatePlan bundles opportunities into a named plan
func (e *Engine) CreatePlan(ctx context.Context, name, moduleName string) (*refactor.Plan, error) {
	opportunities, err := e.planner.Identify(ctx, moduleName)
	if err != nil {
		return nil, err
	}
	return e.planner.CreatePlan(name, opportunities), nil
}

// ApplyRefactoring applies one opportunity under guard
func (e *Engine) ApplyRefactoring(ctx context.Context, req refactor.ApplyRequest) (*refactor.Result, error) {
	return e.applier.Apply(ctx, req)
}

// RefactoringHistory lists every recorded apply result
func (e *Engine) RefactoringHistory() ([]refactor.Result, error) {
	return e.applier.History()
}

// RefactoringStats summarizes the apply history
func (e *Engine) RefactoringStats() (refactor.Stats, error) {
	return e.applier.Stats()
}

// AnalyzeDependencies runs the four-probe dependency audit
func (e *Engine) AnalyzeDependencies(ctx context.Context) (*deps.DependencyReport, error) {
	return e.auditor.Analyze(ctx)
}

// Vulnerabilities runs just the vulnerability probe
func (e *Engine) Vulnerabilities(ctx context.Context) []deps.Vulnerability {
	return e.auditor.CheckVulnerabilities(ctx)
}

// OutdatedPackages runs just the outdated probe
func (e *Engine) OutdatedPackages(ctx context.Context) []deps.OutdatedPackage {
	return e.auditor.CheckOutdated(ctx)
}

// FullDependencyAnalysis audits and derives recommendations
func (e *Engine) FullDependencyAnalysis(ctx context.Context) (*deps.DependencyAnalysis, error) {
	return e.auditor.FullAnalysis(ctx)
}

// UpdateDependencies applies updates per the requested strategy
func (e *Engine) UpdateDependencies(ctx context.Context, opts deps.UpdateOptions) ([]deps.DependencyUpdate, error) {
	return e.updater.Update(ctx, opts)
}
