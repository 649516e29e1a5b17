// Package quality aggregates scan findings into per-module and project-wide
// quality scores. Every report is a pure function of the tree at analysis
// time; nothing is cached or incrementally patched between runs.
package quality

import (
	"context"
	"path/filepath"
	"time"

	"tde/internal/config"
	"tde/internal/logging"
	"tde/internal/modules"
	"tde/internal/scan"
)

// highComplexityThreshold is the per-function complexity above which a
// function is listed in the module's complexity stats
const highComplexityThreshold = 10

// Options narrows an analysis run. The zero value means "use configuration".
type Options struct {
	IncludeTests    bool
	IncludeDocs     bool
	ExcludePatterns []string

	// Depth controls duplicate detection: shallow skips it, normal runs it
	// per module, deep additionally correlates fingerprints across modules
	Depth string

	// Modules restricts the run to a named subset
	Modules []string
}

// Analyzer runs the scan pipeline and scores the results
type Analyzer struct {
	cfg     *config.Config
	scanner *scan.Scanner
	logger  *logging.Logger
}

// NewAnalyzer creates an analyzer for the configured project
func NewAnalyzer(cfg *config.Config, logger *logging.Logger) (*Analyzer, error) {
	tuning, err := scan.LoadTuning(filepath.Join(cfg.ProjectRoot, config.ConfigDir))
	if err != nil {
		return nil, err
	}
	return &Analyzer{
		cfg:     cfg,
		scanner: scan.NewScanner(cfg.ProjectRoot, scan.DefaultDetectors(tuning), logger),
		logger:  logger,
	}, nil
}

// NewAnalyzerWithScanner wires an explicit scanner; used by tests
func NewAnalyzerWithScanner(cfg *config.Config, scanner *scan.Scanner, logger *logging.Logger) *Analyzer {
	return &Analyzer{cfg: cfg, scanner: scanner, logger: logger}
}

func (a *Analyzer) scanOptions(opts Options) scan.Options {
	so := scan.Options{
		IncludeTests:     opts.IncludeTests || a.cfg.Scan.IncludeTests,
		IncludeDocs:      opts.IncludeDocs || a.cfg.Scan.IncludeDocs,
		ExcludePatterns:  a.cfg.Scan.ExcludePatterns,
		SourceExtensions: a.cfg.Scan.SourceExtensions,
	}
	if len(opts.ExcludePatterns) > 0 {
		so.ExcludePatterns = append(so.ExcludePatterns, opts.ExcludePatterns...)
	}
	return so
}

func (a *Analyzer) depth(opts Options) string {
	if opts.Depth != "" {
		return opts.Depth
	}
	if a.cfg.Scan.Depth != "" {
		return a.cfg.Scan.Depth
	}
	return "normal"
}

// AnalyzeModule analyzes one named module. An unknown module name yields an
// empty report with a zeroed score, not an error.
func (a *Analyzer) AnalyzeModule(ctx context.Context, moduleName string, opts Options) (*ModuleReport, error) {
	mods, err := modules.Discover(a.cfg.ProjectRoot)
	if err != nil {
		return nil, err
	}

	mod, ok := modules.Find(mods, moduleName)
	if !ok {
		a.logger.Warn("Unknown module, returning empty report", map[string]interface{}{
			"module": moduleName,
		})
		return emptyReport(moduleName), nil
	}

	return a.analyzeResolved(ctx, mod, opts)
}

func (a *Analyzer) scanResolved(ctx context.Context, mod modules.Module, opts Options) (*scan.DirScan, error) {
	result, err := a.scanner.ScanDir(ctx, mod.Path, a.scanOptions(opts))
	if err != nil {
		return nil, err
	}

	if a.depth(opts) == "shallow" {
		// Shallow runs skip duplicate detection: zero the fingerprints so
		// every file appears unique
		for i := range result.Files {
			result.Files[i].Fingerprint = uint64(i)
		}
	}

	return result, nil
}

func (a *Analyzer) analyzeResolved(ctx context.Context, mod modules.Module, opts Options) (*ModuleReport, error) {
	result, err := a.scanResolved(ctx, mod, opts)
	if err != nil {
		return nil, err
	}
	return buildModuleReport(mod.Name, result, time.Now()), nil
}

// AnalyzeProject analyzes every module (or the requested subset) and rolls
// the results into a project report.
func (a *Analyzer) AnalyzeProject(ctx context.Context, opts Options) (*ProjectReport, error) {
	mods, err := modules.Discover(a.cfg.ProjectRoot)
	if err != nil {
		return nil, err
	}

	wanted := opts.Modules
	if len(wanted) == 0 {
		wanted = a.cfg.Scan.Modules
	}

	reports := make([]ModuleReport, 0, len(mods))
	scores := make([]Score, 0, len(mods))
	scans := make([]*scan.DirScan, 0, len(mods))
	// Modules scan one at a time; the math is order-independent but the
	// walk shares file handles with mutating pipeline stages
	for _, mod := range mods {
		if len(wanted) > 0 && !contains(wanted, mod.Name) {
			continue
		}
		result, err := a.scanResolved(ctx, mod, opts)
		if err != nil {
			return nil, err
		}
		report := buildModuleReport(mod.Name, result, time.Now())
		reports = append(reports, *report)
		scores = append(scores, report.Score)
		scans = append(scans, result)
	}

	if a.depth(opts) == "deep" {
		correlateAcrossModules(reports, scans)
	}

	now := time.Now()
	project := &ProjectReport{
		Score:   AverageScores(scores, now),
		Modules: reports,
		Summary: buildSummary(reports),
	}
	return project, nil
}

// Metrics computes the compact dashboard metrics from a project report
func (a *Analyzer) Metrics(ctx context.Context, opts Options) (*Metrics, error) {
	report, err := a.AnalyzeProject(ctx, opts)
	if err != nil {
		return nil, err
	}
	return MetricsOf(report), nil
}

// MetricsOf condenses a project report into dashboard metrics
func MetricsOf(report *ProjectReport) *Metrics {
	m := &Metrics{
		ModuleCount:          len(report.Modules),
		IssuesBySeverity:     report.Summary.IssuesBySeverity,
		IssueCount:           report.Summary.TotalIssues,
		TechnicalDebtMinutes: report.Summary.TechnicalDebtMinutes,
		OverallScore:         report.Score.Overall,
		Level:                report.Score.Level,
	}

	totalComplexity := 0.0
	for _, mod := range report.Modules {
		m.FileCount += mod.FileCount
		m.LineCount += mod.LineCount
		totalComplexity += mod.AverageFileComplexity
	}
	if len(report.Modules) > 0 {
		m.AverageComplexity = totalComplexity / float64(len(report.Modules))
	}
	return m
}

func buildModuleReport(name string, result *scan.DirScan, now time.Time) *ModuleReport {
	report := &ModuleReport{
		Module:             name,
		Score:              ComputeScore(result, now),
		Issues:             result.AllIssues(),
		FileCount:          len(result.Files),
		DuplicationPercent: result.DuplicationPercent(),
	}
	if report.Issues == nil {
		report.Issues = []scan.CodeIssue{}
	}

	totalFileComplexity := 0
	functionCount := 0
	totalFunctionComplexity := 0
	for _, f := range result.Files {
		report.LineCount += f.Lines
		totalFileComplexity += f.Complexity
		for _, fn := range f.Functions {
			functionCount++
			totalFunctionComplexity += fn.Complexity
			if fn.Complexity > report.Complexity.Max {
				report.Complexity.Max = fn.Complexity
			}
			if fn.Complexity > highComplexityThreshold {
				report.Complexity.HighComplexityFunctions = append(report.Complexity.HighComplexityFunctions, fn)
			}
		}
	}
	if functionCount > 0 {
		report.Complexity.Average = float64(totalFunctionComplexity) / float64(functionCount)
	}
	if report.Complexity.HighComplexityFunctions == nil {
		report.Complexity.HighComplexityFunctions = []scan.FunctionSpan{}
	}
	if report.FileCount > 0 {
		report.AverageFileComplexity = float64(totalFileComplexity) / float64(report.FileCount)
	}

	report.DuplicateClusters = []DuplicateCluster{}
	for _, group := range result.DuplicateGroups() {
		cluster := DuplicateCluster{Lines: group[0].Lines}
		for _, f := range group {
			cluster.Files = append(cluster.Files, f.Path)
		}
		report.DuplicateClusters = append(report.DuplicateClusters, cluster)
	}

	return report
}

// correlateAcrossModules groups file fingerprints across every scanned
// module and appends clusters spanning more than one module to each
// participating module's report. Per-module clusters stay intact; deep
// scans only add the cross-module view on top.
func correlateAcrossModules(reports []ModuleReport, scans []*scan.DirScan) {
	type member struct {
		module int
		file   scan.FileScan
	}
	byPrint := make(map[uint64][]member)
	order := make([]uint64, 0)
	for i, result := range scans {
		for _, f := range result.Files {
			if _, seen := byPrint[f.Fingerprint]; !seen {
				order = append(order, f.Fingerprint)
			}
			byPrint[f.Fingerprint] = append(byPrint[f.Fingerprint], member{module: i, file: f})
		}
	}

	for _, fp := range order {
		members := byPrint[fp]
		if len(members) < 2 {
			continue
		}
		spanned := make(map[int]bool)
		for _, m := range members {
			spanned[m.module] = true
		}
		if len(spanned) < 2 {
			continue
		}
		cluster := DuplicateCluster{Lines: members[0].file.Lines}
		for _, m := range members {
			cluster.Files = append(cluster.Files, m.file.Path)
		}
		for i := range reports {
			if spanned[i] {
				reports[i].DuplicateClusters = append(reports[i].DuplicateClusters, cluster)
			}
		}
	}
}

func buildSummary(reports []ModuleReport) Summary {
	summary := Summary{
		IssuesBySeverity: make(map[scan.Severity]int),
	}

	totalDuplication := 0.0
	for _, report := range reports {
		summary.TotalIssues += len(report.Issues)
		totalDuplication += report.DuplicationPercent
		for _, issue := range report.Issues {
			summary.IssuesBySeverity[issue.Severity]++
			summary.TechnicalDebtMinutes += issue.TechnicalDebt
		}
	}
	if len(reports) > 0 {
		summary.DuplicationPercent = totalDuplication / float64(len(reports))
	}
	return summary
}

func emptyReport(name string) *ModuleReport {
	return &ModuleReport{
		Module:    name,
		Score:     ZeroScore(time.Now()),
		Issues:    []scan.CodeIssue{},
		FileCount: 0,
		Complexity: ComplexityStats{
			HighComplexityFunctions: []scan.FunctionSpan{},
		},
	}
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
