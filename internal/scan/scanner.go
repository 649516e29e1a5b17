// Package scan walks a source tree and turns file text into discrete issues,
// complexity measurements, and duplicate-detection fingerprints. Detection is
// textual and heuristic on purpose; there is no parser front end here.
package scan

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"tde/internal/logging"
)

// Options controls a scan
type Options struct {
	// IncludeTests scans files matching the test-suffix convention
	IncludeTests bool

	// IncludeDocs scans markdown and text files as well as source
	IncludeDocs bool

	// ExcludePatterns are substring or doublestar glob patterns matched
	// against project-relative paths
	ExcludePatterns []string

	// SourceExtensions are the extensions treated as source code
	SourceExtensions []string
}

// DefaultOptions mirrors the configuration defaults
func DefaultOptions() Options {
	return Options{
		ExcludePatterns:  []string{"node_modules", "dist", "build", "coverage", ".git"},
		SourceExtensions: []string{".ts", ".js", ".tsx", ".jsx"},
	}
}

// Scanner reads a directory subtree and produces per-file scan results
type Scanner struct {
	root      string
	detectors []Detector
	logger    *logging.Logger
}

// NewScanner creates a scanner rooted at root running the given detectors
func NewScanner(root string, detectors []Detector, logger *logging.Logger) *Scanner {
	return &Scanner{
		root:      root,
		detectors: detectors,
		logger:    logger,
	}
}

// ScanDir scans the subtree at relDir (relative to the scanner root).
// Files are processed one at a time; an unreadable directory is logged and
// treated as empty rather than failing the scan.
func (s *Scanner) ScanDir(ctx context.Context, relDir string, opts Options) (*DirScan, error) {
	result := &DirScan{Dir: relDir, Files: []FileScan{}}
	absDir := filepath.Join(s.root, relDir)

	if _, err := os.Stat(absDir); err != nil {
		s.logger.Warn("Directory unreadable, treating as empty", map[string]interface{}{
			"dir":   relDir,
			"error": err.Error(),
		})
		return result, nil
	}

	walkErr := filepath.WalkDir(absDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			s.logger.Warn("Skipping unreadable path", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, relErr := filepath.Rel(s.root, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != "." && s.excluded(rel, opts) {
				return filepath.SkipDir
			}
			return nil
		}

		if s.excluded(rel, opts) || !s.wanted(rel, opts) {
			return nil
		}

		if IsTestFile(rel) {
			result.TestFileCount++
			if !opts.IncludeTests {
				return nil
			}
		}

		fileScan, scanErr := s.scanFile(path, rel, opts)
		if scanErr != nil {
			s.logger.Warn("Skipping unreadable file", map[string]interface{}{
				"file":  rel,
				"error": scanErr.Error(),
			})
			return nil
		}
		if fileScan != nil {
			result.Files = append(result.Files, *fileScan)
		}
		return nil
	})
	if walkErr != nil && walkErr != ctx.Err() {
		s.logger.Warn("Walk aborted, returning partial scan", map[string]interface{}{
			"dir":   relDir,
			"error": walkErr.Error(),
		})
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *Scanner) scanFile(absPath, relPath string, opts Options) (*FileScan, error) {
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, err
	}
	content := string(data)
	isTest := IsTestFile(relPath)

	file := FileInfo{Path: relPath, Content: content, IsTest: isTest}

	var issues []CodeIssue
	for _, detector := range s.detectors {
		issues = append(issues, detector.Detect(file)...)
	}
	if issues == nil {
		issues = []CodeIssue{}
	}

	return &FileScan{
		Path:        relPath,
		Lines:       strings.Count(content, "\n") + 1,
		Complexity:  MeasureComplexity(content),
		Fingerprint: Fingerprint(content),
		Issues:      issues,
		Functions:   FindFunctions(relPath, content),
		IsTest:      isTest,
		HasDoc:      strings.Contains(content, "/**"),
	}, nil
}

// excluded matches rel against the exclude patterns: a doublestar glob when
// the pattern contains a glob metacharacter, a substring match otherwise.
func (s *Scanner) excluded(rel string, opts Options) bool {
	for _, pattern := range opts.ExcludePatterns {
		if strings.ContainsAny(pattern, "*?[{") {
			if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
				return true
			}
			continue
		}
		if strings.Contains(rel, pattern) {
			return true
		}
	}
	return false
}

func (s *Scanner) wanted(rel string, opts Options) bool {
	ext := strings.ToLower(filepath.Ext(rel))
	for _, want := range opts.SourceExtensions {
		if ext == want {
			return true
		}
	}
	if opts.IncludeDocs && (ext == ".md" || ext == ".txt") {
		return true
	}
	return false
}

// IsTestFile reports whether a path matches the test-suffix convention
func IsTestFile(path string) bool {
	base := filepath.Base(path)
	return strings.Contains(base, ".test.") ||
		strings.Contains(base, ".spec.") ||
		strings.HasSuffix(path, "_test.go") ||
		strings.Contains(filepath.ToSlash(path), "/__tests__/")
}
