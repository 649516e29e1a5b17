// Package config loads and validates the engine configuration.
//
// Configuration lives at <projectRoot>/.tde/config.json and is loaded through
// viper so environment overrides keep working. Every external command the
// engine invokes (audit, outdated check, unused check, test runner, package
// install) is configurable here instead of being baked in.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ConfigDir is the directory under the project root holding engine state.
const ConfigDir = ".tde"

// Config represents the complete engine configuration
type Config struct {
	Version     int    `json:"version" mapstructure:"version"`
	ProjectRoot string `json:"projectRoot" mapstructure:"projectRoot"`

	Scan     ScanConfig    `json:"scan" mapstructure:"scan"`
	Refactor RefactorConfig `json:"refactor" mapstructure:"refactor"`
	Deps     DepsConfig    `json:"deps" mapstructure:"deps"`
	Server   ServerConfig  `json:"server" mapstructure:"server"`
	Logging  LoggingConfig `json:"logging" mapstructure:"logging"`
}

// ScanConfig controls the issue scanner and quality scorer
type ScanConfig struct {
	// IncludeTests scans files matching the test-suffix convention
	IncludeTests bool `json:"includeTests" mapstructure:"includeTests"`

	// IncludeDocs scans documentation files
	IncludeDocs bool `json:"includeDocs" mapstructure:"includeDocs"`

	// ExcludePatterns are substring or doublestar glob patterns; a path matching
	// any pattern is skipped
	ExcludePatterns []string `json:"excludePatterns" mapstructure:"excludePatterns"`

	// Depth controls how exhaustively duplicate/pattern detection runs:
	// shallow, normal, or deep
	Depth string `json:"depth" mapstructure:"depth"`

	// Modules restricts analysis to a named subset (empty means all)
	Modules []string `json:"modules" mapstructure:"modules"`

	// SourceExtensions are the file extensions treated as source code
	SourceExtensions []string `json:"sourceExtensions" mapstructure:"sourceExtensions"`
}

// RefactorConfig controls the refactoring applier
type RefactorConfig struct {
	// TestCommand runs the project test suite; empty disables test verification
	TestCommand []string `json:"testCommand" mapstructure:"testCommand"`

	// BackupDir is where guarded mutations store snapshots, relative to ConfigDir
	BackupDir string `json:"backupDir" mapstructure:"backupDir"`

	// HistoryDB is the refactoring history database path, relative to ConfigDir
	HistoryDB string `json:"historyDb" mapstructure:"historyDb"`
}

// DepsConfig controls the dependency auditor and updater
type DepsConfig struct {
	// ManifestPath is the package manifest, relative to the project root
	ManifestPath string `json:"manifestPath" mapstructure:"manifestPath"`

	// AuditCommand invokes the ecosystem vulnerability audit (JSON output)
	AuditCommand []string `json:"auditCommand" mapstructure:"auditCommand"`

	// OutdatedCommand invokes the outdated-package check (JSON output)
	OutdatedCommand []string `json:"outdatedCommand" mapstructure:"outdatedCommand"`

	// UnusedCommand invokes the unused-dependency heuristic (JSON output)
	UnusedCommand []string `json:"unusedCommand" mapstructure:"unusedCommand"`

	// InstallCommand installs one package; the package spec is appended
	InstallCommand []string `json:"installCommand" mapstructure:"installCommand"`

	// TestCommand runs the test suite after a batch of updates
	TestCommand []string `json:"testCommand" mapstructure:"testCommand"`

	// ToolTimeoutMs bounds each external tool invocation; 0 means no timeout
	ToolTimeoutMs int `json:"toolTimeoutMs" mapstructure:"toolTimeoutMs"`
}

// ServerConfig controls the HTTP boundary
type ServerConfig struct {
	Addr string `json:"addr" mapstructure:"addr"`

	// AuthEnabled requires a bearer token on every request except /health
	AuthEnabled bool `json:"authEnabled" mapstructure:"authEnabled"`
}

// LoggingConfig controls log output
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:     1,
		ProjectRoot: ".",
		Scan: ScanConfig{
			IncludeTests: false,
			IncludeDocs:  false,
			ExcludePatterns: []string{
				"node_modules",
				"dist",
				"build",
				"coverage",
				".git",
				ConfigDir,
			},
			Depth:            "normal",
			SourceExtensions: []string{".ts", ".js", ".tsx", ".jsx"},
		},
		Refactor: RefactorConfig{
			TestCommand: []string{"npm", "test"},
			BackupDir:   "backups",
			HistoryDB:   "history.db",
		},
		Deps: DepsConfig{
			ManifestPath:    "package.json",
			AuditCommand:    []string{"npm", "audit", "--json"},
			OutdatedCommand: []string{"npm", "outdated", "--json"},
			UnusedCommand:   []string{"npx", "depcheck", "--json"},
			InstallCommand:  []string{"npm", "install"},
			TestCommand:     []string{"npm", "test"},
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:7424",
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// Load reads the configuration from <projectRoot>/.tde/config.json.
// A missing config file yields the defaults, not an error.
func Load(projectRoot string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(projectRoot, ConfigDir))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			cfg := DefaultConfig()
			cfg.ProjectRoot = projectRoot
			return cfg, nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if cfg.ProjectRoot == "" || cfg.ProjectRoot == "." {
		cfg.ProjectRoot = projectRoot
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to <projectRoot>/.tde/config.json
func (c *Config) Save(projectRoot string) error {
	dir := filepath.Join(projectRoot, ConfigDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}

// Validate checks configuration consistency
func (c *Config) Validate() error {
	switch c.Scan.Depth {
	case "", "shallow", "normal", "deep":
	default:
		return fmt.Errorf("invalid scan depth %q (want shallow, normal, or deep)", c.Scan.Depth)
	}
	if c.Deps.ManifestPath == "" {
		return fmt.Errorf("deps.manifestPath must not be empty")
	}
	return nil
}

// BackupPath returns the absolute backup directory
func (c *Config) BackupPath() string {
	return filepath.Join(c.ProjectRoot, ConfigDir, c.Refactor.BackupDir)
}

// HistoryPath returns the absolute refactoring history database path
func (c *Config) HistoryPath() string {
	return filepath.Join(c.ProjectRoot, ConfigDir, c.Refactor.HistoryDB)
}
