// Package modules resolves the set of analyzable modules under a project
// root. A MODULES.toml declaration file wins when present; otherwise modules
// are inferred from the directory layout.
package modules

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// DeclarationFile is the default filename for module declarations
const DeclarationFile = "MODULES.toml"

// Module is one analyzable unit of the project
type Module struct {
	// Name is the module identifier used in reports and API paths
	Name string `json:"name" toml:"name"`

	// Path is the project-relative path to the module root
	Path string `json:"path" toml:"path"`

	// Responsibility is an optional one-line description
	Responsibility string `json:"responsibility,omitempty" toml:"responsibility,omitempty"`

	// Owner is an optional owner reference (e.g. @team-name)
	Owner string `json:"owner,omitempty" toml:"owner,omitempty"`
}

// DeclarationsFile is the root structure of MODULES.toml
type DeclarationsFile struct {
	Version int      `toml:"version"`
	Modules []Module `toml:"module"`
}

// ParseDeclarations parses a MODULES.toml file
func ParseDeclarations(filePath string) (*DeclarationsFile, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read declarations: %w", err)
	}

	var file DeclarationsFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", DeclarationFile, err)
	}

	for i, m := range file.Modules {
		if m.Name == "" {
			return nil, fmt.Errorf("module %d in %s has no name", i, DeclarationFile)
		}
		if m.Path == "" {
			file.Modules[i].Path = m.Name
		}
	}

	return &file, nil
}

// WriteDeclarations writes a MODULES.toml file
func WriteDeclarations(filePath string, file *DeclarationsFile) error {
	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("marshal declarations: %w", err)
	}
	return os.WriteFile(filePath, data, 0644)
}

// skipDirs are never inferred as modules
var skipDirs = map[string]bool{
	"node_modules": true,
	"dist":         true,
	"build":        true,
	"coverage":     true,
	"vendor":       true,
	"testdata":     true,
}

// Discover resolves modules for a project root: declared modules when
// MODULES.toml exists, otherwise each immediate subdirectory containing
// source files. Results are sorted by name.
func Discover(projectRoot string) ([]Module, error) {
	declPath := filepath.Join(projectRoot, DeclarationFile)
	if _, err := os.Stat(declPath); err == nil {
		file, err := ParseDeclarations(declPath)
		if err != nil {
			return nil, err
		}
		mods := append([]Module(nil), file.Modules...)
		sort.Slice(mods, func(i, j int) bool { return mods[i].Name < mods[j].Name })
		return mods, nil
	}

	entries, err := os.ReadDir(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("read project root: %w", err)
	}

	var mods []Module
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() || strings.HasPrefix(name, ".") || skipDirs[name] {
			continue
		}
		if !containsSource(filepath.Join(projectRoot, name)) {
			continue
		}
		mods = append(mods, Module{Name: name, Path: name})
	}

	sort.Slice(mods, func(i, j int) bool { return mods[i].Name < mods[j].Name })
	return mods, nil
}

// Find returns the module with the given name, or false when unknown
func Find(mods []Module, name string) (Module, bool) {
	for _, m := range mods {
		if m.Name == name {
			return m, true
		}
	}
	return Module{}, false
}

var sourceExtensions = map[string]bool{
	".ts": true, ".tsx": true, ".js": true, ".jsx": true,
}

// containsSource reports whether dir holds any source file, searching at most
// a few levels deep
func containsSource(dir string) bool {
	found := false
	_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || found {
			return filepath.SkipAll
		}
		if d.IsDir() {
			if skipDirs[d.Name()] || strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if sourceExtensions[strings.ToLower(filepath.Ext(path))] {
			found = true
			return filepath.SkipAll
		}
		return nil
	})
	return found
}
