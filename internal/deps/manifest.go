package deps

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Manifest is the subset of the package manifest the auditor reads
type Manifest struct {
	Name             string            `json:"name"`
	Version          string            `json:"version"`
	Dependencies     map[string]string `json:"dependencies"`
	DevDependencies  map[string]string `json:"devDependencies"`
	PeerDependencies map[string]string `json:"peerDependencies"`
}

// ReadManifest parses the package manifest at path
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

// Declared enumerates every declared dependency sorted by name, with
// production dependencies before dev and peer ones
func (m *Manifest) Declared() []Dependency {
	var deps []Dependency
	deps = append(deps, declaredOf(m.Dependencies, TypeDirect)...)
	deps = append(deps, declaredOf(m.DevDependencies, TypeDev)...)
	deps = append(deps, declaredOf(m.PeerDependencies, TypePeer)...)
	return deps
}

func declaredOf(versions map[string]string, depType DependencyType) []Dependency {
	names := make([]string, 0, len(versions))
	for name := range versions {
		names = append(names, name)
	}
	sort.Strings(names)

	deps := make([]Dependency, 0, len(names))
	for _, name := range names {
		deps = append(deps, Dependency{
			Name:           name,
			CurrentVersion: versions[name],
			Type:           depType,
		})
	}
	return deps
}
