package scan

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// TuningFile is the optional per-project detector tuning file
const TuningFile = "detectors.toml"

// Tuning adjusts detector thresholds and lets individual detectors be
// switched off per project.
type Tuning struct {
	// AnyThreshold is the number of ': any' annotations tolerated per file
	AnyThreshold int `toml:"any_threshold"`

	// LongFunctionLines is the maximum tolerated function body length
	LongFunctionLines int `toml:"long_function_lines"`

	// Disabled lists detector names to skip
	Disabled []string `toml:"disabled"`
}

// DefaultTuning returns the standard thresholds
func DefaultTuning() Tuning {
	return Tuning{
		AnyThreshold:      3,
		LongFunctionLines: 50,
	}
}

// Enabled reports whether the named detector should run
func (t Tuning) Enabled(name string) bool {
	for _, d := range t.Disabled {
		if d == name {
			return false
		}
	}
	return true
}

// LoadTuning reads <configDir>/detectors.toml. A missing file yields the
// defaults; a malformed file is an error so silent misconfiguration can't
// disable detection.
func LoadTuning(configDir string) (Tuning, error) {
	tuning := DefaultTuning()

	path := filepath.Join(configDir, TuningFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return tuning, nil
		}
		return tuning, err
	}

	if err := toml.Unmarshal(data, &tuning); err != nil {
		return DefaultTuning(), err
	}
	if tuning.AnyThreshold <= 0 {
		tuning.AnyThreshold = 3
	}
	if tuning.LongFunctionLines <= 0 {
		tuning.LongFunctionLines = 50
	}
	return tuning, nil
}
