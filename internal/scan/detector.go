package scan

// Detector is one issue-detection strategy run against a single file.
// Detectors are independent: each can be enabled, replaced, or tested on its
// own, and the scanner runs whichever set it is given.
type Detector interface {
	// Name returns the detector name used in tuning files and logs
	Name() string

	// Detect inspects one file's content and returns any issues found
	Detect(file FileInfo) []CodeIssue
}

// FileInfo is the per-file input handed to each detector
type FileInfo struct {
	// Path is the project-relative file path
	Path string

	// Content is the full file text
	Content string

	// IsTest reports whether the file matches the test-suffix convention
	IsTest bool
}

// DefaultDetectors returns the standard detector set with the given tuning
func DefaultDetectors(tuning Tuning) []Detector {
	all := []Detector{
		&AsyncWithoutTryCatch{},
		&UntypedEscapes{Threshold: tuning.AnyThreshold},
		&LongFunctions{MaxLines: tuning.LongFunctionLines},
		&TodoMarkers{},
		&ConsoleLogging{},
		&HardcodedURLs{},
	}

	enabled := make([]Detector, 0, len(all))
	for _, d := range all {
		if tuning.Enabled(d.Name()) {
			enabled = append(enabled, d)
		}
	}
	return enabled
}
