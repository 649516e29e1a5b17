package deps

import (
	"strconv"
	"strings"
)

// parseVersion extracts the numeric major.minor.patch triple, tolerating
// range prefixes (^, ~, >=) and pre-release suffixes. Missing components
// default to zero.
func parseVersion(v string) (major, minor, patch int) {
	v = strings.TrimLeft(v, "^~><= v")
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v = v[:i]
	}

	parts := strings.SplitN(v, ".", 3)
	read := func(i int) int {
		if i >= len(parts) {
			return 0
		}
		n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil {
			return 0
		}
		return n
	}
	return read(0), read(1), read(2)
}

// Classify buckets the jump from current to latest. Differing major means
// major-update, differing minor means minor-update, anything else counts
// as up-to-date; patch-only differences collapse into minor-update.
func Classify(current, latest string) DependencyStatus {
	if latest == "" {
		return StatusUpToDate
	}

	curMajor, curMinor, curPatch := parseVersion(current)
	latMajor, latMinor, latPatch := parseVersion(latest)

	switch {
	case curMajor != latMajor:
		return StatusMajorUpdate
	case curMinor != latMinor:
		return StatusMinorUpdate
	case curPatch != latPatch:
		return StatusMinorUpdate
	default:
		return StatusUpToDate
	}
}

// ChangeClassOf is the finer-grained classification used on recommendations
func ChangeClassOf(current, latest string) ChangeClass {
	curMajor, curMinor, _ := parseVersion(current)
	latMajor, latMinor, _ := parseVersion(latest)

	switch {
	case curMajor != latMajor:
		return ChangeMajor
	case curMinor != latMinor:
		return ChangeMinor
	default:
		return ChangePatch
	}
}
