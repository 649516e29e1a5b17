package scan

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Fingerprinting detects whole-file duplicates: two files whose content is the
// same after stripping comments, collapsing whitespace, and canonicalizing
// identifier names hash to the same value. Renamed variables do not defeat it;
// structural edits do. This is file-granularity detection, not fragment-level.

var (
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineCommentRe  = regexp.MustCompile(`//[^\n]*`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
	identifierRe   = regexp.MustCompile(`[A-Za-z_$][A-Za-z0-9_$]*`)
)

// reservedWords are never canonicalized; they carry the structure of the code
var reservedWords = map[string]bool{
	"abstract": true, "any": true, "as": true, "async": true, "await": true,
	"boolean": true, "break": true, "case": true, "catch": true, "class": true,
	"const": true, "continue": true, "default": true, "delete": true, "do": true,
	"else": true, "enum": true, "export": true, "extends": true, "false": true,
	"finally": true, "for": true, "from": true, "function": true, "if": true,
	"implements": true, "import": true, "in": true, "instanceof": true,
	"interface": true, "let": true, "new": true, "null": true, "number": true,
	"of": true, "private": true, "protected": true, "public": true, "return": true,
	"static": true, "string": true, "super": true, "switch": true, "this": true,
	"throw": true, "true": true, "try": true, "type": true, "typeof": true,
	"undefined": true, "var": true, "void": true, "while": true, "yield": true,
}

// NormalizeContent strips comments and whitespace and replaces each distinct
// identifier with a positional placeholder in order of first appearance.
func NormalizeContent(content string) string {
	stripped := blockCommentRe.ReplaceAllString(content, "")
	stripped = lineCommentRe.ReplaceAllString(stripped, "")

	seen := make(map[string]string)
	canonical := identifierRe.ReplaceAllStringFunc(stripped, func(ident string) string {
		if reservedWords[ident] {
			return ident
		}
		if placeholder, ok := seen[ident]; ok {
			return placeholder
		}
		placeholder := "v" + strconv.Itoa(len(seen))
		seen[ident] = placeholder
		return placeholder
	})

	canonical = whitespaceRe.ReplaceAllString(canonical, "")
	return strings.TrimSpace(canonical)
}

// Fingerprint hashes the normalized content of a file
func Fingerprint(content string) uint64 {
	return xxhash.Sum64String(NormalizeContent(content))
}
