package scan

import (
	"regexp"
	"strings"
)

// Complexity is approximated from textual decision-point counts rather than a
// parse tree. The count tracks branches closely enough for scoring and costs a
// fraction of an AST pass; exactness is an accepted trade-off.

var decisionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bif\s*\(`),
	regexp.MustCompile(`\belse\s+if\b`),
	regexp.MustCompile(`\bfor\s*\(`),
	regexp.MustCompile(`\bwhile\s*\(`),
	regexp.MustCompile(`\bcase\s`),
	regexp.MustCompile(`\bcatch\s*[({]`),
	regexp.MustCompile(`&&`),
	regexp.MustCompile(`\|\|`),
	regexp.MustCompile(`\?[^.:]+:`), // ternary, not optional chaining or type annotations
}

// MeasureComplexity returns 1 plus the number of decision points in content
func MeasureComplexity(content string) int {
	complexity := 1
	for _, re := range decisionPatterns {
		complexity += len(re.FindAllString(content, -1))
	}
	return complexity
}

// controlKeywords are statement heads that look like `name (...) {` but are
// not function declarations
var controlKeywords = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true,
	"catch": true, "return": true, "do": true, "else": true,
}

var functionHeadRe = regexp.MustCompile(
	`(?:function\s+(\w+)|(\w+)\s*=\s*(?:async\s+)?(?:function|\([^)]*\)\s*=>)|(?:async\s+)?(\w+)\s*\([^)]*\)\s*\{)`)

// FindFunctions locates function bodies by brace balance tracking, starting at
// each function-looking head. Returns one span per body with its line count
// and decision-point complexity.
func FindFunctions(filePath, content string) []FunctionSpan {
	lines := strings.Split(content, "\n")
	var spans []FunctionSpan

	for i := 0; i < len(lines); i++ {
		m := functionHeadRe.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}
		name := firstNonEmpty(m[1:])
		if controlKeywords[name] {
			continue
		}

		// Walk forward tracking brace balance until the body closes
		depth := 0
		opened := false
		end := -1
		for j := i; j < len(lines); j++ {
			for _, ch := range lines[j] {
				switch ch {
				case '{':
					depth++
					opened = true
				case '}':
					depth--
				}
			}
			if opened && depth <= 0 {
				end = j
				break
			}
		}
		if end < 0 {
			// Unbalanced braces; treat the rest of the file as the body
			end = len(lines) - 1
		}

		body := strings.Join(lines[i:end+1], "\n")
		spans = append(spans, FunctionSpan{
			Name:       name,
			FilePath:   filePath,
			StartLine:  i + 1,
			Lines:      end - i + 1,
			Complexity: MeasureComplexity(body),
		})

		i = end
	}

	return spans
}

func firstNonEmpty(groups []string) string {
	for _, g := range groups {
		if g != "" {
			return g
		}
	}
	return ""
}
