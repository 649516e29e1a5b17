package refactor

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// A transformation rewrites the affected files of one opportunity and
// reports how many lines it changed. Transformations receive absolute
// project-relative paths resolved against root.

type transformResult struct {
	filesModified []string
	linesChanged  int
}

var importLineRe = regexp.MustCompile(`^\s*import\s.+?from\s+['"].+['"];?\s*$|^\s*import\s+['"].+['"];?\s*$`)

// transformOptimizeImports deduplicates and sorts the leading import block of
// each affected file. Non-import lines are left untouched.
func transformOptimizeImports(root string, files []string) (*transformResult, error) {
	result := &transformResult{}

	for _, rel := range files {
		path := filepath.Join(root, rel)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", rel, err)
		}

		lines := strings.Split(string(data), "\n")
		var imports []string
		var rest []string
		seen := map[string]bool{}
		inHeader := true
		for _, line := range lines {
			if inHeader && importLineRe.MatchString(line) {
				trimmed := strings.TrimSpace(line)
				if !seen[trimmed] {
					seen[trimmed] = true
					imports = append(imports, trimmed)
				}
				continue
			}
			if inHeader && strings.TrimSpace(line) == "" && len(rest) == 0 {
				continue
			}
			inHeader = false
			rest = append(rest, line)
		}

		if len(imports) == 0 {
			continue
		}
		sort.Strings(imports)

		var out []string
		out = append(out, imports...)
		out = append(out, "")
		out = append(out, rest...)
		updated := strings.Join(out, "\n")

		if updated == string(data) {
			continue
		}
		if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
			return nil, fmt.Errorf("write %s: %w", rel, err)
		}
		result.filesModified = append(result.filesModified, rel)
		result.linesChanged += countChangedLines(string(data), updated)
	}

	return result, nil
}

// transformRemoveDuplication keeps the first file of a duplicate cluster as
// the canonical copy and rewrites each remaining member as a re-export of it.
func transformRemoveDuplication(root string, files []string) (*transformResult, error) {
	if len(files) < 2 {
		return nil, fmt.Errorf("duplicate cluster needs at least 2 files, got %d", len(files))
	}

	canonical := files[0]
	result := &transformResult{}

	for _, rel := range files[1:] {
		path := filepath.Join(root, rel)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", rel, err)
		}

		target, err := relativeImport(rel, canonical)
		if err != nil {
			return nil, err
		}
		updated := fmt.Sprintf("export * from '%s';\n", target)

		if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
			return nil, fmt.Errorf("write %s: %w", rel, err)
		}
		result.filesModified = append(result.filesModified, rel)
		result.linesChanged += countChangedLines(string(data), updated)
	}

	return result, nil
}

// relativeImport builds the module specifier importing to from from
func relativeImport(from, to string) (string, error) {
	rel, err := filepath.Rel(filepath.Dir(from), to)
	if err != nil {
		return "", fmt.Errorf("relativize %s -> %s: %w", from, to, err)
	}
	rel = filepath.ToSlash(strings.TrimSuffix(rel, filepath.Ext(rel)))
	if !strings.HasPrefix(rel, ".") {
		rel = "./" + rel
	}
	return rel, nil
}

var magicNumberRe = regexp.MustCompile(`\b\d{2,}\b`)

// transformReplaceMagicNumbers hoists repeated multi-digit literals in each
// affected file into named constants at the top of the file.
func transformReplaceMagicNumbers(root string, files []string) (*transformResult, error) {
	result := &transformResult{}

	for _, rel := range files {
		path := filepath.Join(root, rel)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", rel, err)
		}
		content := string(data)

		counts := map[string]int{}
		var order []string
		for _, m := range magicNumberRe.FindAllString(content, -1) {
			if counts[m] == 0 {
				order = append(order, m)
			}
			counts[m]++
		}

		var decls []string
		for _, literal := range order {
			if counts[literal] < 2 {
				continue
			}
			name := "MAGIC_" + literal
			decls = append(decls, fmt.Sprintf("const %s = %s;", name, literal))
			content = regexp.MustCompile(`\b`+literal+`\b`).ReplaceAllString(content, name)
		}
		if len(decls) == 0 {
			continue
		}

		updated := strings.Join(decls, "\n") + "\n\n" + content
		if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
			return nil, fmt.Errorf("write %s: %w", rel, err)
		}
		result.filesModified = append(result.filesModified, rel)
		result.linesChanged += countChangedLines(string(data), updated)
	}

	return result, nil
}

// countChangedLines approximates a diff: lines differing at the same index
// plus the length difference
func countChangedLines(before, after string) int {
	a := strings.Split(before, "\n")
	b := strings.Split(after, "\n")

	shorter := len(a)
	if len(b) < shorter {
		shorter = len(b)
	}

	changed := 0
	for i := 0; i < shorter; i++ {
		if a[i] != b[i] {
			changed++
		}
	}
	if len(a) > len(b) {
		changed += len(a) - len(b)
	} else {
		changed += len(b) - len(a)
	}
	return changed
}
