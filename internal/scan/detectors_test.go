package scan

import (
	"testing"
)

func TestAsyncWithoutTryCatch(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		wantIssues int
	}{
		{
			name:       "async without try catch",
			content:    "async function load() {\n  const r = await fetch(url);\n  return r.json();\n}\n",
			wantIssues: 1,
		},
		{
			name:       "async with try catch",
			content:    "async function load() {\n  try {\n    return await fetch(url);\n  } catch (e) {\n    return null;\n  }\n}\n",
			wantIssues: 0,
		},
		{
			name:       "no async at all",
			content:    "function add(a, b) { return a + b; }\n",
			wantIssues: 0,
		},
		{
			name:       "two async functions still one issue",
			content:    "async function a() { await x(); }\nasync function b() { await y(); }\n",
			wantIssues: 1,
		},
		{
			name:       "async arrow function",
			content:    "const load = async () => await fetch(url);\n",
			wantIssues: 1,
		},
		{
			name:       "keyword substrings inside identifiers do not count",
			content:    "async function load(country) {\n  return await catchment[country];\n}\n",
			wantIssues: 1,
		},
	}

	detector := &AsyncWithoutTryCatch{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := detector.Detect(FileInfo{Path: "src/a.ts", Content: tt.content})
			if len(issues) != tt.wantIssues {
				t.Fatalf("got %d issues, want %d", len(issues), tt.wantIssues)
			}
			if tt.wantIssues == 1 {
				issue := issues[0]
				if issue.Severity != SeverityHigh {
					t.Errorf("severity = %q, want high", issue.Severity)
				}
				if issue.TechnicalDebt != 15 {
					t.Errorf("technicalDebt = %d, want 15", issue.TechnicalDebt)
				}
				if issue.Type != IssueErrorHandling {
					t.Errorf("type = %q, want error-handling", issue.Type)
				}
			}
		})
	}
}

func TestUntypedEscapes(t *testing.T) {
	three := "let a: any;\nlet b: any;\nlet c: any;\n"
	four := three + "let d: any;\n"

	detector := &UntypedEscapes{Threshold: 3}

	if got := detector.Detect(FileInfo{Path: "x.ts", Content: three}); len(got) != 0 {
		t.Errorf("3 occurrences should be tolerated, got %d issues", len(got))
	}

	issues := detector.Detect(FileInfo{Path: "x.ts", Content: four})
	if len(issues) != 1 {
		t.Fatalf("4 occurrences should yield 1 issue, got %d", len(issues))
	}
	if issues[0].AutoFixable {
		t.Error("type-safety issue must not be auto-fixable")
	}
	if issues[0].TechnicalDebt != 30 {
		t.Errorf("technicalDebt = %d, want 30", issues[0].TechnicalDebt)
	}
}

func TestLongFunctions(t *testing.T) {
	short := "function ok() {\n  return 1;\n}\n"
	long := "function big() {\n"
	for i := 0; i < 55; i++ {
		long += "  doStep();\n"
	}
	long += "}\n"

	detector := &LongFunctions{MaxLines: 50}

	if got := detector.Detect(FileInfo{Path: "x.ts", Content: short}); len(got) != 0 {
		t.Errorf("short function flagged: %d issues", len(got))
	}

	issues := detector.Detect(FileInfo{Path: "x.ts", Content: long})
	if len(issues) != 1 {
		t.Fatalf("got %d issues, want 1", len(issues))
	}
	if issues[0].TechnicalDebt != 60 {
		t.Errorf("technicalDebt = %d, want 60", issues[0].TechnicalDebt)
	}
	if issues[0].LineRange == nil || issues[0].LineRange.Start != 1 {
		t.Errorf("lineRange = %+v", issues[0].LineRange)
	}
}

func TestTodoMarkers(t *testing.T) {
	content := "// TODO: handle pagination\nconst x = 1;\n// fixme later\n"
	issues := (&TodoMarkers{}).Detect(FileInfo{Path: "x.ts", Content: content})
	if len(issues) != 2 {
		t.Fatalf("got %d issues, want 2", len(issues))
	}
	if issues[0].LineNumber != 1 || issues[1].LineNumber != 3 {
		t.Errorf("line numbers = %d, %d", issues[0].LineNumber, issues[1].LineNumber)
	}
	for _, issue := range issues {
		if issue.Severity != SeverityLow || issue.TechnicalDebt != 30 {
			t.Errorf("issue = %+v", issue)
		}
	}
}

func TestConsoleLogging(t *testing.T) {
	content := "console.log('hi');\nlogger.info('ok');\nconsole.error(err);\n"
	issues := (&ConsoleLogging{}).Detect(FileInfo{Path: "x.ts", Content: content})
	if len(issues) != 2 {
		t.Fatalf("got %d issues, want 2", len(issues))
	}
	for _, issue := range issues {
		if !issue.AutoFixable {
			t.Error("console logging should be auto-fixable")
		}
		if issue.TechnicalDebt != 5 {
			t.Errorf("technicalDebt = %d, want 5", issue.TechnicalDebt)
		}
	}
}

func TestHardcodedURLs(t *testing.T) {
	content := "const api = 'https://api.example.com/v1';\n"

	issues := (&HardcodedURLs{}).Detect(FileInfo{Path: "src/client.ts", Content: content})
	if len(issues) != 1 {
		t.Fatalf("got %d issues, want 1", len(issues))
	}
	if issues[0].Severity != SeverityMedium || issues[0].TechnicalDebt != 20 {
		t.Errorf("issue = %+v", issues[0])
	}

	// Test files are exempt
	testIssues := (&HardcodedURLs{}).Detect(FileInfo{Path: "src/client.test.ts", Content: content, IsTest: true})
	if len(testIssues) != 0 {
		t.Errorf("test file flagged: %d issues", len(testIssues))
	}
}

func TestIssueIDStable(t *testing.T) {
	a := IssueID("src/a.ts", IssueComplexity, 10)
	b := IssueID("src/a.ts", IssueComplexity, 10)
	c := IssueID("src/a.ts", IssueComplexity, 11)

	if a != b {
		t.Errorf("same inputs produced different ids: %q vs %q", a, b)
	}
	if a == c {
		t.Error("different locations produced the same id")
	}
}
