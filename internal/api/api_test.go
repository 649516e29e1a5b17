package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tde/internal/auth"
	"tde/internal/config"
	"tde/internal/engine"
	"tde/internal/logging"
	"tde/internal/quality"
	"tde/internal/refactor"
	"tde/internal/scan"
	"tde/internal/toolrun"
)

func newTestServer(t *testing.T, tokens *auth.Store) (*Server, string) {
	t.Helper()
	root := t.TempDir()

	files := map[string]string{
		"api/handler.ts":  "console.log('request');\nexport function handle() {\n  return 1;\n}\n",
		"core/service.ts": "export const run = () => 2;\n",
		"package.json":    `{"name": "app", "dependencies": {"express": "4.17.1"}}`,
	}
	for rel, content := range files {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := config.DefaultConfig()
	cfg.ProjectRoot = root
	cfg.Deps.AuditCommand = []string{"audit-tool"}
	cfg.Deps.OutdatedCommand = []string{"outdated-tool"}
	cfg.Deps.UnusedCommand = []string{"unused-tool"}

	scanner := scan.NewScanner(root, scan.DefaultDetectors(scan.DefaultTuning()), logging.Nop())
	analyzer := quality.NewAnalyzerWithScanner(cfg, scanner, logging.Nop())
	eng := engine.NewWithDeps(cfg, logging.Nop(), analyzer, refactor.NewMemoryHistory(), &toolrun.FakeRunner{})
	t.Cleanup(func() { eng.Close() })

	return NewServer("127.0.0.1:0", eng, tokens, logging.Nop()), root
}

func doJSON(t *testing.T, server *Server, method, path string, body interface{}, out interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req := httptest.NewRequest(method, path, reqBody)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	if out != nil && rec.Code < 300 {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("unmarshal %s %s response: %v\n%s", method, path, err, rec.Body.String())
		}
	}
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t, nil)

	var resp healthResponse
	rec := doJSON(t, server, http.MethodGet, "/health", nil, &resp)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if resp.Status != "ok" {
		t.Errorf("health = %+v", resp)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing request id header")
	}
}

func TestProjectQualityEndpoint(t *testing.T) {
	server, _ := newTestServer(t, nil)

	var report quality.ProjectReport
	rec := doJSON(t, server, http.MethodGet, "/quality/project", nil, &report)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if len(report.Modules) != 2 {
		t.Errorf("modules = %d, want 2", len(report.Modules))
	}
	if report.Score.Overall <= 0 {
		t.Errorf("score = %v", report.Score.Overall)
	}
}

func TestProjectQualityYAMLExport(t *testing.T) {
	server, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/quality/project?format=yaml", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/x-yaml" {
		t.Errorf("content type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "score:") {
		t.Errorf("body does not look like YAML:\n%s", rec.Body.String())
	}
}

func TestModuleQualityEndpoint(t *testing.T) {
	server, _ := newTestServer(t, nil)

	var report quality.ModuleReport
	rec := doJSON(t, server, http.MethodGet, "/quality/modules/api", nil, &report)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if report.Module != "api" || report.FileCount != 1 {
		t.Errorf("report = module %q, %d files", report.Module, report.FileCount)
	}

	// Unknown modules degrade to a zeroed report, not an error
	var unknown quality.ModuleReport
	rec = doJSON(t, server, http.MethodGet, "/quality/modules/nonexistent", nil, &unknown)
	if rec.Code != http.StatusOK {
		t.Fatalf("unknown module status = %d", rec.Code)
	}
	if unknown.FileCount != 0 || len(unknown.Issues) != 0 {
		t.Errorf("unknown module report = %+v", unknown)
	}
}

func TestModuleQualityBadPath(t *testing.T) {
	server, _ := newTestServer(t, nil)

	rec := doJSON(t, server, http.MethodGet, "/quality/modules/", nil, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestOpportunitiesAndApplyFlow(t *testing.T) {
	server, root := newTestServer(t, nil)

	var opportunities []refactor.Opportunity
	rec := doJSON(t, server, http.MethodGet, "/refactorings/opportunities?module=api", nil, &opportunities)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(opportunities) == 0 {
		t.Fatal("no opportunities")
	}

	var result refactor.Result
	rec = doJSON(t, server, http.MethodPost, "/refactorings/apply", refactor.ApplyRequest{
		OpportunityID: opportunities[0].ID,
		Module:        "api",
	}, &result)
	if rec.Code != http.StatusOK {
		t.Fatalf("apply status = %d: %s", rec.Code, rec.Body.String())
	}
	if result.Status != refactor.StatusCompleted {
		t.Errorf("result = %+v", result)
	}

	// The file is still there (this opportunity has no import block to touch)
	if _, err := os.Stat(filepath.Join(root, "api/handler.ts")); err != nil {
		t.Error(err)
	}

	var history []refactor.Result
	rec = doJSON(t, server, http.MethodGet, "/refactorings/history", nil, &history)
	if rec.Code != http.StatusOK || len(history) != 1 {
		t.Errorf("history status = %d, entries = %d", rec.Code, len(history))
	}
}

func TestApplyUnknownOpportunityReturns422(t *testing.T) {
	server, _ := newTestServer(t, nil)

	rec := doJSON(t, server, http.MethodPost, "/refactorings/apply", refactor.ApplyRequest{
		OpportunityID: "opp-0000000000000000",
	}, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422: %s", rec.Code, rec.Body.String())
	}
}

func TestApplyMissingIDReturns400(t *testing.T) {
	server, _ := newTestServer(t, nil)

	rec := doJSON(t, server, http.MethodPost, "/refactorings/apply", map[string]string{}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestCreatePlanEndpoint(t *testing.T) {
	server, _ := newTestServer(t, nil)

	var plan refactor.Plan
	rec := doJSON(t, server, http.MethodPost, "/refactorings/plan", planRequest{Name: "sprint"}, &plan)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if plan.Name != "sprint" || len(plan.Risks) == 0 {
		t.Errorf("plan = %+v", plan)
	}
}

func TestDependencyEndpoints(t *testing.T) {
	server, _ := newTestServer(t, nil)

	var report map[string]interface{}
	rec := doJSON(t, server, http.MethodGet, "/dependencies/report", nil, &report)
	if rec.Code != http.StatusOK {
		t.Fatalf("report status = %d", rec.Code)
	}

	rec = doJSON(t, server, http.MethodGet, "/dependencies/vulnerabilities", nil, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("vulnerabilities status = %d", rec.Code)
	}

	rec = doJSON(t, server, http.MethodPost, "/dependencies/update", map[string]string{"strategy": "manual"}, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("update status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, server, http.MethodPost, "/dependencies/update", map[string]string{"strategy": "bogus"}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bogus strategy status = %d, want 400", rec.Code)
	}
}

func TestDashboardEndpoint(t *testing.T) {
	server, _ := newTestServer(t, nil)

	var dashboard engine.Dashboard
	rec := doJSON(t, server, http.MethodGet, "/dashboard", nil, &dashboard)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if dashboard.ModuleCount != 2 {
		t.Errorf("dashboard = %+v", dashboard)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	server, _ := newTestServer(t, nil)

	rec := doJSON(t, server, http.MethodPost, "/quality/project", nil, nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	tokenPath := filepath.Join(t.TempDir(), "token.json")
	tokens := auth.NewStore(tokenPath)
	token, err := tokens.Issue()
	if err != nil {
		t.Fatal(err)
	}

	server, _ := newTestServer(t, tokens)

	// Health stays open
	rec := doJSON(t, server, http.MethodGet, "/health", nil, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want open access", rec.Code)
	}

	// Everything else requires the token
	rec = doJSON(t, server, http.MethodGet, "/metrics", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	good := httptest.NewRecorder()
	server.ServeHTTP(good, req)
	if good.Code != http.StatusOK {
		t.Errorf("authenticated status = %d: %s", good.Code, good.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Authorization", "Bearer "+auth.TokenPrefix+strings.Repeat("ef", auth.TokenLength))
	bad := httptest.NewRecorder()
	server.ServeHTTP(bad, req)
	if bad.Code != http.StatusUnauthorized {
		t.Errorf("wrong token status = %d, want 401", bad.Code)
	}
}
