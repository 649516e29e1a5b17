package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"tde/internal/deps"
	"tde/internal/engine"
	"tde/internal/quality"
	"tde/internal/refactor"
)

// qualityOptions reads the shared analysis options from query parameters
func qualityOptions(r *http.Request) quality.Options {
	q := r.URL.Query()
	opts := quality.Options{
		IncludeTests: q.Get("includeTests") == "true",
		IncludeDocs:  q.Get("includeDocs") == "true",
		Depth:        q.Get("depth"),
	}
	if modules := q.Get("modules"); modules != "" {
		opts.Modules = strings.Split(modules, ",")
	}
	return opts
}

// writeReport renders v as JSON, or YAML when format=yaml is requested
func writeReport(w http.ResponseWriter, r *http.Request, v interface{}) {
	if r.URL.Query().Get("format") == "yaml" {
		w.Header().Set("Content-Type", "application/x-yaml")
		w.WriteHeader(http.StatusOK)
		if err := engine.Export(w, v, engine.FormatYAML); err != nil {
			// Headers are already out; nothing sane left to send
			return
		}
		return
	}
	WriteJSON(w, v, http.StatusOK)
}

func (s *Server) handleProjectQuality(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowed(w)
		return
	}

	report, err := s.engine.AnalyzeProject(r.Context(), qualityOptions(r))
	if err != nil {
		WriteError(w, err)
		return
	}
	writeReport(w, r, report)
}

func (s *Server) handleModuleQuality(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowed(w)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/quality/modules/")
	if name == "" || strings.Contains(name, "/") {
		BadRequest(w, "module name required: /quality/modules/{name}")
		return
	}

	report, err := s.engine.AnalyzeModule(r.Context(), name, qualityOptions(r))
	if err != nil {
		WriteError(w, err)
		return
	}
	writeReport(w, r, report)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowed(w)
		return
	}

	metrics, err := s.engine.Metrics(r.Context(), qualityOptions(r))
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, metrics, http.StatusOK)
}

func (s *Server) handleOpportunities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowed(w)
		return
	}

	opportunities, err := s.engine.Opportunities(r.Context(), r.URL.Query().Get("module"))
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, opportunities, http.StatusOK)
}

// planRequest is the POST /refactorings/plan body
type planRequest struct {
	Name   string `json:"name"`
	Module string `json:"module,omitempty"`
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowed(w)
		return
	}

	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid JSON body")
		return
	}
	if req.Name == "" {
		BadRequest(w, "plan name required")
		return
	}

	plan, err := s.engine.CreatePlan(r.Context(), req.Name, req.Module)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, plan, http.StatusCreated)
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowed(w)
		return
	}

	var req refactor.ApplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid JSON body")
		return
	}
	if req.OpportunityID == "" {
		BadRequest(w, "opportunityId required")
		return
	}

	result, err := s.engine.ApplyRefactoring(r.Context(), req)
	if err != nil {
		WriteError(w, err)
		return
	}
	// Failures are results, not errors; the status code still reflects them
	status := http.StatusOK
	if result.Status == refactor.StatusFailed || result.Status == refactor.StatusRejected {
		status = http.StatusUnprocessableEntity
	}
	WriteJSON(w, result, status)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowed(w)
		return
	}

	history, err := s.engine.RefactoringHistory()
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, history, http.StatusOK)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowed(w)
		return
	}

	stats, err := s.engine.RefactoringStats()
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, stats, http.StatusOK)
}

func (s *Server) handleDependencyReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowed(w)
		return
	}

	report, err := s.engine.AnalyzeDependencies(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	writeReport(w, r, report)
}

func (s *Server) handleVulnerabilities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowed(w)
		return
	}
	WriteJSON(w, s.engine.Vulnerabilities(r.Context()), http.StatusOK)
}

func (s *Server) handleOutdated(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowed(w)
		return
	}
	WriteJSON(w, s.engine.OutdatedPackages(r.Context()), http.StatusOK)
}

func (s *Server) handleFullAnalysis(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowed(w)
		return
	}

	analysis, err := s.engine.FullDependencyAnalysis(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	writeReport(w, r, analysis)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowed(w)
		return
	}

	var opts deps.UpdateOptions
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		BadRequest(w, "invalid JSON body")
		return
	}

	updates, err := s.engine.UpdateDependencies(r.Context(), opts)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, updates, http.StatusOK)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowed(w)
		return
	}

	dashboard, err := s.engine.Dashboard(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	writeReport(w, r, dashboard)
}
