package api

// registerRoutes registers all API routes
func (s *Server) registerRoutes() {
	// Health and readiness
	s.router.HandleFunc("/health", s.handleHealth)
	s.router.HandleFunc("/ready", s.handleReady)

	// Quality analysis
	s.router.HandleFunc("/quality/project", s.handleProjectQuality)
	s.router.HandleFunc("/quality/modules/", s.handleModuleQuality) // GET /quality/modules/:name
	s.router.HandleFunc("/metrics", s.handleMetrics)

	// Refactoring
	s.router.HandleFunc("/refactorings/opportunities", s.handleOpportunities)
	s.router.HandleFunc("/refactorings/plan", s.handleCreatePlan)  // POST
	s.router.HandleFunc("/refactorings/apply", s.handleApply)      // POST
	s.router.HandleFunc("/refactorings/history", s.handleHistory)
	s.router.HandleFunc("/refactorings/stats", s.handleStats)

	// Dependencies
	s.router.HandleFunc("/dependencies/report", s.handleDependencyReport)
	s.router.HandleFunc("/dependencies/vulnerabilities", s.handleVulnerabilities)
	s.router.HandleFunc("/dependencies/outdated", s.handleOutdated)
	s.router.HandleFunc("/dependencies/analysis", s.handleFullAnalysis)
	s.router.HandleFunc("/dependencies/update", s.handleUpdate) // POST

	// Composed view
	s.router.HandleFunc("/dashboard", s.handleDashboard)
}
