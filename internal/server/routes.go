package server

import (
	"net/http"

	"github.com/investrlabs/investr/internal/common"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)

	// Broker session
	mux.HandleFunc("/api/mcp/login", s.handleLogin)
	mux.HandleFunc("/api/mcp/holdings/cache", s.handleHoldingsCache)
	mux.HandleFunc("/api/mcp/holdings", s.handleHoldings)

	// Thesis documents
	mux.HandleFunc("/api/thesis/", s.handleThesis)

	// Market data
	mux.HandleFunc("/api/market/prices/", s.handleMarketPrices)
	mux.HandleFunc("/api/market/financials/", s.handleMarketFinancials)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}
