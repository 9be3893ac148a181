package server

import (
	"errors"
	"io/fs"
	"net/http"
	"strings"
)

// handleLogin handles GET /api/mcp/login. It requests a broker login URL
// through the MCP session; the user completes the handshake in a browser.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	url, err := s.app.SessionManager.GetLoginURL(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Login URL request failed")
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"login_url": url})
}

// handleHoldings handles GET /api/mcp/holdings. The refresh=true query
// parameter bypasses the cache.
func (s *Server) handleHoldings(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	forceRefresh := r.URL.Query().Get("refresh") == "true"

	holdings, err := s.app.PortfolioService.GetHoldings(r.Context(), forceRefresh)
	if err != nil {
		s.logger.Error().Err(err).Bool("refresh", forceRefresh).Msg("Holdings request failed")
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"count":    len(holdings),
		"holdings": holdings,
	})
}

// handleHoldingsCache handles DELETE /api/mcp/holdings/cache.
func (s *Server) handleHoldingsCache(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}

	s.app.PortfolioService.Invalidate()
	WriteJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

// handleThesis dispatches /api/thesis/{symbol}: GET parses the stored
// document, POST generates a fresh one.
func (s *Server) handleThesis(w http.ResponseWriter, r *http.Request) {
	symbol := strings.TrimSpace(PathParam(r, "/api/thesis/"))
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "symbol is required in path")
		return
	}

	switch r.Method {
	case http.MethodGet:
		doc, err := s.app.ThesisService.Load(r.Context(), symbol)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				WriteError(w, http.StatusNotFound, "No thesis document for "+strings.ToUpper(symbol))
				return
			}
			s.logger.Error().Err(err).Str("symbol", symbol).Msg("Thesis load failed")
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, doc)

	case http.MethodPost:
		doc, err := s.app.ThesisService.Generate(r.Context(), symbol)
		if err != nil {
			s.logger.Error().Err(err).Str("symbol", symbol).Msg("Thesis generation failed")
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, doc)

	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

// handleMarketPrices handles GET /api/market/prices/{symbol}.
func (s *Server) handleMarketPrices(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	symbol := strings.TrimSpace(PathParam(r, "/api/market/prices/"))
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "symbol is required in path")
		return
	}

	series, err := s.app.MarketDataClient.GetMonthlyCloses(r.Context(), strings.ToUpper(symbol))
	if err != nil {
		s.logger.Error().Err(err).Str("symbol", symbol).Msg("Price history request failed")
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, series)
}

// handleMarketFinancials handles GET /api/market/financials/{symbol}.
func (s *Server) handleMarketFinancials(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	symbol := strings.TrimSpace(PathParam(r, "/api/market/financials/"))
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "symbol is required in path")
		return
	}

	data, err := s.app.ScreenerClient.GetFinancials(r.Context(), strings.ToUpper(symbol))
	if err != nil {
		s.logger.Error().Err(err).Str("symbol", symbol).Msg("Financials request failed")
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, data)
}
