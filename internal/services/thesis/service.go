// Package thesis generates and parses investment thesis documents
package thesis

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/investrlabs/investr/internal/common"
	"github.com/investrlabs/investr/internal/interfaces"
	"github.com/investrlabs/investr/internal/models"
)

// Service implements ThesisService
type Service struct {
	gemini     interfaces.GeminiClient
	marketData interfaces.MarketDataClient
	screener   interfaces.ScreenerClient
	config     common.ThesisConfig
	logger     *common.Logger
}

// NewService creates a new thesis service
func NewService(
	gemini interfaces.GeminiClient,
	marketData interfaces.MarketDataClient,
	screener interfaces.ScreenerClient,
	config common.ThesisConfig,
	logger *common.Logger,
) *Service {
	return &Service{
		gemini:     gemini,
		marketData: marketData,
		screener:   screener,
		config:     config,
		logger:     logger,
	}
}

// Parse extracts a typed document from thesis markdown, logging any
// sections that degraded to defaults.
func (s *Service) Parse(text string) *models.ThesisDocument {
	doc := ParseThesis(text)

	var degraded []string
	if doc.ExecutiveSummary == fallbackSummary {
		degraded = append(degraded, "executive_summary")
	}
	if len(doc.Metrics) == 0 {
		degraded = append(degraded, "metrics")
	}
	if len(doc.DecisionMatrix) == 0 {
		degraded = append(degraded, "decision_matrix")
	}
	if doc.Recommendation == "" {
		degraded = append(degraded, "recommendation")
	}
	if len(degraded) > 0 {
		s.logger.Warn().Strs("sections", degraded).Msg("Thesis extraction degraded to defaults")
	}

	return doc
}

// Load reads and parses the stored thesis document for a symbol
func (s *Service) Load(ctx context.Context, symbol string) (*models.ThesisDocument, error) {
	symbol = normalizeSymbol(symbol)
	path := s.reportPath(symbol)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("no thesis document for %s: %w", symbol, err)
	}

	doc := s.Parse(string(data))
	doc.Symbol = symbol
	return doc, nil
}

func (s *Service) reportPath(symbol string) string {
	return filepath.Join(s.config.ReportsDir, symbol+"_Thesis.md")
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Ensure Service implements ThesisService
var _ interfaces.ThesisService = (*Service)(nil)
