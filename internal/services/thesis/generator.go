package thesis

import (
	"context"
	_ "embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/investrlabs/investr/internal/models"
)

//go:embed stage2_prompt.txt
var defaultStageTwoPrompt string

// Generate runs the two-stage analysis pipeline for a symbol: stage one
// performs quantitative analysis of the price history and financial
// statements, stage two synthesizes it with the company knowledge-base
// article into the final thesis. The result is written to the reports
// directory and parsed back into a typed document.
func (s *Service) Generate(ctx context.Context, symbol string) (*models.ThesisDocument, error) {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if s.gemini == nil {
		return nil, fmt.Errorf("thesis generation unavailable: Gemini API key not configured")
	}

	article, articlePath, err := s.findArticle(symbol)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("symbol", symbol).Str("article", articlePath).Msg("Starting thesis generation")

	// Price history and financials are best-effort inputs: the analysis
	// proceeds with whatever could be fetched.
	var (
		prices     *models.PriceSeries
		financials *models.FinancialData
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		series, err := s.marketData.GetMonthlyCloses(gctx, symbol)
		if err != nil {
			s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Proceeding without price history")
			return nil
		}
		prices = series
		return nil
	})
	g.Go(func() error {
		data, err := s.screener.GetFinancials(gctx, symbol)
		if err != nil {
			s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Proceeding without financial statements")
			return nil
		}
		financials = data
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Debug().Str("symbol", symbol).Msg("Stage 1: quantitative analysis")
	analysis, err := s.gemini.GenerateContent(ctx, buildStageOnePrompt(prices, financials))
	if err != nil {
		return nil, fmt.Errorf("stage 1 analysis failed: %w", err)
	}

	s.logger.Debug().Str("symbol", symbol).Msg("Stage 2: thesis synthesis")
	final, err := s.gemini.GenerateContent(ctx, buildStageTwoPrompt(s.stageTwoPrompt(), article, analysis, prices, financials))
	if err != nil {
		return nil, fmt.Errorf("stage 2 synthesis failed: %w", err)
	}

	content := renderThesis(symbol, final)

	if err := os.MkdirAll(s.config.ReportsDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create reports directory: %w", err)
	}
	path := s.reportPath(symbol)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write thesis document: %w", err)
	}
	s.logger.Info().Str("symbol", symbol).Str("path", path).Msg("Thesis document written")

	doc := s.Parse(content)
	doc.Symbol = symbol
	return doc, nil
}

// findArticle scans the articles directory for a markdown file whose name
// contains the symbol, case-insensitively, and returns its content.
func (s *Service) findArticle(symbol string) (content, path string, err error) {
	needle := strings.ToLower(symbol)

	walkErr := filepath.WalkDir(s.config.ArticlesDir, func(p string, d fs.DirEntry, werr error) error {
		if werr != nil || d.IsDir() {
			return nil
		}
		name := strings.ToLower(d.Name())
		if !strings.HasSuffix(name, ".md") {
			return nil
		}
		if strings.Contains(strings.TrimSuffix(name, ".md"), needle) {
			path = p
			return fs.SkipAll
		}
		return nil
	})
	if walkErr != nil {
		return "", "", fmt.Errorf("failed to scan articles directory: %w", walkErr)
	}
	if path == "" {
		return "", "", fmt.Errorf("no knowledge-base article found for %s", symbol)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to read article %s: %w", path, err)
	}
	return string(data), path, nil
}

// stageTwoPrompt returns the configured prompt override when readable,
// else the embedded default.
func (s *Service) stageTwoPrompt() string {
	if s.config.StageTwoPrompt == "" {
		return defaultStageTwoPrompt
	}
	data, err := os.ReadFile(s.config.StageTwoPrompt)
	if err != nil {
		s.logger.Warn().Err(err).Str("path", s.config.StageTwoPrompt).Msg("Falling back to embedded stage-two prompt")
		return defaultStageTwoPrompt
	}
	return string(data)
}

func buildStageOnePrompt(prices *models.PriceSeries, financials *models.FinancialData) string {
	var sb strings.Builder
	sb.WriteString(`You are a quantitative equity research analyst specializing in Indian equity markets. Perform a deep numerical analysis of the provided financial statements and historical price data.

You will be given:
- Up to 10 years of company financial statements (Income Statement, Balance Sheet, Cash Flow).
- Up to 10 years of historical monthly stock prices.

Focus on whether the business performance movement is correlated to the stock price movement.

Steps:

1. Financial Analysis: identify trends in Revenue Growth, Net Profit Growth, EPS, Margins, ROCE, Debt/Equity, Free Cash Flow, Inventory Days, Receivable Days. For each trend explain the likely drivers. If you cannot find a reason, say so; do not make up reasons. Clearly separate what happened from why it happened.

2. Valuation & Market Performance: summarize stock price CAGR, major drawdowns, re-ratings, and volatility. Compare stock performance with earnings growth and highlight any discrepancies.

3. Drivers of Performance: integrate financial and stock analysis into a coherent story, covering external drivers (sector trends, macro factors, policy) and internal drivers (management execution, capital allocation, strategy shifts).

4. Conclusion: are the financials improving or deteriorating, and why? Is the stock performance justified by fundamentals, or mainly by sentiment and re-rating?

`)
	writePriceBlock(&sb, prices)
	writeFinancialBlock(&sb, financials)
	return sb.String()
}

func buildStageTwoPrompt(stageTwo, article, analysis string, prices *models.PriceSeries, financials *models.FinancialData) string {
	var sb strings.Builder
	sb.WriteString(stageTwo)
	sb.WriteString("\n\n---COMPANY BUSINESS DRIVERS, MANAGEMENT QUALITY, COMPETITIVE AND SECTOR OUTLOOK INFORMATION---\n")
	sb.WriteString(article)
	sb.WriteString("\n\n---DEEP FINANCIAL ANALYSIS---\n")
	sb.WriteString(analysis)
	sb.WriteString("\n\n")
	writeFinancialBlock(&sb, financials)
	writePriceBlock(&sb, prices)
	return sb.String()
}

func writePriceBlock(sb *strings.Builder, prices *models.PriceSeries) {
	if prices == nil || len(prices.Points) == 0 {
		sb.WriteString("HISTORICAL PRICE DATA: Not available\n\n")
		return
	}

	min, max := prices.Range()
	fmt.Fprintf(sb, "HISTORICAL PRICE DATA (10-year monthly intervals):\n")
	fmt.Fprintf(sb, "Symbol: %s\n", prices.Symbol)
	fmt.Fprintf(sb, "Current Price: ₹%.2f\n", prices.Latest())
	fmt.Fprintf(sb, "Range: ₹%.2f - ₹%.2f over %d monthly observations\n", min, max, len(prices.Points))
	sb.WriteString("---BEGIN PRICE SERIES (CSV: Date,Close)---\n")
	sb.WriteString("Date,Close\n")
	for _, p := range prices.Points {
		fmt.Fprintf(sb, "%s,%.2f\n", p.Date.Format("2006-01-02"), p.Close)
	}
	sb.WriteString("---END PRICE SERIES---\n\n")
}

func writeFinancialBlock(sb *strings.Builder, financials *models.FinancialData) {
	if financials == nil {
		sb.WriteString("FINANCIAL STATEMENT DATA: Not available\n\n")
		return
	}

	sb.WriteString("FINANCIAL STATEMENT DATA:\n")
	fmt.Fprintf(sb, "Financial Type: %s\n", valueOr(financials.FinancialType, "N/A"))
	fmt.Fprintf(sb, "Sector: %s\n\n", valueOr(financials.Sector, "N/A"))
	sb.WriteString(FormatFinancialData(financials))
	sb.WriteString("\n\n")
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func renderThesis(symbol, analysis string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s Investment Thesis\n\n", symbol)
	sb.WriteString(strings.TrimSpace(analysis))
	sb.WriteString("\n\n---\n")
	fmt.Fprintf(&sb, "*Analysis generated on %s using two-stage Gemini analysis*\n", time.Now().Format("2006-01-02 15:04:05"))
	return sb.String()
}
