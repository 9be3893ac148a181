package interfaces

import (
	"context"

	"github.com/investrlabs/investr/internal/models"
)

// PortfolioService manages holdings retrieval, enrichment, and caching
type PortfolioService interface {
	// GetHoldings returns enriched holdings. With forceRefresh false a
	// cached result is returned when available; true always contacts
	// the broker session.
	GetHoldings(ctx context.Context, forceRefresh bool) ([]models.Holding, error)

	// Invalidate drops the cached holdings list
	Invalidate()
}

// ThesisService generates and parses investment thesis documents
type ThesisService interface {
	// Parse extracts a typed record from thesis markdown. It never
	// fails: malformed input degrades to a sparse document.
	Parse(text string) *models.ThesisDocument

	// Load reads and parses the stored thesis document for a symbol
	Load(ctx context.Context, symbol string) (*models.ThesisDocument, error)

	// Generate runs the two-stage analysis pipeline, writes the thesis
	// document to the reports directory, and returns the parsed result
	Generate(ctx context.Context, symbol string) (*models.ThesisDocument, error)
}
