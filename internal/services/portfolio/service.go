// Package portfolio provides holdings retrieval, enrichment, and caching
package portfolio

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/investrlabs/investr/internal/common"
	"github.com/investrlabs/investr/internal/interfaces"
	"github.com/investrlabs/investr/internal/models"
)

// Service implements PortfolioService
type Service struct {
	session interfaces.SessionManager
	logger  *common.Logger

	mu     sync.RWMutex
	cached []models.Holding
	valid  bool

	refresh singleflight.Group
}

// NewService creates a new portfolio service
func NewService(session interfaces.SessionManager, logger *common.Logger) *Service {
	return &Service{
		session: session,
		logger:  logger,
	}
}

// GetHoldings returns enriched holdings. A cache hit is served without
// touching the broker session; forceRefresh always fetches. Concurrent
// refreshes collapse into a single upstream call.
func (s *Service) GetHoldings(ctx context.Context, forceRefresh bool) ([]models.Holding, error) {
	if !forceRefresh {
		s.mu.RLock()
		if s.valid {
			cached := s.cached
			s.mu.RUnlock()
			s.logger.Debug().Int("count", len(cached)).Msg("Serving holdings from cache")
			return cached, nil
		}
		s.mu.RUnlock()
	}

	result, err, shared := s.refresh.Do("holdings", func() (any, error) {
		return s.fetchAndEnrich(ctx)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Debug().Msg("Holdings refresh deduplicated with in-flight fetch")
	}

	return result.([]models.Holding), nil
}

// Invalidate drops the cached holdings list
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.valid = false
	s.mu.Unlock()
	s.logger.Debug().Msg("Holdings cache invalidated")
}

func (s *Service) fetchAndEnrich(ctx context.Context) ([]models.Holding, error) {
	raw, err := s.session.GetHoldings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch holdings: %w", err)
	}

	enriched := make([]models.Holding, 0, len(raw))
	for _, record := range raw {
		enriched = append(enriched, enrichHolding(record))
	}

	s.mu.Lock()
	s.cached = enriched
	s.valid = true
	s.mu.Unlock()

	s.logger.Info().Int("count", len(enriched)).Msg("Holdings refreshed")
	return enriched, nil
}

// Ensure Service implements PortfolioService
var _ interfaces.PortfolioService = (*Service)(nil)
