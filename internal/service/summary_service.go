package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/anyulbade/ratecard-recon/internal/repository"
)

// ExpiringWindowDays is the lookahead for the "expiring soon" count.
const ExpiringWindowDays = 30

type Summary struct {
	Active       int                        `json:"active"`
	Archived     int                        `json:"archived"`
	ExpiringSoon int                        `json:"expiring_soon"`
	ByPlatform   []repository.PlatformCount `json:"by_platform"`
}

type SummaryService struct {
	repo *repository.RateCardRepository
}

func NewSummaryService(repo *repository.RateCardRepository) *SummaryService {
	return &SummaryService{repo: repo}
}

func (s *SummaryService) GetSummary(ctx context.Context) (*Summary, error) {
	g, gctx := errgroup.WithContext(ctx)

	var summary Summary

	g.Go(func() error {
		var err error
		summary.Active, summary.Archived, err = s.repo.CountByArchived(gctx)
		return err
	})

	g.Go(func() error {
		var err error
		summary.ExpiringSoon, err = s.repo.CountExpiringWithin(gctx, ExpiringWindowDays)
		return err
	})

	g.Go(func() error {
		var err error
		summary.ByPlatform, err = s.repo.CountByPlatform(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &summary, nil
}
