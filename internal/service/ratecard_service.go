package service

import (
	"context"
	"fmt"

	"github.com/anyulbade/ratecard-recon/internal/model"
	"github.com/anyulbade/ratecard-recon/internal/recon"
	"github.com/anyulbade/ratecard-recon/internal/repository"
)

// ErrUnarchiveConflict is returned when resurrecting a card would
// reintroduce an overlap.
type ErrUnarchiveConflict struct {
	Conflict *recon.Conflict
}

func (e *ErrUnarchiveConflict) Error() string {
	return fmt.Sprintf("unarchiving would conflict with rate card %s (%s/%s)",
		e.Conflict.Card.ID, e.Conflict.Card.PlatformID, e.Conflict.Card.CategoryID)
}

type RateCardService struct {
	repo *repository.RateCardRepository
}

func NewRateCardService(repo *repository.RateCardRepository) *RateCardService {
	return &RateCardService{repo: repo}
}

func (s *RateCardService) List(ctx context.Context, platform, category string, archived *bool, limit, offset int) ([]*model.RateCard, int, error) {
	return s.repo.List(ctx, model.NormalizeKey(platform), model.NormalizeKey(category), archived, limit, offset)
}

func (s *RateCardService) Get(ctx context.Context, id string) (*model.RateCard, error) {
	return s.repo.Get(ctx, id)
}

func (s *RateCardService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// Archive soft-deletes a card. Archived cards stay in history and stop
// blocking future uploads.
func (s *RateCardService) Archive(ctx context.Context, id string) error {
	return s.repo.SetArchived(ctx, id, true)
}

// Unarchive resurrects a card after re-running overlap detection with
// archived records blocking: a card whose window now collides with any
// other card, live or archived, stays archived.
func (s *RateCardService) Unarchive(ctx context.Context, id string) error {
	card, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	pool, err := s.repo.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load reference pool: %w", err)
	}

	conflict := recon.Detect(card, pool, recon.DetectOptions{
		IncludeArchived: true,
		ExcludeID:       card.ID,
	})
	if conflict != nil {
		return &ErrUnarchiveConflict{Conflict: conflict}
	}

	return s.repo.SetArchived(ctx, id, false)
}
