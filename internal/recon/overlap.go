package recon

import (
	"time"

	"github.com/anyulbade/ratecard-recon/internal/model"
)

// Conflict kinds, from the perspective of the new candidate.
const (
	ConflictDuplicate     = "duplicate"
	ConflictSimilar       = "similar"
	ConflictArchivedMatch = "archived_match"
)

// Conflict describes the first reference record whose validity window
// intersects the candidate's for the same platform/category pair.
type Conflict struct {
	Kind string
	Card *model.RateCard
	// SuggestedFrom is the day after the conflicting window closes,
	// offered for similar conflicts against a bounded window.
	SuggestedFrom *time.Time
}

// DetectOptions tunes pool filtering. IncludeArchived makes archived
// reference records block like live ones; un-archive uses it so a
// resurrected card cannot reintroduce a conflict.
type DetectOptions struct {
	IncludeArchived bool
	// ExcludeID drops one record from the pool, for checks where the
	// candidate itself is already persisted.
	ExcludeID string
}

// WindowsOverlap reports whether two validity windows intersect:
// neither is entirely before the other. A nil end is open-ended. The
// relation is symmetric.
func WindowsOverlap(fromA time.Time, toA *time.Time, fromB time.Time, toB *time.Time) bool {
	if toB != nil && fromA.After(*toB) {
		return false
	}
	if toA != nil && fromB.After(*toA) {
		return false
	}
	return true
}

// Detect finds the first conflicting record in the pool for the
// candidate, or nil. Pool order matters and is the caller's contract:
// persisted records first, then batch-staged records in upload order —
// first match wins, later conflicts are never reported.
//
// Archived records do not block by default: an overlap against one is
// reported as an archived match only if no live record conflicts.
func Detect(candidate *model.RateCard, pool []*model.RateCard, opts DetectOptions) *Conflict {
	var archivedMatch *Conflict

	for _, ref := range pool {
		if opts.ExcludeID != "" && ref.ID == opts.ExcludeID {
			continue
		}
		if ref.PlatformID != candidate.PlatformID || ref.CategoryID != candidate.CategoryID {
			continue
		}
		if !WindowsOverlap(candidate.EffectiveFrom, candidate.EffectiveTo, ref.EffectiveFrom, ref.EffectiveTo) {
			continue
		}

		kind := classify(candidate, ref)
		if ref.Archived && !opts.IncludeArchived {
			if archivedMatch == nil {
				archivedMatch = &Conflict{Kind: ConflictArchivedMatch, Card: ref}
			}
			continue
		}

		c := &Conflict{Kind: kind, Card: ref}
		if kind == ConflictSimilar {
			c.SuggestedFrom = suggestedStart(ref)
		}
		return c
	}

	return archivedMatch
}

func classify(candidate, ref *model.RateCard) string {
	if candidate.SameWindow(ref) && candidate.SameCommissionTerms(ref) && candidate.SameFees(ref) {
		return ConflictDuplicate
	}
	return ConflictSimilar
}

func suggestedStart(ref *model.RateCard) *time.Time {
	if ref.EffectiveTo == nil {
		return nil
	}
	t := ref.EffectiveTo.AddDate(0, 0, 1)
	return &t
}
