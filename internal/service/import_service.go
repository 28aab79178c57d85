package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/anyulbade/ratecard-recon/internal/ingest"
	"github.com/anyulbade/ratecard-recon/internal/model"
	"github.com/anyulbade/ratecard-recon/internal/recon"
)

// Per-row statuses over the analyze/commit lifecycle.
const (
	RowValid     = "valid"
	RowSimilar   = "similar"
	RowDuplicate = "duplicate"
	RowError     = "error"

	RowImported = "imported"
	RowSkipped  = "skipped"
)

// Commit modes. ValidOnly commits structurally valid, conflict-free
// rows; ValidAndApproved additionally commits similar rows the caller
// explicitly selected.
const (
	CommitValidOnly        = "valid_only"
	CommitValidAndApproved = "valid_and_approved"
)

// ErrBadCommitRequest marks commit failures caused by the request
// itself (unknown mode, row ids outside the upload), as opposed to
// store failures.
var ErrBadCommitRequest = errors.New("bad commit request")

// ConflictRef points a reviewer at the record a row collides with.
type ConflictRef struct {
	ID            string     `json:"id"`
	Source        string     `json:"source"` // "store", "upload" or "archived"
	PlatformID    string     `json:"platform_id"`
	CategoryID    string     `json:"category_id"`
	EffectiveFrom time.Time  `json:"effective_from"`
	EffectiveTo   *time.Time `json:"effective_to,omitempty"`
}

// RowResult is the immutable per-row outcome of analysis.
type RowResult struct {
	RowNumber     int             `json:"row_number"`
	RowID         string          `json:"row_id"`
	Status        string          `json:"status"`
	Message       string          `json:"message,omitempty"`
	Conflict      *ConflictRef    `json:"conflict,omitempty"`
	SuggestedFrom *time.Time      `json:"suggested_from,omitempty"`
	Card          *model.RateCard `json:"card,omitempty"`
}

type AnalysisSummary struct {
	Total     int `json:"total"`
	Valid     int `json:"valid"`
	Similar   int `json:"similar"`
	Duplicate int `json:"duplicate"`
	Error     int `json:"error"`
}

type AnalysisResult struct {
	Summary AnalysisSummary `json:"summary"`
	Rows    []RowResult     `json:"rows"`
}

// CommitRow is one previewed row handed back for commit. The card is
// the normalized payload from the preview; commit re-validates it
// rather than trusting the earlier classification.
type CommitRow struct {
	RowID     string          `json:"row_id"`
	RowNumber int             `json:"row_number"`
	Card      *model.RateCard `json:"card"`
}

type CommitRowResult struct {
	RowID   string `json:"row_id"`
	Status  string `json:"status"`
	ID      string `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
}

type CommitSummary struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

type CommitResult struct {
	Summary CommitSummary     `json:"summary"`
	Results []CommitRowResult `json:"results"`
}

// CardStore is the slice of the persisted-record store the import
// pipeline needs: a snapshot read and a single-card write.
type CardStore interface {
	LoadAll(ctx context.Context) ([]*model.RateCard, error)
	Insert(ctx context.Context, card *model.RateCard) error
}

// ImportService drives the full upload pipeline: canonicalize,
// normalize, validate, classify against persisted and batch-staged
// records, then commit approved rows.
type ImportService struct {
	repo      CardStore
	chunkSize int
}

func NewImportService(repo CardStore, chunkSize int) *ImportService {
	if chunkSize <= 0 {
		chunkSize = 50
	}
	return &ImportService{repo: repo, chunkSize: chunkSize}
}

// Analyze classifies every row of an upload, strictly in file order.
// The reference pool is a store snapshot taken once up front; rows that
// resolve valid or similar are staged onto it with a synthetic id, so a
// later row can be flagged as a duplicate of an earlier row in the same
// file. Error and duplicate rows are never staged.
func (s *ImportService) Analyze(ctx context.Context, rows []ingest.RawRow) (*AnalysisResult, error) {
	refPool, err := s.repo.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load reference pool: %w", err)
	}
	persisted := len(refPool)

	result := &AnalysisResult{Rows: make([]RowResult, 0, len(rows))}
	result.Summary.Total = len(rows)

	for _, raw := range rows {
		row := s.analyzeRow(raw, refPool)

		switch row.Status {
		case RowValid:
			result.Summary.Valid++
		case RowSimilar:
			result.Summary.Similar++
		case RowDuplicate:
			result.Summary.Duplicate++
		case RowError:
			result.Summary.Error++
		}

		if row.Status == RowValid || row.Status == RowSimilar {
			staged := *row.Card
			staged.ID = row.RowID
			refPool = append(refPool, &staged)
		}

		result.Rows = append(result.Rows, row)
	}

	log.Info().
		Int("rows", result.Summary.Total).
		Int("valid", result.Summary.Valid).
		Int("similar", result.Summary.Similar).
		Int("duplicate", result.Summary.Duplicate).
		Int("errors", result.Summary.Error).
		Int("reference_pool", persisted).
		Msg("upload analyzed")

	return result, nil
}

func (s *ImportService) analyzeRow(raw ingest.RawRow, refPool []*model.RateCard) RowResult {
	row := RowResult{RowNumber: raw.Number, RowID: uuid.NewString()}

	fields := ingest.CanonicalizeRow(raw.Cells)
	card, issues := ingest.NormalizeRow(fields)
	issues = append(issues, recon.Validate(card)...)
	row.Card = card

	if len(issues) > 0 {
		row.Status = RowError
		row.Message = strings.Join(issues, "; ")
		return row
	}

	conflict := recon.Detect(card, refPool, recon.DetectOptions{})
	if conflict == nil {
		row.Status = RowValid
		return row
	}

	row.Conflict = conflictRef(conflict)
	switch conflict.Kind {
	case recon.ConflictDuplicate:
		row.Status = RowDuplicate
		row.Message = "duplicate of an existing rate card for the same window"
	case recon.ConflictSimilar:
		row.Status = RowSimilar
		row.SuggestedFrom = conflict.SuggestedFrom
		row.Message = "overlaps an existing rate card with different terms"
		if conflict.SuggestedFrom != nil {
			row.Message = fmt.Sprintf("overlaps an existing rate card with different terms; consider starting %s",
				conflict.SuggestedFrom.Format("2006-01-02"))
		}
	case recon.ConflictArchivedMatch:
		row.Status = RowValid
		row.Message = "overlaps an archived rate card (not blocking)"
	}

	return row
}

func conflictRef(c *recon.Conflict) *ConflictRef {
	source := "store"
	if c.Kind == recon.ConflictArchivedMatch {
		source = "archived"
	} else if c.Card.CreatedAt.IsZero() {
		// Staged cards carry no store timestamp.
		source = "upload"
	}
	return &ConflictRef{
		ID:            c.Card.ID,
		Source:        source,
		PlatformID:    c.Card.PlatformID,
		CategoryID:    c.Card.CategoryID,
		EffectiveFrom: c.Card.EffectiveFrom,
		EffectiveTo:   c.Card.EffectiveTo,
	}
}

// Commit persists the selected previewed rows. Every selected row is
// re-validated against a fresh store snapshot: the store may have
// changed since the preview, and a row that became conflicting is
// skipped with a reason instead of written. Persistence is chunked to
// bound a single round of writes; chunking never changes a per-row
// outcome.
func (s *ImportService) Commit(ctx context.Context, mode string, rowIDs []string, rows []CommitRow) (*CommitResult, error) {
	if mode != CommitValidOnly && mode != CommitValidAndApproved {
		return nil, fmt.Errorf("%w: unknown commit mode %q", ErrBadCommitRequest, mode)
	}

	selected, err := selectRows(rowIDs, rows)
	if err != nil {
		return nil, err
	}

	refPool, err := s.repo.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load reference pool: %w", err)
	}

	result := &CommitResult{Results: make([]CommitRowResult, 0, len(selected))}

	for start := 0; start < len(selected); start += s.chunkSize {
		end := start + s.chunkSize
		if end > len(selected) {
			end = len(selected)
		}
		chunk := selected[start:end]
		log.Debug().Int("from", start).Int("size", len(chunk)).Msg("committing chunk")

		for _, row := range chunk {
			outcome := s.commitRow(ctx, mode, row, &refPool)
			if outcome.Status == RowImported {
				result.Summary.Inserted++
			} else {
				result.Summary.Skipped++
			}
			result.Results = append(result.Results, outcome)
		}
	}

	log.Info().
		Int("inserted", result.Summary.Inserted).
		Int("skipped", result.Summary.Skipped).
		Str("mode", mode).
		Msg("upload committed")

	return result, nil
}

func (s *ImportService) commitRow(ctx context.Context, mode string, row CommitRow, refPool *[]*model.RateCard) CommitRowResult {
	outcome := CommitRowResult{RowID: row.RowID, Status: RowSkipped}

	if row.Card == nil {
		outcome.Message = "row has no payload"
		return outcome
	}

	card := *row.Card
	card.ID = ""
	card.Archived = false
	card.PlatformID = model.NormalizeKey(card.PlatformID)
	card.CategoryID = model.NormalizeKey(card.CategoryID)
	model.SortSlabs(card.Slabs)
	model.SortFees(card.Fees)

	if issues := recon.Validate(&card); len(issues) > 0 {
		outcome.Message = "failed validation: " + strings.Join(issues, "; ")
		return outcome
	}

	if conflict := recon.Detect(&card, *refPool, recon.DetectOptions{}); conflict != nil {
		switch conflict.Kind {
		case recon.ConflictDuplicate:
			outcome.Message = "duplicate of an existing rate card"
			return outcome
		case recon.ConflictSimilar:
			if mode != CommitValidAndApproved {
				outcome.Message = "similar rate card requires explicit approval"
				return outcome
			}
		}
	}

	if err := s.repo.Insert(ctx, &card); err != nil {
		log.Error().Err(err).Str("row_id", row.RowID).Msg("rate card insert failed")
		outcome.Message = fmt.Sprintf("insert failed: %v", err)
		return outcome
	}

	*refPool = append(*refPool, &card)
	outcome.Status = RowImported
	outcome.ID = card.ID
	return outcome
}

// selectRows resolves the explicit commit list against the submitted
// rows and restores file order, which staging semantics depend on.
func selectRows(rowIDs []string, rows []CommitRow) ([]CommitRow, error) {
	byID := make(map[string]CommitRow, len(rows))
	for _, row := range rows {
		byID[row.RowID] = row
	}

	selected := make([]CommitRow, 0, len(rowIDs))
	for _, id := range rowIDs {
		row, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: row %q is not part of the submitted upload", ErrBadCommitRequest, id)
		}
		selected = append(selected, row)
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].RowNumber < selected[j].RowNumber
	})

	return selected, nil
}
