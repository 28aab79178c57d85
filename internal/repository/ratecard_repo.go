package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anyulbade/ratecard-recon/internal/model"
)

type RateCardRepository struct {
	pool *pgxpool.Pool
}

func NewRateCardRepository(pool *pgxpool.Pool) *RateCardRepository {
	return &RateCardRepository{pool: pool}
}

const cardColumns = `id, platform_id, category_id, commission_type, commission_percent, slabs, fees,
	settlement_basis, t_plus_days, settlement_weekday, which_week, monthly_day,
	gst_percent, tcs_percent, grace_days, effective_from, effective_to, archived, created_at`

func scanCard(row pgx.Row) (*model.RateCard, error) {
	var c model.RateCard
	var slabs, fees []byte
	var basis, weekday, whichWeek, monthlyDay *string
	var tPlusDays *int

	err := row.Scan(&c.ID, &c.PlatformID, &c.CategoryID, &c.CommissionType, &c.CommissionPercent,
		&slabs, &fees, &basis, &tPlusDays, &weekday, &whichWeek, &monthlyDay,
		&c.GSTPercent, &c.TCSPercent, &c.GraceDays, &c.EffectiveFrom, &c.EffectiveTo,
		&c.Archived, &c.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(slabs, &c.Slabs); err != nil {
		return nil, fmt.Errorf("decode slabs for card %s: %w", c.ID, err)
	}
	if err := json.Unmarshal(fees, &c.Fees); err != nil {
		return nil, fmt.Errorf("decode fees for card %s: %w", c.ID, err)
	}
	if basis != nil {
		c.Settlement.Basis = *basis
	}
	c.Settlement.TPlusDays = tPlusDays
	c.Settlement.Weekday = weekday
	c.Settlement.WhichWeek = whichWeek
	c.Settlement.MonthlyDay = monthlyDay

	// Stored lists are canonical, but older rows may predate sorting.
	model.SortSlabs(c.Slabs)
	model.SortFees(c.Fees)

	return &c, nil
}

// LoadAll returns every persisted card, archived included, in insertion
// order. The overlap detector relies on this ordering for its
// first-match-wins contract.
func (r *RateCardRepository) LoadAll(ctx context.Context) ([]*model.RateCard, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+cardColumns+` FROM rate_cards ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("load rate cards: %w", err)
	}
	defer rows.Close()

	var cards []*model.RateCard
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

// List returns a filtered page plus the unfiltered-by-page total.
func (r *RateCardRepository) List(ctx context.Context, platform, category string, archived *bool, limit, offset int) ([]*model.RateCard, int, error) {
	where := ` WHERE ($1 = '' OR platform_id = $1) AND ($2 = '' OR category_id = $2) AND ($3::boolean IS NULL OR archived = $3)`

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM rate_cards`+where, platform, category, archived).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count rate cards: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+cardColumns+` FROM rate_cards`+where+` ORDER BY created_at, id LIMIT $4 OFFSET $5`,
		platform, category, archived, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list rate cards: %w", err)
	}
	defer rows.Close()

	var cards []*model.RateCard
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, 0, err
		}
		cards = append(cards, card)
	}
	return cards, total, rows.Err()
}

func (r *RateCardRepository) Get(ctx context.Context, id string) (*model.RateCard, error) {
	return scanCard(r.pool.QueryRow(ctx,
		`SELECT `+cardColumns+` FROM rate_cards WHERE id = $1`, id))
}

// Insert persists a card and fills in its id and creation time.
func (r *RateCardRepository) Insert(ctx context.Context, card *model.RateCard) error {
	slabs, err := json.Marshal(card.Slabs)
	if err != nil {
		return fmt.Errorf("encode slabs: %w", err)
	}
	fees, err := json.Marshal(card.Fees)
	if err != nil {
		return fmt.Errorf("encode fees: %w", err)
	}
	if card.Slabs == nil {
		slabs = []byte("[]")
	}
	if card.Fees == nil {
		fees = []byte("[]")
	}

	var basis *string
	if card.Settlement.Basis != "" {
		basis = &card.Settlement.Basis
	}

	return r.pool.QueryRow(ctx,
		`INSERT INTO rate_cards (platform_id, category_id, commission_type, commission_percent, slabs, fees,
			settlement_basis, t_plus_days, settlement_weekday, which_week, monthly_day,
			gst_percent, tcs_percent, grace_days, effective_from, effective_to, archived)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id, created_at`,
		card.PlatformID, card.CategoryID, card.CommissionType, card.CommissionPercent, slabs, fees,
		basis, card.Settlement.TPlusDays, card.Settlement.Weekday, card.Settlement.WhichWeek, card.Settlement.MonthlyDay,
		card.GSTPercent, card.TCSPercent, card.GraceDays, card.EffectiveFrom, card.EffectiveTo, card.Archived,
	).Scan(&card.ID, &card.CreatedAt)
}

func (r *RateCardRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM rate_cards WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete rate card: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *RateCardRepository) SetArchived(ctx context.Context, id string, archived bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE rate_cards SET archived = $2 WHERE id = $1`, id, archived)
	if err != nil {
		return fmt.Errorf("set archived: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// PlatformCount backs the summary endpoint.
type PlatformCount struct {
	PlatformID string `json:"platform_id"`
	Active     int    `json:"active"`
	Archived   int    `json:"archived"`
}

func (r *RateCardRepository) CountByArchived(ctx context.Context) (active, archived int, err error) {
	err = r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FILTER (WHERE NOT archived), COUNT(*) FILTER (WHERE archived) FROM rate_cards`,
	).Scan(&active, &archived)
	if err != nil {
		err = fmt.Errorf("count by archived: %w", err)
	}
	return active, archived, err
}

func (r *RateCardRepository) CountExpiringWithin(ctx context.Context, days int) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM rate_cards
		WHERE NOT archived AND effective_to IS NOT NULL
			AND effective_to >= CURRENT_DATE
			AND effective_to < CURRENT_DATE + $1 * INTERVAL '1 day'`, days).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count expiring: %w", err)
	}
	return n, nil
}

func (r *RateCardRepository) CountByPlatform(ctx context.Context) ([]PlatformCount, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT platform_id,
			COUNT(*) FILTER (WHERE NOT archived) AS active,
			COUNT(*) FILTER (WHERE archived) AS archived
		FROM rate_cards GROUP BY platform_id ORDER BY platform_id`)
	if err != nil {
		return nil, fmt.Errorf("count by platform: %w", err)
	}
	defer rows.Close()

	var counts []PlatformCount
	for rows.Next() {
		var pc PlatformCount
		if err := rows.Scan(&pc.PlatformID, &pc.Active, &pc.Archived); err != nil {
			return nil, err
		}
		counts = append(counts, pc)
	}
	return counts, rows.Err()
}
