package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/anyulbade/ratecard-recon/internal/model"
)

type seedCard struct {
	Platform      string
	Category      string
	Type          string
	Percent       float64
	Slabs         []model.Slab
	Fees          []model.Fee
	Basis         string
	TPlusDays     int
	From          string
	To            string // empty = open-ended
	Archived      bool
}

func f(v float64) *float64 { return &v }

var seedCards = []seedCard{
	{Platform: "amazon", Category: "apparel", Type: model.CommissionFlat, Percent: 12,
		Fees: []model.Fee{{Code: "closing_fee", Kind: model.FeeAmount, Value: 25}, {Code: "shipping_fee", Kind: model.FeePercent, Value: 2}},
		Basis: model.SettlementTPlus, TPlusDays: 7, From: "2025-01-01", To: "2025-03-31"},
	{Platform: "amazon", Category: "electronics", Type: model.CommissionTiered,
		Slabs: []model.Slab{
			{MinPrice: 0, MaxPrice: f(1000), CommissionPercent: 10},
			{MinPrice: 1000, MaxPrice: f(5000), CommissionPercent: 8},
			{MinPrice: 5000, CommissionPercent: 6},
		},
		Fees:  []model.Fee{{Code: "closing_fee", Kind: model.FeeAmount, Value: 40}},
		Basis: model.SettlementTPlus, TPlusDays: 14, From: "2025-01-01"},
	{Platform: "flipkart", Category: "apparel", Type: model.CommissionFlat, Percent: 15,
		Basis: model.SettlementTPlus, TPlusDays: 10, From: "2024-07-01", To: "2024-12-31"},
	{Platform: "flipkart", Category: "home", Type: model.CommissionFlat, Percent: 9,
		Fees:  []model.Fee{{Code: "pick_pack_fee", Kind: model.FeeAmount, Value: 15}},
		Basis: model.SettlementTPlus, TPlusDays: 7, From: "2025-02-01"},
	{Platform: "myntra", Category: "footwear", Type: model.CommissionFlat, Percent: 18,
		Basis: model.SettlementTPlus, TPlusDays: 15, From: "2024-01-01", To: "2024-06-30", Archived: true},
}

// SeedData inserts a small demo catalog of rate cards. A non-empty
// table is left untouched so restarts with AUTO_MIGRATE stay idempotent.
func SeedData(ctx context.Context, pool *pgxpool.Pool) error {
	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM rate_cards").Scan(&count); err != nil {
		return fmt.Errorf("count rate cards: %w", err)
	}
	if count > 0 {
		log.Info().Int("existing", count).Msg("rate cards already seeded, skipping")
		return nil
	}

	for _, sc := range seedCards {
		slabs, err := json.Marshal(sc.Slabs)
		if err != nil {
			return fmt.Errorf("marshal slabs: %w", err)
		}
		fees, err := json.Marshal(sc.Fees)
		if err != nil {
			return fmt.Errorf("marshal fees: %w", err)
		}
		if sc.Slabs == nil {
			slabs = []byte("[]")
		}
		if sc.Fees == nil {
			fees = []byte("[]")
		}

		var percent *float64
		if sc.Type == model.CommissionFlat {
			percent = &sc.Percent
		}
		var to *string
		if sc.To != "" {
			to = &sc.To
		}

		_, err = pool.Exec(ctx,
			`INSERT INTO rate_cards (platform_id, category_id, commission_type, commission_percent, slabs, fees,
				settlement_basis, t_plus_days, effective_from, effective_to, archived)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			sc.Platform, sc.Category, sc.Type, percent, slabs, fees,
			sc.Basis, sc.TPlusDays, sc.From, to, sc.Archived,
		)
		if err != nil {
			return fmt.Errorf("seed rate card %s/%s: %w", sc.Platform, sc.Category, err)
		}
	}

	log.Info().Int("cards", len(seedCards)).Msg("seed data inserted")
	return nil
}
