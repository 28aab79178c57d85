// Package recon holds the record-level invariants and the
// temporal-overlap matching that gate a rate-card import.
package recon

import (
	"fmt"

	"github.com/anyulbade/ratecard-recon/internal/model"
)

// Validate checks a single normalized card against the invariants that
// do not depend on any other record. It returns human-readable issues;
// an empty result means the card is structurally sound. Cards with any
// issue never reach overlap analysis.
func Validate(card *model.RateCard) []string {
	var issues []string

	if card.PlatformID == "" {
		issues = append(issues, "platform is required")
	}
	if card.CategoryID == "" {
		issues = append(issues, "category is required")
	}
	if card.EffectiveFrom.IsZero() {
		issues = append(issues, "effective_from is required")
	}

	issues = append(issues, validateCommission(card)...)
	issues = append(issues, validateFees(card.Fees)...)

	if !card.EffectiveFrom.IsZero() && card.EffectiveTo != nil && !card.EffectiveTo.After(card.EffectiveFrom) {
		issues = append(issues, "effective_to must be after effective_from")
	}

	issues = append(issues, validateSettlement(card.Settlement)...)

	return issues
}

func validateCommission(card *model.RateCard) []string {
	var issues []string

	switch card.CommissionType {
	case model.CommissionFlat:
		if card.CommissionPercent == nil {
			issues = append(issues, "commission_percent is required for flat commission")
		} else if *card.CommissionPercent < 0 || *card.CommissionPercent > 100 {
			issues = append(issues, "commission_percent must be between 0 and 100")
		}
		if len(card.Slabs) > 0 {
			issues = append(issues, "flat commission cannot include slabs")
		}
	case model.CommissionTiered:
		if len(card.Slabs) == 0 {
			issues = append(issues, "at least one slab is required for tiered commission")
		}
		if card.CommissionPercent != nil {
			issues = append(issues, "tiered commission cannot include a flat commission_percent")
		}
		issues = append(issues, validateSlabs(card.Slabs)...)
	case "":
		issues = append(issues, "commission_type is required")
	default:
		issues = append(issues, fmt.Sprintf("commission_type '%s' must be flat or tiered", card.CommissionType))
	}

	return issues
}

// validateSlabs assumes the list is already sorted by min price, which
// normalization guarantees.
func validateSlabs(slabs []model.Slab) []string {
	var issues []string

	for i, slab := range slabs {
		if slab.MinPrice < 0 {
			issues = append(issues, fmt.Sprintf("slab %d: min_price cannot be negative", i+1))
		}
		if slab.MaxPrice != nil && *slab.MaxPrice <= slab.MinPrice {
			issues = append(issues, fmt.Sprintf("slab %d: max_price must be greater than min_price", i+1))
		}
		if slab.CommissionPercent < 0 || slab.CommissionPercent > 100 {
			issues = append(issues, fmt.Sprintf("slab %d: commission must be between 0 and 100", i+1))
		}
	}

	for i := 0; i+1 < len(slabs); i++ {
		if slabs[i].MaxPrice == nil {
			issues = append(issues, fmt.Sprintf("slab %d is open-ended but is not the last slab", i+1))
			continue
		}
		if *slabs[i].MaxPrice > slabs[i+1].MinPrice {
			issues = append(issues, fmt.Sprintf("slabs overlap between rows %d and %d", i+1, i+2))
		}
	}

	return issues
}

func validateFees(fees []model.Fee) []string {
	var issues []string

	seen := make(map[string]bool, len(fees))
	for _, fee := range fees {
		if seen[fee.Code] {
			issues = append(issues, fmt.Sprintf("duplicate fee code '%s'", fee.Code))
			continue
		}
		seen[fee.Code] = true

		if fee.Value < 0 {
			issues = append(issues, fmt.Sprintf("fee '%s': value cannot be negative", fee.Code))
		}
		if fee.Kind == model.FeePercent && fee.Value > 100 {
			issues = append(issues, fmt.Sprintf("fee '%s': percent value cannot exceed 100", fee.Code))
		}
	}

	return issues
}

// validateSettlement enforces the basis-specific companion fields. A
// card with no settlement basis at all is allowed; terms may live in a
// separate agreement.
func validateSettlement(s model.SettlementTerms) []string {
	var issues []string

	switch s.Basis {
	case "":
	case model.SettlementTPlus:
		if s.TPlusDays == nil {
			issues = append(issues, "t_plus settlement requires a day count")
		}
	case model.SettlementWeekly:
		if s.Weekday == nil {
			issues = append(issues, "weekly settlement requires a weekday")
		}
	case model.SettlementBiWeekly:
		if s.Weekday == nil {
			issues = append(issues, "bi_weekly settlement requires a weekday")
		}
		if s.WhichWeek == nil {
			issues = append(issues, "bi_weekly settlement requires a first/second indicator")
		}
	case model.SettlementMonthly:
		if s.MonthlyDay == nil {
			issues = append(issues, "monthly settlement requires a day of month or 'end of month'")
		}
	default:
		issues = append(issues, fmt.Sprintf("settlement_basis '%s' is not supported", s.Basis))
	}

	return issues
}
