package ingest

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anyulbade/ratecard-recon/internal/model"
)

// Defaults applied when a column is absent entirely. An absent field is
// "not provided", never zero; these three are the documented exceptions.
const (
	DefaultGSTPercent = 18.0
	DefaultTCSPercent = 1.0
	DefaultGraceDays  = 0
)

// structuredSlab is the embedded-list shape for slabs, either a JSON
// string cell or an already-decoded array on a JSON re-submission.
type structuredSlab struct {
	MinPrice          *float64 `json:"min_price"`
	MaxPrice          *float64 `json:"max_price"`
	CommissionPercent *float64 `json:"commission_percent"`
}

type structuredFee struct {
	Code  string   `json:"code"`
	Kind  string   `json:"kind"`
	Value *float64 `json:"value"`
}

// NormalizeRow assembles a rate-card candidate from a canonicalized
// field map. Malformed cells are reported as issues rather than
// errors so the caller can show everything wrong with a row at once;
// the returned card is still populated as far as the row allowed.
func NormalizeRow(fields map[string]any) (*model.RateCard, []string) {
	var issues []string

	card := &model.RateCard{
		PlatformID: model.NormalizeKey(asString(fields[FieldPlatform])),
		CategoryID: model.NormalizeKey(asString(fields[FieldCategory])),
		GSTPercent: DefaultGSTPercent,
		TCSPercent: DefaultTCSPercent,
		GraceDays:  DefaultGraceDays,
	}

	if raw := asString(fields[FieldCommissionType]); raw != "" {
		if typ, ok := ParseCommissionType(raw); ok {
			card.CommissionType = typ
		} else {
			issues = append(issues, fmt.Sprintf("commission_type '%s' is not recognized (expected flat or tiered)", raw))
		}
	}

	if raw := asString(fields[FieldCommissionPercent]); raw != "" {
		if pct, ok := ParsePercent(raw); ok {
			card.CommissionPercent = &pct
		} else {
			issues = append(issues, fmt.Sprintf("commission_percent '%s' is not a number", raw))
		}
	}

	if raw := asString(fields[FieldEffectiveFrom]); raw != "" {
		if t := ParseDate(raw); t != nil {
			card.EffectiveFrom = *t
		} else {
			issues = append(issues, fmt.Sprintf("effective_from '%s' is not a valid date", raw))
		}
	}
	if raw := asString(fields[FieldEffectiveTo]); raw != "" {
		if t := ParseDate(raw); t != nil {
			card.EffectiveTo = t
		} else {
			issues = append(issues, fmt.Sprintf("effective_to '%s' is not a valid date", raw))
		}
	}

	issues = append(issues, normalizeSettlement(fields, card)...)
	issues = append(issues, normalizeTaxes(fields, card)...)

	slabs, slabIssues := extractSlabs(fields)
	issues = append(issues, slabIssues...)
	model.SortSlabs(slabs)
	card.Slabs = slabs

	fees, feeIssues := extractFees(fields)
	issues = append(issues, feeIssues...)
	model.SortFees(fees)
	card.Fees = fees

	return card, issues
}

func normalizeSettlement(fields map[string]any, card *model.RateCard) []string {
	var issues []string

	if raw := asString(fields[FieldSettlementBasis]); raw != "" {
		if basis, ok := ParseSettlementBasis(raw); ok {
			card.Settlement.Basis = basis
		} else {
			issues = append(issues, fmt.Sprintf("settlement_basis '%s' is not one of t_plus, weekly, bi_weekly, monthly", raw))
		}
	}

	if raw := asString(fields[FieldTPlusDays]); raw != "" {
		if n, ok := ParseNumber(raw); ok && n >= 0 && n == float64(int(n)) {
			days := int(n)
			card.Settlement.TPlusDays = &days
		} else {
			issues = append(issues, fmt.Sprintf("t_plus_days '%s' is not a whole number", raw))
		}
	}

	if raw := asString(fields[FieldWeekday]); raw != "" {
		if day, ok := ParseWeekday(raw); ok {
			card.Settlement.Weekday = &day
		} else {
			issues = append(issues, fmt.Sprintf("settlement_weekday '%s' is not a weekday", raw))
		}
	}

	if raw := asString(fields[FieldWhichWeek]); raw != "" {
		if w, ok := ParseWhichWeek(raw); ok {
			card.Settlement.WhichWeek = &w
		} else {
			issues = append(issues, fmt.Sprintf("which_week '%s' must be first or second", raw))
		}
	}

	if raw := asString(fields[FieldMonthlyDay]); raw != "" {
		if d, ok := ParseMonthlyDay(raw); ok {
			card.Settlement.MonthlyDay = &d
		} else {
			issues = append(issues, fmt.Sprintf("monthly_day '%s' must be a day of month or 'end of month'", raw))
		}
	}

	return issues
}

func normalizeTaxes(fields map[string]any, card *model.RateCard) []string {
	var issues []string

	if raw := asString(fields[FieldGSTPercent]); raw != "" {
		if pct, ok := ParsePercent(raw); ok {
			card.GSTPercent = pct
		} else {
			issues = append(issues, fmt.Sprintf("gst_percent '%s' is not a number", raw))
		}
	}
	if raw := asString(fields[FieldTCSPercent]); raw != "" {
		if pct, ok := ParsePercent(raw); ok {
			card.TCSPercent = pct
		} else {
			issues = append(issues, fmt.Sprintf("tcs_percent '%s' is not a number", raw))
		}
	}
	if raw := asString(fields[FieldGraceDays]); raw != "" {
		if n, ok := ParseNumber(raw); ok && n >= 0 && n == float64(int(n)) {
			card.GraceDays = int(n)
		} else {
			issues = append(issues, fmt.Sprintf("grace_days '%s' is not a whole number", raw))
		}
	}

	return issues
}

// extractSlabs accepts both slab input shapes uniformly: an embedded
// structured list under "slabs" (tried first) merged with the flat
// slab1_*..slabN_* columns.
func extractSlabs(fields map[string]any) ([]model.Slab, []string) {
	var slabs []model.Slab
	var issues []string

	if raw, ok := fields[FieldSlabs]; ok && raw != nil {
		structured, err := decodeStructuredList[structuredSlab](raw)
		if err != nil {
			issues = append(issues, fmt.Sprintf("slabs: %s", err))
		} else {
			for i, s := range structured {
				if s.MinPrice == nil || s.CommissionPercent == nil {
					issues = append(issues, fmt.Sprintf("slabs entry %d is missing min_price or commission_percent", i+1))
					continue
				}
				slabs = append(slabs, model.Slab{
					MinPrice:          *s.MinPrice,
					MaxPrice:          s.MaxPrice,
					CommissionPercent: *s.CommissionPercent,
				})
			}
		}
	}

	for n := 1; n <= MaxInlineSlabs; n++ {
		minRaw := asString(fields[SlabField(n, "min_price")])
		maxRaw := asString(fields[SlabField(n, "max_price")])
		pctRaw := asString(fields[SlabField(n, "commission_percent")])
		if minRaw == "" && maxRaw == "" && pctRaw == "" {
			continue
		}

		var slab model.Slab
		ok := true
		if v, parsed := ParseNumber(minRaw); parsed {
			slab.MinPrice = v
		} else {
			issues = append(issues, fmt.Sprintf("slab %d min_price '%s' is not a number", n, minRaw))
			ok = false
		}
		if maxRaw != "" {
			if v, parsed := ParseNumber(maxRaw); parsed {
				slab.MaxPrice = &v
			} else {
				issues = append(issues, fmt.Sprintf("slab %d max_price '%s' is not a number", n, maxRaw))
				ok = false
			}
		}
		if v, parsed := ParsePercent(pctRaw); parsed {
			slab.CommissionPercent = v
		} else {
			issues = append(issues, fmt.Sprintf("slab %d commission '%s' is not a number", n, pctRaw))
			ok = false
		}
		if ok {
			slabs = append(slabs, slab)
		}
	}

	return slabs, issues
}

// extractFees mirrors extractSlabs for the fee list.
func extractFees(fields map[string]any) ([]model.Fee, []string) {
	var fees []model.Fee
	var issues []string

	if raw, ok := fields[FieldFees]; ok && raw != nil {
		structured, err := decodeStructuredList[structuredFee](raw)
		if err != nil {
			issues = append(issues, fmt.Sprintf("fees: %s", err))
		} else {
			for i, f := range structured {
				if f.Code == "" || f.Value == nil {
					issues = append(issues, fmt.Sprintf("fees entry %d is missing code or value", i+1))
					continue
				}
				kind, ok := ParseFeeKind(f.Kind)
				if !ok {
					issues = append(issues, fmt.Sprintf("fees entry %d kind '%s' must be percent or amount", i+1, f.Kind))
					continue
				}
				fees = append(fees, model.Fee{
					Code:  model.NormalizeKey(f.Code),
					Kind:  kind,
					Value: *f.Value,
				})
			}
		}
	}

	for n := 1; n <= MaxInlineFees; n++ {
		codeRaw := asString(fields[FeeField(n, "code")])
		kindRaw := asString(fields[FeeField(n, "kind")])
		valueRaw := asString(fields[FeeField(n, "value")])
		if codeRaw == "" && kindRaw == "" && valueRaw == "" {
			continue
		}

		if codeRaw == "" {
			issues = append(issues, fmt.Sprintf("fee %d is missing a code", n))
			continue
		}
		kind, ok := ParseFeeKind(kindRaw)
		if !ok {
			issues = append(issues, fmt.Sprintf("fee %d kind '%s' must be percent or amount", n, kindRaw))
			continue
		}
		value, ok := ParseNumber(valueRaw)
		if !ok {
			issues = append(issues, fmt.Sprintf("fee %d value '%s' is not a number", n, valueRaw))
			continue
		}
		fees = append(fees, model.Fee{Code: model.NormalizeKey(codeRaw), Kind: kind, Value: value})
	}

	return fees, issues
}

// decodeStructuredList handles the discriminated embedded-list shapes:
// a JSON-encoded array in a string cell, or a decoded []any from a JSON
// body. Anything else is a malformed list.
func decodeStructuredList[T any](raw any) ([]T, error) {
	var data []byte
	switch v := raw.(type) {
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, nil
		}
		data = []byte(s)
	case []any:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("not a valid list")
		}
		data = b
	default:
		return nil, fmt.Errorf("not a valid list")
	}

	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("not a valid JSON array")
	}
	return out, nil
}
