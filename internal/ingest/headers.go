package ingest

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// Canonical field keys produced by header canonicalization. Everything
// downstream of the reader speaks this vocabulary.
const (
	FieldPlatform          = "platform"
	FieldCategory          = "category"
	FieldCommissionType    = "commission_type"
	FieldCommissionPercent = "commission_percent"
	FieldEffectiveFrom     = "effective_from"
	FieldEffectiveTo       = "effective_to"
	FieldSettlementBasis   = "settlement_basis"
	FieldTPlusDays         = "t_plus_days"
	FieldWeekday           = "settlement_weekday"
	FieldWhichWeek         = "which_week"
	FieldMonthlyDay        = "monthly_day"
	FieldGSTPercent        = "gst_percent"
	FieldTCSPercent        = "tcs_percent"
	FieldGraceDays         = "grace_days"
	FieldSlabs             = "slabs"
	FieldFees              = "fees"
)

// MaxInlineSlabs and MaxInlineFees bound the flat column shape
// (slab1_min_price .. slabN_commission_percent).
const (
	MaxInlineSlabs = 8
	MaxInlineFees  = 6
)

var headerReplacer = strings.NewReplacer(
	"+", " plus ",
	"%", " ",
	"₹", " ", "$", " ", "€", " ", "£", " ",
	"(", " ", ")", " ", "[", " ", "]", " ",
	"-", " ", "_", " ", "/", " ", ".", " ", ",", " ", ":", " ", "#", " ",
	"'", "", "\"", "",
)

// CanonicalizeHeader collapses a raw column name to a lookup key:
// lower-cased, symbols stripped, whitespace collapsed, "+" spelled out
// so "T+ Days" and "t plus days" land on the same key.
func CanonicalizeHeader(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = headerReplacer.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// headerAliases maps canonicalized header variants to canonical field
// keys. Keys here must already be in CanonicalizeHeader form.
var headerAliases = map[string]string{
	"platform":          FieldPlatform,
	"platform id":       FieldPlatform,
	"platform name":     FieldPlatform,
	"marketplace":       FieldPlatform,
	"marketplace name":  FieldPlatform,
	"channel":           FieldPlatform,
	"category":          FieldCategory,
	"category id":       FieldCategory,
	"category name":     FieldCategory,
	"product category":  FieldCategory,
	"vertical":          FieldCategory,
	"commission type":   FieldCommissionType,
	"commission model":  FieldCommissionType,
	"rate type":         FieldCommissionType,
	"commission":            FieldCommissionPercent,
	"commission percent":    FieldCommissionPercent,
	"commission pct":        FieldCommissionPercent,
	"commission rate":       FieldCommissionPercent,
	"flat commission":       FieldCommissionPercent,
	"flat commission rate":  FieldCommissionPercent,
	"effective from":   FieldEffectiveFrom,
	"effective date":   FieldEffectiveFrom,
	"valid from":       FieldEffectiveFrom,
	"start date":       FieldEffectiveFrom,
	"from":             FieldEffectiveFrom,
	"from date":        FieldEffectiveFrom,
	"effective to":     FieldEffectiveTo,
	"valid to":         FieldEffectiveTo,
	"end date":         FieldEffectiveTo,
	"to":               FieldEffectiveTo,
	"to date":          FieldEffectiveTo,
	"expiry":           FieldEffectiveTo,
	"expiry date":      FieldEffectiveTo,
	"settlement basis":     FieldSettlementBasis,
	"settlement cycle":     FieldSettlementBasis,
	"settlement frequency": FieldSettlementBasis,
	"payout cycle":         FieldSettlementBasis,
	"t plus days":      FieldTPlusDays,
	"t plus":           FieldTPlusDays,
	"settlement days":  FieldTPlusDays,
	"payout days":      FieldTPlusDays,
	"settlement day":     FieldWeekday,
	"settlement weekday": FieldWeekday,
	"payout day":         FieldWeekday,
	"weekday":            FieldWeekday,
	"which week":          FieldWhichWeek,
	"first or second":     FieldWhichWeek,
	"fortnight half":      FieldWhichWeek,
	"bi weekly which":     FieldWhichWeek,
	"monthly day":     FieldMonthlyDay,
	"day of month":    FieldMonthlyDay,
	"payout date":     FieldMonthlyDay,
	"gst":             FieldGSTPercent,
	"gst percent":     FieldGSTPercent,
	"gst rate":        FieldGSTPercent,
	"tcs":             FieldTCSPercent,
	"tcs percent":     FieldTCSPercent,
	"tcs rate":        FieldTCSPercent,
	"grace days":        FieldGraceDays,
	"grace period":      FieldGraceDays,
	"grace period days": FieldGraceDays,
	"slabs":     FieldSlabs,
	"slab json": FieldSlabs,
	"tiers":     FieldSlabs,
	"tier json": FieldSlabs,
	"fees":       FieldFees,
	"fee json":   FieldFees,
	"fee list":   FieldFees,
	"other fees": FieldFees,
}

func init() {
	// Flat per-slab and per-fee columns, e.g. "Slab 2 Min Price" or
	// "tier2 max" -> slab2_max_price.
	for n := 1; n <= MaxInlineSlabs; n++ {
		for _, prefix := range []string{"slab", "tier"} {
			headerAliases[fmt.Sprintf("%s %d min price", prefix, n)] = SlabField(n, "min_price")
			headerAliases[fmt.Sprintf("%s %d min", prefix, n)] = SlabField(n, "min_price")
			headerAliases[fmt.Sprintf("%s %d max price", prefix, n)] = SlabField(n, "max_price")
			headerAliases[fmt.Sprintf("%s %d max", prefix, n)] = SlabField(n, "max_price")
			headerAliases[fmt.Sprintf("%s %d commission", prefix, n)] = SlabField(n, "commission_percent")
			headerAliases[fmt.Sprintf("%s %d commission percent", prefix, n)] = SlabField(n, "commission_percent")
			headerAliases[fmt.Sprintf("%s %d rate", prefix, n)] = SlabField(n, "commission_percent")
		}
	}
	for n := 1; n <= MaxInlineFees; n++ {
		headerAliases[fmt.Sprintf("fee %d code", n)] = FeeField(n, "code")
		headerAliases[fmt.Sprintf("fee %d name", n)] = FeeField(n, "code")
		headerAliases[fmt.Sprintf("fee %d kind", n)] = FeeField(n, "kind")
		headerAliases[fmt.Sprintf("fee %d type", n)] = FeeField(n, "kind")
		headerAliases[fmt.Sprintf("fee %d value", n)] = FeeField(n, "value")
		headerAliases[fmt.Sprintf("fee %d amount", n)] = FeeField(n, "value")
	}
}

// SlabField names the canonical key for one flat slab column, e.g.
// SlabField(2, "min_price") == "slab2_min_price".
func SlabField(n int, part string) string {
	return fmt.Sprintf("slab%d_%s", n, part)
}

// FeeField names the canonical key for one flat fee column.
func FeeField(n int, part string) string {
	return fmt.Sprintf("fee%d_%s", n, part)
}

// legacyAliases emits extra friendly key names alongside the canonical
// one, for callers still reading older payload shapes.
var legacyAliases = map[string][]string{
	FieldPlatform:          {"marketplace"},
	FieldCategory:          {"product_category"},
	FieldCommissionPercent: {"commission_rate"},
	FieldEffectiveFrom:     {"valid_from"},
	FieldEffectiveTo:       {"valid_to"},
	FieldSettlementBasis:   {"payout_cycle"},
}

// unknownHeaderWarnings dedups the warn-once-per-process log for
// headers outside the alias table.
var unknownHeaderWarnings = struct {
	mu   sync.Mutex
	seen map[string]struct{}
}{seen: make(map[string]struct{})}

func warnUnknownHeader(raw string) {
	unknownHeaderWarnings.mu.Lock()
	defer unknownHeaderWarnings.mu.Unlock()
	if _, ok := unknownHeaderWarnings.seen[raw]; ok {
		return
	}
	unknownHeaderWarnings.seen[raw] = struct{}{}
	log.Warn().Str("header", raw).Msg("unrecognized upload column, passing through")
}

// CanonicalizeRow maps one raw-header -> cell mapping into the canonical
// vocabulary. Unknown headers are carried through under their
// canonicalized name and warned about once per process; they never fail
// the row. Headers are processed in sorted order and the first value to
// claim a key keeps it, so alias-equivalent duplicate columns resolve
// the same way on every run.
func CanonicalizeRow(raw map[string]any) map[string]any {
	headers := make([]string, 0, len(raw))
	for header := range raw {
		headers = append(headers, header)
	}
	sort.Strings(headers)

	out := make(map[string]any, len(raw))
	for _, header := range headers {
		key := CanonicalizeHeader(header)
		if key == "" {
			continue
		}
		canonical, ok := headerAliases[key]
		if !ok {
			warnUnknownHeader(header)
			passthrough := strings.ReplaceAll(key, " ", "_")
			if _, taken := out[passthrough]; !taken {
				out[passthrough] = raw[header]
			}
			continue
		}
		if _, taken := out[canonical]; taken {
			continue
		}
		out[canonical] = raw[header]
		for _, legacy := range legacyAliases[canonical] {
			if _, taken := out[legacy]; !taken {
				out[legacy] = raw[header]
			}
		}
	}
	return out
}
