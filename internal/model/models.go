package model

import (
	"sort"
	"strings"
	"time"
)

const (
	CommissionFlat   = "flat"
	CommissionTiered = "tiered"
)

const (
	FeePercent = "percent"
	FeeAmount  = "amount"
)

const (
	SettlementTPlus    = "t_plus"
	SettlementWeekly   = "weekly"
	SettlementBiWeekly = "bi_weekly"
	SettlementMonthly  = "monthly"
)

// MonthlyEndOfMonth is the literal accepted in place of a day-of-month
// for monthly settlement.
const MonthlyEndOfMonth = "end_of_month"

// Fee is a single named charge on a rate card. Codes are unique within
// a card and the list is kept sorted by code so two fee lists can be
// compared element-wise.
type Fee struct {
	Code  string  `json:"code"`
	Kind  string  `json:"kind"`
	Value float64 `json:"value"`
}

// Slab is one price-bound commission tier. MaxPrice nil means the tier
// is open-ended.
type Slab struct {
	MinPrice          float64  `json:"min_price"`
	MaxPrice          *float64 `json:"max_price,omitempty"`
	CommissionPercent float64  `json:"commission_percent"`
}

// SettlementTerms carries the settlement basis and its basis-specific
// companion fields. Only the fields the basis requires are set.
type SettlementTerms struct {
	Basis      string  `json:"basis,omitempty"`
	TPlusDays  *int    `json:"t_plus_days,omitempty"`
	Weekday    *string `json:"weekday,omitempty"`
	WhichWeek  *string `json:"which_week,omitempty"` // "first" or "second", bi_weekly only
	MonthlyDay *string `json:"monthly_day,omitempty"`
}

// RateCard is the normalized unit of comparison and persistence. ID is
// empty for a candidate that has not been persisted; batch staging
// assigns a synthetic id before the card reaches the store.
type RateCard struct {
	ID                string          `json:"id,omitempty"`
	PlatformID        string          `json:"platform_id"`
	CategoryID        string          `json:"category_id"`
	CommissionType    string          `json:"commission_type"`
	CommissionPercent *float64        `json:"commission_percent,omitempty"`
	Slabs             []Slab          `json:"slabs,omitempty"`
	Fees              []Fee           `json:"fees,omitempty"`
	Settlement        SettlementTerms `json:"settlement"`
	GSTPercent        float64         `json:"gst_percent"`
	TCSPercent        float64         `json:"tcs_percent"`
	GraceDays         int             `json:"grace_days"`
	EffectiveFrom     time.Time       `json:"effective_from"`
	EffectiveTo       *time.Time      `json:"effective_to,omitempty"`
	Archived          bool            `json:"archived"`
	CreatedAt         time.Time       `json:"created_at,omitempty"`
}

// NormalizeKey trims and lower-cases an identity field so platform and
// category values compare consistently regardless of upload casing.
func NormalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// SortSlabs orders slabs ascending by MinPrice. Validation assumes this
// ordering when it checks tier boundaries.
func SortSlabs(slabs []Slab) {
	sort.SliceStable(slabs, func(i, j int) bool {
		return slabs[i].MinPrice < slabs[j].MinPrice
	})
}

// SortFees orders fees by code, the canonical ordering for equality
// comparison between two fee lists.
func SortFees(fees []Fee) {
	sort.SliceStable(fees, func(i, j int) bool {
		return fees[i].Code < fees[j].Code
	})
}

// SameWindow reports whether two cards cover the identical validity
// window, treating two open ends as equal.
func (c *RateCard) SameWindow(o *RateCard) bool {
	if !c.EffectiveFrom.Equal(o.EffectiveFrom) {
		return false
	}
	if (c.EffectiveTo == nil) != (o.EffectiveTo == nil) {
		return false
	}
	return c.EffectiveTo == nil || c.EffectiveTo.Equal(*o.EffectiveTo)
}

// SameCommissionTerms compares the commission structure only: type,
// flat percent, and slab list element-wise.
func (c *RateCard) SameCommissionTerms(o *RateCard) bool {
	if c.CommissionType != o.CommissionType {
		return false
	}
	if c.CommissionType == CommissionFlat {
		if (c.CommissionPercent == nil) != (o.CommissionPercent == nil) {
			return false
		}
		return c.CommissionPercent == nil || *c.CommissionPercent == *o.CommissionPercent
	}
	if len(c.Slabs) != len(o.Slabs) {
		return false
	}
	for i := range c.Slabs {
		a, b := c.Slabs[i], o.Slabs[i]
		if a.MinPrice != b.MinPrice || a.CommissionPercent != b.CommissionPercent {
			return false
		}
		if (a.MaxPrice == nil) != (b.MaxPrice == nil) {
			return false
		}
		if a.MaxPrice != nil && *a.MaxPrice != *b.MaxPrice {
			return false
		}
	}
	return true
}

// SameFees compares two fee lists element-wise. Both lists are expected
// to be in canonical (code-sorted) order.
func (c *RateCard) SameFees(o *RateCard) bool {
	if len(c.Fees) != len(o.Fees) {
		return false
	}
	for i := range c.Fees {
		if c.Fees[i] != o.Fees[i] {
			return false
		}
	}
	return true
}
