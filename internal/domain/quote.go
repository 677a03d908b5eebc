package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type GuestComposition struct {
	AdultCount int   `json:"adult_count"`
	ChildCount int   `json:"child_count"`
	ChildAges  []int `json:"child_ages"`
}

// DateRange is a requested stay or visit window. A zero End means a single day.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func (r DateRange) IsZero() bool { return r.Start.IsZero() && r.End.IsZero() }

// Last returns the inclusive end of the range.
func (r DateRange) Last() time.Time {
	if r.End.IsZero() {
		return r.Start
	}
	return r.End
}

type Breakdown struct {
	AdultTotal         decimal.Decimal `json:"adult_total"`
	ChildTotal         decimal.Decimal `json:"child_total"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	DiscountAmount     decimal.Decimal `json:"discount_amount"`
	DiscountedSubtotal decimal.Decimal `json:"discounted_subtotal"`
	TaxAmount          decimal.Decimal `json:"tax_amount"`
	FinalPrice         decimal.Decimal `json:"final_price"`
}

// PriceQuote is serialized as calculated_price / price_breakdown; field names are
// consumed by frontend clients and must not change.
type PriceQuote struct {
	CurrencyCode       string          `json:"currency_code"`
	CurrencySymbol     string          `json:"currency_symbol"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	ChildUnitPrice     decimal.Decimal `json:"child_unit_price"`
	QuantityUnit       string          `json:"quantity_unit,omitempty"` // nights|days
	Quantity           int             `json:"quantity"`
	AdultCount         int             `json:"adult_count"`
	ChildCount         int             `json:"child_count"`
	ChildAges          []int           `json:"child_ages"`
	FreeChildren       int             `json:"free_children"`
	PaidChildren       int             `json:"paid_children"`
	FreeAgeLimit       int             `json:"free_age_limit"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	DiscountAmount     decimal.Decimal `json:"discount_amount"`
	DiscountedSubtotal decimal.Decimal `json:"discounted_subtotal"`
	TaxPercentage      decimal.Decimal `json:"tax_percentage"`
	TaxAmount          decimal.Decimal `json:"tax_amount"`
	FinalPrice         decimal.Decimal `json:"final_price"`
	Breakdown          Breakdown       `json:"breakdown"`
	Warnings           []string        `json:"warnings,omitempty"`
}
