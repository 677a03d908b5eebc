// Package pricing turns a selected price period and a guest composition into a PriceQuote.
// Everything here is pure: callers fetch packages, periods and currencies beforehand.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"tourbook/internal/domain"
)

const (
	WarnNoGuests     = "no guests supplied; priced as a single unit of main_price"
	WarnTaxExcluded  = "tax_amount is not included in final_price"
	WarnClampedFinal = "final_price was negative and has been clamped to 0"
)

var hundred = decimal.NewFromInt(100)

type QuoteInput struct {
	Period   domain.PricePeriod
	Package  domain.Package
	Guests   domain.GuestComposition
	Currency domain.Currency
	Start    *time.Time
	End      *time.Time
}

// CalculateStayPrice prices a hotel-style stay: every charge is multiplied by the night count.
func CalculateStayPrice(period domain.PricePeriod, pkg domain.Package, guests domain.GuestComposition,
	cur domain.Currency, freeAgeLimit int, start, end *time.Time) (domain.PriceQuote, error) {
	return Calculate(HotelPolicy(freeAgeLimit), QuoteInput{
		Period: period, Package: pkg, Guests: guests, Currency: cur, Start: start, End: end,
	})
}

// CalculateSingleVisitPrice prices an activity-style single occurrence.
func CalculateSingleVisitPrice(period domain.PricePeriod, pkg domain.Package, guests domain.GuestComposition,
	cur domain.Currency) (domain.PriceQuote, error) {
	return Calculate(ActivityPolicy(), QuoteInput{Period: period, Package: pkg, Guests: guests, Currency: cur})
}

// Calculate is the single calculator behind every resource type.
func Calculate(p Policy, in QuoteInput) (domain.PriceQuote, error) {
	if err := validate(p, in); err != nil {
		return domain.PriceQuote{}, err
	}

	qty, unit := 1, ""
	if p.PerQuantity {
		qty, unit = Nights(in.Start, in.End), p.QuantityUnit
	}
	q := decimal.NewFromInt(int64(qty))

	main := in.Period.MainPrice
	child := decimal.Zero
	if in.Period.ChildPrice.Valid {
		child = in.Period.ChildPrice.Decimal
	}

	var warnings []string
	adultTotal := main.Mul(decimal.NewFromInt(int64(in.Guests.AdultCount))).Mul(q).Round(2)
	childTotal := decimal.Zero
	free, paid := 0, 0
	for _, age := range in.Guests.ChildAges {
		switch {
		case age < p.FreeAgeLimit:
			free++
		case age < p.AdultAge:
			paid++
			childTotal = childTotal.Add(child.Mul(q))
		default:
			paid++
			childTotal = childTotal.Add(main.Mul(q))
		}
	}
	childTotal = childTotal.Round(2)

	if in.Guests.AdultCount == 0 && in.Guests.ChildCount == 0 {
		adultTotal = main.Round(2)
		warnings = append(warnings, WarnNoGuests)
	}

	b := compose(adultTotal, childTotal, in.Package.Discount, in.Package.TaxPercent, p.TaxInFinal)
	if !p.TaxInFinal {
		warnings = append(warnings, WarnTaxExcluded)
	}
	if clampFinal(&b) {
		warnings = append(warnings, WarnClampedFinal)
	}

	ages := make([]int, len(in.Guests.ChildAges))
	copy(ages, in.Guests.ChildAges)

	return domain.PriceQuote{
		CurrencyCode:       in.Currency.Code,
		CurrencySymbol:     in.Currency.Symbol,
		UnitPrice:          main,
		ChildUnitPrice:     child,
		QuantityUnit:       unit,
		Quantity:           qty,
		AdultCount:         in.Guests.AdultCount,
		ChildCount:         in.Guests.ChildCount,
		ChildAges:          ages,
		FreeChildren:       free,
		PaidChildren:       paid,
		FreeAgeLimit:       p.FreeAgeLimit,
		Subtotal:           b.Subtotal,
		DiscountPercentage: in.Package.Discount,
		DiscountAmount:     b.DiscountAmount,
		DiscountedSubtotal: b.DiscountedSubtotal,
		TaxPercentage:      in.Package.TaxPercent,
		TaxAmount:          b.TaxAmount,
		FinalPrice:         b.FinalPrice,
		Breakdown:          b,
		Warnings:           warnings,
	}, nil
}

// compose applies subtotal -> discount -> tax, each step rounded to cents.
func compose(adultTotal, childTotal, discountPct, taxPct decimal.Decimal, taxInFinal bool) domain.Breakdown {
	subtotal := adultTotal.Add(childTotal)
	discount := subtotal.Mul(discountPct).Div(hundred).Round(2)
	discounted := subtotal.Sub(discount)
	tax := discounted.Mul(taxPct).Div(hundred).Round(2)
	final := discounted
	if taxInFinal {
		final = discounted.Add(tax)
	}
	return domain.Breakdown{
		AdultTotal:         adultTotal,
		ChildTotal:         childTotal,
		Subtotal:           subtotal,
		DiscountAmount:     discount,
		DiscountedSubtotal: discounted,
		TaxAmount:          tax,
		FinalPrice:         final,
	}
}

// clampFinal zeroes a negative final price and reports whether it did.
func clampFinal(b *domain.Breakdown) bool {
	if !b.FinalPrice.IsNegative() {
		return false
	}
	b.FinalPrice = decimal.Zero
	return true
}

// Nights counts calendar days between the two dates, at least 1. Missing dates count as one unit.
// Both dates are taken in their own zone, so a DST shift never adds a night.
func Nights(start, end *time.Time) int {
	if start == nil || end == nil {
		return 1
	}
	n := int(day(*end).Sub(day(*start)).Hours() / 24)
	if n < 1 {
		return 1
	}
	return n
}

func validate(p Policy, in QuoteInput) error {
	ve := newValidationError()
	if in.Period.MainPrice.IsNegative() {
		ve.add("main_price", "must not be negative")
	}
	if in.Period.ChildPrice.Valid && in.Period.ChildPrice.Decimal.IsNegative() {
		ve.add("child_price", "must not be negative")
	}
	if outOfPercentRange(in.Package.Discount) {
		ve.add("discount", "must be between 0 and 100")
	}
	if outOfPercentRange(in.Package.TaxPercent) {
		ve.add("total_tax_amount", "must be between 0 and 100")
	}
	if p.FreeAgeLimit < 0 {
		ve.add("free_age_limit", "must not be negative")
	}
	g := in.Guests
	if g.AdultCount < 0 {
		ve.add("adult_count", "must not be negative")
	}
	if g.ChildCount < 0 {
		ve.add("child_count", "must not be negative")
	}
	if len(g.ChildAges) > g.ChildCount {
		ve.add("child_ages", "must not list more ages than child_count")
	}
	for _, age := range g.ChildAges {
		if age < 0 {
			ve.add("child_ages", "ages must not be negative")
			break
		}
	}
	if in.Start != nil && in.End != nil && in.End.Before(*in.Start) {
		ve.add("end_date", "must not be before start_date")
	}
	return ve.orNil()
}

func outOfPercentRange(d decimal.Decimal) bool {
	return d.IsNegative() || d.GreaterThan(hundred)
}
