package app

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"tourbook/internal/domain"
)

/********** alias registries (single source of truth) **********/

var packageAliases = map[string][]string{
	"owner_id":       {"owner_id", "hotel_id", "activity_id", "car_rental_id", "visa_id", "ownerId", "owner.id"},
	"supplier_ref":   {"ref", "code", "sku", "supplier_ref"},
	"constant_price": {"constant_price", "constantPrice", "is_constant", "fixed_price"},
	"discount":       {"discount", "discount_percentage", "discountPercent"},
	"tax":            {"total_tax_amount", "tax_percentage", "tax", "taxPercent"},
	"free_age_limit": {"free_age_limit", "freeAgeLimit", "hotel.free_age_limit", "child_policy.free_age"},
}

var periodAliases = map[string][]string{
	"main_price":  {"main_price", "mainPrice", "price", "adult_price", "amount"},
	"child_price": {"child_price", "childPrice", "kid_price"},
	"start_date":  {"start_date", "startDate", "from", "valid_from"},
	"end_date":    {"end_date", "endDate", "to", "valid_to"},
	"currency_id": {"currency_id", "currencyId", "currency.id"},
}

var i18nAliases = map[string][]string{
	"name":        {"name", "package_name", "title", "translations.name"},
	"description": {"description", "markdown_description", "translations.description", "summary"},
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

func lookupStr(m map[string]any, path string) string {
	if s, ok := lookupAny(m, path).(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func firstNonEmptyAlias(m map[string]any, aliases map[string][]string, key string) *string {
	for _, p := range aliases[key] {
		if s := lookupStr(m, p); s != "" {
			return &s
		}
	}
	return nil
}

// firstDecimalFlexible: number from several paths (float64/int/string like "8,50").
func firstDecimalFlexible(m map[string]any, paths ...string) *decimal.Decimal {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			d := decimal.NewFromFloat(v)
			return &d
		case int:
			d := decimal.NewFromInt(int64(v))
			return &d
		case json.Number:
			if d, err := decimal.NewFromString(v.String()); err == nil {
				return &d
			}
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if d, err := decimal.NewFromString(s); err == nil {
				return &d
			}
		}
	}
	return nil
}

// firstInt64Flexible: int64 from several paths (float64/int/string).
func firstInt64Flexible(m map[string]any, paths ...string) *int64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			x := int64(v)
			return &x
		case int:
			x := int64(v)
			return &x
		case int64:
			x := v
			return &x
		case string:
			s := strings.TrimSpace(v)
			if s == "" {
				continue
			}
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				return &n
			}
		}
	}
	return nil
}

func firstBoolFlexible(m map[string]any, paths ...string) bool {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case bool:
			return v
		case float64:
			return v != 0
		case string:
			if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
				return b
			}
		}
	}
	return false
}

// firstDateFlexible accepts "2006-01-02" or RFC3339 strings.
func firstDateFlexible(m map[string]any, paths ...string) *time.Time {
	for _, k := range paths {
		s := lookupStr(m, k)
		if s == "" {
			continue
		}
		for _, layout := range []string{"2006-01-02", time.RFC3339} {
			if t, err := time.Parse(layout, s); err == nil {
				t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
				return &t
			}
		}
	}
	return nil
}

func ptrStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// topLevelKnownFromAliases builds a set of top-level keys to exclude from extras.
func topLevelKnownFromAliases(aliases map[string][]string, keys ...string) map[string]struct{} {
	set := make(map[string]struct{}, 16)
	for _, k := range keys {
		for _, path := range aliases[k] {
			top := path
			if i := strings.IndexByte(top, '.'); i >= 0 {
				top = top[:i]
			}
			set[top] = struct{}{}
		}
	}
	return set
}

/********** package mapper **********/

// mapPackage keys the package by the requested id; payload ids are kept only in RawJSON.
func mapPackage(res domain.Resource, id int64, p map[string]any) domain.Package {
	var owner int64
	if v := firstInt64Flexible(p, packageAliases["owner_id"]...); v != nil {
		owner = *v
	}

	raw, err := json.Marshal(p)
	if err != nil {
		log.Error().Err(err).Str("context", "mapPackage").Msg("failed to marshal package to JSON")
	}

	pkg := domain.Package{
		ID:            id,
		Resource:      res,
		OwnerID:       owner,
		SupplierRef:   firstNonEmptyAlias(p, packageAliases, "supplier_ref"),
		ConstantPrice: firstBoolFlexible(p, packageAliases["constant_price"]...),
		Discount:      decimal.Zero,
		TaxPercent:    decimal.Zero,
		RawJSON:       raw,
	}
	if d := firstDecimalFlexible(p, packageAliases["discount"]...); d != nil {
		pkg.Discount = *d
	}
	if d := firstDecimalFlexible(p, packageAliases["tax"]...); d != nil {
		pkg.TaxPercent = *d
	}
	if n := firstInt64Flexible(p, packageAliases["free_age_limit"]...); n != nil {
		limit := int(*n)
		pkg.FreeAgeLimit = &limit
	}
	return pkg
}

/********** price period mapper **********/

// mapPeriods drops rows without a usable main price; the rest keep their supplier order.
func mapPeriods(packageID int64, in []map[string]any) []domain.PricePeriod {
	out := make([]domain.PricePeriod, 0, len(in))
	for i, r := range in {
		main := firstDecimalFlexible(r, periodAliases["main_price"]...)
		if main == nil {
			log.Warn().Int64("package_id", packageID).Int("row", i).Msg("price period without main price skipped")
			continue
		}
		pp := domain.PricePeriod{
			PackageID:  packageID,
			MainPrice:  main.Round(2),
			StartDate:  firstDateFlexible(r, periodAliases["start_date"]...),
			EndDate:    firstDateFlexible(r, periodAliases["end_date"]...),
			CurrencyID: 1,
		}
		if child := firstDecimalFlexible(r, periodAliases["child_price"]...); child != nil {
			pp.ChildPrice = decimal.NewNullDecimal(child.Round(2))
		}
		if cur := firstInt64Flexible(r, periodAliases["currency_id"]...); cur != nil {
			pp.CurrencyID = *cur
		}
		out = append(out, pp)
	}
	return out
}

/********** i18n mapper **********/

func mapI18n(res domain.Resource, packageID int64, lang string, payload map[string]any) domain.PackageI18n {
	name := deref(firstNonEmptyAlias(payload, i18nAliases, "name"))
	desc := deref(firstNonEmptyAlias(payload, i18nAliases, "description"))

	known := topLevelKnownFromAliases(i18nAliases, "name", "description")
	extras := make(map[string]any, 8)
	for k, v := range payload {
		if _, ok := known[k]; ok {
			continue
		}
		extras[k] = v
	}
	extrasJSON, err := json.Marshal(extras)
	if err != nil {
		log.Error().Err(err).Str("context", "mapI18n").Msg("marshal extras failed")
	}

	return domain.PackageI18n{
		Resource:    res,
		PackageID:   packageID,
		Lang:        lang,
		Name:        ptrStr(name),
		Description: ptrStr(desc),
		ExtrasJSON:  extrasJSON,
	}
}
