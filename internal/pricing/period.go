package pricing

import (
	"sort"
	"time"

	"tourbook/internal/domain"
)

// SelectApplicablePeriod picks the period used to price the requested dates.
//
// Constant-price packages resolve to their sole period whatever the dates. For dated
// packages the first period (by ascending start date) overlapping the request wins;
// bounds are inclusive and compared as calendar days. When nothing overlaps, fb decides
// between no price (found == false) and the nearest period by day distance, ties going
// to the earlier start date.
func SelectApplicablePeriod(periods []domain.PricePeriod, constant bool, want domain.DateRange, fb Fallback) (domain.PricePeriod, bool, error) {
	if constant {
		switch len(periods) {
		case 0:
			return domain.PricePeriod{}, false, nil
		case 1:
			return periods[0], true, nil
		default:
			return domain.PricePeriod{}, false, ErrAmbiguousConstantPrice
		}
	}
	if len(periods) == 0 {
		return domain.PricePeriod{}, false, nil
	}

	sorted := make([]domain.PricePeriod, len(periods))
	copy(sorted, periods)
	sort.SliceStable(sorted, func(i, j int) bool { return startBefore(sorted[i], sorted[j]) })

	if want.IsZero() {
		if fb == FallbackNearest {
			return sorted[0], true, nil
		}
		return domain.PricePeriod{}, false, nil
	}

	from, to := day(want.Start), day(want.Last())
	for _, p := range sorted {
		if overlaps(p, from, to) {
			return p, true, nil
		}
	}
	if fb != FallbackNearest {
		return domain.PricePeriod{}, false, nil
	}

	best, bestDist := -1, 0
	for i, p := range sorted {
		d := distanceDays(p, from, to)
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return sorted[best], true, nil
}

// startBefore orders open-started periods first.
func startBefore(a, b domain.PricePeriod) bool {
	switch {
	case a.StartDate == nil:
		return b.StartDate != nil
	case b.StartDate == nil:
		return false
	}
	return day(*a.StartDate).Before(day(*b.StartDate))
}

func overlaps(p domain.PricePeriod, from, to time.Time) bool {
	if p.StartDate != nil && day(*p.StartDate).After(to) {
		return false
	}
	if p.EndDate != nil && day(*p.EndDate).Before(from) {
		return false
	}
	return true
}

// distanceDays is the gap in whole days between a period and [from, to]; 0 when they touch.
func distanceDays(p domain.PricePeriod, from, to time.Time) int {
	if p.EndDate != nil {
		if end := day(*p.EndDate); end.Before(from) {
			return int(from.Sub(end).Hours() / 24)
		}
	}
	if p.StartDate != nil {
		if start := day(*p.StartDate); start.After(to) {
			return int(start.Sub(to).Hours() / 24)
		}
	}
	return 0
}

// day truncates t to its calendar date in UTC.
func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
