package pricing

import (
	"fmt"

	"tourbook/internal/domain"
)

const (
	// DefaultFreeAgeLimit applies to activities, and to hotels without their own setting.
	DefaultFreeAgeLimit = 6
	// AdultAge is the age from which a child occupant is charged the adult rate.
	AdultAge = 18
)

// Fallback decides what happens when no dated period covers the requested dates.
type Fallback int

const (
	// FallbackNone reports that no price is available.
	FallbackNone Fallback = iota
	// FallbackNearest picks the period closest to the requested dates.
	FallbackNearest
)

func (f Fallback) String() string {
	switch f {
	case FallbackNone:
		return "none"
	case FallbackNearest:
		return "nearest"
	}
	return fmt.Sprintf("Fallback(%d)", int(f))
}

// Policy captures the per-resource rule deltas of the calculator.
type Policy struct {
	Resource     domain.Resource
	FreeAgeLimit int
	AdultAge     int
	PerQuantity  bool   // multiply by nights/days
	QuantityUnit string // nights|days, only with PerQuantity
	TaxInFinal   bool   // visa quotes report tax but leave it out of final_price
	Fallback     Fallback
}

func HotelPolicy(freeAgeLimit int) Policy {
	return Policy{
		Resource:     domain.ResourceHotel,
		FreeAgeLimit: freeAgeLimit,
		AdultAge:     AdultAge,
		PerQuantity:  true,
		QuantityUnit: "nights",
		TaxInFinal:   true,
		Fallback:     FallbackNearest,
	}
}

func ActivityPolicy() Policy {
	return Policy{
		Resource:     domain.ResourceActivity,
		FreeAgeLimit: DefaultFreeAgeLimit,
		AdultAge:     AdultAge,
		TaxInFinal:   true,
		Fallback:     FallbackNone,
	}
}

func CarRentalPolicy() Policy {
	return Policy{
		Resource:     domain.ResourceCarRental,
		AdultAge:     AdultAge,
		PerQuantity:  true,
		QuantityUnit: "days",
		TaxInFinal:   true,
		Fallback:     FallbackNone,
	}
}

func VisaPolicy() Policy {
	return Policy{
		Resource: domain.ResourceVisa,
		AdultAge: AdultAge,
		Fallback: FallbackNone,
	}
}

// PolicyFor resolves the policy of a resource. freeAgeLimit only applies to hotels;
// nil means DefaultFreeAgeLimit.
func PolicyFor(res domain.Resource, freeAgeLimit *int) (Policy, error) {
	switch res {
	case domain.ResourceHotel:
		limit := DefaultFreeAgeLimit
		if freeAgeLimit != nil {
			limit = *freeAgeLimit
		}
		return HotelPolicy(limit), nil
	case domain.ResourceActivity:
		return ActivityPolicy(), nil
	case domain.ResourceCarRental:
		return CarRentalPolicy(), nil
	case domain.ResourceVisa:
		return VisaPolicy(), nil
	}
	return Policy{}, fmt.Errorf("policy for %q: %w", res, domain.ErrUnsupportedResource)
}
