package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Resource is the bookable product family a package belongs to.
type Resource string

const (
	ResourceHotel     Resource = "hotel"
	ResourceActivity  Resource = "activity"
	ResourceCarRental Resource = "car_rental"
	ResourceVisa      Resource = "visa"
)

var Resources = []Resource{ResourceHotel, ResourceActivity, ResourceCarRental, ResourceVisa}

func ParseResource(s string) (Resource, error) {
	for _, r := range Resources {
		if string(r) == s {
			return r, nil
		}
	}
	return "", ErrUnsupportedResource
}

// Langs are the translations pulled from the supplier; "en" is the fallback.
var Langs = []string{"en", "fr", "es"}

// PackageCacheKey is the cache key of a localized package view.
func PackageCacheKey(res Resource, id int64, lang string) string {
	return fmt.Sprintf("package:%s:%d:%s", res, id, strings.ToLower(lang))
}

// Status drives the admin approval workflow.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusSuspended Status = "suspended"
)

var transitions = map[Status][]Status{
	StatusPending:   {StatusApproved, StatusRejected},
	StatusApproved:  {StatusSuspended},
	StatusSuspended: {StatusApproved},
}

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusApproved, StatusRejected, StatusSuspended:
		return st, nil
	}
	return "", fmt.Errorf("status %q: %w", s, ErrInvalidTransition)
}

// CanTransition reports whether an admin may move a package from one status to another.
func (s Status) CanTransition(to Status) bool {
	for _, t := range transitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

type Currency struct {
	ID     int64  `json:"id"`
	Code   string `json:"code"`
	Symbol string `json:"symbol"`
}

// Package is a purchasable unit (room type, activity slot, car class, visa product).
// Each resource has its own id space; (Resource, ID) identifies a package.
type Package struct {
	ID            int64
	Resource      Resource
	OwnerID       int64 // hotel / activity / car rental / visa id
	SupplierRef   *string
	ConstantPrice bool
	Discount      decimal.Decimal // percent, 0..100
	TaxPercent    decimal.Decimal // total_tax_amount, percent 0..100
	FreeAgeLimit  *int            // hotel-level setting; nil means policy default
	Status        Status
	RawJSON       []byte // full supplier payload
}

type PackageI18n struct {
	Resource    Resource
	PackageID   int64
	Lang        string // en|fr|es
	Name        *string
	Description *string
	ExtrasJSON  []byte
}

// PricePeriod is a price valid either unconditionally (constant packages)
// or within [StartDate, EndDate], both inclusive.
type PricePeriod struct {
	ID         int64               `json:"id"`
	PackageID  int64               `json:"package_id"`
	MainPrice  decimal.Decimal     `json:"main_price"`
	ChildPrice decimal.NullDecimal `json:"child_price"`
	StartDate  *time.Time          `json:"start_date,omitempty"`
	EndDate    *time.Time          `json:"end_date,omitempty"`
	CurrencyID int64               `json:"currency_id"`
}
