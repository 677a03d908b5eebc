package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

type PackageRepository interface {
	// Write paths
	UpsertPackage(ctx context.Context, p Package) error
	UpsertI18n(ctx context.Context, i PackageI18n) error
	ReplacePeriods(ctx context.Context, res Resource, packageID int64, ps []PricePeriod) error
	SetStatus(ctx context.Context, res Resource, id int64, st Status) error
	LogMiss(ctx context.Context, res Resource, id int64, status int, reason string) error

	// Read paths
	GetPackage(ctx context.Context, res Resource, id int64) (Package, []PricePeriod, error)
	GetPackageView(ctx context.Context, res Resource, id int64, lang string) (PackageView, error)
	ListPackages(ctx context.Context, q PackagesQuery) (PackagesPage, error)
	GetCurrency(ctx context.Context, id int64) (Currency, error)
}

type SupplierClient interface {
	GetPackage(ctx context.Context, res Resource, id int64) (map[string]any, error)
	GetTranslation(ctx context.Context, res Resource, id int64, lang string) (map[string]any, error)
	GetPrices(ctx context.Context, res Resource, id int64) ([]map[string]any, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// Read models & queries
type PackageView struct {
	ID            int64           `json:"id"`
	Resource      Resource        `json:"resource"`
	OwnerID       int64           `json:"owner_id"`
	Name          *string         `json:"name"`
	Description   *string         `json:"description,omitempty"`
	ConstantPrice bool            `json:"constant_price"`
	Discount      decimal.Decimal `json:"discount"`
	TaxPercent    decimal.Decimal `json:"total_tax_amount"`
	FreeAgeLimit  *int            `json:"free_age_limit,omitempty"`
	Status        Status          `json:"status"`
	Currency      *Currency       `json:"currency,omitempty"`
	Periods       []PricePeriod   `json:"prices,omitempty"`
	Language      string          `json:"language"`
}

type PackagesQuery struct {
	Resource Resource
	Lang     string
	Q        *string
	Status   *Status
	OwnerID  *int64
	Limit    int
	Page     int
}

type PackagesPage struct {
	Items []PackageView `json:"data"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"per_page"`
}
