package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"tourbook/internal/adapters/supplier"
	"tourbook/internal/app"
	"tourbook/internal/domain"
)

type fakeSupplier struct {
	pkg    map[string]any
	pkgErr error
	prices []map[string]any
	priErr error
	trans  map[string]map[string]any
}

func (f *fakeSupplier) GetPackage(ctx context.Context, res domain.Resource, id int64) (map[string]any, error) {
	return f.pkg, f.pkgErr
}
func (f *fakeSupplier) GetTranslation(ctx context.Context, res domain.Resource, id int64, lang string) (map[string]any, error) {
	tr, ok := f.trans[lang]
	if !ok {
		return nil, supplier.ErrNotFound
	}
	return tr, nil
}
func (f *fakeSupplier) GetPrices(ctx context.Context, res domain.Resource, id int64) ([]map[string]any, error) {
	return f.prices, f.priErr
}

func TestIngestPackage_MapsAndInvalidates(t *testing.T) {
	repo := newFakeRepo()
	cache := &fakeCache{}
	sup := &fakeSupplier{
		pkg: map[string]any{
			"hotel_id": 77.0, "discount": "12,5", "total_tax_amount": 8.0, "free_age_limit": "4", "ref": "R-1",
		},
		prices: []map[string]any{
			{"main_price": "100.00", "child_price": 40.0, "start_date": "2025-06-01", "end_date": "2025-06-30", "currency_id": 2.0},
			{"price": 90.0, "from": "2025-07-01T00:00:00Z"},
			{"note": "no price here"},
		},
		trans: map[string]map[string]any{
			"en": {"name": "Double room", "description": "Sea view", "size_m2": 24.0},
			"fr": {"title": "Chambre double"},
		},
	}
	svc := app.NewIngestionService(sup, repo, cache)

	require.NoError(t, svc.IngestPackage(context.Background(), domain.ResourceHotel, 5))

	p := repo.pkgs[5]
	require.Equal(t, domain.StatusPending, p.Status)
	require.EqualValues(t, 77, p.OwnerID)
	require.Equal(t, "12.5", p.Discount.String())
	require.Equal(t, "8", p.TaxPercent.String())
	require.Equal(t, 4, *p.FreeAgeLimit)
	require.Equal(t, "R-1", *p.SupplierRef)

	ps := repo.periods[5]
	require.Len(t, ps, 2)
	require.EqualValues(t, 2, ps[0].CurrencyID)
	require.True(t, ps[0].ChildPrice.Valid)
	require.Equal(t, "2025-06-30", ps[0].EndDate.Format("2006-01-02"))
	require.EqualValues(t, 1, ps[1].CurrencyID)
	require.False(t, ps[1].ChildPrice.Valid)
	require.Nil(t, ps[1].EndDate)

	require.Equal(t, "Double room", *repo.i18n[5]["en"].Name)
	require.Equal(t, domain.ResourceHotel, repo.i18n[5]["en"].Resource)
	require.JSONEq(t, `{"size_m2":24}`, string(repo.i18n[5]["en"].ExtrasJSON))
	require.Equal(t, "Chambre double", *repo.i18n[5]["fr"].Name)
	require.Equal(t, []string{"i18n:es"}, repo.misses)
	require.Contains(t, cache.dels, "package:hotel:5:es")
}

func TestIngestPackage_KeepsApprovalStatus(t *testing.T) {
	repo := newFakeRepo()
	repo.pkgs[5] = domain.Package{ID: 5, Resource: domain.ResourceHotel, Status: domain.StatusApproved}
	svc := app.NewIngestionService(&fakeSupplier{pkg: map[string]any{}}, repo, nil)

	require.NoError(t, svc.IngestPackage(context.Background(), domain.ResourceHotel, 5))
	require.Equal(t, domain.StatusApproved, repo.pkgs[5].Status)
}

func TestIngestPackage_Misses(t *testing.T) {
	repo := newFakeRepo()
	svc := app.NewIngestionService(&fakeSupplier{pkgErr: supplier.ErrForbidden}, repo, &fakeCache{})
	require.NoError(t, svc.IngestPackage(context.Background(), domain.ResourceVisa, 3))
	require.Equal(t, []string{"package"}, repo.misses)
	require.Empty(t, repo.pkgs)

	repo = newFakeRepo()
	svc = app.NewIngestionService(&fakeSupplier{pkg: map[string]any{}, priErr: supplier.ErrNotFound}, repo, nil)
	require.NoError(t, svc.IngestPackage(context.Background(), domain.ResourceVisa, 3))
	require.Contains(t, repo.misses, "prices")

	boom := errors.New("boom")
	svc = app.NewIngestionService(&fakeSupplier{pkgErr: boom}, newFakeRepo(), nil)
	require.ErrorIs(t, svc.IngestPackage(context.Background(), domain.ResourceVisa, 3), boom)
}

func TestSetPackageStatus_Transitions(t *testing.T) {
	repo := newFakeRepo()
	repo.pkgs[1] = domain.Package{ID: 1, Resource: domain.ResourceActivity, Status: domain.StatusPending}
	cache := &fakeCache{}
	svc := app.NewCommandService(repo, cache)
	ctx := context.Background()

	st, err := svc.SetPackageStatus(ctx, domain.ResourceActivity, 1, domain.StatusApproved)
	require.NoError(t, err)
	require.Equal(t, domain.StatusApproved, st)
	require.Len(t, cache.dels, len(domain.Langs))

	_, err = svc.SetPackageStatus(ctx, domain.ResourceActivity, 1, domain.StatusSuspended)
	require.NoError(t, err)
	_, err = svc.SetPackageStatus(ctx, domain.ResourceActivity, 1, domain.StatusApproved)
	require.NoError(t, err)

	// same status is a no-op
	_, err = svc.SetPackageStatus(ctx, domain.ResourceActivity, 1, domain.StatusApproved)
	require.NoError(t, err)

	st, err = svc.SetPackageStatus(ctx, domain.ResourceActivity, 1, domain.StatusPending)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	require.Equal(t, domain.StatusApproved, st)

	_, err = svc.SetPackageStatus(ctx, domain.ResourceHotel, 1, domain.StatusApproved)
	require.ErrorIs(t, err, domain.ErrNotFound)
}
