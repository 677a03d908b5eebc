package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tourbook/internal/app"
	"tourbook/internal/domain"
)

func TestGetPackage_CacheMissThenHit(t *testing.T) {
	repo := newFakeRepo()
	repo.view = domain.PackageView{ID: 42, Resource: domain.ResourceHotel, Name: ptr("Chambre")}
	cache := &fakeCache{}
	q := app.NewQueryService(repo, cache, 10*time.Minute, "en")

	pv, err := q.GetPackage(context.Background(), domain.ResourceHotel, 42, "FR")
	require.NoError(t, err)
	require.Equal(t, "fr", pv.Language)
	require.Equal(t, "Chambre", *pv.Name)
	require.Contains(t, cache.store, "package:hotel:42:fr")

	// second read must come from cache
	repo.view.Name = ptr("SHOULD NOT SEE THIS")
	pv, err = q.GetPackage(context.Background(), domain.ResourceHotel, 42, "fr")
	require.NoError(t, err)
	require.Equal(t, "Chambre", *pv.Name)
	require.Equal(t, 1, repo.viewHits)
}

func TestGetPackage_UnknownLangFallsBack(t *testing.T) {
	repo := newFakeRepo()
	repo.view = domain.PackageView{ID: 1}
	q := app.NewQueryService(repo, &fakeCache{}, time.Minute, "en")

	pv, err := q.GetPackage(context.Background(), domain.ResourceVisa, 1, "de")
	require.NoError(t, err)
	require.Equal(t, "en", pv.Language)
}

func TestGetPackage_NotFoundIsNotCached(t *testing.T) {
	cache := &fakeCache{}
	q := app.NewQueryService(newFakeRepo(), cache, time.Minute, "en")

	_, err := q.GetPackage(context.Background(), domain.ResourceHotel, 9, "en")
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.Empty(t, cache.store)
}

func TestListPackages_ClampsPaging(t *testing.T) {
	repo := newFakeRepo()
	q := app.NewQueryService(repo, &fakeCache{}, time.Minute, "en")

	_, err := q.ListPackages(context.Background(), domain.PackagesQuery{Resource: domain.ResourceActivity, Limit: 5000, Page: -3})
	require.NoError(t, err)
	require.Equal(t, 200, repo.lastList.Limit)
	require.Equal(t, 1, repo.lastList.Page)
	require.Equal(t, "en", repo.lastList.Lang)

	_, err = q.ListPackages(context.Background(), domain.PackagesQuery{Resource: domain.ResourceActivity, Lang: "es"})
	require.NoError(t, err)
	require.Equal(t, 20, repo.lastList.Limit)
	require.Equal(t, "es", repo.lastList.Lang)
}
