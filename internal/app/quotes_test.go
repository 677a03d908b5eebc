package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"tourbook/internal/app"
	"tourbook/internal/domain"
	"tourbook/internal/pricing"
)

func day(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seed(repo *fakeRepo, id int64, res domain.Resource, st domain.Status, ps ...domain.PricePeriod) {
	repo.pkgs[id] = domain.Package{
		ID: id, Resource: res, Status: st,
		Discount: decimal.Zero, TaxPercent: dec("10"),
	}
	repo.periods[id] = ps
}

func june(id int64) domain.PricePeriod {
	return domain.PricePeriod{
		ID: id, MainPrice: dec("100"), ChildPrice: decimal.NewNullDecimal(dec("50")),
		StartDate: day("2025-06-01"), EndDate: day("2025-06-30"), CurrencyID: 1,
	}
}

func fixedNow(s string) func() time.Time { return func() time.Time { return *day(s) } }

func TestQuote_HotelStay(t *testing.T) {
	repo := newFakeRepo()
	seed(repo, 10, domain.ResourceHotel, domain.StatusApproved, june(1))
	svc := app.NewQuoteService(repo, 6, fixedNow("2025-01-01"))

	res, err := svc.Quote(context.Background(), app.QuoteRequest{
		Resource: domain.ResourceHotel, PackageID: 10,
		Start: day("2025-06-10"), End: day("2025-06-12"),
		Guests: domain.GuestComposition{AdultCount: 2, ChildCount: 1, ChildAges: []int{8}},
	})
	require.NoError(t, err)
	require.True(t, res.Available)
	require.EqualValues(t, 1, res.Period.ID)
	q := res.Quote
	require.Equal(t, 2, q.Quantity)
	require.Equal(t, "EUR", q.CurrencyCode)
	require.True(t, q.Subtotal.Equal(dec("500")), q.Subtotal.String())
	require.True(t, q.TaxAmount.Equal(dec("50")))
	require.True(t, q.FinalPrice.Equal(dec("550")))
}

func TestQuote_HotelFreeAgeFromPackage(t *testing.T) {
	repo := newFakeRepo()
	seed(repo, 10, domain.ResourceHotel, domain.StatusApproved, june(1))
	p := repo.pkgs[10]
	p.FreeAgeLimit = ptr(10)
	repo.pkgs[10] = p
	svc := app.NewQuoteService(repo, 6, nil)

	res, err := svc.Quote(context.Background(), app.QuoteRequest{
		Resource: domain.ResourceHotel, PackageID: 10,
		Start: day("2025-06-10"), End: day("2025-06-11"),
		Guests: domain.GuestComposition{AdultCount: 1, ChildCount: 1, ChildAges: []int{8}},
	})
	require.NoError(t, err)
	require.Equal(t, 10, res.Quote.FreeAgeLimit)
	require.Equal(t, 1, res.Quote.FreeChildren)
	require.True(t, res.Quote.Subtotal.Equal(dec("100")))
}

func TestQuote_FallbackPerResource(t *testing.T) {
	repo := newFakeRepo()
	seed(repo, 10, domain.ResourceHotel, domain.StatusApproved, june(1))
	seed(repo, 20, domain.ResourceActivity, domain.StatusApproved, june(2))
	svc := app.NewQuoteService(repo, 6, nil)
	guests := domain.GuestComposition{AdultCount: 1}

	// hotels fall back to the nearest period
	res, err := svc.Quote(context.Background(), app.QuoteRequest{
		Resource: domain.ResourceHotel, PackageID: 10, Start: day("2025-09-01"), End: day("2025-09-02"), Guests: guests,
	})
	require.NoError(t, err)
	require.True(t, res.Available)

	// activities report no price
	res, err = svc.Quote(context.Background(), app.QuoteRequest{
		Resource: domain.ResourceActivity, PackageID: 20, Start: day("2025-09-01"), Guests: guests,
	})
	require.NoError(t, err)
	require.False(t, res.Available)
	require.Nil(t, res.Quote)
}

func TestQuote_MissingDatesUseToday(t *testing.T) {
	repo := newFakeRepo()
	seed(repo, 20, domain.ResourceActivity, domain.StatusApproved, june(2))
	req := app.QuoteRequest{Resource: domain.ResourceActivity, PackageID: 20, Guests: domain.GuestComposition{AdultCount: 1}}

	res, err := app.NewQuoteService(repo, 6, fixedNow("2025-06-15")).Quote(context.Background(), req)
	require.NoError(t, err)
	require.True(t, res.Available)
	require.Equal(t, 1, res.Quote.Quantity)

	res, err = app.NewQuoteService(repo, 6, fixedNow("2025-12-01")).Quote(context.Background(), req)
	require.NoError(t, err)
	require.False(t, res.Available)
}

func TestQuote_Errors(t *testing.T) {
	repo := newFakeRepo()
	seed(repo, 10, domain.ResourceHotel, domain.StatusPending, june(1))
	seed(repo, 30, domain.ResourceVisa, domain.StatusApproved, june(3), june(4))
	p := repo.pkgs[30]
	p.ConstantPrice = true
	repo.pkgs[30] = p
	svc := app.NewQuoteService(repo, 6, nil)
	ctx := context.Background()

	_, err := svc.Quote(ctx, app.QuoteRequest{Resource: domain.ResourceHotel, PackageID: 10})
	require.ErrorIs(t, err, domain.ErrNotApproved)

	_, err = svc.Quote(ctx, app.QuoteRequest{Resource: domain.ResourceHotel, PackageID: 99})
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Quote(ctx, app.QuoteRequest{Resource: domain.ResourceVisa, PackageID: 30})
	require.ErrorIs(t, err, pricing.ErrAmbiguousConstantPrice)

	_, err = svc.Quote(ctx, app.QuoteRequest{
		Resource: domain.ResourceHotel, PackageID: 10, Start: day("2025-06-10"), End: day("2025-06-01"),
	})
	ve := pricing.IsValidationError(err)
	require.NotNil(t, ve)
	require.Contains(t, ve.Fields(), "end_date")
}

func TestQuoteBatch_KeepsOrder(t *testing.T) {
	repo := newFakeRepo()
	seed(repo, 10, domain.ResourceHotel, domain.StatusApproved, june(1))
	seed(repo, 20, domain.ResourceActivity, domain.StatusApproved, june(2))
	svc := app.NewQuoteService(repo, 6, nil)
	guests := domain.GuestComposition{AdultCount: 1}

	reqs := []app.QuoteRequest{
		{Resource: domain.ResourceHotel, PackageID: 10, Start: day("2025-06-10"), End: day("2025-06-13"), Guests: guests},
		{Resource: domain.ResourceActivity, PackageID: 404, Guests: guests},
		{Resource: domain.ResourceActivity, PackageID: 20, Start: day("2025-06-02"), Guests: guests},
	}
	results, errs := svc.QuoteBatch(context.Background(), reqs)
	require.Len(t, results, 3)
	require.NoError(t, errs[0])
	require.Equal(t, 3, results[0].Quote.Quantity)
	require.ErrorIs(t, errs[1], domain.ErrNotFound)
	require.NoError(t, errs[2])
	require.EqualValues(t, 2, results[2].Period.ID)
}
