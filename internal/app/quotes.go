package app

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"tourbook/internal/adapters/observability"
	"tourbook/internal/domain"
	"tourbook/internal/pricing"
)

const batchConcurrency = 8

type QuoteRequest struct {
	Resource  domain.Resource
	PackageID int64
	Start     *time.Time
	End       *time.Time
	Guests    domain.GuestComposition
}

// QuoteResult is Available=false with no Quote when no period prices the dates.
type QuoteResult struct {
	Available bool
	Period    *domain.PricePeriod
	Quote     *domain.PriceQuote
}

type QuoteService struct {
	repo           domain.PackageRepository
	defaultFreeAge int
	now            func() time.Time
}

func NewQuoteService(r domain.PackageRepository, defaultFreeAge int, now func() time.Time) *QuoteService {
	if now == nil {
		now = time.Now
	}
	return &QuoteService{repo: r, defaultFreeAge: defaultFreeAge, now: now}
}

// Quote always reads the package and its periods from storage, never from cache.
func (s *QuoteService) Quote(ctx context.Context, req QuoteRequest) (QuoteResult, error) {
	res, err := s.quote(ctx, req)
	observability.ObserveQuote(string(req.Resource), quoteOutcome(res, err))
	if err == nil && res.Quote != nil {
		f, _ := res.Quote.FinalPrice.Float64()
		observability.ObserveQuotePrice(string(req.Resource), res.Quote.CurrencyCode, f)
	}
	return res, err
}

func (s *QuoteService) quote(ctx context.Context, req QuoteRequest) (QuoteResult, error) {
	if req.Start != nil && req.End != nil && req.End.Before(*req.Start) {
		return QuoteResult{}, pricing.FieldError("end_date", "must not be before start_date")
	}
	pkg, periods, err := s.repo.GetPackage(ctx, req.Resource, req.PackageID)
	if err != nil {
		return QuoteResult{}, err
	}
	if pkg.Status != domain.StatusApproved {
		return QuoteResult{}, domain.ErrNotApproved
	}

	freeAge := pkg.FreeAgeLimit
	if freeAge == nil {
		freeAge = &s.defaultFreeAge
	}
	policy, err := pricing.PolicyFor(req.Resource, freeAge)
	if err != nil {
		return QuoteResult{}, err
	}

	period, found, err := pricing.SelectApplicablePeriod(periods, pkg.ConstantPrice, s.wantRange(req), policy.Fallback)
	if err != nil {
		return QuoteResult{}, err
	}
	if !found {
		return QuoteResult{Available: false}, nil
	}

	cur, err := s.repo.GetCurrency(ctx, period.CurrencyID)
	if err != nil {
		return QuoteResult{}, err
	}
	q, err := pricing.Calculate(policy, pricing.QuoteInput{
		Period:   period,
		Package:  pkg,
		Guests:   req.Guests,
		Currency: cur,
		Start:    req.Start,
		End:      req.End,
	})
	if err != nil {
		return QuoteResult{}, err
	}
	return QuoteResult{Available: true, Period: &period, Quote: &q}, nil
}

// wantRange fills missing dates with today; only period selection sees the defaults.
func (s *QuoteService) wantRange(req QuoteRequest) domain.DateRange {
	today := s.now().UTC()
	var r domain.DateRange
	switch {
	case req.Start != nil:
		r.Start = *req.Start
	case req.End != nil:
		r.Start = *req.End
	default:
		r.Start = today
	}
	if req.End != nil {
		r.End = *req.End
	}
	return r
}

// QuoteBatch prices every request concurrently. Results keep request order; a failing item
// carries its error instead of failing the batch.
func (s *QuoteService) QuoteBatch(ctx context.Context, reqs []QuoteRequest) ([]QuoteResult, []error) {
	results := make([]QuoteResult, len(reqs))
	errs := make([]error, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)
	for i, req := range reqs {
		g.Go(func() error {
			results[i], errs[i] = s.Quote(gctx, req)
			return nil
		})
	}
	_ = g.Wait()
	return results, errs
}

func quoteOutcome(res QuoteResult, err error) string {
	switch {
	case err == nil && res.Available:
		return "priced"
	case err == nil:
		return "unavailable"
	case pricing.IsValidationError(err) != nil:
		return "invalid"
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrNotApproved):
		return "unavailable"
	default:
		log.Error().Err(err).Msg("quote failed")
		return "error"
	}
}
