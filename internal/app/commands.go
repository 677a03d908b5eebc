package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"tourbook/internal/domain"
)

type IngestionService struct {
	supplier domain.SupplierClient
	repo     domain.PackageRepository
	cache    domain.Cache
}

func NewIngestionService(c domain.SupplierClient, r domain.PackageRepository, cache domain.Cache) *IngestionService {
	return &IngestionService{supplier: c, repo: r, cache: cache}
}

// missStatus classifies supplier errors that end ingestion of one part gracefully.
func missStatus(err error) (int, bool) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return 404, true
	case errors.Is(err, domain.ErrAccessDenied):
		return 403, true
	}
	return 0, false
}

// IngestPackage pulls one package with its prices and translations. New packages land as
// pending; an existing package keeps its approval status.
func (s *IngestionService) IngestPackage(ctx context.Context, res domain.Resource, id int64) error {
	// 1) Parent first so i18n and periods satisfy their foreign keys.
	p, err := s.supplier.GetPackage(ctx, res, id)
	if err != nil {
		if code, ok := missStatus(err); ok {
			_ = s.repo.LogMiss(ctx, res, id, code, "package")
			s.invalidateAllLangs(ctx, res, id)
			return nil
		}
		return err
	}
	pkg := mapPackage(res, id, p)
	if err := s.repo.UpsertPackage(ctx, pkg); err != nil {
		return fmt.Errorf("upsert package %d: %w", id, err)
	}

	// 2) Prices replace the whole period set. A miss keeps the stored periods.
	prices, perr := s.supplier.GetPrices(ctx, res, id)
	switch code, miss := missStatus(perr); {
	case perr == nil:
		periods := mapPeriods(id, prices)
		if pkg.ConstantPrice && len(periods) > 1 {
			log.Warn().Int64("package_id", id).Int("periods", len(periods)).
				Msg("constant price package has several periods; quotes will fail until fixed upstream")
		}
		if err := s.repo.ReplacePeriods(ctx, res, id, periods); err != nil {
			return fmt.Errorf("replace periods of %d: %w", id, err)
		}
	case miss:
		_ = s.repo.LogMiss(ctx, res, id, code, "prices")
	default:
		return perr
	}
	s.invalidateAllLangs(ctx, res, id)

	// 3) Translations: log misses per language and keep going.
	for _, lang := range domain.Langs {
		tr, terr := s.supplier.GetTranslation(ctx, res, id, lang)
		if terr != nil {
			if code, ok := missStatus(terr); ok {
				_ = s.repo.LogMiss(ctx, res, id, code, "i18n:"+lang)
				continue
			}
			return terr
		}
		if err := s.repo.UpsertI18n(ctx, mapI18n(res, id, lang, tr)); err != nil {
			return err
		}
		s.invalidate(ctx, res, id, lang)
	}
	return nil
}

func (s *IngestionService) invalidateAllLangs(ctx context.Context, res domain.Resource, id int64) {
	for _, l := range domain.Langs {
		s.invalidate(ctx, res, id, l)
	}
}

func (s *IngestionService) invalidate(ctx context.Context, res domain.Resource, id int64, lang string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx, domain.PackageCacheKey(res, id, lang))
}

// CommandService owns admin writes.
type CommandService struct {
	repo  domain.PackageRepository
	cache domain.Cache
}

func NewCommandService(r domain.PackageRepository, c domain.Cache) *CommandService {
	return &CommandService{repo: r, cache: c}
}

// SetPackageStatus applies an approval workflow transition and drops cached views.
func (s *CommandService) SetPackageStatus(ctx context.Context, res domain.Resource, id int64, to domain.Status) (domain.Status, error) {
	pkg, _, err := s.repo.GetPackage(ctx, res, id)
	if err != nil {
		return "", err
	}
	if pkg.Status == to {
		return to, nil
	}
	if !pkg.Status.CanTransition(to) {
		return pkg.Status, fmt.Errorf("%s -> %s: %w", pkg.Status, to, domain.ErrInvalidTransition)
	}
	if err := s.repo.SetStatus(ctx, res, id, to); err != nil {
		return pkg.Status, err
	}
	if s.cache != nil {
		for _, l := range domain.Langs {
			_ = s.cache.Del(ctx, domain.PackageCacheKey(res, id, l))
		}
	}
	log.Info().Str("resource", string(res)).Int64("package_id", id).
		Str("from", string(pkg.Status)).Str("to", string(to)).Msg("package status changed")
	return to, nil
}
