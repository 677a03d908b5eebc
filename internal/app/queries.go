package app

import (
	"context"
	"strings"
	"time"

	"tourbook/internal/domain"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 200
)

type QueryService struct {
	repo        domain.PackageRepository
	cache       domain.Cache
	cacheTTL    time.Duration
	defaultLang string
}

func NewQueryService(r domain.PackageRepository, c domain.Cache, ttl time.Duration, defaultLang string) *QueryService {
	return &QueryService{repo: r, cache: c, cacheTTL: ttl, defaultLang: defaultLang}
}

// NormalizeLang maps any requested language onto a supported one.
func (s *QueryService) NormalizeLang(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	for _, l := range domain.Langs {
		if l == lang {
			return l
		}
	}
	if s.defaultLang != "" {
		return s.defaultLang
	}
	return domain.Langs[0]
}

func (s *QueryService) GetPackage(ctx context.Context, res domain.Resource, id int64, lang string) (domain.PackageView, error) {
	lang = s.NormalizeLang(lang)
	key := domain.PackageCacheKey(res, id, lang)
	var pv domain.PackageView
	if ok, _ := s.cache.Get(ctx, key, &pv); ok {
		return pv, nil
	}
	pv, err := s.repo.GetPackageView(ctx, res, id, lang)
	if err != nil {
		return domain.PackageView{}, err
	}
	_ = s.cache.Set(ctx, key, pv, int(s.cacheTTL.Seconds()))
	return pv, nil
}

// ListPackages is uncached; admin filters change too often to key on.
func (s *QueryService) ListPackages(ctx context.Context, q domain.PackagesQuery) (domain.PackagesPage, error) {
	q.Lang = s.NormalizeLang(q.Lang)
	switch {
	case q.Limit <= 0:
		q.Limit = defaultPageLimit
	case q.Limit > maxPageLimit:
		q.Limit = maxPageLimit
	}
	if q.Page < 1 {
		q.Page = 1
	}
	return s.repo.ListPackages(ctx, q)
}
