package app_test

import (
	"context"
	"encoding/json"
	"sync"

	"tourbook/internal/domain"
)

// ---- fakes ----

type fakeRepo struct {
	mu       sync.Mutex
	pkgs     map[int64]domain.Package
	periods  map[int64][]domain.PricePeriod
	i18n     map[int64]map[string]domain.PackageI18n
	view     domain.PackageView
	page     domain.PackagesPage
	lastList domain.PackagesQuery
	misses   []string
	viewHits int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		pkgs:    map[int64]domain.Package{},
		periods: map[int64][]domain.PricePeriod{},
		i18n:    map[int64]map[string]domain.PackageI18n{},
	}
}

func (f *fakeRepo) UpsertPackage(ctx context.Context, p domain.Package) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if old, ok := f.pkgs[p.ID]; ok {
		p.Status = old.Status
	} else {
		p.Status = domain.StatusPending
	}
	f.pkgs[p.ID] = p
	return nil
}
func (f *fakeRepo) UpsertI18n(ctx context.Context, i domain.PackageI18n) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.i18n[i.PackageID] == nil {
		f.i18n[i.PackageID] = map[string]domain.PackageI18n{}
	}
	f.i18n[i.PackageID][i.Lang] = i
	return nil
}
func (f *fakeRepo) ReplacePeriods(ctx context.Context, res domain.Resource, id int64, ps []domain.PricePeriod) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.periods[id] = ps
	return nil
}
func (f *fakeRepo) SetStatus(ctx context.Context, res domain.Resource, id int64, st domain.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pkgs[id]
	if !ok || p.Resource != res {
		return domain.ErrNotFound
	}
	p.Status = st
	f.pkgs[id] = p
	return nil
}
func (f *fakeRepo) LogMiss(ctx context.Context, res domain.Resource, id int64, status int, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.misses = append(f.misses, reason)
	return nil
}
func (f *fakeRepo) GetPackage(ctx context.Context, res domain.Resource, id int64) (domain.Package, []domain.PricePeriod, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pkgs[id]
	if !ok || p.Resource != res {
		return domain.Package{}, nil, domain.ErrNotFound
	}
	return p, f.periods[id], nil
}
func (f *fakeRepo) GetPackageView(ctx context.Context, res domain.Resource, id int64, lang string) (domain.PackageView, error) {
	f.viewHits++
	if f.view.ID != id {
		return domain.PackageView{}, domain.ErrNotFound
	}
	v := f.view
	v.Language = lang
	return v, nil
}
func (f *fakeRepo) ListPackages(ctx context.Context, q domain.PackagesQuery) (domain.PackagesPage, error) {
	f.lastList = q
	return f.page, nil
}
func (f *fakeRepo) GetCurrency(ctx context.Context, id int64) (domain.Currency, error) {
	if id != 1 {
		return domain.Currency{}, domain.ErrNotFound
	}
	return domain.Currency{ID: 1, Code: "EUR", Symbol: "€"}, nil
}

// fakeCache stores JSON like the redis adapter does.
type fakeCache struct {
	store map[string][]byte
	dels  []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}
func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}
func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.dels = append(c.dels, key)
	delete(c.store, key)
	return nil
}

func ptr[T any](v T) *T { return &v }
