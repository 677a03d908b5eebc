package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"tourbook/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
func valJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) UpsertPackage(ctx context.Context, p domain.Package) error {
	_, err := r.db.ExecContext(ctx, upsertPackageSQL,
		p.ID,
		string(p.Resource),
		p.OwnerID,
		valStr(p.SupplierRef),
		p.ConstantPrice,
		p.Discount,
		p.TaxPercent,
		valInt(p.FreeAgeLimit),
		valJSON(p.RawJSON),
	)
	return err
}

func (r *Repo) UpsertI18n(ctx context.Context, i domain.PackageI18n) error {
	_, err := r.db.ExecContext(ctx, upsertI18nSQL,
		string(i.Resource),
		i.PackageID,
		i.Lang,
		valStr(i.Name),
		valStr(i.Description),
		valJSON(i.ExtrasJSON),
	)
	return err
}

// ReplacePeriods swaps the whole period set of a package in one transaction.
func (r *Repo) ReplacePeriods(ctx context.Context, res domain.Resource, packageID int64, ps []domain.PricePeriod) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, deletePeriodsSQL, string(res), packageID); err != nil {
		return fmt.Errorf("delete periods of %s/%d: %w", res, packageID, err)
	}
	if len(ps) > 0 {
		values := make([]string, 0, len(ps))
		args := make([]any, 0, len(ps)*7)
		for _, p := range ps {
			values = append(values, "(?,?,?,?,?,?,?)")
			var start, end any
			if p.StartDate != nil {
				start = p.StartDate.Format("2006-01-02")
			}
			if p.EndDate != nil {
				end = p.EndDate.Format("2006-01-02")
			}
			args = append(args, string(res), packageID, p.MainPrice, p.ChildPrice, start, end, p.CurrencyID)
		}
		if _, err = tx.ExecContext(ctx, insertPeriodsPrefix+strings.Join(values, ","), args...); err != nil {
			return fmt.Errorf("insert periods of %s/%d: %w", res, packageID, err)
		}
	}
	return tx.Commit()
}

func (r *Repo) SetStatus(ctx context.Context, res domain.Resource, id int64, st domain.Status) error {
	out, err := r.db.ExecContext(ctx, setStatusSQL, string(st), id, string(res))
	if err != nil {
		return err
	}
	if n, err := out.RowsAffected(); err == nil && n == 0 {
		// MySQL reports 0 for unchanged rows too; confirm the package exists.
		var one int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM packages WHERE id = ? AND resource = ?`, id, string(res)).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrNotFound
			}
			return err
		}
	}
	return nil
}

func (r *Repo) LogMiss(ctx context.Context, res domain.Resource, id int64, status int, reason string) error {
	_, err := r.db.ExecContext(ctx, insertMissSQL, string(res), id, status, reason)
	return err
}

func (r *Repo) GetPackage(ctx context.Context, res domain.Resource, id int64) (domain.Package, []domain.PricePeriod, error) {
	var (
		p        domain.Package
		resource string
		status   string
		ref      sql.NullString
		freeAge  sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, getPackageSQL, id, string(res)).Scan(
		&p.ID, &resource, &p.OwnerID, &ref, &p.ConstantPrice, &p.Discount, &p.TaxPercent, &freeAge, &status,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Package{}, nil, domain.ErrNotFound
		}
		return domain.Package{}, nil, err
	}
	p.Resource, p.Status = domain.Resource(resource), domain.Status(status)
	if ref.Valid {
		s := ref.String
		p.SupplierRef = &s
	}
	if freeAge.Valid {
		n := int(freeAge.Int64)
		p.FreeAgeLimit = &n
	}

	periods, err := r.listPeriods(ctx, res, id)
	if err != nil {
		return domain.Package{}, nil, err
	}
	return p, periods, nil
}

func (r *Repo) listPeriods(ctx context.Context, res domain.Resource, packageID int64) ([]domain.PricePeriod, error) {
	rows, err := r.db.QueryContext(ctx, listPeriodsSQL, string(res), packageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PricePeriod
	for rows.Next() {
		var (
			pp         domain.PricePeriod
			child      decimal.NullDecimal
			start, end sql.NullTime
		)
		if err := rows.Scan(&pp.ID, &pp.PackageID, &pp.MainPrice, &child, &start, &end, &pp.CurrencyID); err != nil {
			return nil, err
		}
		pp.ChildPrice = child
		if start.Valid {
			t := start.Time
			pp.StartDate = &t
		}
		if end.Valid {
			t := end.Time
			pp.EndDate = &t
		}
		out = append(out, pp)
	}
	return out, rows.Err()
}

func (r *Repo) GetPackageView(ctx context.Context, res domain.Resource, id int64, lang string) (domain.PackageView, error) {
	var (
		pv         domain.PackageView
		resource   string
		status     string
		freeAge    sql.NullInt64
		name, desc sql.NullString
	)
	err := r.db.QueryRowContext(ctx, getPackageViewSQL, lang, id, string(res)).Scan(
		&pv.ID, &resource, &pv.OwnerID, &pv.ConstantPrice, &pv.Discount, &pv.TaxPercent, &freeAge, &status,
		&name, &desc,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.PackageView{}, domain.ErrNotFound
		}
		return domain.PackageView{}, err
	}
	pv.Resource, pv.Status = domain.Resource(resource), domain.Status(status)
	if freeAge.Valid {
		n := int(freeAge.Int64)
		pv.FreeAgeLimit = &n
	}
	if name.Valid {
		s := name.String
		pv.Name = &s
	}
	if desc.Valid {
		s := desc.String
		pv.Description = &s
	}
	pv.Language = lang

	if pv.Periods, err = r.listPeriods(ctx, res, id); err != nil {
		return domain.PackageView{}, err
	}
	if len(pv.Periods) > 0 {
		cur, err := r.GetCurrency(ctx, pv.Periods[0].CurrencyID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return domain.PackageView{}, err
		}
		if err == nil {
			pv.Currency = &cur
		}
	}
	return pv, nil
}

func (r *Repo) ListPackages(ctx context.Context, q domain.PackagesQuery) (domain.PackagesPage, error) {
	where := []string{"p.resource = ?"}
	args := []any{q.Lang, string(q.Resource)}
	if q.Status != nil {
		where = append(where, "p.status = ?")
		args = append(args, string(*q.Status))
	}
	if q.OwnerID != nil {
		where = append(where, "p.owner_id = ?")
		args = append(args, *q.OwnerID)
	}
	if q.Q != nil && strings.TrimSpace(*q.Q) != "" {
		where = append(where, "COALESCE(i.name, e.name) LIKE ?")
		args = append(args, "%"+escapeLike(strings.TrimSpace(*q.Q))+"%")
	}
	cond := " WHERE " + strings.Join(where, " AND ")

	var total int64
	if err := r.db.QueryRowContext(ctx, countPackagesSelect+cond, args...).Scan(&total); err != nil {
		return domain.PackagesPage{}, err
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * q.Limit
	rows, err := r.db.QueryContext(ctx, listPackagesSelect+cond+" ORDER BY p.id LIMIT ? OFFSET ?",
		append(args, q.Limit, offset)...)
	if err != nil {
		return domain.PackagesPage{}, err
	}
	defer rows.Close()

	out := make([]domain.PackageView, 0, q.Limit)
	for rows.Next() {
		var (
			pv       domain.PackageView
			resource string
			status   string
			freeAge  sql.NullInt64
			name     sql.NullString
		)
		if err := rows.Scan(&pv.ID, &resource, &pv.OwnerID, &pv.ConstantPrice, &pv.Discount, &pv.TaxPercent,
			&freeAge, &status, &name); err != nil {
			return domain.PackagesPage{}, err
		}
		pv.Resource, pv.Status = domain.Resource(resource), domain.Status(status)
		if freeAge.Valid {
			n := int(freeAge.Int64)
			pv.FreeAgeLimit = &n
		}
		if name.Valid {
			s := name.String
			pv.Name = &s
		}
		pv.Language = q.Lang
		out = append(out, pv)
	}
	if err := rows.Err(); err != nil {
		return domain.PackagesPage{}, err
	}
	return domain.PackagesPage{Items: out, Total: total, Page: page, Limit: q.Limit}, nil
}

func (r *Repo) GetCurrency(ctx context.Context, id int64) (domain.Currency, error) {
	var c domain.Currency
	if err := r.db.QueryRowContext(ctx, getCurrencySQL, id).Scan(&c.ID, &c.Code, &c.Symbol); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Currency{}, domain.ErrNotFound
		}
		return domain.Currency{}, err
	}
	return c, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
