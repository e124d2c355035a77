package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/medisys/hms/internal/platform/listquery"
)

// ListObserver receives the outcome of every list query.
type ListObserver interface {
	ObserveList(entity string, rows int, elapsed time.Duration, err error)
}

// Lister runs list queries against PostgreSQL. The querier must allow
// concurrent use (a pool, not a single connection or transaction) because
// the count and page queries run at the same time.
type Lister struct {
	db       Querier
	policy   listquery.FieldPolicy
	observer ListObserver
	logger   zerolog.Logger
}

// NewLister creates a Lister applying policy to every schema it runs.
// observer may be nil.
func NewLister(db Querier, policy listquery.FieldPolicy, observer ListObserver, logger zerolog.Logger) *Lister {
	return &Lister{db: db, policy: policy, observer: observer, logger: logger}
}

// ListPage compiles q against schema, conjoins scope and returns one page
// of rows decoded by scan.
func ListPage[T any](ctx context.Context, l *Lister, schema *listquery.Schema, q listquery.Query, scope listquery.Predicate, scan func(pgx.Row) (T, error)) (*listquery.Page[T], error) {
	start := time.Now()
	page, err := listPage(ctx, l, schema.WithPolicy(l.policy), q, scope, scan)
	rows, total := 0, 0
	if page != nil {
		rows, total = len(page.Items), page.Total
	}
	l.done(schema.Entity(), q, rows, total, time.Since(start), err)
	return page, err
}

func listPage[T any](ctx context.Context, l *Lister, s *listquery.Schema, q listquery.Query, scope listquery.Predicate, scan func(pgx.Row) (T, error)) (*listquery.Page[T], error) {
	pred, err := s.Where(q.Filters, q.Search)
	if err != nil {
		return nil, err
	}
	order, err := s.ResolveSort(q.Sort)
	if err != nil {
		return nil, err
	}

	sb := listquery.NewSelect(listquery.Postgres, s)
	pred.And(scope).Apply(sb)
	sb.OrderBy(order)

	countSQL, countArgs := sb.CountSQL(), sb.CountArgs()
	dataSQL := sb.DataSQL()

	count := func(ctx context.Context) (int, error) {
		var n int
		if err := l.db.QueryRow(ctx, countSQL, countArgs...).Scan(&n); err != nil {
			return 0, fmt.Errorf("count %s: %w", s.Entity(), err)
		}
		return n, nil
	}
	fetch := func(ctx context.Context, limit, offset int) ([]T, error) {
		rows, err := l.db.Query(ctx, dataSQL, sb.DataArgs(limit, offset)...)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", s.Entity(), err)
		}
		defer rows.Close()

		var items []T
		for rows.Next() {
			item, err := scan(rows)
			if err != nil {
				return nil, fmt.Errorf("scan %s: %w", s.Entity(), err)
			}
			items = append(items, item)
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("list %s: %w", s.Entity(), err)
		}
		return items, nil
	}

	return listquery.Paginate(ctx, q, count, fetch)
}

func (l *Lister) done(entity string, q listquery.Query, rows, total int, elapsed time.Duration, err error) {
	if l.observer != nil {
		l.observer.ObserveList(entity, rows, elapsed, err)
	}
	evt := l.logger.Debug()
	if err != nil {
		evt = l.logger.Warn().Err(err)
	}
	evt.
		Str("entity", entity).
		Int("page", q.Page).
		Int("per_page", q.PerPage).
		Int("rows", rows).
		Int("total", total).
		Dur("duration", elapsed).
		Msg("list query")
}
