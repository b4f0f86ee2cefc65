package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/okian/rivalry/internal/adapters/repository"
	"github.com/okian/rivalry/pkg/metrics"
)

// table implements repository.Repository for one bun row type R.
type table[T any, P any, R any] struct {
	db       *bun.DB
	entity   string
	toRow    func(T) *R
	fromRow  func(*R) T
	apply    func(*T, P)
	validate func(T) []repository.FieldError
}

func (t *table[T, P, R]) Get(ctx context.Context, id string) (repository.Outcome[T], error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency(t.entity, msSince(start)) }()

	row := new(R)
	if err := t.db.NewSelect().Model(row).Where("id = ?", id).Scan(ctx); err != nil {
		return repository.Outcome[T]{}, t.wrap("get", err)
	}
	return repository.Outcome[T]{Data: t.fromRow(row)}, nil
}

func (t *table[T, P, R]) List(ctx context.Context, f repository.Filter) (repository.Outcome[[]T], error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency(t.entity, msSince(start)) }()

	if errs := repository.CheckFilter(t.entity, f); len(errs) > 0 {
		return repository.Outcome[[]T]{Errors: errs}, nil
	}

	var rows []R
	q := t.db.NewSelect().Model(&rows)
	for k, v := range f {
		q = q.Where("? = ?", bun.Ident(k), v)
	}
	if err := q.Order("seq ASC").Scan(ctx); err != nil {
		return repository.Outcome[[]T]{}, t.wrap("list", err)
	}

	out := make([]T, len(rows))
	for i := range rows {
		out[i] = t.fromRow(&rows[i])
	}
	return repository.Outcome[[]T]{Data: out}, nil
}

func (t *table[T, P, R]) Create(ctx context.Context, item T) (repository.Outcome[T], error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryUpdateLatency(t.entity, msSince(start)) }()

	if errs := t.validate(item); len(errs) > 0 {
		return repository.Outcome[T]{Errors: errs}, nil
	}

	res, err := t.db.NewInsert().Model(t.toRow(item)).On("CONFLICT (id) DO NOTHING").Exec(ctx)
	if err != nil {
		return repository.Outcome[T]{}, t.wrap("create", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.Outcome[T]{Errors: []repository.FieldError{{Field: "id", Message: "already exists"}}}, nil
	}
	return repository.Outcome[T]{Data: item}, nil
}

func (t *table[T, P, R]) Update(ctx context.Context, id string, patch P) (repository.Outcome[T], error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryUpdateLatency(t.entity, msSince(start)) }()

	var out repository.Outcome[T]
	err := t.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row := new(R)
		if err := tx.NewSelect().Model(row).Where("id = ?", id).For("UPDATE").Scan(ctx); err != nil {
			return err
		}
		v := t.fromRow(row)
		t.apply(&v, patch)
		if errs := t.validate(v); len(errs) > 0 {
			out.Errors = errs
			return nil
		}
		if _, err := tx.NewUpdate().Model(t.toRow(v)).WherePK().Exec(ctx); err != nil {
			return err
		}
		out.Data = v
		return nil
	})
	if err != nil {
		return repository.Outcome[T]{}, t.wrap("update", err)
	}
	return out, nil
}

func (t *table[T, P, R]) Delete(ctx context.Context, id string) error {
	res, err := t.db.NewDelete().Model((*R)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return t.wrap("delete", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// wrap maps sql.ErrNoRows to repository.ErrNotFound and annotates everything else.
func (t *table[T, P, R]) wrap(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordErrorByComponent("repository", "not_found")
		return repository.ErrNotFound
	}
	metrics.RecordErrorByComponent("repository", op)
	return fmt.Errorf("%s %s: %w", t.entity, op, err)
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
