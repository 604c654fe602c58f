//nolint:whitespace // can't make both editor and linter happy
package plan

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mpapenbr/pitstrategy/pkg/model"
	"github.com/mpapenbr/pitstrategy/pkg/repository/api"
)

type repo struct {
	pool *pgxpool.Pool
}

var _ api.PlanRepository = (*repo)(nil)

func NewPlanRepository(pool *pgxpool.Pool) api.PlanRepository {
	return &repo{pool: pool}
}

func (r *repo) Create(ctx context.Context, p *model.Plan) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return Create(ctx, tx, p)
	})
}

func (r *repo) LoadByID(ctx context.Context, id uuid.UUID) (*model.Plan, error) {
	return LoadByID(ctx, r.pool, id)
}

func (r *repo) LoadLatest(ctx context.Context, filter api.Filter) (
	[]*model.Plan, error,
) {
	return LoadLatest(ctx, r.pool, filter)
}

func (r *repo) DeleteByID(ctx context.Context, id uuid.UUID) (ret int, err error) {
	err = pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		ret, err = DeleteByID(ctx, tx, id)
		return err
	})
	return ret, err
}

func (r *repo) DeleteOlderThan(ctx context.Context, t time.Time) (ret int, err error) {
	err = pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		ret, err = DeleteOlderThan(ctx, tx, t)
		return err
	})
	return ret, err
}

func (r *repo) Close() error {
	r.pool.Close()
	return nil
}
