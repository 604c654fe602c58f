//nolint:whitespace // can't make both editor and linter happy
package plan

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/mpapenbr/pitstrategy/pkg/model"
	"github.com/mpapenbr/pitstrategy/pkg/repository"
	"github.com/mpapenbr/pitstrategy/pkg/repository/api"
)

const selectPlan = `
	select id, created, source, requester, input, strategies
	from plan
	`

func Create(ctx context.Context, conn repository.Querier, p *model.Plan) error {
	_, err := conn.Exec(ctx, `
	insert into plan (
		id, created, source, requester, input, strategies
	) values ($1,$2,$3,$4,$5,$6)
		`,
		p.ID, p.Created, p.Source, p.Requester, p.Input, p.Strategies,
	)
	return err
}

func LoadByID(ctx context.Context, conn repository.Querier, id uuid.UUID) (
	*model.Plan, error,
) {
	row := conn.QueryRow(ctx, selectPlan+" where id=$1", id)
	p, err := scanPlan(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, api.ErrNotFound
	}
	return p, err
}

func LoadLatest(ctx context.Context, conn repository.Querier, filter api.Filter) (
	[]*model.Plan, error,
) {
	rows, err := conn.Query(ctx, selectPlan+`
	where ($1 = '' or source = $1) and ($2 = '' or requester = $2)
	order by created desc
	limit $3
	`, filter.Source, filter.Requester, filter.EffectiveLimit())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ret := make([]*model.Plan, 0)
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		ret = append(ret, p)
	}
	return ret, rows.Err()
}

// deletes an entry from the database, returns number of rows deleted.
func DeleteByID(ctx context.Context, conn repository.Querier, id uuid.UUID) (int, error) {
	cmdTag, err := conn.Exec(ctx, "delete from plan where id=$1", id)
	if err != nil {
		return 0, err
	}
	return int(cmdTag.RowsAffected()), nil
}

// deletes all plans created before t, returns number of rows deleted.
func DeleteOlderThan(ctx context.Context, conn repository.Querier, t time.Time) (int, error) {
	cmdTag, err := conn.Exec(ctx, "delete from plan where created < $1", t)
	if err != nil {
		return 0, err
	}
	return int(cmdTag.RowsAffected()), nil
}

func scanPlan(row pgx.Row) (*model.Plan, error) {
	var p model.Plan
	if err := row.Scan(
		&p.ID, &p.Created, &p.Source, &p.Requester, &p.Input, &p.Strategies,
	); err != nil {
		return nil, err
	}
	p.Created = p.Created.UTC()
	return &p, nil
}
