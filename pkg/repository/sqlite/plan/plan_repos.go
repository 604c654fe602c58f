//nolint:whitespace // can't make both editor and linter happy
package plan

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	_ "github.com/mattn/go-sqlite3"
	"github.com/samber/lo"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/sqlite"
	"github.com/stephenafamo/bob/dialect/sqlite/dm"
	"github.com/stephenafamo/bob/dialect/sqlite/im"
	"github.com/stephenafamo/bob/dialect/sqlite/sm"
	"github.com/stephenafamo/scan"

	"github.com/mpapenbr/pitstrategy/pkg/model"
	"github.com/mpapenbr/pitstrategy/pkg/repository/api"
)

const schema = `
create table if not exists plan (
	id         text primary key,
	created    timestamp not null,
	source     text not null,
	requester  text not null default '',
	input      text not null,
	strategies text not null
);
create index if not exists plan_source_created_idx on plan (source, created desc);
`

var columns = []string{"id", "created", "source", "requester", "input", "strategies"}

type (
	repo struct {
		sqlDB *sql.DB
		db    bob.DB
	}
	// plan as stored in the table, input and strategies are json encoded
	planRow struct {
		ID         string    `db:"id"`
		Created    time.Time `db:"created"`
		Source     string    `db:"source"`
		Requester  string    `db:"requester"`
		Input      string    `db:"input"`
		Strategies string    `db:"strategies"`
	}
)

var _ api.PlanRepository = (*repo)(nil)

// NewPlanRepository opens (and creates if needed) the sqlite database
// at the given file.
func NewPlanRepository(ctx context.Context, file string) (api.PlanRepository, error) {
	sqlDB, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000", file))
	if err != nil {
		return nil, err
	}
	// sqlite allows only one writer
	sqlDB.SetMaxOpenConns(1)
	if _, err := sqlDB.ExecContext(ctx, schema); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("could not create schema: %w", err)
	}
	return &repo{sqlDB: sqlDB, db: bob.NewDB(sqlDB)}, nil
}

func (r *repo) Create(ctx context.Context, p *model.Plan) error {
	row, err := toRow(p)
	if err != nil {
		return err
	}
	q := sqlite.Insert(
		im.Into("plan", columns...),
		im.Values(sqlite.Arg(
			row.ID, row.Created, row.Source, row.Requester, row.Input, row.Strategies)),
	)
	_, err = bob.Exec(ctx, r.db, q)
	return err
}

func (r *repo) LoadByID(ctx context.Context, id uuid.UUID) (*model.Plan, error) {
	q := sqlite.Select(
		sm.Columns(lo.ToAnySlice(columns)...),
		sm.From("plan"),
		sm.Where(sqlite.Quote("id").EQ(sqlite.Arg(id.String()))),
	)
	row, err := bob.One(ctx, r.db, q, scan.StructMapper[planRow]())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, api.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return fromRow(row)
}

func (r *repo) LoadLatest(ctx context.Context, filter api.Filter) (
	[]*model.Plan, error,
) {
	q := sqlite.Select(
		sm.Columns(lo.ToAnySlice(columns)...),
		sm.From("plan"),
		sm.OrderBy("created").Desc(),
		sm.Limit(filter.EffectiveLimit()),
	)
	if filter.Source != "" {
		q.Apply(sm.Where(sqlite.Quote("source").EQ(sqlite.Arg(filter.Source))))
	}
	if filter.Requester != "" {
		q.Apply(sm.Where(sqlite.Quote("requester").EQ(sqlite.Arg(filter.Requester))))
	}
	rows, err := bob.All(ctx, r.db, q, scan.StructMapper[planRow]())
	if err != nil {
		return nil, err
	}
	ret := make([]*model.Plan, 0, len(rows))
	for _, row := range rows {
		p, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		ret = append(ret, p)
	}
	return ret, nil
}

func (r *repo) DeleteByID(ctx context.Context, id uuid.UUID) (int, error) {
	return r.delete(ctx, sqlite.Delete(
		dm.From("plan"),
		dm.Where(sqlite.Quote("id").EQ(sqlite.Arg(id.String()))),
	))
}

func (r *repo) DeleteOlderThan(ctx context.Context, t time.Time) (int, error) {
	return r.delete(ctx, sqlite.Delete(
		dm.From("plan"),
		dm.Where(sqlite.Quote("created").LT(sqlite.Arg(t.UTC()))),
	))
}

func (r *repo) delete(ctx context.Context, q bob.Query) (int, error) {
	res, err := bob.Exec(ctx, r.db, q)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (r *repo) Close() error {
	return r.sqlDB.Close()
}

func toRow(p *model.Plan) (*planRow, error) {
	input, err := json.Marshal(p.Input)
	if err != nil {
		return nil, err
	}
	strategies, err := json.Marshal(p.Strategies)
	if err != nil {
		return nil, err
	}
	return &planRow{
		ID:         p.ID.String(),
		Created:    p.Created.UTC(),
		Source:     p.Source,
		Requester:  p.Requester,
		Input:      string(input),
		Strategies: string(strategies),
	}, nil
}

func fromRow(row planRow) (*model.Plan, error) {
	id, err := uuid.FromString(row.ID)
	if err != nil {
		return nil, err
	}
	p := &model.Plan{
		ID:        id,
		Created:   row.Created.UTC(),
		Source:    row.Source,
		Requester: row.Requester,
	}
	if err := json.Unmarshal([]byte(row.Input), &p.Input); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(row.Strategies), &p.Strategies); err != nil {
		return nil, err
	}
	return p, nil
}
