//nolint:dupl,funlen,errcheck //ok for this test code
package plan

import (
	"context"
	"log"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"gotest.tools/v3/assert"

	"github.com/mpapenbr/pitstrategy/pkg/model"
	"github.com/mpapenbr/pitstrategy/pkg/repository/api"
	"github.com/mpapenbr/pitstrategy/testsupport/basedata"
	"github.com/mpapenbr/pitstrategy/testsupport/testdb"
)

const (
	id1 = "6b7a3a0e-0d39-4c5e-9d6e-0b5b8d8b4a01"
	id2 = "6b7a3a0e-0d39-4c5e-9d6e-0b5b8d8b4a02"
	id3 = "6b7a3a0e-0d39-4c5e-9d6e-0b5b8d8b4a03"
)

func createSampleEntries(db *pgxpool.Pool) []*model.Plan {
	ctx := context.Background()
	plans := []*model.Plan{
		basedata.SamplePlan(id1, "bot", "chat-1", 0),
		basedata.SamplePlan(id2, "bot", "chat-2", time.Minute),
		basedata.SamplePlan(id3, "server", "", 2*time.Minute),
	}
	err := pgx.BeginFunc(ctx, db, func(tx pgx.Tx) error {
		for _, p := range plans {
			if err := Create(ctx, tx, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("createSampleEntries: %v\n", err)
	}
	return plans
}

func TestCreate(t *testing.T) {
	pool := testdb.InitTestDb()
	plans := createSampleEntries(pool)

	err := Create(context.Background(), pool, plans[0])
	assert.Assert(t, err != nil, "duplicate id should fail")
}

func TestLoadByID(t *testing.T) {
	pool := testdb.InitTestDb()
	plans := createSampleEntries(pool)

	got, err := LoadByID(context.Background(), pool, plans[0].ID)
	assert.NilError(t, err)
	assert.DeepEqual(t, plans[0], got)

	_, err = LoadByID(context.Background(), pool, uuid.Must(uuid.NewV4()))
	assert.ErrorIs(t, err, api.ErrNotFound)
}

func TestLoadLatest(t *testing.T) {
	pool := testdb.InitTestDb()
	createSampleEntries(pool)
	tests := []struct {
		name   string
		filter api.Filter
		want   []string
	}{
		{name: "all", filter: api.Filter{}, want: []string{id3, id2, id1}},
		{name: "limit", filter: api.Filter{Limit: 2}, want: []string{id3, id2}},
		{name: "source", filter: api.Filter{Source: "bot"}, want: []string{id2, id1}},
		{
			name:   "requester",
			filter: api.Filter{Source: "bot", Requester: "chat-1"},
			want:   []string{id1},
		},
		{name: "unknown", filter: api.Filter{Source: "other"}, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadLatest(context.Background(), pool, tt.filter)
			assert.NilError(t, err)
			ids := make([]string, len(got))
			for i := range got {
				ids[i] = got[i].ID.String()
			}
			assert.DeepEqual(t, tt.want, ids)
		})
	}
}

func TestDelete(t *testing.T) {
	pool := testdb.InitTestDb()
	plans := createSampleEntries(pool)
	r := NewPlanRepository(pool)
	ctx := context.Background()

	n, err := r.DeleteByID(ctx, plans[0].ID)
	assert.NilError(t, err)
	assert.Equal(t, 1, n)

	n, err = r.DeleteByID(ctx, plans[0].ID)
	assert.NilError(t, err)
	assert.Equal(t, 0, n)

	n, err = r.DeleteOlderThan(ctx, basedata.TestTime().Add(90*time.Second))
	assert.NilError(t, err)
	assert.Equal(t, 1, n)

	remaining, err := r.LoadLatest(ctx, api.Filter{})
	assert.NilError(t, err)
	assert.Equal(t, 1, len(remaining))
	assert.Equal(t, plans[2].ID, remaining[0].ID)
}
