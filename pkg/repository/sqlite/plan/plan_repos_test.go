//nolint:funlen,errcheck //ok for this test code
package plan

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"gotest.tools/v3/assert"

	"github.com/mpapenbr/pitstrategy/pkg/model"
	"github.com/mpapenbr/pitstrategy/pkg/repository/api"
	"github.com/mpapenbr/pitstrategy/testsupport/basedata"
)

const (
	id1 = "0f1e2d3c-4b5a-4978-8695-a4b3c2d1e001"
	id2 = "0f1e2d3c-4b5a-4978-8695-a4b3c2d1e002"
	id3 = "0f1e2d3c-4b5a-4978-8695-a4b3c2d1e003"
)

func setupRepo(t *testing.T) (api.PlanRepository, []*model.Plan) {
	t.Helper()
	ctx := context.Background()
	r, err := NewPlanRepository(ctx, filepath.Join(t.TempDir(), "plans.db"))
	assert.NilError(t, err)
	t.Cleanup(func() { r.Close() })

	plans := []*model.Plan{
		basedata.SamplePlan(id1, "bot", "chat-1", 0),
		basedata.SamplePlan(id2, "bot", "chat-2", time.Minute),
		basedata.SamplePlan(id3, "server", "", 2*time.Minute),
	}
	for _, p := range plans {
		assert.NilError(t, r.Create(ctx, p))
	}
	return r, plans
}

func TestCreateDuplicate(t *testing.T) {
	r, plans := setupRepo(t)
	err := r.Create(context.Background(), plans[0])
	assert.Assert(t, err != nil, "duplicate id should fail")
}

func TestLoadByID(t *testing.T) {
	r, plans := setupRepo(t)

	got, err := r.LoadByID(context.Background(), plans[1].ID)
	assert.NilError(t, err)
	assert.DeepEqual(t, plans[1], got)

	_, err = r.LoadByID(context.Background(), uuid.Must(uuid.NewV4()))
	assert.ErrorIs(t, err, api.ErrNotFound)
}

func TestLoadLatest(t *testing.T) {
	r, _ := setupRepo(t)

	tests := []struct {
		name   string
		filter api.Filter
		want   []string
	}{
		{"all", api.Filter{}, []string{id3, id2, id1}},
		{"bot", api.Filter{Source: "bot"}, []string{id2, id1}},
		{"chat-1", api.Filter{Source: "bot", Requester: "chat-1"}, []string{id1}},
		{"limit", api.Filter{Limit: 2}, []string{id3, id2}},
		{"unknown source", api.Filter{Source: "other"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.LoadLatest(context.Background(), tt.filter)
			assert.NilError(t, err)
			ids := make([]string, 0, len(got))
			for _, p := range got {
				ids = append(ids, p.ID.String())
			}
			assert.DeepEqual(t, tt.want, ids)
		})
	}
}

func TestDelete(t *testing.T) {
	r, plans := setupRepo(t)
	ctx := context.Background()

	n, err := r.DeleteByID(ctx, plans[0].ID)
	assert.NilError(t, err)
	assert.Equal(t, 1, n)

	n, err = r.DeleteByID(ctx, plans[0].ID)
	assert.NilError(t, err)
	assert.Equal(t, 0, n)

	// removes id2 (created at +1m), keeps id3 (+2m)
	n, err = r.DeleteOlderThan(ctx, basedata.TestTime().Add(90*time.Second))
	assert.NilError(t, err)
	assert.Equal(t, 1, n)

	got, err := r.LoadLatest(ctx, api.Filter{})
	assert.NilError(t, err)
	assert.Equal(t, 1, len(got))
	assert.Equal(t, plans[2].ID, got[0].ID)
}
