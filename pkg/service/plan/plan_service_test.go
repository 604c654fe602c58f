//nolint:funlen //ok for this test code
package plan

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/pitstrategy/pkg/metrics"
	"github.com/mpapenbr/pitstrategy/pkg/model"
	"github.com/mpapenbr/pitstrategy/pkg/repository/api"
	"github.com/mpapenbr/pitstrategy/pkg/strategy"
	"github.com/mpapenbr/pitstrategy/testsupport/basedata"
)

// memRepo is a minimal in-memory api.PlanRepository
type memRepo struct {
	mu        sync.Mutex
	plans     map[uuid.UUID]*model.Plan
	loadCalls int
	createErr error
}

func newMemRepo() *memRepo {
	return &memRepo{plans: map[uuid.UUID]*model.Plan{}}
}

func (r *memRepo) Create(ctx context.Context, p *model.Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.plans[p.ID] = p
	return nil
}

func (r *memRepo) LoadByID(ctx context.Context, id uuid.UUID) (*model.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loadCalls++
	if p, ok := r.plans[id]; ok {
		return p, nil
	}
	return nil, api.ErrNotFound
}

func (r *memRepo) LoadLatest(ctx context.Context, f api.Filter) ([]*model.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ret := []*model.Plan{}
	for _, p := range r.plans {
		if f.Source == "" || f.Source == p.Source {
			ret = append(ret, p)
		}
	}
	return ret, nil
}

func (r *memRepo) DeleteByID(ctx context.Context, id uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.plans[id]; ok {
		delete(r.plans, id)
		return 1, nil
	}
	return 0, nil
}

func (r *memRepo) DeleteOlderThan(ctx context.Context, t time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, p := range r.plans {
		if p.Created.Before(t) {
			delete(r.plans, id)
			n++
		}
	}
	return n, nil
}

func (r *memRepo) Close() error { return nil }

type recordingListener struct {
	plans []*model.Plan
	err   error
}

func (l *recordingListener) PlanCreated(ctx context.Context, p *model.Plan) error {
	l.plans = append(l.plans, p)
	return l.err
}

func TestCalculate(t *testing.T) {
	repo := newMemRepo()
	l1 := &recordingListener{err: errors.New("broker down")}
	l2 := &recordingListener{}
	m := metrics.New()
	s := NewPlanService(WithRepository(repo), WithListener(l1, l2), WithMetrics(m))

	p, err := s.Calculate(context.Background(), "bot", "chat-1", basedata.SampleInput())
	require.NoError(t, err)
	assert.Equal(t, "bot", p.Source)
	assert.Equal(t, "chat-1", p.Requester)
	assert.Len(t, p.Strategies, 2)
	assert.Contains(t, repo.plans, p.ID)
	assert.Len(t, l1.plans, 1, "failing listener must not stop the others")
	assert.Len(t, l2.plans, 1)

	reg := m.Registry()
	count, err := testutil.GatherAndCount(reg, "pitstrategy_strategies_calculated_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestCalculateInvalidInput(t *testing.T) {
	l := &recordingListener{}
	s := NewPlanService(WithListener(l))
	in := basedata.SampleInput()
	in.AvgLaptime = 0
	_, err := s.Calculate(context.Background(), "bot", "chat-1", in)
	assert.ErrorIs(t, err, strategy.ErrInvalidInput)
	assert.Empty(t, l.plans)
}

func TestCalculateStoreError(t *testing.T) {
	repo := newMemRepo()
	repo.createErr = errors.New("disk full")
	l := &recordingListener{}
	s := NewPlanService(WithRepository(repo), WithListener(l))
	_, err := s.Calculate(context.Background(), "bot", "chat-1", basedata.SampleInput())
	assert.ErrorIs(t, err, repo.createErr)
	assert.Empty(t, l.plans)
}

func TestWithoutHistory(t *testing.T) {
	s := NewPlanService()
	ctx := context.Background()
	assert.False(t, s.HasHistory())

	_, err := s.Calculate(ctx, "server", "", basedata.SampleInput())
	assert.NoError(t, err)
	_, err = s.Get(ctx, uuid.Must(uuid.NewV4()))
	assert.ErrorIs(t, err, ErrNoHistory)
	_, err = s.List(ctx, api.Filter{})
	assert.ErrorIs(t, err, ErrNoHistory)
	_, err = s.Delete(ctx, uuid.Must(uuid.NewV4()))
	assert.ErrorIs(t, err, ErrNoHistory)
	_, err = s.Purge(ctx, time.Now())
	assert.ErrorIs(t, err, ErrNoHistory)
}

func TestGetIsCached(t *testing.T) {
	repo := newMemRepo()
	s := NewPlanService(WithRepository(repo))
	ctx := context.Background()
	p, err := s.Calculate(ctx, "server", "", basedata.SampleInput())
	require.NoError(t, err)

	for range 3 {
		got, err := s.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, p.ID, got.ID)
	}
	assert.Equal(t, 1, repo.loadCalls)

	n, err := s.Delete(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = s.Get(ctx, p.ID)
	assert.ErrorIs(t, err, api.ErrNotFound)
}

func TestPurge(t *testing.T) {
	repo := newMemRepo()
	s := NewPlanService(WithRepository(repo))
	ctx := context.Background()
	old := basedata.SamplePlan("0f1e2d3c-4b5a-4978-8695-a4b3c2d1e0aa", "bot", "chat-1", 0)
	require.NoError(t, repo.Create(ctx, old))
	_, err := s.Get(ctx, old.ID)
	require.NoError(t, err)

	n, err := s.Purge(ctx, basedata.TestTime().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = s.Get(ctx, old.ID)
	assert.ErrorIs(t, err, api.ErrNotFound, "purged plans must not be served from cache")
}
