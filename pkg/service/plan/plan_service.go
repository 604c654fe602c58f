package plan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/mpapenbr/pitstrategy/log"
	"github.com/mpapenbr/pitstrategy/pkg/metrics"
	"github.com/mpapenbr/pitstrategy/pkg/model"
	"github.com/mpapenbr/pitstrategy/pkg/repository/api"
	"github.com/mpapenbr/pitstrategy/pkg/strategy"
	"github.com/mpapenbr/pitstrategy/pkg/utils/cache"
	"github.com/mpapenbr/pitstrategy/pkg/utils/cache/loadercache"
)

var ErrNoHistory = errors.New("plan history not configured")

// PlanListener gets notified about newly created plans
type PlanListener interface {
	PlanCreated(ctx context.Context, p *model.Plan) error
}

type (
	Option      func(*PlanService)
	PlanService struct {
		repo            api.PlanRepository
		listeners       []PlanListener
		metrics         *metrics.Metrics
		cacheExpiration time.Duration
		cache           cache.Cache[uuid.UUID, model.Plan]
		l               *log.Logger
	}
)

func NewPlanService(opts ...Option) *PlanService {
	ret := &PlanService{
		cacheExpiration: 5 * time.Minute,
		l:               log.Default().Named("service.plan"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	ret.cache = loadercache.New(
		loadercache.WithLoader[uuid.UUID, model.Plan](ret.load),
		loadercache.WithExpiration[uuid.UUID, model.Plan](ret.cacheExpiration),
		loadercache.WithLogger[uuid.UUID, model.Plan](ret.l.Named("cache")),
	)
	return ret
}

// WithRepository enables the plan history. A nil repository is ignored.
func WithRepository(repo api.PlanRepository) Option {
	return func(s *PlanService) {
		s.repo = repo
	}
}

func WithListener(l ...PlanListener) Option {
	return func(s *PlanService) {
		s.listeners = append(s.listeners, l...)
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *PlanService) {
		s.metrics = m
	}
}

func WithCacheExpiration(d time.Duration) Option {
	return func(s *PlanService) {
		s.cacheExpiration = d
	}
}

func (s *PlanService) HasHistory() bool {
	return s.repo != nil
}

// Calculate computes the strategies for the input and stores the result as plan.
// Listeners are notified after the plan is stored, their errors are only logged.
//
//nolint:whitespace // can't make both editor and linter happy
func (s *PlanService) Calculate(
	ctx context.Context,
	source, requester string,
	in strategy.Input,
) (*model.Plan, error) {
	res, err := strategy.Calculate(in)
	if err != nil {
		return nil, err
	}
	p, err := model.NewPlan(source, requester, in, res)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		for i := range res {
			s.metrics.StrategyCalculated(res[i].Kind.String())
		}
	}
	if s.repo != nil {
		if err := s.repo.Create(ctx, p); err != nil {
			s.l.Error("could not store plan",
				log.String("id", p.ID.String()),
				log.ErrorField(err))
			return nil, fmt.Errorf("store plan: %w", err)
		}
	}
	for _, l := range s.listeners {
		if err := l.PlanCreated(ctx, p); err != nil {
			s.l.Warn("listener failed",
				log.String("id", p.ID.String()),
				log.ErrorField(err))
		}
	}
	s.l.Debug("plan created",
		log.String("id", p.ID.String()),
		log.String("source", source),
		log.String("requester", requester))
	return p, nil
}

func (s *PlanService) Get(ctx context.Context, id uuid.UUID) (*model.Plan, error) {
	if s.repo == nil {
		return nil, ErrNoHistory
	}
	return s.cache.Get(ctx, id)
}

func (s *PlanService) List(ctx context.Context, filter api.Filter) ([]*model.Plan, error) {
	if s.repo == nil {
		return nil, ErrNoHistory
	}
	return s.repo.LoadLatest(ctx, filter)
}

func (s *PlanService) Delete(ctx context.Context, id uuid.UUID) (int, error) {
	if s.repo == nil {
		return 0, ErrNoHistory
	}
	n, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		return 0, err
	}
	s.cache.Invalidate(ctx, id)
	return n, nil
}

func (s *PlanService) Purge(ctx context.Context, olderThan time.Time) (int, error) {
	if s.repo == nil {
		return 0, ErrNoHistory
	}
	n, err := s.repo.DeleteOlderThan(ctx, olderThan)
	if err != nil {
		return 0, err
	}
	s.cache.InvalidateAll(ctx)
	s.l.Info("plans purged", log.Time("olderThan", olderThan), log.Int("deleted", n))
	return n, nil
}

func (s *PlanService) load(ctx context.Context, id uuid.UUID) (*model.Plan, error) {
	return s.repo.LoadByID(ctx, id)
}
