package api

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/mpapenbr/pitstrategy/pkg/model"
)

var ErrNotFound = errors.New("plan not found")

// DefaultLimit is used by LoadLatest if no positive limit is given
const DefaultLimit = 10

type PlanRepository interface {
	Create(ctx context.Context, plan *model.Plan) error
	// LoadByID returns ErrNotFound if there is no plan with this id
	LoadByID(ctx context.Context, id uuid.UUID) (*model.Plan, error)
	// LoadLatest returns the latest plans, newest first.
	// An empty requester matches all plans of the source,
	// an empty source matches all plans.
	LoadLatest(ctx context.Context, filter Filter) ([]*model.Plan, error)
	// DeleteByID returns the number of deleted plans
	DeleteByID(ctx context.Context, id uuid.UUID) (int, error)
	DeleteOlderThan(ctx context.Context, t time.Time) (int, error)
	Close() error
}

type Filter struct {
	Source    string
	Requester string
	Limit     int
}

func (f Filter) EffectiveLimit() int {
	if f.Limit <= 0 {
		return DefaultLimit
	}
	return f.Limit
}
