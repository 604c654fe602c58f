package strategy

import (
	"context"
	"errors"

	"connectrpc.com/connect"
	"github.com/gofrs/uuid/v5"

	"github.com/mpapenbr/pitstrategy/log"
	"github.com/mpapenbr/pitstrategy/pkg/auth"
	"github.com/mpapenbr/pitstrategy/pkg/model"
	"github.com/mpapenbr/pitstrategy/pkg/permission"
	"github.com/mpapenbr/pitstrategy/pkg/repository/api"
	planservice "github.com/mpapenbr/pitstrategy/pkg/service/plan"
	"github.com/mpapenbr/pitstrategy/pkg/service/strategyconnect"
	calculator "github.com/mpapenbr/pitstrategy/pkg/strategy"
)

// Source is used for plans created via this server
const Source = "server"

func NewServer(opts ...Option) *strategyServer {
	ret := &strategyServer{
		l: log.Default().Named("server.strategy"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.service == nil {
		ret.service = planservice.NewPlanService()
	}
	return ret
}

type Option func(*strategyServer)

func WithPlanService(s *planservice.PlanService) Option {
	return func(srv *strategyServer) {
		srv.service = s
	}
}

func WithPermissionEvaluator(pe permission.PermissionEvaluator) Option {
	return func(srv *strategyServer) {
		srv.pe = pe
	}
}

type strategyServer struct {
	service *planservice.PlanService
	pe      permission.PermissionEvaluator
	l       *log.Logger
}

var _ strategyconnect.StrategyServiceHandler = (*strategyServer)(nil)

//nolint:whitespace // can't make both editor and linter happy
func (s *strategyServer) Calculate(
	ctx context.Context,
	req *connect.Request[model.CalculateRequest],
) (*connect.Response[model.CalculateResponse], error) {
	a := auth.FromContext(ctx)
	if err := s.validatePermission(a, permission.PermissionCalculate); err != nil {
		return nil, err
	}
	requester := req.Msg.Requester
	if requester == "" {
		requester = a.Principal().Name()
	}
	p, err := s.service.Calculate(ctx, Source, requester, req.Msg.Input.ToStrategyInput())
	if err != nil {
		return nil, s.toConnectError(err)
	}
	return connect.NewResponse(&model.CalculateResponse{Plan: p}), nil
}

//nolint:whitespace // can't make both editor and linter happy
func (s *strategyServer) GetPlan(
	ctx context.Context,
	req *connect.Request[model.GetPlanRequest],
) (*connect.Response[model.GetPlanResponse], error) {
	if err := s.validatePermission(
		auth.FromContext(ctx), permission.PermissionReadPlan); err != nil {
		return nil, err
	}
	id, err := parseID(req.Msg.ID)
	if err != nil {
		return nil, err
	}
	p, err := s.service.Get(ctx, id)
	if err != nil {
		return nil, s.toConnectError(err)
	}
	return connect.NewResponse(&model.GetPlanResponse{Plan: p}), nil
}

//nolint:whitespace // can't make both editor and linter happy
func (s *strategyServer) ListPlans(
	ctx context.Context,
	req *connect.Request[model.ListPlansRequest],
) (*connect.Response[model.ListPlansResponse], error) {
	if err := s.validatePermission(
		auth.FromContext(ctx), permission.PermissionReadPlan); err != nil {
		return nil, err
	}
	plans, err := s.service.List(ctx, api.Filter{
		Source:    req.Msg.Source,
		Requester: req.Msg.Requester,
		Limit:     req.Msg.Limit,
	})
	if err != nil {
		return nil, s.toConnectError(err)
	}
	return connect.NewResponse(&model.ListPlansResponse{Plans: plans}), nil
}

//nolint:whitespace // can't make both editor and linter happy
func (s *strategyServer) DeletePlan(
	ctx context.Context,
	req *connect.Request[model.DeletePlanRequest],
) (*connect.Response[model.DeletePlanResponse], error) {
	if err := s.validatePermission(
		auth.FromContext(ctx), permission.PermissionDeletePlan); err != nil {
		return nil, err
	}
	id, err := parseID(req.Msg.ID)
	if err != nil {
		return nil, err
	}
	n, err := s.service.Delete(ctx, id)
	if err != nil {
		return nil, s.toConnectError(err)
	}
	return connect.NewResponse(&model.DeletePlanResponse{Deleted: n}), nil
}

//nolint:whitespace // can't make both editor and linter happy
func (s *strategyServer) PurgePlans(
	ctx context.Context,
	req *connect.Request[model.PurgePlansRequest],
) (*connect.Response[model.PurgePlansResponse], error) {
	if err := s.validatePermission(
		auth.FromContext(ctx), permission.PermissionPurgePlans); err != nil {
		return nil, err
	}
	if req.Msg.OlderThan.IsZero() {
		return nil, connect.NewError(connect.CodeInvalidArgument,
			errors.New("olderThan is required"))
	}
	n, err := s.service.Purge(ctx, req.Msg.OlderThan)
	if err != nil {
		return nil, s.toConnectError(err)
	}
	return connect.NewResponse(&model.PurgePlansResponse{Deleted: n}), nil
}

func (s *strategyServer) validatePermission(a auth.Authentication, p permission.Permission) error {
	if s.pe == nil {
		if p.IsPublic() {
			return nil
		}
	} else if s.pe.HasPermission(a, p) {
		return nil
	}
	s.l.Debug("permission denied",
		log.String("principal", a.Principal().Name()),
		log.String("perm", string(p)))
	return connect.NewError(connect.CodePermissionDenied, auth.ErrPermissionDenied)
}

func (s *strategyServer) toConnectError(err error) error {
	switch {
	case errors.Is(err, calculator.ErrInvalidInput):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, api.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, planservice.ErrNoHistory):
		return connect.NewError(connect.CodeUnimplemented, err)
	default:
		s.l.Error("request failed", log.ErrorField(err))
		return connect.NewError(connect.CodeInternal, err)
	}
}

func parseID(id string) (uuid.UUID, error) {
	ret, err := uuid.FromString(id)
	if err != nil {
		return uuid.Nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	return ret, nil
}
