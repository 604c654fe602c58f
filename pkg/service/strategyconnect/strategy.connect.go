package strategyconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mpapenbr/pitstrategy/pkg/model"
)

const (
	StrategyServiceName = "pitstrategy.v1.StrategyService"
)

const (
	StrategyServiceCalculateProcedure  = "/pitstrategy.v1.StrategyService/Calculate"
	StrategyServiceGetPlanProcedure    = "/pitstrategy.v1.StrategyService/GetPlan"
	StrategyServiceListPlansProcedure  = "/pitstrategy.v1.StrategyService/ListPlans"
	StrategyServiceDeletePlanProcedure = "/pitstrategy.v1.StrategyService/DeletePlan"
	StrategyServicePurgePlansProcedure = "/pitstrategy.v1.StrategyService/PurgePlans"
)

//nolint:lll // readability
type StrategyServiceHandler interface {
	Calculate(context.Context, *connect.Request[model.CalculateRequest]) (*connect.Response[model.CalculateResponse], error)
	GetPlan(context.Context, *connect.Request[model.GetPlanRequest]) (*connect.Response[model.GetPlanResponse], error)
	ListPlans(context.Context, *connect.Request[model.ListPlansRequest]) (*connect.Response[model.ListPlansResponse], error)
	DeletePlan(context.Context, *connect.Request[model.DeletePlanRequest]) (*connect.Response[model.DeletePlanResponse], error)
	PurgePlans(context.Context, *connect.Request[model.PurgePlansRequest]) (*connect.Response[model.PurgePlansResponse], error)
}

// NewStrategyServiceHandler returns the path on which to mount the handler
// and the handler itself.
//
//nolint:whitespace // can't make both editor and linter happy
func NewStrategyServiceHandler(
	svc StrategyServiceHandler,
	opts ...connect.HandlerOption,
) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(JSONCodec{})}, opts...)
	calculate := connect.NewUnaryHandler(
		StrategyServiceCalculateProcedure, svc.Calculate, opts...)
	getPlan := connect.NewUnaryHandler(
		StrategyServiceGetPlanProcedure, svc.GetPlan, opts...)
	listPlans := connect.NewUnaryHandler(
		StrategyServiceListPlansProcedure, svc.ListPlans, opts...)
	deletePlan := connect.NewUnaryHandler(
		StrategyServiceDeletePlanProcedure, svc.DeletePlan, opts...)
	purgePlans := connect.NewUnaryHandler(
		StrategyServicePurgePlansProcedure, svc.PurgePlans, opts...)
	return "/" + StrategyServiceName + "/",
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case StrategyServiceCalculateProcedure:
				calculate.ServeHTTP(w, r)
			case StrategyServiceGetPlanProcedure:
				getPlan.ServeHTTP(w, r)
			case StrategyServiceListPlansProcedure:
				listPlans.ServeHTTP(w, r)
			case StrategyServiceDeletePlanProcedure:
				deletePlan.ServeHTTP(w, r)
			case StrategyServicePurgePlansProcedure:
				purgePlans.ServeHTTP(w, r)
			default:
				http.NotFound(w, r)
			}
		})
}

//nolint:lll // readability
type StrategyServiceClient interface {
	Calculate(context.Context, *connect.Request[model.CalculateRequest]) (*connect.Response[model.CalculateResponse], error)
	GetPlan(context.Context, *connect.Request[model.GetPlanRequest]) (*connect.Response[model.GetPlanResponse], error)
	ListPlans(context.Context, *connect.Request[model.ListPlansRequest]) (*connect.Response[model.ListPlansResponse], error)
	DeletePlan(context.Context, *connect.Request[model.DeletePlanRequest]) (*connect.Response[model.DeletePlanResponse], error)
	PurgePlans(context.Context, *connect.Request[model.PurgePlansRequest]) (*connect.Response[model.PurgePlansResponse], error)
}

type strategyServiceClient struct {
	calculate  *connect.Client[model.CalculateRequest, model.CalculateResponse]
	getPlan    *connect.Client[model.GetPlanRequest, model.GetPlanResponse]
	listPlans  *connect.Client[model.ListPlansRequest, model.ListPlansResponse]
	deletePlan *connect.Client[model.DeletePlanRequest, model.DeletePlanResponse]
	purgePlans *connect.Client[model.PurgePlansRequest, model.PurgePlansResponse]
}

//nolint:whitespace,lll // can't make both editor and linter happy
func NewStrategyServiceClient(
	httpClient connect.HTTPClient,
	baseURL string,
	opts ...connect.ClientOption,
) StrategyServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(JSONCodec{})}, opts...)
	return &strategyServiceClient{
		calculate: connect.NewClient[model.CalculateRequest, model.CalculateResponse](
			httpClient, baseURL+StrategyServiceCalculateProcedure, opts...),
		getPlan: connect.NewClient[model.GetPlanRequest, model.GetPlanResponse](
			httpClient, baseURL+StrategyServiceGetPlanProcedure, opts...),
		listPlans: connect.NewClient[model.ListPlansRequest, model.ListPlansResponse](
			httpClient, baseURL+StrategyServiceListPlansProcedure, opts...),
		deletePlan: connect.NewClient[model.DeletePlanRequest, model.DeletePlanResponse](
			httpClient, baseURL+StrategyServiceDeletePlanProcedure, opts...),
		purgePlans: connect.NewClient[model.PurgePlansRequest, model.PurgePlansResponse](
			httpClient, baseURL+StrategyServicePurgePlansProcedure, opts...),
	}
}

//nolint:whitespace,lll // can't make both editor and linter happy
func (c *strategyServiceClient) Calculate(
	ctx context.Context, req *connect.Request[model.CalculateRequest],
) (*connect.Response[model.CalculateResponse], error) {
	return c.calculate.CallUnary(ctx, req)
}

//nolint:whitespace // can't make both editor and linter happy
func (c *strategyServiceClient) GetPlan(
	ctx context.Context, req *connect.Request[model.GetPlanRequest],
) (*connect.Response[model.GetPlanResponse], error) {
	return c.getPlan.CallUnary(ctx, req)
}

//nolint:whitespace // can't make both editor and linter happy
func (c *strategyServiceClient) ListPlans(
	ctx context.Context, req *connect.Request[model.ListPlansRequest],
) (*connect.Response[model.ListPlansResponse], error) {
	return c.listPlans.CallUnary(ctx, req)
}

//nolint:whitespace // can't make both editor and linter happy
func (c *strategyServiceClient) DeletePlan(
	ctx context.Context, req *connect.Request[model.DeletePlanRequest],
) (*connect.Response[model.DeletePlanResponse], error) {
	return c.deletePlan.CallUnary(ctx, req)
}

//nolint:whitespace // can't make both editor and linter happy
func (c *strategyServiceClient) PurgePlans(
	ctx context.Context, req *connect.Request[model.PurgePlansRequest],
) (*connect.Response[model.PurgePlansResponse], error) {
	return c.purgePlans.CallUnary(ctx, req)
}
