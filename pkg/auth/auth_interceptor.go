package auth

import (
	"context"
	"crypto/subtle"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mpapenbr/pitstrategy/log"
)

const (
	TokenHeader = "api-token"
)

type (
	authInterceptor struct {
		adminToken   string
		authProvider []AuthenticationProvider
		l            *log.Logger
	}
	Option func(*authInterceptor)
)

func NewAuthInterceptor(opts ...Option) connect.Interceptor {
	ret := &authInterceptor{
		l: log.Default().Named("auth"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	ret.authProvider = []AuthenticationProvider{
		&apiKeyAuthenticator{adminToken: ret.adminToken},
		&anonymousAuthenticator{},
	}
	return ret
}

func WithAdminToken(token string) Option {
	return func(i *authInterceptor) {
		i.adminToken = token
	}
}

//nolint:whitespace // can't make both editor and linter happy
func (i *authInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return connect.UnaryFunc(func(
		ctx context.Context,
		req connect.AnyRequest,
	) (connect.AnyResponse, error) {
		if req.Spec().IsClient {
			return next(ctx, req)
		}
		return next(i.handleAuth(ctx, req.Header()), req)
	})
}

//nolint:whitespace // editor/linter issue
func (i *authInterceptor) WrapStreamingClient(
	next connect.StreamingClientFunc,
) connect.StreamingClientFunc {
	return next
}

//nolint:whitespace // editor/linter issue
func (i *authInterceptor) WrapStreamingHandler(
	next connect.StreamingHandlerFunc,
) connect.StreamingHandlerFunc {
	return connect.StreamingHandlerFunc(func(
		ctx context.Context,
		conn connect.StreamingHandlerConn,
	) error {
		return next(i.handleAuth(ctx, conn.RequestHeader()), conn)
	})
}

//nolint:lll // better readability
func (i *authInterceptor) handleAuth(ctx context.Context, h http.Header) context.Context {
	for _, p := range i.authProvider {
		a, err := p.Authenticate(ctx, h)
		if a != nil {
			return AddAuthToContext(ctx, a)
		}
		if err != nil {
			i.l.Error("error authenticating", log.ErrorField(err))
		}
	}
	return ctx
}

type (
	anonymousAuthenticator struct{}
	apiKeyAuthenticator    struct {
		adminToken string
	}
)

//nolint:whitespace // editor/linter issue
func (a *anonymousAuthenticator) Authenticate(
	ctx context.Context,
	h http.Header,
) (Authentication, error) {
	return Anonymous, nil
}

//nolint:whitespace // editor/linter issue
func (a *apiKeyAuthenticator) Authenticate(
	ctx context.Context,
	h http.Header,
) (Authentication, error) {
	token := h.Get(TokenHeader)
	if token == "" || a.adminToken == "" {
		return nil, nil
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(a.adminToken)) == 1 {
		return NewSimpleAuth("admin", RoleAdmin), nil
	}
	// unknown tokens are treated as anonymous
	return nil, nil
}
