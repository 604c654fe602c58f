package auth

import (
	"context"
	"errors"
	"net/http"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleAnon  Role = "anon"
)

var ErrPermissionDenied = errors.New("permission denied")

type (
	Principal interface {
		Name() string
	}

	Authentication interface {
		Principal() Principal
		Roles() []Role
	}

	AuthenticationProvider interface {
		// Authenticate returns nil (and no error) if the provider is not
		// responsible for the request
		Authenticate(ctx context.Context, h http.Header) (Authentication, error)
	}
)

type (
	SimpleAuth struct {
		principal Principal
		roles     []Role
	}
	SimplePrincipal struct {
		name string
	}
)

var _ Authentication = (*SimpleAuth)(nil)

func NewSimpleAuth(name string, roles ...Role) *SimpleAuth {
	return &SimpleAuth{principal: &SimplePrincipal{name: name}, roles: roles}
}

func (s *SimplePrincipal) Name() string {
	return s.name
}

func (s *SimpleAuth) Principal() Principal {
	return s.principal
}

func (s *SimpleAuth) Roles() []Role {
	return s.roles
}

// Anonymous is used when no other authentication applies
var Anonymous = NewSimpleAuth("anon", RoleAnon)

type myCtxTypeKey int

func AddAuthToContext(ctx context.Context, a Authentication) context.Context {
	return context.WithValue(ctx, myCtxTypeKey(0), a)
}

// FromContext returns the authentication stored in the context.
// Anonymous is returned if there is none.
func FromContext(ctx context.Context) Authentication {
	if a, ok := ctx.Value(myCtxTypeKey(0)).(Authentication); ok {
		return a
	}
	return Anonymous
}
