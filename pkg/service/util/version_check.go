package util

import (
	"context"
	"fmt"
	"strings"

	"connectrpc.com/connect"
	"golang.org/x/mod/semver"
)

const (
	ClientVersionHeader = "X-Client-Version"
	// RequiredClientVersion is the minimum version of the pitstrategy client
	RequiredClientVersion string = "v0.1.0"
)

// CheckClientVersion reports whether toCheck is at least the required version.
// The leading "v" is optional.
func CheckClientVersion(toCheck string) bool {
	if !strings.HasPrefix(toCheck, "v") {
		toCheck = "v" + toCheck
	}
	return semver.Compare(toCheck, RequiredClientVersion) >= 0
}

type versionInterceptor struct {
	clientVersion string
}

// NewVersionCheckInterceptor rejects requests of outdated clients.
// Requests without version header are accepted.
// On the client side the interceptor adds the given version to the request
// header. Development builds without a semantic version send no header.
func NewVersionCheckInterceptor(clientVersion string) connect.Interceptor {
	if !semver.IsValid("v" + strings.TrimPrefix(clientVersion, "v")) {
		clientVersion = ""
	}
	return &versionInterceptor{clientVersion: clientVersion}
}

//nolint:whitespace // better readability
func (i *versionInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return connect.UnaryFunc(func(
		ctx context.Context,
		req connect.AnyRequest,
	) (connect.AnyResponse, error) {
		if req.Spec().IsClient {
			if i.clientVersion != "" {
				req.Header().Set(ClientVersionHeader, i.clientVersion)
			}
			return next(ctx, req)
		}
		if err := checkHeader(req.Header().Get(ClientVersionHeader)); err != nil {
			return nil, err
		}
		return next(ctx, req)
	})
}

//nolint:whitespace // readablity, editor/linter
func (i *versionInterceptor) WrapStreamingClient(
	next connect.StreamingClientFunc,
) connect.StreamingClientFunc {
	return next
}

//nolint:whitespace // readablity, editor/linter
func (i *versionInterceptor) WrapStreamingHandler(
	next connect.StreamingHandlerFunc,
) connect.StreamingHandlerFunc {
	return connect.StreamingHandlerFunc(func(
		ctx context.Context,
		conn connect.StreamingHandlerConn,
	) error {
		if err := checkHeader(conn.RequestHeader().Get(ClientVersionHeader)); err != nil {
			return err
		}
		return next(ctx, conn)
	})
}

func checkHeader(v string) error {
	if v == "" || CheckClientVersion(v) {
		return nil
	}
	return connect.NewError(connect.CodeFailedPrecondition,
		fmt.Errorf("client version %s not supported, required: %s",
			v, RequiredClientVersion))
}
