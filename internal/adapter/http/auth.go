package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/rentiq/internal/adapter/auth"
	"github.com/neomorfeo/rentiq/internal/domain"
)

type callerKey struct{}

// CallerFrom returns the authenticated caller stored on ctx. Requests
// without a bearer token yield the zero Caller.
func CallerFrom(ctx context.Context) domain.Caller {
	caller, _ := ctx.Value(callerKey{}).(domain.Caller)
	return caller
}

// Authenticate returns huma middleware that verifies bearer tokens. A
// request without an Authorization header passes through anonymously and
// is rejected by the operations that need a caller; a bad token is
// rejected here.
func Authenticate(api huma.API, verifier *auth.Verifier) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		header := ctx.Header("Authorization")
		if header == "" {
			next(ctx)
			return
		}

		token, ok := auth.BearerToken(header)
		if !ok {
			_ = huma.WriteErr(api, ctx, http.StatusUnauthorized, "malformed authorization header")
			return
		}
		caller, err := verifier.Verify(token)
		if err != nil {
			_ = huma.WriteErr(api, ctx, http.StatusUnauthorized, "invalid bearer token")
			return
		}

		next(huma.WithValue(ctx, callerKey{}, caller))
	}
}

// BearerScheme is the OpenAPI security scheme name for caller tokens.
const BearerScheme = "bearer"

// Config returns the huma configuration for the rentiq API.
func Config(title, version string) huma.Config {
	cfg := huma.DefaultConfig(title, version)
	if cfg.Components.SecuritySchemes == nil {
		cfg.Components.SecuritySchemes = map[string]*huma.SecurityScheme{}
	}
	cfg.Components.SecuritySchemes[BearerScheme] = &huma.SecurityScheme{
		Type:         "http",
		Scheme:       "bearer",
		BearerFormat: "JWT",
	}
	cfg.Security = []map[string][]string{{BearerScheme: {}}}
	return cfg
}
