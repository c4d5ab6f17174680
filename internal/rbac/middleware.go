// Package rbac exposes route-level role guards built on the authz predicates.
package rbac

import (
	"log/slog"
	"net/http"

	"github.com/learnhub/learnhub/internal/authz"
	"github.com/learnhub/learnhub/internal/platform/httpx"
)

// Middleware wires authorization helpers for HTTP handlers. Guards only see
// the principal; resource rules belong to the service gates.
type Middleware struct {
	Logger *slog.Logger
}

// RequireAny lets the request through when at least one predicate passes.
func (m Middleware) RequireAny(preds ...authz.Predicate) func(http.Handler) http.Handler {
	return m.require(authz.LogicOr, preds)
}

// RequireAll lets the request through when every predicate passes.
func (m Middleware) RequireAll(preds ...authz.Predicate) func(http.Handler) http.Handler {
	return m.require(authz.LogicAnd, preds)
}

func (m Middleware) require(logic authz.Logic, preds []authz.Predicate) func(http.Handler) http.Handler {
	for _, p := range preds {
		if p.Requires() != authz.FieldNone {
			panic("rbac: route guard " + p.Name() + " needs resource context")
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(preds) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			pc := &authz.Context{Principal: authz.PrincipalFromContext(r.Context())}
			if err := authz.Validate(pc, logic, preds...); err != nil {
				if m.Logger != nil {
					m.Logger.Debug("rbac guard denied", slog.String("path", r.URL.Path), slog.Any("error", err))
				}
				httpx.RespondError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
