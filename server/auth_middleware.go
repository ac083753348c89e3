package server

import (
	"context"
	"net/http"

	"github.com/jrsteele09/paramed-portal/guard"
	"github.com/jrsteele09/paramed-portal/users"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeyUser stores the user the guard authorized the request for
const ContextKeyUser ContextKey = "user"

// RequireRoute gates a page on the route guard. It reads the session synchronously and
// never waits for a verification call in flight.
func (s *Server) RequireRoute(route guard.Route) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "no-store")

			state := s.store.Snapshot()
			decision := s.guard.Evaluate(state, route, r.URL.RequestURI())

			switch decision.Outcome {
			case guard.Pending:
				page := s.newPage(r, "pending.title")
				page.Data = route.Path
				s.render(w, http.StatusOK, pagePending, page)
			case guard.Unauthenticated, guard.WrongRole:
				redirectTo(w, r, decision.Redirect)
			default:
				ctx := context.WithValue(r.Context(), ContextKeyUser, state.User)
				next(w, r.WithContext(ctx))
			}
		}
	}
}

// userFromContext returns the user set by RequireRoute
func userFromContext(ctx context.Context) *users.User {
	u, _ := ctx.Value(ContextKeyUser).(*users.User)
	return u
}
