package server

import (
	"errors"
	"net/http"

	"github.com/jrsteele09/paramed-portal/gateway"
	"github.com/jrsteele09/paramed-portal/guard"
	"github.com/rs/zerolog/log"
)

// AdminStats is the summary served by the API for the admin dashboard
type AdminStats struct {
	Students     int `json:"students"`
	Admins       int `json:"admins"`
	Filieres     int `json:"filieres"`
	Specialities int `json:"specialities"`
}

// AdminDashboardHandler renders the admin dashboard
func (s *Server) AdminDashboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := s.newPage(r, "admin.title")
		page.User = userFromContext(r.Context())

		var stats AdminStats
		if err := s.gateway.GetJSON(r.Context(), apiAdminStats, &stats); err != nil {
			if s.sessionLost(w, r, adminDashboardRoute, err) {
				return
			}
			page.Error = page.T("data.unavailable")
		} else {
			page.Data = stats
		}
		s.render(w, http.StatusOK, pageAdminDashboard, page)
	}
}

// sessionLost handles a collaborator call refused for the session. The gateway clears the
// session only when the refused token was still the active one, so the guard is re-run on
// the session as it is now: a visitor signed out goes to login, one whose session was
// replaced meanwhile retries the page with it.
func (s *Server) sessionLost(w http.ResponseWriter, r *http.Request, route guard.Route, err error) bool {
	if !errors.Is(err, gateway.ErrInvalidCredentials) && !errors.Is(err, gateway.ErrNotSignedIn) {
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("dashboard data unavailable")
		return false
	}

	requested := r.URL.RequestURI()
	decision := s.guard.Evaluate(s.store.Snapshot(), route, requested)
	switch decision.Outcome {
	case guard.Unauthenticated, guard.WrongRole:
		redirectTo(w, r, decision.Redirect)
	default:
		log.Info().Str("path", r.URL.Path).Msg("dashboard call refused for a replaced session, retrying")
		redirectTo(w, r, requested)
	}
	return true
}
