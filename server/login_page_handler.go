package server

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/paramed-portal/gateway"
	"github.com/jrsteele09/paramed-portal/guard"
	"github.com/rs/zerolog/log"
)

// LoginPageData contains data for rendering the login page
type LoginPageData struct {
	Next  string
	Email string // Preserve email on error
}

// LoginPageUIHandler serves the login form. A signed in visitor is sent on directly.
func (s *Server) LoginPageUIHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		next := loginNext(r.URL.Query().Get(s.guard.NextParam()))
		if state := s.store.Snapshot(); state.Authenticated() {
			redirectTo(w, r, guard.SafeNext(next, dashboardFor(state.Role())))
			return
		}

		page := s.newPage(r, "login.title")
		page.Data = LoginPageData{Next: next}
		w.Header().Set("Cache-Control", "no-store")
		s.render(w, http.StatusOK, pageLogin, page)
	}
}

// LoginSubmissionHandler processes the login form submission
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		email := strings.TrimSpace(r.FormValue("email"))
		password := r.FormValue("password")
		next := loginNext(r.FormValue(s.guard.NextParam()))

		user, err := s.gateway.Login(r.Context(), email, password)
		if err != nil {
			page := s.newPage(r, "login.title")
			page.Data = LoginPageData{Next: next, Email: email}
			page.Error = loginErrorMessage(page, err)
			w.Header().Set("Cache-Control", "no-store")
			s.render(w, loginErrorStatus(err), pageLogin, page)
			return
		}

		redirectTo(w, r, guard.SafeNext(next, dashboardFor(user.Role)))
	}
}

// LogoutHandler always ends the session, whatever the API says.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.gateway.Logout(r.Context())
		redirectTo(w, r, RouteHome)
	}
}

// loginNext keeps a return path only when it is a local page worth returning to.
func loginNext(next string) string {
	next = guard.SafeNext(next, "")
	if next == RouteLogin || strings.HasPrefix(next, "/auth/") {
		return ""
	}
	return next
}

func loginErrorMessage(page Page, err error) string {
	switch gateway.KindOf(err) {
	case gateway.KindNetwork:
		return page.T("login.error.network")
	case gateway.KindServer:
		return page.T("login.error.server")
	case gateway.KindInvalidCredentials:
		if msg := err.Error(); msg != "" {
			return msg
		}
		return page.T("login.error.credentials")
	}
	log.Warn().Err(err).Msg("login: unexpected failure")
	return err.Error()
}

func loginErrorStatus(err error) int {
	switch gateway.KindOf(err) {
	case gateway.KindInvalidCredentials:
		return http.StatusUnauthorized
	case gateway.KindNetwork:
		return http.StatusServiceUnavailable
	case gateway.KindServer:
		return http.StatusBadGateway
	}
	return http.StatusBadRequest
}
