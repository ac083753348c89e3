package server

import (
	"net/http"

	"github.com/jrsteele09/paramed-portal/locale"
	"github.com/jrsteele09/paramed-portal/users"
)

// dashboardFor is the landing page of a role after login
func dashboardFor(role users.RoleType) string {
	switch role {
	case users.RoleAdmin:
		return RouteAdminDashboard
	case users.RoleStudent:
		return RouteStudentDashboard
	}
	return RouteHome
}

// redirectTo helper for htmx-aware redirects
func redirectTo(w http.ResponseWriter, r *http.Request, path string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", path)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

func (s *Server) setLangCookie(w http.ResponseWriter, r *http.Request, lang string) {
	http.SetCookie(w, &http.Cookie{
		Name:     locale.CookieName,
		Value:    lang,
		Path:     "/",
		MaxAge:   365 * 24 * 3600,
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
	})
}
