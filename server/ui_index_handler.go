package server

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/paramed-portal/guard"
)

// IndexHandler renders the home page
func (s *Server) IndexHandler() http.HandlerFunc {
	return s.staticPage(pageIndex, "home.title")
}

func (s *Server) ProgramsHandler() http.HandlerFunc {
	return s.staticPage(pagePrograms, "programs.title")
}

func (s *Server) ContactHandler() http.HandlerFunc {
	return s.staticPage(pageContact, "contact.title")
}

func (s *Server) staticPage(name, titleKey string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, http.StatusOK, name, s.newPage(r, titleKey))
	}
}

// LangHandler stores the chosen language and returns to the page the visitor came from.
func (s *Server) LangHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.ToLower(r.PathValue("code"))
		if !s.catalog.IsSupported(code) {
			http.Error(w, "Unsupported language", http.StatusNotFound)
			return
		}
		s.setLangCookie(w, r, code)
		redirectTo(w, r, guard.SafeNext(r.URL.Query().Get("next"), RouteHome))
	}
}
