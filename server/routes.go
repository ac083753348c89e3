package server

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

func (s *Server) initRoutes() {
	// Public pages
	s.RegisterRouteHandler("GET "+RouteHome+"{$}", ChainMiddleware(s.IndexHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RoutePrograms, ChainMiddleware(s.ProgramsHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteContact, ChainMiddleware(s.ContactHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteLang, ChainMiddleware(s.LangHandler(), s.HTMLMiddleWare()...))

	// LOGIN
	s.RegisterRouteHandler("GET "+RouteLogin, ChainMiddleware(s.LoginPageUIHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteAuthLogin, ChainMiddleware(s.LoginSubmissionHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare()...))

	// Guarded pages
	s.RegisterRouteHandler("GET "+RouteAdminDashboard, ChainMiddleware(s.AdminDashboardHandler(), s.HTMLMiddleWare(s.RequireRoute(adminDashboardRoute))...))
	s.RegisterRouteHandler("GET "+RouteStudentDashboard, ChainMiddleware(s.StudentDashboardHandler(), s.HTMLMiddleWare(s.RequireRoute(studentDashboardRoute))...))
	s.RegisterRouteHandler("GET "+RouteStudentPlanning, ChainMiddleware(s.StudentPlanningHandler(), s.HTMLMiddleWare(s.RequireRoute(studentPlanningRoute))...))
	s.RegisterRouteHandler("GET "+RouteAccount, ChainMiddleware(s.AccountHandler(), s.HTMLMiddleWare(s.RequireRoute(accountRoute))...))

	// Session API routes
	s.RegisterRouteHandler("GET "+RouteSession, ChainMiddleware(s.SessionHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("OPTIONS "+RouteSession, ChainMiddleware(s.SessionHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteSessionEvents, ChainMiddleware(s.SessionEventsHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())

	s.RegisterRouteHandler("GET "+RouteStaticCSS, ChainMiddleware(s.serveFileHandler(), s.StaticMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteStaticJS, ChainMiddleware(s.serveFileHandler(), s.StaticMiddleware()...))
}

func (s *Server) serveFileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filePath := strings.TrimPrefix(r.URL.Path, "/")
		if filePath == "" {
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
		err := StreamFile(w, r, filePath)
		if err != nil {
			logError(r.Method, filePath, err.Error())
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
	}
}

func logError(method, path, error string) {
	log.Warn().Msgf("[%-19s] %s %s", colouredMethod(method), path, Red+error+ResetColor)
}
