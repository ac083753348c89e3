package server

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"sync"

	"github.com/jrsteele09/paramed-portal/gateway"
	"github.com/jrsteele09/paramed-portal/guard"
	"github.com/jrsteele09/paramed-portal/internal/config"
	"github.com/jrsteele09/paramed-portal/locale"
	"github.com/jrsteele09/paramed-portal/session"
	"github.com/jrsteele09/paramed-portal/users"
	"github.com/rs/zerolog/log"
)

// Guarded pages of the shell
var (
	adminDashboardRoute   = guard.Route{Path: RouteAdminDashboard, RequiredRole: users.RoleAdmin}
	studentDashboardRoute = guard.Route{Path: RouteStudentDashboard, RequiredRole: users.RoleStudent}
	studentPlanningRoute  = guard.Route{Path: RouteStudentPlanning, RequiredRole: users.RoleStudent, RedirectToHome: true}
	accountRoute          = guard.Route{Path: RouteAccount}
)

// guardedRoutes is looked up by the session events stream
var guardedRoutes = map[string]guard.Route{
	adminDashboardRoute.Path:   adminDashboardRoute,
	studentDashboardRoute.Path: studentDashboardRoute,
	studentPlanningRoute.Path:  studentPlanningRoute,
	accountRoute.Path:          accountRoute,
}

// Server is the presentation shell: public pages, the login form and the guarded
// dashboards, all reading the one session owned by this process.
type Server struct {
	env     string // Environment (e.g., "DEV", "PROD")
	mux     *http.ServeMux
	routes  []string
	config  config.Config
	store   *session.Store
	gateway *gateway.Gateway
	guard   *guard.Guard
	catalog *locale.Catalog
	pages   map[string]*template.Template

	unsubscribe func()
	done        chan struct{}
	closeOnce   sync.Once
}

func New(c config.Config, store *session.Store, gw *gateway.Gateway, catalog *locale.Catalog) (*Server, error) {
	if store == nil || gw == nil || catalog == nil {
		return nil, errors.New("[Server New] store, gateway and catalog are required")
	}

	pages, err := parsePages()
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to parse templates: %w", err)
	}

	s := &Server{
		env:     c.GetEnv(),
		mux:     http.NewServeMux(),
		config:  c,
		store:   store,
		gateway: gw,
		guard:   guard.New(guard.WithLoginPath(RouteLogin), guard.WithHomePath(RouteHome)),
		catalog: catalog,
		pages:   pages,
		done:    make(chan struct{}),
	}
	s.unsubscribe = store.Subscribe(logTransition)

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Close detaches the server from the session store and ends open event streams.
// It is safe to call more than once.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		s.unsubscribe()
		close(s.done)
	})
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Debug().Msgf("[%-19s] %s", colouredMethod(method), path)
}

func colouredMethod(method string) string {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		return color + paddedMethod + ResetColor
	}
	return Gray + paddedMethod + ResetColor
}

func logTransition(ev session.Event) {
	e := log.Info().
		Uint64("seq", ev.Seq).
		Str("event", ev.Kind.String()).
		Bool("authenticated", ev.State.Authenticated()).
		Bool("loading", ev.State.Loading)
	if ev.State.User != nil {
		e = e.Str("user", ev.State.User.ID).Str("role", ev.State.Role().String())
	}
	e.Msg("session transition")
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
