// Package guard decides, from session state alone, whether a protected page may be
// rendered or where the visitor should be sent instead. It never performs I/O.
package guard

import (
	"net/url"
	"strings"
	"sync"

	"github.com/jrsteele09/paramed-portal/session"
	"github.com/jrsteele09/paramed-portal/users"
	"github.com/rs/zerolog/log"
)

const (
	DefaultLoginPath = "/login"
	DefaultHomePath  = "/"
	DefaultNextParam = "next"
)

type Outcome int

const (
	Pending         Outcome = iota // Session still loading, render a placeholder
	Unauthenticated                // No user, send to login with the requested path
	WrongRole                      // Signed in with another role
	Authorized                     // Render the protected content
)

func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case Unauthenticated:
		return "unauthenticated"
	case WrongRole:
		return "wrong_role"
	case Authorized:
		return "authorized"
	}
	return "unknown"
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Route declares a protected page. An empty RequiredRole admits any signed in user.
type Route struct {
	Path           string
	RequiredRole   users.RoleType
	RedirectToHome bool // WrongRole goes to the home page instead of the login page
}

// Decision is the result of evaluating a route. Redirect is set for Unauthenticated and WrongRole.
type Decision struct {
	Outcome  Outcome `json:"outcome"`
	Redirect string  `json:"redirect,omitempty"`
}

func (d Decision) Render() bool {
	return d.Outcome == Authorized
}

type Guard struct {
	loginPath string
	homePath  string
	nextParam string
}

type Option func(*Guard)

func WithLoginPath(path string) Option {
	return func(g *Guard) {
		g.loginPath = path
	}
}

func WithHomePath(path string) Option {
	return func(g *Guard) {
		g.homePath = path
	}
}

// WithNextParam names the query parameter carrying the post-login return path.
func WithNextParam(name string) Option {
	return func(g *Guard) {
		g.nextParam = name
	}
}

func New(opts ...Option) *Guard {
	g := &Guard{
		loginPath: DefaultLoginPath,
		homePath:  DefaultHomePath,
		nextParam: DefaultNextParam,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Guard) LoginPath() string {
	return g.loginPath
}

func (g *Guard) NextParam() string {
	return g.nextParam
}

// Evaluate maps a session snapshot onto a decision for route. requested is the full path
// the visitor asked for, remembered in the login redirect.
func (g *Guard) Evaluate(state session.State, route Route, requested string) Decision {
	switch {
	case state.Loading:
		return Decision{Outcome: Pending}
	case state.User == nil:
		return Decision{Outcome: Unauthenticated, Redirect: g.LoginURL(requested)}
	case route.RequiredRole != "" && state.User.Role != route.RequiredRole:
		target := g.loginPath
		if route.RedirectToHome {
			target = g.homePath
		}
		log.Warn().
			Str("path", route.Path).
			Str("role", state.User.Role.String()).
			Str("required", route.RequiredRole.String()).
			Str("redirect", target).
			Msg("route guard: wrong role")
		return Decision{Outcome: WrongRole, Redirect: target}
	}
	return Decision{Outcome: Authorized}
}

// LoginURL is the login page with requested as the return path, when it is a safe local path.
func (g *Guard) LoginURL(requested string) string {
	next := SafeNext(requested, "")
	if next == "" || next == g.loginPath {
		return g.loginPath
	}
	return g.loginPath + "?" + url.Values{g.nextParam: {next}}.Encode()
}

// Watch evaluates route now and again after every session transition, calling fn each
// time the decision changes. Evaluation and delivery happen under one lock and states older
// than the last one applied are skipped, so the last decision fn sees always matches the
// store. fn runs on the store's notification path and must not block.
func (g *Guard) Watch(store *session.Store, route Route, requested string, fn func(Decision)) (stop func()) {
	var (
		mu      sync.Mutex
		applied uint64
		last    Decision
		started bool
	)
	// apply must be called with mu held
	apply := func(state session.State, seq uint64) {
		if started && seq <= applied {
			return
		}
		applied = seq
		d := g.Evaluate(state, route, requested)
		if started && d == last {
			return
		}
		started = true
		last = d
		fn(d)
	}

	unsubscribe := store.Subscribe(func(ev session.Event) {
		mu.Lock()
		defer mu.Unlock()
		apply(ev.State, ev.Seq)
	})

	mu.Lock()
	state, seq := store.SnapshotWithSeq()
	apply(state, seq)
	mu.Unlock()
	return unsubscribe
}

// SafeNext returns next when it is a local absolute path, fallback otherwise. It keeps
// post-login redirects on this site.
func SafeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	if strings.ContainsAny(next, "\r\n\t\\") {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" || u.User != nil {
		return fallback
	}
	return next
}
