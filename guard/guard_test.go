package guard_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/paramed-portal/guard"
	"github.com/jrsteele09/paramed-portal/session"
	"github.com/jrsteele09/paramed-portal/session/memstore"
	"github.com/jrsteele09/paramed-portal/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	adminDashboard  = guard.Route{Path: "/admin/dashboard", RequiredRole: users.RoleAdmin}
	studentPlanning = guard.Route{Path: "/student/planning", RequiredRole: users.RoleStudent, RedirectToHome: true}
	account         = guard.Route{Path: "/account"}
)

func signedIn(role users.RoleType) session.State {
	return session.State{Token: "t", User: &users.User{ID: "u-1", Role: role}}
}

func TestEvaluate(t *testing.T) {
	g := guard.New()

	tests := []struct {
		name      string
		state     session.State
		route     guard.Route
		requested string
		want      guard.Decision
	}{
		{
			name:  "loading is pending",
			state: session.State{Loading: true, Token: "t"},
			route: adminDashboard, requested: "/admin/dashboard",
			want: guard.Decision{Outcome: guard.Pending},
		},
		{
			name:  "loading with cached user is pending",
			state: session.State{Loading: true, Token: "t", User: &users.User{ID: "u", Role: users.RoleAdmin}},
			route: adminDashboard, requested: "/admin/dashboard",
			want: guard.Decision{Outcome: guard.Pending},
		},
		{
			name:  "no user remembers requested path",
			state: session.State{},
			route: adminDashboard, requested: "/admin/dashboard",
			want: guard.Decision{Outcome: guard.Unauthenticated, Redirect: "/login?next=%2Fadmin%2Fdashboard"},
		},
		{
			name:  "token without user is unauthenticated",
			state: session.State{Token: "t"},
			route: account, requested: "/account",
			want: guard.Decision{Outcome: guard.Unauthenticated, Redirect: "/login?next=%2Faccount"},
		},
		{
			name:  "wrong role goes to login",
			state: signedIn(users.RoleStudent),
			route: adminDashboard, requested: "/admin/dashboard",
			want: guard.Decision{Outcome: guard.WrongRole, Redirect: "/login"},
		},
		{
			name:  "wrong role goes home when configured",
			state: signedIn(users.RoleAdmin),
			route: studentPlanning, requested: "/student/planning",
			want: guard.Decision{Outcome: guard.WrongRole, Redirect: "/"},
		},
		{
			name:  "matching role",
			state: signedIn(users.RoleAdmin),
			route: adminDashboard, requested: "/admin/dashboard",
			want: guard.Decision{Outcome: guard.Authorized},
		},
		{
			name:  "no required role admits any user",
			state: signedIn(users.RoleStudent),
			route: account, requested: "/account",
			want: guard.Decision{Outcome: guard.Authorized},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.Evaluate(tt.state, tt.route, tt.requested))
		})
	}
}

func TestEvaluateNeverRendersForAnotherRole(t *testing.T) {
	g := guard.New()
	roles := []users.RoleType{users.RoleAdmin, users.RoleStudent}

	for _, have := range roles {
		for _, required := range roles {
			for _, home := range []bool{false, true} {
				route := guard.Route{Path: "/x", RequiredRole: required, RedirectToHome: home}
				d := g.Evaluate(signedIn(have), route, "/x")
				if have == required {
					assert.True(t, d.Render(), "%s on %s", have, required)
					continue
				}
				assert.False(t, d.Render(), "%s on %s", have, required)
				assert.Equal(t, guard.WrongRole, d.Outcome)
				assert.NotEmpty(t, d.Redirect)
			}
		}
	}
}

func TestCustomPaths(t *testing.T) {
	g := guard.New(guard.WithLoginPath("/connexion"), guard.WithHomePath("/accueil"), guard.WithNextParam("retour"))

	d := g.Evaluate(session.State{}, account, "/account?tab=profile")
	require.Equal(t, "/connexion?retour=%2Faccount%3Ftab%3Dprofile", d.Redirect)

	d = g.Evaluate(signedIn(users.RoleAdmin), studentPlanning, "/student/planning")
	require.Equal(t, "/accueil", d.Redirect)
	require.Equal(t, "/connexion", g.LoginPath())
	require.Equal(t, "retour", g.NextParam())
}

func TestLoginURLDropsUnsafeTargets(t *testing.T) {
	g := guard.New()

	require.Equal(t, "/login", g.LoginURL(""))
	require.Equal(t, "/login", g.LoginURL("https://evil.test/"))
	require.Equal(t, "/login", g.LoginURL("/login"))
}

func TestSafeNext(t *testing.T) {
	tests := []struct {
		next string
		want string
	}{
		{next: "/student/dashboard", want: "/student/dashboard"},
		{next: "/account?tab=1", want: "/account?tab=1"},
		{next: "", want: "/fallback"},
		{next: "student", want: "/fallback"},
		{next: "//evil.test", want: "/fallback"},
		{next: "/\\evil.test", want: "/fallback"},
		{next: "https://evil.test/x", want: "/fallback"},
		{next: "/ok\r\nSet-Cookie: x", want: "/fallback"},
	}
	for _, tt := range tests {
		t.Run(tt.next, func(t *testing.T) {
			assert.Equal(t, tt.want, guard.SafeNext(tt.next, "/fallback"))
		})
	}
}

type decisions struct {
	mu   sync.Mutex
	list []guard.Decision
}

func (d *decisions) add(dec guard.Decision) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.list = append(d.list, dec)
}

func (d *decisions) all() []guard.Decision {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]guard.Decision(nil), d.list...)
}

func TestNoStoredTokenRedirectsImmediately(t *testing.T) {
	store := session.New(memstore.New())
	require.False(t, store.Restore(context.Background()))

	d := guard.New().Evaluate(store.Snapshot(), adminDashboard, "/admin/dashboard")

	require.Equal(t, guard.Unauthenticated, d.Outcome)
	require.Equal(t, "/login?next=%2Fadmin%2Fdashboard", d.Redirect)
}

func TestCachedRoleGatesBeforeVerification(t *testing.T) {
	store := session.New(memstore.NewWithRecord(session.Record{
		Token: "t1",
		User:  &users.User{ID: "stu-1", Role: users.RoleStudent},
	}))
	require.True(t, store.Restore(context.Background()))

	d := guard.New().Evaluate(store.Snapshot(), adminDashboard, "/admin/dashboard")

	require.Equal(t, guard.WrongRole, d.Outcome)
}

func TestWatchFollowsSessionTransitions(t *testing.T) {
	store := session.New(memstore.New())
	g := guard.New()
	got := &decisions{}

	stop := g.Watch(store, adminDashboard, "/admin/dashboard", got.add)
	defer stop()

	ctx := context.Background()
	require.NoError(t, store.SetAuthenticated(ctx, "t1", &users.User{ID: "adm-1", Role: users.RoleAdmin}))
	// Same decision again is not repeated.
	require.NoError(t, store.SetAuthenticated(ctx, "t2", &users.User{ID: "adm-1", Role: users.RoleAdmin}))
	require.True(t, store.ClearIfToken(ctx, "t2"))

	require.Equal(t, []guard.Decision{
		{Outcome: guard.Pending},
		{Outcome: guard.Authorized},
		{Outcome: guard.Unauthenticated, Redirect: "/login?next=%2Fadmin%2Fdashboard"},
	}, got.all())
}

func TestWatchStop(t *testing.T) {
	store := session.New(memstore.New())
	got := &decisions{}

	stop := guard.New().Watch(store, account, "/account", got.add)
	stop()
	store.Restore(context.Background())

	require.Len(t, got.all(), 1)
}

// stallingWriter blocks the first log write until released, holding an evaluation in flight.
type stallingWriter struct {
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (w *stallingWriter) Write(p []byte) (int, error) {
	w.once.Do(func() {
		close(w.entered)
		<-w.release
	})
	return len(p), nil
}

func TestWatchEndsOnCurrentDecisionWhenTransitionRacesFirstEvaluation(t *testing.T) {
	w := &stallingWriter{entered: make(chan struct{}), release: make(chan struct{})}
	prev := log.Logger
	log.Logger = zerolog.New(w)
	t.Cleanup(func() { log.Logger = prev })

	ctx := context.Background()
	store := session.New(memstore.NewWithRecord(session.Record{
		Token: "t1",
		User:  &users.User{ID: "stu-1", Role: users.RoleStudent},
	}))
	require.True(t, store.Restore(ctx))

	got := &decisions{}
	stopped := make(chan func())
	go func() {
		// The cached student on the admin route logs a wrong-role warning and stalls there.
		stopped <- guard.New().Watch(store, adminDashboard, "/admin/dashboard", got.add)
	}()
	<-w.entered

	setDone := make(chan error)
	go func() {
		setDone <- store.SetAuthenticated(ctx, "t2", &users.User{ID: "adm-1", Role: users.RoleAdmin})
	}()
	require.Eventually(t, func() bool { return store.Token() == "t2" }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(w.release)

	stop := <-stopped
	defer stop()
	require.NoError(t, <-setDone)

	all := got.all()
	require.NotEmpty(t, all)
	assert.Equal(t, guard.Decision{Outcome: guard.Authorized}, all[len(all)-1])
	assert.Equal(t, guard.Authorized, guard.New().Evaluate(store.Snapshot(), adminDashboard, "/admin/dashboard").Outcome)
}
