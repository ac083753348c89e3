package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/paramed-portal/session"
	"github.com/jrsteele09/paramed-portal/users"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const (
	defaultTimeout       = 10 * time.Second
	defaultLogoutTimeout = 3 * time.Second
	maxResponseBytes     = 1 << 20
)

// Outcome describes how a verification call settled.
type Outcome int

const (
	VerifySkipped   Outcome = iota // No token, nothing to verify
	VerifyRefreshed                // API confirmed the session, user refreshed
	VerifyCleared                  // API refused the token, session cleared
	VerifyKept                     // Transient failure, session kept as it was
	VerifyStale                    // Token changed while the call was in flight, result discarded
)

func (o Outcome) String() string {
	switch o {
	case VerifySkipped:
		return "skipped"
	case VerifyRefreshed:
		return "refreshed"
	case VerifyCleared:
		return "cleared"
	case VerifyKept:
		return "kept"
	case VerifyStale:
		return "stale"
	}
	return "unknown"
}

// Gateway is the only component talking to the remote authentication endpoints.
// Every authenticated request carries the token that is current when it is sent.
type Gateway struct {
	baseURL       string
	store         *session.Store
	transport     http.RoundTripper
	timeout       time.Duration
	logoutTimeout time.Duration

	anon   *http.Client
	verify singleflight.Group
}

type Option func(*Gateway)

// WithTransport sets the base round tripper, http.DefaultTransport otherwise.
func WithTransport(rt http.RoundTripper) Option {
	return func(g *Gateway) {
		g.transport = rt
	}
}

// WithTimeout bounds every API round trip.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		g.timeout = d
	}
}

// WithLogoutTimeout bounds the best-effort server-side logout.
func WithLogoutTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		g.logoutTimeout = d
	}
}

func New(baseURL string, store *session.Store, opts ...Option) (*Gateway, error) {
	if store == nil {
		return nil, errors.New("[Gateway New] session store is required")
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("[Gateway New] invalid API base URL %q", baseURL)
	}

	g := &Gateway{
		baseURL:       strings.TrimRight(baseURL, "/"),
		store:         store,
		transport:     http.DefaultTransport,
		timeout:       defaultTimeout,
		logoutTimeout: defaultLogoutTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.anon = &http.Client{Transport: g.transport, Timeout: g.timeout}
	return g, nil
}

func (g *Gateway) endpoint(path string) string {
	return g.baseURL + "/" + strings.TrimLeft(path, "/")
}

// clientFor returns a client whose requests carry token as a bearer credential.
// Binding the token per request means a response can always be attributed to the token that produced it.
func (g *Gateway) clientFor(token string) *http.Client {
	return &http.Client{
		Timeout: g.timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   g.transport,
		},
	}
}

// Restore loads the persisted session and, when a token was found, verifies it in the
// background. The returned channel is closed once nothing is left in flight.
func (g *Gateway) Restore(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	if !g.store.Restore(ctx) {
		close(done)
		return done
	}

	bg := context.WithoutCancel(ctx)
	go func() {
		defer close(done)
		g.Verify(bg)
	}()
	return done
}

// Login exchanges credentials for a session. A failed attempt never touches the store.
func (g *Gateway) Login(ctx context.Context, email, password string) (*users.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, &AuthError{Kind: KindInvalidCredentials, Message: "Email and password are required"}
	}

	body, err := json.Marshal(LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, unexpectedResponse(0, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint(PathLogin), bytes.NewReader(body))
	if err != nil {
		return nil, unexpectedResponse(0, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := g.anon.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("email", email).Msg("login: API unreachable")
		return nil, networkError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, networkError(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		authErr := errorFromResponse(resp.StatusCode, raw)
		log.Info().Int("status", resp.StatusCode).Str("kind", authErr.Kind.String()).Str("email", email).Msg("login refused")
		return nil, authErr
	}

	var env DataEnvelope[LoginData]
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, unexpectedResponse(resp.StatusCode, err)
	}
	if env.Data.Token == "" {
		return nil, unexpectedResponse(resp.StatusCode, errors.New("login response has no token"))
	}
	if err := env.Data.User.Validate(); err != nil {
		return nil, unexpectedResponse(resp.StatusCode, err)
	}

	if err := g.store.SetAuthenticated(ctx, env.Data.Token, env.Data.User); err != nil {
		// The session is live in memory; only the reload survival is lost.
		log.Err(err).Msg("login: session not persisted")
	}
	log.Info().Str("user", env.Data.User.ID).Str("role", env.Data.User.Role.String()).Msg("login succeeded")
	return env.Data.User.Clone(), nil
}

// Logout always ends the local session, then tells the API on a best-effort basis.
func (g *Gateway) Logout(ctx context.Context) {
	token := g.store.Token()
	if err := g.store.Clear(ctx); err != nil {
		log.Err(err).Msg("logout: persisted session not removed")
	}
	if token == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.logoutTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint(PathLogout), nil)
	if err != nil {
		log.Err(err).Msg("logout: failed to build request")
		return
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.clientFor(token).Do(req)
	if err != nil {
		log.Warn().Err(err).Msg("logout: server-side logout failed, local session already cleared")
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))

	if resp.StatusCode > 299 {
		log.Warn().Int("status", resp.StatusCode).Msg("logout: server-side logout refused, local session already cleared")
	}
}

// FetchCurrentUser verifies the session in the background and returns immediately.
func (g *Gateway) FetchCurrentUser(ctx context.Context) {
	bg := context.WithoutCancel(ctx)
	go g.Verify(bg)
}

// Verify asks the API who the current token belongs to. Concurrent calls for the same token
// share a single request. Only a 401/403 clears the session; a result for a token that is no
// longer active is discarded.
func (g *Gateway) Verify(ctx context.Context) Outcome {
	token := g.store.Token()
	if token == "" {
		g.store.FinishLoading()
		return VerifySkipped
	}

	v, _, _ := g.verify.Do(token, func() (interface{}, error) {
		return g.verifyToken(ctx, token), nil
	})
	return v.(Outcome)
}

func (g *Gateway) verifyToken(ctx context.Context, token string) Outcome {
	user, err := g.fetchMe(ctx, token)
	if err == nil {
		applied, serr := g.store.SetAuthenticatedIfToken(ctx, token, user)
		if serr != nil {
			log.Err(serr).Msg("verify: refreshed session not persisted")
		}
		if !applied {
			log.Debug().Msg("verify: discarding result for superseded token")
			return VerifyStale
		}
		return VerifyRefreshed
	}

	var authErr *AuthError
	if errors.As(err, &authErr) && IsAuthFailure(authErr.Status) {
		if g.store.ClearIfToken(ctx, token) {
			log.Info().Int("status", authErr.Status).Msg("verify: token refused, session cleared")
			return VerifyCleared
		}
		return VerifyStale
	}

	if g.store.Token() != token {
		return VerifyStale
	}
	log.Warn().Err(err).Str("kind", KindOf(err).String()).Msg("verify: could not check session, keeping cached session")
	g.store.FinishLoading()
	return VerifyKept
}

func (g *Gateway) fetchMe(ctx context.Context, token string) (*users.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint(PathMe), nil)
	if err != nil {
		return nil, unexpectedResponse(0, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.clientFor(token).Do(req)
	if err != nil {
		return nil, networkError(err)
	}
	defer resp.Body.Close()

	var env DataEnvelope[*users.User]
	if err := decodeResponse(resp, &env); err != nil {
		return nil, err
	}
	if err := env.Data.Validate(); err != nil {
		return nil, unexpectedResponse(resp.StatusCode, err)
	}
	return env.Data, nil
}

// Do sends an authenticated request on behalf of a collaborator. A 401/403 clears the
// session when the token it was sent with is still the active one.
func (g *Gateway) Do(req *http.Request) (*http.Response, error) {
	token := g.store.Token()
	if token == "" {
		return nil, ErrNotSignedIn
	}

	resp, err := g.clientFor(token).Do(req)
	if err != nil {
		return nil, networkError(err)
	}
	if IsAuthFailure(resp.StatusCode) && g.store.ClearIfToken(req.Context(), token) {
		log.Info().Int("status", resp.StatusCode).Str("path", req.URL.Path).Msg("authenticated call refused, session cleared")
	}
	return resp, nil
}

// GetJSON fetches path and decodes the data member of the response envelope into out.
func (g *Gateway) GetJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint(path), nil)
	if err != nil {
		return unexpectedResponse(0, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeResponse(resp, &DataEnvelope[any]{Data: out})
}

// decodeResponse maps non-2xx statuses onto AuthError and decodes 2xx bodies into out.
func decodeResponse(resp *http.Response, out any) error {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return networkError(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errorFromResponse(resp.StatusCode, raw)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return unexpectedResponse(resp.StatusCode, err)
	}
	return nil
}
