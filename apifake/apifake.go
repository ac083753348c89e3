// Package apifake serves the authentication contract of the institute API
// (/auth/login, /auth/logout, /auth/me) from memory, plus a couple of canned
// collaborator endpoints. It backs the gateway and server tests and lets the
// portal run locally without the real backend. Faults can be injected per path.
package apifake

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/paramed-portal/internal/errors"
	"github.com/jrsteele09/paramed-portal/users"
	fakeuserrepo "github.com/jrsteele09/paramed-portal/users/repofake"
	"github.com/rs/zerolog/log"
)

// Paths served by the fake
const (
	PathLogin           = "/auth/login"
	PathLogout          = "/auth/logout"
	PathMe              = "/auth/me"
	PathStudentPlanning = "/student/planning"
	PathAdminStats      = "/admin/stats"
)

// Claims carried by the tokens the fake issues
type Claims struct {
	Role  users.RoleType `json:"role"`
	Email string         `json:"email"`
	jwt.RegisteredClaims
}

// Fault replaces the normal handling of a path.
type Fault struct {
	Status  int           // Respond with this status and an error envelope
	Message string        // Error message for Status
	Delay   time.Duration // Wait before handling (or before the fault)
	Drop    bool          // Close the connection without a response
	Times   int           // Apply this many times, 0 means until cleared
}

type Server struct {
	users  users.UserRepo
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	mux    *http.ServeMux

	revoked *revokedTokens

	mu       sync.Mutex
	faults   map[string]*Fault
	gates    map[string]chan struct{}
	hits     map[string]int
	lastAuth map[string]string
}

type Option func(*Server)

func WithNowFunc(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

func WithUserRepo(repo users.UserRepo) Option {
	return func(s *Server) {
		s.users = repo
	}
}

func New(secret string, ttl time.Duration, opts ...Option) *Server {
	s := &Server{
		users:    fakeuserrepo.NewFakeUserRepo(),
		secret:   []byte(secret),
		ttl:      ttl,
		now:      time.Now,
		mux:      http.NewServeMux(),
		revoked:  newRevokedTokens(),
		faults:   make(map[string]*Fault),
		gates:    make(map[string]chan struct{}),
		hits:     make(map[string]int),
		lastAuth: make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mux.HandleFunc("POST "+PathLogin, s.loginHandler)
	s.mux.HandleFunc("POST "+PathLogout, s.logoutHandler)
	s.mux.HandleFunc("GET "+PathMe, s.meHandler)
	s.mux.HandleFunc("GET "+PathStudentPlanning, s.requireRole(users.RoleStudent, s.planningHandler))
	s.mux.HandleFunc("GET "+PathAdminStats, s.requireRole(users.RoleAdmin, s.statsHandler))
	return s
}

// AddUser stores u with a bcrypt hash of password.
func (s *Server) AddUser(u users.User, password string) (*users.User, error) {
	hash, err := users.HashPassword(password)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[apifake AddUser] hash password for %s", u.Email)
	}
	u.PasswordHash = hash
	if err := s.users.Upsert(&u); err != nil {
		return nil, apperrors.Wrapf(err, "[apifake AddUser] store %s", u.Email)
	}
	stored := u.Clone()
	stored.PasswordHash = ""
	return stored, nil
}

// SeedDemoUsers adds one admin and one student for local development.
func (s *Server) SeedDemoUsers() error {
	if _, err := s.AddUser(users.User{
		Name:  "Administration",
		Email: "admin@institut.test",
		Role:  users.RoleAdmin,
	}, "Admin1234"); err != nil {
		return err
	}
	_, err := s.AddUser(users.User{
		Name:         "Amina Benali",
		Email:        "student@institut.test",
		Role:         users.RoleStudent,
		Matricule:    "IFP-2025-0142",
		Filiere:      "Soins infirmiers",
		Speciality:   "Infirmier de santé publique",
		AcademicYear: "2025-2026",
		Semester:     "S3",
		Group:        "G2",
	}, "Student1234")
	return err
}

// IssueToken signs a token for u the way a successful login would.
func (s *Server) IssueToken(u *users.User) (string, error) {
	now := s.now()
	claims := Claims{
		Role:  u.Role,
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", apperrors.Wrapf(err, "[apifake IssueToken] sign")
	}
	return signed, nil
}

// Revoke invalidates a token as if it had been logged out.
func (s *Server) Revoke(raw string) error {
	claims, err := s.parse(raw)
	if err != nil {
		return err
	}
	s.revoke(claims)
	return nil
}

func (s *Server) revoke(claims *Claims) {
	exp := s.now().Add(s.ttl)
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	s.revoked.Cleanup(s.now())
	s.revoked.Add(claims.ID, exp)
}

// SetFault makes requests to path misbehave until ClearFault or until f.Times is used up.
func (s *Server) SetFault(path string, f Fault) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[path] = &f
}

func (s *Server) ClearFault(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.faults, path)
}

// Hold blocks requests to path until the returned release function is called.
func (s *Server) Hold(path string) (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.gates[path] = gate
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			if s.gates[path] == gate {
				delete(s.gates, path)
			}
			s.mu.Unlock()
			close(gate)
		})
	}
}

// Hits returns how many requests reached path.
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// LastAuthorization returns the Authorization header of the latest request to path.
func (s *Server) LastAuthorization(path string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAuth[path]
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.hits[r.URL.Path]++
	s.lastAuth[r.URL.Path] = r.Header.Get("Authorization")
	gate := s.gates[r.URL.Path]
	fault := s.takeFault(r.URL.Path)
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}

	if fault != nil {
		if fault.Delay > 0 {
			select {
			case <-time.After(fault.Delay):
			case <-r.Context().Done():
				return
			}
		}
		if fault.Drop {
			dropConnection(w)
			return
		}
		if fault.Status != 0 {
			writeError(w, fault.Status, fault.Message)
			return
		}
	}

	s.mux.ServeHTTP(w, r)
}

// takeFault must be called with mu held
func (s *Server) takeFault(path string) *Fault {
	f, ok := s.faults[path]
	if !ok {
		return nil
	}
	applied := *f
	if f.Times > 0 {
		f.Times--
		if f.Times == 0 {
			delete(s.faults, path)
		}
	}
	return &applied
}

func dropConnection(w http.ResponseWriter) {
	hj, ok := w.(http.Hijacker)
	if !ok {
		panic(http.ErrAbortHandler)
	}
	conn, _, err := hj.Hijack()
	if err != nil {
		panic(http.ErrAbortHandler)
	}
	_ = conn.Close()
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// decodeLogin reads the login body. Errors wrap ErrInvalidRequest and come with the status to answer.
func decodeLogin(w http.ResponseWriter, r *http.Request) (loginRequest, int, error) {
	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		return req, http.StatusBadRequest, fmt.Errorf("%w: malformed login body: %v", apperrors.ErrInvalidRequest, err)
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return req, http.StatusUnprocessableEntity, fmt.Errorf("%w: email and password are required", apperrors.ErrInvalidRequest)
	}
	return req, http.StatusOK, nil
}

func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	req, status, err := decodeLogin(w, r)
	if err != nil {
		refuse(w, status, err, loginRefusal(status))
		return
	}

	u, err := s.users.GetByEmail(req.Email)
	if err != nil || !users.CheckPasswordHash(req.Password, u.PasswordHash) {
		refuse(w, http.StatusUnauthorized, apperrors.ErrInvalidCredentials, "Invalid credentials")
		return
	}

	token, err := s.IssueToken(u)
	if err != nil {
		log.Err(err).Msg("apifake: token signing failed")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	u.PasswordHash = ""
	writeData(w, http.StatusOK, map[string]any{"token": token, "user": u})
}

func (s *Server) logoutHandler(w http.ResponseWriter, r *http.Request) {
	claims, err := s.authenticate(r)
	if err != nil {
		refuse(w, http.StatusUnauthorized, err, "Unauthenticated")
		return
	}
	s.revoke(claims)
	writeData(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (s *Server) meHandler(w http.ResponseWriter, r *http.Request) {
	u, _, err := s.currentUser(r)
	if err != nil {
		refuse(w, http.StatusUnauthorized, err, "Unauthenticated")
		return
	}
	writeData(w, http.StatusOK, u)
}

func (s *Server) requireRole(role users.RoleType, next func(http.ResponseWriter, *http.Request, *users.User)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, _, err := s.currentUser(r)
		if err != nil {
			refuse(w, http.StatusUnauthorized, err, "Unauthenticated")
			return
		}
		if err := authorize(u, role); err != nil {
			refuse(w, http.StatusForbidden, err, "Forbidden")
			return
		}
		next(w, r, u)
	}
}

// PlanningEntry is one published timetable image
type PlanningEntry struct {
	Semester string `json:"semester"`
	Group    string `json:"group"`
	Title    string `json:"title"`
	ImageURL string `json:"image_url"`
}

func (s *Server) planningHandler(w http.ResponseWriter, _ *http.Request, u *users.User) {
	writeData(w, http.StatusOK, []PlanningEntry{{
		Semester: u.Semester,
		Group:    u.Group,
		Title:    "Emploi du temps " + u.Semester + " " + u.Group,
		ImageURL: "/storage/planning/" + strings.ToLower(u.Semester+"-"+u.Group) + ".png",
	}})
}

// Stats is the admin dashboard summary
type Stats struct {
	Students     int `json:"students"`
	Admins       int `json:"admins"`
	Filieres     int `json:"filieres"`
	Specialities int `json:"specialities"`
}

func (s *Server) statsHandler(w http.ResponseWriter, _ *http.Request, _ *users.User) {
	students, _ := s.users.List(users.RoleStudent)
	admins, _ := s.users.List(users.RoleAdmin)

	filieres := make(map[string]struct{})
	specialities := make(map[string]struct{})
	for _, st := range students {
		if st.Filiere != "" {
			filieres[st.Filiere] = struct{}{}
		}
		if st.Speciality != "" {
			specialities[st.Speciality] = struct{}{}
		}
	}
	writeData(w, http.StatusOK, Stats{
		Students:     len(students),
		Admins:       len(admins),
		Filieres:     len(filieres),
		Specialities: len(specialities),
	})
}

func (s *Server) currentUser(r *http.Request) (*users.User, *Claims, error) {
	claims, err := s.authenticate(r)
	if err != nil {
		return nil, nil, err
	}
	u, err := s.users.GetByID(claims.Subject)
	if err != nil {
		return nil, nil, apperrors.ErrUserNotFound
	}
	u.PasswordHash = ""
	return u, claims, nil
}

func (s *Server) authenticate(r *http.Request) (*Claims, error) {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return nil, apperrors.ErrMissingToken
	}

	claims, err := s.parse(parts[1])
	if err != nil {
		return nil, err
	}

	if s.revoked.IsRevoked(claims.ID) {
		return nil, apperrors.ErrTokenRevoked
	}
	return claims, nil
}

func (s *Server) parse(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, apperrors.ErrTokenExpired
	}
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidToken, "%v", err)
	}
	return claims, nil
}

// authorize returns an error wrapping ErrForbidden unless u holds role.
func authorize(u *users.User, role users.RoleType) error {
	if !u.HasRole(role) {
		return fmt.Errorf("%w: role %s, endpoint needs %s", apperrors.ErrForbidden, u.Role, role)
	}
	return nil
}

func loginRefusal(status int) string {
	if status == http.StatusUnprocessableEntity {
		return "Email and password are required"
	}
	return "Malformed request body"
}

// refuse logs why a request was turned down and answers with the error envelope.
func refuse(w http.ResponseWriter, status int, err error, message string) {
	log.Debug().Err(err).Int("status", status).Msg("apifake: request refused")
	writeError(w, status, message)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, map[string]any{"data": data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	if message == "" {
		message = http.StatusText(status)
	}
	writeJSON(w, status, map[string]any{"error": map[string]string{"message": message}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("apifake: failed to write response")
	}
}
