package session

import (
	"context"
	"errors"

	"github.com/jrsteele09/paramed-portal/users"
)

var (
	// ErrStorage wraps failures of the durable storage backend
	ErrStorage = errors.New("session storage failure")
	// ErrCorruptRecord is returned by Storage.Load when the persisted data cannot be decoded
	ErrCorruptRecord = errors.New("corrupt session record")
	// ErrIncompleteSession rejects attempts to authenticate without both a token and a user
	ErrIncompleteSession = errors.New("session requires a token and a user")
)

// State is a snapshot of the session. Snapshots are values, mutating one has no effect on the store.
type State struct {
	Token   string      // Bearer credential, empty when signed out
	User    *users.User // Cached or verified principal, nil when unknown
	Loading bool        // True until the first verification attempt resolves
}

// Authenticated reports whether both halves of the session are present
func (s State) Authenticated() bool {
	return s.Token != "" && s.User != nil
}

// Role returns the user's role, empty when there is no user
func (s State) Role() users.RoleType {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}

func (s State) clone() State {
	s.User = s.User.Clone()
	return s
}

// Record is the persisted pair. The token is the source of truth, the user is a cache.
type Record struct {
	Token string      `json:"token"`
	User  *users.User `json:"user,omitempty"`
}

func (r Record) Empty() bool {
	return r.Token == ""
}

// Storage is the durable client storage. Only the Store writes to it.
// Load returns an empty Record and a nil error when nothing is persisted.
type Storage interface {
	Load(ctx context.Context) (Record, error)
	Save(ctx context.Context, rec Record) error
	Clear(ctx context.Context) error
}

type EventKind int

const (
	EventRestored      EventKind = iota + 1 // Startup restore finished
	EventAuthenticated                      // Login or verification stored a session
	EventCleared                            // Logout or confirmed auth failure
	EventLoaded                             // Loading resolved without changing token or user
)

func (k EventKind) String() string {
	switch k {
	case EventRestored:
		return "restored"
	case EventAuthenticated:
		return "authenticated"
	case EventCleared:
		return "cleared"
	case EventLoaded:
		return "loaded"
	}
	return "unknown"
}

// Event describes a single state transition. Seq increases by one per transition.
type Event struct {
	Seq   uint64
	Kind  EventKind
	State State
}

// Listener receives events in the order the transitions happened.
type Listener func(Event)
