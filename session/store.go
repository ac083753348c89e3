package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jrsteele09/paramed-portal/users"
	"github.com/rs/zerolog/log"
)

// Store is the single authoritative holder of the session. It is the only
// writer of the token, the cached user and the loading flag, in memory and in storage.
type Store struct {
	storage Storage

	mu       sync.Mutex
	state    State
	restored bool
	seq      uint64
	pending  []Event

	// notifyMu is held by whichever goroutine is currently delivering events
	notifyMu    sync.Mutex
	listenersMu sync.RWMutex
	listeners   []subscription
	nextID      uint64
}

type subscription struct {
	id uint64
	fn Listener
}

// New creates a store that is loading until Restore is called.
func New(storage Storage) *Store {
	return &Store{
		storage: storage,
		state:   State{Loading: true},
	}
}

// Restore reads the persisted session once. It reports whether a token was found
// and therefore needs to be verified against the API.
//
// With a cached user the session is usable immediately and loading resolves at once.
// With a token but no cached user the store stays loading until verification settles.
func (s *Store) Restore(ctx context.Context) bool {
	s.mu.Lock()
	if s.restored {
		s.mu.Unlock()
		return false
	}
	s.restored = true

	rec, err := s.storage.Load(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("session restore: ignoring unreadable storage")
		if errors.Is(err, ErrCorruptRecord) {
			if err := s.storage.Clear(ctx); err != nil {
				log.Err(err).Msg("session restore: failed to clear corrupt record")
			}
		}
		rec = Record{}
	}

	// A user without a token is never kept.
	if rec.Empty() {
		if rec.User != nil {
			if err := s.storage.Clear(ctx); err != nil {
				log.Err(err).Msg("session restore: failed to clear orphan user")
			}
		}
		s.state = State{}
		s.enqueue(EventRestored)
		s.mu.Unlock()
		s.drain()
		return false
	}

	s.state = State{
		Token:   rec.Token,
		User:    rec.User.Clone(),
		Loading: rec.User == nil,
	}
	s.enqueue(EventRestored)
	s.mu.Unlock()
	s.drain()
	return true
}

// SetAuthenticated stores a fresh session after a successful login.
// The in-memory session is updated even when persisting fails; the error is returned.
func (s *Store) SetAuthenticated(ctx context.Context, token string, user *users.User) error {
	if token == "" || user == nil {
		return ErrIncompleteSession
	}

	s.mu.Lock()
	err := s.setLocked(ctx, token, user)
	s.mu.Unlock()
	s.drain()
	return err
}

// SetAuthenticatedIfToken applies a verification result only while expected is still the
// active token. It reports false when the result was discarded as stale.
func (s *Store) SetAuthenticatedIfToken(ctx context.Context, expected string, user *users.User) (bool, error) {
	if expected == "" || user == nil {
		return false, ErrIncompleteSession
	}

	s.mu.Lock()
	if s.state.Token != expected {
		s.mu.Unlock()
		return false, nil
	}
	err := s.setLocked(ctx, expected, user)
	s.mu.Unlock()
	s.drain()
	return true, err
}

func (s *Store) setLocked(ctx context.Context, token string, user *users.User) error {
	cached := user.Clone()
	err := s.storage.Save(ctx, Record{Token: token, User: cached})
	s.restored = true
	s.state = State{Token: token, User: cached}
	s.enqueue(EventAuthenticated)
	if err != nil {
		return fmt.Errorf("[Store SetAuthenticated] %w: %w", ErrStorage, err)
	}
	return nil
}

// Clear removes the session unconditionally. Memory is cleared even when storage fails.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	err := s.clearLocked(ctx)
	s.mu.Unlock()
	s.drain()
	if err != nil {
		return fmt.Errorf("[Store Clear] %w: %w", ErrStorage, err)
	}
	return nil
}

// ClearIfToken clears the session only while expected is the active token. Concurrent
// auth failures for the same token therefore clear the session exactly once.
func (s *Store) ClearIfToken(ctx context.Context, expected string) bool {
	s.mu.Lock()
	if expected == "" || s.state.Token != expected {
		s.mu.Unlock()
		return false
	}
	if err := s.clearLocked(ctx); err != nil {
		log.Err(err).Msg("session clear: failed to remove persisted session")
	}
	s.mu.Unlock()
	s.drain()
	return true
}

func (s *Store) clearLocked(ctx context.Context) error {
	err := s.storage.Clear(ctx)
	was := s.state
	s.restored = true
	s.state = State{}
	if was.Token != "" || was.User != nil || was.Loading {
		s.enqueue(EventCleared)
	}
	return err
}

// FinishLoading resolves the loading flag and leaves token and user untouched.
func (s *Store) FinishLoading() {
	s.mu.Lock()
	if !s.state.Loading {
		s.mu.Unlock()
		return
	}
	s.state.Loading = false
	s.enqueue(EventLoaded)
	s.mu.Unlock()
	s.drain()
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// SnapshotWithSeq returns a copy of the current state and the Seq of the last transition
// that produced it. Events with a Seq at or below it are already reflected in the state.
func (s *Store) SnapshotWithSeq() (State, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone(), s.seq
}

// Token returns the active bearer token, empty when signed out.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Token
}

// Subscribe registers fn for every subsequent transition. Events are delivered one at a
// time in transition order. The returned function removes the listener.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.listenersMu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, subscription{id: id, fn: fn})
	s.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenersMu.Lock()
			defer s.listenersMu.Unlock()
			for i, sub := range s.listeners {
				if sub.id == id {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// enqueue must be called with mu held
func (s *Store) enqueue(kind EventKind) {
	s.seq++
	s.pending = append(s.pending, Event{Seq: s.seq, Kind: kind, State: s.state.clone()})
}

// drain delivers queued events. A goroutine that finds another one already delivering
// leaves its events to it, so delivery stays serial and ordered without holding mu.
func (s *Store) drain() {
	for {
		if !s.notifyMu.TryLock() {
			return
		}
		for {
			ev, ok := s.pop()
			if !ok {
				break
			}
			s.deliver(ev)
		}
		s.notifyMu.Unlock()
		if !s.hasPending() {
			return
		}
	}
}

func (s *Store) pop() (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return Event{}, false
	}
	ev := s.pending[0]
	s.pending = s.pending[1:]
	return ev, true
}

func (s *Store) hasPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending) > 0
}

func (s *Store) deliver(ev Event) {
	s.listenersMu.RLock()
	subs := make([]subscription, len(s.listeners))
	copy(subs, s.listeners)
	s.listenersMu.RUnlock()

	for _, sub := range subs {
		sub.fn(ev)
	}
}
