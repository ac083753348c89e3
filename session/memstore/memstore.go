package memstore

import (
	"context"
	"sync"

	"github.com/jrsteele09/paramed-portal/session"
)

var _ session.Storage = (*MemoryStorage)(nil)

// MemoryStorage is an in-memory Storage. It records call counts and can be told to fail,
// which makes it the storage of choice in tests.
type MemoryStorage struct {
	mu  sync.RWMutex
	rec session.Record

	saves  int
	clears int

	loadErr  error
	saveErr  error
	clearErr error
}

func New() *MemoryStorage {
	return &MemoryStorage{}
}

// NewWithRecord returns storage that already holds rec, as if persisted by an earlier run.
func NewWithRecord(rec session.Record) *MemoryStorage {
	m := New()
	m.rec = copyRecord(rec)
	return m
}

func copyRecord(rec session.Record) session.Record {
	return session.Record{Token: rec.Token, User: rec.User.Clone()}
}

func (m *MemoryStorage) Load(_ context.Context) (session.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.loadErr != nil {
		return session.Record{}, m.loadErr
	}
	return copyRecord(m.rec), nil
}

func (m *MemoryStorage) Save(_ context.Context, rec session.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.rec = copyRecord(rec)
	return nil
}

func (m *MemoryStorage) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.clears++
	if m.clearErr != nil {
		return m.clearErr
	}
	m.rec = session.Record{}
	return nil
}

// Record returns what is currently persisted.
func (m *MemoryStorage) Record() session.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyRecord(m.rec)
}

func (m *MemoryStorage) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

func (m *MemoryStorage) Clears() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.clears
}

func (m *MemoryStorage) FailLoad(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadErr = err
}

func (m *MemoryStorage) FailSave(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
}

func (m *MemoryStorage) FailClear(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearErr = err
}
