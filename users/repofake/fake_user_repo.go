package fakeuserrepo

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/paramed-portal/internal/errors"
	"github.com/jrsteele09/paramed-portal/users"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

// ErrNotFound is the shared not found sentinel, so callers can match it without importing the fake
var ErrNotFound = apperrors.ErrNotFound

type FakeUserRepo struct {
	users    map[string]*users.User
	emailIds map[string]string // email to user id
	lock     sync.RWMutex
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		users:    make(map[string]*users.User),
		emailIds: make(map[string]string),
	}
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (ur *FakeUserRepo) Upsert(user *users.User) error {
	if user == nil {
		return errors.New("user is nil")
	}
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	ur.users[user.ID] = user.Clone()
	ur.emailIds[normaliseEmail(user.Email)] = user.ID
	return nil
}

func (ur *FakeUserRepo) Delete(email string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	email = normaliseEmail(email)
	userID, ok := ur.emailIds[email]
	if !ok {
		return ErrNotFound
	}
	delete(ur.emailIds, email)
	delete(ur.users, userID)
	return nil
}

func (ur *FakeUserRepo) GetByEmail(email string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.emailIds[normaliseEmail(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return ur.copyOf(id), nil
}

func (ur *FakeUserRepo) GetByID(id string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	if _, ok := ur.users[id]; !ok {
		return nil, ErrNotFound
	}
	return ur.copyOf(id), nil
}

// List returns users with the given role, or all users when role is empty, ordered by ID.
func (ur *FakeUserRepo) List(role users.RoleType) ([]*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	userList := make([]*users.User, 0, len(ur.users))
	for id, u := range ur.users {
		if role != "" && u.Role != role {
			continue
		}
		userList = append(userList, ur.copyOf(id))
	}

	sort.Slice(userList, func(i, j int) bool {
		return userList[i].ID < userList[j].ID
	})
	return userList, nil
}

// copyOf must be called with the lock held
func (ur *FakeUserRepo) copyOf(id string) *users.User {
	return ur.users[id].Clone()
}
