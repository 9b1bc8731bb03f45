package memory

import (
	"context"
	"strconv"
	"sync"

	"github.com/Renal37/bankaccount/internal/models"
)

// Users is an in-memory user storage for the auth service.
type Users struct {
	mu      sync.RWMutex
	byLogin map[string]models.User
	nextID  int
}

func NewUsers() *Users {
	return &Users{byLogin: make(map[string]models.User)}
}

// CreateUser stores user under a fresh id. A taken login yields models.ErrDuplicateUser.
func (u *Users) CreateUser(_ context.Context, user models.User) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if _, ok := u.byLogin[user.Login]; ok {
		return models.ErrDuplicateUser
	}

	u.nextID++
	user.ID = strconv.Itoa(u.nextID)
	u.byLogin[user.Login] = user

	return nil
}

// FindUser returns nil without an error when there is no such login.
func (u *Users) FindUser(_ context.Context, login string) (*models.User, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()

	user, ok := u.byLogin[login]
	if !ok {
		return nil, nil
	}
	return &user, nil
}
