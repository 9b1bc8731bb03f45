package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Renal37/bankaccount/internal/memory"
	"github.com/Renal37/bankaccount/internal/models"
)

func credentials(login, password string) models.UnknownUser {
	return models.UnknownUser{Login: &login, Password: &password}
}

func TestAuthService(t *testing.T) {
	ctx := context.Background()
	auth := NewAuthService(memory.NewUsers())

	require.NoError(t, auth.Register(ctx, credentials("alice", "secret")))

	t.Run("duplicate login", func(t *testing.T) {
		err := auth.Register(ctx, credentials("alice", "other"))
		assert.ErrorIs(t, err, ErrUserIsAlreadyRegistered)
	})

	t.Run("login", func(t *testing.T) {
		assert.NoError(t, auth.Login(ctx, credentials("alice", "secret")))
	})

	t.Run("wrong password", func(t *testing.T) {
		err := auth.Login(ctx, credentials("alice", "guess"))
		assert.ErrorIs(t, err, ErrPasswordIsIncorrect)
	})

	t.Run("unknown user", func(t *testing.T) {
		err := auth.Login(ctx, credentials("bob", "secret"))
		assert.ErrorIs(t, err, ErrUserIsNotExist)

		_, err = auth.GetUser(ctx, "bob")
		assert.ErrorIs(t, err, ErrUserIsNotExist)
	})

	t.Run("get user", func(t *testing.T) {
		user, err := auth.GetUser(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Login)
		assert.NotEqual(t, "secret", user.Hash)
	})

	t.Run("empty credentials", func(t *testing.T) {
		assert.ErrorIs(t, auth.Register(ctx, credentials("", "secret")), ErrEmptyCredentials)
		assert.ErrorIs(t, auth.Login(ctx, models.UnknownUser{}), ErrEmptyCredentials)
	})
}
