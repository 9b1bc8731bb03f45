package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Renal37/bankaccount/internal/models"
)

func TestUsers(t *testing.T) {
	ctx := context.Background()
	users := NewUsers()

	require.NoError(t, users.CreateUser(ctx, models.User{Login: "alice", Hash: "h1"}))
	require.NoError(t, users.CreateUser(ctx, models.User{Login: "bob", Hash: "h2"}))

	err := users.CreateUser(ctx, models.User{Login: "alice", Hash: "h3"})
	assert.ErrorIs(t, err, models.ErrDuplicateUser)

	user, err := users.FindUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, &models.User{ID: "1", Login: "alice", Hash: "h1"}, user)

	user, err = users.FindUser(ctx, "carol")
	assert.NoError(t, err)
	assert.Nil(t, user)
}
