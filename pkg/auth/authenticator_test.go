package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextAuthenticatorAnonymous(t *testing.T) {
	user, err := ContextAuthenticator{}.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestContextAuthenticatorSeededUser(t *testing.T) {
	ctx := WithUser(context.Background(), User{ID: "u-1", Email: "ola@example.no"})

	user, err := ContextAuthenticator{}.CurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "u-1", user.ID)
}

func TestUserFromContextIgnoresBlankID(t *testing.T) {
	ctx := WithUser(context.Background(), User{})
	_, ok := UserFromContext(ctx)
	assert.False(t, ok)
}
