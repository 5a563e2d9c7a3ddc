package auth_test

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/techexlab/pois/internal/auth"
	"github.com/techexlab/pois/internal/store"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := auth.HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.True(t, auth.VerifyPassword("correct horse battery staple", hash))
	require.False(t, auth.VerifyPassword("wrong password", hash))
}

func TestVerifyPassword_malformedHash(t *testing.T) {
	require.False(t, auth.VerifyPassword("anything", "not-a-hash"))
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open("file::memory:?cache=shared", 1)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	svc := auth.NewService(s.DB(), "test-secret")
	_, err = svc.CreateUser(ctx, "alice", "hunter2", auth.RoleAdmin, nil)
	require.NoError(t, err)

	u, token, err := svc.Authenticate(ctx, "alice", "hunter2")
	require.NoError(t, err)
	require.Equal(t, "alice", u.Username)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(ctx, token)
	require.NoError(t, err)
	require.Equal(t, "alice", claims.Username)
	require.Equal(t, auth.RoleAdmin, claims.Role)
	require.Equal(t, auth.TokenTypeSession, claims.TokenType)
}

func TestAuthenticate_wrongPassword(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open("file::memory:?cache=shared", 1)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	svc := auth.NewService(s.DB(), "test-secret")
	_, err = svc.CreateUser(ctx, "bob", "rightpass", auth.RoleUser, nil)
	require.NoError(t, err)

	_, _, err = svc.Authenticate(ctx, "bob", "wrongpass")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestAuthenticate_unknownUser(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open("file::memory:?cache=shared", 1)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	svc := auth.NewService(s.DB(), "test-secret")
	_, _, err = svc.Authenticate(ctx, "nobody", "whatever")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestAPIToken_createValidateRevoke(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open("file::memory:?cache=shared", 1)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	svc := auth.NewService(s.DB(), "test-secret")
	u, err := svc.CreateUser(ctx, "carol", "pw", auth.RoleUser, nil)
	require.NoError(t, err)

	token, err := svc.CreateAPIToken(ctx, "ci-token", u.ID, u.Username, u.Role, nil)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(ctx, token)
	require.NoError(t, err)
	require.Equal(t, auth.TokenTypeAPI, claims.TokenType)

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	require.NoError(t, err)

	require.NoError(t, svc.RevokeAPIToken(ctx, id))

	_, err = svc.ValidateToken(ctx, token)
	require.ErrorIs(t, err, auth.ErrTokenRevoked)
}
