package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/safetyauth/domain"
)

func TestTokenRepositoryImpl_RefreshTokenLifecycle(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTokenRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.CreateRefreshToken(ctx, &domain.RefreshToken{
		TokenHash: "hash-a", PrincipalID: 7, ExpiresAt: now.Add(time.Hour), CreatedAt: now,
	}))
	require.NoError(t, repo.CreateRefreshToken(ctx, &domain.RefreshToken{
		TokenHash: "hash-b", PrincipalID: 7, ExpiresAt: now.Add(-time.Minute), CreatedAt: now,
	}))

	found, err := repo.FindRefreshToken(ctx, "hash-a")
	require.NoError(t, err)
	assert.Equal(t, uint(7), found.PrincipalID)
	assert.False(t, found.Expired(now))

	_, err = repo.FindRefreshToken(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrRefreshTokenInvalid)

	n, err := repo.DeleteExpiredRefreshTokens(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.FindRefreshToken(ctx, "hash-b")
	assert.ErrorIs(t, err, domain.ErrRefreshTokenInvalid)
}

func TestTokenRepositoryImpl_RevokeSession(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTokenRepository(db)
	ctx := context.Background()
	exp := time.Now().UTC().Add(time.Hour)

	for _, h := range []string{"r1", "r2"} {
		require.NoError(t, repo.CreateRefreshToken(ctx, &domain.RefreshToken{TokenHash: h, PrincipalID: 1, ExpiresAt: exp}))
	}
	require.NoError(t, repo.CreateRefreshToken(ctx, &domain.RefreshToken{TokenHash: "other", PrincipalID: 2, ExpiresAt: exp}))

	require.NoError(t, repo.RevokeSession(ctx, "access-hash", 1))
	// revoking twice is a no-op
	require.NoError(t, repo.RevokeSession(ctx, "access-hash", 1))

	blacklisted, err := repo.IsBlacklisted(ctx, "access-hash")
	require.NoError(t, err)
	assert.True(t, blacklisted)

	for _, h := range []string{"r1", "r2"} {
		_, err := repo.FindRefreshToken(ctx, h)
		assert.ErrorIs(t, err, domain.ErrRefreshTokenInvalid)
	}
	_, err = repo.FindRefreshToken(ctx, "other")
	assert.NoError(t, err)
}

func TestTokenRepositoryImpl_DeleteBlacklistedBefore(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTokenRepository(db)
	ctx := context.Background()

	old := time.Now().UTC().Add(-48 * time.Hour)
	require.NoError(t, db.Create(&DBBlacklistedToken{TokenHash: "old", CreatedAt: old}).Error)
	require.NoError(t, db.Create(&DBBlacklistedToken{TokenHash: "fresh", CreatedAt: time.Now().UTC()}).Error)

	n, err := repo.DeleteBlacklistedBefore(ctx, time.Now().UTC().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	ok, err := repo.IsBlacklisted(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.IsBlacklisted(ctx, "old")
	require.NoError(t, err)
	assert.False(t, ok)
}
