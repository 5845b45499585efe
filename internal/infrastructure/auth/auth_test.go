package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/you/safetyauth/domain"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testSnapshot() domain.IdentitySnapshot {
	return domain.IdentitySnapshot{
		PrincipalID: 42,
		Identity:    "worker-42",
		Name:        "Kim",
		Role:        domain.RoleManager,
		CompanyID:   1,
		FactoryID:   10,
		MenuIDs:     []uint{3, 7},
		Status:      domain.StatusActive,
	}
}

func TestNewJWTSigner(t *testing.T) {
	_, err := NewJWTSigner("short", "safetyauth", time.Minute)
	assert.Error(t, err)

	_, err = NewJWTSigner(testSecret, "safetyauth", 0)
	assert.Error(t, err)

	s, err := NewJWTSigner(testSecret, "safetyauth", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, s.AccessTTL())
}

func TestJWTSigner_RoundTrip(t *testing.T) {
	signer, err := NewJWTSigner(testSecret, "safetyauth", 15*time.Minute)
	require.NoError(t, err)

	token, err := signer.Sign(testSnapshot())
	require.NoError(t, err)

	claims, err := signer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, testSnapshot(), claims.Snapshot())
	assert.Equal(t, domain.ClaimsVersion, claims.Version)
	assert.Equal(t, "worker-42", claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestJWTSigner_Expired(t *testing.T) {
	issued := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	signer, err := NewJWTSigner(testSecret, "safetyauth", 15*time.Minute)
	require.NoError(t, err)
	signer.WithClock(func() time.Time { return issued })

	token, err := signer.Sign(testSnapshot())
	require.NoError(t, err)

	signer.WithClock(func() time.Time { return issued.Add(16 * time.Minute) })
	_, err = signer.Parse(token)
	assert.ErrorIs(t, err, domain.ErrTokenExpired)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	// the subject is still readable for renewal
	claims, err := signer.ParseIgnoringExpiry(token)
	require.NoError(t, err)
	assert.Equal(t, "worker-42", claims.Subject)
	assert.Equal(t, uint(42), claims.PrincipalID)
}

func TestJWTSigner_Rejects(t *testing.T) {
	signer, err := NewJWTSigner(testSecret, "safetyauth", time.Minute)
	require.NoError(t, err)
	other, err := NewJWTSigner("ffffffffffffffffffffffffffffffff", "safetyauth", time.Minute)
	require.NoError(t, err)
	foreignIssuer, err := NewJWTSigner(testSecret, "someone-else", time.Minute)
	require.NoError(t, err)

	wrongKey, _ := other.Sign(testSnapshot())
	wrongIssuer, _ := foreignIssuer.Sign(testSnapshot())

	stale := domain.NewAccessClaims(testSnapshot())
	stale.Version = domain.ClaimsVersion + 1
	stale.Issuer = "safetyauth"
	stale.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Minute))
	staleVersion, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, stale).SignedString([]byte(testSecret))

	noneAlg, _ := jwt.NewWithClaims(jwt.SigningMethodNone, domain.NewAccessClaims(testSnapshot())).
		SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not.a.jwt"},
		{"empty", ""},
		{"wrong key", wrongKey},
		{"wrong issuer", wrongIssuer},
		{"unknown claims version", staleVersion},
		{"alg none", noneAlg},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := signer.Parse(tt.token)
			if !errors.Is(err, domain.ErrTokenInvalid) {
				t.Errorf("Parse: expected ErrTokenInvalid, got %v", err)
			}
			_, err = signer.ParseIgnoringExpiry(tt.token)
			if !errors.Is(err, domain.ErrTokenInvalid) {
				t.Errorf("ParseIgnoringExpiry: expected ErrTokenInvalid, got %v", err)
			}
		})
	}
}

func TestOpaqueToken(t *testing.T) {
	raw, hash, err := NewOpaqueToken()
	require.NoError(t, err)
	assert.Len(t, raw, 64)
	assert.Equal(t, HashToken(raw), hash)
	assert.NotEqual(t, raw, hash)

	raw2, _, err := NewOpaqueToken()
	require.NoError(t, err)
	assert.NotEqual(t, raw, raw2)
}

func TestPasswordService(t *testing.T) {
	svc := NewPasswordServiceWithCost(bcrypt.MinCost)

	hash, err := svc.Hash("s3cret-pass")
	require.NoError(t, err)
	assert.True(t, svc.Verify(hash, "s3cret-pass"))
	assert.False(t, svc.Verify(hash, "wrong"))
	assert.False(t, svc.Verify("not-a-hash", "s3cret-pass"))
}

func TestCasbinService_DefaultModel(t *testing.T) {
	e, err := NewMemoryEnforcer()
	require.NoError(t, err)

	_, err = e.AddPolicy("role_ADMIN", "/admin/*", "(GET|POST|DELETE)")
	require.NoError(t, err)
	_, err = e.AddPolicy("role_MANAGER", "menu:3", "view")
	require.NoError(t, err)

	ok, err := e.Enforce("role_ADMIN", "/admin/menus", "POST")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.Enforce("role_MANAGER", "/admin/menus", "GET")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = e.Enforce("role_MANAGER", "menu:3", "view")
	require.NoError(t, err)
	assert.True(t, ok)
}
