package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/you/safetyauth/domain"
)

// JWTSigner signs and parses HS256 access tokens carrying domain.AccessClaims
type JWTSigner struct {
	secretKey []byte
	issuer    string
	accessTTL time.Duration
	now       func() time.Time
}

// NewJWTSigner creates a signer. The secret must be at least 256 bits.
func NewJWTSigner(secretKey, issuer string, accessTTL time.Duration) (*JWTSigner, error) {
	if len(secretKey) < 32 {
		return nil, errors.New("jwt secret must be at least 32 bytes")
	}
	if accessTTL <= 0 {
		return nil, errors.New("access TTL must be positive")
	}
	return &JWTSigner{
		secretKey: []byte(secretKey),
		issuer:    issuer,
		accessTTL: accessTTL,
		now:       time.Now,
	}, nil
}

// WithClock replaces the time source, for tests
func (j *JWTSigner) WithClock(now func() time.Time) *JWTSigner {
	j.now = now
	return j
}

// AccessTTL returns the lifetime of issued tokens
func (j *JWTSigner) AccessTTL() time.Duration {
	return j.accessTTL
}

// Sign issues a token for the snapshot
func (j *JWTSigner) Sign(snapshot domain.IdentitySnapshot) (string, error) {
	now := j.now()
	claims := domain.NewAccessClaims(snapshot)
	claims.Issuer = j.issuer
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(j.accessTTL))
	claims.ID = uuid.NewString()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secretKey)
}

// Parse verifies signature, issuer and expiry
func (j *JWTSigner) Parse(tokenString string) (*domain.AccessClaims, error) {
	claims := &domain.AccessClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, j.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(j.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}
	if claims.Version != domain.ClaimsVersion {
		return nil, domain.ErrTokenInvalid
	}
	return claims, nil
}

// ParseIgnoringExpiry verifies the signature and the issuer but accepts an
// expired token, so renewal and revocation can still identify its subject.
func (j *JWTSigner) ParseIgnoringExpiry(tokenString string) (*domain.AccessClaims, error) {
	claims := &domain.AccessClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, j.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}
	if claims.Issuer != j.issuer || claims.Version != domain.ClaimsVersion {
		return nil, domain.ErrTokenInvalid
	}
	return claims, nil
}

func (j *JWTSigner) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, domain.ErrTokenInvalid
	}
	return j.secretKey, nil
}
