package services

import (
	"context"

	"github.com/you/safetyauth/domain"
)

// IdentityBinderImpl implements domain.IdentityBinder on top of token
// validation. The caller is bound from the token alone; no request
// parameter can override it.
type IdentityBinderImpl struct {
	tokens domain.TokenService
}

// NewIdentityBinder creates a new identity binder
func NewIdentityBinder(tokens domain.TokenService) *IdentityBinderImpl {
	return &IdentityBinderImpl{tokens: tokens}
}

// CurrentCaller implements domain.IdentityBinder
func (b *IdentityBinderImpl) CurrentCaller(ctx context.Context, token string) (domain.CallerIdentity, error) {
	if token == "" {
		return domain.CallerIdentity{}, domain.ErrUnauthenticated
	}
	claims, err := b.tokens.Validate(ctx, token)
	if err != nil {
		return domain.CallerIdentity{}, err
	}
	if claims.PrincipalID == 0 || !claims.Role.Valid() {
		return domain.CallerIdentity{}, domain.ErrTokenInvalid
	}
	return claims.Caller(), nil
}

var _ domain.IdentityBinder = (*IdentityBinderImpl)(nil)
