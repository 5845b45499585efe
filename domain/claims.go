package domain

import "github.com/golang-jwt/jwt/v5"

// ClaimsVersion is bumped whenever AccessClaims changes shape
const ClaimsVersion = 1

// AccessClaims is the claim set of an access token. Fields are named
// explicitly so issuer and consumers agree on the schema.
type AccessClaims struct {
	Version     int           `json:"ver"`
	PrincipalID uint          `json:"pid"`
	Name        string        `json:"name,omitempty"`
	Role        Role          `json:"role"`
	CompanyID   uint          `json:"cid"`
	FactoryID   uint          `json:"fid"`
	MenuIDs     []uint        `json:"menus"`
	Status      AccountStatus `json:"status"`
	jwt.RegisteredClaims
}

// NewAccessClaims flattens a snapshot into claims. Registered claims other
// than the subject are filled in by the signer.
func NewAccessClaims(s IdentitySnapshot) *AccessClaims {
	menus := s.MenuIDs
	if menus == nil {
		menus = []uint{}
	}
	return &AccessClaims{
		Version:     ClaimsVersion,
		PrincipalID: s.PrincipalID,
		Name:        s.Name,
		Role:        s.Role,
		CompanyID:   s.CompanyID,
		FactoryID:   s.FactoryID,
		MenuIDs:     menus,
		Status:      s.Status,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: s.Identity,
		},
	}
}

// Snapshot rebuilds the identity snapshot carried by the claims
func (c *AccessClaims) Snapshot() IdentitySnapshot {
	return IdentitySnapshot{
		PrincipalID: c.PrincipalID,
		Identity:    c.Subject,
		Name:        c.Name,
		Role:        c.Role,
		CompanyID:   c.CompanyID,
		FactoryID:   c.FactoryID,
		MenuIDs:     c.MenuIDs,
		Status:      c.Status,
	}
}

// Caller converts the claims into the identity used by authorization
func (c *AccessClaims) Caller() CallerIdentity {
	return CallerIdentity{
		PrincipalID: c.PrincipalID,
		Identity:    c.Subject,
		Role:        c.Role,
		CompanyID:   c.CompanyID,
		FactoryID:   c.FactoryID,
		MenuIDs:     c.MenuIDs,
	}
}
