package services

import (
	"context"
	"fmt"

	"github.com/you/safetyauth/domain"
)

// AccessValidatorImpl implements domain.AccessValidator
type AccessValidatorImpl struct {
	resolver domain.OwnershipResolver
	audit    domain.AuditLogger
}

// NewAccessValidator creates a new tenant access validator
func NewAccessValidator(resolver domain.OwnershipResolver, audit domain.AuditLogger) *AccessValidatorImpl {
	return &AccessValidatorImpl{resolver: resolver, audit: audit}
}

// Authorize implements domain.AccessValidator. It returns the subset of ids
// the caller may act on, in request order with duplicates removed. Callers
// must continue with the returned ids only.
func (v *AccessValidatorImpl) Authorize(ctx context.Context, caller domain.CallerIdentity, kind domain.EntityKind, ids []uint) ([]uint, error) {
	parsed, ok := domain.ParseEntityKind(string(kind))
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownEntity, kind)
	}
	kind = parsed
	requested := uniqueIDs(ids)
	if len(requested) == 0 {
		return []uint{}, nil
	}

	owned, err := v.resolver.Resolve(ctx, kind, requested)
	if err != nil {
		return nil, err
	}

	if caller.IsAdmin() {
		for _, id := range requested {
			if _, ok := owned[id]; !ok {
				return nil, fmt.Errorf("%w: %s %d", domain.ErrEntityNotFound, kind, id)
			}
		}
		return requested, nil
	}

	allowed := make([]uint, 0, len(requested))
	for _, id := range requested {
		if reason := denyReason(caller, kind, owned, id); reason != "" {
			v.audit.LogEvent(ctx, domain.NewAuditEvent(domain.AccessDeniedEvent, caller.PrincipalID).
				WithCaller(caller).
				WithMetadata("entity_kind", string(kind)).
				WithMetadata("entity_id", id).
				WithMetadata("reason", reason).
				WithError(domain.ErrAccessDenied))
			continue
		}
		allowed = append(allowed, id)
	}

	if len(allowed) == 0 {
		return nil, domain.ErrAccessDenied
	}
	return allowed, nil
}

func denyReason(caller domain.CallerIdentity, kind domain.EntityKind, owned map[uint]domain.Ownership, id uint) string {
	o, ok := owned[id]
	switch {
	case !ok:
		return "not found"
	case !o.Resolved:
		return "ownership unresolved"
	case kind.CompanyScoped():
		if o.CompanyID != caller.CompanyID {
			return "company mismatch"
		}
	case o.FactoryID != caller.FactoryID:
		return "factory mismatch"
	}
	return ""
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

var _ domain.AccessValidator = (*AccessValidatorImpl)(nil)
