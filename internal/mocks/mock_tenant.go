package mocks

import (
	"context"

	"github.com/you/safetyauth/domain"
)

// MockTenantSettingReader implements domain.TenantSettingReader for testing.
// Companies without an entry have two-factor disabled.
type MockTenantSettingReader struct {
	FindByCompanyIDFunc func(ctx context.Context, companyID uint) (*domain.TenantSetting, error)
	Settings            map[uint]*domain.TenantSetting
}

// NewMockTenantSettingReader creates a new MockTenantSettingReader
func NewMockTenantSettingReader() *MockTenantSettingReader {
	return &MockTenantSettingReader{Settings: make(map[uint]*domain.TenantSetting)}
}

// EnableTwoFactor turns two-factor on for a company (test helper)
func (m *MockTenantSettingReader) EnableTwoFactor(companyID uint, method domain.TwoFactorMethod) {
	m.Settings[companyID] = &domain.TenantSetting{CompanyID: companyID, TwoFactorEnabled: true, TwoFactorMethod: method}
}

// FindByCompanyID returns the setting of a company
func (m *MockTenantSettingReader) FindByCompanyID(ctx context.Context, companyID uint) (*domain.TenantSetting, error) {
	if m.FindByCompanyIDFunc != nil {
		return m.FindByCompanyIDFunc(ctx, companyID)
	}
	if s, ok := m.Settings[companyID]; ok {
		cp := *s
		return &cp, nil
	}
	return &domain.TenantSetting{CompanyID: companyID}, nil
}

// MockOwnershipResolver implements domain.OwnershipResolver from a fixed table
type MockOwnershipResolver struct {
	ResolveFunc func(ctx context.Context, kind domain.EntityKind, ids []uint) (map[uint]domain.Ownership, error)
	Owners      map[domain.EntityKind]map[uint]domain.Ownership
}

// NewMockOwnershipResolver creates a new MockOwnershipResolver
func NewMockOwnershipResolver() *MockOwnershipResolver {
	return &MockOwnershipResolver{Owners: make(map[domain.EntityKind]map[uint]domain.Ownership)}
}

// Set registers the ownership of one entity (test helper)
func (m *MockOwnershipResolver) Set(kind domain.EntityKind, id uint, o domain.Ownership) {
	if m.Owners[kind] == nil {
		m.Owners[kind] = make(map[uint]domain.Ownership)
	}
	m.Owners[kind][id] = o
}

// Resolve returns the registered ownerships of ids
func (m *MockOwnershipResolver) Resolve(ctx context.Context, kind domain.EntityKind, ids []uint) (map[uint]domain.Ownership, error) {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, kind, ids)
	}
	out := make(map[uint]domain.Ownership)
	for _, id := range ids {
		if o, ok := m.Owners[kind][id]; ok {
			out[id] = o
		}
	}
	return out, nil
}

// MockMenuProjector implements domain.MenuProjector from a fixed table
type MockMenuProjector struct {
	AccessibleMenuIDsFunc func(ctx context.Context, role domain.Role) ([]uint, error)
	Menus                 map[domain.Role][]uint
}

// NewMockMenuProjector creates a new MockMenuProjector
func NewMockMenuProjector() *MockMenuProjector {
	return &MockMenuProjector{Menus: make(map[domain.Role][]uint)}
}

// AccessibleMenuIDs returns the menus registered for role
func (m *MockMenuProjector) AccessibleMenuIDs(ctx context.Context, role domain.Role) ([]uint, error) {
	if m.AccessibleMenuIDsFunc != nil {
		return m.AccessibleMenuIDsFunc(ctx, role)
	}
	return append([]uint{}, m.Menus[role]...), nil
}

// Compile-time interface compliance verification
var (
	_ domain.TenantSettingReader = (*MockTenantSettingReader)(nil)
	_ domain.OwnershipResolver   = (*MockOwnershipResolver)(nil)
	_ domain.MenuProjector       = (*MockMenuProjector)(nil)
)
