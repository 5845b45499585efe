package mocks

import (
	"context"
	"sync"

	"github.com/you/safetyauth/domain"
)

// MockPrincipalRepository implements domain.PrincipalRepository for testing.
// Without overrides it serves the principals added with Add.
type MockPrincipalRepository struct {
	FindByIdentityFunc     func(ctx context.Context, identity string) (*domain.Principal, error)
	FindByIDFunc           func(ctx context.Context, id uint) (*domain.Principal, error)
	FindByTenantRoleFunc   func(ctx context.Context, companyID uint, role domain.Role) ([]*domain.Principal, error)
	UpdateAccountStateFunc func(ctx context.Context, id uint, state domain.AccountState) error
	UpdateCredentialFunc   func(ctx context.Context, id uint, passwordHash string, state domain.AccountState) error
	ApplyAccountEventFunc  func(ctx context.Context, id uint, ev domain.AccountEvent) (domain.Transition, error)

	mu         sync.Mutex
	principals map[uint]*domain.Principal
}

// NewMockPrincipalRepository creates a new MockPrincipalRepository
func NewMockPrincipalRepository(principals ...*domain.Principal) *MockPrincipalRepository {
	m := &MockPrincipalRepository{principals: make(map[uint]*domain.Principal)}
	for _, p := range principals {
		m.Add(p)
	}
	return m
}

// Add stores a copy of p
func (m *MockPrincipalRepository) Add(p *domain.Principal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.principals[p.ID] = &cp
}

// Get returns a copy of the stored principal (test helper)
func (m *MockPrincipalRepository) Get(id uint) *domain.Principal {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.principals[id]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

// FindByIdentity finds a principal by identity
func (m *MockPrincipalRepository) FindByIdentity(ctx context.Context, identity string) (*domain.Principal, error) {
	if m.FindByIdentityFunc != nil {
		return m.FindByIdentityFunc(ctx, identity)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.principals {
		if p.Identity == identity {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrPrincipalNotFound
}

// FindByID finds a principal by id
func (m *MockPrincipalRepository) FindByID(ctx context.Context, id uint) (*domain.Principal, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	if p := m.Get(id); p != nil {
		return p, nil
	}
	return nil, domain.ErrPrincipalNotFound
}

// FindByTenantRole lists principals of a company with the given role
func (m *MockPrincipalRepository) FindByTenantRole(ctx context.Context, companyID uint, role domain.Role) ([]*domain.Principal, error) {
	if m.FindByTenantRoleFunc != nil {
		return m.FindByTenantRoleFunc(ctx, companyID, role)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Principal
	for _, p := range m.principals {
		if p.CompanyID == companyID && p.Role == role {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

// UpdateAccountState stores the new status and counter
func (m *MockPrincipalRepository) UpdateAccountState(ctx context.Context, id uint, state domain.AccountState) error {
	if m.UpdateAccountStateFunc != nil {
		return m.UpdateAccountStateFunc(ctx, id, state)
	}
	return m.update(id, func(p *domain.Principal) {
		p.Status = state.Status
		p.FailedLoginAttempts = state.FailedLoginAttempts
	})
}

// ApplyAccountEvent runs the state machine on the stored principal
func (m *MockPrincipalRepository) ApplyAccountEvent(ctx context.Context, id uint, ev domain.AccountEvent) (domain.Transition, error) {
	if m.ApplyAccountEventFunc != nil {
		return m.ApplyAccountEventFunc(ctx, id, ev)
	}
	var tr domain.Transition
	err := m.update(id, func(p *domain.Principal) {
		tr = domain.NextState(domain.AccountState{Status: p.Status, FailedLoginAttempts: p.FailedLoginAttempts}, ev)
		p.Status = tr.State.Status
		p.FailedLoginAttempts = tr.State.FailedLoginAttempts
	})
	return tr, err
}

// UpdateCredential stores the new hash, status and counter
func (m *MockPrincipalRepository) UpdateCredential(ctx context.Context, id uint, passwordHash string, state domain.AccountState) error {
	if m.UpdateCredentialFunc != nil {
		return m.UpdateCredentialFunc(ctx, id, passwordHash, state)
	}
	return m.update(id, func(p *domain.Principal) {
		p.PasswordHash = passwordHash
		p.Status = state.Status
		p.FailedLoginAttempts = state.FailedLoginAttempts
	})
}

func (m *MockPrincipalRepository) update(id uint, fn func(*domain.Principal)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.principals[id]
	if !ok {
		return domain.ErrPrincipalNotFound
	}
	fn(p)
	return nil
}

// Compile-time interface compliance verification
var _ domain.PrincipalRepository = (*MockPrincipalRepository)(nil)
