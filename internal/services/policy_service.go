package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/casbin/casbin/v2"

	"github.com/you/safetyauth/domain"
)

const (
	menuObjectPrefix = "menu:"
	menuAction       = "view"
)

// CasbinEnforcerWrapper wraps the real Casbin enforcer to implement our interface
type CasbinEnforcerWrapper struct {
	enforcer *casbin.Enforcer
}

// NewCasbinEnforcerWrapper creates a wrapper for the real Casbin enforcer
func NewCasbinEnforcerWrapper(enforcer *casbin.Enforcer) domain.CasbinEnforcer {
	return &CasbinEnforcerWrapper{enforcer: enforcer}
}

func (w *CasbinEnforcerWrapper) AddPolicy(params ...interface{}) (bool, error) {
	return w.enforcer.AddPolicy(params...)
}

func (w *CasbinEnforcerWrapper) RemovePolicy(params ...interface{}) (bool, error) {
	return w.enforcer.RemovePolicy(params...)
}

func (w *CasbinEnforcerWrapper) Enforce(rvals ...interface{}) (bool, error) {
	return w.enforcer.Enforce(rvals...)
}

func (w *CasbinEnforcerWrapper) GetPolicy() ([][]string, error) {
	return w.enforcer.GetPolicy()
}

func (w *CasbinEnforcerWrapper) GetFilteredPolicy(fieldIndex int, fieldValues ...string) ([][]string, error) {
	return w.enforcer.GetFilteredPolicy(fieldIndex, fieldValues...)
}

func (w *CasbinEnforcerWrapper) SavePolicy() error {
	return w.enforcer.SavePolicy()
}

// PolicyServiceImpl implements domain.PolicyService using Casbin. Menu grants
// are stored as (role_<ROLE>, menu:<id>, view).
type PolicyServiceImpl struct {
	enforcer domain.CasbinEnforcer
}

// NewPolicyService creates a new policy service
func NewPolicyService(enforcer *casbin.Enforcer) *PolicyServiceImpl {
	return &PolicyServiceImpl{
		enforcer: NewCasbinEnforcerWrapper(enforcer),
	}
}

// NewPolicyServiceWithEnforcer creates a new policy service with a CasbinEnforcer interface (for testing)
func NewPolicyServiceWithEnforcer(enforcer domain.CasbinEnforcer) *PolicyServiceImpl {
	return &PolicyServiceImpl{
		enforcer: enforcer,
	}
}

// Enforcer exposes the underlying enforcer for route policy middleware
func (p *PolicyServiceImpl) Enforcer() domain.CasbinEnforcer {
	return p.enforcer
}

// RoleSubject is the Casbin subject of a role
func RoleSubject(role domain.Role) string {
	return "role_" + string(role)
}

// AccessibleMenuIDs implements domain.MenuProjector
func (p *PolicyServiceImpl) AccessibleMenuIDs(_ context.Context, role domain.Role) ([]uint, error) {
	rules, err := p.enforcer.GetFilteredPolicy(0, RoleSubject(role))
	if err != nil {
		return nil, fmt.Errorf("failed to read menu grants: %w", err)
	}

	ids := make([]uint, 0, len(rules))
	for _, rule := range rules {
		if len(rule) < 3 || rule[2] != menuAction || !strings.HasPrefix(rule[1], menuObjectPrefix) {
			continue
		}
		id, err := strconv.ParseUint(strings.TrimPrefix(rule[1], menuObjectPrefix), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// GrantMenu implements domain.PolicyService
func (p *PolicyServiceImpl) GrantMenu(role domain.Role, menuID uint) error {
	if _, err := p.enforcer.AddPolicy(RoleSubject(role), menuObject(menuID), menuAction); err != nil {
		return err
	}
	return p.enforcer.SavePolicy()
}

// RevokeMenu implements domain.PolicyService
func (p *PolicyServiceImpl) RevokeMenu(role domain.Role, menuID uint) error {
	if _, err := p.enforcer.RemovePolicy(RoleSubject(role), menuObject(menuID), menuAction); err != nil {
		return err
	}
	return p.enforcer.SavePolicy()
}

// CheckPermission implements domain.PolicyService
func (p *PolicyServiceImpl) CheckPermission(role domain.Role, resource, action string) (bool, error) {
	return p.enforcer.Enforce(RoleSubject(role), resource, action)
}

// GetPolicies implements domain.PolicyService
func (p *PolicyServiceImpl) GetPolicies() [][]string {
	policies, _ := p.enforcer.GetPolicy()
	return policies
}

// SeedDefaults installs the admin route policy when it is missing
func (p *PolicyServiceImpl) SeedDefaults() error {
	ok, err := p.enforcer.AddPolicy(RoleSubject(domain.RoleAdmin), "/admin/*", "(GET)|(POST)|(DELETE)")
	if err != nil {
		return fmt.Errorf("failed to seed admin policy: %w", err)
	}
	if !ok {
		return nil
	}
	return p.enforcer.SavePolicy()
}

func menuObject(id uint) string {
	return menuObjectPrefix + strconv.FormatUint(uint64(id), 10)
}

var _ domain.PolicyService = (*PolicyServiceImpl)(nil)
