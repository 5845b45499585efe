package mocks

import (
	"strings"

	"github.com/you/safetyauth/domain"
)

// MockCasbinEnforcer implements the CasbinEnforcer interface for testing.
// By default it keeps policies in memory and enforces by exact match, with a
// trailing "*" on the object acting as a prefix wildcard.
type MockCasbinEnforcer struct {
	AddPolicyFunc         func(params ...interface{}) (bool, error)
	RemovePolicyFunc      func(params ...interface{}) (bool, error)
	EnforceFunc           func(rvals ...interface{}) (bool, error)
	GetPolicyFunc         func() ([][]string, error)
	GetFilteredPolicyFunc func(fieldIndex int, fieldValues ...string) ([][]string, error)
	SavePolicyFunc        func() error
	SaveCalls             int
	policies              [][]string
}

// Compile-time interface compliance verification
var _ domain.CasbinEnforcer = (*MockCasbinEnforcer)(nil)

// NewMockCasbinEnforcer creates a new MockCasbinEnforcer with no policies
func NewMockCasbinEnforcer() *MockCasbinEnforcer {
	return &MockCasbinEnforcer{}
}

// AddPolicy adds a new policy rule
func (m *MockCasbinEnforcer) AddPolicy(params ...interface{}) (bool, error) {
	if m.AddPolicyFunc != nil {
		return m.AddPolicyFunc(params...)
	}
	rule := toStrings(params)
	if m.indexOf(rule) >= 0 {
		return false, nil
	}
	m.policies = append(m.policies, rule)
	return true, nil
}

// RemovePolicy removes a policy rule
func (m *MockCasbinEnforcer) RemovePolicy(params ...interface{}) (bool, error) {
	if m.RemovePolicyFunc != nil {
		return m.RemovePolicyFunc(params...)
	}
	i := m.indexOf(toStrings(params))
	if i < 0 {
		return false, nil
	}
	m.policies = append(m.policies[:i], m.policies[i+1:]...)
	return true, nil
}

// Enforce checks if a request should be allowed
func (m *MockCasbinEnforcer) Enforce(rvals ...interface{}) (bool, error) {
	if m.EnforceFunc != nil {
		return m.EnforceFunc(rvals...)
	}
	req := toStrings(rvals)
	if len(req) < 3 {
		return false, nil
	}
	for _, p := range m.policies {
		if len(p) < 3 || p[0] != req[0] {
			continue
		}
		objOK := p[1] == req[1] || (strings.HasSuffix(p[1], "*") && strings.HasPrefix(req[1], strings.TrimSuffix(p[1], "*")))
		actOK := p[2] == req[2] || strings.Contains(p[2], req[2])
		if objOK && actOK {
			return true, nil
		}
	}
	return false, nil
}

// GetPolicy returns all policies
func (m *MockCasbinEnforcer) GetPolicy() ([][]string, error) {
	if m.GetPolicyFunc != nil {
		return m.GetPolicyFunc()
	}
	return m.copyPolicies(func([]string) bool { return true }), nil
}

// GetFilteredPolicy returns the policies whose fields match from fieldIndex on
func (m *MockCasbinEnforcer) GetFilteredPolicy(fieldIndex int, fieldValues ...string) ([][]string, error) {
	if m.GetFilteredPolicyFunc != nil {
		return m.GetFilteredPolicyFunc(fieldIndex, fieldValues...)
	}
	return m.copyPolicies(func(p []string) bool {
		for i, v := range fieldValues {
			if v == "" {
				continue
			}
			if fieldIndex+i >= len(p) || p[fieldIndex+i] != v {
				return false
			}
		}
		return true
	}), nil
}

// SavePolicy saves all policies
func (m *MockCasbinEnforcer) SavePolicy() error {
	m.SaveCalls++
	if m.SavePolicyFunc != nil {
		return m.SavePolicyFunc()
	}
	return nil
}

// SetPolicies sets the internal policies (test helper)
func (m *MockCasbinEnforcer) SetPolicies(policies [][]string) {
	m.policies = nil
	for _, p := range policies {
		m.policies = append(m.policies, append([]string(nil), p...))
	}
}

func (m *MockCasbinEnforcer) indexOf(rule []string) int {
	for i, p := range m.policies {
		if strings.Join(p, "\x00") == strings.Join(rule, "\x00") {
			return i
		}
	}
	return -1
}

func (m *MockCasbinEnforcer) copyPolicies(keep func([]string) bool) [][]string {
	out := [][]string{}
	for _, p := range m.policies {
		if keep(p) {
			out = append(out, append([]string(nil), p...))
		}
	}
	return out
}

func toStrings(params []interface{}) []string {
	out := make([]string, 0, len(params))
	for _, p := range params {
		s, _ := p.(string)
		out = append(out, s)
	}
	return out
}
