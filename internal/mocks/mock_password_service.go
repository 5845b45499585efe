package mocks

import "github.com/you/safetyauth/domain"

// MockPasswordService implements domain.PasswordService interface for testing.
// The default hash of p is "hashed_" + p.
type MockPasswordService struct {
	HashFunc    func(password string) (string, error)
	VerifyFunc  func(hashedPassword, password string) bool
	VerifyCalls int
}

// NewMockPasswordService creates a new MockPasswordService with default behaviors
func NewMockPasswordService() *MockPasswordService {
	return &MockPasswordService{}
}

// Hash generates a hash for the given password
func (m *MockPasswordService) Hash(password string) (string, error) {
	if m.HashFunc != nil {
		return m.HashFunc(password)
	}
	return "hashed_" + password, nil
}

// Verify verifies a password against its hash
func (m *MockPasswordService) Verify(hashedPassword, password string) bool {
	m.VerifyCalls++
	if m.VerifyFunc != nil {
		return m.VerifyFunc(hashedPassword, password)
	}
	return hashedPassword == "hashed_"+password
}

// Compile-time interface compliance verification
var _ domain.PasswordService = (*MockPasswordService)(nil)
