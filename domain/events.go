package domain

import (
	"context"
	"time"
)

// AuditEventType defines the type of audit event
type AuditEventType string

const (
	// Authentication events
	LoginEvent            AuditEventType = "LOGIN"
	LoginFailureEvent     AuditEventType = "LOGIN_FAILED"
	AccountLockedEvent    AuditEventType = "ACCOUNT_LOCKED"
	SessionRevokedEvent   AuditEventType = "SESSION_REVOKED"
	TokenRenewedEvent     AuditEventType = "TOKEN_RENEWED"
	PasswordResetEvent    AuditEventType = "PASSWORD_RESET"
	PasswordUpdatedEvent  AuditEventType = "PASSWORD_UPDATED"
	TwoFactorRequestEvent AuditEventType = "TWO_FACTOR_REQUESTED"
	TwoFactorFailureEvent AuditEventType = "TWO_FACTOR_FAILED"

	// Authorization events
	AccessDeniedEvent AuditEventType = "ACCESS_DENIED"
)

// AuditEvent represents a security relevant event
type AuditEvent struct {
	EventType   AuditEventType         `json:"event_type"`
	PrincipalID uint                   `json:"principal_id"`
	Identity    string                 `json:"identity,omitempty"`
	CompanyID   uint                   `json:"company_id,omitempty"`
	FactoryID   uint                   `json:"factory_id,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	ErrorMsg    string                 `json:"error_msg,omitempty"`
	Success     bool                   `json:"success"`
}

// AuditLogger records audit events
type AuditLogger interface {
	LogEvent(ctx context.Context, event *AuditEvent)
}

// NewAuditEvent creates a new audit event with common fields populated
func NewAuditEvent(eventType AuditEventType, principalID uint) *AuditEvent {
	return &AuditEvent{
		EventType:   eventType,
		PrincipalID: principalID,
		Timestamp:   time.Now().UTC(),
		Metadata:    make(map[string]interface{}),
		Success:     true,
	}
}

// WithError sets error information on the audit event
func (e *AuditEvent) WithError(err error) *AuditEvent {
	e.Success = false
	if err != nil {
		e.ErrorMsg = err.Error()
	}
	return e
}

// WithIdentity sets the identity field
func (e *AuditEvent) WithIdentity(identity string) *AuditEvent {
	e.Identity = identity
	return e
}

// WithCaller copies the tenant fields of the caller
func (e *AuditEvent) WithCaller(c CallerIdentity) *AuditEvent {
	e.PrincipalID = c.PrincipalID
	e.Identity = c.Identity
	e.CompanyID = c.CompanyID
	e.FactoryID = c.FactoryID
	return e
}

// WithMetadata adds metadata to the event
func (e *AuditEvent) WithMetadata(key string, value interface{}) *AuditEvent {
	e.Metadata[key] = value
	return e
}
