package logging

import (
	"context"

	"go.uber.org/zap"

	"github.com/you/safetyauth/domain"
)

// AuditLogger writes audit events as structured log lines on a dedicated
// "audit" logger.
type AuditLogger struct {
	logger *zap.Logger
}

// NewAuditLogger creates an audit logger. A nil logger falls back to zap.L().
func NewAuditLogger(logger *zap.Logger) *AuditLogger {
	if logger == nil {
		logger = zap.L()
	}
	return &AuditLogger{logger: logger.Named("audit")}
}

// LogEvent implements domain.AuditLogger
func (a *AuditLogger) LogEvent(_ context.Context, event *domain.AuditEvent) {
	if event == nil {
		return
	}
	fields := []zap.Field{
		zap.String("event_type", string(event.EventType)),
		zap.Uint("principal_id", event.PrincipalID),
		zap.Bool("success", event.Success),
		zap.Time("timestamp", event.Timestamp),
	}
	if event.Identity != "" {
		fields = append(fields, zap.String("identity", event.Identity))
	}
	if event.CompanyID != 0 {
		fields = append(fields, zap.Uint("company_id", event.CompanyID))
	}
	if event.FactoryID != 0 {
		fields = append(fields, zap.Uint("factory_id", event.FactoryID))
	}
	if event.ErrorMsg != "" {
		fields = append(fields, zap.String("error", event.ErrorMsg))
	}
	if len(event.Metadata) > 0 {
		fields = append(fields, zap.Any("metadata", event.Metadata))
	}

	if event.Success {
		a.logger.Info("audit", fields...)
		return
	}
	a.logger.Warn("audit", fields...)
}

var _ domain.AuditLogger = (*AuditLogger)(nil)
