package mongo

import "context"

type AuditLoggerInterface interface {
	Record(ctx context.Context, entry *Entry) error
	Entries(ctx context.Context, entityID string, limit int64) ([]*Entry, error)
}

var _ AuditLoggerInterface = (*AuditLogger)(nil)
