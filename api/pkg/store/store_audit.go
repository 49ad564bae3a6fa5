package store

import (
	"context"
	"fmt"
	"time"

	"github.com/openslot/openslot/api/pkg/system"
	"github.com/openslot/openslot/api/pkg/types"
)

// Audit logs are append-only; there is no update or delete path.

func (s *PostgresStore) CreateAuditLog(ctx context.Context, record *types.AuditLog) (*types.AuditLog, error) {
	if record.ID == "" {
		record.ID = system.GenerateAuditLogID()
	}
	if record.TenantID == "" {
		return nil, fmt.Errorf("tenant not specified")
	}
	if record.Action == "" {
		return nil, fmt.Errorf("action not specified")
	}

	record.CreatedAt = time.Now()

	err := s.gdb.WithContext(ctx).Create(record).Error
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *PostgresStore) ListAuditLogs(ctx context.Context, tenantID string, q *ListAuditLogsQuery) ([]*types.AuditLog, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant not specified")
	}

	query := s.gdb.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if q != nil {
		if q.ResourceType != "" {
			query = query.Where("resource_type = ?", q.ResourceType)
		}
		if q.ResourceID != "" {
			query = query.Where("resource_id = ?", q.ResourceID)
		}
		if q.CorrelationID != "" {
			query = query.Where("correlation_id = ?", q.CorrelationID)
		}
	}

	limit := 100
	if q != nil && q.Limit > 0 {
		limit = q.Limit
	}

	var records []*types.AuditLog
	err := query.Order("created_at DESC").Limit(limit).Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
