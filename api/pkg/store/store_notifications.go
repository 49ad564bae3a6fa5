package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/openslot/openslot/api/pkg/system"
	"github.com/openslot/openslot/api/pkg/types"
)

func (s *PostgresStore) CreateNotification(ctx context.Context, notification *types.Notification) (*types.Notification, error) {
	if notification.ID == "" {
		notification.ID = system.GenerateNotificationID()
	}
	if notification.TenantID == "" {
		return nil, fmt.Errorf("tenant not specified")
	}
	if notification.EntryID == "" {
		return nil, fmt.Errorf("entry not specified")
	}

	if notification.Status == "" {
		notification.Status = types.NotificationStatusPending
	}
	notification.CreatedAt = time.Now()
	notification.UpdatedAt = time.Now()

	err := s.gdb.WithContext(ctx).Create(notification).Error
	if err != nil {
		return nil, err
	}
	return s.GetNotification(ctx, notification.TenantID, notification.ID)
}

func (s *PostgresStore) GetNotification(ctx context.Context, tenantID, id string) (*types.Notification, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant not specified")
	}

	var notification types.Notification
	err := s.gdb.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&notification).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &notification, nil
}

func (s *PostgresStore) UpdateNotification(ctx context.Context, notification *types.Notification) (*types.Notification, error) {
	if notification.ID == "" {
		return nil, fmt.Errorf("id not specified")
	}
	if notification.TenantID == "" {
		return nil, fmt.Errorf("tenant not specified")
	}

	notification.UpdatedAt = time.Now()

	err := s.gdb.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", notification.TenantID, notification.ID).
		Save(notification).Error
	if err != nil {
		return nil, err
	}
	return s.GetNotification(ctx, notification.TenantID, notification.ID)
}

func (s *PostgresStore) ListNotifications(ctx context.Context, tenantID string, q *ListNotificationsQuery) ([]*types.Notification, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant not specified")
	}

	query := s.gdb.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if q != nil {
		if q.EntryID != "" {
			query = query.Where("entry_id = ?", q.EntryID)
		}
		if q.SlotID != "" {
			query = query.Where("slot_id = ?", q.SlotID)
		}
	}

	var notifications []*types.Notification
	err := query.Order("created_at DESC").Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

// RecordNotificationResponse marks the customer's answer on the most recent
// notification for the (entry, slot) pair. Missing rows are ignored, the
// response already changed slot state elsewhere.
func (s *PostgresStore) RecordNotificationResponse(ctx context.Context, tenantID, entryID, slotID string, response types.NotificationResponse) error {
	if tenantID == "" {
		return fmt.Errorf("tenant not specified")
	}

	var notification types.Notification
	err := s.gdb.WithContext(ctx).
		Where("tenant_id = ? AND entry_id = ? AND slot_id = ?", tenantID, entryID, slotID).
		Order("created_at DESC").
		First(&notification).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	return s.gdb.WithContext(ctx).Model(&types.Notification{}).
		Where("tenant_id = ? AND id = ?", tenantID, notification.ID).
		Updates(map[string]interface{}{
			"response":   response,
			"updated_at": time.Now(),
		}).Error
}
