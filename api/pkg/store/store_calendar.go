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

func (s *PostgresStore) CreateCalendarEvent(ctx context.Context, event *types.CalendarEvent) (*types.CalendarEvent, error) {
	if event.ID == "" {
		event.ID = system.GenerateCalendarEventID()
	}
	if event.TenantID == "" {
		return nil, fmt.Errorf("tenant not specified")
	}
	if event.SlotID == "" {
		return nil, fmt.Errorf("slot not specified")
	}

	event.CreatedAt = time.Now()
	event.UpdatedAt = time.Now()

	err := s.gdb.WithContext(ctx).Create(event).Error
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (s *PostgresStore) UpdateCalendarEvent(ctx context.Context, event *types.CalendarEvent) (*types.CalendarEvent, error) {
	if event.ID == "" {
		return nil, fmt.Errorf("id not specified")
	}
	if event.TenantID == "" {
		return nil, fmt.Errorf("tenant not specified")
	}

	event.UpdatedAt = time.Now()

	err := s.gdb.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", event.TenantID, event.ID).
		Save(event).Error
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (s *PostgresStore) GetCalendarEventBySlot(ctx context.Context, tenantID, slotID string) (*types.CalendarEvent, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant not specified")
	}

	var event types.CalendarEvent
	err := s.gdb.WithContext(ctx).
		Where("tenant_id = ? AND slot_id = ?", tenantID, slotID).
		Order("created_at DESC").
		First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &event, nil
}

func (s *PostgresStore) ListCalendarEvents(ctx context.Context, tenantID string, q *ListCalendarEventsQuery) ([]*types.CalendarEvent, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant not specified")
	}

	query := s.gdb.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if q != nil {
		if q.SlotID != "" {
			query = query.Where("slot_id = ?", q.SlotID)
		}
		if q.Status != "" {
			query = query.Where("status = ?", q.Status)
		}
	}

	var events []*types.CalendarEvent
	err := query.Order("created_at DESC").Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

// ListCalendarEventsForReconcile feeds the reconciler worker: rows stuck in
// error, plus created rows whose slot has since been canceled (orphans whose
// external event should be deleted).
func (s *PostgresStore) ListCalendarEventsForReconcile(ctx context.Context, limit int) ([]*types.CalendarEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	var events []*types.CalendarEvent
	err := s.gdb.WithContext(ctx).
		Where("status = ?", types.CalendarEventStatusError).
		Or("status = ? AND slot_id IN (?)",
			types.CalendarEventStatusCreated,
			s.gdb.Model(&types.Slot{}).Select("id").Where("status = ?", types.SlotStatusCanceled),
		).
		Order("updated_at ASC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
