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

func (s *PostgresStore) CreateSlot(ctx context.Context, slot *types.Slot) (*types.Slot, error) {
	if slot.ID == "" {
		slot.ID = system.GenerateSlotID()
	}
	if slot.TenantID == "" {
		return nil, fmt.Errorf("tenant not specified")
	}
	if slot.StaffID == "" {
		return nil, fmt.Errorf("staff not specified")
	}
	if slot.ServiceID == "" {
		return nil, fmt.Errorf("service not specified")
	}
	if !slot.StartTime.Before(slot.EndTime) {
		return nil, fmt.Errorf("slot start must be before end")
	}
	if slot.StartTime.Before(time.Now()) {
		return nil, fmt.Errorf("slot start must be in the future")
	}

	if slot.Status == "" {
		slot.Status = types.SlotStatusOpen
	}
	slot.CreatedAt = time.Now()
	slot.UpdatedAt = time.Now()

	// The overlap check and the insert share one transaction so two
	// concurrent creates for the same staff cannot both pass the check.
	err := s.gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&types.Slot{}).
			Where("tenant_id = ? AND staff_id = ? AND status != ?", slot.TenantID, slot.StaffID, types.SlotStatusCanceled).
			Where("start_time < ? AND end_time > ?", slot.EndTime, slot.StartTime).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrConflict
		}
		return tx.Create(slot).Error
	})
	if err != nil {
		return nil, err
	}
	return s.GetSlot(ctx, slot.TenantID, slot.ID)
}

func (s *PostgresStore) GetSlot(ctx context.Context, tenantID, id string) (*types.Slot, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant not specified")
	}
	if id == "" {
		return nil, fmt.Errorf("id not specified")
	}

	var slot types.Slot
	err := s.gdb.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&slot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &slot, nil
}

func (s *PostgresStore) ListSlots(ctx context.Context, tenantID string, q *ListSlotsQuery) ([]*types.Slot, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant not specified")
	}

	query := s.gdb.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if q != nil {
		if q.StaffID != "" {
			query = query.Where("staff_id = ?", q.StaffID)
		}
		if q.Status != "" {
			query = query.Where("status = ?", q.Status)
		}
		if !q.From.IsZero() {
			query = query.Where("start_time >= ?", q.From)
		}
		if !q.To.IsZero() {
			query = query.Where("start_time < ?", q.To)
		}
	}

	var slots []*types.Slot
	err := query.Order("start_time ASC").Find(&slots).Error
	if err != nil {
		return nil, err
	}
	return slots, nil
}

func (s *PostgresStore) ListOverlappingSlots(ctx context.Context, tenantID, staffID string, start, end time.Time) ([]*types.Slot, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant not specified")
	}

	var slots []*types.Slot
	err := s.gdb.WithContext(ctx).
		Where("tenant_id = ? AND staff_id = ? AND status != ?", tenantID, staffID, types.SlotStatusCanceled).
		Where("start_time < ? AND end_time > ?", end, start).
		Order("start_time ASC").
		Find(&slots).Error
	if err != nil {
		return nil, err
	}
	return slots, nil
}

func (s *PostgresStore) ListExpiredHolds(ctx context.Context, now time.Time, limit int) ([]*types.Slot, error) {
	if limit <= 0 {
		limit = 100
	}

	var slots []*types.Slot
	err := s.gdb.WithContext(ctx).
		Where("status = ? AND hold_expires_at <= ?", types.SlotStatusHeld, now).
		Order("hold_expires_at ASC").
		Limit(limit).
		Find(&slots).Error
	if err != nil {
		return nil, err
	}
	return slots, nil
}
