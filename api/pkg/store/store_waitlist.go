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

// CreateWaitlistEntry enforces the per-tenant per-phone cap inside the insert
// transaction so two concurrent signups cannot both slip under it.
func (s *PostgresStore) CreateWaitlistEntry(ctx context.Context, entry *types.WaitlistEntry, maxActivePerPhone int) (*types.WaitlistEntry, error) {
	if entry.ID == "" {
		entry.ID = system.GenerateWaitlistEntryID()
	}
	if entry.TenantID == "" {
		return nil, fmt.Errorf("tenant not specified")
	}
	if entry.Phone == "" {
		return nil, fmt.Errorf("phone not specified")
	}
	if entry.ServiceID == "" {
		return nil, fmt.Errorf("service not specified")
	}
	if !entry.EarliestTime.Before(entry.LatestTime) {
		return nil, fmt.Errorf("earliest time must be before latest time")
	}

	if entry.Status == "" {
		entry.Status = types.WaitlistStatusActive
	}
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = time.Now()

	err := s.gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if maxActivePerPhone > 0 {
			var count int64
			err := tx.Model(&types.WaitlistEntry{}).
				Where("tenant_id = ? AND phone = ? AND status IN ?", entry.TenantID, entry.Phone,
					[]types.WaitlistStatus{types.WaitlistStatusActive, types.WaitlistStatusNotified}).
				Count(&count).Error
			if err != nil {
				return err
			}
			if count >= int64(maxActivePerPhone) {
				return ErrPhoneCapReached
			}
		}
		return tx.Create(entry).Error
	})
	if err != nil {
		return nil, err
	}
	return s.GetWaitlistEntry(ctx, entry.TenantID, entry.ID)
}

func (s *PostgresStore) GetWaitlistEntry(ctx context.Context, tenantID, id string) (*types.WaitlistEntry, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant not specified")
	}
	if id == "" {
		return nil, fmt.Errorf("id not specified")
	}

	var entry types.WaitlistEntry
	err := s.gdb.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

func (s *PostgresStore) ListWaitlistEntries(ctx context.Context, tenantID string, q *ListWaitlistQuery) ([]*types.WaitlistEntry, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant not specified")
	}

	query := s.gdb.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if q != nil {
		if q.ServiceID != "" {
			query = query.Where("service_id = ?", q.ServiceID)
		}
		if q.Phone != "" {
			query = query.Where("phone = ?", q.Phone)
		}
		if q.Status != "" {
			query = query.Where("status = ?", q.Status)
		}
	}

	var entries []*types.WaitlistEntry
	err := query.Order("created_at ASC").Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// ListCandidates returns entries eligible for a slot, unranked. Only active
// entries qualify; a notified entry already holds another slot and is never
// offered two at once.
func (s *PostgresStore) ListCandidates(ctx context.Context, tenantID string, q *CandidateQuery) ([]*types.WaitlistEntry, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant not specified")
	}
	if q == nil {
		return nil, fmt.Errorf("query not specified")
	}

	var entries []*types.WaitlistEntry
	err := s.gdb.WithContext(ctx).
		Where("tenant_id = ? AND service_id = ? AND status = ?", tenantID, q.ServiceID, types.WaitlistStatusActive).
		Where("staff_id = '' OR staff_id = ?", q.StaffID).
		Where("earliest_time <= ? AND latest_time >= ?", q.StartTime, q.EndTime).
		Order("priority_score DESC, created_at ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// UpdateWaitlistEntryStatus is a guarded status flip; zero rows affected
// means the entry is not in the expected prior state.
func (s *PostgresStore) UpdateWaitlistEntryStatus(ctx context.Context, tenantID, id string, from, to types.WaitlistStatus) error {
	if tenantID == "" {
		return fmt.Errorf("tenant not specified")
	}

	result := s.gdb.WithContext(ctx).Model(&types.WaitlistEntry{}).
		Where("tenant_id = ? AND id = ? AND status = ?", tenantID, id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEntryNotActive
	}
	return nil
}

// RemoveWaitlistEntry is the customer/admin removal: a soft delete to status
// removed, valid from active or notified.
func (s *PostgresStore) RemoveWaitlistEntry(ctx context.Context, tenantID, id string) error {
	if tenantID == "" {
		return fmt.Errorf("tenant not specified")
	}

	result := s.gdb.WithContext(ctx).Model(&types.WaitlistEntry{}).
		Where("tenant_id = ? AND id = ? AND status IN ?", tenantID, id,
			[]types.WaitlistStatus{types.WaitlistStatusActive, types.WaitlistStatusNotified}).
		Updates(map[string]interface{}{
			"status":     types.WaitlistStatusRemoved,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
