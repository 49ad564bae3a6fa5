package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/openslot/openslot/api/pkg/system"
	"github.com/openslot/openslot/api/pkg/types"
)

// Every transition here is a guarded UPDATE inside one transaction: the WHERE
// clause restates the expected prior state, so of any number of concurrent
// writers at most one sees RowsAffected == 1. A miss surfaces as a specific
// sentinel, never a silent retry.

// HoldSlotForEntry moves a slot open -> held for one waitlist entry and the
// entry active -> notified, atomically.
func (s *PostgresStore) HoldSlotForEntry(ctx context.Context, tenantID, slotID, entryID string, expiresAt time.Time) error {
	if tenantID == "" {
		return fmt.Errorf("tenant not specified")
	}

	return s.gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&types.WaitlistEntry{}).
			Where("tenant_id = ? AND id = ? AND status = ?", tenantID, entryID, types.WaitlistStatusActive).
			Updates(map[string]interface{}{
				"status":     types.WaitlistStatusNotified,
				"updated_at": time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrEntryNotActive
		}

		result = tx.Model(&types.Slot{}).
			Where("tenant_id = ? AND id = ? AND status = ?", tenantID, slotID, types.SlotStatusOpen).
			Updates(map[string]interface{}{
				"status":          types.SlotStatusHeld,
				"hold_expires_at": expiresAt,
				"held_for_entry":  entryID,
				"version":         gorm.Expr("version + 1"),
				"updated_at":      time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrSlotNoLongerAvailable
		}
		return nil
	})
}

// ConfirmHold finalizes a booking: slot held -> booked, entry -> confirmed,
// booking row inserted, other active entries for the same phone removed, and
// the audit record appended, all in one transaction.
//
// Replaying a confirm that already succeeded for the same entry returns the
// existing booking so repeated clicks are safe.
func (s *PostgresStore) ConfirmHold(ctx context.Context, params *ConfirmHoldParams) (*types.Booking, error) {
	if params.TenantID == "" {
		return nil, fmt.Errorf("tenant not specified")
	}

	var booking *types.Booking
	err := s.gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var slot types.Slot
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("tenant_id = ? AND id = ?", params.TenantID, params.SlotID).
			First(&slot).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if slot.Status == types.SlotStatusBooked {
			var existing types.Booking
			err := tx.Where("tenant_id = ? AND slot_id = ?", params.TenantID, params.SlotID).
				First(&existing).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrSlotNoLongerAvailable
				}
				return err
			}
			if existing.WaitlistEntryID == params.EntryID {
				booking = &existing
				return nil
			}
			return ErrSlotNoLongerAvailable
		}

		if slot.Status != types.SlotStatusHeld || slot.HeldForEntry != params.EntryID {
			return ErrSlotNoLongerAvailable
		}
		if slot.HoldExpiresAt == nil || !slot.HoldExpiresAt.After(params.Now) {
			return ErrHoldExpired
		}

		result := tx.Model(&types.Slot{}).
			Where("tenant_id = ? AND id = ? AND status = ? AND held_for_entry = ?",
				params.TenantID, params.SlotID, types.SlotStatusHeld, params.EntryID).
			Updates(map[string]interface{}{
				"status":          types.SlotStatusBooked,
				"hold_expires_at": nil,
				"held_for_entry":  "",
				"version":         gorm.Expr("version + 1"),
				"updated_at":      time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrSlotNoLongerAvailable
		}

		var entry types.WaitlistEntry
		err = tx.Where("tenant_id = ? AND id = ?", params.TenantID, params.EntryID).
			First(&entry).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		result = tx.Model(&types.WaitlistEntry{}).
			Where("tenant_id = ? AND id = ? AND status = ?", params.TenantID, params.EntryID, types.WaitlistStatusNotified).
			Updates(map[string]interface{}{
				"status":     types.WaitlistStatusConfirmed,
				"updated_at": time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrEntryNotActive
		}

		booking = &types.Booking{
			ID:              system.GenerateBookingID(),
			TenantID:        params.TenantID,
			SlotID:          params.SlotID,
			WaitlistEntryID: params.EntryID,
			CustomerName:    entry.CustomerName,
			CustomerPhone:   entry.Phone,
			CustomerEmail:   entry.Email,
			Status:          types.BookingStatusConfirmed,
			Source:          types.BookingSourceWaitlist,
			CreatedAt:       time.Now(),
			UpdatedAt:       time.Now(),
		}
		if err := tx.Create(booking).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrConflict
			}
			return err
		}

		// Phone dedupe: the customer got their appointment, drop their
		// other active entries in this tenant.
		err = tx.Model(&types.WaitlistEntry{}).
			Where("tenant_id = ? AND phone = ? AND id != ? AND status = ?",
				params.TenantID, entry.Phone, params.EntryID, types.WaitlistStatusActive).
			Updates(map[string]interface{}{
				"status":     types.WaitlistStatusRemoved,
				"updated_at": time.Now(),
			}).Error
		if err != nil {
			return err
		}

		audit := &types.AuditLog{
			ID:            system.GenerateAuditLogID(),
			TenantID:      params.TenantID,
			ActorType:     types.ActorTypeCustomer,
			ActorID:       params.ActorID,
			Action:        "booking.confirmed",
			ResourceType:  "slot",
			ResourceID:    params.SlotID,
			CorrelationID: params.CorrelationID,
			Metadata:      fmt.Sprintf(`{"entry_id":%q,"booking_id":%q}`, params.EntryID, booking.ID),
			CreatedAt:     time.Now(),
		}
		return tx.Create(audit).Error
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// ReleaseHold is the decline path: slot held -> open, entry back to active.
// The hold must still belong to the declining entry.
func (s *PostgresStore) ReleaseHold(ctx context.Context, tenantID, slotID, entryID string) error {
	if tenantID == "" {
		return fmt.Errorf("tenant not specified")
	}

	return s.gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&types.Slot{}).
			Where("tenant_id = ? AND id = ? AND status = ? AND held_for_entry = ?",
				tenantID, slotID, types.SlotStatusHeld, entryID).
			Updates(map[string]interface{}{
				"status":          types.SlotStatusOpen,
				"hold_expires_at": nil,
				"held_for_entry":  "",
				"version":         gorm.Expr("version + 1"),
				"updated_at":      time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrSlotNoLongerAvailable
		}

		// The entry may have been removed by an admin meanwhile; that is
		// fine, only a notified entry flips back to active.
		return tx.Model(&types.WaitlistEntry{}).
			Where("tenant_id = ? AND id = ? AND status = ?", tenantID, entryID, types.WaitlistStatusNotified).
			Updates(map[string]interface{}{
				"status":     types.WaitlistStatusActive,
				"updated_at": time.Now(),
			}).Error
	})
}

// ExpireHold is the ticker path: guard includes hold_expires_at <= now so an
// in-flight confirm that already extended or consumed the hold wins the race.
func (s *PostgresStore) ExpireHold(ctx context.Context, tenantID, slotID string, now time.Time) error {
	if tenantID == "" {
		return fmt.Errorf("tenant not specified")
	}

	return s.gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var slot types.Slot
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("tenant_id = ? AND id = ?", tenantID, slotID).
			First(&slot).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if slot.Status != types.SlotStatusHeld {
			return ErrSlotNoLongerAvailable
		}
		if slot.HoldExpiresAt == nil || slot.HoldExpiresAt.After(now) {
			return ErrSlotNoLongerAvailable
		}

		result := tx.Model(&types.Slot{}).
			Where("tenant_id = ? AND id = ? AND status = ? AND hold_expires_at <= ?",
				tenantID, slotID, types.SlotStatusHeld, now).
			Updates(map[string]interface{}{
				"status":          types.SlotStatusOpen,
				"hold_expires_at": nil,
				"held_for_entry":  "",
				"version":         gorm.Expr("version + 1"),
				"updated_at":      time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrSlotNoLongerAvailable
		}

		if slot.HeldForEntry != "" {
			err = tx.Model(&types.WaitlistEntry{}).
				Where("tenant_id = ? AND id = ? AND status = ?", tenantID, slot.HeldForEntry, types.WaitlistStatusNotified).
				Updates(map[string]interface{}{
					"status":     types.WaitlistStatusActive,
					"updated_at": time.Now(),
				}).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// CancelSlot is the admin action. A booked slot cannot be canceled here;
// cancel the booking first. Canceling an already canceled slot is a no-op.
func (s *PostgresStore) CancelSlot(ctx context.Context, tenantID, slotID string) (*types.Slot, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant not specified")
	}

	err := s.gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var slot types.Slot
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("tenant_id = ? AND id = ?", tenantID, slotID).
			First(&slot).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if slot.Status == types.SlotStatusCanceled {
			return nil
		}
		if slot.Status == types.SlotStatusBooked {
			return ErrConflict
		}

		if slot.Status == types.SlotStatusHeld && slot.HeldForEntry != "" {
			err = tx.Model(&types.WaitlistEntry{}).
				Where("tenant_id = ? AND id = ? AND status = ?", tenantID, slot.HeldForEntry, types.WaitlistStatusNotified).
				Updates(map[string]interface{}{
					"status":     types.WaitlistStatusActive,
					"updated_at": time.Now(),
				}).Error
			if err != nil {
				return err
			}
		}

		return tx.Model(&types.Slot{}).
			Where("tenant_id = ? AND id = ? AND status IN ?", tenantID, slotID,
				[]types.SlotStatus{types.SlotStatusOpen, types.SlotStatusHeld}).
			Updates(map[string]interface{}{
				"status":          types.SlotStatusCanceled,
				"hold_expires_at": nil,
				"held_for_entry":  "",
				"version":         gorm.Expr("version + 1"),
				"updated_at":      time.Now(),
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.GetSlot(ctx, tenantID, slotID)
}
