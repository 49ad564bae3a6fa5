package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/openslot/openslot/api/pkg/types"
)

func (s *PostgresStore) GetBooking(ctx context.Context, tenantID, id string) (*types.Booking, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant not specified")
	}
	if id == "" {
		return nil, fmt.Errorf("id not specified")
	}

	var booking types.Booking
	err := s.gdb.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func (s *PostgresStore) GetBookingBySlot(ctx context.Context, tenantID, slotID string) (*types.Booking, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant not specified")
	}
	if slotID == "" {
		return nil, fmt.Errorf("slot not specified")
	}

	var booking types.Booking
	err := s.gdb.WithContext(ctx).Where("tenant_id = ? AND slot_id = ?", tenantID, slotID).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func (s *PostgresStore) ListBookings(ctx context.Context, tenantID string, q *ListBookingsQuery) ([]*types.Booking, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant not specified")
	}

	query := s.gdb.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if q != nil && q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}

	var bookings []*types.Booking
	err := query.Order("created_at DESC").Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (s *PostgresStore) UpdateBookingStatus(ctx context.Context, tenantID, id string, status types.BookingStatus) (*types.Booking, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant not specified")
	}

	result := s.gdb.WithContext(ctx).Model(&types.Booking{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.GetBooking(ctx, tenantID, id)
}
