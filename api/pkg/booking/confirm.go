package booking

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/openslot/openslot/api/pkg/store"
	"github.com/openslot/openslot/api/pkg/types"
)

// Confirm consumes a signed confirm token and finalizes the booking. The
// critical section is entirely inside the store transaction; token
// verification happens before it and the calendar side-effect after it.
//
// Replaying a confirm that already succeeded returns the same booking.
func (e *Engine) Confirm(ctx context.Context, tokenString string) (*types.ConfirmResponse, error) {
	claims, err := e.codec.Verify(tokenString)
	if err != nil {
		return nil, wrapTokenError(err)
	}
	if claims.Action != types.TokenActionConfirm {
		return nil, newError(KindInvalidToken, errors.New("token action is not confirm"))
	}

	booking, err := e.store.ConfirmHold(ctx, &store.ConfirmHoldParams{
		TenantID: claims.TenantID,
		SlotID:   claims.SlotID,
		EntryID:  claims.EntryID,
		Now:      e.clock.Now(),
		ActorID:  claims.EntryID,
	})
	if err != nil {
		return nil, wrapStoreError(err)
	}

	if err := e.store.RecordNotificationResponse(ctx, claims.TenantID, claims.EntryID, claims.SlotID, types.NotificationResponseConfirmed); err != nil {
		log.Warn().
			Err(err).
			Str("tenant_id", claims.TenantID).
			Str("entry_id", claims.EntryID).
			Msg("failed to record notification response")
	}

	if e.calendar != nil {
		slot, err := e.store.GetSlot(ctx, claims.TenantID, claims.SlotID)
		if err != nil {
			log.Warn().Err(err).Str("slot_id", claims.SlotID).Msg("failed to load slot for calendar sync")
		} else {
			e.calendar.OnBooked(ctx, slot, booking)
		}
	}

	if e.alerter != nil {
		if err := e.alerter.WriteBookingEvent("confirmed", booking); err != nil {
			log.Warn().Err(err).Str("booking_id", booking.ID).Msg("failed to send booking alert")
		}
	}

	log.Info().
		Str("tenant_id", claims.TenantID).
		Str("slot_id", claims.SlotID).
		Str("entry_id", claims.EntryID).
		Str("booking_id", booking.ID).
		Msg("booking confirmed")

	return &types.ConfirmResponse{Booking: booking}, nil
}

// Decline consumes a signed decline token, releases the hold and cascades to
// the next candidate. A decline that arrives after the slot already moved on
// is a no-op and still reports success: the customer's answer is recorded,
// the cascade is someone else's.
func (e *Engine) Decline(ctx context.Context, tokenString string) (*types.DeclineResponse, error) {
	claims, err := e.codec.Verify(tokenString)
	if err != nil {
		return nil, wrapTokenError(err)
	}
	if claims.Action != types.TokenActionDecline {
		return nil, newError(KindInvalidToken, errors.New("token action is not decline"))
	}

	released := true
	err = e.store.ReleaseHold(ctx, claims.TenantID, claims.SlotID, claims.EntryID)
	if err != nil {
		if !errors.Is(err, store.ErrSlotNoLongerAvailable) {
			return nil, wrapStoreError(err)
		}
		// Replayed or late decline; the slot re-entered the cycle already.
		released = false
	}

	if err := e.store.RecordNotificationResponse(ctx, claims.TenantID, claims.EntryID, claims.SlotID, types.NotificationResponseDeclined); err != nil {
		log.Warn().
			Err(err).
			Str("tenant_id", claims.TenantID).
			Str("entry_id", claims.EntryID).
			Msg("failed to record notification response")
	}

	resp := &types.DeclineResponse{Cascade: &types.CascadeResult{}}
	if !released {
		return resp, nil
	}

	e.audit(ctx, &types.AuditLog{
		TenantID:     claims.TenantID,
		ActorType:    types.ActorTypeCustomer,
		ActorID:      claims.EntryID,
		Action:       "hold.declined",
		ResourceType: "slot",
		ResourceID:   claims.SlotID,
	})

	// The decline is durable at this point; the cascade is eventual. A
	// failure here is logged and left for the next open/re-match.
	cascade, err := e.cascade(ctx, claims.TenantID, claims.SlotID, claims.EntryID)
	if err != nil {
		log.Error().
			Err(err).
			Str("tenant_id", claims.TenantID).
			Str("slot_id", claims.SlotID).
			Msg("cascade after decline failed")
		return resp, nil
	}
	resp.Cascade = cascade
	return resp, nil
}
