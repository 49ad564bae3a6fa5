package calendar

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/openslot/openslot/api/pkg/store"
	"github.com/openslot/openslot/api/pkg/types"
)

const reconcilePageSize = 100

// Reconcile is one sweep over calendar events that need attention: rows in
// error are retried, and created rows whose slot was canceled get their
// external event torn down. Returns how many rows it repaired.
func (a *Adapter) Reconcile(ctx context.Context) (int, error) {
	if !a.cfg.Enabled {
		return 0, nil
	}

	events, err := a.store.ListCalendarEventsForReconcile(ctx, reconcilePageSize)
	if err != nil {
		return 0, err
	}

	repaired := 0
	for _, event := range events {
		slot, err := a.store.GetSlot(ctx, event.TenantID, event.SlotID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				// Orphan: the slot is gone, tear the mirror down.
				a.deleteEvent(ctx, event)
				repaired++
				continue
			}
			log.Warn().Err(err).Str("event_id", event.ID).Msg("reconcile could not load slot")
			continue
		}

		switch {
		case slot.Status == types.SlotStatusCanceled:
			a.deleteEvent(ctx, event)
			repaired++
		case event.Status == types.CalendarEventStatusError && slot.Status == types.SlotStatusBooked:
			booking, err := a.store.GetBookingBySlot(ctx, event.TenantID, event.SlotID)
			if err != nil {
				log.Warn().Err(err).Str("event_id", event.ID).Msg("reconcile could not load booking")
				continue
			}
			if a.retryCreate(ctx, event, slot, booking) {
				repaired++
			}
		}
	}

	if repaired > 0 {
		log.Info().Int("repaired", repaired).Msg("calendar reconcile pass complete")
	}
	return repaired, nil
}
