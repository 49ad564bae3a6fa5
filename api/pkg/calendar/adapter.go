package calendar

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/openslot/openslot/api/pkg/config"
	"github.com/openslot/openslot/api/pkg/store"
	"github.com/openslot/openslot/api/pkg/types"
)

// Adapter mirrors slot lifecycle into the external calendar. Every call is
// best-effort: outcomes land on the calendar_events row and the staff sync
// status, never on the slot or booking.
type Adapter struct {
	cfg    config.Calendar
	store  store.Store
	client Client
}

func NewAdapter(cfg config.Calendar, s store.Store, client Client) *Adapter {
	return &Adapter{
		cfg:    cfg,
		store:  s,
		client: client,
	}
}

// createExternalEvent builds the event payload and calls the external API.
func (a *Adapter) createExternalEvent(ctx context.Context, slot *types.Slot, booking *types.Booking) (string, error) {
	summary := booking.CustomerName
	service, err := a.store.GetService(ctx, slot.TenantID, slot.ServiceID)
	if err == nil {
		summary = fmt.Sprintf("%s – %s", service.Name, booking.CustomerName)
	}

	return a.client.CreateEvent(ctx, &ExternalEvent{
		Summary:   summary,
		StaffID:   slot.StaffID,
		StartTime: slot.StartTime,
		EndTime:   slot.EndTime,
	})
}

func (a *Adapter) OnBooked(ctx context.Context, slot *types.Slot, booking *types.Booking) {
	if !a.cfg.Enabled {
		return
	}

	externalID, createErr := a.createExternalEvent(ctx, slot, booking)

	event := &types.CalendarEvent{
		TenantID:        slot.TenantID,
		SlotID:          slot.ID,
		StaffID:         slot.StaffID,
		ExternalEventID: externalID,
		Status:          types.CalendarEventStatusCreated,
	}
	syncStatus := "ok"
	syncError := ""
	if createErr != nil {
		event.Status = types.CalendarEventStatusError
		event.LastError = createErr.Error()
		syncStatus = "error"
		syncError = createErr.Error()
		log.Error().
			Err(createErr).
			Str("tenant_id", slot.TenantID).
			Str("slot_id", slot.ID).
			Msg("calendar event creation failed")
	}

	if _, err := a.store.CreateCalendarEvent(ctx, event); err != nil {
		log.Error().Err(err).Str("slot_id", slot.ID).Msg("failed to persist calendar event")
	}
	if err := a.store.UpdateStaffCalendarSync(ctx, slot.TenantID, slot.StaffID, syncStatus, syncError); err != nil {
		log.Warn().Err(err).Str("staff_id", slot.StaffID).Msg("failed to update staff calendar sync status")
	}
}

func (a *Adapter) OnCanceled(ctx context.Context, slot *types.Slot) {
	if !a.cfg.Enabled {
		return
	}

	event, err := a.store.GetCalendarEventBySlot(ctx, slot.TenantID, slot.ID)
	if err != nil {
		// No mirror to tear down.
		return
	}
	if event.Status == types.CalendarEventStatusDeleted {
		return
	}

	a.deleteEvent(ctx, event)
}

// retryCreate repairs an event row stuck in error, in place. Inserting a new
// row would leave the error row in the reconcile set forever and add one more
// external event per pass. Returns whether the row was repaired.
func (a *Adapter) retryCreate(ctx context.Context, event *types.CalendarEvent, slot *types.Slot, booking *types.Booking) bool {
	externalID, createErr := a.createExternalEvent(ctx, slot, booking)

	syncStatus := "ok"
	syncError := ""
	if createErr != nil {
		event.Status = types.CalendarEventStatusError
		event.LastError = createErr.Error()
		syncStatus = "error"
		syncError = createErr.Error()
		log.Error().
			Err(createErr).
			Str("tenant_id", event.TenantID).
			Str("slot_id", event.SlotID).
			Msg("calendar event retry failed")
	} else {
		event.Status = types.CalendarEventStatusCreated
		event.ExternalEventID = externalID
		event.LastError = ""
	}

	if _, err := a.store.UpdateCalendarEvent(ctx, event); err != nil {
		log.Error().Err(err).Str("event_id", event.ID).Msg("failed to persist calendar event retry outcome")
		return false
	}
	if err := a.store.UpdateStaffCalendarSync(ctx, event.TenantID, event.StaffID, syncStatus, syncError); err != nil {
		log.Warn().Err(err).Str("staff_id", event.StaffID).Msg("failed to update staff calendar sync status")
	}
	return createErr == nil
}

// deleteEvent tears down one external event and records the outcome.
func (a *Adapter) deleteEvent(ctx context.Context, event *types.CalendarEvent) {
	if event.ExternalEventID != "" {
		if err := a.client.DeleteEvent(ctx, event.ExternalEventID); err != nil {
			event.Status = types.CalendarEventStatusError
			event.LastError = err.Error()
			if _, uerr := a.store.UpdateCalendarEvent(ctx, event); uerr != nil {
				log.Error().Err(uerr).Str("event_id", event.ID).Msg("failed to persist calendar event error")
			}
			log.Error().
				Err(err).
				Str("tenant_id", event.TenantID).
				Str("slot_id", event.SlotID).
				Msg("calendar event deletion failed")
			return
		}
	}

	event.Status = types.CalendarEventStatusDeleted
	event.LastError = ""
	if _, err := a.store.UpdateCalendarEvent(ctx, event); err != nil {
		log.Error().Err(err).Str("event_id", event.ID).Msg("failed to mark calendar event deleted")
	}
}
