package booking

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/openslot/openslot/api/pkg/config"
	"github.com/openslot/openslot/api/pkg/matching"
	"github.com/openslot/openslot/api/pkg/store"
	"github.com/openslot/openslot/api/pkg/system"
	"github.com/openslot/openslot/api/pkg/token"
	"github.com/openslot/openslot/api/pkg/types"
)

// Dispatcher sends the hold offer to a candidate. Implementations persist
// the notification row and talk to the external provider; they never change
// slot or entry state.
type Dispatcher interface {
	Dispatch(ctx context.Context, entry *types.WaitlistEntry, slot *types.Slot) error
}

// CalendarSink mirrors bookings into an external calendar, best-effort. A
// failure is recorded but never rolls back a core transition.
type CalendarSink interface {
	OnBooked(ctx context.Context, slot *types.Slot, booking *types.Booking)
	OnCanceled(ctx context.Context, slot *types.Slot)
}

// Alerter pushes noteworthy events to the operators. Best-effort, nil means
// no alerts.
type Alerter interface {
	WriteBookingEvent(eventType string, booking *types.Booking) error
	WriteInvariantViolation(tenantID string, detail string) error
}

// Engine drives the slot state machine over the store's guarded updates. It
// holds no in-memory state between calls: any number of engines can run
// against the same database.
type Engine struct {
	cfg        config.Waitlist
	store      store.Store
	selector   *matching.Selector
	codec      *token.Codec
	dispatcher Dispatcher
	calendar   CalendarSink
	alerter    Alerter
	clock      Clock
}

func NewEngine(
	cfg config.Waitlist,
	s store.Store,
	codec *token.Codec,
	dispatcher Dispatcher,
	calendar CalendarSink,
	alerter Alerter,
	clock Clock,
) *Engine {
	if clock == nil {
		clock = NewRealClock()
	}
	return &Engine{
		cfg:        cfg,
		store:      s,
		selector:   matching.NewSelector(s),
		codec:      codec,
		dispatcher: dispatcher,
		calendar:   calendar,
		alerter:    alerter,
		clock:      clock,
	}
}

// OpenSlot is the admin "open / re-match" action: rank the waitlist for an
// open slot and, when there is a candidate, hold it for the best one and
// notify them.
func (e *Engine) OpenSlot(ctx context.Context, tenantID, slotID string) (*types.OpenSlotResponse, error) {
	slot, err := e.store.GetSlot(ctx, tenantID, slotID)
	if err != nil {
		return nil, wrapStoreError(err)
	}
	if slot.Status != types.SlotStatusOpen {
		return nil, newPreconditionError(SubSlotNoLongerAvailable,
			fmt.Errorf("slot %s is %s, not open", slotID, slot.Status))
	}

	now := e.clock.Now()
	candidates, err := e.selector.Candidates(ctx, slot, now)
	if err != nil {
		return nil, newError(KindTransient, err)
	}

	resp := &types.OpenSlotResponse{
		Slot:       slot,
		Candidates: candidates,
	}
	if len(candidates) == 0 {
		return resp, nil
	}

	result, err := e.holdNextCandidate(ctx, slot, candidates)
	if err != nil {
		return nil, err
	}
	if result.NextCandidate != nil {
		resp.TopCandidate = result.NextCandidate
		resp.NotificationEnqueued = true
		refreshed, err := e.store.GetSlot(ctx, tenantID, slotID)
		if err == nil {
			resp.Slot = refreshed
		}
	}
	return resp, nil
}

// HoldSlot holds an open slot for its best candidate with an optional TTL
// override, bypassing the candidate listing in the response.
func (e *Engine) HoldSlot(ctx context.Context, tenantID, slotID string, ttlOverride *int) (*types.Slot, error) {
	slot, err := e.store.GetSlot(ctx, tenantID, slotID)
	if err != nil {
		return nil, wrapStoreError(err)
	}
	if slot.Status != types.SlotStatusOpen {
		return nil, newPreconditionError(SubSlotNoLongerAvailable,
			fmt.Errorf("slot %s is %s, not open", slotID, slot.Status))
	}

	ttl := e.cfg.HoldTTL
	if ttlOverride != nil && *ttlOverride > 0 {
		ttl = minutes(*ttlOverride)
	}

	now := e.clock.Now()
	candidates, err := e.selector.Candidates(ctx, slot, now)
	if err != nil {
		return nil, newError(KindTransient, err)
	}
	if len(candidates) == 0 {
		return slot, nil
	}

	if _, err := e.holdCandidates(ctx, slot, candidates, ttl); err != nil {
		return nil, err
	}
	refreshed, err := e.store.GetSlot(ctx, tenantID, slotID)
	if err != nil {
		return nil, wrapStoreError(err)
	}
	return refreshed, nil
}

// CancelSlot is the admin cancel: open or held slots only. The calendar
// event, if any, is deleted best-effort after the transition commits.
func (e *Engine) CancelSlot(ctx context.Context, tenantID, slotID string) (*types.Slot, error) {
	slot, err := e.store.CancelSlot(ctx, tenantID, slotID)
	if err != nil {
		return nil, wrapStoreError(err)
	}

	e.audit(ctx, &types.AuditLog{
		TenantID:     tenantID,
		ActorType:    types.ActorTypeStaff,
		Action:       "slot.canceled",
		ResourceType: "slot",
		ResourceID:   slotID,
	})

	if e.calendar != nil {
		e.calendar.OnCanceled(ctx, slot)
	}
	return slot, nil
}

// audit appends a record and logs on failure; the state transition it
// describes has already committed.
func (e *Engine) audit(ctx context.Context, record *types.AuditLog) {
	if record.CorrelationID == "" {
		record.CorrelationID = system.GenerateRequestID()
	}
	if _, err := e.store.CreateAuditLog(ctx, record); err != nil {
		log.Error().
			Err(err).
			Str("tenant_id", record.TenantID).
			Str("action", record.Action).
			Msg("failed to append audit log")
	}
}
