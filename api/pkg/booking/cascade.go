package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/openslot/openslot/api/pkg/store"
	"github.com/openslot/openslot/api/pkg/types"
)

func minutes(n int) time.Duration {
	return time.Duration(n) * time.Minute
}

// Cascade runs one step of the cascade protocol for a slot that just came
// back to open: rank the candidates, hold for the best one still active,
// notify them. It never recurses; a later decline or expiry is its own
// event.
func (e *Engine) Cascade(ctx context.Context, tenantID, slotID string) (*types.CascadeResult, error) {
	return e.cascade(ctx, tenantID, slotID, "")
}

// cascade with an optional exclusion: the entry that just declined or slept
// through the hold is back to active but must not be offered the same slot
// again in the same breath.
func (e *Engine) cascade(ctx context.Context, tenantID, slotID, excludeEntryID string) (*types.CascadeResult, error) {
	slot, err := e.store.GetSlot(ctx, tenantID, slotID)
	if err != nil {
		return nil, wrapStoreError(err)
	}
	if slot.Status != types.SlotStatusOpen {
		// Another actor re-held or canceled the slot first.
		return &types.CascadeResult{}, nil
	}

	candidates, err := e.selector.Candidates(ctx, slot, e.clock.Now())
	if err != nil {
		return nil, newError(KindTransient, err)
	}
	if excludeEntryID != "" {
		filtered := candidates[:0]
		for _, candidate := range candidates {
			if candidate.ID != excludeEntryID {
				filtered = append(filtered, candidate)
			}
		}
		candidates = filtered
	}
	if len(candidates) == 0 {
		return &types.CascadeResult{}, nil
	}

	return e.holdNextCandidate(ctx, slot, candidates)
}

func (e *Engine) holdNextCandidate(ctx context.Context, slot *types.Slot, candidates []*types.WaitlistEntry) (*types.CascadeResult, error) {
	return e.holdCandidates(ctx, slot, candidates, e.cfg.HoldTTL)
}

// holdCandidates walks the ranked list, trying the atomic open->held +
// active->notified update for each candidate. Entries that went stale
// between selection and update are skipped, bounded by the fan-out knob so
// a churning waitlist cannot stall the caller.
func (e *Engine) holdCandidates(ctx context.Context, slot *types.Slot, candidates []*types.WaitlistEntry, ttl time.Duration) (*types.CascadeResult, error) {
	fanout := e.cfg.CascadeFanoutK
	if fanout <= 0 {
		fanout = 5
	}
	if len(candidates) < fanout {
		fanout = len(candidates)
	}

	result := &types.CascadeResult{}
	for i := 0; i < fanout; i++ {
		candidate := candidates[i]
		result.Attempts++

		expiresAt := e.clock.Now().Add(ttl)
		err := e.store.HoldSlotForEntry(ctx, slot.TenantID, slot.ID, candidate.ID, expiresAt)
		if err != nil {
			if errors.Is(err, store.ErrEntryNotActive) {
				// Stale candidate, try the next one.
				log.Debug().
					Str("tenant_id", slot.TenantID).
					Str("slot_id", slot.ID).
					Str("entry_id", candidate.ID).
					Msg("candidate no longer active, skipping")
				continue
			}
			if errors.Is(err, store.ErrSlotNoLongerAvailable) {
				// Someone else held the slot; nothing left to do here.
				return result, nil
			}
			return nil, wrapStoreError(err)
		}

		e.audit(ctx, &types.AuditLog{
			TenantID:     slot.TenantID,
			ActorType:    types.ActorTypeSystem,
			Action:       "slot.held",
			ResourceType: "slot",
			ResourceID:   slot.ID,
			Metadata:     `{"entry_id":"` + candidate.ID + `"}`,
		})

		if e.dispatcher != nil {
			if err := e.dispatcher.Dispatch(ctx, candidate, slot); err != nil {
				// The dispatcher retries internally; past that the hold
				// simply expires and the next tick cascades again.
				log.Error().
					Err(err).
					Str("tenant_id", slot.TenantID).
					Str("slot_id", slot.ID).
					Str("entry_id", candidate.ID).
					Msg("failed to dispatch hold notification")
			}
		}

		result.NextCandidate = candidate
		return result, nil
	}

	return result, nil
}

// ProcessExpiredHolds is one reaper pass: release every overdue hold and
// cascade each released slot. Multiple concurrent reapers are safe, the
// expire guard lets only one win per slot.
func (e *Engine) ProcessExpiredHolds(ctx context.Context) (*types.ExpiredHoldsResult, error) {
	now := e.clock.Now()
	slots, err := e.store.ListExpiredHolds(ctx, now, e.cfg.ExpiredHoldsPageSize)
	if err != nil {
		return nil, newError(KindTransient, err)
	}

	result := &types.ExpiredHoldsResult{}
	for _, slot := range slots {
		// A held slot always carries its entry; a bare hold means a
		// transition bypassed the guarded updates. Release it anyway, but
		// page the operators.
		if slot.HeldForEntry == "" {
			detail := fmt.Sprintf("held slot %s expired with no owning entry", slot.ID)
			log.Error().
				Str("tenant_id", slot.TenantID).
				Str("slot_id", slot.ID).
				Msg(detail)
			if e.alerter != nil {
				if err := e.alerter.WriteInvariantViolation(slot.TenantID, detail); err != nil {
					log.Warn().Err(err).Msg("failed to send invariant alert")
				}
			}
		}

		err := e.store.ExpireHold(ctx, slot.TenantID, slot.ID, now)
		if err != nil {
			if errors.Is(err, store.ErrSlotNoLongerAvailable) || errors.Is(err, store.ErrNotFound) {
				// Lost the race to a confirm or another reaper.
				continue
			}
			log.Error().
				Err(err).
				Str("tenant_id", slot.TenantID).
				Str("slot_id", slot.ID).
				Msg("failed to expire hold")
			continue
		}
		result.ReleasedCount++

		e.audit(ctx, &types.AuditLog{
			TenantID:     slot.TenantID,
			ActorType:    types.ActorTypeSystem,
			Action:       "hold.expired",
			ResourceType: "slot",
			ResourceID:   slot.ID,
			Metadata:     `{"entry_id":"` + slot.HeldForEntry + `"}`,
		})

		cascade, err := e.cascade(ctx, slot.TenantID, slot.ID, slot.HeldForEntry)
		if err != nil {
			log.Error().
				Err(err).
				Str("tenant_id", slot.TenantID).
				Str("slot_id", slot.ID).
				Msg("cascade after expiry failed")
			continue
		}
		if cascade.NextCandidate != nil {
			result.CascadeNotifications++
		}
	}

	return result, nil
}
