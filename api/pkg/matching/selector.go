package matching

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/openslot/openslot/api/pkg/store"
	"github.com/openslot/openslot/api/pkg/types"
)

// Selector ranks the eligible waitlist entries for a slot. It is read-only;
// holding and notifying the winner is the engine's job.
type Selector struct {
	store store.Store
}

func NewSelector(s store.Store) *Selector {
	return &Selector{store: s}
}

// Candidates returns eligible entries ordered by match score descending,
// creation time ascending, then id ascending. An empty result is a normal
// outcome, not an error.
func (s *Selector) Candidates(ctx context.Context, slot *types.Slot, now time.Time) ([]*types.WaitlistEntry, error) {
	entries, err := s.store.ListCandidates(ctx, slot.TenantID, &store.CandidateQuery{
		ServiceID: slot.ServiceID,
		StaffID:   slot.StaffID,
		StartTime: slot.StartTime,
		EndTime:   slot.EndTime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates for slot %s: %w", slot.ID, err)
	}

	if slot.StaffID != "" {
		if _, err := s.store.GetStaff(ctx, slot.TenantID, slot.StaffID); err != nil {
			// Entries with no staff preference still match, so a dangling
			// staff reference narrows the pool but is not fatal.
			log.Warn().
				Err(err).
				Str("tenant_id", slot.TenantID).
				Str("slot_id", slot.ID).
				Str("staff_id", slot.StaffID).
				Msg("slot references missing staff")
		}
	}

	Rank(entries, slot, now)
	return entries, nil
}

// Rank sorts entries in place by (match score desc, created_at asc, id asc).
// The id tiebreak makes the order fully deterministic.
func Rank(entries []*types.WaitlistEntry, slot *types.Slot, now time.Time) {
	sort.SliceStable(entries, func(i, j int) bool {
		si := MatchScore(entries[i], slot, now)
		sj := MatchScore(entries[j], slot, now)
		if si != sj {
			return si > sj
		}
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.Before(entries[j].CreatedAt)
		}
		return entries[i].ID < entries[j].ID
	})
}
