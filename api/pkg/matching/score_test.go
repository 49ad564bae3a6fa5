package matching

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/openslot/openslot/api/pkg/types"
)

func testSlot(start time.Time) *types.Slot {
	return &types.Slot{
		ID:        "slot_a",
		TenantID:  "ten_a",
		StaffID:   "stf_a",
		ServiceID: "svc_a",
		StartTime: start,
		EndTime:   start.Add(30 * time.Minute),
	}
}

func testEntry(id string, created time.Time) *types.WaitlistEntry {
	return &types.WaitlistEntry{
		ID:           id,
		TenantID:     "ten_a",
		ServiceID:    "svc_a",
		EarliestTime: created,
		LatestTime:   created.Add(90 * 24 * time.Hour),
		CreatedAt:    created,
	}
}

func TestPriorityScoreBase(t *testing.T) {
	now := time.Now()
	entry := testEntry("wle_a", now)

	// base + service match + time window, no vip, no staff pref, no tenure
	assert.Equal(t, 45, PriorityScore(entry, now))
}

func TestPriorityScoreVIPAndStaffPref(t *testing.T) {
	now := time.Now()
	entry := testEntry("wle_a", now)
	entry.VIP = true
	entry.StaffID = "stf_a"

	assert.Equal(t, 45+15+10, PriorityScore(entry, now))
}

func TestPriorityScoreTenureCapped(t *testing.T) {
	now := time.Now()

	threeWeeks := testEntry("wle_a", now.Add(-3*7*24*time.Hour))
	assert.Equal(t, 45+3, PriorityScore(threeWeeks, now))

	ancient := testEntry("wle_b", now.Add(-100*7*24*time.Hour))
	assert.Equal(t, 45+20, PriorityScore(ancient, now))
}

func TestPriorityScoreDeterministic(t *testing.T) {
	now := time.Now()
	entry := testEntry("wle_a", now.Add(-2*7*24*time.Hour))
	entry.VIP = true

	first := PriorityScore(entry, now)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, PriorityScore(entry, now))
	}
}

func TestMatchScoreBonuses(t *testing.T) {
	now := time.Now()
	slot := testSlot(now.Add(24 * time.Hour))

	anyStaff := testEntry("wle_a", now)
	exactStaff := testEntry("wle_b", now)
	exactStaff.StaffID = slot.StaffID

	// exact staff match gets the preference bonus plus the exact match bonus
	assert.Equal(t, MatchScore(anyStaff, slot, now)+10+10, MatchScore(exactStaff, slot, now))
}

func TestMatchScoreDurationFit(t *testing.T) {
	now := time.Now()
	slot := testSlot(now.Add(24 * time.Hour))

	narrow := testEntry("wle_a", now)
	narrow.EarliestTime = slot.StartTime
	narrow.LatestTime = slot.StartTime.Add(10 * time.Minute)

	wide := testEntry("wle_b", now)

	// the narrow window does not cover the slot duration, so no fit bonus
	assert.Equal(t, MatchScore(narrow, slot, now)+5, MatchScore(wide, slot, now))
}

func TestRankOrdering(t *testing.T) {
	now := time.Now()
	slot := testSlot(now.Add(24 * time.Hour))

	older := testEntry("wle_b", now.Add(-time.Hour))
	newer := testEntry("wle_a", now)
	vip := testEntry("wle_c", now)
	vip.VIP = true

	entries := []*types.WaitlistEntry{newer, vip, older}
	Rank(entries, slot, now)

	assert.Equal(t, "wle_c", entries[0].ID)
	// equal scores fall back to creation time
	assert.Equal(t, "wle_b", entries[1].ID)
	assert.Equal(t, "wle_a", entries[2].ID)
}

func TestRankIDTiebreak(t *testing.T) {
	now := time.Now()
	slot := testSlot(now.Add(24 * time.Hour))
	created := now.Add(-time.Hour)

	a := testEntry("wle_a", created)
	b := testEntry("wle_b", created)

	entries := []*types.WaitlistEntry{b, a}
	Rank(entries, slot, now)

	assert.Equal(t, "wle_a", entries[0].ID)
	assert.Equal(t, "wle_b", entries[1].ID)
}
