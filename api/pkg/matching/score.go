package matching

import (
	"time"

	"github.com/openslot/openslot/api/pkg/types"
)

// Scoring is pure and deterministic: the same entry, slot and clock always
// produce the same numbers.

const (
	baseScore         = 20
	vipBonus          = 15
	serviceMatchBonus = 15
	staffPrefBonus    = 10
	timeWindowBonus   = 10
	tenureCap         = 20
	tenureWeek        = 7 * 24 * time.Hour

	staffExactMatchBonus = 10
	durationFitBonus     = 5
)

// PriorityScore ranks an entry independent of any slot. Candidates are
// pre-filtered by service and time window, so those two bonuses always
// apply; they stay in the formula to keep scores stable wherever they are
// displayed or reused.
func PriorityScore(entry *types.WaitlistEntry, now time.Time) int {
	score := baseScore + serviceMatchBonus + timeWindowBonus

	if entry.VIP {
		score += vipBonus
	}
	if entry.StaffID != "" {
		score += staffPrefBonus
	}

	tenure := int(now.Sub(entry.CreatedAt) / tenureWeek)
	if tenure < 0 {
		tenure = 0
	}
	if tenure > tenureCap {
		tenure = tenureCap
	}
	score += tenure

	return score
}

// MatchScore ranks an entry for one concrete slot.
func MatchScore(entry *types.WaitlistEntry, slot *types.Slot, now time.Time) int {
	score := PriorityScore(entry, now)

	if entry.StaffID != "" && entry.StaffID == slot.StaffID {
		score += staffExactMatchBonus
	}
	if slot.Duration() <= entry.Window() {
		score += durationFitBonus
	}

	return score
}
