package types

import "time"

type CreateSlotRequest struct {
	StaffID   string    `json:"staff_id"`
	ServiceID string    `json:"service_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

type CreateWaitlistEntryRequest struct {
	CustomerName string    `json:"customer_name"`
	Phone        string    `json:"phone"`
	Email        string    `json:"email,omitempty"`
	ServiceID    string    `json:"service_id"`
	StaffID      string    `json:"staff_id,omitempty"`
	EarliestTime time.Time `json:"earliest_time"`
	LatestTime   time.Time `json:"latest_time"`
	VIP          bool      `json:"vip"`
}

// OpenSlotResponse is returned by the admin open/re-match operation.
type OpenSlotResponse struct {
	Slot                 *Slot            `json:"slot"`
	Candidates           []*WaitlistEntry `json:"candidates"`
	TopCandidate         *WaitlistEntry   `json:"top_candidate,omitempty"`
	NotificationEnqueued bool             `json:"notification_enqueued"`
}

type ConfirmResponse struct {
	Booking *Booking `json:"booking"`
}

type CascadeResult struct {
	NextCandidate *WaitlistEntry `json:"next_candidate,omitempty"`
	// Attempts counts candidates tried, including stale entries that were
	// skipped.
	Attempts int `json:"attempts"`
}

type DeclineResponse struct {
	Cascade *CascadeResult `json:"cascade"`
}

type ExpiredHoldsResult struct {
	ReleasedCount        int `json:"released_count"`
	CascadeNotifications int `json:"cascade_notifications"`
}
