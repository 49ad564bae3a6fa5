package types

import (
	"time"
)

type SlotStatus string

const (
	SlotStatusOpen     SlotStatus = "open"
	SlotStatusHeld     SlotStatus = "held"
	SlotStatusBooked   SlotStatus = "booked"
	SlotStatusCanceled SlotStatus = "canceled"
)

type WaitlistStatus string

const (
	WaitlistStatusActive    WaitlistStatus = "active"
	WaitlistStatusNotified  WaitlistStatus = "notified"
	WaitlistStatusConfirmed WaitlistStatus = "confirmed"
	WaitlistStatusRemoved   WaitlistStatus = "removed"
)

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusNoShow    BookingStatus = "no_show"
	BookingStatusCanceled  BookingStatus = "canceled"
)

type BookingSource string

const (
	BookingSourceWaitlist BookingSource = "waitlist"
	BookingSourceDirect   BookingSource = "direct"
	BookingSourceWalkIn   BookingSource = "walk_in"
)

type NotificationStatus string

const (
	NotificationStatusPending   NotificationStatus = "pending"
	NotificationStatusSent      NotificationStatus = "sent"
	NotificationStatusDelivered NotificationStatus = "delivered"
	NotificationStatusFailed    NotificationStatus = "failed"
)

type NotificationChannel string

const (
	NotificationChannelEmail NotificationChannel = "email"
	NotificationChannelSMS   NotificationChannel = "sms"
)

type NotificationResponse string

const (
	NotificationResponseConfirmed NotificationResponse = "confirmed"
	NotificationResponseDeclined  NotificationResponse = "declined"
)

type CalendarEventStatus string

const (
	CalendarEventStatusCreated CalendarEventStatus = "created"
	CalendarEventStatusDeleted CalendarEventStatus = "deleted"
	CalendarEventStatusError   CalendarEventStatus = "error"
)

type ActorType string

const (
	ActorTypeSystem   ActorType = "system"
	ActorTypeStaff    ActorType = "staff"
	ActorTypeCustomer ActorType = "customer"
)

// TokenAction is the single transition a signed confirm/decline token
// authorizes.
type TokenAction string

const (
	TokenActionConfirm TokenAction = "confirm"
	TokenActionDecline TokenAction = "decline"
)

type Tenant struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name"`
	Timezone  string    `json:"timezone"`
	APIKey    string    `json:"-" gorm:"index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Staff struct {
	ID       string `json:"id" gorm:"primaryKey"`
	TenantID string `json:"tenant_id" gorm:"index"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	// CalendarSyncStatus records the last calendar adapter outcome for this
	// staff member. Never blocks bookings.
	CalendarSyncStatus string    `json:"calendar_sync_status"`
	CalendarSyncError  string    `json:"calendar_sync_error"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type Service struct {
	ID              string    `json:"id" gorm:"primaryKey"`
	TenantID        string    `json:"tenant_id" gorm:"index"`
	Name            string    `json:"name"`
	DurationMinutes int       `json:"duration_minutes"`
	PriceCents      int       `json:"price_cents"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Slot is a concrete appointment window on one staff member for one service.
// HoldExpiresAt is set iff status is held.
type Slot struct {
	ID            string     `json:"id" gorm:"primaryKey"`
	TenantID      string     `json:"tenant_id" gorm:"index:idx_slots_tenant_status_expiry,priority:1;index:idx_slots_tenant_staff_start,priority:1"`
	StaffID       string     `json:"staff_id" gorm:"index:idx_slots_tenant_staff_start,priority:2"`
	ServiceID     string     `json:"service_id"`
	StartTime     time.Time  `json:"start_time" gorm:"index:idx_slots_tenant_staff_start,priority:3"`
	EndTime       time.Time  `json:"end_time"`
	Status        SlotStatus `json:"status" gorm:"index:idx_slots_tenant_status_expiry,priority:2"`
	HoldExpiresAt *time.Time `json:"hold_expires_at,omitempty" gorm:"index:idx_slots_tenant_status_expiry,priority:3"`
	// HeldForEntry is the waitlist entry the current hold belongs to, empty
	// unless status is held.
	HeldForEntry string    `json:"held_for_entry,omitempty"`
	Version      int       `json:"version"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (s *Slot) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

type WaitlistEntry struct {
	ID           string `json:"id" gorm:"primaryKey"`
	TenantID     string `json:"tenant_id" gorm:"index:idx_wle_tenant_service_status,priority:1;index:idx_wle_tenant_phone_status,priority:1"`
	CustomerName string `json:"customer_name"`
	Phone        string `json:"phone" gorm:"index:idx_wle_tenant_phone_status,priority:2"`
	Email        string `json:"email,omitempty"`
	ServiceID    string `json:"service_id" gorm:"index:idx_wle_tenant_service_status,priority:2"`
	// StaffID is the optional staff preference; empty means any staff.
	StaffID       string         `json:"staff_id,omitempty"`
	EarliestTime  time.Time      `json:"earliest_time"`
	LatestTime    time.Time      `json:"latest_time"`
	VIP           bool           `json:"vip"`
	PriorityScore int            `json:"priority_score"`
	Status        WaitlistStatus `json:"status" gorm:"index:idx_wle_tenant_service_status,priority:3;index:idx_wle_tenant_phone_status,priority:3"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// Window is the customer's acceptable time range.
func (e *WaitlistEntry) Window() time.Duration {
	return e.LatestTime.Sub(e.EarliestTime)
}

type Booking struct {
	ID       string `json:"id" gorm:"primaryKey"`
	TenantID string `json:"tenant_id" gorm:"index"`
	SlotID   string `json:"slot_id" gorm:"uniqueIndex"`
	// WaitlistEntryID is a weak back-reference; the entry may later be soft
	// removed.
	WaitlistEntryID string        `json:"waitlist_entry_id,omitempty"`
	CustomerName    string        `json:"customer_name"`
	CustomerPhone   string        `json:"customer_phone"`
	CustomerEmail   string        `json:"customer_email,omitempty"`
	Status          BookingStatus `json:"status"`
	Source          BookingSource `json:"source"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

type Notification struct {
	ID       string              `json:"id" gorm:"primaryKey"`
	TenantID string              `json:"tenant_id" gorm:"index:idx_notifications_tenant_created,priority:1"`
	EntryID  string              `json:"entry_id" gorm:"index"`
	SlotID   string              `json:"slot_id"`
	Channel  NotificationChannel `json:"channel"`
	Status   NotificationStatus  `json:"status"`
	// TokenHash is a SHA-256 over the issued confirm+decline token pair. The
	// raw tokens are never persisted.
	TokenHash  string               `json:"-"`
	ProviderID string               `json:"provider_id,omitempty"`
	Error      string               `json:"error,omitempty"`
	SentAt     *time.Time           `json:"sent_at,omitempty"`
	Response   NotificationResponse `json:"response,omitempty"`
	CreatedAt  time.Time            `json:"created_at" gorm:"index:idx_notifications_tenant_created,priority:2"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

type CalendarEvent struct {
	ID              string              `json:"id" gorm:"primaryKey"`
	TenantID        string              `json:"tenant_id" gorm:"index"`
	SlotID          string              `json:"slot_id" gorm:"index"`
	StaffID         string              `json:"staff_id"`
	ExternalEventID string              `json:"external_event_id"`
	Status          CalendarEventStatus `json:"status"`
	LastError       string              `json:"last_error,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

type AuditLog struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	TenantID     string    `json:"tenant_id" gorm:"index"`
	ActorType    ActorType `json:"actor_type"`
	ActorID      string    `json:"actor_id,omitempty"`
	Action       string    `json:"action"`
	ResourceType string    `json:"resource_type"`
	ResourceID   string    `json:"resource_id"`
	// CorrelationID ties together the audit records of one request or one
	// ticker pass.
	CorrelationID string    `json:"correlation_id,omitempty"`
	Metadata      string    `json:"metadata,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
