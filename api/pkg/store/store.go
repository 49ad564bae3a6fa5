package store

import (
	"context"
	"time"

	"github.com/openslot/openslot/api/pkg/types"
)

type ListSlotsQuery struct {
	StaffID string           `json:"staff_id"`
	Status  types.SlotStatus `json:"status"`
	From    time.Time        `json:"from"`
	To      time.Time        `json:"to"`
}

type ListWaitlistQuery struct {
	ServiceID string               `json:"service_id"`
	Phone     string               `json:"phone"`
	Status    types.WaitlistStatus `json:"status"`
}

// CandidateQuery selects the waitlist entries eligible for a slot. Ranking
// happens in the matching package; this is the SQL-expressible filter only.
type CandidateQuery struct {
	ServiceID string    `json:"service_id"`
	StaffID   string    `json:"staff_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

type ListBookingsQuery struct {
	Status types.BookingStatus `json:"status"`
}

type ListNotificationsQuery struct {
	EntryID string `json:"entry_id"`
	SlotID  string `json:"slot_id"`
}

type ListCalendarEventsQuery struct {
	SlotID string                    `json:"slot_id"`
	Status types.CalendarEventStatus `json:"status"`
}

type ListAuditLogsQuery struct {
	ResourceType  string `json:"resource_type"`
	ResourceID    string `json:"resource_id"`
	CorrelationID string `json:"correlation_id"`
	Limit         int    `json:"limit"`
}

// ConfirmHoldParams carries everything the confirm transaction needs. Now is
// injected so the hold-expiry guard is testable.
type ConfirmHoldParams struct {
	TenantID string
	SlotID   string
	EntryID  string
	Now      time.Time
	// ActorID goes into the audit record, usually the customer phone.
	ActorID       string
	CorrelationID string
}

// Store is tenant-scoped at the type level: every read and write takes the
// tenant id explicitly and filters on it. The slot transition methods are
// guarded updates, at most one concurrent writer succeeds.
type Store interface {
	// tenants
	CreateTenant(ctx context.Context, tenant *types.Tenant) (*types.Tenant, error)
	GetTenant(ctx context.Context, id string) (*types.Tenant, error)
	GetTenantByAPIKey(ctx context.Context, apiKey string) (*types.Tenant, error)

	// staff
	CreateStaff(ctx context.Context, staff *types.Staff) (*types.Staff, error)
	GetStaff(ctx context.Context, tenantID, id string) (*types.Staff, error)
	ListStaff(ctx context.Context, tenantID string) ([]*types.Staff, error)
	UpdateStaffCalendarSync(ctx context.Context, tenantID, id, status, errMsg string) error

	// services
	CreateService(ctx context.Context, service *types.Service) (*types.Service, error)
	GetService(ctx context.Context, tenantID, id string) (*types.Service, error)
	ListServices(ctx context.Context, tenantID string) ([]*types.Service, error)

	// slots
	CreateSlot(ctx context.Context, slot *types.Slot) (*types.Slot, error)
	GetSlot(ctx context.Context, tenantID, id string) (*types.Slot, error)
	ListSlots(ctx context.Context, tenantID string, q *ListSlotsQuery) ([]*types.Slot, error)
	ListOverlappingSlots(ctx context.Context, tenantID, staffID string, start, end time.Time) ([]*types.Slot, error)
	// ListExpiredHolds is the only cross-tenant scan; the ticker reaps holds
	// for every tenant. Rows carry their tenant id.
	ListExpiredHolds(ctx context.Context, now time.Time, limit int) ([]*types.Slot, error)

	// slot transitions (guarded, each one transaction)
	HoldSlotForEntry(ctx context.Context, tenantID, slotID, entryID string, expiresAt time.Time) error
	ConfirmHold(ctx context.Context, params *ConfirmHoldParams) (*types.Booking, error)
	ReleaseHold(ctx context.Context, tenantID, slotID, entryID string) error
	ExpireHold(ctx context.Context, tenantID, slotID string, now time.Time) error
	CancelSlot(ctx context.Context, tenantID, slotID string) (*types.Slot, error)

	// waitlist entries
	CreateWaitlistEntry(ctx context.Context, entry *types.WaitlistEntry, maxActivePerPhone int) (*types.WaitlistEntry, error)
	GetWaitlistEntry(ctx context.Context, tenantID, id string) (*types.WaitlistEntry, error)
	ListWaitlistEntries(ctx context.Context, tenantID string, q *ListWaitlistQuery) ([]*types.WaitlistEntry, error)
	ListCandidates(ctx context.Context, tenantID string, q *CandidateQuery) ([]*types.WaitlistEntry, error)
	UpdateWaitlistEntryStatus(ctx context.Context, tenantID, id string, from, to types.WaitlistStatus) error
	RemoveWaitlistEntry(ctx context.Context, tenantID, id string) error

	// bookings
	GetBooking(ctx context.Context, tenantID, id string) (*types.Booking, error)
	GetBookingBySlot(ctx context.Context, tenantID, slotID string) (*types.Booking, error)
	ListBookings(ctx context.Context, tenantID string, q *ListBookingsQuery) ([]*types.Booking, error)
	UpdateBookingStatus(ctx context.Context, tenantID, id string, status types.BookingStatus) (*types.Booking, error)

	// notifications
	CreateNotification(ctx context.Context, notification *types.Notification) (*types.Notification, error)
	GetNotification(ctx context.Context, tenantID, id string) (*types.Notification, error)
	UpdateNotification(ctx context.Context, notification *types.Notification) (*types.Notification, error)
	ListNotifications(ctx context.Context, tenantID string, q *ListNotificationsQuery) ([]*types.Notification, error)
	RecordNotificationResponse(ctx context.Context, tenantID, entryID, slotID string, response types.NotificationResponse) error

	// calendar events
	CreateCalendarEvent(ctx context.Context, event *types.CalendarEvent) (*types.CalendarEvent, error)
	UpdateCalendarEvent(ctx context.Context, event *types.CalendarEvent) (*types.CalendarEvent, error)
	GetCalendarEventBySlot(ctx context.Context, tenantID, slotID string) (*types.CalendarEvent, error)
	ListCalendarEvents(ctx context.Context, tenantID string, q *ListCalendarEventsQuery) ([]*types.CalendarEvent, error)
	// ListCalendarEventsForReconcile feeds the reconciler: error rows plus
	// rows whose slot is gone or canceled, across tenants.
	ListCalendarEventsForReconcile(ctx context.Context, limit int) ([]*types.CalendarEvent, error)

	// audit logs
	CreateAuditLog(ctx context.Context, record *types.AuditLog) (*types.AuditLog, error)
	ListAuditLogs(ctx context.Context, tenantID string, q *ListAuditLogsQuery) ([]*types.AuditLog, error)

	Close() error
}
