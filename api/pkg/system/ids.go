package system

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

const (
	TenantPrefix        = "ten_"
	StaffPrefix         = "stf_"
	ServicePrefix       = "svc_"
	SlotPrefix          = "slot_"
	WaitlistEntryPrefix = "wle_"
	BookingPrefix       = "bk_"
	NotificationPrefix  = "not_"
	CalendarEventPrefix = "cal_"
	AuditLogPrefix      = "aud_"
	RequestPrefix       = "req_"
)

// IDs are lowercased ULIDs so they sort by creation time, which also gives
// the deterministic final tiebreak when ranking candidates.
func newID() string {
	return strings.ToLower(ulid.Make().String())
}

func GenerateUUID() string {
	return uuid.New().String()
}

func GenerateTenantID() string {
	return fmt.Sprintf("%s%s", TenantPrefix, newID())
}

func GenerateStaffID() string {
	return fmt.Sprintf("%s%s", StaffPrefix, newID())
}

func GenerateServiceID() string {
	return fmt.Sprintf("%s%s", ServicePrefix, newID())
}

func GenerateSlotID() string {
	return fmt.Sprintf("%s%s", SlotPrefix, newID())
}

func GenerateWaitlistEntryID() string {
	return fmt.Sprintf("%s%s", WaitlistEntryPrefix, newID())
}

func GenerateBookingID() string {
	return fmt.Sprintf("%s%s", BookingPrefix, newID())
}

func GenerateNotificationID() string {
	return fmt.Sprintf("%s%s", NotificationPrefix, newID())
}

func GenerateCalendarEventID() string {
	return fmt.Sprintf("%s%s", CalendarEventPrefix, newID())
}

func GenerateAuditLogID() string {
	return fmt.Sprintf("%s%s", AuditLogPrefix, newID())
}

func GenerateRequestID() string {
	return fmt.Sprintf("%s%s", RequestPrefix, newID())
}
