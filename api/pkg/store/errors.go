package store

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// Guarded update misses. Each one means some other writer got there
	// first; callers surface these, never retry silently.
	ErrSlotNoLongerAvailable = errors.New("slot no longer available")
	ErrHoldExpired           = errors.New("hold expired")
	ErrEntryNotActive        = errors.New("entry not active")

	// ErrConflict covers uniqueness violations, e.g. a second booking row
	// for the same slot.
	ErrConflict = errors.New("conflict")

	// ErrPhoneCapReached rejects a waitlist insert that would exceed the
	// per-tenant active/notified cap for one phone number.
	ErrPhoneCapReached = errors.New("too many active waitlist entries for this phone")
)
