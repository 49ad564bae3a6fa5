package booking

import (
	"errors"
	"fmt"

	"github.com/openslot/openslot/api/pkg/store"
	"github.com/openslot/openslot/api/pkg/token"
)

// ErrorKind is the stable error surface for consumers. Transitions that lose
// a race return precondition_failed with a sub kind; the business meaning of
// "someone else got it" must reach the user, so these are never retried
// internally.
type ErrorKind string

const (
	KindNotFound           ErrorKind = "not_found"
	KindInvalidToken       ErrorKind = "invalid_token"
	KindPreconditionFailed ErrorKind = "precondition_failed"
	KindConflict           ErrorKind = "conflict"
	KindRateLimited        ErrorKind = "rate_limited"
	KindTransient          ErrorKind = "transient"
	KindInvariantViolated  ErrorKind = "invariant_violated"
)

type ErrorSubKind string

const (
	SubSlotNoLongerAvailable ErrorSubKind = "slot_no_longer_available"
	SubHoldExpired           ErrorSubKind = "hold_expired"
	SubEntryNotActive        ErrorSubKind = "entry_not_active"
)

type Error struct {
	Kind ErrorKind
	Sub  ErrorSubKind
	err  error
}

func (e *Error) Error() string {
	if e.Sub != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Sub)
	}
	if e.err != nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.err.Error())
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.err
}

func newError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, err: err}
}

func newPreconditionError(sub ErrorSubKind, err error) *Error {
	return &Error{Kind: KindPreconditionFailed, Sub: sub, err: err}
}

// wrapStoreError maps store sentinels onto the stable kinds. Anything
// unrecognized is a transient store failure, safe to retry at the caller.
func wrapStoreError(err error) *Error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return newError(KindNotFound, err)
	case errors.Is(err, store.ErrSlotNoLongerAvailable):
		return newPreconditionError(SubSlotNoLongerAvailable, err)
	case errors.Is(err, store.ErrHoldExpired):
		return newPreconditionError(SubHoldExpired, err)
	case errors.Is(err, store.ErrEntryNotActive):
		return newPreconditionError(SubEntryNotActive, err)
	case errors.Is(err, store.ErrConflict):
		return newError(KindConflict, err)
	case errors.Is(err, store.ErrPhoneCapReached):
		return newError(KindConflict, err)
	default:
		return newError(KindTransient, err)
	}
}

func wrapTokenError(err error) *Error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, token.ErrTokenExpired), errors.Is(err, token.ErrInvalidToken):
		return newError(KindInvalidToken, err)
	default:
		return newError(KindInvalidToken, err)
	}
}

// AsError extracts the typed error, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
