package server

import (
	"errors"
	"net/http"

	"github.com/openslot/openslot/api/pkg/booking"
	"github.com/openslot/openslot/api/pkg/store"
	"github.com/openslot/openslot/api/pkg/system"
)

// apiError translates engine and store errors into http errors. Lost races
// surface as 409 so clients can tell "someone else got it" apart from a
// server fault.
func apiError(err error) *system.HTTPError {
	if err == nil {
		return nil
	}

	if bookingErr, ok := booking.AsError(err); ok {
		switch bookingErr.Kind {
		case booking.KindNotFound:
			return system.NewHTTPError404(bookingErr.Error())
		case booking.KindInvalidToken:
			return system.NewHTTPError401(bookingErr.Error())
		case booking.KindPreconditionFailed, booking.KindConflict:
			return system.NewHTTPError409(bookingErr.Error())
		case booking.KindRateLimited:
			return &system.HTTPError{
				StatusCode: http.StatusTooManyRequests,
				Message:    bookingErr.Error(),
			}
		default:
			return system.NewHTTPError500(bookingErr.Error())
		}
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		return system.NewHTTPError404(err.Error())
	case errors.Is(err, store.ErrPhoneCapReached):
		return &system.HTTPError{
			StatusCode: http.StatusTooManyRequests,
			Message:    err.Error(),
		}
	case errors.Is(err, store.ErrConflict),
		errors.Is(err, store.ErrSlotNoLongerAvailable),
		errors.Is(err, store.ErrHoldExpired),
		errors.Is(err, store.ErrEntryNotActive):
		return system.NewHTTPError409(err.Error())
	default:
		return system.NewHTTPError500(err.Error())
	}
}

type statusResponse struct {
	TenantID string `json:"tenant_id"`
	Name     string `json:"name"`
	Version  string `json:"version"`
}

func (apiServer *OpenSlotServer) status(_ http.ResponseWriter, req *http.Request) (statusResponse, error) {
	tenant := getRequestTenant(req)
	return statusResponse{
		TenantID: tenant.ID,
		Name:     tenant.Name,
		Version:  system.Version,
	}, nil
}
