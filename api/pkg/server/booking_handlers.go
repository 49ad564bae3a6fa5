package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/openslot/openslot/api/pkg/store"
	"github.com/openslot/openslot/api/pkg/system"
	"github.com/openslot/openslot/api/pkg/types"
)

func (apiServer *OpenSlotServer) getBooking(_ http.ResponseWriter, req *http.Request) (*types.Booking, *system.HTTPError) {
	tenant := getRequestTenant(req)
	id := mux.Vars(req)["id"]

	booking, err := apiServer.Store.GetBooking(req.Context(), tenant.ID, id)
	if err != nil {
		return nil, apiError(err)
	}
	return booking, nil
}

func (apiServer *OpenSlotServer) listBookings(_ http.ResponseWriter, req *http.Request) ([]*types.Booking, *system.HTTPError) {
	tenant := getRequestTenant(req)

	bookings, err := apiServer.Store.ListBookings(req.Context(), tenant.ID, &store.ListBookingsQuery{
		Status: types.BookingStatus(req.URL.Query().Get("status")),
	})
	if err != nil {
		return nil, apiError(err)
	}
	return bookings, nil
}

type updateBookingStatusRequest struct {
	Status types.BookingStatus `json:"status"`
}

// updateBookingStatus covers the post-booking lifecycle: completed, no_show,
// canceled. The slot state machine is not involved past this point.
func (apiServer *OpenSlotServer) updateBookingStatus(_ http.ResponseWriter, req *http.Request) (*types.Booking, *system.HTTPError) {
	tenant := getRequestTenant(req)
	id := mux.Vars(req)["id"]

	var request updateBookingStatusRequest
	if err := json.NewDecoder(req.Body).Decode(&request); err != nil {
		return nil, system.NewHTTPError400("invalid request body")
	}
	switch request.Status {
	case types.BookingStatusCompleted, types.BookingStatusNoShow, types.BookingStatusCanceled:
	default:
		return nil, system.NewHTTPError400("status must be completed, no_show or canceled")
	}

	booking, err := apiServer.Store.UpdateBookingStatus(req.Context(), tenant.ID, id, request.Status)
	if err != nil {
		return nil, apiError(err)
	}

	if request.Status == types.BookingStatusCanceled {
		if err := apiServer.Janitor.WriteBookingEvent("canceled", booking); err != nil {
			log.Warn().Err(err).Str("booking_id", booking.ID).Msg("failed to send booking alert")
		}
	}
	return booking, nil
}
