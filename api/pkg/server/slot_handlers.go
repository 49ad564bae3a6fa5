package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/openslot/openslot/api/pkg/store"
	"github.com/openslot/openslot/api/pkg/system"
	"github.com/openslot/openslot/api/pkg/types"
)

func (apiServer *OpenSlotServer) createSlot(_ http.ResponseWriter, req *http.Request) (*types.Slot, *system.HTTPError) {
	tenant := getRequestTenant(req)

	var request types.CreateSlotRequest
	if err := json.NewDecoder(req.Body).Decode(&request); err != nil {
		return nil, system.NewHTTPError400("invalid request body")
	}
	if request.StaffID == "" || request.ServiceID == "" {
		return nil, system.NewHTTPError400("staff_id and service_id are required")
	}
	if !request.EndTime.After(request.StartTime) {
		return nil, system.NewHTTPError400("end_time must be after start_time")
	}

	slot, err := apiServer.Store.CreateSlot(req.Context(), &types.Slot{
		TenantID:  tenant.ID,
		StaffID:   request.StaffID,
		ServiceID: request.ServiceID,
		StartTime: request.StartTime,
		EndTime:   request.EndTime,
		Status:    types.SlotStatusOpen,
	})
	if err != nil {
		return nil, apiError(err)
	}
	return slot, nil
}

func (apiServer *OpenSlotServer) getSlot(_ http.ResponseWriter, req *http.Request) (*types.Slot, *system.HTTPError) {
	tenant := getRequestTenant(req)
	id := mux.Vars(req)["id"]

	slot, err := apiServer.Store.GetSlot(req.Context(), tenant.ID, id)
	if err != nil {
		return nil, apiError(err)
	}
	return slot, nil
}

func (apiServer *OpenSlotServer) listSlots(_ http.ResponseWriter, req *http.Request) ([]*types.Slot, *system.HTTPError) {
	tenant := getRequestTenant(req)

	query := &store.ListSlotsQuery{
		StaffID: req.URL.Query().Get("staff_id"),
		Status:  types.SlotStatus(req.URL.Query().Get("status")),
	}
	if from := req.URL.Query().Get("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return nil, system.NewHTTPError400("from must be RFC3339")
		}
		query.From = t
	}
	if to := req.URL.Query().Get("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return nil, system.NewHTTPError400("to must be RFC3339")
		}
		query.To = t
	}

	slots, err := apiServer.Store.ListSlots(req.Context(), tenant.ID, query)
	if err != nil {
		return nil, apiError(err)
	}
	return slots, nil
}

// openSlot is the admin re-match action: rank the waitlist for this open slot
// and hold it for the best candidate.
func (apiServer *OpenSlotServer) openSlot(_ http.ResponseWriter, req *http.Request) (*types.OpenSlotResponse, *system.HTTPError) {
	tenant := getRequestTenant(req)
	id := mux.Vars(req)["id"]

	resp, err := apiServer.Engine.OpenSlot(req.Context(), tenant.ID, id)
	if err != nil {
		return nil, apiError(err)
	}
	return resp, nil
}

func (apiServer *OpenSlotServer) holdSlot(_ http.ResponseWriter, req *http.Request) (*types.Slot, *system.HTTPError) {
	tenant := getRequestTenant(req)
	id := mux.Vars(req)["id"]

	var ttlOverride *int
	if raw := req.URL.Query().Get("ttl_minutes"); raw != "" {
		ttl, err := strconv.Atoi(raw)
		if err != nil || ttl <= 0 {
			return nil, system.NewHTTPError400("ttl_minutes must be a positive integer")
		}
		ttlOverride = &ttl
	}

	slot, err := apiServer.Engine.HoldSlot(req.Context(), tenant.ID, id, ttlOverride)
	if err != nil {
		return nil, apiError(err)
	}
	return slot, nil
}

func (apiServer *OpenSlotServer) cancelSlot(_ http.ResponseWriter, req *http.Request) (*types.Slot, *system.HTTPError) {
	tenant := getRequestTenant(req)
	id := mux.Vars(req)["id"]

	slot, err := apiServer.Engine.CancelSlot(req.Context(), tenant.ID, id)
	if err != nil {
		return nil, apiError(err)
	}
	return slot, nil
}
