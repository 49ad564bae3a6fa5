package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/openslot/openslot/api/pkg/matching"
	"github.com/openslot/openslot/api/pkg/store"
	"github.com/openslot/openslot/api/pkg/system"
	"github.com/openslot/openslot/api/pkg/types"
)

func (apiServer *OpenSlotServer) createWaitlistEntry(_ http.ResponseWriter, req *http.Request) (*types.WaitlistEntry, *system.HTTPError) {
	tenant := getRequestTenant(req)

	var request types.CreateWaitlistEntryRequest
	if err := json.NewDecoder(req.Body).Decode(&request); err != nil {
		return nil, system.NewHTTPError400("invalid request body")
	}
	if request.CustomerName == "" || request.Phone == "" {
		return nil, system.NewHTTPError400("customer_name and phone are required")
	}
	if request.ServiceID == "" {
		return nil, system.NewHTTPError400("service_id is required")
	}
	if !request.LatestTime.After(request.EarliestTime) {
		return nil, system.NewHTTPError400("latest_time must be after earliest_time")
	}

	// The preferred staff member must exist when given; a typo here would
	// silently exclude the entry from every match.
	if request.StaffID != "" {
		if _, err := apiServer.Store.GetStaff(req.Context(), tenant.ID, request.StaffID); err != nil {
			return nil, system.NewHTTPError400("staff_id does not exist")
		}
	}
	if _, err := apiServer.Store.GetService(req.Context(), tenant.ID, request.ServiceID); err != nil {
		return nil, system.NewHTTPError400("service_id does not exist")
	}

	entry := &types.WaitlistEntry{
		TenantID:     tenant.ID,
		CustomerName: request.CustomerName,
		Phone:        request.Phone,
		Email:        request.Email,
		ServiceID:    request.ServiceID,
		StaffID:      request.StaffID,
		EarliestTime: request.EarliestTime,
		LatestTime:   request.LatestTime,
		VIP:          request.VIP,
		Status:       types.WaitlistStatusActive,
		CreatedAt:    time.Now(),
	}
	entry.PriorityScore = matching.PriorityScore(entry, time.Now())

	created, err := apiServer.Store.CreateWaitlistEntry(req.Context(), entry, apiServer.Cfg.Waitlist.MaxActiveEntriesPerPhone)
	if err != nil {
		return nil, apiError(err)
	}
	return created, nil
}

func (apiServer *OpenSlotServer) getWaitlistEntry(_ http.ResponseWriter, req *http.Request) (*types.WaitlistEntry, *system.HTTPError) {
	tenant := getRequestTenant(req)
	id := mux.Vars(req)["id"]

	entry, err := apiServer.Store.GetWaitlistEntry(req.Context(), tenant.ID, id)
	if err != nil {
		return nil, apiError(err)
	}
	return entry, nil
}

func (apiServer *OpenSlotServer) listWaitlistEntries(_ http.ResponseWriter, req *http.Request) ([]*types.WaitlistEntry, *system.HTTPError) {
	tenant := getRequestTenant(req)

	entries, err := apiServer.Store.ListWaitlistEntries(req.Context(), tenant.ID, &store.ListWaitlistQuery{
		ServiceID: req.URL.Query().Get("service_id"),
		Phone:     req.URL.Query().Get("phone"),
		Status:    types.WaitlistStatus(req.URL.Query().Get("status")),
	})
	if err != nil {
		return nil, apiError(err)
	}
	return entries, nil
}

type removeWaitlistEntryResponse struct {
	ID      string `json:"id"`
	Removed bool   `json:"removed"`
}

func (apiServer *OpenSlotServer) removeWaitlistEntry(_ http.ResponseWriter, req *http.Request) (*removeWaitlistEntryResponse, *system.HTTPError) {
	tenant := getRequestTenant(req)
	id := mux.Vars(req)["id"]

	if err := apiServer.Store.RemoveWaitlistEntry(req.Context(), tenant.ID, id); err != nil {
		return nil, apiError(err)
	}
	return &removeWaitlistEntryResponse{ID: id, Removed: true}, nil
}
