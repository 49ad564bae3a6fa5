package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/openslot/openslot/api/pkg/system"
	"github.com/openslot/openslot/api/pkg/types"
)

type createTenantRequest struct {
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
}

type createTenantResponse struct {
	Tenant *types.Tenant `json:"tenant"`
	// APIKey is returned exactly once, at registration.
	APIKey string `json:"api_key"`
}

func (apiServer *OpenSlotServer) createTenant(_ http.ResponseWriter, req *http.Request) (*createTenantResponse, *system.HTTPError) {
	var request createTenantRequest
	if err := json.NewDecoder(req.Body).Decode(&request); err != nil {
		return nil, system.NewHTTPError400("invalid request body")
	}
	if request.Name == "" {
		return nil, system.NewHTTPError400("name is required")
	}

	tenant, err := apiServer.Store.CreateTenant(req.Context(), &types.Tenant{
		Name:     request.Name,
		Timezone: request.Timezone,
	})
	if err != nil {
		return nil, apiError(err)
	}

	return &createTenantResponse{
		Tenant: tenant,
		APIKey: tenant.APIKey,
	}, nil
}

func (apiServer *OpenSlotServer) createStaff(_ http.ResponseWriter, req *http.Request) (*types.Staff, *system.HTTPError) {
	tenant := getRequestTenant(req)

	var staff types.Staff
	if err := json.NewDecoder(req.Body).Decode(&staff); err != nil {
		return nil, system.NewHTTPError400("invalid request body")
	}
	if staff.Name == "" {
		return nil, system.NewHTTPError400("name is required")
	}
	staff.ID = ""
	staff.TenantID = tenant.ID
	staff.CalendarSyncStatus = ""
	staff.CalendarSyncError = ""

	created, err := apiServer.Store.CreateStaff(req.Context(), &staff)
	if err != nil {
		return nil, apiError(err)
	}
	return created, nil
}

func (apiServer *OpenSlotServer) getStaff(_ http.ResponseWriter, req *http.Request) (*types.Staff, *system.HTTPError) {
	tenant := getRequestTenant(req)
	id := mux.Vars(req)["id"]

	staff, err := apiServer.Store.GetStaff(req.Context(), tenant.ID, id)
	if err != nil {
		return nil, apiError(err)
	}
	return staff, nil
}

func (apiServer *OpenSlotServer) listStaff(_ http.ResponseWriter, req *http.Request) ([]*types.Staff, *system.HTTPError) {
	tenant := getRequestTenant(req)

	staff, err := apiServer.Store.ListStaff(req.Context(), tenant.ID)
	if err != nil {
		return nil, apiError(err)
	}
	return staff, nil
}

func (apiServer *OpenSlotServer) createService(_ http.ResponseWriter, req *http.Request) (*types.Service, *system.HTTPError) {
	tenant := getRequestTenant(req)

	var service types.Service
	if err := json.NewDecoder(req.Body).Decode(&service); err != nil {
		return nil, system.NewHTTPError400("invalid request body")
	}
	if service.Name == "" {
		return nil, system.NewHTTPError400("name is required")
	}
	if service.DurationMinutes <= 0 {
		return nil, system.NewHTTPError400("duration_minutes must be positive")
	}
	service.ID = ""
	service.TenantID = tenant.ID

	created, err := apiServer.Store.CreateService(req.Context(), &service)
	if err != nil {
		return nil, apiError(err)
	}
	return created, nil
}

func (apiServer *OpenSlotServer) getService(_ http.ResponseWriter, req *http.Request) (*types.Service, *system.HTTPError) {
	tenant := getRequestTenant(req)
	id := mux.Vars(req)["id"]

	service, err := apiServer.Store.GetService(req.Context(), tenant.ID, id)
	if err != nil {
		return nil, apiError(err)
	}
	return service, nil
}

func (apiServer *OpenSlotServer) listServices(_ http.ResponseWriter, req *http.Request) ([]*types.Service, *system.HTTPError) {
	tenant := getRequestTenant(req)

	services, err := apiServer.Store.ListServices(req.Context(), tenant.ID)
	if err != nil {
		return nil, apiError(err)
	}
	return services, nil
}
