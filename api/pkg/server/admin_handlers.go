package server

import (
	"net/http"
	"strconv"

	"github.com/openslot/openslot/api/pkg/store"
	"github.com/openslot/openslot/api/pkg/system"
	"github.com/openslot/openslot/api/pkg/types"
)

func (apiServer *OpenSlotServer) listNotifications(_ http.ResponseWriter, req *http.Request) ([]*types.Notification, *system.HTTPError) {
	tenant := getRequestTenant(req)

	notifications, err := apiServer.Store.ListNotifications(req.Context(), tenant.ID, &store.ListNotificationsQuery{
		EntryID: req.URL.Query().Get("entry_id"),
		SlotID:  req.URL.Query().Get("slot_id"),
	})
	if err != nil {
		return nil, apiError(err)
	}
	return notifications, nil
}

func (apiServer *OpenSlotServer) listAuditLogs(_ http.ResponseWriter, req *http.Request) ([]*types.AuditLog, *system.HTTPError) {
	tenant := getRequestTenant(req)

	query := &store.ListAuditLogsQuery{
		ResourceType:  req.URL.Query().Get("resource_type"),
		ResourceID:    req.URL.Query().Get("resource_id"),
		CorrelationID: req.URL.Query().Get("correlation_id"),
	}
	if raw := req.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return nil, system.NewHTTPError400("limit must be a positive integer")
		}
		query.Limit = limit
	}

	records, err := apiServer.Store.ListAuditLogs(req.Context(), tenant.ID, query)
	if err != nil {
		return nil, apiError(err)
	}
	return records, nil
}

// processExpiredHolds triggers the reaper pass on demand, same code path the
// ticker runs. Useful when a hold should be reaped right now instead of on
// the next tick.
func (apiServer *OpenSlotServer) processExpiredHolds(_ http.ResponseWriter, req *http.Request) (*types.ExpiredHoldsResult, *system.HTTPError) {
	result, err := apiServer.Engine.ProcessExpiredHolds(req.Context())
	if err != nil {
		return nil, apiError(err)
	}
	return result, nil
}
