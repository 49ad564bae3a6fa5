package server

import (
	"net/http"

	"github.com/openslot/openslot/api/pkg/system"
	"github.com/openslot/openslot/api/pkg/types"
)

// confirm and decline are the only customer-facing routes. There is no tenant
// api key here; the signed token in the link is the whole credential and
// names the one transition it authorizes.

func (apiServer *OpenSlotServer) confirm(_ http.ResponseWriter, req *http.Request) (*types.ConfirmResponse, *system.HTTPError) {
	tokenString := req.URL.Query().Get("token")
	if tokenString == "" {
		return nil, system.NewHTTPError400("token is required")
	}

	resp, err := apiServer.Engine.Confirm(req.Context(), tokenString)
	if err != nil {
		return nil, apiError(err)
	}
	return resp, nil
}

func (apiServer *OpenSlotServer) decline(_ http.ResponseWriter, req *http.Request) (*types.DeclineResponse, *system.HTTPError) {
	tokenString := req.URL.Query().Get("token")
	if tokenString == "" {
		return nil, system.NewHTTPError400("token is required")
	}

	resp, err := apiServer.Engine.Decline(req.Context(), tokenString)
	if err != nil {
		return nil, apiError(err)
	}
	return resp, nil
}
