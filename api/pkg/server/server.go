package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/openslot/openslot/api/pkg/booking"
	"github.com/openslot/openslot/api/pkg/config"
	"github.com/openslot/openslot/api/pkg/janitor"
	"github.com/openslot/openslot/api/pkg/store"
	"github.com/openslot/openslot/api/pkg/system"
)

const APIPrefix = "/api/v1"

type OpenSlotServer struct {
	Cfg     *config.ServerConfig
	Store   store.Store
	Engine  *booking.Engine
	Janitor *janitor.Janitor

	authMiddleware *authMiddleware
	router         *mux.Router
}

func NewServer(
	cfg *config.ServerConfig,
	s store.Store,
	engine *booking.Engine,
	jan *janitor.Janitor,
) (*OpenSlotServer, error) {
	if cfg.WebServer.Host == "" {
		return nil, fmt.Errorf("server host is required")
	}
	if cfg.WebServer.Port == 0 {
		return nil, fmt.Errorf("server port is required")
	}

	return &OpenSlotServer{
		Cfg:            cfg,
		Store:          s,
		Engine:         engine,
		Janitor:        jan,
		authMiddleware: newAuthMiddleware(s),
	}, nil
}

func (apiServer *OpenSlotServer) ListenAndServe(ctx context.Context) error {
	router, err := apiServer.registerRoutes(ctx)
	if err != nil {
		return err
	}
	apiServer.router = router

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", apiServer.Cfg.WebServer.Host, apiServer.Cfg.WebServer.Port),
		WriteTimeout:      time.Second * 30,
		ReadTimeout:       time.Second * 30,
		ReadHeaderTimeout: time.Second * 60,
		IdleTimeout:       time.Minute,
		Handler:           apiServer.router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown failed")
		}
	}()

	log.Info().Str("addr", srv.Addr).Msg("api server listening")

	err = srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (apiServer *OpenSlotServer) registerRoutes(_ context.Context) (*mux.Router, error) {
	router := mux.NewRouter()
	err := apiServer.Janitor.InjectMiddleware(router)
	if err != nil {
		return nil, err
	}

	router.Use(errorLoggingMiddleware)

	// insecure router is under /api/v1 but not protected by the tenant key.
	// The confirm/decline routes authenticate through the signed token in
	// the link; registration and health have no caller identity yet.
	insecureRouter := router.PathPrefix(APIPrefix).Subrouter()

	// every other route requires a tenant api key
	authRouter := router.PathPrefix(APIPrefix).Subrouter()
	authRouter.Use(apiServer.authMiddleware.tenantAuth)

	insecureRouter.HandleFunc("/healthz", apiServer.healthz).Methods(http.MethodGet)
	insecureRouter.HandleFunc("/register", system.Wrapper(apiServer.createTenant)).Methods(http.MethodPost)
	insecureRouter.HandleFunc("/w/confirm", system.Wrapper(apiServer.confirm)).Methods(http.MethodGet, http.MethodPost)
	insecureRouter.HandleFunc("/w/decline", system.Wrapper(apiServer.decline)).Methods(http.MethodGet, http.MethodPost)

	authRouter.HandleFunc("/status", system.DefaultWrapper(apiServer.status)).Methods(http.MethodGet)

	authRouter.HandleFunc("/staff", system.Wrapper(apiServer.createStaff)).Methods(http.MethodPost)
	authRouter.HandleFunc("/staff", system.Wrapper(apiServer.listStaff)).Methods(http.MethodGet)
	authRouter.HandleFunc("/staff/{id}", system.Wrapper(apiServer.getStaff)).Methods(http.MethodGet)

	authRouter.HandleFunc("/services", system.Wrapper(apiServer.createService)).Methods(http.MethodPost)
	authRouter.HandleFunc("/services", system.Wrapper(apiServer.listServices)).Methods(http.MethodGet)
	authRouter.HandleFunc("/services/{id}", system.Wrapper(apiServer.getService)).Methods(http.MethodGet)

	authRouter.HandleFunc("/slots", system.Wrapper(apiServer.createSlot)).Methods(http.MethodPost)
	authRouter.HandleFunc("/slots", system.Wrapper(apiServer.listSlots)).Methods(http.MethodGet)
	authRouter.HandleFunc("/slots/{id}", system.Wrapper(apiServer.getSlot)).Methods(http.MethodGet)
	authRouter.HandleFunc("/slots/{id}/open", system.Wrapper(apiServer.openSlot)).Methods(http.MethodPost)
	authRouter.HandleFunc("/slots/{id}/hold", system.Wrapper(apiServer.holdSlot)).Methods(http.MethodPost)
	authRouter.HandleFunc("/slots/{id}/cancel", system.Wrapper(apiServer.cancelSlot)).Methods(http.MethodPost)

	authRouter.HandleFunc("/waitlist", system.Wrapper(apiServer.createWaitlistEntry)).Methods(http.MethodPost)
	authRouter.HandleFunc("/waitlist", system.Wrapper(apiServer.listWaitlistEntries)).Methods(http.MethodGet)
	authRouter.HandleFunc("/waitlist/{id}", system.Wrapper(apiServer.getWaitlistEntry)).Methods(http.MethodGet)
	authRouter.HandleFunc("/waitlist/{id}", system.Wrapper(apiServer.removeWaitlistEntry)).Methods(http.MethodDelete)

	authRouter.HandleFunc("/bookings", system.Wrapper(apiServer.listBookings)).Methods(http.MethodGet)
	authRouter.HandleFunc("/bookings/{id}", system.Wrapper(apiServer.getBooking)).Methods(http.MethodGet)
	authRouter.HandleFunc("/bookings/{id}/status", system.Wrapper(apiServer.updateBookingStatus)).Methods(http.MethodPut)

	authRouter.HandleFunc("/notifications", system.Wrapper(apiServer.listNotifications)).Methods(http.MethodGet)
	authRouter.HandleFunc("/audit", system.Wrapper(apiServer.listAuditLogs)).Methods(http.MethodGet)

	// manual trigger of the expired-holds pass, same code the ticker runs
	authRouter.HandleFunc("/ops/process-expired-holds", system.Wrapper(apiServer.processExpiredHolds)).Methods(http.MethodPost)

	apiServer.router = router
	return router, nil
}

func (apiServer *OpenSlotServer) healthz(res http.ResponseWriter, _ *http.Request) {
	res.WriteHeader(http.StatusOK)
	_, _ = res.Write([]byte("ok"))
}

func errorLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		wrapped := &statusRecorder{ResponseWriter: res, status: http.StatusOK}
		next.ServeHTTP(wrapped, req)
		if wrapped.status >= 500 {
			log.Error().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", wrapped.status).
				Msg("request failed")
		}
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
