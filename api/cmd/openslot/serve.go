package openslot

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/openslot/openslot/api/pkg/booking"
	"github.com/openslot/openslot/api/pkg/calendar"
	"github.com/openslot/openslot/api/pkg/config"
	"github.com/openslot/openslot/api/pkg/janitor"
	"github.com/openslot/openslot/api/pkg/notification"
	"github.com/openslot/openslot/api/pkg/server"
	"github.com/openslot/openslot/api/pkg/store"
	"github.com/openslot/openslot/api/pkg/system"
	"github.com/openslot/openslot/api/pkg/ticker"
	"github.com/openslot/openslot/api/pkg/token"
)

func NewServeConfig() (*config.ServerConfig, error) {
	serverConfig, err := config.LoadServerConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load server config: %v", err)
	}

	// An ephemeral secret is fine for a single instance; multi-instance
	// deployments must set it so every instance verifies every token.
	if serverConfig.Waitlist.TokenSecret == "" {
		serverConfig.Waitlist.TokenSecret = system.GenerateUUID()
		log.Warn().Msg("WAITLIST_TOKEN_SECRET not set, generated an ephemeral secret")
	}

	if serverConfig.Notifications.AppURL == "" {
		serverConfig.Notifications.AppURL = serverConfig.WebServer.URL
	}

	if serverConfig.Calendar.Enabled && serverConfig.Calendar.BaseURL == "" {
		return nil, fmt.Errorf("calendar base url is required when calendar sync is enabled")
	}

	return &serverConfig, nil
}

func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the openslot api server.",
		Long:  "Start the openslot api server and the background hold ticker.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := NewServeConfig()
			if err != nil {
				return err
			}
			if err := serve(cmd, cfg); err != nil {
				log.Fatal().Err(err).Msg("failed to run server")
			}
			return nil
		},
	}
	return serveCmd
}

func serve(cmd *cobra.Command, cfg *config.ServerConfig) error {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := store.NewPostgresStore(cfg.Store)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close store")
		}
	}()

	codec, err := token.NewCodec(cfg.Waitlist.TokenSecret, cfg.Waitlist.EffectiveTokenTTL())
	if err != nil {
		return err
	}

	jan := janitor.NewJanitor(cfg.Janitor)
	if err := jan.Initialize(); err != nil {
		return err
	}

	clk := booking.NewRealClock()

	sender := notification.NewSender(&cfg.Notifications)
	dispatcher := notification.NewDispatcher(&cfg.Notifications, db, codec, sender, clk)

	calendarAdapter := calendar.NewAdapter(cfg.Calendar, db, calendar.NewHTTPClient(cfg.Calendar))

	engine := booking.NewEngine(cfg.Waitlist, db, codec, dispatcher, calendarAdapter, jan, clk)

	holdTicker, err := ticker.New(cfg, engine, calendarAdapter)
	if err != nil {
		return err
	}
	go func() {
		if err := holdTicker.Run(ctx); err != nil {
			log.Error().Err(err).Msg("ticker stopped")
		}
	}()

	apiServer, err := server.NewServer(cfg, db, engine, jan)
	if err != nil {
		return err
	}

	return apiServer.ListenAndServe(ctx)
}
