package store

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/openslot/openslot/api/pkg/config"
	"github.com/openslot/openslot/api/pkg/types"
)

type PostgresStore struct {
	cfg config.Store

	gdb *gorm.DB
}

func NewPostgresStore(cfg config.Store) (*PostgresStore, error) {
	gormDB, err := connect(context.Background(), connectConfig{
		host:            cfg.Host,
		port:            cfg.Port,
		schemaName:      cfg.Schema,
		database:        cfg.Database,
		username:        cfg.Username,
		password:        cfg.Password,
		ssl:             cfg.SSL,
		idleConns:       cfg.IdleConns,
		maxConns:        cfg.MaxConns,
		maxConnIdleTime: cfg.MaxConnIdleTime,
		maxConnLifetime: cfg.MaxConnLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	store := &PostgresStore{
		cfg: cfg,
		gdb: gormDB,
	}

	if cfg.AutoMigrate {
		if err := store.autoMigrate(); err != nil {
			return nil, fmt.Errorf("there was an error doing the migration: %w", err)
		}
	}

	return store, nil
}

// NewSQLiteStore backs the same store with an sqlite database. Used by the
// test suites; the guarded updates behave identically.
func NewSQLiteStore(path string, autoMigrate bool) (*PostgresStore, error) {
	gormDB, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	store := &PostgresStore{
		gdb: gormDB,
	}

	if autoMigrate {
		if err := store.autoMigrate(); err != nil {
			return nil, fmt.Errorf("there was an error doing the migration: %w", err)
		}
	}

	return store, nil
}

func (s *PostgresStore) Close() error {
	sqlDB, err := s.gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *PostgresStore) autoMigrate() error {
	return s.gdb.WithContext(context.Background()).AutoMigrate(
		&types.Tenant{},
		&types.Staff{},
		&types.Service{},
		&types.Slot{},
		&types.WaitlistEntry{},
		&types.Booking{},
		&types.Notification{},
		&types.CalendarEvent{},
		&types.AuditLog{},
	)
}

type connectConfig struct {
	host            string
	port            int
	schemaName      string
	database        string
	username        string
	password        string
	ssl             bool
	idleConns       int
	maxConns        int
	maxConnIdleTime time.Duration
	maxConnLifetime time.Duration
}

func connect(ctx context.Context, cfg connectConfig) (*gorm.DB, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
			sslSettings := "sslmode=disable"
			if cfg.ssl {
				sslSettings = "sslmode=require"
			}

			dsn := fmt.Sprintf(
				"host=%s port=%d user=%s password=%s dbname=%s %s",
				cfg.host, cfg.port, cfg.username, cfg.password, cfg.database, sslSettings,
			)
			if cfg.schemaName != "" {
				dsn = fmt.Sprintf("%s search_path=%s", dsn, cfg.schemaName)
			}

			gormDB, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
				Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
				TranslateError: true,
			})
			if err != nil {
				log.Warn().Err(err).Msg("sql store connector can't reach postgres, waiting")
				time.Sleep(1 * time.Second)
				continue
			}

			sqlDB, err := gormDB.DB()
			if err != nil {
				return nil, err
			}
			sqlDB.SetMaxIdleConns(cfg.idleConns)
			sqlDB.SetMaxOpenConns(cfg.maxConns)
			sqlDB.SetConnMaxIdleTime(cfg.maxConnIdleTime)
			sqlDB.SetConnMaxLifetime(cfg.maxConnLifetime)

			log.Info().Msg("sql store connected")
			return gormDB, nil
		}
	}
}
