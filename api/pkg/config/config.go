package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type ServerConfig struct {
	Store         Store
	WebServer     WebServer
	Waitlist      Waitlist
	Notifications Notifications
	Calendar      Calendar
	Janitor       Janitor
}

func LoadServerConfig() (ServerConfig, error) {
	var cfg ServerConfig
	err := envconfig.Process("", &cfg)
	if err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

type Store struct {
	Host     string `envconfig:"POSTGRES_HOST" default:"localhost" description:"The host to connect to the postgres server."`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432" description:"The port to connect to the postgres server."`
	Database string `envconfig:"POSTGRES_DATABASE" default:"openslot" description:"The database to connect to the postgres server."`
	Username string `envconfig:"POSTGRES_USER" description:"The username to connect to the postgres server."`
	Password string `envconfig:"POSTGRES_PASSWORD" description:"The password to connect to the postgres server."`
	SSL      bool   `envconfig:"POSTGRES_SSL" default:"false"`
	Schema   string `envconfig:"POSTGRES_SCHEMA"` // Defaults to public

	AutoMigrate     bool          `envconfig:"DATABASE_AUTO_MIGRATE" default:"true" description:"Should we automatically run the migrations?"`
	MaxConns        int           `envconfig:"DATABASE_MAX_CONNS" default:"50"`
	IdleConns       int           `envconfig:"DATABASE_IDLE_CONNS" default:"25"`
	MaxConnLifetime time.Duration `envconfig:"DATABASE_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `envconfig:"DATABASE_MAX_CONN_IDLE_TIME" default:"1m"`
}

type WebServer struct {
	URL  string `envconfig:"SERVER_URL" description:"The URL the api server is listening on, used to build confirm/decline links."`
	Host string `envconfig:"SERVER_HOST" default:"0.0.0.0" description:"The host to bind the api server to."`
	Port int    `envconfig:"SERVER_PORT" default:"8080" description:"The port to bind the api server to."`
}

// Waitlist holds the knobs of the hold/confirmation engine.
type Waitlist struct {
	HoldTTL time.Duration `envconfig:"WAITLIST_HOLD_TTL" default:"10m" description:"How long a held slot waits for the customer's response."`
	// TokenTTL is clamped to at least HoldTTL plus skew, see EffectiveTokenTTL.
	TokenTTL                 time.Duration `envconfig:"WAITLIST_TOKEN_TTL" default:"15m" description:"Validity window for confirm/decline tokens."`
	TokenSecret              string        `envconfig:"WAITLIST_TOKEN_SECRET" description:"HMAC secret for confirm/decline tokens. Generated at startup when empty."`
	TickerInterval           time.Duration `envconfig:"WAITLIST_TICKER_INTERVAL" default:"30s" description:"How often the hold ticker scans for expired holds."`
	CascadeFanoutK           int           `envconfig:"WAITLIST_CASCADE_FANOUT_K" default:"5" description:"Max candidates tried per cascade to tolerate stale entries."`
	MaxActiveEntriesPerPhone int           `envconfig:"WAITLIST_MAX_ACTIVE_PER_PHONE" default:"3" description:"Per-tenant cap of simultaneous active/notified entries for one phone."`
	ExpiredHoldsPageSize     int           `envconfig:"WAITLIST_EXPIRED_HOLDS_PAGE_SIZE" default:"100" description:"How many expired holds one ticker pass processes."`
}

const tokenSkew = 5 * time.Minute

// EffectiveTokenTTL never undercuts the hold TTL plus clock skew, so a token
// outlives the hold it authorizes.
func (w Waitlist) EffectiveTokenTTL() time.Duration {
	min := w.HoldTTL + tokenSkew
	if w.TokenTTL < min {
		return min
	}
	return w.TokenTTL
}

type Notifications struct {
	AppURL        string        `envconfig:"APP_URL" description:"Base URL for confirm/decline links in outbound messages."`
	RetryAttempts int           `envconfig:"NOTIFICATIONS_RETRY_ATTEMPTS" default:"3"`
	RetryBackoff  time.Duration `envconfig:"NOTIFICATIONS_RETRY_BACKOFF" default:"500ms"`

	Email EmailConfig
	SMS   SMSConfig
}

type EmailConfig struct {
	SenderAddress string `envconfig:"EMAIL_SENDER_ADDRESS" default:"bookings@openslot.dev"`
	Mailgun       struct {
		Domain string `envconfig:"EMAIL_MAILGUN_DOMAIN"`
		APIKey string `envconfig:"EMAIL_MAILGUN_API_KEY"`
		Europe bool   `envconfig:"EMAIL_MAILGUN_EUROPE" default:"false"`
	}
	SMTP struct {
		Host     string `envconfig:"EMAIL_SMTP_HOST"`
		Port     string `envconfig:"EMAIL_SMTP_PORT" default:"587"`
		Identity string `envconfig:"EMAIL_SMTP_IDENTITY"`
		Username string `envconfig:"EMAIL_SMTP_USERNAME"`
		Password string `envconfig:"EMAIL_SMTP_PASSWORD"`
	}
}

type SMSConfig struct {
	Twilio struct {
		AccountSID string `envconfig:"SMS_TWILIO_ACCOUNT_SID"`
		AuthToken  string `envconfig:"SMS_TWILIO_AUTH_TOKEN"`
		FromPhone  string `envconfig:"SMS_TWILIO_FROM_PHONE"`
	}
}

type Calendar struct {
	Enabled           bool          `envconfig:"CALENDAR_ENABLED" default:"false"`
	BaseURL           string        `envconfig:"CALENDAR_BASE_URL" description:"Base URL of the external calendar API."`
	APIKey            string        `envconfig:"CALENDAR_API_KEY"`
	Timeout           time.Duration `envconfig:"CALENDAR_TIMEOUT" default:"10s"`
	ReconcileInterval time.Duration `envconfig:"CALENDAR_RECONCILE_INTERVAL" default:"5m"`
}

type Janitor struct {
	SentryDSN       string   `envconfig:"JANITOR_SENTRY_DSN"`
	SlackWebhookURL string   `envconfig:"JANITOR_SLACK_WEBHOOK_URL"`
	IgnoreTenants   []string `envconfig:"JANITOR_IGNORE_TENANTS"`
}
