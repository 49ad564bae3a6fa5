package janitor

import (
	"fmt"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/gorilla/mux"

	"github.com/openslot/openslot/api/pkg/config"
	"github.com/openslot/openslot/api/pkg/system"
	"github.com/openslot/openslot/api/pkg/types"
)

// Janitor is the operator's early-warning channel: server errors go to
// Sentry, noteworthy booking events go to Slack. It never touches booking
// state.
type Janitor struct {
	Options config.Janitor
}

func NewJanitor(opts config.Janitor) *Janitor {
	return &Janitor{
		Options: opts,
	}
}

func (j *Janitor) Initialize() error {
	if j.Options.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              j.Options.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 1.0,
		})
		if err != nil {
			return fmt.Errorf("sentry initialization failed: %w", err)
		}
		system.SetHTTPErrorHandler(func(err *system.HTTPError, _ *http.Request) {
			sentry.CaptureException(err)
		})
	}
	return nil
}

// InjectMiddleware attaches the janitor's middleware to the router before
// all the routes.
func (j *Janitor) InjectMiddleware(router *mux.Router) error {
	if j.Options.SentryDSN != "" {
		router.Use(SentryMiddleware)
	}
	return nil
}

func (j *Janitor) SendMessage(tenantID string, message string) error {
	if j.Options.SlackWebhookURL == "" || message == "" {
		return nil
	}
	for _, ignored := range j.Options.IgnoreTenants {
		if ignored == tenantID {
			return nil
		}
	}
	return sendSlackNotification(j.Options.SlackWebhookURL, message)
}

// WriteBookingEvent posts confirmed bookings and cancellations so operators
// see tenant activity without opening the dashboard.
func (j *Janitor) WriteBookingEvent(eventType string, booking *types.Booking) error {
	message := ""
	switch eventType {
	case "confirmed":
		message = fmt.Sprintf("📅 tenant %s booked slot %s for %s", booking.TenantID, booking.SlotID, booking.CustomerName)
	case "canceled":
		message = fmt.Sprintf("🛑 tenant %s canceled booking %s", booking.TenantID, booking.ID)
	}
	return j.SendMessage(booking.TenantID, message)
}

// WriteInvariantViolation is for states the engine should make impossible,
// like a booked slot with a live hold. These always page regardless of
// tenant.
func (j *Janitor) WriteInvariantViolation(tenantID string, detail string) error {
	if j.Options.SentryDSN != "" {
		sentry.CaptureMessage(fmt.Sprintf("invariant violation: tenant=%s %s", tenantID, detail))
	}
	if j.Options.SlackWebhookURL == "" {
		return nil
	}
	return sendSlackNotification(j.Options.SlackWebhookURL,
		fmt.Sprintf("🚨 invariant violation in tenant %s: %s", tenantID, detail))
}

func SentryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub := sentry.GetHubFromContext(r.Context())
		if hub == nil {
			hub = sentry.CurrentHub().Clone()
			r = r.WithContext(sentry.SetHubOnContext(r.Context(), hub))
		}

		defer func() {
			if err := recover(); err != nil {
				hub.Recover(err)
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
