package notification

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"

	"github.com/openslot/openslot/api/pkg/config"
	"github.com/openslot/openslot/api/pkg/store"
	"github.com/openslot/openslot/api/pkg/token"
	"github.com/openslot/openslot/api/pkg/types"
)

// Clock is injected so token timestamps are testable; it is satisfied by the
// engine's clock.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// Dispatcher builds the per-candidate hold offer, signs the confirm and
// decline tokens, persists the notification row and hands the rendered
// message to the sender. It never touches slot or entry status: the engine
// owns state, the dispatcher reports outcomes on the notification row.
type Dispatcher struct {
	cfg    *config.Notifications
	store  store.Store
	codec  *token.Codec
	sender Sender
	clock  Clock
}

func NewDispatcher(cfg *config.Notifications, s store.Store, codec *token.Codec, sender Sender, clock Clock) *Dispatcher {
	if clock == nil {
		clock = realClock{}
	}
	return &Dispatcher{
		cfg:    cfg,
		store:  s,
		codec:  codec,
		sender: sender,
		clock:  clock,
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, entry *types.WaitlistEntry, slot *types.Slot) error {
	now := d.clock.Now()

	confirmToken, err := d.codec.Sign(entry.TenantID, entry.ID, slot.ID, types.TokenActionConfirm, now)
	if err != nil {
		return fmt.Errorf("failed to sign confirm token: %w", err)
	}
	declineToken, err := d.codec.Sign(entry.TenantID, entry.ID, slot.ID, types.TokenActionDecline, now)
	if err != nil {
		return fmt.Errorf("failed to sign decline token: %w", err)
	}

	channel := types.NotificationChannelSMS
	to := entry.Phone
	if entry.Email != "" {
		channel = types.NotificationChannelEmail
		to = entry.Email
	}

	subject, body, err := d.render(ctx, entry, slot, channel, confirmToken, declineToken)
	if err != nil {
		return err
	}

	notification, err := d.store.CreateNotification(ctx, &types.Notification{
		TenantID:  entry.TenantID,
		EntryID:   entry.ID,
		SlotID:    slot.ID,
		Channel:   channel,
		Status:    types.NotificationStatusPending,
		TokenHash: token.Hash(confirmToken, declineToken),
	})
	if err != nil {
		return fmt.Errorf("failed to persist notification: %w", err)
	}

	providerID, sendErr := retry.DoWithData(func() (string, error) {
		return d.sender.Send(ctx, channel, to, subject, body)
	},
		retry.Attempts(uint(d.attempts())),
		retry.Delay(d.cfg.RetryBackoff),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Warn().
				Err(err).
				Uint("retry_number", n).
				Str("notification_id", notification.ID).
				Msg("retrying notification send")
		}),
	)

	if sendErr != nil {
		notification.Status = types.NotificationStatusFailed
		notification.Error = sendErr.Error()
		if _, err := d.store.UpdateNotification(ctx, notification); err != nil {
			log.Error().Err(err).Str("notification_id", notification.ID).Msg("failed to mark notification failed")
		}
		return fmt.Errorf("failed to send notification %s: %w", notification.ID, sendErr)
	}

	sentAt := d.clock.Now()
	notification.Status = types.NotificationStatusSent
	notification.ProviderID = providerID
	notification.SentAt = &sentAt
	if _, err := d.store.UpdateNotification(ctx, notification); err != nil {
		log.Error().Err(err).Str("notification_id", notification.ID).Msg("failed to mark notification sent")
	}

	log.Info().
		Str("tenant_id", entry.TenantID).
		Str("entry_id", entry.ID).
		Str("slot_id", slot.ID).
		Str("channel", string(channel)).
		Msg("hold offer sent")

	return nil
}

func (d *Dispatcher) attempts() int {
	if d.cfg.RetryAttempts <= 0 {
		return 3
	}
	return d.cfg.RetryAttempts
}

func (d *Dispatcher) render(ctx context.Context, entry *types.WaitlistEntry, slot *types.Slot, channel types.NotificationChannel, confirmToken, declineToken string) (subject, body string, err error) {
	service, err := d.store.GetService(ctx, slot.TenantID, slot.ServiceID)
	if err != nil {
		return "", "", fmt.Errorf("failed to load service %s: %w", slot.ServiceID, err)
	}
	staff, err := d.store.GetStaff(ctx, slot.TenantID, slot.StaffID)
	if err != nil {
		return "", "", fmt.Errorf("failed to load staff %s: %w", slot.StaffID, err)
	}

	holdExpires := ""
	if slot.HoldExpiresAt != nil {
		holdExpires = slot.HoldExpiresAt.Format("15:04 MST")
	}

	data := &templateData{
		CustomerName: entry.CustomerName,
		ServiceName:  service.Name,
		StaffName:    staff.Name,
		Date:         slot.StartTime.Format("Mon, Jan 2"),
		Time:         slot.StartTime.Format("15:04"),
		Duration:     slot.Duration().String(),
		Price:        fmt.Sprintf("$%.2f", float64(service.PriceCents)/100),
		ConfirmLink:  fmt.Sprintf("%s/w/confirm?token=%s", d.cfg.AppURL, confirmToken),
		DeclineLink:  fmt.Sprintf("%s/w/decline?token=%s", d.cfg.AppURL, declineToken),
		HoldExpires:  holdExpires,
	}

	tmpl := holdOfferSMSTmpl
	if channel == types.NotificationChannelEmail {
		tmpl = holdOfferEmailTmpl
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("failed to execute template: %w", err)
	}

	subject = fmt.Sprintf("A %s appointment just opened up", service.Name)
	return subject, buf.String(), nil
}
