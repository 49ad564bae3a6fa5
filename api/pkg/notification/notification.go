package notification

import (
	"context"
	"fmt"

	"github.com/nikoksr/notify"
	"github.com/nikoksr/notify/service/mail"
	"github.com/nikoksr/notify/service/mailgun"
	"github.com/nikoksr/notify/service/twilio"
	"github.com/rs/zerolog/log"

	"github.com/openslot/openslot/api/pkg/config"
	"github.com/openslot/openslot/api/pkg/types"
)

//go:generate mockgen -source $GOFILE -destination notification_mocks.go -package $GOPACKAGE

// Sender is the external delivery transport. Best-effort: it may block up to
// the request deadline and reports failure without side-effects on core
// state.
type Sender interface {
	Send(ctx context.Context, channel types.NotificationChannel, to, subject, body string) (providerID string, err error)
}

// ProviderSender picks the configured transports: Twilio for SMS, Mailgun or
// SMTP for email.
type ProviderSender struct {
	cfg *config.Notifications
}

func NewSender(cfg *config.Notifications) *ProviderSender {
	return &ProviderSender{cfg: cfg}
}

func (p *ProviderSender) smsEnabled() bool {
	return p.cfg.SMS.Twilio.AccountSID != ""
}

func (p *ProviderSender) emailEnabled() bool {
	return p.cfg.Email.Mailgun.APIKey != "" || p.cfg.Email.SMTP.Host != ""
}

func (p *ProviderSender) Send(ctx context.Context, channel types.NotificationChannel, to, subject, body string) (string, error) {
	switch channel {
	case types.NotificationChannelSMS:
		if !p.smsEnabled() {
			return "", fmt.Errorf("sms transport not configured")
		}
		return "", p.sendSMS(ctx, to, subject, body)
	case types.NotificationChannelEmail:
		if !p.emailEnabled() {
			return "", fmt.Errorf("email transport not configured")
		}
		return "", p.sendEmail(ctx, to, subject, body)
	default:
		return "", fmt.Errorf("unknown channel %q", channel)
	}
}

func (p *ProviderSender) sendSMS(ctx context.Context, to, subject, body string) error {
	twilioSvc, err := twilio.New(
		p.cfg.SMS.Twilio.AccountSID,
		p.cfg.SMS.Twilio.AuthToken,
		p.cfg.SMS.Twilio.FromPhone,
	)
	if err != nil {
		return fmt.Errorf("failed to init twilio: %w", err)
	}
	twilioSvc.AddReceivers(to)

	ntf := notify.New()
	ntf.UseServices(twilioSvc)
	if err := ntf.Send(ctx, subject, body); err != nil {
		return fmt.Errorf("failed to send sms to %s: %w", to, err)
	}
	return nil
}

func (p *ProviderSender) sendEmail(ctx context.Context, to, subject, body string) error {
	ntf := notify.New()

	if p.cfg.Email.Mailgun.APIKey != "" {
		log.Debug().Msg("using Mailgun")
		var opts []mailgun.Option
		if p.cfg.Email.Mailgun.Europe {
			opts = append(opts, mailgun.WithEurope())
		}
		mg := mailgun.New(p.cfg.Email.Mailgun.Domain, p.cfg.Email.Mailgun.APIKey, p.cfg.Email.SenderAddress, opts...)
		mg.AddReceivers(to)
		ntf.UseServices(mg)
	}

	if p.cfg.Email.SMTP.Host != "" {
		log.Debug().Msg("using SMTP")
		smtp := mail.New(p.cfg.Email.SenderAddress, p.cfg.Email.SMTP.Host+":"+p.cfg.Email.SMTP.Port)
		smtp.AuthenticateSMTP(p.cfg.Email.SMTP.Identity, p.cfg.Email.SMTP.Username, p.cfg.Email.SMTP.Password, p.cfg.Email.SMTP.Host)
		smtp.AddReceivers(to)
		ntf.UseServices(smtp)
	}

	if err := ntf.Send(ctx, subject, body); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}
