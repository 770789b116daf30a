package notify

import (
	"context"
	"fmt"

	"kart-checkout/internal/config"
	"kart-checkout/internal/model"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"
)

type smtpNotifier struct {
	cfg    config.SMTPConfig
	logger zerolog.Logger
}

// NewSMTPNotifier creates a Notifier that emails the buyer a payment confirmation.
func NewSMTPNotifier(cfg config.SMTPConfig, logger zerolog.Logger) Notifier {
	return &smtpNotifier{
		cfg:    cfg,
		logger: logger.With().Str("component", "notify").Logger(),
	}
}

func (n *smtpNotifier) PaymentSettled(ctx context.Context, buyer model.Buyer, order *model.Order) error {
	if buyer.Email == "" {
		n.logger.Debug().Str("buyer_id", buyer.ID).Msg("buyer has no email, skipping confirmation")
		return nil
	}

	msg, err := buildMessage(n.cfg.From, buyer.Email, order)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(n.cfg.Host,
		mail.WithPort(n.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(n.cfg.Username),
		mail.WithPassword(n.cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return fmt.Errorf("failed to create mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send payment confirmation: %w", err)
	}

	n.logger.Info().
		Str("buyer_id", buyer.ID).
		Str("gateway_order_id", order.GatewayOrderID).
		Msg("payment confirmation sent")

	return nil
}

func buildMessage(from, to string, order *model.Order) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(settlementSubject(order))
	msg.SetBodyString(mail.TypeTextPlain, settlementBody(order))
	return msg, nil
}
