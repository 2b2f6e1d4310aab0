package mail

import (
	"context"
	"fmt"

	"eshop/internal/config"
)

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

func NewSender(cfg config.MailConfig) (Sender, error) {
	switch cfg.Provider {
	case "resend":
		if cfg.ResendAPIKey == "" {
			return nil, fmt.Errorf("mail: resend api key missing")
		}
		return NewResendSender(cfg.ResendAPIKey, cfg.From), nil
	case "", "smtp":
		if cfg.Host == "" {
			return nil, fmt.Errorf("mail: smtp host missing")
		}
		return NewSMTPSender(cfg), nil
	default:
		return nil, fmt.Errorf("mail: unknown provider %q", cfg.Provider)
	}
}
