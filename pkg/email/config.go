package email

import (
	"errors"
	"fmt"
)

type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	MessageStream        string `env:"POSTMARK_MESSAGE_STREAM" envDefault:"outbound"`
	SenderEmail          string `env:"SENDER_EMAIL" envDefault:"billing@localhost.dev"`
	SupportEmail         string `env:"SUPPORT_EMAIL" envDefault:"support@localhost.dev"`
	DevDir               string `env:"EMAIL_DEV_DIR" envDefault:"./tmp/emails"`
}

// validatePostmark reports every missing or malformed Postmark setting at once.
func (cfg Config) validatePostmark() error {
	var errs []error
	if cfg.PostmarkServerToken == "" {
		errs = append(errs, errors.New("POSTMARK_SERVER_TOKEN is required"))
	}
	if cfg.PostmarkAccountToken == "" {
		errs = append(errs, errors.New("POSTMARK_ACCOUNT_TOKEN is required"))
	}
	for name, addr := range map[string]string{"SENDER_EMAIL": cfg.SenderEmail, "SUPPORT_EMAIL": cfg.SupportEmail} {
		if !emailRegex.MatchString(addr) {
			errs = append(errs, fmt.Errorf("%s %q is not a valid address", name, addr))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
}

// New returns the Postmark sender when a server token is configured and a
// DevSender writing to DevDir otherwise.
func New(cfg Config) (EmailSender, error) {
	if cfg.PostmarkServerToken == "" {
		return NewDevSender(cfg.DevDir), nil
	}
	pm, err := NewPostmark(cfg)
	if err != nil {
		return nil, err
	}
	return pm, nil
}
