package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/postmark"
)

// Postmark delivers through Postmark's transactional stream. Billing notices
// are sent untracked and replies go to the support address.
type Postmark struct {
	client *postmark.Client
	from   string
	reply  string
	stream string
}

// NewPostmark validates cfg and creates the sender.
func NewPostmark(cfg Config) (*Postmark, error) {
	if err := cfg.validatePostmark(); err != nil {
		return nil, err
	}
	stream := cfg.MessageStream
	if stream == "" {
		stream = "outbound"
	}
	return &Postmark{
		client: postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken),
		from:   cfg.SenderEmail,
		reply:  cfg.SupportEmail,
		stream: stream,
	}, nil
}

func (p *Postmark) SendEmail(ctx context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	resp, err := p.client.SendEmail(ctx, postmark.Email{
		From:          p.from,
		ReplyTo:       p.reply,
		To:            params.SendTo,
		Subject:       params.Subject,
		Tag:           params.Tag,
		HTMLBody:      params.BodyHTML,
		Metadata:      params.Metadata,
		MessageStream: p.stream,
		TrackLinks:    "None",
	})
	switch {
	case err != nil:
		return errors.Join(ErrFailedToSendEmail, err)
	case resp.ErrorCode != 0:
		return fmt.Errorf("%w: postmark code %d: %s", ErrFailedToSendEmail, resp.ErrorCode, resp.Message)
	}
	return nil
}
