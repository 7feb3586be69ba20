package notifications

import (
	"context"
	"errors"
	"fmt"

	"github.com/a-h/templ"

	"github.com/dmitrymomot/tariffledger/pkg/email"
	"github.com/dmitrymomot/tariffledger/pkg/email/templates"
)

var ErrNoRecipient = errors.New("no email address for subject")

// Recipients resolves the address notices for a subject are sent to.
type Recipients interface {
	EmailFor(ctx context.Context, subjectID string) (string, error)
}

// StaticRecipients maps subject ids to addresses.
type StaticRecipients map[string]string

func (r StaticRecipients) EmailFor(_ context.Context, subjectID string) (string, error) {
	addr, ok := r[subjectID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoRecipient, subjectID)
	}
	return addr, nil
}

// EmailDeliverer renders notices to HTML and sends them through an
// email.EmailSender, tagged with the notice kind.
type EmailDeliverer struct {
	sender     email.EmailSender
	recipients Recipients
}

// NewEmailDeliverer panics if sender or recipients is nil.
func NewEmailDeliverer(sender email.EmailSender, recipients Recipients) *EmailDeliverer {
	if sender == nil || recipients == nil {
		panic("notifications: email sender and recipients are required")
	}
	return &EmailDeliverer{sender: sender, recipients: recipients}
}

func (d *EmailDeliverer) Deliver(ctx context.Context, notif Notification) error {
	to, err := d.recipients.EmailFor(ctx, notif.SubjectID)
	if err != nil {
		return err
	}

	parts := []templ.Component{templates.Paragraph(notif.Message)}
	for _, a := range notif.Actions {
		parts = append(parts, templates.Link(a.URL, a.Label))
	}
	body, err := templates.Render(ctx, templates.Layout(notif.Title, templates.Join(parts...)))
	if err != nil {
		return fmt.Errorf("render %s notice: %w", notif.Kind, err)
	}

	return d.sender.SendEmail(ctx, email.SendEmailParams{
		SendTo:   to,
		Subject:  notif.Title,
		BodyHTML: body,
		Tag:      string(notif.Kind),
		Metadata: map[string]string{"notification_id": notif.ID, "subject_id": notif.SubjectID},
	})
}
