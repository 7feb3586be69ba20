// Package email sends transactional messages.
//
// EmailSender is implemented by Postmark for production and by DevSender,
// which saves each message as an HTML file whose leading comment holds the
// envelope. New picks one from Config: Postmark when a server token is set.
//
//	sender, err := email.New(cfg)
//	if err != nil {
//	    return err
//	}
//	err = sender.SendEmail(ctx, email.SendEmailParams{
//	    SendTo:   "partner@example.com",
//	    Subject:  "Subscription renewed",
//	    BodyHTML: body,
//	    Tag:      "renewal",
//	})
//
// Bodies are built with the templ components in the templates subpackage.
// Params are validated before any provider call; failures wrap
// ErrInvalidParams, ErrInvalidConfig or ErrFailedToSendEmail.
package email
