package email_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tariffledger/pkg/email"
)

func postmarkConfig() email.Config {
	return email.Config{
		PostmarkServerToken:  "test-server-token",
		PostmarkAccountToken: "test-account-token",
		SenderEmail:          "billing@example.com",
		SupportEmail:         "support@example.com",
	}
}

func TestNewPostmark(t *testing.T) {
	t.Parallel()

	pm, err := email.NewPostmark(postmarkConfig())
	require.NoError(t, err)
	assert.NotNil(t, pm)

	tests := []struct {
		name   string
		mutate func(c *email.Config)
		errMsg string
	}{
		{"empty server token", func(c *email.Config) { c.PostmarkServerToken = "" }, "POSTMARK_SERVER_TOKEN is required"},
		{"empty account token", func(c *email.Config) { c.PostmarkAccountToken = "" }, "POSTMARK_ACCOUNT_TOKEN is required"},
		{"invalid sender", func(c *email.Config) { c.SenderEmail = "billing" }, `SENDER_EMAIL "billing"`},
		{"invalid support", func(c *email.Config) { c.SupportEmail = "support@" }, `SUPPORT_EMAIL "support@"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := postmarkConfig()
			tt.mutate(&cfg)

			pm, err := email.NewPostmark(cfg)
			assert.Nil(t, pm)
			assert.ErrorIs(t, err, email.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	t.Run("reports all problems together", func(t *testing.T) {
		t.Parallel()
		_, err := email.NewPostmark(email.Config{PostmarkServerToken: "x"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "POSTMARK_ACCOUNT_TOKEN")
		assert.Contains(t, err.Error(), "SENDER_EMAIL")
		assert.Contains(t, err.Error(), "SUPPORT_EMAIL")
	})
}

func TestPostmark_SendEmail_ValidationError(t *testing.T) {
	t.Parallel()

	pm, err := email.NewPostmark(postmarkConfig())
	require.NoError(t, err)
	err = pm.SendEmail(context.Background(), email.SendEmailParams{SendTo: "partner@example.com"})
	assert.ErrorIs(t, err, email.ErrInvalidParams)
}
