package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dmitrymomot/tariffledger/pkg/gateway"
	"github.com/dmitrymomot/tariffledger/pkg/handler"
	"github.com/dmitrymomot/tariffledger/pkg/invoice"
	"github.com/dmitrymomot/tariffledger/pkg/ledger"
	"github.com/dmitrymomot/tariffledger/pkg/logger"
	"github.com/dmitrymomot/tariffledger/pkg/qrcode"
	"github.com/dmitrymomot/tariffledger/pkg/tariff"
	"github.com/dmitrymomot/tariffledger/pkg/validator"
)

const maxWebhookBody = 1 << 20

// signatureHeaders names the header each provider signs webhooks with.
var signatureHeaders = map[string]string{
	gateway.LocalName:  "X-Signature",
	gateway.PaddleName: "Paddle-Signature",
	gateway.StripeName: "Stripe-Signature",
}

type paymentRequest struct {
	Subject string        `path:"subject" json:"-"`
	Tariff  string        `json:"tariff"`
	Period  tariff.Period `json:"period"`
}

type paymentResponse struct {
	Intent       *ledger.PaymentIntent `json:"intent"`
	Invoice      *invoice.Invoice      `json:"invoice"`
	ClientSecret string                `json:"client_secret,omitempty"`
}

func (a *API) requestPayment(ctx handler.Context, req paymentRequest) handler.Response {
	if err := validator.Apply(validator.RequiredString("tariff", req.Tariff)); err != nil {
		return fail(err)
	}
	intent, inv, err := a.ledger.RequestPayment(ctx, req.Subject, req.Tariff, req.Period)
	if err != nil {
		return fail(err)
	}
	return handler.JSON(paymentResponse{
		Intent:       intent,
		Invoice:      inv,
		ClientSecret: intent.ClientSecret,
	}, handler.WithJSONStatus(http.StatusCreated))
}

type paymentIDRequest struct {
	ID string `path:"id" json:"-"`
}

func (a *API) getPayment(ctx handler.Context, req paymentIDRequest) handler.Response {
	intent, err := a.ledger.GetPaymentIntent(ctx, req.ID)
	if err != nil {
		return fail(err)
	}
	return handler.JSON(intent)
}

type verdictRequest struct {
	ID     string `path:"id" json:"-"`
	Status string `json:"status"`
}

type verdictResponse struct {
	Intent       *ledger.PaymentIntent `json:"intent"`
	Subscription *ledger.Subscription  `json:"subscription,omitempty"`
}

// recordVerdict accepts an operator-entered verdict, e.g. for bank
// transfers paid through the invoice QR code.
func (a *API) recordVerdict(ctx handler.Context, req verdictRequest) handler.Response {
	status, ok := gateway.ParseStatus(req.Status)
	if !ok {
		return fail(fmt.Errorf("%w: status must be %q or %q", ledger.ErrInvalidInput, gateway.StatusSucceeded, gateway.StatusFailed))
	}
	intent, sub, err := a.ledger.RecordPaymentVerdict(ctx, req.ID, status)
	if err != nil {
		return fail(err)
	}
	return handler.JSON(verdictResponse{Intent: intent, Subscription: sub})
}

type refundRequest struct {
	ID     string `path:"id" json:"-"`
	Reason string `json:"reason"`
}

func (a *API) refundPayment(ctx handler.Context, req refundRequest) handler.Response {
	if err := validator.Apply(validator.MaxLenString("reason", req.Reason, maxReasonLength)); err != nil {
		return fail(err)
	}
	intent, err := a.ledger.RefundPayment(ctx, req.ID, req.Reason)
	if err != nil {
		return fail(err)
	}
	return handler.JSON(intent)
}

type webhookRequest struct {
	Provider string `path:"provider" json:"-"`
}

type webhookResponse struct {
	Status string                `json:"status"`
	Intent *ledger.PaymentIntent `json:"intent,omitempty"`
}

// webhook authenticates a provider callback and records its verdict.
// Events without a verdict are acknowledged with 202 so providers stop
// retrying them.
func (a *API) webhook(ctx handler.Context, req webhookRequest) handler.Response {
	provider := strings.ToLower(req.Provider)
	parser, err := a.webhooks.Parser(provider)
	if err != nil {
		return fail(err)
	}

	r := ctx.Request()
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		return fail(errors.Join(gateway.ErrInvalidPayload, err))
	}

	header, ok := signatureHeaders[provider]
	if !ok {
		header = signatureHeaders[gateway.LocalName]
	}

	verdict, err := parser.ParseVerdict(ctx, payload, r.Header.Get(header))
	if errors.Is(err, gateway.ErrIgnoredEvent) {
		return handler.JSON(webhookResponse{Status: "ignored"}, handler.WithJSONStatus(http.StatusAccepted))
	}
	if err != nil {
		a.logger.WarnContext(ctx, "webhook rejected",
			logger.Provider(provider),
			logger.Error(err),
		)
		return fail(err)
	}

	intent, _, err := a.ledger.RecordPaymentVerdict(ctx, verdict.PaymentID, verdict.Status)
	if err != nil {
		return fail(err)
	}
	return handler.JSON(webhookResponse{Status: "processed", Intent: intent})
}

type invoiceRequest struct {
	Number string `path:"number" json:"-"`
}

func (a *API) getInvoice(ctx handler.Context, req invoiceRequest) handler.Response {
	inv, err := a.invoices.Get(ctx, req.Number)
	if err != nil {
		return fail(err)
	}
	return handler.JSON(inv)
}

func (a *API) listInvoices(ctx handler.Context, req subjectRequest) handler.Response {
	invoices, err := a.invoices.ListBySubject(ctx, req.Subject)
	if err != nil {
		return fail(err)
	}
	return handler.JSON(invoices, handler.WithJSONMeta(map[string]any{"total": len(invoices)}))
}

type invoiceQRRequest struct {
	Number string `path:"number" json:"-"`
	Size   int    `query:"size"`
}

// qrCurrency is the only currency bank payment QR codes can carry.
const qrCurrency = "RUB"

func (a *API) invoiceQR(ctx handler.Context, req invoiceQRRequest) handler.Response {
	inv, err := a.invoices.Get(ctx, req.Number)
	if err != nil {
		return fail(err)
	}
	if inv.Status != invoice.StatusPending && inv.Status != invoice.StatusExpired {
		return fail(fmt.Errorf("%w: invoice %s is %s", ledger.ErrInvalidTransition, inv.Number, inv.Status))
	}
	if inv.Amount.Currency != qrCurrency {
		return fail(fmt.Errorf("%w: currency %s", qrcode.ErrInvalidPayment, inv.Amount.Currency))
	}

	size := req.Size
	if size <= 0 {
		size = qrcode.DefaultSize
	}
	png, err := qrcode.GeneratePayment(qrcode.Payment{
		Payee:   a.payee,
		Amount:  inv.Amount.Amount,
		Purpose: "Payment for invoice " + inv.Number,
	}, min(size, qrcode.MaxSize))
	if err != nil {
		return fail(err)
	}
	return handler.Inline(inv.Number+".png", "image/png", png)
}
