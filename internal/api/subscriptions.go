package api

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/dmitrymomot/tariffledger/pkg/handler"
	"github.com/dmitrymomot/tariffledger/pkg/ledger"
	"github.com/dmitrymomot/tariffledger/pkg/tariff"
	"github.com/dmitrymomot/tariffledger/pkg/validator"
)

const maxReasonLength = 500

type subjectRequest struct {
	Subject string `path:"subject" json:"-"`
}

type activateRequest struct {
	Subject string        `path:"subject" json:"-"`
	Tariff  string        `json:"tariff"`
	Period  tariff.Period `json:"period"`
}

func (a *API) activateSubscription(ctx handler.Context, req activateRequest) handler.Response {
	if err := validator.Apply(validator.RequiredString("tariff", req.Tariff)); err != nil {
		return fail(err)
	}
	sub, err := a.ledger.ActivateSubscription(ctx, req.Subject, req.Tariff, req.Period)
	if err != nil {
		return fail(err)
	}
	return handler.JSON(sub, handler.WithJSONStatus(http.StatusCreated))
}

func (a *API) getActiveSubscription(ctx handler.Context, req subjectRequest) handler.Response {
	sub, err := a.ledger.GetActive(ctx, req.Subject)
	if err != nil {
		return fail(err)
	}
	return handler.JSON(sub)
}

type cancelRequest struct {
	Subject   string `path:"subject" json:"-"`
	Reason    string `json:"reason"`
	Immediate bool   `json:"immediate"`
}

func (a *API) cancelSubscription(ctx handler.Context, req cancelRequest) handler.Response {
	if err := validator.Apply(validator.MaxLenString("reason", req.Reason, maxReasonLength)); err != nil {
		return fail(err)
	}
	sub, err := a.ledger.CancelSubscription(ctx, req.Subject, req.Reason, req.Immediate)
	if err != nil {
		return fail(err)
	}
	return handler.JSON(sub)
}

type upgradeRequest struct {
	Subject string `path:"subject" json:"-"`
	Tariff  string `json:"tariff"`
}

func (a *API) upgradeTariff(ctx handler.Context, req upgradeRequest) handler.Response {
	if err := validator.Apply(validator.RequiredString("tariff", req.Tariff)); err != nil {
		return fail(err)
	}
	sub, err := a.ledger.UpgradeTariff(ctx, req.Subject, req.Tariff)
	if err != nil {
		return fail(err)
	}
	return handler.JSON(sub)
}

func (a *API) recordLead(ctx handler.Context, req subjectRequest) handler.Response {
	if _, err := a.ledger.RecordLeadUsage(ctx, req.Subject); err != nil {
		return fail(err)
	}
	u, err := a.ledger.Usage(ctx, req.Subject, a.now().UTC())
	if err != nil {
		return fail(err)
	}
	return handler.JSON(u)
}

func (a *API) usage(ctx handler.Context, req subjectRequest) handler.Response {
	u, err := a.ledger.Usage(ctx, req.Subject, a.now().UTC())
	if err != nil {
		return fail(err)
	}
	return handler.JSON(u)
}

type subscriptionRequest struct {
	ID string `path:"id" json:"-"`
}

func (r subscriptionRequest) uuid() (uuid.UUID, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: subscription id %q", ledger.ErrInvalidInput, r.ID)
	}
	return id, nil
}

func (a *API) getSubscription(ctx handler.Context, req subscriptionRequest) handler.Response {
	return a.byID(req, func(id uuid.UUID) (*ledger.Subscription, error) {
		return a.ledger.GetSubscription(ctx, id)
	})
}

func (a *API) renewSubscription(ctx handler.Context, req subscriptionRequest) handler.Response {
	return a.byID(req, func(id uuid.UUID) (*ledger.Subscription, error) {
		return a.ledger.RenewSubscription(ctx, id)
	})
}

func (a *API) suspendSubscription(ctx handler.Context, req subscriptionRequest) handler.Response {
	return a.byID(req, func(id uuid.UUID) (*ledger.Subscription, error) {
		return a.ledger.SuspendSubscription(ctx, id)
	})
}

func (a *API) resumeSubscription(ctx handler.Context, req subscriptionRequest) handler.Response {
	return a.byID(req, func(id uuid.UUID) (*ledger.Subscription, error) {
		return a.ledger.ResumeSubscription(ctx, id)
	})
}

func (a *API) byID(req subscriptionRequest, fn func(uuid.UUID) (*ledger.Subscription, error)) handler.Response {
	id, err := req.uuid()
	if err != nil {
		return fail(err)
	}
	sub, err := fn(id)
	if err != nil {
		return fail(err)
	}
	return handler.JSON(sub)
}

type verifyRequest struct {
	Subject    string `path:"subject" json:"-"`
	Identifier string `json:"identifier"`
}

func (a *API) verify(ctx handler.Context, req verifyRequest) handler.Response {
	if err := validator.Apply(validator.RequiredString("identifier", req.Identifier)); err != nil {
		return fail(err)
	}
	res, err := a.verifier.Verify(ctx, req.Identifier)
	if err != nil {
		return fail(err)
	}
	return handler.JSON(res)
}
