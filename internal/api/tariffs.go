package api

import (
	"github.com/dmitrymomot/tariffledger/pkg/handler"
	"github.com/dmitrymomot/tariffledger/pkg/tariff"
	"github.com/dmitrymomot/tariffledger/pkg/validator"
)

const maxQuoteSeats = 10000

type listTariffsRequest struct {
	Active bool `query:"active"`
}

func (a *API) listTariffs(_ handler.Context, req listTariffsRequest) handler.Response {
	plans := a.catalog.List(req.Active)
	return handler.JSON(plans, handler.WithJSONMeta(map[string]any{"total": len(plans)}))
}

type tariffRequest struct {
	Code string `path:"code" json:"-"`
}

func (a *API) getTariff(_ handler.Context, req tariffRequest) handler.Response {
	plan, err := a.catalog.Get(req.Code)
	if err != nil {
		return fail(err)
	}
	return handler.JSON(plan)
}

type recommendRequest struct {
	Leads    int64            `query:"leads"`
	Features []tariff.Feature `query:"features"`
}

type recommendation struct {
	Plan  tariff.Plan `json:"plan"`
	Exact bool        `json:"exact"`
}

func (a *API) recommendTariff(_ handler.Context, req recommendRequest) handler.Response {
	plan, exact, err := a.catalog.Recommend(max(req.Leads, 0), req.Features...)
	if err != nil {
		return fail(err)
	}
	return handler.JSON(recommendation{Plan: plan, Exact: exact})
}

type quoteRequest struct {
	Code   string `path:"code" json:"-"`
	Period string `query:"period"`
	Seats  int64  `query:"seats"`
}

func (a *API) quoteTariff(_ handler.Context, req quoteRequest) handler.Response {
	if err := validator.Apply(validator.MaxNum("seats", req.Seats, maxQuoteSeats)); err != nil {
		return fail(err)
	}
	period := tariff.PeriodMonthly
	if req.Period != "" {
		p, err := tariff.ParsePeriod(req.Period)
		if err != nil {
			return fail(err)
		}
		period = p
	}

	q, err := a.catalog.Quote(req.Code, period, req.Seats)
	if err != nil {
		return fail(err)
	}
	return handler.JSON(q)
}
