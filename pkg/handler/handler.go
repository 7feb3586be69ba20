package handler

import (
	"errors"
	"net/http"
	"slices"

	"github.com/dmitrymomot/tariffledger/pkg/binder"
)

// HandlerFunc handles a bound request of type R and returns a Response.
//
//	handler.HandlerFunc[handler.Context, activateRequest](
//		func(ctx handler.Context, req activateRequest) handler.Response {
//			sub, err := l.ActivateSubscription(ctx, req.Subject, req.Tariff, req.Period)
//			if err != nil {
//				return handler.JSONError(err)
//			}
//			return handler.JSON(sub, handler.WithJSONStatus(http.StatusCreated))
//		},
//	)
type HandlerFunc[C Context, R any] func(ctx C, req R) Response

// Response renders itself to an http.ResponseWriter.
type Response interface {
	Render(w http.ResponseWriter, r *http.Request) error
}

// Bind parses HTTP requests into typed values.
type Bind func(r *http.Request, v any) error

// ErrorHandler handles errors from binding or rendering.
type ErrorHandler[C Context] func(ctx C, err error)

// Decorator wraps a HandlerFunc. The first decorator in a list is the
// outermost wrapper.
type Decorator[C Context, R any] func(HandlerFunc[C, R]) HandlerFunc[C, R]

// WrapOption configures Wrap.
type WrapOption[C Context, R any] func(*wrapConfig[C, R])

type wrapConfig[C Context, R any] struct {
	binders    []Bind
	onError    ErrorHandler[C]
	newContext func(http.ResponseWriter, *http.Request) C
	decorators []Decorator[C, R]
}

// WithBinders sets request binders applied in order. Each binder only
// touches fields tagged for its source.
func WithBinders[C Context, R any](binders ...Bind) WrapOption[C, R] {
	return func(c *wrapConfig[C, R]) {
		c.binders = append(c.binders, binders...)
	}
}

// WithErrorHandler replaces the plain-text fallback. Nil is ignored.
func WithErrorHandler[C Context, R any](h ErrorHandler[C]) WrapOption[C, R] {
	return func(c *wrapConfig[C, R]) {
		if h != nil {
			c.onError = h
		}
	}
}

// WithContextFactory builds C for handlers using their own context type.
func WithContextFactory[C Context, R any](f func(http.ResponseWriter, *http.Request) C) WrapOption[C, R] {
	return func(c *wrapConfig[C, R]) {
		if f != nil {
			c.newContext = f
		}
	}
}

// WithDecorators wraps the handler; the first decorator runs outermost.
func WithDecorators[C Context, R any](decorators ...Decorator[C, R]) WrapOption[C, R] {
	return func(c *wrapConfig[C, R]) {
		c.decorators = append(c.decorators, decorators...)
	}
}

// plainError is used until WithErrorHandler installs the JSON one.
func plainError[C Context](ctx C, err error) {
	code, msg := http.StatusInternalServerError, err.Error()
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		code, msg = httpErr.Code, httpErr.Key
	}
	http.Error(ctx.ResponseWriter(), msg, code)
}

// Wrap converts a typed HandlerFunc to http.HandlerFunc.
//
//	r.Post("/subjects/{subject}/subscription", handler.Wrap(api.activate,
//		handler.WithBinders[handler.Context, activateRequest](binder.Path(chi.URLParam), binder.JSON()),
//		handler.WithErrorHandler[handler.Context, activateRequest](errHandler),
//	))
//
// Binders returning binder.ErrBinderNotApplicable are skipped.
func Wrap[C Context, R any](h HandlerFunc[C, R], opts ...WrapOption[C, R]) http.HandlerFunc {
	cfg := &wrapConfig[C, R]{onError: plainError[C]}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.newContext == nil {
		cfg.newContext = func(w http.ResponseWriter, r *http.Request) C {
			c, ok := NewContext(w, r).(C)
			if !ok {
				panic("handler: custom context type needs WithContextFactory")
			}
			return c
		}
	}

	for _, d := range slices.Backward(cfg.decorators) {
		h = d(h)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := cfg.newContext(w, r)

		var req R
		for _, bind := range cfg.binders {
			err := bind(r, &req)
			if errors.Is(err, binder.ErrBinderNotApplicable) {
				continue
			}
			if err != nil {
				cfg.onError(ctx, err)
				return
			}
		}

		resp := h(ctx, req)
		if resp == nil {
			cfg.onError(ctx, ErrNilResponse)
			return
		}
		if err := resp.Render(w, r); err != nil {
			cfg.onError(ctx, err)
		}
	}
}
