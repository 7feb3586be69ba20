package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/tariffledger/pkg/binder"
	"github.com/dmitrymomot/tariffledger/pkg/environment"
	"github.com/dmitrymomot/tariffledger/pkg/logger"
	"github.com/dmitrymomot/tariffledger/pkg/requestid"
	"github.com/dmitrymomot/tariffledger/pkg/validator"
)

// Classifier maps a domain error onto a status and an error detail.
// ok is false when the classifier does not recognise err.
type Classifier func(err error) (status int, detail *ErrorDetail, ok bool)

// ErrorHandlerOption configures NewErrorHandler.
type ErrorHandlerOption func(*errorHandlerConfig)

type errorHandlerConfig struct {
	classifiers []Classifier
}

// WithClassifier registers a domain classifier. Classifiers run in order
// before the built-in ones.
func WithClassifier(c Classifier) ErrorHandlerOption {
	return func(cfg *errorHandlerConfig) {
		if c != nil {
			cfg.classifiers = append(cfg.classifiers, c)
		}
	}
}

// Classify resolves err to a status and error detail using the given
// classifiers first, then request decoding, validation and HTTPError.
// Anything else is a 500 with a generic message.
func Classify(err error, classifiers ...Classifier) (int, *ErrorDetail) {
	for _, c := range classifiers {
		if status, detail, ok := c(err); ok {
			return status, detail
		}
	}

	if verrs := validator.ExtractValidationErrors(err); verrs != nil {
		details := make(map[string][]string, len(verrs))
		for _, f := range verrs.Fields() {
			details[f] = verrs.Get(f)
		}
		return http.StatusUnprocessableEntity, &ErrorDetail{
			Code:    "validation_error",
			Message: verrs.Error(),
			Details: details,
		}
	}

	switch {
	case errors.Is(err, binder.ErrUnsupportedMediaType), errors.Is(err, binder.ErrMissingContentType):
		return http.StatusUnsupportedMediaType, &ErrorDetail{Code: ErrUnsupportedMedia.Key, Message: err.Error()}
	case binder.IsBindError(err):
		return http.StatusBadRequest, &ErrorDetail{Code: ErrBadRequest.Key, Message: err.Error()}
	}

	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code, &ErrorDetail{Code: httpErr.Key, Message: http.StatusText(httpErr.Code)}
	}

	return http.StatusInternalServerError, &ErrorDetail{
		Code:    "internal",
		Message: "an error occurred processing your request",
	}
}

// NewErrorHandler returns an ErrorHandler writing the JSON error envelope.
// Client errors are logged at warn level, server errors at error level.
// In a development request context server errors also expose their cause.
func NewErrorHandler(log *slog.Logger, opts ...ErrorHandlerOption) ErrorHandler[Context] {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	cfg := &errorHandlerConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(ctx Context, err error) {
		r := ctx.Request()
		status, detail := Classify(err, cfg.classifiers...)

		level := slog.LevelError
		if status < http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		log.LogAttrs(r.Context(), level, "request error",
			logger.RequestID(requestid.FromContext(r.Context())),
			logger.Error(err),
			slog.Int("status_code", status),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			logger.Component("error_handler"),
		)

		if status >= http.StatusInternalServerError && environment.FromContext(r.Context()) == environment.Development {
			exposed := *detail
			exposed.Details = map[string][]string{"cause": {err.Error()}}
			detail = &exposed
		}

		resp := JSONError(detail, WithJSONStatus(status))
		if renderErr := resp.Render(ctx.ResponseWriter(), r); renderErr != nil {
			log.LogAttrs(r.Context(), slog.LevelError, "failed to render error response",
				logger.Error(renderErr),
				logger.Event("render_error"),
			)
		}
	}
}
