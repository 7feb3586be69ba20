// Package handler adapts typed request handlers to net/http.
//
// A HandlerFunc receives a Context and a request struct filled by binders
// from pkg/binder, and returns a Response: JSON, JSONError, Empty or Bytes.
// Errors from binding or rendering go to an ErrorHandler; NewErrorHandler
// writes the JSON envelope
//
//	{"error": {"code": "not_found", "message": "..."}}
//
// and resolves status codes through Classifiers, so domain packages can
// map their own error codes without this package knowing them.
package handler
