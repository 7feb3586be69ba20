// Package binder fills request structs from path parameters, the query
// string and JSON bodies. Binders plug into handler.Wrap:
//
//	type quoteRequest struct {
//		Code   string        `path:"code"`
//		Period tariff.Period `query:"period"`
//		Seats  int64         `query:"seats"`
//	}
//
//	r.Get("/tariffs/{code}/quote", handler.Wrap(api.quote,
//		handler.WithBinders[handler.Context, quoteRequest](binder.Path(chi.URLParam), binder.Query()),
//	))
//
// Fields tagged for one source are ignored by the others. Decoding failures
// wrap ErrInvalidJSON, ErrInvalidQuery or ErrInvalidPath; IsBindError groups
// them for mapping to 400 responses.
package binder
