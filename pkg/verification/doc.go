// Package verification checks tax identifiers of subjects against a
// registry.
//
// The registry is an external collaborator behind the Verifier interface.
// Service puts local checks in front of it: identifiers are normalised and
// must pass the INN control-digit rule from pkg/validator before any lookup.
// Successful verdicts are cached in an expiring LRU.
//
//	svc := verification.NewService(verification.NewStatic(), verification.Config{
//	    CacheSize: 1024,
//	    CacheTTL:  24 * time.Hour,
//	})
//	res, err := svc.Verify(ctx, "7707083893")
package verification
