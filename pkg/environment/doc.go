// Package environment names the deployment environment and carries it
// through request contexts.
//
//	env := environment.Parse(cfg.Env)
//	r.Use(environment.Middleware(env))
//	...
//	if environment.IsProduction(ctx) {
//	    // hide internal error details
//	}
package environment
