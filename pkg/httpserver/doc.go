// Package httpserver runs the billing API over net/http with graceful
// shutdown driven by a context.
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	g.Go(func() error { return srv.Run(ctx, router) })
//
// Run returns once ctx is cancelled and in-flight requests drained within
// the shutdown timeout. HealthHandler turns named probes such as
// pg.Healthcheck or redis.Healthcheck into a JSON readiness endpoint.
package httpserver
