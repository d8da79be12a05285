// Package server assembles the support chat relay and manages its HTTP
// lifecycle.
//
// New builds every component from a *config.Config: the logger, tracer,
// Prometheus collector, limiter store (memory or Redis), limiter, relay
// client, chat handler and health checker. Handler mounts them on a chi
// router:
//
//	POST    /chat             chat pipeline
//	OPTIONS /chat             CORS preflight
//	GET     /chat/ws          WebSocket chat
//	GET     /screening/rules  rule table for the widget's advisory check
//	GET     /health           liveness
//	GET     /ready            readiness (upstream configured, limiter store reachable)
//	GET     /version          build information
//	GET     /metrics          Prometheus exposition, path from metrics.path
//
// # Usage
//
//	srv, err := server.New(ctx, cfg, server.WithConfigWatch(path))
//	if err != nil {
//	    return err
//	}
//	return srv.Start(ctx) // returns after ctx is cancelled and shutdown completes
//
// With WithConfigWatch the limiter policy and log level follow edits to
// the config file. Other settings need a restart.
package server
