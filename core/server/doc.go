// Package server provides an HTTP server wrapper with graceful shutdown,
// timeout defaults and optional TLS.
//
// The Server wraps http.Server and coordinates its lifecycle: Start blocks
// until the context is canceled, Stop drains in-flight requests under the
// shutdown timeout, and Run returns an errgroup-compatible closure doing
// both.
//
// Usage:
//
//	srv, err := server.NewFromConfig(cfg, server.WithLogger(log))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer stop()
//
//	if err := srv.Run(ctx, mux)(); err != nil {
//		log.Fatal(err)
//	}
package server
