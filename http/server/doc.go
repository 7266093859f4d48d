// Package server implements the HTTP API for event ingestion and the query facade.
/*
server implements a handler for event consumption as well as handlers to find, query and delete projected entities, using the [net/http] package.

Run a Server

A server requires a store and a consumer, which appends consumed events to the store's audit log and projects them.
Moreover for authentication, either a [pg.ApiKeyManager] (implemented by a pg store) or basic auth username and password must be set.

A server is listening on "127.0.0.1:8080".
The TCP bind address as well as various timeouts can be configured by customizing the configuration.

	server, err := server.New(store, consumer, func(o *server.Options) {
		o.ApiKeyManager = apiKeyManager
		o.Logger = logger
	})
	if err != nil {
		log.Fatalf("failed to create HTTP server: %v", err)
	}

	server.ListenAndServe()

	signalC := make(chan os.Signal, 1)
	signal.Notify(signalC, os.Interrupt, syscall.SIGTERM)

	<-signalC

	server.Shutdown()

Endpoints

	POST   /events                 consume a batch of events
	POST   /{kind}/query           query entities, using a filter map as request body
	GET    /{kind}/{id}            find an entity by ID
	DELETE /{kind}                 delete all entities of a kind, if enabled
	GET    /metrics                prometheus metrics
	GET    /readiness              readiness check

The kind path parameter is the plural of an entity kind - e.g. "process-instances", "tasks" or "audit-events".
*/
package server
