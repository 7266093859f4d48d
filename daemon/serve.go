package daemon

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gclaussn/go-bpmn-query/http/server"
	"github.com/gclaussn/go-bpmn-query/ingest"
	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// serve composes consumer, housekeeper and HTTP server around a store and blocks until SIGINT or SIGTERM.
// The store is shut down, when the server is shut down.
func serve(store projection.Store, o *options, logger *zap.Logger) int {
	consumer, err := ingest.NewConsumer(store, func(co *ingest.Options) {
		*co = o.consumer

		co.Logger = logger.Named("consumer")
		co.Registerer = prometheus.DefaultRegisterer
	})
	if err != nil {
		logger.Error("failed to create consumer", zap.Error(err))
		store.Shutdown()
		return 1
	}

	var housekeeper *ingest.Housekeeper
	if o.auditRetentionEnabled {
		housekeeper, err = ingest.NewHousekeeper(store, func(ho *ingest.HousekeeperOptions) {
			*ho = o.housekeeper

			ho.Logger = logger.Named("housekeeper")
		})
		if err != nil {
			logger.Error("failed to create housekeeper", zap.Error(err))
			consumer.Shutdown()
			store.Shutdown()
			return 1
		}
	}

	s, err := server.New(store, consumer, func(so *server.Options) {
		*so = o.server

		so.Gatherer = prometheus.DefaultGatherer
		so.Logger = logger.Named("server")
	})
	if err != nil {
		logger.Error("failed to create HTTP server", zap.Error(err))
		consumer.Shutdown()
		store.Shutdown()
		return 1
	}

	if housekeeper != nil {
		housekeeper.Start()
	}

	s.ListenAndServe()

	signalC := make(chan os.Signal, 1)
	signal.Notify(signalC, os.Interrupt, syscall.SIGTERM)

	<-signalC

	if housekeeper != nil {
		housekeeper.Stop()
	}

	s.Shutdown()
	return 0
}
