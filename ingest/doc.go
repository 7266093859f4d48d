/*
Package ingest consumes batches of process engine events.

A [Consumer] appends each batch to an audit log and projects it, using a [projection.Store].
Both steps are independent: a failing projection does not prevent a batch from being audited and vice versa.

# Create consumer

	store, err := mem.New()
	if err != nil {
		log.Fatalf("failed to create store: %v", err)
	}

	consumer, err := ingest.NewConsumer(store, func(o *ingest.Options) {
		o.Workers = 8
		o.Logger = logger
		o.Registerer = prometheus.DefaultRegisterer
	})
	if err != nil {
		log.Fatalf("failed to create consumer: %v", err)
	}

	defer consumer.Shutdown()

# Consume events

A batch is projected by a single worker in batch order.
While projecting, the worker holds the locks of all aggregates, the batch affects - see [projection.Event.AggregateIds].
Batches, which share an aggregate, are serialized, while batches of distinct aggregates are projected in parallel.

	result, err := consumer.Consume(context.Background(), events)
	if err != nil {
		log.Printf("failed to consume events: %v", err)
	}

# Purge audit log

A [Housekeeper] purges audit events, which are older than a retention period, according to a cron expression:

	housekeeper, err := ingest.NewHousekeeper(store, func(o *ingest.HousekeeperOptions) {
		o.Schedule = "0 3 * * *"
		o.Retention = 30 * 24 * time.Hour
	})
	if err != nil {
		log.Fatalf("failed to create housekeeper: %v", err)
	}

	housekeeper.Start()
	defer housekeeper.Stop()
*/
package ingest
