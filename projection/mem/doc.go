// Package mem implements an in-memory projection store, used for testing purposes.
/*
mem provides a full implementation of the [projection.Store] interface.

Events are applied one at a time under a write lock. Changes of a failing event are rolled back, while the remaining events
of a batch are still applied.

	s, err := mem.New(func(o *mem.Options) {
		o.Common.DefaultQueryLimit = 100
	})
	if err != nil {
		log.Fatalf("failed to create mem store: %v", err)
	}

	defer s.Shutdown()
*/
package mem
