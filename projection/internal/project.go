package internal

import (
	"errors"

	"github.com/gclaussn/go-bpmn-query/projection"
)

// ProjectBatch applies the events of a batch one by one.
//
// apply must dispatch a single event within its own unit of work, so that a failing event does not affect the other events.
// Events with an unrecognized type are counted as ignored, without calling apply.
func ProjectBatch(
	dispatcher *Dispatcher,
	options projection.Options,
	events []projection.Event,
	apply func(projection.Event) error,
) (projection.ProjectResult, error) {
	if options.OrderBatches {
		events = OrderBatch(events)
	}

	var (
		result projection.ProjectResult
		errs   []error
	)

	for _, event := range events {
		if !dispatcher.Handles(event.Type()) {
			result.Ignored++
			continue
		}

		if err := apply(event); err != nil {
			result.Failed = append(result.Failed, projection.NewEventFailure(event, err))
			errs = append(errs, err)

			if options.OnEventFailure != nil {
				options.OnEventFailure(event, err)
			}
			continue
		}

		result.Applied++
	}

	return result, errors.Join(errs...)
}
