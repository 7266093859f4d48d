package internal

import (
	"testing"

	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/stretchr/testify/assert"
)

func TestOrderBatch(t *testing.T) {
	assert := assert.New(t)

	event := func(id string, eventType projection.EventType) projection.Event {
		return projection.Event{Id: id, EventType: eventType.String()}
	}

	t.Run("creation before change", func(t *testing.T) {
		// given
		events := []projection.Event{
			event("1", projection.EventProcessCompleted),
			event("2", projection.EventTaskCompleted),
			event("3", projection.EventVariableUpdated),
			event("4", projection.EventTaskCreated),
			event("5", projection.EventProcessCreated),
			event("6", projection.EventVariableCreated),
		}

		// when
		ordered := OrderBatch(events)

		// then
		ids := make([]string, len(ordered))
		for i, e := range ordered {
			ids[i] = e.Id
		}

		assert.Equal([]string{"5", "4", "6", "3", "2", "1"}, ids)
		assert.Equal("1", events[0].Id, "batch must not be modified")
	})

	t.Run("same rank keeps batch order", func(t *testing.T) {
		// given
		events := []projection.Event{
			event("1", projection.EventTaskAssigned),
			event("2", projection.EventTaskUpdated),
			event("3", projection.EventTaskSuspended),
		}

		// when
		ordered := OrderBatch(events)

		// then
		assert.Equal(events, ordered)
	})

	t.Run("unrecognized event type first", func(t *testing.T) {
		// given
		events := []projection.Event{
			event("1", projection.EventTaskCreated),
			{Id: "2", EventType: "SIGNAL_RECEIVED"},
		}

		// when
		ordered := OrderBatch(events)

		// then
		assert.Equal("2", ordered[0].Id)
		assert.Equal(0, Rank(0))
	})
}
