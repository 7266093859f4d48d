package internal

import (
	"errors"
	"testing"

	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/stretchr/testify/assert"
)

func TestDispatcher(t *testing.T) {
	assert := assert.New(t)

	noop := func(Context, projection.Event) error { return nil }

	t.Run("default registrations cover all event types", func(t *testing.T) {
		// when
		dispatcher := MustDefaultDispatcher()

		// then
		for _, eventType := range projection.EventTypes() {
			assert.Truef(dispatcher.Handles(eventType), "event type %s not handled", eventType)
		}

		assert.False(dispatcher.Handles(0))
	})

	t.Run("dispatch", func(t *testing.T) {
		// given
		var dispatched []string

		dispatcher, err := NewDispatcher(Registration{projection.EventTaskCreated, func(_ Context, event projection.Event) error {
			dispatched = append(dispatched, event.Id)
			return nil
		}})
		if err != nil {
			t.Fatalf("failed to create dispatcher: %v", err)
		}

		// when
		ok1, err1 := dispatcher.Dispatch(nil, projection.Event{Id: "e1", EventType: "TASK_CREATED"})
		ok2, err2 := dispatcher.Dispatch(nil, projection.Event{Id: "e2", EventType: "TASK_ASSIGNED"})

		// then
		assert.True(ok1)
		assert.Nil(err1)
		assert.False(ok2)
		assert.Nil(err2)
		assert.Equal([]string{"e1"}, dispatched)
	})

	t.Run("dispatch returns handler error", func(t *testing.T) {
		// given
		dispatcher, _ := NewDispatcher(Registration{projection.EventTaskCreated, func(Context, projection.Event) error {
			return errors.New("test")
		}})

		// when
		ok, err := dispatcher.Dispatch(nil, projection.Event{EventType: "TASK_CREATED"})

		// then
		assert.True(ok)
		assert.EqualError(err, "test")
	})

	t.Run("returns error when event type is registered more than once", func(t *testing.T) {
		_, err := NewDispatcher(
			Registration{projection.EventTaskCreated, noop},
			Registration{projection.EventTaskCreated, noop},
		)
		assert.True(projection.IsErrorType(err, projection.ErrorConfiguration))
	})

	t.Run("returns error when registration is incomplete", func(t *testing.T) {
		_, err := NewDispatcher(Registration{EventType: 0, Handler: noop})
		assert.True(projection.IsErrorType(err, projection.ErrorConfiguration))

		_, err = NewDispatcher(Registration{EventType: projection.EventTaskCreated})
		assert.True(projection.IsErrorType(err, projection.ErrorConfiguration))
	})
}
