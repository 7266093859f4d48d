package internal

import (
	"errors"
	"testing"

	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/stretchr/testify/assert"
)

func TestProjectBatch(t *testing.T) {
	assert := assert.New(t)

	dispatcher := MustDefaultDispatcher()

	events := []projection.Event{
		{Id: "1", EventType: "VARIABLE_CREATED"},
		{Id: "2", EventType: "SIGNAL_RECEIVED"},
		{Id: "3", EventType: "TASK_ASSIGNED"},
		{Id: "4", EventType: "PROCESS_CREATED"},
	}

	t.Run("apply", func(t *testing.T) {
		// given
		var applied []string

		// when
		result, err := ProjectBatch(dispatcher, projection.Options{}, events, func(event projection.Event) error {
			applied = append(applied, event.Id)
			return nil
		})

		// then
		assert.Nil(err)
		assert.Equal(3, result.Applied)
		assert.Equal(1, result.Ignored)
		assert.False(result.HasFailures())
		assert.Equal([]string{"1", "3", "4"}, applied)
	})

	t.Run("apply ordered", func(t *testing.T) {
		// given
		var applied []string

		// when
		_, err := ProjectBatch(dispatcher, projection.Options{OrderBatches: true}, events, func(event projection.Event) error {
			applied = append(applied, event.Id)
			return nil
		})

		// then
		assert.Nil(err)
		assert.Equal([]string{"4", "1", "3"}, applied)
	})

	t.Run("failures do not stop a batch", func(t *testing.T) {
		// given
		var failures []string

		options := projection.Options{
			OnEventFailure: func(event projection.Event, _ error) {
				failures = append(failures, event.Id)
			},
		}

		// when
		result, err := ProjectBatch(dispatcher, options, events, func(event projection.Event) error {
			if event.Id == "3" {
				return projection.Error{Type: projection.ErrorNotFound, Title: "t", Detail: "d"}
			}
			if event.Id == "4" {
				return errors.New("test")
			}
			return nil
		})

		// then
		assert.NotNil(err)
		assert.True(projection.IsErrorType(err, projection.ErrorNotFound))

		assert.Equal(1, result.Applied)
		assert.Equal(1, result.Ignored)
		assert.Len(result.Failed, 2)
		assert.Equal(projection.ErrorNotFound, result.Failed[0].ErrorType)
		assert.Equal("test", result.Failed[1].Error)

		assert.Equal([]string{"3", "4"}, failures)
	})
}
