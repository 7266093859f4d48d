package projection

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventType(t *testing.T) {
	assert := assert.New(t)

	t.Run("map", func(t *testing.T) {
		for _, eventType := range EventTypes() {
			assert.NotEmpty(eventType.String())
			assert.Equal(eventType, MapEventType(eventType.String()))
		}

		assert.Equal(EventType(0), MapEventType("SIGNAL_RECEIVED"))
		assert.Equal("", EventType(0).String())
	})

	t.Run("JSON", func(t *testing.T) {
		b, err := json.Marshal(EventTaskCreated)
		assert.Nil(err)
		assert.Equal(`"TASK_CREATED"`, string(b))

		var eventType EventType
		assert.Nil(json.Unmarshal([]byte(`"VARIABLE_DELETED"`), &eventType))
		assert.Equal(EventVariableDeleted, eventType)

		assert.NotNil(json.Unmarshal([]byte(`"UNKNOWN"`), &eventType))
	})

	t.Run("closed set", func(t *testing.T) {
		assert.Len(EventTypes(), 34)
	})
}

func TestEvent(t *testing.T) {
	assert := assert.New(t)

	t.Run("new event", func(t *testing.T) {
		// when
		event, err := NewEvent(EventTaskCreated, TaskPayload{Id: "T1"})

		// then
		assert.Nil(err)
		assert.NotEmpty(event.Id)
		assert.NotEmpty(event.Timestamp)
		assert.Equal("TASK_CREATED", event.EventType)
		assert.Equal(EventTaskCreated, event.Type())

		var payload TaskPayload
		assert.Nil(event.DecodeEntity(&payload))
		assert.Equal("T1", payload.Id)
	})

	t.Run("returns error when event type is zero", func(t *testing.T) {
		_, err := NewEvent(0, nil)
		assert.NotNil(err)
	})

	t.Run("aggregate ID", func(t *testing.T) {
		assert.Equal("P1", Event{Id: "e1", EntityId: "T1", ProcessInstanceId: "P1"}.AggregateId())
		assert.Equal("T1", Event{Id: "e1", EntityId: "T1"}.AggregateId())
		assert.Equal("", Event{Id: "e1"}.AggregateId())
	})

	t.Run("aggregate IDs", func(t *testing.T) {
		task, err := NewEvent(EventTaskCompleted, TaskPayload{Id: "T1"})
		if !assert.Nil(err) {
			t.FailNow()
		}

		assert.Equal([]string{"T1"}, task.AggregateIds())
		assert.Equal("T1", task.AggregateId())

		task.ProcessInstanceId = "P1"
		assert.Equal([]string{"P1", "T1"}, task.AggregateIds())

		variable, err := NewEvent(EventVariableUpdated, VariablePayload{Name: "v", TaskId: "T1", ProcessInstanceId: "P1"})
		if !assert.Nil(err) {
			t.FailNow()
		}

		assert.Equal([]string{"P1", "T1"}, variable.AggregateIds())

		deployed, err := NewEvent(EventProcessDeployed, ProcessDefinitionPayload{Id: "pd:1", Key: "pd"})
		if !assert.Nil(err) {
			t.FailNow()
		}

		assert.Equal([]string{"pd:1"}, deployed.AggregateIds())

		assert.Empty(Event{Id: "e1", Entity: json.RawMessage(`[]`)}.AggregateIds())
	})

	t.Run("decode entity returns validation error", func(t *testing.T) {
		err := Event{Id: "e1"}.DecodeEntity(&TaskPayload{})
		assert.True(IsErrorType(err, ErrorValidation))

		err = Event{Id: "e1", Entity: json.RawMessage(`[]`)}.DecodeEntity(&TaskPayload{})
		assert.True(IsErrorType(err, ErrorValidation))
	})

	t.Run("time", func(t *testing.T) {
		event := Event{Timestamp: 1735689600000}
		assert.Equal("2025-01-01T00:00:00Z", event.Time().Format("2006-01-02T15:04:05Z07:00"))
	})
}
