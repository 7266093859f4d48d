package mem

import (
	"context"
	"testing"
	"time"

	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/stretchr/testify/assert"
)

func TestAuditLog(t *testing.T) {
	assert := assert.New(t)

	s := mustCreateStore(t)
	defer s.Shutdown()

	t.Run("append", func(t *testing.T) {
		// given
		created := newEvent(t, projection.EventProcessCreated, 0, projection.ProcessInstancePayload{Id: "P1"})
		created.ProcessInstanceId = "P1"
		created.ServiceName = "rb"

		unknown := newEvent(t, projection.EventProcessCreated, 1, projection.ProcessInstancePayload{Id: "P1"})
		unknown.EventType = "SIGNAL_RECEIVED"
		unknown.ProcessInstanceId = "P1"

		started := newEvent(t, projection.EventProcessStarted, 2, projection.ProcessInstancePayload{Id: "P1"})
		started.ProcessInstanceId = "P1"

		// when
		auditEvents, err := s.Append(context.Background(), []projection.Event{created, unknown, started})

		// then
		assert.Nil(err)
		assert.Len(auditEvents, 3)

		messageId := auditEvents[0].MessageId
		assert.NotEmpty(messageId)

		for i, auditEvent := range auditEvents {
			assert.NotEmpty(auditEvent.Id)
			assert.Equal(i, auditEvent.SequenceNumber)
			assert.Equal(messageId, auditEvent.MessageId)
			assert.Equal("P1", auditEvent.ProcessInstanceId)
		}

		assert.Equal(created.Id, auditEvents[0].EventId)
		assert.Equal("PROCESS_CREATED", auditEvents[0].EventType)
		assert.Equal("rb", auditEvents[0].ServiceName)
		assert.JSONEq(string(created.Entity), string(auditEvents[0].Entity))
		assert.Equal(created.Timestamp, auditEvents[0].Timestamp)

		assert.Equal("SIGNAL_RECEIVED", auditEvents[1].EventType)

		// when
		results := mustQuery(t, s, projection.AuditEventCriteria{MessageId: messageId})

		// then
		assert.Len(results, 3)
		for i, result := range results {
			assert.Equal(auditEvents[i], result)
		}
	})

	t.Run("append assigns new message ID per batch", func(t *testing.T) {
		// given
		event := newEvent(t, projection.EventProcessCreated, 3, projection.ProcessInstancePayload{Id: "P2"})

		// when
		first, err := s.Append(context.Background(), []projection.Event{event})
		assert.Nil(err)

		second, err := s.Append(context.Background(), []projection.Event{event})
		assert.Nil(err)

		// then
		assert.NotEqual(first[0].MessageId, second[0].MessageId)
		assert.Equal(0, second[0].SequenceNumber)

		results := mustQuery(t, s, projection.AuditEventCriteria{EventId: event.Id})
		assert.Len(results, 2)
	})

	t.Run("append empty batch", func(t *testing.T) {
		auditEvents, err := s.Append(context.Background(), nil)
		assert.Nil(err)
		assert.Len(auditEvents, 0)
	})

	t.Run("query", func(t *testing.T) {
		// when
		results := mustQuery(t, s, projection.AuditEventCriteria{EventTypes: []string{"PROCESS_STARTED", "SIGNAL_RECEIVED"}})

		// then
		assert.Len(results, 2)

		// when
		timestampFrom := baseTime.Add(time.Minute)
		timestampTo := baseTime.Add(3 * time.Minute)

		results = mustQuery(t, s, projection.AuditEventCriteria{TimestampFrom: &timestampFrom, TimestampTo: &timestampTo})

		// then
		assert.Len(results, 2)

		// when
		result, err := s.FindById(context.Background(), projection.KindAuditEvent, results[0].(projection.AuditEvent).Id)

		// then
		assert.Nil(err)
		assert.Equal(results[0], result)
	})

	t.Run("purge", func(t *testing.T) {
		// when
		n, err := s.Purge(context.Background(), time.Now().Add(-time.Hour))

		// then
		assert.Nil(err)
		assert.Equal(0, n)

		// when
		n, err = s.Purge(context.Background(), time.Now().Add(time.Hour))

		// then
		assert.Nil(err)
		assert.Equal(5, n)
		assert.Len(mustQuery(t, s, projection.AuditEventCriteria{}), 0)
	})

	t.Run("audit log is independent of projection", func(t *testing.T) {
		// given
		event := newEvent(t, projection.EventTaskCompleted, 0, projection.TaskPayload{Id: "not-existing"})

		// when
		auditEvents, err := s.Append(context.Background(), []projection.Event{event})
		assert.Nil(err)

		_, err = s.Project(context.Background(), []projection.Event{event})

		// then
		assert.True(projection.IsErrorType(err, projection.ErrorNotFound))
		assert.Len(auditEvents, 1)
		assert.Len(mustQuery(t, s, projection.AuditEventCriteria{EventId: event.Id}), 1)
	})
}
