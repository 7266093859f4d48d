package projection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewCriteria(t *testing.T) {
	assert := assert.New(t)

	t.Run("process instance", func(t *testing.T) {
		// when
		criteria, err := NewCriteria(KindProcessInstance, map[string]string{
			"businessKey": " bk ",
			"createdFrom": "2025-01-01T00:00:00Z",
			"createdTo":   "1735693200000",
			"status":      "RUNNING, SUSPENDED",
		})

		// then
		assert.Nil(err)

		startedFrom := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		startedTo := time.Date(2025, 1, 1, 1, 0, 0, 0, time.UTC)

		assert.Equal(ProcessInstanceCriteria{
			BusinessKey: "bk",
			StartedFrom: &startedFrom,
			StartedTo:   &startedTo,
			Status:      []ProcessInstanceStatus{ProcessInstanceRunning, ProcessInstanceSuspended},
		}, criteria)
	})

	t.Run("audit event", func(t *testing.T) {
		// when
		criteria, err := NewCriteria(KindAuditEvent, map[string]string{
			"eventType": "PROCESS_CREATED,TASK_CREATED",
			"messageId": "m1",
		})

		// then
		assert.Nil(err)
		assert.Equal(AuditEventCriteria{
			EventTypes: []string{"PROCESS_CREATED", "TASK_CREATED"},
			MessageId:  "m1",
		}, criteria)
	})

	t.Run("task", func(t *testing.T) {
		// when
		criteria, err := NewCriteria(KindTask, map[string]string{
			"candidateUserId": "hruser",
			"rootTasksOnly":   "true",
			"status":          "ASSIGNED",
		})

		// then
		assert.Nil(err)
		assert.Equal(TaskCriteria{
			CandidateUserId: "hruser",
			RootTasksOnly:   true,
			Status:          []TaskStatus{TaskAssigned},
		}, criteria)
	})

	t.Run("empty filters", func(t *testing.T) {
		for _, kind := range Kinds() {
			criteria, err := NewCriteria(kind, nil)
			assert.Nilf(err, "kind %s", kind)
			assert.NotNilf(criteria, "kind %s", kind)
		}
	})

	t.Run("returns error when kind is not supported", func(t *testing.T) {
		// when
		_, err := NewCriteria(0, nil)

		// then
		assert.True(IsErrorType(err, ErrorQuery))
	})

	t.Run("returns error when filters are unknown or invalid", func(t *testing.T) {
		// when
		_, err := NewCriteria(KindTask, map[string]string{
			"createdFrom":   "yesterday",
			"rootTasksOnly": "maybe",
			"status":        "DONE",
			"unknown":       "x",
		})

		// then
		assert.IsTypef(Error{}, err, "expected projection error")

		projectionErr := err.(Error)
		assert.Equal(ErrorQuery, projectionErr.Type)
		assert.Len(projectionErr.Causes, 4)
		assert.Equal("unknown", projectionErr.Causes[3].Pointer)
	})

	t.Run("returns error when version is not a number", func(t *testing.T) {
		_, err := NewCriteria(KindProcessDefinition, map[string]string{"version": "v1"})
		assert.True(IsErrorType(err, ErrorQuery))
	})
}
