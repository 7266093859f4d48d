package mem

import (
	"context"
	"testing"
	"time"

	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/stretchr/testify/assert"
)

func TestProcessInstance(t *testing.T) {
	assert := assert.New(t)

	s := mustCreateStore(t)
	defer s.Shutdown()

	findProcessInstance := func(t *testing.T, id string) projection.ProcessInstance {
		result, err := s.FindById(context.Background(), projection.KindProcessInstance, id)
		if err != nil {
			t.Fatalf("failed to find process instance: %v", err)
		}
		return result.(projection.ProcessInstance)
	}

	t.Run("create", func(t *testing.T) {
		// given
		event := newEvent(t, projection.EventProcessCreated, 0, projection.ProcessInstancePayload{
			Id:                       "P1",
			Name:                     "process",
			BusinessKey:              "bk",
			Initiator:                "hruser",
			ProcessDefinitionId:      "pd:1",
			ProcessDefinitionKey:     "pd",
			ProcessDefinitionVersion: 1,
		})
		event.AppName = "app"
		event.ServiceName = "rb"

		// when
		result := mustProject(t, s, event)

		// then
		assert.Equal(1, result.Applied)

		processInstance := findProcessInstance(t, "P1")
		assert.Equal(projection.ProcessInstance{
			Id: "P1",

			ProcessDefinitionId:      "pd:1",
			ProcessDefinitionKey:     "pd",
			ProcessDefinitionVersion: 1,

			BusinessKey:  "bk",
			Initiator:    "hruser",
			LastModified: baseTime,
			Name:         "process",
			Status:       projection.ProcessInstanceCreated,

			AppName:     "app",
			ServiceName: "rb",
		}, processInstance)
	})

	t.Run("create is idempotent", func(t *testing.T) {
		// when
		result := mustProject(t, s,
			newEvent(t, projection.EventProcessCreated, 5, projection.ProcessInstancePayload{Id: "P1", Name: "other"}),
		)

		// then
		assert.Equal(1, result.Applied)

		results := mustQuery(t, s, projection.ProcessInstanceCriteria{Id: "P1"})
		assert.Len(results, 1)

		processInstance := results[0].(projection.ProcessInstance)
		assert.Equal("process", processInstance.Name)
		assert.Equal(baseTime, processInstance.LastModified)
	})

	t.Run("start", func(t *testing.T) {
		// when
		mustProject(t, s, newEvent(t, projection.EventProcessStarted, 1, projection.ProcessInstancePayload{Id: "P1"}))

		// then
		processInstance := findProcessInstance(t, "P1")
		assert.Equal(projection.ProcessInstanceRunning, processInstance.Status)
		assert.Equal(baseTime.Add(time.Minute), *processInstance.StartDate)
		assert.Equal(baseTime.Add(time.Minute), processInstance.LastModified)
	})

	t.Run("suspend and resume", func(t *testing.T) {
		// when
		mustProject(t, s, newEvent(t, projection.EventProcessSuspended, 2, projection.ProcessInstancePayload{Id: "P1"}))

		// then
		processInstance := findProcessInstance(t, "P1")
		assert.Equal(projection.ProcessInstanceSuspended, processInstance.Status)
		assert.Equal(baseTime.Add(2*time.Minute), *processInstance.SuspendedDate)

		// when
		mustProject(t, s, newEvent(t, projection.EventProcessResumed, 3, projection.ProcessInstancePayload{Id: "P1"}))

		// then
		processInstance = findProcessInstance(t, "P1")
		assert.Equal(projection.ProcessInstanceRunning, processInstance.Status)
		assert.Equal(baseTime.Add(time.Minute), *processInstance.StartDate)
	})

	t.Run("update", func(t *testing.T) {
		// when
		mustProject(t, s, newEvent(t, projection.EventProcessUpdated, 4, projection.ProcessInstancePayload{
			Id:          "P1",
			Name:        "updated",
			BusinessKey: "bk2",
		}))

		// then
		processInstance := findProcessInstance(t, "P1")
		assert.Equal(projection.ProcessInstanceRunning, processInstance.Status)
		assert.Equal("updated", processInstance.Name)
		assert.Equal("bk2", processInstance.BusinessKey)
	})

	t.Run("update keeps absent fields", func(t *testing.T) {
		// when
		mustProject(t, s, newEvent(t, projection.EventProcessUpdated, 5, projection.ProcessInstancePayload{Id: "P1"}))

		// then
		processInstance := findProcessInstance(t, "P1")
		assert.Equal("updated", processInstance.Name)
		assert.Equal("bk2", processInstance.BusinessKey)
		assert.Equal(baseTime.Add(5*time.Minute), processInstance.LastModified)

		// when
		mustProject(t, s, newEvent(t, projection.EventProcessUpdated, 6, projection.ProcessInstancePayload{Id: "P1", Name: "renamed"}))

		// then
		processInstance = findProcessInstance(t, "P1")
		assert.Equal("renamed", processInstance.Name)
		assert.Equal("bk2", processInstance.BusinessKey)
	})

	t.Run("complete", func(t *testing.T) {
		// when
		mustProject(t, s, newEvent(t, projection.EventProcessCompleted, 10, projection.ProcessInstancePayload{Id: "P1"}))

		// then
		processInstance := findProcessInstance(t, "P1")
		assert.Equal(projection.ProcessInstanceCompleted, processInstance.Status)
		assert.Equal(baseTime.Add(10*time.Minute), *processInstance.CompletedDate)

		// when replayed
		result := mustProject(t, s, newEvent(t, projection.EventProcessCompleted, 11, projection.ProcessInstancePayload{Id: "P1"}))

		// then
		assert.Equal(1, result.Applied)

		processInstance = findProcessInstance(t, "P1")
		assert.Equal(baseTime.Add(10*time.Minute), *processInstance.CompletedDate)
	})

	t.Run("returns conflict when process instance is completed", func(t *testing.T) {
		// when
		result, err := s.Project(context.Background(), []projection.Event{
			newEvent(t, projection.EventProcessStarted, 12, projection.ProcessInstancePayload{Id: "P1"}),
			newEvent(t, projection.EventProcessCancelled, 13, projection.ProcessInstancePayload{Id: "P1"}),
		})

		// then
		assert.True(projection.IsErrorType(err, projection.ErrorConflict))
		assert.Len(result.Failed, 2)

		processInstance := findProcessInstance(t, "P1")
		assert.Equal(projection.ProcessInstanceCompleted, processInstance.Status)
	})

	t.Run("returns not found when process instance not exists", func(t *testing.T) {
		for _, eventType := range []projection.EventType{
			projection.EventProcessStarted,
			projection.EventProcessSuspended,
			projection.EventProcessResumed,
			projection.EventProcessCompleted,
			projection.EventProcessCancelled,
			projection.EventProcessUpdated,
		} {
			result, err := s.Project(context.Background(), []projection.Event{
				newEvent(t, eventType, 0, projection.ProcessInstancePayload{Id: "not-existing"}),
			})
			assert.True(projection.IsErrorType(err, projection.ErrorNotFound), eventType.String())
			assert.Len(result.Failed, 1)
		}
	})

	t.Run("query", func(t *testing.T) {
		// given
		mustProject(t, s,
			newEvent(t, projection.EventProcessCreated, 20, projection.ProcessInstancePayload{Id: "P2", ParentId: "P1"}),
			newEvent(t, projection.EventProcessStarted, 21, projection.ProcessInstancePayload{Id: "P2"}),
		)

		// when
		results := mustQuery(t, s, projection.ProcessInstanceCriteria{ParentId: "P1"})

		// then
		assert.Len(results, 1)
		assert.True(results[0].(projection.ProcessInstance).HasParent())

		// when
		results = mustQuery(t, s, projection.ProcessInstanceCriteria{
			Status: []projection.ProcessInstanceStatus{projection.ProcessInstanceCompleted},
		})

		// then
		assert.Len(results, 1)
		assert.Equal("P1", results[0].(projection.ProcessInstance).Id)

		// when
		startedFrom := baseTime.Add(20 * time.Minute)
		results = mustQuery(t, s, projection.ProcessInstanceCriteria{StartedFrom: &startedFrom})

		// then
		assert.Len(results, 1)
		assert.Equal("P2", results[0].(projection.ProcessInstance).Id)
	})
}
