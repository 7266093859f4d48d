package pg

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	assert := assert.New(t)

	t.Run("returns error when database URL is empty", func(t *testing.T) {
		_, err := New("")
		assert.NotNil(err)
	})

	t.Run("returns error when timeout is invalid", func(t *testing.T) {
		_, err := New("postgres://localhost/test", func(o *Options) {
			o.Timeout = 0
		})
		assert.NotNil(err)
	})
}

func TestProject(t *testing.T) {
	assert := assert.New(t)

	s := mustCreateStore(t)
	defer s.Shutdown()

	processEvent := func(eventType projection.EventType, minutes int) projection.Event {
		event := newEvent(t, eventType, minutes, projection.ProcessInstancePayload{
			Id:                   "P1",
			Name:                 "process",
			BusinessKey:          "bk",
			ProcessDefinitionKey: "approval",
		})
		event.AppName = "app"
		return event
	}

	t.Run("process instance lifecycle", func(t *testing.T) {
		// when
		result := mustProject(t, s,
			processEvent(projection.EventProcessCreated, 0),
			processEvent(projection.EventProcessStarted, 1),
			processEvent(projection.EventProcessSuspended, 2),
			processEvent(projection.EventProcessResumed, 3),
		)

		// then
		assert.Equal(4, result.Applied)
		assert.False(result.HasFailures())

		v, err := s.FindById(context.Background(), projection.KindProcessInstance, "P1")
		if err != nil {
			t.Fatalf("failed to find process instance: %v", err)
		}

		processInstance := v.(projection.ProcessInstance)
		assert.Equal(projection.ProcessInstanceRunning, processInstance.Status)
		assert.Equal("bk", processInstance.BusinessKey)
		assert.Equal("app", processInstance.AppName)
		assert.Equal(baseTime.Add(time.Minute), *processInstance.StartDate)
		assert.Equal(baseTime.Add(3*time.Minute), processInstance.LastModified)
		assert.Equal(baseTime.Add(2*time.Minute), *processInstance.SuspendedDate)

		// when
		results := mustQuery(t, s, projection.ProcessInstanceCriteria{Status: []projection.ProcessInstanceStatus{projection.ProcessInstanceRunning}})

		// then
		assert.Len(results, 1)
	})

	t.Run("update of unknown process instance fails", func(t *testing.T) {
		// given
		event := newEvent(t, projection.EventProcessStarted, 0, projection.ProcessInstancePayload{Id: "unknown"})

		// when
		result, err := s.Project(context.Background(), []projection.Event{event})

		// then
		assert.True(projection.IsErrorType(err, projection.ErrorNotFound))

		assert.Equal(0, result.Applied)
		assert.Len(result.Failed, 1)
		assert.Equal(projection.ErrorNotFound, result.Failed[0].ErrorType)

		_, err = s.FindById(context.Background(), projection.KindProcessInstance, "unknown")
		assert.True(projection.IsErrorType(err, projection.ErrorNotFound))
	})

	t.Run("task with candidates", func(t *testing.T) {
		// given
		taskEvent := newEvent(t, projection.EventTaskCreated, 4, projection.TaskPayload{
			Id:                "T1",
			Name:              "Review",
			Priority:          50,
			ProcessInstanceId: "P1",
		})

		candidateUserEvent := newEvent(t, projection.EventTaskCandidateUserAdded, 4, projection.CandidatePayload{TaskId: "T1", UserId: "hruser"})
		candidateGroupEvent := newEvent(t, projection.EventTaskCandidateGroupAdded, 4, projection.CandidatePayload{TaskId: "T1", GroupId: "hr"})

		// when
		result := mustProject(t, s, taskEvent, candidateUserEvent, candidateUserEvent, candidateGroupEvent)

		// then
		assert.Equal(4, result.Applied)

		candidateUsers := mustQuery(t, s, projection.CandidateUserCriteria{TaskId: "T1"})
		assert.Equal([]any{projection.CandidateUser{TaskId: "T1", UserId: "hruser"}}, candidateUsers)

		tasks := mustQuery(t, s, projection.TaskCriteria{CandidateGroupId: "hr"})
		assert.Len(tasks, 1)

		task := tasks[0].(projection.Task)
		assert.Equal("T1", task.Id)
		assert.Equal("P1", task.ProcessInstanceId)
		assert.Equal(projection.TaskCreated, task.Status)
		assert.Equal(50, task.Priority)

		assert.Len(mustQuery(t, s, projection.TaskCriteria{CandidateUserId: "other"}), 0)
		assert.Len(mustQuery(t, s, projection.TaskCriteria{Standalone: true}), 0)

		// when
		mustProject(t, s, newEvent(t, projection.EventTaskCandidateUserRemoved, 5, projection.CandidatePayload{TaskId: "T1", UserId: "hruser"}))

		// then
		assert.Len(mustQuery(t, s, projection.CandidateUserCriteria{TaskId: "T1"}), 0)
	})

	t.Run("task assigned and completed", func(t *testing.T) {
		// when
		mustProject(t, s,
			newEvent(t, projection.EventTaskAssigned, 6, projection.TaskPayload{Id: "T1", Assignee: "hruser"}),
			newEvent(t, projection.EventTaskCompleted, 8, projection.TaskPayload{Id: "T1", Assignee: "hruser"}),
		)

		// then
		v, err := s.FindById(context.Background(), projection.KindTask, "T1")
		if err != nil {
			t.Fatalf("failed to find task: %v", err)
		}

		task := v.(projection.Task)
		assert.Equal(projection.TaskCompleted, task.Status)
		assert.Equal("hruser", task.Assignee)
		assert.Equal(baseTime.Add(8*time.Minute), *task.CompletedDate)
	})

	t.Run("variable is recreated after delete", func(t *testing.T) {
		variableEvent := func(eventType projection.EventType, minutes int, value string) projection.Event {
			event := newEvent(t, eventType, minutes, projection.VariablePayload{
				Name:  "amount",
				Type:  "integer",
				Value: json.RawMessage(value),
			})
			event.ProcessInstanceId = "P1"
			return event
		}

		// when
		mustProject(t, s,
			variableEvent(projection.EventVariableCreated, 0, "100"),
			variableEvent(projection.EventVariableUpdated, 1, "200"),
			variableEvent(projection.EventVariableDeleted, 2, "200"),
			variableEvent(projection.EventVariableCreated, 3, "300"),
		)

		// then
		results := mustQuery(t, s, projection.ProcessVariableCriteria{ProcessInstanceId: "P1"})
		assert.Len(results, 1)

		variable := results[0].(projection.Variable)
		assert.Equal(json.Number("300"), variable.Value)
		assert.False(variable.MarkedAsDeleted)

		results = mustQuery(t, s, projection.ProcessVariableCriteria{ProcessInstanceId: "P1", IncludeDeleted: true})
		assert.Len(results, 2)
		assert.True(results[0].(projection.Variable).MarkedAsDeleted)
		assert.Equal(json.Number("200"), results[0].(projection.Variable).Value)
	})

	t.Run("BPMN activity loop", func(t *testing.T) {
		activityEvent := func(eventType projection.EventType, minutes int) projection.Event {
			event := newEvent(t, eventType, minutes, projection.BPMNActivityPayload{ElementId: "review", ActivityType: "userTask"})
			event.ProcessInstanceId = "P1"
			return event
		}

		// when
		mustProject(t, s,
			activityEvent(projection.EventActivityStarted, 0),
			activityEvent(projection.EventActivityCompleted, 1),
			activityEvent(projection.EventActivityStarted, 2),
			activityEvent(projection.EventActivityCancelled, 3),
		)

		sequenceFlowEvent := newEvent(t, projection.EventSequenceFlowTaken, 1, projection.SequenceFlowPayload{
			ElementId:               "flow1",
			SourceActivityElementId: "review",
			TargetActivityElementId: "end",
		})
		sequenceFlowEvent.ProcessInstanceId = "P1"

		mustProject(t, s, sequenceFlowEvent)

		// then
		results := mustQuery(t, s, projection.BPMNActivityCriteria{ProcessInstanceId: "P1", ElementId: "review"})
		assert.Len(results, 2)
		assert.Equal(projection.BPMNActivityCompleted, results[0].(projection.BPMNActivity).Status)
		assert.Equal(projection.BPMNActivityCancelled, results[1].(projection.BPMNActivity).Status)

		results = mustQuery(t, s, projection.BPMNSequenceFlowCriteria{ProcessInstanceId: "P1"})
		assert.Len(results, 1)

		sequenceFlow := results[0].(projection.BPMNSequenceFlow)
		assert.Equal("review", sequenceFlow.SourceActivityElementId)
		assert.Equal("end", sequenceFlow.TargetActivityElementId)
		assert.Equal(baseTime.Add(time.Minute), sequenceFlow.Date)
	})

	t.Run("integration context", func(t *testing.T) {
		integrationEvent := func(eventType projection.EventType, minutes int, errorCode string) projection.Event {
			event := newEvent(t, eventType, minutes, projection.IntegrationContextPayload{
				ClientId:         "c1",
				ExecutionId:      "e1",
				InBoundVariables: map[string]any{"a": "b"},
				ErrorCode:        errorCode,
			})
			event.ProcessInstanceId = "P1"
			return event
		}

		// when
		mustProject(t, s,
			integrationEvent(projection.EventIntegrationRequested, 0, ""),
			integrationEvent(projection.EventIntegrationErrorReceived, 1, "E1"),
		)

		// then
		results := mustQuery(t, s, projection.IntegrationContextCriteria{ExecutionId: "e1", ClientId: "c1"})
		assert.Len(results, 1)

		integrationContext := results[0].(projection.IntegrationContext)
		assert.Equal(projection.IntegrationErrorReceived, integrationContext.Status)
		assert.Equal("E1", integrationContext.ErrorCode)
		assert.Equal(map[string]any{"a": "b"}, integrationContext.InBoundVariables)
		assert.Equal(baseTime.Add(time.Minute), *integrationContext.ErrorDate)
	})

	t.Run("deployment", func(t *testing.T) {
		// when
		mustProject(t, s,
			newEvent(t, projection.EventProcessDeployed, 0, projection.ProcessDefinitionPayload{
				Id:                  "approval:1",
				Key:                 "approval",
				Name:                "Approval",
				Version:             1,
				ProcessModelContent: "<definitions/>",
			}),
			newEvent(t, projection.EventApplicationDeployed, 0, projection.ApplicationPayload{DeploymentId: "d1", Name: "app", Version: "1"}),
			newEvent(t, projection.EventApplicationDeployed, 1, projection.ApplicationPayload{DeploymentId: "d1", Name: "app", Version: "2"}),
		)

		// then
		v, err := s.FindById(context.Background(), projection.KindProcessModel, "approval:1")
		if err != nil {
			t.Fatalf("failed to find process model: %v", err)
		}

		assert.Equal("<definitions/>", v.(projection.ProcessModel).Content)

		results := mustQuery(t, s, projection.ApplicationCriteria{DeploymentId: "d1"})
		assert.Equal([]any{projection.Application{DeploymentId: "d1", Name: "app", Version: "2"}}, results)

		// when
		processEvent := newEvent(t, projection.EventProcessCreated, 2, projection.ProcessInstancePayload{
			Id:                  "P2",
			ProcessDefinitionId: "approval:1",
		})
		mustProject(t, s, processEvent)

		// then
		v, err = s.FindById(context.Background(), projection.KindProcessInstance, "P2")
		if err != nil {
			t.Fatalf("failed to find process instance: %v", err)
		}

		processInstance := v.(projection.ProcessInstance)
		assert.Equal("approval", processInstance.ProcessDefinitionKey)
		assert.Equal("Approval", processInstance.ProcessDefinitionName)
		assert.Equal(int32(1), processInstance.ProcessDefinitionVersion)

		// when
		mustProject(t, s,
			newEvent(t, projection.EventProcessDeployed, 3, projection.ProcessDefinitionPayload{
				Id:   "approval:1",
				Key:  "approval",
				Name: "Approval v2",
			}),
			newEvent(t, projection.EventProcessCreated, 4, projection.ProcessInstancePayload{
				Id:                  "P3",
				ProcessDefinitionId: "approval:1",
			}),
		)

		// then
		_, err = s.FindById(context.Background(), projection.KindProcessModel, "approval:1")
		assert.True(projection.IsErrorType(err, projection.ErrorNotFound))

		v, err = s.FindById(context.Background(), projection.KindProcessInstance, "P3")
		if err != nil {
			t.Fatalf("failed to find process instance: %v", err)
		}

		assert.Equal("Approval v2", v.(projection.ProcessInstance).ProcessDefinitionName)
	})

	t.Run("events of the same aggregate are serialized", func(t *testing.T) {
		// given
		mustProject(t, s, newEvent(t, projection.EventTaskCreated, 0, projection.TaskPayload{Id: "T2"}))

		var wg sync.WaitGroup

		// when
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()

				event := newEvent(t, projection.EventTaskUpdated, i+1, projection.TaskPayload{Id: "T2", Priority: i})
				if _, err := s.Project(context.Background(), []projection.Event{event}); err != nil {
					t.Errorf("failed to project event: %v", err)
				}
			}(i)
		}

		wg.Wait()

		// then
		results := mustQuery(t, s, projection.TaskCriteria{Id: "T2"})
		assert.Len(results, 1)
	})
}

func TestQuery(t *testing.T) {
	assert := assert.New(t)

	s := mustCreateStore(t)
	defer s.Shutdown()

	for i := 0; i < 5; i++ {
		mustProject(t, s, newEvent(t, projection.EventTaskCreated, i, projection.TaskPayload{
			Id:   string(rune('a' + i)),
			Name: "task",
		}))
	}

	t.Run("offset and limit", func(t *testing.T) {
		// when
		results, err := s.QueryWithOptions(context.Background(), projection.TaskCriteria{Name: "task"}, projection.QueryOptions{Offset: 1, Limit: 2})

		// then
		assert.Nil(err)
		assert.Len(results, 2)
		assert.Equal("b", results[0].(projection.Task).Id)
		assert.Equal("c", results[1].(projection.Task).Id)
	})

	t.Run("created range", func(t *testing.T) {
		// given
		createdFrom := baseTime.Add(time.Minute)
		createdTo := baseTime.Add(3 * time.Minute)

		// when
		results := mustQuery(t, s, projection.TaskCriteria{CreatedFrom: &createdFrom, CreatedTo: &createdTo})

		// then
		assert.Len(results, 2)
	})

	t.Run("find", func(t *testing.T) {
		// when
		results, err := projection.Find(context.Background(), s, projection.KindTask, map[string]string{"name": "task"}, projection.QueryOptions{Limit: 3})

		// then
		assert.Nil(err)
		assert.Len(results, 3)
	})

	t.Run("returns error when criteria type is not supported", func(t *testing.T) {
		// when
		_, err := s.Query(context.Background(), "unsupported")

		// then
		assert.True(projection.IsErrorType(err, projection.ErrorQuery))
	})

	t.Run("delete all", func(t *testing.T) {
		// when
		err := s.DeleteAll(context.Background(), projection.KindTask)

		// then
		assert.Nil(err)
		assert.Len(mustQuery(t, s, projection.TaskCriteria{}), 0)
	})
}

func TestAuditLog(t *testing.T) {
	assert := assert.New(t)

	s := mustCreateStore(t)
	defer s.Shutdown()

	// given
	events := []projection.Event{
		newEvent(t, projection.EventProcessCreated, 0, projection.ProcessInstancePayload{Id: "P1"}),
		newEvent(t, projection.EventProcessStarted, 1, projection.ProcessInstancePayload{Id: "P1"}),
		{Id: "e3", EventType: "SIGNAL_RECEIVED", Timestamp: baseTime.UnixMilli()},
	}

	// when
	auditEvents, err := s.Append(context.Background(), events)
	if err != nil {
		t.Fatalf("failed to append events: %v", err)
	}

	// then
	assert.Len(auditEvents, 3)
	for i, auditEvent := range auditEvents {
		assert.Equal(i, auditEvent.SequenceNumber)
		assert.Equal(auditEvents[0].MessageId, auditEvent.MessageId)
	}

	results := mustQuery(t, s, projection.AuditEventCriteria{MessageId: auditEvents[0].MessageId})
	assert.Len(results, 3)
	assert.Equal("SIGNAL_RECEIVED", results[2].(projection.AuditEvent).EventType)

	results = mustQuery(t, s, projection.AuditEventCriteria{EventTypes: []string{"PROCESS_CREATED", "PROCESS_STARTED"}})
	assert.Len(results, 2)

	t.Run("find by ID", func(t *testing.T) {
		// when
		v, err := s.FindById(context.Background(), projection.KindAuditEvent, auditEvents[1].Id)

		// then
		assert.Nil(err)
		assert.Equal("PROCESS_STARTED", v.(projection.AuditEvent).EventType)
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
		assert.Equal(3, n)
	})
}
