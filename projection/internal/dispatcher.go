package internal

import (
	"fmt"

	"github.com/gclaussn/go-bpmn-query/projection"
)

// A Handler applies a single event to the projection.
type Handler func(Context, projection.Event) error

// Registration binds a handler to an event type.
type Registration struct {
	EventType projection.EventType
	Handler   Handler
}

// NewDispatcher creates a dispatcher from a set of registrations.
// An event type must not be registered more than once.
func NewDispatcher(registrations ...Registration) (*Dispatcher, error) {
	handlers := make(map[projection.EventType]Handler, len(registrations))
	for _, registration := range registrations {
		if registration.EventType == 0 || registration.Handler == nil {
			return nil, projection.Error{
				Type:   projection.ErrorConfiguration,
				Title:  "failed to create dispatcher",
				Detail: "registration must specify an event type and a handler",
			}
		}
		if _, ok := handlers[registration.EventType]; ok {
			return nil, projection.Error{
				Type:   projection.ErrorConfiguration,
				Title:  "failed to create dispatcher",
				Detail: fmt.Sprintf("event type %s is registered more than once", registration.EventType),
			}
		}
		handlers[registration.EventType] = registration.Handler
	}

	return &Dispatcher{handlers: handlers}, nil
}

// MustDefaultDispatcher creates a dispatcher, which handles all event types.
func MustDefaultDispatcher() *Dispatcher {
	dispatcher, err := NewDispatcher(DefaultRegistrations()...)
	if err != nil {
		panic(err)
	}
	return dispatcher
}

// Dispatcher routes events to the handler, registered for the event's type.
// A dispatcher is immutable and safe for concurrent use.
type Dispatcher struct {
	handlers map[projection.EventType]Handler
}

// Dispatch applies an event, using the handler of the event's type.
// If no handler is registered, false and no error is returned.
func (d *Dispatcher) Dispatch(ctx Context, event projection.Event) (bool, error) {
	handler, ok := d.handlers[event.Type()]
	if !ok {
		return false, nil
	}
	return true, handler(ctx, event)
}

func (d *Dispatcher) Handles(eventType projection.EventType) bool {
	_, ok := d.handlers[eventType]
	return ok
}

func DefaultRegistrations() []Registration {
	return []Registration{
		{projection.EventProcessCreated, CreateProcessInstance},
		{projection.EventProcessStarted, StartProcessInstance},
		{projection.EventProcessSuspended, SuspendProcessInstance},
		{projection.EventProcessResumed, ResumeProcessInstance},
		{projection.EventProcessCompleted, CompleteProcessInstance},
		{projection.EventProcessCancelled, CancelProcessInstance},
		{projection.EventProcessUpdated, UpdateProcessInstance},

		{projection.EventTaskCreated, CreateTask},
		{projection.EventTaskAssigned, AssignTask},
		{projection.EventTaskSuspended, SuspendTask},
		{projection.EventTaskActivated, ActivateTask},
		{projection.EventTaskUpdated, UpdateTask},
		{projection.EventTaskCompleted, CompleteTask},
		{projection.EventTaskCancelled, CancelTask},

		{projection.EventVariableCreated, CreateVariable},
		{projection.EventVariableUpdated, UpdateVariable},
		{projection.EventVariableDeleted, DeleteVariable},

		{projection.EventActivityStarted, StartBPMNActivity},
		{projection.EventActivityCompleted, CompleteBPMNActivity},
		{projection.EventActivityCancelled, CancelBPMNActivity},
		{projection.EventSequenceFlowTaken, TakeSequenceFlow},

		{projection.EventTaskCandidateUserAdded, AddTaskCandidateUser},
		{projection.EventTaskCandidateUserRemoved, RemoveTaskCandidateUser},
		{projection.EventTaskCandidateGroupAdded, AddTaskCandidateGroup},
		{projection.EventTaskCandidateGroupRemoved, RemoveTaskCandidateGroup},
		{projection.EventProcessCandidateStarterUserAdded, AddProcessCandidateStarterUser},
		{projection.EventProcessCandidateStarterUserRemoved, RemoveProcessCandidateStarterUser},
		{projection.EventProcessCandidateStarterGroupAdded, AddProcessCandidateStarterGroup},
		{projection.EventProcessCandidateStarterGroupRemoved, RemoveProcessCandidateStarterGroup},

		{projection.EventIntegrationRequested, RequestIntegration},
		{projection.EventIntegrationResultReceived, ReceiveIntegrationResult},
		{projection.EventIntegrationErrorReceived, ReceiveIntegrationError},

		{projection.EventProcessDeployed, DeployProcessDefinition},
		{projection.EventApplicationDeployed, DeployApplication},
	}
}
