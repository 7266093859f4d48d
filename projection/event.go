package projection

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Event is the envelope of a process engine lifecycle event.
//
// The event type is kept verbatim, so that events of an unrecognized type can be recorded by the audit log.
type Event struct {
	Id        string          `json:"id" validate:"required"`         // Event ID, assigned by the producer.
	Timestamp int64           `json:"timestamp" validate:"gte=0"`     // Producer timestamp in milliseconds since epoch.
	EventType string          `json:"eventType" validate:"required"`  // Event type tag - see [EventType].
	Entity    json.RawMessage `json:"entity,omitempty"`               // Type specific payload.
	EntityId  string          `json:"entityId,omitempty"`             // ID of the entity, the event is about.

	ProcessDefinitionId      string `json:"processDefinitionId,omitempty"`
	ProcessDefinitionKey     string `json:"processDefinitionKey,omitempty"`
	ProcessDefinitionVersion int32  `json:"processDefinitionVersion,omitempty"`
	ProcessInstanceId        string `json:"processInstanceId,omitempty"`
	ParentProcessInstanceId  string `json:"parentProcessInstanceId,omitempty"`
	BusinessKey              string `json:"businessKey,omitempty"`

	AppName         string `json:"appName,omitempty"`
	AppVersion      string `json:"appVersion,omitempty"`
	ServiceName     string `json:"serviceName,omitempty"`
	ServiceFullName string `json:"serviceFullName,omitempty"`
	ServiceType     string `json:"serviceType,omitempty"`
	ServiceVersion  string `json:"serviceVersion,omitempty"`

	MessageId      string `json:"messageId,omitempty"`      // Assigned by the audit log, shared by all events of a batch.
	SequenceNumber int    `json:"sequenceNumber,omitempty"` // Assigned by the audit log, position within the batch.
}

// NewEvent creates an event of a specific type with a random ID and the current time as timestamp.
func NewEvent(eventType EventType, entity any) (Event, error) {
	if eventType == 0 {
		return Event{}, errors.New("event type is zero")
	}

	b, err := json.Marshal(entity)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal %s entity: %v", eventType, err)
	}

	return Event{
		Id:        uuid.NewString(),
		Timestamp: time.Now().UnixMilli(),
		EventType: eventType.String(),
		Entity:    b,
	}, nil
}

// AggregateId returns the ID, events must be serialized by - see [Event.AggregateIds].
// If an event references no aggregate, an empty string is returned.
func (v Event) AggregateId() string {
	ids := v.AggregateIds()
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}

// AggregateIds returns the IDs of all aggregates, an event affects: the process instance ID, followed by the IDs of the payload
// (process instance, task, entity, execution, process definition or deployment) and the entity ID.
// The event ID is never part of the result, since it differs for every event of an aggregate.
func (v Event) AggregateIds() []string {
	var payload aggregatePayload
	if len(v.Entity) != 0 {
		_ = json.Unmarshal(v.Entity, &payload)
	}

	ids := make([]string, 0, 4)
	for _, id := range []string{
		v.ProcessInstanceId,
		payload.ProcessInstanceId,
		payload.TaskId,
		payload.Id,
		payload.ExecutionId,
		payload.ProcessDefinitionId,
		payload.DeploymentId,
		v.EntityId,
	} {
		if id != "" && !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	return ids
}

// DecodeEntity decodes the event's payload into the given value.
func (v Event) DecodeEntity(target any) error {
	if len(v.Entity) == 0 {
		return Error{
			Type:   ErrorValidation,
			Title:  "failed to decode event entity",
			Detail: fmt.Sprintf("event %s has no entity", v),
		}
	}
	if err := json.Unmarshal(v.Entity, target); err != nil {
		return Error{
			Type:   ErrorValidation,
			Title:  "failed to decode event entity",
			Detail: fmt.Sprintf("event %s has an invalid entity: %v", v, err),
		}
	}
	return nil
}

func (v Event) String() string {
	return fmt.Sprintf("%s:%s", v.EventType, v.Id)
}

// Time returns the event's timestamp as UTC time.
func (v Event) Time() time.Time {
	return time.UnixMilli(v.Timestamp).UTC()
}

// Type maps the event's type tag. 0 is returned for an unrecognized tag.
func (v Event) Type() EventType {
	return MapEventType(v.EventType)
}

// EventType is the closed set of event types, a projector recognizes.
type EventType int

const (
	EventProcessCreated EventType = iota + 1
	EventProcessStarted
	EventProcessSuspended
	EventProcessResumed
	EventProcessCompleted
	EventProcessCancelled
	EventProcessUpdated

	EventTaskCreated
	EventTaskAssigned
	EventTaskSuspended
	EventTaskActivated
	EventTaskUpdated
	EventTaskCompleted
	EventTaskCancelled

	EventVariableCreated
	EventVariableUpdated
	EventVariableDeleted

	EventActivityStarted
	EventActivityCompleted
	EventActivityCancelled
	EventSequenceFlowTaken

	EventTaskCandidateUserAdded
	EventTaskCandidateUserRemoved
	EventTaskCandidateGroupAdded
	EventTaskCandidateGroupRemoved
	EventProcessCandidateStarterUserAdded
	EventProcessCandidateStarterUserRemoved
	EventProcessCandidateStarterGroupAdded
	EventProcessCandidateStarterGroupRemoved

	EventIntegrationRequested
	EventIntegrationResultReceived
	EventIntegrationErrorReceived

	EventProcessDeployed
	EventApplicationDeployed
)

var eventTypeTags = [...]string{
	EventProcessCreated:   "PROCESS_CREATED",
	EventProcessStarted:   "PROCESS_STARTED",
	EventProcessSuspended: "PROCESS_SUSPENDED",
	EventProcessResumed:   "PROCESS_RESUMED",
	EventProcessCompleted: "PROCESS_COMPLETED",
	EventProcessCancelled: "PROCESS_CANCELLED",
	EventProcessUpdated:   "PROCESS_UPDATED",

	EventTaskCreated:   "TASK_CREATED",
	EventTaskAssigned:  "TASK_ASSIGNED",
	EventTaskSuspended: "TASK_SUSPENDED",
	EventTaskActivated: "TASK_ACTIVATED",
	EventTaskUpdated:   "TASK_UPDATED",
	EventTaskCompleted: "TASK_COMPLETED",
	EventTaskCancelled: "TASK_CANCELLED",

	EventVariableCreated: "VARIABLE_CREATED",
	EventVariableUpdated: "VARIABLE_UPDATED",
	EventVariableDeleted: "VARIABLE_DELETED",

	EventActivityStarted:   "ACTIVITY_STARTED",
	EventActivityCompleted: "ACTIVITY_COMPLETED",
	EventActivityCancelled: "ACTIVITY_CANCELLED",
	EventSequenceFlowTaken: "SEQUENCE_FLOW_TAKEN",

	EventTaskCandidateUserAdded:              "TASK_CANDIDATE_USER_ADDED",
	EventTaskCandidateUserRemoved:            "TASK_CANDIDATE_USER_REMOVED",
	EventTaskCandidateGroupAdded:             "TASK_CANDIDATE_GROUP_ADDED",
	EventTaskCandidateGroupRemoved:           "TASK_CANDIDATE_GROUP_REMOVED",
	EventProcessCandidateStarterUserAdded:    "PROCESS_CANDIDATE_STARTER_USER_ADDED",
	EventProcessCandidateStarterUserRemoved:  "PROCESS_CANDIDATE_STARTER_USER_REMOVED",
	EventProcessCandidateStarterGroupAdded:   "PROCESS_CANDIDATE_STARTER_GROUP_ADDED",
	EventProcessCandidateStarterGroupRemoved: "PROCESS_CANDIDATE_STARTER_GROUP_REMOVED",

	EventIntegrationRequested:      "INTEGRATION_REQUESTED",
	EventIntegrationResultReceived: "INTEGRATION_RESULT_RECEIVED",
	EventIntegrationErrorReceived:  "INTEGRATION_ERROR_RECEIVED",

	EventProcessDeployed:     "PROCESS_DEPLOYED",
	EventApplicationDeployed: "APPLICATION_DEPLOYED",
}

var eventTypesByTag = func() map[string]EventType {
	m := make(map[string]EventType, len(eventTypeTags))
	for i, tag := range eventTypeTags {
		if tag != "" {
			m[tag] = EventType(i)
		}
	}
	return m
}()

// EventTypes returns all recognized event types.
func EventTypes() []EventType {
	eventTypes := make([]EventType, 0, len(eventTypeTags)-1)
	for i := 1; i < len(eventTypeTags); i++ {
		eventTypes = append(eventTypes, EventType(i))
	}
	return eventTypes
}

func MapEventType(s string) EventType {
	return eventTypesByTag[s]
}

func (v EventType) MarshalJSON() ([]byte, error) {
	s := v.String()
	if s == "" {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf("%q", s)), nil
}

func (v EventType) String() string {
	if v <= 0 || int(v) >= len(eventTypeTags) {
		return ""
	}
	return eventTypeTags[v]
}

func (v *EventType) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) > 2 {
		s = s[1 : len(s)-1]
		*v = MapEventType(s)
	}
	if *v == 0 {
		return fmt.Errorf("invalid event type data %s", s)
	}
	return nil
}

// ProcessInstancePayload is the entity of PROCESS_* events.
type ProcessInstancePayload struct {
	Id                       string `json:"id" validate:"required"`
	Name                     string `json:"name,omitempty"`
	BusinessKey              string `json:"businessKey,omitempty"`
	Initiator                string `json:"initiator,omitempty"`
	ParentId                 string `json:"parentId,omitempty"`
	ProcessDefinitionId      string `json:"processDefinitionId,omitempty"`
	ProcessDefinitionKey     string `json:"processDefinitionKey,omitempty"`
	ProcessDefinitionName    string `json:"processDefinitionName,omitempty"`
	ProcessDefinitionVersion int32  `json:"processDefinitionVersion,omitempty"`
}

// TaskPayload is the entity of TASK_* events, excluding candidate events.
type TaskPayload struct {
	Id                       string     `json:"id" validate:"required"`
	Name                     string     `json:"name,omitempty"`
	Description              string     `json:"description,omitempty"`
	Assignee                 string     `json:"assignee,omitempty"`
	Owner                    string     `json:"owner,omitempty"`
	Priority                 int        `json:"priority,omitempty"`
	FormKey                  string     `json:"formKey,omitempty"`
	DueDate                  *time.Time `json:"dueDate,omitempty"`
	ParentTaskId             string     `json:"parentTaskId,omitempty"`
	ProcessInstanceId        string     `json:"processInstanceId,omitempty"`
	ProcessDefinitionId      string     `json:"processDefinitionId,omitempty"`
	ProcessDefinitionVersion int32      `json:"processDefinitionVersion,omitempty"`
	BusinessKey              string     `json:"businessKey,omitempty"`
	TaskDefinitionKey        string     `json:"taskDefinitionKey,omitempty"`
	CompletedBy              string     `json:"completedBy,omitempty"`
}

// VariablePayload is the entity of VARIABLE_* events.
// A variable is task scoped, if a task ID is provided. Otherwise it is process scoped.
type VariablePayload struct {
	Name              string          `json:"name" validate:"required"`
	Type              string          `json:"type,omitempty"`
	Value             json.RawMessage `json:"value,omitempty"`
	ProcessInstanceId string          `json:"processInstanceId,omitempty"`
	TaskId            string          `json:"taskId,omitempty"`
}

func (v VariablePayload) IsTaskVariable() bool {
	return v.TaskId != ""
}

// BPMNActivityPayload is the entity of ACTIVITY_* events.
type BPMNActivityPayload struct {
	ElementId           string `json:"elementId" validate:"required"`
	ActivityName        string `json:"activityName,omitempty"`
	ActivityType        string `json:"activityType,omitempty"`
	ExecutionId         string `json:"executionId,omitempty"`
	ProcessInstanceId   string `json:"processInstanceId,omitempty"`
	ProcessDefinitionId string `json:"processDefinitionId,omitempty"`
}

// SequenceFlowPayload is the entity of SEQUENCE_FLOW_TAKEN events.
type SequenceFlowPayload struct {
	ElementId               string `json:"elementId" validate:"required"`
	SourceActivityElementId string `json:"sourceActivityElementId,omitempty"`
	SourceActivityName      string `json:"sourceActivityName,omitempty"`
	SourceActivityType      string `json:"sourceActivityType,omitempty"`
	TargetActivityElementId string `json:"targetActivityElementId,omitempty"`
	TargetActivityName      string `json:"targetActivityName,omitempty"`
	TargetActivityType      string `json:"targetActivityType,omitempty"`
	ProcessInstanceId       string `json:"processInstanceId,omitempty"`
	ProcessDefinitionId     string `json:"processDefinitionId,omitempty"`
}

// CandidatePayload is the entity of *_CANDIDATE_* events.
// Task candidates provide a task ID, candidate starters a process definition ID.
// User events provide a user ID, group events a group ID.
type CandidatePayload struct {
	TaskId              string `json:"taskId,omitempty"`
	ProcessDefinitionId string `json:"processDefinitionId,omitempty"`
	UserId              string `json:"userId,omitempty"`
	GroupId             string `json:"groupId,omitempty"`
}

// IntegrationContextPayload is the entity of INTEGRATION_* events.
type IntegrationContextPayload struct {
	Id                  string              `json:"id,omitempty"`
	ClientId            string              `json:"clientId" validate:"required"`
	ClientName          string              `json:"clientName,omitempty"`
	ClientType          string              `json:"clientType,omitempty"`
	ConnectorType       string              `json:"connectorType,omitempty"`
	ExecutionId         string              `json:"executionId" validate:"required"`
	ProcessInstanceId   string              `json:"processInstanceId,omitempty"`
	ProcessDefinitionId string              `json:"processDefinitionId,omitempty"`
	BusinessKey         string              `json:"businessKey,omitempty"`
	InBoundVariables    map[string]any      `json:"inBoundVariables,omitempty"`
	OutBoundVariables   map[string]any      `json:"outBoundVariables,omitempty"`
	ErrorCode           string              `json:"errorCode,omitempty"`
	ErrorMessage        string              `json:"errorMessage,omitempty"`
	ErrorClassName      string              `json:"errorClassName,omitempty"`
	StackTraceElements  []StackTraceElement `json:"stackTraceElements,omitempty"`
}

// ProcessDefinitionPayload is the entity of PROCESS_DEPLOYED events.
type ProcessDefinitionPayload struct {
	Id                  string `json:"id" validate:"required"`
	Key                 string `json:"key,omitempty"`
	Name                string `json:"name,omitempty"`
	Description         string `json:"description,omitempty"`
	Category            string `json:"category,omitempty"`
	FormKey             string `json:"formKey,omitempty"`
	Version             int32  `json:"version,omitempty"`
	ProcessModelContent string `json:"processModelContent,omitempty"` // BPMN XML of the deployed process.
}

// ApplicationPayload is the entity of APPLICATION_DEPLOYED events.
type ApplicationPayload struct {
	DeploymentId string `json:"deploymentId" validate:"required"`
	Name         string `json:"name,omitempty"`
	Version      string `json:"version,omitempty"`
}

// aggregatePayload holds the identifying fields of all payload types.
type aggregatePayload struct {
	Id                  string `json:"id"`
	DeploymentId        string `json:"deploymentId"`
	ExecutionId         string `json:"executionId"`
	ProcessDefinitionId string `json:"processDefinitionId"`
	ProcessInstanceId   string `json:"processInstanceId"`
	TaskId              string `json:"taskId"`
}
