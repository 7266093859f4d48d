package projection

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind describes the different kinds of projected entities.
type Kind int

const (
	KindApplication Kind = iota + 1
	KindAuditEvent
	KindBPMNActivity
	KindBPMNSequenceFlow
	KindCandidateGroup
	KindCandidateUser
	KindIntegrationContext
	KindProcessDefinition
	KindProcessInstance
	KindProcessModel
	KindProcessVariable
	KindTask
	KindTaskVariable
)

func MapKind(s string) Kind {
	switch s {
	case "application":
		return KindApplication
	case "audit-event":
		return KindAuditEvent
	case "bpmn-activity":
		return KindBPMNActivity
	case "bpmn-sequence-flow":
		return KindBPMNSequenceFlow
	case "candidate-group":
		return KindCandidateGroup
	case "candidate-user":
		return KindCandidateUser
	case "integration-context":
		return KindIntegrationContext
	case "process-definition":
		return KindProcessDefinition
	case "process-instance":
		return KindProcessInstance
	case "process-model":
		return KindProcessModel
	case "process-variable":
		return KindProcessVariable
	case "task":
		return KindTask
	case "task-variable":
		return KindTaskVariable
	default:
		return 0
	}
}

// Kinds returns all kinds of projected entities.
func Kinds() []Kind {
	return []Kind{
		KindApplication,
		KindAuditEvent,
		KindBPMNActivity,
		KindBPMNSequenceFlow,
		KindCandidateGroup,
		KindCandidateUser,
		KindIntegrationContext,
		KindProcessDefinition,
		KindProcessInstance,
		KindProcessModel,
		KindProcessVariable,
		KindTask,
		KindTaskVariable,
	}
}

func (v Kind) MarshalJSON() ([]byte, error) {
	s := v.String()
	if s == "" {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf("%q", s)), nil
}

func (v Kind) String() string {
	switch v {
	case KindApplication:
		return "application"
	case KindAuditEvent:
		return "audit-event"
	case KindBPMNActivity:
		return "bpmn-activity"
	case KindBPMNSequenceFlow:
		return "bpmn-sequence-flow"
	case KindCandidateGroup:
		return "candidate-group"
	case KindCandidateUser:
		return "candidate-user"
	case KindIntegrationContext:
		return "integration-context"
	case KindProcessDefinition:
		return "process-definition"
	case KindProcessInstance:
		return "process-instance"
	case KindProcessModel:
		return "process-model"
	case KindProcessVariable:
		return "process-variable"
	case KindTask:
		return "task"
	case KindTaskVariable:
		return "task-variable"
	default:
		return ""
	}
}

func (v *Kind) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) > 2 {
		s = s[1 : len(s)-1]
		*v = MapKind(s)
	}
	if *v == 0 {
		return fmt.Errorf("invalid kind data %s", s)
	}
	return nil
}

// ProcessInstanceStatus describes the possible states of a projected process instance.
type ProcessInstanceStatus int

const (
	ProcessInstanceCancelled ProcessInstanceStatus = iota + 1
	ProcessInstanceCompleted
	ProcessInstanceCreated
	ProcessInstanceRunning
	ProcessInstanceSuspended
)

func MapProcessInstanceStatus(s string) ProcessInstanceStatus {
	switch s {
	case "CANCELLED":
		return ProcessInstanceCancelled
	case "COMPLETED":
		return ProcessInstanceCompleted
	case "CREATED":
		return ProcessInstanceCreated
	case "RUNNING":
		return ProcessInstanceRunning
	case "SUSPENDED":
		return ProcessInstanceSuspended
	default:
		return 0
	}
}

// IsTerminal determines if no further status transition is possible.
func (v ProcessInstanceStatus) IsTerminal() bool {
	return v == ProcessInstanceCancelled || v == ProcessInstanceCompleted
}

func (v ProcessInstanceStatus) MarshalJSON() ([]byte, error) {
	s := v.String()
	if s == "" {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf("%q", s)), nil
}

func (v ProcessInstanceStatus) String() string {
	switch v {
	case ProcessInstanceCancelled:
		return "CANCELLED"
	case ProcessInstanceCompleted:
		return "COMPLETED"
	case ProcessInstanceCreated:
		return "CREATED"
	case ProcessInstanceRunning:
		return "RUNNING"
	case ProcessInstanceSuspended:
		return "SUSPENDED"
	default:
		return ""
	}
}

func (v *ProcessInstanceStatus) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) > 2 {
		s = s[1 : len(s)-1]
		*v = MapProcessInstanceStatus(s)
	}
	if *v == 0 {
		return fmt.Errorf("invalid process instance status data %s", s)
	}
	return nil
}

// TaskStatus describes the possible states of a projected task.
type TaskStatus int

const (
	TaskAssigned TaskStatus = iota + 1
	TaskCancelled
	TaskCompleted
	TaskCreated
	TaskSuspended
)

func MapTaskStatus(s string) TaskStatus {
	switch s {
	case "ASSIGNED":
		return TaskAssigned
	case "CANCELLED":
		return TaskCancelled
	case "COMPLETED":
		return TaskCompleted
	case "CREATED":
		return TaskCreated
	case "SUSPENDED":
		return TaskSuspended
	default:
		return 0
	}
}

// IsTerminal determines if no further status transition is possible.
func (v TaskStatus) IsTerminal() bool {
	return v == TaskCancelled || v == TaskCompleted
}

func (v TaskStatus) MarshalJSON() ([]byte, error) {
	s := v.String()
	if s == "" {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf("%q", s)), nil
}

func (v TaskStatus) String() string {
	switch v {
	case TaskAssigned:
		return "ASSIGNED"
	case TaskCancelled:
		return "CANCELLED"
	case TaskCompleted:
		return "COMPLETED"
	case TaskCreated:
		return "CREATED"
	case TaskSuspended:
		return "SUSPENDED"
	default:
		return ""
	}
}

func (v *TaskStatus) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) > 2 {
		s = s[1 : len(s)-1]
		*v = MapTaskStatus(s)
	}
	if *v == 0 {
		return fmt.Errorf("invalid task status data %s", s)
	}
	return nil
}

// BPMNActivityStatus describes the possible states of an activity occurrence.
type BPMNActivityStatus int

const (
	BPMNActivityCancelled BPMNActivityStatus = iota + 1
	BPMNActivityCompleted
	BPMNActivityStarted
)

func MapBPMNActivityStatus(s string) BPMNActivityStatus {
	switch s {
	case "CANCELLED":
		return BPMNActivityCancelled
	case "COMPLETED":
		return BPMNActivityCompleted
	case "STARTED":
		return BPMNActivityStarted
	default:
		return 0
	}
}

func (v BPMNActivityStatus) MarshalJSON() ([]byte, error) {
	s := v.String()
	if s == "" {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf("%q", s)), nil
}

func (v BPMNActivityStatus) String() string {
	switch v {
	case BPMNActivityCancelled:
		return "CANCELLED"
	case BPMNActivityCompleted:
		return "COMPLETED"
	case BPMNActivityStarted:
		return "STARTED"
	default:
		return ""
	}
}

func (v *BPMNActivityStatus) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) > 2 {
		s = s[1 : len(s)-1]
		*v = MapBPMNActivityStatus(s)
	}
	if *v == 0 {
		return fmt.Errorf("invalid BPMN activity status data %s", s)
	}
	return nil
}

// IntegrationContextStatus describes the possible states of a connector invocation.
type IntegrationContextStatus int

const (
	IntegrationErrorReceived IntegrationContextStatus = iota + 1
	IntegrationRequested
	IntegrationResultReceived
)

func MapIntegrationContextStatus(s string) IntegrationContextStatus {
	switch s {
	case "INTEGRATION_ERROR_RECEIVED":
		return IntegrationErrorReceived
	case "INTEGRATION_REQUESTED":
		return IntegrationRequested
	case "INTEGRATION_RESULT_RECEIVED":
		return IntegrationResultReceived
	default:
		return 0
	}
}

func (v IntegrationContextStatus) MarshalJSON() ([]byte, error) {
	s := v.String()
	if s == "" {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf("%q", s)), nil
}

func (v IntegrationContextStatus) String() string {
	switch v {
	case IntegrationErrorReceived:
		return "INTEGRATION_ERROR_RECEIVED"
	case IntegrationRequested:
		return "INTEGRATION_REQUESTED"
	case IntegrationResultReceived:
		return "INTEGRATION_RESULT_RECEIVED"
	default:
		return ""
	}
}

func (v *IntegrationContextStatus) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) > 2 {
		s = s[1 : len(s)-1]
		*v = MapIntegrationContextStatus(s)
	}
	if *v == 0 {
		return fmt.Errorf("invalid integration context status data %s", s)
	}
	return nil
}

// Application is a deployed application, identified by its deployment.
type Application struct {
	DeploymentId string `json:"deploymentId" validate:"required"` // Deployment ID.

	Name    string `json:"name,omitempty"`    // Application name.
	Version string `json:"version,omitempty"` // Application version.
}

// AuditEvent is an immutable record of a consumed event.
type AuditEvent struct {
	Id string `json:"id" validate:"required"` // Audit event ID.

	EventId        string          `json:"eventId" validate:"required"`   // ID of the recorded event.
	EventType      string          `json:"eventType" validate:"required"` // Verbatim event type tag.
	Timestamp      int64           `json:"timestamp"`                     // Producer timestamp in milliseconds since epoch.
	MessageId      string          `json:"messageId" validate:"required"` // ID, shared by all events of a batch.
	SequenceNumber int             `json:"sequenceNumber"`                // Position within the batch.
	Entity         json.RawMessage `json:"entity,omitempty"`              // Full, verbatim payload.
	EntityId       string          `json:"entityId,omitempty"`

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

	CreatedAt time.Time `json:"createdAt"` // Time, the event has been appended.
}

func (v AuditEvent) String() string {
	return fmt.Sprintf("%s/%d", v.MessageId, v.SequenceNumber)
}

// BPMNActivity is a single occurrence of a BPMN activity within a process instance.
// Activities, executed in a loop, have one occurrence per iteration.
type BPMNActivity struct {
	Id string `json:"id" validate:"required"` // Occurrence ID.

	ElementId         string `json:"elementId" validate:"required"` // ID of the BPMN element.
	ExecutionId       string `json:"executionId,omitempty"`
	ProcessInstanceId string `json:"processInstanceId" validate:"required"`

	ProcessDefinitionId      string `json:"processDefinitionId,omitempty"`
	ProcessDefinitionKey     string `json:"processDefinitionKey,omitempty"`
	ProcessDefinitionVersion int32  `json:"processDefinitionVersion,omitempty"`
	BusinessKey              string `json:"businessKey,omitempty"`

	ActivityName  string             `json:"activityName,omitempty"`
	ActivityType  string             `json:"activityType,omitempty"`
	CancelledDate *time.Time         `json:"cancelledDate,omitempty"`
	CompletedDate *time.Time         `json:"completedDate,omitempty"`
	StartedDate   time.Time          `json:"startedDate"`
	Status        BPMNActivityStatus `json:"status" validate:"required"`
}

func (v BPMNActivity) String() string {
	return fmt.Sprintf("%s/%s/%s", v.ProcessInstanceId, v.ElementId, v.Id)
}

// BPMNSequenceFlow records a taken sequence flow. Each taking is recorded.
type BPMNSequenceFlow struct {
	Id string `json:"id" validate:"required"`

	ElementId         string `json:"elementId" validate:"required"` // ID of the BPMN sequence flow.
	ProcessInstanceId string `json:"processInstanceId" validate:"required"`

	ProcessDefinitionId      string `json:"processDefinitionId,omitempty"`
	ProcessDefinitionKey     string `json:"processDefinitionKey,omitempty"`
	ProcessDefinitionVersion int32  `json:"processDefinitionVersion,omitempty"`
	BusinessKey              string `json:"businessKey,omitempty"`

	SourceActivityElementId string    `json:"sourceActivityElementId,omitempty"`
	SourceActivityName      string    `json:"sourceActivityName,omitempty"`
	SourceActivityType      string    `json:"sourceActivityType,omitempty"`
	TargetActivityElementId string    `json:"targetActivityElementId,omitempty"`
	TargetActivityName      string    `json:"targetActivityName,omitempty"`
	TargetActivityType      string    `json:"targetActivityType,omitempty"`
	Date                    time.Time `json:"date"`
}

// CandidateGroup is a group, that may claim a task or start a process definition.
type CandidateGroup struct {
	TaskId              string `json:"taskId,omitempty"`              // Set for task candidates.
	ProcessDefinitionId string `json:"processDefinitionId,omitempty"` // Set for process candidate starters.
	GroupId             string `json:"groupId" validate:"required"`
}

// CandidateUser is a user, that may claim a task or start a process definition.
type CandidateUser struct {
	TaskId              string `json:"taskId,omitempty"`              // Set for task candidates.
	ProcessDefinitionId string `json:"processDefinitionId,omitempty"` // Set for process candidate starters.
	UserId              string `json:"userId" validate:"required"`
}

// IntegrationContext tracks a connector invocation, made on behalf of a service task.
type IntegrationContext struct {
	Id string `json:"id" validate:"required"`

	ClientId          string `json:"clientId" validate:"required"`
	ExecutionId       string `json:"executionId" validate:"required"`
	ProcessInstanceId string `json:"processInstanceId,omitempty"`

	ProcessDefinitionId      string `json:"processDefinitionId,omitempty"`
	ProcessDefinitionKey     string `json:"processDefinitionKey,omitempty"`
	ProcessDefinitionVersion int32  `json:"processDefinitionVersion,omitempty"`
	BusinessKey              string `json:"businessKey,omitempty"`

	ClientName         string                   `json:"clientName,omitempty"`
	ClientType         string                   `json:"clientType,omitempty"`
	ConnectorType      string                   `json:"connectorType,omitempty"`
	ErrorClassName     string                   `json:"errorClassName,omitempty"`
	ErrorCode          string                   `json:"errorCode,omitempty"`
	ErrorDate          *time.Time               `json:"errorDate,omitempty"`
	ErrorMessage       string                   `json:"errorMessage,omitempty"`
	InBoundVariables   map[string]any           `json:"inBoundVariables,omitempty"`
	OutBoundVariables  map[string]any           `json:"outBoundVariables,omitempty"`
	RequestDate        *time.Time               `json:"requestDate,omitempty"`
	ResultDate         *time.Time               `json:"resultDate,omitempty"`
	StackTraceElements []StackTraceElement      `json:"stackTraceElements,omitempty"`
	Status             IntegrationContextStatus `json:"status" validate:"required"`
}

func (v IntegrationContext) String() string {
	return fmt.Sprintf("%s/%s", v.ExecutionId, v.ClientId)
}

// StackTraceElement is a single frame of a connector error.
type StackTraceElement struct {
	ClassName  string `json:"className,omitempty"`
	FileName   string `json:"fileName,omitempty"`
	LineNumber int    `json:"lineNumber,omitempty"`
	MethodName string `json:"methodName,omitempty"`
}

// ProcessDefinition is a deployed process definition.
// A redeployment with the same ID replaces the definition wholesale.
type ProcessDefinition struct {
	Id string `json:"id" validate:"required"` // Process definition ID.

	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
	FormKey     string `json:"formKey,omitempty"`
	Key         string `json:"key" validate:"required"` // BPMN process ID.
	Name        string `json:"name,omitempty"`
	Version     int32  `json:"version"`

	AppName        string `json:"appName,omitempty"`
	AppVersion     string `json:"appVersion,omitempty"`
	ServiceName    string `json:"serviceName,omitempty"`
	ServiceVersion string `json:"serviceVersion,omitempty"`
}

func (v ProcessDefinition) String() string {
	return fmt.Sprintf("%s:%d", v.Key, v.Version)
}

// ProcessInstance is the projection of a process instance.
type ProcessInstance struct {
	Id string `json:"id" validate:"required"` // Process instance ID.

	ParentId string `json:"parentId,omitempty"` // ID of the parent process instance.

	ProcessDefinitionId      string `json:"processDefinitionId,omitempty"`
	ProcessDefinitionKey     string `json:"processDefinitionKey,omitempty"`
	ProcessDefinitionName    string `json:"processDefinitionName,omitempty"`
	ProcessDefinitionVersion int32  `json:"processDefinitionVersion,omitempty"`

	BusinessKey   string                `json:"businessKey,omitempty"`
	CompletedDate *time.Time            `json:"completedDate,omitempty"`
	Initiator     string                `json:"initiator,omitempty"`
	LastModified  time.Time             `json:"lastModified"` // Timestamp of the last applied event.
	Name          string                `json:"name,omitempty"`
	StartDate     *time.Time            `json:"startDate,omitempty"`
	Status        ProcessInstanceStatus `json:"status" validate:"required"`
	SuspendedDate *time.Time            `json:"suspendedDate,omitempty"`

	AppName        string `json:"appName,omitempty"`
	AppVersion     string `json:"appVersion,omitempty"`
	ServiceName    string `json:"serviceName,omitempty"`
	ServiceVersion string `json:"serviceVersion,omitempty"`
}

func (v ProcessInstance) HasParent() bool {
	return v.ParentId != ""
}

func (v ProcessInstance) String() string {
	return v.Id
}

// ProcessModel is the content of a deployed process definition.
type ProcessModel struct {
	ProcessDefinitionId string `json:"processDefinitionId" validate:"required"`

	Content string `json:"content"` // BPMN XML.
}

// Task is the projection of a user task or a standalone task.
type Task struct {
	Id string `json:"id" validate:"required"` // Task ID.

	ParentTaskId      string `json:"parentTaskId,omitempty"`      // ID of the parent task, if the task is a subtask.
	ProcessInstanceId string `json:"processInstanceId,omitempty"` // Empty, if the task is standalone.

	ProcessDefinitionId      string `json:"processDefinitionId,omitempty"`
	ProcessDefinitionVersion int32  `json:"processDefinitionVersion,omitempty"`

	Assignee          string     `json:"assignee,omitempty"`
	BusinessKey       string     `json:"businessKey,omitempty"`
	ClaimedDate       *time.Time `json:"claimedDate,omitempty"`
	CompletedBy       string     `json:"completedBy,omitempty"`
	CompletedDate     *time.Time `json:"completedDate,omitempty"`
	CreatedDate       time.Time  `json:"createdDate"`
	Description       string     `json:"description,omitempty"`
	DueDate           *time.Time `json:"dueDate,omitempty"`
	Duration          *int64     `json:"duration,omitempty"` // Milliseconds between creation and completion.
	FormKey           string     `json:"formKey,omitempty"`
	LastModified      time.Time  `json:"lastModified"` // Timestamp of the last applied event.
	Name              string     `json:"name,omitempty"`
	Owner             string     `json:"owner,omitempty"`
	Priority          int        `json:"priority"`
	Status            TaskStatus `json:"status" validate:"required"`
	TaskDefinitionKey string     `json:"taskDefinitionKey,omitempty"`

	AppName        string `json:"appName,omitempty"`
	AppVersion     string `json:"appVersion,omitempty"`
	ServiceName    string `json:"serviceName,omitempty"`
	ServiceVersion string `json:"serviceVersion,omitempty"`
}

func (v Task) IsStandalone() bool {
	return v.ProcessInstanceId == ""
}

func (v Task) String() string {
	return v.Id
}

// Variable is a process or task scoped variable.
//
// A deleted variable is kept as tombstone. A variable, created with the same name after its deletion, is a new record.
type Variable struct {
	Id string `json:"id" validate:"required"` // Variable ID, unique per record.

	ProcessInstanceId string `json:"processInstanceId,omitempty"`
	TaskId            string `json:"taskId,omitempty"` // Set for task scoped variables.

	CreatedAt       time.Time `json:"createdAt"`
	LastUpdatedTime time.Time `json:"lastUpdatedTime"`
	MarkedAsDeleted bool      `json:"markedAsDeleted"`
	Name            string    `json:"name" validate:"required"`
	Type            string    `json:"type,omitempty"`  // Declared value type.
	Value           any       `json:"value,omitempty"` // Decoded JSON value.

	AppName     string `json:"appName,omitempty"`
	ServiceName string `json:"serviceName,omitempty"`
}

func (v Variable) IsTaskVariable() bool {
	return v.TaskId != ""
}

func (v Variable) String() string {
	if v.IsTaskVariable() {
		return fmt.Sprintf("task/%s/%s", v.TaskId, v.Name)
	}
	return fmt.Sprintf("process/%s/%s", v.ProcessInstanceId, v.Name)
}
