package projection

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ApplicationCriteria specifies the results, returned by an application query.
type ApplicationCriteria struct {
	DeploymentId string `json:"deploymentId,omitempty"`
	Name         string `json:"name,omitempty"`
}

// AuditEventCriteria specifies the results, returned by an audit event query.
type AuditEventCriteria struct {
	EntityId          string     `json:"entityId,omitempty"`
	EventId           string     `json:"eventId,omitempty"`
	EventTypes        []string   `json:"eventTypes,omitempty"`
	MessageId         string     `json:"messageId,omitempty"`
	ProcessInstanceId string     `json:"processInstanceId,omitempty"`
	TimestampFrom     *time.Time `json:"timestampFrom,omitempty"` // Inclusive lower bound of the producer timestamp.
	TimestampTo       *time.Time `json:"timestampTo,omitempty"`   // Exclusive upper bound of the producer timestamp.
}

// BPMNActivityCriteria specifies the results, returned by a BPMN activity query.
type BPMNActivityCriteria struct {
	ElementId         string               `json:"elementId,omitempty"`
	ExecutionId       string               `json:"executionId,omitempty"`
	ProcessInstanceId string               `json:"processInstanceId,omitempty"`
	Status            []BPMNActivityStatus `json:"status,omitempty"`
}

// BPMNSequenceFlowCriteria specifies the results, returned by a BPMN sequence flow query.
type BPMNSequenceFlowCriteria struct {
	ElementId         string `json:"elementId,omitempty"`
	ProcessInstanceId string `json:"processInstanceId,omitempty"`
}

// CandidateGroupCriteria specifies the results, returned by a candidate group query.
type CandidateGroupCriteria struct {
	GroupId             string `json:"groupId,omitempty"`
	ProcessDefinitionId string `json:"processDefinitionId,omitempty"`
	TaskId              string `json:"taskId,omitempty"`
}

// CandidateUserCriteria specifies the results, returned by a candidate user query.
type CandidateUserCriteria struct {
	ProcessDefinitionId string `json:"processDefinitionId,omitempty"`
	TaskId              string `json:"taskId,omitempty"`
	UserId              string `json:"userId,omitempty"`
}

// IntegrationContextCriteria specifies the results, returned by an integration context query.
type IntegrationContextCriteria struct {
	ClientId          string                     `json:"clientId,omitempty"`
	ExecutionId       string                     `json:"executionId,omitempty"`
	ProcessInstanceId string                     `json:"processInstanceId,omitempty"`
	Status            []IntegrationContextStatus `json:"status,omitempty"`
}

// ProcessDefinitionCriteria specifies the results, returned by a process definition query.
type ProcessDefinitionCriteria struct {
	Id      string `json:"id,omitempty"`
	Key     string `json:"key,omitempty"`
	Name    string `json:"name,omitempty"`
	Version int32  `json:"version,omitempty"`
}

// ProcessInstanceCriteria specifies the results, returned by a process instance query.
type ProcessInstanceCriteria struct {
	Id string `json:"id,omitempty"`

	ParentId string `json:"parentId,omitempty"`

	ProcessDefinitionId      string `json:"processDefinitionId,omitempty"`
	ProcessDefinitionKey     string `json:"processDefinitionKey,omitempty"`
	ProcessDefinitionVersion int32  `json:"processDefinitionVersion,omitempty"`

	BusinessKey string                  `json:"businessKey,omitempty"`
	Initiator   string                  `json:"initiator,omitempty"`
	Name        string                  `json:"name,omitempty"`
	StartedFrom *time.Time              `json:"startedFrom,omitempty"`
	StartedTo   *time.Time              `json:"startedTo,omitempty"`
	Status      []ProcessInstanceStatus `json:"status,omitempty"`
}

// ProcessModelCriteria specifies the results, returned by a process model query.
type ProcessModelCriteria struct {
	ProcessDefinitionId string `json:"processDefinitionId,omitempty"`
}

// ProcessVariableCriteria specifies the results, returned by a process variable query.
type ProcessVariableCriteria struct {
	ProcessInstanceId string `json:"processInstanceId,omitempty"`

	IncludeDeleted bool   `json:"includeDeleted,omitempty"` // Determines if tombstones are returned.
	Name           string `json:"name,omitempty"`
}

// TaskCriteria specifies the results, returned by a task query.
type TaskCriteria struct {
	Id string `json:"id,omitempty"`

	ParentTaskId      string `json:"parentTaskId,omitempty"`
	ProcessInstanceId string `json:"processInstanceId,omitempty"`

	ProcessDefinitionId      string `json:"processDefinitionId,omitempty"`
	ProcessDefinitionVersion int32  `json:"processDefinitionVersion,omitempty"`

	Assignee          string       `json:"assignee,omitempty"`
	CandidateGroupId  string       `json:"candidateGroupId,omitempty"` // Includes only tasks, the group is candidate for.
	CandidateUserId   string       `json:"candidateUserId,omitempty"`  // Includes only tasks, the user is candidate for.
	CreatedFrom       *time.Time   `json:"createdFrom,omitempty"`      // Inclusive lower bound of the creation date.
	CreatedTo         *time.Time   `json:"createdTo,omitempty"`        // Exclusive upper bound of the creation date.
	Name              string       `json:"name,omitempty"`
	RootTasksOnly     bool         `json:"rootTasksOnly,omitempty"` // Excludes subtasks.
	Standalone        bool         `json:"standalone,omitempty"`    // Includes only tasks without process instance.
	Status            []TaskStatus `json:"status,omitempty"`
	TaskDefinitionKey string       `json:"taskDefinitionKey,omitempty"`
}

// TaskVariableCriteria specifies the results, returned by a task variable query.
type TaskVariableCriteria struct {
	ProcessInstanceId string `json:"processInstanceId,omitempty"`
	TaskId            string `json:"taskId,omitempty"`

	IncludeDeleted bool   `json:"includeDeleted,omitempty"` // Determines if tombstones are returned.
	Name           string `json:"name,omitempty"`
}

// NewCriteria translates a filter map into the criteria of a specific kind.
//
// Time filters accept RFC 3339 or milliseconds since epoch. Status filters accept a comma separated list.
// An unknown filter or an invalid filter value results in an error of type [ErrorQuery].
func NewCriteria(kind Kind, filters map[string]string) (any, error) {
	p := filterParser{kind: kind, filters: filters, used: make(map[string]bool, len(filters))}

	var criteria any
	switch kind {
	case KindApplication:
		criteria = ApplicationCriteria{
			DeploymentId: p.string("deploymentId"),
			Name:         p.string("name"),
		}
	case KindAuditEvent:
		criteria = AuditEventCriteria{
			EntityId:          p.string("entityId"),
			EventId:           p.string("eventId"),
			EventTypes:        p.strings("eventType"),
			MessageId:         p.string("messageId"),
			ProcessInstanceId: p.string("processInstanceId"),
			TimestampFrom:     p.time("createdFrom"),
			TimestampTo:       p.time("createdTo"),
		}
	case KindBPMNActivity:
		c := BPMNActivityCriteria{
			ElementId:         p.string("elementId"),
			ExecutionId:       p.string("executionId"),
			ProcessInstanceId: p.string("processInstanceId"),
		}
		for _, s := range p.strings("status") {
			if status := MapBPMNActivityStatus(s); status != 0 {
				c.Status = append(c.Status, status)
			} else {
				p.invalid("status", s)
			}
		}
		criteria = c
	case KindBPMNSequenceFlow:
		criteria = BPMNSequenceFlowCriteria{
			ElementId:         p.string("elementId"),
			ProcessInstanceId: p.string("processInstanceId"),
		}
	case KindCandidateGroup:
		criteria = CandidateGroupCriteria{
			GroupId:             p.string("groupId"),
			ProcessDefinitionId: p.string("processDefinitionId"),
			TaskId:              p.string("taskId"),
		}
	case KindCandidateUser:
		criteria = CandidateUserCriteria{
			ProcessDefinitionId: p.string("processDefinitionId"),
			TaskId:              p.string("taskId"),
			UserId:              p.string("userId"),
		}
	case KindIntegrationContext:
		c := IntegrationContextCriteria{
			ClientId:          p.string("clientId"),
			ExecutionId:       p.string("executionId"),
			ProcessInstanceId: p.string("processInstanceId"),
		}
		for _, s := range p.strings("status") {
			if status := MapIntegrationContextStatus(s); status != 0 {
				c.Status = append(c.Status, status)
			} else {
				p.invalid("status", s)
			}
		}
		criteria = c
	case KindProcessDefinition:
		criteria = ProcessDefinitionCriteria{
			Id:      p.string("id"),
			Key:     p.string("key"),
			Name:    p.string("name"),
			Version: p.int32("version"),
		}
	case KindProcessInstance:
		c := ProcessInstanceCriteria{
			Id:                       p.string("id"),
			ParentId:                 p.string("parentId"),
			ProcessDefinitionId:      p.string("processDefinitionId"),
			ProcessDefinitionKey:     p.string("processDefinitionKey"),
			ProcessDefinitionVersion: p.int32("processDefinitionVersion"),
			BusinessKey:              p.string("businessKey"),
			Initiator:                p.string("initiator"),
			Name:                     p.string("name"),
			StartedFrom:              p.time("createdFrom"),
			StartedTo:                p.time("createdTo"),
		}
		for _, s := range p.strings("status") {
			if status := MapProcessInstanceStatus(s); status != 0 {
				c.Status = append(c.Status, status)
			} else {
				p.invalid("status", s)
			}
		}
		criteria = c
	case KindProcessModel:
		criteria = ProcessModelCriteria{
			ProcessDefinitionId: p.string("processDefinitionId"),
		}
	case KindProcessVariable:
		criteria = ProcessVariableCriteria{
			ProcessInstanceId: p.string("processInstanceId"),
			IncludeDeleted:    p.bool("includeDeleted"),
			Name:              p.string("name"),
		}
	case KindTask:
		c := TaskCriteria{
			Id:                       p.string("id"),
			ParentTaskId:             p.string("parentTaskId"),
			ProcessInstanceId:        p.string("processInstanceId"),
			ProcessDefinitionId:      p.string("processDefinitionId"),
			ProcessDefinitionVersion: p.int32("processDefinitionVersion"),
			Assignee:                 p.string("assignee"),
			CandidateGroupId:         p.string("candidateGroupId"),
			CandidateUserId:          p.string("candidateUserId"),
			CreatedFrom:              p.time("createdFrom"),
			CreatedTo:                p.time("createdTo"),
			Name:                     p.string("name"),
			RootTasksOnly:            p.bool("rootTasksOnly"),
			Standalone:               p.bool("standalone"),
			TaskDefinitionKey:        p.string("taskDefinitionKey"),
		}
		for _, s := range p.strings("status") {
			if status := MapTaskStatus(s); status != 0 {
				c.Status = append(c.Status, status)
			} else {
				p.invalid("status", s)
			}
		}
		criteria = c
	case KindTaskVariable:
		criteria = TaskVariableCriteria{
			ProcessInstanceId: p.string("processInstanceId"),
			TaskId:            p.string("taskId"),
			IncludeDeleted:    p.bool("includeDeleted"),
			Name:              p.string("name"),
		}
	default:
		return nil, Error{
			Type:   ErrorQuery,
			Title:  "failed to create criteria",
			Detail: fmt.Sprintf("kind %d is not supported", kind),
		}
	}

	if err := p.err(); err != nil {
		return nil, err
	}
	return criteria, nil
}

type filterParser struct {
	kind    Kind
	filters map[string]string
	used    map[string]bool
	causes  []ErrorCause
}

func (p *filterParser) bool(key string) bool {
	s := p.string(key)
	if s == "" {
		return false
	}

	b, err := strconv.ParseBool(s)
	if err != nil {
		p.invalid(key, s)
	}
	return b
}

func (p *filterParser) err() error {
	unknown := make([]string, 0)
	for key := range p.filters {
		if !p.used[key] {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)

	for _, key := range unknown {
		p.causes = append(p.causes, ErrorCause{
			Pointer: key,
			Type:    "filter",
			Detail:  fmt.Sprintf("filter is not supported by kind %s", p.kind),
		})
	}

	if len(p.causes) == 0 {
		return nil
	}

	return Error{
		Type:   ErrorQuery,
		Title:  "failed to create criteria",
		Detail: fmt.Sprintf("%s filters are invalid", p.kind),
		Causes: p.causes,
	}
}

func (p *filterParser) int32(key string) int32 {
	s := p.string(key)
	if s == "" {
		return 0
	}

	i, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		p.invalid(key, s)
	}
	return int32(i)
}

func (p *filterParser) invalid(key string, value string) {
	p.causes = append(p.causes, ErrorCause{
		Pointer: key,
		Type:    "filter",
		Detail:  fmt.Sprintf("value %q is invalid", value),
	})
}

func (p *filterParser) string(key string) string {
	p.used[key] = true
	return strings.TrimSpace(p.filters[key])
}

func (p *filterParser) strings(key string) []string {
	s := p.string(key)
	if s == "" {
		return nil
	}

	values := strings.Split(s, ",")
	for i := range values {
		values[i] = strings.TrimSpace(values[i])
	}
	return values
}

func (p *filterParser) time(key string) *time.Time {
	s := p.string(key)
	if s == "" {
		return nil
	}

	if millis, err := strconv.ParseInt(s, 10, 64); err == nil {
		t := time.UnixMilli(millis).UTC()
		return &t
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		p.invalid(key, s)
		return nil
	}

	t = t.UTC()
	return &t
}
