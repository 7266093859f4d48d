package internal

import (
	"fmt"
	"time"

	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type ProcessInstanceEntity struct {
	Id string

	ParentId pgtype.Text

	ProcessDefinitionId      pgtype.Text
	ProcessDefinitionKey     pgtype.Text
	ProcessDefinitionName    pgtype.Text
	ProcessDefinitionVersion pgtype.Int4

	BusinessKey   pgtype.Text
	CompletedDate pgtype.Timestamp
	Initiator     pgtype.Text
	LastModified  time.Time
	Name          pgtype.Text
	StartDate     pgtype.Timestamp
	Status        projection.ProcessInstanceStatus
	SuspendedDate pgtype.Timestamp

	AppName        pgtype.Text
	AppVersion     pgtype.Text
	ServiceName    pgtype.Text
	ServiceVersion pgtype.Text
}

func (e ProcessInstanceEntity) ProcessInstance() projection.ProcessInstance {
	return projection.ProcessInstance{
		Id: e.Id,

		ParentId: e.ParentId.String,

		ProcessDefinitionId:      e.ProcessDefinitionId.String,
		ProcessDefinitionKey:     e.ProcessDefinitionKey.String,
		ProcessDefinitionName:    e.ProcessDefinitionName.String,
		ProcessDefinitionVersion: e.ProcessDefinitionVersion.Int32,

		BusinessKey:   e.BusinessKey.String,
		CompletedDate: timeOrNil(e.CompletedDate),
		Initiator:     e.Initiator.String,
		LastModified:  e.LastModified,
		Name:          e.Name.String,
		StartDate:     timeOrNil(e.StartDate),
		Status:        e.Status,
		SuspendedDate: timeOrNil(e.SuspendedDate),

		AppName:        e.AppName.String,
		AppVersion:     e.AppVersion.String,
		ServiceName:    e.ServiceName.String,
		ServiceVersion: e.ServiceVersion.String,
	}
}

type ProcessInstanceRepository interface {
	DeleteAll() error
	Insert(*ProcessInstanceEntity) error
	Select(id string) (*ProcessInstanceEntity, error)
	Update(*ProcessInstanceEntity) error

	Query(projection.ProcessInstanceCriteria, projection.QueryOptions) ([]any, error)
}

// CreateProcessInstance creates a process instance in status CREATED.
// If the process instance exists already, nothing happens.
func CreateProcessInstance(ctx Context, event projection.Event) error {
	var payload projection.ProcessInstancePayload
	if err := decodeEntity(event, &payload); err != nil {
		return err
	}

	_, err := ctx.ProcessInstances().Select(payload.Id)
	if err == nil {
		return nil
	}
	if err != pgx.ErrNoRows {
		return err
	}

	entity := ProcessInstanceEntity{
		Id: payload.Id,

		ParentId: text(firstNonEmpty(payload.ParentId, event.ParentProcessInstanceId)),

		ProcessDefinitionId:      text(firstNonEmpty(payload.ProcessDefinitionId, event.ProcessDefinitionId)),
		ProcessDefinitionKey:     text(firstNonEmpty(payload.ProcessDefinitionKey, event.ProcessDefinitionKey)),
		ProcessDefinitionName:    text(payload.ProcessDefinitionName),
		ProcessDefinitionVersion: int4(payload.ProcessDefinitionVersion),

		BusinessKey:  text(firstNonEmpty(payload.BusinessKey, event.BusinessKey)),
		Initiator:    text(payload.Initiator),
		LastModified: eventTime(ctx, event),
		Name:         text(payload.Name),
		Status:       projection.ProcessInstanceCreated,

		AppName:        text(event.AppName),
		AppVersion:     text(event.AppVersion),
		ServiceName:    text(event.ServiceName),
		ServiceVersion: text(event.ServiceVersion),
	}

	if !entity.ProcessDefinitionVersion.Valid {
		entity.ProcessDefinitionVersion = int4(event.ProcessDefinitionVersion)
	}

	if entity.ProcessDefinitionId.Valid && !entity.ProcessDefinitionName.Valid {
		definition, err := ctx.DefinitionCache().GetOrCache(ctx, entity.ProcessDefinitionId.String)
		if err != nil && err != pgx.ErrNoRows {
			return err
		}
		if definition != nil {
			entity.ProcessDefinitionName = definition.Name
			if !entity.ProcessDefinitionKey.Valid {
				entity.ProcessDefinitionKey = pgtype.Text{String: definition.Key, Valid: true}
			}
			if !entity.ProcessDefinitionVersion.Valid {
				entity.ProcessDefinitionVersion = int4(definition.Version)
			}
		}
	}

	return ctx.ProcessInstances().Insert(&entity)
}

// StartProcessInstance sets status RUNNING and the start date, unless the process instance is running already.
func StartProcessInstance(ctx Context, event projection.Event) error {
	return changeProcessInstanceStatus(ctx, event, "failed to start process instance", projection.ProcessInstanceRunning, func(entity *ProcessInstanceEntity, t time.Time) {
		if !entity.StartDate.Valid {
			entity.StartDate = timestamp(t)
		}
	})
}

func SuspendProcessInstance(ctx Context, event projection.Event) error {
	return changeProcessInstanceStatus(ctx, event, "failed to suspend process instance", projection.ProcessInstanceSuspended, func(entity *ProcessInstanceEntity, t time.Time) {
		entity.SuspendedDate = timestamp(t)
	})
}

func ResumeProcessInstance(ctx Context, event projection.Event) error {
	return changeProcessInstanceStatus(ctx, event, "failed to resume process instance", projection.ProcessInstanceRunning, nil)
}

func CompleteProcessInstance(ctx Context, event projection.Event) error {
	return changeProcessInstanceStatus(ctx, event, "failed to complete process instance", projection.ProcessInstanceCompleted, func(entity *ProcessInstanceEntity, t time.Time) {
		entity.CompletedDate = timestamp(t)
	})
}

func CancelProcessInstance(ctx Context, event projection.Event) error {
	return changeProcessInstanceStatus(ctx, event, "failed to cancel process instance", projection.ProcessInstanceCancelled, func(entity *ProcessInstanceEntity, t time.Time) {
		entity.CompletedDate = timestamp(t)
	})
}

// UpdateProcessInstance overwrites the mutable fields of a process instance. The status is not changed.
// Fields, which are absent in the payload, are kept.
func UpdateProcessInstance(ctx Context, event projection.Event) error {
	entity, payload, err := selectProcessInstance(ctx, event, "failed to update process instance")
	if err != nil {
		return err
	}

	entity.LastModified = eventTime(ctx, event)

	if businessKey := firstNonEmpty(payload.BusinessKey, event.BusinessKey); businessKey != "" {
		entity.BusinessKey = text(businessKey)
	}
	if payload.Name != "" {
		entity.Name = text(payload.Name)
	}

	return ctx.ProcessInstances().Update(entity)
}

func changeProcessInstanceStatus(
	ctx Context,
	event projection.Event,
	title string,
	status projection.ProcessInstanceStatus,
	onChange func(*ProcessInstanceEntity, time.Time),
) error {
	entity, _, err := selectProcessInstance(ctx, event, title)
	if err != nil {
		return err
	}

	if entity.Status == status {
		return nil
	}
	if entity.Status.IsTerminal() {
		return projection.Error{
			Type:   projection.ErrorConflict,
			Title:  title,
			Detail: fmt.Sprintf("process instance %s is %s", entity.Id, entity.Status),
		}
	}

	t := eventTime(ctx, event)

	entity.LastModified = t
	entity.Status = status

	if onChange != nil {
		onChange(entity, t)
	}

	return ctx.ProcessInstances().Update(entity)
}

func selectProcessInstance(ctx Context, event projection.Event, title string) (*ProcessInstanceEntity, projection.ProcessInstancePayload, error) {
	var payload projection.ProcessInstancePayload
	if err := decodeEntity(event, &payload); err != nil {
		return nil, payload, err
	}

	entity, err := ctx.ProcessInstances().Select(payload.Id)
	if err == pgx.ErrNoRows {
		return nil, payload, notFound(title, "process instance %s could not be found", payload.Id)
	}
	if err != nil {
		return nil, payload, err
	}

	return entity, payload, nil
}
