package internal

import (
	"fmt"
	"time"

	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type TaskEntity struct {
	Id string

	ParentTaskId      pgtype.Text
	ProcessInstanceId pgtype.Text

	ProcessDefinitionId      pgtype.Text
	ProcessDefinitionVersion pgtype.Int4

	Assignee          pgtype.Text
	BusinessKey       pgtype.Text
	ClaimedDate       pgtype.Timestamp
	CompletedBy       pgtype.Text
	CompletedDate     pgtype.Timestamp
	CreatedDate       time.Time
	Description       pgtype.Text
	DueDate           pgtype.Timestamp
	FormKey           pgtype.Text
	LastModified      time.Time
	Name              pgtype.Text
	Owner             pgtype.Text
	Priority          int
	Status            projection.TaskStatus
	TaskDefinitionKey pgtype.Text

	AppName        pgtype.Text
	AppVersion     pgtype.Text
	ServiceName    pgtype.Text
	ServiceVersion pgtype.Text
}

func (e TaskEntity) Task() projection.Task {
	var duration *int64
	if e.CompletedDate.Valid {
		d := e.CompletedDate.Time.Sub(e.CreatedDate).Milliseconds()
		duration = &d
	}

	return projection.Task{
		Id: e.Id,

		ParentTaskId:      e.ParentTaskId.String,
		ProcessInstanceId: e.ProcessInstanceId.String,

		ProcessDefinitionId:      e.ProcessDefinitionId.String,
		ProcessDefinitionVersion: e.ProcessDefinitionVersion.Int32,

		Assignee:          e.Assignee.String,
		BusinessKey:       e.BusinessKey.String,
		ClaimedDate:       timeOrNil(e.ClaimedDate),
		CompletedBy:       e.CompletedBy.String,
		CompletedDate:     timeOrNil(e.CompletedDate),
		CreatedDate:       e.CreatedDate,
		Description:       e.Description.String,
		DueDate:           timeOrNil(e.DueDate),
		Duration:          duration,
		FormKey:           e.FormKey.String,
		LastModified:      e.LastModified,
		Name:              e.Name.String,
		Owner:             e.Owner.String,
		Priority:          e.Priority,
		Status:            e.Status,
		TaskDefinitionKey: e.TaskDefinitionKey.String,

		AppName:        e.AppName.String,
		AppVersion:     e.AppVersion.String,
		ServiceName:    e.ServiceName.String,
		ServiceVersion: e.ServiceVersion.String,
	}
}

type TaskRepository interface {
	DeleteAll() error
	Insert(*TaskEntity) error
	Select(id string) (*TaskEntity, error)
	Update(*TaskEntity) error

	Query(projection.TaskCriteria, projection.QueryOptions) ([]any, error)
}

// CreateTask creates a task in status CREATED or ASSIGNED, if the task has an assignee.
// If the task exists already, nothing happens.
func CreateTask(ctx Context, event projection.Event) error {
	var payload projection.TaskPayload
	if err := decodeEntity(event, &payload); err != nil {
		return err
	}

	_, err := ctx.Tasks().Select(payload.Id)
	if err == nil {
		return nil
	}
	if err != pgx.ErrNoRows {
		return err
	}

	t := eventTime(ctx, event)

	entity := TaskEntity{
		Id: payload.Id,

		ParentTaskId:      text(payload.ParentTaskId),
		ProcessInstanceId: text(firstNonEmpty(payload.ProcessInstanceId, event.ProcessInstanceId)),

		ProcessDefinitionId:      text(firstNonEmpty(payload.ProcessDefinitionId, event.ProcessDefinitionId)),
		ProcessDefinitionVersion: int4(payload.ProcessDefinitionVersion),

		Assignee:          text(payload.Assignee),
		BusinessKey:       text(firstNonEmpty(payload.BusinessKey, event.BusinessKey)),
		CreatedDate:       t,
		Description:       text(payload.Description),
		DueDate:           timestampOrNil(payload.DueDate),
		FormKey:           text(payload.FormKey),
		LastModified:      t,
		Name:              text(payload.Name),
		Owner:             text(payload.Owner),
		Priority:          payload.Priority,
		Status:            projection.TaskCreated,
		TaskDefinitionKey: text(payload.TaskDefinitionKey),

		AppName:        text(event.AppName),
		AppVersion:     text(event.AppVersion),
		ServiceName:    text(event.ServiceName),
		ServiceVersion: text(event.ServiceVersion),
	}

	if !entity.ProcessDefinitionVersion.Valid {
		entity.ProcessDefinitionVersion = int4(event.ProcessDefinitionVersion)
	}

	if entity.Assignee.Valid {
		entity.ClaimedDate = timestamp(t)
		entity.Status = projection.TaskAssigned
	}

	return ctx.Tasks().Insert(&entity)
}

// AssignTask sets the assignee of a task. An empty assignee releases the task.
func AssignTask(ctx Context, event projection.Event) error {
	title := "failed to assign task"

	entity, payload, err := selectTask(ctx, event, title)
	if err != nil {
		return err
	}

	if entity.Status.IsTerminal() {
		return taskConflict(title, entity)
	}

	t := eventTime(ctx, event)

	if payload.Assignee == "" {
		entity.Assignee = pgtype.Text{}
		entity.ClaimedDate = pgtype.Timestamp{}
		if entity.Status == projection.TaskAssigned {
			entity.Status = projection.TaskCreated
		}
	} else {
		entity.Assignee = text(payload.Assignee)
		entity.ClaimedDate = timestamp(t)
		if entity.Status == projection.TaskCreated {
			entity.Status = projection.TaskAssigned
		}
	}

	entity.LastModified = t

	return ctx.Tasks().Update(entity)
}

func SuspendTask(ctx Context, event projection.Event) error {
	return changeTaskStatus(ctx, event, "failed to suspend task", projection.TaskSuspended, nil)
}

// ActivateTask restores status ASSIGNED or CREATED of a suspended task, depending on its assignee.
func ActivateTask(ctx Context, event projection.Event) error {
	title := "failed to activate task"

	entity, _, err := selectTask(ctx, event, title)
	if err != nil {
		return err
	}

	if entity.Status.IsTerminal() {
		return taskConflict(title, entity)
	}
	if entity.Status != projection.TaskSuspended {
		return nil
	}

	if entity.Assignee.Valid {
		entity.Status = projection.TaskAssigned
	} else {
		entity.Status = projection.TaskCreated
	}

	entity.LastModified = eventTime(ctx, event)

	return ctx.Tasks().Update(entity)
}

// UpdateTask overwrites the mutable fields of a task. The status is not changed.
func UpdateTask(ctx Context, event projection.Event) error {
	entity, payload, err := selectTask(ctx, event, "failed to update task")
	if err != nil {
		return err
	}

	entity.Description = text(payload.Description)
	entity.DueDate = timestampOrNil(payload.DueDate)
	entity.FormKey = text(payload.FormKey)
	entity.LastModified = eventTime(ctx, event)
	entity.Name = text(payload.Name)
	entity.Owner = text(payload.Owner)
	entity.Priority = payload.Priority

	if payload.ParentTaskId != "" {
		entity.ParentTaskId = text(payload.ParentTaskId)
	}

	return ctx.Tasks().Update(entity)
}

// CompleteTask sets status COMPLETED, the completion date and the completing user.
func CompleteTask(ctx Context, event projection.Event) error {
	return changeTaskStatus(ctx, event, "failed to complete task", projection.TaskCompleted, func(entity *TaskEntity, payload projection.TaskPayload, t time.Time) {
		entity.CompletedDate = timestamp(t)
		entity.CompletedBy = text(firstNonEmpty(payload.CompletedBy, payload.Assignee, entity.Assignee.String))
	})
}

func CancelTask(ctx Context, event projection.Event) error {
	return changeTaskStatus(ctx, event, "failed to cancel task", projection.TaskCancelled, nil)
}

func changeTaskStatus(
	ctx Context,
	event projection.Event,
	title string,
	status projection.TaskStatus,
	onChange func(*TaskEntity, projection.TaskPayload, time.Time),
) error {
	entity, payload, err := selectTask(ctx, event, title)
	if err != nil {
		return err
	}

	if entity.Status == status {
		return nil
	}
	if entity.Status.IsTerminal() {
		return taskConflict(title, entity)
	}

	t := eventTime(ctx, event)

	entity.LastModified = t
	entity.Status = status

	if onChange != nil {
		onChange(entity, payload, t)
	}

	return ctx.Tasks().Update(entity)
}

func selectTask(ctx Context, event projection.Event, title string) (*TaskEntity, projection.TaskPayload, error) {
	var payload projection.TaskPayload
	if err := decodeEntity(event, &payload); err != nil {
		return nil, payload, err
	}

	entity, err := ctx.Tasks().Select(payload.Id)
	if err == pgx.ErrNoRows {
		return nil, payload, notFound(title, "task %s could not be found", payload.Id)
	}
	if err != nil {
		return nil, payload, err
	}

	return entity, payload, nil
}

func taskConflict(title string, entity *TaskEntity) error {
	return projection.Error{
		Type:   projection.ErrorConflict,
		Title:  title,
		Detail: fmt.Sprintf("task %s is %s", entity.Id, entity.Status),
	}
}
