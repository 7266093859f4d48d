package internal

import (
	"time"

	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type VariableEntity struct {
	Id string

	ProcessInstanceId pgtype.Text
	TaskId            pgtype.Text

	CreatedAt       time.Time
	LastUpdatedTime time.Time
	MarkedAsDeleted bool
	Name            string
	Type            pgtype.Text
	Value           pgtype.Text // JSON

	AppName     pgtype.Text
	ServiceName pgtype.Text
}

func (e VariableEntity) Variable() projection.Variable {
	return projection.Variable{
		Id: e.Id,

		ProcessInstanceId: e.ProcessInstanceId.String,
		TaskId:            e.TaskId.String,

		CreatedAt:       e.CreatedAt,
		LastUpdatedTime: e.LastUpdatedTime,
		MarkedAsDeleted: e.MarkedAsDeleted,
		Name:            e.Name,
		Type:            e.Type.String,
		Value:           decodeJSON(e.Value),

		AppName:     e.AppName.String,
		ServiceName: e.ServiceName.String,
	}
}

// ScopeId returns the ID of the process instance or task, the variable belongs to.
func (e VariableEntity) ScopeId() string {
	if e.TaskId.Valid {
		return e.TaskId.String
	}
	return e.ProcessInstanceId.String
}

// VariableQuery is the store level representation of process and task variable criteria.
type VariableQuery struct {
	ProcessInstanceId string
	TaskId            string

	IncludeDeleted bool
	Name           string
}

// A VariableRepository manages the variables of a single scope, either process or task.
//
// Variables are identified by scope ID and name. Since deleted variables are kept, the same scope ID and name can
// identify multiple records. At most one of them is not marked as deleted.
type VariableRepository interface {
	DeleteAll() error
	Insert(*VariableEntity) error
	Select(id string) (*VariableEntity, error)
	// SelectLatest selects the most recently created variable of a scope, regardless if it is marked as deleted.
	SelectLatest(scopeId string, name string) (*VariableEntity, error)
	Update(*VariableEntity) error

	Query(VariableQuery, projection.QueryOptions) ([]any, error)
}

// CreateVariable creates a variable, unless a variable with the same name exists within the scope.
// If the variable has been deleted, a new record is created.
func CreateVariable(ctx Context, event projection.Event) error {
	payload, repository, scopeId, err := decodeVariable(ctx, event)
	if err != nil {
		return err
	}

	latest, err := repository.SelectLatest(scopeId, payload.Name)
	if err != nil && err != pgx.ErrNoRows {
		return err
	}
	if latest != nil && !latest.MarkedAsDeleted {
		return nil
	}

	t := eventTime(ctx, event)

	entity := VariableEntity{
		Id: ctx.Ids().Next(),

		ProcessInstanceId: text(firstNonEmpty(payload.ProcessInstanceId, event.ProcessInstanceId)),
		TaskId:            text(payload.TaskId),

		CreatedAt:       t,
		LastUpdatedTime: t,
		Name:            payload.Name,
		Type:            text(payload.Type),
		Value:           rawJSON(payload.Value),

		AppName:     text(event.AppName),
		ServiceName: text(event.ServiceName),
	}

	return repository.Insert(&entity)
}

// UpdateVariable overwrites type and value of an existing variable.
// Variables of completed tasks can be updated as well.
func UpdateVariable(ctx Context, event projection.Event) error {
	payload, repository, scopeId, err := decodeVariable(ctx, event)
	if err != nil {
		return err
	}

	entity, err := repository.SelectLatest(scopeId, payload.Name)
	if err != nil && err != pgx.ErrNoRows {
		return err
	}
	if entity == nil || entity.MarkedAsDeleted {
		return notFound("failed to update variable", "variable %s of %s could not be found", payload.Name, scopeId)
	}

	entity.LastUpdatedTime = eventTime(ctx, event)
	entity.Type = text(payload.Type)
	entity.Value = rawJSON(payload.Value)

	return repository.Update(entity)
}

// DeleteVariable marks a variable as deleted. The record itself is kept.
// Deleting a variable, which has been deleted already, has no effect.
func DeleteVariable(ctx Context, event projection.Event) error {
	payload, repository, scopeId, err := decodeVariable(ctx, event)
	if err != nil {
		return err
	}

	entity, err := repository.SelectLatest(scopeId, payload.Name)
	if err == pgx.ErrNoRows {
		return notFound("failed to delete variable", "variable %s of %s could not be found", payload.Name, scopeId)
	}
	if err != nil {
		return err
	}

	if entity.MarkedAsDeleted {
		return nil
	}

	entity.LastUpdatedTime = eventTime(ctx, event)
	entity.MarkedAsDeleted = true

	return repository.Update(entity)
}

// decodeVariable decodes the payload of a variable event and determines the variable's scope.
func decodeVariable(ctx Context, event projection.Event) (projection.VariablePayload, VariableRepository, string, error) {
	var payload projection.VariablePayload
	if err := decodeEntity(event, &payload); err != nil {
		return payload, nil, "", err
	}

	if payload.IsTaskVariable() {
		return payload, ctx.TaskVariables(), payload.TaskId, nil
	}

	processInstanceId := firstNonEmpty(payload.ProcessInstanceId, event.ProcessInstanceId)
	if processInstanceId == "" {
		return payload, nil, "", projection.Error{
			Type:   projection.ErrorValidation,
			Title:  "failed to decode variable",
			Detail: "variable " + payload.Name + " has neither a task nor a process instance ID",
		}
	}

	return payload, ctx.ProcessVariables(), processInstanceId, nil
}

func rawJSON(v []byte) pgtype.Text {
	if len(v) == 0 {
		return pgtype.Text{}
	}
	return pgtype.Text{String: string(v), Valid: true}
}
