package internal

import (
	"encoding/json"

	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type IntegrationContextEntity struct {
	Id string

	ClientId          string
	ExecutionId       string
	ProcessInstanceId pgtype.Text

	ProcessDefinitionId      pgtype.Text
	ProcessDefinitionKey     pgtype.Text
	ProcessDefinitionVersion pgtype.Int4
	BusinessKey              pgtype.Text

	ClientName         pgtype.Text
	ClientType         pgtype.Text
	ConnectorType      pgtype.Text
	ErrorClassName     pgtype.Text
	ErrorCode          pgtype.Text
	ErrorDate          pgtype.Timestamp
	ErrorMessage       pgtype.Text
	InBoundVariables   pgtype.Text // JSON
	OutBoundVariables  pgtype.Text // JSON
	RequestDate        pgtype.Timestamp
	ResultDate         pgtype.Timestamp
	StackTraceElements pgtype.Text // JSON
	Status             projection.IntegrationContextStatus
}

func (e IntegrationContextEntity) IntegrationContext() projection.IntegrationContext {
	var stackTraceElements []projection.StackTraceElement
	if e.StackTraceElements.Valid {
		_ = json.Unmarshal([]byte(e.StackTraceElements.String), &stackTraceElements)
	}

	return projection.IntegrationContext{
		Id: e.Id,

		ClientId:          e.ClientId,
		ExecutionId:       e.ExecutionId,
		ProcessInstanceId: e.ProcessInstanceId.String,

		ProcessDefinitionId:      e.ProcessDefinitionId.String,
		ProcessDefinitionKey:     e.ProcessDefinitionKey.String,
		ProcessDefinitionVersion: e.ProcessDefinitionVersion.Int32,
		BusinessKey:              e.BusinessKey.String,

		ClientName:         e.ClientName.String,
		ClientType:         e.ClientType.String,
		ConnectorType:      e.ConnectorType.String,
		ErrorClassName:     e.ErrorClassName.String,
		ErrorCode:          e.ErrorCode.String,
		ErrorDate:          timeOrNil(e.ErrorDate),
		ErrorMessage:       e.ErrorMessage.String,
		InBoundVariables:   decodeJSONMap(e.InBoundVariables),
		OutBoundVariables:  decodeJSONMap(e.OutBoundVariables),
		RequestDate:        timeOrNil(e.RequestDate),
		ResultDate:         timeOrNil(e.ResultDate),
		StackTraceElements: stackTraceElements,
		Status:             e.Status,
	}
}

type IntegrationContextRepository interface {
	DeleteAll() error
	Insert(*IntegrationContextEntity) error
	Select(id string) (*IntegrationContextEntity, error)
	SelectByExecution(executionId string, clientId string) (*IntegrationContextEntity, error)
	Update(*IntegrationContextEntity) error

	Query(projection.IntegrationContextCriteria, projection.QueryOptions) ([]any, error)
}

// RequestIntegration creates or overwrites the integration context of an execution and a connector client.
func RequestIntegration(ctx Context, event projection.Event) error {
	var payload projection.IntegrationContextPayload
	if err := decodeEntity(event, &payload); err != nil {
		return err
	}

	entity, err := ctx.IntegrationContexts().SelectByExecution(payload.ExecutionId, payload.ClientId)
	if err != nil && err != pgx.ErrNoRows {
		return err
	}

	isNew := entity == nil
	if isNew {
		entity = &IntegrationContextEntity{
			Id: firstNonEmpty(payload.Id, ctx.Ids().Next()),

			ClientId:    payload.ClientId,
			ExecutionId: payload.ExecutionId,
		}
	}

	entity.ProcessInstanceId = text(firstNonEmpty(payload.ProcessInstanceId, event.ProcessInstanceId))

	entity.ProcessDefinitionId = text(firstNonEmpty(payload.ProcessDefinitionId, event.ProcessDefinitionId))
	entity.ProcessDefinitionKey = text(event.ProcessDefinitionKey)
	entity.ProcessDefinitionVersion = int4(event.ProcessDefinitionVersion)
	entity.BusinessKey = text(firstNonEmpty(payload.BusinessKey, event.BusinessKey))

	entity.ClientName = text(payload.ClientName)
	entity.ClientType = text(payload.ClientType)
	entity.ConnectorType = text(payload.ConnectorType)
	entity.ErrorClassName = pgtype.Text{}
	entity.ErrorCode = pgtype.Text{}
	entity.ErrorDate = pgtype.Timestamp{}
	entity.ErrorMessage = pgtype.Text{}
	entity.InBoundVariables = encodeJSON(payload.InBoundVariables)
	entity.OutBoundVariables = pgtype.Text{}
	entity.RequestDate = timestamp(eventTime(ctx, event))
	entity.ResultDate = pgtype.Timestamp{}
	entity.StackTraceElements = pgtype.Text{}
	entity.Status = projection.IntegrationRequested

	if payload.InBoundVariables == nil {
		entity.InBoundVariables = pgtype.Text{}
	}

	if isNew {
		return ctx.IntegrationContexts().Insert(entity)
	}
	return ctx.IntegrationContexts().Update(entity)
}

// ReceiveIntegrationResult records the outbound variables of a requested integration.
func ReceiveIntegrationResult(ctx Context, event projection.Event) error {
	entity, payload, err := selectIntegrationContext(ctx, event, "failed to receive integration result")
	if err != nil {
		return err
	}

	entity.OutBoundVariables = encodeJSON(payload.OutBoundVariables)
	entity.ResultDate = timestamp(eventTime(ctx, event))
	entity.Status = projection.IntegrationResultReceived

	if payload.OutBoundVariables == nil {
		entity.OutBoundVariables = pgtype.Text{}
	}

	return ctx.IntegrationContexts().Update(entity)
}

// ReceiveIntegrationError records the error details of a requested integration verbatim.
func ReceiveIntegrationError(ctx Context, event projection.Event) error {
	entity, payload, err := selectIntegrationContext(ctx, event, "failed to receive integration error")
	if err != nil {
		return err
	}

	entity.ErrorClassName = text(payload.ErrorClassName)
	entity.ErrorCode = text(payload.ErrorCode)
	entity.ErrorDate = timestamp(eventTime(ctx, event))
	entity.ErrorMessage = text(payload.ErrorMessage)
	entity.Status = projection.IntegrationErrorReceived

	if len(payload.StackTraceElements) != 0 {
		entity.StackTraceElements = encodeJSON(payload.StackTraceElements)
	} else {
		entity.StackTraceElements = pgtype.Text{}
	}

	return ctx.IntegrationContexts().Update(entity)
}

func selectIntegrationContext(ctx Context, event projection.Event, title string) (*IntegrationContextEntity, projection.IntegrationContextPayload, error) {
	var payload projection.IntegrationContextPayload
	if err := decodeEntity(event, &payload); err != nil {
		return nil, payload, err
	}

	entity, err := ctx.IntegrationContexts().SelectByExecution(payload.ExecutionId, payload.ClientId)
	if err == pgx.ErrNoRows {
		return nil, payload, notFound(title, "integration context %s/%s could not be found", payload.ExecutionId, payload.ClientId)
	}
	if err != nil {
		return nil, payload, err
	}

	return entity, payload, nil
}
