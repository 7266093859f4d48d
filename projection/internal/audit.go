package internal

import (
	"encoding/json"
	"time"

	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type AuditEventEntity struct {
	Id string

	EventId        string
	EventType      string
	Timestamp      int64
	MessageId      string
	SequenceNumber int
	Entity         pgtype.Text // JSON
	EntityId       pgtype.Text

	ProcessDefinitionId      pgtype.Text
	ProcessDefinitionKey     pgtype.Text
	ProcessDefinitionVersion pgtype.Int4
	ProcessInstanceId        pgtype.Text
	ParentProcessInstanceId  pgtype.Text
	BusinessKey              pgtype.Text

	AppName         pgtype.Text
	AppVersion      pgtype.Text
	ServiceName     pgtype.Text
	ServiceFullName pgtype.Text
	ServiceType     pgtype.Text
	ServiceVersion  pgtype.Text

	CreatedAt time.Time
}

func (e AuditEventEntity) AuditEvent() projection.AuditEvent {
	var entity json.RawMessage
	if e.Entity.Valid {
		entity = json.RawMessage(e.Entity.String)
	}

	return projection.AuditEvent{
		Id: e.Id,

		EventId:        e.EventId,
		EventType:      e.EventType,
		Timestamp:      e.Timestamp,
		MessageId:      e.MessageId,
		SequenceNumber: e.SequenceNumber,
		Entity:         entity,
		EntityId:       e.EntityId.String,

		ProcessDefinitionId:      e.ProcessDefinitionId.String,
		ProcessDefinitionKey:     e.ProcessDefinitionKey.String,
		ProcessDefinitionVersion: e.ProcessDefinitionVersion.Int32,
		ProcessInstanceId:        e.ProcessInstanceId.String,
		ParentProcessInstanceId:  e.ParentProcessInstanceId.String,
		BusinessKey:              e.BusinessKey.String,

		AppName:         e.AppName.String,
		AppVersion:      e.AppVersion.String,
		ServiceName:     e.ServiceName.String,
		ServiceFullName: e.ServiceFullName.String,
		ServiceType:     e.ServiceType.String,
		ServiceVersion:  e.ServiceVersion.String,

		CreatedAt: e.CreatedAt,
	}
}

type AuditEventRepository interface {
	DeleteAll() error
	InsertBatch([]*AuditEventEntity) error
	// Purge deletes all audit events, created before a specific time, and returns the number of deleted audit events.
	Purge(before time.Time) (int, error)
	Select(id string) (*AuditEventEntity, error)

	Query(projection.AuditEventCriteria, projection.QueryOptions) ([]any, error)
}

// AppendAuditEvents records a batch of events verbatim.
//
// All audit events of a batch share a generated message ID and are numbered 0..n-1 in batch order.
// Events with an unrecognized type are recorded as well.
func AppendAuditEvents(ctx Context, events []projection.Event) ([]*AuditEventEntity, error) {
	if len(events) == 0 {
		return nil, nil
	}

	messageId := uuid.NewString()
	createdAt := ctx.Time()

	entities := make([]*AuditEventEntity, len(events))
	for i, event := range events {
		var entity pgtype.Text
		if len(event.Entity) != 0 {
			entity = pgtype.Text{String: string(event.Entity), Valid: true}
		}

		entities[i] = &AuditEventEntity{
			Id: ctx.Ids().Next(),

			EventId:        event.Id,
			EventType:      event.EventType,
			Timestamp:      event.Timestamp,
			MessageId:      messageId,
			SequenceNumber: i,
			Entity:         entity,
			EntityId:       text(event.EntityId),

			ProcessDefinitionId:      text(event.ProcessDefinitionId),
			ProcessDefinitionKey:     text(event.ProcessDefinitionKey),
			ProcessDefinitionVersion: int4(event.ProcessDefinitionVersion),
			ProcessInstanceId:        text(event.ProcessInstanceId),
			ParentProcessInstanceId:  text(event.ParentProcessInstanceId),
			BusinessKey:              text(event.BusinessKey),

			AppName:         text(event.AppName),
			AppVersion:      text(event.AppVersion),
			ServiceName:     text(event.ServiceName),
			ServiceFullName: text(event.ServiceFullName),
			ServiceType:     text(event.ServiceType),
			ServiceVersion:  text(event.ServiceVersion),

			CreatedAt: createdAt,
		}
	}

	if err := ctx.AuditEvents().InsertBatch(entities); err != nil {
		return nil, err
	}

	return entities, nil
}
