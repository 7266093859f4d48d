package internal

import (
	"time"

	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type BPMNActivityEntity struct {
	Id string

	ElementId         string
	ExecutionId       pgtype.Text
	ProcessInstanceId string

	ProcessDefinitionId      pgtype.Text
	ProcessDefinitionKey     pgtype.Text
	ProcessDefinitionVersion pgtype.Int4
	BusinessKey              pgtype.Text

	ActivityName  pgtype.Text
	ActivityType  pgtype.Text
	CancelledDate pgtype.Timestamp
	CompletedDate pgtype.Timestamp
	StartedDate   time.Time
	Status        projection.BPMNActivityStatus
}

func (e BPMNActivityEntity) BPMNActivity() projection.BPMNActivity {
	return projection.BPMNActivity{
		Id: e.Id,

		ElementId:         e.ElementId,
		ExecutionId:       e.ExecutionId.String,
		ProcessInstanceId: e.ProcessInstanceId,

		ProcessDefinitionId:      e.ProcessDefinitionId.String,
		ProcessDefinitionKey:     e.ProcessDefinitionKey.String,
		ProcessDefinitionVersion: e.ProcessDefinitionVersion.Int32,
		BusinessKey:              e.BusinessKey.String,

		ActivityName:  e.ActivityName.String,
		ActivityType:  e.ActivityType.String,
		CancelledDate: timeOrNil(e.CancelledDate),
		CompletedDate: timeOrNil(e.CompletedDate),
		StartedDate:   e.StartedDate,
		Status:        e.Status,
	}
}

type BPMNActivityRepository interface {
	DeleteAll() error
	Insert(*BPMNActivityEntity) error
	Select(id string) (*BPMNActivityEntity, error)
	// SelectLatest selects the most recently started occurrence of a BPMN element within a process instance.
	SelectLatest(processInstanceId string, elementId string) (*BPMNActivityEntity, error)
	Update(*BPMNActivityEntity) error

	Query(projection.BPMNActivityCriteria, projection.QueryOptions) ([]any, error)
}

type BPMNSequenceFlowEntity struct {
	Id string

	ElementId         string
	ProcessInstanceId string

	ProcessDefinitionId      pgtype.Text
	ProcessDefinitionKey     pgtype.Text
	ProcessDefinitionVersion pgtype.Int4
	BusinessKey              pgtype.Text

	SourceActivityElementId pgtype.Text
	SourceActivityName      pgtype.Text
	SourceActivityType      pgtype.Text
	TargetActivityElementId pgtype.Text
	TargetActivityName      pgtype.Text
	TargetActivityType      pgtype.Text
	Date                    time.Time
}

func (e BPMNSequenceFlowEntity) BPMNSequenceFlow() projection.BPMNSequenceFlow {
	return projection.BPMNSequenceFlow{
		Id: e.Id,

		ElementId:         e.ElementId,
		ProcessInstanceId: e.ProcessInstanceId,

		ProcessDefinitionId:      e.ProcessDefinitionId.String,
		ProcessDefinitionKey:     e.ProcessDefinitionKey.String,
		ProcessDefinitionVersion: e.ProcessDefinitionVersion.Int32,
		BusinessKey:              e.BusinessKey.String,

		SourceActivityElementId: e.SourceActivityElementId.String,
		SourceActivityName:      e.SourceActivityName.String,
		SourceActivityType:      e.SourceActivityType.String,
		TargetActivityElementId: e.TargetActivityElementId.String,
		TargetActivityName:      e.TargetActivityName.String,
		TargetActivityType:      e.TargetActivityType.String,
		Date:                    e.Date,
	}
}

type BPMNSequenceFlowRepository interface {
	DeleteAll() error
	Insert(*BPMNSequenceFlowEntity) error
	Select(id string) (*BPMNSequenceFlowEntity, error)

	Query(projection.BPMNSequenceFlowCriteria, projection.QueryOptions) ([]any, error)
}

// StartBPMNActivity creates a new occurrence of a BPMN element in status STARTED.
//
// If the latest occurrence of the element is still STARTED, the event is a duplicate and ignored.
// Otherwise, for example when the element is part of a loop, a new occurrence is created.
func StartBPMNActivity(ctx Context, event projection.Event) error {
	payload, processInstanceId, err := decodeBPMNActivity(event, "failed to start BPMN activity")
	if err != nil {
		return err
	}

	latest, err := ctx.BPMNActivities().SelectLatest(processInstanceId, payload.ElementId)
	if err != nil && err != pgx.ErrNoRows {
		return err
	}
	if latest != nil && latest.Status == projection.BPMNActivityStarted {
		return nil
	}

	entity := BPMNActivityEntity{
		Id: ctx.Ids().Next(),

		ElementId:         payload.ElementId,
		ExecutionId:       text(payload.ExecutionId),
		ProcessInstanceId: processInstanceId,

		ProcessDefinitionId:      text(firstNonEmpty(payload.ProcessDefinitionId, event.ProcessDefinitionId)),
		ProcessDefinitionKey:     text(event.ProcessDefinitionKey),
		ProcessDefinitionVersion: int4(event.ProcessDefinitionVersion),
		BusinessKey:              text(event.BusinessKey),

		ActivityName: text(payload.ActivityName),
		ActivityType: text(payload.ActivityType),
		StartedDate:  eventTime(ctx, event),
		Status:       projection.BPMNActivityStarted,
	}

	return ctx.BPMNActivities().Insert(&entity)
}

// CompleteBPMNActivity completes the latest STARTED occurrence of a BPMN element.
func CompleteBPMNActivity(ctx Context, event projection.Event) error {
	return endBPMNActivity(ctx, event, "failed to complete BPMN activity", projection.BPMNActivityCompleted)
}

// CancelBPMNActivity cancels the latest STARTED occurrence of a BPMN element.
func CancelBPMNActivity(ctx Context, event projection.Event) error {
	return endBPMNActivity(ctx, event, "failed to cancel BPMN activity", projection.BPMNActivityCancelled)
}

// TakeSequenceFlow records a taken sequence flow. Every taking is appended.
func TakeSequenceFlow(ctx Context, event projection.Event) error {
	var payload projection.SequenceFlowPayload
	if err := decodeEntity(event, &payload); err != nil {
		return err
	}

	processInstanceId := firstNonEmpty(payload.ProcessInstanceId, event.ProcessInstanceId)
	if processInstanceId == "" {
		return projection.Error{
			Type:   projection.ErrorValidation,
			Title:  "failed to take sequence flow",
			Detail: "sequence flow " + payload.ElementId + " has no process instance ID",
		}
	}

	entity := BPMNSequenceFlowEntity{
		Id: ctx.Ids().Next(),

		ElementId:         payload.ElementId,
		ProcessInstanceId: processInstanceId,

		ProcessDefinitionId:      text(firstNonEmpty(payload.ProcessDefinitionId, event.ProcessDefinitionId)),
		ProcessDefinitionKey:     text(event.ProcessDefinitionKey),
		ProcessDefinitionVersion: int4(event.ProcessDefinitionVersion),
		BusinessKey:              text(event.BusinessKey),

		SourceActivityElementId: text(payload.SourceActivityElementId),
		SourceActivityName:      text(payload.SourceActivityName),
		SourceActivityType:      text(payload.SourceActivityType),
		TargetActivityElementId: text(payload.TargetActivityElementId),
		TargetActivityName:      text(payload.TargetActivityName),
		TargetActivityType:      text(payload.TargetActivityType),
		Date:                    eventTime(ctx, event),
	}

	return ctx.BPMNSequenceFlows().Insert(&entity)
}

func decodeBPMNActivity(event projection.Event, title string) (projection.BPMNActivityPayload, string, error) {
	var payload projection.BPMNActivityPayload
	if err := decodeEntity(event, &payload); err != nil {
		return payload, "", err
	}

	processInstanceId := firstNonEmpty(payload.ProcessInstanceId, event.ProcessInstanceId)
	if processInstanceId == "" {
		return payload, "", projection.Error{
			Type:   projection.ErrorValidation,
			Title:  title,
			Detail: "BPMN activity " + payload.ElementId + " has no process instance ID",
		}
	}

	return payload, processInstanceId, nil
}

func endBPMNActivity(ctx Context, event projection.Event, title string, status projection.BPMNActivityStatus) error {
	payload, processInstanceId, err := decodeBPMNActivity(event, title)
	if err != nil {
		return err
	}

	entity, err := ctx.BPMNActivities().SelectLatest(processInstanceId, payload.ElementId)
	if err != nil && err != pgx.ErrNoRows {
		return err
	}

	if entity != nil && entity.Status == status {
		return nil // replayed event
	}
	if entity == nil || entity.Status != projection.BPMNActivityStarted {
		return notFound(title, "started BPMN activity %s of process instance %s could not be found", payload.ElementId, processInstanceId)
	}

	t := eventTime(ctx, event)
	if status == projection.BPMNActivityCompleted {
		entity.CompletedDate = timestamp(t)
	} else {
		entity.CancelledDate = timestamp(t)
	}
	entity.Status = status

	return ctx.BPMNActivities().Update(entity)
}
