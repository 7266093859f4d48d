package internal

import (
	"fmt"

	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/jackc/pgx/v5"
)

func NewQuery(criteria any) Query {
	switch criteria := criteria.(type) {
	case projection.ApplicationCriteria:
		return func(ctx Context, options projection.QueryOptions) ([]any, error) {
			return ctx.Applications().Query(criteria, options)
		}
	case projection.AuditEventCriteria:
		return func(ctx Context, options projection.QueryOptions) ([]any, error) {
			return ctx.AuditEvents().Query(criteria, options)
		}
	case projection.BPMNActivityCriteria:
		return func(ctx Context, options projection.QueryOptions) ([]any, error) {
			return ctx.BPMNActivities().Query(criteria, options)
		}
	case projection.BPMNSequenceFlowCriteria:
		return func(ctx Context, options projection.QueryOptions) ([]any, error) {
			return ctx.BPMNSequenceFlows().Query(criteria, options)
		}
	case projection.CandidateGroupCriteria:
		return newCandidateQuery(CandidateQuery{
			ProcessDefinitionId: criteria.ProcessDefinitionId,
			TaskId:              criteria.TaskId,
			PrincipalId:         criteria.GroupId,
		}, false)
	case projection.CandidateUserCriteria:
		return newCandidateQuery(CandidateQuery{
			ProcessDefinitionId: criteria.ProcessDefinitionId,
			TaskId:              criteria.TaskId,
			PrincipalId:         criteria.UserId,
		}, true)
	case projection.IntegrationContextCriteria:
		return func(ctx Context, options projection.QueryOptions) ([]any, error) {
			return ctx.IntegrationContexts().Query(criteria, options)
		}
	case projection.ProcessDefinitionCriteria:
		return func(ctx Context, options projection.QueryOptions) ([]any, error) {
			return ctx.ProcessDefinitions().Query(criteria, options)
		}
	case projection.ProcessInstanceCriteria:
		return func(ctx Context, options projection.QueryOptions) ([]any, error) {
			return ctx.ProcessInstances().Query(criteria, options)
		}
	case projection.ProcessModelCriteria:
		return func(ctx Context, options projection.QueryOptions) ([]any, error) {
			return ctx.ProcessModels().Query(criteria, options)
		}
	case projection.ProcessVariableCriteria:
		query := VariableQuery{
			ProcessInstanceId: criteria.ProcessInstanceId,
			IncludeDeleted:    criteria.IncludeDeleted,
			Name:              criteria.Name,
		}
		return func(ctx Context, options projection.QueryOptions) ([]any, error) {
			return ctx.ProcessVariables().Query(query, options)
		}
	case projection.TaskCriteria:
		return func(ctx Context, options projection.QueryOptions) ([]any, error) {
			return ctx.Tasks().Query(criteria, options)
		}
	case projection.TaskVariableCriteria:
		query := VariableQuery{
			ProcessInstanceId: criteria.ProcessInstanceId,
			TaskId:            criteria.TaskId,
			IncludeDeleted:    criteria.IncludeDeleted,
			Name:              criteria.Name,
		}
		return func(ctx Context, options projection.QueryOptions) ([]any, error) {
			return ctx.TaskVariables().Query(query, options)
		}
	default:
		return nil
	}
}

type Query func(Context, projection.QueryOptions) ([]any, error)

func newCandidateQuery(query CandidateQuery, user bool) Query {
	return func(ctx Context, options projection.QueryOptions) ([]any, error) {
		if user {
			return ctx.CandidateUsers().Query(query, options)
		}
		return ctx.CandidateGroups().Query(query, options)
	}
}

// FindById selects a single entity of a specific kind and returns its model.
func FindById(ctx Context, kind projection.Kind, id string) (any, error) {
	var (
		result any
		err    error
	)

	switch kind {
	case projection.KindApplication:
		var entity *ApplicationEntity
		if entity, err = ctx.Applications().Select(id); err == nil {
			result = entity.Application()
		}
	case projection.KindAuditEvent:
		var entity *AuditEventEntity
		if entity, err = ctx.AuditEvents().Select(id); err == nil {
			result = entity.AuditEvent()
		}
	case projection.KindBPMNActivity:
		var entity *BPMNActivityEntity
		if entity, err = ctx.BPMNActivities().Select(id); err == nil {
			result = entity.BPMNActivity()
		}
	case projection.KindBPMNSequenceFlow:
		var entity *BPMNSequenceFlowEntity
		if entity, err = ctx.BPMNSequenceFlows().Select(id); err == nil {
			result = entity.BPMNSequenceFlow()
		}
	case projection.KindIntegrationContext:
		var entity *IntegrationContextEntity
		if entity, err = ctx.IntegrationContexts().Select(id); err == nil {
			result = entity.IntegrationContext()
		}
	case projection.KindProcessDefinition:
		var entity *ProcessDefinitionEntity
		if entity, err = ctx.ProcessDefinitions().Select(id); err == nil {
			result = entity.ProcessDefinition()
		}
	case projection.KindProcessInstance:
		var entity *ProcessInstanceEntity
		if entity, err = ctx.ProcessInstances().Select(id); err == nil {
			result = entity.ProcessInstance()
		}
	case projection.KindProcessModel:
		var entity *ProcessModelEntity
		if entity, err = ctx.ProcessModels().Select(id); err == nil {
			result = entity.ProcessModel()
		}
	case projection.KindProcessVariable:
		var entity *VariableEntity
		if entity, err = ctx.ProcessVariables().Select(id); err == nil {
			result = entity.Variable()
		}
	case projection.KindTask:
		var entity *TaskEntity
		if entity, err = ctx.Tasks().Select(id); err == nil {
			result = entity.Task()
		}
	case projection.KindTaskVariable:
		var entity *VariableEntity
		if entity, err = ctx.TaskVariables().Select(id); err == nil {
			result = entity.Variable()
		}
	default:
		return nil, projection.Error{
			Type:   projection.ErrorQuery,
			Title:  "failed to find entity",
			Detail: fmt.Sprintf("kind %s cannot be found by ID", kind),
		}
	}

	if err == pgx.ErrNoRows {
		return nil, notFound("failed to find entity", "%s %s could not be found", kind, id)
	}
	if err != nil {
		return nil, err
	}

	return result, nil
}

// DeleteAll deletes all entities of a specific kind.
func DeleteAll(ctx Context, kind projection.Kind) error {
	switch kind {
	case projection.KindApplication:
		return ctx.Applications().DeleteAll()
	case projection.KindAuditEvent:
		return ctx.AuditEvents().DeleteAll()
	case projection.KindBPMNActivity:
		return ctx.BPMNActivities().DeleteAll()
	case projection.KindBPMNSequenceFlow:
		return ctx.BPMNSequenceFlows().DeleteAll()
	case projection.KindCandidateGroup:
		return ctx.CandidateGroups().DeleteAll()
	case projection.KindCandidateUser:
		return ctx.CandidateUsers().DeleteAll()
	case projection.KindIntegrationContext:
		return ctx.IntegrationContexts().DeleteAll()
	case projection.KindProcessDefinition:
		if err := ctx.ProcessDefinitions().DeleteAll(); err != nil {
			return err
		}
		ctx.EvictDefinitions()
		return nil
	case projection.KindProcessInstance:
		return ctx.ProcessInstances().DeleteAll()
	case projection.KindProcessModel:
		return ctx.ProcessModels().DeleteAll()
	case projection.KindProcessVariable:
		return ctx.ProcessVariables().DeleteAll()
	case projection.KindTask:
		return ctx.Tasks().DeleteAll()
	case projection.KindTaskVariable:
		return ctx.TaskVariables().DeleteAll()
	default:
		return projection.Error{
			Type:   projection.ErrorQuery,
			Title:  "failed to delete all entities",
			Detail: fmt.Sprintf("kind %s is not supported", kind),
		}
	}
}
