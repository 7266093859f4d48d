package internal

import (
	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/jackc/pgx/v5/pgtype"
)

// CandidateEntity is a candidate user or group of a task, or a candidate starter of a process definition.
type CandidateEntity struct {
	TaskId              pgtype.Text
	ProcessDefinitionId pgtype.Text

	PrincipalId string // user or group ID
}

func (e CandidateEntity) CandidateGroup() projection.CandidateGroup {
	return projection.CandidateGroup{
		TaskId:              e.TaskId.String,
		ProcessDefinitionId: e.ProcessDefinitionId.String,
		GroupId:             e.PrincipalId,
	}
}

func (e CandidateEntity) CandidateUser() projection.CandidateUser {
	return projection.CandidateUser{
		TaskId:              e.TaskId.String,
		ProcessDefinitionId: e.ProcessDefinitionId.String,
		UserId:              e.PrincipalId,
	}
}

// Equal determines if two candidates have the same owner and principal.
func (e CandidateEntity) Equal(o CandidateEntity) bool {
	return e.TaskId == o.TaskId && e.ProcessDefinitionId == o.ProcessDefinitionId && e.PrincipalId == o.PrincipalId
}

// CandidateQuery is the store level representation of candidate user and group criteria.
type CandidateQuery struct {
	ProcessDefinitionId string
	TaskId              string

	PrincipalId string
}

// A CandidateRepository manages either candidate users or candidate groups.
// Candidates form a set: an owner has a principal at most once.
type CandidateRepository interface {
	Delete(*CandidateEntity) error
	DeleteAll() error
	Exists(*CandidateEntity) (bool, error)
	Insert(*CandidateEntity) error

	Query(CandidateQuery, projection.QueryOptions) ([]any, error)
}

func AddTaskCandidateUser(ctx Context, event projection.Event) error {
	return addCandidate(event, ctx.CandidateUsers(), true, true)
}

func RemoveTaskCandidateUser(ctx Context, event projection.Event) error {
	return removeCandidate(event, ctx.CandidateUsers(), true, true)
}

func AddTaskCandidateGroup(ctx Context, event projection.Event) error {
	return addCandidate(event, ctx.CandidateGroups(), true, false)
}

func RemoveTaskCandidateGroup(ctx Context, event projection.Event) error {
	return removeCandidate(event, ctx.CandidateGroups(), true, false)
}

func AddProcessCandidateStarterUser(ctx Context, event projection.Event) error {
	return addCandidate(event, ctx.CandidateUsers(), false, true)
}

func RemoveProcessCandidateStarterUser(ctx Context, event projection.Event) error {
	return removeCandidate(event, ctx.CandidateUsers(), false, true)
}

func AddProcessCandidateStarterGroup(ctx Context, event projection.Event) error {
	return addCandidate(event, ctx.CandidateGroups(), false, false)
}

func RemoveProcessCandidateStarterGroup(ctx Context, event projection.Event) error {
	return removeCandidate(event, ctx.CandidateGroups(), false, false)
}

// addCandidate adds a candidate, unless it exists already.
func addCandidate(event projection.Event, repository CandidateRepository, task bool, user bool) error {
	entity, err := decodeCandidate(event, task, user)
	if err != nil {
		return err
	}

	exists, err := repository.Exists(&entity)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	return repository.Insert(&entity)
}

// removeCandidate removes a candidate. Removing an absent candidate has no effect.
func removeCandidate(event projection.Event, repository CandidateRepository, task bool, user bool) error {
	entity, err := decodeCandidate(event, task, user)
	if err != nil {
		return err
	}
	return repository.Delete(&entity)
}

func decodeCandidate(event projection.Event, task bool, user bool) (CandidateEntity, error) {
	var payload projection.CandidatePayload
	if err := decodeEntity(event, &payload); err != nil {
		return CandidateEntity{}, err
	}

	var entity CandidateEntity
	if task {
		entity.TaskId = text(firstNonEmpty(payload.TaskId, event.EntityId))
	} else {
		entity.ProcessDefinitionId = text(firstNonEmpty(payload.ProcessDefinitionId, event.ProcessDefinitionId))
	}

	if user {
		entity.PrincipalId = payload.UserId
	} else {
		entity.PrincipalId = payload.GroupId
	}

	if (!entity.TaskId.Valid && !entity.ProcessDefinitionId.Valid) || entity.PrincipalId == "" {
		return entity, projection.Error{
			Type:   projection.ErrorValidation,
			Title:  "failed to decode candidate",
			Detail: "event " + event.String() + " must specify an owner and a user or group ID",
		}
	}

	return entity, nil
}
