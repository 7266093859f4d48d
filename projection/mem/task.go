package mem

import (
	"fmt"
	"slices"

	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/gclaussn/go-bpmn-query/projection/internal"
	"github.com/jackc/pgx/v5"
)

type taskRepository struct {
	journal  *journal
	entities []internal.TaskEntity

	candidateGroups *candidateRepository
	candidateUsers  *candidateRepository
}

func (r *taskRepository) DeleteAll() error {
	r.entities = nil
	return nil
}

func (r *taskRepository) Insert(entity *internal.TaskEntity) error {
	insert(r.journal, &r.entities, *entity)
	return nil
}

func (r *taskRepository) Select(id string) (*internal.TaskEntity, error) {
	for _, e := range r.entities {
		if e.Id == id {
			return &e, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *taskRepository) Update(entity *internal.TaskEntity) error {
	for i, e := range r.entities {
		if e.Id == entity.Id {
			update(r.journal, &r.entities, i, *entity)
			return nil
		}
	}
	return fmt.Errorf("failed to update task %s: %v", entity.Id, pgx.ErrNoRows)
}

func (r *taskRepository) Query(c projection.TaskCriteria, o projection.QueryOptions) ([]any, error) {
	return query(r.entities, o, func(e *internal.TaskEntity) bool {
		if c.Id != "" && c.Id != e.Id {
			return false
		}
		if !matchesText(e.ParentTaskId, c.ParentTaskId) {
			return false
		}
		if !matchesText(e.ProcessInstanceId, c.ProcessInstanceId) {
			return false
		}
		if !matchesText(e.ProcessDefinitionId, c.ProcessDefinitionId) {
			return false
		}
		if c.ProcessDefinitionVersion != 0 && c.ProcessDefinitionVersion != e.ProcessDefinitionVersion.Int32 {
			return false
		}
		if !matchesText(e.Assignee, c.Assignee) {
			return false
		}
		if c.CandidateGroupId != "" && !r.candidateGroups.hasTaskCandidate(e.Id, c.CandidateGroupId) {
			return false
		}
		if c.CandidateUserId != "" && !r.candidateUsers.hasTaskCandidate(e.Id, c.CandidateUserId) {
			return false
		}
		if !inRange(e.CreatedDate, c.CreatedFrom, c.CreatedTo) {
			return false
		}
		if !matchesText(e.Name, c.Name) {
			return false
		}
		if c.RootTasksOnly && e.ParentTaskId.Valid {
			return false
		}
		if c.Standalone && e.ProcessInstanceId.Valid {
			return false
		}
		if len(c.Status) != 0 && !slices.Contains(c.Status, e.Status) {
			return false
		}
		if !matchesText(e.TaskDefinitionKey, c.TaskDefinitionKey) {
			return false
		}
		return true
	}, func(e *internal.TaskEntity) any {
		return e.Task()
	}), nil
}
