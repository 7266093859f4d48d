package mem

import (
	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/gclaussn/go-bpmn-query/projection/internal"
)

type candidateRepository struct {
	journal  *journal
	entities []internal.CandidateEntity

	user bool // determines if the repository manages candidate users or candidate groups
}

func (r *candidateRepository) Delete(entity *internal.CandidateEntity) error {
	for i, e := range r.entities {
		if e.Equal(*entity) {
			remove(r.journal, &r.entities, i)
			return nil
		}
	}
	return nil
}

func (r *candidateRepository) DeleteAll() error {
	r.entities = nil
	return nil
}

func (r *candidateRepository) Exists(entity *internal.CandidateEntity) (bool, error) {
	for _, e := range r.entities {
		if e.Equal(*entity) {
			return true, nil
		}
	}
	return false, nil
}

func (r *candidateRepository) Insert(entity *internal.CandidateEntity) error {
	insert(r.journal, &r.entities, *entity)
	return nil
}

func (r *candidateRepository) Query(c internal.CandidateQuery, o projection.QueryOptions) ([]any, error) {
	return query(r.entities, o, func(e *internal.CandidateEntity) bool {
		if !matchesText(e.ProcessDefinitionId, c.ProcessDefinitionId) {
			return false
		}
		if !matchesText(e.TaskId, c.TaskId) {
			return false
		}
		if c.PrincipalId != "" && c.PrincipalId != e.PrincipalId {
			return false
		}
		return true
	}, func(e *internal.CandidateEntity) any {
		if r.user {
			return e.CandidateUser()
		}
		return e.CandidateGroup()
	}), nil
}

func (r *candidateRepository) hasTaskCandidate(taskId string, principalId string) bool {
	for _, e := range r.entities {
		if e.TaskId.String == taskId && e.PrincipalId == principalId {
			return true
		}
	}
	return false
}
