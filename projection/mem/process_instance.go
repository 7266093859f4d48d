package mem

import (
	"fmt"
	"slices"

	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/gclaussn/go-bpmn-query/projection/internal"
	"github.com/jackc/pgx/v5"
)

type processInstanceRepository struct {
	journal  *journal
	entities []internal.ProcessInstanceEntity
}

func (r *processInstanceRepository) DeleteAll() error {
	r.entities = nil
	return nil
}

func (r *processInstanceRepository) Insert(entity *internal.ProcessInstanceEntity) error {
	insert(r.journal, &r.entities, *entity)
	return nil
}

func (r *processInstanceRepository) Select(id string) (*internal.ProcessInstanceEntity, error) {
	for _, e := range r.entities {
		if e.Id == id {
			return &e, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *processInstanceRepository) Update(entity *internal.ProcessInstanceEntity) error {
	for i, e := range r.entities {
		if e.Id == entity.Id {
			update(r.journal, &r.entities, i, *entity)
			return nil
		}
	}
	return fmt.Errorf("failed to update process instance %s: %v", entity.Id, pgx.ErrNoRows)
}

func (r *processInstanceRepository) Query(c projection.ProcessInstanceCriteria, o projection.QueryOptions) ([]any, error) {
	return query(r.entities, o, func(e *internal.ProcessInstanceEntity) bool {
		if c.Id != "" && c.Id != e.Id {
			return false
		}
		if !matchesText(e.ParentId, c.ParentId) {
			return false
		}
		if !matchesText(e.ProcessDefinitionId, c.ProcessDefinitionId) {
			return false
		}
		if !matchesText(e.ProcessDefinitionKey, c.ProcessDefinitionKey) {
			return false
		}
		if c.ProcessDefinitionVersion != 0 && c.ProcessDefinitionVersion != e.ProcessDefinitionVersion.Int32 {
			return false
		}
		if !matchesText(e.BusinessKey, c.BusinessKey) {
			return false
		}
		if !matchesText(e.Initiator, c.Initiator) {
			return false
		}
		if !matchesText(e.Name, c.Name) {
			return false
		}
		if c.StartedFrom != nil || c.StartedTo != nil {
			if !e.StartDate.Valid || !inRange(e.StartDate.Time, c.StartedFrom, c.StartedTo) {
				return false
			}
		}
		if len(c.Status) != 0 && !slices.Contains(c.Status, e.Status) {
			return false
		}
		return true
	}, func(e *internal.ProcessInstanceEntity) any {
		return e.ProcessInstance()
	}), nil
}
