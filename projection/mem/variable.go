package mem

import (
	"fmt"

	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/gclaussn/go-bpmn-query/projection/internal"
	"github.com/jackc/pgx/v5"
)

type variableRepository struct {
	journal  *journal
	entities []internal.VariableEntity
}

func (r *variableRepository) DeleteAll() error {
	r.entities = nil
	return nil
}

func (r *variableRepository) Insert(entity *internal.VariableEntity) error {
	insert(r.journal, &r.entities, *entity)
	return nil
}

func (r *variableRepository) Select(id string) (*internal.VariableEntity, error) {
	for _, e := range r.entities {
		if e.Id == id {
			return &e, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *variableRepository) SelectLatest(scopeId string, name string) (*internal.VariableEntity, error) {
	for i := len(r.entities) - 1; i >= 0; i-- {
		e := r.entities[i]
		if e.ScopeId() == scopeId && e.Name == name {
			return &e, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *variableRepository) Update(entity *internal.VariableEntity) error {
	for i, e := range r.entities {
		if e.Id == entity.Id {
			update(r.journal, &r.entities, i, *entity)
			return nil
		}
	}
	return fmt.Errorf("failed to update variable %s: %v", entity.Id, pgx.ErrNoRows)
}

func (r *variableRepository) Query(c internal.VariableQuery, o projection.QueryOptions) ([]any, error) {
	return query(r.entities, o, func(e *internal.VariableEntity) bool {
		if !matchesText(e.ProcessInstanceId, c.ProcessInstanceId) {
			return false
		}
		if !matchesText(e.TaskId, c.TaskId) {
			return false
		}
		if !c.IncludeDeleted && e.MarkedAsDeleted {
			return false
		}
		if c.Name != "" && c.Name != e.Name {
			return false
		}
		return true
	}, func(e *internal.VariableEntity) any {
		return e.Variable()
	}), nil
}
