package mem

import (
	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/gclaussn/go-bpmn-query/projection/internal"
	"github.com/jackc/pgx/v5"
)

type applicationRepository struct {
	journal  *journal
	entities []internal.ApplicationEntity
}

func (r *applicationRepository) DeleteAll() error {
	r.entities = nil
	return nil
}

func (r *applicationRepository) Select(deploymentId string) (*internal.ApplicationEntity, error) {
	for _, e := range r.entities {
		if e.DeploymentId == deploymentId {
			return &e, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *applicationRepository) Upsert(entity *internal.ApplicationEntity) error {
	for i, e := range r.entities {
		if e.DeploymentId == entity.DeploymentId {
			update(r.journal, &r.entities, i, *entity)
			return nil
		}
	}
	insert(r.journal, &r.entities, *entity)
	return nil
}

func (r *applicationRepository) Query(c projection.ApplicationCriteria, o projection.QueryOptions) ([]any, error) {
	return query(r.entities, o, func(e *internal.ApplicationEntity) bool {
		if c.DeploymentId != "" && c.DeploymentId != e.DeploymentId {
			return false
		}
		if !matchesText(e.Name, c.Name) {
			return false
		}
		return true
	}, func(e *internal.ApplicationEntity) any {
		return e.Application()
	}), nil
}

type processDefinitionRepository struct {
	journal  *journal
	entities []internal.ProcessDefinitionEntity
}

func (r *processDefinitionRepository) DeleteAll() error {
	r.entities = nil
	return nil
}

func (r *processDefinitionRepository) Select(id string) (*internal.ProcessDefinitionEntity, error) {
	for _, e := range r.entities {
		if e.Id == id {
			return &e, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *processDefinitionRepository) Upsert(entity *internal.ProcessDefinitionEntity) error {
	for i, e := range r.entities {
		if e.Id == entity.Id {
			update(r.journal, &r.entities, i, *entity)
			return nil
		}
	}
	insert(r.journal, &r.entities, *entity)
	return nil
}

func (r *processDefinitionRepository) Query(c projection.ProcessDefinitionCriteria, o projection.QueryOptions) ([]any, error) {
	return query(r.entities, o, func(e *internal.ProcessDefinitionEntity) bool {
		if c.Id != "" && c.Id != e.Id {
			return false
		}
		if c.Key != "" && c.Key != e.Key {
			return false
		}
		if !matchesText(e.Name, c.Name) {
			return false
		}
		if c.Version != 0 && c.Version != e.Version {
			return false
		}
		return true
	}, func(e *internal.ProcessDefinitionEntity) any {
		return e.ProcessDefinition()
	}), nil
}

type processModelRepository struct {
	journal  *journal
	entities []internal.ProcessModelEntity
}

func (r *processModelRepository) Delete(processDefinitionId string) error {
	for i, e := range r.entities {
		if e.ProcessDefinitionId == processDefinitionId {
			remove(r.journal, &r.entities, i)
			return nil
		}
	}
	return nil
}

func (r *processModelRepository) DeleteAll() error {
	r.entities = nil
	return nil
}

func (r *processModelRepository) Select(processDefinitionId string) (*internal.ProcessModelEntity, error) {
	for _, e := range r.entities {
		if e.ProcessDefinitionId == processDefinitionId {
			return &e, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *processModelRepository) Upsert(entity *internal.ProcessModelEntity) error {
	for i, e := range r.entities {
		if e.ProcessDefinitionId == entity.ProcessDefinitionId {
			update(r.journal, &r.entities, i, *entity)
			return nil
		}
	}
	insert(r.journal, &r.entities, *entity)
	return nil
}

func (r *processModelRepository) Query(c projection.ProcessModelCriteria, o projection.QueryOptions) ([]any, error) {
	return query(r.entities, o, func(e *internal.ProcessModelEntity) bool {
		return c.ProcessDefinitionId == "" || c.ProcessDefinitionId == e.ProcessDefinitionId
	}, func(e *internal.ProcessModelEntity) any {
		return e.ProcessModel()
	}), nil
}
