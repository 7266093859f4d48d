package mem

import (
	"fmt"
	"slices"

	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/gclaussn/go-bpmn-query/projection/internal"
	"github.com/jackc/pgx/v5"
)

type integrationContextRepository struct {
	journal  *journal
	entities []internal.IntegrationContextEntity
}

func (r *integrationContextRepository) DeleteAll() error {
	r.entities = nil
	return nil
}

func (r *integrationContextRepository) Insert(entity *internal.IntegrationContextEntity) error {
	insert(r.journal, &r.entities, *entity)
	return nil
}

func (r *integrationContextRepository) Select(id string) (*internal.IntegrationContextEntity, error) {
	for _, e := range r.entities {
		if e.Id == id {
			return &e, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *integrationContextRepository) SelectByExecution(executionId string, clientId string) (*internal.IntegrationContextEntity, error) {
	for _, e := range r.entities {
		if e.ExecutionId == executionId && e.ClientId == clientId {
			return &e, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *integrationContextRepository) Update(entity *internal.IntegrationContextEntity) error {
	for i, e := range r.entities {
		if e.Id == entity.Id {
			update(r.journal, &r.entities, i, *entity)
			return nil
		}
	}
	return fmt.Errorf("failed to update integration context %s: %v", entity.Id, pgx.ErrNoRows)
}

func (r *integrationContextRepository) Query(c projection.IntegrationContextCriteria, o projection.QueryOptions) ([]any, error) {
	return query(r.entities, o, func(e *internal.IntegrationContextEntity) bool {
		if c.ClientId != "" && c.ClientId != e.ClientId {
			return false
		}
		if c.ExecutionId != "" && c.ExecutionId != e.ExecutionId {
			return false
		}
		if !matchesText(e.ProcessInstanceId, c.ProcessInstanceId) {
			return false
		}
		if len(c.Status) != 0 && !slices.Contains(c.Status, e.Status) {
			return false
		}
		return true
	}, func(e *internal.IntegrationContextEntity) any {
		return e.IntegrationContext()
	}), nil
}
