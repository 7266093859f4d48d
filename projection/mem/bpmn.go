package mem

import (
	"fmt"
	"slices"

	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/gclaussn/go-bpmn-query/projection/internal"
	"github.com/jackc/pgx/v5"
)

type bpmnActivityRepository struct {
	journal  *journal
	entities []internal.BPMNActivityEntity
}

func (r *bpmnActivityRepository) DeleteAll() error {
	r.entities = nil
	return nil
}

func (r *bpmnActivityRepository) Insert(entity *internal.BPMNActivityEntity) error {
	insert(r.journal, &r.entities, *entity)
	return nil
}

func (r *bpmnActivityRepository) Select(id string) (*internal.BPMNActivityEntity, error) {
	for _, e := range r.entities {
		if e.Id == id {
			return &e, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *bpmnActivityRepository) SelectLatest(processInstanceId string, elementId string) (*internal.BPMNActivityEntity, error) {
	for i := len(r.entities) - 1; i >= 0; i-- {
		e := r.entities[i]
		if e.ProcessInstanceId == processInstanceId && e.ElementId == elementId {
			return &e, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *bpmnActivityRepository) Update(entity *internal.BPMNActivityEntity) error {
	for i, e := range r.entities {
		if e.Id == entity.Id {
			update(r.journal, &r.entities, i, *entity)
			return nil
		}
	}
	return fmt.Errorf("failed to update BPMN activity %s: %v", entity.Id, pgx.ErrNoRows)
}

func (r *bpmnActivityRepository) Query(c projection.BPMNActivityCriteria, o projection.QueryOptions) ([]any, error) {
	return query(r.entities, o, func(e *internal.BPMNActivityEntity) bool {
		if c.ElementId != "" && c.ElementId != e.ElementId {
			return false
		}
		if !matchesText(e.ExecutionId, c.ExecutionId) {
			return false
		}
		if c.ProcessInstanceId != "" && c.ProcessInstanceId != e.ProcessInstanceId {
			return false
		}
		if len(c.Status) != 0 && !slices.Contains(c.Status, e.Status) {
			return false
		}
		return true
	}, func(e *internal.BPMNActivityEntity) any {
		return e.BPMNActivity()
	}), nil
}

type bpmnSequenceFlowRepository struct {
	journal  *journal
	entities []internal.BPMNSequenceFlowEntity
}

func (r *bpmnSequenceFlowRepository) DeleteAll() error {
	r.entities = nil
	return nil
}

func (r *bpmnSequenceFlowRepository) Insert(entity *internal.BPMNSequenceFlowEntity) error {
	insert(r.journal, &r.entities, *entity)
	return nil
}

func (r *bpmnSequenceFlowRepository) Select(id string) (*internal.BPMNSequenceFlowEntity, error) {
	for _, e := range r.entities {
		if e.Id == id {
			return &e, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *bpmnSequenceFlowRepository) Query(c projection.BPMNSequenceFlowCriteria, o projection.QueryOptions) ([]any, error) {
	return query(r.entities, o, func(e *internal.BPMNSequenceFlowEntity) bool {
		if c.ElementId != "" && c.ElementId != e.ElementId {
			return false
		}
		if c.ProcessInstanceId != "" && c.ProcessInstanceId != e.ProcessInstanceId {
			return false
		}
		return true
	}, func(e *internal.BPMNSequenceFlowEntity) any {
		return e.BPMNSequenceFlow()
	}), nil
}
