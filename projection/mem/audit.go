package mem

import (
	"slices"
	"time"

	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/gclaussn/go-bpmn-query/projection/internal"
	"github.com/jackc/pgx/v5"
)

type auditEventRepository struct {
	journal  *journal
	entities []internal.AuditEventEntity
}

func (r *auditEventRepository) DeleteAll() error {
	r.entities = nil
	return nil
}

func (r *auditEventRepository) InsertBatch(entities []*internal.AuditEventEntity) error {
	for _, entity := range entities {
		insert(r.journal, &r.entities, *entity)
	}
	return nil
}

func (r *auditEventRepository) Purge(before time.Time) (int, error) {
	n := len(r.entities)
	r.entities = slices.DeleteFunc(r.entities, func(e internal.AuditEventEntity) bool {
		return e.CreatedAt.Before(before)
	})
	return n - len(r.entities), nil
}

func (r *auditEventRepository) Select(id string) (*internal.AuditEventEntity, error) {
	for _, e := range r.entities {
		if e.Id == id {
			return &e, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *auditEventRepository) Query(c projection.AuditEventCriteria, o projection.QueryOptions) ([]any, error) {
	return query(r.entities, o, func(e *internal.AuditEventEntity) bool {
		if !matchesText(e.EntityId, c.EntityId) {
			return false
		}
		if c.EventId != "" && c.EventId != e.EventId {
			return false
		}
		if len(c.EventTypes) != 0 && !slices.Contains(c.EventTypes, e.EventType) {
			return false
		}
		if c.MessageId != "" && c.MessageId != e.MessageId {
			return false
		}
		if !matchesText(e.ProcessInstanceId, c.ProcessInstanceId) {
			return false
		}
		if c.TimestampFrom != nil && e.Timestamp < c.TimestampFrom.UnixMilli() {
			return false
		}
		if c.TimestampTo != nil && e.Timestamp >= c.TimestampTo.UnixMilli() {
			return false
		}
		return true
	}, func(e *internal.AuditEventEntity) any {
		return e.AuditEvent()
	}), nil
}
