package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/gclaussn/go-bpmn-query/projection/internal"
	"github.com/jackc/pgx/v5"
)

const sqlAuditEventColumns = `
	id,

	event_id,
	event_type,
	timestamp,
	message_id,
	sequence_number,
	entity,
	entity_id,

	process_definition_id,
	process_definition_key,
	process_definition_version,
	process_instance_id,
	parent_process_instance_id,
	business_key,

	app_name,
	app_version,
	service_name,
	service_full_name,
	service_type,
	service_version,

	created_at
`

type auditEventRepository struct {
	tx    pgx.Tx
	txCtx context.Context
}

func (r auditEventRepository) DeleteAll() error {
	if _, err := r.tx.Exec(r.txCtx, "DELETE FROM audit_event"); err != nil {
		return fmt.Errorf("failed to delete audit events: %v", err)
	}
	return nil
}

func (r auditEventRepository) InsertBatch(entities []*internal.AuditEventEntity) error {
	batch := &pgx.Batch{}

	for _, entity := range entities {
		batch.Queue(`
INSERT INTO audit_event (`+sqlAuditEventColumns+`) VALUES (
	$1,

	$2,
	$3,
	$4,
	$5,
	$6,
	$7,
	$8,

	$9,
	$10,
	$11,
	$12,
	$13,
	$14,

	$15,
	$16,
	$17,
	$18,
	$19,
	$20,

	$21
)
`,
			entity.Id,

			entity.EventId,
			entity.EventType,
			entity.Timestamp,
			entity.MessageId,
			entity.SequenceNumber,
			entity.Entity,
			entity.EntityId,

			entity.ProcessDefinitionId,
			entity.ProcessDefinitionKey,
			entity.ProcessDefinitionVersion,
			entity.ProcessInstanceId,
			entity.ParentProcessInstanceId,
			entity.BusinessKey,

			entity.AppName,
			entity.AppVersion,
			entity.ServiceName,
			entity.ServiceFullName,
			entity.ServiceType,
			entity.ServiceVersion,

			entity.CreatedAt,
		)
	}

	batchResults := r.tx.SendBatch(r.txCtx, batch)
	defer batchResults.Close()

	for i := range entities {
		if _, err := batchResults.Exec(); err != nil {
			return fmt.Errorf("failed to insert audit event %+v: %v", entities[i], err)
		}
	}

	return nil
}

func (r auditEventRepository) Purge(before time.Time) (int, error) {
	tag, err := r.tx.Exec(r.txCtx, "DELETE FROM audit_event WHERE created_at < $1", before)
	if err != nil {
		return 0, fmt.Errorf("failed to purge audit events, created before %s: %v", before, err)
	}
	return int(tag.RowsAffected()), nil
}

func (r auditEventRepository) Select(id string) (*internal.AuditEventEntity, error) {
	row := r.tx.QueryRow(r.txCtx, `
SELECT`+sqlAuditEventColumns+`FROM
	audit_event
WHERE
	id = $1
`, id)

	entity, err := scanAuditEvent(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		} else {
			return nil, fmt.Errorf("failed to select audit event %s: %v", id, err)
		}
	}

	return entity, nil
}

func (r auditEventRepository) Query(criteria projection.AuditEventCriteria, options projection.QueryOptions) ([]any, error) {
	sql, err := executeSqlTemplate(sqlAuditEventQuery, map[string]any{
		"c": criteria,
		"o": options,
	})
	if err != nil {
		return nil, err
	}

	rows, err := r.tx.Query(r.txCtx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to execute audit event query: %v", err)
	}

	defer rows.Close()

	results := make([]any, 0)
	for rows.Next() {
		entity, err := scanAuditEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit event row: %v", err)
		}

		results = append(results, entity.AuditEvent())
	}

	return results, rows.Err()
}

func scanAuditEvent(row pgx.Row) (*internal.AuditEventEntity, error) {
	var entity internal.AuditEventEntity
	if err := row.Scan(
		&entity.Id,

		&entity.EventId,
		&entity.EventType,
		&entity.Timestamp,
		&entity.MessageId,
		&entity.SequenceNumber,
		&entity.Entity,
		&entity.EntityId,

		&entity.ProcessDefinitionId,
		&entity.ProcessDefinitionKey,
		&entity.ProcessDefinitionVersion,
		&entity.ProcessInstanceId,
		&entity.ParentProcessInstanceId,
		&entity.BusinessKey,

		&entity.AppName,
		&entity.AppVersion,
		&entity.ServiceName,
		&entity.ServiceFullName,
		&entity.ServiceType,
		&entity.ServiceVersion,

		&entity.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &entity, nil
}
