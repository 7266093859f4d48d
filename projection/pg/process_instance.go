package pg

import (
	"context"
	"fmt"

	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/gclaussn/go-bpmn-query/projection/internal"
	"github.com/jackc/pgx/v5"
)

type processInstanceRepository struct {
	tx    pgx.Tx
	txCtx context.Context
}

func (r processInstanceRepository) DeleteAll() error {
	if _, err := r.tx.Exec(r.txCtx, "DELETE FROM process_instance"); err != nil {
		return fmt.Errorf("failed to delete process instances: %v", err)
	}
	return nil
}

func (r processInstanceRepository) Insert(entity *internal.ProcessInstanceEntity) error {
	if _, err := r.tx.Exec(r.txCtx, `
INSERT INTO process_instance (
	id,

	parent_id,

	process_definition_id,
	process_definition_key,
	process_definition_name,
	process_definition_version,

	business_key,
	completed_date,
	initiator,
	last_modified,
	name,
	start_date,
	status,
	suspended_date,

	app_name,
	app_version,
	service_name,
	service_version
) VALUES (
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
	$18
)
`,
		entity.Id,

		entity.ParentId,

		entity.ProcessDefinitionId,
		entity.ProcessDefinitionKey,
		entity.ProcessDefinitionName,
		entity.ProcessDefinitionVersion,

		entity.BusinessKey,
		entity.CompletedDate,
		entity.Initiator,
		entity.LastModified,
		entity.Name,
		entity.StartDate,
		entity.Status.String(),
		entity.SuspendedDate,

		entity.AppName,
		entity.AppVersion,
		entity.ServiceName,
		entity.ServiceVersion,
	); err != nil {
		return fmt.Errorf("failed to insert process instance %+v: %v", entity, err)
	}

	return nil
}

func (r processInstanceRepository) Select(id string) (*internal.ProcessInstanceEntity, error) {
	row := r.tx.QueryRow(r.txCtx, `
SELECT
	parent_id,

	process_definition_id,
	process_definition_key,
	process_definition_name,
	process_definition_version,

	business_key,
	completed_date,
	initiator,
	last_modified,
	name,
	start_date,
	status,
	suspended_date,

	app_name,
	app_version,
	service_name,
	service_version
FROM
	process_instance
WHERE
	id = $1
FOR UPDATE
`, id)

	var statusValue string

	var entity internal.ProcessInstanceEntity
	if err := row.Scan(
		&entity.ParentId,

		&entity.ProcessDefinitionId,
		&entity.ProcessDefinitionKey,
		&entity.ProcessDefinitionName,
		&entity.ProcessDefinitionVersion,

		&entity.BusinessKey,
		&entity.CompletedDate,
		&entity.Initiator,
		&entity.LastModified,
		&entity.Name,
		&entity.StartDate,
		&statusValue,
		&entity.SuspendedDate,

		&entity.AppName,
		&entity.AppVersion,
		&entity.ServiceName,
		&entity.ServiceVersion,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		} else {
			return nil, fmt.Errorf("failed to select process instance %s: %v", id, err)
		}
	}

	entity.Id = id
	entity.Status = projection.MapProcessInstanceStatus(statusValue)

	return &entity, nil
}

func (r processInstanceRepository) Update(entity *internal.ProcessInstanceEntity) error {
	if _, err := r.tx.Exec(r.txCtx, `
UPDATE
	process_instance
SET
	parent_id = $2,

	process_definition_id = $3,
	process_definition_key = $4,
	process_definition_name = $5,
	process_definition_version = $6,

	business_key = $7,
	completed_date = $8,
	initiator = $9,
	last_modified = $10,
	name = $11,
	start_date = $12,
	status = $13,
	suspended_date = $14
WHERE
	id = $1
`,
		entity.Id,

		entity.ParentId,

		entity.ProcessDefinitionId,
		entity.ProcessDefinitionKey,
		entity.ProcessDefinitionName,
		entity.ProcessDefinitionVersion,

		entity.BusinessKey,
		entity.CompletedDate,
		entity.Initiator,
		entity.LastModified,
		entity.Name,
		entity.StartDate,
		entity.Status.String(),
		entity.SuspendedDate,
	); err != nil {
		return fmt.Errorf("failed to update process instance %+v: %v", entity, err)
	}

	return nil
}

func (r processInstanceRepository) Query(criteria projection.ProcessInstanceCriteria, options projection.QueryOptions) ([]any, error) {
	sql, err := executeSqlTemplate(sqlProcessInstanceQuery, map[string]any{
		"c": criteria,
		"o": options,
	})
	if err != nil {
		return nil, err
	}

	rows, err := r.tx.Query(r.txCtx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to execute process instance query: %v", err)
	}

	defer rows.Close()

	results := make([]any, 0)
	for rows.Next() {
		var entity internal.ProcessInstanceEntity

		var statusValue string

		if err := rows.Scan(
			&entity.Id,

			&entity.ParentId,

			&entity.ProcessDefinitionId,
			&entity.ProcessDefinitionKey,
			&entity.ProcessDefinitionName,
			&entity.ProcessDefinitionVersion,

			&entity.BusinessKey,
			&entity.CompletedDate,
			&entity.Initiator,
			&entity.LastModified,
			&entity.Name,
			&entity.StartDate,
			&statusValue,
			&entity.SuspendedDate,

			&entity.AppName,
			&entity.AppVersion,
			&entity.ServiceName,
			&entity.ServiceVersion,
		); err != nil {
			return nil, fmt.Errorf("failed to scan process instance row: %v", err)
		}

		entity.Status = projection.MapProcessInstanceStatus(statusValue)

		results = append(results, entity.ProcessInstance())
	}

	return results, rows.Err()
}
