package pg

import (
	"context"
	"fmt"

	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/gclaussn/go-bpmn-query/projection/internal"
	"github.com/jackc/pgx/v5"
)

type taskRepository struct {
	tx    pgx.Tx
	txCtx context.Context
}

func (r taskRepository) DeleteAll() error {
	if _, err := r.tx.Exec(r.txCtx, "DELETE FROM task"); err != nil {
		return fmt.Errorf("failed to delete tasks: %v", err)
	}
	return nil
}

func (r taskRepository) Insert(entity *internal.TaskEntity) error {
	if _, err := r.tx.Exec(r.txCtx, `
INSERT INTO task (
	id,

	parent_task_id,
	process_instance_id,

	process_definition_id,
	process_definition_version,

	assignee,
	business_key,
	claimed_date,
	completed_by,
	completed_date,
	created_date,
	description,
	due_date,
	form_key,
	last_modified,
	name,
	owner,
	priority,
	status,
	task_definition_key,

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
	$18,
	$19,
	$20,

	$21,
	$22,
	$23,
	$24
)
`,
		entity.Id,

		entity.ParentTaskId,
		entity.ProcessInstanceId,

		entity.ProcessDefinitionId,
		entity.ProcessDefinitionVersion,

		entity.Assignee,
		entity.BusinessKey,
		entity.ClaimedDate,
		entity.CompletedBy,
		entity.CompletedDate,
		entity.CreatedDate,
		entity.Description,
		entity.DueDate,
		entity.FormKey,
		entity.LastModified,
		entity.Name,
		entity.Owner,
		entity.Priority,
		entity.Status.String(),
		entity.TaskDefinitionKey,

		entity.AppName,
		entity.AppVersion,
		entity.ServiceName,
		entity.ServiceVersion,
	); err != nil {
		return fmt.Errorf("failed to insert task %+v: %v", entity, err)
	}

	return nil
}

func (r taskRepository) Select(id string) (*internal.TaskEntity, error) {
	row := r.tx.QueryRow(r.txCtx, `
SELECT
	parent_task_id,
	process_instance_id,

	process_definition_id,
	process_definition_version,

	assignee,
	business_key,
	claimed_date,
	completed_by,
	completed_date,
	created_date,
	description,
	due_date,
	form_key,
	last_modified,
	name,
	owner,
	priority,
	status,
	task_definition_key,

	app_name,
	app_version,
	service_name,
	service_version
FROM
	task
WHERE
	id = $1
FOR UPDATE
`, id)

	var statusValue string

	var entity internal.TaskEntity
	if err := row.Scan(
		&entity.ParentTaskId,
		&entity.ProcessInstanceId,

		&entity.ProcessDefinitionId,
		&entity.ProcessDefinitionVersion,

		&entity.Assignee,
		&entity.BusinessKey,
		&entity.ClaimedDate,
		&entity.CompletedBy,
		&entity.CompletedDate,
		&entity.CreatedDate,
		&entity.Description,
		&entity.DueDate,
		&entity.FormKey,
		&entity.LastModified,
		&entity.Name,
		&entity.Owner,
		&entity.Priority,
		&statusValue,
		&entity.TaskDefinitionKey,

		&entity.AppName,
		&entity.AppVersion,
		&entity.ServiceName,
		&entity.ServiceVersion,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		} else {
			return nil, fmt.Errorf("failed to select task %s: %v", id, err)
		}
	}

	entity.Id = id
	entity.Status = projection.MapTaskStatus(statusValue)

	return &entity, nil
}

func (r taskRepository) Update(entity *internal.TaskEntity) error {
	if _, err := r.tx.Exec(r.txCtx, `
UPDATE
	task
SET
	parent_task_id = $2,
	process_instance_id = $3,

	process_definition_id = $4,
	process_definition_version = $5,

	assignee = $6,
	business_key = $7,
	claimed_date = $8,
	completed_by = $9,
	completed_date = $10,
	description = $11,
	due_date = $12,
	form_key = $13,
	last_modified = $14,
	name = $15,
	owner = $16,
	priority = $17,
	status = $18,
	task_definition_key = $19
WHERE
	id = $1
`,
		entity.Id,

		entity.ParentTaskId,
		entity.ProcessInstanceId,

		entity.ProcessDefinitionId,
		entity.ProcessDefinitionVersion,

		entity.Assignee,
		entity.BusinessKey,
		entity.ClaimedDate,
		entity.CompletedBy,
		entity.CompletedDate,
		entity.Description,
		entity.DueDate,
		entity.FormKey,
		entity.LastModified,
		entity.Name,
		entity.Owner,
		entity.Priority,
		entity.Status.String(),
		entity.TaskDefinitionKey,
	); err != nil {
		return fmt.Errorf("failed to update task %+v: %v", entity, err)
	}

	return nil
}

func (r taskRepository) Query(criteria projection.TaskCriteria, options projection.QueryOptions) ([]any, error) {
	sql, err := executeSqlTemplate(sqlTaskQuery, map[string]any{
		"c": criteria,
		"o": options,
	})
	if err != nil {
		return nil, err
	}

	rows, err := r.tx.Query(r.txCtx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to execute task query: %v", err)
	}

	defer rows.Close()

	results := make([]any, 0)
	for rows.Next() {
		var entity internal.TaskEntity

		var statusValue string

		if err := rows.Scan(
			&entity.Id,

			&entity.ParentTaskId,
			&entity.ProcessInstanceId,

			&entity.ProcessDefinitionId,
			&entity.ProcessDefinitionVersion,

			&entity.Assignee,
			&entity.BusinessKey,
			&entity.ClaimedDate,
			&entity.CompletedBy,
			&entity.CompletedDate,
			&entity.CreatedDate,
			&entity.Description,
			&entity.DueDate,
			&entity.FormKey,
			&entity.LastModified,
			&entity.Name,
			&entity.Owner,
			&entity.Priority,
			&statusValue,
			&entity.TaskDefinitionKey,

			&entity.AppName,
			&entity.AppVersion,
			&entity.ServiceName,
			&entity.ServiceVersion,
		); err != nil {
			return nil, fmt.Errorf("failed to scan task row: %v", err)
		}

		entity.Status = projection.MapTaskStatus(statusValue)

		results = append(results, entity.Task())
	}

	return results, rows.Err()
}
