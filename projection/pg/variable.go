package pg

import (
	"context"
	"fmt"

	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/gclaussn/go-bpmn-query/projection/internal"
	"github.com/jackc/pgx/v5"
)

// variableRepository manages process or task variables, which are kept in separate tables with equal columns.
type variableRepository struct {
	tx    pgx.Tx
	txCtx context.Context

	table       string
	scopeColumn string // process_instance_id or task_id
}

func (r variableRepository) DeleteAll() error {
	if _, err := r.tx.Exec(r.txCtx, "DELETE FROM "+r.table); err != nil {
		return fmt.Errorf("failed to delete %s: %v", r.table, err)
	}
	return nil
}

func (r variableRepository) Insert(entity *internal.VariableEntity) error {
	if _, err := r.tx.Exec(r.txCtx, fmt.Sprintf(`
INSERT INTO %s (
	id,

	process_instance_id,
	task_id,

	created_at,
	last_updated_time,
	marked_as_deleted,
	name,
	type,
	value,

	app_name,
	service_name
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
	$11
)
`, r.table),
		entity.Id,

		entity.ProcessInstanceId,
		entity.TaskId,

		entity.CreatedAt,
		entity.LastUpdatedTime,
		entity.MarkedAsDeleted,
		entity.Name,
		entity.Type,
		entity.Value,

		entity.AppName,
		entity.ServiceName,
	); err != nil {
		return fmt.Errorf("failed to insert %s %+v: %v", r.table, entity, err)
	}

	return nil
}

func (r variableRepository) Select(id string) (*internal.VariableEntity, error) {
	row := r.tx.QueryRow(r.txCtx, fmt.Sprintf(`
SELECT
	id,

	process_instance_id,
	task_id,

	created_at,
	last_updated_time,
	marked_as_deleted,
	name,
	type,
	value,

	app_name,
	service_name
FROM
	%s
WHERE
	id = $1
`, r.table), id)

	entity, err := r.scan(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		} else {
			return nil, fmt.Errorf("failed to select %s %s: %v", r.table, id, err)
		}
	}

	return entity, nil
}

func (r variableRepository) SelectLatest(scopeId string, name string) (*internal.VariableEntity, error) {
	row := r.tx.QueryRow(r.txCtx, fmt.Sprintf(`
SELECT
	id,

	process_instance_id,
	task_id,

	created_at,
	last_updated_time,
	marked_as_deleted,
	name,
	type,
	value,

	app_name,
	service_name
FROM
	%s
WHERE
	%s = $1 AND
	name = $2
ORDER BY
	pos DESC
LIMIT 1
FOR UPDATE
`, r.table, r.scopeColumn), scopeId, name)

	entity, err := r.scan(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		} else {
			return nil, fmt.Errorf("failed to select latest %s %s/%s: %v", r.table, scopeId, name, err)
		}
	}

	return entity, nil
}

func (r variableRepository) Update(entity *internal.VariableEntity) error {
	if _, err := r.tx.Exec(r.txCtx, fmt.Sprintf(`
UPDATE
	%s
SET
	last_updated_time = $2,
	marked_as_deleted = $3,
	type = $4,
	value = $5
WHERE
	id = $1
`, r.table),
		entity.Id,

		entity.LastUpdatedTime,
		entity.MarkedAsDeleted,
		entity.Type,
		entity.Value,
	); err != nil {
		return fmt.Errorf("failed to update %s %+v: %v", r.table, entity, err)
	}

	return nil
}

func (r variableRepository) Query(query internal.VariableQuery, options projection.QueryOptions) ([]any, error) {
	sql, err := executeSqlTemplate(sqlVariableQuery, map[string]any{
		"c":     query,
		"o":     options,
		"table": r.table,
	})
	if err != nil {
		return nil, err
	}

	rows, err := r.tx.Query(r.txCtx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to execute %s query: %v", r.table, err)
	}

	defer rows.Close()

	results := make([]any, 0)
	for rows.Next() {
		entity, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %v", r.table, err)
		}

		results = append(results, entity.Variable())
	}

	return results, rows.Err()
}

func (r variableRepository) scan(row pgx.Row) (*internal.VariableEntity, error) {
	var entity internal.VariableEntity
	if err := row.Scan(
		&entity.Id,

		&entity.ProcessInstanceId,
		&entity.TaskId,

		&entity.CreatedAt,
		&entity.LastUpdatedTime,
		&entity.MarkedAsDeleted,
		&entity.Name,
		&entity.Type,
		&entity.Value,

		&entity.AppName,
		&entity.ServiceName,
	); err != nil {
		return nil, err
	}
	return &entity, nil
}
