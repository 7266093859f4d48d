package pg

import (
	"context"
	"fmt"

	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/gclaussn/go-bpmn-query/projection/internal"
	"github.com/jackc/pgx/v5"
)

type candidateRepository struct {
	tx    pgx.Tx
	txCtx context.Context

	table string
	user  bool // determines if the repository manages candidate users or candidate groups
}

func (r candidateRepository) Delete(entity *internal.CandidateEntity) error {
	if _, err := r.tx.Exec(r.txCtx, fmt.Sprintf(`
DELETE FROM
	%s
WHERE
	task_id IS NOT DISTINCT FROM $1 AND
	process_definition_id IS NOT DISTINCT FROM $2 AND
	principal_id = $3
`, r.table),
		entity.TaskId,
		entity.ProcessDefinitionId,
		entity.PrincipalId,
	); err != nil {
		return fmt.Errorf("failed to delete %s %+v: %v", r.table, entity, err)
	}

	return nil
}

func (r candidateRepository) DeleteAll() error {
	if _, err := r.tx.Exec(r.txCtx, "DELETE FROM "+r.table); err != nil {
		return fmt.Errorf("failed to delete %s: %v", r.table, err)
	}
	return nil
}

func (r candidateRepository) Exists(entity *internal.CandidateEntity) (bool, error) {
	row := r.tx.QueryRow(r.txCtx, fmt.Sprintf(`
SELECT EXISTS (
	SELECT
		1
	FROM
		%s
	WHERE
		task_id IS NOT DISTINCT FROM $1 AND
		process_definition_id IS NOT DISTINCT FROM $2 AND
		principal_id = $3
)
`, r.table),
		entity.TaskId,
		entity.ProcessDefinitionId,
		entity.PrincipalId,
	)

	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to select %s %+v: %v", r.table, entity, err)
	}

	return exists, nil
}

func (r candidateRepository) Insert(entity *internal.CandidateEntity) error {
	if _, err := r.tx.Exec(r.txCtx, fmt.Sprintf(`
INSERT INTO %s (
	task_id,
	process_definition_id,

	principal_id
) VALUES (
	$1,
	$2,

	$3
)
`, r.table),
		entity.TaskId,
		entity.ProcessDefinitionId,

		entity.PrincipalId,
	); err != nil {
		return fmt.Errorf("failed to insert %s %+v: %v", r.table, entity, err)
	}

	return nil
}

func (r candidateRepository) Query(query internal.CandidateQuery, options projection.QueryOptions) ([]any, error) {
	sql, err := executeSqlTemplate(sqlCandidateQuery, map[string]any{
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
		var entity internal.CandidateEntity

		if err := rows.Scan(
			&entity.TaskId,
			&entity.ProcessDefinitionId,

			&entity.PrincipalId,
		); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %v", r.table, err)
		}

		if r.user {
			results = append(results, entity.CandidateUser())
		} else {
			results = append(results, entity.CandidateGroup())
		}
	}

	return results, rows.Err()
}
