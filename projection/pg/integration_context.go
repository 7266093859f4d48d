package pg

import (
	"context"
	"fmt"

	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/gclaussn/go-bpmn-query/projection/internal"
	"github.com/jackc/pgx/v5"
)

const sqlIntegrationContextColumns = `
	id,

	client_id,
	execution_id,
	process_instance_id,

	process_definition_id,
	process_definition_key,
	process_definition_version,
	business_key,

	client_name,
	client_type,
	connector_type,
	error_class_name,
	error_code,
	error_date,
	error_message,
	in_bound_variables,
	out_bound_variables,
	request_date,
	result_date,
	stack_trace_elements,
	status
`

type integrationContextRepository struct {
	tx    pgx.Tx
	txCtx context.Context
}

func (r integrationContextRepository) DeleteAll() error {
	if _, err := r.tx.Exec(r.txCtx, "DELETE FROM integration_context"); err != nil {
		return fmt.Errorf("failed to delete integration contexts: %v", err)
	}
	return nil
}

func (r integrationContextRepository) Insert(entity *internal.IntegrationContextEntity) error {
	if _, err := r.tx.Exec(r.txCtx, `
INSERT INTO integration_context (`+sqlIntegrationContextColumns+`) VALUES (
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

		entity.ClientId,
		entity.ExecutionId,
		entity.ProcessInstanceId,

		entity.ProcessDefinitionId,
		entity.ProcessDefinitionKey,
		entity.ProcessDefinitionVersion,
		entity.BusinessKey,

		entity.ClientName,
		entity.ClientType,
		entity.ConnectorType,
		entity.ErrorClassName,
		entity.ErrorCode,
		entity.ErrorDate,
		entity.ErrorMessage,
		entity.InBoundVariables,
		entity.OutBoundVariables,
		entity.RequestDate,
		entity.ResultDate,
		entity.StackTraceElements,
		entity.Status.String(),
	); err != nil {
		return fmt.Errorf("failed to insert integration context %+v: %v", entity, err)
	}

	return nil
}

func (r integrationContextRepository) Select(id string) (*internal.IntegrationContextEntity, error) {
	row := r.tx.QueryRow(r.txCtx, `
SELECT`+sqlIntegrationContextColumns+`FROM
	integration_context
WHERE
	id = $1
FOR UPDATE
`, id)

	entity, err := scanIntegrationContext(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		} else {
			return nil, fmt.Errorf("failed to select integration context %s: %v", id, err)
		}
	}

	return entity, nil
}

func (r integrationContextRepository) SelectByExecution(executionId string, clientId string) (*internal.IntegrationContextEntity, error) {
	row := r.tx.QueryRow(r.txCtx, `
SELECT`+sqlIntegrationContextColumns+`FROM
	integration_context
WHERE
	execution_id = $1 AND
	client_id = $2
FOR UPDATE
`, executionId, clientId)

	entity, err := scanIntegrationContext(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		} else {
			return nil, fmt.Errorf("failed to select integration context %s/%s: %v", executionId, clientId, err)
		}
	}

	return entity, nil
}

func (r integrationContextRepository) Update(entity *internal.IntegrationContextEntity) error {
	if _, err := r.tx.Exec(r.txCtx, `
UPDATE
	integration_context
SET
	process_instance_id = $2,

	process_definition_id = $3,
	process_definition_key = $4,
	process_definition_version = $5,
	business_key = $6,

	client_name = $7,
	client_type = $8,
	connector_type = $9,
	error_class_name = $10,
	error_code = $11,
	error_date = $12,
	error_message = $13,
	in_bound_variables = $14,
	out_bound_variables = $15,
	request_date = $16,
	result_date = $17,
	stack_trace_elements = $18,
	status = $19
WHERE
	id = $1
`,
		entity.Id,

		entity.ProcessInstanceId,

		entity.ProcessDefinitionId,
		entity.ProcessDefinitionKey,
		entity.ProcessDefinitionVersion,
		entity.BusinessKey,

		entity.ClientName,
		entity.ClientType,
		entity.ConnectorType,
		entity.ErrorClassName,
		entity.ErrorCode,
		entity.ErrorDate,
		entity.ErrorMessage,
		entity.InBoundVariables,
		entity.OutBoundVariables,
		entity.RequestDate,
		entity.ResultDate,
		entity.StackTraceElements,
		entity.Status.String(),
	); err != nil {
		return fmt.Errorf("failed to update integration context %+v: %v", entity, err)
	}

	return nil
}

func (r integrationContextRepository) Query(criteria projection.IntegrationContextCriteria, options projection.QueryOptions) ([]any, error) {
	sql, err := executeSqlTemplate(sqlIntegrationContextQuery, map[string]any{
		"c": criteria,
		"o": options,
	})
	if err != nil {
		return nil, err
	}

	rows, err := r.tx.Query(r.txCtx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to execute integration context query: %v", err)
	}

	defer rows.Close()

	results := make([]any, 0)
	for rows.Next() {
		entity, err := scanIntegrationContext(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan integration context row: %v", err)
		}

		results = append(results, entity.IntegrationContext())
	}

	return results, rows.Err()
}

func scanIntegrationContext(row pgx.Row) (*internal.IntegrationContextEntity, error) {
	var statusValue string

	var entity internal.IntegrationContextEntity
	if err := row.Scan(
		&entity.Id,

		&entity.ClientId,
		&entity.ExecutionId,
		&entity.ProcessInstanceId,

		&entity.ProcessDefinitionId,
		&entity.ProcessDefinitionKey,
		&entity.ProcessDefinitionVersion,
		&entity.BusinessKey,

		&entity.ClientName,
		&entity.ClientType,
		&entity.ConnectorType,
		&entity.ErrorClassName,
		&entity.ErrorCode,
		&entity.ErrorDate,
		&entity.ErrorMessage,
		&entity.InBoundVariables,
		&entity.OutBoundVariables,
		&entity.RequestDate,
		&entity.ResultDate,
		&entity.StackTraceElements,
		&statusValue,
	); err != nil {
		return nil, err
	}

	entity.Status = projection.MapIntegrationContextStatus(statusValue)

	return &entity, nil
}
