package pg

import (
	"context"
	"fmt"

	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/gclaussn/go-bpmn-query/projection/internal"
	"github.com/jackc/pgx/v5"
)

type applicationRepository struct {
	tx    pgx.Tx
	txCtx context.Context
}

func (r applicationRepository) DeleteAll() error {
	if _, err := r.tx.Exec(r.txCtx, "DELETE FROM application"); err != nil {
		return fmt.Errorf("failed to delete applications: %v", err)
	}
	return nil
}

func (r applicationRepository) Select(deploymentId string) (*internal.ApplicationEntity, error) {
	row := r.tx.QueryRow(r.txCtx, `
SELECT
	name,
	version
FROM
	application
WHERE
	deployment_id = $1
`, deploymentId)

	var entity internal.ApplicationEntity
	if err := row.Scan(
		&entity.Name,
		&entity.Version,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		} else {
			return nil, fmt.Errorf("failed to select application %s: %v", deploymentId, err)
		}
	}

	entity.DeploymentId = deploymentId

	return &entity, nil
}

func (r applicationRepository) Upsert(entity *internal.ApplicationEntity) error {
	if _, err := r.tx.Exec(r.txCtx, `
INSERT INTO application (
	deployment_id,

	name,
	version
) VALUES (
	$1,

	$2,
	$3
) ON CONFLICT (deployment_id) DO UPDATE SET
	name = EXCLUDED.name,
	version = EXCLUDED.version
`,
		entity.DeploymentId,

		entity.Name,
		entity.Version,
	); err != nil {
		return fmt.Errorf("failed to upsert application %+v: %v", entity, err)
	}

	return nil
}

func (r applicationRepository) Query(criteria projection.ApplicationCriteria, options projection.QueryOptions) ([]any, error) {
	sql, err := executeSqlTemplate(sqlApplicationQuery, map[string]any{
		"c": criteria,
		"o": options,
	})
	if err != nil {
		return nil, err
	}

	rows, err := r.tx.Query(r.txCtx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to execute application query: %v", err)
	}

	defer rows.Close()

	results := make([]any, 0)
	for rows.Next() {
		var entity internal.ApplicationEntity

		if err := rows.Scan(
			&entity.DeploymentId,

			&entity.Name,
			&entity.Version,
		); err != nil {
			return nil, fmt.Errorf("failed to scan application row: %v", err)
		}

		results = append(results, entity.Application())
	}

	return results, rows.Err()
}

type processDefinitionRepository struct {
	tx    pgx.Tx
	txCtx context.Context
}

func (r processDefinitionRepository) DeleteAll() error {
	if _, err := r.tx.Exec(r.txCtx, "DELETE FROM process_definition"); err != nil {
		return fmt.Errorf("failed to delete process definitions: %v", err)
	}
	return nil
}

func (r processDefinitionRepository) Select(id string) (*internal.ProcessDefinitionEntity, error) {
	row := r.tx.QueryRow(r.txCtx, `
SELECT
	category,
	description,
	form_key,
	key,
	name,
	version,

	app_name,
	app_version,
	service_name,
	service_version
FROM
	process_definition
WHERE
	id = $1
`, id)

	var entity internal.ProcessDefinitionEntity
	if err := row.Scan(
		&entity.Category,
		&entity.Description,
		&entity.FormKey,
		&entity.Key,
		&entity.Name,
		&entity.Version,

		&entity.AppName,
		&entity.AppVersion,
		&entity.ServiceName,
		&entity.ServiceVersion,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		} else {
			return nil, fmt.Errorf("failed to select process definition %s: %v", id, err)
		}
	}

	entity.Id = id

	return &entity, nil
}

func (r processDefinitionRepository) Upsert(entity *internal.ProcessDefinitionEntity) error {
	if _, err := r.tx.Exec(r.txCtx, `
INSERT INTO process_definition (
	id,

	category,
	description,
	form_key,
	key,
	name,
	version,

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
	$11
) ON CONFLICT (id) DO UPDATE SET
	category = EXCLUDED.category,
	description = EXCLUDED.description,
	form_key = EXCLUDED.form_key,
	key = EXCLUDED.key,
	name = EXCLUDED.name,
	version = EXCLUDED.version,

	app_name = EXCLUDED.app_name,
	app_version = EXCLUDED.app_version,
	service_name = EXCLUDED.service_name,
	service_version = EXCLUDED.service_version
`,
		entity.Id,

		entity.Category,
		entity.Description,
		entity.FormKey,
		entity.Key,
		entity.Name,
		entity.Version,

		entity.AppName,
		entity.AppVersion,
		entity.ServiceName,
		entity.ServiceVersion,
	); err != nil {
		return fmt.Errorf("failed to upsert process definition %+v: %v", entity, err)
	}

	return nil
}

func (r processDefinitionRepository) Query(criteria projection.ProcessDefinitionCriteria, options projection.QueryOptions) ([]any, error) {
	sql, err := executeSqlTemplate(sqlProcessDefinitionQuery, map[string]any{
		"c": criteria,
		"o": options,
	})
	if err != nil {
		return nil, err
	}

	rows, err := r.tx.Query(r.txCtx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to execute process definition query: %v", err)
	}

	defer rows.Close()

	results := make([]any, 0)
	for rows.Next() {
		var entity internal.ProcessDefinitionEntity

		if err := rows.Scan(
			&entity.Id,

			&entity.Category,
			&entity.Description,
			&entity.FormKey,
			&entity.Key,
			&entity.Name,
			&entity.Version,

			&entity.AppName,
			&entity.AppVersion,
			&entity.ServiceName,
			&entity.ServiceVersion,
		); err != nil {
			return nil, fmt.Errorf("failed to scan process definition row: %v", err)
		}

		results = append(results, entity.ProcessDefinition())
	}

	return results, rows.Err()
}

type processModelRepository struct {
	tx    pgx.Tx
	txCtx context.Context
}

func (r processModelRepository) Delete(processDefinitionId string) error {
	if _, err := r.tx.Exec(r.txCtx, "DELETE FROM process_model WHERE process_definition_id = $1", processDefinitionId); err != nil {
		return fmt.Errorf("failed to delete process model %s: %v", processDefinitionId, err)
	}
	return nil
}

func (r processModelRepository) DeleteAll() error {
	if _, err := r.tx.Exec(r.txCtx, "DELETE FROM process_model"); err != nil {
		return fmt.Errorf("failed to delete process models: %v", err)
	}
	return nil
}

func (r processModelRepository) Select(processDefinitionId string) (*internal.ProcessModelEntity, error) {
	row := r.tx.QueryRow(r.txCtx, "SELECT content FROM process_model WHERE process_definition_id = $1", processDefinitionId)

	var entity internal.ProcessModelEntity
	if err := row.Scan(&entity.Content); err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		} else {
			return nil, fmt.Errorf("failed to select process model %s: %v", processDefinitionId, err)
		}
	}

	entity.ProcessDefinitionId = processDefinitionId

	return &entity, nil
}

func (r processModelRepository) Upsert(entity *internal.ProcessModelEntity) error {
	if _, err := r.tx.Exec(r.txCtx, `
INSERT INTO process_model (
	process_definition_id,

	content
) VALUES (
	$1,

	$2
) ON CONFLICT (process_definition_id) DO UPDATE SET
	content = EXCLUDED.content
`,
		entity.ProcessDefinitionId,

		entity.Content,
	); err != nil {
		return fmt.Errorf("failed to upsert process model %s: %v", entity.ProcessDefinitionId, err)
	}

	return nil
}

func (r processModelRepository) Query(criteria projection.ProcessModelCriteria, options projection.QueryOptions) ([]any, error) {
	sql, err := executeSqlTemplate(sqlProcessModelQuery, map[string]any{
		"c": criteria,
		"o": options,
	})
	if err != nil {
		return nil, err
	}

	rows, err := r.tx.Query(r.txCtx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to execute process model query: %v", err)
	}

	defer rows.Close()

	results := make([]any, 0)
	for rows.Next() {
		var entity internal.ProcessModelEntity

		if err := rows.Scan(
			&entity.ProcessDefinitionId,

			&entity.Content,
		); err != nil {
			return nil, fmt.Errorf("failed to scan process model row: %v", err)
		}

		results = append(results, entity.ProcessModel())
	}

	return results, rows.Err()
}
