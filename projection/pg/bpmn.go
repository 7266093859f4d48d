package pg

import (
	"context"
	"fmt"

	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/gclaussn/go-bpmn-query/projection/internal"
	"github.com/jackc/pgx/v5"
)

const sqlBPMNActivityColumns = `
	id,

	element_id,
	execution_id,
	process_instance_id,

	process_definition_id,
	process_definition_key,
	process_definition_version,
	business_key,

	activity_name,
	activity_type,
	cancelled_date,
	completed_date,
	started_date,
	status
`

type bpmnActivityRepository struct {
	tx    pgx.Tx
	txCtx context.Context
}

func (r bpmnActivityRepository) DeleteAll() error {
	if _, err := r.tx.Exec(r.txCtx, "DELETE FROM bpmn_activity"); err != nil {
		return fmt.Errorf("failed to delete BPMN activities: %v", err)
	}
	return nil
}

func (r bpmnActivityRepository) Insert(entity *internal.BPMNActivityEntity) error {
	if _, err := r.tx.Exec(r.txCtx, `
INSERT INTO bpmn_activity (`+sqlBPMNActivityColumns+`) VALUES (
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
	$14
)
`,
		entity.Id,

		entity.ElementId,
		entity.ExecutionId,
		entity.ProcessInstanceId,

		entity.ProcessDefinitionId,
		entity.ProcessDefinitionKey,
		entity.ProcessDefinitionVersion,
		entity.BusinessKey,

		entity.ActivityName,
		entity.ActivityType,
		entity.CancelledDate,
		entity.CompletedDate,
		entity.StartedDate,
		entity.Status.String(),
	); err != nil {
		return fmt.Errorf("failed to insert BPMN activity %+v: %v", entity, err)
	}

	return nil
}

func (r bpmnActivityRepository) Select(id string) (*internal.BPMNActivityEntity, error) {
	row := r.tx.QueryRow(r.txCtx, `
SELECT`+sqlBPMNActivityColumns+`FROM
	bpmn_activity
WHERE
	id = $1
FOR UPDATE
`, id)

	entity, err := scanBPMNActivity(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		} else {
			return nil, fmt.Errorf("failed to select BPMN activity %s: %v", id, err)
		}
	}

	return entity, nil
}

func (r bpmnActivityRepository) SelectLatest(processInstanceId string, elementId string) (*internal.BPMNActivityEntity, error) {
	row := r.tx.QueryRow(r.txCtx, `
SELECT`+sqlBPMNActivityColumns+`FROM
	bpmn_activity
WHERE
	process_instance_id = $1 AND
	element_id = $2
ORDER BY
	pos DESC
LIMIT 1
FOR UPDATE
`, processInstanceId, elementId)

	entity, err := scanBPMNActivity(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		} else {
			return nil, fmt.Errorf("failed to select latest BPMN activity %s/%s: %v", processInstanceId, elementId, err)
		}
	}

	return entity, nil
}

func (r bpmnActivityRepository) Update(entity *internal.BPMNActivityEntity) error {
	if _, err := r.tx.Exec(r.txCtx, `
UPDATE
	bpmn_activity
SET
	execution_id = $2,

	activity_name = $3,
	activity_type = $4,
	cancelled_date = $5,
	completed_date = $6,
	status = $7
WHERE
	id = $1
`,
		entity.Id,

		entity.ExecutionId,

		entity.ActivityName,
		entity.ActivityType,
		entity.CancelledDate,
		entity.CompletedDate,
		entity.Status.String(),
	); err != nil {
		return fmt.Errorf("failed to update BPMN activity %+v: %v", entity, err)
	}

	return nil
}

func (r bpmnActivityRepository) Query(criteria projection.BPMNActivityCriteria, options projection.QueryOptions) ([]any, error) {
	sql, err := executeSqlTemplate(sqlBPMNActivityQuery, map[string]any{
		"c": criteria,
		"o": options,
	})
	if err != nil {
		return nil, err
	}

	rows, err := r.tx.Query(r.txCtx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to execute BPMN activity query: %v", err)
	}

	defer rows.Close()

	results := make([]any, 0)
	for rows.Next() {
		entity, err := scanBPMNActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan BPMN activity row: %v", err)
		}

		results = append(results, entity.BPMNActivity())
	}

	return results, rows.Err()
}

func scanBPMNActivity(row pgx.Row) (*internal.BPMNActivityEntity, error) {
	var statusValue string

	var entity internal.BPMNActivityEntity
	if err := row.Scan(
		&entity.Id,

		&entity.ElementId,
		&entity.ExecutionId,
		&entity.ProcessInstanceId,

		&entity.ProcessDefinitionId,
		&entity.ProcessDefinitionKey,
		&entity.ProcessDefinitionVersion,
		&entity.BusinessKey,

		&entity.ActivityName,
		&entity.ActivityType,
		&entity.CancelledDate,
		&entity.CompletedDate,
		&entity.StartedDate,
		&statusValue,
	); err != nil {
		return nil, err
	}

	entity.Status = projection.MapBPMNActivityStatus(statusValue)

	return &entity, nil
}

type bpmnSequenceFlowRepository struct {
	tx    pgx.Tx
	txCtx context.Context
}

func (r bpmnSequenceFlowRepository) DeleteAll() error {
	if _, err := r.tx.Exec(r.txCtx, "DELETE FROM bpmn_sequence_flow"); err != nil {
		return fmt.Errorf("failed to delete BPMN sequence flows: %v", err)
	}
	return nil
}

func (r bpmnSequenceFlowRepository) Insert(entity *internal.BPMNSequenceFlowEntity) error {
	if _, err := r.tx.Exec(r.txCtx, `
INSERT INTO bpmn_sequence_flow (
	id,

	element_id,
	process_instance_id,

	process_definition_id,
	process_definition_key,
	process_definition_version,
	business_key,

	source_activity_element_id,
	source_activity_name,
	source_activity_type,
	target_activity_element_id,
	target_activity_name,
	target_activity_type,
	date
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
	$14
)
`,
		entity.Id,

		entity.ElementId,
		entity.ProcessInstanceId,

		entity.ProcessDefinitionId,
		entity.ProcessDefinitionKey,
		entity.ProcessDefinitionVersion,
		entity.BusinessKey,

		entity.SourceActivityElementId,
		entity.SourceActivityName,
		entity.SourceActivityType,
		entity.TargetActivityElementId,
		entity.TargetActivityName,
		entity.TargetActivityType,
		entity.Date,
	); err != nil {
		return fmt.Errorf("failed to insert BPMN sequence flow %+v: %v", entity, err)
	}

	return nil
}

func (r bpmnSequenceFlowRepository) Select(id string) (*internal.BPMNSequenceFlowEntity, error) {
	row := r.tx.QueryRow(r.txCtx, `
SELECT
	id,

	element_id,
	process_instance_id,

	process_definition_id,
	process_definition_key,
	process_definition_version,
	business_key,

	source_activity_element_id,
	source_activity_name,
	source_activity_type,
	target_activity_element_id,
	target_activity_name,
	target_activity_type,
	date
FROM
	bpmn_sequence_flow
WHERE
	id = $1
`, id)

	entity, err := scanBPMNSequenceFlow(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		} else {
			return nil, fmt.Errorf("failed to select BPMN sequence flow %s: %v", id, err)
		}
	}

	return entity, nil
}

func (r bpmnSequenceFlowRepository) Query(criteria projection.BPMNSequenceFlowCriteria, options projection.QueryOptions) ([]any, error) {
	sql, err := executeSqlTemplate(sqlBPMNSequenceFlowQuery, map[string]any{
		"c": criteria,
		"o": options,
	})
	if err != nil {
		return nil, err
	}

	rows, err := r.tx.Query(r.txCtx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to execute BPMN sequence flow query: %v", err)
	}

	defer rows.Close()

	results := make([]any, 0)
	for rows.Next() {
		entity, err := scanBPMNSequenceFlow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan BPMN sequence flow row: %v", err)
		}

		results = append(results, entity.BPMNSequenceFlow())
	}

	return results, rows.Err()
}

func scanBPMNSequenceFlow(row pgx.Row) (*internal.BPMNSequenceFlowEntity, error) {
	var entity internal.BPMNSequenceFlowEntity
	if err := row.Scan(
		&entity.Id,

		&entity.ElementId,
		&entity.ProcessInstanceId,

		&entity.ProcessDefinitionId,
		&entity.ProcessDefinitionKey,
		&entity.ProcessDefinitionVersion,
		&entity.BusinessKey,

		&entity.SourceActivityElementId,
		&entity.SourceActivityName,
		&entity.SourceActivityType,
		&entity.TargetActivityElementId,
		&entity.TargetActivityName,
		&entity.TargetActivityType,
		&entity.Date,
	); err != nil {
		return nil, err
	}
	return &entity, nil
}
