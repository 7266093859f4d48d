package pg

import (
	"context"
	"time"

	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/gclaussn/go-bpmn-query/projection/internal"
	"github.com/jackc/pgx/v5"
)

type pgContext struct {
	options Options

	time time.Time

	tx    pgx.Tx
	txCtx context.Context

	definitionCache *internal.DefinitionCache
	evictions       []string // process definitions to evict after commit
	evictAll        bool     // evict all process definitions after commit
	ids             *internal.IdGenerator
}

func (c *pgContext) Options() projection.Options {
	return c.options.Common
}

func (c *pgContext) Time() time.Time {
	return c.time
}

func (c *pgContext) Applications() internal.ApplicationRepository {
	return &applicationRepository{tx: c.tx, txCtx: c.txCtx}
}

func (c *pgContext) AuditEvents() internal.AuditEventRepository {
	return &auditEventRepository{tx: c.tx, txCtx: c.txCtx}
}

func (c *pgContext) BPMNActivities() internal.BPMNActivityRepository {
	return &bpmnActivityRepository{tx: c.tx, txCtx: c.txCtx}
}

func (c *pgContext) BPMNSequenceFlows() internal.BPMNSequenceFlowRepository {
	return &bpmnSequenceFlowRepository{tx: c.tx, txCtx: c.txCtx}
}

func (c *pgContext) CandidateGroups() internal.CandidateRepository {
	return &candidateRepository{tx: c.tx, txCtx: c.txCtx, table: "candidate_group"}
}

func (c *pgContext) CandidateUsers() internal.CandidateRepository {
	return &candidateRepository{tx: c.tx, txCtx: c.txCtx, table: "candidate_user", user: true}
}

func (c *pgContext) DefinitionCache() *internal.DefinitionCache {
	return c.definitionCache
}

func (c *pgContext) EvictDefinitions(ids ...string) {
	if len(ids) == 0 {
		c.evictAll = true
	}
	c.evictions = append(c.evictions, ids...)
}

// evictDefinitions applies the pending evictions of a committed transaction.
func (c *pgContext) evictDefinitions() {
	if c.evictAll {
		c.definitionCache.Clear()
	}
	for _, id := range c.evictions {
		c.definitionCache.Evict(id)
	}
}

func (c *pgContext) Ids() *internal.IdGenerator {
	return c.ids
}

func (c *pgContext) IntegrationContexts() internal.IntegrationContextRepository {
	return &integrationContextRepository{tx: c.tx, txCtx: c.txCtx}
}

func (c *pgContext) ProcessDefinitions() internal.ProcessDefinitionRepository {
	return &processDefinitionRepository{tx: c.tx, txCtx: c.txCtx}
}

func (c *pgContext) ProcessInstances() internal.ProcessInstanceRepository {
	return &processInstanceRepository{tx: c.tx, txCtx: c.txCtx}
}

func (c *pgContext) ProcessModels() internal.ProcessModelRepository {
	return &processModelRepository{tx: c.tx, txCtx: c.txCtx}
}

func (c *pgContext) ProcessVariables() internal.VariableRepository {
	return &variableRepository{tx: c.tx, txCtx: c.txCtx, table: "process_variable", scopeColumn: "process_instance_id"}
}

func (c *pgContext) Tasks() internal.TaskRepository {
	return &taskRepository{tx: c.tx, txCtx: c.txCtx}
}

func (c *pgContext) TaskVariables() internal.VariableRepository {
	return &variableRepository{tx: c.tx, txCtx: c.txCtx, table: "task_variable", scopeColumn: "task_id"}
}
