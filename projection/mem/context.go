package mem

import (
	"time"

	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/gclaussn/go-bpmn-query/projection/internal"
)

func newMemContext(options Options) (*memContext, error) {
	definitionCache, err := internal.NewDefinitionCache(options.Common.DefinitionCacheSize)
	if err != nil {
		return nil, err
	}

	ids, err := internal.NewIdGenerator(options.Common.NodeId)
	if err != nil {
		return nil, err
	}

	ctx := memContext{
		options: options,

		definitionCache: definitionCache,
		ids:             ids,
	}

	j := &ctx.journal

	ctx.applications.journal = j
	ctx.auditEvents.journal = j
	ctx.bpmnActivities.journal = j
	ctx.bpmnSequenceFlows.journal = j
	ctx.candidateGroups.journal = j
	ctx.candidateUsers.journal = j
	ctx.candidateUsers.user = true
	ctx.integrationContexts.journal = j
	ctx.processDefinitions.journal = j
	ctx.processInstances.journal = j
	ctx.processModels.journal = j
	ctx.processVariables.journal = j
	ctx.tasks.journal = j
	ctx.tasks.candidateGroups = &ctx.candidateGroups
	ctx.tasks.candidateUsers = &ctx.candidateUsers
	ctx.taskVariables.journal = j

	return &ctx, nil
}

type memContext struct {
	options Options

	time time.Time

	journal journal

	definitionCache *internal.DefinitionCache
	ids             *internal.IdGenerator

	applications        applicationRepository
	auditEvents         auditEventRepository
	bpmnActivities      bpmnActivityRepository
	bpmnSequenceFlows   bpmnSequenceFlowRepository
	candidateGroups     candidateRepository
	candidateUsers      candidateRepository
	integrationContexts integrationContextRepository
	processDefinitions  processDefinitionRepository
	processInstances    processInstanceRepository
	processModels       processModelRepository
	processVariables    variableRepository
	tasks               taskRepository
	taskVariables       variableRepository
}

func (c *memContext) Options() projection.Options {
	return c.options.Common
}

func (c *memContext) Time() time.Time {
	return c.time
}

func (c *memContext) Applications() internal.ApplicationRepository {
	return &c.applications
}

func (c *memContext) AuditEvents() internal.AuditEventRepository {
	return &c.auditEvents
}

func (c *memContext) BPMNActivities() internal.BPMNActivityRepository {
	return &c.bpmnActivities
}

func (c *memContext) BPMNSequenceFlows() internal.BPMNSequenceFlowRepository {
	return &c.bpmnSequenceFlows
}

func (c *memContext) CandidateGroups() internal.CandidateRepository {
	return &c.candidateGroups
}

func (c *memContext) CandidateUsers() internal.CandidateRepository {
	return &c.candidateUsers
}

func (c *memContext) DefinitionCache() *internal.DefinitionCache {
	return c.definitionCache
}

// EvictDefinitions evicts immediately, since readers never observe uncommitted changes of a mem store.
func (c *memContext) EvictDefinitions(ids ...string) {
	if len(ids) == 0 {
		c.definitionCache.Clear()
	}
	for _, id := range ids {
		c.definitionCache.Evict(id)
	}
}

func (c *memContext) Ids() *internal.IdGenerator {
	return c.ids
}

func (c *memContext) IntegrationContexts() internal.IntegrationContextRepository {
	return &c.integrationContexts
}

func (c *memContext) ProcessDefinitions() internal.ProcessDefinitionRepository {
	return &c.processDefinitions
}

func (c *memContext) ProcessInstances() internal.ProcessInstanceRepository {
	return &c.processInstances
}

func (c *memContext) ProcessModels() internal.ProcessModelRepository {
	return &c.processModels
}

func (c *memContext) ProcessVariables() internal.VariableRepository {
	return &c.processVariables
}

func (c *memContext) Tasks() internal.TaskRepository {
	return &c.tasks
}

func (c *memContext) TaskVariables() internal.VariableRepository {
	return &c.taskVariables
}

// begin starts recording changes, so that they can be rolled back.
func (c *memContext) begin() {
	c.journal.begin()
}

func (c *memContext) commit() {
	c.journal.end()
}

// rollback reverts all changes, recorded since begin.
func (c *memContext) rollback() {
	c.journal.undo()
	c.definitionCache.Clear()
}

func (c *memContext) clear() {
	c.definitionCache.Clear()

	c.applications.entities = nil
	c.auditEvents.entities = nil
	c.bpmnActivities.entities = nil
	c.bpmnSequenceFlows.entities = nil
	c.candidateGroups.entities = nil
	c.candidateUsers.entities = nil
	c.integrationContexts.entities = nil
	c.processDefinitions.entities = nil
	c.processInstances.entities = nil
	c.processModels.entities = nil
	c.processVariables.entities = nil
	c.tasks.entities = nil
	c.taskVariables.entities = nil
}
