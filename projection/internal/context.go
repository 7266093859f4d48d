package internal

import (
	"time"

	"github.com/gclaussn/go-bpmn-query/projection"
)

type Context interface {
	Options() projection.Options

	// Time returns the store's current time, which is UTC and truncated to millis.
	Time() time.Time

	Applications() ApplicationRepository
	AuditEvents() AuditEventRepository
	BPMNActivities() BPMNActivityRepository
	BPMNSequenceFlows() BPMNSequenceFlowRepository
	CandidateGroups() CandidateRepository
	CandidateUsers() CandidateRepository
	DefinitionCache() *DefinitionCache
	// EvictDefinitions evicts the given process definitions or all, if no ID is given, from the definition cache, once the
	// context's changes are committed.
	EvictDefinitions(ids ...string)
	Ids() *IdGenerator
	IntegrationContexts() IntegrationContextRepository
	ProcessDefinitions() ProcessDefinitionRepository
	ProcessInstances() ProcessInstanceRepository
	ProcessModels() ProcessModelRepository
	ProcessVariables() VariableRepository
	Tasks() TaskRepository
	TaskVariables() VariableRepository
}
