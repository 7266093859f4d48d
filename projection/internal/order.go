package internal

import (
	"slices"

	"github.com/gclaussn/go-bpmn-query/projection"
)

// ranks orders events of a batch, so that entities are created before they are changed or removed.
var ranks = map[projection.EventType]int{
	projection.EventProcessCreated:   0,
	projection.EventProcessDeployed:  0,
	projection.EventProcessStarted:   1,
	projection.EventProcessUpdated:   1,
	projection.EventProcessSuspended: 1,
	projection.EventProcessResumed:   1,

	projection.EventSequenceFlowTaken: 2,
	projection.EventActivityStarted:   3,

	projection.EventIntegrationRequested: 4,

	projection.EventActivityCompleted: 6,
	projection.EventActivityCancelled: 6,

	projection.EventIntegrationResultReceived: 7,
	projection.EventIntegrationErrorReceived:  7,

	projection.EventTaskCreated: 8,

	projection.EventTaskCandidateUserAdded:            9,
	projection.EventTaskCandidateGroupAdded:           9,
	projection.EventProcessCandidateStarterUserAdded:  9,
	projection.EventProcessCandidateStarterGroupAdded: 9,

	projection.EventVariableCreated: 10,
	projection.EventVariableUpdated: 11,
	projection.EventVariableDeleted: 12,

	projection.EventTaskActivated: 13,
	projection.EventTaskSuspended: 13,
	projection.EventTaskAssigned:  13,
	projection.EventTaskUpdated:   13,

	projection.EventTaskCompleted: 14,
	projection.EventTaskCancelled: 14,

	projection.EventTaskCandidateUserRemoved:            15,
	projection.EventTaskCandidateGroupRemoved:           15,
	projection.EventProcessCandidateStarterUserRemoved:  15,
	projection.EventProcessCandidateStarterGroupRemoved: 15,

	projection.EventProcessCompleted: 16,
	projection.EventProcessCancelled: 16,
}

// Rank returns the rank of an event type. Unrecognized event types have rank 0.
func Rank(eventType projection.EventType) int {
	return ranks[eventType]
}

// OrderBatch returns a copy of a batch, sorted by event rank.
// Events of the same rank keep their batch order.
func OrderBatch(events []projection.Event) []projection.Event {
	ordered := slices.Clone(events)
	slices.SortStableFunc(ordered, func(a, b projection.Event) int {
		return Rank(a.Type()) - Rank(b.Type())
	})
	return ordered
}
