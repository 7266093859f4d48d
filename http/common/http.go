package common

import (
	"strings"

	"github.com/gclaussn/go-bpmn-query/projection"
)

const (
	ContentTypeJson        = "application/json"
	ContentTypeProblemJson = "application/problem+json"

	HeaderAuthorization = "Authorization"
	HeaderContentType   = "Content-Type"

	PathEvents = "/events"

	PathKind      = "/{kind}"
	PathKindId    = "/{kind}/{id}"
	PathKindQuery = "/{kind}/query"

	PathMetrics   = "/metrics"
	PathReadiness = "/readiness"

	QueryLimit  = "limit"
	QueryOffset = "offset"
)

var kindPaths = map[projection.Kind]string{
	projection.KindApplication:        "applications",
	projection.KindAuditEvent:         "audit-events",
	projection.KindBPMNActivity:       "bpmn-activities",
	projection.KindBPMNSequenceFlow:   "bpmn-sequence-flows",
	projection.KindCandidateGroup:     "candidate-groups",
	projection.KindCandidateUser:      "candidate-users",
	projection.KindIntegrationContext: "integration-contexts",
	projection.KindProcessDefinition:  "process-definitions",
	projection.KindProcessInstance:    "process-instances",
	projection.KindProcessModel:       "process-models",
	projection.KindProcessVariable:    "process-variables",
	projection.KindTask:               "tasks",
	projection.KindTaskVariable:       "task-variables",
}

// KindPath returns the path segment of an entity kind - e.g. "process-instances" for [projection.KindProcessInstance].
func KindPath(kind projection.Kind) string {
	return kindPaths[kind]
}

// MapKindPath maps a path segment to an entity kind.
// Besides the plural path segment, the singular kind name is accepted.
func MapKindPath(s string) projection.Kind {
	for kind, path := range kindPaths {
		if path == s {
			return kind
		}
	}
	return projection.MapKind(s)
}

// ResolveKind resolves the {kind} and {id} parameters of a path.
func ResolveKind(path string, kind projection.Kind, id string) string {
	path = strings.Replace(path, "{kind}", KindPath(kind), 1)
	return strings.Replace(path, "{id}", id, 1)
}
