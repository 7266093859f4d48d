package common

import (
	"encoding/json"

	"github.com/gclaussn/go-bpmn-query/projection"
)

// Request of an event batch consumption.
type ConsumeReq struct {
	Events []projection.Event `json:"events" validate:"required,dive"` // Events in batch order.
}

// Response of a batch operation like the deletion of all entities of a kind.
type CountRes struct {
	Count int `json:"count" validate:"gte=0"` // The number of affected entities.
}

// Response of a query.
type QueryRes struct {
	Count   int               `json:"count" validate:"gte=0"` // Number of results.
	Results []json.RawMessage `json:"results" validate:"required"`
}

// DecodeResults decodes the raw query results into entities of a specific kind.
func (v QueryRes) DecodeResults(kind projection.Kind) ([]any, error) {
	results := make([]any, len(v.Results))
	for i, result := range v.Results {
		entity, err := DecodeEntity(kind, result)
		if err != nil {
			return nil, err
		}
		results[i] = entity
	}
	return results, nil
}

// DecodeEntity decodes a JSON encoded entity of a specific kind.
func DecodeEntity(kind projection.Kind, b []byte) (any, error) {
	switch kind {
	case projection.KindApplication:
		return decode[projection.Application](b)
	case projection.KindAuditEvent:
		return decode[projection.AuditEvent](b)
	case projection.KindBPMNActivity:
		return decode[projection.BPMNActivity](b)
	case projection.KindBPMNSequenceFlow:
		return decode[projection.BPMNSequenceFlow](b)
	case projection.KindCandidateGroup:
		return decode[projection.CandidateGroup](b)
	case projection.KindCandidateUser:
		return decode[projection.CandidateUser](b)
	case projection.KindIntegrationContext:
		return decode[projection.IntegrationContext](b)
	case projection.KindProcessDefinition:
		return decode[projection.ProcessDefinition](b)
	case projection.KindProcessInstance:
		return decode[projection.ProcessInstance](b)
	case projection.KindProcessModel:
		return decode[projection.ProcessModel](b)
	case projection.KindProcessVariable, projection.KindTaskVariable:
		return decode[projection.Variable](b)
	case projection.KindTask:
		return decode[projection.Task](b)
	default:
		var v map[string]any
		err := json.Unmarshal(b, &v)
		return v, err
	}
}

func decode[T any](b []byte) (any, error) {
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, err
	}
	return v, nil
}
