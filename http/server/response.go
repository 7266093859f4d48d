package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gclaussn/go-bpmn-query/http/common"
	"github.com/gclaussn/go-bpmn-query/projection"
	"go.uber.org/zap"
)

func (s *Server) encodeJSONProblemResponseBody(w http.ResponseWriter, r *http.Request, err error) {
	problem, ok := err.(common.Problem)
	if !ok {
		var projectionErr projection.Error
		if !errors.As(err, &projectionErr) || projectionErr.Type == 0 {
			s.logger.Error("unexpected error occurred",
				zap.String("method", r.Method),
				zap.String("uri", r.RequestURI),
				zap.Error(err),
			)

			problem = common.Problem{
				Status: http.StatusInternalServerError,
				Title:  "unexpected error occurred",
				Detail: "see server logs",
			}
		} else {
			problem = newProblem(projectionErr)
		}
	}

	w.Header().Set(common.HeaderContentType, common.ContentTypeProblemJson)
	w.WriteHeader(problem.Status)

	if err := json.NewEncoder(w).Encode(problem); err != nil {
		s.logger.Error("failed to create JSON problem response body",
			zap.String("method", r.Method),
			zap.String("uri", r.RequestURI),
			zap.Error(err),
		)
	}
}

func (s *Server) encodeJSONResponseBody(w http.ResponseWriter, r *http.Request, v any, statusCode int) {
	w.Header().Set(common.HeaderContentType, common.ContentTypeJson)
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to create JSON response body",
			zap.String("method", r.Method),
			zap.String("uri", r.RequestURI),
			zap.Error(err),
		)
	}
}

func newProblem(projectionErr projection.Error) common.Problem {
	var (
		status      int
		problemType common.ProblemType
	)

	switch projectionErr.Type {
	case projection.ErrorConflict:
		status = http.StatusConflict
		problemType = common.ProblemConflict
	case projection.ErrorNotFound:
		status = http.StatusNotFound
		problemType = common.ProblemNotFound
	case projection.ErrorQuery:
		status = http.StatusBadRequest
		problemType = common.ProblemQuery
	case projection.ErrorValidation:
		status = http.StatusBadRequest
		problemType = common.ProblemValidation
	default:
		status = http.StatusInternalServerError
	}

	errors := make([]common.Error, len(projectionErr.Causes))
	for i, cause := range projectionErr.Causes {
		errors[i] = common.Error{
			Pointer: cause.Pointer,
			Type:    cause.Type,
			Detail:  cause.Detail,
		}
	}

	return common.Problem{
		Status: status,
		Type:   problemType,
		Title:  projectionErr.Title,
		Detail: projectionErr.Detail,
		Errors: errors,
	}
}
