package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gclaussn/go-bpmn-query/http/common"
	"github.com/gclaussn/go-bpmn-query/projection"
)

// decodeJSONResponseBody decodes a JSON response body using v.
// Problems, which are related to a projection error, are returned as [projection.Error].
func decodeJSONResponseBody(res *http.Response, v any) error {
	defer res.Body.Close()

	decoder := json.NewDecoder(res.Body)

	contentType := res.Header.Get(common.HeaderContentType)
	if contentType == common.ContentTypeProblemJson {
		var problem common.Problem
		if err := decoder.Decode(&problem); err != nil {
			return fmt.Errorf("failed to decode JSON problem response body: %v", err)
		}

		var errorType projection.ErrorType
		switch problem.Type {
		case common.ProblemConflict:
			errorType = projection.ErrorConflict
		case common.ProblemNotFound:
			errorType = projection.ErrorNotFound
		case common.ProblemQuery:
			errorType = projection.ErrorQuery
		case common.ProblemValidation:
			errorType = projection.ErrorValidation
		default:
			return problem
		}

		causes := make([]projection.ErrorCause, len(problem.Errors))
		for i, e := range problem.Errors {
			causes[i] = projection.ErrorCause{
				Pointer: e.Pointer,
				Type:    e.Type,
				Detail:  e.Detail,
			}
		}

		return projection.Error{
			Type:   errorType,
			Title:  problem.Title,
			Detail: problem.Detail,
			Causes: causes,
		}
	}

	if res.StatusCode >= 300 {
		text := fmt.Sprintf(
			"%s %s: HTTP %d",
			res.Request.Method,
			res.Request.URL.Path,
			res.StatusCode,
		)

		b, err := io.ReadAll(res.Body)
		if err != nil {
			return fmt.Errorf("%s: %v", text, err)
		} else if len(b) != 0 {
			return fmt.Errorf("%s: %s", text, string(b))
		} else {
			return errors.New(text)
		}
	}

	if v == nil {
		return nil
	}
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("failed to decode JSON response body: %v", err)
	}

	return nil
}
