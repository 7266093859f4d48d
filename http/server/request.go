package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/gclaussn/go-bpmn-query/http/common"
	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/go-playground/validator/v10"
)

var validate = newValidate()

func newValidate() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0] // e.g. `json:"entityId,omitempty"` -> entityId
	})
	return validate
}

// decodeJSONRequestBody decodes the request body using v and validates it, if v is a struct.
// Media type, request body or validation related errors are returned as a Problem.
//
// inspired by https://www.alexedwards.net/blog/how-to-properly-parse-a-json-request-body
func decodeJSONRequestBody(w http.ResponseWriter, r *http.Request, v any) error {
	if contentType := r.Header.Get(common.HeaderContentType); contentType != "" {
		mediaType := strings.TrimSpace(strings.Split(contentType, ";")[0])
		if mediaType != common.ContentTypeJson {
			return common.Problem{
				Status: http.StatusUnsupportedMediaType,
				Type:   common.ProblemHttpMediaType,
				Title:  "unsupported media type",
				Detail: fmt.Sprintf("media type %s is not supported", mediaType),
			}
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, 8388608) // 8mb = 8 * 1024 * 1024

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(v); err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError

		problem := common.Problem{
			Status: http.StatusBadRequest,
			Type:   common.ProblemHttpRequestBody,
			Title:  "invalid request body",
		}

		switch {
		case errors.As(err, &syntaxError):
			problem.Detail = fmt.Sprintf("malformed JSON at position %d", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			problem.Detail = "unexpected end of JSON"
		case errors.As(err, &unmarshalTypeError):
			problem.Detail = fmt.Sprintf("JSON field %s has an invalid value at position %d", unmarshalTypeError.Field, unmarshalTypeError.Offset)
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			problem.Detail = fmt.Sprintf("unknown JSON field %s", fieldName)
		case errors.Is(err, io.EOF):
			problem.Detail = "request body is empty"
		case err.Error() == "http: request body too large":
			problem.Detail = "request body size must not exceed 8MB"
		default:
			problem.Detail = fmt.Sprintf("failed to unmarshal JSON: %v", err)
		}

		return problem
	}

	if reflect.Indirect(reflect.ValueOf(v)).Kind() != reflect.Struct {
		return nil
	}

	if err := validate.Struct(v); err != nil {
		errors := make([]common.Error, 0)
		for _, fieldError := range err.(validator.ValidationErrors) {
			var (
				detail string
				value  string
			)
			switch fieldError.Tag() {
			case "gte":
				detail = fmt.Sprintf("must be greater than or equal to %s", fieldError.Param())
				value = fmt.Sprintf("%v", fieldError.Value())
			case "required":
				detail = "is required"
			default:
				detail = "unknown error"
				value = fmt.Sprintf("%v", fieldError.Value())
			}

			errors = append(errors, common.Error{
				Pointer: toPointer(fieldError.Namespace()),
				Type:    fieldError.Tag(),
				Detail:  detail,
				Value:   value,
			})
		}

		return common.Problem{
			Status: http.StatusBadRequest,
			Type:   common.ProblemHttpRequestBody,
			Title:  "invalid request body",
			Detail: "failed to validate request body",
			Errors: errors,
		}
	}

	return nil
}

func parseKind(r *http.Request) (projection.Kind, error) {
	kindValue := r.PathValue("kind")

	kind := common.MapKindPath(kindValue)
	if kind == 0 {
		return 0, common.Problem{
			Status: http.StatusNotFound,
			Type:   common.ProblemHttpRequestUri,
			Title:  "invalid path parameter kind",
			Detail: fmt.Sprintf("kind '%s' is not supported", kindValue),
		}
	}

	return kind, nil
}

func parseQueryOptions(r *http.Request) (projection.QueryOptions, error) {
	var (
		err error

		limit  int64
		offset int64
	)

	if limitValues, ok := r.URL.Query()[common.QueryLimit]; ok {
		limit, err = strconv.ParseInt(limitValues[0], 10, 32)
		if err != nil {
			return projection.QueryOptions{}, common.Problem{
				Status: http.StatusBadRequest,
				Type:   common.ProblemHttpRequestUri,
				Title:  "invalid query parameter " + common.QueryLimit,
				Detail: "failed to parse value " + limitValues[0],
			}
		}
		if limit < 0 {
			return projection.QueryOptions{}, common.Problem{
				Status: http.StatusBadRequest,
				Type:   common.ProblemValidation,
				Title:  "invalid query parameter " + common.QueryLimit,
				Detail: fmt.Sprintf("%s %d must be greater than or equal to 0", common.QueryLimit, limit),
			}
		}
	}

	if offsetValues, ok := r.URL.Query()[common.QueryOffset]; ok {
		offset, err = strconv.ParseInt(offsetValues[0], 10, 32)
		if err != nil {
			return projection.QueryOptions{}, common.Problem{
				Status: http.StatusBadRequest,
				Type:   common.ProblemHttpRequestUri,
				Title:  "invalid query parameter " + common.QueryOffset,
				Detail: "failed to parse value " + offsetValues[0],
			}
		}
		if offset < 0 {
			return projection.QueryOptions{}, common.Problem{
				Status: http.StatusBadRequest,
				Type:   common.ProblemValidation,
				Title:  "invalid query parameter " + common.QueryOffset,
				Detail: fmt.Sprintf("%s %d must be greater than or equal to 0", common.QueryOffset, offset),
			}
		}
	}

	return projection.QueryOptions{
		Limit:  int(limit),
		Offset: int(offset),
	}, nil
}

// toPointer converts the namespace of a validation error into a JSON pointer.
// e.g. "ConsumeReq.events[1].id" -> "#/events/1/id"
func toPointer(namespace string) string {
	var (
		pointerBuilder strings.Builder
		next           rune
	)
	for _, r := range namespace {
		if pointerBuilder.Len() == 0 {
			// skip until first dot
			if r == '.' {
				pointerBuilder.WriteString("#/")
			}
			continue
		}

		switch r {
		case '.':
			if next != '/' {
				next = '/'
			} else {
				next = '.'
			}
		case '[':
			next = '/'
		case ']':
			continue
		default:
			next = r
		}

		pointerBuilder.WriteRune(next)
	}
	return pointerBuilder.String()
}
