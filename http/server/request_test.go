package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gclaussn/go-bpmn-query/http/common"
	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/stretchr/testify/assert"
)

func TestDecodeJSONRequestBody(t *testing.T) {
	assert := assert.New(t)

	validJson := `
	{
		"events": [
			{"id": "e1", "timestamp": 1735689600000, "eventType": "PROCESS_CREATED", "entity": {"id": "P1"}, "processInstanceId": "P1"},
			{"id": "e2", "timestamp": 1735689660000, "eventType": "PROCESS_STARTED", "entity": {"id": "P1"}, "processInstanceId": "P1"}
		]
	}
	`

	invalidJson := `
	{
		"events": [
			{"id": "e1", "timestamp": 1735689600000, "eventType": "PROCESS_CREATED"},
			{"id": "", "timestamp": -1, "eventType": ""}
		]
	}
	`

	t.Run("unsupported media type", func(t *testing.T) {
		var body common.ConsumeReq

		w := httptest.NewRecorder()
		r := httptest.NewRequest("", "/", strings.NewReader(validJson))
		r.Header.Add(common.HeaderContentType, "text/plain")

		err := decodeJSONRequestBody(w, r, &body)
		assertProblem(t, err, common.ProblemHttpMediaType, http.StatusUnsupportedMediaType)
		assert.Contains(err.Error(), "text/plain")
	})

	t.Run("request body is empty", func(t *testing.T) {
		var body common.ConsumeReq

		w := httptest.NewRecorder()
		r := httptest.NewRequest("", "/", strings.NewReader(""))

		err := decodeJSONRequestBody(w, r, &body)
		assertProblem(t, err, common.ProblemHttpRequestBody, http.StatusBadRequest)
		assert.Contains(err.Error(), "request body is empty")
	})

	t.Run("request body too large", func(t *testing.T) {
		var body map[string]string

		var jsonBuilder strings.Builder
		jsonBuilder.WriteString(`{"name":"`)
		jsonBuilder.WriteString(strings.Repeat("x", 1024*1024*9))
		jsonBuilder.WriteString(`"}`)

		b := []byte(jsonBuilder.String())

		w := httptest.NewRecorder()
		r := httptest.NewRequest("", "/", bytes.NewReader(b))

		err := decodeJSONRequestBody(w, r, &body)
		assertProblem(t, err, common.ProblemHttpRequestBody, http.StatusBadRequest)
		assert.Contains(err.Error(), "8MB")
	})

	t.Run("malformed JSON", func(t *testing.T) {
		var body common.ConsumeReq

		w := httptest.NewRecorder()
		r := httptest.NewRequest("", "/", strings.NewReader("{_}"))

		err := decodeJSONRequestBody(w, r, &body)
		assertProblem(t, err, common.ProblemHttpRequestBody, http.StatusBadRequest)
		assert.Contains(err.Error(), "at position 2")
	})

	t.Run("unexpected end of JSON", func(t *testing.T) {
		var body common.ConsumeReq

		w := httptest.NewRecorder()
		r := httptest.NewRequest("", "/", strings.NewReader("{"))

		err := decodeJSONRequestBody(w, r, &body)
		assertProblem(t, err, common.ProblemHttpRequestBody, http.StatusBadRequest)
		assert.Contains(err.Error(), "unexpected end of JSON")
	})

	t.Run("invalid JSON field", func(t *testing.T) {
		var body common.ConsumeReq

		w := httptest.NewRecorder()
		r := httptest.NewRequest("", "/", strings.NewReader(`{"events":1}`))

		err := decodeJSONRequestBody(w, r, &body)
		assertProblem(t, err, common.ProblemHttpRequestBody, http.StatusBadRequest)
		assert.Contains(err.Error(), "JSON field events has an invalid value")
	})

	t.Run("unknown JSON field", func(t *testing.T) {
		var body common.ConsumeReq

		w := httptest.NewRecorder()
		r := httptest.NewRequest("", "/", strings.NewReader(`{"unknown":-1}`))

		err := decodeJSONRequestBody(w, r, &body)
		assertProblem(t, err, common.ProblemHttpRequestBody, http.StatusBadRequest)
		assert.Contains(err.Error(), `unknown JSON field "unknown"`)
	})

	t.Run("valid JSON", func(t *testing.T) {
		var body common.ConsumeReq

		w := httptest.NewRecorder()
		r := httptest.NewRequest("", "/", strings.NewReader(validJson))

		err := decodeJSONRequestBody(w, r, &body)
		assert.Nil(err)

		assert.Len(body.Events, 2)
		assert.Equal("e1", body.Events[0].Id)
		assert.Equal(projection.EventProcessCreated, body.Events[0].Type())
		assert.Equal("P1", body.Events[0].AggregateId())
		assert.JSONEq(`{"id": "P1"}`, string(body.Events[0].Entity))
		assert.Equal(int64(1735689660000), body.Events[1].Timestamp)
	})

	t.Run("valid filter map", func(t *testing.T) {
		var filters map[string]string

		w := httptest.NewRecorder()
		r := httptest.NewRequest("", "/", strings.NewReader(`{"status": "RUNNING", "name": "a"}`))

		err := decodeJSONRequestBody(w, r, &filters)
		assert.Nil(err)
		assert.Equal(map[string]string{"status": "RUNNING", "name": "a"}, filters)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		var body common.ConsumeReq

		w := httptest.NewRecorder()
		r := httptest.NewRequest("", "/", strings.NewReader(invalidJson))

		err := decodeJSONRequestBody(w, r, &body)
		assertProblem(t, err, common.ProblemHttpRequestBody, http.StatusBadRequest)

		problem := err.(common.Problem)
		assert.Len(problem.Errors, 3)

		findError := func(pointer string) common.Error {
			for i := range problem.Errors {
				if problem.Errors[i].Pointer == pointer {
					return problem.Errors[i]
				}
			}
			t.Fatalf("failed to find error for pointer %s", pointer)
			return common.Error{}
		}

		var e common.Error

		e = findError("#/events/1/id")
		assert.Equal("required", e.Type)
		assert.NotEmpty(e.Detail)
		assert.Empty(e.Value)

		e = findError("#/events/1/timestamp")
		assert.Equal("gte", e.Type)
		assert.NotEmpty(e.Detail)
		assert.Equal("-1", e.Value)

		e = findError("#/events/1/eventType")
		assert.Equal("required", e.Type)
	})
}

func TestParseKind(t *testing.T) {
	assert := assert.New(t)

	t.Run("valid", func(t *testing.T) {
		for _, kind := range projection.Kinds() {
			r := httptest.NewRequest("", "/", nil)
			r.SetPathValue("kind", common.KindPath(kind))

			parsed, err := parseKind(r)
			assert.Nil(err)
			assert.Equal(kind, parsed)
		}
	})

	t.Run("singular", func(t *testing.T) {
		r := httptest.NewRequest("", "/", nil)
		r.SetPathValue("kind", "process-instance")

		kind, err := parseKind(r)
		assert.Nil(err)
		assert.Equal(projection.KindProcessInstance, kind)
	})

	t.Run("not supported", func(t *testing.T) {
		r := httptest.NewRequest("", "/", nil)
		r.SetPathValue("kind", "jobs")

		_, err := parseKind(r)
		assertProblem(t, err, common.ProblemHttpRequestUri, http.StatusNotFound)
	})
}

func TestParseQueryOptions(t *testing.T) {
	assert := assert.New(t)

	t.Run("valid", func(t *testing.T) {
		r := httptest.NewRequest("", "/?limit=50&offset=100", nil)

		queryOptions, err := parseQueryOptions(r)
		assert.Equal(50, queryOptions.Limit)
		assert.Equal(100, queryOptions.Offset)
		assert.Nilf(err, "expected no error")
	})

	t.Run("limit", func(t *testing.T) {
		t.Run("failed to parse value", func(t *testing.T) {
			r := httptest.NewRequest("", "/?limit=x", nil)

			_, err := parseQueryOptions(r)
			assert.NotNilf(err, "expected error")
		})

		t.Run("must be greater than or equal to 0", func(t *testing.T) {
			r := httptest.NewRequest("", "/?limit=-1", nil)

			_, err := parseQueryOptions(r)
			assert.NotNilf(err, "expected error")
		})
	})

	t.Run("offset", func(t *testing.T) {
		t.Run("failed to parse value", func(t *testing.T) {
			r := httptest.NewRequest("", "/?offset=x", nil)

			_, err := parseQueryOptions(r)
			assert.NotNilf(err, "expected error")
		})

		t.Run("must be greater than or equal to 0", func(t *testing.T) {
			r := httptest.NewRequest("", "/?offset=-1", nil)

			_, err := parseQueryOptions(r)
			assert.NotNilf(err, "expected error")
		})
	})
}

func TestToPointer(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("#/events/1/id", toPointer("ConsumeReq.events[1].id"))
	assert.Equal("#/events", toPointer("ConsumeReq.events"))
}

func assertProblem(t *testing.T, err error, expectedType common.ProblemType, expectedStatus int) {
	if err == nil {
		t.Fatal("error is nil")
	}

	problem, ok := err.(common.Problem)
	if !ok {
		t.Fatalf("error is not of type Problem: %v", err)
	}

	assert := assert.New(t)
	assert.Equal(expectedType, problem.Type)
	assert.Equal(expectedStatus, problem.Status)
	assert.NotEmpty(problem.Title)
	assert.NotEmpty(problem.Detail)
}
