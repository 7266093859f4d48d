package server

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gclaussn/go-bpmn-query/http/common"
	"github.com/gclaussn/go-bpmn-query/ingest"
	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/gclaussn/go-bpmn-query/projection/mem"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestServer(t *testing.T) {
	assert := assert.New(t)

	registry := prometheus.NewRegistry()

	s := mustCreateServer(t, registry, func(o *Options) {
		o.DeleteAllEnabled = true
	})
	defer s.Shutdown()

	t.Run("returns 401 without authorization", func(t *testing.T) {
		w := s.serve(httptest.NewRequest(http.MethodGet, "/process-instances/P1", nil), false)
		assert.Equal(http.StatusUnauthorized, w.Code)
	})

	t.Run("readiness is public", func(t *testing.T) {
		w := s.serve(httptest.NewRequest(http.MethodGet, common.PathReadiness, nil), false)
		assert.Equal(http.StatusOK, w.Code)
		assert.Equal("ready", w.Body.String())
	})

	t.Run("consume events", func(t *testing.T) {
		// given
		body := `{"events": [
			{"id": "e1", "timestamp": 1735689600000, "eventType": "PROCESS_CREATED", "entity": {"id": "P1"}, "processInstanceId": "P1"},
			{"id": "e2", "timestamp": 1735689660000, "eventType": "PROCESS_STARTED", "entity": {"id": "P1"}, "processInstanceId": "P1"},
			{"id": "e3", "timestamp": 1735689660000, "eventType": "TASK_COMPLETED", "entity": {"id": "T1"}, "processInstanceId": "P1"}
		]}`

		// when
		w := s.serve(httptest.NewRequest(http.MethodPost, common.PathEvents, strings.NewReader(body)), true)

		// then
		assert.Equal(http.StatusOK, w.Code)
		assert.Equal(common.ContentTypeJson, w.Header().Get(common.HeaderContentType))

		var result ingest.ConsumeResult
		assert.NoError(json.Unmarshal(w.Body.Bytes(), &result))

		assert.NotEmpty(result.MessageId)
		assert.Equal(3, result.Audited)
		assert.Equal(2, result.Applied)
		assert.Len(result.Failed, 1)
		assert.Equal("e3", result.Failed[0].EventId)
		assert.Equal(projection.ErrorNotFound, result.Failed[0].ErrorType)
	})

	t.Run("find by ID", func(t *testing.T) {
		w := s.serve(httptest.NewRequest(http.MethodGet, "/process-instances/P1", nil), true)
		assert.Equal(http.StatusOK, w.Code)

		var processInstance projection.ProcessInstance
		assert.NoError(json.Unmarshal(w.Body.Bytes(), &processInstance))
		assert.Equal("P1", processInstance.Id)
		assert.Equal(projection.ProcessInstanceRunning, processInstance.Status)
	})

	t.Run("find by ID returns 404", func(t *testing.T) {
		w := s.serve(httptest.NewRequest(http.MethodGet, "/process-instances/P2", nil), true)
		assert.Equal(http.StatusNotFound, w.Code)
		assert.Equal(common.ContentTypeProblemJson, w.Header().Get(common.HeaderContentType))

		var problem common.Problem
		assert.NoError(json.Unmarshal(w.Body.Bytes(), &problem))
		assert.Equal(common.ProblemNotFound, problem.Type)
	})

	t.Run("unknown kind returns 404", func(t *testing.T) {
		w := s.serve(httptest.NewRequest(http.MethodGet, "/jobs/1", nil), true)
		assert.Equal(http.StatusNotFound, w.Code)

		var problem common.Problem
		assert.NoError(json.Unmarshal(w.Body.Bytes(), &problem))
		assert.Equal(common.ProblemHttpRequestUri, problem.Type)
	})

	t.Run("query without body", func(t *testing.T) {
		w := s.serve(httptest.NewRequest(http.MethodPost, "/audit-events/query", nil), true)
		assert.Equal(http.StatusOK, w.Code)

		var resBody common.QueryRes
		assert.NoError(json.Unmarshal(w.Body.Bytes(), &resBody))
		assert.Equal(3, resBody.Count)
		assert.Len(resBody.Results, 3)
	})

	t.Run("query with filter", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/process-instances/query?limit=10", strings.NewReader(`{"status": "RUNNING"}`))

		w := s.serve(r, true)
		assert.Equal(http.StatusOK, w.Code)

		var resBody common.QueryRes
		assert.NoError(json.Unmarshal(w.Body.Bytes(), &resBody))
		assert.Equal(1, resBody.Count)
	})

	t.Run("query with invalid filter returns 400", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/process-instances/query", strings.NewReader(`{"status": "UNKNOWN"}`))

		w := s.serve(r, true)
		assert.Equal(http.StatusBadRequest, w.Code)

		var problem common.Problem
		assert.NoError(json.Unmarshal(w.Body.Bytes(), &problem))
		assert.Equal(common.ProblemQuery, problem.Type)
		assert.NotEmpty(problem.Errors)
	})

	t.Run("metrics", func(t *testing.T) {
		w := s.serve(httptest.NewRequest(http.MethodGet, common.PathMetrics, nil), false)
		assert.Equal(http.StatusOK, w.Code)
		assert.Contains(w.Body.String(), "go_bpmn_query_events_total")
	})

	t.Run("delete all", func(t *testing.T) {
		w := s.serve(httptest.NewRequest(http.MethodDelete, "/process-instances", nil), true)
		assert.Equal(http.StatusNoContent, w.Code)

		w = s.serve(httptest.NewRequest(http.MethodGet, "/process-instances/P1", nil), true)
		assert.Equal(http.StatusNotFound, w.Code)
	})
}

func TestServerDeleteAllDisabled(t *testing.T) {
	assert := assert.New(t)

	s := mustCreateServer(t, prometheus.NewRegistry(), func(o *Options) {})
	defer s.Shutdown()

	w := s.serve(httptest.NewRequest(http.MethodDelete, "/process-instances", nil), true)
	assert.Equal(http.StatusForbidden, w.Code)
}

func TestOptions(t *testing.T) {
	assert := assert.New(t)

	options := NewOptions()
	assert.NotNil(options.Validate())

	options.BasicAuthUsername = "test"
	options.BasicAuthPassword = "test"
	assert.Nil(options.Validate())

	options.Logger = nil
	assert.NotNil(options.Validate())
}

type testServer struct {
	*Server
}

// serve passes a request directly to the server's handler.
func (s testServer) serve(r *http.Request, authorized bool) *httptest.ResponseRecorder {
	if authorized {
		r.Header.Set(common.HeaderAuthorization, "Basic "+base64.StdEncoding.EncodeToString([]byte("test:test")))
	}

	w := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(w, r)
	return w
}

func mustCreateServer(t *testing.T, registry *prometheus.Registry, customizer func(*Options)) testServer {
	store, err := mem.New()
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	consumer, err := ingest.NewConsumer(store, func(o *ingest.Options) {
		o.Workers = 2
		o.Registerer = registry
	})
	if err != nil {
		t.Fatalf("failed to create consumer: %v", err)
	}

	s, err := New(store, consumer, func(o *Options) {
		o.BasicAuthUsername = "test"
		o.BasicAuthPassword = "test"

		o.Gatherer = registry
		o.ShutdownDelay = 0

		customizer(o)
	})
	if err != nil {
		t.Fatalf("failed to create HTTP server: %v", err)
	}

	return testServer{s}
}
