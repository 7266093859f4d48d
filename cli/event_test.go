package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventSend(t *testing.T) {
	assert, require := assert.New(t), require.New(t)

	r := mustCreateRemote(t)
	defer r.Shutdown()

	dir := t.TempDir()

	t.Run("array", func(t *testing.T) {
		fileName := filepath.Join(dir, "array.json")
		require.NoError(os.WriteFile(fileName, []byte(`[
			{"id": "e1", "timestamp": 1735689600000, "eventType": "PROCESS_CREATED", "entity": {"id": "P1"}, "processInstanceId": "P1"},
			{"id": "e2", "timestamp": 1735689660000, "eventType": "PROCESS_STARTED", "entity": {"id": "P1"}, "processInstanceId": "P1"}
		]`), 0600))

		out := mustExecute(t, r, []string{"event", "send", "--file", fileName})

		assert.Contains(out, "audited:    2")
		assert.Contains(out, "applied:    2")
		assert.Contains(out, "failed:     0")

		entity, err := r.FindById(context.Background(), projection.KindProcessInstance, "P1")
		require.NoError(err, "failed to find process instance")
		assert.Equal(projection.ProcessInstanceRunning, entity.(projection.ProcessInstance).Status)
	})

	t.Run("object", func(t *testing.T) {
		fileName := filepath.Join(dir, "object.json")
		require.NoError(os.WriteFile(fileName, []byte(`{"events": [
			{"id": "e3", "timestamp": 1735689720000, "eventType": "PROCESS_COMPLETED", "entity": {"id": "P1"}, "processInstanceId": "P1"},
			{"id": "e4", "timestamp": 1735689720000, "eventType": "UNKNOWN", "entity": {"id": "P1"}}
		]}`), 0600))

		out := mustExecute(t, r, []string{"event", "send", "--file", fileName})

		assert.Contains(out, "audited:    2")
		assert.Contains(out, "applied:    1")
		assert.Contains(out, "ignored:    1")
	})

	t.Run("failed", func(t *testing.T) {
		fileName := filepath.Join(dir, "failed.json")
		require.NoError(os.WriteFile(fileName, []byte(`[
			{"id": "e5", "timestamp": 1735689780000, "eventType": "PROCESS_SUSPENDED", "entity": {"id": "P2"}, "processInstanceId": "P2"}
		]`), 0600))

		out := mustExecute(t, r, []string{"event", "send", "--file", fileName})

		assert.Contains(out, "failed:     1")
		assert.Contains(out, "EVENT ID")
		assert.Contains(out, "e5")
	})

	t.Run("query", func(t *testing.T) {
		out := mustExecute(t, r, []string{"event", "query", "--filter", "processInstanceId=P1"})

		lines := strings.Split(strings.TrimSpace(out), "\n")
		assert.Len(lines, 5) // header, separator and 3 events
		assert.Contains(out, "PROCESS_CREATED")
		assert.Contains(out, "2025-01-01T00:00:00Z")
	})
}

func TestDecodeEvents(t *testing.T) {
	assert := assert.New(t)

	t.Run("empty", func(t *testing.T) {
		_, err := decodeEvents([]byte("  "))
		assert.Error(err)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := decodeEvents([]byte("[{"))
		assert.Error(err)
	})

	t.Run("array", func(t *testing.T) {
		events, err := decodeEvents([]byte(`[{"id": "e1", "eventType": "PROCESS_CREATED"}]`))
		assert.NoError(err)
		assert.Len(events, 1)
		assert.Equal(projection.EventProcessCreated, events[0].Type())
	})

	t.Run("object", func(t *testing.T) {
		events, err := decodeEvents([]byte(`{"events": [{"id": "e1"}, {"id": "e2"}]}`))
		assert.NoError(err)
		assert.Len(events, 2)
		assert.Equal("e2", events[1].Id)
	})
}
