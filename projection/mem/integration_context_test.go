package mem

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/stretchr/testify/assert"
)

func TestIntegrationContext(t *testing.T) {
	assert := assert.New(t)

	s := mustCreateStore(t)
	defer s.Shutdown()

	integrationEvent := func(eventType projection.EventType, minutes int, payload projection.IntegrationContextPayload) projection.Event {
		payload.ClientId = "c1"
		payload.ExecutionId = "e1"

		event := newEvent(t, eventType, minutes, payload)
		event.ProcessInstanceId = "P1"
		return event
	}

	findIntegrationContext := func(t *testing.T) projection.IntegrationContext {
		results := mustQuery(t, s, projection.IntegrationContextCriteria{ExecutionId: "e1", ClientId: "c1"})
		if len(results) != 1 {
			t.Fatalf("expected one integration context, but got %d", len(results))
		}
		return results[0].(projection.IntegrationContext)
	}

	t.Run("request", func(t *testing.T) {
		// when
		mustProject(t, s, integrationEvent(projection.EventIntegrationRequested, 0, projection.IntegrationContextPayload{
			ConnectorType:    "mail",
			InBoundVariables: map[string]any{"to": "hruser"},
		}))

		// then
		integrationContext := findIntegrationContext(t)
		assert.NotEmpty(integrationContext.Id)
		assert.Equal("P1", integrationContext.ProcessInstanceId)
		assert.Equal("mail", integrationContext.ConnectorType)
		assert.Equal(map[string]any{"to": "hruser"}, integrationContext.InBoundVariables)
		assert.Equal(baseTime, *integrationContext.RequestDate)
		assert.Equal(projection.IntegrationRequested, integrationContext.Status)
	})

	t.Run("receive result", func(t *testing.T) {
		// given
		id := findIntegrationContext(t).Id

		// when
		mustProject(t, s, integrationEvent(projection.EventIntegrationResultReceived, 1, projection.IntegrationContextPayload{
			OutBoundVariables: map[string]any{"sent": true},
		}))

		// then
		integrationContext := findIntegrationContext(t)
		assert.Equal(id, integrationContext.Id)
		assert.Equal(map[string]any{"sent": true}, integrationContext.OutBoundVariables)
		assert.Equal(baseTime.Add(time.Minute), *integrationContext.ResultDate)
		assert.Equal(projection.IntegrationResultReceived, integrationContext.Status)

		result, err := s.FindById(context.Background(), projection.KindIntegrationContext, id)
		assert.Nil(err)
		assert.Equal(integrationContext, result)
	})

	t.Run("receive error", func(t *testing.T) {
		// given
		mustProject(t, s, integrationEvent(projection.EventIntegrationRequested, 2, projection.IntegrationContextPayload{}))

		// when
		mustProject(t, s, integrationEvent(projection.EventIntegrationErrorReceived, 3, projection.IntegrationContextPayload{
			ErrorCode:      "500",
			ErrorMessage:   "mail server unavailable",
			ErrorClassName: "MailException",
			StackTraceElements: []projection.StackTraceElement{
				{ClassName: "MailConnector", MethodName: "send", LineNumber: 42},
			},
		}))

		// then
		integrationContext := findIntegrationContext(t)
		assert.Equal(projection.IntegrationErrorReceived, integrationContext.Status)
		assert.Equal("500", integrationContext.ErrorCode)
		assert.Equal("mail server unavailable", integrationContext.ErrorMessage)
		assert.Equal("MailException", integrationContext.ErrorClassName)
		assert.Equal(baseTime.Add(3*time.Minute), *integrationContext.ErrorDate)
		assert.Len(integrationContext.StackTraceElements, 1)
		assert.Equal(42, integrationContext.StackTraceElements[0].LineNumber)

		assert.Nil(integrationContext.ResultDate)
		assert.Nil(integrationContext.OutBoundVariables)
	})

	t.Run("returns not found when integration is not requested", func(t *testing.T) {
		// given
		event, err := projection.NewEvent(projection.EventIntegrationResultReceived, projection.IntegrationContextPayload{
			ClientId:    "c2",
			ExecutionId: "e2",
		})
		assert.Nil(err)

		// when
		_, err = s.Project(context.Background(), []projection.Event{event})

		// then
		assert.True(projection.IsErrorType(err, projection.ErrorNotFound))
	})

	t.Run("returns validation error when client ID is missing", func(t *testing.T) {
		// given
		entity, _ := json.Marshal(map[string]string{"executionId": "e1"})

		event := newEvent(t, projection.EventIntegrationRequested, 0, nil)
		event.Entity = entity

		// when
		_, err := s.Project(context.Background(), []projection.Event{event})

		// then
		assert.True(projection.IsErrorType(err, projection.ErrorValidation))
	})
}
