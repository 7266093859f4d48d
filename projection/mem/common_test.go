package mem

import (
	"context"
	"testing"
	"time"

	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/stretchr/testify/assert"
)

func mustCreateStore(t *testing.T, customizers ...func(*Options)) projection.Store {
	s, err := New(customizers...)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return s
}

// newEvent creates an event of a specific type with a timestamp, relative to 2025-01-01T00:00:00Z.
func newEvent(t *testing.T, eventType projection.EventType, minutes int, entity any) projection.Event {
	event, err := projection.NewEvent(eventType, entity)
	if err != nil {
		t.Fatalf("failed to create event: %v", err)
	}

	event.Timestamp = baseTime.Add(time.Duration(minutes) * time.Minute).UnixMilli()
	return event
}

func mustProject(t *testing.T, s projection.Store, events ...projection.Event) projection.ProjectResult {
	result, err := s.Project(context.Background(), events)
	if err != nil {
		t.Fatalf("failed to project events: %v", err)
	}
	return result
}

func mustQuery(t *testing.T, s projection.Store, criteria any) []any {
	results, err := s.Query(context.Background(), criteria)
	if err != nil {
		t.Fatalf("failed to query %T: %v", criteria, err)
	}
	return results
}

var baseTime = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func TestJournal(t *testing.T) {
	assert := assert.New(t)

	t.Run("undo", func(t *testing.T) {
		// given
		var j journal
		entities := []string{"a", "b", "c"}

		// when
		j.begin()
		insert(&j, &entities, "d")
		update(&j, &entities, 0, "x")
		remove(&j, &entities, 1)
		insert(&j, &entities, "e")

		// then
		assert.Equal([]string{"x", "c", "d", "e"}, entities)

		// when
		j.undo()

		// then
		assert.Equal([]string{"a", "b", "c"}, entities)
		assert.False(j.recording)
		assert.Empty(j.changes)
	})

	t.Run("changes are not recorded without begin", func(t *testing.T) {
		// given
		var j journal
		entities := []string{"a"}

		// when
		insert(&j, &entities, "b")
		j.undo()

		// then
		assert.Equal([]string{"a", "b"}, entities)
	})

	t.Run("end discards changes", func(t *testing.T) {
		// given
		var j journal
		entities := []string{"a"}

		// when
		j.begin()
		insert(&j, &entities, "b")
		j.end()
		j.undo()

		// then
		assert.Equal([]string{"a", "b"}, entities)
	})
}

func TestQuery(t *testing.T) {
	assert := assert.New(t)

	entities := []int{1, 2, 3, 4, 5, 6}

	even := func(v *int) bool { return *v%2 == 0 }
	model := func(v *int) any { return *v }

	t.Run("filter", func(t *testing.T) {
		results := query(entities, projection.QueryOptions{}, even, model)
		assert.Equal([]any{2, 4, 6}, results)
	})

	t.Run("offset and limit", func(t *testing.T) {
		results := query(entities, projection.QueryOptions{Offset: 1, Limit: 1}, even, model)
		assert.Equal([]any{4}, results)
	})

	t.Run("empty", func(t *testing.T) {
		results := query(entities, projection.QueryOptions{Offset: 3}, even, model)
		assert.NotNil(results)
		assert.Len(results, 0)
	})
}

func TestInRange(t *testing.T) {
	assert := assert.New(t)

	from := baseTime
	to := baseTime.Add(time.Hour)

	assert.True(inRange(baseTime, nil, nil))
	assert.True(inRange(baseTime, &from, &to))
	assert.False(inRange(to, &from, &to))
	assert.False(inRange(from.Add(-time.Millisecond), &from, nil))
	assert.True(inRange(to.Add(-time.Millisecond), nil, &to))
}
