package mem

import (
	"slices"
	"time"

	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/jackc/pgx/v5/pgtype"
)

// journal records how to undo the changes of a single event.
type journal struct {
	recording bool
	changes   []func()
}

func (j *journal) begin() {
	j.recording = true
	j.changes = j.changes[:0]
}

func (j *journal) end() {
	j.recording = false
	j.changes = j.changes[:0]
}

func (j *journal) record(undo func()) {
	if j.recording {
		j.changes = append(j.changes, undo)
	}
}

func (j *journal) undo() {
	for i := len(j.changes) - 1; i >= 0; i-- {
		j.changes[i]()
	}
	j.end()
}

func insert[T any](j *journal, entities *[]T, entity T) {
	n := len(*entities)
	*entities = append(*entities, entity)
	j.record(func() { *entities = (*entities)[:n] })
}

func remove[T any](j *journal, entities *[]T, i int) {
	old := (*entities)[i]
	*entities = slices.Delete(*entities, i, i+1)
	j.record(func() { *entities = slices.Insert(*entities, i, old) })
}

func update[T any](j *journal, entities *[]T, i int, entity T) {
	old := (*entities)[i]
	(*entities)[i] = entity
	j.record(func() { (*entities)[i] = old })
}

// query applies a filter and the query options to a list of entities.
func query[T any](entities []T, o projection.QueryOptions, filter func(*T) bool, model func(*T) any) []any {
	var offset int

	results := make([]any, 0)
	for i := range entities {
		e := &entities[i]
		if !filter(e) {
			continue
		}

		if offset < o.Offset {
			offset++
			continue
		}

		results = append(results, model(e))

		if o.Limit > 0 && len(results) == o.Limit {
			break
		}
	}

	return results
}

func matchesText(v pgtype.Text, s string) bool {
	return s == "" || v.String == s
}

// inRange determines if t is within [from, to). A nil bound is not checked.
func inRange(t time.Time, from *time.Time, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && !t.Before(*to) {
		return false
	}
	return true
}
