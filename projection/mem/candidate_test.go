package mem

import (
	"context"
	"testing"

	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/stretchr/testify/assert"
)

func TestCandidate(t *testing.T) {
	assert := assert.New(t)

	s := mustCreateStore(t)
	defer s.Shutdown()

	t.Run("task candidate user is added once", func(t *testing.T) {
		// given
		added := newEvent(t, projection.EventTaskCandidateUserAdded, 0, projection.CandidatePayload{UserId: "u1"})
		added.EntityId = "T1"

		// when
		result := mustProject(t, s, added, added)

		// then
		assert.Equal(2, result.Applied)

		results := mustQuery(t, s, projection.CandidateUserCriteria{TaskId: "T1"})
		assert.Len(results, 1)
		assert.Equal(projection.CandidateUser{TaskId: "T1", UserId: "u1"}, results[0])
	})

	t.Run("task candidate user is removed", func(t *testing.T) {
		// when
		mustProject(t, s,
			newEvent(t, projection.EventTaskCandidateUserRemoved, 1, projection.CandidatePayload{TaskId: "T1", UserId: "u1"}),
			newEvent(t, projection.EventTaskCandidateUserRemoved, 2, projection.CandidatePayload{TaskId: "T1", UserId: "u1"}),
		)

		// then
		assert.Len(mustQuery(t, s, projection.CandidateUserCriteria{TaskId: "T1"}), 0)
	})

	t.Run("task candidate group", func(t *testing.T) {
		// when
		mustProject(t, s,
			newEvent(t, projection.EventTaskCandidateGroupAdded, 0, projection.CandidatePayload{TaskId: "T1", GroupId: "g1"}),
			newEvent(t, projection.EventTaskCandidateGroupAdded, 0, projection.CandidatePayload{TaskId: "T1", GroupId: "g2"}),
			newEvent(t, projection.EventTaskCandidateGroupRemoved, 1, projection.CandidatePayload{TaskId: "T1", GroupId: "g1"}),
		)

		// then
		results := mustQuery(t, s, projection.CandidateGroupCriteria{TaskId: "T1"})
		assert.Len(results, 1)
		assert.Equal(projection.CandidateGroup{TaskId: "T1", GroupId: "g2"}, results[0])
	})

	t.Run("process candidate starters", func(t *testing.T) {
		// given
		userAdded := newEvent(t, projection.EventProcessCandidateStarterUserAdded, 0, projection.CandidatePayload{UserId: "u1"})
		userAdded.ProcessDefinitionId = "pd:1"

		groupAdded := newEvent(t, projection.EventProcessCandidateStarterGroupAdded, 0, projection.CandidatePayload{
			ProcessDefinitionId: "pd:1",
			GroupId:             "g1",
		})

		// when
		mustProject(t, s, userAdded, groupAdded)

		// then
		users := mustQuery(t, s, projection.CandidateUserCriteria{ProcessDefinitionId: "pd:1"})
		assert.Len(users, 1)
		assert.Equal(projection.CandidateUser{ProcessDefinitionId: "pd:1", UserId: "u1"}, users[0])

		groups := mustQuery(t, s, projection.CandidateGroupCriteria{ProcessDefinitionId: "pd:1"})
		assert.Len(groups, 1)
		assert.Equal(projection.CandidateGroup{ProcessDefinitionId: "pd:1", GroupId: "g1"}, groups[0])

		// when
		userRemoved := newEvent(t, projection.EventProcessCandidateStarterUserRemoved, 1, projection.CandidatePayload{UserId: "u1"})
		userRemoved.ProcessDefinitionId = "pd:1"

		groupRemoved := newEvent(t, projection.EventProcessCandidateStarterGroupRemoved, 1, projection.CandidatePayload{GroupId: "g1"})
		groupRemoved.ProcessDefinitionId = "pd:1"

		mustProject(t, s, userRemoved, groupRemoved)

		// then
		assert.Len(mustQuery(t, s, projection.CandidateUserCriteria{ProcessDefinitionId: "pd:1"}), 0)
		assert.Len(mustQuery(t, s, projection.CandidateGroupCriteria{ProcessDefinitionId: "pd:1"}), 0)
	})

	t.Run("returns validation error when owner is missing", func(t *testing.T) {
		_, err := s.Project(context.Background(), []projection.Event{
			newEvent(t, projection.EventTaskCandidateUserAdded, 0, projection.CandidatePayload{UserId: "u1"}),
		})
		assert.True(projection.IsErrorType(err, projection.ErrorValidation))
	})

	t.Run("returns validation error when principal is missing", func(t *testing.T) {
		_, err := s.Project(context.Background(), []projection.Event{
			newEvent(t, projection.EventTaskCandidateGroupAdded, 0, projection.CandidatePayload{TaskId: "T1", UserId: "u1"}),
		})
		assert.True(projection.IsErrorType(err, projection.ErrorValidation))
	})
}
