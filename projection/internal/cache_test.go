package internal

import (
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
)

func TestDefinitionCache(t *testing.T) {
	assert := assert.New(t)

	t.Run("get or cache", func(t *testing.T) {
		// given
		cache, _ := NewDefinitionCache(10)

		definitions := &testDefinitionRepository{definitions: map[string]*ProcessDefinitionEntity{
			"pd:1": {Id: "pd:1", Key: "pd", Version: 1},
		}}

		ctx := testCacheContext{definitions: definitions}

		// when
		definition, err := cache.GetOrCache(ctx, "pd:1")

		// then
		assert.Nil(err)
		assert.Equal("pd", definition.Key)
		assert.Equal(1, cache.Len())
		assert.Equal(1, definitions.selects)

		// when
		_, err = cache.GetOrCache(ctx, "pd:1")

		// then
		assert.Nil(err)
		assert.Equal(1, definitions.selects)
	})

	t.Run("returns error when definition not exists", func(t *testing.T) {
		cache, _ := NewDefinitionCache(10)

		_, err := cache.GetOrCache(testCacheContext{definitions: &testDefinitionRepository{}}, "pd:1")
		assert.Equal(pgx.ErrNoRows, err)
		assert.Equal(0, cache.Len())
	})

	t.Run("does not cache definition selected during eviction", func(t *testing.T) {
		// given
		cache, _ := NewDefinitionCache(10)

		definitions := &testDefinitionRepository{definitions: map[string]*ProcessDefinitionEntity{
			"pd:1": {Id: "pd:1", Key: "pd", Version: 1},
		}}

		// a concurrent redeployment commits and evicts, while the old version is selected
		definitions.onSelect = func() {
			cache.Evict("pd:1")
		}

		// when
		definition, err := cache.GetOrCache(testCacheContext{definitions: definitions}, "pd:1")

		// then
		assert.Nil(err)
		assert.Equal(int32(1), definition.Version)

		_, ok := cache.Get("pd:1")
		assert.False(ok)
	})

	t.Run("clear", func(t *testing.T) {
		cache, _ := NewDefinitionCache(10)
		cache.Add(&ProcessDefinitionEntity{Id: "pd:1"})
		cache.Add(&ProcessDefinitionEntity{Id: "pd:2"})

		cache.Clear()
		assert.Equal(0, cache.Len())
	})
}

type testCacheContext struct {
	Context
	definitions *testDefinitionRepository
}

func (c testCacheContext) ProcessDefinitions() ProcessDefinitionRepository {
	return c.definitions
}

type testDefinitionRepository struct {
	ProcessDefinitionRepository
	definitions map[string]*ProcessDefinitionEntity
	onSelect    func()
	selects     int
}

func (r *testDefinitionRepository) Select(id string) (*ProcessDefinitionEntity, error) {
	r.selects++
	if r.onSelect != nil {
		r.onSelect()
	}

	definition, ok := r.definitions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return definition, nil
}
