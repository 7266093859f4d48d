package internal

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

func NewDefinitionCache(size int) (*DefinitionCache, error) {
	definitions, err := lru.New[string, *ProcessDefinitionEntity](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create definition cache of size %d: %v", size, err)
	}
	return &DefinitionCache{definitions: definitions}, nil
}

// DefinitionCache keeps the most recently used process definitions in memory.
// Cached entities must not be modified.
//
// Each eviction advances the cache's generation. A definition, selected while an eviction happened, is not cached, since it may
// stem from a snapshot that predates the eviction.
type DefinitionCache struct {
	definitions *lru.Cache[string, *ProcessDefinitionEntity]

	mutex      sync.Mutex
	generation uint64
}

func (c *DefinitionCache) Add(definition *ProcessDefinitionEntity) {
	c.definitions.Add(definition.Id, definition)
}

func (c *DefinitionCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.definitions.Purge()
	c.generation++
}

func (c *DefinitionCache) Evict(id string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.definitions.Remove(id)
	c.generation++
}

func (c *DefinitionCache) Get(id string) (*ProcessDefinitionEntity, bool) {
	return c.definitions.Get(id)
}

// GetOrCache returns a cached process definition or selects and caches it.
// If the process definition does not exist, [pgx.ErrNoRows] is returned.
func (c *DefinitionCache) GetOrCache(ctx Context, id string) (*ProcessDefinitionEntity, error) {
	if definition, ok := c.Get(id); ok {
		return definition, nil
	}

	c.mutex.Lock()
	generation := c.generation
	c.mutex.Unlock()

	definition, err := ctx.ProcessDefinitions().Select(id)
	if err != nil {
		return nil, err
	}

	c.mutex.Lock()
	if c.generation == generation {
		c.Add(definition)
	}
	c.mutex.Unlock()

	return definition, nil
}

func (c *DefinitionCache) Len() int {
	return c.definitions.Len()
}
