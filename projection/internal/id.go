package internal

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

func NewIdGenerator(nodeId int64) (*IdGenerator, error) {
	node, err := snowflake.NewNode(nodeId)
	if err != nil {
		return nil, fmt.Errorf("failed to create ID generator node %d: %v", nodeId, err)
	}
	return &IdGenerator{node: node}, nil
}

// IdGenerator generates time ordered IDs for entities, which have no producer assigned ID.
type IdGenerator struct {
	node *snowflake.Node
}

func (g *IdGenerator) Next() string {
	return g.node.Generate().String()
}
