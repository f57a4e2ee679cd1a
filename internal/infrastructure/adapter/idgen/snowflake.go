package idgen

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/p4cs-974/verse-billing/internal/domain/port/core"
)

// SnowflakeGenerator implements IDGenerator over a snowflake node. Ids are
// int64, unique across nodes and roughly ordered by creation time, which
// keeps journal scans in insertion order without a sequence.
type SnowflakeGenerator struct {
	node *snowflake.Node
}

// NewSnowflakeGenerator creates a generator for the given node id (0-1023)
func NewSnowflakeGenerator(nodeID int64) (*SnowflakeGenerator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node: %w", err)
	}
	return &SnowflakeGenerator{node: node}, nil
}

// NextID returns the next unique id
func (g *SnowflakeGenerator) NextID() int64 {
	return g.node.Generate().Int64()
}

var _ core.IDGenerator = (*SnowflakeGenerator)(nil)
