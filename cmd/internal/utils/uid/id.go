package uid

import (
	"sync"

	"hseqaudit/cmd/internal/config"

	"github.com/bwmarrin/snowflake"
)

// DefaultNode is used when Init was never called, e.g. from tests or the CLI.
const DefaultNode = 1

var (
	node *snowflake.Node
	once sync.Once
)

// Init configures the node id used for every generated entity id. Only the
// first call has any effect.
func Init(machineID int64) {
	once.Do(func() {
		var err error
		node, err = snowflake.NewNode(machineID)
		if err != nil {
			config.GetLogger().Fatalf("failed to initialize snowflake node: %v", err)
		}
	})
}

func Generate() int64 {
	if node == nil {
		Init(DefaultNode)
	}
	return node.Generate().Int64()
}
