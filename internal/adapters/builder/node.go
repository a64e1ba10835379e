package builder

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/hdlbuild/internal/adapters/logger"
	"go.trai.ch/hdlbuild/internal/adapters/shell"
	"go.trai.ch/hdlbuild/internal/core/ports"
)

// NodeID is the unique identifier for the builder factory Graft node.
const NodeID graft.ID = "adapter.builder_factory"

func init() {
	graft.Register(graft.Node[Factory]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{shell.NodeID, logger.NodeID},
		Run: func(ctx context.Context) (Factory, error) {
			runner, err := graft.Dep[ports.CommandRunner](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewFactory(runner, log), nil
		},
	})
}
