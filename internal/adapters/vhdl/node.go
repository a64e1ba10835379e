package vhdl

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/hdlbuild/internal/core/ports"
)

// NodeID is the unique identifier for the VHDL parser Graft node.
const NodeID graft.ID = "adapter.vhdl_parser"

func init() {
	graft.Register(graft.Node[ports.SourceParser]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.SourceParser, error) {
			return NewParser(), nil
		},
	})
}
