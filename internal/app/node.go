package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/hdlbuild/internal/adapters/builder"   //nolint:depguard // Wired in app layer
	"go.trai.ch/hdlbuild/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/hdlbuild/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/hdlbuild/internal/adapters/metrics"   //nolint:depguard // Wired in app layer
	"go.trai.ch/hdlbuild/internal/adapters/snapshot"  //nolint:depguard // Wired in app layer
	"go.trai.ch/hdlbuild/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/hdlbuild/internal/adapters/vhdl"      //nolint:depguard // Wired in app layer
	"go.trai.ch/hdlbuild/internal/adapters/watcher"   //nolint:depguard // Wired in app layer
	"go.trai.ch/hdlbuild/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components is what the CLI needs from the dependency graph.
type Components struct {
	App    *App
	Logger ports.Logger
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			snapshot.NodeID,
			builder.NodeID,
			vhdl.NodeID,
			logger.NodeID,
			telemetry.NodeID,
			metrics.NodeID,
			watcher.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			a, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return &Components{App: a, Logger: log}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	store, err := graft.Dep[ports.SnapshotStore](ctx)
	if err != nil {
		return nil, err
	}

	builders, err := graft.Dep[builder.Factory](ctx)
	if err != nil {
		return nil, err
	}

	parser, err := graft.Dep[ports.SourceParser](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	tracer, err := graft.Dep[ports.Tracer](ctx)
	if err != nil {
		return nil, err
	}

	recorder, err := graft.Dep[*metrics.Recorder](ctx)
	if err != nil {
		return nil, err
	}

	newWatcher, err := graft.Dep[watcher.Factory](ctx)
	if err != nil {
		return nil, err
	}

	return New(loader, store, builders, parser, log, tracer, recorder).
		WithWatcherFactory(newWatcher), nil
}
