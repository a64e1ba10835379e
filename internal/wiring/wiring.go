// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/hdlbuild/internal/adapters/builder"
	_ "go.trai.ch/hdlbuild/internal/adapters/config"
	_ "go.trai.ch/hdlbuild/internal/adapters/logger"
	_ "go.trai.ch/hdlbuild/internal/adapters/metrics"
	_ "go.trai.ch/hdlbuild/internal/adapters/shell"
	_ "go.trai.ch/hdlbuild/internal/adapters/snapshot"
	_ "go.trai.ch/hdlbuild/internal/adapters/telemetry"
	_ "go.trai.ch/hdlbuild/internal/adapters/vhdl"
	_ "go.trai.ch/hdlbuild/internal/adapters/watcher"
	// Register app nodes.
	_ "go.trai.ch/hdlbuild/internal/app"
)
