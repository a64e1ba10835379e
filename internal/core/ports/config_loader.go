package ports

import (
	"time"

	"go.trai.ch/hdlbuild/internal/core/domain"
)

// ConfigLoader defines the interface for loading project files.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads, decodes and validates the project file at path.
	Load(path string) (*domain.ProjectConfig, error)

	// Mtime returns the modification time of the project file.
	Mtime(path string) (time.Time, error)
}
