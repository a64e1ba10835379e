package ports

import "go.trai.ch/hdlbuild/internal/core/domain"

// SnapshotStore persists project state between sessions.
//
//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type SnapshotStore interface {
	// Load returns the snapshot for the project file, or nil if there is no usable one.
	Load(projectFile string) (*domain.Snapshot, error)

	// Save writes the snapshot for the project file.
	Save(projectFile string, snap *domain.Snapshot) error

	// Remove deletes any snapshot for the project file.
	Remove(projectFile string) error

	// Lock claims the project for this process. It fails with domain.ErrProjectLocked
	// while another live process holds the lock.
	Lock(projectFile string) error

	// Unlock releases a lock taken by Lock.
	Unlock(projectFile string) error
}
