package domain

import "path/filepath"

const (
	// StateDirName is the name of the per-project state directory, next to the project file.
	StateDirName = ".hdlbuild"

	// SnapshotSuffix is appended to the project file's base name to form the snapshot file name.
	SnapshotSuffix = ".snapshot.json"

	// LockFileName is the name of the session lock file.
	LockFileName = "session.lock"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// StateDir returns the state directory for the given project file.
func StateDir(projectFile string) string {
	return filepath.Join(filepath.Dir(projectFile), StateDirName)
}

// SnapshotPath returns the path of the persisted snapshot for the given project file.
func SnapshotPath(projectFile string) string {
	return filepath.Join(StateDir(projectFile), filepath.Base(projectFile)+SnapshotSuffix)
}

// LockPath returns the path of the session lock for the given project file.
func LockPath(projectFile string) string {
	return filepath.Join(StateDir(projectFile), LockFileName)
}
