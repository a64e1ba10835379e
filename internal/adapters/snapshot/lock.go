package snapshot

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.trai.ch/hdlbuild/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/sys/unix"
)

// Lock claims the project by writing this process's PID to the lock file.
// A lock left behind by a dead process is taken over.
func (s *Store) Lock(projectFile string) error {
	path := domain.LockPath(projectFile)
	if err := os.MkdirAll(filepath.Dir(path), domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create state directory"), "path", path)
	}

	for attempt := 0; attempt < 2; attempt++ {
		err := s.create(path)
		if err == nil {
			return nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return zerr.With(zerr.Wrap(err, "failed to create lock file"), "path", path)
		}

		holder, ok := readPID(path)
		switch {
		case ok && holder == s.pid:
			return nil
		case ok && alive(holder):
			return zerr.With(zerr.With(domain.ErrProjectLocked, "pid", holder), "lock", path)
		}

		s.logger.Warn(fmt.Sprintf("removing stale lock %s", path))
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return zerr.With(zerr.Wrap(err, "failed to remove stale lock"), "path", path)
		}
	}
	return zerr.With(domain.ErrProjectLocked, "lock", path)
}

// Unlock removes the lock file if this process holds it.
func (s *Store) Unlock(projectFile string) error {
	path := domain.LockPath(projectFile)
	holder, ok := readPID(path)
	if !ok || holder != s.pid {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return zerr.With(zerr.Wrap(err, "failed to remove lock file"), "path", path)
	}
	return nil
}

func (s *Store) create(path string) error {
	//nolint:gosec // path is derived from the project file
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, domain.FilePerm)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(strconv.Itoa(s.pid) + "\n"); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func readPID(path string) (int, bool) {
	//nolint:gosec // path is derived from the project file
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

// alive sends signal 0, which checks for existence without delivering anything.
func alive(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}
