// Package snapshot persists project state between sessions.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"go.trai.ch/hdlbuild/internal/core/domain"
	"go.trai.ch/hdlbuild/internal/core/ports"
	"go.trai.ch/zerr"
)

// envelope wraps the payload with its layout version and checksum.
type envelope struct {
	Version  int             `json:"version"`
	Checksum string          `json:"checksum"`
	Payload  json.RawMessage `json:"payload"`
}

// Store implements ports.SnapshotStore with a JSON file in the project state directory.
type Store struct {
	logger ports.Logger
	pid    int
}

// NewStore creates a Store that reports discarded snapshots through logger.
func NewStore(logger ports.Logger) *Store {
	return &Store{logger: logger, pid: os.Getpid()}
}

// Load returns the snapshot for the project file. A missing, outdated or
// corrupt snapshot yields nil; only the latter two are logged.
func (s *Store) Load(projectFile string) (*domain.Snapshot, error) {
	path := domain.SnapshotPath(projectFile)

	//nolint:gosec // path is derived from the project file
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrSnapshotReadFailed.Error()), "path", path)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		s.discard(path, "not valid JSON")
		return nil, nil
	}
	if env.Version != domain.SnapshotVersion {
		s.discard(path, fmt.Sprintf("version %d, expected %d", env.Version, domain.SnapshotVersion))
		return nil, nil
	}
	if env.Checksum != checksum(env.Payload) {
		s.discard(path, "checksum mismatch")
		return nil, nil
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(env.Payload, &snap); err != nil {
		s.discard(path, "payload does not decode")
		return nil, nil
	}
	return &snap, nil
}

func (s *Store) discard(path, reason string) {
	s.logger.Warn(fmt.Sprintf("discarding snapshot %s: %s", path, reason))
}

// Save writes the snapshot atomically. A snapshot without a session ID gets a new one.
func (s *Store) Save(projectFile string, snap *domain.Snapshot) error {
	if snap.SessionID == "" {
		snap.SessionID = uuid.NewString()
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		return zerr.Wrap(err, domain.ErrSnapshotMarshalFailed.Error())
	}
	data, err := json.Marshal(envelope{
		Version:  domain.SnapshotVersion,
		Checksum: checksum(payload),
		Payload:  payload,
	})
	if err != nil {
		return zerr.Wrap(err, domain.ErrSnapshotMarshalFailed.Error())
	}

	path := domain.SnapshotPath(projectFile)
	if err := writeAtomic(path, data); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrSnapshotWriteFailed.Error()), "path", path)
	}
	return nil
}

// Remove deletes the snapshot for the project file, if any.
func (s *Store) Remove(projectFile string) error {
	path := domain.SnapshotPath(projectFile)
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return zerr.With(zerr.Wrap(err, domain.ErrSnapshotWriteFailed.Error()), "path", path)
	}
	return nil
}

func checksum(payload []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(payload))
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return zerr.Wrap(err, "failed to create state directory")
	}

	tmpFile, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return zerr.Wrap(err, "failed to create temp file")
	}
	tmpName := tmpFile.Name()

	defer func() {
		if _, err := os.Stat(tmpName); err == nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return zerr.Wrap(err, "failed to write temp file")
	}
	if err := tmpFile.Close(); err != nil {
		return zerr.Wrap(err, "failed to close temp file")
	}
	if err := os.Chmod(tmpName, domain.FilePerm); err != nil {
		return zerr.Wrap(err, "failed to chmod temp file")
	}
	return os.Rename(tmpName, path)
}
