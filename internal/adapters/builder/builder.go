// Package builder implements ports.Builder for the supported HDL toolchains.
package builder

import (
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/hdlbuild/internal/core/domain"
	"go.trai.ch/hdlbuild/internal/core/ports"
	"go.trai.ch/zerr"
)

// Builder names accepted in project files.
const (
	NameMSim = "msim"
	NameGHDL = "ghdl"
)

// Names lists the supported builders.
var Names = []string{NameMSim, NameGHDL}

// Factory creates the builder named in a project file.
type Factory func(name, targetDir string) (ports.Builder, error)

// NewFactory returns a Factory whose builders run commands through runner.
func NewFactory(runner ports.CommandRunner, logger ports.Logger) Factory {
	return func(name, targetDir string) (ports.Builder, error) {
		return New(name, targetDir, runner, logger)
	}
}

// New creates the builder called name writing its libraries below targetDir.
func New(name, targetDir string, runner ports.CommandRunner, logger ports.Logger) (ports.Builder, error) {
	if err := os.MkdirAll(targetDir, domain.DirPerm); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to create target directory"), "target_dir", targetDir)
	}

	switch strings.ToLower(name) {
	case NameMSim:
		return NewMSim(targetDir, runner, logger), nil
	case NameGHDL:
		return NewGHDL(targetDir, runner, logger), nil
	default:
		return nil, zerr.With(domain.ErrUnknownBuilder, "builder", name)
	}
}

// lineScanner groups compiler output into records. A line accepted by start
// opens a record; other non-empty lines continue the current one.
type lineScanner struct {
	records []domain.Record
	current *domain.Record
}

func (s *lineScanner) open(rec domain.Record) {
	s.flush()
	s.current = &rec
}

func (s *lineScanner) continueWith(line string) {
	if s.current == nil {
		return
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	if s.current.Message == "" {
		s.current.Message = line
		return
	}
	s.current.Message += " " + line
}

func (s *lineScanner) flush() {
	if s.current != nil {
		s.records = append(s.records, *s.current)
		s.current = nil
	}
}

func (s *lineScanner) done() []domain.Record {
	s.flush()
	domain.SortRecords(s.records)
	return s.records
}

func outputLines(out []byte) []string {
	return strings.Split(strings.ReplaceAll(string(out), "\r\n", "\n"), "\n")
}

func libraryPath(targetDir string, lib domain.Name) string {
	return filepath.Join(targetDir, lib.String())
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func commandError(err, sentinel error, output []byte) error {
	if err != nil {
		return zerr.Wrap(err, sentinel.Error())
	}
	return zerr.With(sentinel, "output", strings.TrimSpace(string(output)))
}
