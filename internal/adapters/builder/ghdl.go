package builder

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"

	"go.trai.ch/hdlbuild/internal/adapters/vhdl"
	"go.trai.ch/hdlbuild/internal/core/domain"
	"go.trai.ch/hdlbuild/internal/core/ports"
	"go.trai.ch/zerr"
)

var (
	reGHDLStart    = regexp.MustCompile(`^(.+?):(\d+):(\d+):\s*(?:(error|warning|note):\s*)?(.*)$`)
	reGHDLObsolete = regexp.MustCompile(`(?i)\b\w+ "(\w+)" is obsoleted by`)
	reGHDLRecomp   = regexp.MustCompile(`(?i)"(\w+)" must be recompiled`)
	reGHDLSummary  = regexp.MustCompile(`^\S*ghdl(\.exe)?:\s*(?:error:\s*)?compilation error`)
)

const ghdlDefaultStd = "--std=08"

// GHDL drives the GHDL analyzer. Each library lives in its own work directory.
type GHDL struct {
	targetDir string
	runner    ports.CommandRunner
	logger    ports.Logger

	mu        sync.Mutex
	libraries []string
}

// NewGHDL creates a GHDL builder.
func NewGHDL(targetDir string, runner ports.CommandRunner, logger ports.Logger) *GHDL {
	return &GHDL{targetDir: targetDir, runner: runner, logger: logger}
}

// Name implements ports.Builder.
func (g *GHDL) Name() string { return NameGHDL }

// BuiltinLibraries implements ports.Builder.
func (g *GHDL) BuiltinLibraries() []string { return vhdl.BuiltinLibraries }

// ConcurrentSafe implements ports.Builder. Analysis rewrites the library
// index file, so two sources of one library must not be analyzed at once.
func (g *GHDL) ConcurrentSafe() bool { return false }

// SanityCheck runs ghdl --version.
func (g *GHDL) SanityCheck(ctx context.Context) error {
	res, err := g.runner.Run(ctx, ports.Command{Name: "ghdl", Args: []string{"--version"}, Dir: g.targetDir})
	if err != nil {
		return zerr.Wrap(err, domain.ErrSanityCheck.Error())
	}
	first, _, _ := strings.Cut(strings.TrimSpace(string(res.Output)), "\n")
	if res.ExitCode != 0 || !strings.HasPrefix(first, "GHDL") {
		return zerr.With(domain.ErrSanityCheck, "version", first)
	}
	g.logger.Info(fmt.Sprintf("ghdl version: %s", first))
	return nil
}

// CreateOrMapLibrary creates the library work directory.
func (g *GHDL) CreateOrMapLibrary(_ context.Context, library domain.Name) error {
	path := libraryPath(g.targetDir, library)
	if err := os.MkdirAll(path, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrLibraryCreateFailed.Error()), "library", library.String())
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if !slices.Contains(g.libraries, library.String()) {
		g.libraries = append(g.libraries, library.String())
		slices.Sort(g.libraries)
	}
	return nil
}

// Build analyzes one source with ghdl -a.
func (g *GHDL) Build(ctx context.Context, req domain.BuildRequest) (domain.BuildResult, error) {
	args := []string{"-a"}
	if !slices.ContainsFunc(req.Flags, func(f string) bool { return strings.HasPrefix(f, "--std=") }) {
		args = append(args, ghdlDefaultStd)
	}
	args = append(args,
		"--workdir="+libraryPath(g.targetDir, req.Library),
		"--work="+req.Library.String(),
	)

	g.mu.Lock()
	for _, lib := range g.libraries {
		args = append(args, "-P"+libraryPath(g.targetDir, domain.NewName(lib)))
	}
	g.mu.Unlock()

	args = append(args, req.Flags...)
	args = append(args, req.Path)

	g.logger.Debug("ghdl " + strings.Join(args, " "))
	res, err := g.runner.Run(ctx, ports.Command{Name: "ghdl", Args: args, Dir: g.targetDir})
	if err != nil {
		return domain.BuildResult{}, err
	}
	return parseGHDLOutput(req.Library, res.Output), nil
}

// parseGHDLOutput turns ghdl -a output into records and rebuild hints.
// Hinted units are assumed to live in the library being analyzed.
func parseGHDLOutput(library domain.Name, out []byte) domain.BuildResult {
	var (
		scan   lineScanner
		result domain.BuildResult
	)

	for _, line := range outputLines(out) {
		for _, re := range []*regexp.Regexp{reGHDLObsolete, reGHDLRecomp} {
			for _, m := range re.FindAllStringSubmatch(line, -1) {
				key := domain.UnitKey{Library: library, Unit: domain.NewName(m[1])}
				if !slices.Contains(result.RebuildHints, key) {
					result.RebuildHints = append(result.RebuildHints, key)
				}
			}
		}

		if reGHDLSummary.MatchString(line) {
			scan.flush()
			continue
		}
		m := reGHDLStart.FindStringSubmatch(line)
		if m == nil {
			scan.continueWith(line)
			continue
		}
		if m[4] == "note" {
			scan.flush()
			continue
		}

		rec := domain.Record{Path: m[1], Severity: domain.SeverityError, Message: strings.TrimSpace(m[5])}
		if m[4] == "warning" {
			rec.Severity = domain.SeverityWarning
		}
		rec.Line, _ = strconv.Atoi(m[2])
		rec.Column, _ = strconv.Atoi(m[3])
		scan.open(rec)
	}

	result.Records = scan.done()
	return result
}
