package builder

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"go.trai.ch/hdlbuild/internal/adapters/vhdl"
	"go.trai.ch/hdlbuild/internal/core/domain"
	"go.trai.ch/hdlbuild/internal/core/ports"
	"go.trai.ch/zerr"
)

var (
	reMSimStart    = regexp.MustCompile(`(?i)^\*\*\s*(error|warning)(?:\s*\(suppressible\))?:\s*(.*)$`)
	reMSimLevel    = regexp.MustCompile(`^\[\d+\]\s*`)
	reMSimLocation = regexp.MustCompile(`^(.+?)\((\d+)\):\s*`)
	reMSimCode     = regexp.MustCompile(`^\((vcom-\d+)\)\s*`)
	reMSimRebuild  = regexp.MustCompile(`(?i)recompile\s+(\w+\.\w+)`)
	reMSimVersion  = regexp.MustCompile(`vcom\s+\S+`)
	reMSimExiting  = regexp.MustCompile(`(?i)\(vcom-11\)|VHDL Compiler exiting`)
	reMSimNoise    = regexp.MustCompile(`(?i)^\s*(--|#|model technology|questa|modelsim|start time|end time|errors:\s*\d+)`)
)

const msimRecompileCode = "(vcom-13)"

// MSim drives ModelSim and Questa through vcom, vlib and vmap.
type MSim struct {
	targetDir string
	ini       string
	runner    ports.CommandRunner
	logger    ports.Logger
}

// NewMSim creates a ModelSim builder.
func NewMSim(targetDir string, runner ports.CommandRunner, logger ports.Logger) *MSim {
	return &MSim{
		targetDir: targetDir,
		ini:       filepath.Join(targetDir, "modelsim.ini"),
		runner:    runner,
		logger:    logger,
	}
}

// Name implements ports.Builder.
func (m *MSim) Name() string { return NameMSim }

// BuiltinLibraries implements ports.Builder.
func (m *MSim) BuiltinLibraries() []string { return vhdl.BuiltinLibraries }

// ConcurrentSafe implements ports.Builder. vcom updates the shared
// modelsim.ini and library index, so invocations are serialized.
func (m *MSim) ConcurrentSafe() bool { return false }

// SanityCheck runs vcom -version.
func (m *MSim) SanityCheck(ctx context.Context) error {
	res, err := m.runner.Run(ctx, ports.Command{Name: "vcom", Args: []string{"-version"}, Dir: m.targetDir})
	if err != nil {
		return zerr.Wrap(err, domain.ErrSanityCheck.Error())
	}
	version := strings.TrimSpace(string(res.Output))
	if res.ExitCode != 0 || !reMSimVersion.MatchString(version) {
		return zerr.With(domain.ErrSanityCheck, "version", version)
	}
	m.logger.Info(fmt.Sprintf("vcom version: %s", version))
	return nil
}

// CreateOrMapLibrary creates the library directory with vlib and maps it
// with vmap. An existing library directory is left untouched.
func (m *MSim) CreateOrMapLibrary(ctx context.Context, library domain.Name) error {
	path := libraryPath(m.targetDir, library)
	if exists(path) {
		return nil
	}

	m.logger.Info(fmt.Sprintf("creating library %s", library))
	vmapArgs := []string{library.String(), path}
	if exists(m.ini) {
		vmapArgs = append([]string{"-modelsimini", m.ini}, vmapArgs...)
	}

	for _, cmd := range []ports.Command{
		{Name: "vlib", Args: []string{"-type", "directory", path}, Dir: m.targetDir},
		{Name: "vmap", Args: vmapArgs, Dir: m.targetDir},
	} {
		res, err := m.runner.Run(ctx, cmd)
		if err != nil || res.ExitCode != 0 {
			return zerr.With(commandError(err, domain.ErrLibraryCreateFailed, res.Output), "library", library.String())
		}
	}
	return nil
}

// Build runs vcom for one source.
func (m *MSim) Build(ctx context.Context, req domain.BuildRequest) (domain.BuildResult, error) {
	args := []string{"-modelsimini", m.ini, "-work", libraryPath(m.targetDir, req.Library)}
	args = append(args, req.Flags...)
	args = append(args, req.Path)

	m.logger.Debug("vcom " + strings.Join(args, " "))
	res, err := m.runner.Run(ctx, ports.Command{Name: "vcom", Args: args, Dir: m.targetDir})
	if err != nil {
		return domain.BuildResult{}, err
	}
	return parseMSimOutput(req.Path, res.Output), nil
}

// parseMSimOutput turns vcom output into records and rebuild hints.
func parseMSimOutput(path string, out []byte) domain.BuildResult {
	var (
		scan   lineScanner
		result domain.BuildResult
	)

	for _, line := range outputLines(out) {
		if strings.Contains(line, msimRecompileCode) {
			for _, m := range reMSimRebuild.FindAllStringSubmatch(line, -1) {
				if key, ok := domain.ParseUnitKey(m[1]); ok {
					result.RebuildHints = append(result.RebuildHints, key)
				}
			}
		}

		if reMSimNoise.MatchString(line) {
			scan.flush()
			continue
		}
		m := reMSimStart.FindStringSubmatch(line)
		if m == nil {
			scan.continueWith(line)
			continue
		}
		if reMSimExiting.MatchString(line) {
			scan.flush()
			continue
		}
		scan.open(msimRecord(path, m[1], m[2]))
	}

	result.Records = scan.done()
	return result
}

func msimRecord(path, severity, rest string) domain.Record {
	rec := domain.Record{Path: path, Severity: domain.SeverityError}
	if strings.EqualFold(severity, "warning") {
		rec.Severity = domain.SeverityWarning
	}

	rest = reMSimLevel.ReplaceAllString(rest, "")
	if loc := reMSimLocation.FindStringSubmatch(rest); loc != nil {
		rec.Path = loc[1]
		rec.Line, _ = strconv.Atoi(loc[2])
		rest = rest[len(loc[0]):]
	}
	if code := reMSimCode.FindStringSubmatch(rest); code != nil {
		rec.Code = code[1]
		rest = rest[len(code[0]):]
	}
	rec.Message = strings.TrimSpace(rest)
	return rec
}
