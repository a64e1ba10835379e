package builder_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/hdlbuild/internal/adapters/builder"
	"go.trai.ch/hdlbuild/internal/core/domain"
	"go.trai.ch/hdlbuild/internal/core/ports"
	"go.trai.ch/hdlbuild/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

const ghdlOutput = `/src/top.vhd:14:5:warning: declaration of "tmp" hides signal "tmp"
/src/top.vhd:7:10: entity "core" is obsoleted by package "pkg"
/src/top.vhd:22:3:error: no declaration for "missing"
  (the name was used here)
/src/top.vhd:30:1:note: some note
ghdl:error: compilation error
`

func TestGHDL_Build(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := mocks.NewMockCommandRunner(ctrl)
	target := t.TempDir()
	g := builder.NewGHDL(target, runner, quietLogger(ctrl))

	require.NoError(t, g.CreateOrMapLibrary(context.Background(), domain.NewName("lib_b")))
	require.NoError(t, g.CreateOrMapLibrary(context.Background(), domain.NewName("lib_a")))
	require.NoError(t, g.CreateOrMapLibrary(context.Background(), domain.NewName("lib_a")))
	assert.DirExists(t, filepath.Join(target, "lib_a"))

	runner.EXPECT().Run(gomock.Any(), ports.Command{
		Name: "ghdl",
		Args: []string{
			"-a", "--std=08",
			"--workdir=" + filepath.Join(target, "lib_b"),
			"--work=lib_b",
			"-P" + filepath.Join(target, "lib_a"),
			"-P" + filepath.Join(target, "lib_b"),
			"-frelaxed",
			"/src/top.vhd",
		},
		Dir: target,
	}).Return(ports.CommandResult{Output: []byte(ghdlOutput), ExitCode: 1}, nil)

	result, err := g.Build(context.Background(), domain.BuildRequest{
		Library: domain.NewName("lib_b"),
		Path:    "/src/top.vhd",
		Flags:   []string{"-frelaxed"},
	})
	require.NoError(t, err)

	assert.Equal(t, []domain.UnitKey{domain.NewUnitKey("lib_b", "core")}, result.RebuildHints)
	assert.Equal(t, []domain.Record{
		{Path: "/src/top.vhd", Severity: domain.SeverityError, Line: 7, Column: 10, Message: `entity "core" is obsoleted by package "pkg"`},
		{Path: "/src/top.vhd", Severity: domain.SeverityError, Line: 22, Column: 3, Message: `no declaration for "missing" (the name was used here)`},
		{Path: "/src/top.vhd", Severity: domain.SeverityWarning, Line: 14, Column: 5, Message: `declaration of "tmp" hides signal "tmp"`},
	}, result.Records)
}

func TestGHDL_StdFlagOverride(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := mocks.NewMockCommandRunner(ctrl)
	target := t.TempDir()
	g := builder.NewGHDL(target, runner, quietLogger(ctrl))

	runner.EXPECT().Run(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, cmd ports.Command) (ports.CommandResult, error) {
			assert.NotContains(t, cmd.Args, "--std=08")
			assert.Contains(t, cmd.Args, "--std=93c")
			return ports.CommandResult{}, nil
		},
	)

	_, err := g.Build(context.Background(), domain.BuildRequest{
		Library: domain.NewName("lib"),
		Path:    "/src/a.vhd",
		Flags:   []string{"--std=93c"},
	})
	require.NoError(t, err)
}

func TestGHDL_SanityCheck(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := mocks.NewMockCommandRunner(ctrl)
	target := t.TempDir()
	g := builder.NewGHDL(target, runner, quietLogger(ctrl))

	runner.EXPECT().Run(gomock.Any(), ports.Command{Name: "ghdl", Args: []string{"--version"}, Dir: target}).
		Return(ports.CommandResult{Output: []byte("GHDL 3.0.0 (Ubuntu 3.0.0+dfsg-1) [Dunoon edition]\n Compiled with GNAT\n")}, nil)
	require.NoError(t, g.SanityCheck(context.Background()))

	runner.EXPECT().Run(gomock.Any(), gomock.Any()).Return(ports.CommandResult{Output: []byte("bash: ghdl: command not found")}, nil)
	err := g.SanityCheck(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrSanityCheck.Error())
}
