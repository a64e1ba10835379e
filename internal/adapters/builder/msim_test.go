package builder_test

import (
	"context"
	"errors"
	"os"
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

func quietLogger(ctrl *gomock.Controller) *mocks.MockLogger {
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Debug(gomock.Any()).AnyTimes()
	logger.EXPECT().Info(gomock.Any()).AnyTimes()
	return logger
}

const vcomOutput = `Model Technology ModelSim SE-64 vcom 10.5 Compiler 2016.02 Feb 10 2016
-- Loading package STANDARD
-- Compiling entity ent
** Warning: [4] /src/ent.vhd(12): (vcom-1246) Range 7 downto 8 is null.
** Error: /src/ent.vhd(3): (vcom-1136) Unknown identifier "foo".
** Error: /src/ent.vhd(5): (vcom-13) Recompile lib_a.pkg because ieee.std_logic_1164 has changed.
** Error (suppressible): /src/ent.vhd(9): (vcom-1320) Type of expression "bar" is ambiguous;
   using the first visible declaration.
** Error: /src/ent.vhd(20): VHDL Compiler exiting
`

func TestMSim_Build(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := mocks.NewMockCommandRunner(ctrl)
	target := t.TempDir()

	runner.EXPECT().Run(gomock.Any(), ports.Command{
		Name: "vcom",
		Args: []string{
			"-modelsimini", filepath.Join(target, "modelsim.ini"),
			"-work", filepath.Join(target, "lib_a"),
			"-93", "-explicit",
			"/src/ent.vhd",
		},
		Dir: target,
	}).Return(ports.CommandResult{Output: []byte(vcomOutput), ExitCode: 2}, nil)

	m := builder.NewMSim(target, runner, quietLogger(ctrl))
	result, err := m.Build(context.Background(), domain.BuildRequest{
		Library: domain.NewName("lib_a"),
		Path:    "/src/ent.vhd",
		Flags:   []string{"-93", "-explicit"},
	})
	require.NoError(t, err)

	assert.Equal(t, []domain.UnitKey{domain.NewUnitKey("lib_a", "pkg")}, result.RebuildHints)
	assert.Equal(t, []domain.Record{
		{Path: "/src/ent.vhd", Severity: domain.SeverityError, Line: 3, Code: "vcom-1136", Message: `Unknown identifier "foo".`},
		{Path: "/src/ent.vhd", Severity: domain.SeverityError, Line: 5, Code: "vcom-13", Message: "Recompile lib_a.pkg because ieee.std_logic_1164 has changed."},
		{Path: "/src/ent.vhd", Severity: domain.SeverityError, Line: 9, Code: "vcom-1320", Message: `Type of expression "bar" is ambiguous; using the first visible declaration.`},
		{Path: "/src/ent.vhd", Severity: domain.SeverityWarning, Line: 12, Code: "vcom-1246", Message: "Range 7 downto 8 is null."},
	}, result.Records)
}

func TestMSim_BuildRunnerFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := mocks.NewMockCommandRunner(ctrl)
	runner.EXPECT().Run(gomock.Any(), gomock.Any()).Return(ports.CommandResult{}, errors.New("executable not found"))

	m := builder.NewMSim(t.TempDir(), runner, quietLogger(ctrl))
	_, err := m.Build(context.Background(), domain.BuildRequest{Library: domain.NewName("lib"), Path: "/a.vhd"})
	require.Error(t, err)
}

func TestMSim_SanityCheck(t *testing.T) {
	tests := []struct {
		name    string
		result  ports.CommandResult
		runErr  error
		wantErr bool
	}{
		{name: "valid version", result: ports.CommandResult{Output: []byte("Model Technology ModelSim SE-64 vcom 10.5 Compiler 2016.02\n")}},
		{name: "unexpected output", result: ports.CommandResult{Output: []byte("command not recognized\n")}, wantErr: true},
		{name: "non-zero exit", result: ports.CommandResult{Output: []byte("vcom 10.5\n"), ExitCode: 1}, wantErr: true},
		{name: "missing executable", runErr: errors.New("executable not found"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			runner := mocks.NewMockCommandRunner(ctrl)
			target := t.TempDir()
			runner.EXPECT().Run(gomock.Any(), ports.Command{Name: "vcom", Args: []string{"-version"}, Dir: target}).Return(tt.result, tt.runErr)

			err := builder.NewMSim(target, runner, quietLogger(ctrl)).SanityCheck(context.Background())
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorContains(t, err, domain.ErrSanityCheck.Error())
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestMSim_CreateOrMapLibrary(t *testing.T) {
	t.Run("creates and maps a new library", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		runner := mocks.NewMockCommandRunner(ctrl)
		target := t.TempDir()
		libPath := filepath.Join(target, "lib_a")

		gomock.InOrder(
			runner.EXPECT().Run(gomock.Any(), ports.Command{Name: "vlib", Args: []string{"-type", "directory", libPath}, Dir: target}).
				Return(ports.CommandResult{}, nil),
			runner.EXPECT().Run(gomock.Any(), ports.Command{Name: "vmap", Args: []string{"lib_a", libPath}, Dir: target}).
				Return(ports.CommandResult{}, nil),
		)

		m := builder.NewMSim(target, runner, quietLogger(ctrl))
		require.NoError(t, m.CreateOrMapLibrary(context.Background(), domain.NewName("lib_a")))
	})

	t.Run("uses an existing modelsim.ini", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		runner := mocks.NewMockCommandRunner(ctrl)
		target := t.TempDir()
		ini := filepath.Join(target, "modelsim.ini")
		require.NoError(t, os.WriteFile(ini, []byte("[Library]\n"), domain.FilePerm))
		libPath := filepath.Join(target, "lib_b")

		runner.EXPECT().Run(gomock.Any(), gomock.Any()).Return(ports.CommandResult{}, nil)
		runner.EXPECT().Run(gomock.Any(), ports.Command{Name: "vmap", Args: []string{"-modelsimini", ini, "lib_b", libPath}, Dir: target}).
			Return(ports.CommandResult{}, nil)

		m := builder.NewMSim(target, runner, quietLogger(ctrl))
		require.NoError(t, m.CreateOrMapLibrary(context.Background(), domain.NewName("lib_b")))
	})

	t.Run("existing library is a no-op", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		runner := mocks.NewMockCommandRunner(ctrl)
		target := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(target, "lib_a"), domain.DirPerm))

		runner.EXPECT().Run(gomock.Any(), gomock.Any()).Times(0)

		m := builder.NewMSim(target, runner, quietLogger(ctrl))
		require.NoError(t, m.CreateOrMapLibrary(context.Background(), domain.NewName("lib_a")))
	})

	t.Run("vlib failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		runner := mocks.NewMockCommandRunner(ctrl)
		runner.EXPECT().Run(gomock.Any(), gomock.Any()).Return(ports.CommandResult{Output: []byte("no license"), ExitCode: 1}, nil)

		m := builder.NewMSim(t.TempDir(), runner, quietLogger(ctrl))
		err := m.CreateOrMapLibrary(context.Background(), domain.NewName("lib_a"))
		require.Error(t, err)
		assert.ErrorContains(t, err, domain.ErrLibraryCreateFailed.Error())
	})
}

func TestNew(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := mocks.NewMockCommandRunner(ctrl)
	logger := quietLogger(ctrl)
	target := filepath.Join(t.TempDir(), "nested", "target")

	b, err := builder.New("MSim", target, runner, logger)
	require.NoError(t, err)
	assert.Equal(t, builder.NameMSim, b.Name())
	assert.DirExists(t, target)

	b, err = builder.NewFactory(runner, logger)("ghdl", target)
	require.NoError(t, err)
	assert.Equal(t, builder.NameGHDL, b.Name())

	_, err = builder.New("xvhdl", target, runner, logger)
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrUnknownBuilder.Error())
}
