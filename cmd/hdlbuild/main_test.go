package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/hdlbuild/internal/adapters/config"
	"go.trai.ch/hdlbuild/internal/adapters/logger"
	"go.trai.ch/hdlbuild/internal/adapters/metrics"
	"go.trai.ch/hdlbuild/internal/adapters/report"
	"go.trai.ch/hdlbuild/internal/adapters/snapshot"
	"go.trai.ch/hdlbuild/internal/adapters/telemetry"
	"go.trai.ch/hdlbuild/internal/adapters/vhdl"
	"go.trai.ch/hdlbuild/internal/app"
	"go.trai.ch/hdlbuild/internal/core/domain"
	"go.trai.ch/hdlbuild/internal/core/ports"
)

// stubBuilder reports an error for every source whose name starts with "bad".
type stubBuilder struct{}

func (stubBuilder) Name() string                                           { return "msim" }
func (stubBuilder) BuiltinLibraries() []string                             { return vhdl.BuiltinLibraries }
func (stubBuilder) ConcurrentSafe() bool                                   { return false }
func (stubBuilder) SanityCheck(context.Context) error                      { return nil }
func (stubBuilder) CreateOrMapLibrary(context.Context, domain.Name) error { return nil }

func (stubBuilder) Build(_ context.Context, req domain.BuildRequest) (domain.BuildResult, error) {
	if !strings.HasPrefix(filepath.Base(req.Path), "bad") {
		return domain.BuildResult{}, nil
	}
	return domain.BuildResult{Records: []domain.Record{
		{Path: req.Path, Severity: domain.SeverityError, Line: 1, Message: "syntax error"},
	}}, nil
}

func testProvider(t *testing.T) (ComponentProvider, *bytes.Buffer) {
	t.Helper()
	out := new(bytes.Buffer)
	log := logger.New()
	log.(*logger.Logger).SetOutput(io.Discard)

	return func(context.Context) (*app.Components, func(), error) {
		builders := func(string, string) (ports.Builder, error) { return stubBuilder{}, nil }
		a := app.New(config.NewLoader(log), snapshot.NewStore(log), builders, vhdl.NewParser(),
			log, telemetry.NoOpTracer{}, metrics.NewRecorder()).
			WithPrinter(report.New(out, report.WithProfile(termenv.Ascii)))
		return &app.Components{App: a, Logger: log}, func() {}, nil
	}, out
}

func writeProject(t *testing.T, sources map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	names := make([]string, 0, len(sources))
	for name, text := range sources {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(text), domain.FilePerm))
		names = append(names, name)
	}
	project := filepath.Join(dir, "project.prj")
	content := "[global]\nbuilder = msim\ntarget_dir = work\n\n[lib_a]\nsources = " + strings.Join(names, " ") + "\n"
	require.NoError(t, os.WriteFile(project, []byte(content), domain.FilePerm))
	return project
}

func TestRun(t *testing.T) {
	tests := []struct {
		name         string
		sources      map[string]string
		args         func(project string) []string
		expectedExit int
		expectedOut  string
	}{
		{
			name:         "Version",
			args:         func(string) []string { return []string{"version"} },
			expectedExit: 0,
		},
		{
			name:         "Build succeeds",
			sources:      map[string]string{"pkg.vhd": "package pkg is\nend package;\n"},
			args:         func(p string) []string { return []string{p, "--build"} },
			expectedExit: 0,
			expectedOut:  "1 source compiled",
		},
		{
			name:         "Build with errors",
			sources:      map[string]string{"bad.vhd": "package bad is\nend package;\n"},
			args:         func(p string) []string { return []string{p, "-b"} },
			expectedExit: 1,
			expectedOut:  "syntax error",
		},
		{
			name:         "Missing project file",
			args:         func(p string) []string { return []string{filepath.Join(filepath.Dir(p), "none.prj"), "-b"} },
			expectedExit: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			project := writeProject(t, tt.sources)
			provider, out := testProvider(t)

			exitCode := run(context.Background(), tt.args(project), io.Discard, provider)
			assert.Equal(t, tt.expectedExit, exitCode)
			assert.Contains(t, out.String(), tt.expectedOut)
		})
	}
}

func TestRun_SavesSession(t *testing.T) {
	project := writeProject(t, map[string]string{"pkg.vhd": "package pkg is\nend package;\n"})
	provider, out := testProvider(t)

	require.Equal(t, 0, run(context.Background(), []string{project, "-b"}, io.Discard, provider))
	assert.FileExists(t, domain.SnapshotPath(project))
	assert.NoFileExists(t, domain.LockPath(project))

	out.Reset()
	require.Equal(t, 0, run(context.Background(), []string{project, "-b"}, io.Discard, provider))
	assert.Contains(t, out.String(), "0 sources compiled, 1 up to date")
}

func TestRun_ProviderError(t *testing.T) {
	stderr := new(bytes.Buffer)
	provider := func(context.Context) (*app.Components, func(), error) {
		return nil, nil, errors.New("boom")
	}

	assert.Equal(t, 1, run(context.Background(), []string{"version"}, stderr, provider))
	assert.Equal(t, "hdlbuild: boom\n", stderr.String())
}

func TestRun_Interrupted(t *testing.T) {
	project := writeProject(t, map[string]string{"pkg.vhd": "package pkg is\nend package;\n"})
	provider, _ := testProvider(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, exitInterrupted, run(ctx, []string{project, "-b"}, io.Discard, provider))
	assert.FileExists(t, domain.SnapshotPath(project), "the session is saved on interrupt")
	assert.NoFileExists(t, domain.LockPath(project))
}
