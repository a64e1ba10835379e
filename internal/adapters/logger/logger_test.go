package logger_test

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/hdlbuild/internal/adapters/logger"
	"go.trai.ch/zerr"
)

// newTestLogger creates a logger writing to a buffer with colors disabled.
func newTestLogger(t *testing.T) (*logger.Logger, *bytes.Buffer) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	lg := logger.New().(*logger.Logger)
	lg.SetOutput(buf)
	return lg, buf
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name       string
		log        func(*logger.Logger)
		goldenName string
	}{
		{
			name:       "info",
			log:        func(l *logger.Logger) { l.Info("compiling lib_a.pkg") },
			goldenName: "info_basic",
		},
		{
			name:       "warn",
			log:        func(l *logger.Logger) { l.Warn("source ent.vhd is stuck") },
			goldenName: "warn_basic",
		},
		{
			name:       "multiline warn",
			log:        func(l *logger.Logger) { l.Warn("stuck sources:\n  a.vhd\n  b.vhd") },
			goldenName: "warn_multiline",
		},
		{
			name: "debug",
			log: func(l *logger.Logger) {
				l.SetVerbosity(2)
				l.Debug("span build took 12ms")
			},
			goldenName: "debug_basic",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lg, buf := newTestLogger(t)
			tt.log(lg)

			g := goldie.New(t)
			g.Assert(t, tt.goldenName, buf.Bytes())
		})
	}
}

func TestLogger_SetVerbosity(t *testing.T) {
	tests := []struct {
		name      string
		verbosity int
		wantInfo  bool
		wantDebug bool
	}{
		{name: "quiet", verbosity: 0, wantInfo: false, wantDebug: false},
		{name: "verbose", verbosity: 1, wantInfo: true, wantDebug: false},
		{name: "debug", verbosity: 2, wantInfo: true, wantDebug: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lg, buf := newTestLogger(t)
			lg.SetVerbosity(tt.verbosity)

			lg.Info("info line")
			lg.Debug("debug line")
			lg.Warn("warn line")

			out := buf.String()
			assert.Equal(t, tt.wantInfo, bytes.Contains([]byte(out), []byte("info line")))
			assert.Equal(t, tt.wantDebug, bytes.Contains([]byte(out), []byte("debug line")))
			assert.Contains(t, out, "warn line")
		})
	}
}

func TestLogger_Error(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		goldenName string
	}{
		{
			name:       "simple error",
			err:        os.ErrPermission,
			goldenName: "error_simple",
		},
		{
			name:       "multiline error",
			err:        errors.New("yaml: unmarshal errors:\n  line 3: cannot unmarshal"),
			goldenName: "error_multiline",
		},
		{
			name:       "two level chain",
			err:        zerr.Wrap(errors.New("exec: \"vcom\": executable file not found in $PATH"), "builder sanity check failed"),
			goldenName: "error_chain_zerr_two",
		},
		{
			name: "three level chain",
			err: zerr.Wrap(
				zerr.Wrap(errors.New("no such file or directory"), "failed to read project file"),
				"failed to open project",
			),
			goldenName: "error_chain_zerr_three",
		},
		{
			name:       "metadata",
			err:        zerr.With(zerr.Wrap(errors.New("connection refused"), "failed to write project snapshot"), "path", "/tmp/x"),
			goldenName: "error_metadata",
		},
		{
			name: "metadata on a plain error",
			err: zerr.With(
				zerr.With(errors.New("source not found"), "path", "/p/ent.vhd"),
				"library", "lib_a",
			),
			goldenName: "error_metadata_nested",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lg, buf := newTestLogger(t)
			lg.Error(tt.err)

			g := goldie.New(t)
			g.Assert(t, tt.goldenName, buf.Bytes())
		})
	}
}

func TestPrettyHandler_Attrs(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	log := slog.New(logger.NewPrettyHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	log.With("library", "lib_a").Info("compiling", "unit", "pkg")
	log.WithGroup("cache").Debug("hit", "path", "a.vhd")
	log.Warn("stuck", slog.Group("step", "n", 20))

	assert.Equal(t,
		"compiling library=lib_a unit=pkg\n"+
			"● hit cache.path=a.vhd\n"+
			"! stuck\n\n  step.n:  20\n",
		buf.String())
}

func TestLogger_Error_Nil(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.Error(nil)

	assert.Empty(t, buf.String(), "Expected no output for nil error")
}

func TestLogger_SetJSON(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.SetJSON(true)
	lg.Error(zerr.With(zerr.Wrap(errors.New("disk full"), "failed to write project snapshot"), "path", "/tmp/x"))

	out := buf.String()
	assert.Contains(t, out, `"level":"ERROR"`)
	assert.Contains(t, out, "failed to write project snapshot")
	assert.Contains(t, out, "/tmp/x")
	assert.NotContains(t, out, "✗")
}

func TestLogger_FormatSwitching(t *testing.T) {
	lg, buf := newTestLogger(t)

	lg.Error(errors.New("pretty"))
	pretty := buf.String()
	buf.Reset()

	lg.SetJSON(true)
	lg.Error(errors.New("json"))
	jsonOut := buf.String()
	buf.Reset()

	lg.SetJSON(false)
	lg.Error(errors.New("pretty again"))
	back := buf.String()

	assert.Contains(t, pretty, "✗")
	assert.Contains(t, jsonOut, `"error"`)
	assert.NotContains(t, jsonOut, "✗")
	assert.Contains(t, back, "✗")
}

func TestLogger_SetOutput_Nil(t *testing.T) {
	require.NotPanics(t, func() {
		lg := logger.New().(*logger.Logger)
		lg.SetOutput(nil)
	})
}

func TestLogger_ConcurrentAccess(t *testing.T) {
	lg, _ := newTestLogger(t)

	var wg sync.WaitGroup
	for range 4 {
		wg.Go(func() {
			lg.Info("concurrent info")
			lg.Warn("concurrent warn")
			lg.Error(errors.New("concurrent error"))
		})
	}
	wg.Go(func() { lg.SetJSON(true) })
	wg.Go(func() { lg.SetVerbosity(2) })
	wg.Wait()
}
