// Package shell runs compiler processes with their stdout and stderr merged.
package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/creack/pty"
	"go.trai.ch/hdlbuild/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.CommandRunner = (*Runner)(nil)

// Runner implements ports.CommandRunner. Commands run under a pseudo terminal
// so the toolchain interleaves stdout and stderr exactly as a user would see
// them. When no terminal can be allocated, combined pipes are used instead.
type Runner struct {
	logger ports.Logger
}

// NewRunner creates a new Runner.
func NewRunner(logger ports.Logger) *Runner {
	return &Runner{logger: logger}
}

// Run executes cmd and waits for it to exit.
func (r *Runner) Run(ctx context.Context, cmd ports.Command) (ports.CommandResult, error) {
	env := resolveEnvironment(os.Environ(), cmd.Env)

	executable := cmd.Name
	if !filepath.IsAbs(executable) {
		lp, err := lookPath(cmd.Name, env)
		if err != nil {
			return ports.CommandResult{}, zerr.With(zerr.Wrap(err, "executable not found"), "command", cmd.Name)
		}
		executable = lp
	}

	c := exec.CommandContext(ctx, executable, cmd.Args...) //nolint:gosec // compiler invocation from project config
	c.Args[0] = cmd.Name
	c.Dir = cmd.Dir
	c.Env = env

	var out bytes.Buffer
	log := &logWriter{logger: r.logger}
	w := io.MultiWriter(&out, log)

	var waitErr error
	if wait, err := startPTY(c, w); err == nil {
		waitErr = wait()
	} else {
		r.logger.Debug("no pseudo terminal available, falling back to pipes")
		c = exec.CommandContext(ctx, executable, cmd.Args...) //nolint:gosec // compiler invocation from project config
		c.Args[0] = cmd.Name
		c.Dir = cmd.Dir
		c.Env = env
		c.Stdout = w
		c.Stderr = w
		waitErr = c.Run()
	}
	_ = log.Close()

	result := ports.CommandResult{Output: normalizeNewlines(out.Bytes())}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return result, zerr.With(zerr.Wrap(waitErr, "command failed"), "command", cmd.Name)
		}
		result.ExitCode = exitErr.ExitCode()
	}
	return result, nil
}

// startPTY starts c on a pseudo terminal copying its output to w, and
// returns a function waiting for both the process and the copy.
func startPTY(c *exec.Cmd, w io.Writer) (func() error, error) {
	ptmx, err := pty.Start(c)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to start pty")
	}

	ioDone := make(chan struct{})
	go func() {
		defer close(ioDone)
		// Reading the master after the child exits ends with EIO on Linux.
		_, _ = io.Copy(w, ptmx)
	}()

	return func() error {
		err := c.Wait()
		<-ioDone
		_ = ptmx.Close()
		return err
	}, nil
}

func normalizeNewlines(b []byte) []byte {
	return bytes.ReplaceAll(b, []byte("\r\n"), []byte("\n"))
}

// logWriter forwards complete output lines to the debug log.
type logWriter struct {
	logger ports.Logger
	buf    []byte
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.logLine(w.buf[:i])
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}

func (w *logWriter) Close() error {
	if len(w.buf) > 0 {
		w.logLine(w.buf)
		w.buf = nil
	}
	return nil
}

func (w *logWriter) logLine(line []byte) {
	w.logger.Debug(strings.TrimSuffix(string(line), "\r"))
}

// allowListedEnvVars are the variables inherited from the calling process.
// Vendor toolchains locate their installation and licenses through them.
var allowListedEnvVars = map[string]struct{}{
	"HOME":              {},
	"TERM":              {},
	"USER":              {},
	"PATH":              {},
	"LD_LIBRARY_PATH":   {},
	"LM_LICENSE_FILE":   {},
	"MGLS_LICENSE_FILE": {},
	"MODELSIM":          {},
	"GHDL_PREFIX":       {},
}

// resolveEnvironment keeps allow-listed system variables and applies overrides.
func resolveEnvironment(sysEnv []string, overrides map[string]string) []string {
	envMap := make(map[string]string)
	for _, entry := range sysEnv {
		k, v, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if _, allowed := allowListedEnvVars[k]; allowed {
			envMap[k] = v
		}
	}
	for k, v := range overrides {
		envMap[k] = v
	}

	result := make([]string, 0, len(envMap))
	for k, v := range envMap {
		result = append(result, k+"="+v)
	}
	return result
}

// lookPath searches for an executable in the PATH of env.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if strings.HasPrefix(e, "PATH=") {
			path = strings.TrimPrefix(e, "PATH=")
			break
		}
	}
	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		if err := findExecutable(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}
