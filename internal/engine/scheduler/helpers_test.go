package scheduler_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.trai.ch/hdlbuild/internal/adapters/vhdl"
	"go.trai.ch/hdlbuild/internal/core/domain"
	"go.trai.ch/hdlbuild/internal/core/ports"
	"go.trai.ch/hdlbuild/internal/core/ports/mocks"
	"go.trai.ch/hdlbuild/internal/engine/scheduler"
	"go.uber.org/mock/gomock"
)

// fakeBuilder records every Build call and answers from per-path queues.
type fakeBuilder struct {
	mu        sync.Mutex
	calls     []string
	libraries []string
	results   map[string][]domain.BuildResult
	errs      map[string]error

	concurrentSafe bool
	delay          time.Duration
	release        chan struct{}
	active         int
	maxActive      int
	onBuild        func(path string)
}

func newFakeBuilder() *fakeBuilder {
	return &fakeBuilder{
		results: make(map[string][]domain.BuildResult),
		errs:    make(map[string]error),
	}
}

func (b *fakeBuilder) Name() string               { return "fake" }
func (b *fakeBuilder) BuiltinLibraries() []string { return vhdl.BuiltinLibraries }
func (b *fakeBuilder) ConcurrentSafe() bool       { return b.concurrentSafe }

func (b *fakeBuilder) SanityCheck(context.Context) error { return nil }

func (b *fakeBuilder) CreateOrMapLibrary(_ context.Context, lib domain.Name) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.libraries = append(b.libraries, lib.String())
	return nil
}

func (b *fakeBuilder) Build(_ context.Context, req domain.BuildRequest) (domain.BuildResult, error) {
	b.mu.Lock()
	b.calls = append(b.calls, req.Path)
	b.active++
	b.maxActive = max(b.maxActive, b.active)
	var result domain.BuildResult
	if queue := b.results[req.Path]; len(queue) > 0 {
		result = queue[0]
		b.results[req.Path] = queue[1:]
	}
	err := b.errs[req.Path]
	hook := b.onBuild
	b.mu.Unlock()

	if hook != nil {
		hook(req.Path)
	}
	if b.release != nil {
		<-b.release
	}
	if b.delay > 0 {
		time.Sleep(b.delay)
	}

	b.mu.Lock()
	b.active--
	b.mu.Unlock()
	return result, err
}

func (b *fakeBuilder) queue(path string, results ...domain.BuildResult) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.results[path] = append(b.results[path], results...)
}

func (b *fakeBuilder) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.calls)
}

func (b *fakeBuilder) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = nil
}

// project is a test project on disk.
type project struct {
	dir       string
	libraries map[string][]string
	policy    domain.Policy
}

func newProjectDir(t *testing.T) *project {
	t.Helper()
	return &project{
		dir:       t.TempDir(),
		libraries: make(map[string][]string),
		policy:    domain.DefaultPolicy(),
	}
}

// add writes a source into the project and returns its path.
func (p *project) add(t *testing.T, lib, name, text string) string {
	t.Helper()
	path := filepath.Join(p.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(text), domain.FilePerm))
	p.libraries[lib] = append(p.libraries[lib], path)
	return path
}

func (p *project) config() *domain.ProjectConfig {
	cfg := &domain.ProjectConfig{
		Path:      filepath.Join(p.dir, "project.prj"),
		Builder:   "fake",
		TargetDir: filepath.Join(p.dir, ".build"),
		Flags:     domain.BuildFlags{Global: []string{"-93"}, Batch: []string{"-batch"}, Single: []string{"-single"}},
		Policy:    p.policy,
	}
	names := make([]string, 0, len(p.libraries))
	for name := range p.libraries {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		cfg.Libraries = append(cfg.Libraries, domain.LibraryConfig{Name: domain.NewName(name), Sources: p.libraries[name]})
	}
	return cfg
}

func packageText(name string, uses ...string) string {
	return usesText(uses) + fmt.Sprintf("package %s is\nend package;\n", name)
}

func entityText(name string, uses ...string) string {
	return usesText(uses) + fmt.Sprintf("entity %s is\nend entity;\n", name)
}

func usesText(uses []string) string {
	var b strings.Builder
	for _, u := range uses {
		lib, _, _ := strings.Cut(u, ".")
		if lib != "work" {
			fmt.Fprintf(&b, "library %s;\n", lib)
		}
		fmt.Fprintf(&b, "use %s.all;\n", u)
	}
	return b.String()
}

func permissiveLogger(ctrl *gomock.Controller) *mocks.MockLogger {
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Debug(gomock.Any()).AnyTimes()
	logger.EXPECT().Info(gomock.Any()).AnyTimes()
	logger.EXPECT().Warn(gomock.Any()).AnyTimes()
	logger.EXPECT().Error(gomock.Any()).AnyTimes()
	return logger
}

func noopTracer(ctrl *gomock.Controller) *mocks.MockTracer {
	span := mocks.NewMockSpan(ctrl)
	span.EXPECT().End().AnyTimes()
	span.EXPECT().RecordError(gomock.Any()).AnyTimes()
	span.EXPECT().SetAttribute(gomock.Any(), gomock.Any()).AnyTimes()

	tracer := mocks.NewMockTracer(ctrl)
	tracer.EXPECT().Start(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string) (context.Context, ports.Span) {
			return ctx, span
		},
	).AnyTimes()
	return tracer
}

func noopMetrics(ctrl *gomock.Controller) *mocks.MockMetrics {
	m := mocks.NewMockMetrics(ctrl)
	m.EXPECT().ObserveBuild(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	m.EXPECT().CacheHit().AnyTimes()
	m.EXPECT().RebuildHints(gomock.Any()).AnyTimes()
	m.EXPECT().StepCompleted().AnyTimes()
	m.EXPECT().StuckSources(gomock.Any()).AnyTimes()
	return m
}

func newScheduler(t *testing.T, p *project, builder ports.Builder, logger ports.Logger) *scheduler.Project {
	t.Helper()
	ctrl := gomock.NewController(t)
	if logger == nil {
		logger = permissiveLogger(ctrl)
	}
	return scheduler.New(p.config(), builder, vhdl.NewParser(), logger, noopTracer(ctrl), noopMetrics(ctrl))
}

// touch moves the mtime of path forward without changing its content.
func touch(t *testing.T, path string, by time.Duration) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	mtime := info.ModTime().Add(by)
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

// rewrite replaces the content of path and moves its mtime forward.
func rewrite(t *testing.T, path, text string, by time.Duration) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte(text), domain.FilePerm))
	mtime := info.ModTime().Add(by)
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func hint(s string) domain.UnitKey {
	k, _ := domain.ParseUnitKey(s)
	return k
}
