// Package app implements the application layer for hdlbuild.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"go.trai.ch/hdlbuild/internal/adapters/builder"
	"go.trai.ch/hdlbuild/internal/adapters/metrics"
	"go.trai.ch/hdlbuild/internal/adapters/report"
	"go.trai.ch/hdlbuild/internal/adapters/telemetry"
	"go.trai.ch/hdlbuild/internal/adapters/vhdl"
	"go.trai.ch/hdlbuild/internal/adapters/watcher"
	"go.trai.ch/hdlbuild/internal/core/domain"
	"go.trai.ch/hdlbuild/internal/core/ports"
	"go.trai.ch/hdlbuild/internal/engine/scheduler"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	store        ports.SnapshotStore
	builders     builder.Factory
	parser       ports.SourceParser
	logger       ports.Logger
	tracer       ports.Tracer
	metrics      *metrics.Recorder
	printer      *report.Printer
	newWatcher   watcher.Factory
	now          func() time.Time
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	store ports.SnapshotStore,
	builders builder.Factory,
	parser ports.SourceParser,
	log ports.Logger,
	tracer ports.Tracer,
	recorder *metrics.Recorder,
) *App {
	return &App{
		configLoader: loader,
		store:        store,
		builders:     builders,
		parser:       parser,
		logger:       log,
		tracer:       tracer,
		metrics:      recorder,
		printer:      report.New(os.Stdout),
		now:          time.Now,
	}
}

// WithPrinter replaces the stdout printer. Used for testing.
func (a *App) WithPrinter(p *report.Printer) *App {
	a.printer = p
	return a
}

// WithWatcherFactory sets how watch sessions obtain a file watcher.
func (a *App) WithWatcherFactory(f watcher.Factory) *App {
	a.newWatcher = f
	return a
}

// WithClock replaces the clock stamped into snapshots. Used for testing.
func (a *App) WithClock(now func() time.Time) *App {
	a.now = now
	return a
}

// ConfigureLogging applies the CLI verbosity and format to the logger when it supports them.
func (a *App) ConfigureLogging(verbosity int, jsonOutput bool) {
	if l, ok := a.logger.(interface{ SetVerbosity(int) }); ok {
		l.SetVerbosity(verbosity)
	}
	if l, ok := a.logger.(interface{ SetJSON(bool) }); ok {
		l.SetJSON(jsonOutput)
	}
}

// RunOptions configuration for the Run method.
type RunOptions struct {
	// Clean removes the snapshot and the target directory before anything else.
	Clean bool
	// Build runs a batch build, or builds Targets when any are given.
	Build bool
	// Targets are source paths. They are built on demand and select the
	// sources shown by the print options.
	Targets []string

	PrintDependencyMap        bool
	PrintReverseDependencyMap bool
	PrintDesignUnits          bool
	PrintBuildSteps           bool

	// MetricsFile receives the Prometheus textfile at session end.
	MetricsFile string
}

// Run opens the project, performs the requested actions and saves the session.
//
//nolint:cyclop // orchestration function
func (a *App) Run(ctx context.Context, projectFile string, opts RunOptions) (err error) {
	shutdown := telemetry.Setup(telemetry.NewLogBridge(a.logger))
	defer func() {
		_ = shutdown(context.WithoutCancel(ctx))
	}()

	s, err := a.open(ctx, projectFile, opts.Clean, opts.Build)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, s.close(opts.MetricsFile))
	}()

	targets, err := absPaths(opts.Targets)
	if err != nil {
		return err
	}

	var buildErr error
	if opts.Build {
		buildErr = s.build(ctx, targets)
		if buildErr != nil && !errors.Is(buildErr, domain.ErrBuildHasErrors) {
			return buildErr
		}
	}

	if opts.PrintDependencyMap {
		if err := s.printDependencyMap(ctx, targets); err != nil {
			return err
		}
	}
	if opts.PrintReverseDependencyMap {
		if err := s.printReverseDependencyMap(ctx, targets); err != nil {
			return err
		}
	}
	if opts.PrintDesignUnits {
		if err := s.printDesignUnits(ctx, targets); err != nil {
			return err
		}
	}
	if opts.PrintBuildSteps {
		if err := s.printBuildSteps(ctx); err != nil {
			return err
		}
	}

	return buildErr
}

// WatchOptions configuration for the Watch method.
type WatchOptions struct {
	Clean       bool
	MetricsFile string
}

// Watch builds the project, then rebuilds sources as they change until ctx is
// done. A cancelled ctx is returned once pending rebuilds have finished.
func (a *App) Watch(ctx context.Context, projectFile string, opts WatchOptions) (err error) {
	if a.newWatcher == nil {
		return zerr.New("file watching is not available")
	}

	shutdown := telemetry.Setup(telemetry.NewLogBridge(a.logger))
	defer func() {
		_ = shutdown(context.WithoutCancel(ctx))
	}()

	s, err := a.open(ctx, projectFile, opts.Clean, true)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, s.close(opts.MetricsFile))
	}()

	w, err := a.newWatcher()
	if err != nil {
		return zerr.Wrap(err, "failed to create file watcher")
	}

	if err := s.build(ctx, nil); err != nil && !errors.Is(err, domain.ErrBuildHasErrors) {
		return err
	}

	dirs := watchDirs(s.project.Paths(), s.cfg.Path)
	if err := w.Start(ctx, dirs); err != nil {
		return zerr.Wrap(err, "failed to start file watcher")
	}
	defer func() {
		_ = w.Stop()
	}()
	a.logger.Info(fmt.Sprintf("watching %d directories for changes", len(dirs)))

	var mu sync.Mutex
	debouncer := watcher.NewDebouncer(watcher.DefaultDebounceWindow, func(paths []string) {
		mu.Lock()
		defer mu.Unlock()
		s.rebuild(ctx, paths)
	})

	for ev := range w.Events() {
		if ev.Operation == ports.OpRemove {
			continue
		}
		if ev.Path == s.cfg.Path {
			a.logger.Warn(fmt.Sprintf("%s changed, restart to reload it", filepath.Base(ev.Path)))
			continue
		}
		if s.project.Has(ev.Path) {
			debouncer.Add(ev.Path)
		}
	}
	debouncer.Flush()

	// Wait for a rebuild still running on the debounce timer.
	mu.Lock()
	mu.Unlock() //nolint:staticcheck // barrier
	return ctx.Err()
}

// Check runs the static checker over files and prints its findings.
func (a *App) Check(_ context.Context, files []string) error {
	var records []domain.Record
	for _, f := range files {
		//nolint:gosec // Paths come from the command line.
		text, err := os.ReadFile(f)
		if err != nil {
			return zerr.With(zerr.Wrap(err, "failed to read source"), "path", f)
		}
		records = append(records, vhdl.StaticCheck(f, text)...)
	}

	domain.SortRecords(records)
	a.printer.Records(records)

	if domain.HasErrors(records) {
		return errors.Join(domain.ErrBuildHasErrors, zerr.New("static check found errors"))
	}
	return nil
}

// session is one opened project: its configuration, scheduler and lock.
type session struct {
	app         *App
	cfg         *domain.ProjectConfig
	project     *scheduler.Project
	configMtime time.Time
	sessionID   string
}

// open loads and locks the project. The compiler is only sanity checked when
// the session is going to compile.
func (a *App) open(ctx context.Context, projectFile string, clean, compile bool) (*session, error) {
	cfg, err := a.configLoader.Load(projectFile)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load project")
	}
	mtime, err := a.configLoader.Mtime(cfg.Path)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load project")
	}

	if err := a.store.Lock(cfg.Path); err != nil {
		return nil, err
	}
	unlock := true
	defer func() {
		if unlock {
			_ = a.store.Unlock(cfg.Path)
		}
	}()

	if clean {
		if err := a.clean(cfg); err != nil {
			return nil, err
		}
	}

	b, err := a.builders(cfg.Builder, cfg.TargetDir)
	if err != nil {
		return nil, err
	}
	if compile {
		if err := b.SanityCheck(ctx); err != nil {
			return nil, err
		}
	}

	s := &session{
		app:         a,
		cfg:         cfg,
		project:     scheduler.New(cfg, b, a.parser, a.logger, a.tracer, a.metrics),
		configMtime: mtime,
	}
	s.restore()

	unlock = false
	return s, nil
}

// restore reloads the previous session's state unless the project file changed since.
func (s *session) restore() {
	snap, err := s.app.store.Load(s.cfg.Path)
	if err != nil {
		s.app.logger.Warn(fmt.Sprintf("ignoring previous session: %v", err))
		return
	}
	if snap == nil {
		return
	}
	if snap.ConfigMtime.Before(s.configMtime) {
		s.app.logger.Info(fmt.Sprintf("%s changed since the last session, starting fresh", filepath.Base(s.cfg.Path)))
		return
	}
	if err := s.project.Restore(snap); err != nil {
		s.app.logger.Warn(fmt.Sprintf("ignoring previous session: %v", err))
		s.project.Clean()
		return
	}
	s.sessionID = snap.SessionID
	s.app.logger.Debug(fmt.Sprintf("restored session %s saved at %s", snap.SessionID, snap.SavedAt.Format(time.RFC3339)))
}

func (a *App) clean(cfg *domain.ProjectConfig) error {
	var errs error

	a.logger.Info("removing snapshot...")
	if err := a.store.Remove(cfg.Path); err != nil {
		errs = errors.Join(errs, zerr.Wrap(err, "failed to remove snapshot"))
	}

	a.logger.Info(fmt.Sprintf("removing %s...", cfg.TargetDir))
	if err := os.RemoveAll(cfg.TargetDir); err != nil {
		errs = errors.Join(errs, zerr.Wrap(err, fmt.Sprintf("failed to remove %s", cfg.TargetDir)))
	}

	return errs
}

// close persists the session, releases the lock and writes metrics.
func (s *session) close(metricsFile string) error {
	var errs error

	snap := s.project.Snapshot()
	snap.SessionID = s.sessionID
	snap.ConfigMtime = s.configMtime
	snap.SavedAt = s.app.now()
	if err := s.app.store.Save(s.cfg.Path, snap); err != nil {
		errs = errors.Join(errs, err)
	}

	if err := s.app.store.Unlock(s.cfg.Path); err != nil {
		errs = errors.Join(errs, zerr.Wrap(err, "failed to release project lock"))
	}

	if metricsFile != "" && s.app.metrics != nil {
		if err := s.app.metrics.WriteTextfile(metricsFile); err != nil {
			errs = errors.Join(errs, err)
		}
	}

	return errs
}

func (s *session) build(ctx context.Context, targets []string) error {
	var reports []*scheduler.Report
	if len(targets) == 0 {
		rep, err := s.project.BuildByDependency(ctx)
		if err != nil {
			return err
		}
		reports = append(reports, rep)
	}
	for _, path := range targets {
		rep, err := s.project.BuildByPath(ctx, path, true)
		if err != nil {
			return err
		}
		reports = append(reports, rep)
	}

	return s.show(reports...)
}

// rebuild builds paths changed on disk. Failures are logged so watching continues.
func (s *session) rebuild(ctx context.Context, paths []string) {
	if ctx.Err() != nil {
		return
	}
	for _, path := range paths {
		s.app.logger.Info(fmt.Sprintf("%s changed, rebuilding", filepath.Base(path)))
		rep, err := s.project.BuildByPath(ctx, path, false)
		if err != nil {
			s.app.logger.Error(err)
			continue
		}
		_ = s.show(rep)
	}
}

// show prints the records and summary of reports and fails when any record is an error.
func (s *session) show(reports ...*scheduler.Report) error {
	var (
		records []domain.Record
		summary report.Summary
		stuck   = make(map[string]bool)
	)
	for _, rep := range reports {
		records = append(records, rep.Records()...)
		summary.Compiled += len(rep.Compiled)
		summary.Cached += rep.Cached
		summary.Steps += rep.Steps
		for _, st := range rep.Stuck {
			stuck[st.Path] = true
		}
	}
	domain.SortRecords(records)
	summary.NotBuilt = len(stuck)
	for _, r := range records {
		switch r.Severity {
		case domain.SeverityError:
			summary.Errors++
		case domain.SeverityWarning:
			summary.Warnings++
		}
	}

	s.app.printer.Records(records)
	s.app.printer.Summary(summary)

	if summary.Errors > 0 {
		return errors.Join(domain.ErrBuildHasErrors, zerr.With(zerr.New("build finished with errors"), "errors", summary.Errors))
	}
	return nil
}

func (s *session) printDependencyMap(ctx context.Context, targets []string) error {
	deps, err := s.project.DependencyMap(ctx)
	if err != nil {
		return err
	}
	if len(targets) > 0 {
		for path := range deps {
			if !slices.Contains(targets, path) {
				delete(deps, path)
			}
		}
	}
	s.app.printer.DependencyMap(deps)
	return nil
}

func (s *session) printReverseDependencyMap(ctx context.Context, targets []string) error {
	rdeps, err := s.project.ReverseDependencyMap(ctx)
	if err != nil {
		return err
	}
	if len(targets) > 0 {
		sources, err := s.selectSources(ctx, targets)
		if err != nil {
			return err
		}
		var keep []domain.UnitKey
		for _, src := range sources {
			keep = append(keep, src.Keys()...)
		}
		for key := range rdeps {
			if !slices.Contains(keep, key) {
				delete(rdeps, key)
			}
		}
	}
	s.app.printer.ReverseDependencyMap(rdeps)
	return nil
}

func (s *session) printDesignUnits(ctx context.Context, targets []string) error {
	sources, err := s.selectSources(ctx, targets)
	if err != nil {
		return err
	}
	s.app.printer.DesignUnits(sources)
	return nil
}

func (s *session) printBuildSteps(ctx context.Context) error {
	plan, err := s.project.PlanSteps(ctx)
	if err != nil {
		return err
	}
	stuck := make([]report.StuckSource, 0, len(plan.Stuck))
	for _, st := range plan.Stuck {
		stuck = append(stuck, report.StuckSource{Path: st.Path, Missing: st.Missing})
	}
	s.app.printer.BuildSteps(plan.Steps, stuck)
	if plan.LimitReached {
		s.app.logger.Warn(domain.ErrStepLimitExceeded.Error())
	}
	return nil
}

// selectSources returns the registered sources, narrowed to targets when any are given.
func (s *session) selectSources(ctx context.Context, targets []string) ([]domain.SourceFile, error) {
	for _, path := range targets {
		if !s.project.Has(path) {
			return nil, zerr.With(domain.ErrSourceNotFound, "path", path)
		}
	}
	sources, err := s.project.Sources(ctx)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return sources, nil
	}
	return slices.DeleteFunc(sources, func(src domain.SourceFile) bool {
		return !slices.Contains(targets, src.Path)
	}), nil
}

func absPaths(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to resolve target"), "path", p)
		}
		out = append(out, abs)
	}
	return out, nil
}

// watchDirs lists the directories holding the sources and the project file.
func watchDirs(paths []string, projectFile string) []string {
	dirs := []string{filepath.Dir(projectFile)}
	for _, p := range paths {
		dirs = append(dirs, filepath.Dir(p))
	}
	slices.Sort(dirs)
	return slices.Compact(dirs)
}
