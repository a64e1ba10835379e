// Package scheduler drives whole-project and on-demand builds of a project.
package scheduler

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	"go.trai.ch/hdlbuild/internal/core/domain"
	"go.trai.ch/hdlbuild/internal/core/ports"
	"go.trai.ch/hdlbuild/internal/engine/buildcache"
	"go.trai.ch/hdlbuild/internal/engine/registry"
	"go.trai.ch/hdlbuild/internal/engine/resolver"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Project is the aggregate root of a build session.
//
// mu guards the registry, the cache and the session flags. The engine never
// reads a registered source outside mu; it works on copies. compiler
// serializes library creation, and builds when the builder is not safe for
// concurrent use.
type Project struct {
	mu       sync.Mutex
	compiler sync.Mutex
	parses   singleflight.Group

	registry  *registry.Registry
	cache     *buildcache.Cache
	libraries map[domain.Name]bool
	batchDone bool

	builder  ports.Builder
	parser   ports.SourceParser
	builtins resolver.Builtins
	flags    domain.BuildFlags
	policy   domain.Policy

	logger  ports.Logger
	tracer  ports.Tracer
	metrics ports.Metrics

	now func() time.Time
}

// New creates a Project from a loaded configuration and registers its sources.
func New(
	cfg *domain.ProjectConfig,
	builder ports.Builder,
	parser ports.SourceParser,
	logger ports.Logger,
	tracer ports.Tracer,
	metrics ports.Metrics,
) *Project {
	policy := cfg.Policy
	if policy.Workers <= 0 {
		policy.Workers = domain.DefaultWorkers
	}
	if policy.MaxBuildSteps <= 0 {
		policy.MaxBuildSteps = domain.DefaultMaxBuildSteps
	}

	p := &Project{
		registry:  registry.New(),
		cache:     buildcache.New(policy.ResetCacheOnError),
		libraries: make(map[domain.Name]bool),
		builder:   builder,
		parser:    parser,
		builtins:  resolver.NewBuiltins(builder.BuiltinLibraries()),
		flags:     cfg.Flags,
		policy:    policy,
		logger:    logger,
		tracer:    tracer,
		metrics:   metrics,
		now:       time.Now,
	}

	for _, lib := range cfg.Libraries {
		flags := cfg.SourceFlags(lib)
		for _, path := range lib.Sources {
			p.registry.Add(path, lib.Name, flags)
		}
	}
	return p
}

// Policy returns the effective policy.
func (p *Project) Policy() domain.Policy {
	return p.policy
}

// Paths returns the registered source paths in order.
func (p *Project) Paths() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.registry.Paths()
}

// Has reports whether path is a registered source.
func (p *Project) Has(path string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.registry.Get(path)
	return ok
}

func (p *Project) source(path string) (domain.SourceFile, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	src, ok := p.registry.Get(path)
	if !ok {
		return domain.SourceFile{}, false
	}
	return *src, true
}

func (p *Project) sources() []*domain.SourceFile {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []*domain.SourceFile
	for _, src := range p.registry.Sources() {
		c := *src
		out = append(out, &c)
	}
	return out
}

type parseOutcome struct {
	parsed domain.ParsedSource
	mtime  time.Time
	err    error
}

// refresh parses every stale source concurrently and commits the results.
// A design unit declared by more than one source fails every refresh until
// the sources are fixed, not only the one that parsed the second copy.
func (p *Project) refresh(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.policy.Workers)
	for _, path := range p.Paths() {
		g.Go(func() error {
			return p.refreshSource(gctx, path)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.registry.Conflicts()
}

// refreshSource parses path again if its mtime moved past the last parse.
// Concurrent refreshes of the same path share one parse.
func (p *Project) refreshSource(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, statErr := os.Stat(path)
	if statErr != nil {
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.registry.Apply(path, domain.ParsedSource{}, time.Time{}, zerr.Wrap(statErr, "failed to stat source"))
	}

	p.mu.Lock()
	stale := p.registry.Stale(path, info.ModTime())
	p.mu.Unlock()
	if !stale {
		return nil
	}

	v, _, _ := p.parses.Do(path, func() (any, error) {
		out := parseOutcome{mtime: info.ModTime()}
		text, err := os.ReadFile(path)
		if err != nil {
			out.err = zerr.Wrap(err, "failed to read source")
			return out, nil
		}
		out.parsed, out.err = p.parser.Parse(text)
		return out, nil
	})
	res := v.(parseOutcome)

	if res.err != nil {
		p.logger.Warn(fmt.Sprintf("skipping %s: %v", path, res.err))
	} else {
		p.logger.Debug(fmt.Sprintf("parsed %s: %d units, %d dependencies", path, len(res.parsed.Units), len(res.parsed.Dependencies)))
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.registry.Apply(path, res.parsed, res.mtime, res.err)
}

// ensureLibraries creates or maps every library the project uses, once per session.
func (p *Project) ensureLibraries(ctx context.Context) error {
	p.mu.Lock()
	var missing []domain.Name
	for _, lib := range p.registry.Libraries() {
		if !p.libraries[lib] {
			missing = append(missing, lib)
		}
	}
	p.mu.Unlock()

	for _, lib := range missing {
		p.compiler.Lock()
		err := p.builder.CreateOrMapLibrary(ctx, lib)
		p.compiler.Unlock()
		if err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrLibraryCreateFailed.Error()), "library", lib.String())
		}

		p.mu.Lock()
		p.libraries[lib] = true
		p.mu.Unlock()
	}
	return nil
}

// outcome is the result of one attempt to build a source.
type outcome struct {
	path     string
	records  []domain.Record
	hints    []domain.UnitKey
	compiled bool
	err      error
}

// buildSource compiles src unless the cache says it is up to date.
func (p *Project) buildSource(ctx context.Context, src *domain.SourceFile, forced bool, modeFlags []string) outcome {
	out := outcome{path: src.Path}

	info, err := os.Stat(src.Path)
	if err != nil {
		out.err = zerr.With(zerr.Wrap(err, domain.ErrBuildFailure.Error()), "path", src.Path)
		out.records = []domain.Record{{Path: src.Path, Severity: domain.SeverityError, Code: CodeBuild, Message: err.Error()}}
		return out
	}
	stat := domain.FileStat{Mtime: info.ModTime(), Size: info.Size()}

	p.mu.Lock()
	if !p.cache.ShouldBuild(src.Path, stat, forced) {
		out.records = p.cache.Records(src.Path)
		p.mu.Unlock()
		p.metrics.CacheHit()
		p.logger.Debug(fmt.Sprintf("up to date: %s", src.Path))
		return out
	}
	p.mu.Unlock()

	ctx, span := p.tracer.Start(ctx, "build")
	defer span.End()
	span.SetAttribute("path", src.Path)
	span.SetAttribute("library", src.Library.String())

	req := domain.BuildRequest{
		Library: src.Library,
		Path:    src.Path,
		Flags:   slices.Concat(src.Flags, modeFlags),
	}

	p.logger.Info(fmt.Sprintf("building %s (%s)", src.Path, src.Library))
	start := time.Now()
	result, err := p.compile(ctx, req)
	elapsed := time.Since(start)
	out.compiled = true

	if err != nil {
		err = zerr.With(zerr.Wrap(err, domain.ErrBuildFailure.Error()), "path", src.Path)
		span.RecordError(err)
		p.logger.Error(err)
		p.metrics.ObserveBuild(src.Library.String(), ports.OutcomeError, elapsed)

		out.err = err
		out.records = []domain.Record{{Path: src.Path, Severity: domain.SeverityError, Code: CodeBuild, Message: err.Error()}}
		p.mu.Lock()
		p.cache.Invalidate(src.Path)
		p.mu.Unlock()
		return out
	}

	for i := range result.Records {
		if result.Records[i].Path == "" {
			result.Records[i].Path = src.Path
		}
	}

	outcomeLabel := ports.OutcomeOK
	if domain.HasErrors(result.Records) {
		outcomeLabel = ports.OutcomeFailed
	}
	p.metrics.ObserveBuild(src.Library.String(), outcomeLabel, elapsed)
	if n := len(result.RebuildHints); n > 0 {
		p.metrics.RebuildHints(n)
		span.SetAttribute("rebuild_hints", n)
	}

	p.mu.Lock()
	p.cache.Record(src.Path, stat, result, p.now())
	p.mu.Unlock()

	out.records = result.Records
	out.hints = result.RebuildHints
	return out
}

func (p *Project) compile(ctx context.Context, req domain.BuildRequest) (domain.BuildResult, error) {
	if !p.builder.ConcurrentSafe() {
		p.compiler.Lock()
		defer p.compiler.Unlock()
	}
	return p.builder.Build(ctx, req)
}
