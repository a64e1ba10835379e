package scheduler

import (
	"context"
	"fmt"
	"strings"

	"go.trai.ch/hdlbuild/internal/core/domain"
	"go.trai.ch/hdlbuild/internal/engine/rebuild"
	"go.trai.ch/hdlbuild/internal/engine/resolver"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// BuildByDependency builds every parsed source in dependency order.
//
// Steps run one after another and the sources of a step run on a pool of
// Policy.Workers goroutines. Cancellation is checked before each step; a
// step that has started always completes. Hints returned during a step are
// resolved after it drains.
func (p *Project) BuildByDependency(ctx context.Context) (*Report, error) {
	ctx, span := p.tracer.Start(ctx, "build by dependency")
	defer span.End()

	if err := p.prepare(ctx); err != nil {
		span.RecordError(err)
		return nil, err
	}

	report := newReport()
	sources := p.sources()
	p.reportParseErrors(report, sources)

	ctrl := p.controller(p.flags.Batch, report)
	planner := resolver.NewPlanner(sources, p.builtins, p.policy.MaxBuildSteps)

	for {
		if err := ctx.Err(); err != nil {
			span.RecordError(err)
			return report, err
		}

		step := planner.Next()
		if step == nil {
			break
		}
		report.Steps++
		p.runStep(ctx, report, ctrl, report.Steps, step)
	}

	p.reportStuck(report, planner)

	p.mu.Lock()
	p.batchDone = true
	p.mu.Unlock()

	span.SetAttribute("steps", report.Steps)
	span.SetAttribute("compiled", len(report.Compiled))
	return report, nil
}

func (p *Project) runStep(ctx context.Context, report *Report, ctrl *rebuild.Controller, n int, step []*domain.SourceFile) {
	stepCtx, span := p.tracer.Start(context.WithoutCancel(ctx), fmt.Sprintf("step %d", n))
	span.SetAttribute("sources", len(step))
	p.logger.Debug(fmt.Sprintf("step %d: %d sources", n, len(step)))

	results := make([]outcome, len(step))
	var g errgroup.Group
	g.SetLimit(p.policy.Workers)
	for i, src := range step {
		g.Go(func() error {
			results[i] = p.buildSource(stepCtx, src, false, p.flags.Batch)
			return nil
		})
	}
	_ = g.Wait()
	span.End()
	p.metrics.StepCompleted()

	for _, res := range results {
		report.add(res)
	}
	for i, res := range results {
		if len(res.hints) > 0 {
			ctrl.Forward(ctx, step[i], res.hints)
		}
	}
}

// BuildByPath builds one source on demand, then follows its rebuild hints and
// rebuilds its dependents. When no batch build has completed in this
// session one runs first, so the libraries the source needs exist.
func (p *Project) BuildByPath(ctx context.Context, path string, forced bool) (*Report, error) {
	if !p.Has(path) {
		return nil, zerr.With(domain.ErrSourceNotFound, "path", path)
	}

	ctx, span := p.tracer.Start(ctx, "build by path")
	defer span.End()
	span.SetAttribute("path", path)

	report := newReport()

	p.mu.Lock()
	done := p.batchDone
	p.mu.Unlock()
	if !done {
		p.logger.Info("no batch build in this session yet, building the project first")
		batch, err := p.BuildByDependency(ctx)
		if err != nil {
			span.RecordError(err)
			return batch, err
		}
		report.merge(batch)
	}

	if err := p.prepare(ctx); err != nil {
		span.RecordError(err)
		return report, err
	}

	src, _ := p.source(path)
	if !src.Parsed() {
		p.reportParseErrors(report, []*domain.SourceFile{&src})
		return report, nil
	}

	ctrl := p.controller(p.flags.Single, report)
	res := p.buildSource(ctx, &src, forced, p.flags.Single)
	report.add(res)
	if !res.compiled {
		return report, nil
	}
	if len(res.hints) > 0 {
		ctrl.Forward(ctx, &src, res.hints)
	}
	if domain.HasErrors(report.RecordsFor(path)) {
		return report, nil
	}

	dependents := resolver.Dependents(&src, p.sources(), p.builtins)
	for _, b := range ctrl.Reverse(ctx, &src, dependents) {
		report.set(b.Source.Path, b.Result.Records)
	}
	return report, nil
}

func (p *Project) prepare(ctx context.Context) error {
	if err := p.refresh(ctx); err != nil {
		return err
	}
	return p.ensureLibraries(ctx)
}

func (r *Report) add(res outcome) {
	if res.compiled {
		r.Compiled = append(r.Compiled, res.path)
	} else if res.err == nil {
		r.Cached++
	}
	r.set(res.path, res.records)
}

func (p *Project) reportParseErrors(report *Report, sources []*domain.SourceFile) {
	for _, src := range sources {
		if src.ParseErr == nil {
			continue
		}
		report.set(src.Path, []domain.Record{{
			Path:     src.Path,
			Severity: domain.SeverityError,
			Code:     CodeParse,
			Message:  src.ParseErr.Error(),
		}})
	}
}

// reportStuck logs one warning for all sources the planner could not schedule.
func (p *Project) reportStuck(report *Report, planner *resolver.Planner) {
	stuck := planner.Stuck()
	report.Stuck = append(report.Stuck, stuck...)
	report.LimitReached = planner.LimitReached()
	p.metrics.StuckSources(len(stuck))
	if len(stuck) == 0 {
		return
	}

	reason := domain.ErrMissingDependency
	if report.LimitReached {
		reason = domain.ErrStepLimitExceeded
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d sources were not built", reason, len(stuck))
	for _, s := range stuck {
		missing := make([]string, 0, len(s.Missing))
		for _, k := range s.Missing {
			missing = append(missing, k.String())
		}
		msg := "unresolved dependencies: " + strings.Join(missing, ", ")
		if len(missing) == 0 {
			msg = "not scheduled before the step limit"
			fmt.Fprintf(&b, "\n  %s: %s", s.Path, msg)
		} else {
			fmt.Fprintf(&b, "\n  %s: missing %s", s.Path, strings.Join(missing, ", "))
		}

		report.set(s.Path, []domain.Record{{
			Path:     s.Path,
			Severity: domain.SeverityWarning,
			Code:     CodeMissingDependency,
			Message:  msg,
		}})
	}
	p.logger.Warn(b.String())
}

func (p *Project) controller(modeFlags []string, report *Report) *rebuild.Controller {
	return rebuild.New(&workspace{p: p, flags: modeFlags, report: report}, p.policy, p.logger)
}

// workspace lets the rebuild controller build sources of the project.
// Every forced build it performs lands in the report.
type workspace struct {
	p      *Project
	flags  []string
	report *Report
}

func (w *workspace) Owner(key domain.UnitKey) (*domain.SourceFile, bool) {
	w.p.mu.Lock()
	defer w.p.mu.Unlock()
	path, ok := w.p.registry.Owner(key)
	if !ok {
		return nil, false
	}
	src, _ := w.p.registry.Get(path)
	c := *src
	return &c, true
}

func (w *workspace) Invalidate(path string) {
	w.p.mu.Lock()
	defer w.p.mu.Unlock()
	w.p.cache.Invalidate(path)
}

func (w *workspace) Build(ctx context.Context, src *domain.SourceFile) (domain.BuildResult, error) {
	res := w.p.buildSource(ctx, src, true, w.flags)
	w.report.add(res)
	return domain.BuildResult{Records: res.records, RebuildHints: res.hints}, res.err
}
