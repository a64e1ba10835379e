package scheduler

import (
	"context"

	"go.trai.ch/hdlbuild/internal/core/domain"
	"go.trai.ch/hdlbuild/internal/engine/resolver"
)

// Plan is a dry run of the batch planner.
type Plan struct {
	Steps        [][]string
	Stuck        []resolver.Stuck
	LimitReached bool
}

// DependencyMap returns the effective dependencies of every parsed source.
func (p *Project) DependencyMap(ctx context.Context) (map[string][]domain.UnitKey, error) {
	if err := p.refresh(ctx); err != nil {
		return nil, err
	}
	return resolver.DependencyMap(p.sources(), p.builtins), nil
}

// ReverseDependencyMap returns the sources depending on each unit.
func (p *Project) ReverseDependencyMap(ctx context.Context) (map[domain.UnitKey][]string, error) {
	if err := p.refresh(ctx); err != nil {
		return nil, err
	}
	return resolver.ReverseDependencyMap(p.sources(), p.builtins), nil
}

// Sources returns a copy of every registered source after refreshing them.
func (p *Project) Sources(ctx context.Context) ([]domain.SourceFile, error) {
	if err := p.refresh(ctx); err != nil {
		return nil, err
	}
	var out []domain.SourceFile
	for _, src := range p.sources() {
		out = append(out, *src)
	}
	return out, nil
}

// PlanSteps computes the build steps without building anything.
func (p *Project) PlanSteps(ctx context.Context) (*Plan, error) {
	if err := p.refresh(ctx); err != nil {
		return nil, err
	}

	planner := resolver.NewPlanner(p.sources(), p.builtins, p.policy.MaxBuildSteps)
	plan := &Plan{}
	for _, step := range planner.All() {
		paths := make([]string, 0, len(step))
		for _, src := range step {
			paths = append(paths, src.Path)
		}
		plan.Steps = append(plan.Steps, paths)
	}
	plan.Stuck = planner.Stuck()
	plan.LimitReached = planner.LimitReached()
	return plan, nil
}

// CacheEntry returns the cache entry of path.
func (p *Project) CacheEntry(path string) (domain.CacheEntry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cache.Entry(path)
}

// Clean forgets every build outcome and library so the next build starts over.
// Parsed sources are kept.
func (p *Project) Clean() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache.Clear()
	clear(p.libraries)
	p.batchDone = false
}

// Snapshot returns the persistable state of the project.
func (p *Project) Snapshot() *domain.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return &domain.Snapshot{
		Sources: p.registry.Snapshot(),
		Cache:   p.cache.Entries(),
	}
}

// Restore loads persisted parse and build state. Entries for sources that are
// no longer part of the project are dropped.
func (p *Project) Restore(snap *domain.Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.registry.Restore(snap.Sources); err != nil {
		return err
	}

	entries := make([]domain.CacheEntry, 0, len(snap.Cache))
	for _, e := range snap.Cache {
		if _, ok := p.registry.Get(e.Path); ok {
			entries = append(entries, e)
		}
	}
	p.cache.Restore(entries)
	return nil
}
