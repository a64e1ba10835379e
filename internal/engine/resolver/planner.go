package resolver

import (
	"slices"
	"strings"

	"go.trai.ch/hdlbuild/internal/core/domain"
)

// Stuck describes a source that never became ready.
type Stuck struct {
	Path    string
	Missing []domain.UnitKey
}

// Planner computes build steps. Every source in a step has all of its
// dependencies declared by sources of earlier steps.
// A Planner is single use.
type Planner struct {
	pending  []*domain.SourceFile
	deps     map[string][]domain.UnitKey
	built    map[domain.UnitKey]struct{}
	maxSteps int
	steps    int
}

// NewPlanner creates a planner over the parsed sources. Sources with a parse
// error are never planned. maxSteps caps the number of steps Next returns.
func NewPlanner(sources []*domain.SourceFile, builtins Builtins, maxSteps int) *Planner {
	if maxSteps <= 0 {
		maxSteps = domain.DefaultMaxBuildSteps
	}

	p := &Planner{
		deps:     make(map[string][]domain.UnitKey, len(sources)),
		built:    make(map[domain.UnitKey]struct{}),
		maxSteps: maxSteps,
	}
	for _, src := range sources {
		if !src.Parsed() {
			continue
		}
		p.pending = append(p.pending, src)
		p.deps[src.Path] = Dependencies(src, builtins)
	}
	slices.SortFunc(p.pending, func(a, b *domain.SourceFile) int { return strings.Compare(a.Path, b.Path) })
	return p
}

// Next returns the next step, or nil once no further source can be planned.
// Units declared by the returned sources count as built from the following step on.
func (p *Planner) Next() []*domain.SourceFile {
	if p.steps >= p.maxSteps || len(p.pending) == 0 {
		return nil
	}

	var ready, rest []*domain.SourceFile
	for _, src := range p.pending {
		if len(p.missing(src)) == 0 {
			ready = append(ready, src)
		} else {
			rest = append(rest, src)
		}
	}
	if len(ready) == 0 {
		return nil
	}

	for _, src := range ready {
		for _, k := range src.Keys() {
			p.built[k] = struct{}{}
		}
	}
	p.pending = rest
	p.steps++
	return ready
}

// All drains the planner and returns every step.
func (p *Planner) All() [][]*domain.SourceFile {
	var steps [][]*domain.SourceFile
	for step := p.Next(); step != nil; step = p.Next() {
		steps = append(steps, step)
	}
	return steps
}

// Stuck returns one entry per source that has not been planned, with its missing units.
func (p *Planner) Stuck() []Stuck {
	out := make([]Stuck, 0, len(p.pending))
	for _, src := range p.pending {
		out = append(out, Stuck{Path: src.Path, Missing: p.missing(src)})
	}
	return out
}

// LimitReached reports whether planning stopped at the step ceiling with sources left.
func (p *Planner) LimitReached() bool {
	return p.steps >= p.maxSteps && len(p.pending) > 0
}

// Steps returns the number of steps returned so far.
func (p *Planner) Steps() int {
	return p.steps
}

func (p *Planner) missing(src *domain.SourceFile) []domain.UnitKey {
	var out []domain.UnitKey
	for _, k := range p.deps[src.Path] {
		if _, ok := p.built[k]; !ok {
			out = append(out, k)
		}
	}
	return out
}
