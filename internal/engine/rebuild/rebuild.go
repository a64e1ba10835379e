// Package rebuild schedules follow-up builds from compiler rebuild hints and reverse dependencies.
package rebuild

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.trai.ch/hdlbuild/internal/core/domain"
	"go.trai.ch/hdlbuild/internal/core/ports"
)

// Workspace is the part of a project the controller drives.
type Workspace interface {
	// Owner returns the source declaring key.
	Owner(key domain.UnitKey) (*domain.SourceFile, bool)
	// Invalidate resets the cache entry of path.
	Invalidate(path string)
	// Build compiles src unconditionally and records the outcome.
	Build(ctx context.Context, src *domain.SourceFile) (domain.BuildResult, error)
}

// Built is one build performed by the controller.
type Built struct {
	Source *domain.SourceFile
	Result domain.BuildResult
	Err    error
}

// Controller resolves rebuild hints with a bounded breadth-first walk and
// rebuilds reverse dependencies.
type Controller struct {
	ws     Workspace
	policy domain.Policy
	logger ports.Logger
}

// New creates a Controller.
func New(ws Workspace, policy domain.Policy, logger ports.Logger) *Controller {
	if policy.MaxRebuildRetries <= 0 {
		policy.MaxRebuildRetries = domain.DefaultMaxRebuildRetries
	}
	return &Controller{ws: ws, policy: policy, logger: logger}
}

// Forward handles the hints returned by building origin. The owners of the
// hinted units are built first, level by level, then every earlier level is
// re-attempted in reverse order, ending with origin. A unit hinted more than
// MaxRebuildRetries times is given up on.
func (c *Controller) Forward(ctx context.Context, origin *domain.SourceFile, hints []domain.UnitKey) []Built {
	var out []Built
	retries := make(map[domain.UnitKey]int)

	for len(hints) > 0 {
		if ctx.Err() != nil {
			return out
		}

		levels, built := c.expand(ctx, origin, hints, retries)
		out = append(out, built...)
		if len(levels) == 0 {
			return out
		}

		for i := len(levels) - 2; i >= 0; i-- {
			for _, src := range levels[i] {
				out = append(out, c.build(ctx, src))
			}
		}

		again := c.build(ctx, origin)
		out = append(out, again)
		hints = again.Result.RebuildHints
	}
	return out
}

// expand walks hints breadth first. Each returned level holds the sources
// built because the previous level hinted at them.
func (c *Controller) expand(
	ctx context.Context,
	origin *domain.SourceFile,
	hints []domain.UnitKey,
	retries map[domain.UnitKey]int,
) ([][]*domain.SourceFile, []Built) {
	visited := map[string]struct{}{origin.Path: {}}
	var levels [][]*domain.SourceFile
	var out []Built

	for len(hints) > 0 && ctx.Err() == nil {
		var level []*domain.SourceFile
		for _, hint := range hints {
			owner, ok := c.resolve(hint, retries)
			if !ok {
				continue
			}
			if _, seen := visited[owner.Path]; seen {
				continue
			}
			visited[owner.Path] = struct{}{}
			level = append(level, owner)
		}
		if len(level) == 0 {
			break
		}

		var next []domain.UnitKey
		for _, src := range level {
			c.ws.Invalidate(src.Path)
			b := c.build(ctx, src)
			out = append(out, b)
			next = append(next, b.Result.RebuildHints...)
		}
		levels = append(levels, level)
		hints = next
	}
	return levels, out
}

func (c *Controller) resolve(hint domain.UnitKey, retries map[domain.UnitKey]int) (*domain.SourceFile, bool) {
	retries[hint]++
	if retries[hint] > c.policy.MaxRebuildRetries {
		if retries[hint] == c.policy.MaxRebuildRetries+1 {
			c.logger.Warn(fmt.Sprintf("giving up on rebuilding %s after %d attempts", hint, c.policy.MaxRebuildRetries))
		}
		return nil, false
	}

	owner, ok := c.ws.Owner(hint)
	if !ok {
		c.logger.Warn(fmt.Sprintf("compiler asked to rebuild %s but no source declares it", hint))
		return nil, false
	}
	return owner, true
}

func (c *Controller) build(ctx context.Context, src *domain.SourceFile) Built {
	c.logger.Debug(fmt.Sprintf("rebuilding %s", src.Path))
	result, err := c.ws.Build(ctx, src)
	return Built{Source: src, Result: result, Err: err}
}

// Reverse rebuilds dependents of a source that was just built on demand.
// Nothing is rebuilt when both show flags are off or when there are more
// dependents than MaxReverseDependencySources. Sources declaring a package
// go first. Returned records are filtered by the show flags.
func (c *Controller) Reverse(ctx context.Context, origin *domain.SourceFile, dependents []*domain.SourceFile) []Built {
	if !c.policy.ShowErrorsFromDependents && !c.policy.ShowWarningsFromDependents {
		return nil
	}
	if len(dependents) == 0 {
		return nil
	}
	if limit := c.policy.MaxReverseDependencySources; limit > 0 && len(dependents) > limit {
		c.logger.Warn(fmt.Sprintf(
			"%s has %d dependents, more than the limit of %d; not rebuilding them",
			origin.Path, len(dependents), limit,
		))
		return nil
	}

	ordered := slices.Clone(dependents)
	slices.SortStableFunc(ordered, comparePackagesFirst)

	var out []Built
	for _, src := range ordered {
		if ctx.Err() != nil {
			break
		}
		b := c.build(ctx, src)
		followUps := c.Forward(ctx, src, b.Result.RebuildHints)
		for _, r := range append([]Built{b}, followUps...) {
			r.Result.Records = c.filter(r.Result.Records)
			out = append(out, r)
		}
	}
	return out
}

func (c *Controller) filter(records []domain.Record) []domain.Record {
	var out []domain.Record
	for _, r := range records {
		switch r.Severity {
		case domain.SeverityError:
			if c.policy.ShowErrorsFromDependents {
				out = append(out, r)
			}
		case domain.SeverityWarning:
			if c.policy.ShowWarningsFromDependents {
				out = append(out, r)
			}
		}
	}
	return out
}

func comparePackagesFirst(a, b *domain.SourceFile) int {
	if a.HasPackage != b.HasPackage {
		if a.HasPackage {
			return -1
		}
		return 1
	}
	return strings.Compare(a.Path, b.Path)
}
