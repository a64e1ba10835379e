// Package report prints build results and project queries.
package report

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"go.trai.ch/hdlbuild/internal/core/domain"
	"go.trai.ch/hdlbuild/internal/ui/output"
	"go.trai.ch/hdlbuild/internal/ui/style"
)

// Summary condenses one build into counts.
type Summary struct {
	Compiled int
	Cached   int
	Steps    int
	NotBuilt int
	Errors   int
	Warnings int
}

// StuckSource is a source the planner could not place in any step.
type StuckSource struct {
	Path    string
	Missing []domain.UnitKey
}

// Printer writes deterministic, optionally colored listings.
type Printer struct {
	w        io.Writer
	heading  lipgloss.Style
	muted    lipgloss.Style
	renderer *lipgloss.Renderer
}

// Option configures a Printer.
type Option func(*lipgloss.Renderer)

// WithProfile forces a color profile instead of detecting one from the writer.
func WithProfile(p termenv.Profile) Option {
	return func(r *lipgloss.Renderer) { r.SetColorProfile(p) }
}

// New creates a Printer writing to w, or stdout when w is nil.
func New(w io.Writer, opts ...Option) *Printer {
	if w == nil {
		w = os.Stdout
	}
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(output.ColorProfile(w))
	for _, opt := range opts {
		opt(r)
	}
	return &Printer{
		w:        w,
		renderer: r,
		heading:  r.NewStyle().Bold(true),
		muted:    r.NewStyle().Foreground(style.Slate),
	}
}

func (p *Printer) line(s string) {
	_, _ = fmt.Fprintln(p.w, s)
}

func (p *Printer) severity(sev domain.Severity) lipgloss.Style {
	color, _ := style.ForSeverity(string(sev))
	return p.renderer.NewStyle().Foreground(color)
}

// Records prints one line per record in the order given.
func (p *Printer) Records(records []domain.Record) {
	for _, rec := range records {
		_, icon := style.ForSeverity(string(rec.Severity))
		p.line(p.severity(rec.Severity).Render(icon + " " + rec.String()))
	}
}

// Summary prints the closing line of a build.
func (p *Printer) Summary(s Summary) {
	counts := fmt.Sprintf("%s compiled, %d up to date in %s",
		plural(s.Compiled, "source"), s.Cached, plural(s.Steps, "step"))
	if s.NotBuilt > 0 {
		counts += fmt.Sprintf(", %d not built", s.NotBuilt)
	}

	if s.Errors == 0 {
		msg := style.Check + " " + counts
		if s.Warnings > 0 {
			msg += fmt.Sprintf(" (%s)", plural(s.Warnings, "warning"))
		}
		p.line(p.renderer.NewStyle().Foreground(style.Green).Render(msg))
		return
	}

	msg := fmt.Sprintf("%s %s, %s (%s)", style.Cross,
		plural(s.Errors, "error"), plural(s.Warnings, "warning"), counts)
	p.line(p.renderer.NewStyle().Foreground(style.Red).Render(msg))
}

// DependencyMap prints every source followed by the units it depends on.
func (p *Printer) DependencyMap(deps map[string][]domain.UnitKey) {
	for _, path := range sortedKeys(deps) {
		p.line(p.heading.Render(path))
		for _, key := range deps[path] {
			p.line("  " + key.String())
		}
	}
}

// ReverseDependencyMap prints every unit followed by the sources that depend on it.
func (p *Printer) ReverseDependencyMap(rdeps map[domain.UnitKey][]string) {
	keys := make([]domain.UnitKey, 0, len(rdeps))
	for k := range rdeps {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b domain.UnitKey) int { return strings.Compare(a.String(), b.String()) })

	for _, key := range keys {
		p.line(p.heading.Render(key.String()))
		paths := slices.Clone(rdeps[key])
		slices.Sort(paths)
		for _, path := range paths {
			p.line("  " + path)
		}
	}
}

// DesignUnits prints the units each source declares.
func (p *Printer) DesignUnits(sources []domain.SourceFile) {
	sorted := slices.Clone(sources)
	slices.SortFunc(sorted, func(a, b domain.SourceFile) int { return strings.Compare(a.Path, b.Path) })

	for _, src := range sorted {
		p.line(p.heading.Render(src.Path) + " " + p.muted.Render("("+src.Library.String()+")"))
		if src.ParseErr != nil {
			p.line(p.severity(domain.SeverityError).Render("  " + src.ParseErr.Error()))
			continue
		}
		for _, u := range src.Units {
			p.line(fmt.Sprintf("  %s %s", u.Kind, u.Name))
		}
	}
}

// BuildSteps prints the planned steps and whatever could not be scheduled.
func (p *Printer) BuildSteps(steps [][]string, stuck []StuckSource) {
	for i, step := range steps {
		p.line(p.heading.Render(fmt.Sprintf("step %d", i+1)))
		for _, path := range step {
			p.line("  " + path)
		}
	}
	if len(stuck) == 0 {
		return
	}

	p.line(p.severity(domain.SeverityWarning).Render("not scheduled"))
	for _, s := range stuck {
		if len(s.Missing) == 0 {
			p.line("  " + s.Path)
			continue
		}
		missing := make([]string, 0, len(s.Missing))
		for _, key := range s.Missing {
			missing = append(missing, key.String())
		}
		p.line("  " + s.Path + " " + p.muted.Render("(missing "+strings.Join(missing, ", ")+")"))
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
