// Package vhdl extracts design units and dependencies from VHDL sources.
package vhdl

import (
	"regexp"
	"slices"
	"strings"

	"go.trai.ch/hdlbuild/internal/core/domain"
	"go.trai.ch/hdlbuild/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.SourceParser = (*Parser)(nil)

// BuiltinLibraries are the libraries vendor toolchains ship precompiled.
// Builders that do not report their own list fall back to this one.
var BuiltinLibraries = []string{
	"ieee", "std", "altera", "altera_mf", "modelsim_lib", "unisim",
	"xilinxcorelib", "synplify", "synopsis", "maxii", "family_support",
}

var (
	reIdentifier = regexp.MustCompile(`^[a-z]\w*$`)

	reLineComment  = regexp.MustCompile(`--[^\n]*`)
	reBlockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reWhitespace   = regexp.MustCompile(`\s+`)
	reDotSpacing   = regexp.MustCompile(`\s*\.\s*`)

	reEntity       = regexp.MustCompile(`\bentity\s+(\w+)\s+is\b`)
	rePackage      = regexp.MustCompile(`\bpackage\s+(\w+)\s+is\b`)
	rePackageBody  = regexp.MustCompile(`\bpackage\s+body\s+(\w+)\s+is\b`)
	reArchitecture = regexp.MustCompile(`\barchitecture\s+\w+\s+of\s+(\w+)\s+is\b`)
	reLibrary      = regexp.MustCompile(`\blibrary\s+([\w\s,]+?);`)
	reUse          = regexp.MustCompile(`\buse\s+(\w+)\.(\w+)`)
	reSelected     = regexp.MustCompile(`\b(\w+)\.(\w+)\b`)
)

// Parser implements ports.SourceParser for VHDL.
type Parser struct{}

// NewParser creates a new VHDL parser.
func NewParser() *Parser {
	return &Parser{}
}

// normalize strips comments, collapses whitespace and lower-cases the text.
func normalize(text []byte) string {
	s := reBlockComment.ReplaceAllString(string(text), " ")
	s = reLineComment.ReplaceAllString(s, " ")
	s = reWhitespace.ReplaceAllString(s, " ")
	s = reDotSpacing.ReplaceAllString(s, ".")
	return strings.ToLower(s)
}

// Parse returns the design units, dependencies and package flag of a VHDL text.
func (p *Parser) Parse(text []byte) (domain.ParsedSource, error) {
	src := normalize(text)

	var parsed domain.ParsedSource
	declared := make(map[string]struct{})

	addUnit := func(name string, kind domain.UnitKind) {
		parsed.Units = append(parsed.Units, domain.DesignUnit{Name: domain.NewName(name), Kind: kind})
		declared[name] = struct{}{}
	}

	type hit struct {
		pos  int
		name string
		kind domain.UnitKind
	}
	var hits []hit
	for _, m := range reEntity.FindAllStringSubmatchIndex(src, -1) {
		hits = append(hits, hit{pos: m[0], name: src[m[2]:m[3]], kind: domain.KindEntity})
	}
	for _, m := range rePackage.FindAllStringSubmatchIndex(src, -1) {
		hits = append(hits, hit{pos: m[0], name: src[m[2]:m[3]], kind: domain.KindPackage})
	}
	for _, m := range rePackageBody.FindAllStringSubmatchIndex(src, -1) {
		hits = append(hits, hit{pos: m[0], name: src[m[2]:m[3]], kind: domain.KindPackageBody})
	}
	slices.SortFunc(hits, func(a, b hit) int { return a.pos - b.pos })

	for _, h := range hits {
		if err := checkIdentifier("unit", h.name); err != nil {
			return domain.ParsedSource{}, err
		}
		addUnit(h.name, h.kind)
		if h.kind == domain.KindPackage {
			parsed.HasPackage = true
		}
	}

	if len(parsed.Units) == 0 {
		return domain.ParsedSource{}, zerr.Wrap(domain.ErrNoDesignUnits, domain.ErrParse.Error())
	}

	libraries := map[string]struct{}{domain.WorkLibrary.String(): {}}
	for _, m := range reLibrary.FindAllStringSubmatch(src, -1) {
		for _, lib := range strings.Split(m[1], ",") {
			lib = strings.TrimSpace(lib)
			if err := checkIdentifier("library", lib); err != nil {
				return domain.ParsedSource{}, err
			}
			libraries[lib] = struct{}{}
		}
	}

	deps := newDependencySet()
	for _, m := range reSelected.FindAllStringSubmatch(src, -1) {
		if _, ok := libraries[m[1]]; ok {
			deps.add(m[1], m[2])
		}
	}
	for _, m := range reUse.FindAllStringSubmatch(src, -1) {
		deps.add(m[1], m[2])
	}

	// Architectures and package bodies of units declared elsewhere depend on them.
	for _, m := range reArchitecture.FindAllStringSubmatch(src, -1) {
		if _, ok := declared[m[1]]; !ok {
			deps.add(domain.WorkLibrary.String(), m[1])
		}
	}
	for _, m := range rePackageBody.FindAllStringSubmatch(src, -1) {
		if !declaresPackage(parsed.Units, m[1]) {
			deps.add(domain.WorkLibrary.String(), m[1])
		}
	}

	for _, key := range deps.keys {
		if err := checkIdentifier("dependency library", key.Library.String()); err != nil {
			return domain.ParsedSource{}, err
		}
		if err := checkIdentifier("dependency unit", key.Unit.String()); err != nil {
			return domain.ParsedSource{}, err
		}
	}
	parsed.Dependencies = deps.sorted()

	return parsed, nil
}

func declaresPackage(units []domain.DesignUnit, name string) bool {
	return slices.ContainsFunc(units, func(u domain.DesignUnit) bool {
		return u.Kind == domain.KindPackage && u.Name.String() == name
	})
}

func checkIdentifier(what, name string) error {
	if reIdentifier.MatchString(name) {
		return nil
	}
	err := zerr.Wrap(domain.ErrInvalidIdentifier, domain.ErrParse.Error())
	err = zerr.With(err, "kind", what)
	return zerr.With(err, "identifier", name)
}

type dependencySet struct {
	seen map[domain.UnitKey]struct{}
	keys []domain.UnitKey
}

func newDependencySet() *dependencySet {
	return &dependencySet{seen: make(map[domain.UnitKey]struct{})}
}

func (s *dependencySet) add(lib, unit string) {
	if unit == domain.AllUnits.String() {
		return
	}
	key := domain.NewUnitKey(lib, unit)
	if _, ok := s.seen[key]; ok {
		return
	}
	s.seen[key] = struct{}{}
	s.keys = append(s.keys, key)
}

func (s *dependencySet) sorted() []domain.UnitKey {
	out := slices.Clone(s.keys)
	slices.SortFunc(out, func(a, b domain.UnitKey) int {
		return strings.Compare(a.String(), b.String())
	})
	return out
}
