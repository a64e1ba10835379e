package config

import (
	"slices"
	"strings"

	"go.trai.ch/hdlbuild/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/ini.v1"
)

const globalSection = "global"

// iniOptions read the classic project file syntax: [section] headers,
// "key = value" or "key: value" pairs, indented continuation lines, and
// full-line comments starting with '#' or ';'. Duplicate sections and keys are
// kept apart so they can be rejected instead of silently merged.
var iniOptions = ini.LoadOptions{
	AllowPythonMultilineValues: true,
	AllowNonUniqueSections:     true,
	AllowShadows:               true,
	InsensitiveKeys:            true,
	IgnoreInlineComment:        true,
}

// globalKeys are the keys understood in the global section.
var globalKeys = []string{
	"builder", "target_dir",
	"global_build_flags", "batch_build_flags", "single_build_flags",
	"max_build_steps", "workers", "reset_cache_on_error",
	"show_errors_from_dependents", "show_warnings_from_dependents",
	"max_reverse_dependency_sources", "max_rebuild_retries",
}

// libraryKeys are the keys understood in a library section.
var libraryKeys = []string{"sources", "build_flags"}

func decodeINI(data []byte) (*projectDTO, []string, error) {
	file, err := ini.LoadSources(iniOptions, data)
	if err != nil {
		return nil, nil, zerr.Wrap(err, domain.ErrConfigParseFailed.Error())
	}

	sections, err := iniSections(file)
	if err != nil {
		return nil, nil, err
	}

	dto := &projectDTO{}
	var unknown []string
	for _, sec := range sections {
		if sec.Name() != globalSection {
			dto.Libraries = append(dto.Libraries, LibraryDTO{
				Name:       sec.Name(),
				Sources:    list(sec, "sources"),
				BuildFlags: list(sec, "build_flags"),
			})
			unknown = append(unknown, unknownKeys(sec, libraryKeys)...)
			continue
		}

		if err := decodeGlobal(sec, &dto.Global); err != nil {
			return nil, nil, err
		}
		unknown = append(unknown, unknownKeys(sec, globalKeys)...)
	}
	return dto, unknown, nil
}

// iniSections returns the named sections in file order. Keys before the first
// header, repeated headers and repeated keys are parse errors.
func iniSections(file *ini.File) ([]*ini.Section, error) {
	var out []*ini.Section
	seen := make(map[string]struct{})
	for _, sec := range file.Sections() {
		if sec.Name() == ini.DefaultSection {
			if len(sec.Keys()) > 0 {
				return nil, zerr.With(parseError("key outside of a section"), "key", sec.Keys()[0].Name())
			}
			continue
		}
		if _, dup := seen[sec.Name()]; dup {
			return nil, zerr.With(parseError("duplicate section"), "section", sec.Name())
		}
		seen[sec.Name()] = struct{}{}

		for _, key := range sec.Keys() {
			if len(key.ValueWithShadows()) > 1 {
				err := zerr.With(parseError("duplicate key"), "section", sec.Name())
				return nil, zerr.With(err, "key", key.Name())
			}
		}
		out = append(out, sec)
	}
	return out, nil
}

func decodeGlobal(sec *ini.Section, g *GlobalDTO) error {
	g.Builder = sec.Key("builder").String()
	g.TargetDir = sec.Key("target_dir").String()
	g.GlobalBuildFlags = list(sec, "global_build_flags")
	g.BatchBuildFlags = list(sec, "batch_build_flags")
	g.SingleBuildFlags = list(sec, "single_build_flags")

	for name, dst := range map[string]**int{
		"max_build_steps":                &g.MaxBuildSteps,
		"workers":                        &g.Workers,
		"max_reverse_dependency_sources": &g.MaxReverseDependencySources,
		"max_rebuild_retries":            &g.MaxRebuildRetries,
	} {
		if !sec.HasKey(name) {
			continue
		}
		n, err := sec.Key(name).Int()
		if err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "key", name)
		}
		*dst = &n
	}

	for name, dst := range map[string]**bool{
		"reset_cache_on_error":          &g.ResetCacheOnError,
		"show_errors_from_dependents":   &g.ShowErrorsFromDependents,
		"show_warnings_from_dependents": &g.ShowWarningsFromDependents,
	} {
		if !sec.HasKey(name) {
			continue
		}
		b, err := sec.Key(name).Bool()
		if err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "key", name)
		}
		*dst = &b
	}
	return nil
}

func parseError(msg string) error {
	return zerr.Wrap(zerr.New(msg), domain.ErrConfigParseFailed.Error())
}

// list splits a whitespace-separated value; continuation lines count as whitespace.
func list(sec *ini.Section, name string) []string {
	if !sec.HasKey(name) {
		return nil
	}
	return strings.Fields(sec.Key(name).String())
}

func unknownKeys(sec *ini.Section, known []string) []string {
	var out []string
	for _, name := range sec.KeyStrings() {
		if !slices.Contains(known, name) {
			out = append(out, sec.Name()+"."+name)
		}
	}
	return out
}
