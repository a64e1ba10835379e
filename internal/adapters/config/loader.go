// Package config loads hdlbuild project files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"go.trai.ch/hdlbuild/internal/core/domain"
	"go.trai.ch/hdlbuild/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var reIdentifier = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// Loader implements ports.ConfigLoader. The syntax is picked from the file
// extension: .yaml/.yml, .hcl, and the classic INI form for anything else.
type Loader struct {
	Logger   ports.Logger
	validate *validator.Validate
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("hdl_identifier", func(fl validator.FieldLevel) bool {
		return reIdentifier.MatchString(fl.Field().String())
	})
	return &Loader{Logger: logger, validate: v}
}

// Load reads, decodes and validates the project file at path.
func (l *Loader) Load(path string) (*domain.ProjectConfig, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", path)
	}

	// #nosec G304 -- the project file is named by the user
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", abs)
	}

	dto, err := l.decode(abs, data)
	if err != nil {
		return nil, zerr.With(err, "path", abs)
	}

	if err := l.validate.Struct(dto); err != nil {
		return nil, zerr.With(zerr.Wrap(zerr.New(describeValidation(err)), domain.ErrConfigInvalid.Error()), "path", abs)
	}

	cfg, err := l.toDomain(abs, dto)
	if err != nil {
		return nil, zerr.With(err, "path", abs)
	}
	return cfg, nil
}

// Mtime returns the modification time of the project file.
func (l *Loader) Mtime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", path)
	}
	return info.ModTime(), nil
}

func (l *Loader) decode(path string, data []byte) (*projectDTO, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return decodeYAML(data)
	case ".hcl":
		return decodeHCL(path, data)
	default:
		dto, unknown, err := decodeINI(data)
		if err != nil {
			return nil, err
		}
		for _, key := range unknown {
			l.Logger.Warn(fmt.Sprintf("ignoring unknown key %s in %s", key, filepath.Base(path)))
		}
		return dto, nil
	}
}

func decodeYAML(data []byte) (*projectDTO, error) {
	var file yamlFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, zerr.Wrap(err, domain.ErrConfigParseFailed.Error())
	}

	dto := &projectDTO{Global: file.Global}
	for name, lib := range file.Libraries {
		entry := LibraryDTO{Name: name}
		if lib != nil {
			entry.Sources = lib.Sources
			entry.BuildFlags = lib.BuildFlags
		}
		dto.Libraries = append(dto.Libraries, entry)
	}
	slices.SortFunc(dto.Libraries, func(a, b LibraryDTO) int { return strings.Compare(a.Name, b.Name) })
	return dto, nil
}

func decodeHCL(path string, data []byte) (*projectDTO, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, path)
	if diags.HasErrors() {
		return nil, zerr.Wrap(diags, domain.ErrConfigParseFailed.Error())
	}

	var decoded hclFile
	if diags := gohcl.DecodeBody(file.Body, nil, &decoded); diags.HasErrors() {
		return nil, zerr.Wrap(diags, domain.ErrConfigParseFailed.Error())
	}
	return &projectDTO{Global: decoded.Global, Libraries: decoded.Libraries}, nil
}

func (l *Loader) toDomain(path string, dto *projectDTO) (*domain.ProjectConfig, error) {
	dir := filepath.Dir(path)
	g := dto.Global

	cfg := &domain.ProjectConfig{
		Path:      path,
		Builder:   strings.ToLower(g.Builder),
		TargetDir: resolvePath(dir, g.TargetDir),
		Flags: domain.BuildFlags{
			Global: g.GlobalBuildFlags,
			Batch:  g.BatchBuildFlags,
			Single: g.SingleBuildFlags,
		},
		Policy: policy(g),
	}

	seen := make(map[domain.Name]bool, len(dto.Libraries))
	for _, lib := range dto.Libraries {
		name := domain.NewName(lib.Name)
		if seen[name] {
			return nil, zerr.With(domain.ErrConfigInvalid, "library", name.String())
		}
		seen[name] = true

		if len(lib.Sources) == 0 {
			l.Logger.Warn(fmt.Sprintf("library %s lists no sources", name))
		}
		sources := make([]string, 0, len(lib.Sources))
		for _, src := range lib.Sources {
			sources = append(sources, resolvePath(dir, src))
		}
		cfg.Libraries = append(cfg.Libraries, domain.LibraryConfig{
			Name:    name,
			Sources: sources,
			Flags:   lib.BuildFlags,
		})
	}
	return cfg, nil
}

func policy(g GlobalDTO) domain.Policy {
	p := domain.DefaultPolicy()
	setIfPresent(&p.MaxBuildSteps, g.MaxBuildSteps)
	setIfPresent(&p.Workers, g.Workers)
	setIfPresent(&p.ResetCacheOnError, g.ResetCacheOnError)
	setIfPresent(&p.ShowErrorsFromDependents, g.ShowErrorsFromDependents)
	setIfPresent(&p.ShowWarningsFromDependents, g.ShowWarningsFromDependents)
	setIfPresent(&p.MaxReverseDependencySources, g.MaxReverseDependencySources)
	setIfPresent(&p.MaxRebuildRetries, g.MaxRebuildRetries)
	return p
}

func setIfPresent[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func resolvePath(dir, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Clean(filepath.Join(dir, p))
}

// describeValidation renders validator errors as "field: rule" pairs.
func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "projectDTO.")
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s: %s=%s", field, fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", field, fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
