package config

// projectDTO is the format-independent form of a project file. Every syntax
// decodes into it before validation.
type projectDTO struct {
	Global    GlobalDTO
	Libraries []LibraryDTO `validate:"dive"`
}

// GlobalDTO holds the project-wide settings of the global section.
type GlobalDTO struct {
	Builder          string   `yaml:"builder" hcl:"builder,optional" validate:"required,oneof=msim ghdl"`
	TargetDir        string   `yaml:"target_dir" hcl:"target_dir,optional" validate:"required"`
	GlobalBuildFlags []string `yaml:"global_build_flags" hcl:"global_build_flags,optional"`
	BatchBuildFlags  []string `yaml:"batch_build_flags" hcl:"batch_build_flags,optional"`
	SingleBuildFlags []string `yaml:"single_build_flags" hcl:"single_build_flags,optional"`

	MaxBuildSteps               *int  `yaml:"max_build_steps" hcl:"max_build_steps,optional" validate:"omitnil,gte=1"`
	Workers                     *int  `yaml:"workers" hcl:"workers,optional" validate:"omitnil,gte=1"`
	ResetCacheOnError           *bool `yaml:"reset_cache_on_error" hcl:"reset_cache_on_error,optional"`
	ShowErrorsFromDependents    *bool `yaml:"show_errors_from_dependents" hcl:"show_errors_from_dependents,optional"`
	ShowWarningsFromDependents  *bool `yaml:"show_warnings_from_dependents" hcl:"show_warnings_from_dependents,optional"`
	MaxReverseDependencySources *int  `yaml:"max_reverse_dependency_sources" hcl:"max_reverse_dependency_sources,optional" validate:"omitnil,gte=0"`
	MaxRebuildRetries           *int  `yaml:"max_rebuild_retries" hcl:"max_rebuild_retries,optional" validate:"omitnil,gte=0"`
}

// LibraryDTO lists the sources of one library.
type LibraryDTO struct {
	Name       string   `yaml:"-" hcl:"name,label" validate:"required,hdl_identifier"`
	Sources    []string `yaml:"sources" hcl:"sources,optional" validate:"dive,required"`
	BuildFlags []string `yaml:"build_flags" hcl:"build_flags,optional"`
}

// yamlFile is the layout of a YAML project file.
type yamlFile struct {
	Global    GlobalDTO              `yaml:"global"`
	Libraries map[string]*LibraryDTO `yaml:"libraries"`
}

// hclFile is the layout of an HCL project file.
type hclFile struct {
	Global    GlobalDTO    `hcl:"global,block"`
	Libraries []LibraryDTO `hcl:"library,block"`
}
