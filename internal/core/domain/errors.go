package domain

import "go.trai.ch/zerr"

var (
	// ErrParse is returned when a source yields no design units or contains an invalid identifier.
	ErrParse = zerr.New("failed to parse source")

	// ErrInvalidIdentifier is returned when a unit, library or dependency name is not a valid HDL identifier.
	ErrInvalidIdentifier = zerr.New("invalid identifier")

	// ErrNoDesignUnits is returned when a source declares no entity or package.
	ErrNoDesignUnits = zerr.New("source declares no design units")

	// ErrMissingDependency is reported for sources whose dependencies never become available.
	ErrMissingDependency = zerr.New("missing dependency")

	// ErrBuildFailure is returned when the compiler could not be invoked for a source.
	ErrBuildFailure = zerr.New("build failure")

	// ErrSanityCheck is returned when the configured toolchain is missing or reports an unexpected version.
	ErrSanityCheck = zerr.New("builder sanity check failed")

	// ErrStepLimitExceeded is reported when build-step planning reaches its ceiling with sources left.
	ErrStepLimitExceeded = zerr.New("build step limit exceeded")

	// ErrDuplicateDesignUnit is returned when two sources declare the same library unit.
	ErrDuplicateDesignUnit = zerr.New("design unit declared by more than one source")

	// ErrSourceNotFound is returned when a path is not registered in the project.
	ErrSourceNotFound = zerr.New("source not found in project")

	// ErrUnknownBuilder is returned when the project names a builder that does not exist.
	ErrUnknownBuilder = zerr.New("unknown builder")

	// ErrLibraryCreateFailed is returned when a compiler library cannot be created or mapped.
	ErrLibraryCreateFailed = zerr.New("failed to create library")

	// ErrConfigReadFailed is returned when the project file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read project file")

	// ErrConfigParseFailed is returned when the project file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse project file")

	// ErrConfigInvalid is returned when the project file parses but fails validation.
	ErrConfigInvalid = zerr.New("invalid project file")

	// ErrSnapshotReadFailed is returned when the persisted project state cannot be read.
	ErrSnapshotReadFailed = zerr.New("failed to read project snapshot")

	// ErrSnapshotWriteFailed is returned when the persisted project state cannot be written.
	ErrSnapshotWriteFailed = zerr.New("failed to write project snapshot")

	// ErrSnapshotMarshalFailed is returned when the project state cannot be encoded.
	ErrSnapshotMarshalFailed = zerr.New("failed to marshal project snapshot")

	// ErrProjectLocked is returned when another live process holds the project lock.
	ErrProjectLocked = zerr.New("project is locked by another process")

	// ErrBuildHasErrors is returned when a build finished and reported at least one error record.
	ErrBuildHasErrors = zerr.New("build reported errors")

	// ErrNoProjectFile is returned when a command requires a project file and none was given.
	ErrNoProjectFile = zerr.New("no project file specified")
)
