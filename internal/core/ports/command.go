package ports

import "context"

// Command is an external process invocation.
type Command struct {
	Name string
	Args []string
	Dir  string
	Env  map[string]string
}

// CommandResult is the merged output and exit status of a finished command.
type CommandResult struct {
	Output   []byte
	ExitCode int
}

// CommandRunner runs external processes.
//
//go:generate mockgen -source=command.go -destination=mocks/mock_command.go -package=mocks
type CommandRunner interface {
	// Run executes the command and waits for it. A non-zero exit code is not an
	// error; the error is returned only when the process could not be started.
	Run(ctx context.Context, cmd Command) (CommandResult, error)
}
