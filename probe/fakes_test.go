package probe

import (
	"strings"

	"github.com/bitrise-io/go-utils/v2/command"
)

type createdCommand struct {
	name string
	args []string
}

type fakeCommandFactory struct {
	output  string
	err     error
	created []createdCommand
}

func (f *fakeCommandFactory) Create(name string, args []string, opts *command.Opts) command.Command {
	f.created = append(f.created, createdCommand{name: name, args: args})
	return fakeCommand{output: f.output, err: f.err}
}

type fakeCommand struct {
	output string
	err    error
}

func (c fakeCommand) PrintableCommandArgs() string { return "" }

func (c fakeCommand) Run() error { return c.err }

func (c fakeCommand) RunAndReturnExitCode() (int, error) {
	if c.err != nil {
		return 1, c.err
	}
	return 0, nil
}

func (c fakeCommand) RunAndReturnTrimmedOutput() (string, error) {
	return strings.TrimSpace(c.output), c.err
}

func (c fakeCommand) RunAndReturnTrimmedCombinedOutput() (string, error) {
	return strings.TrimSpace(c.output), c.err
}

func (c fakeCommand) Start() error { return c.err }

func (c fakeCommand) Wait() error { return c.err }
