package repository

import (
	"context"
	"io"
	"os"

	"github.com/portfoliocontrol/pcsrel/internal/cli/usecase"
	"github.com/portfoliocontrol/pcsrel/pkg/systemutil"
)

// ShellRunner executes external tools for CLI usecases.
type ShellRunner struct {
	// Echo receives live tool output. Nil keeps tools quiet.
	Echo io.Writer
}

func (runner ShellRunner) Locate(name, fallback string) (string, error) {
	return systemutil.LookupTool(name, fallback)
}

func (runner ShellRunner) Run(ctx context.Context, cmd usecase.ToolCommand) (string, error) {
	c := systemutil.Cmd{
		Path:    cmd.Path,
		Args:    cmd.Args,
		Dir:     cmd.Dir,
		Desc:    cmd.Desc,
		LogPath: cmd.LogPath,
		Echo:    runner.Echo,
	}
	if cmd.Interactive {
		c.Stdin = os.Stdin
		if c.Echo == nil {
			c.Echo = os.Stdout
		}
	}
	return systemutil.CmdExec(ctx, c)
}
