package systemutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/hpcloud/tail"
	"github.com/m-mizutani/goerr/v2"
)

var ErrToolNotFound = errors.New("executable not found")

// Cmd describes one external command invocation.
type Cmd struct {
	Path    string
	Args    []string
	Dir     string
	Desc    string
	LogPath string
	// Echo receives the live output in addition to the log file.
	Echo  io.Writer
	Stdin io.Reader
}

func (c Cmd) String() string {
	return strings.TrimSpace(c.Path + " " + strings.Join(c.Args, " "))
}

// CmdError carries the output of a failed command verbatim.
type CmdError struct {
	Cmd      string
	ExitCode int
	Output   string
	Err      error
}

func (e *CmdError) Error() string {
	out := strings.TrimSpace(e.Output)
	if out == "" {
		return fmt.Sprintf("%s: %v", e.Cmd, e.Err)
	}
	return fmt.Sprintf("%s: %v\n%s", e.Cmd, e.Err, out)
}

func (e *CmdError) Unwrap() error {
	return e.Err
}

// CmdExec runs an os command and returns its combined output.
func CmdExec(ctx context.Context, c Cmd) (out string, err error) {
	if len(c.Path) == 0 {
		return "", errors.New("No command provided.")
	}

	var buffer bytes.Buffer
	writers := []io.Writer{&buffer}
	if c.Echo != nil {
		writers = append(writers, c.Echo)
	}

	if len(c.LogPath) > 0 {
		if err := os.MkdirAll(filepath.Dir(c.LogPath), 0755); err != nil {
			return "", goerr.Wrap(err, "failed to create log dir", goerr.V("path", c.LogPath))
		}
		f, err := os.OpenFile(c.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return "", goerr.Wrap(err, "failed to open log file", goerr.V("path", c.LogPath))
		}
		defer f.Close()
		_, _ = f.WriteString("\n")
		if len(c.Desc) > 0 {
			for _, desc := range strings.Split(c.Desc, "\n") {
				_, _ = f.WriteString("##### " + desc + "\n")
			}
		}
		_, _ = f.WriteString("##### RUN " + c.String() + "\n")
		writers = append(writers, f)
	}

	sink := io.MultiWriter(writers...)
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Dir = c.Dir
	cmd.Stdout = sink
	cmd.Stderr = sink
	cmd.Stdin = c.Stdin

	err = cmd.Run()
	out = buffer.String()
	if err != nil {
		cmdErr := &CmdError{Cmd: c.String(), ExitCode: -1, Output: out, Err: err}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			cmdErr.ExitCode = exitErr.ExitCode()
		}
		return out, cmdErr
	}

	return out, nil
}

// LookupTool resolves an executable through PATH first and then through an
// explicit fallback location.
func LookupTool(name string, fallback string) (string, error) {
	if len(name) > 0 {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	if len(fallback) > 0 {
		info, err := os.Stat(fallback)
		if err == nil && !info.IsDir() {
			return fallback, nil
		}
	}
	return "", goerr.Wrap(ErrToolNotFound, "failed to locate tool",
		goerr.V("name", name),
		goerr.V("fallback", fallback),
	)
}

// StreamLog copies a log file to w. With follow set it keeps waiting for new
// lines until ctx is done.
func StreamLog(ctx context.Context, path string, follow bool, w io.Writer) error {
	t, err := tail.TailFile(path, tail.Config{
		Follow:    follow,
		ReOpen:    follow,
		MustExist: true,
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return goerr.Wrap(err, "failed to open log", goerr.V("path", path))
	}
	if follow {
		defer t.Cleanup()
	}

	for {
		select {
		case <-ctx.Done():
			_ = t.Stop()
			return nil
		case line, ok := <-t.Lines:
			if !ok {
				return nil
			}
			if line.Err != nil {
				return goerr.Wrap(line.Err, "failed to read log", goerr.V("path", path))
			}
			fmt.Fprintln(w, line.Text)
		}
	}
}
