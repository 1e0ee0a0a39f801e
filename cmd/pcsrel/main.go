package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli"

	"github.com/portfoliocontrol/pcsrel/internal/cli/usecase"
	"github.com/portfoliocontrol/pcsrel/internal/config"
	"github.com/portfoliocontrol/pcsrel/internal/storage"
)

var (
	version string

	configPath string
	noPause    bool
	logger     config.Logger

	releaseConfig config.ReleaseConfig
	configErr     error
	ctx           context.Context
)

// errHandled marks failures whose diagnosis has already been printed.
var errHandled = errors.New("handled failure")

var (
	printSuccess = color.New(color.FgGreen, color.Bold).PrintlnFunc()
	printFailure = color.New(color.FgRed, color.Bold).PrintlnFunc()
	printHint    = color.New(color.FgYellow).PrintlnFunc()
)

func main() {
	var cancel context.CancelFunc
	ctx, cancel = signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if version == "" {
		version = "dev"
	}

	app := newApp()
	pauseOnExit := invokesCommand(app, os.Args[1:])

	err := app.Run(os.Args)
	if err != nil && !errors.Is(err, errHandled) {
		printFailure("Error:", err)
	}
	if pauseOnExit && !noPause {
		pause()
	}
	if err != nil {
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "pcsrel"
	app.Usage = "Portfolio Control System release packaging and publication"
	app.Author = "Portfolio Control Developers"
	app.Version = version

	app.Flags = append(logger.Flags(),
		cli.StringFlag{
			Name:        "config",
			Usage:       "Path to the release config (yml, yaml or toml)",
			EnvVar:      "PCSREL_CONFIG",
			Destination: &configPath,
		},
		cli.BoolFlag{
			Name:        "no-pause",
			Usage:       "Do not wait for Enter before exiting",
			EnvVar:      "PCSREL_NO_PAUSE",
			Destination: &noPause,
		},
	)

	app.Before = func(c *cli.Context) error {
		l, err := logger.Configure(os.Stderr)
		if err != nil {
			return err
		}
		slog.SetDefault(l)

		releaseConfig, configErr = config.LoadConfig(configPath)
		if configErr != nil && !errors.Is(configErr, config.ErrConfigNotFound) {
			return configErr
		}
		return nil
	}

	app.Commands = []cli.Command{
		{
			Name:   "build",
			Usage:  "Build the single-file executable",
			Action: buildCommand,
		},
		{
			Name:    "package",
			Aliases: []string{"installer"},
			Usage:   "Compile the installer around the built executable",
			Action:  packageCommand,
		},
		{
			Name:   "release",
			Usage:  "Build the executable, then compile the installer",
			Action: releaseCommand,
		},
		{
			Name:  "identity",
			Usage: "Configure the global git user name and email",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "name", Usage: "git user.name"},
				cli.StringFlag{Name: "email", Usage: "git user.email"},
			},
			Action: identityCommand,
		},
		{
			Name:  "publish",
			Usage: "Register the remote and push the main branch",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "url", Usage: "Remote repository URL"},
			},
			Action: publishCommand,
		},
		{
			Name:   "republish",
			Usage:  "Push again to the configured upstream",
			Action: republishCommand,
		},
		{
			Name:  "history",
			Usage: "List recent runs",
			Flags: []cli.Flag{
				cli.IntFlag{Name: "limit", Value: usecase.DefaultHistoryLimit, Usage: "Number of runs to show"},
			},
			Action: historyCommand,
		},
		{
			Name:      "logs",
			Usage:     "Print the log of a run, the latest one by default",
			ArgsUsage: "[run-id]",
			Flags: []cli.Flag{
				cli.BoolFlag{Name: "follow, f", Usage: "Keep printing new lines"},
			},
			Action: logsCommand,
		},
		{
			Name:   "artifacts",
			Usage:  "List installers in the output directory",
			Action: artifactsCommand,
		},
		{
			Name:  "update",
			Usage: "Update the pcsrel tool",
			Flags: []cli.Flag{
				cli.BoolFlag{Name: "yes, y", Usage: "Do not ask for confirmation"},
			},
			Action: updateCommand,
		},
	}
	return app
}

// globalValueFlags take a separate value argument before the command name.
var globalValueFlags = map[string]bool{
	"--config": true, "-config": true,
	"--log-level": true, "-log-level": true,
}

// invokesCommand reports whether args name one of app's commands, so that
// both success and failure (including config errors raised before the
// action) end with a pause. Help and version output do not pause.
func invokesCommand(app *cli.App, args []string) bool {
	for _, arg := range args {
		switch arg {
		case "-h", "--help", "-help", "-v", "--version", "-version":
			return false
		}
	}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if strings.HasPrefix(arg, "-") {
			if globalValueFlags[arg] {
				i++
			}
			continue
		}
		cmd := app.Command(arg)
		return cmd != nil && cmd.Name != "help"
	}
	return false
}

// requireReleaseConfig is used by the commands that package the app.
func requireReleaseConfig() error {
	if configErr != nil {
		return fmt.Errorf("%w: create release.yml or pass --config", configErr)
	}
	return releaseConfig.Validate()
}

// openTracker opens the run ledger. Without it runs still execute and only
// go unrecorded.
func openTracker() (*usecase.RunTracker, func()) {
	db, err := storage.NewDB(releaseConfig.DatabasePath())
	if err != nil {
		slog.Warn("run history unavailable", slog.Any("error", err))
		return usecase.NewRunTracker(nil, releaseConfig.LogsDir()), func() {}
	}
	store := storage.NewRunStore(db, releaseConfig.MaxRuns)
	return usecase.NewRunTracker(store, releaseConfig.LogsDir()), func() { db.Close() }
}

func openHistory() (*usecase.HistoryUsecase, func(), error) {
	db, err := storage.NewDB(releaseConfig.DatabasePath())
	if err != nil {
		return nil, nil, err
	}
	store := storage.NewRunStore(db, releaseConfig.MaxRuns)
	return usecase.NewHistoryUsecase(store), func() { db.Close() }, nil
}
