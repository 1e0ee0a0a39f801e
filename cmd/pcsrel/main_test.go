package main

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portfoliocontrol/pcsrel/internal/cli/entity"
	"github.com/portfoliocontrol/pcsrel/internal/config"
)

func TestRequireReleaseConfig(t *testing.T) {
	t.Cleanup(func() {
		releaseConfig = config.ReleaseConfig{}
		configErr = nil
	})

	releaseConfig, configErr = config.Default(), config.ErrConfigNotFound
	err := requireReleaseConfig()
	assert.True(t, errors.Is(err, config.ErrConfigNotFound))
	assert.Contains(t, err.Error(), "--config")

	configErr = nil
	assert.Error(t, requireReleaseConfig())
}

func TestInvokesCommand(t *testing.T) {
	app := newApp()

	tests := []struct {
		name string
		args []string
		want bool
	}{
		{name: "command", args: []string{"build"}, want: true},
		{name: "alias", args: []string{"installer"}, want: true},
		{name: "after global flags", args: []string{"--config", "publish", "--log-json", "republish"}, want: true},
		{name: "inline flag value", args: []string{"--log-level=debug", "history"}, want: true},
		{name: "no arguments", args: nil},
		{name: "unknown command", args: []string{"deploy"}},
		{name: "help command", args: []string{"help"}},
		{name: "app help", args: []string{"--help"}},
		{name: "command help", args: []string{"publish", "-h"}},
		{name: "version", args: []string{"--version"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, invokesCommand(app, tt.args))
		})
	}
}

func TestApp_ConfigErrorStillPauses(t *testing.T) {
	t.Cleanup(func() {
		configPath = ""
		releaseConfig = config.ReleaseConfig{}
		configErr = nil
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	})

	path := filepath.Join(t.TempDir(), "release.yml")
	require.NoError(t, os.WriteFile(path, []byte("app: [\n"), 0644))

	app := newApp()
	app.Writer = io.Discard
	app.ErrWriter = io.Discard
	args := []string{"pcsrel", "--config", path, "build"}

	assert.True(t, invokesCommand(app, args[1:]))
	err := app.Run(args)
	require.Error(t, err)
	assert.False(t, errors.Is(err, errHandled))
}

func TestColorState(t *testing.T) {
	color.NoColor = true
	assert.Equal(t, entity.RunSuccess, colorState(entity.RunSuccess))
	assert.Equal(t, entity.RunFailure, colorState(entity.RunFailure))
	assert.Equal(t, entity.RunStarted, colorState(entity.RunStarted))
}
