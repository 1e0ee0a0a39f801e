package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/portfoliocontrol/pcsrel/internal/cli/entity"
	"github.com/portfoliocontrol/pcsrel/internal/config"
)

// BuildUsecase produces the single-file executable with the packaging tool.
type BuildUsecase struct {
	Config  config.ReleaseConfig
	Locator ToolLocator
	Runner  ToolRunner
	Tracker *RunTracker
}

func NewBuildUsecase(
	cfg config.ReleaseConfig,
	locator ToolLocator,
	runner ToolRunner,
	tracker *RunTracker,
) *BuildUsecase {
	return &BuildUsecase{
		Config:  cfg,
		Locator: locator,
		Runner:  runner,
		Tracker: tracker,
	}
}

func (u *BuildUsecase) Build(ctx context.Context) (artifact entity.BuildArtifact, err error) {
	meta := u.Config.Metadata()
	if strings.TrimSpace(meta.Version) == "" {
		return artifact, &ValidationError{Fields: []string{"version"}}
	}

	run := u.Tracker.Start(ctx, entity.StepBuild, meta)
	artifactPath := u.Config.ArtifactPath()
	run.Record.ArtifactPath = artifactPath
	defer func() { run.Finish(ctx, err) }()

	build := u.Config.Build
	if !fileExists(build.Spec) {
		return artifact, &MissingFilesError{Paths: []string{build.Spec}}
	}

	tool, err := u.ensureTool(ctx, run.Record.LogPath)
	if err != nil {
		return artifact, err
	}

	if build.VersionFile != "" {
		if err = writeVersionFile(build.VersionFile, meta.Version); err != nil {
			return artifact, err
		}
	}

	slog.Info("building executable", slog.String("tool", tool), slog.String("spec", build.Spec))
	_, err = u.Runner.Run(ctx, ToolCommand{
		Path: tool,
		Args: []string{
			"--noconfirm",
			"--clean",
			"--distpath", build.DistDir,
			"--workpath", build.WorkDir,
			build.Spec,
		},
		Desc:    fmt.Sprintf("Building %s %s", meta.Name, meta.Version),
		LogPath: run.Record.LogPath,
	})
	if err != nil {
		return artifact, fmt.Errorf("%w: %w", ErrBuildFailed, err)
	}

	if !fileExists(artifactPath) {
		return artifact, &MissingFilesError{Paths: []string{artifactPath}}
	}

	artifact.Path = artifactPath
	return artifact, nil
}

// ensureTool resolves the packaging tool, installing it once when it cannot
// be found.
func (u *BuildUsecase) ensureTool(ctx context.Context, logPath string) (string, error) {
	build := u.Config.Build
	tool, err := u.Locator.Locate(build.Tool, build.ToolPath)
	if err == nil {
		return tool, nil
	}
	if len(build.InstallCommand) == 0 {
		return "", fmt.Errorf("%w: %w", ErrToolUnavailable, err)
	}

	slog.Info("packaging tool not found, installing", slog.String("tool", build.Tool))
	installer, err := u.Locator.Locate(build.InstallCommand[0], "")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrToolUnavailable, err)
	}
	_, err = u.Runner.Run(ctx, ToolCommand{
		Path:    installer,
		Args:    build.InstallCommand[1:],
		Desc:    "Installing " + build.Tool,
		LogPath: logPath,
	})
	if err != nil {
		return "", fmt.Errorf("%w: install failed: %w", ErrToolUnavailable, err)
	}

	tool, err = u.Locator.Locate(build.Tool, build.ToolPath)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrToolUnavailable, err)
	}
	return tool, nil
}

func writeVersionFile(path, version string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return goerr.Wrap(err, "failed to create version file dir", goerr.V("path", path))
		}
	}
	if err := os.WriteFile(path, []byte(version+"\n"), 0644); err != nil {
		return goerr.Wrap(err, "failed to write version file", goerr.V("path", path))
	}
	return nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
