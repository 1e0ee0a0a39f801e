package usecase

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/portfoliocontrol/pcsrel/internal/cli/entity"
	"github.com/portfoliocontrol/pcsrel/internal/config"
	"github.com/portfoliocontrol/pcsrel/internal/installer"
	"github.com/portfoliocontrol/pcsrel/internal/notification"
)

// InstallerUsecase wraps a built executable into an Inno Setup installer.
type InstallerUsecase struct {
	Config   config.ReleaseConfig
	Locator  ToolLocator
	Runner   ToolRunner
	Signer   Signer
	Notifier Notifier
	Tracker  *RunTracker
}

func NewInstallerUsecase(
	cfg config.ReleaseConfig,
	locator ToolLocator,
	runner ToolRunner,
	signer Signer,
	notifier Notifier,
	tracker *RunTracker,
) *InstallerUsecase {
	return &InstallerUsecase{
		Config:   cfg,
		Locator:  locator,
		Runner:   runner,
		Signer:   signer,
		Notifier: notifier,
		Tracker:  tracker,
	}
}

func (u *InstallerUsecase) Package(ctx context.Context) (result entity.Installer, err error) {
	meta := u.Config.Metadata()
	if strings.TrimSpace(meta.Version) == "" {
		return result, &ValidationError{Fields: []string{"version"}}
	}

	run := u.Tracker.Start(ctx, entity.StepPackage, meta)
	artifactPath := u.Config.ArtifactPath()
	run.Record.ArtifactPath = artifactPath
	defer func() { run.Finish(ctx, err) }()

	required := []string{artifactPath, meta.LicenseFile, meta.ChangelogFile}
	if meta.Icon != "" {
		required = append(required, meta.Icon)
	}
	var missing []string
	for _, path := range required {
		if !fileExists(path) {
			missing = append(missing, path)
		}
	}
	if len(missing) > 0 {
		return result, &MissingFilesError{Paths: missing}
	}

	u.warnIfNotNewer(ctx, meta)

	cfg := u.Config.Installer
	compiler, err := u.Locator.Locate(cfg.Compiler, cfg.CompilerPath)
	if err != nil {
		return result, fmt.Errorf("%w: %w", ErrToolUnavailable, err)
	}

	outputDir, err := filepath.Abs(cfg.OutputDir)
	if err != nil {
		return result, goerr.Wrap(err, "failed to resolve output dir", goerr.V("path", cfg.OutputDir))
	}
	if err = os.MkdirAll(filepath.Dir(outputDir), 0755); err != nil {
		return result, goerr.Wrap(err, "failed to create output parent dir", goerr.V("path", outputDir))
	}
	// Staging lives next to the output dir so the final move is a rename on
	// the same volume.
	staging, err := os.MkdirTemp(filepath.Dir(outputDir), ".pcsrel-staging-")
	if err != nil {
		return result, goerr.Wrap(err, "failed to create staging dir")
	}
	defer os.RemoveAll(staging)

	script, err := u.script(meta, artifactPath, staging)
	if err != nil {
		return result, err
	}
	if err = writeScript(cfg.Script, script); err != nil {
		return result, err
	}

	slog.Info("compiling installer", slog.String("compiler", compiler), slog.String("script", cfg.Script))
	_, err = u.Runner.Run(ctx, ToolCommand{
		Path:    compiler,
		Args:    []string{"/Q", "/O" + staging, cfg.Script},
		Desc:    fmt.Sprintf("Packaging %s %s", meta.Name, meta.Version),
		LogPath: run.Record.LogPath,
	})
	if err != nil {
		return result, fmt.Errorf("%w: %w", ErrInstallerFailed, err)
	}

	produced := filepath.Join(staging, meta.InstallerFileName())
	if !fileExists(produced) {
		return result, fmt.Errorf("%w: compiler did not produce %s", ErrInstallerFailed, meta.InstallerFileName())
	}
	if err = os.MkdirAll(outputDir, 0755); err != nil {
		return result, goerr.Wrap(err, "failed to create output dir", goerr.V("path", outputDir))
	}
	dest := filepath.Join(cfg.OutputDir, meta.InstallerFileName())
	if err = os.Rename(produced, dest); err != nil {
		return result, goerr.Wrap(err, "failed to move installer into place", goerr.V("path", dest))
	}
	result.Path = dest
	run.Record.InstallerPath = dest

	if u.Signer != nil && cfg.SigningKey != "" {
		if result.SignaturePath, err = u.sign(ctx, dest); err != nil {
			return result, err
		}
	}

	title, message := notification.InstallerMessage(meta.Name, meta.Version, meta.InstallerFileName(), result.SignaturePath != "")
	u.notify(ctx, title, message)

	return result, nil
}

func (u *InstallerUsecase) script(meta entity.ReleaseMetadata, artifactPath, staging string) (installer.Script, error) {
	abs := func(path string) (string, error) {
		if path == "" {
			return "", nil
		}
		p, err := filepath.Abs(path)
		if err != nil {
			return "", goerr.Wrap(err, "failed to resolve path", goerr.V("path", path))
		}
		return p, nil
	}

	s := installer.Script{
		Metadata:  meta,
		OutputDir: staging,
		Languages: u.Config.Installer.Languages,
	}
	var err error
	if s.ArtifactPath, err = abs(artifactPath); err != nil {
		return s, err
	}
	if s.LicensePath, err = abs(meta.LicenseFile); err != nil {
		return s, err
	}
	if s.ChangelogPath, err = abs(meta.ChangelogFile); err != nil {
		return s, err
	}
	if s.IconPath, err = abs(meta.Icon); err != nil {
		return s, err
	}
	return s, nil
}

func writeScript(path string, s installer.Script) error {
	var buf bytes.Buffer
	if err := installer.Render(&buf, s); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return goerr.Wrap(err, "failed to create script dir", goerr.V("path", path))
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return goerr.Wrap(err, "failed to write installer script", goerr.V("path", path))
	}
	return nil
}

func (u *InstallerUsecase) sign(ctx context.Context, path string) (string, error) {
	signature, err := u.Signer.Sign(ctx, path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSigningFailed, err)
	}
	ok, err := u.Signer.Verify(ctx, signature)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSigningFailed, err)
	}
	if !ok {
		return "", fmt.Errorf("%w: signature %s does not verify", ErrSigningFailed, signature)
	}
	slog.Info("installer signed", slog.String("signature", signature))
	return signature, nil
}

func (u *InstallerUsecase) notify(ctx context.Context, title, message string) {
	if u.Notifier == nil {
		return
	}
	if err := u.Notifier.Notify(ctx, title, message); err != nil {
		slog.Warn("failed to send notification", slog.Any("error", err))
	}
}

// warnIfNotNewer logs when the version is not newer than the last
// successfully packaged one. It never blocks packaging.
func (u *InstallerUsecase) warnIfNotNewer(ctx context.Context, meta entity.ReleaseMetadata) {
	if u.Tracker == nil || u.Tracker.Store == nil {
		return
	}
	last, err := u.Tracker.Store.GetLastSuccessfulRun(ctx, entity.StepPackage, meta.Name)
	if err != nil {
		return
	}
	if NotNewer(meta.Version, last.Version) {
		slog.Warn("version is not newer than the last packaged release",
			slog.String("version", meta.Version),
			slog.String("last", last.Version),
		)
	}
}
