package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/portfoliocontrol/pcsrel/internal/cli/entity"
	"github.com/portfoliocontrol/pcsrel/internal/notification"
)

// PublishUsecase links the local repository to its remote and pushes.
type PublishUsecase struct {
	Repo     GitRepository
	Notifier Notifier
	Tracker  *RunTracker
	Remote   string
	Branch   string
}

func NewPublishUsecase(repo GitRepository, notifier Notifier, tracker *RunTracker, remote, branch string) *PublishUsecase {
	if remote == "" {
		remote = entity.DefaultRemote
	}
	if branch == "" {
		branch = entity.DefaultBranch
	}
	return &PublishUsecase{
		Repo:     repo,
		Notifier: notifier,
		Tracker:  tracker,
		Remote:   remote,
		Branch:   branch,
	}
}

// RecoveryResult is the outcome of a re-publish. A failed push is reported
// here with a diagnosis instead of as an error.
type RecoveryResult struct {
	Pushed    bool
	RemoteURL string
	Diagnosis string
	Cause     error
}

// Publish renames the current branch, registers url and pushes with upstream
// tracking. An empty url changes nothing.
func (u *PublishUsecase) Publish(ctx context.Context, url string) (link entity.RemoteLink, err error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return link, &ValidationError{Fields: []string{"url"}}
	}
	link = entity.RemoteLink{Name: u.Remote, URL: url, Branch: u.Branch}

	run := u.Tracker.Start(ctx, entity.StepPublish, entity.ReleaseMetadata{})
	run.Record.RemoteURL = url
	defer func() { run.Finish(ctx, err) }()

	if err = u.Repo.RenameBranch(ctx, u.Branch); err != nil {
		return link, goerr.Wrap(err, "failed to rename branch", goerr.V("branch", u.Branch))
	}
	if err = u.Repo.AddRemote(ctx, u.Remote, url); err != nil {
		return link, goerr.Wrap(err, "failed to register remote", goerr.V("remote", u.Remote), goerr.V("url", url))
	}

	slog.Info("pushing", slog.String("remote", u.Remote), slog.String("branch", u.Branch))
	err = u.Repo.Push(ctx, PushOptions{
		Remote:      u.Remote,
		Branch:      u.Branch,
		SetUpstream: true,
		LogPath:     run.Record.LogPath,
	})
	if err != nil {
		return link, fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	u.notify(ctx, url)
	return link, nil
}

// Recover pushes to the already configured upstream without touching the
// identity or the remote.
func (u *PublishUsecase) Recover(ctx context.Context) (result RecoveryResult, err error) {
	run := u.Tracker.Start(ctx, entity.StepRepublish, entity.ReleaseMetadata{})
	defer func() {
		if result.Cause != nil {
			run.Finish(ctx, result.Cause)
			return
		}
		run.Finish(ctx, err)
	}()

	result.RemoteURL, err = u.Repo.UpstreamURL(ctx)
	if err != nil {
		slog.Debug("upstream url unknown", slog.Any("error", err))
		err = nil
	}
	run.Record.RemoteURL = result.RemoteURL

	if pushErr := u.Repo.Push(ctx, PushOptions{LogPath: run.Record.LogPath}); pushErr != nil {
		result.Cause = fmt.Errorf("%w: %w", ErrPublishFailed, pushErr)
		result.Diagnosis = RecoveryHint
		return result, nil
	}

	result.Pushed = true
	u.notify(ctx, result.RemoteURL)
	return result, nil
}

func (u *PublishUsecase) notify(ctx context.Context, url string) {
	if u.Notifier == nil {
		return
	}
	title, message := notification.PublishMessage(url, u.Branch)
	if err := u.Notifier.Notify(ctx, title, message); err != nil {
		slog.Warn("failed to send notification", slog.Any("error", err))
	}
}
