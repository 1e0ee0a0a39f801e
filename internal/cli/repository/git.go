package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/src-d/go-git.v4"
	"gopkg.in/src-d/go-git.v4/config"
	"gopkg.in/src-d/go-git.v4/plumbing"

	"github.com/portfoliocontrol/pcsrel/internal/cli/entity"
	"github.com/portfoliocontrol/pcsrel/internal/cli/usecase"
)

// GitRepo manipulates the local repository with go-git and leaves pushing to
// the git executable so the operator's credential helper is used.
type GitRepo struct {
	Dir    string
	Git    string
	Runner usecase.ToolRunner
}

func NewGitRepo(dir, git string, runner usecase.ToolRunner) *GitRepo {
	return &GitRepo{Dir: dir, Git: git, Runner: runner}
}

func (r *GitRepo) open() (*git.Repository, error) {
	repo, err := git.PlainOpenWithOptions(r.Dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open git repository", goerr.V("dir", r.Dir))
	}
	return repo, nil
}

// RenameBranch force-renames the current branch, like git branch -M.
func (r *GitRepo) RenameBranch(ctx context.Context, branch string) error {
	repo, err := r.open()
	if err != nil {
		return err
	}

	head, err := repo.Storer.Reference(plumbing.HEAD)
	if err != nil {
		return goerr.Wrap(err, "failed to read HEAD")
	}
	if head.Type() != plumbing.SymbolicReference {
		return goerr.New("cannot rename the current branch while not on any branch")
	}

	current := head.Target()
	target := plumbing.NewBranchReferenceName(branch)
	if current == target {
		return nil
	}

	ref, err := repo.Storer.Reference(current)
	switch {
	case err == nil:
		if err := repo.Storer.SetReference(plumbing.NewHashReference(target, ref.Hash())); err != nil {
			return goerr.Wrap(err, "failed to create branch", goerr.V("branch", branch))
		}
		if err := repo.Storer.RemoveReference(current); err != nil {
			return goerr.Wrap(err, "failed to remove old branch", goerr.V("branch", current.Short()))
		}
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		// Unborn branch, only HEAD has to move.
	default:
		return goerr.Wrap(err, "failed to read current branch", goerr.V("branch", current.Short()))
	}

	if err := repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, target)); err != nil {
		return goerr.Wrap(err, "failed to point HEAD to branch", goerr.V("branch", branch))
	}

	cfg, err := repo.Config()
	if err != nil {
		return goerr.Wrap(err, "failed to read repository config")
	}
	if b, ok := cfg.Branches[current.Short()]; ok {
		delete(cfg.Branches, current.Short())
		b.Name = branch
		cfg.Branches[branch] = b
		if err := repo.Storer.SetConfig(cfg); err != nil {
			return goerr.Wrap(err, "failed to move branch config", goerr.V("branch", branch))
		}
	}

	slog.Debug("renamed branch", slog.String("from", current.Short()), slog.String("to", branch))
	return nil
}

// AddRemote registers url under name. An existing remote is never touched.
func (r *GitRepo) AddRemote(ctx context.Context, name, url string) error {
	repo, err := r.open()
	if err != nil {
		return err
	}

	_, err = repo.CreateRemote(&config.RemoteConfig{
		Name: name,
		URLs: []string{url},
	})
	if errors.Is(err, git.ErrRemoteExists) {
		existing, _ := r.RemoteURL(ctx, name)
		return fmt.Errorf("%w: %s points to %s", usecase.ErrRemoteExists, name, existing)
	}
	if err != nil {
		return goerr.Wrap(err, "failed to create remote", goerr.V("remote", name))
	}
	return nil
}

func (r *GitRepo) RemoteURL(ctx context.Context, name string) (string, error) {
	repo, err := r.open()
	if err != nil {
		return "", err
	}

	remote, err := repo.Remote(name)
	if err != nil {
		return "", goerr.Wrap(err, "failed to get remote", goerr.V("remote", name))
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", goerr.New("remote has no url", goerr.V("remote", name))
	}
	return urls[0], nil
}

// UpstreamURL is the url of the remote the current branch tracks, or of the
// default remote when no tracking is configured.
func (r *GitRepo) UpstreamURL(ctx context.Context) (string, error) {
	repo, err := r.open()
	if err != nil {
		return "", err
	}

	remoteName := entity.DefaultRemote
	head, err := repo.Storer.Reference(plumbing.HEAD)
	if err == nil && head.Type() == plumbing.SymbolicReference {
		cfg, err := repo.Config()
		if err != nil {
			return "", goerr.Wrap(err, "failed to read repository config")
		}
		if b, ok := cfg.Branches[head.Target().Short()]; ok && b.Remote != "" {
			remoteName = b.Remote
		}
	}
	return r.RemoteURL(ctx, remoteName)
}

// Push runs git push with the operator's terminal attached.
func (r *GitRepo) Push(ctx context.Context, opts usecase.PushOptions) error {
	args := []string{"push"}
	desc := "Publishing to the configured upstream"
	if opts.SetUpstream {
		args = append(args, "-u")
	}
	if opts.Remote != "" {
		args = append(args, opts.Remote)
		desc = "Publishing to " + opts.Remote
		if opts.Branch != "" {
			args = append(args, opts.Branch)
		}
	}

	_, err := r.Runner.Run(ctx, usecase.ToolCommand{
		Path:        r.Git,
		Args:        args,
		Dir:         r.Dir,
		Desc:        desc,
		LogPath:     opts.LogPath,
		Interactive: true,
	})
	return err
}
