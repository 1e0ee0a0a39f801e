package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/portfoliocontrol/pcsrel/internal/cli/entity"
	"github.com/portfoliocontrol/pcsrel/internal/cli/usecase"
	"github.com/portfoliocontrol/pcsrel/pkg/systemutil"
)

// git config exit codes for a key that is not set.
const (
	gitConfigKeyMissing   = 1
	gitConfigUnsetMissing = 5
)

// GitIdentityStore keeps the author identity in the global git config.
type GitIdentityStore struct {
	Git    string
	Runner usecase.ToolRunner
}

func NewGitIdentityStore(git string, runner usecase.ToolRunner) *GitIdentityStore {
	return &GitIdentityStore{Git: git, Runner: runner}
}

func (s *GitIdentityStore) Load(ctx context.Context) (identity entity.GitIdentity, err error) {
	if identity.Name, err = s.get(ctx, "user.name"); err != nil {
		return identity, err
	}
	if identity.Email, err = s.get(ctx, "user.email"); err != nil {
		return identity, err
	}
	return identity, nil
}

func (s *GitIdentityStore) SetName(ctx context.Context, name string) error {
	return s.set(ctx, "user.name", name)
}

func (s *GitIdentityStore) SetEmail(ctx context.Context, email string) error {
	return s.set(ctx, "user.email", email)
}

func (s *GitIdentityStore) get(ctx context.Context, key string) (string, error) {
	out, err := s.Runner.Run(ctx, usecase.ToolCommand{
		Path: s.Git,
		Args: []string{"config", "--global", "--get", key},
	})
	if exitCode(err) == gitConfigKeyMissing {
		return "", nil
	}
	if err != nil {
		return "", goerr.Wrap(err, "failed to read git config", goerr.V("key", key))
	}
	return strings.TrimSpace(out), nil
}

// set writes value, or removes the key when value is empty.
func (s *GitIdentityStore) set(ctx context.Context, key, value string) error {
	args := []string{"config", "--global", key, value}
	if value == "" {
		args = []string{"config", "--global", "--unset", key}
	}
	_, err := s.Runner.Run(ctx, usecase.ToolCommand{Path: s.Git, Args: args})
	if value == "" && exitCode(err) == gitConfigUnsetMissing {
		return nil
	}
	if err != nil {
		return goerr.Wrap(err, "failed to write git config", goerr.V("key", key))
	}
	return nil
}

func exitCode(err error) int {
	var cmdErr *systemutil.CmdError
	if errors.As(err, &cmdErr) {
		return cmdErr.ExitCode
	}
	return 0
}
