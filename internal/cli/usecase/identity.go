package usecase

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"

	"github.com/portfoliocontrol/pcsrel/internal/cli/entity"
)

// IdentityUsecase persists the global git author identity.
type IdentityUsecase struct {
	Store   IdentityStore
	Tracker *RunTracker
}

func NewIdentityUsecase(store IdentityStore, tracker *RunTracker) *IdentityUsecase {
	return &IdentityUsecase{Store: store, Tracker: tracker}
}

func (u *IdentityUsecase) Current(ctx context.Context) (entity.GitIdentity, error) {
	identity, err := u.Store.Load(ctx)
	if err != nil {
		return identity, goerr.Wrap(err, "failed to read git identity")
	}
	return identity, nil
}

// Configure writes both fields or neither. It reports whether anything
// changed.
func (u *IdentityUsecase) Configure(ctx context.Context, input entity.GitIdentity) (changed bool, err error) {
	identity := input.Normalize()
	var empty []string
	if identity.Name == "" {
		empty = append(empty, "name")
	}
	if identity.Email == "" {
		empty = append(empty, "email")
	}
	if len(empty) > 0 {
		return false, &ValidationError{Fields: empty}
	}

	run := u.Tracker.Start(ctx, entity.StepIdentity, entity.ReleaseMetadata{})
	defer func() { run.Finish(ctx, err) }()

	current, err := u.Store.Load(ctx)
	if err != nil {
		return false, goerr.Wrap(err, "failed to read git identity")
	}
	if current.Normalize() == identity {
		slog.Info("git identity already configured", slog.String("name", identity.Name))
		return false, nil
	}

	if err = u.Store.SetName(ctx, identity.Name); err != nil {
		return false, goerr.Wrap(err, "failed to set git user.name")
	}
	if err = u.Store.SetEmail(ctx, identity.Email); err != nil {
		err = goerr.Wrap(err, "failed to set git user.email")
		if restoreErr := u.Store.SetName(ctx, current.Name); restoreErr != nil {
			slog.Error("failed to restore git user.name",
				slog.String("name", current.Name),
				slog.Any("error", restoreErr),
			)
		}
		return false, err
	}
	return true, nil
}
