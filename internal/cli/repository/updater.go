package repository

import (
	"io"

	"github.com/inconshreveable/go-update"
	"github.com/m-mizutani/goerr/v2"
)

// BinaryUpdater replaces the running executable.
type BinaryUpdater struct {
	// TargetPath overrides the running executable, mainly for tests.
	TargetPath string
}

func (u BinaryUpdater) Apply(reader io.Reader) error {
	if err := update.Apply(reader, update.Options{TargetPath: u.TargetPath}); err != nil {
		if rerr := update.RollbackError(err); rerr != nil {
			return goerr.Wrap(rerr, "failed to roll back update", goerr.V("cause", err.Error()))
		}
		return goerr.Wrap(err, "failed to apply update")
	}
	return nil
}
