package usecase

import (
	"context"

	"github.com/portfoliocontrol/pcsrel/internal/cli/entity"
)

// ReleaseUsecase builds the executable and packages it, stopping at the
// first failing step.
type ReleaseUsecase struct {
	Build     *BuildUsecase
	Installer *InstallerUsecase
}

func NewReleaseUsecase(build *BuildUsecase, installer *InstallerUsecase) *ReleaseUsecase {
	return &ReleaseUsecase{Build: build, Installer: installer}
}

func (u *ReleaseUsecase) Release(ctx context.Context) (entity.BuildArtifact, entity.Installer, error) {
	artifact, err := u.Build.Build(ctx)
	if err != nil {
		return artifact, entity.Installer{}, err
	}
	installer, err := u.Installer.Package(ctx)
	return artifact, installer, err
}
