package repo

import (
	model "github.com/portfoliocontrol/pcsrel/internal/artifact/model"
)

// ArtifactList list of artifacts
type ArtifactList struct {
	TotalData int
	Artifacts []model.Artifact
}

// Repo interface to operate with artifact
type Repo interface {
	GetArtifactList() (ArtifactList, error)
}
