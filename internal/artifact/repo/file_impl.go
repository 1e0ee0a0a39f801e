package repo

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	model "github.com/portfoliocontrol/pcsrel/internal/artifact/model"
)

const signatureSuffix = ".asc"

// FileRepo lists installers kept in a packaging output directory
type FileRepo struct {
	Workdir string
}

// NewFileRepo create new instance
func NewFileRepo(workdir string) *FileRepo {
	return &FileRepo{
		Workdir: workdir,
	}
}

// GetArtifactList returns installers sorted by name. A missing output
// directory yields an empty list.
func (A *FileRepo) GetArtifactList() (artifactsList ArtifactList, err error) {
	artifactsList.Artifacts = []model.Artifact{}

	files, err := filepath.Glob(filepath.Join(A.Workdir, "*.exe"))
	if err != nil {
		return artifactsList, goerr.Wrap(err, "failed to list artifacts", goerr.V("workdir", A.Workdir))
	}
	sort.Strings(files)

	for _, file := range files {
		info, statErr := os.Stat(file)
		if statErr != nil {
			return artifactsList, goerr.Wrap(statErr, "failed to stat artifact", goerr.V("path", file))
		}
		if info.IsDir() {
			continue
		}
		artifactsList.Artifacts = append(artifactsList.Artifacts, model.Artifact{
			Name:    getArtifactFilename(file),
			Path:    file,
			Size:    info.Size(),
			ModTime: info.ModTime(),
			Signed:  fileExists(file + signatureSuffix),
		})
	}
	artifactsList.TotalData = len(artifactsList.Artifacts)

	return
}

func getArtifactFilename(filePath string) (fileName string) {
	if strings.TrimSpace(filePath) == "" {
		return ""
	}
	return filepath.Base(filePath)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
