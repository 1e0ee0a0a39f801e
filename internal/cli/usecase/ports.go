package usecase

import (
	"context"
	"io"

	"github.com/portfoliocontrol/pcsrel/internal/cli/entity"
)

// ToolCommand is one external tool invocation.
type ToolCommand struct {
	Path    string
	Args    []string
	Dir     string
	Desc    string
	LogPath string
	// Interactive attaches the operator's terminal, e.g. for credential prompts.
	Interactive bool
}

type ToolLocator interface {
	Locate(name, fallback string) (string, error)
}

type ToolRunner interface {
	Run(ctx context.Context, cmd ToolCommand) (string, error)
}

type IdentityStore interface {
	Load(ctx context.Context) (entity.GitIdentity, error)
	SetName(ctx context.Context, name string) error
	SetEmail(ctx context.Context, email string) error
}

// PushOptions with no remote and branch pushes to the configured upstream.
type PushOptions struct {
	Remote      string
	Branch      string
	SetUpstream bool
	LogPath     string
}

type GitRepository interface {
	RenameBranch(ctx context.Context, branch string) error
	AddRemote(ctx context.Context, name, url string) error
	RemoteURL(ctx context.Context, name string) (string, error)
	UpstreamURL(ctx context.Context) (string, error)
	Push(ctx context.Context, opts PushOptions) error
}

type Signer interface {
	Sign(ctx context.Context, path string) (string, error)
	Verify(ctx context.Context, signaturePath string) (bool, error)
}

type Notifier interface {
	Notify(ctx context.Context, title, message string) error
}

type RunStore interface {
	RecordRun(ctx context.Context, run entity.RunRecord) error
	GetRun(ctx context.Context, runID string) (*entity.RunRecord, error)
	GetLatestRun(ctx context.Context) (*entity.RunRecord, error)
	GetLastSuccessfulRun(ctx context.Context, step entity.RunStep, appName string) (*entity.RunRecord, error)
	GetRecentRuns(ctx context.Context, limit int) ([]*entity.RunRecord, error)
}

type ReleaseFetcher interface {
	FetchLatest(ctx context.Context) (entity.GitHubRelease, error)
	Download(ctx context.Context, url string) (io.ReadCloser, error)
}

type UpdateApplier interface {
	Apply(reader io.Reader) error
}
