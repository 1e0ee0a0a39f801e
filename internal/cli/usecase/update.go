package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/Masterminds/semver/v3"
	"github.com/m-mizutani/goerr/v2"

	"github.com/portfoliocontrol/pcsrel/internal/cli/entity"
)

type UpdateUsecase struct {
	Fetcher        ReleaseFetcher
	Applier        UpdateApplier
	CurrentVersion string
	GOOS           string
	GOARCH         string
}

func NewUpdateUsecase(fetcher ReleaseFetcher, applier UpdateApplier, currentVersion string) *UpdateUsecase {
	return &UpdateUsecase{
		Fetcher:        fetcher,
		Applier:        applier,
		CurrentVersion: currentVersion,
		GOOS:           runtime.GOOS,
		GOARCH:         runtime.GOARCH,
	}
}

// UpdateCheck describes the latest published release of the tool.
type UpdateCheck struct {
	Release entity.GitHubRelease
	Asset   entity.GitHubReleaseAsset
	Newer   bool
}

// AssetName is pcsrel_<goos>_<goarch>, with .exe on windows.
func AssetName(goos, goarch string) string {
	name := fmt.Sprintf("pcsrel_%s_%s", goos, goarch)
	if goos == "windows" {
		name += ".exe"
	}
	return name
}

func (u *UpdateUsecase) Check(ctx context.Context) (check UpdateCheck, err error) {
	check.Release, err = u.Fetcher.FetchLatest(ctx)
	if err != nil {
		return check, goerr.Wrap(err, "failed to fetch latest release")
	}

	name := AssetName(u.GOOS, u.GOARCH)
	asset, ok := check.Release.Asset(name)
	if !ok {
		return check, fmt.Errorf("%w: %s in %s", ErrNoUpdateAsset, name, check.Release.TagName)
	}
	check.Asset = asset
	check.Newer = isNewer(check.Release.Version(), u.CurrentVersion)
	return check, nil
}

// Apply downloads the asset and replaces the running binary.
func (u *UpdateUsecase) Apply(ctx context.Context, asset entity.GitHubReleaseAsset) error {
	slog.Info("downloading update", slog.String("url", asset.BrowserDownloadURL))
	body, err := u.Fetcher.Download(ctx, asset.BrowserDownloadURL)
	if err != nil {
		return goerr.Wrap(err, "failed to download update", goerr.V("asset", asset.Name))
	}
	defer body.Close()

	if err := u.Applier.Apply(body); err != nil {
		return goerr.Wrap(err, "failed to apply update", goerr.V("asset", asset.Name))
	}
	return nil
}

// isNewer treats an unparseable current version, such as a dev build, as
// older than any release.
func isNewer(latest, current string) bool {
	lv, err := semver.NewVersion(latest)
	if err != nil {
		return false
	}
	cv, err := semver.NewVersion(current)
	if err != nil {
		return true
	}
	return lv.GreaterThan(cv)
}
