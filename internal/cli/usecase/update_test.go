package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portfoliocontrol/pcsrel/internal/cli/entity"
)

func TestAssetName(t *testing.T) {
	assert.Equal(t, "pcsrel_linux_amd64", AssetName("linux", "amd64"))
	assert.Equal(t, "pcsrel_windows_amd64.exe", AssetName("windows", "amd64"))
	assert.Equal(t, "pcsrel_darwin_arm64", AssetName("darwin", "arm64"))
}

func testRelease() entity.GitHubRelease {
	return entity.GitHubRelease{
		TagName: "v1.4.0",
		Assets: []entity.GitHubReleaseAsset{
			{Name: "pcsrel_linux_amd64", BrowserDownloadURL: "https://example.com/pcsrel_linux_amd64"},
			{Name: "pcsrel_windows_amd64.exe", BrowserDownloadURL: "https://example.com/pcsrel_windows_amd64.exe"},
		},
	}
}

func TestUpdateUsecase_Check(t *testing.T) {
	tests := []struct {
		name    string
		current string
		newer   bool
	}{
		{name: "older", current: "1.3.2", newer: true},
		{name: "same", current: "1.4.0", newer: false},
		{name: "ahead", current: "1.5.0", newer: false},
		{name: "dev build", current: "dev", newer: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := NewUpdateUsecase(&fakeFetcher{release: testRelease()}, &fakeApplier{}, tt.current)
			uc.GOOS, uc.GOARCH = "windows", "amd64"

			check, err := uc.Check(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.newer, check.Newer)
			assert.Equal(t, "pcsrel_windows_amd64.exe", check.Asset.Name)
		})
	}
}

func TestUpdateUsecase_CheckNoAsset(t *testing.T) {
	uc := NewUpdateUsecase(&fakeFetcher{release: testRelease()}, &fakeApplier{}, "1.0.0")
	uc.GOOS, uc.GOARCH = "freebsd", "riscv64"

	_, err := uc.Check(context.Background())
	assert.True(t, errors.Is(err, ErrNoUpdateAsset))
	assert.Contains(t, err.Error(), "pcsrel_freebsd_riscv64")
}

func TestUpdateUsecase_CheckFetchError(t *testing.T) {
	uc := NewUpdateUsecase(&fakeFetcher{fetchErr: errors.New("rate limited")}, &fakeApplier{}, "1.0.0")

	_, err := uc.Check(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestUpdateUsecase_Apply(t *testing.T) {
	fetcher := &fakeFetcher{release: testRelease()}
	applier := &fakeApplier{}
	uc := NewUpdateUsecase(fetcher, applier, "1.0.0")

	asset, _ := testRelease().Asset("pcsrel_linux_amd64")
	require.NoError(t, uc.Apply(context.Background(), asset))
	assert.Equal(t, []string{"https://example.com/pcsrel_linux_amd64"}, fetcher.downloaded)
	assert.Equal(t, "new binary", applier.applied.String())
}
