package entity

import "strings"

type GitHubReleaseAsset struct {
	Name               string `json:"name"`
	Size               int64  `json:"size"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

type GitHubRelease struct {
	TagName string               `json:"tag_name"`
	Name    string               `json:"name"`
	HTMLURL string               `json:"html_url"`
	Assets  []GitHubReleaseAsset `json:"assets"`
}

// Asset finds an asset by exact name.
func (r GitHubRelease) Asset(name string) (GitHubReleaseAsset, bool) {
	for _, asset := range r.Assets {
		if asset.Name == name {
			return asset, true
		}
	}
	return GitHubReleaseAsset{}, false
}

// Version is the tag without a leading "v".
func (r GitHubRelease) Version() string {
	return strings.TrimPrefix(r.TagName, "v")
}
