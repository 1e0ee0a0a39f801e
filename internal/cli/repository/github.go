package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/portfoliocontrol/pcsrel/internal/cli/entity"
)

const githubAPI = "https://api.github.com"

// GitHubReleases reads the releases of the tool's own repository.
type GitHubReleases struct {
	BaseURL string
	Owner   string
	Repo    string
	Client  *http.Client
}

func NewGitHubReleases(owner, repo string) *GitHubReleases {
	return &GitHubReleases{
		BaseURL: githubAPI,
		Owner:   owner,
		Repo:    repo,
		Client:  &http.Client{Timeout: 5 * time.Minute},
	}
}

func (g *GitHubReleases) FetchLatest(ctx context.Context) (release entity.GitHubRelease, err error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", strings.TrimSuffix(g.BaseURL, "/"), g.Owner, g.Repo)
	resp, err := g.get(ctx, url, "application/vnd.github+json")
	if err != nil {
		return release, err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return release, goerr.Wrap(err, "failed to decode release", goerr.V("url", url))
	}
	return release, nil
}

func (g *GitHubReleases) Download(ctx context.Context, url string) (io.ReadCloser, error) {
	resp, err := g.get(ctx, url, "application/octet-stream")
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (g *GitHubReleases) get(ctx context.Context, url, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create request", goerr.V("url", url))
	}
	req.Header.Set("Accept", accept)

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "request failed", goerr.V("url", url))
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		resp.Body.Close()
		return nil, goerr.New("unexpected response",
			goerr.V("url", url),
			goerr.V("status", resp.StatusCode),
			goerr.V("body", string(body)),
		)
	}
	return resp, nil
}
