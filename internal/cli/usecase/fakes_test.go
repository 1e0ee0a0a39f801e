package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/portfoliocontrol/pcsrel/internal/cli/entity"
	"github.com/portfoliocontrol/pcsrel/internal/config"
	"github.com/portfoliocontrol/pcsrel/internal/storage"
)

const testReleaseYAML = `
app:
  name: Portfolio Control System
  version: 3.1.0
  publisher: Portfolio Control
  url: https://example.com/portfolio
  license_file: LICENSE.txt
  changelog_file: CHANGELOG.md
build:
  spec: portfolio.spec
`

// testConfig returns a config whose paths all live under a temp dir.
func testConfig(t *testing.T) (config.ReleaseConfig, string) {
	t.Helper()
	cfg, err := config.Parse("release.yml", []byte(testReleaseYAML))
	require.NoError(t, err)

	dir := t.TempDir()
	cfg.App.LicenseFile = filepath.Join(dir, "LICENSE.txt")
	cfg.App.ChangelogFile = filepath.Join(dir, "CHANGELOG.md")
	cfg.Build.Spec = filepath.Join(dir, "portfolio.spec")
	cfg.Build.DistDir = filepath.Join(dir, "dist")
	cfg.Build.WorkDir = filepath.Join(dir, "build")
	cfg.Installer.Script = filepath.Join(dir, "installer.iss")
	cfg.Installer.OutputDir = filepath.Join(dir, "installer_output")
	cfg.StateDir = filepath.Join(dir, ".pcsrel")
	return cfg, dir
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
}

func newTestRunStore(t *testing.T) *storage.RunStore {
	t.Helper()
	db, err := storage.NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return storage.NewRunStore(db, 50)
}

type fakeLocator struct {
	paths   map[string]string
	lookups []string
}

func (l *fakeLocator) Locate(name, fallback string) (string, error) {
	l.lookups = append(l.lookups, name)
	if path, ok := l.paths[name]; ok {
		return path, nil
	}
	return "", errors.New("executable not found: " + name)
}

type fakeRunner struct {
	calls []ToolCommand
	onRun func(cmd ToolCommand) (string, error)
}

func (r *fakeRunner) Run(ctx context.Context, cmd ToolCommand) (string, error) {
	r.calls = append(r.calls, cmd)
	if r.onRun == nil {
		return "", nil
	}
	return r.onRun(cmd)
}

type fakeIdentityStore struct {
	name, email string
	loads       int
	writes      []string
	failEmail   error
}

func (s *fakeIdentityStore) Load(ctx context.Context) (entity.GitIdentity, error) {
	s.loads++
	return entity.GitIdentity{Name: s.name, Email: s.email}, nil
}

func (s *fakeIdentityStore) SetName(ctx context.Context, name string) error {
	s.writes = append(s.writes, "name="+name)
	s.name = name
	return nil
}

func (s *fakeIdentityStore) SetEmail(ctx context.Context, email string) error {
	s.writes = append(s.writes, "email="+email)
	if s.failEmail != nil {
		return s.failEmail
	}
	s.email = email
	return nil
}

type fakeGitRepo struct {
	branch      string
	remotes     map[string]string
	upstreamURL string
	pushes      []PushOptions
	pushErr     error
	calls       []string
}

func newFakeGitRepo() *fakeGitRepo {
	return &fakeGitRepo{branch: "master", remotes: map[string]string{}}
}

func (g *fakeGitRepo) RenameBranch(ctx context.Context, branch string) error {
	g.calls = append(g.calls, "rename")
	g.branch = branch
	return nil
}

func (g *fakeGitRepo) AddRemote(ctx context.Context, name, url string) error {
	g.calls = append(g.calls, "remote")
	if _, ok := g.remotes[name]; ok {
		return ErrRemoteExists
	}
	g.remotes[name] = url
	return nil
}

func (g *fakeGitRepo) RemoteURL(ctx context.Context, name string) (string, error) {
	url, ok := g.remotes[name]
	if !ok {
		return "", errors.New("remote not found")
	}
	return url, nil
}

func (g *fakeGitRepo) UpstreamURL(ctx context.Context) (string, error) {
	if g.upstreamURL == "" {
		return "", errors.New("no upstream")
	}
	return g.upstreamURL, nil
}

func (g *fakeGitRepo) Push(ctx context.Context, opts PushOptions) error {
	g.calls = append(g.calls, "push")
	g.pushes = append(g.pushes, opts)
	return g.pushErr
}

type fakeSigner struct {
	signed   []string
	verified []string
	valid    bool
}

func (s *fakeSigner) Sign(ctx context.Context, path string) (string, error) {
	s.signed = append(s.signed, path)
	sig := path + ".asc"
	return sig, os.WriteFile(sig, []byte("signature"), 0644)
}

func (s *fakeSigner) Verify(ctx context.Context, signaturePath string) (bool, error) {
	s.verified = append(s.verified, signaturePath)
	return s.valid, nil
}

type fakeNotifier struct {
	titles []string
	err    error
}

func (n *fakeNotifier) Notify(ctx context.Context, title, message string) error {
	n.titles = append(n.titles, title)
	return n.err
}

type fakeFetcher struct {
	release    entity.GitHubRelease
	fetchErr   error
	downloaded []string
}

func (f *fakeFetcher) FetchLatest(ctx context.Context) (entity.GitHubRelease, error) {
	return f.release, f.fetchErr
}

func (f *fakeFetcher) Download(ctx context.Context, url string) (io.ReadCloser, error) {
	f.downloaded = append(f.downloaded, url)
	return io.NopCloser(strings.NewReader("new binary")), nil
}

type fakeApplier struct {
	applied bytes.Buffer
}

func (a *fakeApplier) Apply(reader io.Reader) error {
	_, err := io.Copy(&a.applied, reader)
	return err
}
