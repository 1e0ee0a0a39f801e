package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/ghodss/yaml"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	validator "gopkg.in/go-playground/validator.v9"

	"github.com/portfoliocontrol/pcsrel/internal/cli/entity"
)

var ErrConfigNotFound = errors.New("release config not found")

const (
	defaultBuildTool     = "pyinstaller"
	defaultCompiler      = "iscc"
	defaultCompilerPath  = `C:\Program Files (x86)\Inno Setup 6\ISCC.exe`
	defaultGit           = "git"
	defaultGitPath       = `C:\Program Files\Git\cmd\git.exe`
	defaultGPG           = "gpg"
	defaultMaxRuns       = 200
	defaultUpdateOwner   = "portfoliocontrol"
	defaultUpdateRepo    = "pcsrel"
	defaultStateDirName  = ".pcsrel"
	defaultInstallerDir  = "installer_output"
	defaultInstallerFile = "installer.iss"
)

type ReleaseConfig struct {
	App          AppConfig          `json:"app" toml:"app"`
	Build        BuildConfig        `json:"build" toml:"build"`
	Installer    InstallerConfig    `json:"installer" toml:"installer"`
	Publish      PublishConfig      `json:"publish" toml:"publish"`
	Notification NotificationConfig `json:"notification" toml:"notification"`
	Update       UpdateConfig       `json:"update" toml:"update"`
	StateDir     string             `json:"state_dir" toml:"state_dir" validate:"required"`
	MaxRuns      int                `json:"max_runs" toml:"max_runs" validate:"min=1"`
	IsDev        bool               `json:"-" toml:"-"`
	Path         string             `json:"-" toml:"-"`
}

type AppConfig struct {
	Name          string `json:"name" toml:"name" validate:"required"`
	Version       string `json:"version" toml:"version" validate:"required,semver"` // 3.1.0
	Publisher     string `json:"publisher" toml:"publisher" validate:"required"`
	URL           string `json:"url" toml:"url" validate:"required,url"`
	AppID         string `json:"app_id" toml:"app_id"`
	Executable    string `json:"executable" toml:"executable"`
	LicenseFile   string `json:"license_file" toml:"license_file" validate:"required"`
	ChangelogFile string `json:"changelog_file" toml:"changelog_file" validate:"required"`
	Icon          string `json:"icon" toml:"icon"`
}

type BuildConfig struct {
	Tool           string   `json:"tool" toml:"tool" validate:"required"`
	ToolPath       string   `json:"tool_path" toml:"tool_path"`
	InstallCommand []string `json:"install_command" toml:"install_command"` // python -m pip install --upgrade pyinstaller
	Spec           string   `json:"spec" toml:"spec" validate:"required"`
	DistDir        string   `json:"dist_dir" toml:"dist_dir" validate:"required"`
	WorkDir        string   `json:"work_dir" toml:"work_dir" validate:"required"`
	VersionFile    string   `json:"version_file" toml:"version_file"`
}

type InstallerConfig struct {
	Compiler     string            `json:"compiler" toml:"compiler"`
	CompilerPath string            `json:"compiler_path" toml:"compiler_path"`
	Script       string            `json:"script" toml:"script" validate:"required"`
	OutputDir    string            `json:"output_dir" toml:"output_dir" validate:"required"`
	Languages    []entity.Language `json:"languages" toml:"languages" validate:"min=2,dive"`
	SigningKey   string            `json:"signing_key" toml:"signing_key"`
	GPG          string            `json:"gpg" toml:"gpg"`
}

type PublishConfig struct {
	Git     string `json:"git" toml:"git"`
	GitPath string `json:"git_path" toml:"git_path"`
	RepoDir string `json:"repo_dir" toml:"repo_dir" validate:"required"`
	Remote  string `json:"remote" toml:"remote" validate:"required"`
	Branch  string `json:"branch" toml:"branch" validate:"required"`
}

type NotificationConfig struct {
	WebhookURL string `json:"webhook_url" toml:"webhook_url" validate:"omitempty,url"`
}

type UpdateConfig struct {
	Owner string `json:"owner" toml:"owner" validate:"required"`
	Repo  string `json:"repo" toml:"repo" validate:"required"`
}

// LoadConfig load release config from file. When no file exists the
// defaults are returned together with ErrConfigNotFound so that commands
// that only touch git can still run.
func LoadConfig(explicitPath string) (config ReleaseConfig, err error) {
	configPaths := []string{
		"./release.yml",
		"./release.yaml",
		"./release.toml",
		"./packaging/release.yml",
	}
	configPath := explicitPath
	if configPath == "" {
		configPath = os.Getenv("PCSREL_CONFIG")
	}

	var raw []byte
	if configPath != "" {
		raw, err = os.ReadFile(configPath)
		if err != nil {
			return config, goerr.Wrap(err, "failed to read release config", goerr.V("path", configPath))
		}
	} else {
		// load from predefined configPaths when no PCSREL_CONFIG set
		for _, candidate := range configPaths {
			raw, err = os.ReadFile(candidate)
			if err == nil {
				configPath = candidate
				slog.Debug("load config", slog.String("path", candidate))
				break
			}
		}
	}

	if configPath == "" {
		config = Default()
		return config, ErrConfigNotFound
	}

	config, err = Parse(configPath, raw)
	if err != nil {
		return config, err
	}
	config.Path = configPath
	return config, nil
}

// Parse decodes raw config bytes, choosing TOML or YAML by file extension,
// and applies defaults.
func Parse(path string, raw []byte) (config ReleaseConfig, err error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(raw, &config)
	default:
		err = yaml.Unmarshal(raw, &config)
	}
	if err != nil {
		return config, goerr.Wrap(err, "failed to decode release config", goerr.V("path", path))
	}

	applyDefaults(&config)
	return config, nil
}

// Default returns a config with every default applied and no app section.
func Default() ReleaseConfig {
	var config ReleaseConfig
	applyDefaults(&config)
	return config
}

func applyDefaults(config *ReleaseConfig) {
	isDev := os.Getenv("DEV") == "1"
	config.IsDev = isDev

	if config.StateDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			config.StateDir = filepath.Join(home, defaultStateDirName)
		}
	}
	if isDev {
		// Since it's in dev env, keep state under ./tmp
		cwd, _ := os.Getwd()
		config.StateDir = filepath.Join(cwd, "tmp", defaultStateDirName)
	}
	if config.MaxRuns == 0 {
		config.MaxRuns = defaultMaxRuns
	}

	if config.App.AppID == "" && config.App.Name != "" {
		config.App.AppID = uuid.NewSHA1(uuid.NameSpaceURL, []byte(config.App.URL+"#"+config.App.Name)).String()
	}

	b := &config.Build
	if b.Tool == "" {
		b.Tool = defaultBuildTool
	}
	if len(b.InstallCommand) == 0 && b.Tool == defaultBuildTool {
		b.InstallCommand = []string{"python", "-m", "pip", "install", "--upgrade", defaultBuildTool}
	}
	if b.DistDir == "" {
		b.DistDir = "dist"
	}
	if b.WorkDir == "" {
		b.WorkDir = "build"
	}

	i := &config.Installer
	if i.Compiler == "" {
		i.Compiler = defaultCompiler
	}
	if i.CompilerPath == "" {
		i.CompilerPath = defaultCompilerPath
	}
	if i.Script == "" {
		i.Script = defaultInstallerFile
	}
	if i.OutputDir == "" {
		i.OutputDir = defaultInstallerDir
	}
	if len(i.Languages) == 0 {
		i.Languages = []entity.Language{
			{Name: "english", MessagesFile: "compiler:Default.isl"},
			{Name: "brazilianportuguese", MessagesFile: `compiler:Languages\BrazilianPortuguese.isl`},
		}
	}
	if i.GPG == "" {
		i.GPG = defaultGPG
	}

	p := &config.Publish
	if p.Git == "" {
		p.Git = defaultGit
	}
	if p.GitPath == "" {
		p.GitPath = defaultGitPath
	}
	if p.RepoDir == "" {
		p.RepoDir = "."
	}
	if p.Remote == "" {
		p.Remote = entity.DefaultRemote
	}
	if p.Branch == "" {
		p.Branch = entity.DefaultBranch
	}

	if config.Update.Owner == "" {
		config.Update.Owner = defaultUpdateOwner
	}
	if config.Update.Repo == "" {
		config.Update.Repo = defaultUpdateRepo
	}
}

func newValidator() *validator.Validate {
	validate := validator.New()
	// the version ends up verbatim in installer file names, so a "v"
	// prefix is rejected even though semver parses it
	_ = validate.RegisterValidation("semver", func(fl validator.FieldLevel) bool {
		v := fl.Field().String()
		if strings.HasPrefix(v, "v") || strings.HasPrefix(v, "V") {
			return false
		}
		_, err := semver.NewVersion(v)
		return err == nil
	})
	return validate
}

// Validate checks the whole release config, as needed by build and package.
func (c ReleaseConfig) Validate() error {
	if err := newValidator().Struct(c); err != nil {
		return goerr.Wrap(err, "invalid release config", goerr.V("path", c.Path))
	}
	return nil
}

// ValidatePublish checks only the sections the git commands depend on.
func (c ReleaseConfig) ValidatePublish() error {
	if err := newValidator().Struct(c.Publish); err != nil {
		return goerr.Wrap(err, "invalid publish config", goerr.V("path", c.Path))
	}
	return nil
}

func (c ReleaseConfig) Metadata() entity.ReleaseMetadata {
	return entity.ReleaseMetadata{
		Name:          c.App.Name,
		Version:       c.App.Version,
		Publisher:     c.App.Publisher,
		URL:           c.App.URL,
		AppID:         c.App.AppID,
		Executable:    c.App.Executable,
		LicenseFile:   c.App.LicenseFile,
		ChangelogFile: c.App.ChangelogFile,
		Icon:          c.App.Icon,
	}
}

func (c ReleaseConfig) DatabasePath() string {
	return filepath.Join(c.StateDir, "history.db")
}

func (c ReleaseConfig) LogsDir() string {
	return filepath.Join(c.StateDir, "logs")
}

// ArtifactPath is where the packaging tool leaves the single-file executable.
func (c ReleaseConfig) ArtifactPath() string {
	return filepath.Join(c.Build.DistDir, c.Metadata().ExecutableName())
}
