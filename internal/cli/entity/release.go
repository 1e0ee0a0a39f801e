package entity

import "strings"

// ReleaseMetadata is the static description of one release.
type ReleaseMetadata struct {
	Name          string `json:"name"`
	Version       string `json:"version"`
	Publisher     string `json:"publisher"`
	URL           string `json:"url"`
	AppID         string `json:"appId"`
	Executable    string `json:"executable"`
	LicenseFile   string `json:"licenseFile"`
	ChangelogFile string `json:"changelogFile"`
	Icon          string `json:"icon,omitempty"`
}

// CompactName is the app name without whitespace, safe for file names.
func (m ReleaseMetadata) CompactName() string {
	return strings.Join(strings.Fields(m.Name), "")
}

// InstallerBaseName is <AppName>Setup_v<Version> without extension.
func (m ReleaseMetadata) InstallerBaseName() string {
	return m.CompactName() + "Setup_v" + m.Version
}

func (m ReleaseMetadata) InstallerFileName() string {
	return m.InstallerBaseName() + ".exe"
}

// ExecutableName defaults to <AppName>.exe.
func (m ReleaseMetadata) ExecutableName() string {
	if m.Executable != "" {
		return m.Executable
	}
	return m.CompactName() + ".exe"
}

type BuildArtifact struct {
	Path string `json:"path"`
}

type Installer struct {
	Path          string `json:"path"`
	SignaturePath string `json:"signaturePath,omitempty"`
}

// Language is one installer locale. MessagesFile follows the Inno Setup
// convention, "compiler:" paths are relative to the compiler install dir.
type Language struct {
	Name         string `json:"name" toml:"name" validate:"required"`
	MessagesFile string `json:"messages_file" toml:"messages_file" validate:"required"`
}
