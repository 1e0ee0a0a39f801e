// Package installer renders Inno Setup scripts for a release.
package installer

import (
	"io"
	"strings"
	"text/template"

	"github.com/m-mizutani/goerr/v2"

	"github.com/portfoliocontrol/pcsrel/internal/cli/entity"
)

const MinLanguages = 2

// Script is everything the Inno Setup compiler needs to know.
type Script struct {
	Metadata      entity.ReleaseMetadata
	ArtifactPath  string
	LicensePath   string
	ChangelogPath string
	IconPath      string
	OutputDir     string
	Languages     []entity.Language
}

var scriptTemplate = template.Must(template.New("iss").Funcs(template.FuncMap{
	"q":  quote,
	"cm": cmArg,
}).Parse(`; Generated by pcsrel. Changes are overwritten on the next package run.

[Setup]
AppId={{"{{"}}{{q .Metadata.AppID}}}
AppName={{q .Metadata.Name}}
AppVersion={{q .Metadata.Version}}
AppVerName={{q .Metadata.Name}} {{q .Metadata.Version}}
AppPublisher={{q .Metadata.Publisher}}
AppPublisherURL={{q .Metadata.URL}}
AppSupportURL={{q .Metadata.URL}}
AppUpdatesURL={{q .Metadata.URL}}
VersionInfoVersion={{q .VersionInfo}}
DefaultDirName={localappdata}\Programs\{{q .Metadata.Name}}
DefaultGroupName={{q .Metadata.Name}}
DisableProgramGroupPage=yes
PrivilegesRequired=lowest
LicenseFile={{q .LicensePath}}
InfoAfterFile={{q .ChangelogPath}}
OutputDir={{q .OutputDir}}
OutputBaseFilename={{q .Metadata.InstallerBaseName}}
{{- if .IconPath}}
SetupIconFile={{q .IconPath}}
{{- end}}
UninstallDisplayIcon={app}\{{q .Metadata.ExecutableName}}
ShowLanguageDialog=yes
Compression=lzma2
SolidCompression=yes
WizardStyle=modern

[Languages]
{{- range .Languages}}
Name: "{{q .Name}}"; MessagesFile: "{{q .MessagesFile}}"
{{- end}}

[Tasks]
Name: "desktopicon"; Description: "{cm:CreateDesktopIcon}"; GroupDescription: "{cm:AdditionalIcons}"; Flags: unchecked

[Files]
Source: "{{q .ArtifactPath}}"; DestDir: "{app}"; Flags: ignoreversion
Source: "{{q .LicensePath}}"; DestDir: "{app}"; Flags: ignoreversion
Source: "{{q .ChangelogPath}}"; DestDir: "{app}"; Flags: ignoreversion

[Icons]
Name: "{autoprograms}\{{q .Metadata.Name}}"; Filename: "{app}\{{q .Metadata.ExecutableName}}"
Name: "{autodesktop}\{{q .Metadata.Name}}"; Filename: "{app}\{{q .Metadata.ExecutableName}}"; Tasks: desktopicon

[Run]
Filename: "{app}\{{q .Metadata.ExecutableName}}"; Description: "{cm:LaunchProgram,{{cm .Metadata.Name}}}"; Flags: nowait postinstall skipifsilent
`))

// VersionInfo pads the release version to the four numeric parts Windows
// file version resources expect. Prerelease and build suffixes are dropped.
func (s Script) VersionInfo() string {
	core := strings.TrimLeft(s.Metadata.Version, "vV")
	if i := strings.IndexAny(core, "-+"); i >= 0 {
		core = core[:i]
	}
	parts := strings.Split(core, ".")
	for len(parts) < 4 {
		parts = append(parts, "0")
	}
	return strings.Join(parts[:4], ".")
}

// Validate rejects scripts the compiler would accept but that break the
// release contract.
func (s Script) Validate() error {
	switch {
	case s.Metadata.Name == "":
		return goerr.New("installer needs an app name")
	case s.Metadata.Version == "":
		return goerr.New("installer needs a version")
	case s.Metadata.AppID == "":
		return goerr.New("installer needs an app id")
	case len(s.Languages) < MinLanguages:
		return goerr.New("installer needs at least two languages", goerr.V("languages", len(s.Languages)))
	}
	return nil
}

// Render writes the Inno Setup script for s.
func Render(w io.Writer, s Script) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if err := scriptTemplate.Execute(w, s); err != nil {
		return goerr.Wrap(err, "failed to render installer script")
	}
	return nil
}

// quote escapes a value for use inside an Inno Setup double-quoted string.
func quote(v string) string {
	return strings.ReplaceAll(v, `"`, `""`)
}

var cmEscaper = strings.NewReplacer(`%`, "%25", `,`, "%2c", `}`, "%7d", `"`, `""`)

// cmArg escapes an argument of a {cm:...} constant inside a quoted string.
func cmArg(v string) string {
	return cmEscaper.Replace(v)
}
