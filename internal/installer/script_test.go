package installer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portfoliocontrol/pcsrel/internal/cli/entity"
)

func sampleScript() Script {
	return Script{
		Metadata: entity.ReleaseMetadata{
			Name:      "Portfolio Control System",
			Version:   "3.1",
			Publisher: "Portfolio Control",
			URL:       "https://example.com/portfolio",
			AppID:     "5f0c7a64-8a3e-5b8a-9d7c-0e1f2a3b4c5d",
		},
		ArtifactPath:  `dist\PortfolioControlSystem.exe`,
		LicensePath:   "LICENSE.txt",
		ChangelogPath: "CHANGELOG.md",
		OutputDir:     "staging",
		Languages: []entity.Language{
			{Name: "english", MessagesFile: "compiler:Default.isl"},
			{Name: "brazilianportuguese", MessagesFile: `compiler:Languages\BrazilianPortuguese.isl`},
		},
	}
}

func render(t *testing.T, s Script) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, s))
	return buf.String()
}

func TestRender(t *testing.T) {
	out := render(t, sampleScript())

	expected := []string{
		"AppId={{5f0c7a64-8a3e-5b8a-9d7c-0e1f2a3b4c5d}\n",
		"AppName=Portfolio Control System\n",
		"AppVersion=3.1\n",
		"VersionInfoVersion=3.1.0.0\n",
		`DefaultDirName={localappdata}\Programs\Portfolio Control System`,
		"PrivilegesRequired=lowest\n",
		"LicenseFile=LICENSE.txt\n",
		"InfoAfterFile=CHANGELOG.md\n",
		"OutputDir=staging\n",
		"OutputBaseFilename=PortfolioControlSystemSetup_v3.1\n",
		`Name: "english"; MessagesFile: "compiler:Default.isl"`,
		`Name: "brazilianportuguese"; MessagesFile: "compiler:Languages\BrazilianPortuguese.isl"`,
		`Name: "desktopicon"; Description: "{cm:CreateDesktopIcon}"; GroupDescription: "{cm:AdditionalIcons}"; Flags: unchecked`,
		`Source: "dist\PortfolioControlSystem.exe"; DestDir: "{app}"; Flags: ignoreversion`,
		`Filename: "{app}\PortfolioControlSystem.exe"; Description: "{cm:LaunchProgram,Portfolio Control System}"; Flags: nowait postinstall skipifsilent`,
	}
	for _, want := range expected {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "SetupIconFile")
	assert.NotContains(t, out, "PrivilegesRequired=admin")
}

func TestRender_Icon(t *testing.T) {
	s := sampleScript()
	s.IconPath = `assets\app.ico`

	out := render(t, s)
	assert.Contains(t, out, "SetupIconFile=assets\\app.ico\n")
}

func TestRender_QuotesValues(t *testing.T) {
	s := sampleScript()
	s.Metadata.Name = `Portfolio "Pro"`

	out := render(t, s)
	assert.Contains(t, out, `Name: "{autoprograms}\Portfolio ""Pro"""`)
}

func TestRender_EscapesLaunchMessageArgument(t *testing.T) {
	s := sampleScript()
	s.Metadata.Name = `Stocks, Bonds {100%}`

	out := render(t, s)
	assert.Contains(t, out, `Description: "{cm:LaunchProgram,Stocks%2c Bonds {100%25%7d}"`)
	assert.Contains(t, out, "AppName=Stocks, Bonds {100%}\n")
}

func TestRender_LanguagesInOrder(t *testing.T) {
	s := sampleScript()
	s.Languages = append(s.Languages, entity.Language{Name: "spanish", MessagesFile: `compiler:Languages\Spanish.isl`})

	out := render(t, s)
	english := strings.Index(out, `Name: "english"`)
	portuguese := strings.Index(out, `Name: "brazilianportuguese"`)
	spanish := strings.Index(out, `Name: "spanish"`)
	assert.True(t, english < portuguese && portuguese < spanish)
}

func TestRender_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *Script)
	}{
		{name: "no name", mutate: func(s *Script) { s.Metadata.Name = "" }},
		{name: "no version", mutate: func(s *Script) { s.Metadata.Version = "" }},
		{name: "no app id", mutate: func(s *Script) { s.Metadata.AppID = "" }},
		{name: "one language", mutate: func(s *Script) { s.Languages = s.Languages[:1] }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := sampleScript()
			tt.mutate(&s)

			var buf bytes.Buffer
			assert.Error(t, Render(&buf, s))
			assert.Zero(t, buf.Len())
		})
	}
}

func TestScript_VersionInfo(t *testing.T) {
	tests := []struct {
		version string
		want    string
	}{
		{"3.1", "3.1.0.0"},
		{"3.1.0", "3.1.0.0"},
		{"3.2.0-beta.1", "3.2.0.0"},
		{"1.2.3.4.5", "1.2.3.4"},
		{"v3.1", "3.1.0.0"},
	}
	for _, tt := range tests {
		s := Script{Metadata: entity.ReleaseMetadata{Version: tt.version}}
		assert.Equal(t, tt.want, s.VersionInfo(), tt.version)
	}
}
