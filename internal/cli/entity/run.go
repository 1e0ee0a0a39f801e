package entity

import "time"

type RunStep string

const (
	StepBuild     RunStep = "build"
	StepPackage   RunStep = "package"
	StepIdentity  RunStep = "identity"
	StepPublish   RunStep = "publish"
	StepRepublish RunStep = "republish"
)

const (
	RunStarted = "STARTED"
	RunSuccess = "SUCCESS"
	RunFailure = "FAILURE"
)

// RunRecord is one invocation of a workflow step.
type RunRecord struct {
	ID            string    `json:"id"`
	Step          RunStep   `json:"step"`
	AppName       string    `json:"appName"`
	Version       string    `json:"version"`
	ArtifactPath  string    `json:"artifactPath"`
	InstallerPath string    `json:"installerPath"`
	RemoteURL     string    `json:"remoteUrl"`
	State         string    `json:"state"`
	Message       string    `json:"message"`
	LogPath       string    `json:"logPath"`
	StartedAt     time.Time `json:"startedAt"`
	FinishedAt    time.Time `json:"finishedAt"`
}

func (r RunRecord) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
