package usecase

import (
	"errors"
	"strings"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrMissingFiles    = errors.New("missing required files")
	ErrToolUnavailable = errors.New("required tool is not available")
	ErrBuildFailed     = errors.New("build failed")
	ErrInstallerFailed = errors.New("installer compilation failed")
	ErrSigningFailed   = errors.New("installer signing failed")
	ErrRemoteExists    = errors.New("remote already exists")
	ErrPublishFailed   = errors.New("publish failed")
	ErrNoUpdateAsset   = errors.New("no update asset for this platform")
)

// RecoveryHint is printed when re-publishing fails.
const RecoveryHint = `The push was rejected or could not authenticate. Try one of:
  1. Reconfigure the credential manager, then run republish again:
       git config --global credential.helper manager
  2. Complete an interactive browser login, then run republish again:
       gh auth login --web`

// ValidationError names every required input that was left empty.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "required input is empty: " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// MissingFilesError names every precondition file that does not exist.
type MissingFilesError struct {
	Paths []string
}

func (e *MissingFilesError) Error() string {
	return "missing required files: " + strings.Join(e.Paths, ", ")
}

func (e *MissingFilesError) Is(target error) bool {
	return target == ErrMissingFiles
}
