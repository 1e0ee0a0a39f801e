package easypgp

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"path/filepath"
)

// package EasyPGP provide ready to use gpg interface

// IEasyPGP ...
type IEasyPGP interface {
	Sign(ctx context.Context, filePath string) (string, error)
	Verify(ctx context.Context, signaturePath string) (bool, error)
}

// EasyPGP provide easy to use gpg
type EasyPGP struct {
	// Binary is the resolved gpg executable.
	Binary string
	// Key selects the signing key. Empty means the gpg default key.
	Key string
}

func (E EasyPGP) binary() string {
	if E.Binary == "" {
		return "gpg"
	}
	return E.Binary
}

// Sign writes an ASCII armored detached signature next to filePath
func (E EasyPGP) Sign(ctx context.Context, filePath string) (signaturePath string, err error) {
	if filePath == "" {
		return "", errors.New("no file to sign")
	}
	signaturePath = filePath + ".asc"

	args := []string{"--batch", "--yes", "--armor", "--detach-sign", "--output", signaturePath}
	if E.Key != "" {
		args = append(args, "--local-user", E.Key)
	}
	args = append(args, filepath.Base(filePath))

	var stdErr bytes.Buffer
	cmd := exec.CommandContext(ctx, E.binary(), args...)
	cmd.Dir = filepath.Dir(filePath)
	cmd.Stderr = &stdErr
	if err = cmd.Run(); err != nil {
		return "", errors.New(stdErr.String())
	}

	return
}

// Verify provided signature
func (E EasyPGP) Verify(ctx context.Context, signaturePath string) (ok bool, err error) {
	var stdErr bytes.Buffer
	cmd := exec.CommandContext(ctx, E.binary(), "--batch", "--verify", filepath.Base(signaturePath))
	cmd.Dir = filepath.Dir(signaturePath)
	cmd.Stderr = &stdErr
	err = cmd.Run()

	if err != nil {
		err = errors.New(stdErr.String())
	} else {
		ok = true
	}

	return
}
