package entity

import "strings"

const (
	DefaultRemote = "origin"
	DefaultBranch = "main"
)

// GitIdentity is the global git author identity.
type GitIdentity struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (i GitIdentity) Normalize() GitIdentity {
	return GitIdentity{
		Name:  strings.TrimSpace(i.Name),
		Email: strings.TrimSpace(i.Email),
	}
}

// RemoteLink is the remote a repository publishes to.
type RemoteLink struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	Branch string `json:"branch"`
}
