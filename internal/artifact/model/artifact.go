package model

import "time"

// Artifact represent an installer found in the packaging output directory
type Artifact struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modTime"`
	Signed  bool      `json:"signed"`
}
