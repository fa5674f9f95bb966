package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"maps"
)

// Snapshot captures every input that decides whether a running dev service
// is still valid. Two snapshots are equal iff all fields are equal.
type Snapshot struct {
	Enabled      bool              `json:"enabled"`
	ImageName    string            `json:"imageName"`
	FixedPort    int               `json:"fixedPort"`
	Shared       bool              `json:"shared"`
	ServiceName  string            `json:"serviceName"`
	ContainerEnv map[string]string `json:"containerEnv"`
	WorkspaceDir string            `json:"workspaceDir"`
	ImageRepo    string            `json:"imageRepo"`
}

// Equal reports whether s and o describe the same service. A nil and an empty
// environment compare equal.
func (s Snapshot) Equal(o Snapshot) bool {
	return s.Enabled == o.Enabled &&
		s.ImageName == o.ImageName &&
		s.FixedPort == o.FixedPort &&
		s.Shared == o.Shared &&
		s.ServiceName == o.ServiceName &&
		maps.Equal(s.ContainerEnv, o.ContainerEnv) &&
		s.WorkspaceDir == o.WorkspaceDir &&
		s.ImageRepo == o.ImageRepo
}

// Fingerprint is a stable hash of the snapshot. Equal snapshots have equal
// fingerprints.
func (s Snapshot) Fingerprint() string {
	if s.ContainerEnv == nil {
		s.ContainerEnv = map[string]string{}
	}
	// encoding/json sorts map keys.
	raw, _ := json.Marshal(s)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
