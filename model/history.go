package model

import "time"

// History represents a single hiltest run.
type History struct {
	// Unique ID for this run (UUID)
	ID string `json:"id"`
	// Timestamp when the run started
	Timestamp time.Time `json:"timestamp"`
	// Command-line arguments (including command name)
	Args []string `json:"args"`
	// Working directory where command was run (relative to repo root)
	WorkDir string `json:"workdir"`
	// Exit code of the run
	ExitCode int `json:"exit_code"`
	// Duration of the whole run
	Duration time.Duration `json:"duration"`
	// Git information
	Git *Git `json:"git,omitempty"`
	// Matrix the run was executed with
	Matrix *MatrixSpec `json:"matrix,omitempty"`
	// Shuffle information (only when test order was shuffled)
	Shuffle *Shuffle `json:"shuffle,omitempty"`
	// One record per executed test
	Records []Record `json:"records,omitempty"`
	// Artifacts archived during this run
	Artifacts []Artifact `json:"artifacts,omitempty"`
}

// Git contains git repository information
type Git struct {
	// Git commit hash at time of execution
	Commit string `json:"commit,omitempty"`
	// Git branch at time of execution
	Branch string `json:"branch,omitempty"`
	// Repository name
	Repo string `json:"repo,omitempty"`
}

// Shuffle records the seed used to order tests.
type Shuffle struct {
	Seed float64 `json:"seed"`
}

// ArtifactType identifies the type of artifact
type ArtifactType uint8

const (
	ArtifactTypeImage ArtifactType = iota
	ArtifactTypeLog
)

func (t ArtifactType) String() string {
	switch t {
	case ArtifactTypeImage:
		return "image"
	case ArtifactTypeLog:
		return "log"
	}
	return "unknown"
}

// Artifact represents a file archived during a run
type Artifact struct {
	Type ArtifactType `json:"type"`
	Size uint64       `json:"size"`
	File string       `json:"file"` // relative to run dir
}
