package updater

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// State persists the in-flight update attempt. The helper process never
// writes it; the agent records the attempt before handing off and resolves
// it on the next launch by comparing the version it is actually running
// against the version the attempt targeted. That is the only channel the
// one-way helper handoff leaves open.
type State struct {
	PendingVersion string    `json:"pending_version,omitempty"`
	StagedPath     string    `json:"staged_path,omitempty"`
	StartedAt      time.Time `json:"started_at,omitempty"`

	path string
}

// PreviousAttempt describes the outcome of the last recorded update attempt.
type PreviousAttempt struct {
	Version   string
	StartedAt time.Time
	Applied   bool
}

// LoadState loads state from file, creating an empty one if the file does
// not exist. A corrupted file starts fresh rather than wedging the agent.
func LoadState(path string) (*State, error) {
	s := &State{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return nil, err
			}
			return s, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, s); err != nil {
		return &State{path: path}, nil
	}

	return s, nil
}

// Save persists the state to disk.
func (s *State) Save() error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0644)
}

// MarkPending records that an update to version is about to be handed to
// the helper.
func (s *State) MarkPending(version, stagedPath string) error {
	s.PendingVersion = version
	s.StagedPath = stagedPath
	s.StartedAt = time.Now().UTC()
	return s.Save()
}

// Pending reports whether an attempt marker is recorded.
func (s *State) Pending() bool {
	return s.PendingVersion != ""
}

// ResolvePrevious inspects a recorded attempt, clears it, and reports
// whether it took effect: if this process runs the version the attempt
// targeted, the swap succeeded. Returns nil when no attempt was recorded.
func (s *State) ResolvePrevious(currentVersion string) *PreviousAttempt {
	if !s.Pending() {
		return nil
	}

	attempt := &PreviousAttempt{
		Version:   s.PendingVersion,
		StartedAt: s.StartedAt,
		Applied:   s.PendingVersion == currentVersion,
	}

	s.PendingVersion = ""
	s.StagedPath = ""
	s.StartedAt = time.Time{}
	_ = s.Save()

	return attempt
}

// DefaultStatePath returns the default state file path.
// Unix: ~/.config/ratatosk/update-state.json
// Windows: %APPDATA%/ratatosk/update-state.json
func DefaultStatePath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, _ := os.UserHomeDir()
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, _ := os.UserHomeDir()
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, "ratatosk", "update-state.json")
}
