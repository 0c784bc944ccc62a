package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/alfredjeanlab/codescope/internal/model"
	"github.com/alfredjeanlab/codescope/internal/session"
)

// RemotesConfig is the CLI state file: named analysis services, the active
// one, and the project last uploaded to each. Project is the slot used when
// no remote supplied the server.
type RemotesConfig struct {
	Active  string            `toml:"active"`
	Project *ProjectState     `toml:"project,omitempty"`
	Remotes map[string]Remote `toml:"remotes"`
}

// Remote is a named analysis service.
type Remote struct {
	URL     string        `toml:"url"`
	Token   string        `toml:"token,omitempty"`
	NATSURL string        `toml:"nats_url,omitempty"`
	Project *ProjectState `toml:"project,omitempty"`
}

// ProjectState is a project uploaded from this machine and the status it
// had when last seen.
type ProjectState struct {
	ID      string    `toml:"id"`
	Status  string    `toml:"status"`
	Checked time.Time `toml:"checked"`
}

// usedRemote names the remote that supplied the server URL for this run.
// Empty when --server, SCOPE_SERVER_URL or the config file chose it.
var usedRemote string

func remoteConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".local", "state", "codescope")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return filepath.Join(dir, "remotes.toml"), nil
}

func loadRemotesConfig() (RemotesConfig, error) {
	path, err := remoteConfigPath()
	if err != nil {
		return RemotesConfig{}, err
	}
	var cfg RemotesConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil && !os.IsNotExist(err) {
		return RemotesConfig{}, err
	}
	if cfg.Remotes == nil {
		cfg.Remotes = map[string]Remote{}
	}
	return cfg, nil
}

func saveRemotesConfig(cfg RemotesConfig) error {
	path, err := remoteConfigPath()
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// updateRemotes loads the state file, applies fn and saves the result
// unless fn fails.
func updateRemotes(fn func(*RemotesConfig) error) error {
	cfg, err := loadRemotesConfig()
	if err != nil {
		return err
	}
	if err := fn(&cfg); err != nil {
		return err
	}
	return saveRemotesConfig(cfg)
}

// activeRemote returns the active remote and its name, or zero values when
// none is set or the state file cannot be read.
func activeRemote() (string, Remote) {
	cfg, err := loadRemotesConfig()
	if err != nil || cfg.Active == "" {
		return "", Remote{}
	}
	r, ok := cfg.Remotes[cfg.Active]
	if !ok {
		return "", Remote{}
	}
	return cfg.Active, r
}

// projectSlot returns the project state kept for remote name, or the
// top-level slot when name is empty.
func (c *RemotesConfig) projectSlot(name string) *ProjectState {
	if r, ok := c.Remotes[name]; ok && name != "" {
		return r.Project
	}
	return c.Project
}

func (c *RemotesConfig) setProjectSlot(name string, ps *ProjectState) {
	if r, ok := c.Remotes[name]; ok && name != "" {
		r.Project = ps
		c.Remotes[name] = r
		return
	}
	c.Project = ps
}

// activeProject returns the project last uploaded to the service this run
// talks to.
func activeProject() string {
	cfg, err := loadRemotesConfig()
	if err != nil {
		return ""
	}
	if ps := cfg.projectSlot(usedRemote); ps != nil {
		return ps.ID
	}
	return ""
}

// recordProject remembers snap's project and status as the one later
// commands default to. A snapshot without a project clears it.
func recordProject(snap session.Snapshot) error {
	return updateRemotes(func(cfg *RemotesConfig) error {
		cfg.setProjectSlot(usedRemote, newProjectState(snap))
		return nil
	})
}

// refreshProject updates the recorded status when snap is about the
// recorded project, and leaves the state alone otherwise.
func refreshProject(name string, snap session.Snapshot) error {
	return updateRemotes(func(cfg *RemotesConfig) error {
		if ps := cfg.projectSlot(name); ps != nil && ps.ID == snap.ProjectID {
			cfg.setProjectSlot(name, newProjectState(snap))
		}
		return nil
	})
}

func newProjectState(snap session.Snapshot) *ProjectState {
	if snap.ProjectID == "" {
		return nil
	}
	return &ProjectState{ID: snap.ProjectID, Status: snap.Status.String(), Checked: time.Now().UTC()}
}

// status parses the recorded status. An unreadable value reads as
// NoProject.
func (ps *ProjectState) status() model.ProjectStatus {
	if ps == nil {
		return model.StatusNone
	}
	s, _ := model.ParseProjectStatus(ps.Status)
	return s
}
