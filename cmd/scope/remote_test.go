package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alfredjeanlab/codescope/internal/model"
	"github.com/alfredjeanlab/codescope/internal/session"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	checked := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

	in := RemotesConfig{
		Active: "prod",
		Remotes: map[string]Remote{
			"prod": {
				URL:     "https://scope.example.com/api/v1",
				Token:   "tok_abc",
				NATSURL: "nats://prod:4222",
				Project: &ProjectState{ID: "proj-7", Status: "READY", Checked: checked},
			},
			"local": {URL: "http://localhost:8080/api/v1"},
		},
	}
	if err := saveRemotesConfig(in); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := loadRemotesConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	prod := got.Remotes["prod"]
	if prod.URL != "https://scope.example.com/api/v1" || prod.Token != "tok_abc" || prod.NATSURL != "nats://prod:4222" {
		t.Errorf("prod remote = %+v, wrong values", prod)
	}
	if prod.Project == nil || prod.Project.ID != "proj-7" || !prod.Project.Checked.Equal(checked) {
		t.Errorf("prod project = %+v, want proj-7 checked at %v", prod.Project, checked)
	}
	if got.Remotes["local"].Project != nil || got.Project != nil {
		t.Error("empty project slots must stay empty")
	}
	if name, r := activeRemote(); name != "prod" || r.URL != prod.URL {
		t.Errorf("activeRemote() = %q, %+v, want prod", name, r)
	}
}

func TestLoadRemotesConfig_NoFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := loadRemotesConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Active != "" || cfg.Project != nil || len(cfg.Remotes) != 0 {
		t.Errorf("expected empty config, got %+v", cfg)
	}
	if cfg.Remotes == nil {
		t.Error("Remotes map must not be nil after load")
	}
	if name, _ := activeRemote(); name != "" {
		t.Errorf("activeRemote() = %q, want none", name)
	}
}

func TestSaveRemotesConfig_Permissions(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if err := saveRemotesConfig(RemotesConfig{Remotes: map[string]Remote{}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	path, _ := remoteConfigPath()
	for p, want := range map[string]os.FileMode{path: 0o600, filepath.Dir(path): 0o700} {
		info, err := os.Stat(p)
		if err != nil {
			t.Fatalf("stat %s: %v", p, err)
		}
		if got := info.Mode().Perm(); got != want {
			t.Errorf("%s permissions = %04o, want %04o", p, got, want)
		}
	}
}

func TestRecordProject_PerRemote(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Cleanup(func() { usedRemote = "" })

	if err := saveRemotesConfig(RemotesConfig{Remotes: map[string]Remote{"local": {URL: "http://localhost:8080/api/v1"}}}); err != nil {
		t.Fatal(err)
	}

	usedRemote = ""
	if err := recordProject(session.Snapshot{ProjectID: "proj-1", Status: model.StatusProcessing}); err != nil {
		t.Fatal(err)
	}
	usedRemote = "local"
	if got := activeProject(); got != "" {
		t.Errorf("remote slot = %q, must not see the top-level project", got)
	}
	if err := recordProject(session.Snapshot{ProjectID: "proj-2", Status: model.StatusReady}); err != nil {
		t.Fatal(err)
	}
	if got := activeProject(); got != "proj-2" {
		t.Errorf("activeProject() = %q, want proj-2", got)
	}

	// A status for some other project leaves the slot alone.
	if err := refreshProject("local", session.Snapshot{ProjectID: "proj-9", Status: model.StatusFailed}); err != nil {
		t.Fatal(err)
	}
	if err := refreshProject("local", session.Snapshot{ProjectID: "proj-2", Status: model.StatusFailed}); err != nil {
		t.Fatal(err)
	}
	cfg, _ := loadRemotesConfig()
	if ps := cfg.Remotes["local"].Project; ps == nil || ps.ID != "proj-2" || ps.status() != model.StatusFailed {
		t.Errorf("local project = %+v, want proj-2 FAILED", ps)
	}
	if cfg.Project == nil || cfg.Project.ID != "proj-1" {
		t.Errorf("top-level project = %+v, want proj-1", cfg.Project)
	}

	if err := recordProject(session.Snapshot{}); err != nil {
		t.Fatal(err)
	}
	if got := activeProject(); got != "" {
		t.Errorf("activeProject() = %q after clearing", got)
	}
}

func TestRemoteLifecycle(t *testing.T) {
	isolate(t)

	mustRun := func(args ...string) string {
		t.Helper()
		out, err := runScope(t, args...)
		if err != nil {
			t.Fatalf("scope %s: %v", strings.Join(args, " "), err)
		}
		return out
	}

	if out := mustRun("remote", "list"); !strings.HasPrefix(out, "no remotes") {
		t.Errorf("list = %q", out)
	}
	mustRun("remote", "add", "local", "http://localhost:8080/api/v1/", "--token", "tok_verylongsecret")
	mustRun("remote", "use", "local")

	cfg, _ := loadRemotesConfig()
	if cfg.Active != "local" {
		t.Fatalf("Active = %q, want local", cfg.Active)
	}
	if cfg.Remotes["local"].URL != "http://localhost:8080/api/v1" {
		t.Errorf("URL = %q, trailing slash must be trimmed", cfg.Remotes["local"].URL)
	}

	out := mustRun("remote", "list")
	if !strings.Contains(out, "* local") || !strings.Contains(out, "NO_PROJECT") {
		t.Errorf("list missing active marker or status; got:\n%s", out)
	}
	if strings.Contains(out, "tok_") {
		t.Errorf("list must not print tokens; got:\n%s", out)
	}

	out = mustRun("remote", "show")
	for _, want := range []string{"local (active)", "localhost:8080", "tok_very**********", "project:  none"} {
		if !strings.Contains(out, want) {
			t.Errorf("show missing %q; got:\n%s", want, out)
		}
	}

	// Re-adding keeps the token unless a new one is given.
	mustRun("remote", "add", "local", "http://localhost:8080/api/v1")
	if cfg, _ = loadRemotesConfig(); cfg.Remotes["local"].Token != "tok_verylongsecret" {
		t.Errorf("token = %q, want it kept", cfg.Remotes["local"].Token)
	}

	if out := mustRun("remote", "use"); out != "no active remote\n" {
		t.Errorf("use = %q", out)
	}
	mustRun("remote", "use", "local")
	mustRun("remote", "remove", "local")
	cfg, _ = loadRemotesConfig()
	if _, ok := cfg.Remotes["local"]; ok || cfg.Active != "" {
		t.Errorf("remote should be gone and inactive, got %+v", cfg)
	}
}

func TestRemoteAdd_NewURLForgetsProject(t *testing.T) {
	isolate(t)
	if err := saveRemotesConfig(RemotesConfig{Remotes: map[string]Remote{
		"prod": {URL: "https://old.example.com", Project: &ProjectState{ID: "proj-3", Status: "READY"}},
	}}); err != nil {
		t.Fatal(err)
	}

	if _, err := runScope(t, "remote", "add", "prod", "https://old.example.com"); err != nil {
		t.Fatal(err)
	}
	if cfg, _ := loadRemotesConfig(); cfg.Remotes["prod"].Project == nil {
		t.Fatal("same URL must keep the project")
	}
	if _, err := runScope(t, "remote", "add", "prod", "https://new.example.com"); err != nil {
		t.Fatal(err)
	}
	if cfg, _ := loadRemotesConfig(); cfg.Remotes["prod"].Project != nil {
		t.Errorf("project = %+v, a new URL must forget it", cfg.Remotes["prod"].Project)
	}
}

func TestRemoteShow_ChecksProjectStatus(t *testing.T) {
	srv, base := startService(t)
	srv.SetReadyAfterPolls(100)
	for _, args := range [][]string{{"remote", "add", "local", base}, {"remote", "use", "local"}} {
		if _, err := runScope(t, args...); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := runScope(t, "upload", writeArchive(t, "shop.zip")); err != nil {
		t.Fatal(err)
	}
	out, err := runScope(t, "remote", "list")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "proj-1") || !strings.Contains(out, "PROCESSING") {
		t.Errorf("list should show the uploaded project processing; got:\n%s", out)
	}

	srv.SetReadyAfterPolls(0)
	out, err = runScope(t, "remote", "show", "--offline")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "PROCESSING") {
		t.Errorf("offline show should print the recorded status; got:\n%s", out)
	}

	out, err = runScope(t, "remote", "show")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "project:  proj-1") || !strings.Contains(out, "status:   READY") {
		t.Errorf("show should report the live status; got:\n%s", out)
	}
	cfg, _ := loadRemotesConfig()
	if ps := cfg.Remotes["local"].Project; ps.status() != model.StatusReady {
		t.Errorf("recorded status = %q, want READY", ps.Status)
	}
}

func TestRemoteShow_ServiceDown(t *testing.T) {
	isolate(t)
	if err := saveRemotesConfig(RemotesConfig{Active: "gone", Remotes: map[string]Remote{
		"gone": {URL: "http://127.0.0.1:1/api/v1", Project: &ProjectState{ID: "proj-3", Status: "READY"}},
	}}); err != nil {
		t.Fatal(err)
	}

	out, err := runScope(t, "remote", "show")
	if err != nil {
		t.Fatalf("show should not fail when the service is down: %v", err)
	}
	if !strings.Contains(out, "READY") || !strings.Contains(out, "check failed:") {
		t.Errorf("show should keep the recorded status and report the failure; got:\n%s", out)
	}
}

func TestRemoteErrorCases(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"use unknown", []string{"remote", "use", "ghost"}},
		{"remove unknown", []string{"remote", "remove", "ghost"}},
		{"show no active", []string{"remote", "show"}},
		{"show unknown", []string{"remote", "show", "ghost"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			isolate(t)
			if _, err := runScope(t, tc.args...); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}
