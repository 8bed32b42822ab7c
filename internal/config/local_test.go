package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeLocal(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, LocalConfigFileName), []byte(content), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
}

func TestLoadLocal_NoFile(t *testing.T) {
	t.Parallel()

	local, err := LoadLocal(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if local != nil {
		t.Fatalf("expected nil, got %+v", local)
	}
}

func TestLoadLocal_AllFields(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeLocal(t, dir, `
remote = "upstream"

[hosts]
"Git.Example.com" = "github"
`)

	local, err := LoadLocal(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if local.Remote != "upstream" {
		t.Errorf("Remote = %q, want upstream", local.Remote)
	}
	if local.Hosts["git.example.com"] != "github" {
		t.Errorf("Hosts = %v", local.Hosts)
	}
}

func TestLoadLocal_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{"invalid toml", "remote = [unclosed"},
		{"invalid platform", "[hosts]\n\"a.example\" = \"gitea\""},
		{"unknown key", "theme = \"nord\""},
		{"remote url", "remote = \"git@github.com:a/b.git\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			writeLocal(t, dir, tt.content)
			if _, err := LoadLocal(dir); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestMergeLocal_Nil(t *testing.T) {
	t.Parallel()

	global := &Config{Remote: "origin"}
	if got := MergeLocal(global, nil); got != global {
		t.Error("MergeLocal with nil local should return global unchanged")
	}
}

func TestMergeLocal(t *testing.T) {
	t.Parallel()

	global := &Config{
		Remote:  "origin",
		Browser: "firefox",
		Hosts:   map[string]string{"a.example": "gitlab", "b.example": "gitlab"},
	}
	local := &LocalConfig{
		Remote: "upstream",
		Hosts:  map[string]string{"b.example": "github", "c.example": "github"},
	}

	merged := MergeLocal(global, local)
	if merged.Remote != "upstream" || merged.Browser != "firefox" {
		t.Errorf("merged = %+v", merged)
	}
	want := map[string]string{"a.example": "gitlab", "b.example": "github", "c.example": "github"}
	for host, typ := range want {
		if merged.Hosts[host] != typ {
			t.Errorf("Hosts[%s] = %q, want %q", host, merged.Hosts[host], typ)
		}
	}

	// global is not mutated
	if global.Remote != "origin" || global.Hosts["b.example"] != "gitlab" || len(global.Hosts) != 2 {
		t.Errorf("global mutated: %+v", global)
	}
}

func TestMergeLocal_ZeroValuesPreserveGlobal(t *testing.T) {
	t.Parallel()

	global := &Config{Remote: "origin", Hosts: map[string]string{"a.example": "github"}}
	merged := MergeLocal(global, &LocalConfig{})
	if merged.Remote != "origin" || merged.Hosts["a.example"] != "github" {
		t.Errorf("merged = %+v", merged)
	}
}

func TestConfigResolver(t *testing.T) {
	t.Parallel()

	global := &Config{Remote: "origin"}
	r := NewResolver(global)
	if r.Global() != global {
		t.Error("Global() should return the global config")
	}

	plain := t.TempDir()
	cfg, err := r.ConfigForProject(plain)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != global {
		t.Error("project without .forgectl.toml should get the global config")
	}

	withLocal := t.TempDir()
	writeLocal(t, withLocal, `remote = "fork"`)
	cfg, err = r.ConfigForProject(withLocal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Remote != "fork" {
		t.Errorf("Remote = %q, want fork", cfg.Remote)
	}

	// cached: later edits are not picked up
	writeLocal(t, withLocal, `remote = "other"`)
	again, _ := r.ConfigForProject(withLocal)
	if again != cfg {
		t.Error("ConfigForProject did not cache the merged config")
	}
}

func TestFindLocalRoot(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeLocal(t, root, `remote = "upstream"`)
	sub := filepath.Join(root, "cmd", "app")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	if got := FindLocalRoot(sub); got != root {
		t.Errorf("FindLocalRoot(sub) = %q, want %q", got, root)
	}
	if got := FindLocalRoot(root); got != root {
		t.Errorf("FindLocalRoot(root) = %q, want %q", got, root)
	}
}

func TestFindLocalRoot_StopsAtGitRoot(t *testing.T) {
	t.Parallel()

	outer := t.TempDir()
	writeLocal(t, outer, `remote = "upstream"`)
	project := filepath.Join(outer, "project")
	if err := os.MkdirAll(filepath.Join(project, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}

	if got := FindLocalRoot(project); got != "" {
		t.Errorf("FindLocalRoot() = %q, want the search to stop at .git", got)
	}
}

func TestConfigResolver_Subdirectory(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeLocal(t, root, "[hosts]\n\"code.corp.io\" = \"github\"")
	sub := filepath.Join(root, "docs")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	r := NewResolver(&Config{Remote: "origin"})
	cfg, err := r.ConfigForProject(sub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Hosts["code.corp.io"] != "github" {
		t.Errorf("Hosts = %v, want code.corp.io from the parent .forgectl.toml", cfg.Hosts)
	}
}

func TestConfigResolver_InvalidLocal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeLocal(t, dir, "remote = [")

	r := NewResolver(&Config{Remote: "origin"})
	if _, err := r.ConfigForProject(dir); err == nil {
		t.Error("ConfigForProject() = nil error for a broken .forgectl.toml")
	}
}
