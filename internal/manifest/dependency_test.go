package manifest

import "testing"

func TestValidateDependencyNameAllowed(t *testing.T) {
	allowed := []string{"gtkmm-4.0", "ncurses++", "a/b", "1.1.1", "foo", "foo-bar", "foo_bar"}
	for _, name := range allowed {
		if err := ValidateDependencyName(name); err != nil {
			t.Errorf("ValidateDependencyName(%q): unexpected error: %v", name, err)
		}
	}
}

func TestValidateDependencyNameRejected(t *testing.T) {
	rejected := []string{"-", "1-", "1--1", "a.a", "a/b/c", "a+", "a+++", "a+b+c"}
	for _, name := range rejected {
		if err := ValidateDependencyName(name); err == nil {
			t.Errorf("ValidateDependencyName(%q): expected error, got none", name)
		}
	}
}

func TestParseDependencyTableGit(t *testing.T) {
	dep, err := parseDependencyTable("foo", map[string]any{
		"git": "https://example.com/foo.git",
		"tag": "v1.0.0",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dep.Kind != KindGit || dep.URL == "" || dep.Target != "v1.0.0" {
		t.Fatalf("got %+v", dep)
	}
}

func TestParseDependencyTableGitPrefersRev(t *testing.T) {
	dep, err := parseDependencyTable("foo", map[string]any{
		"git":    "https://example.com/foo.git",
		"rev":    "deadbeef",
		"tag":    "v1.0.0",
		"branch": "main",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dep.Target != "deadbeef" {
		t.Fatalf("expected rev to take priority, got %q", dep.Target)
	}
}

func TestParseDependencyTableSystem(t *testing.T) {
	dep, err := parseDependencyTable("gtkmm-4.0", map[string]any{
		"system":  true,
		"version": "^4.0",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dep.Kind != KindSystem || dep.VersionReq == nil {
		t.Fatalf("got %+v", dep)
	}
}

func TestParseDependencyTableSystemMissingVersion(t *testing.T) {
	_, err := parseDependencyTable("foo", map[string]any{"system": true})
	if err == nil {
		t.Fatal("expected error for missing version")
	}
}

func TestParseDependencyTablePath(t *testing.T) {
	dep, err := parseDependencyTable("foo", map[string]any{"path": "../foo"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dep.Kind != KindPath || dep.RelPath != "../foo" {
		t.Fatalf("got %+v", dep)
	}
}

func TestParseDependencyTableUnrecognized(t *testing.T) {
	_, err := parseDependencyTable("foo", map[string]any{"version": "1.0"})
	if err == nil {
		t.Fatal("expected error for unrecognized shape")
	}
}
