package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/yaito3014/cabin/internal/manifest"
)

func testManifest(t *testing.T, root string) *manifest.Manifest {
	t.Helper()
	return &manifest.Manifest{
		Path:    root,
		Package: manifest.Package{Name: "widget", Version: "1.0.0", Edition: manifest.Edition17},
		Profiles: map[string]manifest.Profile{
			"dev":     {OptLevel: 0, Debug: true},
			"release": {OptLevel: 3},
			"test":    {OptLevel: 0, Debug: true},
		},
	}
}

func TestNewDerivesOutPaths(t *testing.T) {
	root := t.TempDir()
	m := testManifest(t, root)

	p, err := New(m, "dev", ProfileOpts(m.Profiles["dev"]), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if p.OutBase != filepath.Join("cabin-out", "dev") {
		t.Errorf("OutBase = %q", p.OutBase)
	}
	if p.BuildOut != filepath.Join(p.OutBase, "widget.d") {
		t.Errorf("BuildOut = %q", p.BuildOut)
	}
	wantRoot, err := filepath.Abs(root)
	if err != nil {
		t.Fatal(err)
	}
	if p.Root != wantRoot {
		t.Errorf("Root = %q, want %q", p.Root, wantRoot)
	}
	if p.LibraryName() != "libwidget.a" {
		t.Errorf("LibraryName() = %q", p.LibraryName())
	}
}

func TestNewRejectsUnknownProfile(t *testing.T) {
	root := t.TempDir()
	m := testManifest(t, root)
	if _, err := New(m, "bogus", ProfileOpts(manifest.Profile{}), nil, nil); err == nil {
		t.Error("expected error for unknown profile")
	}
}

func TestNewPicksUpRootIncludeDir(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "include"), 0755); err != nil {
		t.Fatal(err)
	}
	m := testManifest(t, root)

	p, err := New(m, "dev", ProfileOpts(m.Profiles["dev"]), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, d := range p.Opts.CFlags.IncludeDirs {
		if d.Path == "include" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected root include dir in CompilerOpts, got %+v", p.Opts.CFlags.IncludeDirs)
	}
}

func TestLibraryNameAlreadyPrefixed(t *testing.T) {
	root := t.TempDir()
	m := testManifest(t, root)
	m.Package.Name = "libfoo"
	p, err := New(m, "dev", ProfileOpts(m.Profiles["dev"]), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if p.LibraryName() != "libfoo.a" {
		t.Errorf("LibraryName() = %q", p.LibraryName())
	}
}

func TestProfileOptsSynthesizesFlags(t *testing.T) {
	opts := ProfileOpts(manifest.Profile{OptLevel: 2, Debug: true, LTO: true, CxxFlags: []string{"-Wall"}})
	want := []string{"-O2", "-Wall", "-g", "-flto"}
	if len(opts.CFlags.Others) != len(want) {
		t.Fatalf("Others = %v, want %v", opts.CFlags.Others, want)
	}
	for i := range want {
		if opts.CFlags.Others[i] != want[i] {
			t.Errorf("Others[%d] = %q, want %q", i, opts.CFlags.Others[i], want[i])
		}
	}
}
