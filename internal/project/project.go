// Package project ties a parsed manifest to one profile's on-disk output
// layout and derived compiler options (spec.md §3's Project). It has no
// behavior of its own beyond path derivation; the pipeline stages
// (resolver, buildgraph, ninjaplan, builddriver) all take a *Project as
// their shared context, matching the teacher's formula.Project role of
// carrying per-invocation derived paths through the pipeline.
//
// Every path stored on a Project other than Root is relative to Root, not
// absolute: every external tool (the compiler, ar, ninja) is invoked with
// Root as its working directory, so a source path like "src/main.cc" and
// an output path like "cabin-out/dev/widget.d/main.o" both resolve
// correctly without cabin having to compute "../.." prefixes for a Ninja
// file that lives two directories below Root.
package project

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/yaito3014/cabin/internal/cabinerr"
	"github.com/yaito3014/cabin/internal/compileropts"
	"github.com/yaito3014/cabin/internal/diag"
	"github.com/yaito3014/cabin/internal/manifest"
)

// Project is one manifest built under one profile.
type Project struct {
	Root     string // absolute directory containing cabin.toml
	Manifest *manifest.Manifest
	Profile  string // "dev", "release" or "test"

	OutBase            string // "cabin-out/<profile>", relative to Root
	BuildOut           string // "<outbase>/<pkg>.d"
	UnitTestOut        string // "<outbase>/unit"
	IntegrationTestOut string // "<outbase>/intg"

	Opts compileropts.CompilerOpts

	Diag *diag.Context
}

const outDirName = "cabin-out"

// New derives a Project for m under profile, folding profileOpts (the
// profile's own cxxflags/ldflags/lto/debug/opt-level, already turned into a
// CompilerOpts by the caller) with depOpts (every installed dependency's
// merged CompilerOpts, in resolution order) and an implicit
// "-I<root>/include" when that directory exists, per spec.md §3.
func New(m *manifest.Manifest, profileName string, profileOpts compileropts.CompilerOpts, depOpts []compileropts.CompilerOpts, d *diag.Context) (*Project, error) {
	if _, ok := m.Profiles[profileName]; !ok {
		return nil, cabinerr.Newf(cabinerr.Config, "unknown profile %q", profileName)
	}

	root, err := filepath.Abs(m.Path)
	if err != nil {
		return nil, cabinerr.Wrapf(err, cabinerr.Config, "resolving project root %s", m.Path)
	}
	outBase := filepath.Join(outDirName, profileName)

	opts := compileropts.MergeAll(append([]compileropts.CompilerOpts{profileOpts}, depOpts...)...)

	includeDir := filepath.Join(root, "include")
	if info, err := os.Stat(includeDir); err == nil && info.IsDir() {
		opts = compileropts.Merge(opts, compileropts.CompilerOpts{
			CFlags: compileropts.CFlags{IncludeDirs: []compileropts.IncludeDir{{Path: "include"}}},
		})
	}

	return &Project{
		Root:               root,
		Manifest:           m,
		Profile:            profileName,
		OutBase:            outBase,
		BuildOut:           filepath.Join(outBase, m.Package.Name+".d"),
		UnitTestOut:        filepath.Join(outBase, "unit"),
		IntegrationTestOut: filepath.Join(outBase, "intg"),
		Opts:               opts,
		Diag:               d,
	}, nil
}

// ProfileOpts turns a resolved manifest.Profile into the CompilerOpts it
// contributes: cxxflags/ldflags pass through verbatim as "others", plus the
// synthesized "-O<n>", "-g" (debug) and "-flto" (lto) flags spec.md §3
// implies every profile carries.
func ProfileOpts(prof manifest.Profile) compileropts.CompilerOpts {
	cxxflags := append([]string{fmt.Sprintf("-O%d", prof.OptLevel)}, prof.CxxFlags...)
	if prof.Debug {
		cxxflags = append(cxxflags, "-g")
	}
	ldflags := append([]string{}, prof.LdFlags...)
	if prof.LTO {
		cxxflags = append(cxxflags, "-flto")
		ldflags = append(ldflags, "-flto")
	}
	return compileropts.CompilerOpts{
		CFlags:  compileropts.CFlags{Others: cxxflags},
		LDFlags: compileropts.LDFlags{Others: ldflags},
	}
}

// EnsureOutDir lazily creates OutBase, per spec.md §5's "each Project owns
// its out-base directory, lazily created".
func (p *Project) EnsureOutDir() error {
	abs := filepath.Join(p.Root, p.OutBase)
	if err := os.MkdirAll(abs, 0755); err != nil {
		return cabinerr.Wrapf(err, cabinerr.Config, "creating %s", abs)
	}
	return nil
}

// Abs resolves a Root-relative path (such as OutBase or a Graph edge's
// output) to an absolute filesystem path.
func (p *Project) Abs(relPath string) string { return filepath.Join(p.Root, relPath) }

// SrcDir, LibDir and TestsDir are the three announced source roots,
// relative to Root.
func (p *Project) SrcDir() string   { return "src" }
func (p *Project) LibDir() string   { return "lib" }
func (p *Project) TestsDir() string { return "tests" }

// LibraryName returns the static-library output file name: "lib<name>.a",
// or "<name>.a" if the package name already starts with "lib", per
// spec.md §4.5.
func (p *Project) LibraryName() string {
	name := p.Manifest.Package.Name
	if len(name) >= 3 && name[:3] == "lib" {
		return name + ".a"
	}
	return "lib" + name + ".a"
}
