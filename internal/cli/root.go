// Package cli is the Cobra command tree for the cabin binary (spec.md
// §1.1, A2). Every subcommand only adapts flags into calls against the
// core packages under internal/; no build-planning logic lives here.
package cli

import (
	"context"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/yaito3014/cabin/internal/buildgraph"
	"github.com/yaito3014/cabin/internal/cabinerr"
	"github.com/yaito3014/cabin/internal/compiler"
	"github.com/yaito3014/cabin/internal/compileropts"
	"github.com/yaito3014/cabin/internal/diag"
	"github.com/yaito3014/cabin/internal/manifest"
	"github.com/yaito3014/cabin/internal/ninjaplan"
	"github.com/yaito3014/cabin/internal/proc"
	"github.com/yaito3014/cabin/internal/project"
	"github.com/yaito3014/cabin/internal/resolver"
)

var rootCmd = &cobra.Command{
	Use:           "cabin",
	Short:         "cabin builds and tests C++ projects",
	Long:          "cabin is a Cargo-style package manager and build orchestrator for C++: it resolves dependencies, plans a Ninja build, and drives it.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command tree. Errors are returned, not printed, so
// cmd/cabin controls the "Error: <message>" formatting spec.md §7
// requires.
func Execute() error {
	return rootCmd.Execute()
}

func parseColor(s string) (diag.ColorMode, error) {
	switch s {
	case "", "auto":
		return diag.ColorAuto, nil
	case "always":
		return diag.ColorAlways, nil
	case "never":
		return diag.ColorNever, nil
	default:
		return diag.ColorAuto, cabinerr.Newf(cabinerr.Config, "invalid --color value %q (want auto, always or never)", s)
	}
}

// pipeline is the shared result of resolving dependencies and discovering
// a build graph for one profile, the common prefix every subcommand needs
// before diverging into Build, Test or Compdb.
type pipeline struct {
	Manifest *manifest.Manifest
	Project  *project.Project
	Graph    *buildgraph.Graph
	Diag     *diag.Context
}

// plan runs C2 through C7 for profileName: parse the manifest, install its
// dependencies, discover the compiler, build the project's output layout,
// discover the build graph, and emit its Ninja files. coverage appends
// "--coverage" to the profile's own CFlags/LDFlags, for "test --coverage".
func plan(ctx context.Context, d *diag.Context, profileName string, coverage bool) (*pipeline, error) {
	m, err := manifest.Parse(".", true)
	if err != nil {
		return nil, err
	}

	if d != nil {
		d.Status("Analyzing", "project dependencies…")
	}

	runner := proc.New()
	res := resolver.New(runner, exec.LookPath, d)
	depOpts, err := res.InstallDeps(ctx, m, profileName, profileName != "release")
	if err != nil {
		return nil, err
	}

	cxx, err := compiler.Discover(runner, exec.LookPath)
	if err != nil {
		return nil, err
	}

	prof, ok := m.Profiles[profileName]
	if !ok {
		return nil, cabinerr.Newf(cabinerr.Config, "unknown profile %q", profileName)
	}

	profOpts := project.ProfileOpts(prof)
	if coverage {
		profOpts = compileropts.Merge(profOpts, compileropts.CompilerOpts{
			CFlags:  compileropts.CFlags{Others: []string{"--coverage"}},
			LDFlags: compileropts.LDFlags{Others: []string{"--coverage"}},
		})
	}

	proj, err := project.New(m, profileName, profOpts, depOpts, d)
	if err != nil {
		return nil, err
	}
	if err := proj.EnsureOutDir(); err != nil {
		return nil, err
	}

	g, err := buildgraph.Discover(ctx, proj, cxx, d.Jobs)
	if err != nil {
		return nil, err
	}

	archiver := compiler.ResolveArchiver(cxx.Path, prof.LTO, exec.LookPath)
	if err := ninjaplan.Emit(proj, g, cxx.Path, archiver); err != nil {
		return nil, err
	}

	return &pipeline{Manifest: m, Project: proj, Graph: g, Diag: d}, nil
}
