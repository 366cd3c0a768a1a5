// Package builddriver is C8 (spec.md §4.7): driving Ninja to detect
// staleness and build, running the resulting test binaries, and
// aggregating a compilation database across every profile.
package builddriver

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/yaito3014/cabin/internal/buildgraph"
	"github.com/yaito3014/cabin/internal/cabinerr"
	"github.com/yaito3014/cabin/internal/proc"
	"github.com/yaito3014/cabin/internal/project"
)

const noWorkMarker = "ninja: no work to do."

// Driver runs Ninja through proc.Runner. Every invocation passes "-f
// <OutBase>/build.ninja" with the project root as the process's working
// directory, matching how every other path on Project is rooted: Ninja
// targets and Project paths are both Root-relative, so no -C indirection
// and no "../.." prefix computation is needed.
type Driver struct {
	Runner    proc.Runner
	NinjaPath string // defaults to "ninja"
}

// New returns a Driver backed by runner.
func New(runner proc.Runner) *Driver {
	return &Driver{Runner: runner, NinjaPath: "ninja"}
}

func (d *Driver) exe() string {
	if d.NinjaPath != "" {
		return d.NinjaPath
	}
	return "ninja"
}

func (d *Driver) ninjaFile(proj *project.Project) string {
	return filepath.Join(proj.OutBase, "build.ninja")
}

func (d *Driver) run(ctx context.Context, proj *project.Project, extraArgs []string, targets []string) (proc.Result, error) {
	args := []string{"-f", d.ninjaFile(proj)}
	jobs := 1
	if proj.Diag != nil {
		jobs = proj.Diag.Jobs
	}
	args = append(args, "-j", strconv.Itoa(jobs))
	args = append(args, extraArgs...)
	args = append(args, targets...)
	return d.Runner.Run(ctx, proj.Root, nil, d.exe(), args...)
}

// needsBuild runs "ninja -n <targets>"; a non-zero exit, or stdout lacking
// "ninja: no work to do.", means targets are stale, per spec.md §4.7.
func (d *Driver) needsBuild(ctx context.Context, proj *project.Project, targets []string) (bool, error) {
	res, err := d.run(ctx, proj, []string{"-n"}, targets)
	if err != nil {
		return true, nil
	}
	return !strings.Contains(res.Stdout, noWorkMarker), nil
}

// Build runs targets through Ninja when stale, logging "Compiling
// <label>@<version> (<root>)" first, per spec.md §4.7. label defaults to
// the package name when empty.
func (d *Driver) Build(ctx context.Context, proj *project.Project, targets []string, label string) error {
	stale, err := d.needsBuild(ctx, proj, targets)
	if err != nil {
		return err
	}
	if !stale {
		return nil
	}

	if label == "" {
		label = proj.Manifest.Package.Name
	}
	if proj.Diag != nil {
		proj.Diag.Status("Compiling", label+"@"+proj.Manifest.Package.Version+" ("+proj.Root+")")
	}

	verbose := []string{"--quiet"}
	if _, err := d.run(ctx, proj, verbose, targets); err != nil {
		return cabinerr.Wrapf(err, cabinerr.Process, "ninja build failed for %v", targets)
	}
	return nil
}

// Report summarizes one test-flow run, per spec.md §4.7's "N passed; M
// failed; K filtered out; finished in T.TTs" line.
type Report struct {
	Passed     int
	Failed     int
	FilteredOut int
	Duration   time.Duration
	Failures   []string // test binary paths that exited non-zero
}

// String renders the report in spec.md §4.7's exact wording.
func (r Report) String() string {
	return strconv.Itoa(r.Passed) + " passed; " + strconv.Itoa(r.Failed) + " failed; " +
		strconv.Itoa(r.FilteredOut) + " filtered out; finished in " + formatSeconds(r.Duration)
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 2, 64) + "s"
}

// Test runs the test-profile flow: build the library (if any), build every
// test target, then execute each test binary in discovery order, applying
// an optional substring filter on its Ninja target name.
func (d *Driver) Test(ctx context.Context, proj *project.Project, g *buildgraph.Graph, nameFilter string) (Report, error) {
	start := time.Now()

	if g.HasLibrary {
		if err := d.Build(ctx, proj, []string{g.LibraryName}, ""); err != nil {
			return Report{}, err
		}
	}

	if len(g.TestTargets) == 0 {
		return Report{Duration: time.Since(start)}, nil
	}

	testOutputs := make([]string, len(g.TestTargets))
	for i, t := range g.TestTargets {
		testOutputs[i] = t.NinjaTarget
	}
	if err := d.Build(ctx, proj, testOutputs, proj.Manifest.Package.Name+" tests"); err != nil {
		return Report{}, err
	}

	var rep Report
	for _, t := range g.TestTargets {
		if nameFilter != "" && !strings.Contains(t.NinjaTarget, nameFilter) {
			rep.FilteredOut++
			continue
		}
		res, err := d.Runner.Run(ctx, proj.Root, nil, proj.Abs(t.NinjaTarget))
		if err != nil || res.ExitCode != 0 {
			rep.Failed++
			rep.Failures = append(rep.Failures, t.NinjaTarget)
			continue
		}
		rep.Passed++
	}

	rep.Duration = time.Since(start)
	return rep, nil
}
