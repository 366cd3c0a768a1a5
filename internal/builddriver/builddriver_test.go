package builddriver

import (
	"context"
	"testing"

	"github.com/yaito3014/cabin/internal/buildgraph"
	"github.com/yaito3014/cabin/internal/diag"
	"github.com/yaito3014/cabin/internal/manifest"
	"github.com/yaito3014/cabin/internal/proc"
	"github.com/yaito3014/cabin/internal/project"
)

func testProject(t *testing.T, root string) *project.Project {
	t.Helper()
	m := &manifest.Manifest{
		Path:    root,
		Package: manifest.Package{Name: "widget", Version: "1.0.0", Edition: manifest.Edition17},
		Profiles: map[string]manifest.Profile{"dev": {}},
	}
	p, err := project.New(m, "dev", project.ProfileOpts(m.Profiles["dev"]), nil, diag.New(diag.WithJobs(1)))
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestNeedsBuildFalseWhenNinjaReportsNoWork(t *testing.T) {
	root := t.TempDir()
	proj := testProject(t, root)
	fake := proc.NewFake()
	fake.OnStdout("ninja -f cabin-out/dev/build.ninja -j 1 -n widget", "ninja: no work to do.\n")
	d := New(fake)

	stale, err := d.needsBuild(context.Background(), proj, []string{"widget"})
	if err != nil {
		t.Fatal(err)
	}
	if stale {
		t.Error("expected needsBuild = false")
	}
}

func TestNeedsBuildTrueWhenNinjaHasWork(t *testing.T) {
	root := t.TempDir()
	proj := testProject(t, root)
	fake := proc.NewFake()
	fake.OnStdout("ninja -f cabin-out/dev/build.ninja -j 1 -n widget", "[1/1] CXX widget\n")
	d := New(fake)

	stale, err := d.needsBuild(context.Background(), proj, []string{"widget"})
	if err != nil {
		t.Fatal(err)
	}
	if !stale {
		t.Error("expected needsBuild = true")
	}
}

func TestBuildSkipsNinjaRunWhenUpToDate(t *testing.T) {
	root := t.TempDir()
	proj := testProject(t, root)
	fake := proc.NewFake()
	fake.OnStdout("ninja -f cabin-out/dev/build.ninja -j 1 -n widget", "ninja: no work to do.\n")
	d := New(fake)

	if err := d.Build(context.Background(), proj, []string{"widget"}, ""); err != nil {
		t.Fatal(err)
	}
	for _, c := range fake.Calls() {
		if c.String() == "ninja -f cabin-out/dev/build.ninja -j 1 --quiet widget" {
			t.Error("ninja should not have been invoked for an up-to-date target")
		}
	}
}

func TestBuildRunsNinjaWhenStale(t *testing.T) {
	root := t.TempDir()
	proj := testProject(t, root)
	fake := proc.NewFake()
	fake.OnStdout("ninja -f cabin-out/dev/build.ninja -j 1 -n widget", "[1/1] CXX widget\n")
	fake.OnStdout("ninja -f cabin-out/dev/build.ninja -j 1 --quiet widget", "")
	d := New(fake)

	if err := d.Build(context.Background(), proj, []string{"widget"}, ""); err != nil {
		t.Fatal(err)
	}
	found := false
	for _, c := range fake.Calls() {
		if c.String() == "ninja -f cabin-out/dev/build.ninja -j 1 --quiet widget" {
			found = true
		}
	}
	if !found {
		t.Error("expected ninja build invocation")
	}
}

func TestTestFlowCountsPassAndFail(t *testing.T) {
	root := t.TempDir()
	proj := testProject(t, root)
	g := &buildgraph.Graph{
		TestTargets: []buildgraph.TestTarget{
			{NinjaTarget: "cabin-out/dev/unit/src/calc.cc.test", Kind: buildgraph.Unit},
			{NinjaTarget: "cabin-out/dev/unit/src/broken.cc.test", Kind: buildgraph.Unit},
			{NinjaTarget: "cabin-out/dev/unit/src/other.cc.test", Kind: buildgraph.Unit},
		},
	}

	fake := proc.NewFake()
	fake.OnStdout("ninja -f cabin-out/dev/build.ninja -j 1 -n cabin-out/dev/unit/src/calc.cc.test cabin-out/dev/unit/src/broken.cc.test cabin-out/dev/unit/src/other.cc.test", "[1/1]\n")
	fake.OnStdout("ninja -f cabin-out/dev/build.ninja -j 1 --quiet cabin-out/dev/unit/src/calc.cc.test cabin-out/dev/unit/src/broken.cc.test cabin-out/dev/unit/src/other.cc.test", "")
	fake.On(proj.Abs("cabin-out/dev/unit/src/calc.cc.test"), proc.Response{})
	fake.On(proj.Abs("cabin-out/dev/unit/src/broken.cc.test"), proc.Response{Result: proc.Result{ExitCode: 1}})
	fake.On(proj.Abs("cabin-out/dev/unit/src/other.cc.test"), proc.Response{})
	d := New(fake)

	rep, err := d.Test(context.Background(), proj, g, "")
	if err != nil {
		t.Fatal(err)
	}
	if rep.Passed != 2 || rep.Failed != 1 || rep.FilteredOut != 0 {
		t.Errorf("report = %+v", rep)
	}
	if len(rep.Failures) != 1 || rep.Failures[0] != "cabin-out/dev/unit/src/broken.cc.test" {
		t.Errorf("Failures = %v", rep.Failures)
	}
}

func TestTestFlowFilterByName(t *testing.T) {
	root := t.TempDir()
	proj := testProject(t, root)
	g := &buildgraph.Graph{
		TestTargets: []buildgraph.TestTarget{
			{NinjaTarget: "cabin-out/dev/unit/src/calc.cc.test", Kind: buildgraph.Unit},
			{NinjaTarget: "cabin-out/dev/unit/src/other.cc.test", Kind: buildgraph.Unit},
		},
	}
	fake := proc.NewFake()
	fake.OnStdout("ninja -f cabin-out/dev/build.ninja -j 1 -n cabin-out/dev/unit/src/calc.cc.test cabin-out/dev/unit/src/other.cc.test", "ninja: no work to do.\n")
	fake.On(proj.Abs("cabin-out/dev/unit/src/calc.cc.test"), proc.Response{})
	d := New(fake)

	rep, err := d.Test(context.Background(), proj, g, "calc")
	if err != nil {
		t.Fatal(err)
	}
	if rep.Passed != 1 || rep.FilteredOut != 1 {
		t.Errorf("report = %+v", rep)
	}
}

func TestReportStringFormat(t *testing.T) {
	rep := Report{Passed: 3, Failed: 1, FilteredOut: 2}
	got := rep.String()
	want := "3 passed; 1 failed; 2 filtered out; finished in 0.00s"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
