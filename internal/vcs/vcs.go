// Package vcs installs a GitDep into a local directory by driving the git
// executable through internal/proc.Runner, the way every other external
// tool in cabin is invoked (grounded on the teacher's exec.Command wrapping
// in x/autotools and pkgs/buildsys/cmake, generalized from a bare *exec.Cmd
// to the shared Runner interface so git's tests can use proc.FakeRunner
// like every other package's).
package vcs

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/yaito3014/cabin/internal/cabinerr"
	"github.com/yaito3014/cabin/internal/proc"
)

// Git drives the git executable for GitDep installation.
type Git struct {
	Runner proc.Runner
	Path   string // git executable; defaults to "git"
}

// New returns a Git client backed by runner.
func New(runner proc.Runner) *Git {
	return &Git{Runner: runner, Path: "git"}
}

func (g *Git) exe() string {
	if g.Path != "" {
		return g.Path
	}
	return "git"
}

// Sync ensures dir holds a checkout of remote at target (a rev, tag or
// branch; empty means the remote's default branch). If dir doesn't already
// contain a checkout, it is cloned; otherwise it is re-fetched and
// re-checked-out, so a previously content-addressed cache directory
// (internal/env.GitDepDir) can be reused across invocations instead of
// re-cloning every time.
func (g *Git) Sync(ctx context.Context, remote, target, dir string) error {
	if _, err := os.Stat(filepath.Join(dir, ".git")); err != nil {
		return g.clone(ctx, remote, target, dir)
	}
	return g.update(ctx, remote, target, dir)
}

func (g *Git) clone(ctx context.Context, remote, target, dir string) error {
	if err := os.MkdirAll(filepath.Dir(dir), 0755); err != nil {
		return cabinerr.Wrapf(err, cabinerr.Dependency, "creating %s", filepath.Dir(dir))
	}

	args := []string{"clone", "--depth", "1"}
	if target != "" {
		args = append(args, "--branch", target)
	}
	args = append(args, remote, dir)

	if _, err := g.Runner.Run(ctx, "", nil, g.exe(), args...); err != nil {
		// --branch only resolves branches and tags; fall back to a full
		// clone plus checkout so a bare commit rev still works.
		if target == "" {
			return cabinerr.Wrapf(err, cabinerr.Dependency, "git clone %s", remote)
		}
		return g.cloneAndCheckout(ctx, remote, target, dir)
	}
	return nil
}

func (g *Git) cloneAndCheckout(ctx context.Context, remote, target, dir string) error {
	if _, err := g.Runner.Run(ctx, "", nil, g.exe(), "clone", remote, dir); err != nil {
		return cabinerr.Wrapf(err, cabinerr.Dependency, "git clone %s", remote)
	}
	if _, err := g.Runner.Run(ctx, dir, nil, g.exe(), "checkout", target); err != nil {
		return cabinerr.Wrapf(err, cabinerr.Dependency, "git checkout %s in %s", target, remote)
	}
	return nil
}

func (g *Git) update(ctx context.Context, remote, target, dir string) error {
	ref := target
	if ref == "" {
		ref = "HEAD"
	}
	if _, err := g.Runner.Run(ctx, dir, nil, g.exe(), "fetch", "--depth", "1", remote, ref); err != nil {
		return cabinerr.Wrapf(err, cabinerr.Dependency, "git fetch %s %s", remote, ref)
	}
	if _, err := g.Runner.Run(ctx, dir, nil, g.exe(), "checkout", "FETCH_HEAD"); err != nil {
		return cabinerr.Wrapf(err, cabinerr.Dependency, "git checkout FETCH_HEAD in %s", remote)
	}
	return nil
}

// HeadCommit returns the checked-out commit hash in dir, mainly for tests
// and diagnostics.
func (g *Git) HeadCommit(ctx context.Context, dir string) (string, error) {
	res, err := g.Runner.Run(ctx, dir, nil, g.exe(), "rev-parse", "HEAD")
	if err != nil {
		return "", cabinerr.Wrap(err, cabinerr.Dependency, "git rev-parse HEAD")
	}
	return strings.TrimSpace(res.Stdout), nil
}
