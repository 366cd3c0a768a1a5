// Package resolver is C3 (spec.md §4.2): installing a manifest's
// dependencies into a list of CompilerOpts, one per dependency, by walking
// the dependency tree depth-first and dispatching each entry to its kind's
// install step.
package resolver

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yaito3014/cabin/internal/buildgraph"
	"github.com/yaito3014/cabin/internal/builddriver"
	"github.com/yaito3014/cabin/internal/cabinerr"
	"github.com/yaito3014/cabin/internal/compiler"
	"github.com/yaito3014/cabin/internal/compileropts"
	"github.com/yaito3014/cabin/internal/diag"
	"github.com/yaito3014/cabin/internal/env"
	"github.com/yaito3014/cabin/internal/manifest"
	"github.com/yaito3014/cabin/internal/ninjaplan"
	"github.com/yaito3014/cabin/internal/proc"
	"github.com/yaito3014/cabin/internal/project"
	"github.com/yaito3014/cabin/internal/vcs"
)

// Resolver installs a manifest's dependency tree. All of its external work
// (git, pkg-config, and — for path deps — the full build pipeline) goes
// through Runner, so the whole resolve can be driven hermetically in tests.
type Resolver struct {
	Runner   proc.Runner
	Git      *vcs.Git
	LookPath func(string) (string, error)
	Diag     *diag.Context
}

// New returns a Resolver backed by runner, using lookPath for compiler and
// archiver discovery when a path dependency needs its own build.
func New(runner proc.Runner, lookPath func(string) (string, error), d *diag.Context) *Resolver {
	return &Resolver{Runner: runner, Git: vcs.New(runner), LookPath: lookPath, Diag: d}
}

// state is scoped to one InstallDeps call and discarded afterwards, per
// spec.md §5's resource-ownership note.
type state struct {
	seenDeps map[string]string // dependency name -> DepKey string
	visited  map[string]bool   // canonicalized path-dep roots already built
}

// InstallDeps installs m's [dependencies] (and [dev-dependencies] when
// includeDevDeps is set — only true for the root manifest of a command
// invocation, never for a transitively-installed dependency's own
// manifest) for profileName, returning one CompilerOpts per dependency:
// [dependencies] in name-sorted order, then [dev-dependencies] in
// name-sorted order.
func (r *Resolver) InstallDeps(ctx context.Context, m *manifest.Manifest, profileName string, includeDevDeps bool) ([]compileropts.CompilerOpts, error) {
	st := &state{seenDeps: map[string]string{}, visited: map[string]bool{}}
	return r.installDeps(ctx, m, profileName, includeDevDeps, st)
}

func (r *Resolver) installDeps(ctx context.Context, m *manifest.Manifest, profileName string, includeDevDeps bool, st *state) ([]compileropts.CompilerOpts, error) {
	var opts []compileropts.CompilerOpts

	for _, name := range sortedKeys(m.Dependencies) {
		o, err := r.visit(ctx, m, m.Dependencies[name], profileName, st)
		if err != nil {
			return nil, err
		}
		opts = append(opts, o)
	}

	if includeDevDeps {
		for _, name := range sortedKeys(m.DevDependencies) {
			o, err := r.visit(ctx, m, m.DevDependencies[name], profileName, st)
			if err != nil {
				return nil, err
			}
			opts = append(opts, o)
		}
	}

	return opts, nil
}

func sortedKeys(m map[string]manifest.Dependency) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// visit enforces the cross-manifest identity check (spec.md §4.2 step 1)
// before dispatching to the kind-specific install step.
func (r *Resolver) visit(ctx context.Context, m *manifest.Manifest, dep manifest.Dependency, profileName string, st *state) (compileropts.CompilerOpts, error) {
	key := depKey(dep, m)
	if prior, ok := st.seenDeps[dep.Name]; ok {
		if prior != key {
			return compileropts.CompilerOpts{}, cabinerr.Newf(cabinerr.Dependency, "dependency %q conflicts across manifests", dep.Name)
		}
	} else {
		st.seenDeps[dep.Name] = key
	}

	switch dep.Kind {
	case manifest.KindGit:
		return r.installGit(ctx, dep, profileName, st)
	case manifest.KindPath:
		return r.installPath(ctx, m, dep, profileName, st)
	case manifest.KindSystem:
		return r.installSystem(ctx, dep)
	default:
		return compileropts.CompilerOpts{}, cabinerr.Newf(cabinerr.Logic, "dependency %q has unknown kind", dep.Name)
	}
}

// depKey computes the (kind, detail) identity spec.md §4.2 uses to detect a
// dependency pulled in with conflicting definitions from different
// manifests.
func depKey(dep manifest.Dependency, m *manifest.Manifest) string {
	switch dep.Kind {
	case manifest.KindGit:
		return "git:" + dep.URL + "#" + dep.Target
	case manifest.KindPath:
		return "path:" + filepath.Clean(filepath.Join(m.Path, dep.RelPath))
	case manifest.KindSystem:
		return "system:" + dep.VersionReq.String()
	default:
		return ""
	}
}

// installGit clones/checks out dep into its content-addressed cache
// directory, exposes its include/ directory (or its root, if include/ is
// absent or empty), and recurses into its own manifest if it has one, per
// spec.md §4.2.
func (r *Resolver) installGit(ctx context.Context, dep manifest.Dependency, profileName string, st *state) (compileropts.CompilerOpts, error) {
	dir, err := env.GitDepDir(dep.URL, dep.Target)
	if err != nil {
		return compileropts.CompilerOpts{}, cabinerr.Wrapf(err, cabinerr.Dependency, "resolving cache directory for %q", dep.Name)
	}
	if err := r.Git.Sync(ctx, dep.URL, dep.Target, dir); err != nil {
		return compileropts.CompilerOpts{}, err
	}

	opt := compileropts.CompilerOpts{
		CFlags: compileropts.CFlags{IncludeDirs: []compileropts.IncludeDir{{Path: includeDirFor(dir)}}},
	}

	nestedPath := filepath.Join(dir, manifest.ManifestFileName)
	if _, err := os.Stat(nestedPath); err != nil {
		return opt, nil
	}

	nested, err := manifest.Parse(dir, false)
	if err != nil {
		return compileropts.CompilerOpts{}, cabinerr.Wrapf(err, cabinerr.Dependency, "parsing manifest of git dependency %q", dep.Name)
	}
	nestedOpts, err := r.installDeps(ctx, nested, profileName, false, st)
	if err != nil {
		return compileropts.CompilerOpts{}, err
	}
	return compileropts.MergeAll(append([]compileropts.CompilerOpts{opt}, nestedOpts...)...), nil
}

// includeDirFor returns dir/include if it exists and is non-empty,
// otherwise dir itself, per spec.md §4.2's GitDep install step.
func includeDirFor(dir string) string {
	includeDir := filepath.Join(dir, "include")
	entries, err := os.ReadDir(includeDir)
	if err != nil || len(entries) == 0 {
		return dir
	}
	return includeDir
}

// installPath canonicalizes dep's root, guards against a path-dep cycle,
// requires a nested cabin.toml, and recursively builds it under the same
// profile (resolve its own deps, discover its build graph, emit and run
// Ninja) before contributing its include dir and static library to the
// caller, per spec.md §4.2.
func (r *Resolver) installPath(ctx context.Context, m *manifest.Manifest, dep manifest.Dependency, profileName string, st *state) (compileropts.CompilerOpts, error) {
	canon, err := filepath.Abs(filepath.Join(m.Path, dep.RelPath))
	if err != nil {
		return compileropts.CompilerOpts{}, cabinerr.Wrapf(err, cabinerr.Dependency, "resolving path dependency %q", dep.Name)
	}
	canon = filepath.Clean(canon)

	if st.visited[canon] {
		return compileropts.CompilerOpts{}, nil
	}
	st.visited[canon] = true

	info, err := os.Stat(canon)
	if err != nil || !info.IsDir() {
		return compileropts.CompilerOpts{}, cabinerr.Newf(cabinerr.Dependency, "path dependency %q: directory %s not found", dep.Name, canon)
	}
	if _, err := os.Stat(filepath.Join(canon, manifest.ManifestFileName)); err != nil {
		return compileropts.CompilerOpts{}, cabinerr.Newf(cabinerr.Dependency, "path dependency %q: no %s in %s", dep.Name, manifest.ManifestFileName, canon)
	}

	nested, err := manifest.Parse(canon, false)
	if err != nil {
		return compileropts.CompilerOpts{}, cabinerr.Wrapf(err, cabinerr.Dependency, "parsing manifest of path dependency %q", dep.Name)
	}

	if r.Diag != nil {
		r.Diag.Status("Building", nested.Package.Name+" ("+canon+")")
	}

	depOpts, err := r.installDeps(ctx, nested, profileName, false, st)
	if err != nil {
		return compileropts.CompilerOpts{}, err
	}

	graph, proj, err := r.buildPathDep(ctx, nested, profileName, depOpts)
	if err != nil {
		return compileropts.CompilerOpts{}, err
	}

	opt := compileropts.CompilerOpts{
		CFlags: compileropts.CFlags{IncludeDirs: []compileropts.IncludeDir{{Path: includeDirFor(canon)}}},
	}
	if graph.HasLibrary {
		opt.LDFlags.LibDirs = append(opt.LDFlags.LibDirs, proj.Abs(proj.OutBase))
		opt.LDFlags.Libs = append(opt.LDFlags.Libs, compileropts.Lib{Name: libBaseName(proj.LibraryName())})
	}
	return opt, nil
}

// buildPathDep drives the full C4–C8 pipeline for a path dependency's own
// manifest: discover its compiler, build its graph, emit its Ninja files,
// and build its library target if it has one.
func (r *Resolver) buildPathDep(ctx context.Context, nested *manifest.Manifest, profileName string, depOpts []compileropts.CompilerOpts) (*buildgraph.Graph, *project.Project, error) {
	cxx, err := compiler.Discover(r.Runner, r.LookPath)
	if err != nil {
		return nil, nil, err
	}

	prof, ok := nested.Profiles[profileName]
	if !ok {
		return nil, nil, cabinerr.Newf(cabinerr.Config, "path dependency %q has no %q profile", nested.Package.Name, profileName)
	}

	proj, err := project.New(nested, profileName, project.ProfileOpts(prof), depOpts, r.Diag)
	if err != nil {
		return nil, nil, err
	}

	graph, err := buildgraph.Discover(ctx, proj, cxx, jobs(r.Diag))
	if err != nil {
		return nil, nil, err
	}

	archiver := compiler.ResolveArchiver(cxx.Path, prof.LTO, r.LookPath)
	if err := ninjaplan.Emit(proj, graph, cxx.Path, archiver); err != nil {
		return nil, nil, err
	}

	if graph.HasLibrary {
		driver := builddriver.New(r.Runner)
		if err := driver.Build(ctx, proj, []string{graph.LibraryName}, nested.Package.Name); err != nil {
			return nil, nil, err
		}
	}

	return graph, proj, nil
}

func jobs(d *diag.Context) int {
	if d == nil {
		return 1
	}
	return d.Jobs
}

// libBaseName turns a static-library file name ("libwidget.a") into the
// bare name pkg-config-style linking needs ("widget").
func libBaseName(libFile string) string {
	base := strings.TrimSuffix(libFile, ".a")
	return strings.TrimPrefix(base, "lib")
}

// installSystem queries pkg-config for dep's flags, classifying tokens by
// prefix into macros/includeDirs/libDirs/libs, per spec.md §4.2.
//
// Parsing is whitespace-only (strings.Fields): pkg-config's own output can
// contain shell-quoted tokens with embedded spaces that this splits
// incorrectly. This is a known, accepted limitation (spec.md §9.2) rather
// than an oversight — adopting a full shell-word splitter was considered
// and rejected to keep this dependency-free.
func (r *Resolver) installSystem(ctx context.Context, dep manifest.Dependency) (compileropts.CompilerOpts, error) {
	arg := dep.Name + " " + dep.VersionReq.String()

	cflags, err := r.Runner.Run(ctx, "", nil, "pkg-config", "--cflags", arg)
	if err != nil {
		return compileropts.CompilerOpts{}, cabinerr.Wrapf(err, cabinerr.Dependency, "pkg-config --cflags %q", arg)
	}
	libs, err := r.Runner.Run(ctx, "", nil, "pkg-config", "--libs", arg)
	if err != nil {
		return compileropts.CompilerOpts{}, cabinerr.Wrapf(err, cabinerr.Dependency, "pkg-config --libs %q", arg)
	}

	var opt compileropts.CompilerOpts
	for _, tok := range strings.Fields(cflags.Stdout) {
		classifyToken(tok, &opt)
	}
	for _, tok := range strings.Fields(libs.Stdout) {
		classifyToken(tok, &opt)
	}
	return opt, nil
}

func classifyToken(tok string, opt *compileropts.CompilerOpts) {
	switch {
	case strings.HasPrefix(tok, "-D"):
		name, value, _ := strings.Cut(tok[2:], "=")
		opt.CFlags.Macros = append(opt.CFlags.Macros, compileropts.Macro{Name: name, Value: value})
	case strings.HasPrefix(tok, "-I"):
		opt.CFlags.IncludeDirs = append(opt.CFlags.IncludeDirs, compileropts.IncludeDir{Path: tok[2:]})
	case strings.HasPrefix(tok, "-L"):
		opt.LDFlags.LibDirs = append(opt.LDFlags.LibDirs, tok[2:])
	case strings.HasPrefix(tok, "-l"):
		opt.LDFlags.Libs = append(opt.LDFlags.Libs, compileropts.Lib{Name: tok[2:]})
	default:
		opt.CFlags.Others = append(opt.CFlags.Others, tok)
		opt.LDFlags.Others = append(opt.LDFlags.Others, tok)
	}
}
