package buildgraph

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/yaito3014/cabin/internal/cabinerr"
	"github.com/yaito3014/cabin/internal/compiler"
	"github.com/yaito3014/cabin/internal/project"
	"github.com/yaito3014/cabin/internal/srclayout"
)

// rootKind distinguishes which announced root a source was discovered
// under, since that determines where its object lands (spec.md §4.5).
type rootKind int

const (
	rootSrc rootKind = iota
	rootLib
	rootTests
)

type discoveredSource struct {
	kind rootKind
	rel  string // path relative to the root directory (src/ or lib/)
}

// Discover builds the full Graph for proj: source enumeration, -MM-driven
// compile-unit discovery, header-to-object mapping, link-edge construction,
// and (for the test profile) unit/integration test discovery.
func Discover(ctx context.Context, proj *project.Project, cxx *compiler.Compiler, jobs int) (*Graph, error) {
	srcSources, err := srclayout.Sources(proj.Abs(proj.SrcDir()))
	if err != nil {
		return nil, err
	}
	libSources, err := srclayout.Sources(proj.Abs(proj.LibDir()))
	if err != nil {
		return nil, err
	}

	var d warner
	if proj.Diag != nil {
		d = proj.Diag
	}
	binaryRel, err := findMain(srcSources, d)
	if err != nil {
		return nil, err
	}
	hasBinary := binaryRel != ""
	hasLibrary := len(libSources) > 0

	if !hasBinary && !hasLibrary {
		return nil, cabinerr.New(cabinerr.Config, "no target found: need src/*main.cc or at least one lib/ source")
	}

	var sources []discoveredSource
	for _, s := range srcSources {
		sources = append(sources, discoveredSource{rootSrc, s})
	}
	for _, s := range libSources {
		sources = append(sources, discoveredSource{rootLib, s})
	}

	units, err := compileUnits(ctx, proj, cxx, sources, jobs, "", regularObject)
	if err != nil {
		return nil, err
	}

	g := &Graph{
		Units:      units,
		HasBinary:  hasBinary,
		HasLibrary: hasLibrary,
	}
	if hasLibrary {
		g.LibraryName = filepath.Join(proj.OutBase, proj.LibraryName())
	}

	objSet := make(map[string]bool, len(units))
	for _, u := range units {
		objSet[u.Object] = true
	}
	headerMap := buildHeaderMap(proj, units, objSet)

	var edges []Edge
	for _, u := range units {
		edges = append(edges, Edge{
			Outputs:  []string{u.Object},
			Rule:     RuleCompile,
			Inputs:   []string{u.Source},
			Implicit: sortedCopy(u.HeaderDeps),
		})
	}

	unitByObject := make(map[string]CompileUnit, len(units))
	for _, u := range units {
		unitByObject[u.Object] = u
	}

	libObjects := objectsUnder(units, rootLib)

	if hasBinary {
		mainObj := objectForSource(proj, rootSrc, binaryRel)
		closure := headerClosure(mainObj, unitByObject, headerMap)
		closure[mainObj] = true

		var linkInputs []string
		for obj := range closure {
			if hasLibrary && libObjects[obj] {
				continue
			}
			linkInputs = append(linkInputs, obj)
		}
		sort.Strings(linkInputs)

		if hasLibrary {
			linkInputs = append(linkInputs, g.LibraryName)
		}

		g.BinaryName = filepath.Join(proj.OutBase, proj.Manifest.Package.Name)
		edges = append(edges, Edge{
			Outputs: []string{g.BinaryName},
			Rule:    RuleLinkExe,
			Inputs:  linkInputs,
		})
	}

	if hasLibrary {
		var libInputs []string
		for obj := range libObjects {
			libInputs = append(libInputs, obj)
		}
		sort.Strings(libInputs)
		edges = append(edges, Edge{
			Outputs: []string{g.LibraryName},
			Rule:    RuleLinkStaticLib,
			Inputs:  libInputs,
		})
	}

	if proj.Profile == "test" {
		testEdges, targets, err := discoverTests(ctx, proj, cxx, sources, units, unitByObject, headerMap, g, jobs)
		if err != nil {
			return nil, err
		}
		edges = append(edges, testEdges...)
		g.TestTargets = targets
	}

	g.Edges = edges
	return g, nil
}

// findMain locates the single top-level src/ source whose stem is "main".
// A stem of "main" in a nested subdirectory produces a warning (when a
// diag.Context is available) and is treated as an ordinary object, per
// spec.md §4.5. More than one top-level main is a ConfigError.
func findMain(srcSources []string, d warner) (string, error) {
	var mains []string
	for _, s := range srcSources {
		if stem(s) != "main" {
			continue
		}
		if filepath.Dir(s) == "." {
			mains = append(mains, s)
		} else if d != nil {
			d.Warn("source %q is named main.cc outside the top level of src/; treating it as an ordinary object", s)
		}
	}
	if len(mains) > 1 {
		return "", cabinerr.Newf(cabinerr.Config, "multiple main sources found: %s", strings.Join(mains, ", "))
	}
	if len(mains) == 1 {
		return mains[0], nil
	}
	return "", nil
}

// warner is the subset of *diag.Context buildgraph needs, kept narrow so
// tests can pass nil or a fake without importing diag's zerolog plumbing.
type warner interface {
	Warn(format string, args ...any)
}

func stem(relPath string) string {
	base := filepath.Base(relPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func objectForSource(proj *project.Project, kind rootKind, rel string) string {
	withoutExt := strings.TrimSuffix(rel, filepath.Ext(rel)) + ".o"
	if kind == rootLib {
		return filepath.Join(proj.BuildOut, "lib", withoutExt)
	}
	return filepath.Join(proj.BuildOut, withoutExt)
}

func objectsUnder(units []CompileUnit, kind rootKind) map[string]bool {
	out := make(map[string]bool)
	for _, u := range units {
		if u.IsTest {
			continue
		}
		if kind == rootLib && strings.HasPrefix(u.Source, "lib"+string(filepath.Separator)) {
			out[u.Object] = true
		}
		if kind == rootSrc && strings.HasPrefix(u.Source, "src"+string(filepath.Separator)) {
			out[u.Object] = true
		}
	}
	return out
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

// compileUnits runs -MM for every source in sources, in a bounded parallel
// region (spec.md §5): a single mutex guards the shared accumulator while
// workers append results, and the whole region fails only after every
// worker has completed, concatenating their errors (spec.md §7's
// propagation policy).
func compileUnits(ctx context.Context, proj *project.Project, cxx *compiler.Compiler, sources []discoveredSource, jobs int, extraFlag string, objFn func(*project.Project, rootKind, string) string) ([]CompileUnit, error) {
	if jobs < 1 {
		jobs = 1
	}

	var mu sync.Mutex
	results := make(map[string]CompileUnit, len(sources))
	var errs []string

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	isTest := extraFlag != ""

	for _, s := range sources {
		s := s
		g.Go(func() error {
			src := filepath.Join(kindDir(s.kind), s.rel)
			var extra []string
			if extraFlag != "" {
				extra = []string{extraFlag}
			}
			out, err := cxx.MM(gctx, proj.Root, proj.Opts.CFlags, src, extra...)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err.Error())
				return nil
			}

			mm, perr := srclayout.ParseMM(out)
			if perr != nil {
				errs = append(errs, perr.Error())
				return nil
			}

			obj := objFn(proj, s.kind, s.rel)
			results[obj] = CompileUnit{
				Source:     src,
				Object:     obj,
				HeaderDeps: stripSelf(mm.DepSet(), src),
				IsTest:     isTest,
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(errs) > 0 {
		return nil, cabinerr.Newf(cabinerr.Process, "compile-unit discovery failed:\n%s", strings.Join(errs, "\n"))
	}

	units := make([]CompileUnit, 0, len(sources))
	for _, s := range sources {
		obj := objFn(proj, s.kind, s.rel)
		if u, ok := results[obj]; ok {
			units = append(units, u)
		}
	}
	sort.Slice(units, func(i, j int) bool { return units[i].Object < units[j].Object })
	return units, nil
}

func regularObject(proj *project.Project, kind rootKind, rel string) string {
	return objectForSource(proj, kind, rel)
}

func kindDir(k rootKind) string {
	switch k {
	case rootLib:
		return "lib"
	case rootTests:
		return "tests"
	default:
		return "src"
	}
}

// stripSelf removes the compiling source itself from a -MM dependency set,
// since the implicit-inputs list only needs headers, not the explicit
// input already listed on the edge.
func stripSelf(deps []string, self string) []string {
	out := make([]string, 0, len(deps))
	for _, d := range deps {
		if d == self {
			continue
		}
		out = append(out, d)
	}
	return out
}
