package buildgraph

import (
	"context"
	"os"
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

const cabinTestDefine = "-DCABIN_TEST"

// containsCabinTestMarker is the cheap pre-filter of spec.md §4.5: a plain
// substring scan for "CABIN_TEST". The authoritative preprocessor-diff
// check below is skipped only when the marker is absent; the scan never
// replaces it.
func containsCabinTestMarker(data []byte) bool {
	return strings.Contains(string(data), "CABIN_TEST")
}

// differsUnderTest is the authoritative test-code detector (spec.md §4.5,
// §9's Open Question resolution): a source participates in test linking
// iff its preprocessed output differs with and without -DCABIN_TEST.
func differsUnderTest(ctx context.Context, cxx *compiler.Compiler, proj *project.Project, src string) (bool, error) {
	plain, err := cxx.Preprocess(ctx, proj.Root, proj.Opts.CFlags, src)
	if err != nil {
		return false, err
	}
	withTest, err := cxx.Preprocess(ctx, proj.Root, proj.Opts.CFlags, src, cabinTestDefine)
	if err != nil {
		return false, err
	}
	return plain != withTest, nil
}

// detectTestCandidates filters sources to those that differ under
// -DCABIN_TEST, running the cheap substring pre-filter and (only for
// sources that pass it) the expensive differential-preprocess check in a
// bounded parallel region, per spec.md §5.
func detectTestCandidates(ctx context.Context, proj *project.Project, cxx *compiler.Compiler, sources []discoveredSource, jobs int) ([]discoveredSource, error) {
	if jobs < 1 {
		jobs = 1
	}

	var mu sync.Mutex
	var candidates []discoveredSource
	var errs []string

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for _, s := range sources {
		s := s
		g.Go(func() error {
			src := filepath.Join(kindDir(s.kind), s.rel)
			data, err := os.ReadFile(proj.Abs(src))
			if err != nil {
				mu.Lock()
				errs = append(errs, err.Error())
				mu.Unlock()
				return nil
			}
			if !containsCabinTestMarker(data) {
				return nil
			}

			differs, err := differsUnderTest(gctx, cxx, proj, src)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err.Error())
				return nil
			}
			if differs {
				candidates = append(candidates, s)
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(errs) > 0 {
		return nil, cabinerr.Newf(cabinerr.Process, "test-code detection failed:\n%s", strings.Join(errs, "\n"))
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].kind != candidates[j].kind {
			return candidates[i].kind < candidates[j].kind
		}
		return candidates[i].rel < candidates[j].rel
	})
	return candidates, nil
}

func testObject(proj *project.Project, kind rootKind, rel string) string {
	return filepath.Join(proj.UnitTestOut, kindDir(kind), rel+".o")
}

func integrationObject(proj *project.Project, rel string) string {
	return filepath.Join(proj.IntegrationTestOut, rel+".o")
}

// discoverTests builds unit-test and integration-test edges for the test
// profile, per spec.md §4.5.
func discoverTests(
	ctx context.Context,
	proj *project.Project,
	cxx *compiler.Compiler,
	sources []discoveredSource,
	units []CompileUnit,
	unitByObject map[string]CompileUnit,
	headerMap map[string]string,
	g *Graph,
	jobs int,
) ([]Edge, []TestTarget, error) {
	var edges []Edge
	var targets []TestTarget

	candidates, err := detectTestCandidates(ctx, proj, cxx, sources, jobs)
	if err != nil {
		return nil, nil, err
	}

	if len(candidates) > 0 {
		testUnits, err := compileUnits(ctx, proj, cxx, candidates, jobs, cabinTestDefine, testObject)
		if err != nil {
			return nil, nil, err
		}

		var mainObj string
		for _, u := range units {
			if filepath.Base(u.Source) == "main.cc" || stem(u.Source) == "main" {
				mainObj = u.Object
			}
		}

		for i, tu := range testUnits {
			s := candidates[i]

			edges = append(edges, Edge{
				Outputs:  []string{tu.Object},
				Rule:     RuleCompile,
				Inputs:   []string{tu.Source},
				Implicit: sortedCopy(tu.HeaderDeps),
				Bindings: map[string]string{"extra_flags": cabinTestDefine},
			})

			linkInputs := []string{tu.Object}
			if s.kind == rootSrc {
				closure := headerClosureFromHeaders(tu.HeaderDeps, unitByObject, headerMap)
				var extra []string
				for obj := range closure {
					if obj == mainObj {
						continue
					}
					extra = append(extra, obj)
				}
				sort.Strings(extra)
				linkInputs = append(linkInputs, extra...)
			}
			if g.HasLibrary {
				linkInputs = append(linkInputs, g.LibraryName)
			}
			sort.Strings(linkInputs[1:])

			out := filepath.Join(proj.OutBase, "unit", kindDir(s.kind), s.rel+".test")
			edges = append(edges, Edge{
				Outputs: []string{out},
				Rule:    RuleLinkExe,
				Inputs:  linkInputs,
			})
			targets = append(targets, TestTarget{NinjaTarget: out, SourcePath: tu.Source, Kind: Unit})
		}
	}

	intgSources, err := srclayout.Sources(proj.Abs(proj.TestsDir()))
	if err != nil {
		return nil, nil, err
	}
	if len(intgSources) > 0 {
		var discovered []discoveredSource
		for _, rel := range intgSources {
			discovered = append(discovered, discoveredSource{rootTests, rel})
		}
		intgUnits, err := compileUnits(ctx, proj, cxx, discovered, jobs, cabinTestDefine, func(p *project.Project, _ rootKind, rel string) string {
			return integrationObject(p, rel)
		})
		if err != nil {
			return nil, nil, err
		}
		for i, u := range intgUnits {
			edges = append(edges, Edge{
				Outputs:  []string{u.Object},
				Rule:     RuleCompile,
				Inputs:   []string{u.Source},
				Implicit: sortedCopy(u.HeaderDeps),
				Bindings: map[string]string{"extra_flags": cabinTestDefine},
			})

			linkInputs := []string{u.Object}
			if g.HasLibrary {
				linkInputs = append(linkInputs, g.LibraryName)
			}

			stemRel := strings.TrimSuffix(discovered[i].rel, filepath.Ext(discovered[i].rel))
			out := filepath.Join(proj.OutBase, "intg", stemRel)
			edges = append(edges, Edge{
				Outputs: []string{out},
				Rule:    RuleLinkExe,
				Inputs:  linkInputs,
			})
			targets = append(targets, TestTarget{NinjaTarget: out, SourcePath: u.Source, Kind: Integration})
		}
	}

	sort.Slice(targets, func(i, j int) bool { return targets[i].NinjaTarget < targets[j].NinjaTarget })
	return edges, targets, nil
}

// headerClosureFromHeaders is headerClosure generalized to a starting
// header set rather than a starting object, used for a test object (which
// has no entry in unitByObject of its own).
func headerClosureFromHeaders(headers []string, unitByObject map[string]CompileUnit, headerMap map[string]string) map[string]bool {
	visited := make(map[string]bool)
	var worklist []string
	for _, h := range headers {
		if obj, ok := headerMap[h]; ok {
			worklist = append(worklist, obj)
		}
	}

	for len(worklist) > 0 {
		obj := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		if visited[obj] {
			continue
		}
		visited[obj] = true

		unit, ok := unitByObject[obj]
		if !ok {
			continue
		}
		for _, h := range unit.HeaderDeps {
			if owner, ok := headerMap[h]; ok && !visited[owner] {
				worklist = append(worklist, owner)
			}
		}
	}
	return visited
}
