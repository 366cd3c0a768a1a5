package buildgraph

import (
	"path/filepath"
	"strings"

	"github.com/yaito3014/cabin/internal/project"
)

// buildHeaderMap maps every header path seen across all compile units'
// dependency sets to the object file that owns it, per spec.md §4.5: try
// src/, then include/ (prefixed into the lib/ object tree), then lib/
// itself; otherwise fall back to a prefix-less object name. Only headers
// whose mapped object is in objSet are kept, since an unmapped header
// contributes nothing to the link closure.
func buildHeaderMap(proj *project.Project, units []CompileUnit, objSet map[string]bool) map[string]string {
	out := make(map[string]string)
	for _, u := range units {
		for _, h := range u.HeaderDeps {
			if _, ok := out[h]; ok {
				continue
			}
			if obj, ok := mapHeaderToObject(proj, h); ok && objSet[obj] {
				out[h] = obj
			}
		}
	}
	return out
}

func mapHeaderToObject(proj *project.Project, header string) (string, bool) {
	srcPrefix := "src" + string(filepath.Separator)
	includePrefix := "include" + string(filepath.Separator)
	libPrefix := "lib" + string(filepath.Separator)

	switch {
	case strings.HasPrefix(header, srcPrefix):
		rel := strings.TrimPrefix(header, srcPrefix)
		return objectForSource(proj, rootSrc, rel), true
	case strings.HasPrefix(header, includePrefix):
		rel := strings.TrimPrefix(header, includePrefix)
		return objectForSource(proj, rootLib, rel), true
	case strings.HasPrefix(header, libPrefix):
		rel := strings.TrimPrefix(header, libPrefix)
		return objectForSource(proj, rootLib, rel), true
	default:
		// Fallback: an object name with no directory prefix, still rooted
		// at BuildOut, per spec.md §4.5's "fallback object name without
		// prefix".
		base := filepath.Base(header)
		withoutExt := strings.TrimSuffix(base, filepath.Ext(base)) + ".o"
		return filepath.Join(proj.BuildOut, withoutExt), true
	}
}

// headerClosure walks the transitive closure of objects reachable from
// start by following its header dependencies through headerMap and each
// discovered object's own header dependencies, using an iterative
// worklist (spec.md §9: avoid recursion for deep header graphs). start
// itself is not included in the returned set.
func headerClosure(start string, unitByObject map[string]CompileUnit, headerMap map[string]string) map[string]bool {
	visited := make(map[string]bool)
	worklist := []string{start}

	for len(worklist) > 0 {
		obj := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		unit, ok := unitByObject[obj]
		if !ok {
			continue
		}
		for _, h := range unit.HeaderDeps {
			owner, ok := headerMap[h]
			if !ok || owner == start || visited[owner] {
				continue
			}
			visited[owner] = true
			worklist = append(worklist, owner)
		}
	}
	return visited
}
