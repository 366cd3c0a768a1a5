// Package srclayout enumerates a C++ project's source and header files
// and parses the compiler's `-MM` Make-style dependency output. File-tree
// walking follows an os.Stat-gated path construction style, generalized to
// a recursive sorted walk since cabin needs every source under src/, lib/
// and tests/, not a single known subdirectory.
package srclayout

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yaito3014/cabin/internal/cabinerr"
)

var sourceExts = map[string]bool{
	".c": true, ".c++": true, ".cc": true, ".cpp": true, ".cxx": true,
}

var headerExts = map[string]bool{
	".h": true, ".h++": true, ".hh": true, ".hpp": true, ".hxx": true,
}

// IsSource reports whether name's extension marks it as a C++ source file.
func IsSource(name string) bool { return sourceExts[strings.ToLower(filepath.Ext(name))] }

// IsHeader reports whether name's extension marks it as a C++ header file.
func IsHeader(name string) bool { return headerExts[strings.ToLower(filepath.Ext(name))] }

// Sources recursively enumerates every source file under root, returning
// paths relative to root in sorted (and therefore deterministic) order. A
// missing root is not an error; it yields an empty slice, since src/ and
// lib/ are both optional.
func Sources(root string) ([]string, error) { return enumerate(root, IsSource) }

// Headers recursively enumerates every header file under root, relative to
// root, sorted.
func Headers(root string) ([]string, error) { return enumerate(root, IsHeader) }

func enumerate(root string, match func(string) bool) ([]string, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, nil
	}

	var out []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !match(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		out = append(out, rel)
		return nil
	})
	if err != nil {
		return nil, cabinerr.Wrapf(err, cabinerr.Config, "enumerating %s", root)
	}
	sort.Strings(out)
	return out, nil
}

// MMResult is the parsed form of one `-MM` rule: the target token (text
// before the first ':', escaped or not) and the dependency paths that
// follow it.
type MMResult struct {
	Target string
	Deps   []string
}

// ParseMM parses the compiler's Make-style dependency rule emitted by
// `-MM`: "<obj>: src/foo.cc include/a.hpp include/b.hpp \<newline>...",
// possibly spanning multiple lines via trailing '\' continuations. Tokens
// that are only "\" are discarded, and a trailing '\n' is trimmed from
// every token.
func ParseMM(output string) (MMResult, error) {
	joined := strings.ReplaceAll(output, "\\\n", " ")
	joined = strings.ReplaceAll(joined, "\\\r\n", " ")

	colon := strings.Index(joined, ":")
	if colon < 0 {
		return MMResult{}, cabinerr.Newf(cabinerr.Parse, "malformed -MM output: no ':' found: %q", output)
	}
	target := strings.TrimSpace(joined[:colon])
	rest := joined[colon+1:]

	var deps []string
	for _, tok := range strings.Fields(rest) {
		tok = strings.TrimSuffix(tok, "\n")
		if tok == "\\" || tok == "" {
			continue
		}
		deps = append(deps, tok)
	}
	return MMResult{Target: target, Deps: deps}, nil
}

// DepSet returns r.Deps as a lexicographically sorted set with duplicates
// removed, matching the BuildGraph invariant that implicit-input lists are
// deterministic.
func (r MMResult) DepSet() []string {
	seen := make(map[string]bool, len(r.Deps))
	out := make([]string, 0, len(r.Deps))
	for _, d := range r.Deps {
		if seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
