package manifest

import (
	"unicode"

	"github.com/yaito3014/cabin/internal/cabinerr"
	"github.com/yaito3014/cabin/internal/verreq"
)

// ValidateDependencyName enforces spec.md §3's stricter dependency-name
// rule (pkg-config strings flow through a system dependency's name):
// alphanumeric plus "- _ / . +"; must start and end alphanumeric (end may
// be "+"); no consecutive non-alphanumerics except "+"; dots only between
// digits; at most one "/"; zero or exactly two "+", the two consecutive.
func ValidateDependencyName(name string) error {
	runes := []rune(name)
	n := len(runes)
	if n == 0 {
		return cabinerr.New(cabinerr.Manifest, "dependency name must not be empty")
	}
	if !isAlnumRune(runes[0]) {
		return cabinerr.Newf(cabinerr.Manifest, "dependency name %q must start with an alphanumeric character", name)
	}
	last := runes[n-1]
	if !isAlnumRune(last) && last != '+' {
		return cabinerr.Newf(cabinerr.Manifest, "dependency name %q must end with an alphanumeric character or '+'", name)
	}

	plusCount, slashCount := 0, 0
	for i, r := range runes {
		switch {
		case isAlnumRune(r):
		case r == '+':
			plusCount++
		case r == '-' || r == '_':
		case r == '/':
			slashCount++
		case r == '.':
			if i == 0 || i == n-1 || !unicode.IsDigit(runes[i-1]) || !unicode.IsDigit(runes[i+1]) {
				return cabinerr.Newf(cabinerr.Manifest, "dependency name %q: '.' must appear between digits", name)
			}
		default:
			return cabinerr.Newf(cabinerr.Manifest, "dependency name %q contains invalid character %q", name, r)
		}

		if i > 0 {
			prev := runes[i-1]
			if !isAlnumRune(prev) && !isAlnumRune(r) && !(prev == '+' && r == '+') {
				return cabinerr.Newf(cabinerr.Manifest, "dependency name %q has consecutive non-alphanumeric characters", name)
			}
		}
	}

	if slashCount > 1 {
		return cabinerr.Newf(cabinerr.Manifest, "dependency name %q must contain at most one '/'", name)
	}
	if plusCount != 0 && plusCount != 2 {
		return cabinerr.Newf(cabinerr.Manifest, "dependency name %q must contain zero or exactly two '+'", name)
	}
	if plusCount == 2 && !hasAdjacentPlusPair(runes) {
		return cabinerr.Newf(cabinerr.Manifest, "dependency name %q: the two '+' must be consecutive", name)
	}
	return nil
}

func hasAdjacentPlusPair(runes []rune) bool {
	for i := 1; i < len(runes); i++ {
		if runes[i] == '+' && runes[i-1] == '+' {
			return true
		}
	}
	return false
}

func isAlnumRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// DepKind discriminates the Dependency tagged union.
type DepKind int

const (
	KindGit DepKind = iota
	KindPath
	KindSystem
)

// Dependency is a tagged union of GitDep, PathDep and SystemDep, matching
// spec.md §3 and §9's "flat enum, not inheritance" guidance.
type Dependency struct {
	Kind DepKind
	Name string

	// GitDep
	URL    string
	Target string // rev, tag or branch; first of the three present

	// PathDep
	RelPath string

	// SystemDep
	VersionReq *verreq.VersionReq
}

// parseDependencyTable dispatches one [dependencies.<name>] TOML table to
// the tagged union based on which discriminating key is present, per
// spec.md §4.1: key "git" → GitDep; key "system=true" → SystemDep (requires
// "version"); key "path" → PathDep. Unknown shapes fail.
func parseDependencyTable(name string, tbl map[string]any) (Dependency, error) {
	if err := ValidateDependencyName(name); err != nil {
		return Dependency{}, err
	}

	if _, ok := tbl["git"]; ok {
		url, _ := tbl["git"].(string)
		if url == "" {
			return Dependency{}, cabinerr.Newf(cabinerr.Manifest, "dependency %q: git requires a non-empty url", name)
		}
		target, err := gitTarget(name, tbl)
		if err != nil {
			return Dependency{}, err
		}
		return Dependency{Kind: KindGit, Name: name, URL: url, Target: target}, nil
	}

	if sys, ok := tbl["system"]; ok {
		isSystem, _ := sys.(bool)
		if !isSystem {
			return Dependency{}, cabinerr.Newf(cabinerr.Manifest, "dependency %q: system must be true", name)
		}
		verStr, _ := tbl["version"].(string)
		if verStr == "" {
			return Dependency{}, cabinerr.Newf(cabinerr.Manifest, "dependency %q: system dependency requires a version requirement", name)
		}
		req, err := verreq.Parse(verStr)
		if err != nil {
			return Dependency{}, cabinerr.Wrapf(err, cabinerr.Manifest, "dependency %q", name)
		}
		return Dependency{Kind: KindSystem, Name: name, VersionReq: req}, nil
	}

	if p, ok := tbl["path"]; ok {
		path, _ := p.(string)
		if path == "" {
			return Dependency{}, cabinerr.Newf(cabinerr.Manifest, "dependency %q: path must be a non-empty string", name)
		}
		return Dependency{Kind: KindPath, Name: name, RelPath: path}, nil
	}

	return Dependency{}, cabinerr.Newf(cabinerr.Manifest, "dependency %q: unrecognized shape (expected git, path, or system=true)", name)
}

// gitTarget returns the first of rev, tag, branch present in tbl, per
// spec.md §3's GitDep definition.
func gitTarget(name string, tbl map[string]any) (string, error) {
	for _, key := range []string{"rev", "tag", "branch"} {
		if v, ok := tbl[key]; ok {
			s, _ := v.(string)
			if s == "" {
				return "", cabinerr.Newf(cabinerr.Manifest, "dependency %q: %s must be a non-empty string", name, key)
			}
			return s, nil
		}
	}
	return "", nil
}
