// Package verreq implements Cargo-style semantic version requirements
// (VersionReq in spec.md §3) and their rendering to pkg-config constraint
// strings.
package verreq

import (
	"fmt"
	"strings"

	"github.com/yaito3014/cabin/internal/cabinerr"
	"github.com/yaito3014/cabin/internal/semver"
)

// Op is a version comparison operator.
type Op int

const (
	OpCaret Op = iota // default, Cargo "^1.2.3"
	OpTilde
	OpExact
	OpGE
	OpGT
	OpLE
	OpLT
)

// Term is one comma-separated piece of a VersionReq, e.g. ">=1.2, <2.0" has
// two terms.
type Term struct {
	Op      Op
	Version string // canonical bare "X.Y.Z"
	raw     string // original text, for rendering
}

// VersionReq is a parsed, comma-separated list of terms, all of which must
// hold for a candidate version to match.
type VersionReq struct {
	Terms []Term
	raw   string
}

// Parse parses a VersionReq string such as "^1.2", "~1.2.3", ">=1, <2".
func Parse(s string) (*VersionReq, error) {
	raw := s
	parts := strings.Split(s, ",")
	terms := make([]Term, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, cabinerr.Newf(cabinerr.Manifest, "invalid version requirement %q: empty term", s)
		}
		term, err := parseTerm(p)
		if err != nil {
			return nil, cabinerr.Wrapf(err, cabinerr.Manifest, "invalid version requirement %q", s)
		}
		terms = append(terms, term)
	}
	return &VersionReq{Terms: terms, raw: raw}, nil
}

func parseTerm(p string) (Term, error) {
	op, rest := OpCaret, p
	switch {
	case strings.HasPrefix(p, "^"):
		op, rest = OpCaret, p[1:]
	case strings.HasPrefix(p, "~"):
		op, rest = OpTilde, p[1:]
	case strings.HasPrefix(p, ">="):
		op, rest = OpGE, p[2:]
	case strings.HasPrefix(p, "<="):
		op, rest = OpLE, p[2:]
	case strings.HasPrefix(p, "="):
		op, rest = OpExact, p[1:]
	case strings.HasPrefix(p, ">"):
		op, rest = OpGT, p[1:]
	case strings.HasPrefix(p, "<"):
		op, rest = OpLT, p[1:]
	}
	rest = strings.TrimSpace(rest)
	if !semver.Valid(rest) {
		return Term{}, fmt.Errorf("invalid version %q", rest)
	}
	canon, err := semver.Canonicalize(rest)
	if err != nil {
		return Term{}, err
	}
	return Term{Op: op, Version: strings.TrimPrefix(canon, "v"), raw: p}, nil
}

// Matches reports whether candidate (a bare "X.Y.Z" string) satisfies every
// term in r.
func (r *VersionReq) Matches(candidate string) bool {
	for _, t := range r.Terms {
		if !t.matches(candidate) {
			return false
		}
	}
	return true
}

func (t Term) matches(candidate string) bool {
	cmp := semver.Compare(candidate, t.Version)
	switch t.Op {
	case OpExact:
		return cmp == 0
	case OpGE:
		return cmp >= 0
	case OpGT:
		return cmp > 0
	case OpLE:
		return cmp <= 0
	case OpLT:
		return cmp < 0
	case OpTilde:
		// ~1.2.3 := >=1.2.3, <1.3.0 ; ~1.2 := >=1.2.0, <1.3.0 ; ~1 is
		// zero-padded to ~1.0.0 first, so it means >=1.0.0, <1.1.0 (it does
		// not widen to the whole major range).
		if cmp < 0 {
			return false
		}
		return semver.Major(candidate) == semver.Major(t.Version) &&
			semver.Minor(candidate) == semver.Minor(t.Version)
	default: // OpCaret
		if cmp < 0 {
			return false
		}
		if semver.Major(t.Version) != 0 {
			return semver.Major(candidate) == semver.Major(t.Version)
		}
		return semver.Minor(candidate) == semver.Minor(t.Version) && semver.Major(candidate) == 0
	}
}

// String renders the VersionReq as a pkg-config constraint string: terms
// joined with ", ", each as "<pkg-config-op> <version>". pkg-config's own
// grammar only understands ">=", "=", "<=", ">" and "<" against a plain
// numeric version, so a Cargo-only operator (^, ~) is expanded into the pair of
// pkg-config terms that bound the same range Matches enforces for it,
// rather than rendered as a bare lower bound that would silently drop the
// upper bound the operator implies.
func (r *VersionReq) String() string {
	parts := make([]string, 0, len(r.Terms))
	for _, t := range r.Terms {
		parts = append(parts, t.pkgConfigStrings()...)
	}
	return strings.Join(parts, ", ")
}

// pkgConfigStrings returns the one or two pkg-config terms equivalent to t.
// ^ and ~ each expand to a ">=" lower bound plus a "<" upper bound at the
// same boundary matches's OpCaret/OpTilde cases compare against, so String
// and Matches never disagree on what a term allows.
func (t Term) pkgConfigStrings() []string {
	switch t.Op {
	case OpExact:
		return []string{"= " + t.Version}
	case OpGE:
		return []string{">= " + t.Version}
	case OpGT:
		return []string{"> " + t.Version}
	case OpLE:
		return []string{"<= " + t.Version}
	case OpLT:
		return []string{"< " + t.Version}
	case OpTilde:
		return []string{">= " + t.Version, "< " + nextMinor(t.Version)}
	default: // OpCaret
		if semver.Major(t.Version) != 0 {
			return []string{">= " + t.Version, "< " + nextMajor(t.Version)}
		}
		return []string{">= " + t.Version, "< " + nextMinor(t.Version)}
	}
}

// nextMajor renders "(major+1).0.0", the exclusive upper bound of a caret
// term whose major component is nonzero.
func nextMajor(version string) string {
	return fmt.Sprintf("%d.0.0", semver.Major(version)+1)
}

// nextMinor renders "major.(minor+1).0", the exclusive upper bound of a
// tilde term, and of a caret term whose major component is zero — matching
// the minor-only equality Matches checks in both of those cases.
func nextMinor(version string) string {
	return fmt.Sprintf("%d.%d.0", semver.Major(version), semver.Minor(version)+1)
}
