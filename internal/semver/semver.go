// Package semver adapts golang.org/x/mod/semver (already part of cabin's
// dependency surface as the edition/tag comparator the teacher wires into
// its classfile-exported package set) to bare "X[.Y[.Z]]" version strings,
// since cabin's manifests don't use Go's "v"-prefixed module versions.
package semver

import (
	"fmt"
	"strconv"
	"strings"

	xsemver "golang.org/x/mod/semver"
)

// Canonicalize zero-pads a bare version ("1", "1.2") to major.minor.patch
// and adds the "v" prefix x/mod/semver requires, validating each component
// is a non-negative integer.
func Canonicalize(v string) (string, error) {
	parts := strings.SplitN(v, "-", 2)
	var pre string
	core := parts[0]
	if len(parts) == 2 {
		pre = "-" + parts[1]
	}

	comps := strings.Split(core, ".")
	if len(comps) > 3 {
		return "", fmt.Errorf("invalid version %q: too many components", v)
	}
	for _, c := range comps {
		if c == "" {
			return "", fmt.Errorf("invalid version %q: empty component", v)
		}
		n, err := strconv.Atoi(c)
		if err != nil || n < 0 {
			return "", fmt.Errorf("invalid version %q: non-numeric component %q", v, c)
		}
	}
	for len(comps) < 3 {
		comps = append(comps, "0")
	}

	canon := "v" + strings.Join(comps, ".") + pre
	if !xsemver.IsValid(canon) {
		return "", fmt.Errorf("invalid version %q", v)
	}
	return canon, nil
}

// Valid reports whether v parses as a bare semantic version.
func Valid(v string) bool {
	_, err := Canonicalize(v)
	return err == nil
}

// Compare returns -1, 0 or +1 comparing bare version strings v1 and v2.
// It panics if either fails to canonicalize; callers are expected to have
// validated versions at parse time (see internal/manifest).
func Compare(v1, v2 string) int {
	c1, err := Canonicalize(v1)
	if err != nil {
		panic(err)
	}
	c2, err := Canonicalize(v2)
	if err != nil {
		panic(err)
	}
	return xsemver.Compare(c1, c2)
}

// Major returns the numeric major component of a bare version string.
func Major(v string) int {
	canon, err := Canonicalize(v)
	if err != nil {
		panic(err)
	}
	maj := strings.TrimPrefix(xsemver.Major(canon), "v")
	n, _ := strconv.Atoi(maj)
	return n
}

// Minor returns the numeric minor component of a bare version string.
func Minor(v string) int {
	canon, err := Canonicalize(v)
	if err != nil {
		panic(err)
	}
	mm := xsemver.MajorMinor(canon) // "vX.Y"
	parts := strings.SplitN(strings.TrimPrefix(mm, "v"), ".", 2)
	if len(parts) != 2 {
		return 0
	}
	n, _ := strconv.Atoi(parts[1])
	return n
}
