package manifest

import (
	"strings"
	"unicode"

	"github.com/yaito3014/cabin/internal/cabinerr"
)

// Profile is a named build configuration (spec.md §3 and Glossary).
type Profile struct {
	CxxFlags    []string
	LdFlags     []string
	LTO         bool
	Debug       bool
	OptLevel    int
	InheritMode string // "append" (default) or "overwrite"; test profile only
}

// defaultDevProfile and defaultReleaseProfile are spec.md §3's defaults.
func defaultDevProfile() Profile     { return Profile{Debug: true, OptLevel: 0, LTO: false} }
func defaultReleaseProfile() Profile { return Profile{Debug: false, OptLevel: 3, LTO: false} }

// rawProfile mirrors the TOML shape of a [profile] / [profile.*] table,
// where every field is optional so it can fall back to the base profile.
type rawProfile struct {
	CxxFlags    []string `toml:"cxxflags"`
	LdFlags     []string `toml:"ldflags"`
	LTO         *bool    `toml:"lto"`
	Debug       *bool    `toml:"debug"`
	OptLevel    *int     `toml:"opt-level"`
	InheritMode *string  `toml:"inherit-mode"`
}

// resolveProfile merges a raw override onto a base Profile: a present field
// replaces the base's; flag lists replace (not append) unless empty, in
// which case the base's list is kept — "field-level fallback to the base",
// per spec.md §4.1.
func resolveProfile(base Profile, raw rawProfile) (Profile, error) {
	out := base
	if len(raw.CxxFlags) > 0 {
		out.CxxFlags = raw.CxxFlags
	}
	if len(raw.LdFlags) > 0 {
		out.LdFlags = raw.LdFlags
	}
	if raw.LTO != nil {
		out.LTO = *raw.LTO
	}
	if raw.Debug != nil {
		out.Debug = *raw.Debug
	}
	if raw.OptLevel != nil {
		if *raw.OptLevel < 0 || *raw.OptLevel > 3 {
			return Profile{}, cabinerr.Newf(cabinerr.Manifest, "opt-level %d out of range [0,3]", *raw.OptLevel)
		}
		out.OptLevel = *raw.OptLevel
	}
	if raw.InheritMode != nil {
		if *raw.InheritMode != "append" && *raw.InheritMode != "overwrite" {
			return Profile{}, cabinerr.Newf(cabinerr.Manifest, "inherit-mode %q must be \"append\" or \"overwrite\"", *raw.InheritMode)
		}
		out.InheritMode = *raw.InheritMode
	}

	for _, f := range out.CxxFlags {
		if err := ValidateFlag(f); err != nil {
			return Profile{}, err
		}
	}
	for _, f := range out.LdFlags {
		if err := ValidateFlag(f); err != nil {
			return Profile{}, err
		}
	}
	return out, nil
}

// inheritTest applies test.InheritMode's effect when deriving test from dev:
// "append" concatenates dev's flag lists in front of test's own; "overwrite"
// keeps test's own lists, falling back to dev's when test specified none.
func inheritTest(dev, test Profile) Profile {
	out := test
	mode := test.InheritMode
	if mode == "" {
		mode = "append"
	}
	switch mode {
	case "overwrite":
		if len(test.CxxFlags) == 0 {
			out.CxxFlags = dev.CxxFlags
		}
		if len(test.LdFlags) == 0 {
			out.LdFlags = dev.LdFlags
		}
	default: // append
		out.CxxFlags = append(append([]string{}, dev.CxxFlags...), test.CxxFlags...)
		out.LdFlags = append(append([]string{}, dev.LdFlags...), test.LdFlags...)
	}
	return out
}

// ValidateFlag enforces spec.md §4.1's flag-string rule: must start with
// '-'; body is alphanumerics plus "- _ = + : . ,"; a single literal space
// is allowed once (to permit "-framework Metal"); anything else, or a
// doubled space, is rejected.
func ValidateFlag(flag string) error {
	if !strings.HasPrefix(flag, "-") {
		return cabinerr.Newf(cabinerr.Manifest, "flag %q must start with '-'", flag)
	}
	spaceCount := 0
	for _, r := range flag {
		if r == ' ' {
			spaceCount++
			if spaceCount > 1 {
				return cabinerr.Newf(cabinerr.Manifest, "flag %q contains more than one space", flag)
			}
			continue
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			continue
		}
		switch r {
		case '-', '_', '=', '+', ':', '.', ',':
			continue
		default:
			return cabinerr.Newf(cabinerr.Manifest, "flag %q contains invalid character %q", flag, r)
		}
	}
	return nil
}
