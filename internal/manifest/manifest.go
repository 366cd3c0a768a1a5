// Package manifest parses and validates cabin.toml: package metadata,
// dependency tables, profile inheritance, and the passthrough lint config.
package manifest

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/yaito3014/cabin/internal/cabinerr"
)

const ManifestFileName = "cabin.toml"

// LintConfig is stored verbatim for the out-of-scope lint subcommand.
type LintConfig struct {
	CpplintFilters []string
}

// Manifest is the fully parsed and validated cabin.toml.
type Manifest struct {
	// Path is the directory containing the manifest file (not the file
	// path itself) — every relative path in the manifest is resolved
	// against it.
	Path string

	Package         Package
	Dependencies    map[string]Dependency
	DevDependencies map[string]Dependency
	Profiles        map[string]Profile
	Lint            LintConfig
}

// rawManifest is the direct TOML decode target.
type rawManifest struct {
	Package struct {
		Name    string   `toml:"name"`
		Version string   `toml:"version"`
		Edition string   `toml:"edition"`
		Authors []string `toml:"authors"`
	} `toml:"package"`

	Dependencies    map[string]map[string]any `toml:"dependencies"`
	DevDependencies map[string]map[string]any `toml:"dev-dependencies"`

	Profile rawProfile `toml:"profile"`

	Lint struct {
		Cpplint struct {
			Filters []string `toml:"filters"`
		} `toml:"cpplint"`
	} `toml:"lint"`
}

// Parse locates cabin.toml (walking upward from path when findParents is
// true, stopping at the filesystem root) and parses + validates it.
func Parse(path string, findParents bool) (*Manifest, error) {
	manifestPath, err := locate(path, findParents)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, cabinerr.Wrapf(err, cabinerr.Manifest, "reading %s", manifestPath)
	}

	return parseBytes(filepath.Dir(manifestPath), data)
}

// locate finds cabin.toml starting at path. If path is a directory, it
// looks for <path>/cabin.toml; if path is a file, it is used directly
// (mainly for tests). When findParents is true and the file isn't found
// at path, locate walks upward directory by directory until it is found
// or the filesystem root is reached.
func locate(path string, findParents bool) (string, error) {
	info, err := os.Stat(path)
	candidate := path
	if err == nil && info.IsDir() {
		candidate = filepath.Join(path, ManifestFileName)
	}

	if _, err := os.Stat(candidate); err == nil {
		return candidate, nil
	}
	if !findParents {
		return "", cabinerr.Newf(cabinerr.Manifest, "%s not found", candidate)
	}

	dir := filepath.Dir(candidate)
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			break // reached filesystem root
		}
		dir = parent
		try := filepath.Join(dir, ManifestFileName)
		if _, err := os.Stat(try); err == nil {
			return try, nil
		}
	}
	return "", cabinerr.Newf(cabinerr.Manifest, "%s not found in %s or any parent directory", ManifestFileName, path)
}

func parseBytes(dir string, data []byte) (*Manifest, error) {
	var raw rawManifest
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, cabinerr.Wrap(err, cabinerr.Manifest, "parsing cabin.toml")
	}

	// go-toml/v2 doesn't merge dotted keys into our synthetic fields above,
	// so re-decode the profile family out of a generic tree.
	var generic struct {
		Profile map[string]any `toml:"profile"`
	}
	if err := toml.Unmarshal(data, &generic); err != nil {
		return nil, cabinerr.Wrap(err, cabinerr.Manifest, "parsing cabin.toml")
	}
	devRaw, releaseRaw, testRaw, err := decodeProfileFamily(generic.Profile)
	if err != nil {
		return nil, err
	}

	pkg, err := parsePackage(raw)
	if err != nil {
		return nil, err
	}

	profiles, err := buildProfiles(raw.Profile, devRaw, releaseRaw, testRaw)
	if err != nil {
		return nil, err
	}

	deps, err := parseDependencyTables(raw.Dependencies)
	if err != nil {
		return nil, err
	}
	devDeps, err := parseDependencyTables(raw.DevDependencies)
	if err != nil {
		return nil, err
	}

	return &Manifest{
		Path:            dir,
		Package:         pkg,
		Dependencies:    deps,
		DevDependencies: devDeps,
		Profiles:        profiles,
		Lint:            LintConfig{CpplintFilters: raw.Lint.Cpplint.Filters},
	}, nil
}

func parsePackage(raw rawManifest) (Package, error) {
	name := raw.Package.Name
	if name == "" {
		return Package{}, cabinerr.New(cabinerr.Manifest, "[package] name is required")
	}
	if err := ValidatePackageName(name); err != nil {
		return Package{}, err
	}
	if raw.Package.Version == "" {
		return Package{}, cabinerr.New(cabinerr.Manifest, "[package] version is required")
	}
	edition, err := ParseEdition(raw.Package.Edition)
	if err != nil {
		return Package{}, cabinerr.Wrap(err, cabinerr.Manifest, "[package] edition")
	}
	return Package{
		Name:    name,
		Version: raw.Package.Version,
		Edition: edition,
		Authors: raw.Package.Authors,
	}, nil
}

// decodeProfileFamily pulls [profile.dev], [profile.release] and
// [profile.test] out of the generic profile map, leaving the base-level
// scalar/list keys (already captured by rawManifest.Profile) behind.
func decodeProfileFamily(generic map[string]any) (dev, release, test rawProfile, err error) {
	extract := func(key string) (rawProfile, error) {
		sub, ok := generic[key]
		if !ok {
			return rawProfile{}, nil
		}
		m, ok := sub.(map[string]any)
		if !ok {
			return rawProfile{}, cabinerr.Newf(cabinerr.Manifest, "[profile.%s] must be a table", key)
		}
		return decodeRawProfile(key, m)
	}

	if dev, err = extract("dev"); err != nil {
		return
	}
	if release, err = extract("release"); err != nil {
		return
	}
	if test, err = extract("test"); err != nil {
		return
	}
	return
}

func decodeRawProfile(name string, m map[string]any) (rawProfile, error) {
	var out rawProfile
	if v, ok := m["cxxflags"]; ok {
		list, err := toStringSlice(name, "cxxflags", v)
		if err != nil {
			return out, err
		}
		out.CxxFlags = list
	}
	if v, ok := m["ldflags"]; ok {
		list, err := toStringSlice(name, "ldflags", v)
		if err != nil {
			return out, err
		}
		out.LdFlags = list
	}
	if v, ok := m["lto"]; ok {
		b, ok := v.(bool)
		if !ok {
			return out, cabinerr.Newf(cabinerr.Manifest, "[profile.%s] lto must be a bool", name)
		}
		out.LTO = &b
	}
	if v, ok := m["debug"]; ok {
		b, ok := v.(bool)
		if !ok {
			return out, cabinerr.Newf(cabinerr.Manifest, "[profile.%s] debug must be a bool", name)
		}
		out.Debug = &b
	}
	if v, ok := m["opt-level"]; ok {
		n, err := toInt(name, "opt-level", v)
		if err != nil {
			return out, err
		}
		out.OptLevel = &n
	}
	if v, ok := m["inherit-mode"]; ok {
		s, ok := v.(string)
		if !ok {
			return out, cabinerr.Newf(cabinerr.Manifest, "[profile.%s] inherit-mode must be a string", name)
		}
		out.InheritMode = &s
	}
	return out, nil
}

func toStringSlice(profile, field string, v any) ([]string, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, cabinerr.Newf(cabinerr.Manifest, "[profile.%s] %s must be a list of strings", profile, field)
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, cabinerr.Newf(cabinerr.Manifest, "[profile.%s] %s must be a list of strings", profile, field)
		}
		out = append(out, s)
	}
	return out, nil
}

func toInt(profile, field string, v any) (int, error) {
	switch n := v.(type) {
	case int64:
		return int(n), nil
	case int:
		return n, nil
	default:
		return 0, cabinerr.Newf(cabinerr.Manifest, "[profile.%s] %s must be an integer", profile, field)
	}
}

// buildProfiles resolves dev/release/test against defaults + the base
// [profile] table, then derives test from the resolved dev profile via
// inherit-mode, per spec.md §4.1.
func buildProfiles(base, devRaw, releaseRaw, testRaw rawProfile) (map[string]Profile, error) {
	dev, err := resolveProfile(defaultDevProfile(), mergeRaw(base, devRaw))
	if err != nil {
		return nil, cabinerr.Wrap(err, cabinerr.Manifest, "[profile.dev]")
	}
	release, err := resolveProfile(defaultReleaseProfile(), mergeRaw(base, releaseRaw))
	if err != nil {
		return nil, cabinerr.Wrap(err, cabinerr.Manifest, "[profile.release]")
	}

	testBase, err := resolveProfile(dev, testRaw)
	if err != nil {
		return nil, cabinerr.Wrap(err, cabinerr.Manifest, "[profile.test]")
	}
	// inheritTest needs test's own (possibly empty) flag lists, not the
	// dev-fallback-filled ones resolveProfile just produced in testBase,
	// or append mode would double-count dev's flags.
	testOwn := testBase
	testOwn.CxxFlags = testRaw.CxxFlags
	testOwn.LdFlags = testRaw.LdFlags
	test := inheritTest(dev, testOwn)

	return map[string]Profile{
		"dev":     dev,
		"release": release,
		"test":    test,
	}, nil
}

// mergeRaw overlays override onto base field by field, used to apply the
// bare [profile] table before a named profile's own overrides.
func mergeRaw(base, override rawProfile) rawProfile {
	out := base
	if len(override.CxxFlags) > 0 {
		out.CxxFlags = override.CxxFlags
	}
	if len(override.LdFlags) > 0 {
		out.LdFlags = override.LdFlags
	}
	if override.LTO != nil {
		out.LTO = override.LTO
	}
	if override.Debug != nil {
		out.Debug = override.Debug
	}
	if override.OptLevel != nil {
		out.OptLevel = override.OptLevel
	}
	if override.InheritMode != nil {
		out.InheritMode = override.InheritMode
	}
	return out
}

func parseDependencyTables(tables map[string]map[string]any) (map[string]Dependency, error) {
	if len(tables) == 0 {
		return nil, nil
	}
	out := make(map[string]Dependency, len(tables))
	for name, tbl := range tables {
		dep, err := parseDependencyTable(name, tbl)
		if err != nil {
			return nil, err
		}
		out[name] = dep
	}
	return out, nil
}
