// Package compileropts defines CompilerOpts (spec.md §3): the merged set of
// preprocessor/compiler and linker flags contributed by a profile and by
// every installed dependency.
package compileropts

// Macro is a -D<name>[=<value>] preprocessor definition.
type Macro struct {
	Name  string
	Value string
}

// IncludeDir is a -I (or -isystem, when IsSystem) search path.
type IncludeDir struct {
	Path     string
	IsSystem bool
}

// Lib is a -l<name> link dependency.
type Lib struct {
	Name string
}

// CFlags groups preprocessor/compiler-facing options.
type CFlags struct {
	Macros      []Macro
	IncludeDirs []IncludeDir
	Others      []string
}

// LDFlags groups linker-facing options.
type LDFlags struct {
	LibDirs []string
	Libs    []Lib
	Others  []string
}

// CompilerOpts is the merged set of flags a Project or a resolved
// dependency contributes to every compile/link invocation.
type CompilerOpts struct {
	CFlags  CFlags
	LDFlags LDFlags
}

// Merge concatenates others/libDirs/includeDirs/macros and appends o's libs
// to dst, deduplicating by name and preserving first occurrence — exactly
// spec.md §3's merge rule. Merge never mutates o; it returns a new value
// built from dst's backing slices extended.
func Merge(dst, o CompilerOpts) CompilerOpts {
	out := CompilerOpts{
		CFlags: CFlags{
			Macros:      append(append([]Macro{}, dst.CFlags.Macros...), o.CFlags.Macros...),
			IncludeDirs: append(append([]IncludeDir{}, dst.CFlags.IncludeDirs...), o.CFlags.IncludeDirs...),
			Others:      append(append([]string{}, dst.CFlags.Others...), o.CFlags.Others...),
		},
		LDFlags: LDFlags{
			LibDirs: append(append([]string{}, dst.LDFlags.LibDirs...), o.LDFlags.LibDirs...),
			Others:  append(append([]string{}, dst.LDFlags.Others...), o.LDFlags.Others...),
		},
	}

	seen := make(map[string]bool, len(dst.LDFlags.Libs)+len(o.LDFlags.Libs))
	for _, libs := range [][]Lib{dst.LDFlags.Libs, o.LDFlags.Libs} {
		for _, l := range libs {
			if seen[l.Name] {
				continue
			}
			seen[l.Name] = true
			out.LDFlags.Libs = append(out.LDFlags.Libs, l)
		}
	}
	return out
}

// MergeAll folds a sequence of CompilerOpts left to right through Merge,
// starting from an empty CompilerOpts.
func MergeAll(opts ...CompilerOpts) CompilerOpts {
	var out CompilerOpts
	for _, o := range opts {
		out = Merge(out, o)
	}
	return out
}
