// Package compiler is the C++ compiler facade (spec.md §4.3, C4):
// discovering the compiler and archiver executables and building the
// compile/-MM/-E/archive command lines every other component needs, all
// spawned through the shared internal/proc.Runner.
package compiler

import (
	"context"
	"os"
	"regexp"
	"strings"

	"github.com/yaito3014/cabin/internal/cabinerr"
	"github.com/yaito3014/cabin/internal/compileropts"
	"github.com/yaito3014/cabin/internal/proc"
)

// Compiler is a located C++ compiler, ready to build compile/-MM/-E/link
// command lines.
type Compiler struct {
	Path   string
	Runner proc.Runner
}

// Discover locates the C++ compiler: $CXX if set, else the first of
// "c++", "g++", "clang++" found on $PATH, per spec.md §4.3.
func Discover(runner proc.Runner, lookPath func(string) (string, error)) (*Compiler, error) {
	if cxx := os.Getenv("CXX"); cxx != "" {
		return &Compiler{Path: cxx, Runner: runner}, nil
	}
	for _, candidate := range []string{"c++", "g++", "clang++"} {
		if path, err := lookPath(candidate); err == nil {
			return &Compiler{Path: path, Runner: runner}, nil
		}
	}
	return nil, cabinerr.New(cabinerr.Config, "no C++ compiler found: set $CXX or install c++, g++ or clang++")
}

// renderCFlags expands CFlags into the flat token list shared by compile,
// -MM and -E invocations: others, then -D macros, then -I/-isystem dirs.
func renderCFlags(c compileropts.CFlags) []string {
	out := append([]string{}, c.Others...)
	for _, m := range c.Macros {
		if m.Value == "" {
			out = append(out, "-D"+m.Name)
		} else {
			out = append(out, "-D"+m.Name+"="+m.Value)
		}
	}
	for _, d := range c.IncludeDirs {
		if d.IsSystem {
			out = append(out, "-isystem", d.Path)
		} else {
			out = append(out, "-I"+d.Path)
		}
	}
	return out
}

// CompileArgs builds the argument list for "<cxx> ... -c <src> -o <obj>".
// extraFlags (e.g. "-DCABIN_TEST") are inserted immediately before -c, per
// spec.md §4.5's per-edge extra_flags binding.
func (c *Compiler) CompileArgs(cflags compileropts.CFlags, src, obj string, extraFlags ...string) []string {
	args := renderCFlags(cflags)
	args = append(args, extraFlags...)
	args = append(args, "-c", src, "-o", obj)
	return args
}

// MMArgs builds the argument list for "<cxx> ... -MM <src>".
func (c *Compiler) MMArgs(cflags compileropts.CFlags, src string, extraFlags ...string) []string {
	args := renderCFlags(cflags)
	args = append(args, extraFlags...)
	args = append(args, "-MM", src)
	return args
}

// PreprocessArgs builds the argument list for "<cxx> -E ... <src>".
func (c *Compiler) PreprocessArgs(cflags compileropts.CFlags, src string, extraFlags ...string) []string {
	args := []string{"-E"}
	args = append(args, renderCFlags(cflags)...)
	args = append(args, extraFlags...)
	args = append(args, src)
	return args
}

// Compile runs a compile invocation and returns its captured output.
func (c *Compiler) Compile(ctx context.Context, dir string, cflags compileropts.CFlags, src, obj string, extraFlags ...string) (proc.Result, error) {
	return c.Runner.Run(ctx, dir, nil, c.Path, c.CompileArgs(cflags, src, obj, extraFlags...)...)
}

// MM runs "-MM" and returns the raw Make-rule text.
func (c *Compiler) MM(ctx context.Context, dir string, cflags compileropts.CFlags, src string, extraFlags ...string) (string, error) {
	res, err := c.Runner.Run(ctx, dir, nil, c.Path, c.MMArgs(cflags, src, extraFlags...)...)
	if err != nil {
		return "", err
	}
	return res.Stdout, nil
}

// Preprocess runs "-E" and returns the preprocessed translation unit text.
func (c *Compiler) Preprocess(ctx context.Context, dir string, cflags compileropts.CFlags, src string, extraFlags ...string) (string, error) {
	res, err := c.Runner.Run(ctx, dir, nil, c.Path, c.PreprocessArgs(cflags, src, extraFlags...)...)
	if err != nil {
		return "", err
	}
	return res.Stdout, nil
}

// toolBoundary matches a compiler-flavor token (clang++, clang, g++, gcc)
// that starts at a non-alphanumeric boundary (or the start of the string),
// for the archiver tool-name substitution rule of spec.md §4.3.
var toolBoundary = regexp.MustCompile(`(^|[^A-Za-z0-9])(clang\+\+|clang|g\+\+|gcc)`)

// substituteToolName replaces the first compiler-flavor substring in name
// with its archiver counterpart ("llvm-ar" for clang, "gcc-ar" for
// gcc/g++), preserving any prefix/suffix around it. Examples (spec.md
// §4.3): "clang++-19" -> "llvm-ar-19"; "aarch64-linux-gnu-clang++" ->
// "aarch64-linux-gnu-llvm-ar"; "x86_64-w64-mingw32-g++-13" ->
// "x86_64-w64-mingw32-gcc-ar-13". Returns ("", false) if name contains no
// recognizable flavor token.
func substituteToolName(name string) (string, bool) {
	loc := toolBoundary.FindStringSubmatchIndex(name)
	if loc == nil {
		return "", false
	}
	flavor := name[loc[4]:loc[5]]
	var ar string
	switch flavor {
	case "clang++", "clang":
		ar = "llvm-ar"
	case "g++", "gcc":
		ar = "gcc-ar"
	default:
		return "", false
	}
	return name[:loc[4]] + ar + name[loc[5]:], true
}

// ResolveArchiver picks the archiver to use for static-library creation,
// per spec.md §4.3: env overrides win outright; without LTO "ar" is used;
// with LTO the flavor-specific archiver is derived from the compiler's
// basename (sibling-path lookup first, then bare name on $PATH), falling
// back to "ar".
func ResolveArchiver(compilerPath string, lto bool, lookPath func(string) (string, error)) string {
	for _, envVar := range []string{"CABIN_AR", "AR", "LLVM_AR", "GCC_AR"} {
		if v := os.Getenv(envVar); v != "" {
			return v
		}
	}
	if !lto {
		return "ar"
	}

	base := lastPathComponent(compilerPath)
	ar, ok := substituteToolName(base)
	if !ok {
		return "ar"
	}

	dir := strings.TrimSuffix(compilerPath, base)
	sibling := dir + ar
	if _, err := lookPath(sibling); err == nil {
		return sibling
	}
	if _, err := lookPath(ar); err == nil {
		return ar
	}
	return "ar"
}

func lastPathComponent(p string) string {
	i := strings.LastIndexAny(p, "/\\")
	if i < 0 {
		return p
	}
	return p[i+1:]
}

// ArchiveArgs builds "rcs <out> <in...>" for the resolved archiver.
func ArchiveArgs(out string, objs []string) []string {
	args := []string{"rcs", out}
	return append(args, objs...)
}
