// Package ninjaplan is C7 (spec.md §4.6): materializing a *buildgraph.Graph
// as the four Ninja files cabin's build driver runs. The writer itself is
// grounded on google-blueprint's ninja_writer.go; the four-file split and
// rule bodies follow spec.md §4.6 literally.
package ninjaplan

import (
	"os"
	"path/filepath"

	"github.com/yaito3014/cabin/internal/buildgraph"
	"github.com/yaito3014/cabin/internal/cabinerr"
	"github.com/yaito3014/cabin/internal/compileropts"
	"github.com/yaito3014/cabin/internal/project"
)

const requiredVersion = "1.11"

// Emit writes build.ninja, config.ninja, rules.ninja and targets.ninja into
// proj's out-base directory. cxxPath is the discovered compiler executable;
// archiver is the resolved archiver command for the static-lib rule.
func Emit(proj *project.Project, g *buildgraph.Graph, cxxPath, archiver string) error {
	if err := proj.EnsureOutDir(); err != nil {
		return err
	}
	outDir := proj.Abs(proj.OutBase)

	if err := writeFile(outDir, "config.ninja", renderConfig(proj, cxxPath)); err != nil {
		return err
	}
	if err := writeFile(outDir, "rules.ninja", renderRules(archiver)); err != nil {
		return err
	}
	if err := writeFile(outDir, "targets.ninja", renderTargets(g)); err != nil {
		return err
	}
	if err := writeFile(outDir, "build.ninja", renderBuild(g)); err != nil {
		return err
	}
	return nil
}

func writeFile(dir, name, content string) error {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return cabinerr.Wrapf(err, cabinerr.Config, "writing %s", path)
	}
	return nil
}

func renderBuild(g *buildgraph.Graph) string {
	var w writer
	w.Comment("Generated by cabin. Do not edit.")
	w.BlankLine()
	w.Assign("ninja_required_version", requiredVersion)
	w.BlankLine()
	w.Include("config.ninja")
	w.Include("rules.ninja")
	w.Include("targets.ninja")
	if defaults := g.DefaultTargets(); len(defaults) > 0 {
		w.BlankLine()
		w.Default(escapeAll(defaults))
	}
	return w.String()
}

// renderConfig renders proj's merged CompilerOpts into the six Ninja
// variables rules.ninja's rule bodies reference, per spec.md §4.6.
func renderConfig(proj *project.Project, cxxPath string) string {
	var w writer
	opts := proj.Opts
	w.Assign("CXX", escape(cxxPath))
	w.Assign("CXXFLAGS", joinEscaped(opts.CFlags.Others))
	w.Assign("DEFINES", joinEscaped(renderMacros(opts.CFlags.Macros)))
	w.Assign("INCLUDES", joinEscaped(renderIncludes(opts.CFlags.IncludeDirs)))
	w.Assign("LDFLAGS", joinEscaped(renderLDFlags(opts.LDFlags)))
	w.Assign("LIBS", joinEscaped(renderLibs(opts.LDFlags.Libs)))
	return w.String()
}

func renderMacros(macros []compileropts.Macro) []string {
	out := make([]string, 0, len(macros))
	for _, m := range macros {
		if m.Value == "" {
			out = append(out, "-D"+m.Name)
		} else {
			out = append(out, "-D"+m.Name+"="+m.Value)
		}
	}
	return out
}

func renderIncludes(dirs []compileropts.IncludeDir) []string {
	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		if d.IsSystem {
			out = append(out, "-isystem", d.Path)
		} else {
			out = append(out, "-I"+d.Path)
		}
	}
	return out
}

func renderLDFlags(ld compileropts.LDFlags) []string {
	out := make([]string, 0, len(ld.Others)+len(ld.LibDirs))
	out = append(out, ld.Others...)
	for _, d := range ld.LibDirs {
		out = append(out, "-L"+d)
	}
	return out
}

func renderLibs(libs []compileropts.Lib) []string {
	out := make([]string, 0, len(libs))
	for _, l := range libs {
		out = append(out, "-l"+l.Name)
	}
	return out
}

func joinEscaped(tokens []string) string {
	if len(tokens) == 0 {
		return ""
	}
	out := escapeAll(tokens)
	s := out[0]
	for _, t := range out[1:] {
		s += " " + t
	}
	return s
}

// renderRules renders the three fixed rule bodies of spec.md §4.6. archiver
// is baked directly into cxx_link_static_lib's command since the archiver
// choice is resolved once per project, not per edge.
func renderRules(archiver string) string {
	var w writer
	w.Rule("cxx_compile")
	w.ScopedAssign("command", "$CXX $DEFINES $INCLUDES $CXXFLAGS $extra_flags -c $in -o $out")
	w.ScopedAssign("description", "CXX $out")
	w.BlankLine()
	w.Rule("cxx_link_exe")
	w.ScopedAssign("command", "$CXX $in $LDFLAGS $LIBS -o $out")
	w.ScopedAssign("description", "LINK $out")
	w.BlankLine()
	w.Rule("cxx_link_static_lib")
	w.ScopedAssign("command", archiver+" rcs $out $in")
	w.ScopedAssign("description", "AR $out")
	return w.String()
}

var bindingOrder = []string{"extra_flags"}

// renderTargets renders one build stanza per edge plus the "all" phony
// (always) and "tests" phony (when the graph has test targets), per
// spec.md §4.6.
func renderTargets(g *buildgraph.Graph) string {
	var w writer
	for i, e := range g.Edges {
		if i > 0 {
			w.BlankLine()
		}
		w.Build(escapeAll(e.Outputs), string(e.Rule), escapeAll(e.Inputs), escapeAll(e.Implicit), escapeAll(e.OrderOnly), bindingOrder, e.Bindings)
	}

	w.BlankLine()
	w.Phony("all", escapeAll(g.DefaultTargets()))

	if len(g.TestTargets) > 0 {
		names := make([]string, len(g.TestTargets))
		for i, t := range g.TestTargets {
			names[i] = t.NinjaTarget
		}
		w.BlankLine()
		w.Phony("tests", escapeAll(names))
	}

	return w.String()
}
