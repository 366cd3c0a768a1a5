// Package diag bundles the process-wide, cross-cutting concerns spec.md §9
// insists stay out of real globals: leveled logging, color policy and the
// selected parallelism level. Each internal/cli subcommand builds one
// *Context and threads it down through internal/project.Project.
package diag

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// ColorMode selects when ANSI color is emitted.
type ColorMode int

const (
	ColorAuto ColorMode = iota
	ColorAlways
	ColorNever
)

// Context carries the logger, color policy and job count for one command
// invocation. It is passed by value as a *Context; nothing here is a
// package-level variable.
type Context struct {
	Logger zerolog.Logger
	Color  ColorMode
	Jobs   int
}

// Option configures a new Context.
type Option func(*options)

type options struct {
	out     io.Writer
	verbose bool
	color   ColorMode
	jobs    int
}

func WithOutput(w io.Writer) Option { return func(o *options) { o.out = w } }
func WithVerbose(v bool) Option     { return func(o *options) { o.verbose = v } }
func WithColor(c ColorMode) Option  { return func(o *options) { o.color = c } }
func WithJobs(n int) Option         { return func(o *options) { o.jobs = n } }

// New builds a Context. Jobs defaults to runtime.GOMAXPROCS(0) when unset or
// non-positive; Color defaults to ColorAuto, which resolves against stdout's
// TTY-ness and CABIN_TERM_COLOR at construction time.
func New(opts ...Option) *Context {
	o := options{out: os.Stderr, color: ColorAuto}
	for _, opt := range opts {
		opt(&o)
	}

	level := zerolog.InfoLevel
	if o.verbose {
		level = zerolog.DebugLevel
	}

	noColor := !resolveColor(o.color)
	console := zerolog.ConsoleWriter{Out: o.out, NoColor: noColor, TimeFormat: "15:04:05"}
	logger := zerolog.New(console).Level(level).With().Timestamp().Logger()

	jobs := o.jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	return &Context{Logger: logger, Color: o.color, Jobs: jobs}
}

// resolveColor reports whether color should actually be emitted.
func resolveColor(mode ColorMode) bool {
	switch os.Getenv("CABIN_TERM_COLOR") {
	case "never":
		return false
	case "always":
		return true
	}
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	}
}

// Warn logs "Warning: <message>" at warn level through the logger and never
// returns an error, matching spec.md §7's distinction between warnings and
// errors.
func (c *Context) Warn(format string, args ...any) {
	c.Logger.Warn().Msg("Warning: " + fmt.Sprintf(format, args...))
}

// Status prints a Cargo-style "Compiling foo@1.0 (dir)" status line at Info
// level.
func (c *Context) Status(verb, label string) {
	c.Logger.Info().Msg(verb + " " + label)
}
