package ninjaplan

import (
	"strings"
	"unicode"
)

// writer renders Ninja syntax into a strings.Builder, wrapping long build/
// default lines on " $\n" continuations the way Ninja expects. Grounded on
// google-blueprint's ninja_writer.go, trimmed to the handful of directives
// cabin's plan actually emits (no pools, validations or sub-ninja files).
type writer struct {
	b strings.Builder
}

const (
	indentWidth = 2
	lineWidth   = 80
)

func (w *writer) Comment(s string) {
	for _, line := range strings.Split(s, "\n") {
		w.b.WriteString("# ")
		w.b.WriteString(strings.TrimRightFunc(line, unicode.IsSpace))
		w.b.WriteByte('\n')
	}
}

func (w *writer) BlankLine() { w.b.WriteByte('\n') }

func (w *writer) Rule(name string) {
	w.b.WriteString("rule ")
	w.b.WriteString(name)
	w.b.WriteByte('\n')
}

func (w *writer) ScopedAssign(name, value string) {
	w.b.WriteString(strings.Repeat(" ", indentWidth))
	w.b.WriteString(name)
	w.b.WriteString(" = ")
	w.b.WriteString(value)
	w.b.WriteByte('\n')
}

func (w *writer) Assign(name, value string) {
	w.b.WriteString(name)
	w.b.WriteString(" = ")
	w.b.WriteString(value)
	w.b.WriteByte('\n')
}

func (w *writer) Include(file string) {
	w.b.WriteString("include ")
	w.b.WriteString(file)
	w.b.WriteByte('\n')
}

// Build writes one "build" stanza. bindings are emitted as indented scoped
// assignments directly below it, in the order supplied.
func (w *writer) Build(outputs []string, rule string, inputs, implicit, orderOnly []string, bindingNames []string, bindings map[string]string) {
	lw := &lineWrapper{w: w, max: lineWidth - len(" $")}

	lw.write("build", false)
	for _, o := range outputs {
		lw.write(o, true)
	}
	lw.write(":", false)
	lw.write(rule, true)
	for _, in := range inputs {
		lw.write(in, true)
	}
	if len(implicit) > 0 {
		lw.write("|", true)
		for _, in := range implicit {
			lw.write(in, true)
		}
	}
	if len(orderOnly) > 0 {
		lw.write("||", true)
		for _, in := range orderOnly {
			lw.write(in, true)
		}
	}
	lw.flush()

	for _, name := range bindingNames {
		if v, ok := bindings[name]; ok {
			w.ScopedAssign(name, v)
		}
	}
}

func (w *writer) Phony(output string, inputs []string) {
	lw := &lineWrapper{w: w, max: lineWidth - len(" $")}
	lw.write("build", false)
	lw.write(output, true)
	lw.write(":", false)
	lw.write("phony", true)
	for _, in := range inputs {
		lw.write(in, true)
	}
	lw.flush()
}

func (w *writer) Default(targets []string) {
	lw := &lineWrapper{w: w, max: lineWidth - len(" $")}
	lw.write("default", false)
	for _, t := range targets {
		lw.write(t, true)
	}
	lw.flush()
}

func (w *writer) String() string { return w.b.String() }

// lineWrapper accumulates tokens onto one writer line, breaking onto a
// "$\n"-continued indented line once the running width would exceed max.
type lineWrapper struct {
	w       *writer
	max     int
	written int
}

func (l *lineWrapper) write(s string, withSpace bool) {
	spaceLen := 0
	if withSpace {
		spaceLen = 1
	}
	if l.written > 0 && l.written+len(s)+spaceLen > l.max {
		l.w.b.WriteString(" $\n")
		l.w.b.WriteString(strings.Repeat(" ", indentWidth*2))
		l.written = indentWidth * 2
		l.w.b.WriteString(s)
		l.written += len(s)
		return
	}
	if withSpace {
		l.w.b.WriteByte(' ')
		l.written++
	}
	l.w.b.WriteString(s)
	l.written += len(s)
}

func (l *lineWrapper) flush() { l.w.b.WriteByte('\n') }

// escape applies Ninja's path-escaping rules: literal '$' and ' ' must be
// dollar-escaped since both are syntactically significant.
func escape(s string) string {
	s = strings.ReplaceAll(s, "$", "$$")
	s = strings.ReplaceAll(s, " ", "$ ")
	return s
}

func escapeAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = escape(s)
	}
	return out
}
