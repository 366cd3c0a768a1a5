// Package proc wraps external process invocation behind one narrow
// interface so every caller (git, pkg-config, the compiler, ar, ninja) goes
// through the same spawn/capture/error-translation path and can be faked in
// tests without shelling out. The shape follows the teacher's exec.Command
// wrapping in x/autotools and pkgs/buildsys/cmake (stdout/stderr buffers,
// explicit dir, explicit env merge).
package proc

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/yaito3014/cabin/internal/cabinerr"
)

// Result captures everything a caller needs from a finished process.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner spawns external programs and captures their output.
type Runner interface {
	// Run spawns name with args. dir == "" inherits the current working
	// directory; env == nil inherits os.Environ(). A non-zero exit status
	// is returned as a *cabinerr.Error of kind Process wrapping the
	// underlying *exec.ExitError.
	Run(ctx context.Context, dir string, env []string, name string, args ...string) (Result, error)
}

type execRunner struct{}

// New returns a Runner that actually spawns processes via os/exec.
func New() Runner {
	return execRunner{}
}

func (r execRunner) Run(ctx context.Context, dir string, env []string, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	if env != nil {
		cmd.Env = env
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}

	if err == nil {
		return res, nil
	}

	if exitErr, ok := err.(*exec.ExitError); ok {
		res.ExitCode = exitErr.ExitCode()
		msg := strings.TrimSpace(res.Stderr)
		if msg == "" {
			msg = err.Error()
		}
		return res, cabinerr.Wrapf(err, cabinerr.Process, "%s %s: %s", name, strings.Join(args, " "), msg)
	}

	return res, cabinerr.Wrapf(err, cabinerr.Process, "%s %s", name, strings.Join(args, " "))
}

// MergeEnv returns base with every key in overrides replaced or appended,
// deterministically ordered by first occurrence in base then overrides.
// Grounded on x/autotools.mergeEnv / pkgs/buildsys/cmake.mergeEnv.
func MergeEnv(base []string, overrides map[string]string) []string {
	idx := make(map[string]int, len(base))
	out := make([]string, len(base))
	copy(out, base)
	for i, kv := range out {
		if k, _, ok := strings.Cut(kv, "="); ok {
			idx[k] = i
		}
	}
	for k, v := range overrides {
		if i, ok := idx[k]; ok {
			out[i] = k + "=" + v
		} else {
			idx[k] = len(out)
			out = append(out, k+"="+v)
		}
	}
	return out
}
