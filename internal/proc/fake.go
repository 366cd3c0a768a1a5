package proc

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/yaito3014/cabin/internal/cabinerr"
)

// Call records one invocation seen by a FakeRunner.
type Call struct {
	Dir  string
	Env  []string
	Name string
	Args []string
}

// Response is a canned answer for a FakeRunner.
type Response struct {
	Result Result
	Err    error
}

// FakeRunner is a Runner backed by a table of canned responses keyed by the
// exact "name arg1 arg2 ..." command line; an unregistered command line gets
// Default when Default is set, and an error otherwise. Every higher-level
// package's unit tests use this instead of shelling out.
type FakeRunner struct {
	mu        sync.Mutex
	responses map[string]Response
	calls     []Call
	Default   Response
}

func NewFake() *FakeRunner {
	return &FakeRunner{responses: make(map[string]Response)}
}

// On registers the response for an exact "name arg1 arg2..." command line.
func (f *FakeRunner) On(cmdline string, res Response) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[cmdline] = res
	return f
}

// OnStdout is a shorthand for the common case of returning captured stdout
// with no error.
func (f *FakeRunner) OnStdout(cmdline, stdout string) *FakeRunner {
	return f.On(cmdline, Response{Result: Result{Stdout: stdout}})
}

func (f *FakeRunner) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

func (f *FakeRunner) Run(_ context.Context, dir string, env []string, name string, args ...string) (Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Dir: dir, Env: env, Name: name, Args: append([]string(nil), args...)})
	key := name
	if len(args) > 0 {
		key = name + " " + strings.Join(args, " ")
	}
	res, ok := f.responses[key]
	def := f.Default
	f.mu.Unlock()

	if ok {
		return res.Result, res.Err
	}
	if def.Err != nil || def.Result.Stdout != "" || def.Result.Stderr != "" {
		return def.Result, def.Err
	}
	return Result{}, cabinerr.Newf(cabinerr.Process, "fake runner: no response registered for %q", key)
}

var _ fmt.Stringer = Call{}

func (c Call) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}
