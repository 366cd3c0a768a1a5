package proc

import (
	"context"
	"testing"

	"github.com/yaito3014/cabin/internal/cabinerr"
)

func TestExecRunner(t *testing.T) {
	r := New()
	res, err := r.Run(context.Background(), "", nil, "echo", "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Stdout != "hello\n" {
		t.Fatalf("got stdout %q", res.Stdout)
	}
}

func TestExecRunnerNonZeroExit(t *testing.T) {
	r := New()
	_, err := r.Run(context.Background(), "", nil, "false")
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if kind, ok := cabinerr.KindOf(err); !ok || kind != cabinerr.Process {
		t.Fatalf("expected Process kind, got %v ok=%v", kind, ok)
	}
}

func TestMergeEnv(t *testing.T) {
	base := []string{"PATH=/usr/bin", "HOME=/root"}
	out := MergeEnv(base, map[string]string{"PATH": "/opt/bin", "NEW": "1"})
	want := map[string]string{"PATH": "/opt/bin", "HOME": "/root", "NEW": "1"}
	got := map[string]string{}
	for _, kv := range out {
		k, v, _ := cut(kv)
		got[k] = v
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("MergeEnv()[%q] = %q, want %q", k, got[k], v)
		}
	}
}

func cut(kv string) (string, string, bool) {
	for i := 0; i < len(kv); i++ {
		if kv[i] == '=' {
			return kv[:i], kv[i+1:], true
		}
	}
	return kv, "", false
}

func TestFakeRunner(t *testing.T) {
	fr := NewFake()
	fr.OnStdout("git --version", "git version 2.40.0\n")

	res, err := fr.Run(context.Background(), "", nil, "git", "--version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Stdout != "git version 2.40.0\n" {
		t.Fatalf("got %q", res.Stdout)
	}

	calls := fr.Calls()
	if len(calls) != 1 || calls[0].Name != "git" {
		t.Fatalf("unexpected calls: %+v", calls)
	}
}

func TestFakeRunnerUnregistered(t *testing.T) {
	fr := NewFake()
	_, err := fr.Run(context.Background(), "", nil, "git", "status")
	if err == nil {
		t.Fatal("expected error for unregistered command")
	}
}
