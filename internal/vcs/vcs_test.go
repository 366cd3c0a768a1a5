package vcs

import (
	"context"
	"errors"
	"testing"

	"github.com/yaito3014/cabin/internal/proc"
)

func TestGit_Sync_ClonesWhenAbsent(t *testing.T) {
	fake := proc.NewFake()
	dir := t.TempDir() + "/dep"
	fake.On("git clone --depth 1 --branch v1.3.0 https://example.com/dep.git "+dir, proc.Response{})

	g := New(fake)
	if err := g.Sync(context.Background(), "https://example.com/dep.git", "v1.3.0", dir); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	calls := fake.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d: %v", len(calls), calls)
	}
}

func TestGit_Sync_ClonePlainWithoutTarget(t *testing.T) {
	fake := proc.NewFake()
	dir := t.TempDir() + "/dep"
	fake.On("git clone --depth 1 https://example.com/dep.git "+dir, proc.Response{})

	g := New(fake)
	if err := g.Sync(context.Background(), "https://example.com/dep.git", "", dir); err != nil {
		t.Fatalf("Sync: %v", err)
	}
}

func TestGit_Sync_FallsBackToCheckoutForBareRev(t *testing.T) {
	fake := proc.NewFake()
	dir := t.TempDir() + "/dep"
	rev := "abc1234"
	fake.On("git clone --depth 1 --branch "+rev+" https://example.com/dep.git "+dir,
		proc.Response{Err: errors.New("unknown revision")})
	fake.On("git clone https://example.com/dep.git "+dir, proc.Response{})
	fake.On("git checkout "+rev, proc.Response{})

	g := New(fake)
	if err := g.Sync(context.Background(), "https://example.com/dep.git", rev, dir); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	calls := fake.Calls()
	if len(calls) != 3 {
		t.Fatalf("expected 3 calls, got %d: %v", len(calls), calls)
	}
}

func TestGit_HeadCommit(t *testing.T) {
	fake := proc.NewFake()
	fake.OnStdout("git rev-parse HEAD", "deadbeef\n")

	g := New(fake)
	hash, err := g.HeadCommit(context.Background(), "/some/dir")
	if err != nil {
		t.Fatalf("HeadCommit: %v", err)
	}
	if hash != "deadbeef" {
		t.Errorf("HeadCommit() = %q, want %q", hash, "deadbeef")
	}
}
