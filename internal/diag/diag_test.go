package diag

import (
	"bytes"
	"os"
	"testing"
)

func TestNewDefaults(t *testing.T) {
	var buf bytes.Buffer
	c := New(WithOutput(&buf))
	if c.Jobs <= 0 {
		t.Errorf("Jobs = %d, want > 0", c.Jobs)
	}
	if c.Color != ColorAuto {
		t.Errorf("Color = %v, want ColorAuto", c.Color)
	}
}

func TestNewJobsOverride(t *testing.T) {
	var buf bytes.Buffer
	c := New(WithOutput(&buf), WithJobs(4))
	if c.Jobs != 4 {
		t.Errorf("Jobs = %d, want 4", c.Jobs)
	}
}

func TestNewJobsNonPositiveFallsBack(t *testing.T) {
	var buf bytes.Buffer
	c := New(WithOutput(&buf), WithJobs(0))
	if c.Jobs <= 0 {
		t.Errorf("Jobs = %d, want fallback > 0", c.Jobs)
	}
}

func TestResolveColorEnvOverride(t *testing.T) {
	t.Setenv("CABIN_TERM_COLOR", "never")
	if resolveColor(ColorAlways) {
		t.Error("CABIN_TERM_COLOR=never should win over ColorAlways")
	}

	t.Setenv("CABIN_TERM_COLOR", "always")
	if !resolveColor(ColorNever) {
		t.Error("CABIN_TERM_COLOR=always should win over ColorNever")
	}
}

func TestResolveColorExplicitModes(t *testing.T) {
	os.Unsetenv("CABIN_TERM_COLOR")
	if !resolveColor(ColorAlways) {
		t.Error("ColorAlways should resolve to true")
	}
	if resolveColor(ColorNever) {
		t.Error("ColorNever should resolve to false")
	}
}

func TestWarnAndStatusDoNotPanic(t *testing.T) {
	var buf bytes.Buffer
	c := New(WithOutput(&buf))
	c.Warn("heads up: %s", "something")
	c.Status("Compiling", "widget@1.0 (/tmp/widget)")
	if buf.Len() == 0 {
		t.Error("expected log output to be written")
	}
}
