package semver

import "testing"

func TestCanonicalize(t *testing.T) {
	cases := map[string]string{
		"1":       "v1.0.0",
		"1.2":     "v1.2.0",
		"1.2.3":   "v1.2.3",
		"0.0.1":   "v0.0.1",
		"1.2.3-a": "v1.2.3-a",
	}
	for in, want := range cases {
		got, err := Canonicalize(in)
		if err != nil {
			t.Fatalf("Canonicalize(%q) error: %v", in, err)
		}
		if got != want {
			t.Errorf("Canonicalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCanonicalizeInvalid(t *testing.T) {
	for _, in := range []string{"", "a.b.c", "1.2.3.4", "-1.0.0"} {
		if Valid(in) {
			t.Errorf("expected %q to be invalid", in)
		}
	}
}

func TestCompare(t *testing.T) {
	if Compare("1.2.3", "1.2.4") >= 0 {
		t.Error("expected 1.2.3 < 1.2.4")
	}
	if Compare("2.0.0", "1.9.9") <= 0 {
		t.Error("expected 2.0.0 > 1.9.9")
	}
	if Compare("1.0", "1.0.0") != 0 {
		t.Error("expected 1.0 == 1.0.0")
	}
}

func TestMajorMinor(t *testing.T) {
	if Major("1.2.3") != 1 {
		t.Errorf("Major = %d", Major("1.2.3"))
	}
	if Minor("1.2.3") != 2 {
		t.Errorf("Minor = %d", Minor("1.2.3"))
	}
}
