package verreq

import "testing"

func TestParseAndMatchCaret(t *testing.T) {
	r, err := Parse("^1.2.3")
	if err != nil {
		t.Fatal(err)
	}
	if !r.Matches("1.2.3") || !r.Matches("1.9.0") {
		t.Error("caret should allow compatible upgrades within major")
	}
	if r.Matches("2.0.0") {
		t.Error("caret should reject major bump")
	}
	if r.Matches("1.2.2") {
		t.Error("caret should reject downgrade")
	}
}

func TestParseAndMatchCaretZeroMajor(t *testing.T) {
	r, err := Parse("^0.2.3")
	if err != nil {
		t.Fatal(err)
	}
	if !r.Matches("0.2.5") {
		t.Error("0.x caret should allow patch bumps within same minor")
	}
	if r.Matches("0.3.0") {
		t.Error("0.x caret should reject minor bump")
	}
}

func TestTilde(t *testing.T) {
	r, err := Parse("~1.2.3")
	if err != nil {
		t.Fatal(err)
	}
	if !r.Matches("1.2.9") {
		t.Error("tilde should allow patch bump")
	}
	if r.Matches("1.3.0") {
		t.Error("tilde should reject minor bump")
	}
}

func TestCommaTerms(t *testing.T) {
	r, err := Parse(">=1.0, <2.0")
	if err != nil {
		t.Fatal(err)
	}
	if !r.Matches("1.5.0") {
		t.Error("expected 1.5.0 to match")
	}
	if r.Matches("2.0.0") {
		t.Error("expected 2.0.0 to be excluded")
	}
}

func TestStringRendering(t *testing.T) {
	r, err := Parse(">=1.2, <2.0")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := r.String(), ">= 1.2.0, < 2.0.0"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestStringRenderingCaret(t *testing.T) {
	r, err := Parse("^1.2.3")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := r.String(), ">= 1.2.3, < 2.0.0"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestStringRenderingCaretZeroMajor(t *testing.T) {
	r, err := Parse("^0.2.3")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := r.String(), ">= 0.2.3, < 0.3.0"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestStringRenderingTilde(t *testing.T) {
	r, err := Parse("~1.2.3")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := r.String(), ">= 1.2.3, < 1.3.0"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestParseInvalid(t *testing.T) {
	for _, s := range []string{"", "^", "^abc", ",", "^1.2,"} {
		if _, err := Parse(s); err == nil {
			t.Errorf("expected Parse(%q) to fail", s)
		}
	}
}
