package manifest

import "testing"

func TestValidateFlag(t *testing.T) {
	valid := []string{"-O2", "-Wall", "-std=c++20", "-DFOO=1", "-framework Metal", "-I."}
	for _, f := range valid {
		if err := ValidateFlag(f); err != nil {
			t.Errorf("ValidateFlag(%q): unexpected error: %v", f, err)
		}
	}
}

func TestValidateFlagInvalid(t *testing.T) {
	invalid := []string{"O2", "-framework  Metal", "-foo;bar", "-foo$bar", "-L/usr/lib"}
	for _, f := range invalid {
		if err := ValidateFlag(f); err == nil {
			t.Errorf("ValidateFlag(%q): expected error, got none", f)
		}
	}
}

func TestResolveProfileOverridesDefaults(t *testing.T) {
	overwrite := "overwrite"
	optLevel := 1
	got, err := resolveProfile(defaultDevProfile(), rawProfile{OptLevel: &optLevel, InheritMode: &overwrite})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.OptLevel != 1 {
		t.Fatalf("got OptLevel=%d", got.OptLevel)
	}
	if !got.Debug {
		t.Fatal("expected Debug to fall back to base (true)")
	}
}

func TestResolveProfileOptLevelRange(t *testing.T) {
	bad := 4
	if _, err := resolveProfile(defaultDevProfile(), rawProfile{OptLevel: &bad}); err == nil {
		t.Fatal("expected error for out-of-range opt-level")
	}
}

func TestResolveProfileInvalidInheritMode(t *testing.T) {
	bad := "merge"
	if _, err := resolveProfile(defaultDevProfile(), rawProfile{InheritMode: &bad}); err == nil {
		t.Fatal("expected error for invalid inherit-mode")
	}
}

func TestInheritTestAppend(t *testing.T) {
	dev := Profile{CxxFlags: []string{"-Wall"}, LdFlags: []string{"-pthread"}}
	test := Profile{CxxFlags: []string{"-DTEST"}, InheritMode: "append"}
	got := inheritTest(dev, test)
	if len(got.CxxFlags) != 2 || got.CxxFlags[0] != "-Wall" || got.CxxFlags[1] != "-DTEST" {
		t.Fatalf("got %v", got.CxxFlags)
	}
	if len(got.LdFlags) != 1 || got.LdFlags[0] != "-pthread" {
		t.Fatalf("got %v", got.LdFlags)
	}
}

func TestInheritTestOverwrite(t *testing.T) {
	dev := Profile{CxxFlags: []string{"-Wall"}, LdFlags: []string{"-pthread"}}
	test := Profile{CxxFlags: []string{"-DTEST"}, InheritMode: "overwrite"}
	got := inheritTest(dev, test)
	if len(got.CxxFlags) != 1 || got.CxxFlags[0] != "-DTEST" {
		t.Fatalf("got %v", got.CxxFlags)
	}
	// test specified no ldflags, so overwrite falls back to dev's.
	if len(got.LdFlags) != 1 || got.LdFlags[0] != "-pthread" {
		t.Fatalf("got %v", got.LdFlags)
	}
}

func TestInheritTestDefaultModeIsAppend(t *testing.T) {
	dev := Profile{CxxFlags: []string{"-Wall"}}
	test := Profile{CxxFlags: []string{"-DTEST"}}
	got := inheritTest(dev, test)
	if len(got.CxxFlags) != 2 {
		t.Fatalf("got %v", got.CxxFlags)
	}
}
