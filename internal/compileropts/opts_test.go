package compileropts

import "testing"

func TestMergeDedupLibsFirstOccurrence(t *testing.T) {
	a := CompilerOpts{LDFlags: LDFlags{Libs: []Lib{{Name: "z"}, {Name: "a"}}}}
	b := CompilerOpts{LDFlags: LDFlags{Libs: []Lib{{Name: "a"}, {Name: "b"}}}}

	merged := Merge(a, b)
	var names []string
	for _, l := range merged.LDFlags.Libs {
		names = append(names, l.Name)
	}
	want := []string{"z", "a", "b"}
	if len(names) != len(want) {
		t.Fatalf("got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("got %v, want %v", names, want)
		}
	}
}

func TestMergeConcatenatesOthers(t *testing.T) {
	a := CompilerOpts{CFlags: CFlags{Others: []string{"-Wall"}}}
	b := CompilerOpts{CFlags: CFlags{Others: []string{"-Wextra"}}}
	merged := Merge(a, b)
	if len(merged.CFlags.Others) != 2 {
		t.Fatalf("got %v", merged.CFlags.Others)
	}
}

func TestMergeEmptyIsIdentity(t *testing.T) {
	a := CompilerOpts{
		CFlags: CFlags{
			Macros:      []Macro{{Name: "X", Value: "1"}},
			IncludeDirs: []IncludeDir{{Path: "/inc"}},
			Others:      []string{"-O2"},
		},
		LDFlags: LDFlags{LibDirs: []string{"/lib"}, Libs: []Lib{{Name: "foo"}}, Others: []string{"-pthread"}},
	}
	merged := Merge(a, CompilerOpts{})
	if len(merged.CFlags.Macros) != 1 || len(merged.CFlags.IncludeDirs) != 1 || len(merged.CFlags.Others) != 1 {
		t.Fatalf("cflags changed: %+v", merged.CFlags)
	}
	if len(merged.LDFlags.LibDirs) != 1 || len(merged.LDFlags.Libs) != 1 || len(merged.LDFlags.Others) != 1 {
		t.Fatalf("ldflags changed: %+v", merged.LDFlags)
	}
}

func TestMergeAll(t *testing.T) {
	a := CompilerOpts{LDFlags: LDFlags{Libs: []Lib{{Name: "a"}}}}
	b := CompilerOpts{LDFlags: LDFlags{Libs: []Lib{{Name: "b"}}}}
	c := CompilerOpts{LDFlags: LDFlags{Libs: []Lib{{Name: "a"}}}}
	merged := MergeAll(a, b, c)
	if len(merged.LDFlags.Libs) != 2 {
		t.Fatalf("got %+v", merged.LDFlags.Libs)
	}
}
