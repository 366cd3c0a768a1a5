package manifest

import (
	"unicode"

	"github.com/yaito3014/cabin/internal/cabinerr"
)

// Edition is a C++ language-standard tag, stored as its canonical year.
type Edition int

const (
	Edition98 Edition = 1998
	Edition03 Edition = 2003
	Edition11 Edition = 2011
	Edition14 Edition = 2014
	Edition17 Edition = 2017
	Edition20 Edition = 2020
	Edition23 Edition = 2023
	Edition26 Edition = 2026
)

// editionSynonyms maps every accepted manifest spelling (years and the GCC
// pre-standardization synonyms) to its canonical Edition.
var editionSynonyms = map[string]Edition{
	"98": Edition98,
	"03": Edition03,
	"11": Edition11, "0x": Edition11,
	"14": Edition14, "1y": Edition14,
	"17": Edition17, "1z": Edition17,
	"20": Edition20, "2a": Edition20,
	"23": Edition23, "2b": Edition23,
	"26": Edition26, "2c": Edition26,
}

// ParseEdition resolves a manifest edition string to its canonical Edition,
// folding year synonyms (e.g. "0x" and "11" both become Edition11).
func ParseEdition(s string) (Edition, error) {
	e, ok := editionSynonyms[s]
	if !ok {
		return 0, cabinerr.Newf(cabinerr.Manifest, "unrecognized edition %q", s)
	}
	return e, nil
}

// Less reports whether e precedes other in year order.
func (e Edition) Less(other Edition) bool { return e < other }

// reservedKeywords is the closed set of C++ keywords a package name may not
// collide with.
var reservedKeywords = map[string]bool{
	"alignas": true, "alignof": true, "and": true, "and_eq": true, "asm": true,
	"auto": true, "bitand": true, "bitor": true, "bool": true, "break": true,
	"case": true, "catch": true, "char": true, "char8_t": true, "char16_t": true,
	"char32_t": true, "class": true, "compl": true, "concept": true, "const": true,
	"consteval": true, "constexpr": true, "constinit": true, "const_cast": true,
	"continue": true, "co_await": true, "co_return": true, "co_yield": true,
	"decltype": true, "default": true, "delete": true, "do": true, "double": true,
	"dynamic_cast": true, "else": true, "enum": true, "explicit": true, "export": true,
	"extern": true, "false": true, "float": true, "for": true, "friend": true,
	"goto": true, "if": true, "inline": true, "int": true, "long": true,
	"mutable": true, "namespace": true, "new": true, "noexcept": true, "not": true,
	"not_eq": true, "nullptr": true, "operator": true, "or": true, "or_eq": true,
	"private": true, "protected": true, "public": true, "register": true,
	"reinterpret_cast": true, "requires": true, "return": true, "short": true,
	"signed": true, "sizeof": true, "static": true, "static_assert": true,
	"static_cast": true, "struct": true, "switch": true, "template": true,
	"this": true, "thread_local": true, "throw": true, "true": true, "try": true,
	"typedef": true, "typeid": true, "typename": true, "union": true,
	"unsigned": true, "using": true, "virtual": true, "void": true, "volatile": true,
	"wchar_t": true, "while": true, "xor": true, "xor_eq": true,
}

// ValidatePackageName enforces spec.md §3's package-name rule: lowercase
// letters/digits/dash/underscore, start with a letter, end with letter or
// digit, length at least 2, and not a reserved C++ keyword.
func ValidatePackageName(name string) error {
	if len(name) < 2 {
		return cabinerr.Newf(cabinerr.Manifest, "package name %q is too short (minimum 2 characters)", name)
	}
	if reservedKeywords[name] {
		return cabinerr.Newf(cabinerr.Manifest, "package name %q collides with a reserved C++ keyword", name)
	}
	runes := []rune(name)
	if !isLower(runes[0]) {
		return cabinerr.Newf(cabinerr.Manifest, "package name %q must start with a lowercase letter", name)
	}
	last := runes[len(runes)-1]
	if !isLower(last) && !unicode.IsDigit(last) {
		return cabinerr.Newf(cabinerr.Manifest, "package name %q must end with a letter or digit", name)
	}
	for _, r := range runes {
		if !isLower(r) && !unicode.IsDigit(r) && r != '-' && r != '_' {
			return cabinerr.Newf(cabinerr.Manifest, "package name %q contains invalid character %q", name, r)
		}
	}
	return nil
}

func isLower(r rune) bool {
	return r >= 'a' && r <= 'z'
}

// Package is the [package] table of a manifest.
type Package struct {
	Name    string
	Version string
	Edition Edition
	Authors []string
}
