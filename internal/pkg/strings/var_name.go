// Package strings provides string utility functions for identifiers and file names.
package strings

import (
	"path"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var lower = cases.Lower(language.Und)

func ToLowerCamel(s string) string {
	i := 0
	for i < len(s) && unicode.IsUpper(rune(s[i])) {
		i++
	}

	return strings.ToLower(s[:i]) + s[i:]
}

// ToSnake converts an identifier to snake_case.
// Acronyms stay together: "HTTPFunction" -> "http_function".
func ToSnake(s string) string {
	runes := []rune(s)

	var b strings.Builder
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(r)
	}

	return lower.String(b.String())
}

var (
	majorVersion = regexp.MustCompile(`^v[0-9]+$`)
	nonIdent     = regexp.MustCompile(`[^A-Za-z0-9_]+`)
)

// PackageName guesses the package name of an import path the way the go
// command names it by default: the last element, skipping a major version
// suffix, sanitized to an identifier.
func PackageName(importPath string) string {
	importPath = strings.TrimSuffix(importPath, "/")
	base := path.Base(importPath)
	if majorVersion.MatchString(base) {
		if parent := path.Dir(importPath); parent != "." && parent != "/" {
			base = path.Base(parent)
		}
	}

	name := nonIdent.ReplaceAllString(lower.String(base), "_")
	name = strings.Trim(name, "_")
	if name == "" {
		return "pkg"
	}
	if unicode.IsDigit(rune(name[0])) {
		name = "p" + name
	}

	return name
}
