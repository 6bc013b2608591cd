// Package emit serializes a build record to a TypeScript constant
// declaration and writes it to the destination file.
package emit

import (
	"fmt"
	"os"
	"strings"

	"github.com/juriadams/angular-build-info/internal/record"
)

// Header is the single-line notice prepended to every generated file.
const Header = "// This file was automatically generated by build-info. Do not edit it by hand."

const indent = "    "

// Serialize renders the record as an exported, immutable TypeScript
// constant. The output is byte-deterministic for a fixed record: keys in
// insertion order, bare identifiers where valid, double-quoted string
// values, and `undefined` for absent values.
func Serialize(rec record.Record) string {
	var b strings.Builder
	b.WriteString(Header)
	b.WriteString("\n")
	b.WriteString("export const buildInfo = {\n")
	for _, f := range rec.Fields {
		b.WriteString(indent)
		b.WriteString(renderKey(f.Key))
		b.WriteString(": ")
		if f.Value.OK {
			b.WriteString(quote(f.Value.Str))
		} else {
			b.WriteString("undefined")
		}
		b.WriteString(",\n")
	}
	b.WriteString("} as const;\n")
	return b.String()
}

// Write replaces the destination file's contents in full, creating the
// file if absent. Missing parent directories are not created; that
// failure surfaces as the returned error.
func Write(path, text string) error {
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func renderKey(key string) string {
	if isIdentifier(key) {
		return key
	}
	return quote(key)
}

func isIdentifier(key string) bool {
	if key == "" {
		return false
	}
	for i, r := range key {
		switch {
		case r == '_' || r == '$':
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
