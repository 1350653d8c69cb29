package matcher

import "regexp"

// Pattern fragments are built from registry-derived literals. Every literal
// goes through regexp.QuoteMeta so registry data is never interpreted as
// pattern syntax, and a pattern that still fails to compile matches nothing
// rather than failing the scan.

func compilePattern(expr string) *regexp.Regexp {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil
	}
	return re
}

// namePattern matches a source name in normalized text. Uncommon names
// match as whole words anywhere; common names are restricted to three
// high-precision surfaces: "name:" anchored at the start of the text,
// [name] and (name).
func namePattern(nameNormalized string, nameIsCommon bool) *regexp.Regexp {
	q := regexp.QuoteMeta(nameNormalized)
	if nameIsCommon {
		return compilePattern(`^` + q + `:|\[` + q + `\]|\(` + q + `\)`)
	}
	return compilePattern(`(?:^|\W)` + q + `(?:\W|$)`)
}

// handlePattern matches a social handle in normalized text. A bare handle
// in running prose never matches: it needs the start-of-text colon anchor
// (with optional leading @), a preceding @, or bracket/paren enclosure.
func handlePattern(handleNormalized string) *regexp.Regexp {
	q := regexp.QuoteMeta(handleNormalized)
	return compilePattern(`^@?` + q + `:|@` + q + `(?:\W|$)|\[` + q + `\]|\(` + q + `\)`)
}
