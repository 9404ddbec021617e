package hdrscan

import (
	"strings"
	"unicode"
)

// cleanLine removes a trailing /* or // comment and surrounding space. A
// comment marker in column 0 is left alone; whole-line comments are handled
// by the scanner before a line gets here.
func cleanLine(s string) string {
	n := strings.Index(s, "/*")
	if n < 0 {
		n = strings.Index(s, "//")
	}
	if n > 0 {
		s = s[:n]
	}
	return strings.TrimSpace(s)
}

// splitFirstWord splits s at its first run of white space
func splitFirstWord(s string) (string, string) {
	s = strings.TrimSpace(s)
	n := strings.IndexFunc(s, unicode.IsSpace)
	if n < 0 {
		return s, ""
	}
	return s[:n], strings.TrimSpace(s[n:])
}

// directiveBody returns everything after the first word of a directive line,
// with any trailing comment removed: "#ifdef FOO // x" -> "FOO".
func directiveBody(line string) string {
	_, body := splitFirstWord(cleanLine(line))
	return body
}

// parseDirective splits a preprocessor line into its directive name and
// body: "#ifdef FOO" -> ("ifdef", "FOO"). White space between '#' and the
// name is allowed.
func parseDirective(line string) (string, string) {
	line = strings.TrimSpace(strings.TrimPrefix(cleanLine(line), "#"))
	n := 0
	for n < len(line) && (line[n] >= 'a' && line[n] <= 'z' || line[n] >= 'A' && line[n] <= 'Z') {
		n++
	}
	return line[:n], strings.TrimSpace(line[n:])
}
