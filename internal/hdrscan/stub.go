// Completion: 100% - Stub generation complete
package hdrscan

import (
	"strings"
)

// Declaration is a source line containing '(' reduced to the parts the
// classifier needs.
type Declaration struct {
	Terms   []string // Tokens before '(' with the name token last, as written
	Name    string   // Function name without the pointer star
	Pointer bool     // Name token carried a leading '*'
	Params  string   // Text between the parentheses
	Closed  bool     // The parameter list closes on this line
	sig     string   // "(...)" exactly as written
}

// parseDeclaration splits line at its first '('. It returns false when
// there are fewer than two tokens in front of the parenthesis.
func parseDeclaration(line string) (Declaration, bool) {
	open := strings.IndexByte(line, '(')
	if open < 0 {
		return Declaration{}, false
	}
	terms := strings.Fields(line[:open])
	if len(terms) < 2 {
		return Declaration{}, false
	}
	d := Declaration{Terms: terms, Name: terms[len(terms)-1]}
	if strings.HasPrefix(d.Name, "*") {
		d.Name = d.Name[1:]
		d.Pointer = true
	}
	if closing := matchParen(line, open); closing > 0 {
		d.Closed = true
		d.Params = line[open+1 : closing]
		d.sig = line[open : closing+1]
	}
	return d, true
}

// Qualifier returns the first token, e.g. "static" or "extern"
func (d Declaration) Qualifier() string {
	return d.Terms[0]
}

// ReturnType returns the tokens between the first two qualifiers and the
// name: "static inline unsigned int *foo" -> "unsigned int".
func (d Declaration) ReturnType() string {
	if len(d.Terms) < 4 {
		return ""
	}
	return strings.Join(d.Terms[2:len(d.Terms)-1], " ")
}

// StubName is the name of the generated forwarding function
func (d Declaration) StubName() string {
	return "stub_" + d.Name
}

// returnsValue is false only for a plain void function
func (d Declaration) returnsValue() bool {
	return d.Pointer || d.ReturnType() != "void"
}

// Stub renders the forwarding function for a static declaration:
//
//	int stub_bar (int x)
//	    {
//	    return bar (x);
//	    }
func (d Declaration) Stub() string {
	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(d.ReturnType())
	sb.WriteString(" ")
	if d.Pointer {
		sb.WriteString("*")
	}
	sb.WriteString(d.StubName())
	sb.WriteString(" ")
	sb.WriteString(d.sig)
	sb.WriteString("\n    {\n    ")
	if d.returnsValue() {
		sb.WriteString("return ")
	}
	sb.WriteString(d.Name)
	sb.WriteString(" (")
	sb.WriteString(ForwardArgs(d.Params))
	sb.WriteString(");\n    }\n")
	return sb.String()
}

// ForwardArgs rebuilds the argument list of a call from a parameter list:
// "int a, void (*cb)(int), void" -> "a, cb".
func ForwardArgs(params string) string {
	var args []string
	for _, p := range splitParams(params) {
		if name := argName(p); name != "" {
			args = append(args, name)
		}
	}
	return strings.Join(args, ", ")
}

// argName returns the identifier a single parameter declares. "void" and
// empty parameters give "".
func argName(param string) string {
	p := strings.TrimSpace(param)
	if p == "" {
		return ""
	}
	var name string
	if strings.HasSuffix(p, ")") {
		// Function pointer: void (*cb)(int)
		start := strings.Index(p, "(*")
		if start >= 0 {
			start += 2
		} else if start = strings.IndexByte(p, '('); start >= 0 {
			start++
		} else {
			return ""
		}
		end := strings.IndexByte(p[start:], ')')
		if end < 0 {
			return ""
		}
		name = strings.TrimSpace(p[start : start+end])
	} else {
		fields := strings.Fields(p)
		name = fields[len(fields)-1]
		if n := strings.IndexByte(name, '['); n >= 0 {
			name = name[:n]
		}
	}
	name = strings.ReplaceAll(name, "*", "")
	if name == "void" {
		return ""
	}
	return strings.TrimSpace(name)
}

// splitParams splits a parameter list on the commas that are not nested
// inside parentheses.
func splitParams(params string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(params); i++ {
		switch params[i] {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, params[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, params[start:])
}

// matchParen returns the index of the ')' closing the '(' at open, or -1
func matchParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
