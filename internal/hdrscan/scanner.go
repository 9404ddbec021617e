// Completion: 100% - Header scanner complete
package hdrscan

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// scanner.go - Line oriented C header scanner
//
// The scanner is not a C parser. It classifies each physical line as a
// comment, a preprocessor directive or code, keeps track of #if nesting and
// brace depth, and looks at code lines containing '(' for function
// declarations. Top-level declarations are written to the symbol stream.
// Static declarations get a forwarding stub written to the stub stream.

// maxLineLength bounds a single header line
const maxLineLength = 1024 * 1024

// Symbol is one exported routine. Target differs from Name only when a stub
// was generated for it.
type Symbol struct {
	Name   string
	Target string
}

func (s Symbol) String() string {
	if s.Target == "" || s.Target == s.Name {
		return s.Name
	}
	return s.Name + "\t" + s.Target
}

// Scanner holds the state for scanning one header file
type Scanner struct {
	Path    string // Header path as given in the manifest
	Include string // Name used in the stub's #include line

	macros  *MacroTable
	cond    *Conditions
	exclude map[string]bool

	depth     int    // Brace depth, 0 at file scope
	prefix    string // Start of a logical line continued on the next one
	inComment bool

	symbols           io.Writer
	stubs             io.Writer
	wroteSymbolBanner bool
	wroteStubBanner   bool
	emitted           []Symbol
	err               error
}

// NewScanner creates a scanner for the header at path. Symbols and stubs
// are written to the two streams as they are found.
func NewScanner(path string, macros *MacroTable, symbols, stubs io.Writer) *Scanner {
	return &Scanner{
		Path:    path,
		Include: includeName(path),
		macros:  macros,
		cond:    NewConditions(macros),
		exclude: make(map[string]bool),
		symbols: symbols,
		stubs:   stubs,
	}
}

// includeName strips everything up to and including "/include/"
func includeName(path string) string {
	if n := strings.Index(path, "/include/"); n >= 0 {
		return path[n+len("/include/"):]
	}
	return path
}

// Define handles a manifest %define line for this header
func (s *Scanner) Define(line string) {
	s.macros.DefineDirective(line)
}

// Exclude stops name from being exported or stubbed
func (s *Scanner) Exclude(name string) {
	name = strings.TrimSpace(name)
	if name != "" {
		s.exclude[name] = true
	}
}

// Depth returns the current brace depth
func (s *Scanner) Depth() int {
	return s.depth
}

// Symbols returns the symbols emitted so far
func (s *Scanner) Symbols() []Symbol {
	return s.emitted
}

// ScanFile opens the header at Path and scans it
func (s *Scanner) ScanFile() error {
	f, err := os.Open(s.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	return s.Scan(f)
}

// Scan processes every line of r
func (s *Scanner) Scan(r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	for sc.Scan() {
		s.ScanLine(sc.Text())
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", s.Path, err)
	}
	return s.err
}

// ScanLine advances the scanner by one physical line
func (s *Scanner) ScanLine(raw string) {
	line := s.prefix + strings.TrimSpace(raw)
	s.prefix = ""

	switch {
	case s.inComment:
		if strings.HasSuffix(line, "*/") {
			s.inComment = false
		}
	case strings.HasPrefix(line, "/*"):
		s.inComment = !strings.HasSuffix(line, "*/")
	case strings.HasPrefix(line, "//"):
	case strings.HasPrefix(line, "#"):
		if strings.HasSuffix(line, "\\") {
			s.prefix = line[:len(line)-1]
			return
		}
		s.directive(line)
	case s.cond.Active():
		s.code(cleanLine(line))
	}
}

func (s *Scanner) directive(line string) {
	name, body := parseDirective(line)
	switch name {
	case "ifdef":
		s.cond.Ifdef(body)
	case "ifndef":
		s.cond.Ifndef(body)
	case "if":
		s.cond.If(body)
	case "elseif":
		s.cond.ElseIf(body)
	case "else":
		s.cond.Else()
	case "endif":
		s.cond.Endif()
	case "define":
		// Applied in inactive branches too
		s.macros.Define(body)
	}
}

func (s *Scanner) code(line string) {
	s.depth += strings.Count(line, "{")
	if strings.HasPrefix(line, `extern "C"`) && strings.HasSuffix(line, "{") {
		s.depth--
	}
	if strings.Contains(line, "(") {
		s.declaration(line)
	}
	s.depth -= strings.Count(line, "}")
	if s.depth < 0 {
		s.depth = 0
	}
}

// skipName reports names that are never exported
func (s *Scanner) skipName(token string) bool {
	return strings.HasPrefix(token, "__") ||
		strings.HasPrefix(token, "weak") ||
		strings.HasSuffix(token, "_unsafe") ||
		s.exclude[strings.TrimPrefix(token, "*")]
}

func (s *Scanner) declaration(line string) {
	d, ok := parseDeclaration(line)
	if !ok || !isIdentifier(d.Name) || s.skipName(d.Terms[len(d.Terms)-1]) {
		return
	}

	switch q := d.Qualifier(); {
	// extern prototypes are exported: `extern void foo(void);` must give foo
	case s.depth == 0 && q != "static" && q != "typedef":
		s.emit(Symbol{Name: d.Name, Target: d.Name})
	case q == "static" && len(d.Terms) > 3:
		if !d.Closed {
			// Parameter list continues on the next line
			s.prefix = line + " "
			return
		}
		if !s.wroteStubBanner {
			s.write(s.stubs, "\n#include \""+s.Include+"\"\n")
			s.wroteStubBanner = true
		}
		s.write(s.stubs, d.Stub())
		s.emit(Symbol{Name: d.Name, Target: d.StubName()})
	}
}

func (s *Scanner) emit(sym Symbol) {
	if !s.wroteSymbolBanner {
		s.write(s.symbols, "#\n# From file "+s.Path+"\n")
		s.wroteSymbolBanner = true
	}
	s.write(s.symbols, sym.String()+"\n")
	s.emitted = append(s.emitted, sym)
}

func (s *Scanner) write(w io.Writer, text string) {
	if w == nil || s.err != nil {
		return
	}
	if _, err := io.WriteString(w, text); err != nil {
		s.err = err
	}
}

// typeWords can end up in the name position of function pointer
// variables such as "extern void (*handler)(int);"
var typeWords = map[string]bool{
	"void": true, "char": true, "short": true, "int": true, "long": true,
	"float": true, "double": true, "signed": true, "unsigned": true,
	"const": true, "volatile": true, "struct": true, "union": true, "enum": true,
	"return": true, "if": true, "while": true, "for": true, "switch": true, "sizeof": true,
}

func isIdentifier(name string) bool {
	if name == "" || typeWords[name] {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
