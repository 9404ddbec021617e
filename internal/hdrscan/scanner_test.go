package hdrscan

import (
	"strings"
	"testing"
)

// scan runs a scanner over header text and returns both output streams
func scan(t *testing.T, macros *MacroTable, header string, exclude ...string) (string, string, *Scanner) {
	t.Helper()
	var symbols, stubs strings.Builder
	if macros == nil {
		macros = NewMacroTable()
	}
	s := NewScanner("sdk/include/pico/test.h", macros, &symbols, &stubs)
	for _, name := range exclude {
		s.Exclude(name)
	}
	if err := s.Scan(strings.NewReader(header)); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	return symbols.String(), stubs.String(), s
}

func names(s *Scanner) []string {
	var out []string
	for _, sym := range s.Symbols() {
		out = append(out, sym.String())
	}
	return out
}

func TestSeededIfdef(t *testing.T) {
	m := NewMacroTable()
	m.Define("FEATURE_X 1")
	symbols, _, _ := scan(t, m, "#ifdef FEATURE_X\nextern void foo(void);\n#endif\n")
	if !strings.Contains(symbols, "\nfoo\n") {
		t.Errorf("symbols = %q, want foo", symbols)
	}
	if !strings.HasPrefix(symbols, "#\n# From file sdk/include/pico/test.h\n") {
		t.Errorf("symbols = %q, want file banner first", symbols)
	}
}

func TestInactiveBranchHidden(t *testing.T) {
	header := `#ifdef MISSING
void hidden(void);
#else
void shown(void);
#endif
`
	_, _, s := scan(t, nil, header)
	got := strings.Join(names(s), ",")
	if got != "shown" {
		t.Errorf("symbols = %q, want shown", got)
	}
}

func TestStaticInlineStub(t *testing.T) {
	symbols, stubs, _ := scan(t, nil, "static inline int bar(int x) { return x; }\n")
	wantStub := "int stub_bar (int x)\n    {\n    return bar (x);\n    }"
	if !strings.Contains(stubs, wantStub) {
		t.Errorf("stubs = %q, want %q", stubs, wantStub)
	}
	if !strings.HasPrefix(stubs, "\n#include \"pico/test.h\"\n") {
		t.Errorf("stubs = %q, want include banner", stubs)
	}
	if !strings.Contains(symbols, "bar\tstub_bar\n") {
		t.Errorf("symbols = %q, want bar<TAB>stub_bar", symbols)
	}
}

func TestStubVoidAndPointer(t *testing.T) {
	header := `static inline void set_led(bool on) {
}
static inline uint8_t *buffer_at(uint n) {
}
static inline void * raw_ptr(void) {
}
`
	_, stubs, _ := scan(t, nil, header)
	for _, want := range []string{
		"void stub_set_led (bool on)\n    {\n    set_led (on);\n    }",
		"uint8_t *stub_buffer_at (uint n)\n    {\n    return buffer_at (n);\n    }",
		"void * stub_raw_ptr (void)\n    {\n    return raw_ptr ();\n    }",
	} {
		if !strings.Contains(stubs, want) {
			t.Errorf("stubs = %q, missing %q", stubs, want)
		}
	}
	if n := strings.Count(stubs, "#include"); n != 1 {
		t.Errorf("stubs has %d include banners, want 1", n)
	}
}

func TestForwardArgs(t *testing.T) {
	tests := []struct {
		params string
		want   string
	}{
		{"int a, void (*cb)(int), void", "a, cb"},
		{"void", ""},
		{"", ""},
		{"const char *fmt, uint8_t **out", "fmt, out"},
		{"void (*handler)(uint gpio, uint32_t events), void *ctx", "handler, ctx"},
		{"int data[], size_t len", "data, len"},
	}
	for _, tt := range tests {
		if got := ForwardArgs(tt.params); got != tt.want {
			t.Errorf("ForwardArgs(%q) = %q, want %q", tt.params, got, tt.want)
		}
	}
}

func TestRejectedNames(t *testing.T) {
	header := `static inline int __private(int x) { return x; }
static inline int read_unsafe(int x) { return x; }
static inline int weak_symbol(int x) { return x; }
static inline int skipped(int x) { return x; }
void __hidden(void);
void excluded_too(void);
`
	symbols, stubs, s := scan(t, nil, header, "skipped", "excluded_too")
	if len(s.Symbols()) != 0 {
		t.Errorf("symbols = %q, want none", symbols)
	}
	if stubs != "" {
		t.Errorf("stubs = %q, want none", stubs)
	}
}

func TestTrivialStaticHasNoStub(t *testing.T) {
	_, stubs, s := scan(t, nil, "static void foo(int x);\nstatic int counter(void);\n")
	if stubs != "" || len(s.Symbols()) != 0 {
		t.Errorf("stubs = %q symbols = %v, want nothing", stubs, names(s))
	}
}

func TestTypedefAndInsideBraces(t *testing.T) {
	header := `typedef void (*irq_handler_t)(void);
typedef int (*compare_fn)(const void *a, const void *b);
extern void (*hook)(int);
int visible(void) {
    int inner(void);
    call_something(1);
}
int after(void);
`
	_, _, s := scan(t, nil, header)
	got := strings.Join(names(s), ",")
	if got != "after" {
		t.Errorf("symbols = %q, want after", got)
	}
}

func TestExternCDoesNotNest(t *testing.T) {
	header := `#ifdef __cplusplus
extern "C" {
#endif
extern "C" {
uint get_core_num(void);
}
`
	_, _, s := scan(t, nil, header)
	if got := strings.Join(names(s), ","); got != "get_core_num" {
		t.Errorf("symbols = %q, want get_core_num", got)
	}
}

func TestBraceDepthClamp(t *testing.T) {
	header := "}\n}\nvoid top_level(void);\n"
	_, _, s := scan(t, nil, header)
	if s.Depth() != 0 {
		t.Errorf("Depth() = %d, want 0", s.Depth())
	}
	if got := strings.Join(names(s), ","); got != "top_level" {
		t.Errorf("symbols = %q, want top_level", got)
	}
}

func TestComments(t *testing.T) {
	header := `/* block comment
void in_comment(void);
*/
// void line_comment(void);
/* one line */
void real(void); // trailing
void other(void); /* trailing block */
`
	_, _, s := scan(t, nil, header)
	if got := strings.Join(names(s), ","); got != "real,other" {
		t.Errorf("symbols = %q, want real,other", got)
	}
}

func TestDirectiveContinuation(t *testing.T) {
	header := `#define ENABLE_THING \
    1
#if ENABLE_THING
void thing(void);
#endif
`
	m := NewMacroTable()
	_, _, s := scan(t, m, header)
	if got := strings.Join(names(s), ","); got != "thing" {
		t.Errorf("symbols = %q, want thing", got)
	}
	if !m.Lookup("ENABLE_THING").Truthy() {
		t.Errorf("ENABLE_THING = %v, want 1", m.Lookup("ENABLE_THING"))
	}
}

func TestDefineInInactiveBranchApplied(t *testing.T) {
	header := `#if A
#define Y 1
#endif
#ifdef Y
void y(void);
#endif
`
	m := NewMacroTable()
	_, _, s := scan(t, m, header)
	if !m.Defined("Y") {
		t.Error("#define inside an inactive branch was not applied")
	}
	if got := strings.Join(names(s), ","); got != "y" {
		t.Errorf("symbols = %q, want y", got)
	}
}

func TestDefineLastBranchWins(t *testing.T) {
	header := `#if X
#define Y 1
#else
#define Y 0
#endif
#if Y
void hidden(void);
#endif
`
	m := NewMacroTable()
	m.Define("X 1")
	_, _, s := scan(t, m, header)
	if len(s.Symbols()) != 0 {
		t.Errorf("symbols = %v, want none: the #else define is applied last", names(s))
	}
}

func TestElifIsNotADirective(t *testing.T) {
	for _, tt := range []struct {
		a    string
		want string
	}{
		{"0", ""},
		{"1", "a,b"},
	} {
		m := NewMacroTable()
		m.Define("A " + tt.a)
		m.Define("B 1")
		header := "#if A\nvoid a(void);\n#elif B\nvoid b(void);\n#endif\nvoid after(void);\n"
		_, _, s := scan(t, m, header)
		want := "after"
		if tt.want != "" {
			want = tt.want + ",after"
		}
		if got := strings.Join(names(s), ","); got != want {
			t.Errorf("A=%s: symbols = %q, want %q", tt.a, got, want)
		}
	}
}

func TestMultiLineStaticDeclaration(t *testing.T) {
	header := `static inline uint32_t combine(uint32_t hi,
                               uint32_t lo) {
    return hi << 16 | lo;
}
void later(void);
`
	symbols, stubs, s := scan(t, nil, header)
	want := "uint32_t stub_combine (uint32_t hi, uint32_t lo)\n    {\n    return combine (hi, lo);\n    }"
	if !strings.Contains(stubs, want) {
		t.Errorf("stubs = %q, want %q", stubs, want)
	}
	if got := strings.Join(names(s), ","); got != "combine\tstub_combine,later" {
		t.Errorf("symbols = %q", symbols)
	}
}

func TestSymbolBannerOncePerFile(t *testing.T) {
	symbols, _, _ := scan(t, nil, "void a(void);\nvoid b(void);\nstatic inline int c(int x) { return x; }\n")
	if n := strings.Count(symbols, "# From file"); n != 1 {
		t.Errorf("symbols has %d banners, want 1: %q", n, symbols)
	}
}

func TestParseDirective(t *testing.T) {
	tests := []struct {
		line, name, body string
	}{
		{"#ifdef FOO", "ifdef", "FOO"},
		{"#  define BAR 2", "define", "BAR 2"},
		{"#endif /* FOO */", "endif", ""},
		{"#if PICO_ON_DEVICE // comment", "if", "PICO_ON_DEVICE"},
	}
	for _, tt := range tests {
		name, body := parseDirective(tt.line)
		if name != tt.name || body != tt.body {
			t.Errorf("parseDirective(%q) = (%q, %q), want (%q, %q)", tt.line, name, body, tt.name, tt.body)
		}
	}
}
