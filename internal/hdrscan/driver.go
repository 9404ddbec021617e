// Completion: 100% - Manifest driver complete
package hdrscan

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/xyproto/picosym/internal/engine"
)

// manifestDirectives are the % directives a manifest may contain
var manifestDirectives = []string{"%global", "%define", "%exclude", "%function"}

// Driver reads manifests and scans the headers they list. One Driver is one
// run: its macro table and %global seed list carry over from manifest to
// manifest and from header to header.
type Driver struct {
	Symbols io.Writer
	Stubs   io.Writer
	Macros  *MacroTable
	Report  *engine.Reporter

	seeds   []string
	current *Scanner
	scanned []*Scanner
}

// NewDriver creates a driver writing to the two output streams
func NewDriver(symbols, stubs io.Writer, report *engine.Reporter) *Driver {
	if report == nil {
		report = engine.Discard()
	}
	return &Driver{
		Symbols: symbols,
		Stubs:   stubs,
		Macros:  NewMacroTable(),
		Report:  report,
	}
}

// Scanned returns the scanners of every header processed so far
func (d *Driver) Scanned() []*Scanner {
	return d.scanned
}

// ProcessManifest reads the manifest at path and scans each header it
// lists, in order.
func (d *Driver) ProcessManifest(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("manifest: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(d.Symbols, "#\n# Processing file %s\n", path); err != nil {
		return err
	}
	return d.Process(f, path)
}

// Process reads manifest lines from r. name is used in diagnostics.
func (d *Driver) Process(r io.Reader, name string) error {
	d.current = nil
	sc := bufio.NewScanner(r)
	lineNum := 0
	for sc.Scan() {
		lineNum++
		if err := d.manifestLine(strings.TrimSpace(sc.Text()), name, lineNum); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}
	return d.flush()
}

func (d *Driver) manifestLine(line, name string, lineNum int) error {
	if line == "" || line[0] == '#' {
		return nil
	}
	if line[0] != '%' {
		if err := d.flush(); err != nil {
			return err
		}
		d.open(expandVars(line))
		return nil
	}

	directive, body := splitFirstWord(line)
	switch directive {
	case "%global":
		d.seeds = append(d.seeds, line)
	case "%define", "%exclude":
		if d.current == nil {
			d.Report.Warn(engine.ToolError{
				Category: engine.CategoryManifest,
				Message:  directive + " before any header, ignored",
				Location: engine.SourceLocation{File: name, Line: lineNum},
			})
			return nil
		}
		if directive == "%define" {
			d.current.Define(line)
		} else {
			d.current.Exclude(body)
		}
	case "%function":
		parts := strings.Fields(body)
		if len(parts) == 0 {
			return nil
		}
		sym := Symbol{Name: parts[0]}
		if len(parts) > 1 {
			sym.Target = parts[1]
		}
		_, err := io.WriteString(d.Symbols, sym.String()+"\n")
		return err
	default:
		d.Report.Warn(engine.UnknownDirectiveWarning(name, lineNum, directive,
			engine.FindSimilar(directive, manifestDirectives, 1)))
	}
	return nil
}

// open starts a new header. The %global seeds are applied again so that
// they hold for every header that follows them.
func (d *Driver) open(path string) {
	for _, seed := range d.seeds {
		d.Macros.DefineDirective(seed)
	}
	d.current = NewScanner(path, d.Macros, d.Symbols, d.Stubs)
}

// flush scans the header opened last, if any
func (d *Driver) flush() error {
	s := d.current
	if s == nil {
		return nil
	}
	d.current = nil

	d.Report.Debugf("Scanning %s\n", s.Path)
	err := s.ScanFile()
	if errors.Is(err, fs.ErrNotExist) {
		d.Report.Warn(engine.MissingInputWarning(s.Path, "header "+s.Path+" does not exist, no symbols produced"))
		return nil
	}
	if err != nil {
		return err
	}
	d.scanned = append(d.scanned, s)
	d.Report.Debugf("    %d symbols from %s\n", len(s.Symbols()), s.Path)
	return nil
}

// envRef matches $NAME and ${NAME}
var envRef = regexp.MustCompile(`\$(\w+|\{[^}]*\})`)

// expandVars replaces $NAME and ${NAME} with environment values. Unknown
// names are left as written.
func expandVars(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(ref string) string {
		name := strings.TrimSuffix(strings.TrimPrefix(ref[1:], "{"), "}")
		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		return ref
	})
}

// GenerateFiles is the `headers` command: it scans every manifest and
// writes the symbol list to symbolPath and the stub source to stubPath.
func GenerateFiles(symbolPath, stubPath string, manifests []string, report *engine.Reporter) error {
	symFile, err := os.Create(symbolPath)
	if err != nil {
		return err
	}
	defer symFile.Close()
	stubFile, err := os.Create(stubPath)
	if err != nil {
		return err
	}
	defer stubFile.Close()

	symbols := bufio.NewWriter(symFile)
	stubs := bufio.NewWriter(stubFile)

	cmdLine := strings.Join(append([]string{symbolPath, stubPath}, manifests...), " ")
	fmt.Fprintf(symbols, "# %s - SDK routines for inclusion in SYM table\n"+
		"# Automatically generated by picosym headers %s\n# Do not edit\n", symbolPath, cmdLine)
	fmt.Fprintf(stubs, "// %s - Stub functions for SDK routines that are otherwise inline\n"+
		"// Automatically generated by picosym headers %s\n// Do not edit\n\n", stubPath, cmdLine)

	d := NewDriver(symbols, stubs, report)
	for _, manifest := range manifests {
		if err := d.ProcessManifest(manifest); err != nil {
			return err
		}
	}

	if err := symbols.Flush(); err != nil {
		return err
	}
	if err := stubs.Flush(); err != nil {
		return err
	}
	if err := symFile.Close(); err != nil {
		return err
	}
	return stubFile.Close()
}

// ManifestHeaders lists the header paths named by the manifest at path,
// with environment variables expanded. Unreadable manifests give nil.
func ManifestHeaders(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var headers []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' || line[0] == '%' {
			continue
		}
		headers = append(headers, expandVars(line))
	}
	return headers
}
