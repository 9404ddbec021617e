// Completion: 100% - Symbol table merge complete
package symtab

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// Excluded targets are defined by the runtime's own symbol table source,
// so no prototype is emitted for them.
var Excluded = map[string]bool{
	"sympico":           true,
	"strcmp":            true,
	"tud_cdc_connected": true,
}

// Table collects symbol names and the code targets they map to
type Table struct {
	names   []string
	targets map[string]string
}

// NewTable creates an empty symbol table
func NewTable() *Table {
	return &Table{targets: make(map[string]string)}
}

// Add records name, mapped to target when target is not empty
func (t *Table) Add(name, target string) {
	t.names = append(t.names, name)
	if target != "" {
		t.targets[name] = target
	}
}

// Load reads a symbol list: lines of `name` or `name target`. Blank lines
// and # comment lines are skipped.
func (t *Table) Load(r io.Reader) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		target := ""
		if len(fields) > 1 {
			target = fields[1]
		}
		t.Add(fields[0], target)
	}
	return sc.Err()
}

// LoadFile reads the symbol list at path
func (t *Table) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := t.Load(f); err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return nil
}

// Entry is one row of the generated table
type Entry struct {
	Name   string
	Target string
}

// Entries returns the distinct names in sorted order with their targets
func (t *Table) Entries() []Entry {
	names := append([]string(nil), t.names...)
	sort.Strings(names)

	var entries []Entry
	last := ""
	for _, name := range names {
		if name == last {
			continue
		}
		last = name
		target, ok := t.targets[name]
		if !ok {
			target = name
		}
		entries = append(entries, Entry{Name: name, Target: target})
	}
	return entries
}

// WriteC writes the C source declaring every routine and the sdkfuncs
// lookup table.
func (t *Table) WriteC(w io.Writer, outName string) error {
	entries := t.Entries()
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "// %s - Declare functions accessable via SYM\n"+
		"// Automatically generated - do not edit.\n\n"+
		"#pragma GCC diagnostic push\n"+
		"#pragma GCC diagnostic ignored \"-Wbuiltin-declaration-mismatch\"\n\n", outName)
	for _, e := range entries {
		if !Excluded[e.Target] {
			fmt.Fprintf(bw, "void %s (void);\n", e.Target)
		}
	}
	bw.WriteString("\n#pragma GCC diagnostic pop\n\n" +
		"\ntypedef struct st_symbols\n" +
		"    {\n" +
		"    const char *s;\n" +
		"    void *p;\n" +
		"    } symbols;\n" +
		"\nconst symbols sdkfuncs[] = {\n")
	for _, e := range entries {
		fmt.Fprintf(bw, "    {\"%s\", %s},\n", e.Name, e.Target)
	}
	bw.WriteString("};\n")
	return bw.Flush()
}

// Merge is the `merge` command: it loads every symbol list and writes the
// combined table to outPath.
func Merge(outPath string, inputs []string) error {
	t := NewTable()
	for _, in := range inputs {
		if err := t.LoadFile(in); err != nil {
			return err
		}
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	if err := t.WriteC(f, outPath); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
