// Completion: 100% - Map file scraper complete
package symtab

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/xyproto/picosym/internal/engine"
)

// mapStart is the line of a GNU ld map file after which sections are listed
const mapStart = "Linker script and memory map"

// KeepMapSymbol reports whether a .text symbol from the map should be
// exported. Runtime internals, generated stubs, shims and section-qualified
// names are dropped.
func KeepMapSymbol(name string) bool {
	return !strings.HasPrefix(name, "_") &&
		!strings.HasPrefix(name, "stub_") &&
		!strings.HasSuffix(name, "_shim") &&
		!strings.HasSuffix(name, "_shims") &&
		!strings.Contains(name, ".")
}

// ScanMap reads a linker map and returns the names of the functions placed
// in .text, in map order.
func ScanMap(r io.Reader) ([]string, error) {
	var names []string
	inMap, inText := false, false

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case !inMap:
			inMap = line == mapStart
		case strings.HasPrefix(line, ".text "):
			inText = true
		case inText && strings.HasPrefix(line, "0x"):
			fields := strings.Fields(line)
			if len(fields) > 1 && KeepMapSymbol(fields[1]) {
				names = append(names, fields[1])
			}
		default:
			inText = false
		}
	}
	return names, sc.Err()
}

// MapFuncs is the `mapfuncs` command. A missing map file is not an error:
// the previous symbol file is kept, or an empty one is created.
func MapFuncs(mapPath, outPath string, report *engine.Reporter) error {
	in, err := os.Open(mapPath)
	if errors.Is(err, fs.ErrNotExist) {
		report.Warn(engine.MissingInputWarning(mapPath,
			fmt.Sprintf("Map file %s does not exist. Using old symbols.", mapPath)))
		if _, err := os.Stat(outPath); errors.Is(err, fs.ErrNotExist) {
			return os.WriteFile(outPath, nil, 0o644)
		}
		return nil
	}
	if err != nil {
		return err
	}
	defer in.Close()

	names, err := ScanMap(in)
	if err != nil {
		return fmt.Errorf("reading %s: %w", mapPath, err)
	}

	var sb strings.Builder
	for _, name := range names {
		sb.WriteString(name)
		sb.WriteString("\n")
	}
	report.Debugf("%d symbols from %s\n", len(names), mapPath)
	return os.WriteFile(outPath, []byte(sb.String()), 0o644)
}
