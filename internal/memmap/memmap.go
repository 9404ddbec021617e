// Completion: 100% - Linker script rewriting complete
package memmap

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/xyproto/picosym/internal/engine"
)

// Region is one MEMORY entry of a linker script
type Region struct {
	Origin uint64
	SizeKB int
}

// ParseRegion reads the ORIGIN and LENGTH fields of a MEMORY line such as
//
//	RAM(rwx) : ORIGIN = 0x20000000, LENGTH = 256k
func ParseRegion(line string) (Region, error) {
	origin, rest, err := field(line, "ORIGIN", ",")
	if err != nil {
		return Region{}, err
	}
	o, err := strconv.ParseUint(origin, 0, 64)
	if err != nil {
		return Region{}, fmt.Errorf("bad ORIGIN %q: %w", origin, err)
	}
	length, _, err := field(rest, "LENGTH", "k")
	if err != nil {
		return Region{}, err
	}
	n, err := strconv.Atoi(length)
	if err != nil {
		return Region{}, fmt.Errorf("bad LENGTH %q: %w", length, err)
	}
	return Region{Origin: o, SizeKB: n}, nil
}

// field finds key in s, skips the spaces and '=' after it and returns the
// text up to end together with the remainder of s.
func field(s, key, end string) (string, string, error) {
	n := strings.Index(s, key)
	if n < 0 {
		return "", "", fmt.Errorf("no %s in %q", key, strings.TrimSpace(s))
	}
	s = strings.TrimLeft(s[n+len(key):], " =")
	m := strings.Index(s, end)
	if m < 0 {
		return "", "", fmt.Errorf("%s not terminated by %q", key, end)
	}
	return strings.TrimSpace(s[:m]), s[m:], nil
}

// format renders a region after the line's own "NAME(attr) :" prefix
func format(line string, r Region) string {
	n := strings.IndexByte(line, ':') + 1
	return fmt.Sprintf("%s ORIGIN = 0x%X, LENGTH = %dk\n", line[:n], r.Origin, r.SizeKB)
}

// Rewrite copies a linker script from r to w, giving RAM(rwx) a length of
// osRAMKB. SCRATCH_Y(rwx) moves to the new end of RAM and absorbs the RAM
// that was given up. SCRATCH_X(rwx) keeps its place.
func Rewrite(w io.Writer, r io.Reader, osRAMKB int) error {
	var ram Region
	haveRAM := false

	br := bufio.NewReader(r)
	bw := bufio.NewWriter(w)
	lineNum := 0
	for {
		line, readErr := br.ReadString('\n')
		if line == "" && readErr != nil {
			break
		}
		lineNum++

		fields := strings.Fields(line)
		out := line
		switch {
		case len(fields) == 0:
		case strings.HasPrefix(fields[0], "RAM(rwx)"):
			region, err := ParseRegion(line)
			if err != nil {
				return fmt.Errorf("line %d: %w", lineNum, err)
			}
			ram, haveRAM = region, true
			out = format(line, Region{Origin: ram.Origin, SizeKB: osRAMKB})
		case strings.HasPrefix(fields[0], "SCRATCH_Y(rwx)"):
			if !haveRAM {
				return fmt.Errorf("line %d: SCRATCH_Y(rwx) before RAM(rwx)", lineNum)
			}
			region, err := ParseRegion(line)
			if err != nil {
				return fmt.Errorf("line %d: %w", lineNum, err)
			}
			out = format(line, Region{
				Origin: ram.Origin + 1024*uint64(osRAMKB),
				SizeKB: region.SizeKB + ram.SizeKB - osRAMKB,
			})
		case strings.HasPrefix(fields[0], "SCRATCH_X(rwx)"):
			region, err := ParseRegion(line)
			if err != nil {
				return fmt.Errorf("line %d: %w", lineNum, err)
			}
			out = format(line, region)
		}
		if _, err := bw.WriteString(out); err != nil {
			return err
		}
		if readErr != nil {
			break
		}
	}
	return bw.Flush()
}

// Generate is the `memmap` command
func Generate(outPath, inPath, osRAM string, report *engine.Reporter) error {
	osRAMKB, err := strconv.Atoi(osRAM)
	if err != nil || osRAMKB <= 0 {
		return engine.UsageError("picosym memmap <output link file> <input link file> <OS size>")
	}
	report.Progressf("Generating link file \"%s\" from \"%s\" for %skB of OS RAM.\n", outPath, inPath, osRAM)

	in, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	if err := Rewrite(out, in, osRAMKB); err != nil {
		out.Close()
		return fmt.Errorf("%s: %w", inPath, err)
	}
	return out.Close()
}
