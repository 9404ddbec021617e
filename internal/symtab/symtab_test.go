package symtab

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xyproto/picosym/internal/engine"
)

const sampleMap = `Archive member included to satisfy reference by file (symbol)

Memory Configuration

Name             Origin             Length             Attributes
FLASH            0x10000000         0x00200000         xr

Linker script and memory map

.boot2          0x10000000      0x100
 .boot2         0x10000000      0x100 bs2_default_padded_checksummed.S.obj
.text           0x10000100    0x1f2c4
 .text          0x10000100       0x5c main.c.obj
                0x10000100                main
                0x10000130                _private_helper
                0x10000140                stub_gpio_put
                0x10000150                uart_shim
                0x10000160                pio_shims
                0x10000170                name.with.dot
 .text          0x1000015c       0x40 gpio.c.obj
                0x1000015c                gpio_init
 *(.fini)
                0x10000200                not_text
.rodata         0x1001f3c4     0x1234
                0x1001f3c4                also_not_text
`

func TestScanMap(t *testing.T) {
	names, err := ScanMap(strings.NewReader(sampleMap))
	if err != nil {
		t.Fatal(err)
	}
	got := strings.Join(names, ",")
	if got != "main,gpio_init" {
		t.Errorf("ScanMap() = %q, want main,gpio_init", got)
	}
}

func TestKeepMapSymbol(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"gpio_init", true},
		{"_start", false},
		{"stub_gpio_put", false},
		{"uart_shim", false},
		{"pio_shims", false},
		{"foo.constprop.0", false},
	}
	for _, tt := range tests {
		if got := KeepMapSymbol(tt.name); got != tt.want {
			t.Errorf("KeepMapSymbol(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestMapFuncsMissingMap(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "map_funcs.txt")
	var diag bytes.Buffer
	report := &engine.Reporter{Out: &diag}

	if err := MapFuncs(filepath.Join(dir, "missing.map"), out, report); err != nil {
		t.Fatalf("MapFuncs() error = %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil || len(data) != 0 {
		t.Errorf("output = %q, %v; want empty file", data, err)
	}
	if !strings.Contains(diag.String(), "does not exist. Using old symbols.") {
		t.Errorf("diagnostics = %q", diag.String())
	}

	// An existing symbol file is kept as it is
	os.WriteFile(out, []byte("old_symbol\n"), 0o644)
	if err := MapFuncs(filepath.Join(dir, "missing.map"), out, report); err != nil {
		t.Fatal(err)
	}
	if data, _ := os.ReadFile(out); string(data) != "old_symbol\n" {
		t.Errorf("output = %q, want old symbols kept", data)
	}
}

func TestMapFuncs(t *testing.T) {
	dir := t.TempDir()
	mapPath := filepath.Join(dir, "app.map")
	out := filepath.Join(dir, "map_funcs.txt")
	os.WriteFile(mapPath, []byte(sampleMap), 0o644)

	if err := MapFuncs(mapPath, out, nil); err != nil {
		t.Fatal(err)
	}
	if data, _ := os.ReadFile(out); string(data) != "main\ngpio_init\n" {
		t.Errorf("output = %q", data)
	}
}

func TestTableEntries(t *testing.T) {
	tbl := NewTable()
	input := `# sdk.txt - SDK routines
#
# From file gpio.h
gpio_put	stub_gpio_put
gpio_init

gpio_init
strcmp
abs
`
	if err := tbl.Load(strings.NewReader(input)); err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, e := range tbl.Entries() {
		got = append(got, e.Name+"="+e.Target)
	}
	want := "abs=abs,gpio_init=gpio_init,gpio_put=stub_gpio_put,strcmp=strcmp"
	if strings.Join(got, ",") != want {
		t.Errorf("Entries() = %v, want %s", got, want)
	}
}

func TestWriteC(t *testing.T) {
	tbl := NewTable()
	tbl.Add("strcmp", "")
	tbl.Add("gpio_put", "stub_gpio_put")
	tbl.Add("abs", "")

	var buf bytes.Buffer
	if err := tbl.WriteC(&buf, "sympico.h"); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"// sympico.h - Declare functions accessable via SYM\n",
		"void abs (void);\nvoid stub_gpio_put (void);\n\n#pragma GCC diagnostic pop",
		"const symbols sdkfuncs[] = {\n    {\"abs\", abs},\n    {\"gpio_put\", stub_gpio_put},\n    {\"strcmp\", strcmp},\n};\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("WriteC() output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "void strcmp (void);") {
		t.Error("excluded routine strcmp got a prototype")
	}
}

func TestMerge(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	out := filepath.Join(dir, "sympico.h")
	os.WriteFile(a, []byte("zeta\nalpha\n"), 0o644)
	os.WriteFile(b, []byte("alpha\nmid\ttarget_mid\n"), 0o644)

	if err := Merge(out, []string{a, b}); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(out)
	if !strings.Contains(string(data), "    {\"alpha\", alpha},\n    {\"mid\", target_mid},\n    {\"zeta\", zeta},\n};") {
		t.Errorf("merged output:\n%s", data)
	}
	if err := Merge(out, []string{filepath.Join(dir, "nope.txt")}); err == nil {
		t.Error("Merge() with a missing input succeeded")
	}
}
