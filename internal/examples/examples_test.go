package examples

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/xyproto/picosym/internal/engine"
)

func setup(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{"games/snake.bbc", "games/tetris.bbc", "graphics/mandel.bbc", "graphics/notes.txt"} {
		path := filepath.Join(dir, name)
		os.MkdirAll(filepath.Dir(path), 0o755)
		os.WriteFile(path, []byte("REM "+name+"\n"), 0o644)
	}
	cfg := filepath.Join(dir, "examples.cfg")
	os.WriteFile(cfg, []byte(`# Example programs
[pico, std, games/]
games/*.bbc
[pico_w, std, net]
graphics/*.bbc
[pico, std, graphics]
graphics/*.bbc
graphics
`), 0o644)
	return dir, cfg
}

func TestParse(t *testing.T) {
	_, cfg := setup(t)
	examples, err := ParseFile(cfg, []string{"pico"}, []string{"std"})
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, ex := range examples {
		got = append(got, ex.Dst+":"+filepath.Base(ex.Src))
	}
	want := "games:snake.bbc,games:tetris.bbc,graphics:mandel.bbc"
	if strings.Join(got, ",") != want {
		t.Errorf("Parse() = %v, want %s", got, want)
	}

	none, err := ParseFile(cfg, []string{"pico2"}, []string{"std"})
	if err != nil || len(none) != 0 {
		t.Errorf("Parse(pico2) = %v, %v; want nothing", none, err)
	}
}

func TestParseMalformedSection(t *testing.T) {
	cfg := "[pico, std]\n*.bbc\n"
	_, err := Parse(strings.NewReader(cfg), "bad.cfg", []string{"pico"}, []string{"std"})
	if err == nil || !strings.Contains(err.Error(), "Invalid section at line 1 in bad.cfg") {
		t.Errorf("Parse() error = %v, want invalid section", err)
	}
}

func fakeTool(t *testing.T, dir string, exitCode int) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	tool := filepath.Join(dir, "mklfsimage")
	script := "#!/bin/sh\necho \"$@\" > \"" + filepath.Join(dir, "args.txt") + "\"\nexit " + strconv.Itoa(exitCode) + "\n"
	if err := os.WriteFile(tool, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return tool
}

func TestBuild(t *testing.T) {
	dir, cfg := setup(t)
	tree := filepath.Join(dir, "tree")
	image := filepath.Join(dir, "fs.img")
	opts := Options{
		Devices: []string{"pico"},
		Builds:  []string{"std"},
		Tree:    tree,
		Output:  image,
		Size:    "0x100000",
		Configs: []string{cfg},
		Tool:    fakeTool(t, dir, 0),
	}
	if err := Build(opts, engine.Discard()); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(tree, "games", "snake.bbc")); err != nil {
		t.Errorf("snake.bbc not copied: %v", err)
	}
	args, _ := os.ReadFile(filepath.Join(dir, "args.txt"))
	if want := "-o " + image + " -s 0x100000 " + tree + "\n"; string(args) != want {
		t.Errorf("tool args = %q, want %q", args, want)
	}

	// An image newer than every input is not rebuilt
	os.WriteFile(image, []byte("image"), 0o644)
	future := time.Now().Add(time.Hour)
	os.Chtimes(image, future, future)
	os.Remove(filepath.Join(dir, "args.txt"))
	if err := Build(opts, engine.Discard()); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "args.txt")); err == nil {
		t.Error("up to date image was rebuilt")
	}
}

func TestBuildToolFailure(t *testing.T) {
	dir, cfg := setup(t)
	opts := Options{
		Devices: []string{"pico"},
		Builds:  []string{"std"},
		Tree:    filepath.Join(dir, "tree"),
		Output:  filepath.Join(dir, "fs.img"),
		Size:    "65536",
		Configs: []string{cfg},
		Tool:    fakeTool(t, dir, 3),
	}
	err := Build(opts, engine.Discard())
	if got := engine.ExitCode(err); got != 3 {
		t.Errorf("ExitCode(Build()) = %d (%v), want 3", got, err)
	}
}

func TestBuildNeedsTreeAndOutput(t *testing.T) {
	if err := Build(Options{}, engine.Discard()); engine.ExitCode(err) != 1 {
		t.Errorf("Build(Options{}) = %v, want usage error", err)
	}
}
