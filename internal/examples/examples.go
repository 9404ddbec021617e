// Completion: 100% - Example tree assembly complete
package examples

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/xyproto/picosym/internal/engine"
)

// Version is reported by `picosym examples --version`
const Version = "v241017"

// Example is one file to copy into the tree
type Example struct {
	Src string // Path of the source file
	Dst string // Directory below the tree root
}

// Options configures one run of the example assembler
type Options struct {
	Devices []string // Devices to assemble files for
	Builds  []string // Builds to assemble files for
	Tree    string   // Folder for the examples directory tree
	Output  string   // Filesystem image to create
	Size    string   // Size of the filesystem image
	Configs []string // Configuration files listing the programs
	Tool    string   // Image builder; defaults to mklfsimage next to the executable
}

// Parse reads one configuration file and returns the examples selected by
// devices and builds. A section header has the form [device, build, destdir];
// the glob patterns that follow it are relative to the configuration file.
func Parse(r io.Reader, name string, devices, builds []string) ([]Example, error) {
	var examples []Example
	baseDir := filepath.Dir(name)
	selected := false
	destDir := ""

	sc := bufio.NewScanner(r)
	lineNum := 0
	for sc.Scan() {
		lineNum++
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		if line[0] == '[' {
			parm := strings.Split(strings.TrimSuffix(line[1:], "]"), ",")
			if len(parm) != 3 {
				return examples, engine.MalformedManifestError(name, lineNum, line)
			}
			for i := range parm {
				parm[i] = strings.TrimSpace(parm[i])
			}
			destDir = strings.TrimSuffix(parm[2], "/")
			selected = slices.Contains(devices, parm[0]) && slices.Contains(builds, parm[1])
			continue
		}
		if !selected {
			continue
		}
		matches, err := filepath.Glob(filepath.Join(baseDir, line))
		if err != nil {
			return examples, fmt.Errorf("%s:%d: %w", name, lineNum, err)
		}
		for _, fn := range matches {
			if info, err := os.Stat(fn); err == nil && info.Mode().IsRegular() {
				examples = append(examples, Example{Src: fn, Dst: destDir})
			}
		}
	}
	return examples, sc.Err()
}

// ParseFile reads the configuration file at path
func ParseFile(path string, devices, builds []string) ([]Example, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f, path, devices, builds)
}

// Latest returns the newest modification time of the example sources
func Latest(examples []Example) time.Time {
	var latest time.Time
	for _, ex := range examples {
		if info, err := os.Stat(ex.Src); err == nil && info.ModTime().After(latest) {
			latest = info.ModTime()
		}
	}
	return latest
}

// Copy places the example below tree and returns the destination path
func (ex Example) Copy(tree string) (string, error) {
	dir := filepath.Join(tree, ex.Dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	dst := filepath.Join(dir, filepath.Base(ex.Src))
	data, err := os.ReadFile(ex.Src)
	if err != nil {
		return "", err
	}
	return dst, os.WriteFile(dst, data, 0o644)
}

// DefaultTool is the image builder installed next to the running executable
func DefaultTool() string {
	exe, err := os.Executable()
	if err != nil {
		exe = os.Args[0]
	}
	return filepath.Join(filepath.Dir(exe), "mklfsimage")
}

// Build collects the examples and, when the image is out of date, copies
// them into the tree and runs the image builder. Malformed configuration
// files are reported and skipped.
func Build(opts Options, report *engine.Reporter) error {
	if opts.Tree == "" || opts.Output == "" {
		return engine.UsageError("picosym examples -d device -b build -t tree -o output -s size config...")
	}

	var outTime time.Time
	rebuild := true
	if info, err := os.Stat(opts.Output); err == nil {
		outTime = info.ModTime()
		rebuild = false
	}

	var examples []Example
	for _, cf := range opts.Configs {
		info, err := os.Stat(cf)
		if errors.Is(err, fs.ErrNotExist) {
			report.Warn(engine.MissingInputWarning(cf, "configuration file "+cf+" does not exist"))
			continue
		}
		if err != nil {
			return err
		}
		if info.ModTime().After(outTime) {
			rebuild = true
		}
		found, err := ParseFile(cf, opts.Devices, opts.Builds)
		var te engine.ToolError
		if errors.As(err, &te) {
			report.Error(te)
		} else if err != nil {
			return err
		}
		examples = append(examples, found...)
	}
	if Latest(examples).After(outTime) {
		rebuild = true
	}
	if !rebuild {
		report.Debugf("%s is up to date\n", opts.Output)
		return nil
	}

	for _, ex := range examples {
		dst, err := ex.Copy(opts.Tree)
		if err != nil {
			return err
		}
		report.Progressf("\t%s --> %s\n", ex.Src, dst)
	}

	tool := opts.Tool
	if tool == "" {
		tool = DefaultTool()
	}
	cmd := exec.Command(tool, "-o", opts.Output, "-s", opts.Size, opts.Tree)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	report.Debugf("Running %s\n", strings.Join(cmd.Args, " "))
	if err := cmd.Run(); err != nil {
		report.Debugf("%s: %v\n", tool, err)
		return engine.SubprocessFailure("ERROR: Failed to create LFS filesystem", engine.UnpackExitCode(err))
	}
	return nil
}
