// Completion: 100% - CLI interface complete, all commands working
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xyproto/picosym/internal/config"
	"github.com/xyproto/picosym/internal/engine"
	"github.com/xyproto/picosym/internal/examples"
	"github.com/xyproto/picosym/internal/hdrscan"
	"github.com/xyproto/picosym/internal/memmap"
	"github.com/xyproto/picosym/internal/symtab"
)

// commands lists every subcommand, for suggestions
var commands = []string{"headers", "mapfuncs", "merge", "memmap", "examples", "gen", "watch", "help", "version"}

// CommandContext holds the execution context for a CLI command
type CommandContext struct {
	Args   []string
	Report *engine.Reporter
	Stdout io.Writer
}

// RunCLI is the main entry point for the command line. The first argument
// selects the command.
func RunCLI(args []string, report *engine.Reporter) error {
	ctx := &CommandContext{
		Args:   args,
		Report: report,
		Stdout: os.Stdout,
	}
	return ctx.run()
}

func (ctx *CommandContext) run() error {
	if len(ctx.Args) == 0 {
		printHelp(ctx.Stdout)
		return nil
	}

	subcmd, args := ctx.Args[0], ctx.Args[1:]
	switch subcmd {
	case "headers":
		if len(args) < 3 {
			return engine.UsageError("picosym headers <symbol file> <stubs file> <manifest>...")
		}
		return hdrscan.GenerateFiles(args[0], args[1], args[2:], ctx.Report)

	case "mapfuncs":
		if len(args) != 2 {
			return engine.UsageError("picosym mapfuncs <map file> <symbols file>")
		}
		return symtab.MapFuncs(args[0], args[1], ctx.Report)

	case "merge":
		if len(args) < 2 {
			return engine.UsageError("picosym merge <include file> <symbols file>...")
		}
		return symtab.Merge(args[0], args[1:])

	case "memmap":
		if len(args) != 3 {
			return engine.UsageError("picosym memmap <output link file> <input link file> <OS size>")
		}
		return memmap.Generate(args[0], args[1], args[2], ctx.Report)

	case "examples":
		return cmdExamples(ctx, args)

	case "gen":
		return cmdGen(ctx, args)

	case "watch":
		return cmdWatch(ctx, args)

	case "help", "--help", "-h":
		printHelp(ctx.Stdout)
		return nil

	case "version", "--version", "-V":
		fmt.Fprintln(ctx.Stdout, versionString)
		return nil

	default:
		e := engine.ToolError{
			Level:    engine.LevelError,
			Category: engine.CategoryUsage,
			Message:  fmt.Sprintf("unknown command: %s", subcmd),
			Context:  engine.ErrorContext{HelpText: "Run 'picosym help' for usage information"},
			ExitCode: 1,
		}
		if similar := engine.FindSimilar(subcmd, commands, 1); len(similar) > 0 {
			e.Context.Suggestion = fmt.Sprintf("did you mean '%s'?", similar[0])
		}
		return e
	}
}

// stringList collects a repeatable string flag
type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, ",")
}

func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}

const examplesUsage = `usage: picosym examples [-h] [-v] [-d DEVICE] [-b BUILD] [-t TREE] [-o OUTPUT] [-s SIZE] config...

Assemble the example programs for a device and build into a folder tree
and pack the tree into an LFS filesystem image.

options:
    -h, --help               show this help message and exit
    -v, --version            show the program version and exit
    -d, --device DEVICE      device to assemble files for (repeatable)
    -b, --build BUILD        build to assemble files for (repeatable)
    -t, --tree TREE          folder for the examples directory tree
    -o, --output OUTPUT      filesystem image to create
    -s, --size SIZE          size of the filesystem image
`

// cmdExamples parses the example assembler's own flags and runs it
func cmdExamples(ctx *CommandContext, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(ctx.Stdout, examplesUsage)
		return nil
	}

	var devices, builds stringList
	var tree, output, size string
	var showVersion, showHelp bool

	fs := flag.NewFlagSet("examples", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	for _, name := range []string{"d", "device"} {
		fs.Var(&devices, name, "device to assemble files for")
	}
	for _, name := range []string{"b", "build"} {
		fs.Var(&builds, name, "build to assemble files for")
	}
	for _, name := range []string{"t", "tree"} {
		fs.StringVar(&tree, name, "", "folder for the examples directory tree")
	}
	for _, name := range []string{"o", "output"} {
		fs.StringVar(&output, name, "", "filesystem image to create")
	}
	for _, name := range []string{"s", "size"} {
		fs.StringVar(&size, name, "", "size of the filesystem image")
	}
	for _, name := range []string{"v", "version"} {
		fs.BoolVar(&showVersion, name, false, "show the program version and exit")
	}
	for _, name := range []string{"h", "help"} {
		fs.BoolVar(&showHelp, name, false, "show this help message and exit")
	}
	if err := fs.Parse(args); err != nil {
		return engine.UsageError(strings.TrimPrefix(strings.SplitN(examplesUsage, "\n", 2)[0], "usage: ") + "\n" + err.Error())
	}

	switch {
	case showHelp:
		fmt.Fprint(ctx.Stdout, examplesUsage)
		return nil
	case showVersion:
		fmt.Fprintln(ctx.Stdout, "picosym examples "+examples.Version)
		return nil
	}

	return examples.Build(examples.Options{
		Devices: devices,
		Builds:  builds,
		Tree:    tree,
		Output:  output,
		Size:    size,
		Configs: fs.Args(),
		Tool:    config.ImageTool(),
	}, ctx.Report)
}

// configFlag parses the -config flag shared by gen and watch
func configFlag(name string, args []string) (string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	path := fs.String("config", config.DefaultPath(), "batch configuration file")
	if err := fs.Parse(args); err != nil {
		return "", engine.UsageError("picosym " + name + " [-config file]\n" + err.Error())
	}
	if fs.NArg() > 0 {
		return "", engine.UsageError("picosym " + name + " [-config file]")
	}
	return *path, nil
}

// cmdGen runs every job in a batch configuration file
func cmdGen(ctx *CommandContext, args []string) error {
	path, err := configFlag("gen", args)
	if err != nil {
		return err
	}
	cfg, err := config.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return engine.ToolError{
			Level:    engine.LevelError,
			Category: engine.CategoryInput,
			Message:  "configuration file " + path + " does not exist",
			Context:  engine.ErrorContext{HelpText: "Pass -config or set PICOSYM_CONFIG"},
			ExitCode: 1,
		}
	}
	if err != nil {
		return err
	}
	ctx.Report.Debugf("Running %s\n", cfg.Path)
	return cfg.Run(ctx.Report)
}

func printHelp(w io.Writer) {
	fmt.Fprintf(w, `%s - symbol table generator for the Pico SDK

USAGE:
    picosym [flags] <command> [arguments]

COMMANDS:
    headers <symbol file> <stubs file> <manifest>...
                          Scan the headers listed in the manifests and write
                          the exported symbols and the stubs for inline routines
    mapfuncs <map file> <symbols file>
                          List the .text functions of a linker map
    merge <include file> <symbols file>...
                          Combine symbol lists into a C lookup table
    memmap <output link file> <input link file> <OS size>
                          Rewrite a linker script for the given kB of OS RAM
    examples [options] <config>...
                          Assemble example programs into an LFS image
    gen [-config file]    Run every job in a batch configuration file
    watch [-config file]  Run gen, then again whenever an input changes
    help                  Show this help message
    version               Show version information

FLAGS (must come before the command):
    -v, --verbose          Verbose mode (show every header and symbol count)
    -q, --quiet            Quiet mode (suppress progress messages)
    --no-color             Do not use colors in diagnostics
    -V, --version          Show version information

ENVIRONMENT:
    PICOSYM_CONFIG         Default batch configuration file (default: %s)
    PICOSYM_MKLFSIMAGE     Image builder used by examples
    PICOSYM_VERBOSE        Same as --verbose
    NO_COLOR               Same as --no-color

`, versionString, config.DefaultFile)
}
