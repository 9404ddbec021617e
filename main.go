// Completion: 100% - Entry point complete
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/xyproto/picosym/internal/engine"
)

// picosym generates the symbol tables, stubs, link scripts and example
// images that let programs loaded at run time call into the Pico SDK

const versionString = "picosym 1.0.0"

// VerboseMode is set by -v/--verbose or PICOSYM_VERBOSE
var VerboseMode bool

func main() {
	// NOTE: Go's flag package stops parsing at the first non-flag argument,
	// so global flags must come before the command: picosym -v headers ...
	var verbose = flag.Bool("v", false, "verbose mode (show every header and symbol count)")
	var verboseLong = flag.Bool("verbose", false, "verbose mode (show every header and symbol count)")
	var quiet = flag.Bool("q", false, "quiet mode (suppress progress messages)")
	var quietLong = flag.Bool("quiet", false, "quiet mode (suppress progress messages)")
	var noColor = flag.Bool("no-color", false, "do not use colors in diagnostics")
	var versionShort = flag.Bool("V", false, "print version information and exit")
	var version = flag.Bool("version", false, "print version information and exit")
	flag.Usage = func() {
		printHelp(os.Stderr)
	}
	flag.Parse()

	if *version || *versionShort {
		fmt.Println(versionString)
		os.Exit(0)
	}

	report := engine.NewReporter(*verbose || *verboseLong, *quiet || *quietLong)
	if *noColor {
		report.Color = false
	}
	VerboseMode = report.Verbose

	if VerboseMode {
		fmt.Fprintf(os.Stderr, "DEBUG main: VerboseMode enabled\n")
	}

	if err := RunCLI(flag.Args(), report); err != nil {
		report.Error(err)
		os.Exit(engine.ExitCode(err))
	}
}
