// Completion: 100% - Error handling complete, clear and helpful messages
package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorLevel indicates the severity of an error
type ErrorLevel int

const (
	LevelWarning ErrorLevel = iota
	LevelError
	LevelFatal
)

func (l ErrorLevel) String() string {
	switch l {
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal error"
	default:
		return "unknown"
	}
}

// ErrorCategory classifies the type of error
type ErrorCategory int

const (
	CategoryUsage ErrorCategory = iota
	CategoryManifest
	CategoryInput
	CategorySubprocess
	CategoryInternal
)

func (c ErrorCategory) String() string {
	switch c {
	case CategoryUsage:
		return "usage"
	case CategoryManifest:
		return "manifest"
	case CategoryInput:
		return "input"
	case CategorySubprocess:
		return "subprocess"
	case CategoryInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// SourceLocation represents a position in an input file
type SourceLocation struct {
	File string
	Line int
}

func (loc SourceLocation) String() string {
	switch {
	case loc.File == "" && loc.Line == 0:
		return ""
	case loc.File == "":
		return fmt.Sprintf("line %d", loc.Line)
	case loc.Line == 0:
		return loc.File
	}
	return fmt.Sprintf("%s:%d", loc.File, loc.Line)
}

// ErrorContext provides additional context for an error
type ErrorContext struct {
	SourceLine string // The offending input line
	Suggestion string // "Did you mean 'x'?"
	HelpText   string // Explanatory help text
}

// ToolError is the single error type reported by every picosym command
type ToolError struct {
	Level    ErrorLevel
	Category ErrorCategory
	Message  string
	Location SourceLocation
	Context  ErrorContext
	ExitCode int // Process exit code, only meaningful for CategorySubprocess
}

// Error implements the error interface
func (e ToolError) Error() string {
	if loc := e.Location.String(); loc != "" {
		return fmt.Sprintf("%s: %s", loc, e.Message)
	}
	return e.Message
}

// Format returns a nicely formatted error message with context
func (e ToolError) Format(useColor bool) string {
	var sb strings.Builder

	if useColor {
		if e.Level == LevelWarning {
			sb.WriteString("\033[1;33m") // Bold yellow
		} else {
			sb.WriteString("\033[1;31m") // Bold red
		}
	}
	sb.WriteString(e.Level.String())
	sb.WriteString(": ")
	if useColor {
		sb.WriteString("\033[0m")
	}
	sb.WriteString(e.Message)
	sb.WriteString("\n")

	if loc := e.Location.String(); loc != "" {
		if useColor {
			sb.WriteString("\033[1;34m") // Bold blue
		}
		sb.WriteString("  --> ")
		sb.WriteString(loc)
		if useColor {
			sb.WriteString("\033[0m")
		}
		sb.WriteString("\n")
	}

	if e.Context.SourceLine != "" {
		lineNum := fmt.Sprintf("%d", e.Location.Line)
		padding := strings.Repeat(" ", len(lineNum)+1)
		sb.WriteString(padding)
		sb.WriteString("|\n")
		sb.WriteString(lineNum)
		sb.WriteString(" | ")
		sb.WriteString(e.Context.SourceLine)
		sb.WriteString("\n")
	}

	if e.Context.Suggestion != "" {
		if useColor {
			sb.WriteString("\033[1;32m") // Bold green
		}
		sb.WriteString("   help: ")
		if useColor {
			sb.WriteString("\033[0m")
		}
		sb.WriteString(e.Context.Suggestion)
		sb.WriteString("\n")
	}

	if e.Context.HelpText != "" {
		if useColor {
			sb.WriteString("\033[1;36m") // Bold cyan
		}
		sb.WriteString("   note: ")
		if useColor {
			sb.WriteString("\033[0m")
		}
		sb.WriteString(e.Context.HelpText)
		sb.WriteString("\n")
	}

	return sb.String()
}

// Helper functions for creating the errors picosym reports

// UsageError reports a wrong argument count or an unknown command
func UsageError(usage string) ToolError {
	return ToolError{
		Level:    LevelError,
		Category: CategoryUsage,
		Message:  "Usage: " + usage,
		ExitCode: 1,
	}
}

// MalformedManifestError reports a section header that does not have
// exactly three comma-separated fields
func MalformedManifestError(file string, line int, text string) ToolError {
	return ToolError{
		Level:    LevelError,
		Category: CategoryManifest,
		Message:  fmt.Sprintf("Invalid section at line %d in %s", line, file),
		Location: SourceLocation{File: file, Line: line},
		Context: ErrorContext{
			SourceLine: text,
			HelpText:   "Sections have the form [device, build, destdir]",
		},
		ExitCode: 1,
	}
}

// MissingInputWarning reports an absent input file that is treated as
// producing no symbols
func MissingInputWarning(file, message string) ToolError {
	return ToolError{
		Level:    LevelWarning,
		Category: CategoryInput,
		Message:  message,
		Location: SourceLocation{File: file},
	}
}

// UnknownDirectiveWarning reports a manifest line that looks like a
// misspelt % directive
func UnknownDirectiveWarning(file string, line int, directive string, suggestions []string) ToolError {
	e := ToolError{
		Level:    LevelWarning,
		Category: CategoryManifest,
		Message:  fmt.Sprintf("unknown manifest directive '%s'", directive),
		Location: SourceLocation{File: file, Line: line},
	}
	if len(suggestions) > 0 {
		e.Context.Suggestion = fmt.Sprintf("did you mean '%s'?", suggestions[0])
	}
	return e
}

// SubprocessFailure reports an external step that returned non-zero
func SubprocessFailure(message string, code int) ToolError {
	return ToolError{
		Level:    LevelFatal,
		Category: CategorySubprocess,
		Message:  message,
		ExitCode: code,
	}
}

// ExitCode maps an error returned by a command to a process exit code
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var te ToolError
	if errors.As(err, &te) && te.ExitCode != 0 {
		return te.ExitCode
	}
	return 1
}
