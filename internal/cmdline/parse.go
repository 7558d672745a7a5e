// Package cmdline isolates the executable of a Windows shell command line,
// recognises rundll32 DLL invocations, expands shell-verb macros, and turns
// the result into an argv.
//
// All delimiters the parser looks at are ASCII, so offsets are byte offsets
// into the UTF-8 command line.
package cmdline

import (
	"strings"
	"unicode"

	"github.com/joshuapare/assockit/internal/ustr"
)

const rundll32 = "rundll32.exe"

// Filename describes where the executable sits inside a command line.
//
//	  "C:\tools\app.exe" --open %f
//	   ^Start          ^End
//	                    ^After (first char after the closing quote)
type Filename struct {
	Start int // first byte of the executable (after spaces and an opening quote)
	End   int // one past the last byte of the executable
	After int // first byte after the executable boundary
}

// Executable returns the executable text of cmd.
func (f Filename) Executable(cmd string) string { return cmd[f.Start:f.End] }

// Basename returns the file name part of the executable.
func (f Filename) Basename(cmd string) string { return ustr.Basename(f.Executable(cmd)) }

// Rest returns everything from the boundary on.
func (f Filename) Rest(cmd string) string { return cmd[f.After:] }

// ParseFilename finds the executable at the start of cmd. Leading spaces
// are skipped. A quoted executable runs to the matching quote and the
// boundary is the character right after it. An unquoted executable stops
// at the first space, or at a comma when commaSep is set. Without a
// boundary the executable runs to the end of cmd.
func ParseFilename(cmd string, commaSep bool) Filename {
	i := 0
	for i < len(cmd) && cmd[i] == ' ' {
		i++
	}
	quoted := false
	if i < len(cmd) && cmd[i] == '"' {
		quoted = true
		i++
	}
	f := Filename{Start: i, End: len(cmd), After: len(cmd)}
	for p := i; p < len(cmd); p++ {
		switch c := cmd[p]; {
		case c == '"' && quoted:
			// "notepad"c:/file.txt is a valid way to open c:/file.txt
			f.End, f.After = p, p+1
			return f
		case c == ' ' && !quoted, c == ',' && !quoted && commaSep:
			f.End, f.After = p, p
			return f
		}
	}
	return f
}

// Executable is the result of ExtractExecutable.
type Executable struct {
	Path           string // executable, or the DLL when run through rundll32
	Basename       string
	Folded         string
	FoldedBasename string
	DLLFunction    string // entry point passed to rundll32, empty otherwise

	// Launcher is the program the command line actually starts. It equals
	// Path unless a DLL was extracted.
	Launcher         string
	LauncherBasename string
}

// ExtractExecutable parses cmd and returns its executable. When the
// executable is rundll32.exe and a DLL plus function follow, the DLL
// becomes the executable and DLLFunction is set. rundll32.exe with no
// arguments is an ordinary executable.
//
// rundll32 accepts the function after any run of commas and spaces, and a
// quoted DLL name may contain commas:
//
//	rundll32.exe "c:\some,file.dll",,, , func %1
//	rundll32.exe c:\plain.dll func
func ExtractExecutable(cmd string) Executable {
	f := ParseFilename(cmd, false)
	exe := f.Executable(cmd)
	folded := ustr.Fold(exe)
	out := Executable{Path: exe, Folded: folded, Launcher: exe}

	rest := strings.TrimLeft(f.Rest(cmd), " ")
	if isRundll32(folded) && rest != "" {
		dll := ParseFilename(rest, true)
		if dll.After < len(rest) && dll.End > dll.Start {
			fn := strings.TrimLeft(rest[dll.After:], ", ")
			if fn != "" {
				if sp := strings.IndexFunc(fn, unicode.IsSpace); sp >= 0 {
					fn = fn[:sp]
				}
				path := dll.Executable(rest)
				out.Path = path
				out.Folded = ustr.Fold(path)
				out.DLLFunction = fn
			}
		}
	}

	out.Basename = ustr.Basename(out.Path)
	out.FoldedBasename = ustr.Basename(out.Folded)
	out.LauncherBasename = ustr.Basename(out.Launcher)
	return out
}

func isRundll32(folded string) bool {
	return folded == rundll32 ||
		strings.HasSuffix(folded, `\`+rundll32) ||
		strings.HasSuffix(folded, "/"+rundll32)
}

// FixupRundll32 rewrites
//
//	rundll32.exe "c:/program files/foo/bar.dll",,, , function %1
//
// so the comma right after the DLL name becomes a space. Argv re-quoting
// would otherwise glue the commas onto the DLL path. Only call it for
// command lines ExtractExecutable found a DLL function in. It is
// idempotent.
func FixupRundll32(cmd string) string {
	f := ParseFilename(cmd, false)
	start := f.After
	for start < len(cmd) && cmd[start] == ' ' {
		start++
	}
	arg := ParseFilename(cmd[start:], true)
	pos := start + arg.After
	if pos < len(cmd) && cmd[pos] == ',' {
		return cmd[:pos] + " " + cmd[pos+1:]
	}
	return cmd
}
