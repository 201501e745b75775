// Package compileinfo describes the build that produced the running binary,
// so that results can be traced back to the code that generated them.
package compileinfo

import (
	"fmt"
	"os"
	"runtime/debug"
	"strings"
)

// CompileInfo is the version control state of a build.
type CompileInfo struct {
	Package    string `json:"package"`
	Version    string `json:"version,omitempty"`
	GoVersion  string `json:"go_version"`
	Commit     string `json:"commit,omitempty"`
	CommitTime string `json:"commit_time,omitempty"`
	Modified   bool   `json:"modified,omitempty"`
}

func (c CompileInfo) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s", c.Package)
	if c.Version != "" && c.Version != "(devel)" {
		fmt.Fprintf(&sb, " %s", c.Version)
	}
	fmt.Fprintf(&sb, " built with %s", c.GoVersion)

	if c.Commit == "" {
		sb.WriteString(" (no commit information)")
		return sb.String()
	}

	fmt.Fprintf(&sb, " at commit %s (%s)", c.Commit, c.CommitTime)
	if c.Modified {
		sb.WriteString(" with uncommitted changes")
	}

	return sb.String()
}

// Get reads the build information embedded in the binary.
func Get() CompileInfo {
	out := CompileInfo{}

	z, ok := debug.ReadBuildInfo()
	if !ok {
		return out
	}

	out.GoVersion = z.GoVersion
	out.Package = z.Path
	out.Version = z.Main.Version
	for _, s := range z.Settings {
		switch s.Key {
		case "vcs.revision":
			out.Commit = s.Value
		case "vcs.time":
			out.CommitTime = s.Value
		case "vcs.modified":
			out.Modified = s.Value == "true"
		}
	}

	return out
}

// PrintToStdErr writes the build information on its own line to stderr.
func PrintToStdErr() {
	fmt.Fprintln(os.Stderr, Get())
}
