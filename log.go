package gopca

import "log"

// Verbosity controls how much progress is logged.
type Verbosity int

const (
	// Quiet logs only warnings and errors.
	Quiet Verbosity = iota
	Normal
	// Verbose adds per-term details and histograms.
	Verbose
)

// LogVerbosity is consulted by everything in this package that logs progress.
var LogVerbosity = Normal

func logf(format string, args ...interface{}) {
	if LogVerbosity >= Normal {
		log.Printf(format, args...)
	}
}

func debugf(format string, args ...interface{}) {
	if LogVerbosity >= Verbose {
		log.Printf(format, args...)
	}
}
