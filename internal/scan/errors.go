package scan

import (
	"errors"

	"github.com/rs/zerolog"
)

// Op names the filesystem call that failed during a scan.
type Op string

// Operations reported to an ErrorHandler.
const (
	OpReadDir Op = "readdir"
	OpStat    Op = "stat"
	OpFollow  Op = "follow"
)

// ErrSymlinkCycle is reported with OpFollow for a symlink that resolves to a
// directory the walk is already inside.
var ErrSymlinkCycle = errors.New("symlink points to an enclosing directory")

// ErrorHandler decides what happens to a failure met during the walk. The walk
// always carries on afterwards: a directory that failed OpReadDir contributes no
// children, an entry that failed OpStat is left out of the result and a symlink
// that failed OpFollow is not descended into.
type ErrorHandler func(path string, op Op, err error)

// SkippedPath records one directory or entry the walk could not read.
type SkippedPath struct {
	Path  string `json:"path"`
	Op    Op     `json:"op"`
	Error string `json:"error"`
}

// SkipSilently drops every failure. It is the default.
func SkipSilently(string, Op, error) {}

// Collect appends each failure to dst. The returned handler is not safe for
// concurrent scans.
func Collect(dst *[]SkippedPath) ErrorHandler {
	return func(path string, op Op, err error) {
		*dst = append(*dst, SkippedPath{Path: path, Op: op, Error: err.Error()})
	}
}

// LogSkips reports failures at debug level.
func LogSkips(logger zerolog.Logger) ErrorHandler {
	return func(path string, op Op, err error) {
		logger.Debug().Str("path", path).Str("op", string(op)).Err(err).Msg("scan skipped path")
	}
}

// Chain calls every handler in order.
func Chain(handlers ...ErrorHandler) ErrorHandler {
	return func(path string, op Op, err error) {
		for _, h := range handlers {
			h(path, op, err)
		}
	}
}
