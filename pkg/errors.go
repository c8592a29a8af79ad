package dupefind

import (
	"errors"
	"fmt"
)

// ErrInterrupted is returned when a scan is stopped through the shutdown channel
var ErrInterrupted = errors.New("scan interrupted by shutdown")

// ConfigError reports invalid input detected before traversal begins
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "invalid configuration: " + e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// TraversalError reports a directory that could not be listed. The subtree
// below Dir is skipped and the scan continues.
type TraversalError struct {
	Dir string
	Err error
}

func (e *TraversalError) Error() string {
	return fmt.Sprintf("cannot read directory %s: %v", e.Dir, e.Err)
}

func (e *TraversalError) Unwrap() error { return e.Err }

// ReadError reports a candidate file that could not be fingerprinted. The
// file is excluded from grouping and the scan continues.
type ReadError struct {
	Path string
	Op   string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("cannot %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Warning is a recoverable problem recorded during a run
type Warning struct {
	Stage string
	Err   error
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %v", w.Stage, w.Err)
}

// IsConfigError reports whether err is, or wraps, a ConfigError
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
