package dupefind

import (
	"io/fs"
	"os"
	"path/filepath"
)

// Candidate is a regular file found under the scan root
type Candidate struct {
	Path string // Absolute path
	Size int64  // Size in bytes at listing time
}

// WalkerOptions controls what the walker yields
type WalkerOptions struct {
	Ignore       *IgnoreManager  // Optional path filter
	ShutdownChan <-chan struct{} // Closing it stops the walk before the next directory
}

// WalkStats counts what the walker saw
type WalkStats struct {
	Dirs     int // Directories listed
	Files    int // Regular files yielded
	Symlinks int // Symbolic links skipped
	Special  int // Pipes, sockets and devices skipped
	Ignored  int // Entries pruned by ignore patterns
}

// Walker enumerates regular files below a root directory. It is a pull iterator:
// call Next until it returns false, then check Err. Symbolic links are never
// followed or yielded. A directory that cannot be listed is skipped and recorded
// as a warning. Create a new Walker to restart.
type Walker struct {
	root        string
	opts        WalkerOptions
	directories []string
	directory   string
	entries     []fs.DirEntry
	cursor      int
	stats       WalkStats
	warnings    []Warning
	err         error
	done        bool
}

// NewWalker creates a walker rooted at root
func NewWalker(root string, opts WalkerOptions) *Walker {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return &Walker{
		root:        root,
		opts:        opts,
		directories: []string{root},
	}
}

// Root returns the absolute root the walker was created with
func (w *Walker) Root() string {
	return w.root
}

// Next returns the next candidate, or false when the walk is over
func (w *Walker) Next() (Candidate, bool) {
	if w.done {
		return Candidate{}, false
	}

	for {
		// loop over the remaining entries until we hit a regular file,
		// queueing directories as they are found
		for w.cursor < len(w.entries) {
			entry := w.entries[w.cursor]
			w.cursor++
			path := filepath.Join(w.directory, entry.Name())

			if w.ignored(path) {
				w.stats.Ignored++
				DebugLog("walk", "ignoring %s", path)
				continue
			}

			mode := entry.Type()
			switch {
			case mode&fs.ModeSymlink != 0:
				w.stats.Symlinks++
				DebugLog("walk", "skipping symlink %s", path)
				continue
			case entry.IsDir():
				w.directories = append(w.directories, path)
				continue
			case !mode.IsRegular():
				w.stats.Special++
				DebugLog("walk", "skipping special file %s", path)
				continue
			}

			info, err := entry.Info()
			if err != nil {
				w.warn(&ReadError{Path: path, Op: "stat", Err: err})
				continue
			}
			// replaced since the directory was listed
			if !info.Mode().IsRegular() {
				w.stats.Special++
				continue
			}

			w.stats.Files++
			return Candidate{Path: path, Size: info.Size()}, true
		}

		if len(w.directories) == 0 {
			w.done = true
			return Candidate{}, false
		}

		select {
		case <-w.opts.ShutdownChan:
			w.err = ErrInterrupted
			w.done = true
			return Candidate{}, false
		default:
		}

		// pop off the next directory
		w.directory = w.directories[0]
		w.directories = w.directories[1:]
		w.cursor = 0

		entries, err := os.ReadDir(w.directory)
		if err != nil {
			w.entries = nil
			w.warn(&TraversalError{Dir: w.directory, Err: err})
			continue
		}
		w.entries = entries
		w.stats.Dirs++
		DebugLog("walk", "listed %s (%d entries)", w.directory, len(entries))
	}
}

func (w *Walker) ignored(path string) bool {
	if !w.opts.Ignore.HasPatterns() {
		return false
	}
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	return w.opts.Ignore.ShouldIgnore(rel)
}

func (w *Walker) warn(err error) {
	VerboseLog(1, "walk: %v", err)
	w.warnings = append(w.warnings, Warning{Stage: "walk", Err: err})
}

// Err returns ErrInterrupted if the walk was stopped early
func (w *Walker) Err() error {
	return w.err
}

// Warnings returns the recoverable problems met so far
func (w *Walker) Warnings() []Warning {
	return w.warnings
}

// Stats returns the counters accumulated so far
func (w *Walker) Stats() WalkStats {
	return w.stats
}

// Collect drains the walker into a slice
func (w *Walker) Collect() []Candidate {
	var out []Candidate
	for c, ok := w.Next(); ok; c, ok = w.Next() {
		out = append(out, c)
	}
	return out
}
