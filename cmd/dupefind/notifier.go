package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	dupefind "github.com/mattkeenan/dupefind/pkg"
)

var (
	bold   = color.New(color.Bold)
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
)

// progressNotifier prints pipeline progress to stderr. Warnings are always
// printed; the other events only when progress is set.
type progressNotifier struct {
	w        io.Writer
	progress bool
}

func newProgressNotifier(w io.Writer, progress bool) progressNotifier {
	return progressNotifier{w: w, progress: progress}
}

func (n progressNotifier) ScanningDirectory(root string) {
	if !n.progress {
		return
	}
	fmt.Fprintf(n.w, "%s scanning directory: %s\n", nowStr(), root)
}

func (n progressNotifier) CollectedCandidates(stats dupefind.WalkStats) {
	if !n.progress {
		return
	}
	fmt.Fprintf(
		n.w,
		"%s collected %d files from %d directories (skipped %d symlinks, %d special files, %d ignored)\n",
		nowStr(),
		stats.Files,
		stats.Dirs,
		stats.Symlinks,
		stats.Special,
		stats.Ignored,
	)
}

func (n progressNotifier) StageComplete(stats dupefind.StageStats) {
	if !n.progress {
		return
	}
	bold.Fprintf(
		n.w,
		"%s %s stage: %d files in, %d groups of %d files out\n",
		nowStr(),
		stats.Stage,
		stats.Considered,
		stats.Buckets,
		stats.Survivors,
	)
	if stats.Rejected > 0 {
		green.Fprintf(n.w, "%s  ignoring %d files with a unique %s\n", nowStr(), stats.Rejected, stats.Stage)
	}
	if stats.Failed > 0 {
		yellow.Fprintf(n.w, "%s  %d files could not be read\n", nowStr(), stats.Failed)
	}
}

func (n progressNotifier) Warning(w dupefind.Warning) {
	dupefind.Warnf("%s", w)
}

func nowStr() string {
	return time.Now().Format("2006-01-02 15:04:05")
}
