package dupefind

// Notifier receives progress events from a run. Implementations must be safe
// to call from the goroutine running the pipeline; events are never sent
// concurrently.
type Notifier interface {
	ScanningDirectory(root string)
	CollectedCandidates(stats WalkStats)
	StageComplete(stats StageStats)
	Warning(w Warning)
}

// NopNotifier discards all events
type NopNotifier struct{}

func (NopNotifier) ScanningDirectory(string)      {}
func (NopNotifier) CollectedCandidates(WalkStats) {}
func (NopNotifier) StageComplete(StageStats)      {}
func (NopNotifier) Warning(Warning)               {}
