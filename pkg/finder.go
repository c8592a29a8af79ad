package dupefind

import (
	"fmt"
	"os"
	"path/filepath"
)

// Options configures a duplicate search
type Options struct {
	Root          string // Directory to scan
	MinSize       int64  // Exclusive lower size bound
	MaxSize       int64  // Exclusive upper size bound
	HashAlgorithm string // blake2b, sha256, sha512 or sha1
	WindowSize    int64  // Bytes sampled from each end of a file
	Verify        bool   // Confirm groups with a full-content digest
	Workers       int    // Concurrent fingerprint workers
	Ignore        *IgnoreManager
	Notifier      Notifier
}

// DefaultOptions returns the options used when nothing is configured
func DefaultOptions(root string) Options {
	return Options{
		Root:          root,
		MinSize:       DefaultMinSize,
		MaxSize:       DefaultMaxSize,
		HashAlgorithm: DefaultHashAlgorithm,
		WindowSize:    DefaultWindowSize,
		Workers:       1,
	}
}

// OptionsFromConfig builds options for root from a validated configuration
func OptionsFromConfig(cfg *Config, root string) (Options, error) {
	if err := cfg.Validate(); err != nil {
		return Options{}, err
	}
	all := cfg.GetAllConfig()
	opts := DefaultOptions(root)
	opts.MinSize = all.Filter.MinSize
	opts.MaxSize = all.Filter.MaxSize
	opts.HashAlgorithm = all.Hash.Default
	opts.WindowSize = all.Hash.Window
	opts.Verify = all.Hash.Verify
	opts.Workers = all.Performance.HashWorkers
	return opts, nil
}

// Validate checks the options before any traversal happens
func (o *Options) Validate() error {
	if err := ValidateSizeBounds(o.MinSize, o.MaxSize); err != nil {
		return err
	}
	if err := ValidateWindowSize(o.WindowSize); err != nil {
		return err
	}
	if err := ValidateHashAlgorithm(o.HashAlgorithm); err != nil {
		return &ConfigError{Field: "hash", Reason: err.Error()}
	}
	if o.Workers == 0 {
		o.Workers = 1
	}
	if err := ValidateHashWorkers(o.Workers); err != nil {
		return err
	}

	if o.Root == "" {
		return &ConfigError{Field: "root", Reason: "no directory given"}
	}
	info, err := os.Stat(o.Root)
	if err != nil {
		return &ConfigError{Field: "root", Reason: err.Error()}
	}
	if !info.IsDir() {
		return &ConfigError{Field: "root", Reason: fmt.Sprintf("%s is not a directory", o.Root)}
	}
	f, err := os.Open(o.Root)
	if err != nil {
		return &ConfigError{Field: "root", Reason: err.Error()}
	}
	f.Close()
	return nil
}

// Finder runs the walk, fingerprint and grouping pipeline over one directory tree
type Finder struct {
	opts      Options
	root      string
	extractor *Extractor
}

// NewFinder validates opts and prepares a finder. Errors are ConfigErrors.
func NewFinder(opts Options) (*Finder, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, &ConfigError{Field: "root", Reason: err.Error()}
	}

	algorithm, err := GetHashAlgorithm(opts.HashAlgorithm)
	if err != nil {
		return nil, &ConfigError{Field: "hash", Reason: err.Error()}
	}
	extractor, err := NewExtractor(algorithm, opts.WindowSize)
	if err != nil {
		return nil, err
	}

	if opts.Notifier == nil {
		opts.Notifier = NopNotifier{}
	}
	return &Finder{opts: opts, root: root, extractor: extractor}, nil
}

// Root returns the absolute directory being scanned
func (f *Finder) Root() string {
	return f.root
}

// FindDuplicates walks the tree and returns the duplicate report. Unreadable
// directories and files become warnings on the report. Closing shutdownChan
// stops the run with ErrInterrupted.
func (f *Finder) FindDuplicates(shutdownChan <-chan struct{}) (*Report, error) {
	defer VerboseEnter()()
	notify := f.opts.Notifier

	notify.ScanningDirectory(f.root)
	VerboseLog(1, "Scanning %s (minsize %d, maxsize %d, %s window %d)",
		f.root, f.opts.MinSize, f.opts.MaxSize, f.extractor.Algorithm.Name, f.extractor.WindowSize)

	walker := NewWalker(f.root, WalkerOptions{Ignore: f.opts.Ignore, ShutdownChan: shutdownChan})
	engine := NewEngine(f.extractor, EngineOptions{
		MinSize:      f.opts.MinSize,
		MaxSize:      f.opts.MaxSize,
		Verify:       f.opts.Verify,
		Workers:      f.opts.Workers,
		ShutdownChan: shutdownChan,
		Notifier:     notify,
	})

	acc := engine.NewAccumulator()
	for c, ok := walker.Next(); ok; c, ok = walker.Next() {
		acc.Add(c)
	}
	for _, w := range walker.Warnings() {
		notify.Warning(w)
	}
	if err := walker.Err(); err != nil {
		return nil, err
	}
	notify.CollectedCandidates(walker.Stats())

	if err := engine.Run(acc); err != nil {
		return nil, fmt.Errorf("failed to group %s: %w", f.root, err)
	}

	report := NewReport(acc.Groups())
	report.Root = f.root
	report.Walk = walker.Stats()
	report.Stages = acc.Stats()
	report.Warnings = append(append([]Warning(nil), walker.Warnings()...), acc.Warnings()...)

	summary := report.Summary()
	VerboseLog(1, "Found %d groups, %d files, %d redundant", summary.Groups, summary.Files, summary.Redundant)
	return report, nil
}

// FindDuplicates is a convenience wrapper around NewFinder and Finder.FindDuplicates
func FindDuplicates(opts Options, shutdownChan <-chan struct{}) (*Report, error) {
	f, err := NewFinder(opts)
	if err != nil {
		return nil, err
	}
	return f.FindDuplicates(shutdownChan)
}
