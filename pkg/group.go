package dupefind

import (
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Stage identifies one discriminator of the grouping pipeline
type Stage int

const (
	StageSize    Stage = iota // Exact byte size within the exclusive bounds
	StageHead                 // Fingerprint of the head window
	StageTail                 // Fingerprint of the tail window
	StageContent              // Optional digest of the whole file
)

func (s Stage) String() string {
	switch s {
	case StageSize:
		return "size"
	case StageHead:
		return "head"
	case StageTail:
		return "tail"
	case StageContent:
		return "content"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// StageStats describes what one stage did to the population
type StageStats struct {
	Stage      Stage
	Considered int // Files entering the stage
	Rejected   int // Files dropped because they matched nobody (or were out of bounds)
	Failed     int // Files dropped because they could not be read
	Buckets    int // Buckets of two or more files leaving the stage
	Survivors  int // Files leaving the stage
}

// EngineOptions configures the grouping engine
type EngineOptions struct {
	MinSize      int64 // Exclusive lower bound
	MaxSize      int64 // Exclusive upper bound
	Verify       bool  // Add a full-content stage after the tail stage
	Workers      int   // Concurrent fingerprint workers; <= 1 is sequential
	ShutdownChan <-chan struct{}
	Notifier     Notifier
}

// CandidateSource yields candidates one at a time; *Walker implements it
type CandidateSource interface {
	Next() (Candidate, bool)
}

type sliceSource struct {
	items []Candidate
	pos   int
}

func (s *sliceSource) Next() (Candidate, bool) {
	if s.pos >= len(s.items) {
		return Candidate{}, false
	}
	s.pos++
	return s.items[s.pos-1], true
}

// Candidates wraps a fixed list as a CandidateSource
func Candidates(items ...Candidate) CandidateSource {
	return &sliceSource{items: items}
}

// bucket is a set of files that agreed on every stage run so far
type bucket struct {
	size    int64
	head    Digest
	tail    Digest
	full    Digest
	members []Candidate
}

// Accumulator is the state threaded through the stages of one run
type Accumulator struct {
	minSize   int64
	maxSize   int64
	sizeOrder []int64
	bySize    map[int64][]Candidate
	seen      int
	rejected  int
	buckets   []*bucket
	stats     []StageStats
	warnings  []Warning
	verified  bool
	algorithm *HashAlgorithm
}

// NewAccumulator creates an empty accumulator for the given exclusive size bounds
func NewAccumulator(minSize, maxSize int64) *Accumulator {
	return &Accumulator{
		minSize: minSize,
		maxSize: maxSize,
		bySize:  make(map[int64][]Candidate),
	}
}

// Eligible reports whether size passes the size stage bounds
func (acc *Accumulator) Eligible(size int64) bool {
	return size > 0 && acc.minSize < size && size < acc.maxSize
}

// Add applies the size filter to c and buckets it by exact size
func (acc *Accumulator) Add(c Candidate) bool {
	acc.seen++
	if !acc.Eligible(c.Size) {
		acc.rejected++
		return false
	}
	if _, ok := acc.bySize[c.Size]; !ok {
		acc.sizeOrder = append(acc.sizeOrder, c.Size)
	}
	acc.bySize[c.Size] = append(acc.bySize[c.Size], c)
	return true
}

// SizeBuckets returns the files accepted so far, bucketed by exact size
func (acc *Accumulator) SizeBuckets() map[int64][]Candidate {
	return acc.bySize
}

// Stats returns the per-stage counters in stage order
func (acc *Accumulator) Stats() []StageStats {
	return acc.stats
}

// Warnings returns the files that were excluded because they could not be read
func (acc *Accumulator) Warnings() []Warning {
	return acc.warnings
}

// Verified reports whether the full-content stage ran
func (acc *Accumulator) Verified() bool {
	return acc.verified
}

// closeSizeStage turns the size buckets into the initial set of buckets,
// dropping sizes held by a single file
func (acc *Accumulator) closeSizeStage() StageStats {
	stats := StageStats{Stage: StageSize, Considered: acc.seen, Rejected: acc.rejected}
	acc.buckets = acc.buckets[:0]
	for _, size := range acc.sizeOrder {
		members := acc.bySize[size]
		if len(members) < 2 {
			stats.Rejected += len(members)
			continue
		}
		acc.buckets = append(acc.buckets, &bucket{size: size, members: members})
		stats.Buckets++
		stats.Survivors += len(members)
	}
	acc.stats = append(acc.stats, stats)
	return stats
}

// Groups converts the surviving buckets into duplicate groups
func (acc *Accumulator) Groups() []DuplicateGroup {
	groups := make([]DuplicateGroup, 0, len(acc.buckets))
	for _, b := range acc.buckets {
		files := make([]string, len(b.members))
		for i, m := range b.members {
			files[i] = m.Path
		}
		g := DuplicateGroup{
			Key:      acc.groupKey(b),
			Size:     b.size,
			Head:     b.head.String(),
			Hash:     b.tail.String(),
			Files:    files,
			Count:    len(files),
			Verified: acc.verified,
		}
		if acc.verified {
			g.Content = b.full.String()
		}
		groups = append(groups, g)
	}
	return groups
}

// groupKey derives an opaque identifier from everything the bucket agreed on,
// so two groups that happen to share a tail digest still get distinct keys
func (acc *Accumulator) groupKey(b *bucket) string {
	if acc.algorithm == nil {
		return fmt.Sprintf("%d-%s-%s-%s", b.size, b.head, b.tail, b.full)
	}
	var sizeBuf [8]byte
	binary.BigEndian.PutUint64(sizeBuf[:], uint64(b.size))
	data := make([]byte, 0, 8+3*MaxDigestSize)
	data = append(data, sizeBuf[:]...)
	data = append(data, b.head.Bytes()...)
	data = append(data, b.tail.Bytes()...)
	// empty unless the content stage ran
	data = append(data, b.full.Bytes()...)
	sum := acc.algorithm.Sum(data)
	return sum.String()
}

// Engine runs the staged grouping pipeline
type Engine struct {
	ex   *Extractor
	opts EngineOptions
}

// NewEngine creates a grouping engine that fingerprints with ex
func NewEngine(ex *Extractor, opts EngineOptions) *Engine {
	if opts.Notifier == nil {
		opts.Notifier = NopNotifier{}
	}
	return &Engine{ex: ex, opts: opts}
}

// NewAccumulator creates an accumulator using the engine's size bounds
func (e *Engine) NewAccumulator() *Accumulator {
	acc := NewAccumulator(e.opts.MinSize, e.opts.MaxSize)
	acc.algorithm = e.ex.Algorithm
	return acc
}

// Group drains src and runs every stage. The accumulator is returned even on
// interruption so partial statistics remain available.
func (e *Engine) Group(src CandidateSource) (*Accumulator, error) {
	defer VerboseEnter()()
	acc := e.NewAccumulator()
	for c, ok := src.Next(); ok; c, ok = src.Next() {
		acc.Add(c)
	}
	return acc, e.Run(acc)
}

// Run applies the size, head, tail and optional content stages to acc
func (e *Engine) Run(acc *Accumulator) error {
	e.opts.Notifier.StageComplete(acc.closeSizeStage())
	if len(acc.buckets) == 0 {
		return nil
	}

	if err := e.refine(acc, StageHead, func(c Candidate) (Digest, error) {
		return e.ex.Fingerprint(c, HeadWindow)
	}, func(b *bucket, d Digest) { b.head = d }); err != nil {
		return err
	}

	if err := e.refine(acc, StageTail, func(c Candidate) (Digest, error) {
		return e.ex.Fingerprint(c, TailWindow)
	}, func(b *bucket, d Digest) { b.tail = d }); err != nil {
		return err
	}

	if e.opts.Verify {
		if err := e.refine(acc, StageContent, func(c Candidate) (Digest, error) {
			return e.ex.FullDigest(c, e.opts.ShutdownChan)
		}, func(b *bucket, d Digest) { b.full = d }); err != nil {
			return err
		}
		acc.verified = true
	}
	return nil
}

type digestResult struct {
	digest Digest
	err    error
}

// refine splits every bucket by the digest fp computes for its members and
// keeps only the sub-buckets with two or more files. Members keep their order.
func (e *Engine) refine(acc *Accumulator, stage Stage, fp func(Candidate) (Digest, error), set func(*bucket, Digest)) error {
	stats := StageStats{Stage: stage}
	var jobs []Candidate
	for _, b := range acc.buckets {
		jobs = append(jobs, b.members...)
	}
	stats.Considered = len(jobs)

	results, err := e.fingerprintAll(jobs, fp)
	if err != nil {
		return err
	}

	var next []*bucket
	offset := 0
	for _, b := range acc.buckets {
		var split []*bucket
		index := make(map[Digest]int)
		for i, m := range b.members {
			res := results[offset+i]
			if res.err != nil {
				stats.Failed++
				w := Warning{Stage: stage.String(), Err: res.err}
				acc.warnings = append(acc.warnings, w)
				e.opts.Notifier.Warning(w)
				continue
			}
			pos, ok := index[res.digest]
			if !ok {
				nb := &bucket{size: b.size, head: b.head, tail: b.tail, full: b.full}
				set(nb, res.digest)
				pos = len(split)
				index[res.digest] = pos
				split = append(split, nb)
			}
			split[pos].members = append(split[pos].members, m)
		}
		offset += len(b.members)

		for _, nb := range split {
			if len(nb.members) < 2 {
				stats.Rejected += len(nb.members)
				continue
			}
			next = append(next, nb)
			stats.Buckets++
			stats.Survivors += len(nb.members)
		}
	}

	acc.buckets = next
	acc.stats = append(acc.stats, stats)
	if IsDebugEnabled("stage") {
		DebugLog("stage", "%s: %d in, %d rejected, %d failed, %d buckets, %d out",
			stage, stats.Considered, stats.Rejected, stats.Failed, stats.Buckets, stats.Survivors)
	}
	e.opts.Notifier.StageComplete(stats)
	return nil
}

// fingerprintAll computes fp for every job. Each result lands at the index of
// its job, so workers never share a slot and no bucket is touched concurrently.
func (e *Engine) fingerprintAll(jobs []Candidate, fp func(Candidate) (Digest, error)) ([]digestResult, error) {
	results := make([]digestResult, len(jobs))

	if e.opts.Workers <= 1 {
		for i, c := range jobs {
			if e.interrupted() {
				return nil, ErrInterrupted
			}
			d, err := fp(c)
			if errors.Is(err, ErrInterrupted) {
				return nil, err
			}
			results[i] = digestResult{digest: d, err: err}
		}
		return results, nil
	}

	var g errgroup.Group
	g.SetLimit(e.opts.Workers)
	for i := range jobs {
		i := i
		g.Go(func() error {
			if e.interrupted() {
				return ErrInterrupted
			}
			d, err := fp(jobs[i])
			if errors.Is(err, ErrInterrupted) {
				return err
			}
			results[i] = digestResult{digest: d, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (e *Engine) interrupted() bool {
	select {
	case <-e.opts.ShutdownChan:
		return true
	default:
		return false
	}
}
