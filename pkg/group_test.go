package dupefind

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, opts EngineOptions) *Engine {
	t.Helper()
	return NewEngine(testExtractor(t), opts)
}

func defaultEngineOptions() EngineOptions {
	return EngineOptions{MinSize: DefaultMinSize, MaxSize: DefaultMaxSize}
}

func candidateFor(t *testing.T, dir, name string, data []byte) Candidate {
	t.Helper()
	return Candidate{Path: writeTestFile(t, dir, name, data), Size: int64(len(data))}
}

func TestAccumulator_SizeBoundsAreExclusive(t *testing.T) {
	acc := NewAccumulator(100, 200)

	assert.False(t, acc.Add(Candidate{Path: "/x/100", Size: 100}), "size equal to minsize must be excluded")
	assert.False(t, acc.Add(Candidate{Path: "/x/200", Size: 200}), "size equal to maxsize must be excluded")
	assert.True(t, acc.Add(Candidate{Path: "/x/150", Size: 150}), "size inside the bounds must be accepted")
	assert.False(t, acc.Add(Candidate{Path: "/x/99", Size: 99}))
	assert.False(t, acc.Add(Candidate{Path: "/x/201", Size: 201}))

	buckets := acc.SizeBuckets()
	require.Len(t, buckets, 1)
	assert.Len(t, buckets[150], 1)
}

func TestAccumulator_ZeroSizeNeverEligible(t *testing.T) {
	acc := NewAccumulator(0, 1000)
	assert.False(t, acc.Eligible(0))
	assert.True(t, acc.Eligible(1))
}

func TestEngine_ScenarioTailDifference(t *testing.T) {
	tempDir := t.TempDir()
	content := patterned(5000, 42)
	other := append([]byte(nil), content...)
	other[len(other)-1] ^= 0xff

	a := candidateFor(t, tempDir, "a.bin", content)
	b := candidateFor(t, tempDir, "b.bin", content)
	c := candidateFor(t, tempDir, "c.bin", other)

	engine := newTestEngine(t, defaultEngineOptions())
	acc, err := engine.Group(Candidates(a, b, c))
	require.NoError(t, err)

	groups := acc.Groups()
	require.Len(t, groups, 1)
	assert.Equal(t, []string{a.Path, b.Path}, groups[0].Files)
	assert.Equal(t, 2, groups[0].Count)
	assert.Equal(t, int64(5000), groups[0].Size)

	// c survives the head stage and is dropped at the tail stage
	stats := acc.Stats()
	require.Len(t, stats, 3)
	assert.Equal(t, StageHead, stats[1].Stage)
	assert.Equal(t, 3, stats[1].Survivors)
	assert.Equal(t, StageTail, stats[2].Stage)
	assert.Equal(t, 1, stats[2].Rejected)
	assert.Equal(t, 2, stats[2].Survivors)
}

func TestEngine_DifferentSizesNeverGrouped(t *testing.T) {
	tempDir := t.TempDir()
	content := patterned(6000, 1)

	a := candidateFor(t, tempDir, "a", content)
	b := candidateFor(t, tempDir, "b", content[:5999])

	acc, err := newTestEngine(t, defaultEngineOptions()).Group(Candidates(a, b))
	require.NoError(t, err)
	assert.Empty(t, acc.Groups())
}

func TestEngine_DifferentHeadsNeverGrouped(t *testing.T) {
	tempDir := t.TempDir()
	content := patterned(6000, 1)
	other := append([]byte(nil), content...)
	other[0] ^= 0xff

	a := candidateFor(t, tempDir, "a", content)
	b := candidateFor(t, tempDir, "b", other)

	acc, err := newTestEngine(t, defaultEngineOptions()).Group(Candidates(a, b))
	require.NoError(t, err)
	assert.Empty(t, acc.Groups())
	assert.Equal(t, 2, acc.Stats()[1].Rejected)
}

func TestEngine_UniqueSizesAreNeverRead(t *testing.T) {
	// none of these paths exist; reading any of them would produce a warning
	cands := []Candidate{
		{Path: "/nonexistent/a", Size: 5000},
		{Path: "/nonexistent/b", Size: 5001},
		{Path: "/nonexistent/c", Size: 5002},
	}

	acc, err := newTestEngine(t, defaultEngineOptions()).Group(Candidates(cands...))
	require.NoError(t, err)
	assert.Empty(t, acc.Groups())
	assert.Empty(t, acc.Warnings())
	assert.Len(t, acc.Stats(), 1, "only the size stage should run")
}

func TestEngine_UnreadableFileIsExcluded(t *testing.T) {
	tempDir := t.TempDir()
	content := patterned(5000, 9)

	a := candidateFor(t, tempDir, "a", content)
	b := candidateFor(t, tempDir, "b", content)
	missing := Candidate{Path: filepath.Join(tempDir, "missing"), Size: 5000}

	acc, err := newTestEngine(t, defaultEngineOptions()).Group(Candidates(a, missing, b))
	require.NoError(t, err)

	groups := acc.Groups()
	require.Len(t, groups, 1)
	assert.Equal(t, []string{a.Path, b.Path}, groups[0].Files)

	warnings := acc.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, "head", warnings[0].Stage)
	var re *ReadError
	require.True(t, errors.As(warnings[0].Err, &re))
	assert.Equal(t, missing.Path, re.Path)
}

func TestEngine_GroupsAreDisjointAndOrdered(t *testing.T) {
	tempDir := t.TempDir()
	var cands []Candidate
	for i := 0; i < 9; i++ {
		// three contents, three copies each, interleaved
		seed := byte(i % 3)
		cands = append(cands, candidateFor(t, tempDir, fmt.Sprintf("f%d", i), patterned(5000, seed)))
	}

	acc, err := newTestEngine(t, defaultEngineOptions()).Group(Candidates(cands...))
	require.NoError(t, err)

	groups := acc.Groups()
	require.Len(t, groups, 3)

	seen := make(map[string]bool)
	keys := make(map[string]bool)
	for gi, g := range groups {
		require.Len(t, g.Files, 3)
		for k, f := range g.Files {
			assert.False(t, seen[f], "file %s appears in two groups", f)
			seen[f] = true
			assert.Equal(t, cands[gi+3*k].Path, f, "members keep traversal order")
		}
		assert.False(t, keys[g.Key], "group keys must be unique")
		keys[g.Key] = true
	}
}

func TestEngine_SharedTailDifferentSizeGetsDistinctKeys(t *testing.T) {
	tempDir := t.TempDir()
	tail := patterned(4096, 5)
	small := append(patterned(1000, 1), tail...)
	large := append(patterned(2000, 2), tail...)

	cands := []Candidate{
		candidateFor(t, tempDir, "s1", small),
		candidateFor(t, tempDir, "s2", small),
		candidateFor(t, tempDir, "l1", large),
		candidateFor(t, tempDir, "l2", large),
	}

	acc, err := newTestEngine(t, defaultEngineOptions()).Group(Candidates(cands...))
	require.NoError(t, err)

	groups := acc.Groups()
	require.Len(t, groups, 2)
	assert.Equal(t, groups[0].Hash, groups[1].Hash, "both groups share the tail digest")
	assert.NotEqual(t, groups[0].Key, groups[1].Key)
}

func TestEngine_ParallelMatchesSequential(t *testing.T) {
	tempDir := t.TempDir()
	var cands []Candidate
	for i := 0; i < 40; i++ {
		size := 5000 + (i%4)*10
		cands = append(cands, candidateFor(t, tempDir, fmt.Sprintf("f%02d", i), patterned(size, byte(i%7))))
	}

	seqOpts := defaultEngineOptions()
	seq, err := newTestEngine(t, seqOpts).Group(Candidates(cands...))
	require.NoError(t, err)

	parOpts := defaultEngineOptions()
	parOpts.Workers = 8
	par, err := newTestEngine(t, parOpts).Group(Candidates(cands...))
	require.NoError(t, err)

	assert.Equal(t, seq.Groups(), par.Groups())
	assert.Equal(t, seq.Stats(), par.Stats())
}

func TestEngine_VerifySplitsMiddleDifferences(t *testing.T) {
	tempDir := t.TempDir()
	content := patterned(10000, 3)
	other := append([]byte(nil), content...)
	other[5000] ^= 0xff // outside both 4096-byte windows

	a := candidateFor(t, tempDir, "a", content)
	b := candidateFor(t, tempDir, "b", other)
	c := candidateFor(t, tempDir, "c", content)

	sampled, err := newTestEngine(t, defaultEngineOptions()).Group(Candidates(a, b, c))
	require.NoError(t, err)
	require.Len(t, sampled.Groups(), 1)
	assert.Len(t, sampled.Groups()[0].Files, 3, "sampling alone cannot see the middle")
	assert.False(t, sampled.Verified())

	opts := defaultEngineOptions()
	opts.Verify = true
	verified, err := newTestEngine(t, opts).Group(Candidates(a, b, c))
	require.NoError(t, err)
	require.Len(t, verified.Groups(), 1)

	g := verified.Groups()[0]
	assert.Equal(t, []string{a.Path, c.Path}, g.Files)
	assert.True(t, g.Verified)
	assert.NotEmpty(t, g.Content)
	assert.True(t, verified.Verified())
	assert.Len(t, verified.Stats(), 4)
}

func TestEngine_Interrupted(t *testing.T) {
	tempDir := t.TempDir()
	content := patterned(5000, 4)
	a := candidateFor(t, tempDir, "a", content)
	b := candidateFor(t, tempDir, "b", content)

	shutdown := make(chan struct{})
	close(shutdown)

	for _, workers := range []int{1, 4} {
		opts := defaultEngineOptions()
		opts.ShutdownChan = shutdown
		opts.Workers = workers
		_, err := newTestEngine(t, opts).Group(Candidates(a, b))
		assert.ErrorIs(t, err, ErrInterrupted, "workers=%d", workers)
	}
}

type recordingNotifier struct {
	NopNotifier
	stages   []Stage
	warnings int
}

func (r *recordingNotifier) StageComplete(s StageStats) { r.stages = append(r.stages, s.Stage) }
func (r *recordingNotifier) Warning(Warning)            { r.warnings++ }

func TestEngine_NotifiesEachStage(t *testing.T) {
	tempDir := t.TempDir()
	content := patterned(5000, 8)
	a := candidateFor(t, tempDir, "a", content)
	b := candidateFor(t, tempDir, "b", content)
	missing := Candidate{Path: filepath.Join(tempDir, "missing"), Size: 5000}

	rec := &recordingNotifier{}
	opts := defaultEngineOptions()
	opts.Notifier = rec
	_, err := newTestEngine(t, opts).Group(Candidates(a, b, missing))
	require.NoError(t, err)

	assert.Equal(t, []Stage{StageSize, StageHead, StageTail}, rec.stages)
	assert.Equal(t, 1, rec.warnings)
}
