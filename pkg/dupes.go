package dupefind

// DuplicateGroup is a set of two or more files judged identical by the pipeline
type DuplicateGroup struct {
	Key      string   `json:"key" yaml:"key"`                             // Opaque group identifier
	Size     int64    `json:"size" yaml:"size"`                           // Size of every member
	Head     string   `json:"head" yaml:"head"`                           // Head window digest (hex)
	Hash     string   `json:"hash" yaml:"hash"`                           // Tail window digest (hex)
	Content  string   `json:"content,omitempty" yaml:"content,omitempty"` // Full-content digest when verified
	Verified bool     `json:"verified" yaml:"verified"`
	Files    []string `json:"files" yaml:"files"` // Traversal order
	Count    int      `json:"count" yaml:"count"`
}

// Redundant returns how many members could be removed keeping one
func (g *DuplicateGroup) Redundant() int {
	if g.Count < 1 {
		return 0
	}
	return g.Count - 1
}

// Summary holds the counts handed to the report renderer
type Summary struct {
	Groups           int   `json:"groups" yaml:"groups"`
	Files            int   `json:"files" yaml:"files"`
	Redundant        int   `json:"redundant" yaml:"redundant"` // Files - Groups
	ReclaimableBytes int64 `json:"reclaimable_bytes" yaml:"reclaimable_bytes"`
}

// Report is the read-only result of a run
type Report struct {
	Root     string
	Walk     WalkStats
	Stages   []StageStats
	Warnings []Warning

	index   *groupIndex
	summary Summary
}

// NewReport builds a report over groups. Groups with fewer than two files are ignored.
func NewReport(groups []DuplicateGroup) *Report {
	r := &Report{index: newGroupIndex(16)}
	owned := make([]DuplicateGroup, 0, len(groups))
	for _, g := range groups {
		if len(g.Files) < 2 {
			continue
		}
		g.Files = append([]string(nil), g.Files...)
		g.Count = len(g.Files)
		owned = append(owned, g)
	}

	for i := range owned {
		g := &owned[i]
		context := SampledContext
		if g.Verified {
			context = VerifiedContext
		}
		if !r.index.Insert(g, context) {
			VerboseLog(1, "report: duplicate group key %s ignored", g.Key)
			continue
		}
		r.summary.Groups++
		r.summary.Files += g.Count
		r.summary.ReclaimableBytes += g.Size * int64(g.Redundant())
	}
	r.summary.Redundant = r.summary.Files - r.summary.Groups
	return r
}

// Summary returns the group, file and redundant-file counts
func (r *Report) Summary() Summary {
	return r.summary
}

// Groups returns every group, largest size first
func (r *Report) Groups() []DuplicateGroup {
	out := make([]DuplicateGroup, 0, r.index.Length())
	r.ForEach(func(g *DuplicateGroup) bool {
		out = append(out, *g)
		return true
	})
	return out
}

// ForEach visits the groups in report order until fn returns false
func (r *Report) ForEach(fn func(*DuplicateGroup) bool) {
	r.index.ForEach(func(g *DuplicateGroup, _ string) bool {
		return fn(g)
	})
}

// Find returns the group with the given size and key
func (r *Report) Find(size int64, key string) (*DuplicateGroup, bool) {
	g, _ := r.index.Find(size, key)
	return g, g != nil
}

// IsVerified reports whether a group's members also matched on full content
func (r *Report) IsVerified(size int64, key string) bool {
	_, context := r.index.Find(size, key)
	return context == VerifiedContext
}
