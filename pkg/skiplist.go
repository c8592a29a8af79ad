package dupefind

import (
	"strings"

	zcsl "github.com/mattkeenan/zerocopyskiplist"
)

// groupOrder orders groups by size, largest first, then by key
type groupOrder struct {
	size int64
	key  string
}

func compareGroupOrder(a, b groupOrder) int {
	switch {
	case a.size > b.size:
		return -1
	case a.size < b.size:
		return 1
	default:
		return strings.Compare(a.key, b.key)
	}
}

// groupIndex wraps the zerocopyskiplist with the group context (sampled or verified)
type groupIndex struct {
	skiplist *zcsl.ZeroCopySkiplist[DuplicateGroup, groupOrder, string]
}

// newGroupIndex creates an empty ordered index of duplicate groups
func newGroupIndex(maxLevels int) *groupIndex {
	if maxLevels < 8 {
		maxLevels = 16
	}

	getKeyFromItem := func(g *DuplicateGroup) groupOrder {
		return groupOrder{size: g.Size, key: g.Key}
	}

	// Approximate footprint: the path bytes plus the fixed fields
	getItemSize := func(g *DuplicateGroup) int {
		n := len(g.Key) + len(g.Head) + len(g.Hash) + len(g.Content) + 16
		for _, f := range g.Files {
			n += len(f)
		}
		return n
	}

	return &groupIndex{
		skiplist: zcsl.MakeZeroCopySkiplist[DuplicateGroup, groupOrder, string](
			maxLevels,
			getKeyFromItem,
			getItemSize,
			compareGroupOrder,
		),
	}
}

// Insert adds a group with its context; the index keeps the pointer
func (gi *groupIndex) Insert(g *DuplicateGroup, context string) bool {
	return gi.skiplist.Insert(g, context)
}

// Find looks a group up by size and key
func (gi *groupIndex) Find(size int64, key string) (*DuplicateGroup, string) {
	itemPtr, context := gi.skiplist.Find(groupOrder{size: size, key: key})
	if itemPtr != nil {
		return itemPtr.Item(), context
	}
	return nil, ""
}

// ForEach iterates through all groups in order with a callback
func (gi *groupIndex) ForEach(callback func(*DuplicateGroup, string) bool) {
	for current := gi.skiplist.First(); current != nil; current = current.Next() {
		if !callback(current.Item(), current.Context()) {
			break
		}
	}
}

// Length returns the number of groups in the index
func (gi *groupIndex) Length() int {
	return gi.skiplist.Length()
}
