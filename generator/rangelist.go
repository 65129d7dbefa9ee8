package generator

import (
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/syssam/xorgen"
)

// RangeNode assigns a collection size to every owner id in [Start, End].
// A node with negative bounds is a no-owner block: its ids stand for
// entities without an owner and never match a real owner id.
type RangeNode struct {
	Start, End       int64
	MinSize, MaxSize int64
	next             *RangeNode
}

// Next returns the following node, or nil.
func (n *RangeNode) Next() *RangeNode { return n.next }

// NoOwner reports whether n is a no-owner block.
func (n *RangeNode) NoOwner() bool { return n.Start < 0 }

// Fixed reports whether every owner in n has the same collection size.
func (n *RangeNode) Fixed() bool { return n.MinSize == n.MaxSize }

// Empty reports whether owners in n never have elements.
func (n *RangeNode) Empty() bool { return n.MaxSize == 0 }

// Contains reports whether id lies within n.
func (n *RangeNode) Contains(id int64) bool { return id >= n.Start && id <= n.End }

// Len returns the number of ids covered by n.
func (n *RangeNode) Len() int64 { return n.End - n.Start + 1 }

// Size returns the collection size of one owner. Size ranges are drawn
// uniformly from [MinSize, MaxSize] on every call.
func (n *RangeNode) Size(r *rand.Rand) int64 {
	if n.Fixed() {
		return n.MinSize
	}
	return n.MinSize + r.Int64N(n.MaxSize-n.MinSize+1)
}

// NextNonEmpty returns the first node after n that can hold elements.
func (n *RangeNode) NextNonEmpty() *RangeNode {
	for m := n.next; m != nil; m = m.next {
		if !m.Empty() {
			return m
		}
	}
	return nil
}

// String formats n the way it is written in a range spec.
func (n *RangeNode) String() string {
	size := strconv.FormatInt(n.MinSize, 10)
	if !n.Fixed() {
		size += "-" + strconv.FormatInt(n.MaxSize, 10)
	}
	return strconv.FormatInt(n.Start, 10) + "," + strconv.FormatInt(n.End, 10) + ":" + size
}

// RangeList is an ordered, immutable list of range nodes.
type RangeList struct {
	head *RangeNode
	len  int
}

// ParseRangeList parses range entries of the form "start,end:size" or
// "start,end:min-max". Nodes must be listed in increasing order without
// overlap, and consecutive owner nodes must be contiguous.
func ParseRangeList(entries []string) (*RangeList, error) {
	if len(entries) == 0 {
		return nil, xorgen.NewConfigError("ranges", nil, "at least one range entry is required")
	}
	l := &RangeList{}
	var prev *RangeNode
	for _, entry := range entries {
		n, err := parseRangeEntry(entry)
		if err != nil {
			return nil, err
		}
		if prev != nil {
			switch {
			case n.Start <= prev.End:
				return nil, xorgen.NewRangeSpecError(entry, "overlaps or precedes "+prev.String(), nil)
			case !prev.NoOwner() && n.Start != prev.End+1:
				return nil, xorgen.NewRangeSpecError(entry, "not contiguous with "+prev.String(), nil)
			}
			prev.next = n
		} else {
			l.head = n
		}
		prev = n
		l.len++
	}
	return l, nil
}

func parseRangeEntry(entry string) (*RangeNode, error) {
	bounds, size, ok := strings.Cut(strings.TrimSpace(entry), ":")
	if !ok {
		return nil, xorgen.NewRangeSpecError(entry, `missing ":" before size`, nil)
	}
	first, last, ok := strings.Cut(bounds, ",")
	if !ok {
		return nil, xorgen.NewRangeSpecError(entry, `missing "," between bounds`, nil)
	}
	n := &RangeNode{}
	var err error
	if n.Start, err = strconv.ParseInt(strings.TrimSpace(first), 10, 64); err != nil {
		return nil, xorgen.NewRangeSpecError(entry, "invalid start", err)
	}
	if n.End, err = strconv.ParseInt(strings.TrimSpace(last), 10, 64); err != nil {
		return nil, xorgen.NewRangeSpecError(entry, "invalid end", err)
	}
	switch {
	case (n.Start < 0) != (n.End < 0):
		return nil, xorgen.NewRangeSpecError(entry, "bounds must share a sign", nil)
	case n.Start > n.End:
		return nil, xorgen.NewRangeSpecError(entry, "start is after end", nil)
	}
	low, high, isRange := strings.Cut(strings.TrimSpace(size), "-")
	if n.MinSize, err = strconv.ParseInt(low, 10, 64); err != nil {
		return nil, xorgen.NewRangeSpecError(entry, "invalid size", err)
	}
	n.MaxSize = n.MinSize
	if isRange {
		if n.MaxSize, err = strconv.ParseInt(high, 10, 64); err != nil {
			return nil, xorgen.NewRangeSpecError(entry, "invalid size", err)
		}
	}
	if n.MinSize < 0 || n.MaxSize < n.MinSize {
		return nil, xorgen.NewRangeSpecError(entry, "invalid size range", nil)
	}
	return n, nil
}

// Head returns the first node.
func (l *RangeList) Head() *RangeNode { return l.head }

// FirstNonEmpty returns the first node that can hold elements.
func (l *RangeList) FirstNonEmpty() *RangeNode {
	if l.head == nil || !l.head.Empty() {
		return l.head
	}
	return l.head.NextNonEmpty()
}

// Len returns the number of nodes.
func (l *RangeList) Len() int { return l.len }

// Nodes returns the nodes in order.
func (l *RangeList) Nodes() []*RangeNode {
	nodes := make([]*RangeNode, 0, l.len)
	for n := l.head; n != nil; n = n.next {
		nodes = append(nodes, n)
	}
	return nodes
}

// Find returns the node containing id, or nil.
func (l *RangeList) Find(id int64) *RangeNode {
	for n := l.head; n != nil; n = n.next {
		if n.Contains(id) {
			return n
		}
	}
	return nil
}

// parseHeader parses the leading numeric argument of an argument list.
func parseHeader(field string, args []string) (int64, error) {
	if len(args) == 0 {
		return 0, xorgen.NewConfigError(field, nil, "missing argument")
	}
	v, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
	if err != nil {
		return 0, xorgen.NewConfigError(field, args[0], "not an integer")
	}
	return v, nil
}
