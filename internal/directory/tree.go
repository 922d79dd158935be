package directory

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Node is any flat record the tree builder can nest: an id, a parent
// reference (empty for roots) and an ordering key with creation time as
// tie-break.
type Node interface {
	NodeID() string
	NodeParentID() string
	NodeOrder() int
	NodeCreatedAt() time.Time
}

// Tree is one nested node. Children is nil for leaves and the JSON
// encoding omits it entirely — leaf objects carry no "children" key.
type Tree[T Node] struct {
	Item     T
	Children []*Tree[T]
}

// MarshalJSON inlines the item's fields and splices in "children" only when
// non-empty.
func (t *Tree[T]) MarshalJSON() ([]byte, error) {
	item, err := json.Marshal(t.Item)
	if err != nil {
		return nil, fmt.Errorf("encoding tree node: %w", err)
	}
	if len(t.Children) == 0 {
		return item, nil
	}

	children, err := json.Marshal(t.Children)
	if err != nil {
		return nil, fmt.Errorf("encoding tree children: %w", err)
	}

	// Items always encode as objects; splice before the closing brace.
	buf := make([]byte, 0, len(item)+len(children)+16)
	buf = append(buf, item[:len(item)-1]...)
	if len(item) > 2 {
		buf = append(buf, ',')
	}
	buf = append(buf, `"children":`...)
	buf = append(buf, children...)
	buf = append(buf, '}')
	return buf, nil
}

// BuildTree nests a flat collection under the given parent anchor (empty
// string for roots).
//
// The flat set is stable-sorted once by (order ascending, createdAt ascending)
// before grouping, so siblings are ordered identically at every level and the
// recursion never re-sorts. Grouping re-scans the full list per node — O(n²),
// fine at back-office scale (tens to low hundreds of nodes) but a known limit
// beyond that.
//
// No cycle detection: a parent chain that loops back (corrupt data) recurses
// without bound.
func BuildTree[T Node](nodes []T, parentID string) []*Tree[T] {
	sorted := make([]T, len(nodes))
	copy(sorted, nodes)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].NodeOrder() != sorted[j].NodeOrder() {
			return sorted[i].NodeOrder() < sorted[j].NodeOrder()
		}
		return sorted[i].NodeCreatedAt().Before(sorted[j].NodeCreatedAt())
	})
	return group(sorted, parentID)
}

// group partitions the pre-sorted set under one anchor, recursing per child.
func group[T Node](sorted []T, parentID string) []*Tree[T] {
	var out []*Tree[T]
	for _, n := range sorted {
		if n.NodeParentID() != parentID {
			continue
		}
		out = append(out, &Tree[T]{
			Item:     n,
			Children: group(sorted, n.NodeID()),
		})
	}
	return out
}
