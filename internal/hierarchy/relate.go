package hierarchy

import "log/slog"

// Relate runs the single structural pass over a finished placement: child
// counts, leaf flags, descendant counts and sibling ordering. The
// parent -> children index preserves assembly order, so sibling positions
// reflect the order children were placed, not any re-sort.
//
// A node whose parent is absent from the set should be impossible after a
// correct assembly; it is treated as parentless for counting and logged.
func Relate(placed []PlacedItem) []Record {
	present := make(map[string]bool, len(placed))
	for _, p := range placed {
		present[p.ID] = true
	}

	children := make(map[string][]string)
	for _, p := range placed {
		if p.ParentID == nil {
			continue
		}
		if !present[*p.ParentID] {
			slog.Warn("parent missing from assembled set, counting as parentless",
				"id", p.ID, "parent_id", *p.ParentID)
			continue
		}
		children[*p.ParentID] = append(children[*p.ParentID], p.ID)
	}

	position := make(map[string]int)
	for _, kids := range children {
		for i, id := range kids {
			position[id] = i + 1
		}
	}

	records := make([]Record, 0, len(placed))
	for _, p := range placed {
		kids := children[p.ID]
		r := Record{
			PlacedItem:      p,
			ChildCount:      len(kids),
			IsLeaf:          len(kids) == 0,
			DescendantCount: countDescendants(p.ID, children),
			SiblingPosition: 1,
		}
		if pos, ok := position[p.ID]; ok {
			r.SiblingPosition = pos
		}
		records = append(records, r)
	}
	return records
}

// countDescendants sums direct children plus their own descendants. Depth
// and fan-out are bounded by the source tree, so the naive recursion is
// fine here.
func countDescendants(id string, children map[string][]string) int {
	kids := children[id]
	count := len(kids)
	for _, child := range kids {
		count += countDescendants(child, children)
	}
	return count
}
