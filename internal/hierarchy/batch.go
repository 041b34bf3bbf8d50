package hierarchy

import (
	"context"
	"fmt"
	"log/slog"
)

// BuildFromScope assembles the tree from a pre-fetched epic set, resolving
// parent/child edges purely through the in-memory ParentEpicID pointer.
// This reaches the same guarantees as BuildFromEpic when the source's
// server-side parent filter cannot be trusted. Epics present in the scope
// but unreachable from the root are excluded and counted as orphaned.
// Issues are still fetched per epic through src.
func BuildFromScope(ctx context.Context, allEpics []Item, src Source, rootGroupID, rootEpicIID, maxDepth int, includeClosed bool) ([]PlacedItem, BuildStats, error) {
	var stats BuildStats

	byParent := make(map[int][]Item)
	rootIdx := -1
	for i, e := range allEpics {
		if e.GroupID == rootGroupID && e.IID == rootEpicIID {
			rootIdx = i
		}
		if e.ParentEpicID != nil {
			byParent[*e.ParentEpicID] = append(byParent[*e.ParentEpicID], e)
		}
	}
	if rootIdx < 0 {
		return nil, stats, fmt.Errorf("epic %d in group %d not in fetched scope (%d epics): %w",
			rootEpicIID, rootGroupID, len(allEpics), ErrRootNotFound)
	}
	root := allEpics[rootIdx]
	slog.Info("building hierarchy from scope",
		"root", root.ID, "title", root.Title, "scope_epics", len(allEpics))

	a := newArena()
	idx := a.placeRoot(root)
	stats.Epics++

	children := func(parent PlacedItem) []Item {
		return byParent[parent.InternalID]
	}
	descend(a, idx, children, maxDepth, &stats)

	// Orphans are epics whose parent chain never reaches the root. Reachability
	// is computed without the depth bound so truncated subtrees don't count.
	if unreachable := len(allEpics) - countReachable(root, byParent); unreachable > 0 {
		slog.Warn("epics in scope unreachable from root", "count", unreachable)
		stats.Orphaned = unreachable
	}

	attachIssues(ctx, a, src, includeClosed, &stats)

	slog.Info("hierarchy assembled",
		"epics", stats.Epics, "issues", stats.Issues,
		"orphaned", stats.Orphaned, "total", len(a.items))
	return a.items, stats, nil
}

// countReachable walks byParent from the root with no depth bound, counting
// every epic whose parent chain reaches the root. The visited set guards
// against parent cycles in the scope data.
func countReachable(root Item, byParent map[int][]Item) int {
	seen := map[int]bool{root.InternalID: true}
	count := 1
	stack := []int{root.InternalID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, child := range byParent[id] {
			if seen[child.InternalID] {
				continue
			}
			seen[child.InternalID] = true
			count++
			stack = append(stack, child.InternalID)
		}
	}
	return count
}
