package hierarchy

import (
	"context"
	"log/slog"
)

// arena is the single owner of a build's node list: a growable slice plus an
// id -> index map enforcing the at-most-once-visit invariant. It is threaded
// through each traversal step explicitly rather than living on a long-lived
// builder object.
type arena struct {
	items []PlacedItem
	index map[string]int
}

func newArena() *arena {
	return &arena{index: make(map[string]int)}
}

func (a *arena) seen(id string) bool {
	_, ok := a.index[id]
	return ok
}

// placeRoot fixes the root of the tree at depth 0.
func (a *arena) placeRoot(it Item) int {
	p := PlacedItem{
		Item:   it,
		Depth:  0,
		RootID: it.ID,
		Path:   it.ID,
	}
	a.index[it.ID] = len(a.items)
	a.items = append(a.items, p)
	return len(a.items) - 1
}

// place fixes a child one level below parent. Returns false without placing
// when the id has already been visited.
func (a *arena) place(it Item, parent *PlacedItem) (int, bool) {
	if a.seen(it.ID) {
		return 0, false
	}
	parentID := parent.ID
	parentType := parent.Type
	p := PlacedItem{
		Item:       it,
		Depth:      parent.Depth + 1,
		ParentID:   &parentID,
		ParentType: &parentType,
		RootID:     parent.RootID,
		Path:       parent.Path + "/" + it.ID,
	}
	a.index[it.ID] = len(a.items)
	a.items = append(a.items, p)
	return len(a.items) - 1, true
}

// childrenFunc discovers the direct child epics of an already-placed epic.
// The traversal engine backs it with a network call, the batch builder with
// an in-memory index; everything else about placement is shared.
type childrenFunc func(parent PlacedItem) []Item

// descend walks the epic subtree under the arena entry at rootIdx using an
// explicit worklist, so depth is bounded structurally rather than by the
// call stack. Children deeper than maxDepth are truncated with a warning.
func descend(a *arena, rootIdx int, children childrenFunc, maxDepth int, stats *BuildStats) {
	stack := []int{rootIdx}
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		parent := a.items[idx]

		if parent.Depth+1 > maxDepth {
			slog.Warn("max depth reached, truncating subtree",
				"id", parent.ID, "max_depth", maxDepth)
			stats.Truncated++
			continue
		}

		for _, child := range children(parent) {
			childIdx, ok := a.place(child, &parent)
			if !ok {
				slog.Warn("circular reference detected, skipping",
					"id", child.ID, "parent_id", parent.ID)
				stats.Cycles++
				continue
			}
			stats.Epics++
			stack = append(stack, childIdx)
		}
	}
}

// attachIssues runs the second placement pass: for every epic already in the
// arena, fetch its issues and place them one level below. Closed issues are
// dropped entirely when includeClosed is false; the filter never applies to
// epics. An issue listed under more than one epic keeps its first placement,
// counted like the epic-side visited skip. Fetch failures degrade to "no
// issues" with a warning.
func attachIssues(ctx context.Context, a *arena, src Source, includeClosed bool, stats *BuildStats) {
	// Snapshot the epic indexes first; placed issues grow the same arena.
	var epics []int
	for i, p := range a.items {
		if p.Type == TypeEpic {
			epics = append(epics, i)
		}
	}

	for _, idx := range epics {
		epic := a.items[idx]
		issues, err := src.GetEpicIssues(ctx, epic.GroupID, epic.IID)
		if err != nil {
			slog.Warn("could not fetch epic issues, treating as empty",
				"epic", epic.ID, "error", err)
			stats.FetchErrors++
			continue
		}
		for _, issue := range issues {
			if !includeClosed && issue.State == StateClosed {
				continue
			}
			if a.seen(issue.ID) {
				slog.Warn("issue already placed, skipping",
					"id", issue.ID, "epic", epic.ID)
				stats.Cycles++
				continue
			}
			a.place(issue, &epic)
			stats.Issues++
		}
	}
}
