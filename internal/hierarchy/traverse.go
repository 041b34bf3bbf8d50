package hierarchy

import (
	"context"
	"fmt"
	"log/slog"
)

// BuildFromEpic assembles one complete tree starting from a declared root
// epic, querying the source for each level on demand. The root fetch is the
// only fatal failure; descendant fetch failures degrade to childless
// subtrees. The returned list has hierarchy fields populated and is ready
// for Relate and Finish.
func BuildFromEpic(ctx context.Context, src Source, groupID, epicIID, maxDepth int, includeClosed bool) ([]PlacedItem, BuildStats, error) {
	var stats BuildStats

	root, err := src.GetEpic(ctx, groupID, epicIID)
	if err != nil {
		return nil, stats, fmt.Errorf("fetching root epic %d in group %d: %w", epicIID, groupID, err)
	}
	slog.Info("building hierarchy by traversal", "root", root.ID, "title", root.Title)

	a := newArena()
	rootIdx := a.placeRoot(root)
	stats.Epics++

	children := func(parent PlacedItem) []Item {
		items, err := src.GetChildEpics(ctx, parent.GroupID, parent.InternalID)
		if err != nil {
			slog.Warn("could not fetch child epics, treating as childless",
				"epic", parent.ID, "error", err)
			stats.FetchErrors++
			return nil
		}
		return items
	}
	descend(a, rootIdx, children, maxDepth, &stats)

	attachIssues(ctx, a, src, includeClosed, &stats)

	slog.Info("hierarchy assembled",
		"epics", stats.Epics, "issues", stats.Issues, "total", len(a.items))
	return a.items, stats, nil
}
