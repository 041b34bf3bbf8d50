// Package extract drives a full extraction: build the hierarchy, parse
// labels, persist a snapshot, and summarize. The builders never touch the
// store; this package owns the hand-off.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ruppin/TheMatrix/internal/hierarchy"
	"github.com/ruppin/TheMatrix/internal/labels"
	"github.com/ruppin/TheMatrix/internal/store"
)

// Source is everything the orchestrator needs from GitLab: the per-level
// reads the builders use, plus the scope-wide epic fetch.
type Source interface {
	hierarchy.Source
	GetAllEpicsForGroups(ctx context.Context, groupIDs []int) ([]hierarchy.Item, error)
}

// Options selects what to extract.
type Options struct {
	GroupIDs      []int // scope for RunScope
	RootGroupID   int
	RootEpicIID   int
	SnapshotDate  time.Time // zero means today
	IncludeClosed bool
	MaxDepth      int
}

// Summary reports what one extraction produced.
type Summary struct {
	TotalItems   int
	Epics        int
	Issues       int
	OpenCount    int
	ClosedCount  int
	MaxDepth     int
	AvgDepth     float64
	LeafCount    int
	Orphaned     int
	Elapsed      time.Duration
	SnapshotDate string
}

// Extractor wires the source, label parser and store together.
type Extractor struct {
	Source Source
	Store  *store.Store
	Parser *labels.Parser
}

// New builds an extractor. A nil parser falls back to the default label
// patterns.
func New(src Source, st *store.Store, parser *labels.Parser) *Extractor {
	if parser == nil {
		parser = labels.NewParser(nil)
	}
	return &Extractor{Source: src, Store: st, Parser: parser}
}

// Run extracts one tree by per-level traversal from the root epic.
func (e *Extractor) Run(ctx context.Context, opts Options) (Summary, error) {
	start := time.Now()
	slog.Info("extracting by traversal",
		"group", opts.RootGroupID, "epic", opts.RootEpicIID, "max_depth", opts.MaxDepth)

	placed, stats, err := hierarchy.BuildFromEpic(ctx, e.Source,
		opts.RootGroupID, opts.RootEpicIID, opts.MaxDepth, opts.IncludeClosed)
	if err != nil {
		return Summary{}, err
	}
	return e.finish(placed, stats, opts, start)
}

// RunScope extracts using the scope-wide method: fetch every epic in the
// given groups up front and resolve edges in memory. More reliable when
// the server-side parent filter is broken.
func (e *Extractor) RunScope(ctx context.Context, opts Options) (Summary, error) {
	start := time.Now()
	slog.Info("extracting from scope",
		"groups", opts.GroupIDs, "root_group", opts.RootGroupID,
		"epic", opts.RootEpicIID, "max_depth", opts.MaxDepth)

	allEpics, err := e.Source.GetAllEpicsForGroups(ctx, opts.GroupIDs)
	if err != nil {
		return Summary{}, fmt.Errorf("fetching scope epics: %w", err)
	}

	placed, stats, err := hierarchy.BuildFromScope(ctx, allEpics, e.Source,
		opts.RootGroupID, opts.RootEpicIID, opts.MaxDepth, opts.IncludeClosed)
	if err != nil {
		return Summary{}, err
	}
	return e.finish(placed, stats, opts, start)
}

// finish runs the shared post-assembly phases: relationships, metrics,
// labels, persistence and the stats readback.
func (e *Extractor) finish(placed []hierarchy.PlacedItem, stats hierarchy.BuildStats, opts Options, start time.Time) (Summary, error) {
	snapshot := opts.SnapshotDate
	if snapshot.IsZero() {
		snapshot = time.Now()
	}

	records := hierarchy.Finish(hierarchy.Relate(placed), time.Now())

	entries := make([]store.Entry, 0, len(records))
	for _, r := range records {
		entries = append(entries, store.Entry{Record: r, Labels: e.Parser.Parse(r.Labels)})
	}
	if cats := e.Parser.Discovered(); len(cats) > 0 {
		slog.Info("discovered custom label categories", "categories", cats)
	}

	if err := e.Store.UpsertBatch(entries, snapshot); err != nil {
		return Summary{}, fmt.Errorf("storing %d items: %w", len(entries), err)
	}
	slog.Info("stored snapshot", "items", len(entries), "date", snapshot.Format("2006-01-02"))

	rootID := fmt.Sprintf("epic:%d#%d", opts.RootGroupID, opts.RootEpicIID)
	st, err := e.Store.GetStats(rootID)
	if err != nil {
		return Summary{}, err
	}

	return Summary{
		TotalItems:   len(records),
		Epics:        stats.Epics,
		Issues:       stats.Issues,
		OpenCount:    st.OpenCount,
		ClosedCount:  st.ClosedCount,
		MaxDepth:     st.MaxDepth,
		AvgDepth:     st.AvgDepth,
		LeafCount:    st.LeafCount,
		Orphaned:     stats.Orphaned,
		Elapsed:      time.Since(start),
		SnapshotDate: snapshot.Format("2006-01-02"),
	}, nil
}
