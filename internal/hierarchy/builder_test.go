package hierarchy

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// fakeSource serves a canned epic/issue graph for builder tests.
type fakeSource struct {
	epics    map[string]Item   // "group#iid" -> epic
	children map[int][]Item    // parent internal id -> child epics
	issues   map[string][]Item // "group#iid" -> issues
	childErr map[int]error
	issueErr map[string]error
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		epics:    make(map[string]Item),
		children: make(map[int][]Item),
		issues:   make(map[string][]Item),
		childErr: make(map[int]error),
		issueErr: make(map[string]error),
	}
}

func (f *fakeSource) addEpic(e Item) {
	f.epics[fmt.Sprintf("%d#%d", e.GroupID, e.IID)] = e
	if e.ParentEpicID != nil {
		f.children[*e.ParentEpicID] = append(f.children[*e.ParentEpicID], e)
	}
}

func (f *fakeSource) GetEpic(_ context.Context, groupID, epicIID int) (Item, error) {
	e, ok := f.epics[fmt.Sprintf("%d#%d", groupID, epicIID)]
	if !ok {
		return Item{}, fmt.Errorf("epic %d in group %d: %w", epicIID, groupID, ErrRootNotFound)
	}
	return e, nil
}

func (f *fakeSource) GetChildEpics(_ context.Context, _, parentEpicID int) ([]Item, error) {
	if err := f.childErr[parentEpicID]; err != nil {
		return nil, err
	}
	return f.children[parentEpicID], nil
}

func (f *fakeSource) GetEpicIssues(_ context.Context, groupID, epicIID int) ([]Item, error) {
	key := fmt.Sprintf("%d#%d", groupID, epicIID)
	if err := f.issueErr[key]; err != nil {
		return nil, err
	}
	return f.issues[key], nil
}

func (f *fakeSource) allEpics() []Item {
	var all []Item
	for _, e := range f.epics {
		all = append(all, e)
	}
	return all
}

func testEpic(group, iid, internalID int, parentInternalID *int) Item {
	now := time.Now()
	return Item{
		ID:           fmt.Sprintf("epic:%d#%d", group, iid),
		Type:         TypeEpic,
		IID:          iid,
		InternalID:   internalID,
		GroupID:      group,
		ParentEpicID: parentInternalID,
		Title:        fmt.Sprintf("Epic %d", iid),
		State:        StateOpened,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func testIssue(project, iid, internalID int, state string) Item {
	now := time.Now()
	return Item{
		ID:         fmt.Sprintf("issue:%d#%d", project, iid),
		Type:       TypeIssue,
		IID:        iid,
		InternalID: internalID,
		ProjectID:  project,
		Title:      fmt.Sprintf("Issue %d", iid),
		State:      state,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func intPtr(n int) *int { return &n }

// checkInvariants verifies the structural guarantees every completed build
// must satisfy: depth/parent consistency, path derivation, a unique root,
// and no duplicate ids.
func checkInvariants(t *testing.T, placed []PlacedItem) {
	t.Helper()
	byID := make(map[string]PlacedItem)
	roots := 0
	for _, p := range placed {
		if _, dup := byID[p.ID]; dup {
			t.Errorf("duplicate id in output: %s", p.ID)
		}
		byID[p.ID] = p
		if p.Depth == 0 {
			roots++
		}
	}
	if roots != 1 {
		t.Errorf("expected exactly 1 root, got %d", roots)
	}
	for _, p := range placed {
		if p.Depth == 0 {
			if p.ParentID != nil {
				t.Errorf("root %s has a parent", p.ID)
			}
			if p.Path != p.ID || p.RootID != p.ID {
				t.Errorf("root %s: path=%q root_id=%q", p.ID, p.Path, p.RootID)
			}
			continue
		}
		if p.ParentID == nil {
			t.Errorf("non-root %s has no parent", p.ID)
			continue
		}
		parent, ok := byID[*p.ParentID]
		if !ok {
			t.Errorf("%s: parent %s not in output", p.ID, *p.ParentID)
			continue
		}
		if p.Depth != parent.Depth+1 {
			t.Errorf("%s: depth %d, parent depth %d", p.ID, p.Depth, parent.Depth)
		}
		if p.Path != parent.Path+"/"+p.ID {
			t.Errorf("%s: path %q does not extend parent path %q", p.ID, p.Path, parent.Path)
		}
		if p.RootID != parent.RootID {
			t.Errorf("%s: root_id %q differs from parent's %q", p.ID, p.RootID, parent.RootID)
		}
	}
}

func TestBuildFromEpic_SimpleTree(t *testing.T) {
	src := newFakeSource()
	src.addEpic(testEpic(1, 1, 100, nil))
	src.addEpic(testEpic(1, 2, 101, intPtr(100)))
	src.addEpic(testEpic(1, 3, 102, intPtr(100)))
	src.issues["1#2"] = []Item{testIssue(10, 1, 500, StateClosed)}

	placed, stats, err := BuildFromEpic(context.Background(), src, 1, 1, 20, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(placed) != 4 {
		t.Fatalf("expected 4 items, got %d", len(placed))
	}
	if stats.Epics != 3 || stats.Issues != 1 {
		t.Errorf("stats: epics=%d issues=%d, want 3/1", stats.Epics, stats.Issues)
	}
	checkInvariants(t, placed)
}

func TestBuildFromEpic_RootNotFound(t *testing.T) {
	src := newFakeSource()
	_, _, err := BuildFromEpic(context.Background(), src, 1, 99, 20, true)
	if err == nil {
		t.Fatal("expected error for missing root")
	}
	if !errors.Is(err, ErrRootNotFound) {
		t.Errorf("expected ErrRootNotFound, got %v", err)
	}
}

func TestBuildFromEpic_MaxDepthTruncation(t *testing.T) {
	src := newFakeSource()
	src.addEpic(testEpic(1, 1, 100, nil))
	src.addEpic(testEpic(1, 2, 101, intPtr(100)))
	src.addEpic(testEpic(1, 3, 102, intPtr(101)))

	placed, stats, err := BuildFromEpic(context.Background(), src, 1, 1, 1, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, p := range placed {
		if p.Depth > 1 {
			t.Errorf("%s placed at depth %d despite maxDepth=1", p.ID, p.Depth)
		}
	}
	if len(placed) != 2 {
		t.Errorf("expected 2 items, got %d", len(placed))
	}
	if stats.Truncated == 0 {
		t.Error("expected truncation to be counted")
	}
}

func TestBuildFromEpic_SelfReferenceCycle(t *testing.T) {
	src := newFakeSource()
	src.addEpic(testEpic(1, 1, 100, nil))
	// Epic 2 claims itself as parent; the source's parent filter happily
	// returns it as a child of both epic 1 and epic 2.
	loop := testEpic(1, 2, 101, intPtr(101))
	src.epics["1#2"] = loop
	src.children[100] = append(src.children[100], loop)
	src.children[101] = append(src.children[101], loop)

	placed, stats, err := BuildFromEpic(context.Background(), src, 1, 1, 20, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	count := 0
	for _, p := range placed {
		if p.ID == "epic:1#2" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("self-referencing epic placed %d times, want 1", count)
	}
	if stats.Cycles == 0 {
		t.Error("expected cycle to be counted")
	}
	checkInvariants(t, placed)
}

func TestBuildFromEpic_ChildFetchFailureDegrades(t *testing.T) {
	src := newFakeSource()
	src.addEpic(testEpic(1, 1, 100, nil))
	src.addEpic(testEpic(1, 2, 101, intPtr(100)))
	src.childErr[101] = errors.New("503 service unavailable")

	placed, stats, err := BuildFromEpic(context.Background(), src, 1, 1, 20, true)
	if err != nil {
		t.Fatalf("build should survive a child fetch failure: %v", err)
	}
	if len(placed) != 2 {
		t.Errorf("expected 2 items, got %d", len(placed))
	}
	if stats.FetchErrors != 1 {
		t.Errorf("expected 1 fetch error, got %d", stats.FetchErrors)
	}
}

func TestBuildFromEpic_IncludeClosedFilter(t *testing.T) {
	src := newFakeSource()
	src.addEpic(testEpic(1, 1, 100, nil))
	src.issues["1#1"] = []Item{
		testIssue(10, 1, 500, StateOpened),
		testIssue(10, 2, 501, StateClosed),
	}

	placed, _, err := BuildFromEpic(context.Background(), src, 1, 1, 20, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, p := range placed {
		if p.Type == TypeIssue && p.State == StateClosed {
			t.Errorf("closed issue %s included despite includeClosed=false", p.ID)
		}
	}
	if len(placed) != 2 {
		t.Errorf("expected root + open issue, got %d items", len(placed))
	}
}

func TestBuildFromScope_OrphanedEpics(t *testing.T) {
	src := newFakeSource()
	// 7 reachable epics: root plus two subtrees.
	src.addEpic(testEpic(1, 1, 100, nil))
	src.addEpic(testEpic(1, 2, 101, intPtr(100)))
	src.addEpic(testEpic(1, 3, 102, intPtr(100)))
	src.addEpic(testEpic(1, 4, 103, intPtr(101)))
	src.addEpic(testEpic(1, 5, 104, intPtr(101)))
	src.addEpic(testEpic(2, 1, 105, intPtr(102)))
	src.addEpic(testEpic(2, 2, 106, intPtr(102)))
	// 3 orphans: parent chain never reaches the root.
	src.addEpic(testEpic(2, 3, 107, intPtr(999)))
	src.addEpic(testEpic(2, 4, 108, intPtr(107)))
	src.addEpic(testEpic(2, 5, 109, nil))

	placed, stats, err := BuildFromScope(context.Background(), src.allEpics(), src, 1, 1, 20, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(placed) != 7 {
		t.Errorf("expected 7 reachable epics, got %d", len(placed))
	}
	if stats.Orphaned != 3 {
		t.Errorf("expected 3 orphaned, got %d", stats.Orphaned)
	}
	checkInvariants(t, placed)
}

// A chain cut off by maxDepth is reachable from the root; only epics whose
// parent chain never reaches the root count as orphaned.
func TestBuildFromScope_TruncationIsNotOrphaned(t *testing.T) {
	src := newFakeSource()
	src.addEpic(testEpic(1, 1, 100, nil))
	src.addEpic(testEpic(1, 2, 101, intPtr(100)))
	src.addEpic(testEpic(1, 3, 102, intPtr(101)))

	placed, stats, err := BuildFromScope(context.Background(), src.allEpics(), src, 1, 1, 1, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(placed) != 2 {
		t.Errorf("expected 2 placed epics under maxDepth=1, got %d", len(placed))
	}
	if stats.Truncated == 0 {
		t.Error("expected truncation to be counted")
	}
	if stats.Orphaned != 0 {
		t.Errorf("orphaned = %d, want 0: truncated epics are still reachable", stats.Orphaned)
	}

	// A genuine orphan in the same scope is still counted.
	src.addEpic(testEpic(2, 1, 103, intPtr(999)))
	_, stats, err = BuildFromScope(context.Background(), src.allEpics(), src, 1, 1, 1, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Orphaned != 1 {
		t.Errorf("orphaned = %d, want 1", stats.Orphaned)
	}
}

// An issue assigned to two epics keeps its first placement; the second
// sighting is skipped and counted like the epic-side visited check.
func TestBuildFromEpic_DuplicateIssueKeptOnce(t *testing.T) {
	src := newFakeSource()
	src.addEpic(testEpic(1, 1, 100, nil))
	src.addEpic(testEpic(1, 2, 101, intPtr(100)))
	shared := testIssue(10, 1, 500, StateOpened)
	src.issues["1#1"] = []Item{shared}
	src.issues["1#2"] = []Item{shared}

	placed, stats, err := BuildFromEpic(context.Background(), src, 1, 1, 20, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var placements []PlacedItem
	for _, p := range placed {
		if p.ID == "issue:10#1" {
			placements = append(placements, p)
		}
	}
	if len(placements) != 1 {
		t.Fatalf("shared issue placed %d times, want 1", len(placements))
	}
	if placements[0].ParentID == nil || *placements[0].ParentID != "epic:1#1" {
		t.Errorf("shared issue parent = %v, want first epic", placements[0].ParentID)
	}
	if stats.Issues != 1 {
		t.Errorf("stats.Issues = %d, want 1", stats.Issues)
	}
	if stats.Cycles != 1 {
		t.Errorf("stats.Cycles = %d, want 1 for the skipped duplicate", stats.Cycles)
	}
	checkInvariants(t, placed)
}

func TestBuildFromScope_RootNotInScope(t *testing.T) {
	src := newFakeSource()
	src.addEpic(testEpic(1, 2, 101, nil))
	_, _, err := BuildFromScope(context.Background(), src.allEpics(), src, 1, 1, 20, true)
	if !errors.Is(err, ErrRootNotFound) {
		t.Errorf("expected ErrRootNotFound, got %v", err)
	}
}

// Both strategies must produce the same tree from the same acyclic dataset;
// they differ only in how edges are discovered.
func TestStrategyEquivalence(t *testing.T) {
	src := newFakeSource()
	src.addEpic(testEpic(1, 1, 100, nil))
	src.addEpic(testEpic(1, 2, 101, intPtr(100)))
	src.addEpic(testEpic(1, 3, 102, intPtr(100)))
	src.addEpic(testEpic(1, 4, 103, intPtr(101)))
	src.addEpic(testEpic(2, 1, 104, intPtr(103)))
	src.issues["1#2"] = []Item{testIssue(10, 1, 500, StateOpened)}
	src.issues["1#4"] = []Item{testIssue(10, 2, 501, StateClosed)}

	type key struct {
		id     string
		parent string
		depth  int
		path   string
	}
	flatten := func(placed []PlacedItem) map[key]bool {
		set := make(map[key]bool)
		for _, p := range placed {
			k := key{id: p.ID, depth: p.Depth, path: p.Path}
			if p.ParentID != nil {
				k.parent = *p.ParentID
			}
			set[k] = true
		}
		return set
	}

	traversed, _, err := BuildFromEpic(context.Background(), src, 1, 1, 20, true)
	if err != nil {
		t.Fatalf("traversal build failed: %v", err)
	}
	batched, _, err := BuildFromScope(context.Background(), src.allEpics(), src, 1, 1, 20, true)
	if err != nil {
		t.Fatalf("scope build failed: %v", err)
	}

	ts, bs := flatten(traversed), flatten(batched)
	if len(ts) != len(bs) {
		t.Fatalf("traversal produced %d nodes, scope %d", len(ts), len(bs))
	}
	for k := range ts {
		if !bs[k] {
			t.Errorf("node %+v missing from scope build", k)
		}
	}
}
