package hierarchy

import (
	"context"
	"errors"
	"time"
)

// Item types. Epics own children, issues terminate the hierarchy.
const (
	TypeEpic  = "epic"
	TypeIssue = "issue"
)

// Item states as reported by GitLab.
const (
	StateOpened = "opened"
	StateClosed = "closed"
)

// ErrRootNotFound is returned when the declared root epic cannot be resolved.
// It is the only fatal build condition; everything else degrades locally.
var ErrRootNotFound = errors.New("root epic not found")

// Item is a work item as fetched from the source, before placement.
// ID is the composite key "epic:<group>#<iid>" or "issue:<project>#<iid>";
// InternalID is GitLab's numeric id, only used to resolve parent linkage
// within a single build.
type Item struct {
	ID           string
	Type         string
	IID          int
	InternalID   int
	GroupID      int  // epics
	ProjectID    int  // issues
	ParentEpicID *int // epics: internal id of the parent epic, if any

	Title            string
	Description      string
	State            string
	WebURL           string
	AuthorUsername   string
	AuthorName       string
	AssigneeUsername string
	AssigneeName     string
	MilestoneTitle   *string
	MilestoneID      *int
	IssueType        string
	Confidential     bool
	Weight           *int
	TimeEstimate     int
	TimeSpent        int

	Labels []string

	CreatedAt time.Time
	UpdatedAt time.Time
	ClosedAt  *time.Time
	DueDate   *time.Time
	StartDate *time.Time // epics
	EndDate   *time.Time // epics

	Upvotes            int
	Downvotes          int
	UserNotesCount     int
	MergeRequestsCount int
}

// PlacedItem is an Item whose position in the tree is fixed. Hierarchy
// fields are set exactly once, by whichever build strategy placed it.
type PlacedItem struct {
	Item
	Depth      int
	ParentID   *string
	ParentType *string
	RootID     string
	Path       string // materialized root-to-node path of composite ids
}

// Record is a fully annotated item: placement plus the structural fields
// from Relate and the derived metrics from Finish.
type Record struct {
	PlacedItem

	ChildCount      int
	DescendantCount int
	IsLeaf          bool
	SiblingPosition int

	DaysOpen      *int
	DaysToClose   *int
	IsOverdue     bool
	DaysOverdue   *int
	CompletionPct *float64
}

// Source is the read-only capability the builders consume. Child and issue
// fetches are best-effort: implementations should return an error only when
// the caller can usefully degrade, never panic or retry forever.
type Source interface {
	GetEpic(ctx context.Context, groupID, epicIID int) (Item, error)
	GetChildEpics(ctx context.Context, groupID, parentEpicID int) ([]Item, error)
	GetEpicIssues(ctx context.Context, groupID, epicIID int) ([]Item, error)
}

// BuildStats counts the conditions absorbed during a build. Only
// ErrRootNotFound escalates; everything here surfaces through logs and
// these counters.
type BuildStats struct {
	Epics       int
	Issues      int
	Cycles      int
	Truncated   int
	FetchErrors int
	Orphaned    int
}
