package store

// Row represents a row in the gitlab_hierarchy table. Timestamps are RFC
// 3339 strings, dates are "2006-01-02" strings, matching what the writer
// stores.
type Row struct {
	ID        string  `json:"id"`
	Type      string  `json:"type"`
	IID       int     `json:"iid"`
	GroupID   *int    `json:"group_id"`
	ProjectID *int    `json:"project_id"`

	ParentID        *string `json:"parent_id"`
	ParentType      *string `json:"parent_type"`
	RootID          string  `json:"root_id"`
	Depth           int     `json:"depth"`
	HierarchyPath   *string `json:"hierarchy_path"`
	IsLeaf          bool    `json:"is_leaf"`
	ChildCount      int     `json:"child_count"`
	DescendantCount int     `json:"descendant_count"`
	SiblingPosition *int    `json:"sibling_position"`

	Title            string  `json:"title"`
	Description      *string `json:"description"`
	State            string  `json:"state"`
	WebURL           *string `json:"web_url"`
	AuthorUsername   *string `json:"author_username"`
	AuthorName       *string `json:"author_name"`
	AssigneeUsername *string `json:"assignee_username"`
	AssigneeName     *string `json:"assignee_name"`
	MilestoneTitle   *string `json:"milestone_title"`
	MilestoneID      *int    `json:"milestone_id"`
	IssueType        *string `json:"issue_type"`
	Confidential     bool    `json:"confidential"`
	Weight           *int    `json:"weight"`
	TimeEstimate     int     `json:"time_estimate"`
	TimeSpent        int     `json:"time_spent"`

	LabelsRaw      *string `json:"labels_raw"` // JSON array string
	LabelPriority  *string `json:"label_priority"`
	LabelType      *string `json:"label_type"`
	LabelStatus    *string `json:"label_status"`
	LabelTeam      *string `json:"label_team"`
	LabelComponent *string `json:"label_component"`
	LabelCustom1   *string `json:"label_custom_1"`
	LabelCustom2   *string `json:"label_custom_2"`
	LabelCustom3   *string `json:"label_custom_3"`

	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
	ClosedAt  *string `json:"closed_at"`
	DueDate   *string `json:"due_date"`
	StartDate *string `json:"start_date"`
	EndDate   *string `json:"end_date"`

	DaysOpen      *int     `json:"days_open"`
	DaysToClose   *int     `json:"days_to_close"`
	IsOverdue     bool     `json:"is_overdue"`
	DaysOverdue   *int     `json:"days_overdue"`
	CompletionPct *float64 `json:"completion_pct"`

	Upvotes            int `json:"upvotes"`
	Downvotes          int `json:"downvotes"`
	UserNotesCount     int `json:"user_notes_count"`
	MergeRequestsCount int `json:"merge_requests_count"`

	SnapshotDate string `json:"snapshot_date"`
	IsLatest     bool   `json:"is_latest"`
}

// allColumns is the canonical column order used by every read and write.
const allColumns = `id, type, iid, group_id, project_id,
	parent_id, parent_type, root_id, depth, hierarchy_path,
	is_leaf, child_count, descendant_count, sibling_position,
	title, description, state, web_url,
	author_username, author_name, assignee_username, assignee_name,
	milestone_title, milestone_id, issue_type, confidential,
	weight, time_estimate, time_spent,
	labels_raw, label_priority, label_type, label_status, label_team, label_component,
	label_custom_1, label_custom_2, label_custom_3,
	created_at, updated_at, closed_at, due_date, start_date, end_date,
	days_open, days_to_close, is_overdue, days_overdue, completion_pct,
	upvotes, downvotes, user_notes_count, merge_requests_count,
	snapshot_date, is_latest`

const columnCount = 55

// scanRow scans a row selected with allColumns.
func scanRow(scanner interface{ Scan(dest ...any) error }) (Row, error) {
	var r Row
	err := scanner.Scan(
		&r.ID, &r.Type, &r.IID, &r.GroupID, &r.ProjectID,
		&r.ParentID, &r.ParentType, &r.RootID, &r.Depth, &r.HierarchyPath,
		&r.IsLeaf, &r.ChildCount, &r.DescendantCount, &r.SiblingPosition,
		&r.Title, &r.Description, &r.State, &r.WebURL,
		&r.AuthorUsername, &r.AuthorName, &r.AssigneeUsername, &r.AssigneeName,
		&r.MilestoneTitle, &r.MilestoneID, &r.IssueType, &r.Confidential,
		&r.Weight, &r.TimeEstimate, &r.TimeSpent,
		&r.LabelsRaw, &r.LabelPriority, &r.LabelType, &r.LabelStatus, &r.LabelTeam, &r.LabelComponent,
		&r.LabelCustom1, &r.LabelCustom2, &r.LabelCustom3,
		&r.CreatedAt, &r.UpdatedAt, &r.ClosedAt, &r.DueDate, &r.StartDate, &r.EndDate,
		&r.DaysOpen, &r.DaysToClose, &r.IsOverdue, &r.DaysOverdue, &r.CompletionPct,
		&r.Upvotes, &r.Downvotes, &r.UserNotesCount, &r.MergeRequestsCount,
		&r.SnapshotDate, &r.IsLatest,
	)
	return r, err
}
