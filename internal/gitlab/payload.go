package gitlab

import (
	"fmt"
	"time"

	"github.com/ruppin/TheMatrix/internal/hierarchy"
)

// Wire shapes for the subset of the epic and issue APIs we read. Dates come
// back as RFC 3339 timestamps except due/start/end dates, which are plain
// "2006-01-02" strings.

type userPayload struct {
	Username string `json:"username"`
	Name     string `json:"name"`
}

type milestonePayload struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

type timeStatsPayload struct {
	TimeEstimate   int `json:"time_estimate"`
	TotalTimeSpent int `json:"total_time_spent"`
}

type epicPayload struct {
	ID          int          `json:"id"`
	IID         int          `json:"iid"`
	ParentID    *int         `json:"parent_id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	State       string       `json:"state"`
	WebURL      string       `json:"web_url"`
	Author      *userPayload `json:"author"`
	Labels      []string     `json:"labels"`
	CreatedAt   string       `json:"created_at"`
	UpdatedAt   string       `json:"updated_at"`
	ClosedAt    *string      `json:"closed_at"`
	StartDate   *string      `json:"start_date"`
	EndDate     *string      `json:"end_date"`
	DueDate     *string      `json:"due_date"`
	Upvotes     int          `json:"upvotes"`
	Downvotes   int          `json:"downvotes"`
}

type issuePayload struct {
	ID                 int               `json:"id"`
	IID                int               `json:"iid"`
	ProjectID          int               `json:"project_id"`
	Title              string            `json:"title"`
	Description        string            `json:"description"`
	State              string            `json:"state"`
	WebURL             string            `json:"web_url"`
	Author             *userPayload      `json:"author"`
	Assignee           *userPayload      `json:"assignee"`
	Milestone          *milestonePayload `json:"milestone"`
	IssueType          string            `json:"issue_type"`
	Confidential       bool              `json:"confidential"`
	Weight             *int              `json:"weight"`
	TimeStats          *timeStatsPayload `json:"time_stats"`
	Labels             []string          `json:"labels"`
	CreatedAt          string            `json:"created_at"`
	UpdatedAt          string            `json:"updated_at"`
	ClosedAt           *string           `json:"closed_at"`
	DueDate            *string           `json:"due_date"`
	Upvotes            int               `json:"upvotes"`
	Downvotes          int               `json:"downvotes"`
	UserNotesCount     int               `json:"user_notes_count"`
	MergeRequestsCount int               `json:"merge_requests_count"`
}

func (p epicPayload) toItem(groupID int) hierarchy.Item {
	it := hierarchy.Item{
		ID:           fmt.Sprintf("epic:%d#%d", groupID, p.IID),
		Type:         hierarchy.TypeEpic,
		IID:          p.IID,
		InternalID:   p.ID,
		GroupID:      groupID,
		ParentEpicID: p.ParentID,
		Title:        p.Title,
		Description:  p.Description,
		State:        p.State,
		WebURL:       p.WebURL,
		Labels:       p.Labels,
		CreatedAt:    parseTimestamp(p.CreatedAt),
		UpdatedAt:    parseTimestamp(p.UpdatedAt),
		ClosedAt:     parseTimestampPtr(p.ClosedAt),
		StartDate:    parseDatePtr(p.StartDate),
		EndDate:      parseDatePtr(p.EndDate),
		DueDate:      parseDatePtr(p.DueDate),
		Upvotes:      p.Upvotes,
		Downvotes:    p.Downvotes,
	}
	if p.Author != nil {
		it.AuthorUsername = p.Author.Username
		it.AuthorName = p.Author.Name
	}
	return it
}

func (p issuePayload) toItem() hierarchy.Item {
	it := hierarchy.Item{
		ID:                 fmt.Sprintf("issue:%d#%d", p.ProjectID, p.IID),
		Type:               hierarchy.TypeIssue,
		IID:                p.IID,
		InternalID:         p.ID,
		ProjectID:          p.ProjectID,
		Title:              p.Title,
		Description:        p.Description,
		State:              p.State,
		WebURL:             p.WebURL,
		IssueType:          p.IssueType,
		Confidential:       p.Confidential,
		Weight:             p.Weight,
		Labels:             p.Labels,
		CreatedAt:          parseTimestamp(p.CreatedAt),
		UpdatedAt:          parseTimestamp(p.UpdatedAt),
		ClosedAt:           parseTimestampPtr(p.ClosedAt),
		DueDate:            parseDatePtr(p.DueDate),
		Upvotes:            p.Upvotes,
		Downvotes:          p.Downvotes,
		UserNotesCount:     p.UserNotesCount,
		MergeRequestsCount: p.MergeRequestsCount,
	}
	if p.Author != nil {
		it.AuthorUsername = p.Author.Username
		it.AuthorName = p.Author.Name
	}
	if p.Assignee != nil {
		it.AssigneeUsername = p.Assignee.Username
		it.AssigneeName = p.Assignee.Name
	}
	if p.Milestone != nil {
		title, id := p.Milestone.Title, p.Milestone.ID
		it.MilestoneTitle = &title
		it.MilestoneID = &id
	}
	if p.TimeStats != nil {
		it.TimeEstimate = p.TimeStats.TimeEstimate
		it.TimeSpent = p.TimeStats.TotalTimeSpent
	}
	return it
}

func epicsToItems(payloads []epicPayload, groupID int) []hierarchy.Item {
	items := make([]hierarchy.Item, 0, len(payloads))
	for _, p := range payloads {
		items = append(items, p.toItem(groupID))
	}
	return items
}

// parseTimestamp tolerates malformed timestamps by returning the zero time;
// the metrics pass treats zero as "unknown".
func parseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseTimestampPtr(s *string) *time.Time {
	if s == nil {
		return nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil
	}
	return &t
}

func parseDatePtr(s *string) *time.Time {
	if s == nil {
		return nil
	}
	t, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return nil
	}
	return &t
}
