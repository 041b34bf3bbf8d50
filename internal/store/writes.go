package store

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ruppin/TheMatrix/internal/hierarchy"
	"github.com/ruppin/TheMatrix/internal/labels"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = time.RFC3339
)

// Entry pairs an annotated record with its parsed labels for persistence.
type Entry struct {
	Record hierarchy.Record
	Labels labels.Parsed
}

// UpsertBatch writes all entries under the given snapshot date in a single
// transaction. Earlier snapshots of the same items are marked not latest.
// Keyed by (id, snapshot_date), so re-running the same day overwrites.
func (s *Store) UpsertBatch(entries []Entry, snapshot time.Time) error {
	if len(entries) == 0 {
		return nil
	}
	snapshotDate := snapshot.Format(dateLayout)

	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	demote, err := tx.Prepare(`
		UPDATE gitlab_hierarchy SET is_latest = 0
		WHERE id = ? AND snapshot_date <> ? AND is_latest = 1
	`)
	if err != nil {
		return fmt.Errorf("preparing demote statement: %w", err)
	}
	defer demote.Close()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", columnCount), ",")
	insert, err := tx.Prepare(fmt.Sprintf(
		"INSERT OR REPLACE INTO gitlab_hierarchy (%s) VALUES (%s)",
		allColumns, placeholders,
	))
	if err != nil {
		return fmt.Errorf("preparing insert statement: %w", err)
	}
	defer insert.Close()

	for _, e := range entries {
		if _, err := demote.Exec(e.Record.ID, snapshotDate); err != nil {
			return fmt.Errorf("demoting old snapshots of %s: %w", e.Record.ID, err)
		}
		if _, err := insert.Exec(entryValues(e, snapshotDate)...); err != nil {
			return fmt.Errorf("inserting %s: %w", e.Record.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing batch: %w", err)
	}
	return nil
}

// UpsertItem writes a single entry; a convenience wrapper over UpsertBatch.
func (s *Store) UpsertItem(e Entry, snapshot time.Time) error {
	return s.UpsertBatch([]Entry{e}, snapshot)
}

// CleanupOldSnapshots deletes non-latest rows older than keepDays and
// returns how many were removed.
func (s *Store) CleanupOldSnapshots(keepDays int) (int, error) {
	cutoff := time.Now().AddDate(0, 0, -keepDays).Format(dateLayout)
	res, err := s.conn.Exec(`
		DELETE FROM gitlab_hierarchy
		WHERE snapshot_date < ? AND is_latest = 0
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting old snapshots: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// entryValues flattens an Entry into the allColumns order.
func entryValues(e Entry, snapshotDate string) []any {
	r := e.Record

	var groupID, projectID *int
	if r.Type == hierarchy.TypeEpic {
		groupID = &r.GroupID
	} else {
		projectID = &r.ProjectID
	}

	var labelsRaw *string
	if len(r.Labels) > 0 {
		if b, err := json.Marshal(r.Labels); err == nil {
			s := string(b)
			labelsRaw = &s
		}
	}
	col := func(name string) *string {
		if v, ok := e.Labels.Columns[name]; ok {
			return &v
		}
		return nil
	}
	custom := func(i int) *string {
		if i < len(e.Labels.Custom) {
			return &e.Labels.Custom[i]
		}
		return nil
	}

	return []any{
		r.ID, r.Type, r.IID, groupID, projectID,
		r.ParentID, r.ParentType, r.RootID, r.Depth, r.Path,
		r.IsLeaf, r.ChildCount, r.DescendantCount, r.SiblingPosition,
		r.Title, nullIfEmpty(r.Description), r.State, nullIfEmpty(r.WebURL),
		nullIfEmpty(r.AuthorUsername), nullIfEmpty(r.AuthorName),
		nullIfEmpty(r.AssigneeUsername), nullIfEmpty(r.AssigneeName),
		r.MilestoneTitle, r.MilestoneID, nullIfEmpty(r.IssueType), r.Confidential,
		r.Weight, r.TimeEstimate, r.TimeSpent,
		labelsRaw, col(labels.ColPriority), col(labels.ColType), col(labels.ColStatus),
		col(labels.ColTeam), col(labels.ColComponent),
		custom(0), custom(1), custom(2),
		r.CreatedAt.Format(timeLayout), r.UpdatedAt.Format(timeLayout),
		formatTimePtr(r.ClosedAt, timeLayout), formatTimePtr(r.DueDate, dateLayout),
		formatTimePtr(r.StartDate, dateLayout), formatTimePtr(r.EndDate, dateLayout),
		r.DaysOpen, r.DaysToClose, r.IsOverdue, r.DaysOverdue, r.CompletionPct,
		r.Upvotes, r.Downvotes, r.UserNotesCount, r.MergeRequestsCount,
		snapshotDate, true,
	}
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func formatTimePtr(t *time.Time, layout string) *string {
	if t == nil {
		return nil
	}
	s := t.Format(layout)
	return &s
}
