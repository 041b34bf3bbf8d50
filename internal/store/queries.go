package store

import (
	"database/sql"
	"fmt"
)

// GetItem returns the latest snapshot of an item, or nil if not stored.
func (s *Store) GetItem(id string) (*Row, error) {
	row := s.conn.QueryRow(
		"SELECT "+allColumns+" FROM gitlab_hierarchy WHERE id = ? AND is_latest = 1", id)
	r, err := scanRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetChildren returns the latest direct children of a parent, in sibling
// order.
func (s *Store) GetChildren(parentID string) ([]Row, error) {
	return s.selectRows(`
		SELECT `+allColumns+` FROM gitlab_hierarchy
		WHERE parent_id = ? AND is_latest = 1
		ORDER BY sibling_position, iid
	`, parentID)
}

// GetRootItems returns the latest depth-0 items, newest first.
func (s *Store) GetRootItems() ([]Row, error) {
	return s.selectRows(`
		SELECT ` + allColumns + ` FROM gitlab_hierarchy
		WHERE depth = 0 AND is_latest = 1
		ORDER BY created_at DESC
	`)
}

func (s *Store) selectRows(query string, args ...any) ([]Row, error) {
	rows, err := s.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Stats summarizes the latest snapshot, optionally scoped to one root.
type Stats struct {
	TotalItems    int     `json:"total_items"`
	EpicCount     int     `json:"epic_count"`
	IssueCount    int     `json:"issue_count"`
	OpenCount     int     `json:"open_count"`
	ClosedCount   int     `json:"closed_count"`
	MaxDepth      int     `json:"max_depth"`
	AvgDepth      float64 `json:"avg_depth"`
	LeafCount     int     `json:"leaf_count"`
	RootCount     int     `json:"root_count"`
	FirstSnapshot string  `json:"first_snapshot"`
	LastSnapshot  string  `json:"last_snapshot"`
}

// GetStats computes aggregate statistics over the latest snapshot. Pass an
// empty rootID for the whole table.
func (s *Store) GetStats(rootID string) (Stats, error) {
	where := "WHERE is_latest = 1"
	var args []any
	if rootID != "" {
		where += " AND root_id = ?"
		args = append(args, rootID)
	}

	var st Stats
	var maxDepth, avgDepth sql.NullFloat64
	var first, last sql.NullString
	err := s.conn.QueryRow(`
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE type = 'epic'),
			COUNT(*) FILTER (WHERE type = 'issue'),
			COUNT(*) FILTER (WHERE state = 'opened'),
			COUNT(*) FILTER (WHERE state = 'closed'),
			MAX(depth),
			AVG(depth),
			COUNT(*) FILTER (WHERE is_leaf = 1),
			COUNT(DISTINCT root_id),
			MIN(snapshot_date),
			MAX(snapshot_date)
		FROM gitlab_hierarchy `+where, args...,
	).Scan(
		&st.TotalItems, &st.EpicCount, &st.IssueCount,
		&st.OpenCount, &st.ClosedCount,
		&maxDepth, &avgDepth, &st.LeafCount, &st.RootCount,
		&first, &last,
	)
	if err != nil {
		return Stats{}, fmt.Errorf("computing stats: %w", err)
	}
	st.MaxDepth = int(maxDepth.Float64)
	st.AvgDepth = avgDepth.Float64
	st.FirstSnapshot = first.String
	st.LastSnapshot = last.String
	return st, nil
}

// Query runs an arbitrary read query and returns the columns plus one
// map per row, for the query and export commands.
func (s *Store) Query(query string, args ...any) ([]string, []map[string]any, error) {
	rows, err := s.conn.Query(query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		m := make(map[string]any, len(cols))
		for i, c := range cols {
			m[c] = values[i]
		}
		out = append(out, m)
	}
	return cols, out, rows.Err()
}
