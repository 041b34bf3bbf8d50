package store

// Schema for the gitlab_hierarchy table. Each extraction writes one row per
// item per snapshot date; is_latest marks the current row per item.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS gitlab_hierarchy (
	-- identity
	id TEXT NOT NULL,
	type TEXT NOT NULL,
	iid INTEGER NOT NULL,
	group_id INTEGER,
	project_id INTEGER,

	-- hierarchy
	parent_id TEXT,
	parent_type TEXT,
	root_id TEXT NOT NULL,
	depth INTEGER NOT NULL,
	hierarchy_path TEXT,
	is_leaf INTEGER DEFAULT 0,
	child_count INTEGER DEFAULT 0,
	descendant_count INTEGER DEFAULT 0,
	sibling_position INTEGER,

	-- core attributes
	title TEXT NOT NULL,
	description TEXT,
	state TEXT NOT NULL,
	web_url TEXT,
	author_username TEXT,
	author_name TEXT,
	assignee_username TEXT,
	assignee_name TEXT,
	milestone_title TEXT,
	milestone_id INTEGER,
	issue_type TEXT,
	confidential INTEGER DEFAULT 0,
	weight INTEGER,
	time_estimate INTEGER DEFAULT 0,
	time_spent INTEGER DEFAULT 0,

	-- labels
	labels_raw TEXT,
	label_priority TEXT,
	label_type TEXT,
	label_status TEXT,
	label_team TEXT,
	label_component TEXT,
	label_custom_1 TEXT,
	label_custom_2 TEXT,
	label_custom_3 TEXT,

	-- dates
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	closed_at TEXT,
	due_date TEXT,
	start_date TEXT,
	end_date TEXT,

	-- derived metrics
	days_open INTEGER,
	days_to_close INTEGER,
	is_overdue INTEGER DEFAULT 0,
	days_overdue INTEGER,
	completion_pct REAL,

	-- counters
	upvotes INTEGER DEFAULT 0,
	downvotes INTEGER DEFAULT 0,
	user_notes_count INTEGER DEFAULT 0,
	merge_requests_count INTEGER DEFAULT 0,

	-- snapshot versioning
	snapshot_date TEXT NOT NULL,
	is_latest INTEGER DEFAULT 1,

	PRIMARY KEY (id, snapshot_date)
);`

var indexSQL = []string{
	"CREATE INDEX IF NOT EXISTS idx_type ON gitlab_hierarchy(type);",
	"CREATE INDEX IF NOT EXISTS idx_state ON gitlab_hierarchy(state);",
	"CREATE INDEX IF NOT EXISTS idx_root_id ON gitlab_hierarchy(root_id);",
	"CREATE INDEX IF NOT EXISTS idx_parent_id ON gitlab_hierarchy(parent_id);",
	"CREATE INDEX IF NOT EXISTS idx_depth ON gitlab_hierarchy(depth);",
	"CREATE INDEX IF NOT EXISTS idx_snapshot_date ON gitlab_hierarchy(snapshot_date);",
	"CREATE INDEX IF NOT EXISTS idx_is_latest ON gitlab_hierarchy(is_latest);",
	"CREATE INDEX IF NOT EXISTS idx_composite_query ON gitlab_hierarchy(root_id, depth, state, is_latest);",
}
