// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package issuestore

import "github.com/ManuGH/issuedesk/internal/persistence/sqlite"

// migrations must stay ordered with sequential versions starting at 1.
var migrations = []sqlite.Migration{
	{
		Version: 1,
		SQL: `
CREATE TABLE IF NOT EXISTS projects (
	id          INTEGER PRIMARY KEY,
	project_key TEXT NOT NULL UNIQUE,
	name        TEXT NOT NULL,
	next_number INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS issue_types (
	id      TEXT PRIMARY KEY,
	name    TEXT NOT NULL,
	subtask INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS project_issue_types (
	project_id INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	type_id    TEXT NOT NULL REFERENCES issue_types(id),
	PRIMARY KEY (project_id, type_id)
);

CREATE TABLE IF NOT EXISTS statuses (
	id   TEXT PRIMARY KEY,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS workflow_statuses (
	type_id   TEXT NOT NULL REFERENCES issue_types(id),
	status_id TEXT NOT NULL REFERENCES statuses(id),
	position  INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (type_id, status_id)
);

CREATE TABLE IF NOT EXISTS field_requirements (
	type_id TEXT NOT NULL REFERENCES issue_types(id),
	field   TEXT NOT NULL,
	PRIMARY KEY (type_id, field)
);

CREATE TABLE IF NOT EXISTS issues (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	issue_key         TEXT NOT NULL UNIQUE,
	project_id        INTEGER NOT NULL REFERENCES projects(id),
	type_id           TEXT NOT NULL REFERENCES issue_types(id),
	status_id         TEXT NOT NULL REFERENCES statuses(id),
	parent_id         INTEGER REFERENCES issues(id) ON DELETE CASCADE,
	security_level_id INTEGER,
	summary           TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS issue_fields (
	issue_id INTEGER NOT NULL REFERENCES issues(id) ON DELETE CASCADE,
	name     TEXT NOT NULL,
	value    TEXT NOT NULL,
	PRIMARY KEY (issue_id, name)
);

CREATE TABLE IF NOT EXISTS grants (
	user_name  TEXT NOT NULL,
	project_id INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	permission TEXT NOT NULL,
	PRIMARY KEY (user_name, project_id, permission)
);

CREATE TABLE IF NOT EXISTS security_level_members (
	level_id  INTEGER NOT NULL,
	user_name TEXT NOT NULL,
	PRIMARY KEY (level_id, user_name)
);

CREATE TABLE IF NOT EXISTS preferences (
	user_name TEXT NOT NULL,
	name      TEXT NOT NULL,
	value     TEXT NOT NULL,
	PRIMARY KEY (user_name, name)
);

CREATE INDEX IF NOT EXISTS idx_issues_parent ON issues(parent_id);
CREATE INDEX IF NOT EXISTS idx_issues_project ON issues(project_id);
`,
	},
}
