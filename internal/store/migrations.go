package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS sources (
	id          TEXT PRIMARY KEY,
	type        TEXT NOT NULL,
	name        TEXT NOT NULL,
	enabled     INTEGER NOT NULL DEFAULT 1,
	poll_interval_sec INTEGER NOT NULL DEFAULT 120,
	config      TEXT NOT NULL DEFAULT '{}',
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS items (
	id             TEXT PRIMARY KEY,
	source_type    TEXT NOT NULL,
	source_item_id TEXT NOT NULL,
	source_id      TEXT NOT NULL,
	subject        TEXT NOT NULL DEFAULT '',
	sender         TEXT NOT NULL DEFAULT '',
	sender_name    TEXT NOT NULL DEFAULT '',
	snippet        TEXT NOT NULL DEFAULT '',
	is_bulk_sender INTEGER NOT NULL DEFAULT 0 CHECK(is_bulk_sender IN (0, 1)),
	received_at    DATETIME NOT NULL,
	fetched_at     DATETIME NOT NULL,
	UNIQUE(source_id, source_item_id)
);

CREATE TABLE IF NOT EXISTS triage_records (
	item_id    TEXT PRIMARY KEY REFERENCES items(id) ON DELETE CASCADE,
	action     TEXT NOT NULL CHECK(action IN ('done', 'reply_needed', 'unsubscribe')),
	status     TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending', 'confirmed', 'failed')),
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS subscriptions (
	id                 TEXT PRIMARY KEY,
	sender             TEXT NOT NULL UNIQUE,
	unsubscribe_url    TEXT NOT NULL DEFAULT '',
	unsubscribe_mailto TEXT NOT NULL DEFAULT '',
	one_click          INTEGER NOT NULL DEFAULT 0 CHECK(one_click IN (0, 1)),
	unsubscribed       INTEGER NOT NULL DEFAULT 0 CHECK(unsubscribed IN (0, 1)),
	created_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS notifications (
	id          TEXT PRIMARY KEY,
	item_id     TEXT NOT NULL,
	source_type TEXT NOT NULL,
	message     TEXT NOT NULL,
	read        INTEGER NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_items_source_id ON items(source_id);
CREATE INDEX IF NOT EXISTS idx_items_sender ON items(sender);
CREATE INDEX IF NOT EXISTS idx_items_received_at ON items(received_at);
CREATE INDEX IF NOT EXISTS idx_triage_records_status ON triage_records(status);
CREATE INDEX IF NOT EXISTS idx_notifications_read ON notifications(read);
CREATE INDEX IF NOT EXISTS idx_notifications_created ON notifications(created_at);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS notes (
	id         TEXT PRIMARY KEY,
	item_id    TEXT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
	transcript TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_notes_item_id ON notes(item_id);
CREATE INDEX IF NOT EXISTS idx_notifications_item_id ON notifications(item_id);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
