package store

// SchemaVersion is the current database schema version
const SchemaVersion = 1

const schema = `
-- Readings table
CREATE TABLE IF NOT EXISTS readings (
    id TEXT PRIMARY KEY,
    backend_id TEXT DEFAULT '',
    value REAL NOT NULL,
    unit TEXT NOT NULL DEFAULT 'mg/dL',
    measured_at DATETIME NOT NULL,
    type TEXT NOT NULL DEFAULT 'manual',
    sub_type TEXT DEFAULT '',
    notes TEXT DEFAULT '',
    meal_context TEXT DEFAULT '',
    device_id TEXT DEFAULT '',
    user_id TEXT NOT NULL,
    synced INTEGER NOT NULL DEFAULT 0,
    local_stored_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_readings_user ON readings(user_id);
CREATE INDEX IF NOT EXISTS idx_readings_user_measured ON readings(user_id, measured_at);
CREATE INDEX IF NOT EXISTS idx_readings_backend ON readings(backend_id);

-- Outbound sync queue; rowid order is insertion order
CREATE TABLE IF NOT EXISTS sync_queue (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    reading_id TEXT NOT NULL,
    backend_id TEXT DEFAULT '',
    op TEXT NOT NULL,
    enqueued_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    retries INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_sync_queue_reading ON sync_queue(reading_id);

-- Detected local/remote divergences awaiting a human decision
CREATE TABLE IF NOT EXISTS conflicts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    reading_id TEXT NOT NULL,
    local_data TEXT NOT NULL DEFAULT '{}',
    remote_data TEXT NOT NULL DEFAULT '{}',
    status TEXT NOT NULL DEFAULT 'pending',
    resolution TEXT DEFAULT '',
    detected_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    resolved_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_conflicts_status ON conflicts(status);
CREATE INDEX IF NOT EXISTS idx_conflicts_reading ON conflicts(reading_id, status);

-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_info (
    key TEXT PRIMARY KEY,
    value INTEGER NOT NULL
);
`
