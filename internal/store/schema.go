package store

// Schema is the SQL schema of the local mirror. Records are stored as JSON
// documents next to the scalar columns that are queried or mutated locally.
const Schema = `
CREATE TABLE IF NOT EXISTS observations (
    uuid              TEXT PRIMARY KEY,
    doc               TEXT NOT NULL,
    viewed            INTEGER NOT NULL DEFAULT 0,
    needs_viewed_sync INTEGER NOT NULL DEFAULT 0,
    updated_at        TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_observations_needs_viewed_sync
    ON observations(needs_viewed_sync) WHERE needs_viewed_sync = 1;

CREATE TABLE IF NOT EXISTS users (
    id         INTEGER PRIMARY KEY,
    login      TEXT NOT NULL DEFAULT '',
    doc        TEXT NOT NULL,
    signed_in  INTEGER NOT NULL DEFAULT 0,
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_users_signed_in ON users(signed_in) WHERE signed_in = 1;
`
