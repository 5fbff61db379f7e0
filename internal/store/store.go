// Package store is the local embedded mirror of observations and users,
// backed by SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/agentstation/sightings/pkg/constants"
	pkgerrors "github.com/agentstation/sightings/pkg/errors"
	"github.com/agentstation/sightings/pkg/observations"
)

// Store is the local mirror. It is safe for concurrent use.
type Store struct {
	db     *sql.DB
	path   string
	closed atomic.Bool
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
			return nil, pkgerrors.WrapStore("open", "database", path, err)
		}
	}

	dsn := "file:" + path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=busy_timeout(" + strconv.Itoa(constants.StoreBusyTimeout) + ")" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=foreign_keys(ON)"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, pkgerrors.WrapStore("open", "database", path, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, pkgerrors.WrapStore("open", "database", path, err)
	}
	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, pkgerrors.WrapStore("migrate", "database", path, err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database. Later calls fail with errors.ErrClosed.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

// Write runs fn inside one transaction. The transaction commits when fn
// returns nil and rolls back when it returns an error or panics.
func (s *Store) Write(ctx context.Context, fn func(tx *Tx) error) error {
	if s.closed.Load() {
		return pkgerrors.ErrClosed
	}
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return pkgerrors.WrapStore("begin", "", "", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = sqlTx.Rollback()
		}
	}()

	if err := fn(&Tx{ctx: ctx, tx: sqlTx}); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return pkgerrors.WrapStore("commit", "", "", err)
	}
	committed = true
	return nil
}

// Observation reads one observation by UUID.
func (s *Store) Observation(ctx context.Context, uuid string) (*observations.Observation, error) {
	if s.closed.Load() {
		return nil, pkgerrors.ErrClosed
	}
	return readObservation(s.db.QueryRowContext(ctx, selectObservation, uuid), uuid)
}

// User reads one user by ID.
func (s *Store) User(ctx context.Context, id int) (*observations.User, error) {
	if s.closed.Load() {
		return nil, pkgerrors.ErrClosed
	}
	row := s.db.QueryRowContext(ctx, `SELECT doc, signed_in FROM users WHERE id = ?`, id)
	return readUser(row, strconv.Itoa(id))
}

// SignedInUser returns the user flagged as signed in on this device, or
// nil when nobody is.
func (s *Store) SignedInUser(ctx context.Context) (*observations.User, error) {
	if s.closed.Load() {
		return nil, pkgerrors.ErrClosed
	}
	row := s.db.QueryRowContext(ctx, `SELECT doc, signed_in FROM users WHERE signed_in = 1 ORDER BY updated_at DESC LIMIT 1`)
	u, err := readUser(row, "signed in")
	if pkgerrors.IsNotFound(err) {
		return nil, nil
	}
	return u, err
}

// SetSignedIn flags one user as signed in and clears the flag on everyone
// else. An id of 0 signs everyone out.
func (s *Store) SetSignedIn(ctx context.Context, id int) error {
	return s.Write(ctx, func(tx *Tx) error {
		if _, err := tx.tx.ExecContext(ctx, `UPDATE users SET signed_in = 0 WHERE signed_in = 1`); err != nil {
			return pkgerrors.WrapStore("write", "user", "", err)
		}
		if id == 0 {
			return nil
		}
		res, err := tx.tx.ExecContext(ctx,
			`UPDATE users SET signed_in = 1, updated_at = datetime('now') WHERE id = ?`, id)
		if err != nil {
			return pkgerrors.WrapStore("write", "user", strconv.Itoa(id), err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return pkgerrors.NewNotFoundError("user", strconv.Itoa(id))
		}
		return nil
	})
}

// PendingViewed lists observations marked viewed locally that the remote
// service has not been told about yet.
func (s *Store) PendingViewed(ctx context.Context) ([]string, error) {
	if s.closed.Load() {
		return nil, pkgerrors.ErrClosed
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT uuid FROM observations WHERE needs_viewed_sync = 1 ORDER BY updated_at, uuid`)
	if err != nil {
		return nil, pkgerrors.WrapStore("read", "observation", "", err)
	}
	defer rows.Close()

	var uuids []string
	for rows.Next() {
		var uuid string
		if err := rows.Scan(&uuid); err != nil {
			return nil, pkgerrors.WrapStore("read", "observation", "", err)
		}
		uuids = append(uuids, uuid)
	}
	if err := rows.Err(); err != nil {
		return nil, pkgerrors.WrapStore("read", "observation", "", err)
	}
	return uuids, nil
}

// ClearViewedSync records that the remote service knows uuid was viewed.
func (s *Store) ClearViewedSync(ctx context.Context, uuid string) error {
	if s.closed.Load() {
		return pkgerrors.ErrClosed
	}
	_, err := s.db.ExecContext(ctx, `UPDATE observations SET needs_viewed_sync = 0 WHERE uuid = ?`, uuid)
	return pkgerrors.WrapStore("write", "observation", uuid, err)
}

const selectObservation = `SELECT doc, viewed FROM observations WHERE uuid = ?`

func readObservation(row *sql.Row, uuid string) (*observations.Observation, error) {
	var doc string
	var viewed bool
	if err := row.Scan(&doc, &viewed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, pkgerrors.NewNotFoundError("observation", uuid)
		}
		return nil, pkgerrors.WrapStore("read", "observation", uuid, err)
	}

	var obs observations.Observation
	if err := json.Unmarshal([]byte(doc), &obs); err != nil {
		return nil, pkgerrors.WrapParse("json", "observation "+uuid, err)
	}
	obs.Viewed = viewed
	return &obs, nil
}

func readUser(row *sql.Row, key string) (*observations.User, error) {
	var doc string
	var signedIn bool
	if err := row.Scan(&doc, &signedIn); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, pkgerrors.NewNotFoundError("user", key)
		}
		return nil, pkgerrors.WrapStore("read", "user", key, err)
	}

	var u observations.User
	if err := json.Unmarshal([]byte(doc), &u); err != nil {
		return nil, pkgerrors.WrapParse("json", "user "+key, err)
	}
	u.SignedIn = signedIn
	return &u, nil
}
