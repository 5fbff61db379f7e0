package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"

	pkgerrors "github.com/agentstation/sightings/pkg/errors"
	"github.com/agentstation/sightings/pkg/observations"
)

// Tx is a write transaction handed to Store.Write. It must not be used
// after the callback returns.
type Tx struct {
	ctx context.Context
	tx  *sql.Tx
}

// Observation looks up an observation by primary key inside the transaction.
func (t *Tx) Observation(uuid string) (*observations.Observation, error) {
	return readObservation(t.tx.QueryRowContext(t.ctx, selectObservation, uuid), uuid)
}

// SetViewed marks an observation viewed and flags it for remote sync. It
// reports whether the flag changed; an already viewed observation is left
// untouched.
func (t *Tx) SetViewed(uuid string) (bool, error) {
	res, err := t.tx.ExecContext(t.ctx,
		`UPDATE observations
		    SET viewed = 1, needs_viewed_sync = 1, updated_at = datetime('now')
		  WHERE uuid = ? AND viewed = 0`, uuid)
	if err != nil {
		return false, pkgerrors.WrapStore("write", "observation", uuid, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, pkgerrors.WrapStore("write", "observation", uuid, err)
	}
	if n > 0 {
		return true, nil
	}

	// Distinguish "already viewed" from "not mirrored".
	if _, err := t.Observation(uuid); err != nil {
		return false, err
	}
	return false, nil
}

// PutObservation mirrors a server copy, replacing the stored document.
// A locally set viewed flag survives a server copy that has not caught up.
func (t *Tx) PutObservation(obs *observations.Observation) error {
	if obs == nil || obs.UUID == "" {
		return pkgerrors.NewValidationError("uuid", nil, "observation uuid is required")
	}
	doc, err := json.Marshal(obs)
	if err != nil {
		return pkgerrors.WrapParse("json", "observation "+obs.UUID, err)
	}
	_, err = t.tx.ExecContext(t.ctx,
		`INSERT INTO observations (uuid, doc, viewed) VALUES (?, ?, ?)
		 ON CONFLICT(uuid) DO UPDATE SET
		     doc = excluded.doc,
		     viewed = MAX(observations.viewed, excluded.viewed),
		     updated_at = datetime('now')`,
		obs.UUID, string(doc), obs.Viewed)
	return pkgerrors.WrapStore("write", "observation", obs.UUID, err)
}

// PutUser mirrors a user record. The device-local signed-in flag is kept.
func (t *Tx) PutUser(u *observations.User) error {
	if u == nil || u.ID == 0 {
		return pkgerrors.NewValidationError("id", nil, "user id is required")
	}
	stored := *u
	stored.SignedIn = false
	doc, err := json.Marshal(&stored)
	if err != nil {
		return pkgerrors.WrapParse("json", "user "+strconv.Itoa(u.ID), err)
	}
	_, err = t.tx.ExecContext(t.ctx,
		`INSERT INTO users (id, login, doc) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     login = excluded.login,
		     doc = excluded.doc,
		     updated_at = datetime('now')`,
		u.ID, u.Login, string(doc))
	return pkgerrors.WrapStore("write", "user", strconv.Itoa(u.ID), err)
}
