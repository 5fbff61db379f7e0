package sightings

import (
	"context"
	stderrors "errors"
	"sync"

	"github.com/agentstation/sightings/internal/store"
	"github.com/agentstation/sightings/pkg/constants"
	"github.com/agentstation/sightings/pkg/errors"
	"github.com/agentstation/sightings/pkg/logging"
)

// viewedSet remembers which observations this client already marked, so
// repeated opens do not repeat the calls. It is best-effort: it does not
// survive the process.
type viewedSet struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func newViewedSet() *viewedSet {
	return &viewedSet{seen: make(map[string]struct{})}
}

// claim reports whether uuid was not marked before, and marks it.
func (v *viewedSet) claim(uuid string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.seen[uuid]; ok {
		return false
	}
	v.seen[uuid] = struct{}{}
	return true
}

// release forgets uuid so the next open tries again.
func (v *viewedSet) release(uuid string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.seen, uuid)
}

// markViewed tells the remote service and the local mirror that the
// detail's observation was seen. The two updates run independently in the
// background; their failures are logged and otherwise ignored. A failure
// nothing will retry releases the claim so the next open tries again.
func (c *client) markViewed(ctx context.Context, d *Detail) {
	uuid := d.uuid
	if d.viewed() || !c.viewed.claim(uuid) {
		return
	}

	workers := 1
	if c.store != nil {
		workers = 2
	}
	c.mu.Lock()
	if c.closed.Load() {
		c.mu.Unlock()
		c.viewed.release(uuid)
		return
	}
	c.bg.Add(workers)
	c.mu.Unlock()

	bg := logging.WithOperation(context.WithoutCancel(ctx), "mark_viewed")
	log := logging.FromContextOr(bg, c.logger)

	go func() {
		defer c.bg.Done()
		ctx, cancel := context.WithTimeout(bg, constants.MarkViewedTimeout)
		defer cancel()

		if err := c.api.MarkObservationUpdatesViewed(ctx, uuid); err != nil {
			log.Warn().Err(err).Msg("Could not mark observation updates viewed remotely")
			// With a mirror the local row carries the flag for SyncViewed.
			if c.store == nil {
				c.viewed.release(uuid)
			}
			return
		}
		log.Debug().Msg("Marked observation updates viewed remotely")

		if c.store == nil {
			d.setViewed()
			c.triggerViewed(uuid)
			return
		}
		// If the local write lands after this, the flag stays set and
		// SyncViewed repeats the call once.
		if err := c.store.ClearViewedSync(ctx, uuid); err != nil {
			log.Debug().Err(err).Msg("Could not clear viewed sync flag")
		}
	}()

	if c.store == nil {
		return
	}

	go func() {
		defer c.bg.Done()
		ctx, cancel := context.WithTimeout(bg, constants.MarkViewedTimeout)
		defer cancel()

		var changed bool
		err := c.store.Write(ctx, func(tx *store.Tx) error {
			var err error
			changed, err = tx.SetViewed(uuid)
			return err
		})
		if err != nil {
			log.Warn().Err(err).Msg("Could not mark observation viewed locally")
			c.viewed.release(uuid)
			return
		}
		d.setViewed()
		if changed {
			c.triggerViewed(uuid)
		}
	}()
}

// SyncViewed implements ViewedSyncer. It sends the viewed flags recorded
// locally that the remote service has not acknowledged and reports how
// many were acknowledged.
func (c *client) SyncViewed(ctx context.Context) (int, error) {
	if c.closed.Load() {
		return 0, errors.ErrClosed
	}
	if c.store == nil {
		return 0, nil
	}

	pending, err := c.store.PendingViewed(ctx)
	if err != nil {
		return 0, err
	}

	var errs []error
	synced := 0
	for _, uuid := range pending {
		if err := c.api.MarkObservationUpdatesViewed(ctx, uuid); err != nil {
			c.logger.Warn().Err(err).Str("observation_uuid", uuid).Msg("Viewed sync failed")
			errs = append(errs, errors.WrapResource("mark viewed", "observation", uuid, err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if err := c.store.ClearViewedSync(ctx, uuid); err != nil {
			errs = append(errs, err)
			continue
		}
		synced++
	}

	c.logger.Info().Int("pending", len(pending)).Int("synced", synced).Msg("Viewed flags synced")
	return synced, stderrors.Join(errs...)
}
