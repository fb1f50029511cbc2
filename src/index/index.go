package index

import (
	"errors"
	"fmt"

	logger "github.com/sirupsen/logrus"

	"ordertrees/src/model"
	"ordertrees/src/store"
)

// Index maps external order ids to storage ids for one collection. The
// mapping is built lazily: lookups populate entries as they scan, and
// Rebuild regenerates the whole mapping from disk.
type Index struct {
	store     *store.Store
	byOrderID map[string]string
	log       *logger.Entry
}

// New creates an empty index over the given store.
func New(st *store.Store) *Index {
	return &Index{
		store:     st,
		byOrderID: make(map[string]string),
		log:       logger.WithField("component", "Index"),
	}
}

// Resolve returns the storage id for an external order id. It tries the
// cached mapping first, then the order id itself as a storage id, and only
// then a full scan. The second return is false when nothing matches.
func (ix *Index) Resolve(orderID string) (string, bool) {
	if id, ok := ix.byOrderID[orderID]; ok {
		return id, true
	}

	order, err := ix.Lookup(orderID)
	if err != nil || order == nil {
		return "", false
	}
	return order.ID(), true
}

// Rebuild scans every record and regenerates the order_id mapping from
// scratch. O(number of records); the only way to guarantee the index
// reflects all on-disk records.
func (ix *Index) Rebuild() error {
	ids, err := ix.store.ListIDs()
	if err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}

	ix.byOrderID = make(map[string]string, len(ids))
	for _, id := range ids {
		rec, err := ix.store.Get(id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return fmt.Errorf("rebuild index: %w", err)
		}
		ix.byOrderID[model.Wrap(rec).OrderID()] = id
	}

	ix.log.WithField("records", len(ids)).Debug("Order index rebuilt")
	return nil
}

// Lookup returns the order for an external order id, or (nil, nil) when no
// record matches even after a full scan. The scan opportunistically
// populates missing index entries, so repeated misses amortize toward
// constant time. Stale mapping entries pointing at deleted records are
// dropped and treated as misses.
func (ix *Index) Lookup(orderID string) (*model.Order, error) {
	if id, ok := ix.byOrderID[orderID]; ok {
		rec, err := ix.store.Get(id)
		if err == nil {
			return model.Wrap(rec), nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		delete(ix.byOrderID, orderID)
	}

	// Optimistic path: the order id may be a storage id already.
	rec, err := ix.store.Get(orderID)
	if err == nil {
		return model.Wrap(rec), nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	ids, err := ix.store.ListIDs()
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", orderID, err)
	}

	var found *model.Order
	for _, id := range ids {
		rec, err := ix.store.Get(id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, err
		}
		order := model.Wrap(rec)
		ix.byOrderID[order.OrderID()] = id
		if found == nil && order.OrderID() == orderID {
			found = order
		}
	}
	return found, nil
}

// Set records a mapping from an external order id to a storage id.
func (ix *Index) Set(orderID, id string) {
	ix.byOrderID[orderID] = id
}

// Drop removes mapping entries for the given keys. Used when an order is
// deleted or archived so later lookups miss cleanly.
func (ix *Index) Drop(keys ...string) {
	for _, k := range keys {
		delete(ix.byOrderID, k)
	}
}
