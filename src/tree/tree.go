package tree

import (
	"errors"
	"fmt"
	"path/filepath"

	logger "github.com/sirupsen/logrus"

	"ordertrees/src/index"
	"ordertrees/src/model"
	"ordertrees/src/store"
)

var (
	// ErrInvalidSide is returned when a side-dependent comparison meets a
	// record whose side is neither buy nor sell.
	ErrInvalidSide = errors.New("order side not valid")

	// ErrCycleDetected is returned when a parent or child walk revisits an
	// order, which indicates corrupted tree references.
	ErrCycleDetected = errors.New("cycle detected in order tree")

	// ErrZeroSize is returned by Combine when the total effective size of
	// the merged orders is zero.
	ErrZeroSize = errors.New("combined orders have zero total size")
)

// CompletedArea is the sub-directory archived orders are moved into.
const CompletedArea = "completed"

// Tree manages a directory of order records linked into binary trees via
// stored parent and child references. It holds no storage of its own; all
// state lives in the record store and the order-id index.
type Tree struct {
	store *store.Store
	index *index.Index

	// IsClosed classifies an order as already finished for leaf checks.
	// The default encodes one trading API's vocabulary; callers
	// integrating other venues can replace it.
	IsClosed ClosedClassifier

	sizePrecision  int32
	pricePrecision int32

	log *logger.Entry
}

// ForDirectory binds an order tree to a collection directory, creating the
// directory and its completed sub-area if needed. Creation is idempotent
// and tolerates concurrent creators.
func ForDirectory(path string, useCache bool) (*Tree, error) {
	st, err := store.ForDirectory(path, useCache)
	if err != nil {
		return nil, err
	}
	if _, err := store.ForDirectory(filepath.Join(path, CompletedArea), useCache); err != nil {
		return nil, err
	}

	return &Tree{
		store:          st,
		index:          index.New(st),
		IsClosed:       DefaultClosedClassifier,
		sizePrecision:  DefaultSizePrecision,
		pricePrecision: DefaultPricePrecision,
		log:            logger.WithField("component", "OrderTree"),
	}, nil
}

// FromConfig binds an order tree per the environment configuration.
func FromConfig(cfg *Config) (*Tree, error) {
	t, err := ForDirectory(cfg.Directory, cfg.UseCache)
	if err != nil {
		return nil, err
	}
	t.sizePrecision = cfg.SizePrecision
	t.pricePrecision = cfg.PricePrecision
	return t, nil
}

// Store exposes the underlying record store.
func (t *Tree) Store() *store.Store {
	return t.store
}

// Index exposes the order-id index.
func (t *Tree) Index() *index.Index {
	return t.index
}

// Rebuild regenerates the order-id index from disk. Invoke after bulk
// external changes or on cold start.
func (t *Tree) Rebuild() error {
	return t.index.Rebuild()
}

// LookupOrder returns the order for an external order id, or (nil, nil)
// when nothing matches — a legitimate terminal case, e.g. an order already
// completed or deleted.
func (t *Tree) LookupOrder(orderID string) (*model.Order, error) {
	return t.index.Lookup(orderID)
}

// StagedOrders returns every order currently marked staged.
func (t *Tree) StagedOrders() ([]*model.Order, error) {
	ids, err := t.store.ListIDs()
	if err != nil {
		return nil, err
	}

	var staged []*model.Order
	for _, id := range ids {
		rec, err := t.store.Get(id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if order := model.Wrap(rec); order.IsStaged() {
			staged = append(staged, order)
		}
	}
	return staged, nil
}

// SetOrderID reassigns the external id of an order and updates the index
// mapping.
func (t *Tree) SetOrderID(order *model.Order, orderID string) error {
	t.index.Set(orderID, order.ID())
	return t.store.Set(order.Record, model.OrderIDField, orderID)
}

// Complete archives the order into the completed area, stamping a
// completion marker first, and purges it from the index and cache so later
// lookups by either id miss. An unknown order id is a no-op returning
// (nil, nil).
func (t *Tree) Complete(orderID string) (*model.Order, error) {
	order, err := t.LookupOrder(orderID)
	if err != nil || order == nil {
		return nil, err
	}

	if err := t.store.Set(order.Record, model.DoneField, true); err != nil {
		return nil, fmt.Errorf("complete %s: %w", orderID, err)
	}
	if err := t.store.Archive(order.Record, CompletedArea); err != nil {
		return nil, fmt.Errorf("complete %s: %w", orderID, err)
	}

	t.index.Drop(orderID, order.OrderID(), order.ID())
	t.log.WithFields(map[string]any{"order_id": order.OrderID(), "id": order.ID()}).
		Info("Order completed")
	return order, nil
}

// Delete permanently removes the order's record. Absence is a silent
// no-op.
func (t *Tree) Delete(orderID string) error {
	order, err := t.LookupOrder(orderID)
	if err != nil || order == nil {
		return err
	}

	if err := t.store.Delete(order.ID()); err != nil {
		return err
	}
	t.index.Drop(orderID, order.OrderID(), order.ID())
	return nil
}
