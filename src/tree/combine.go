package tree

import (
	"errors"
	"fmt"
	"time"

	"ordertrees/src/model"
)

// CombineOptions control rounding and disposal for Combine.
type CombineOptions struct {
	SizePrecision  int32
	PricePrecision int32

	// Complete archives the merged-away orders before removal instead of
	// deleting them outright.
	Complete bool
}

// CombineDefaults returns the tree's configured precisions with outright
// deletion of merged orders.
func (t *Tree) CombineDefaults() CombineOptions {
	return CombineOptions{
		SizePrecision:  t.sizePrecision,
		PricePrecision: t.pricePrecision,
	}
}

// Combine merges the orders sharing the first order's side into one. The
// result keeps the first order's identity, with target_price set to the
// size-weighted average and amount to the sum of effective sizes. Orders
// on the other side are skipped with a warning and left untouched. The
// other merged orders are removed from the store, archived first when
// opts.Complete is set.
//
// A single-order list is returned unchanged with no side effects. A zero
// total effective size fails with ErrZeroSize before any mutation. The
// operation is not atomic across files: a crash mid-way can leave some
// orders merged into the first and not yet removed.
func (t *Tree) Combine(orders []*model.Order, opts CombineOptions) (*model.Order, error) {
	if len(orders) == 0 {
		return nil, errors.New("combine: no orders given")
	}
	if len(orders) == 1 {
		return orders[0], nil
	}

	consumer := orders[0]
	side := consumer.Side()

	totalSize, err := consumer.EffectiveSize()
	if err != nil {
		return nil, err
	}
	price, err := consumer.TargetPrice()
	if err != nil {
		return nil, err
	}
	totalValue := price.Mul(totalSize)

	var included []*model.Order
	for _, order := range orders[1:] {
		if order.Side() != side {
			t.log.WithFields(map[string]any{
				"order_id": order.OrderID(),
				"side":     order.Side(),
				"expected": side,
			}).Warn("Crossed order sides combining, skipping order")
			continue
		}

		size, err := order.EffectiveSize()
		if err != nil {
			return nil, err
		}
		price, err := order.TargetPrice()
		if err != nil {
			return nil, err
		}
		totalSize = totalSize.Add(size)
		totalValue = totalValue.Add(price.Mul(size))
		included = append(included, order)
	}

	if totalSize.IsZero() {
		return nil, fmt.Errorf("combine %s: %w", consumer.OrderID(), ErrZeroSize)
	}

	size := totalSize.Round(opts.SizePrecision)
	target := totalValue.Div(totalSize).Round(opts.PricePrecision)

	err = t.store.Update(consumer.Record, map[string]any{
		model.AmountField:      size,
		model.TargetPriceField: target,
		model.StampField:       time.Now().UTC(),
		"original_amount":      size,
	})
	if err != nil {
		return nil, err
	}

	if opts.Complete {
		for _, order := range included {
			if _, err := t.Complete(order.ID()); err != nil {
				return nil, err
			}
		}
	}
	for _, order := range included {
		if err := t.Delete(order.ID()); err != nil {
			return nil, err
		}
	}

	t.log.WithFields(map[string]any{
		"order_id":     consumer.OrderID(),
		"merged":       len(included),
		"amount":       size,
		"target_price": target,
	}).Info("Orders combined")
	return consumer, nil
}
