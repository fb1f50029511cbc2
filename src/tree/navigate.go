package tree

import (
	"encoding/json"
	"fmt"
	"io"

	"ordertrees/src/model"
)

// maxWalkDepth bounds parent-chain walks. A chain longer than this is
// treated as corrupted even if no revisit was seen.
const maxWalkDepth = 10000

// NextBuy follows the order's buy-child reference. An absent reference or
// one pointing at a record that no longer exists yields (nil, nil).
func (t *Tree) NextBuy(order *model.Order) (*model.Order, error) {
	id, ok := order.NextBuyID()
	if !ok {
		return nil, nil
	}
	return t.index.Lookup(id)
}

// NextSell follows the order's sell-child reference the same way.
func (t *Tree) NextSell(order *model.Order) (*model.Order, error) {
	id, ok := order.NextSellID()
	if !ok {
		return nil, nil
	}
	return t.index.Lookup(id)
}

// Children returns the buy child and the sell child, either of which may
// be nil.
func (t *Tree) Children(order *model.Order) ([]*model.Order, error) {
	buy, err := t.NextBuy(order)
	if err != nil {
		return nil, err
	}
	sell, err := t.NextSell(order)
	if err != nil {
		return nil, err
	}
	return []*model.Order{buy, sell}, nil
}

// Parent follows the order's parent reference. Roots and dangling
// references yield (nil, nil).
func (t *Tree) Parent(order *model.Order) (*model.Order, error) {
	id, ok := order.ParentID()
	if !ok {
		return nil, nil
	}
	return t.index.Lookup(id)
}

// FindRoot walks parent references to the order with no parent. A revisit
// or a chain exceeding the depth bound is corrupted data and fails with
// ErrCycleDetected.
func (t *Tree) FindRoot(order *model.Order) (*model.Order, error) {
	visited := map[string]struct{}{order.ID(): {}}

	current := order
	for depth := 0; depth < maxWalkDepth; depth++ {
		parent, err := t.Parent(current)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return current, nil
		}
		if _, seen := visited[parent.ID()]; seen {
			return nil, fmt.Errorf("find root from %s: %w", order.ID(), ErrCycleDetected)
		}
		visited[parent.ID()] = struct{}{}
		current = parent
	}
	return nil, fmt.Errorf("find root from %s: %w", order.ID(), ErrCycleDetected)
}

// IsLeaf reports whether the order has no children. A child reference
// pointing at a deleted record counts as absent. Unless keepClosed is set,
// orders the classifier considers already finished are not leaves.
func (t *Tree) IsLeaf(order *model.Order, keepClosed bool) (bool, error) {
	if !keepClosed && t.IsClosed != nil && t.IsClosed(order) {
		return false, nil
	}

	buy, err := t.NextBuy(order)
	if err != nil {
		return false, err
	}
	if buy != nil {
		return false, nil
	}
	sell, err := t.NextSell(order)
	if err != nil {
		return false, err
	}
	return sell == nil, nil
}

// PreorderTraverse walks the subtree rooted at the order: self first, then
// the full buy subtree, then the full sell subtree. Absent children are
// skipped; a revisit fails with ErrCycleDetected.
func (t *Tree) PreorderTraverse(order *model.Order) ([]*model.Order, error) {
	if order == nil {
		return nil, nil
	}

	var result []*model.Order
	visited := make(map[string]struct{})
	stack := []*model.Order{order}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, seen := visited[current.ID()]; seen {
			return nil, fmt.Errorf("traverse from %s: %w", order.ID(), ErrCycleDetected)
		}
		visited[current.ID()] = struct{}{}
		result = append(result, current)

		// Sell pushed first so the buy subtree pops first.
		sell, err := t.NextSell(current)
		if err != nil {
			return nil, err
		}
		if sell != nil {
			stack = append(stack, sell)
		}
		buy, err := t.NextBuy(current)
		if err != nil {
			return nil, err
		}
		if buy != nil {
			stack = append(stack, buy)
		}
	}
	return result, nil
}

// DumpTree writes the subtree rooted at the order to w, one JSON document
// per line, in-order: buy subtree, self, sell subtree.
func (t *Tree) DumpTree(w io.Writer, order *model.Order) error {
	if order == nil {
		return nil
	}

	type frame struct {
		order    *model.Order
		expanded bool
	}

	visited := make(map[string]struct{})
	stack := []frame{{order: order}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if top.expanded {
			raw, err := json.Marshal(top.order.Data())
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintln(w, string(raw)); err != nil {
				return err
			}
			continue
		}

		if _, seen := visited[top.order.ID()]; seen {
			return fmt.Errorf("dump from %s: %w", order.ID(), ErrCycleDetected)
		}
		visited[top.order.ID()] = struct{}{}

		sell, err := t.NextSell(top.order)
		if err != nil {
			return err
		}
		if sell != nil {
			stack = append(stack, frame{order: sell})
		}
		stack = append(stack, frame{order: top.order, expanded: true})
		buy, err := t.NextBuy(top.order)
		if err != nil {
			return err
		}
		if buy != nil {
			stack = append(stack, frame{order: buy})
		}
	}
	return nil
}
