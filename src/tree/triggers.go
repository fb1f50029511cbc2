package tree

import (
	"fmt"

	"github.com/shopspring/decimal"

	"ordertrees/src/model"
)

// IsLimitTriggered reports whether the price satisfies the order's limit
// condition: at or below the target for a buy, at or above for a sell.
// Any other side is a contract violation.
func (t *Tree) IsLimitTriggered(order *model.Order, price decimal.Decimal) (bool, error) {
	target, err := order.TargetPrice()
	if err != nil {
		return false, err
	}

	switch order.Side() {
	case model.SideBuy:
		return price.LessThanOrEqual(target), nil
	case model.SideSell:
		return price.GreaterThanOrEqual(target), nil
	default:
		return false, fmt.Errorf("%w: %q on order %s", ErrInvalidSide, order.Side(), order.ID())
	}
}

// IsStopTriggered reports whether the price satisfies the order's stop
// condition, the mirror image of the limit case. An absent or falsy stop
// price means no stop and never triggers.
func (t *Tree) IsStopTriggered(order *model.Order, price decimal.Decimal) (bool, error) {
	stop, ok, err := order.StopPrice()
	if err != nil || !ok {
		return false, err
	}

	switch order.Side() {
	case model.SideBuy:
		return price.GreaterThanOrEqual(stop), nil
	case model.SideSell:
		return price.LessThanOrEqual(stop), nil
	default:
		return false, fmt.Errorf("%w: %q on order %s", ErrInvalidSide, order.Side(), order.ID())
	}
}

// IsTriggered reports whether the limit or stop price has been hit. A
// non-staged order never triggers.
func (t *Tree) IsTriggered(order *model.Order, price decimal.Decimal) (bool, error) {
	if !order.IsStaged() {
		return false, nil
	}

	limit, err := t.IsLimitTriggered(order, price)
	if err != nil {
		return false, err
	}
	if limit {
		return true, nil
	}

	return t.IsStopTriggered(order, price)
}
