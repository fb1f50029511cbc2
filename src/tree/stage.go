package tree

import (
	"time"

	"github.com/shopspring/decimal"

	"ordertrees/src/model"
	"ordertrees/src/store"
)

// StageRequest carries the parameters for staging a new order. Amount and
// TargetPrice are required; a zero StopPrice means no stop. Staged
// defaults to true when left nil. Extra fields are merged into the
// document as-is and round-trip opaquely.
type StageRequest struct {
	Symbol      string
	Amount      decimal.Decimal
	TargetPrice decimal.Decimal
	Side        model.Side
	StopPrice   decimal.Decimal
	Staged      *bool
	OrderType   string
	Account     string
	Extra       map[string]any
}

// Stage creates a new order record: fresh id, order_id defaulting to the
// id, remaining amount equal to the full amount, a creation timestamp, and
// any caller extras, persisted immediately. The side is not validated
// here; an invalid side surfaces later as a trigger-evaluation failure.
func (t *Tree) Stage(req StageRequest) (*model.Order, error) {
	id := store.NewID()

	staged := true
	if req.Staged != nil {
		staged = *req.Staged
	}

	data := map[string]any{
		store.IDField:              id,
		model.OrderIDField:         id,
		model.SideField:            string(req.Side),
		model.TargetPriceField:     req.TargetPrice,
		model.StagedField:          staged,
		model.AmountField:          req.Amount,
		model.RemainingAmountField: req.Amount,
		model.SymbolField:          req.Symbol,
		model.StampField:           time.Now().UTC(),
		"size":                     req.Amount,
		"original_amount":          req.Amount,
		"original_side":            string(req.Side),
	}

	if req.StopPrice.IsZero() {
		data[model.StopPriceField] = nil
	} else {
		data[model.StopPriceField] = req.StopPrice
	}
	if req.OrderType != "" {
		data["_order_type"] = req.OrderType
	}
	if req.Account != "" {
		data[model.AccountField] = req.Account
	}
	for k, v := range req.Extra {
		data[k] = v
	}

	rec, err := t.store.Create(data, id)
	if err != nil {
		return nil, err
	}

	order := model.Wrap(rec)
	t.index.Set(order.OrderID(), id)

	t.log.WithFields(map[string]any{
		"id":     id,
		"symbol": req.Symbol,
		"side":   req.Side,
		"amount": req.Amount,
	}).Info("Order staged")
	return order, nil
}
