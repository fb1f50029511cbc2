package model

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"ordertrees/src/store"
)

// Document field names shared by every order record. Extra caller-supplied
// fields round-trip untouched next to these.
const (
	OrderIDField         = "order_id"
	ParentIDField        = "parent_id"
	NextBuyIDField       = "next_buy_id"
	NextSellIDField      = "next_sell_id"
	SideField            = "side"
	StagedField          = "staged"
	TargetPriceField     = "target_price"
	StopPriceField       = "stop_price"
	AmountField          = "amount"
	RemainingAmountField = "remaining_amount"
	SymbolField          = "symbol"
	AccountField         = "account"
	DoneField            = "_done"
	StampField           = "_dt"
)

// Side is the direction of an order.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Valid reports whether the side is one of buy or sell.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// Order is a typed view over a stored record. Numeric fields are persisted
// as strings and parsed into decimals here, once, at the domain boundary.
type Order struct {
	*store.Record
}

// Wrap turns a raw record into an Order view. Returns nil for a nil
// record so lookup misses stay nil through the domain layer.
func Wrap(rec *store.Record) *Order {
	if rec == nil {
		return nil
	}
	return &Order{Record: rec}
}

// OrderID returns the external-facing identifier, falling back to the
// storage id when the record never had one set.
func (o *Order) OrderID() string {
	if id := o.GetString(OrderIDField); id != "" {
		return id
	}
	return o.ID()
}

// Side returns the order direction. Validity is checked at the point of
// comparison, not here.
func (o *Order) Side() Side {
	return Side(o.GetString(SideField))
}

// Symbol returns the instrument identifier.
func (o *Order) Symbol() string {
	return o.GetString(SymbolField)
}

// TargetPrice returns the limit trigger price.
func (o *Order) TargetPrice() (decimal.Decimal, error) {
	v, _ := o.Get(TargetPriceField)
	return toDecimal(TargetPriceField, v)
}

// StopPrice returns the stop trigger price and whether one is set. An
// absent, null, false or zero stop all count as "no stop".
func (o *Order) StopPrice() (decimal.Decimal, bool, error) {
	v, ok := o.Get(StopPriceField)
	if !ok || !Truthy(v) {
		return decimal.Zero, false, nil
	}
	d, err := toDecimal(StopPriceField, v)
	if err != nil {
		return decimal.Zero, false, err
	}
	return d, true, nil
}

// Amount returns the original order size.
func (o *Order) Amount() (decimal.Decimal, error) {
	v, _ := o.Get(AmountField)
	return toDecimal(AmountField, v)
}

// EffectiveSize returns the size an order contributes when combined:
// min(amount, remaining_amount) when a remaining amount is present,
// otherwise the full amount.
func (o *Order) EffectiveSize() (decimal.Decimal, error) {
	amount, err := o.Amount()
	if err != nil {
		return decimal.Zero, err
	}

	v, ok := o.Get(RemainingAmountField)
	if !ok || v == nil {
		return amount, nil
	}
	remaining, err := toDecimal(RemainingAmountField, v)
	if err != nil {
		return decimal.Zero, err
	}
	if remaining.LessThan(amount) {
		return remaining, nil
	}
	return amount, nil
}

// IsStaged reports whether the staged field is present and truthy.
func (o *Order) IsStaged() bool {
	v, ok := o.Get(StagedField)
	return ok && Truthy(v)
}

// ParentID returns the back-reference to the spawning order, if any.
func (o *Order) ParentID() (string, bool) {
	return refField(o, ParentIDField)
}

// NextBuyID returns the forward reference to the buy child, if any.
func (o *Order) NextBuyID() (string, bool) {
	return refField(o, NextBuyIDField)
}

// NextSellID returns the forward reference to the sell child, if any.
func (o *Order) NextSellID() (string, bool) {
	return refField(o, NextSellIDField)
}

// IsRoot reports whether the order has no parent reference.
func (o *Order) IsRoot() bool {
	_, ok := o.ParentID()
	return !ok
}

func refField(o *Order, field string) (string, bool) {
	v, ok := o.Get(field)
	if !ok || v == nil {
		return "", false
	}
	s, _ := v.(string)
	if s == "" {
		return "", false
	}
	return s, true
}

// toDecimal parses a stored field value into a decimal. Records read back
// from disk carry numbers as strings or JSON floats; in-memory records may
// still hold typed decimals.
func toDecimal(field string, v any) (decimal.Decimal, error) {
	switch val := v.(type) {
	case decimal.Decimal:
		return val, nil
	case string:
		d, err := decimal.NewFromString(val)
		if err != nil {
			return decimal.Zero, fmt.Errorf("parse %s %q: %w", field, val, err)
		}
		return d, nil
	case float64:
		return decimal.NewFromFloat(val), nil
	case int:
		return decimal.NewFromInt(int64(val)), nil
	case int64:
		return decimal.NewFromInt(val), nil
	case json.Number:
		d, err := decimal.NewFromString(val.String())
		if err != nil {
			return decimal.Zero, fmt.Errorf("parse %s %q: %w", field, val, err)
		}
		return d, nil
	case nil:
		return decimal.Zero, fmt.Errorf("field %s not set", field)
	default:
		return decimal.Zero, fmt.Errorf("field %s has unexpected type %T", field, v)
	}
}

// Truthy mirrors the loose truth test stored documents rely on: false,
// null, zero and empty or zero-like strings all count as false.
func Truthy(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return val != "" && val != "false" && val != "0"
	case float64:
		return val != 0
	case int:
		return val != 0
	case int64:
		return val != 0
	case decimal.Decimal:
		return !val.IsZero()
	case nil:
		return false
	default:
		return true
	}
}
