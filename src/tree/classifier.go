package tree

import "ordertrees/src/model"

// ClosedClassifier decides whether an order is already finished for leaf
// classification purposes.
type ClosedClassifier func(order *model.Order) bool

// DefaultClosedClassifier reproduces the vocabulary of the trading API the
// original data came from: done or fill markers in any of several status
// fields mean the order is closed. Orders from other sources may need a
// different classifier.
func DefaultClosedClassifier(order *model.Order) bool {
	if reason := order.GetString("done_reason"); reason == "filled" || reason == "canceled" {
		return true
	}
	if reason := order.GetString("reason"); reason == "filled" || reason == "canceled" {
		return true
	}
	if order.GetString("type") == "done" {
		return true
	}
	if status := order.GetString("status"); status == "filled" || status == "done" {
		return true
	}
	if v, ok := order.Get("settled"); ok && model.Truthy(v) {
		return true
	}
	return false
}
