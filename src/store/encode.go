package store

import (
	"time"

	"github.com/shopspring/decimal"
)

// renderValue prepares a document value for JSON serialization. Decimals
// and timestamps render as their string form; once written they stay
// strings on the way back in — the store never reconstructs the original
// type. Everything else marshals natively.
func renderValue(v any) any {
	switch val := v.(type) {
	case decimal.Decimal:
		return val.String()
	case *decimal.Decimal:
		if val == nil {
			return nil
		}
		return val.String()
	case time.Time:
		return val.Format("2006-01-02 15:04:05.999999-07:00")
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = renderValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = renderValue(item)
		}
		return out
	default:
		return v
	}
}
