// Package models defines data structures for InvestR
package models

import (
	"strconv"
)

// Holding is a single broker position. The upstream tool service has no
// fixed schema, so a holding is a projection of recognized keys rather
// than a struct; numeric keys always hold float64 once projected.
type Holding map[string]any

// HoldingSymbolKey is the canonical symbol key on a projected holding.
const HoldingSymbolKey = "tradingsymbol"

// SymbolAliases are the keys checked, in order, when filling a missing symbol.
var SymbolAliases = []string{"tradingsymbol", "symbol", "trading_symbol", "instrument"}

// NumericHoldingKeys are the recognized keys that must carry numbers.
var NumericHoldingKeys = []string{
	"last_price",
	"quantity",
	"t1_quantity",
	"opening_quantity",
	"average_price",
	"close_price",
	"pnl",
	"day_change",
	"day_change_percentage",
}

// Symbol returns the holding's trading symbol, or empty string.
func (h Holding) Symbol() string {
	if v, ok := h[HoldingSymbolKey].(string); ok {
		return v
	}
	return ""
}

// Float returns the numeric value stored under key, if present and numeric.
func (h Holding) Float(key string) (float64, bool) {
	v, ok := h[key]
	if !ok {
		return 0, false
	}
	return ToFloat(v)
}

// ToFloat coerces a loosely-typed JSON value to float64. Numeric strings
// parse; empty or unparseable values report absence rather than failing.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		s := n
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
