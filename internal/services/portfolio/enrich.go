package portfolio

import (
	"github.com/investrlabs/investr/internal/models"
)

// enrichHolding projects a raw broker record onto the recognized keys and
// fills in derived fields that the broker omitted. Enrichment is lossy on
// purpose: unknown keys are dropped, unparseable numerics are omitted, and
// a failure to derive a field never fails the record.
func enrichHolding(raw map[string]any) models.Holding {
	h := models.Holding{}

	for _, alias := range models.SymbolAliases {
		if sym, ok := raw[alias].(string); ok && sym != "" {
			h[models.HoldingSymbolKey] = sym
			break
		}
	}

	for _, key := range models.NumericHoldingKeys {
		if v, ok := raw[key]; ok {
			if f, ok := models.ToFloat(v); ok {
				h[key] = f
			}
		}
	}

	deriveFields(h)
	return h
}

// deriveFields computes pnl and day-change figures when the inputs are
// present and the target is absent.
func deriveFields(h models.Holding) {
	price, hasPrice := h.Float("last_price")
	avg, hasAvg := h.Float("average_price")
	qty, hasQty := h.Float("quantity")
	close, hasClose := h.Float("close_price")

	if _, ok := h["pnl"]; !ok && hasPrice && hasAvg && hasQty {
		h["pnl"] = (price - avg) * qty
	}

	if _, ok := h["day_change"]; !ok && hasPrice && hasClose {
		h["day_change"] = price - close
	}

	if _, ok := h["day_change_percentage"]; !ok && hasClose && close != 0 {
		if change, ok := h.Float("day_change"); ok {
			h["day_change_percentage"] = change / close * 100
		}
	}
}
