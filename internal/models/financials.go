package models

import "time"

// FinancialData is the financial statements payload returned by the
// screener API. Statement values are loosely typed: numbers, percentage
// strings, or null.
type FinancialData struct {
	Symbol        string                     `json:"symbol,omitempty"`
	FinancialType string                     `json:"financial_type"`
	Sector        string                     `json:"sector"`
	Financials    map[string][]FinancialItem `json:"financials"`
}

// FinancialItem is one line item (e.g. "Revenue") keyed by column
// ("Mar 2024", "TTM") in a financial statement.
type FinancialItem struct {
	Item string         `json:"item"`
	Data map[string]any `json:"data"`
}

// PricePoint is a single dated closing price.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// PriceSeries is a historical closing-price series for one listing.
type PriceSeries struct {
	Symbol string       `json:"symbol"`
	Points []PricePoint `json:"points"`
}

// Latest returns the most recent close, or 0 for an empty series.
func (s *PriceSeries) Latest() float64 {
	if len(s.Points) == 0 {
		return 0
	}
	return s.Points[len(s.Points)-1].Close
}

// Range returns the minimum and maximum closes across the series.
func (s *PriceSeries) Range() (min, max float64) {
	for i, p := range s.Points {
		if i == 0 || p.Close < min {
			min = p.Close
		}
		if i == 0 || p.Close > max {
			max = p.Close
		}
	}
	return min, max
}
