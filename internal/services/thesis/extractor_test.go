package thesis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/investrlabs/investr/internal/models"
)

const wellFormedThesis = `# INFY Investment Thesis

## 1. Executive Summary

A market-leading IT services exporter with durable cash generation
and a decade of steady margin discipline.

## 2. Analysis Scorecard

| Metric | Score | Justification |
|------|------|------|
| **Financial Health** | | |
| Revenue Growth | 🟢 | Double digit CAGR across the decade |
| Debt/Equity | 🟢 | Net cash balance sheet |
| **Valuation** | | |
| P/E Ratio | 🟡 | Trades above the sector median |

## 3. Decision Matrix

| Category | Score | Justification |
|------|------|------|
| **Financial Health** | 🟢 | Consistent free cash flow |
| **Valuation** | 🟡 | Priced for continued execution |

## 4. Final Verdict

Recommendation: **BUY**

The business quality justifies the premium multiple for long-horizon
investors.

Caveats:
1. **Currency Risk**: Earnings are sensitive to INR/USD moves.
2. **Client Concentration**: Top accounts drive a large revenue share
   and a single loss would dent growth.

---
*Analysis generated on 2026-08-28 10:15:00 using two-stage Gemini analysis*
`

func TestParseThesis_WellFormedDocument(t *testing.T) {
	doc := ParseThesis(wellFormedThesis)

	assert.Contains(t, doc.ExecutiveSummary, "durable cash generation")
	assert.Equal(t, "BUY", doc.Recommendation)
	assert.Contains(t, doc.RecommendationSummary, "premium multiple")
	assert.Equal(t, "2026-08-28", doc.GeneratedOn)

	require.Len(t, doc.Caveats, 2)
	assert.Equal(t, "Earnings are sensitive to INR/USD moves.", doc.Caveats[0])
	assert.Contains(t, doc.Caveats[1], "single loss would dent growth")

	require.Contains(t, doc.Metrics, "Financial Health")
	require.Contains(t, doc.Metrics, "Valuation")
	assert.Len(t, doc.Metrics["Financial Health"], 2)

	rev := doc.Metrics["Financial Health"]["Revenue Growth"]
	assert.Equal(t, models.ScoreHigh, rev.Score)
	assert.Equal(t, "Double digit CAGR across the decade", rev.Justification)

	pe := doc.Metrics["Valuation"]["P/E Ratio"]
	assert.Equal(t, models.ScoreMedium, pe.Score)

	require.Len(t, doc.DecisionMatrix, 2)
	assert.Equal(t, models.ScoreHigh, doc.DecisionMatrix["Financial Health"].Score)
	assert.Equal(t, "Priced for continued execution", doc.DecisionMatrix["Valuation"].Justification)
}

func TestParseThesis_MissingDecisionMatrix(t *testing.T) {
	text := `## 1. Executive Summary

Solid compounding story.

## 2. Analysis Scorecard

| Metric | Score | Justification |
|------|------|------|
| Revenue Growth | 🟢 | Strong |

## 4. Final Verdict

Recommendation: **HOLD**

Fairly valued today.

Caveats:
1. Execution risk on the new segment.
`
	doc := ParseThesis(text)

	assert.Contains(t, doc.ExecutiveSummary, "compounding")
	assert.NotEmpty(t, doc.Metrics)
	assert.Empty(t, doc.DecisionMatrix)
	assert.Equal(t, "HOLD", doc.Recommendation)
	assert.Len(t, doc.Caveats, 1)
}

func TestParseThesis_EmptyInput(t *testing.T) {
	for _, text := range []string{"", "   \n\n  "} {
		doc := ParseThesis(text)
		require.NotNil(t, doc)
		assert.Equal(t, fallbackSummary, doc.ExecutiveSummary)
		assert.Empty(t, doc.Metrics)
		assert.Empty(t, doc.DecisionMatrix)
		assert.Empty(t, doc.Caveats)
		assert.Empty(t, doc.Recommendation)
	}
}

func TestParseThesis_GarbageInput(t *testing.T) {
	doc := ParseThesis("|||| not | a | table ||||\n### random heading\n* stray **bold")
	require.NotNil(t, doc)
	assert.Equal(t, fallbackSummary, doc.ExecutiveSummary)
}

func TestScoreFromCell(t *testing.T) {
	tests := []struct {
		cell string
		want models.Score
	}{
		{"🟢", models.ScoreHigh},
		{"✅ Strong", models.ScoreHigh},
		{"🟡", models.ScoreMedium},
		{"⚠️ Mixed", models.ScoreMedium},
		{"🔴", models.ScoreLow},
		{"❌", models.ScoreLow},
		{"🤷", models.ScoreLow},
		{"", models.ScoreLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, scoreFromCell(tt.cell), "cell %q", tt.cell)
	}
}

func TestStripCaveatLabel(t *testing.T) {
	assert.Equal(t, "Earnings move with the rupee.", stripCaveatLabel("**Currency Risk**: Earnings move with the rupee."))
	assert.Equal(t, "Currency Risk", stripCaveatLabel("**Currency Risk**:"))
	assert.Equal(t, "Plain caveat text.", stripCaveatLabel("Plain caveat text."))
}

func TestExtractFinalVerdict_ContinuationAndBlankLines(t *testing.T) {
	body := `
Recommendation: **SELL**

Deteriorating fundamentals.

Caveats:
1. First caveat
   continues here
2. Second caveat

stray trailing text after a blank line
`
	label, summary, caveats := extractFinalVerdict(body)
	assert.Equal(t, "SELL", label)
	assert.Equal(t, "Deteriorating fundamentals.", summary)
	require.Len(t, caveats, 2)
	assert.Equal(t, "First caveat continues here", caveats[0])
	assert.Equal(t, "Second caveat", caveats[1], "a blank line must end the open caveat")
}

func TestExtractGeneratedOn_Absent(t *testing.T) {
	assert.Empty(t, extractGeneratedOn("no footer here"))
}
