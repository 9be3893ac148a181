package models

// Score is the ordinal tier assigned to a thesis metric.
type Score string

const (
	ScoreHigh   Score = "High"
	ScoreMedium Score = "Medium"
	ScoreLow    Score = "Low"
)

// MetricAssessment is a single scored metric with its justification text.
type MetricAssessment struct {
	Score         Score  `json:"score"`
	Justification string `json:"justification"`
}

// ThesisDocument is the typed form of a generated investment thesis.
// Every field has a safe zero value so a malformed document degrades to
// partial information instead of failing extraction.
type ThesisDocument struct {
	Symbol                string                                 `json:"symbol,omitempty"`
	ExecutiveSummary      string                                 `json:"executive_summary"`
	Metrics               map[string]map[string]MetricAssessment `json:"metrics"`
	DecisionMatrix        map[string]MetricAssessment            `json:"decision_matrix"`
	Recommendation        string                                 `json:"recommendation"`
	RecommendationSummary string                                 `json:"recommendation_summary"`
	Caveats               []string                               `json:"caveats"`
	GeneratedOn           string                                 `json:"generated_on,omitempty"` // YYYY-MM-DD
}

// NewThesisDocument returns a document with all collections initialized.
func NewThesisDocument() *ThesisDocument {
	return &ThesisDocument{
		Metrics:        make(map[string]map[string]MetricAssessment),
		DecisionMatrix: make(map[string]MetricAssessment),
		Caveats:        []string{},
	}
}
