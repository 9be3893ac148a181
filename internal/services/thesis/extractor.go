package thesis

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/investrlabs/investr/internal/models"
)

// The thesis layout is a convention, not a contract: the upstream
// generator is prompted to emit four numbered sections but the output is
// LLM prose. Each section is extracted independently so a malformed
// section degrades on its own without taking the others down.

const fallbackSummary = "No structured analysis could be extracted from the document."

var (
	headingPattern     = regexp.MustCompile(`^#{1,6}\s+(.+)$`)
	numberedTitle      = regexp.MustCompile(`^\**\s*(\d+)[.):]`)
	boldCellPattern    = regexp.MustCompile(`^\*\*(.+?)\*\*:?$`)
	recommendationLine = regexp.MustCompile(`(?i)\*{0,2}Recommendation\*{0,2}\s*:\s*\*{0,2}([^*\n]+?)\*{0,2}\s*$`)
	caveatsMarker      = regexp.MustCompile(`(?i)^\*{0,2}Caveats\*{0,2}\s*:`)
	caveatItem         = regexp.MustCompile(`^(\d+)\.\s+(.*)$`)
	caveatLabelPrefix  = regexp.MustCompile(`^\*\*([^*]+)\*\*\s*:?\s*(.*)$`)
	generatedOnMarker  = regexp.MustCompile(`Analysis generated on\s*(\d{4}-\d{2}-\d{2})`)
	separatorCell      = regexp.MustCompile(`^:?-{3,}:?$`)
)

// sectionTitles lets headings match by name when the generator drops the
// section numbers.
var sectionTitles = map[int][]string{
	1: {"executive summary"},
	2: {"scorecard", "metrics"},
	3: {"decision matrix"},
	4: {"final verdict", "recommendation"},
}

// ParseThesis extracts a typed document from thesis markdown. It never
// fails: any shape of input degrades to a sparse but structurally valid
// record.
func ParseThesis(text string) (doc *models.ThesisDocument) {
	doc = models.NewThesisDocument()
	defer func() {
		if r := recover(); r != nil {
			doc = models.NewThesisDocument()
			doc.ExecutiveSummary = fallbackSummary
		}
	}()

	if strings.TrimSpace(text) == "" {
		doc.ExecutiveSummary = fallbackSummary
		return doc
	}

	doc.ExecutiveSummary = extractExecutiveSummary(text)
	doc.Metrics = extractMetricsTable(sectionBody(text, 2))
	doc.DecisionMatrix = extractDecisionMatrix(sectionBody(text, 3))
	doc.Recommendation, doc.RecommendationSummary, doc.Caveats = extractFinalVerdict(sectionBody(text, 4))
	doc.GeneratedOn = extractGeneratedOn(text)

	if doc.ExecutiveSummary == "" {
		doc.ExecutiveSummary = fallbackSummary
	}
	return doc
}

// isSectionHeading reports whether a heading title opens the numbered
// section, either by its leading number or by a known title.
func isSectionHeading(title string, number int) bool {
	if m := numberedTitle.FindStringSubmatch(title); m != nil {
		n, err := strconv.Atoi(m[1])
		return err == nil && n == number
	}
	lower := strings.ToLower(title)
	for _, name := range sectionTitles[number] {
		if strings.Contains(lower, name) {
			return true
		}
	}
	return false
}

// extractExecutiveSummary returns the text between the section-1 heading
// and the next heading of any level.
func extractExecutiveSummary(text string) string {
	var buf []string
	in := false
	for _, line := range strings.Split(text, "\n") {
		if m := headingPattern.FindStringSubmatch(line); m != nil {
			if in {
				break
			}
			if isSectionHeading(strings.TrimSpace(m[1]), 1) {
				in = true
			}
			continue
		}
		if in {
			buf = append(buf, line)
		}
	}
	return strings.TrimSpace(strings.Join(buf, "\n"))
}

// sectionBody returns the lines from a numbered section's heading to the
// next numbered heading. Sub-headings stay inside the body.
func sectionBody(text string, number int) string {
	var buf []string
	in := false
	for _, line := range strings.Split(text, "\n") {
		if m := headingPattern.FindStringSubmatch(line); m != nil {
			title := strings.TrimSpace(m[1])
			for n := range sectionTitles {
				if isSectionHeading(title, n) {
					if in {
						return strings.Join(buf, "\n")
					}
					if n == number {
						in = true
					}
					break
				}
			}
			continue
		}
		if in {
			buf = append(buf, line)
		}
	}
	return strings.Join(buf, "\n")
}

// tableCells splits a markdown table row into exactly three cells.
func tableCells(line string) ([]string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "|") || !strings.HasSuffix(trimmed, "|") || len(trimmed) < 2 {
		return nil, false
	}
	parts := strings.Split(trimmed[1:len(trimmed)-1], "|")
	if len(parts) != 3 {
		return nil, false
	}
	cells := make([]string, 3)
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells, true
}

func isSeparatorRow(cells []string) bool {
	for _, c := range cells {
		if !separatorCell.MatchString(c) {
			return false
		}
	}
	return true
}

// tableRows yields the data rows of any three-column tables in the body,
// dropping separator rows and the header row that precedes one.
func tableRows(body string) [][]string {
	lines := strings.Split(body, "\n")
	var rows [][]string
	for i, line := range lines {
		cells, ok := tableCells(line)
		if !ok {
			continue
		}
		if isSeparatorRow(cells) {
			continue
		}
		if i+1 < len(lines) {
			if next, ok := tableCells(lines[i+1]); ok && isSeparatorRow(next) {
				continue
			}
		}
		rows = append(rows, cells)
	}
	return rows
}

// extractMetricsTable scans three-column rows in section 2. A bold first
// cell opens a category grouping; plain rows are metrics under the
// current category.
func extractMetricsTable(body string) map[string]map[string]models.MetricAssessment {
	metrics := make(map[string]map[string]models.MetricAssessment)
	category := "General"

	for _, cells := range tableRows(body) {
		if m := boldCellPattern.FindStringSubmatch(cells[0]); m != nil {
			category = strings.TrimSpace(m[1])
			continue
		}
		name := cells[0]
		if name == "" {
			continue
		}
		if metrics[category] == nil {
			metrics[category] = make(map[string]models.MetricAssessment)
		}
		metrics[category][name] = models.MetricAssessment{
			Score:         scoreFromCell(cells[1]),
			Justification: stripGlyphs(cells[2]),
		}
	}
	return metrics
}

// extractDecisionMatrix scans three-column rows in section 3, one
// category per row with bold emphasis stripped.
func extractDecisionMatrix(body string) map[string]models.MetricAssessment {
	matrix := make(map[string]models.MetricAssessment)
	for _, cells := range tableRows(body) {
		category := strings.TrimSpace(strings.ReplaceAll(cells[0], "**", ""))
		if category == "" {
			continue
		}
		matrix[category] = models.MetricAssessment{
			Score:         scoreFromCell(cells[1]),
			Justification: stripGlyphs(cells[2]),
		}
	}
	return matrix
}

// extractFinalVerdict pulls the recommendation label, the summary
// paragraph up to the caveats marker, and the numbered caveat list.
func extractFinalVerdict(body string) (label, summary string, caveats []string) {
	caveats = []string{}
	lines := strings.Split(body, "\n")

	i := 0
	for ; i < len(lines); i++ {
		if m := recommendationLine.FindStringSubmatch(lines[i]); m != nil {
			label = strings.TrimSpace(m[1])
			i++
			break
		}
	}

	var summaryLines []string
	for ; i < len(lines); i++ {
		if caveatsMarker.MatchString(strings.TrimSpace(lines[i])) {
			i++
			break
		}
		summaryLines = append(summaryLines, lines[i])
	}
	summary = strings.TrimSpace(strings.Join(summaryLines, "\n"))

	current := -1
	for ; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			current = -1
			continue
		}
		if headingPattern.MatchString(lines[i]) || strings.HasPrefix(line, "---") {
			break
		}
		if m := caveatItem.FindStringSubmatch(line); m != nil {
			caveats = append(caveats, stripCaveatLabel(m[2]))
			current = len(caveats) - 1
			continue
		}
		if current >= 0 {
			caveats[current] = caveats[current] + " " + line
		}
	}
	return label, summary, caveats
}

// stripCaveatLabel removes a leading "**Label**:" prefix, keeping the
// label only when nothing follows it.
func stripCaveatLabel(item string) string {
	m := caveatLabelPrefix.FindStringSubmatch(strings.TrimSpace(item))
	if m == nil {
		return strings.TrimSpace(item)
	}
	if rest := strings.TrimSpace(m[2]); rest != "" {
		return rest
	}
	return strings.TrimSpace(m[1])
}

func extractGeneratedOn(text string) string {
	if m := generatedOnMarker.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

var (
	highGlyphs   = []string{"🟢", "✅"}
	mediumGlyphs = []string{"🟡", "⚠️", "⚠"}
	lowGlyphs    = []string{"🔴", "❌", "⛔"}
)

// scoreFromCell maps the indicator glyph in a score cell to its tier.
// Anything unrecognized reads as Low.
func scoreFromCell(cell string) models.Score {
	for _, g := range highGlyphs {
		if strings.Contains(cell, g) {
			return models.ScoreHigh
		}
	}
	for _, g := range mediumGlyphs {
		if strings.Contains(cell, g) {
			return models.ScoreMedium
		}
	}
	return models.ScoreLow
}

// stripGlyphs removes indicator glyphs so stored justification text is
// plain prose.
func stripGlyphs(text string) string {
	for _, g := range highGlyphs {
		text = strings.ReplaceAll(text, g, "")
	}
	for _, g := range mediumGlyphs {
		text = strings.ReplaceAll(text, g, "")
	}
	for _, g := range lowGlyphs {
		text = strings.ReplaceAll(text, g, "")
	}
	return strings.TrimSpace(text)
}
