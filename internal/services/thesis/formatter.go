package thesis

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/investrlabs/investr/internal/models"
)

// FormatFinancialData renders the statements payload as markdown tables,
// one table per statement with the column keys unioned across line items.
// The output feeds an LLM prompt, so readability beats compactness.
func FormatFinancialData(data *models.FinancialData) string {
	if data == nil || len(data.Financials) == 0 {
		return "No financial data available."
	}

	statements := make([]string, 0, len(data.Financials))
	for name := range data.Financials {
		statements = append(statements, name)
	}
	sort.Strings(statements)

	var sb strings.Builder
	for _, statement := range statements {
		items := data.Financials[statement]

		sb.WriteString("### " + statementTitle(statement) + "\n\n")
		if len(items) == 0 {
			sb.WriteString("No data available for this statement.\n\n")
			continue
		}

		keys := columnKeys(items)
		if len(keys) == 0 {
			sb.WriteString("No yearly data available.\n\n")
			continue
		}

		sb.WriteString("| Item | " + strings.Join(keys, " | ") + " |\n")
		sb.WriteString("|------|" + strings.Repeat("------|", len(keys)) + "\n")

		for _, item := range items {
			name := item.Item
			if name == "" {
				name = "Unknown"
			}
			row := make([]string, 0, len(keys))
			for _, key := range keys {
				row = append(row, formatStatementValue(item.Data[key]))
			}
			sb.WriteString("| " + name + " | " + strings.Join(row, " | ") + " |\n")
		}
		sb.WriteString("\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}

// statementTitle turns "income-statement" into "Income Statement".
func statementTitle(name string) string {
	words := strings.Fields(strings.ReplaceAll(name, "-", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// columnKeys unions the column keys across items: TTM first, then
// year-bearing keys in chronological order, then the rest.
func columnKeys(items []models.FinancialItem) []string {
	seen := make(map[string]bool)
	hasTTM := false
	var keys []string
	for _, item := range items {
		for key := range item.Data {
			if seen[key] {
				continue
			}
			seen[key] = true
			if key == "TTM" {
				hasTTM = true
				continue
			}
			keys = append(keys, key)
		}
	}

	sort.Slice(keys, func(i, j int) bool {
		yi, oki := trailingYear(keys[i])
		yj, okj := trailingYear(keys[j])
		if oki != okj {
			return oki
		}
		if oki {
			return yi < yj
		}
		return keys[i] < keys[j]
	})

	if hasTTM {
		keys = append([]string{"TTM"}, keys...)
	}
	return keys
}

// trailingYear parses a year from keys like "Mar 2024".
func trailingYear(key string) (int, bool) {
	fields := strings.Fields(key)
	if len(fields) == 0 {
		return 0, false
	}
	year, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil {
		return 0, false
	}
	return year, true
}

// formatStatementValue normalizes a loosely typed cell: numbers get
// thousands separators or two decimals, percentage strings pass through,
// empty and null become N/A.
func formatStatementValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "N/A"
	case float64:
		return formatNumber(val)
	case float32:
		return formatNumber(float64(val))
	case int:
		return formatNumber(float64(val))
	case int64:
		return formatNumber(float64(val))
	case string:
		s := strings.TrimSpace(val)
		if s == "" || strings.EqualFold(s, "null") {
			return "N/A"
		}
		if strings.HasSuffix(s, "%") {
			return s
		}
		if f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64); err == nil {
			return formatNumber(f)
		}
		return s
	default:
		return fmt.Sprint(v)
	}
}

func formatNumber(v float64) string {
	if math.Abs(v) >= 1000 {
		return groupThousands(math.Round(v))
	}
	if v == math.Trunc(v) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// groupThousands renders a whole number with comma separators.
func groupThousands(v float64) string {
	s := strconv.FormatFloat(v, 'f', 0, 64)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var sb strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		sb.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if sb.Len() > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(s[i : i+3])
	}

	if neg {
		return "-" + sb.String()
	}
	return sb.String()
}
