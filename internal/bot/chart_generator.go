package bot

import (
	"fmt"
	"sort"

	"github.com/go-analyze/charts"
	"github.com/shopspring/decimal"
)

// GenerateCategoryChart renders a pie chart of the given category totals.
// Returns PNG image bytes.
func GenerateCategoryChart(categoryTotals map[string]decimal.Decimal, title string) ([]byte, error) {
	if len(categoryTotals) == 0 {
		return nil, fmt.Errorf("no expenses to chart")
	}

	// Stable slice order so the legend does not reshuffle between renders.
	names := make([]string, 0, len(categoryTotals))
	for name := range categoryTotals {
		names = append(names, name)
	}
	sort.Strings(names)

	values := make([]float64, 0, len(names))
	for _, name := range names {
		values = append(values, categoryTotals[name].InexactFloat64())
	}

	p, err := charts.PieRender(
		values,
		charts.TitleOptionFunc(charts.TitleOption{Text: title}),
		charts.LegendLabelsOptionFunc(names),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	return buf, nil
}
