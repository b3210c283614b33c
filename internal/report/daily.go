package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/smallbiznis/mealplan/internal/consumption/domain"
	"github.com/smallbiznis/mealplan/internal/nutrition"
)

var ErrEmptySummary = errors.New("report_summary_required")

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) DailyReport(ctx context.Context, summary *domain.Summary) (io.Reader, error) {
	if summary == nil {
		return nil, ErrEmptySummary
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, "Daily nutrition", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)
	m.AddRow(8,
		text.NewCol(6, "Date: "+summary.Date, props.Text{Size: 10}),
		text.NewCol(6, fmt.Sprintf("Servings eaten: %s", formatNumber(summary.TotalServings)), props.Text{Size: 10, Align: align.Right}),
	)

	header := props.Text{Style: fontstyle.Bold, Size: 9}
	headerRight := props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}
	m.AddRow(10,
		text.NewCol(4, "Meal", header),
		text.NewCol(1, "Servings", headerRight),
		text.NewCol(2, "Calories", headerRight),
		text.NewCol(1, "Protein", headerRight),
		text.NewCol(1, "Fat", headerRight),
		text.NewCol(2, "Carbs", headerRight),
		text.NewCol(1, "Fibre", headerRight),
	)

	cell := props.Text{Size: 9}
	cellRight := props.Text{Size: 9, Align: align.Right}
	if len(summary.Entries) == 0 {
		m.AddRow(10, text.NewCol(12, "No meals recorded.", cell))
	}
	for _, entry := range summary.Entries {
		m.AddRow(8, factsRow(entry.MealName, entry.ServingsConsumed, entry.Consumed, cell, cellRight)...)
	}

	bold := props.Text{Style: fontstyle.Bold, Size: 9}
	boldRight := props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}
	m.AddRow(10, factsRow("Total", summary.TotalServings, summary.Totals, bold, boldRight)...)

	m.AddRow(12,
		text.NewCol(12, "Goals", props.Text{Size: 14, Style: fontstyle.Bold, Top: 4}),
	)
	for _, goal := range summary.Progress {
		m.AddRow(8,
			text.NewCol(4, goal.Nutrient, cell),
			text.NewCol(3, formatNumber(goal.Consumed)+" / "+formatNumber(goal.Goal), cellRight),
			text.NewCol(3, formatNumber(goal.Percent)+"%", cellRight),
			text.NewCol(2, goal.Status, cellRight),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}

func factsRow(label string, servings float64, f nutrition.Facts, left, right props.Text) []core.Col {
	return []core.Col{
		text.NewCol(4, label, left),
		text.NewCol(1, formatNumber(servings), right),
		text.NewCol(2, formatNumber(f.Calories), right),
		text.NewCol(1, formatNumber(f.Protein), right),
		text.NewCol(1, formatNumber(f.FatTotal), right),
		text.NewCol(2, formatNumber(f.Carbohydrate), right),
		text.NewCol(1, formatNumber(f.DietaryFibre), right),
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(nutrition.Round(v), 'f', -1, 64)
}
