package report

import (
	"context"
	"io"

	"github.com/smallbiznis/mealplan/internal/consumption/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("report",
	fx.Provide(New),
)

// Provider renders a day's consumption summary into a document.
type Provider interface {
	DailyReport(ctx context.Context, summary *domain.Summary) (io.Reader, error)
}

type NoOpProvider struct{}

func (p *NoOpProvider) DailyReport(ctx context.Context, summary *domain.Summary) (io.Reader, error) {
	return nil, nil
}
