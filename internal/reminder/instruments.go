package reminder

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/familieapp/familieapp/internal/reminder"

// Instruments holds the OpenTelemetry counters for reminder sweeps.
type Instruments struct {
	sweeps metric.Int64Counter
	sent   metric.Int64Counter
	failed metric.Int64Counter
	pruned metric.Int64Counter
}

// NewInstruments creates counters on the global meter provider.
func NewInstruments() (*Instruments, error) {
	meter := otel.Meter(meterName)

	sweeps, err := meter.Int64Counter(
		"reminder.sweeps",
		metric.WithDescription("Number of reminder sweeps run"),
		metric.WithUnit("{sweep}"),
	)
	if err != nil {
		return nil, err
	}

	sent, err := meter.Int64Counter(
		"reminder.pushes.sent",
		metric.WithDescription("Number of reminder notifications delivered"),
		metric.WithUnit("{notification}"),
	)
	if err != nil {
		return nil, err
	}

	failed, err := meter.Int64Counter(
		"reminder.pushes.failed",
		metric.WithDescription("Number of reminder notifications that failed"),
		metric.WithUnit("{notification}"),
	)
	if err != nil {
		return nil, err
	}

	pruned, err := meter.Int64Counter(
		"reminder.subscriptions.pruned",
		metric.WithDescription("Number of expired push subscriptions removed"),
		metric.WithUnit("{subscription}"),
	)
	if err != nil {
		return nil, err
	}

	return &Instruments{
		sweeps: sweeps,
		sent:   sent,
		failed: failed,
		pruned: pruned,
	}, nil
}

func (i *Instruments) record(ctx context.Context, result *Result) {
	if i == nil {
		return
	}
	i.sweeps.Add(ctx, 1)
	i.sent.Add(ctx, int64(result.Pushed))
	i.failed.Add(ctx, int64(result.Failed))
	i.pruned.Add(ctx, int64(result.RemovedSubscriptions))
}
