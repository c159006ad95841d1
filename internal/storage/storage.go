package storage

import (
	"context"

	"liquidityDecrease/internal/model"
)

// PlanSink records computed decrease plans for later inspection.
type PlanSink interface {
	PutPlan(ctx context.Context, record model.PlanRecord) error
}

// MultiSink fans a plan record out to several sinks, stopping at the
// first failure.
type MultiSink []PlanSink

func (m MultiSink) PutPlan(ctx context.Context, record model.PlanRecord) error {
	for _, sink := range m {
		if err := sink.PutPlan(ctx, record); err != nil {
			return err
		}
	}
	return nil
}
