// Package parserunner drains pending raw work orders in the background,
// running each through the processing pipeline.
package parserunner

import (
	"context"
	"time"

	"go.uber.org/zap"

	"fieldwork/internal/domain"
	"fieldwork/internal/ports"
)

// Processor runs the full pipeline for one raw work order id. The pipeline
// records its own failure state on the order; the runner only logs.
type Processor interface {
	Process(ctx context.Context, rawWorkOrderID string) (jobID string, err error)
}

// Run starts worker goroutines that claim pending work orders and process
// them. It returns immediately; workers stop when ctx is cancelled.
func Run(ctx context.Context, queue ports.WorkOrderQueue, processor Processor, concurrency int, pollInterval time.Duration, logger *zap.Logger) {
	if concurrency < 1 {
		return
	}
	ordersCh := make(chan domain.RawWorkOrder, concurrency)

	// dispatcher loop
	go func() {
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				close(ordersCh)
				return
			case <-ticker.C:
				for {
					order, found, err := queue.ClaimNextPending(ctx)
					if err != nil {
						logger.Warn("work order claim failed", zap.Error(err))
						break
					}
					if !found {
						break
					}
					ordersCh <- order
				}
			}
		}
	}()

	// workers
	for i := 0; i < concurrency; i++ {
		go func(idx int) {
			for order := range ordersCh {
				jobID, err := processor.Process(ctx, order.ID)
				if err != nil {
					logger.Warn("work order processing failed",
						zap.Int("worker", idx),
						zap.String("raw_work_order_id", order.ID),
						zap.Error(err))
					continue
				}
				logger.Info("work order processed in background",
					zap.Int("worker", idx),
					zap.String("raw_work_order_id", order.ID),
					zap.String("job_id", jobID))
			}
		}(i)
	}
}
