package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/mintbay/registry/internal/adapter"
	"github.com/mintbay/registry/internal/domain"
	"github.com/mintbay/registry/internal/logger"
	"github.com/mintbay/registry/internal/messaging"
	"github.com/mintbay/registry/internal/store"
	"github.com/mintbay/registry/internal/store/schema"
)

const (
	POLL_INTERVAL = 2 * time.Second // Time to sleep when the outbox is empty
)

// Config holds configuration for the outbox dispatcher
type Config struct {
	BatchSize      int // Events to relay per cycle
	WorkerPoolSize int // Concurrent workers
}

// Dispatcher relays committed audit-log events from the outbox to the
// message broker
type Dispatcher interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

type dispatcher struct {
	config    *Config
	store     store.Store
	publisher messaging.Publisher
	json      adapter.JSON
	clock     adapter.Clock
	pool      pond.Pool
	running   atomic.Bool
	stopChan  chan struct{}
	stoppedCh chan struct{}
}

// NewDispatcher creates a new outbox dispatcher
func NewDispatcher(
	config *Config,
	st store.Store,
	publisher messaging.Publisher,
	jsonAdapter adapter.JSON,
	clock adapter.Clock,
) Dispatcher {
	return &dispatcher{
		config:    config,
		store:     st,
		publisher: publisher,
		json:      jsonAdapter,
		clock:     clock,
		stopChan:  make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Start begins the dispatcher's main loop - continuously drains the outbox
func (d *dispatcher) Start(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return fmt.Errorf("dispatcher already running")
	}
	defer func() {
		d.running.Store(false)
		close(d.stoppedCh) // Signal that we've stopped
	}()

	logger.InfoCtx(ctx, "Starting outbox dispatcher",
		zap.Int("batch_size", d.config.BatchSize),
		zap.Int("worker_pool_size", d.config.WorkerPoolSize),
	)

	// Create worker pool
	d.pool = pond.NewPool(
		d.config.WorkerPoolSize,
		pond.WithQueueSize(d.config.BatchSize),
		pond.WithContext(ctx),
	)

	// Continuous loop - stops when context is canceled or stop is requested
	for {
		select {
		case <-ctx.Done():
			logger.InfoCtx(ctx, "Outbox dispatcher stopping due to context cancellation", zap.Error(ctx.Err()))
			d.cleanup()
			return nil
		case <-d.stopChan:
			logger.InfoCtx(ctx, "Outbox dispatcher stop requested")
			d.cleanup()
			return nil
		default:
			if err := d.runDispatchCycle(ctx); err != nil {
				if !errors.Is(err, context.Canceled) {
					logger.ErrorCtx(ctx, err)
				}
			}
		}
	}
}

// cleanup stops the worker pool and waits for tasks to complete
func (d *dispatcher) cleanup() {
	if d.pool != nil {
		d.pool.StopAndWait()
	}
}

// Stop gracefully stops the dispatcher with timeout support
func (d *dispatcher) Stop(ctx context.Context) error {
	if !d.running.CompareAndSwap(true, false) {
		return nil // Already stopped
	}

	logger.InfoCtx(ctx, "Stopping outbox dispatcher")

	// Signal stop to the main loop
	close(d.stopChan)

	// Wait for main loop to exit, but respect context cancellation
	select {
	case <-d.stoppedCh:
		logger.InfoCtx(ctx, "Outbox dispatcher stopped gracefully")
		return nil
	case <-ctx.Done():
		logger.WarnCtx(ctx, "Outbox dispatcher stop interrupted by context timeout")
		return ctx.Err()
	}
}

// runDispatchCycle relays a single batch of unpublished events
func (d *dispatcher) runDispatchCycle(ctx context.Context) error {
	startTime := d.clock.Now()

	events, err := d.store.GetUnpublishedEvents(ctx, d.config.BatchSize)
	if err != nil {
		return fmt.Errorf("failed to get unpublished events: %w", err)
	}

	if len(events) == 0 {
		// Sleep briefly to avoid a tight loop on an empty outbox.
		// Use context-aware sleep so we can be interrupted.
		if !d.sleep(ctx, POLL_INTERVAL) {
			return ctx.Err() // Context canceled during sleep
		}
		return nil
	}

	logger.DebugCtx(ctx, "Found events to relay", zap.Int("count", len(events)))

	// Subscribers rely on seeing each asset's events in emission order, so
	// the batch is grouped per asset and each group is relayed sequentially
	// by a single worker. Groups for distinct assets run concurrently.
	groups := groupByAsset(events)

	var relayedCount, failedCount atomic.Int32

	for _, group := range groups {
		d.pool.Submit(func() {
			for _, event := range group {
				if err := d.relayEventWithRetry(ctx, event); err != nil {
					failedCount.Add(1)
					logger.ErrorCtx(ctx, err,
						zap.Uint64("event_id", event.ID),
						zap.String("asset_id", event.AssetID),
					)
					// Leave the rest of this asset's backlog for the next
					// cycle so ordering holds
					return
				}
				relayedCount.Add(1)
			}
		})
	}

	// Wait for the batch to complete
	d.pool.StopAndWait()

	// Recreate pool for next cycle
	d.pool = pond.NewPool(
		d.config.WorkerPoolSize,
		pond.WithQueueSize(d.config.BatchSize),
		pond.WithContext(ctx),
	)

	logger.DebugCtx(ctx, "Dispatch cycle completed",
		zap.Duration("duration", d.clock.Since(startTime)),
		zap.Int32("relayed", relayedCount.Load()),
		zap.Int32("failed", failedCount.Load()),
	)

	return nil
}

// relayEventWithRetry publishes one outbox event with exponential backoff,
// then marks it published. A crash between the publish and the mark leads to
// a duplicate delivery on restart; subscribers must tolerate at-least-once.
func (d *dispatcher) relayEventWithRetry(ctx context.Context, row schema.AssetEvent) error {
	var event domain.Event
	if err := d.json.Unmarshal(row.Payload, &event); err != nil {
		return fmt.Errorf("failed to unmarshal event payload: %w", err)
	}

	// Configure exponential backoff
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 5 * time.Minute
	b.Multiplier = 2.0
	b.RandomizationFactor = 0.5 // Add jitter to prevent thundering herd

	// Wrap with context to respect cancellation
	backoffWithContext := backoff.WithContext(b, ctx)

	operation := func() error {
		return d.publisher.PublishEvent(ctx, &event)
	}

	var attemptCount int
	notifyOnError := func(err error, duration time.Duration) {
		attemptCount++
		logger.WarnCtx(ctx, "Event publish failed, retrying",
			zap.Error(err),
			zap.Uint64("event_id", row.ID),
			zap.Int("attempt", attemptCount),
			zap.Duration("next_retry_in", duration),
		)
	}

	if err := backoff.RetryNotify(operation, backoffWithContext, notifyOnError); err != nil {
		return fmt.Errorf("failed to publish event after %d attempts: %w", attemptCount, err)
	}

	if err := d.store.MarkEventPublished(ctx, row.ID); err != nil {
		return fmt.Errorf("failed to mark event published: %w", err)
	}

	return nil
}

// sleep sleeps for the given duration but can be interrupted by context cancellation
// Returns true if sleep completed normally, false if interrupted by context
func (d *dispatcher) sleep(ctx context.Context, duration time.Duration) bool {
	select {
	case <-d.clock.After(duration):
		return true // Sleep completed
	case <-ctx.Done():
		return false // Interrupted by context cancellation
	case <-d.stopChan:
		return false // Stop requested during sleep
	}
}

// groupByAsset splits a batch into per-asset groups, preserving the order
// events appear within each group
func groupByAsset(events []schema.AssetEvent) [][]schema.AssetEvent {
	index := make(map[string]int)
	var groups [][]schema.AssetEvent
	for _, event := range events {
		i, ok := index[event.AssetID]
		if !ok {
			i = len(groups)
			index[event.AssetID] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], event)
	}
	return groups
}
