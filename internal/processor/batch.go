package processor

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonesrussell/funnel-analyzer/internal/domain"
	"github.com/jonesrussell/funnel-analyzer/internal/funnel"
	"github.com/jonesrussell/funnel-analyzer/internal/telemetry"
)

// Logger defines the logging interface.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// BatchClassifier classifies event batches across user partitions with a
// worker pool. Ordering is only meaningful within one user's events, so
// partitions can be classified in parallel; results are reassembled in
// ascending user-ID order to keep runs deterministic.
type BatchClassifier struct {
	classifier  *funnel.StageClassifier
	concurrency int
	telemetry   *telemetry.Provider
	logger      Logger

	active atomic.Int64
}

const defaultConcurrency = 8

// userBatch is one worker job: a single user's events.
type userBatch struct {
	userID string
	events []domain.Event
}

// NewBatchClassifier creates a batch classifier. tel may be nil when worker
// metrics are not wanted.
func NewBatchClassifier(classifier *funnel.StageClassifier, concurrency int, tel *telemetry.Provider, logger Logger) *BatchClassifier {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	return &BatchClassifier{
		classifier:  classifier,
		concurrency: concurrency,
		telemetry:   tel,
		logger:      logger,
	}
}

// Classify partitions events by user and classifies the partitions on the
// worker pool. Output matches funnel.StageClassifier.Classify exactly; the
// pool only changes how the work is scheduled.
func (b *BatchClassifier) Classify(ctx context.Context, events []domain.Event) []domain.ClassifiedEvent {
	if len(events) == 0 {
		b.logger.Info("no events to classify")
		return []domain.ClassifiedEvent{}
	}

	byUser := make(map[string][]domain.Event)
	for _, ev := range events {
		byUser[ev.UserID] = append(byUser[ev.UserID], ev)
	}

	userIDs := make([]string, 0, len(byUser))
	for id := range byUser {
		userIDs = append(userIDs, id)
	}
	sort.Strings(userIDs)

	b.logger.Info("starting batch classification",
		"events", len(events),
		"users", len(userIDs),
		"concurrency", b.concurrency,
	)

	start := time.Now()

	jobs := make(chan userBatch, len(userIDs))
	classified := make(map[string][]domain.ClassifiedEvent, len(userIDs))
	var mu sync.Mutex

	var wg sync.WaitGroup
	for i := 0; i < b.concurrency; i++ {
		wg.Add(1)
		go b.worker(ctx, i, jobs, classified, &mu, &wg)
	}

	for _, id := range userIDs {
		jobs <- userBatch{userID: id, events: byUser[id]}
	}
	close(jobs)
	wg.Wait()

	out := make([]domain.ClassifiedEvent, 0, len(events))
	for _, id := range userIDs {
		out = append(out, classified[id]...)
	}

	duration := time.Since(start)
	b.logger.Info("batch classification complete",
		"events", len(out),
		"users", len(userIDs),
		"duration_ms", duration.Milliseconds(),
	)

	return out
}

// worker classifies user partitions from the jobs channel.
func (b *BatchClassifier) worker(
	ctx context.Context,
	id int,
	jobs <-chan userBatch,
	classified map[string][]domain.ClassifiedEvent,
	mu *sync.Mutex,
	wg *sync.WaitGroup,
) {
	defer wg.Done()

	if b.telemetry != nil {
		b.telemetry.SetActiveWorkers(int(b.active.Add(1)))
		defer func() { b.telemetry.SetActiveWorkers(int(b.active.Add(-1))) }()
	}

	b.logger.Debug("worker started", "worker_id", id)

	for batch := range jobs {
		select {
		case <-ctx.Done():
			b.logger.Warn("worker stopping due to context cancellation", "worker_id", id)
			return
		default:
		}

		result := b.classifier.ClassifyUser(batch.events)

		mu.Lock()
		classified[batch.userID] = result
		mu.Unlock()
	}

	b.logger.Debug("worker finished", "worker_id", id)
}
