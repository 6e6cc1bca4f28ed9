package ingest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/zach-wendland/bna-rentals/pkg/events"
	"github.com/zach-wendland/bna-rentals/pkg/metrics"
	"github.com/zach-wendland/bna-rentals/pkg/models"
	"github.com/zach-wendland/bna-rentals/pkg/redis"
	"github.com/zach-wendland/bna-rentals/pkg/repositories"
	"github.com/zach-wendland/bna-rentals/pkg/tracing"
	"github.com/zach-wendland/bna-rentals/pkg/zillow"
)

const syncLockKey = "rentals:sync"

// ServiceConfig holds the batch orchestration settings for a sync run.
type ServiceConfig struct {
	Params              zillow.SearchParams
	Locations           []string
	MaxPagesPerLocation int
	LocationsPerBatch   int
	InterRequestDelay   time.Duration
	InterBatchDelay     time.Duration
	LockTTL             time.Duration
}

// Result reports the outcome of one sync run.
type Result struct {
	Collected     int    `json:"collected"`
	Persisted     int    `json:"persisted"`
	IngestionDate string `json:"ingestionDate"`
}

// Service runs the full ingestion pipeline: collect every configured
// location in fixed-size batches, persist the combined result, emit a
// completion event.
type Service struct {
	collector *Collector
	rentals   repositories.RentalRepository
	emitter   *events.Emitter
	locker    *redis.Locker
	config    ServiceConfig
	logger    ectologger.Logger
}

// NewService creates the sync service. locker and emitter may be nil
// when Redis or Kafka are not configured.
func NewService(collector *Collector, rentals repositories.RentalRepository, emitter *events.Emitter, locker *redis.Locker, config ServiceConfig, logger ectologger.Logger) *Service {
	if config.LocationsPerBatch < 1 {
		config.LocationsPerBatch = 1
	}
	return &Service{
		collector: collector,
		rentals:   rentals,
		emitter:   emitter,
		locker:    locker,
		config:    config,
		logger:    logger,
	}
}

// Sync runs the pipeline across all configured locations. Per-batch
// failures are logged and swallowed so one bad batch never sinks the
// run; auth failures are fatal and abort immediately; a persistence
// failure fails the whole call.
func (s *Service) Sync(ctx context.Context, trigger string) (*Result, error) {
	ctx, span := tracing.StartSpan(ctx, "SyncService.Sync")
	defer span.End()

	start := time.Now()

	if s.locker != nil {
		lock, err := s.locker.Acquire(ctx, syncLockKey, s.config.LockTTL)
		if errors.Is(err, redis.ErrLockNotAcquired) {
			metrics.RecordSyncRun(trigger, "locked", time.Since(start).Seconds())
			return nil, httperror.NewHTTPError(http.StatusConflict, "a sync is already running")
		}
		if err != nil {
			return nil, err
		}
		defer lock.Release(ctx)
	}

	var properties []models.Property
	collected := 0

	locations := s.config.Locations
	batchSize := s.config.LocationsPerBatch
	for i := 0; i < len(locations); i += batchSize {
		end := i + batchSize
		if end > len(locations) {
			end = len(locations)
		}
		batch := locations[i:end]

		batchProperties, batchRecords, err := s.collector.Collect(ctx, s.config.Params, batch, s.config.MaxPagesPerLocation, s.config.InterRequestDelay)
		if err != nil {
			if zillow.IsAuth(err) {
				metrics.RecordSyncRun(trigger, "auth_error", time.Since(start).Seconds())
				return nil, zillow.ToHTTPError(err)
			}
			s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"locations": batch,
			}).Error("batch collection failed, continuing with next batch")
		} else {
			properties = append(properties, batchProperties...)
			collected += batchRecords
		}

		if end < len(locations) {
			if err := sleepCtx(ctx, s.config.InterBatchDelay); err != nil {
				return nil, err
			}
		}
	}

	date := time.Now().UTC().Truncate(24 * time.Hour)
	persisted, err := s.rentals.Persist(ctx, properties, &date)
	if err != nil {
		metrics.RecordSyncRun(trigger, "persist_error", time.Since(start).Seconds())
		return nil, err
	}

	result := &Result{
		Collected:     collected,
		Persisted:     persisted,
		IngestionDate: date.Format("2006-01-02"),
	}

	metrics.RecordSyncRun(trigger, "ok", time.Since(start).Seconds())
	s.logger.WithContext(ctx).WithFields(map[string]any{
		"trigger":        trigger,
		"collected":      result.Collected,
		"persisted":      result.Persisted,
		"ingestion_date": result.IngestionDate,
		"duration":       time.Since(start).String(),
	}).Info("Sync completed")

	s.emitter.EmitSynced(ctx, trigger, result.Collected, result.Persisted, result.IngestionDate)

	return result, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
