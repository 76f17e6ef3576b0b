package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/explorer-world/explorer-api/internal/api/metrics"
	"github.com/explorer-world/explorer-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher routes media cleanup jobs to a fixed set of workers, hashing on
// the location id so that jobs of one location run in order.
type Dispatcher struct {
	workers   []chan ports.CleanupJob
	processor ports.CleanupProcessor
	log       zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, processor ports.CleanupProcessor, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:   make([]chan ports.CleanupJob, numWorkers),
		processor: processor,
		log:       log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.CleanupJob, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue schedules deletion of keys. It never blocks the caller: when the
// worker channel is full the job is dropped and logged.
func (d *Dispatcher) Enqueue(locationID string, keys ...string) {
	if len(keys) == 0 {
		return
	}
	idx := d.shardIndex(locationID)
	job := ports.CleanupJob{LocationID: locationID, Keys: keys}
	select {
	case d.workers[idx] <- job:
		metrics.MediaCleanupQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		d.log.Warn().Str("location_id", locationID).Strs("object_keys", keys).Msg("cleanup queue full, dropping job")
	}
}

// shardIndex maps a location id deterministically to a worker index.
func (d *Dispatcher) shardIndex(locationID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(locationID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.CleanupJob) {
	depth := metrics.MediaCleanupQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-ch:
			if !ok {
				return
			}
			depth.Set(float64(len(ch)))
			start := time.Now()
			err := d.processor.Process(ctx, job)
			metrics.MediaCleanupDuration.Observe(time.Since(start).Seconds())
			if err != nil {
				metrics.MediaCleanupTotal.WithLabelValues("error").Inc()
				d.log.Error().Err(err).
					Str("location_id", job.LocationID).
					Int("worker_id", id).
					Msg("media cleanup failed")
				continue
			}
			metrics.MediaCleanupTotal.WithLabelValues("deleted").Add(float64(len(job.Keys)))
		}
	}
}
