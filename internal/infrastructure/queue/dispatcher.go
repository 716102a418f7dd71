package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/dtapi/user-service/internal/core/domain"
	"github.com/dtapi/user-service/internal/core/ports"
	"github.com/dtapi/user-service/internal/infrastructure/metrics"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// ErrStopped is returned by Enqueue after Stop.
var ErrStopped = errors.New("dispatcher stopped")

// Upserter is the slice of ports.UserService the dispatcher drives.
type Upserter interface {
	Upsert(ctx context.Context, id *int64, sub ports.UserSubmission) (*domain.User, error)
}

// Dispatcher routes upsert jobs to a fixed set of workers using consistent
// hashing on the user id, so jobs for one user run one at a time and in
// submission order.
type Dispatcher struct {
	workers []chan ports.UpsertJob
	service Upserter
	log     zerolog.Logger

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service Upserter, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.UpsertJob, numWorkers),
		service: service,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.UpsertJob, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers exit when ctx is cancelled
// or, after Stop, once their channel is drained.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Stop refuses new jobs and waits for queued ones to finish.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.stopped {
		d.stopped = true
		for _, ch := range d.workers {
			close(ch)
		}
	}
	d.mu.Unlock()
	d.wg.Wait()
}

// Enqueue sends a job to the worker responsible for its user. It blocks
// while that worker's buffer is full, until ctx is done.
func (d *Dispatcher) Enqueue(ctx context.Context, job ports.UpsertJob) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return ErrStopped
	}

	idx := d.shardIndex(shardKey(job))
	select {
	case d.workers[idx] <- job:
		metrics.BatchQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// EnqueueBatch enqueues jobs in order, stopping at the first failure. It
// returns the number of jobs accepted.
func (d *Dispatcher) EnqueueBatch(ctx context.Context, jobs []ports.UpsertJob) (int, error) {
	for i, job := range jobs {
		if err := d.Enqueue(ctx, job); err != nil {
			return i, err
		}
	}
	return len(jobs), nil
}

// shardKey is the user id for updates. Creates have no id yet and are keyed
// by email so that repeated creates of one account stay ordered.
func shardKey(job ports.UpsertJob) string {
	if job.ID != nil {
		return strconv.FormatInt(*job.ID, 10)
	}
	return "new:" + strings.ToLower(strings.TrimSpace(job.Submission.Email))
}

// shardIndex maps a key deterministically to a worker index.
func (d *Dispatcher) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.UpsertJob) {
	defer d.wg.Done()
	depth := metrics.BatchQueueDepth.WithLabelValues(strconv.Itoa(id))

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-ch:
			if !ok {
				return
			}
			depth.Dec()
			if _, err := d.service.Upsert(ctx, job.ID, job.Submission); err != nil {
				metrics.BatchJobsFailedTotal.Inc()
				ev := d.log.Error().Err(err).Int("worker_id", id)
				if job.ID != nil {
					ev = ev.Int64("user_id", *job.ID)
				}
				ev.Msg("queued upsert failed")
			}
		}
	}
}
