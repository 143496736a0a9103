package api

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"taskboard-api/domain"
)

type activityJob struct {
	actorID string
	events  []domain.Activity
}

// ActivityFeedConfig tunes the background publisher.
type ActivityFeedConfig struct {
	Workers        int
	Buffer         int
	EnqueueTimeout time.Duration
	HandoffTimeout time.Duration
}

func (c ActivityFeedConfig) withDefaults() ActivityFeedConfig {
	if c.Workers <= 0 {
		c.Workers = 8
	}
	if c.Buffer <= 0 {
		c.Buffer = 1024
	}
	if c.EnqueueTimeout <= 0 {
		c.EnqueueTimeout = 60 * time.Second
	}
	if c.HandoffTimeout < 0 {
		c.HandoffTimeout = 0
	}
	return c
}

// ActivityFeed publishes board mutations to the activity queue from a pool of
// background workers. Publishing is best effort: a saturated buffer drops the
// event with a warning instead of failing the request that produced it.
type ActivityFeed struct {
	store  Storage
	logger *log.Logger
	cfg    ActivityFeedConfig

	jobs     chan activityJob
	workerWG sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewActivityFeed starts the publisher workers.
func NewActivityFeed(store Storage, logger *log.Logger, cfg ActivityFeedConfig) *ActivityFeed {
	if logger == nil {
		panic("api.NewActivityFeed: logger is nil")
	}
	cfg = cfg.withDefaults()
	f := &ActivityFeed{
		store:  store,
		logger: logger,
		cfg:    cfg,
		jobs:   make(chan activityJob, cfg.Buffer),
	}
	for i := 0; i < cfg.Workers; i++ {
		f.workerWG.Add(1)
		go f.worker(i)
	}
	logger.Infof("activity feed started, workers: %d, buffer: %d, timeout: %v, handoff: %v",
		cfg.Workers, cfg.Buffer, cfg.EnqueueTimeout, cfg.HandoffTimeout)
	return f
}

// Publish hands the events to a background worker. It never blocks longer
// than the handoff timeout and never returns an error.
func (f *ActivityFeed) Publish(actorID string, events []domain.Activity) {
	if len(events) == 0 {
		return
	}
	job := activityJob{actorID: actorID, events: events}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	select {
	case f.jobs <- job:
		f.mu.Unlock()
		return
	default:
	}
	f.mu.Unlock()

	if f.cfg.HandoffTimeout <= 0 {
		f.logger.Warn("activity buffer saturated; event dropped")
		return
	}

	timer := time.NewTimer(f.cfg.HandoffTimeout)
	defer timer.Stop()
	select {
	case f.jobs <- job:
	case <-timer.C:
		f.logger.Warn("activity buffer saturated; event dropped")
	}
}

// Close stops the workers after draining buffered jobs.
func (f *ActivityFeed) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	close(f.jobs)
	f.mu.Unlock()

	f.workerWG.Wait()
}

func (f *ActivityFeed) worker(id int) {
	defer f.workerWG.Done()
	for j := range f.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), f.cfg.EnqueueTimeout)
		err := f.store.EnqueueActivities(ctx, j.actorID, j.events)
		cancel()

		if err != nil {
			f.logger.Errorf("activity enqueue failed, err: %v, actor: %s, count: %d, worker: %d",
				err, j.actorID, len(j.events), id)
		}
	}
}
