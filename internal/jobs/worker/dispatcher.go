package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/yungbote/backofhouse-backend/internal/pkg/logger"
)

var (
	ErrQueueFull = errors.New("worker: task queue is full")
	ErrClosed    = errors.New("worker: dispatcher is closed")
)

// Task is a unit of background work. Name is only used for logging.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

type Config struct {
	Concurrency int
	QueueSize   int
	// TaskTimeout bounds a single task run; zero means no bound.
	TaskTimeout time.Duration
}

// Dispatcher runs tasks on a fixed pool of goroutines. Failures are logged,
// never returned to whoever enqueued the task.
type Dispatcher struct {
	log   *logger.Logger
	cfg   Config
	queue chan Task

	mu      sync.RWMutex
	started bool
	closed  bool
	wg      sync.WaitGroup
}

func NewDispatcher(baseLog *logger.Logger, cfg Config) *Dispatcher {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 1
	}
	return &Dispatcher{
		log:   baseLog.With("component", "TaskDispatcher"),
		cfg:   cfg,
		queue: make(chan Task, cfg.QueueSize),
	}
}

// Start spawns the worker goroutines. Tasks run with ctx as their parent, so
// callers normally pass a context that outlives individual requests.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true
	d.log.Info("Starting task dispatcher", "concurrency", d.cfg.Concurrency, "queue_size", d.cfg.QueueSize)
	for i := 0; i < d.cfg.Concurrency; i++ {
		d.wg.Add(1)
		go d.runLoop(ctx, i+1)
	}
}

func (d *Dispatcher) Enqueue(task Task) error {
	if task.Run == nil {
		return errors.New("worker: task has no Run func")
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}
	select {
	case d.queue <- task:
		return nil
	default:
		d.log.Warn("Task queue full, dropping task", "task", task.Name)
		return ErrQueueFull
	}
}

// Close stops accepting tasks, lets the workers drain what is queued and
// waits for them to exit.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()
	d.wg.Wait()
	d.log.Info("Task dispatcher stopped")
}

func (d *Dispatcher) runLoop(ctx context.Context, workerID int) {
	defer d.wg.Done()
	for task := range d.queue {
		d.run(ctx, workerID, task)
	}
}

func (d *Dispatcher) run(ctx context.Context, workerID int, task Task) {
	runCtx := ctx
	if d.cfg.TaskTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, d.cfg.TaskTimeout)
		defer cancel()
	}
	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("Task panic",
				"worker_id", workerID,
				"task", task.Name,
				"panic", r,
			)
		}
	}()
	if err := task.Run(runCtx); err != nil {
		d.log.Error("Task failed",
			"worker_id", workerID,
			"task", task.Name,
			"error", err,
			"duration_ms", time.Since(started).Milliseconds(),
		)
		return
	}
	d.log.Debug("Task finished", "worker_id", workerID, "task", task.Name, "duration_ms", time.Since(started).Milliseconds())
}
