package mail

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/tollgate/pkg/slogx"
	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

// DispatcherOptions tunes asynchronous delivery.
type DispatcherOptions struct {
	// QueueSize bounds the number of undelivered messages held in memory.
	QueueSize int

	// Workers is the number of concurrent deliveries.
	Workers int

	// RatePerSecond paces deliveries across all workers. Zero disables pacing.
	RatePerSecond float64

	// MaxRetries is the number of retries after the first failed attempt.
	MaxRetries uint64

	// InitialBackoff is the first retry delay; later delays grow exponentially.
	InitialBackoff time.Duration

	// SendTimeout bounds a single delivery attempt.
	SendTimeout time.Duration
}

func (o *DispatcherOptions) withDefaults() {
	if o.QueueSize <= 0 {
		o.QueueSize = 256
	}
	if o.Workers <= 0 {
		o.Workers = 2
	}
	if o.InitialBackoff <= 0 {
		o.InitialBackoff = 500 * time.Millisecond
	}
	if o.SendTimeout <= 0 {
		o.SendTimeout = 30 * time.Second
	}
}

type job struct {
	msg    Message
	logger *slog.Logger
}

// Dispatcher hands messages to a Sender on background workers so a slow
// relay never holds up a request. Send never blocks: when the queue is
// full the message is dropped and ErrQueueFull returned.
type Dispatcher struct {
	next    Sender
	opts    DispatcherOptions
	limiter *rate.Limiter
	log     *slog.Logger

	mu      sync.RWMutex
	queue   chan job
	stopped bool

	wg       sync.WaitGroup
	stopOnce sync.Once
	cancel   context.CancelFunc
	ctx      context.Context
}

// NewDispatcher builds a dispatcher around next. Call Start to begin delivery.
func NewDispatcher(next Sender, opts DispatcherOptions, log *slog.Logger) *Dispatcher {
	opts.withDefaults()
	if log == nil {
		log = slog.Default()
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RatePerSecond > 0 {
		burst := int(opts.RatePerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), burst)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		next:    next,
		opts:    opts,
		limiter: limiter,
		log:     log,
		queue:   make(chan job, opts.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the worker goroutines.
func (d *Dispatcher) Start() {
	d.log.Info("mail dispatcher started",
		slog.Int("workers", d.opts.Workers),
		slog.Int("queue_size", d.opts.QueueSize),
	)
	for range d.opts.Workers {
		d.wg.Add(1)
		go d.worker()
	}
}

// Send enqueues msg for delivery. The request-scoped logger is kept so
// delivery failures carry the originating request id.
func (d *Dispatcher) Send(ctx context.Context, msg Message) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		return ErrStopped
	}

	select {
	case d.queue <- job{msg: msg, logger: slogx.FromContext(ctx)}:
		return nil
	default:
		slogx.FromContext(ctx).Error("mail queue full, message dropped",
			slogx.Email(msg.To),
			slog.String("subject", msg.Subject),
		)
		return ErrQueueFull
	}
}

// Stop refuses new messages, then waits for queued ones to be delivered.
// If ctx expires first, in-flight retries are abandoned.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.stopOnce.Do(func() {
		d.mu.Lock()
		d.stopped = true
		close(d.queue)
		d.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		d.log.Info("mail dispatcher stopped")
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return ctx.Err()
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for j := range d.queue {
		d.deliver(j)
	}
}

func (d *Dispatcher) deliver(j job) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = d.opts.InitialBackoff
	policy.MaxElapsedTime = 0

	attempts := 0
	op := func() error {
		if err := d.limiter.Wait(d.ctx); err != nil {
			return backoff.Permanent(err)
		}
		attempts++

		ctx, cancel := context.WithTimeout(d.ctx, d.opts.SendTimeout)
		defer cancel()
		return d.next.Send(ctx, j.msg)
	}

	notify := func(err error, wait time.Duration) {
		j.logger.Warn("mail delivery failed, retrying",
			slogx.Email(j.msg.To),
			slog.Duration("retry_in", wait),
			slog.Any("err", err),
		)
	}

	var retries backoff.BackOff = &backoff.StopBackOff{}
	if d.opts.MaxRetries > 0 {
		retries = backoff.WithMaxRetries(policy, d.opts.MaxRetries)
	}

	err := backoff.RetryNotify(op, backoff.WithContext(retries, d.ctx), notify)
	if err != nil {
		// Dead letter: nothing else will pick this message up.
		j.logger.Error("mail delivery abandoned",
			slogx.Email(j.msg.To),
			slog.String("subject", j.msg.Subject),
			slog.Int("attempts", attempts),
			slog.Bool("shutdown", errors.Is(err, context.Canceled)),
			slog.Any("err", err),
		)
		return
	}

	j.logger.Debug("mail delivered", slogx.Email(j.msg.To), slog.Int("attempts", attempts))
}
