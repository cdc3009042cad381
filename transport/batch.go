package transport

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/arakiss-oss/vestig-go/internal/metrics"
	"github.com/arakiss-oss/vestig-go/ringbuffer"
	"github.com/arakiss-oss/vestig-go/schedule"
)

// Sender is implemented by a BatchTransport subtype to actually
// deliver a batch. A nil error means success; any non-nil error is
// treated as retryable by the default BatchTransport retry loop unless
// the sender returns a *PermanentError.
type Sender interface {
	Send(ctx context.Context, batch []Record) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, batch []Record) error

func (f SenderFunc) Send(ctx context.Context, batch []Record) error { return f(ctx, batch) }

// PermanentError marks a send failure that must not be retried (e.g.
// a 4xx response other than 429).
type PermanentError struct{ Err error }

func (p *PermanentError) Error() string { return p.Err.Error() }
func (p *PermanentError) Unwrap() error { return p.Err }

// BatchConfig tunes a BatchTransport's buffering and retry behavior.
type BatchConfig struct {
	MaxBufferSize int
	BatchSize     int
	FlushInterval time.Duration
	MaxRetries    int
	RetryDelay    time.Duration
	ShutdownDelay time.Duration
	Fallback      FallbackLogger
	Hooks         Hooks
	// Metrics receives drop/retry/flush-error counters and flush-duration
	// observations. Nil defaults to a no-op client (see SetMetrics).
	Metrics *metrics.Client
}

func (c *BatchConfig) setDefaults() {
	if c.MaxBufferSize <= 0 {
		c.MaxBufferSize = defaultMaxBufferSize
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 20
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = defaultMaxRetries
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = defaultRetryDelay
	}
	if c.ShutdownDelay <= 0 {
		c.ShutdownDelay = defaultShutdownDelay
	}
	if c.Fallback == nil {
		c.Fallback = defaultFallback
	}
	if c.Metrics == nil {
		c.Metrics = metrics.New(nil)
	}
}

// BatchTransport is the shared base for every batching transport. It
// owns the circular buffer, the flush-interval ticker, and the
// retry/requeue machinery; subtypes only implement Sender.
type BatchTransport struct {
	name   string
	cfg    BatchConfig
	send   Sender
	buf    *ringbuffer.Buffer[Record]
	ticker *schedule.Ticker
	done   chan struct{}

	mu         sync.Mutex
	destroyed  bool
	flushInFlt bool
	flushAgain bool
	wg         sync.WaitGroup
}

// NewBatchTransport builds a BatchTransport named name, delegating
// batch delivery to send. If cfg.FlushInterval is zero, no periodic
// ticker is started; flush is then purely size- and caller-triggered.
func NewBatchTransport(name string, send Sender, cfg BatchConfig) *BatchTransport {
	cfg.setDefaults()
	bt := &BatchTransport{
		name: name,
		cfg:  cfg,
		send: send,
		buf:  ringbuffer.New[Record](cfg.MaxBufferSize),
		done: make(chan struct{}),
	}
	return bt
}

func (t *BatchTransport) Name() string { return t.name }

// SetFallback replaces the internal-failure logger a flush/drop
// reports to. Callers that construct a transport before their own
// fallback logger exists (the common case: the logger core's fallback
// is only available once New has run) use this to wire it in
// afterwards instead of threading it through every transport
// constructor's options.
func (t *BatchTransport) SetFallback(fb FallbackLogger) {
	if fb == nil {
		fb = defaultFallback
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cfg.Fallback = fb
}

// SetMetrics replaces the statsd client drop/retry/flush-error counters
// and flush-duration observations report to. Like SetFallback, this
// exists so the logger core can supply a shared client once it's built,
// after every transport has already been constructed.
func (t *BatchTransport) SetMetrics(m *metrics.Client) {
	if m == nil {
		m = metrics.New(nil)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cfg.Metrics = m
}

// Init starts the periodic flush ticker, if configured.
func (t *BatchTransport) Init(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cfg.FlushInterval > 0 && t.ticker == nil {
		t.ticker = schedule.NewTicker(t.cfg.FlushInterval)
		t.wg.Add(1)
		go t.tickLoop()
	}
	return nil
}

func (t *BatchTransport) tickLoop() {
	defer t.wg.Done()
	for {
		select {
		case <-t.ticker.C:
			t.asyncFlush()
		case <-t.done:
			return
		}
	}
}

// Log enqueues r. A no-op once Destroy has completed. If the buffer
// has reached BatchSize, an asynchronous flush is triggered.
func (t *BatchTransport) Log(r Record) {
	t.mu.Lock()
	if t.destroyed {
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	t.buf.Push(r)
	if t.buf.Len() >= t.cfg.BatchSize {
		t.asyncFlush()
	}
}

func (t *BatchTransport) asyncFlush() {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		_ = t.Flush(context.Background())
	}()
}

// Flush drains up to one batch and sends it, retrying on failure. A
// single in-flight flush is guaranteed: concurrent calls while one is
// running are coalesced into a single follow-up flush.
func (t *BatchTransport) Flush(ctx context.Context) error {
	t.mu.Lock()
	if t.flushInFlt {
		t.flushAgain = true
		t.mu.Unlock()
		return nil
	}
	t.flushInFlt = true
	t.mu.Unlock()

	var err error
	for {
		err = t.flushOnce(ctx)

		t.mu.Lock()
		again := t.flushAgain
		t.flushAgain = false
		if !again {
			t.flushInFlt = false
			t.mu.Unlock()
			break
		}
		t.mu.Unlock()
	}
	return err
}

func (t *BatchTransport) flushOnce(ctx context.Context) error {
	batch := t.buf.ShiftN(t.cfg.BatchSize)
	if len(batch) == 0 {
		return nil
	}

	start := time.Now()
	err := t.sendWithRetry(ctx, batch)
	t.cfg.Metrics.ObserveFlushDuration(t.name, float64(time.Since(start).Milliseconds()))
	if err == nil {
		return nil
	}

	t.buf.PushFront(batch)
	stats := t.buf.Stats()
	if stats.Dropped > 0 {
		t.cfg.Hooks.drop(t.name, stats.Dropped)
		t.cfg.Metrics.IncrDropped(t.name, int64(stats.Dropped))
	}
	t.cfg.Fallback.Error("vestig: transport flush failed", "transport", t.name, "error", err)
	t.cfg.Hooks.flushError(t.name, err)
	t.cfg.Metrics.IncrFlushError(t.name)
	return err
}

// sendWithRetry attempts delivery up to MaxRetries+1 times total,
// sleeping retryDelay*2^attempt (±10% jitter) between attempts. A
// *PermanentError aborts retrying immediately.
func (t *BatchTransport) sendWithRetry(ctx context.Context, batch []Record) error {
	var lastErr error
	attempts := t.cfg.MaxRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			t.cfg.Metrics.IncrRetry(t.name)
			delay := backoffDelay(t.cfg.RetryDelay, attempt-1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		err := t.send.Send(ctx, batch)
		if err == nil {
			return nil
		}
		lastErr = err
		var perm *PermanentError
		if asPermanent(err, &perm) {
			return perm
		}
	}
	return lastErr
}

func asPermanent(err error, target **PermanentError) bool {
	for err != nil {
		if p, ok := err.(*PermanentError); ok {
			*target = p
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

func backoffDelay(base time.Duration, attempt int) time.Duration {
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
	}
	jitter := float64(d) * 0.1 * (rand.Float64()*2 - 1)
	return d + time.Duration(jitter)
}

// Destroy stops the ticker, attempts one final bounded flush, and
// marks the transport destroyed. Idempotent.
func (t *BatchTransport) Destroy(ctx context.Context) error {
	t.mu.Lock()
	if t.destroyed {
		t.mu.Unlock()
		return nil
	}
	t.destroyed = true
	ticker := t.ticker
	t.mu.Unlock()

	close(t.done)
	if ticker != nil {
		ticker.Stop()
	}

	deadline := t.cfg.ShutdownDelay
	shutdownCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()
	err := t.Flush(shutdownCtx)

	t.wg.Wait()
	return err
}

// Stats exposes the underlying buffer's occupancy, mainly for tests
// and diagnostics.
func (t *BatchTransport) Stats() ringbuffer.Stats { return t.buf.Stats() }
