package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/arakiss-oss/vestig-go/internal/metrics"
	"github.com/arakiss-oss/vestig-go/sampler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStatsd records the handful of statsd calls internal/metrics
// actually makes. Embedding the (nil) interface satisfies every other
// ClientInterface method without having to stub each one by hand.
type fakeStatsd struct {
	statsd.ClientInterface

	mu          sync.Mutex
	dropped     int64
	retries     int
	flushErrors int
	durations   []float64
}

func (f *fakeStatsd) Count(name string, value int64, tags []string, rate float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if name == "transport.dropped" {
		f.dropped += value
	}
	return nil
}

func (f *fakeStatsd) Incr(name string, tags []string, rate float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch name {
	case "transport.retry":
		f.retries++
	case "transport.flush_error":
		f.flushErrors++
	}
	return nil
}

func (f *fakeStatsd) Gauge(name string, value float64, tags []string, rate float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if name == "transport.flush_duration_ms" {
		f.durations = append(f.durations, value)
	}
	return nil
}

func rec(msg string) Record {
	return Record{Timestamp: time.Now().UTC().Format(time.RFC3339), Level: sampler.LevelInfo, Message: msg}
}

func TestConfigAcceptsHonorsLevelAndFilter(t *testing.T) {
	cfg := Config{Enabled: true, Level: sampler.LevelWarn}
	assert.False(t, cfg.Accepts(Record{Level: sampler.LevelInfo}))
	assert.True(t, cfg.Accepts(Record{Level: sampler.LevelError}))

	cfg.Filter = func(r Record) bool { return r.Message == "keep" }
	assert.False(t, cfg.Accepts(Record{Level: sampler.LevelError, Message: "drop"}))
	assert.True(t, cfg.Accepts(Record{Level: sampler.LevelError, Message: "keep"}))
}

func TestConfigDisabledRejectsEverything(t *testing.T) {
	cfg := Config{Enabled: false}
	assert.False(t, cfg.Accepts(Record{Level: sampler.LevelError}))
}

// TestBatchTransportRetriesWithBackoffAndRequeues mirrors the spec's S4
// scenario: with MaxRetries 2 and a 5ms retry delay, an always-failing
// sender sees 3 attempts separated by backoffs of about 5ms and 10ms,
// the batch is requeued, and onFlushError fires exactly once.
func TestBatchTransportRetriesWithBackoffAndRequeues(t *testing.T) {
	var attempts int32
	var flushErrors int32

	send := SenderFunc(func(ctx context.Context, batch []Record) error {
		atomic.AddInt32(&attempts, 1)
		return assertErr
	})

	bt := NewBatchTransport("test", send, BatchConfig{
		MaxBufferSize: 10,
		BatchSize:     5,
		MaxRetries:    2,
		RetryDelay:    5 * time.Millisecond,
		Hooks: Hooks{
			OnFlushError: func(name string, err error) {
				atomic.AddInt32(&flushErrors, 1)
			},
		},
	})

	bt.Log(rec("a"))
	bt.Log(rec("b"))

	start := time.Now()
	err := bt.Flush(context.Background())
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts), "maxRetries=2 means 3 total attempts")
	assert.Equal(t, int32(1), atomic.LoadInt32(&flushErrors), "onFlushError must fire exactly once per final failure")
	assert.GreaterOrEqual(t, elapsed, 13500*time.Microsecond, "backoff delays of ~5+10ms, less at most 10% jitter, must have elapsed")
	assert.Equal(t, 2, bt.Stats().Size, "the failed batch must be requeued at the head")
}

// TestBatchTransportReportsMetrics checks that flushOnce and
// sendWithRetry actually drive the configured *metrics.Client: a
// buffer overflow increments transport.dropped, each retry increments
// transport.retry, a final failure increments transport.flush_error,
// and every flush attempt observes transport.flush_duration_ms.
func TestBatchTransportReportsMetrics(t *testing.T) {
	send := SenderFunc(func(ctx context.Context, batch []Record) error {
		return assertErr
	})

	fake := &fakeStatsd{}
	bt := NewBatchTransport("test", send, BatchConfig{
		MaxBufferSize: 2,
		BatchSize:     5, // larger than the buffer, so Log never auto-triggers a flush
		MaxRetries:    2,
		RetryDelay:    time.Millisecond,
		Metrics:       metrics.New(fake),
	})

	bt.Log(rec("a"))
	bt.Log(rec("b"))
	bt.Log(rec("c")) // overflows the 2-slot buffer, dropping "a"

	err := bt.Flush(context.Background())
	require.Error(t, err)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, int64(1), fake.dropped)
	assert.Equal(t, 2, fake.retries, "maxRetries=2 means 2 retry attempts after the first")
	assert.Equal(t, 1, fake.flushErrors)
	assert.NotEmpty(t, fake.durations)
}

// TestBatchTransportSetMetricsReplacesClient checks that SetMetrics
// (the mechanism the logger core uses to hand a shared client to an
// already-constructed transport) takes effect on the next flush.
func TestBatchTransportSetMetricsReplacesClient(t *testing.T) {
	send := SenderFunc(func(ctx context.Context, batch []Record) error { return assertErr })
	bt := NewBatchTransport("test", send, BatchConfig{BatchSize: 5, MaxRetries: 0, RetryDelay: time.Millisecond})

	fake := &fakeStatsd{}
	bt.SetMetrics(metrics.New(fake))

	bt.Log(rec("a"))
	require.Error(t, bt.Flush(context.Background()))

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, 1, fake.flushErrors)
}

var assertErr = &testSendError{}

type testSendError struct{}

func (e *testSendError) Error() string { return "simulated 500" }

func TestBatchTransportSubsequentSuccessDrainsInOrder(t *testing.T) {
	var delivered [][]string
	fail := true
	send := SenderFunc(func(ctx context.Context, batch []Record) error {
		if fail {
			fail = false
			return assertErr
		}
		names := make([]string, len(batch))
		for i, r := range batch {
			names[i] = r.Message
		}
		delivered = append(delivered, names)
		return nil
	})

	bt := NewBatchTransport("test", send, BatchConfig{
		BatchSize:  5,
		MaxRetries: 0,
		RetryDelay: time.Millisecond,
	})
	bt.Log(rec("a"))
	bt.Log(rec("b"))
	_ = bt.Flush(context.Background()) // fails, requeues

	require.NoError(t, bt.Flush(context.Background()))
	require.Len(t, delivered, 1)
	assert.Equal(t, []string{"a", "b"}, delivered[0])
}

func TestBatchTransportPermanentErrorDoesNotRetry(t *testing.T) {
	var attempts int32
	send := SenderFunc(func(ctx context.Context, batch []Record) error {
		atomic.AddInt32(&attempts, 1)
		return &PermanentError{Err: assertErr}
	})
	bt := NewBatchTransport("test", send, BatchConfig{
		BatchSize:  1,
		MaxRetries: 5,
		RetryDelay: time.Millisecond,
	})
	bt.Log(rec("a"))
	err := bt.Flush(context.Background())
	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestBatchTransportDestroyIsIdempotentAndStopsLog(t *testing.T) {
	sent := make(chan struct{}, 1)
	send := SenderFunc(func(ctx context.Context, batch []Record) error {
		select {
		case sent <- struct{}{}:
		default:
		}
		return nil
	})
	bt := NewBatchTransport("test", send, BatchConfig{BatchSize: 1})
	require.NoError(t, bt.Init(context.Background()))
	bt.Log(rec("a"))

	require.NoError(t, bt.Destroy(context.Background()))
	assert.NotPanics(t, func() { _ = bt.Destroy(context.Background()) })

	bt.Log(rec("after destroy"))
	assert.Equal(t, 0, bt.Stats().Size, "log after destroy must be a no-op")
}

func TestBatchTransportFlushIntervalTriggersAutomatically(t *testing.T) {
	flushed := make(chan struct{}, 1)
	send := SenderFunc(func(ctx context.Context, batch []Record) error {
		select {
		case flushed <- struct{}{}:
		default:
		}
		return nil
	})
	bt := NewBatchTransport("test", send, BatchConfig{
		BatchSize:     1000, // never triggered by size
		FlushInterval: 10 * time.Millisecond,
	})
	require.NoError(t, bt.Init(context.Background()))
	defer bt.Destroy(context.Background())

	bt.Log(rec("a"))

	select {
	case <-flushed:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("flush interval ticker never triggered a flush")
	}
}

func TestHTTPTransportClassifiesStatusCodes(t *testing.T) {
	var code int32 = 500
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(atomic.LoadInt32(&code)))
	}))
	defer srv.Close()

	h := NewHTTPTransport(HTTPOptions{
		URL: srv.URL,
		Batch: BatchConfig{
			BatchSize:  1,
			MaxRetries: 0,
			RetryDelay: time.Millisecond,
		},
	})

	h.Log(rec("a"))
	err := h.Flush(context.Background())
	assert.Error(t, err, "5xx must be retryable and surface as an error after exhausting retries")

	atomic.StoreInt32(&code, 400)
	h.Log(rec("b"))
	err2 := h.Flush(context.Background())
	assert.Error(t, err2)
	var perm *PermanentError
	assert.ErrorAs(t, err2, &perm, "4xx other than 429 must be permanent")

	atomic.StoreInt32(&code, 200)
	h.Log(rec("c"))
	assert.NoError(t, h.Flush(context.Background()))
}

func TestDatadogSiteRouting(t *testing.T) {
	assert.Equal(t, "https://http-intake.logs.datadoghq.com/api/v2/logs", SiteUS1.intakeURL())
	assert.Equal(t, "https://http-intake.logs.datadoghq.eu/api/v2/logs", SiteEU1.intakeURL())
	assert.Equal(t, "https://http-intake.logs.us3.datadoghq.com/api/v2/logs", SiteUS3.intakeURL())
	assert.Equal(t, "https://http-intake.logs.ap1.datadoghq.com/api/v2/logs", SiteAP1.intakeURL())
	assert.Equal(t, SiteUS1.intakeURL(), DatadogSite("").intakeURL(), "empty site defaults to US1")
}

func TestDatadogLevelMapping(t *testing.T) {
	assert.Equal(t, "debug", datadogLevelName(sampler.LevelTrace))
	assert.Equal(t, "debug", datadogLevelName(sampler.LevelDebug))
	assert.Equal(t, "info", datadogLevelName(sampler.LevelInfo))
	assert.Equal(t, "warning", datadogLevelName(sampler.LevelWarn))
	assert.Equal(t, "error", datadogLevelName(sampler.LevelError))
}

func TestSentryParsesDSN(t *testing.T) {
	d, err := parseDSN("https://publickey@o123.ingest.sentry.io/456")
	require.NoError(t, err)
	assert.Equal(t, "publickey", d.publicKey)
	assert.Equal(t, "o123.ingest.sentry.io", d.host)
	assert.Equal(t, "456", d.projectID)
	assert.Contains(t, d.authHeader(), "sentry_key=publickey")
}

func TestSentryRejectsMalformedDSN(t *testing.T) {
	_, err := parseDSN("not-a-dsn")
	assert.Error(t, err)
}

func TestSentryStackFramesInnermostLast(t *testing.T) {
	stack := "at outer (app.go:10)\nat inner (app.go:20)"
	exc := buildSentryException(map[string]any{
		"name":    "Error",
		"message": "boom",
		"stack":   stack,
	})
	require.Len(t, exc.Stacktrace.Frames, 2)
	assert.Equal(t, "inner", exc.Stacktrace.Frames[len(exc.Stacktrace.Frames)-1].Function)
}

func TestEdgeTransportQueuesWhileOffline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
	}))
	defer srv.Close()

	e := NewEdgeTransport(EdgeOptions{
		HTTP: HTTPOptions{URL: srv.URL, Batch: BatchConfig{BatchSize: 10}},
		Prober: fakeProber{online: false},
		Store:  nil,
	})
	e.Log(rec("a"))
	assert.Equal(t, 1, e.BatchTransport.Stats().Size)
}

type fakeProber struct{ online bool }

func (f fakeProber) Online() bool { return f.online }

func TestConsoleTransportWritesJSONLines(t *testing.T) {
	var buf byteBuf
	c := NewConsoleTransport(ConsoleOptions{Writer: &buf})
	c.Log(rec("hello"))
	assert.Contains(t, buf.String(), "\"message\":\"hello\"")
}

type byteBuf struct{ data []byte }

func (b *byteBuf) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}
func (b *byteBuf) String() string { return string(b.data) }
