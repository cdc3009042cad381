// Package metrics wraps a statsd client for the engine's internal
// operational counters: dropped records, retries, and sampler
// decisions. It is the Go shape of the spec's getStats() surface.
package metrics

import "github.com/DataDog/datadog-go/v5/statsd"

// Client is the subset of statsd.ClientInterface the engine submits
// to. A Client wrapping a nil statsd client (as New(nil) builds) is
// valid and every method becomes a no-op, so metrics are always
// optional; a nil *Client is not.
type Client struct {
	statsd statsd.ClientInterface
}

// New wraps c. A nil c yields a Client whose methods are all no-ops.
func New(c statsd.ClientInterface) *Client {
	return &Client{statsd: c}
}

// NewUDP builds a Client talking to a UDP statsd agent at addr (e.g.
// "127.0.0.1:8125"), falling back to a no-op Client on dial failure.
func NewUDP(addr string, namespace string, tags []string) *Client {
	c, err := statsd.New(addr, statsd.WithNamespace(namespace), statsd.WithTags(tags))
	if err != nil {
		return New(nil)
	}
	return New(c)
}

func (c *Client) IncrDropped(transport string, n int64) {
	if c.statsd == nil || n <= 0 {
		return
	}
	_ = c.statsd.Count("transport.dropped", n, []string{"transport:" + transport}, 1)
}

func (c *Client) IncrRetry(transport string) {
	if c.statsd == nil {
		return
	}
	_ = c.statsd.Incr("transport.retry", []string{"transport:" + transport}, 1)
}

func (c *Client) IncrFlushError(transport string) {
	if c.statsd == nil {
		return
	}
	_ = c.statsd.Incr("transport.flush_error", []string{"transport:" + transport}, 1)
}

func (c *Client) IncrSamplerDecision(kept bool) {
	if c.statsd == nil {
		return
	}
	tag := "kept:false"
	if kept {
		tag = "kept:true"
	}
	_ = c.statsd.Incr("sampler.decision", []string{tag}, 1)
}

func (c *Client) ObserveFlushDuration(transport string, ms float64) {
	if c.statsd == nil {
		return
	}
	_ = c.statsd.Gauge("transport.flush_duration_ms", ms, []string{"transport:" + transport}, 1)
}

// Close releases the underlying statsd client, if any.
func (c *Client) Close() error {
	if c.statsd == nil {
		return nil
	}
	return c.statsd.Close()
}
