package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
)

// ConsoleTransport writes each record immediately (no batching) in
// either a pretty, human-readable line or a single-line JSON document.
type ConsoleTransport struct {
	cfg       Config
	pretty    bool
	w         io.Writer
	mu        sync.Mutex
	destroyed bool
}

// ConsoleOptions configures a ConsoleTransport.
type ConsoleOptions struct {
	Config Config
	Pretty bool
	// Writer defaults to os.Stdout.
	Writer io.Writer
}

func NewConsoleTransport(opts ConsoleOptions) *ConsoleTransport {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}
	if !opts.Config.Enabled {
		opts.Config.Enabled = true
	}
	return &ConsoleTransport{cfg: opts.Config, pretty: opts.Pretty, w: opts.Writer}
}

func (c *ConsoleTransport) Name() string { return "console" }

func (c *ConsoleTransport) Init(context.Context) error { return nil }

func (c *ConsoleTransport) Log(r Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed || !c.cfg.Accepts(r) {
		return
	}
	if c.pretty {
		fmt.Fprintf(c.w, "%s [%s] %s %v\n", r.Timestamp, levelName(r.Level), r.Message, r.Metadata)
		return
	}
	enc := json.NewEncoder(c.w)
	_ = enc.Encode(consoleLine{
		Timestamp: r.Timestamp,
		Level:     levelName(r.Level),
		Message:   r.Message,
		Namespace: r.Namespace,
		Metadata:  r.Metadata,
		Context:   r.Context,
		Error:     r.Error,
	})
}

type consoleLine struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Namespace string         `json:"namespace,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Context   map[string]any `json:"context,omitempty"`
	Error     map[string]any `json:"error,omitempty"`
}

func (c *ConsoleTransport) Flush(context.Context) error { return nil }

func (c *ConsoleTransport) Destroy(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.destroyed = true
	return nil
}
