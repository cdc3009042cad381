package transport

import (
	"context"
	"encoding/json"
	"os"
	"sync"
)

// NetworkProber reports host connectivity. It is the Go rendering of
// the browser's navigator.onLine: a pluggable check rather than a
// fixed API, since a server process has no single universal signal
// for "online".
type NetworkProber interface {
	Online() bool
}

// alwaysOnline is the default prober for processes that have no
// better connectivity signal.
type alwaysOnline struct{}

func (alwaysOnline) Online() bool { return true }

// OfflineStore persists queued records across restarts while the host
// is offline, keyed the way the spec's host key-value store is keyed.
type OfflineStore interface {
	Load(key string) ([]Record, error)
	Save(key string, records []Record) error
}

// FileOfflineStore is the default OfflineStore: one JSON file per key.
type FileOfflineStore struct {
	mu  sync.Mutex
	dir string
}

func NewFileOfflineStore(dir string) *FileOfflineStore {
	return &FileOfflineStore{dir: dir}
}

func (s *FileOfflineStore) path(key string) string {
	return s.dir + "/" + key + ".json"
}

func (s *FileOfflineStore) Load(key string) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var wire []wireRecord
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, err
	}
	out := make([]Record, len(wire))
	for i, w := range wire {
		out[i] = Record{
			Timestamp: w.Timestamp,
			Level:     parseLevelName(w.Level),
			Message:   w.Message,
			Namespace: w.Namespace,
			Runtime:   w.Runtime,
			Metadata:  w.Metadata,
			Context:   w.Context,
			Error:     w.Error,
		}
	}
	return out, nil
}

func (s *FileOfflineStore) Save(key string, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(toWireBatch(records))
	if err != nil {
		return err
	}
	return os.WriteFile(s.path(key), data, 0o644)
}

// offlineQueueKey is the default persistence key, matching the
// spec's "vestig:offline-queue"-style naming.
const offlineQueueKey = "vestig:offline-queue"

// EdgeTransport is the Go rendering of the spec's ClientHTTPTransport:
// the same HTTP delivery as HTTPTransport, plus connectivity-aware
// queueing. There is no beforeunload/visibilitychange in a Go process,
// so the shutdown-triggered flush is driven by Destroy (itself wired
// to os/signal by callers), and "online" is decided by a pluggable
// NetworkProber instead of navigator.onLine.
type EdgeTransport struct {
	*HTTPTransport
	prober         NetworkProber
	store          OfflineStore
	offlineMaxSize int
	hooks          Hooks
}

// EdgeOptions configures an EdgeTransport.
type EdgeOptions struct {
	HTTP           HTTPOptions
	Prober         NetworkProber
	Store          OfflineStore
	OfflineMaxSize int
	Hooks          Hooks
}

func NewEdgeTransport(opts EdgeOptions) *EdgeTransport {
	if opts.Prober == nil {
		opts.Prober = alwaysOnline{}
	}
	if opts.OfflineMaxSize <= 0 {
		opts.OfflineMaxSize = defaultMaxBufferSize
	}
	opts.HTTP.Batch.Hooks = opts.Hooks
	e := &EdgeTransport{
		HTTPTransport:  NewHTTPTransport(opts.HTTP),
		prober:         opts.Prober,
		store:          opts.Store,
		offlineMaxSize: opts.OfflineMaxSize,
		hooks:          opts.Hooks,
	}
	return e
}

func (e *EdgeTransport) Name() string { return "edge" }

// Init loads any persisted offline entries and merges them at the
// head of the buffer, bounded by offlineMaxSize; excess is dropped
// with notification via Hooks.OnDrop.
func (e *EdgeTransport) Init(ctx context.Context) error {
	if err := e.HTTPTransport.Init(ctx); err != nil {
		return err
	}
	if e.store == nil {
		return nil
	}
	persisted, err := e.store.Load(offlineQueueKey)
	if err != nil || len(persisted) == 0 {
		return err
	}

	room := e.offlineMaxSize - e.BatchTransport.Stats().Size
	if room < 0 {
		room = 0
	}
	if len(persisted) > room {
		dropped := len(persisted) - room
		e.hooks.drop(e.Name(), dropped)
		persisted = persisted[dropped:]
	}
	e.BatchTransport.buf.PushFront(persisted)
	return nil
}

// Log always enqueues r through BatchTransport.Log, so size- and
// interval-triggered flushes still attempt delivery while offline.
// When the NetworkProber reports offline and a store is configured,
// the buffer snapshot is also persisted after each record.
func (e *EdgeTransport) Log(r Record) {
	if !e.prober.Online() && e.store != nil {
		e.BatchTransport.Log(r)
		_ = e.persistSnapshot()
		return
	}
	e.BatchTransport.Log(r)
}

func (e *EdgeTransport) persistSnapshot() error {
	if e.store == nil {
		return nil
	}
	return e.store.Save(offlineQueueKey, e.BatchTransport.buf.Snapshot())
}

// Destroy persists any remaining entries before the usual
// BatchTransport shutdown flush, so they survive a restart if the
// final flush itself cannot reach the network.
func (e *EdgeTransport) Destroy(ctx context.Context) error {
	if e.store != nil && !e.prober.Online() {
		_ = e.persistSnapshot()
	}
	return e.HTTPTransport.Destroy(ctx)
}
