package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SentryTransport extends BatchTransport but sends one event per
// record rather than a batched body; it reuses the buffer and retry
// machinery purely for queueing and backoff.
type SentryTransport struct {
	*BatchTransport
	dsn       parsedDSN
	client    *http.Client
	release   string
	environ   string
}

// SentryOptions configures a SentryTransport.
type SentryOptions struct {
	DSN         string
	Release     string
	Environment string
	Timeout     time.Duration
	Batch       BatchConfig
	Client      *http.Client
}

func NewSentryTransport(opts SentryOptions) (*SentryTransport, error) {
	dsn, err := parseDSN(opts.DSN)
	if err != nil {
		return nil, err
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	// Sentry sends one event per record: force BatchSize to 1 so the
	// shared BatchTransport never accumulates more than one record per
	// send() call.
	opts.Batch.BatchSize = 1
	s := &SentryTransport{
		dsn:     dsn,
		client:  client,
		release: opts.Release,
		environ: opts.Environment,
	}
	s.BatchTransport = NewBatchTransport("sentry", SenderFunc(s.send), opts.Batch)
	return s, nil
}

func (s *SentryTransport) Name() string { return "sentry" }

type parsedDSN struct {
	publicKey string
	host      string
	projectID string
}

var dsnPattern = regexp.MustCompile(`^https://([^@]+)@([^/]+)/(.+)$`)

func parseDSN(dsn string) (parsedDSN, error) {
	m := dsnPattern.FindStringSubmatch(dsn)
	if m == nil {
		return parsedDSN{}, fmt.Errorf("sentry transport: malformed DSN")
	}
	return parsedDSN{publicKey: m[1], host: m[2], projectID: m[3]}, nil
}

func (d parsedDSN) storeURL() string {
	return fmt.Sprintf("https://%s/api/%s/store/", d.host, d.projectID)
}

func (d parsedDSN) authHeader() string {
	return fmt.Sprintf(
		"Sentry sentry_version=7, sentry_client=vestig-go/1.0, sentry_key=%s",
		d.publicKey,
	)
}

type sentryFrame struct {
	Filename string `json:"filename,omitempty"`
	Function string `json:"function,omitempty"`
	Lineno   int    `json:"lineno,omitempty"`
}

type sentryEvent struct {
	EventID     string         `json:"event_id"`
	Timestamp   string         `json:"timestamp"`
	Level       string         `json:"level"`
	Message     string         `json:"message"`
	Logger      string         `json:"logger,omitempty"`
	Release     string         `json:"release,omitempty"`
	Environment string         `json:"environment,omitempty"`
	Extra       map[string]any `json:"extra,omitempty"`
	Exception   *sentryExc     `json:"exception,omitempty"`
}

type sentryExc struct {
	Values []sentryExcValue `json:"values"`
}

type sentryExcValue struct {
	Type       string          `json:"type"`
	Value      string          `json:"value"`
	Stacktrace *sentryStacktrc `json:"stacktrace,omitempty"`
}

type sentryStacktrc struct {
	Frames []sentryFrame `json:"frames"`
}

func (s *SentryTransport) send(ctx context.Context, batch []Record) error {
	for _, r := range batch {
		if err := s.sendOne(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

func (s *SentryTransport) sendOne(ctx context.Context, r Record) error {
	ev := sentryEvent{
		EventID:     newSentryEventID(),
		Timestamp:   r.Timestamp,
		Level:       datadogLevelName(r.Level), // trace/debug->debug, warn->warning, matching the shared level map
		Message:     r.Message,
		Logger:      r.Namespace,
		Release:     s.release,
		Environment: s.environ,
		Extra:       r.Metadata,
	}
	if r.Error != nil {
		ev.Exception = &sentryExc{Values: []sentryExcValue{buildSentryException(r.Error)}}
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return &PermanentError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.dsn.storeURL(), bytes.NewReader(body))
	if err != nil {
		return &PermanentError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Sentry-Auth", s.dsn.authHeader())

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("sentry transport: rate limited (429)")
	case resp.StatusCode >= 500:
		return fmt.Errorf("sentry transport: server error (%d)", resp.StatusCode)
	default:
		return &PermanentError{Err: fmt.Errorf("sentry transport: non-retryable status %d", resp.StatusCode)}
	}
}

// buildSentryException converts a serialized error's stack string into
// frames for Sentry. parseStackFrames keeps the order of the stack's
// "at fn (file:line)" lines and no reordering is done here, so the
// innermost (most-recent) frame comes last only when the stack lists
// its lines in call order, outermost caller first.
func buildSentryException(serialized map[string]any) sentryExcValue {
	name, _ := serialized["name"].(string)
	message, _ := serialized["message"].(string)
	stack, _ := serialized["stack"].(string)

	frames := parseStackFrames(stack)

	return sentryExcValue{
		Type:       name,
		Value:      message,
		Stacktrace: &sentryStacktrc{Frames: frames},
	}
}

var stackLinePattern = regexp.MustCompile(`at (\S+) \(?([^:()]+):(\d+)(?::\d+)?\)?`)

func parseStackFrames(stack string) []sentryFrame {
	var frames []sentryFrame
	for _, line := range strings.Split(stack, "\n") {
		m := stackLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		lineno, _ := strconv.Atoi(m[3])
		frames = append(frames, sentryFrame{
			Function: m[1],
			Filename: m[2],
			Lineno:   lineno,
		})
	}
	return frames
}

// newSentryEventID returns a UUIDv4 with its dashes stripped, the
// 32-hex-character shape Sentry's event_id expects.
func newSentryEventID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
