// Package correlation generates and parses the identifiers that tie a log
// record to a request and a trace: request IDs, trace IDs, span IDs, and
// the W3C traceparent/tracestate headers.
package correlation

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// GenerateTraceID returns a 128-bit trace ID as 32 lowercase hex chars.
func GenerateTraceID() string {
	return randomHex(16)
}

// GenerateSpanID returns a 64-bit span ID as 16 lowercase hex chars.
func GenerateSpanID() string {
	return randomHex(8)
}

// GenerateRequestID returns a UUIDv4 string, used to correlate a single
// inbound request across log lines.
func GenerateRequestID() string {
	return uuid.NewString()
}

func randomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand.Read only fails if the OS entropy source is
		// unavailable, which is not a condition this library can
		// recover from or usefully mask; the caller gets a zero ID
		// rather than a panic, keeping emission non-throwing.
		return hex.EncodeToString(make([]byte, n))
	}
	return hex.EncodeToString(buf)
}
