// Package capability detects the host runtime and exposes feature flags
// that the rest of vestig-go reads, but never fails, from.
package capability

import (
	"os"
	"sync"
	"time"
)

// Runtime tags the kind of process vestig-go is running in. Go only ever
// ships one true runtime (the compiled binary), so this collapses the
// spec's node/bun/deno/edge/browser matrix down to the two distinctions
// that actually change behavior in a Go build: a normal server process
// versus a restricted one (e.g. a WASM/edge build with no filesystem).
type Runtime string

const (
	RuntimeServer Runtime = "server"
	RuntimeEdge   Runtime = "edge"
)

// Capabilities is the feature-flag set read by transports
// (FileTransport checks HasFileSystem).
type Capabilities struct {
	HasFileSystem  bool
	HasProcessInfo bool
	HasCrypto      bool
}

var (
	once       sync.Once
	runtime    Runtime
	caps       Capabilities
	isServer   bool
	isEdge     bool
)

func detect() {
	runtime = RuntimeServer
	if v := os.Getenv("VESTIG_RUNTIME"); v == string(RuntimeEdge) {
		runtime = RuntimeEdge
	}
	isServer = runtime == RuntimeServer
	isEdge = runtime == RuntimeEdge
	caps = Capabilities{
		HasFileSystem:  isServer,
		HasProcessInfo: isServer,
		HasCrypto:      true,
	}
}

// RUNTIME returns the detected runtime tag, computed once and cached.
func RUNTIME() Runtime {
	once.Do(detect)
	return runtime
}

// IsServer reports whether the process is running with full host access.
func IsServer() bool {
	once.Do(detect)
	return isServer
}

// IsEdge reports whether the process is running in a restricted build.
func IsEdge() bool {
	once.Do(detect)
	return isEdge
}

// CAPABILITIES returns the cached capability set.
func CAPABILITIES() Capabilities {
	once.Do(detect)
	return caps
}

// NowMS returns the current time as Unix milliseconds. time.Now() is
// already monotonic-safe for measuring durations in Go, so unlike the
// spec's source environments there is no separate high-resolution clock
// to fall back from.
func NowMS() int64 {
	return time.Now().UnixMilli()
}

// resetForTest allows tests to force re-detection after changing the
// environment. Unexported: production code must never reset capability
// detection mid-process.
func resetForTest() {
	once = sync.Once{}
}
