// Package vestig is a structured logging and tracing library: a
// namespaced Logger core with context propagation, sanitization,
// sampling, and pluggable transports (console, HTTP, file, Datadog,
// Sentry, edge/offline), plus span and wide-event packages for request
// tracing built on the same context.Context propagation model.
//
// A Logger is constructed once with New and then shared or narrowed
// with Child, which derives a namespaced logger that inherits its
// parent's transports by reference and its static context merged with
// any override. Every emission call funnels through Log, which gates
// on level and enablement, merges ambient and static context, runs the
// configured error serializer and sanitizer, applies the sampler, and
// finally dispatches to each transport.
package vestig
