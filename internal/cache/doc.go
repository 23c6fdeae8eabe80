// Package cache materializes page templates bundled inside registered plugin
// bundles into a private per-process directory tree. The coordinator runs the
// extraction pass exactly once per process epoch, safe under concurrent first
// requests, and publishes an immutable entry index that the request resolver
// and diagnostics read without locking. The physical root lives under the
// platform temp directory and is removed on host shutdown.
package cache
