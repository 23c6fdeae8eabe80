// Package server hosts the Fiber HTTP service, request middleware chain, and
// the request-time resolver that decides whether a page is served from the
// live site tree or from the extracted bundle cache. The resolver triggers
// cache initialization lazily on first use and hands resolved physical paths
// to a pluggable rendering pipeline; the built-in "static" pipeline streams
// the file as-is. Keep exports narrow and accept explicit dependencies so
// main and the integration tests can wire fakes.
package server
