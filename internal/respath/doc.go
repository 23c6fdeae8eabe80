// Package respath implements the dotted-identifier → filesystem path mapping
// used when materializing bundled page templates onto disk. The mapping is
// pure: identical inputs always produce the identical absolute path, so the
// coordinator can use the result both as an extraction target and as the
// deduplication key for entries contributed by multiple bundles.
package respath
