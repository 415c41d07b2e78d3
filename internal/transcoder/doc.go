// Package transcoder treats ffmpeg as an opaque capability: it builds the
// HLS invocation for one stream, spawns it, exposes its diagnostic output
// line by line and lets the caller request termination.
//
// The package knows nothing about stream registries or status; those live in
// the supervisor, which consumes the Spawner and Worker interfaces defined
// here.
package transcoder
