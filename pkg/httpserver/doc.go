// Package httpserver runs an http.Handler with graceful shutdown.
//
// Run listens on the configured address and blocks until the context is
// cancelled, SIGINT/SIGTERM arrives or the listener fails; Serve does the
// same on a caller-supplied listener. Shutdown waits for in-flight requests
// up to the shutdown timeout. Start and stop hooks run around the server
// life-cycle and receive the server logger.
//
// Health returns a probe handler: without checks it answers ALIVE, with
// checks it answers READY or 503 NOT_READY.
package httpserver
