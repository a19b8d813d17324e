// Package requestid tags each HTTP request with a correlation id.
//
// Middleware reuses a well-formed X-Request-ID header or generates a UUID,
// stores it in the request context and echoes it in the response. Extractor
// plugs the id into logger.WithContextExtractors so every *Context log call
// made while serving the request carries request_id.
package requestid
