// Package clientip resolves the address of the caller behind proxies.
//
// Resolution walks the trusted headers in order (CF-Connecting-IP,
// X-Forwarded-For, X-Real-IP by default), takes the first address that
// parses and falls back to RemoteAddr. Middleware stores the result in the
// request context and Extractor adds it to context-aware log records.
package clientip
