// Package cache provides a small thread-safe LRU map.
//
// It bounds the compiled-expression caches that markup feeds: CSS selectors
// in dom and pattern regexps in rule. Both are keyed by attribute text, so a
// long-running server that keeps loading new pages would otherwise grow them
// without limit.
//
//	c := cache.NewLRU[string, *regexp.Regexp](256)
//	re, ok := c.Get(src)
//	if !ok {
//		re = regexp.MustCompile(src)
//		c.Put(src, re)
//	}
package cache
