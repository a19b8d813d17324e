// Package metrics exposes Prometheus metrics for validation runs, message
// resolution and component scans.
//
// A Collector satisfies the observer hooks of the form, message and
// component packages, so one instance can be handed to each of them:
//
//	c := metrics.NewCollector(metrics.Config{Enabled: true}, nil)
//	resolver := message.NewResolver(message.WithObserver(c.ObserveTier))
//	f, _ := form.New(doc, root, reg, resolver, form.WithObserver(c))
//	http.Handle("/metrics", c.Handler())
//
// Form ids become label values. The collector caps the number of distinct
// ids and folds the overflow into "other".
package metrics
