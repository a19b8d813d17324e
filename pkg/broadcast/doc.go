// Package broadcast fans component signals out to subscribers living
// outside the document, such as loggers, metrics or SSE streams.
//
//	bus := broadcast.New(broadcast.WithBufferSize(32))
//	defer bus.Close()
//
//	sub := bus.Subscribe(ctx)
//	go func() {
//	    for sig := range sub.C() {
//	        log.Info("signal", "type", sig.Type, "root", sig.Root)
//	    }
//	}()
//
// Publish never blocks. A subscriber whose buffer is full misses the signal
// and is dropped; its channel is closed. Subscriptions end when their
// context is cancelled or the bus is closed.
package broadcast
