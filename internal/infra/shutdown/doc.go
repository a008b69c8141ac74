// Package shutdown coordinates graceful process termination.
//
// A Handler waits for SIGINT/SIGTERM (or a cancelled context) and then
// runs the registered hooks in reverse registration order under a shared
// deadline:
//
//	h := shutdown.NewHandler(10*time.Second, logger)
//	h.OnShutdown("redis", srv.Shutdown)
//	err := h.Wait(ctx)
package shutdown
