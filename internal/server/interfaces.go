package server

// Server is the lifecycle contract for the zakat-keeper transport server.
//
// [Server.RunServer] blocks until a shutdown signal arrives, so callers run
// background workers (the periodic remediation scan) before invoking it.
type Server interface {
	// RunServer starts serving requests and blocks until the server stops.
	RunServer()

	// Shutdown gracefully stops the server and frees associated resources.
	Shutdown()
}
