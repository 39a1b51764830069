package ports

// EntryServer defines the interface for an entry-ingesting surface
// (HTTP API, CLI batch run). Surfaces are thin serialization glue over
// the engine; verdict logic never lives here.
type EntryServer interface {
	// Start starts the server. For one-shot surfaces it runs the batch
	// to completion.
	Start() error

	// Stop stops the server.
	Stop() error
}
