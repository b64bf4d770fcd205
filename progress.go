package pqvolume

// ProgressFunc receives progress events from long-running operations. It is
// called synchronously, so slow callbacks slow the operation down, and it
// must be safe for concurrent use: migration emits sector progress from its
// worker goroutines.
type ProgressFunc func(ProgressEvent)

// ProgressEvent describes one step of a long-running operation.
type ProgressEvent struct {
	// Step and Total number the current step, 1-based. For sector-granular
	// phases Step counts sectors.
	Step  int
	Total int
	// Message is a short human-readable description.
	Message string
	// Done marks the final event of an operation.
	Done bool
}

// emit invokes the configured progress callback, if any.
func (c *managerConfig) emit(step, total int, message string, done bool) {
	if c.progress != nil {
		c.progress(ProgressEvent{Step: step, Total: total, Message: message, Done: done})
	}
}
