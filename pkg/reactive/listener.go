package reactive

// Listener is anything that can be notified when a dependency changes.
// Trackers, reactions and test probes implement it.
type Listener interface {
	// MarkDirty notifies the listener that one of its dependencies has changed.
	MarkDirty()

	// ID returns a unique identifier for this listener.
	// Used for deduplication during batch processing.
	ID() uint64
}

// sourceCollector is implemented by listeners that remember which cells they
// read so they can unsubscribe later.
type sourceCollector interface {
	Listener
	addSource(source *cell)
}
