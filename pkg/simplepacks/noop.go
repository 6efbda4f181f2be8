package simplepacks

import "context"

// NoopEventSink is a no-operation implementation of EventSink
type NoopEventSink struct{}

// NewNoopEventSink creates a new no-operation event sink
func NewNoopEventSink() EventSink {
	return &NoopEventSink{}
}

// PackCreated does nothing and returns nil
func (n *NoopEventSink) PackCreated(ctx context.Context, pack PackRecord, result *PackCreateResult) error {
	return nil
}
