package surveillance

// FanoutSink forwards each alert to every wrapped sink, collecting (but not
// stopping on) individual failures. It lets the dispatcher treat "persist
// to Postgres and push to the websocket hub" as a single AlertSink.
type FanoutSink struct {
	sinks []AlertSink
}

// NewFanoutSink wraps the given sinks in the order they should be called.
func NewFanoutSink(sinks ...AlertSink) *FanoutSink {
	return &FanoutSink{sinks: sinks}
}

// Send implements AlertSink, returning the first error encountered (if
// any) after attempting delivery to every sink.
func (f *FanoutSink) Send(alert Alert) error {
	var firstErr error
	for _, sink := range f.sinks {
		if err := sink.Send(alert); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
