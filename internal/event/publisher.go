package event

// Publisher delivers events to interested listeners
type Publisher interface {
	Publish(event Event)
}

// MultiPublisher fans an event out to every wrapped publisher in order
type MultiPublisher []Publisher

// Publish implements Publisher
func (m MultiPublisher) Publish(event Event) {
	for _, p := range m {
		if p != nil {
			p.Publish(event)
		}
	}
}

// NoOpPublisher is a publisher that does nothing (for testing or when no listeners are configured)
type NoOpPublisher struct{}

// Publish does nothing
func (n *NoOpPublisher) Publish(event Event) {}
