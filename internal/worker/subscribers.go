package worker

// Subscriber attaches its event handlers to the dispatcher it was built with.
type Subscriber interface {
	RegisterHandlers()
}

// StartSubscribers registers handlers for every subscriber, in order.
func StartSubscribers(subscribers ...Subscriber) {
	for _, subscriber := range subscribers {
		if subscriber == nil {
			continue
		}
		subscriber.RegisterHandlers()
	}
}
