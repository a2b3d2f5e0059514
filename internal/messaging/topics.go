package messaging

// Checkout topics. order.placed carries domain.OrderPlacedEvent for
// receipt delivery; checkout.failed carries domain.CheckoutFailedEvent
// for the reconciler.
const (
	TopicOrderPlaced    = "order.placed"
	TopicCheckoutFailed = "checkout.failed"
)
