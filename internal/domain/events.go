package domain

// Store webhook topics
const (
	TopicOrdersPaid     = "orders/paid"
	TopicProductsCreate = "products/create"
	TopicProductsUpdate = "products/update"
)

// EventKind is the handling strategy selected for a topic
type EventKind int

const (
	EventUnknown EventKind = iota
	EventOrderPaid
	EventProductUpsert
)

func (k EventKind) String() string {
	switch k {
	case EventOrderPaid:
		return "order_paid"
	case EventProductUpsert:
		return "product_upsert"
	default:
		return "unknown"
	}
}

// Classify maps a topic header to its event kind
func Classify(topic string) EventKind {
	switch topic {
	case TopicOrdersPaid:
		return EventOrderPaid
	case TopicProductsCreate, TopicProductsUpdate:
		return EventProductUpsert
	default:
		return EventUnknown
	}
}

// RoutingTable maps an event kind to the downstream URL that handles it.
// Fixed at startup.
type RoutingTable map[EventKind]string

// NewRoutingTable builds the table from the two configured downstream URLs
func NewRoutingTable(purchaseListenerURL, productValidatorURL string) RoutingTable {
	return RoutingTable{
		EventOrderPaid:     purchaseListenerURL,
		EventProductUpsert: productValidatorURL,
	}
}
