package interfaces

// EventPublisher delivers emitted payment records to external observers and
// indexers. The ledger writes to it and never reads back.
type EventPublisher interface {
	Publish(topic string, event any) error
}
