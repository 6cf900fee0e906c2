// Package memory provides an EventPublisher that records events in memory,
// for tests and broker-less development runs.
package memory

import "sync"

// Published is one captured event with the topic it was sent to.
type Published struct {
	Topic string
	Event any
}

type Publisher struct {
	mu     sync.Mutex
	events []Published
}

func NewPublisher() *Publisher {
	return &Publisher{}
}

func (p *Publisher) Publish(topic string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, Published{Topic: topic, Event: event})
	return nil
}

// Events returns a copy of everything published so far, in order.
func (p *Publisher) Events() []Published {
	p.mu.Lock()
	defer p.mu.Unlock()
	copied := make([]Published, len(p.events))
	copy(copied, p.events)
	return copied
}
