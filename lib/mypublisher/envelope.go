package mypublisher

import "time"

// Event is a domain event. The aggregate name is the id of the entity the event is about.
type Event interface {
	GetEventTypeName() string
	GetAggregateName() string
}

// Envelope is the wire format of every published message.
type Envelope struct {
	UID           string    `json:"uid"`
	CreatedAt     time.Time `json:"createdAt"`
	Topic         string    `json:"topic"`
	AggregateUID  string    `json:"aggregateUID"`
	EventTypeName string    `json:"eventTypeName"`
	EventPayload  string    `json:"eventPayload"`
}

func (e Envelope) String() string {
	return e.Topic + "." + e.EventTypeName + "." + e.AggregateUID
}
