package mypubsub

import (
	"context"
	"os"
	"sync"
)

func init() {
	if os.Getenv("GOOGLE_CLOUD_PROJECT") == "" {
		New = newFakePubSub
	}
}

// FakePubSub keeps published messages in memory, per topic.
type FakePubSub struct {
	sync.Mutex
	Messages map[string][]string
}

func newFakePubSub(c context.Context) (PubSub, func(), error) {
	return NewFake(), func() {}, nil
}

func NewFake() *FakePubSub {
	return &FakePubSub{
		Messages: map[string][]string{},
	}
}

func (q *FakePubSub) CreateTopic(c context.Context, topic string) error {
	q.Lock()
	defer q.Unlock()

	if _, found := q.Messages[topic]; !found {
		q.Messages[topic] = []string{}
	}
	return nil
}

func (q *FakePubSub) Publish(c context.Context, topic string, data string) error {
	q.Lock()
	defer q.Unlock()

	q.Messages[topic] = append(q.Messages[topic], data)
	return nil
}

func (q *FakePubSub) Published(topic string) []string {
	q.Lock()
	defer q.Unlock()

	return append([]string{}, q.Messages[topic]...)
}
