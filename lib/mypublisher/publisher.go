package mypublisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MarcGrol/statueshop/lib/mylog"
	"github.com/MarcGrol/statueshop/lib/mypubsub"
	"github.com/MarcGrol/statueshop/lib/mytime"
)

type publisher struct {
	logger    mylog.Logger
	enveloper enveloper
	pubsub    mypubsub.PubSub
}

// New returns a publisher that wraps each event in an envelope and pushes it
// straight onto the pubsub topic.
func New(pubsub mypubsub.PubSub, nower mytime.Nower) Publisher {
	return &publisher{
		logger:    mylog.New("publisher"),
		enveloper: newEnveloper(nower),
		pubsub:    pubsub,
	}
}

func (p *publisher) CreateTopic(c context.Context, topic string) error {
	return p.pubsub.CreateTopic(c, topic)
}

func (p *publisher) Publish(c context.Context, topic string, event Event) error {
	envelope, err := p.enveloper.do(topic, event)
	if err != nil {
		return fmt.Errorf("error creating envelope: %s", err)
	}

	jsonBytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("error serializing envelope: %s", err)
	}

	err = p.pubsub.Publish(c, envelope.Topic, string(jsonBytes))
	if err != nil {
		return fmt.Errorf("error publishing event %s: %s", envelope, err)
	}

	p.logger.Log(c, envelope.AggregateUID, mylog.SeverityInfo, "Published event %s (%s)", envelope, envelope.UID)

	return nil
}
